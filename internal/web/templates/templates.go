// Package templates embeds the HTML templates served by the web adapter.
package templates

import "embed"

//go:embed *.html pages/*.html
var FS embed.FS
