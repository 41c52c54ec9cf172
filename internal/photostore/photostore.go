package photostore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no photo is stored under a key.
var ErrNotFound = errors.New("photo not found")

// PhotoStore archives intake photos. Keys are opaque to callers.
type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
