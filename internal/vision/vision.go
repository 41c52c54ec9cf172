package vision

import (
	"context"
	"io"
)

// AnalysisPrompt is the shared prompt used by all vision adapters.
const AnalysisPrompt = `List every stock item you can see on the shelves or in the boxes in this photo.
For each item provide: name, counted quantity as a whole number, and any relevant
notes (e.g. damaged, opened). Respond in plain text, one item per line,
format: name | quantity | notes`

type VisionAnalyzer interface {
	Analyze(ctx context.Context, r io.Reader, mimeType string) (*AnalysisResult, error)
}

type AnalysisResult struct {
	Items       []DetectedItem
	RawResponse string
}

type DetectedItem struct {
	Name     string
	Quantity string
	Notes    string
}
