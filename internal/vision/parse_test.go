package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected *DetectedItem
	}{
		{
			name:     "full item",
			line:     "Pen | 12 | blue ink",
			expected: &DetectedItem{Name: "Pen", Quantity: "12", Notes: "blue ink"},
		},
		{
			name:     "name and quantity only",
			line:     "Stapler | 3 boxes",
			expected: &DetectedItem{Name: "Stapler", Quantity: "3 boxes", Notes: ""},
		},
		{
			// preamble and item names look the same without a separator
			name:     "name only without pipe",
			line:     "Eraser",
			expected: nil,
		},
		{
			name:     "empty name",
			line:     " | 4 | ",
			expected: nil,
		},
		{
			name:     "empty line",
			line:     "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			line:     "   ",
			expected: nil,
		},
		{
			name:     "header line Here",
			line:     "Here are the items | qty",
			expected: nil,
		},
		{
			name:     "header line I see",
			line:     "I see the following:",
			expected: nil,
		},
		{
			name:     "header line Based on",
			line:     "Based on the image | I count",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLine(tt.line))
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []DetectedItem
	}{
		{
			name: "basic items",
			raw: `Pen | 10 | blue
Binder | 4 |
Notebook | 2 packs | A5`,
			expected: []DetectedItem{
				{Name: "Pen", Quantity: "10", Notes: "blue"},
				{Name: "Binder", Quantity: "4", Notes: ""},
				{Name: "Notebook", Quantity: "2 packs", Notes: "A5"},
			},
		},
		{
			name: "skip header lines",
			raw: `Here are the items I see:
Pen | 1 |
Tape | 6 | `,
			expected: []DetectedItem{
				{Name: "Pen", Quantity: "1", Notes: ""},
				{Name: "Tape", Quantity: "6", Notes: ""},
			},
		},
		{
			name: "empty lines",
			raw: `Glue | 6 |

Ruler | 4 | `,
			expected: []DetectedItem{
				{Name: "Glue", Quantity: "6", Notes: ""},
				{Name: "Ruler", Quantity: "4", Notes: ""},
			},
		},
		{
			name:     "no items with pipes",
			raw:      "Here are the items:",
			expected: []DetectedItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseResponse(tt.raw))
		})
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		quantity string
		want     int
	}{
		{"12", 12},
		{"12 boxes", 12},
		{" 3x ", 3},
		{"0", 0},
		{"about five", 1},
		{"", 1},
	}

	for _, tt := range tests {
		t.Run(tt.quantity, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.quantity))
		})
	}
}
