package vision

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseLine parses one "name | quantity | notes" line. Lines without a pipe,
// blank lines and model preamble return nil.
func ParseLine(line string) *DetectedItem {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}

	// Skip common headers or non-item lines
	if strings.HasPrefix(line, "Here") || strings.HasPrefix(line, "I see") || strings.HasPrefix(line, "Based on") {
		return nil
	}

	parts := strings.Split(line, "|")
	item := DetectedItem{Name: strings.TrimSpace(parts[0])}
	if len(parts) >= 2 {
		item.Quantity = strings.TrimSpace(parts[1])
	}
	if len(parts) >= 3 {
		item.Notes = strings.TrimSpace(parts[2])
	}
	if item.Name == "" {
		return nil
	}
	return &item
}

// ParseResponse parses vision model response in format: name | quantity | notes
// One item per line.
func ParseResponse(raw string) []DetectedItem {
	items := make([]DetectedItem, 0)
	for _, line := range strings.Split(raw, "\n") {
		if item := ParseLine(line); item != nil {
			items = append(items, *item)
		}
	}
	return items
}

// Count returns the leading whole number of a detected quantity such as
// "12", "12 boxes" or "3x". It returns 1 when no number leads the text.
func Count(quantity string) int {
	quantity = strings.TrimSpace(quantity)
	end := strings.IndexFunc(quantity, func(r rune) bool { return !unicode.IsDigit(r) })
	if end == -1 {
		end = len(quantity)
	}
	n, err := strconv.Atoi(quantity[:end])
	if err != nil {
		return 1
	}
	return n
}
