package preprocess

import (
	"fmt"
	"strings"
)

// Masker replaces variable fields such as addresses, ids and timestamps with
// fixed placeholders, so lines that differ only in those fields analyze to
// the same tokens.
//
// Example:
//
//	"Connection from 10.0.0.7:5432 failed" → "Connection from <IPV4> failed"
//	"Connection from 10.0.0.9:5432 failed" → "Connection from <IPV4> failed"
//
// A Masker is immutable and safe for concurrent use.
type Masker struct {
	patterns []MaskPattern
}

// NewMasker creates a Masker for the named patterns. An empty list selects
// DefaultPatterns. Unknown names are an error.
func NewMasker(names []string) (*Masker, error) {
	if len(names) == 0 {
		names = DefaultPatterns()
	}

	patterns, unknown := GetPatterns(names)
	if len(unknown) > 0 {
		return nil, fmt.Errorf("unknown mask patterns: %s", strings.Join(unknown, ", "))
	}

	return &Masker{patterns: patterns}, nil
}

// Mask returns text with every pattern match replaced by its placeholder.
func (m *Masker) Mask(text string) string {
	for _, p := range m.patterns {
		text = p.Regex.ReplaceAllLiteralString(text, "<"+p.Type+">")
	}
	return text
}

// Names returns the names of the active patterns in application order.
func (m *Masker) Names() []string {
	names := make([]string, len(m.patterns))
	for i, p := range m.patterns {
		names[i] = p.Name
	}
	return names
}
