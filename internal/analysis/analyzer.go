package analysis

import (
	"context"

	"github.com/bimmerbailey/grasp/internal/workpool"
)

// CharFilter rewrites a whole line before tokenization.
type CharFilter func(string) string

// Tokenizer splits a filtered line into tokens.
type Tokenizer func(string) []string

// TokenFilter transforms a token sequence. It may drop or append tokens but
// must not modify the slice it receives.
type TokenFilter func([]string) []string

// Analyzer applies character filters, a tokenizer and token filters in order.
// An Analyzer holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	charFilters  []CharFilter
	tokenizer    Tokenizer
	tokenFilters []TokenFilter
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithCharFilters replaces the character filter chain.
func WithCharFilters(filters ...CharFilter) Option {
	return func(a *Analyzer) {
		a.charFilters = filters
	}
}

// WithTokenizer replaces the tokenizer.
func WithTokenizer(t Tokenizer) Option {
	return func(a *Analyzer) {
		a.tokenizer = t
	}
}

// WithTokenFilters replaces the token filter chain.
func WithTokenFilters(filters ...TokenFilter) Option {
	return func(a *Analyzer) {
		a.tokenFilters = filters
	}
}

// New creates an Analyzer. Without options it behaves like Default.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		charFilters:  []CharFilter{LowercaseFilter},
		tokenizer:    WordPunctTokenizer,
		tokenFilters: []TokenFilter{NumericFilter, SingleCharFilter},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Default returns the analyzer used for clustering: lower-case, split into
// word/punctuation runs, then drop pure numbers and lone non-letters.
func Default() *Analyzer {
	return New()
}

// Analyze returns the token sequence for one line.
func (a *Analyzer) Analyze(line string) []string {
	for _, f := range a.charFilters {
		line = f(line)
	}

	tokens := a.tokenizer(line)

	for _, f := range a.tokenFilters {
		tokens = f(tokens)
	}
	return tokens
}

// AnalyzeAll analyzes every line, splitting the work across workers.
// The result has one token sequence per line, in input order.
func (a *Analyzer) AnalyzeAll(ctx context.Context, lines []string, workers int) ([][]string, error) {
	out := make([][]string, len(lines))
	err := workpool.ForEachChunk(ctx, len(lines), workers, func(_ context.Context, start, end int) error {
		for i := start; i < end; i++ {
			out[i] = a.Analyze(lines[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
