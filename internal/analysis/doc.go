// Package analysis turns a raw log line into an ordered token sequence.
//
// An Analyzer runs three kinds of stages in a fixed order:
//
//  1. Character filters rewrite the whole line (lower-casing, masking)
//  2. The tokenizer splits the line into word and punctuation runs
//  3. Token filters drop or append tokens (numeric, single-char, n-grams)
//
// Basic usage:
//
//	a := analysis.Default()
//	tokens := a.Analyze("GET /health 200")
//	// ["get", "/", "health"]
//
// Stages are plain functions, so callers can compose their own:
//
//	a := analysis.New(
//	    analysis.WithCharFilters(mask, analysis.LowercaseFilter),
//	    analysis.WithTokenFilters(analysis.NumericFilter, analysis.SingleCharFilter,
//	        analysis.NGramEnricher(2, 3)),
//	)
package analysis
