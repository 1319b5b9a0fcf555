package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Separator joins the tokens of a synthetic n-gram token. It contains
// punctuation and word runs side by side, so the tokenizer never emits it.
const Separator = "##___##"

// LowercaseFilter applies Unicode full case folding to lower case.
func LowercaseFilter(s string) string {
	// A Caser keeps state between calls and is not safe to share.
	return cases.Lower(language.Und).String(s)
}

// NormalizeFilter rewrites s in Unicode NFC so that composed and decomposed
// spellings of the same text produce the same tokens.
func NormalizeFilter(s string) string {
	return norm.NFC.String(s)
}

// WordPunctTokenizer splits s into maximal runs of word characters and
// maximal runs of punctuation. Whitespace separates tokens and is dropped.
// Word characters are letters, digits, combining marks and '_' in any script.
func WordPunctTokenizer(s string) []string {
	tokens := make([]string, 0, 8)
	start := -1
	inWord := false

	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, s[start:i])
				start = -1
			}
			continue
		}

		word := isWordRune(r)
		if start >= 0 && word != inWord {
			tokens = append(tokens, s[start:i])
			start = -1
		}
		if start < 0 {
			start = i
			inWord = word
		}
	}
	if start >= 0 {
		tokens = append(tokens, s[start:])
	}

	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// NumericFilter drops tokens made only of ASCII digits.
func NumericFilter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !isASCIIDigits(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// SingleCharFilter keeps tokens longer than one character and single-letter
// tokens. Empty tokens and lone digits or symbols are dropped.
func SingleCharFilter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		switch utf8.RuneCountInString(tok) {
		case 0:
			continue
		case 1:
			r, _ := utf8.DecodeRuneInString(tok)
			if !unicode.IsLetter(r) {
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

// NGramEnricher returns a filter that appends, for each n in ns, every
// contiguous run of n base tokens joined by Separator. N-grams are built
// from the incoming tokens only, never from tokens appended by this filter.
func NGramEnricher(ns ...int) TokenFilter {
	sizes := append([]int(nil), ns...)
	return func(tokens []string) []string {
		extra := 0
		for _, n := range sizes {
			if n > 0 && len(tokens) >= n {
				extra += len(tokens) - n + 1
			}
		}

		out := make([]string, len(tokens), len(tokens)+extra)
		copy(out, tokens)
		for _, n := range sizes {
			if n <= 0 {
				continue
			}
			for i := 0; i+n <= len(tokens); i++ {
				out = append(out, strings.Join(tokens[i:i+n], Separator))
			}
		}
		return out
	}
}
