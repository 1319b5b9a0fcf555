package preprocess

import (
	"regexp"
	"strings"
)

// Wildcard marks a template position whose token varies between samples.
const Wildcard = "<*>"

var (
	numberRegex    = regexp.MustCompile(`^[-+]?\d+(?:\.\d+)?[,;]?$`)
	hexTokenRegex  = regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`)
	ipTokenRegex   = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?::\d+)?$`)
	uuidTokenRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	isoTimeRegex   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
	clockRegex     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}(?:[.,]\d+)?$`)
)

// isVariableToken reports whether a token looks like a variable field.
func isVariableToken(token string) bool {
	switch {
	case numberRegex.MatchString(token),
		hexTokenRegex.MatchString(token),
		ipTokenRegex.MatchString(token),
		uuidTokenRegex.MatchString(token),
		isoTimeRegex.MatchString(token),
		clockRegex.MatchString(token):
		return true
	}

	// Long paths usually embed ids.
	return strings.HasPrefix(token, "/") && len(token) > 20
}

// Template derives a single pattern shared by texts. Texts are split on
// whitespace; a position keeps its token when every text agrees on it and
// the token does not look variable, and becomes Wildcard otherwise. Texts of
// different lengths pad the tail with Wildcard.
func Template(texts []string) string {
	if len(texts) == 0 {
		return ""
	}

	tmpl := templateTokens(strings.Fields(texts[0]))
	for _, text := range texts[1:] {
		tmpl = mergeTemplates(tmpl, strings.Fields(text))
	}
	return strings.Join(tmpl, " ")
}

// HasWildcard reports whether pattern contains at least one Wildcard.
func HasWildcard(pattern string) bool {
	return strings.Contains(pattern, Wildcard)
}

// templateTokens replaces variable tokens with Wildcard.
func templateTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if isVariableToken(tok) {
			out[i] = Wildcard
		} else {
			out[i] = tok
		}
	}
	return out
}

// mergeTemplates merges a template with a new token sequence. Positions
// where they differ become Wildcard.
func mergeTemplates(existing, tokens []string) []string {
	n := max(len(existing), len(tokens))

	out := make([]string, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(existing) || i >= len(tokens):
			out[i] = Wildcard
		case existing[i] == Wildcard || existing[i] != tokens[i]:
			out[i] = Wildcard
		default:
			out[i] = existing[i]
		}
	}
	return out
}
