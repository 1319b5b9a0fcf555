package preprocess

import (
	"regexp"
)

// MaskPattern defines a built-in pattern for variable-field masking.
type MaskPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Type        string // Placeholder text: <IPV4>, <EMAIL>, etc.
	Description string
}

// Built-in masking patterns. Each matches a field whose value varies from
// line to line while the surrounding message stays the same.
var (
	// 2024-01-15T10:30:00.123Z, 2024-01-15 10:30:00,123
	timestampRegex = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:[.,]\d+)?(?:Z|[+-]\d{2}:?\d{2})?\b`)

	// 192.168.1.1, optionally with a port
	ipv4Regex = regexp.MustCompile(`\b(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)(?:\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)){3}(?::\d{1,5})?\b`)

	// Full and compressed IPv6 forms. The shortest forms need at least two
	// groups so that clock times like 10:30 are not matched.
	ipv6Regex = regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b|\b(?:[0-9a-fA-F]{1,4}:){1,6}:(?:[0-9a-fA-F]{1,4}:){0,5}[0-9a-fA-F]{1,4}\b`)

	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	uuidRegex = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// 00:1B:44:11:3A:B7 or 00-1B-44-11-3A-B7
	macAddressRegex = regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}\b`)

	// 0x7ffd1234 and bare hex strings of 8 or more digits (hashes, ids)
	hexRegex = regexp.MustCompile(`\b0[xX][0-9a-fA-F]+\b|\b[0-9a-fA-F]{8,}\b`)

	jwtRegex = regexp.MustCompile(`\beyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*\b`)

	// 12ms, 1.5s, 300MB
	quantityRegex = regexp.MustCompile(`\b\d+(?:\.\d+)?(?:ns|us|µs|ms|s|m|h|[kKMGT]i?B|B)\b`)
)

// BuiltInPatterns contains all available masking patterns.
var BuiltInPatterns = map[string]MaskPattern{
	"timestamp": {
		Name:        "timestamp",
		Regex:       timestampRegex,
		Type:        "TS",
		Description: "ISO 8601 style timestamps",
	},
	"ipv4": {
		Name:        "ipv4",
		Regex:       ipv4Regex,
		Type:        "IPV4",
		Description: "IPv4 addresses with optional port",
	},
	"ipv6": {
		Name:        "ipv6",
		Regex:       ipv6Regex,
		Type:        "IPV6",
		Description: "IPv6 addresses",
	},
	"email": {
		Name:        "email",
		Regex:       emailRegex,
		Type:        "EMAIL",
		Description: "Email addresses",
	},
	"uuid": {
		Name:        "uuid",
		Regex:       uuidRegex,
		Type:        "UUID",
		Description: "UUIDs",
	},
	"mac_address": {
		Name:        "mac_address",
		Regex:       macAddressRegex,
		Type:        "MAC",
		Description: "MAC addresses",
	},
	"hex": {
		Name:        "hex",
		Regex:       hexRegex,
		Type:        "HEX",
		Description: "Hex literals, hashes and memory addresses",
	},
	"jwt": {
		Name:        "jwt",
		Regex:       jwtRegex,
		Type:        "JWT",
		Description: "JWT tokens",
	},
	"quantity": {
		Name:        "quantity",
		Regex:       quantityRegex,
		Type:        "NUM",
		Description: "Numbers with a duration or size unit",
	},
}

// patternOrder is the order patterns are applied in. Longer, more specific
// shapes run first so that a UUID is not half-eaten by the hex pattern.
var patternOrder = []string{
	"jwt",
	"timestamp",
	"uuid",
	"email",
	"mac_address",
	"ipv6",
	"ipv4",
	"hex",
	"quantity",
}

// DefaultPatterns returns the patterns enabled when masking is switched on
// without an explicit list.
func DefaultPatterns() []string {
	return []string{
		"timestamp",
		"ipv4",
		"ipv6",
		"email",
		"uuid",
		"mac_address",
		"hex",
		"jwt",
		"quantity",
	}
}

// GetPatterns returns the patterns matching the given names in application
// order. Unknown names are reported separately.
func GetPatterns(names []string) (patterns []MaskPattern, unknown []string) {
	want := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := BuiltInPatterns[name]; ok {
			want[name] = true
		} else {
			unknown = append(unknown, name)
		}
	}

	for _, name := range patternOrder {
		if want[name] {
			patterns = append(patterns, BuiltInPatterns[name])
		}
	}
	return patterns, unknown
}
