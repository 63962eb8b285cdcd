// Package macaddr canonicalizes MAC addresses and extracts MAC-shaped
// tokens from raw network-table text.
package macaddr

import (
	"regexp"
	"strings"
)

// tokenPattern matches six two-hex-digit groups separated by ':' or '-',
// anywhere in a line. ARP table output wraps these in arbitrary text
// (IP addresses, interface names, column headers), which is ignored.
var tokenPattern = regexp.MustCompile(`([0-9A-Fa-f]{2}[-:]){5}[0-9A-Fa-f]{2}`)

// Normalize canonicalizes an arbitrary textual MAC representation:
// upper-case, dots and separators stripped, re-grouped into six pairs
// joined by ':' (or '-' when useDash is set).
//
// Anything that does not reduce to exactly 12 hex digits is not a MAC;
// Normalize reports ok=false for it. That is a normal outcome meaning
// "exclude from matching", not an error.
func Normalize(raw string, useDash bool) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ".", "")
	var hex strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') {
			hex.WriteRune(r)
		}
	}
	s = hex.String()
	if len(s) != 12 {
		return "", false
	}
	sep := ":"
	if useDash {
		sep = "-"
	}
	groups := make([]string, 0, 6)
	for i := 0; i < 12; i += 2 {
		groups = append(groups, s[i:i+2])
	}
	return strings.Join(groups, sep), true
}

// Extract returns every MAC-like token found in raw, verbatim and in
// order of appearance. Duplicates are kept; callers normalize and
// de-duplicate afterwards.
func Extract(raw string) []string {
	return tokenPattern.FindAllString(raw, -1)
}

// NormalizeSet normalizes every token and collects the valid ones into a
// set. Malformed tokens are dropped.
func NormalizeSet(tokens []string, useDash bool) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if mac, ok := Normalize(tok, useDash); ok {
			set[mac] = struct{}{}
		}
	}
	return set
}
