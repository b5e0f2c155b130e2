// Package kvtext extracts "key: value" pairs from line-oriented text such as
// the output of command line tools.
package kvtext

import "strings"

// Value scans text line by line for a line starting with "key:" and returns the
// trimmed remainder of the first such line. Matching is case sensitive and
// anchored at the start of the line. An empty value is still a match.
func Value(text, key string) (string, bool) {
	prefix := key + ":"
	rest := text
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		if v, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
