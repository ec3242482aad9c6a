package insight

import (
	"regexp"
	"strings"
)

// Models routinely wrap JSON bodies in markdown code fences despite being
// told not to.
var reCodeFence = regexp.MustCompile("```json\n?|\n?```")

// StripCodeFence removes surrounding markdown fence markup (with or without
// a json language tag) and trims whitespace. A response without fences passes
// through unchanged.
func StripCodeFence(s string) string {
	return strings.TrimSpace(reCodeFence.ReplaceAllString(s, ""))
}
