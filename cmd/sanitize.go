package cmd

import (
	"path/filepath"
	"strings"
)

// displayPath renders a path for human-readable output: slash-separated, with
// control characters (runes < 0x20 or == 0x7F) replaced by '?' so file names
// cannot inject terminal escapes.
func displayPath(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return '?'
		}
		return r
	}, filepath.ToSlash(s))
}
