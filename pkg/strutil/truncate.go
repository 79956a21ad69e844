package strutil

import "unicode/utf8"

// Truncate returns s if it has at most width codepoints. Otherwise it returns
// the first width-1 codepoints of s followed by "…".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}
