// Package cescape implements the C-string escaping rules shared by the MI
// value tree (internal/mival) and the MI adapter's command-echo log-stream
// record.
package cescape

import "strings"

// Escape rewrites s so it is safe to place between double quotes in an MI
// record: `"` becomes `\"` and newline becomes `\n`. No other characters are
// touched, matching GDB/MI's minimal quoting rather than full C escaping.
func Escape(s string) string {
	if !strings.ContainsAny(s, "\"\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
