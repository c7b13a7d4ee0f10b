// Package shellsplit implements the shell-like argument splitter the MI
// adapter uses to break a command line's argument tail into words: it
// recognizes single and double quotes, collapses runs of whitespace, and
// stops at a newline.
package shellsplit

import "strings"

// Split breaks s into words the way a simple shell would: runs of
// unquoted whitespace separate words, and matching single or double quotes
// group whitespace into one word with the quotes removed. A newline
// terminates scanning (the MI framing layer strips the trailing newline
// before calling Split, but a defensive caller may not have).
func Split(s string) []string {
	var (
		words   []string
		cur     strings.Builder
		inWord  bool
		quote   rune // 0 when not inside a quote
	)

	flush := func() {
		if inWord {
			words = append(words, cur.String())
			cur.Reset()
			inWord = false
		}
	}

	for _, r := range s {
		if r == '\n' {
			break
		}
		if quote != 0 {
			if r == quote {
				quote = 0
				continue
			}
			cur.WriteRune(r)
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
			inWord = true
		case ' ', '\t', '\r':
			flush()
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	flush()
	return words
}
