package mi

import (
	"strconv"
	"strings"

	"github.com/dd86k/aliceserver/internal/shellsplit"
)

// line is one decoded MI input line, per the grammar
// "[<id-digits>][-]<name> <args...>".
type line struct {
	ID       uint64
	HasID    bool
	Overflow bool
	Dashed   bool
	Name     string
	Args     []string

	// Echo is the line with the leading id digits and any spaces or tabs
	// right after them stripped, the exact text a non-dashed command
	// echoes via a log-stream record.
	Echo string
}

// maxIDDigits bounds the leading numeric id buffer; more digits than this
// cannot fit a uint64 and is treated as overflow.
const maxIDDigits = 20

// parse decodes raw (already stripped of its trailing newline) into a line.
func parse(raw string) line {
	var l line

	i := 0
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i > 0 {
		digits := raw[:i]
		if i > maxIDDigits {
			l.Overflow = true
		} else if id, err := strconv.ParseUint(digits, 10, 64); err == nil {
			l.ID = id
			l.HasID = true
		} else {
			l.Overflow = true
		}
	}

	l.Echo = strings.TrimLeft(raw[i:], " \t")

	rest := l.Echo
	if strings.HasPrefix(rest, "-") {
		l.Dashed = true
		rest = rest[1:]
	}
	rest = strings.TrimLeft(rest, " \t")

	sp := strings.IndexAny(rest, " \t")
	if sp < 0 {
		l.Name = rest
		return l
	}
	l.Name = rest[:sp]
	l.Args = shellsplit.Split(rest[sp+1:])
	return l
}
