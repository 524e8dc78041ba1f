package repl

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnbalancedQuotes is returned by SplitArgs for an unterminated quote.
var ErrUnbalancedQuotes = errors.New("repl: unbalanced quotes")

// SplitArgs splits a line into arguments the way redis-cli does.
//
// Double-quoted arguments understand \n, \r, \t, \b, \a, \\, \" and \xHH.
// Single-quoted arguments are literal except for \'. A closing quote must
// be followed by a space or the end of the line.
func SplitArgs(line string) ([]string, error) {
	var args []string
	i := 0
	for {
		for i < len(line) && isSpace(line[i]) {
			i++
		}
		if i == len(line) {
			return args, nil
		}

		var sb strings.Builder
		switch line[i] {
		case '"':
			i++
			closed := false
			for i < len(line) && !closed {
				c := line[i]
				switch {
				case c == '\\' && i+3 < len(line) && line[i+1] == 'x' && isHex(line[i+2]) && isHex(line[i+3]):
					n, _ := strconv.ParseUint(line[i+2:i+4], 16, 8)
					sb.WriteByte(byte(n))
					i += 4
				case c == '\\' && i+1 < len(line):
					sb.WriteByte(unescape(line[i+1]))
					i += 2
				case c == '"':
					closed = true
					i++
				default:
					sb.WriteByte(c)
					i++
				}
			}
			if !closed || (i < len(line) && !isSpace(line[i])) {
				return nil, ErrUnbalancedQuotes
			}
		case '\'':
			i++
			closed := false
			for i < len(line) && !closed {
				c := line[i]
				switch {
				case c == '\\' && i+1 < len(line) && line[i+1] == '\'':
					sb.WriteByte('\'')
					i += 2
				case c == '\'':
					closed = true
					i++
				default:
					sb.WriteByte(c)
					i++
				}
			}
			if !closed || (i < len(line) && !isSpace(line[i])) {
				return nil, ErrUnbalancedQuotes
			}
		default:
			for i < len(line) && !isSpace(line[i]) {
				sb.WriteByte(line[i])
				i++
			}
		}
		args = append(args, sb.String())
	}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'a':
		return '\a'
	default:
		return c
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
