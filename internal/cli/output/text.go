package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/yndnr/respkv/pkg/resp"
)

// TextFormatter renders replies the way redis-cli does on a terminal.
type TextFormatter struct{}

// Format writes v followed by a newline.
func (f *TextFormatter) Format(w io.Writer, v resp.Value) error {
	_, err := io.WriteString(w, strings.Join(textLines(v), "\n")+"\n")
	return err
}

func textLines(v resp.Value) []string {
	switch v.Kind {
	case resp.KindSimpleString:
		return []string{v.Str}
	case resp.KindSimpleError:
		return []string{"(error) " + v.Str}
	case resp.KindInteger:
		return []string{"(integer) " + strconv.FormatUint(v.Int, 10)}
	case resp.KindBulkString:
		return []string{Quote(v.Bulk)}
	case resp.KindNull:
		return []string{"(nil)"}
	case resp.KindArray:
		if len(v.Array) == 0 {
			return []string{"(empty array)"}
		}
		width := len(strconv.Itoa(len(v.Array)))
		var lines []string
		for i, e := range v.Array {
			prefix := fmt.Sprintf("%*d) ", width, i+1)
			pad := strings.Repeat(" ", len(prefix))
			for j, line := range textLines(e) {
				if j == 0 {
					lines = append(lines, prefix+line)
				} else {
					lines = append(lines, pad+line)
				}
			}
		}
		return lines
	default:
		return []string{"(unknown)"}
	}
}

// Quote returns b as a double-quoted string. Printable ASCII is kept and
// everything else is escaped, as redis-cli does.
func Quote(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) + 2)
	sb.WriteByte('"')
	for _, c := range b {
		switch c {
		case '\\', '"':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\a':
			sb.WriteString(`\a`)
		case '\b':
			sb.WriteString(`\b`)
		default:
			if c >= 0x20 && c < 0x7f {
				sb.WriteByte(c)
			} else {
				fmt.Fprintf(&sb, `\x%02x`, c)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
