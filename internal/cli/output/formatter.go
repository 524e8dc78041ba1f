package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/respkv/pkg/resp"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name. The empty string means text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("output: unknown format %q (want text, json or yaml)", s)
	}
}

// Formatter writes a reply.
type Formatter interface {
	Format(w io.Writer, v resp.Value) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Data converts a reply to plain Go values: strings, uint64, nil, []any
// and map[string]any{"error": msg} for error replies.
func Data(v resp.Value) any {
	switch v.Kind {
	case resp.KindSimpleString, resp.KindBulkString:
		return v.Text()
	case resp.KindSimpleError:
		return map[string]any{"error": v.Str}
	case resp.KindInteger:
		return v.Int
	case resp.KindArray:
		items := make([]any, len(v.Array))
		for i, e := range v.Array {
			items[i] = Data(e)
		}
		return items
	default:
		return nil
	}
}
