package resp

import (
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindSimpleString Kind = iota + 1
	KindSimpleError
	KindInteger
	KindBulkString
	KindArray
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "simple-string"
	case KindSimpleError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk-string"
	case KindArray:
		return "array"
	case KindNull:
		return "null"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a decoded RESP value.
//
// Only the field matching Kind is meaningful: Str for simple strings and
// errors, Int for integers, Bulk for bulk strings and Array for arrays.
// The zero Value is invalid.
type Value struct {
	Kind  Kind
	Str   string
	Int   uint64
	Bulk  []byte
	Array []Value
}

// SimpleString returns a simple string value.
func SimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Str: s}
}

// Error returns a simple error value.
func Error(s string) Value {
	return Value{Kind: KindSimpleError, Str: s}
}

// Integer returns an integer value.
func Integer(n uint64) Value {
	return Value{Kind: KindInteger, Int: n}
}

// BulkString returns a bulk string value. A nil b encodes as an empty
// bulk string, not as null; use Null for the absent value.
func BulkString(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: KindBulkString, Bulk: b}
}

// Bulk is BulkString for string input.
func Bulk(s string) Value {
	return Value{Kind: KindBulkString, Bulk: []byte(s)}
}

// Array returns an array value holding vs.
func Array(vs ...Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{Kind: KindArray, Array: vs}
}

// Null returns the null bulk string.
func Null() Value {
	return Value{Kind: KindNull}
}

// IsNull reports whether v is the null bulk string.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// IsError reports whether v is a simple error.
func (v Value) IsError() bool {
	return v.Kind == KindSimpleError
}

// Text returns the textual payload of v for simple strings, errors and
// bulk strings, and the decimal form of integers.
func (v Value) Text() string {
	switch v.Kind {
	case KindSimpleString, KindSimpleError:
		return v.Str
	case KindBulkString:
		return string(v.Bulk)
	case KindInteger:
		return strconv.FormatUint(v.Int, 10)
	default:
		return ""
	}
}

// String renders v in a compact debugging form.
func (v Value) String() string {
	switch v.Kind {
	case KindSimpleString:
		return "+" + v.Str
	case KindSimpleError:
		return "-" + v.Str
	case KindInteger:
		return ":" + strconv.FormatUint(v.Int, 10)
	case KindBulkString:
		return strconv.Quote(string(v.Bulk))
	case KindNull:
		return "(nil)"
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, e := range v.Array {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, " ") + "]"
	default:
		return "<invalid>"
	}
}
