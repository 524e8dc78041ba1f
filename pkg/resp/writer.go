package resp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Writer encodes RESP values into a buffered stream. Nothing reaches the
// underlying stream until Flush or until the buffer fills.
type Writer struct {
	bw  *bufio.Writer
	num []byte
}

// NewWriter returns a Writer over w. If w is already a *bufio.Writer it is
// used directly.
func NewWriter(w io.Writer) *Writer {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Writer{bw: bw, num: make([]byte, 0, 24)}
}

// WriteSimpleString writes "+s\r\n".
func (w *Writer) WriteSimpleString(s string) error {
	return w.writeLine('+', s)
}

// WriteError writes "-s\r\n". The message is written verbatim; callers
// supply any "ERR" prefix themselves.
func (w *Writer) WriteError(s string) error {
	return w.writeLine('-', s)
}

// WriteInteger writes ":n\r\n".
func (w *Writer) WriteInteger(n uint64) error {
	return w.writeHeader(':', n)
}

// WriteBulk writes "$<len>\r\n<b>\r\n". A nil b is written as an empty
// bulk string.
func (w *Writer) WriteBulk(b []byte) error {
	if err := w.writeHeader('$', uint64(len(b))); err != nil {
		return err
	}
	if _, err := w.bw.Write(b); err != nil {
		return err
	}
	_, err := w.bw.WriteString("\r\n")
	return err
}

// WriteBulkString is WriteBulk for string input.
func (w *Writer) WriteBulkString(s string) error {
	if err := w.writeHeader('$', uint64(len(s))); err != nil {
		return err
	}
	if _, err := w.bw.WriteString(s); err != nil {
		return err
	}
	_, err := w.bw.WriteString("\r\n")
	return err
}

// WriteNull writes the null bulk string "$-1\r\n".
func (w *Writer) WriteNull() error {
	_, err := w.bw.WriteString("$-1\r\n")
	return err
}

// WriteArrayHeader writes "*n\r\n". The caller writes the n elements.
func (w *Writer) WriteArrayHeader(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative array length %d", ErrInvalidValue, n)
	}
	return w.writeHeader('*', uint64(n))
}

// WriteValue writes v, recursing into arrays.
func (w *Writer) WriteValue(v Value) error {
	switch v.Kind {
	case KindSimpleString:
		return w.WriteSimpleString(v.Str)
	case KindSimpleError:
		return w.WriteError(v.Str)
	case KindInteger:
		return w.WriteInteger(v.Int)
	case KindBulkString:
		return w.WriteBulk(v.Bulk)
	case KindNull:
		return w.WriteNull()
	case KindArray:
		if err := w.WriteArrayHeader(len(v.Array)); err != nil {
			return err
		}
		for _, e := range v.Array {
			if err := w.WriteValue(e); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidValue, v.Kind)
	}
}

// WriteCommand writes args as an array of bulk strings, the form clients
// use to send commands.
func (w *Writer) WriteCommand(args ...[]byte) error {
	if err := w.WriteArrayHeader(len(args)); err != nil {
		return err
	}
	for _, a := range args {
		if err := w.WriteBulk(a); err != nil {
			return err
		}
	}
	return nil
}

// Buffered returns the number of bytes waiting to be flushed.
func (w *Writer) Buffered() int {
	return w.bw.Buffered()
}

// Flush writes buffered data to the underlying stream.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

func (w *Writer) writeLine(prefix byte, s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("%w: line contains CR or LF", ErrInvalidValue)
	}
	if err := w.bw.WriteByte(prefix); err != nil {
		return err
	}
	if _, err := w.bw.WriteString(s); err != nil {
		return err
	}
	_, err := w.bw.WriteString("\r\n")
	return err
}

func (w *Writer) writeHeader(prefix byte, n uint64) error {
	w.num = append(w.num[:0], prefix)
	w.num = strconv.AppendUint(w.num, n, 10)
	w.num = append(w.num, '\r', '\n')
	_, err := w.bw.Write(w.num)
	return err
}
