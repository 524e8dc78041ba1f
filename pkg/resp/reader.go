package resp

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Default decode limits.
const (
	// DefaultMaxDepth bounds array nesting. Commands are flat arrays, so
	// anything deeper than a handful of levels is hostile input.
	DefaultMaxDepth = 32

	// DefaultMaxArrayLen limits the number of elements in a single array.
	DefaultMaxArrayLen = 1024 * 1024

	// DefaultMaxBulkLen limits the size of a single bulk string (512MB).
	DefaultMaxBulkLen = 512 * 1024 * 1024

	// DefaultMaxLineLen limits the length of a header or simple string line.
	DefaultMaxLineLen = 64 * 1024
)

// bulkPrealloc is the largest bulk payload allocated up front. Larger
// payloads grow with the data actually received.
const bulkPrealloc = 64 * 1024

var (
	// ErrProtocol is returned for malformed input. The stream cannot be
	// resynchronized after it.
	ErrProtocol = errors.New("resp: protocol error")

	// ErrLimitExceeded is returned when input exceeds a decode limit.
	ErrLimitExceeded = errors.New("resp: limit exceeded")

	// ErrDisconnected is returned when the stream ends cleanly before the
	// first byte of a value.
	ErrDisconnected = errors.New("resp: disconnected")

	// ErrInvalidValue is returned by the Writer for values that cannot be
	// encoded.
	ErrInvalidValue = errors.New("resp: invalid value")
)

// errTruncated matches both ErrProtocol and io.ErrUnexpectedEOF.
var errTruncated = fmt.Errorf("%w: %w", ErrProtocol, io.ErrUnexpectedEOF)

// Limits bounds the resources a single decoded value may consume.
// Zero fields fall back to the defaults.
type Limits struct {
	MaxDepth    int
	MaxArrayLen int
	MaxBulkLen  int64
	MaxLineLen  int
}

// DefaultLimits returns the default decode limits.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:    DefaultMaxDepth,
		MaxArrayLen: DefaultMaxArrayLen,
		MaxBulkLen:  DefaultMaxBulkLen,
		MaxLineLen:  DefaultMaxLineLen,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = d.MaxDepth
	}
	if l.MaxArrayLen <= 0 {
		l.MaxArrayLen = d.MaxArrayLen
	}
	if l.MaxBulkLen <= 0 {
		l.MaxBulkLen = d.MaxBulkLen
	}
	if l.MaxLineLen <= 0 {
		l.MaxLineLen = d.MaxLineLen
	}
	return l
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLimits sets the decode limits.
func WithLimits(l Limits) ReaderOption {
	return func(r *Reader) {
		r.limits = l.withDefaults()
	}
}

// WithNullValues makes the Reader accept the null forms "$-1" and "*-1",
// both decoded as Null. Servers leave this off; clients need it to read
// replies.
func WithNullValues() ReaderOption {
	return func(r *Reader) {
		r.allowNull = true
	}
}

// Reader decodes RESP values from a stream.
type Reader struct {
	br        *bufio.Reader
	limits    Limits
	allowNull bool
}

// NewReader returns a Reader over rd. If rd is already a *bufio.Reader it
// is used directly.
func NewReader(rd io.Reader, opts ...ReaderOption) *Reader {
	br, ok := rd.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(rd)
	}
	r := &Reader{br: br, limits: DefaultLimits()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Buffered returns the number of bytes that can be read without touching
// the underlying stream.
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}

// Peek waits until at least one byte is available. It returns
// ErrDisconnected if the stream ended cleanly.
func (r *Reader) Peek() error {
	if _, err := r.br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrDisconnected
		}
		return fmt.Errorf("resp: read: %w", err)
	}
	return nil
}

// ReadValue decodes exactly one value.
//
// It returns ErrDisconnected if the stream ends before the value starts, an
// error matching ErrProtocol (and io.ErrUnexpectedEOF) if it ends inside the
// value, ErrProtocol for malformed input and ErrLimitExceeded when a limit
// is hit.
func (r *Reader) ReadValue() (Value, error) {
	if err := r.Peek(); err != nil {
		return Value{}, err
	}
	return r.readValue(0)
}

func (r *Reader) readValue(depth int) (Value, error) {
	line, err := r.readLine()
	if err != nil {
		return Value{}, err
	}
	if len(line) == 0 {
		return Value{}, fmt.Errorf("%w: empty line", ErrProtocol)
	}

	body := line[1:]
	switch line[0] {
	case '+':
		return Value{Kind: KindSimpleString, Str: string(body)}, nil
	case '-':
		return Value{Kind: KindSimpleError, Str: string(body)}, nil
	case ':':
		n, err := strconv.ParseUint(string(body), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: invalid integer %s", ErrProtocol, quoteInput(body))
		}
		return Value{Kind: KindInteger, Int: n}, nil
	case '$':
		n, null, err := r.parseLength(body, "bulk length")
		if err != nil {
			return Value{}, err
		}
		if null {
			return Null(), nil
		}
		if n > uint64(r.limits.MaxBulkLen) {
			return Value{}, fmt.Errorf("%w: bulk length %d exceeds limit %d", ErrLimitExceeded, n, r.limits.MaxBulkLen)
		}
		b, err := r.readBulk(int64(n))
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBulkString, Bulk: b}, nil
	case '*':
		n, null, err := r.parseLength(body, "array length")
		if err != nil {
			return Value{}, err
		}
		if null {
			return Null(), nil
		}
		if depth+1 > r.limits.MaxDepth {
			return Value{}, fmt.Errorf("%w: nesting depth exceeds limit %d", ErrLimitExceeded, r.limits.MaxDepth)
		}
		if n > uint64(r.limits.MaxArrayLen) {
			return Value{}, fmt.Errorf("%w: array length %d exceeds limit %d", ErrLimitExceeded, n, r.limits.MaxArrayLen)
		}
		// The count is untrusted; grow with the elements actually decoded.
		elems := make([]Value, 0, min(int(n), 64))
		for i := uint64(0); i < n; i++ {
			v, err := r.readValue(depth + 1)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, v)
		}
		return Value{Kind: KindArray, Array: elems}, nil
	default:
		return Value{}, fmt.Errorf("%w: unknown type prefix %q", ErrProtocol, line[0])
	}
}

func (r *Reader) parseLength(b []byte, what string) (uint64, bool, error) {
	if r.allowNull && string(b) == "-1" {
		return 0, true, nil
	}
	n, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: invalid %s %s", ErrProtocol, what, quoteInput(b))
	}
	return n, false, nil
}

func (r *Reader) readBulk(n int64) ([]byte, error) {
	total := n + 2
	var buf []byte
	if total <= bulkPrealloc {
		buf = make([]byte, total)
		if _, err := io.ReadFull(r.br, buf); err != nil {
			return nil, readErr(err)
		}
	} else {
		var bb bytes.Buffer
		bb.Grow(bulkPrealloc)
		if _, err := io.CopyN(&bb, r.br, total); err != nil {
			return nil, readErr(err)
		}
		buf = bb.Bytes()
	}
	if buf[n] != '\r' || buf[n+1] != '\n' {
		return nil, fmt.Errorf("%w: invalid bulk terminator", ErrProtocol)
	}
	return buf[:n:n], nil
}

// readLine reads one CRLF-terminated line and returns it without the
// terminator. The returned slice is owned by the caller.
func (r *Reader) readLine() ([]byte, error) {
	maxLen := r.limits.MaxLineLen + 2

	var buf []byte
	for {
		frag, err := r.br.ReadSlice('\n')
		if err == nil {
			buf = append(buf, frag...)
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			buf = append(buf, frag...)
			if len(buf) > maxLen {
				return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, r.limits.MaxLineLen)
			}
			continue
		}
		return nil, readErr(err)
	}

	if len(buf) > maxLen {
		return nil, fmt.Errorf("%w: line length exceeds limit %d", ErrLimitExceeded, r.limits.MaxLineLen)
	}
	if len(buf) < 2 || buf[len(buf)-2] != '\r' {
		return nil, fmt.Errorf("%w: missing CRLF", ErrProtocol)
	}
	return buf[:len(buf)-2], nil
}

// readErr maps end-of-stream inside a value to errTruncated.
func readErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errTruncated
	}
	return fmt.Errorf("resp: read: %w", err)
}

// maxQuotedInput bounds how much of an offending line an error quotes.
const maxQuotedInput = 64

// quoteInput quotes client bytes for an error message, keeping at most
// maxQuotedInput of them. Errors end up in logs and in replies.
func quoteInput(b []byte) string {
	if len(b) <= maxQuotedInput {
		return strconv.Quote(string(b))
	}
	return strconv.Quote(string(b[:maxQuotedInput])) + "...(" + strconv.Itoa(len(b)) + " bytes)"
}
