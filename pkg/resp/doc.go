// Package resp implements the RESP2 wire format used by respkv.
//
// A Reader decodes one protocol value at a time from a byte stream and a
// Writer encodes replies into a buffered stream:
//
//	r := resp.NewReader(conn)
//	w := resp.NewWriter(conn)
//	v, err := r.ReadValue()
//	if errors.Is(err, resp.ErrDisconnected) {
//		return // peer closed between commands
//	}
//	_ = w.WriteValue(resp.SimpleString("PONG"))
//	_ = w.Flush()
//
// Decoding is recursive and bounded by Limits (nesting depth, array length,
// bulk length and line length). Inline commands are not supported.
package resp
