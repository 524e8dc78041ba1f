package logger

import (
	"log/slog"
	"strconv"
)

// MaxPayloadPreview is the number of bytes of a client payload kept in a
// log attribute.
const MaxPayloadPreview = 64

// payloadKeys are attribute keys that carry client-supplied data.
var payloadKeys = map[string]struct{}{
	"key":     {},
	"value":   {},
	"payload": {},
	"arg":     {},
	"args":    {},
	"reason":  {},
	"detail":  {},
}

// truncatePayload shortens client data so that large or binary values do
// not flood the log. Groups are handled recursively.
func truncatePayload(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if _, ok := payloadKeys[a.Key]; ok {
			return slog.String(a.Key, Preview(a.Value.String()))
		}
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok {
			if _, ok := payloadKeys[a.Key]; ok {
				return slog.String(a.Key, Preview(string(b)))
			}
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = truncatePayload(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// Preview returns s cut to MaxPayloadPreview bytes, with the original
// length appended when it was cut.
func Preview(s string) string {
	if len(s) <= MaxPayloadPreview {
		return s
	}
	return s[:MaxPayloadPreview] + "...(" + strconv.Itoa(len(s)) + " bytes)"
}
