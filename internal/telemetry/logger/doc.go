// Package logger configures structured logging for respkv on top of
// log/slog.
//
// All loggers built by New share one level, so SetLevel applies to the
// whole process; the server calls it when the config file's log.level
// changes. Client keys and values are cut to a short preview before they
// reach a handler, and a connection ID stored with WithConnID is attached
// to every record logged with that context.
package logger
