package p2pstream

import "log/slog"

// Logger is the interface for structured logging.
// It is designed to be compatible with *slog.Logger from the standard library.
// Applications can provide their own implementation or use the default slog logger.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}

// defaultLogger returns the default slog logger from the standard library.
func defaultLogger() Logger {
	return slog.Default()
}

// fieldLogger appends a fixed set of key-value pairs to every record.
type fieldLogger struct {
	next   Logger
	fields []any
}

// withFields returns a Logger that tags every record with fields.
func withFields(l Logger, fields ...any) Logger {
	if len(fields) == 0 {
		return l
	}
	return &fieldLogger{next: l, fields: fields}
}

func (l *fieldLogger) args(args []any) []any {
	out := make([]any, 0, len(l.fields)+len(args))
	out = append(out, l.fields...)
	return append(out, args...)
}

func (l *fieldLogger) Debug(msg string, args ...any) { l.next.Debug(msg, l.args(args)...) }
func (l *fieldLogger) Info(msg string, args ...any)  { l.next.Info(msg, l.args(args)...) }
func (l *fieldLogger) Warn(msg string, args ...any)  { l.next.Warn(msg, l.args(args)...) }
func (l *fieldLogger) Error(msg string, args ...any) { l.next.Error(msg, l.args(args)...) }
