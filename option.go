package p2pstream

import (
	"time"
)

// ErrorAction defines the action to take when a connection I/O error occurs.
type ErrorAction int

const (
	// Disconnect closes the connection when an error occurs.
	Disconnect ErrorAction = iota
	// Continue suppresses the error and continues processing.
	Continue
)

// Default configuration values.
const (
	// defaultSendBufferSize is the default size of the outgoing channel buffer.
	defaultSendBufferSize = 1
	// defaultReadBufferSize is the default size of a single socket read.
	defaultReadBufferSize = 4 * 1024
	// defaultIdleTimeout bounds how long a connection may stay silent.
	defaultIdleTimeout = 30 * time.Second
)

// options holds the configuration for a stream and, optionally, the
// connection feeding it.
type options struct {
	magic    uint32
	magicSet bool
	hash     HashFunc
	logger   Logger
	metrics  *Metrics

	onMessage     func(Message)
	onStreamError func(error)
	// onError is called on connection I/O errors.
	// Returns Disconnect to close the connection, Continue to suppress the error.
	onError func(error) ErrorAction

	sendBufferSize int           // size of buffered send channel
	readBufferSize int           // bytes requested per socket read
	idleTimeout    time.Duration // read/write deadline
}

// Option is a function that configures stream and connection options.
type Option func(*options)

// checkOptions validates and sets default values for options.
func checkOptions(opts *options) error {
	if opts.onMessage == nil {
		return ErrInvalidOnMessage
	}

	if !opts.magicSet {
		opts.magic = MagicMainNet
	}

	if opts.hash == nil {
		opts.hash = SHA256
	}

	if opts.onStreamError == nil {
		opts.onStreamError = func(error) {}
	}

	if opts.onError == nil {
		opts.onError = func(err error) ErrorAction { return Disconnect }
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	if opts.sendBufferSize <= 0 {
		opts.sendBufferSize = defaultSendBufferSize
	}

	if opts.readBufferSize <= 0 {
		opts.readBufferSize = defaultReadBufferSize
	}

	if opts.idleTimeout <= 0 {
		opts.idleTimeout = defaultIdleTimeout
	}

	return nil
}

// NetworkOption returns an Option that sets the accepted magic value.
// Any value is honored, including 0. Defaults to MagicMainNet.
func NetworkOption(magic uint32) Option {
	return func(o *options) {
		o.magic = magic
		o.magicSet = true
	}
}

// HashOption returns an Option that replaces the hash primitive used for
// checksums. Defaults to SHA256.
func HashOption(hash HashFunc) Option {
	return func(o *options) {
		o.hash = hash
	}
}

// OnMessageOption returns an Option that sets the message handler.
// This callback is required and is invoked synchronously once per frame,
// in frame order. It may call Push on the same stream.
func OnMessageOption(cb func(Message)) Option {
	return func(o *options) {
		o.onMessage = cb
	}
}

// OnStreamErrorOption returns an Option that sets the terminal error handler.
// It is invoked at most once, when the stream is destroyed.
func OnStreamErrorOption(cb func(error)) Option {
	return func(o *options) {
		o.onStreamError = cb
	}
}

// OnErrorOption returns an Option that sets the connection I/O error callback.
// Return Disconnect to close the connection, or Continue to suppress the error.
// Stream errors are never passed here.
func OnErrorOption(cb func(error) ErrorAction) Option {
	return func(o *options) {
		o.onError = cb
	}
}

// LoggerOption returns an Option that sets the logger.
// If not set, the default slog logger will be used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// MetricsOption returns an Option that records stream activity into m.
func MetricsOption(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// SendBufferSizeOption returns an Option that sets the size of the send channel buffer.
func SendBufferSizeOption(size int) Option {
	return func(o *options) {
		o.sendBufferSize = size
	}
}

// ReadBufferSizeOption returns an Option that sets how many bytes a
// connection requests per read. Each read becomes one pushed chunk.
func ReadBufferSizeOption(size int) Option {
	return func(o *options) {
		o.readBufferSize = size
	}
}

// IdleTimeoutOption returns an Option that sets the read/write deadline
// applied before every socket operation.
func IdleTimeoutOption(timeout time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = timeout
	}
}
