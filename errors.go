package p2pstream

import (
	"github.com/pkg/errors"
)

// ErrorKind classifies a stream-fatal decoding failure.
type ErrorKind int

const (
	// UnsupportedNetwork means the header magic did not match.
	UnsupportedNetwork ErrorKind = iota + 1
	// PayloadExceedsLimit means the header declared more than MaxPayloadLength bytes.
	PayloadExceedsLimit
	// InvalidChecksum means the body did not hash to the header checksum.
	InvalidChecksum
)

// Code returns the stable identifier of the kind.
func (k ErrorKind) Code() string {
	switch k {
	case UnsupportedNetwork:
		return "UNSUPPORTED_NETWORK"
	case PayloadExceedsLimit:
		return "PAYLOAD_EXCEEDS_LIMIT"
	case InvalidChecksum:
		return "INVALID_CHECKSUM"
	}
	return "UNKNOWN"
}

func (k ErrorKind) String() string {
	switch k {
	case UnsupportedNetwork:
		return "unsupported network"
	case PayloadExceedsLimit:
		return "payload exceeds limit"
	case InvalidChecksum:
		return "invalid checksum"
	}
	return "unknown"
}

// StreamError is the terminal error reported when a stream is destroyed by
// invalid input. Every kind is fatal to the whole stream.
type StreamError struct {
	Kind ErrorKind
}

func (e *StreamError) Error() string {
	return "stream: " + e.Kind.String()
}

// Errors reported through the stream error callback. Validators attach detail
// with errors.WithMessagef, so compare with errors.Is or use KindOf.
var (
	ErrUnsupportedNetwork  = &StreamError{Kind: UnsupportedNetwork}
	ErrPayloadExceedsLimit = &StreamError{Kind: PayloadExceedsLimit}
	ErrInvalidChecksum     = &StreamError{Kind: InvalidChecksum}
)

// KindOf extracts the ErrorKind from err. It returns 0 when err does not wrap
// a *StreamError.
func KindOf(err error) ErrorKind {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
