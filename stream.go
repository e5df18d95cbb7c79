package p2pstream

import (
	"errors"
	"sync/atomic"
)

// ErrInvalidOnMessage is returned when no message handler is provided.
var ErrInvalidOnMessage = errors.New("invalid on message callback")

var streamID atomic.Uint64

// Stream decodes one peer's byte stream. Chunks pushed while a previous chunk
// is still being decoded, including pushes made from inside the message
// callback, are queued and decoded afterwards in arrival order.
//
// A Stream is not safe for concurrent use; it expects a single flow of
// control, which may re-enter Push synchronously.
type Stream struct {
	id      uint64
	dec     *decoder
	opts    options
	logger  Logger
	metrics *Metrics

	busy      bool
	queue     [][]byte
	destroyed bool
	err       error
}

// NewStream creates a stream decoder.
// Returns ErrInvalidOnMessage if no message handler was configured.
func NewStream(opt ...Option) (*Stream, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	if err := checkOptions(&opts); err != nil {
		return nil, err
	}

	return newStreamWithOptions(opts), nil
}

func newStreamWithOptions(opts options) *Stream {
	s := &Stream{
		id:      streamID.Add(1),
		opts:    opts,
		metrics: opts.metrics,
	}
	s.logger = withFields(opts.logger, "stream_id", s.id)
	s.dec = newDecoder(opts.magic, opts.hash, s.deliver)
	return s
}

// Push hands a chunk of raw bytes to the stream. The chunk may hold any
// fraction of a frame or many frames. Push does not retain chunk after it
// returns. Decoding failures destroy the stream and are reported through the
// stream error callback; chunks pushed after that are dropped.
func (s *Stream) Push(chunk []byte) {
	if s.destroyed {
		s.logger.Debug("chunk dropped", "size", len(chunk))
		s.metrics.chunkDropped()
		return
	}

	if s.busy {
		queued := make([]byte, len(chunk))
		copy(queued, chunk)
		s.queue = append(s.queue, queued)
		s.metrics.pendingAdd(1)
		return
	}

	s.drain(chunk)
}

// drain decodes chunk and then every chunk queued while it ran.
func (s *Stream) drain(chunk []byte) {
	s.busy = true

	next := chunk
	for {
		if err := s.dec.feed(next); err != nil {
			s.Destroy(err)
			return
		}
		if s.destroyed {
			return
		}
		if len(s.queue) == 0 {
			break
		}
		next = s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.metrics.pendingAdd(-1)
	}

	s.busy = false
}

func (s *Stream) deliver(msg Message) {
	if s.destroyed {
		return
	}
	s.metrics.messageDecoded(msg)
	s.opts.onMessage(msg)
}

// Destroy terminates the stream with err. Only the first call has an effect:
// pending chunks are discarded, the stream never decodes again, and the
// stream error callback fires once with err.
func (s *Stream) Destroy(err error) {
	if s.destroyed {
		return
	}

	s.destroyed = true
	s.busy = true
	s.err = err
	dropped := len(s.queue)
	s.queue = nil

	s.metrics.streamError(err)
	s.metrics.pendingAdd(-dropped)
	s.logger.Warn("stream destroyed", "error", err, "discarded_chunks", dropped)

	s.opts.onStreamError(err)
}

// Err returns the error the stream was destroyed with, or nil.
func (s *Stream) Err() error {
	return s.err
}

// Destroyed reports whether the stream has been destroyed.
func (s *Stream) Destroyed() bool {
	return s.destroyed
}

// Pending returns the number of chunks waiting to be decoded.
func (s *Stream) Pending() int {
	return len(s.queue)
}
