package p2pstream

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrConnectionClosed is returned when operating on a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// ErrBufferFull is returned when the send buffer is full and cannot accept more data.
var ErrBufferFull = errors.New("send buffer full")

// Conn feeds an established peer connection into a Stream. Every socket read
// is pushed as one chunk. Bytes handed to Write are sent as-is; building
// frames is the caller's job.
type Conn struct {
	rawConn net.Conn
	stream  *Stream
	logger  Logger

	opts options

	sendMsg chan []byte
	closed  atomic.Bool
	cancel  context.CancelFunc
}

// NewConn wraps conn. It accepts the same options as NewStream plus the
// connection options. Returns an error if no message handler was provided.
func NewConn(conn net.Conn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	return newConnWithOptions(conn, opts), nil
}

func newConnWithOptions(c net.Conn, opts options) *Conn {
	stream := newStreamWithOptions(opts)
	return &Conn{
		rawConn: c,
		stream:  stream,
		logger:  withFields(opts.logger, "stream_id", stream.id),
		opts:    opts,
		sendMsg: make(chan []byte, opts.sendBufferSize),
	}
}

// Stream returns the decoder fed by this connection.
func (c *Conn) Stream() *Stream {
	return c.stream
}

// Run starts the connection's read and write loops and blocks until one of
// them fails, the stream is destroyed, or ctx is canceled. A destroyed stream
// makes Run return the stream error. The connection is closed when Run returns.
func (c *Conn) Run(ctx context.Context) error {
	c.logger.Info("connection established", "addr", c.Addr())
	c.logger.Debug("connection options", "addr", c.Addr(),
		"send_buffer_size", c.opts.sendBufferSize,
		"read_buffer_size", c.opts.readBufferSize,
		"idle_timeout", c.opts.idleTimeout,
		"network", NetworkName(c.opts.magic))

	ctx, c.cancel = context.WithCancel(ctx)
	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	// Unblock a pending Read once either loop stops.
	group.Go(func() error {
		<-child.Done()
		_ = c.rawConn.SetReadDeadline(time.Now())
		return nil
	})

	err := group.Wait()
	c.closeConn()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Info("connection closed with error", "addr", c.Addr(), "error", err)
	} else {
		c.logger.Info("connection closed", "addr", c.Addr())
	}

	return err
}

// Close cancels Run and closes the underlying connection.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	return c.rawConn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Write queues already-encoded bytes without blocking.
//
// Returns:
//   - nil: data was queued (not yet sent)
//   - ErrBufferFull: send buffer is full, data was NOT queued
//   - ErrConnectionClosed: connection is closed
func (c *Conn) Write(data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- data:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking queues already-encoded bytes, blocking until there is room
// in the send buffer or ctx is done.
func (c *Conn) WriteBlocking(ctx context.Context, data []byte) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	select {
	case c.sendMsg <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.rawConn.RemoteAddr()
}

// readLoop pushes every read into the stream until the context is canceled,
// an unrecoverable I/O error occurs, or the stream is destroyed.
func (c *Conn) readLoop(ctx context.Context) error {
	buf := make([]byte, c.opts.readBufferSize)
	for {
		// The deadline is set before the ctx check so a concurrent cancel
		// always gets the last word on it.
		_ = c.rawConn.SetReadDeadline(time.Now().Add(c.opts.idleTimeout))

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := c.rawConn.Read(buf)
		if n > 0 {
			c.stream.Push(buf[:n])
			if serr := c.stream.Err(); serr != nil {
				return serr
			}
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Debug("read error", "addr", c.Addr(), "error", err)
			// EOF repeats on every later Read, so it ends the loop whatever
			// onError answers.
			if c.opts.onError(err) == Disconnect || errors.Is(err, io.EOF) {
				return err
			}
		}
	}
}

// writeLoop sends queued data until the context is canceled or an
// unrecoverable error occurs.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data := <-c.sendMsg:
			if err := c.write(data); err != nil {
				return err
			}
		}
	}
}

func (c *Conn) write(data []byte) error {
	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.idleTimeout))

	_, err := c.rawConn.Write(data)

	if err != nil {
		c.logger.Debug("write error", "addr", c.Addr(), "error", err)
		if c.opts.onError(err) == Disconnect {
			return err
		}
	}

	return nil
}

func (c *Conn) closeConn() {
	c.closed.Store(true)
	c.rawConn.Close()
}
