// Command pong accepts peers on mainnet and answers every "ping" with a
// "pong" carrying the same nonce. Framing the reply is done here; the
// library only decodes.
package main

import (
	"context"
	"encoding/binary"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/Zereker/p2pstream"
)

func encode(command string, body []byte) []byte {
	out := make([]byte, p2pstream.HeaderSize, p2pstream.HeaderSize+len(body))
	binary.LittleEndian.PutUint32(out[0:4], p2pstream.MagicMainNet)
	copy(out[4:16], command)
	binary.LittleEndian.PutUint32(out[16:20], uint32(len(body)))
	sum := p2pstream.Checksum(p2pstream.SHA256, body)
	copy(out[20:24], sum[:])
	return append(out, body...)
}

type handler struct {
	connID atomic.Int64

	sync.RWMutex
	connections map[int64]*p2pstream.Conn
}

func newHandler() *handler {
	return &handler{connections: make(map[int64]*p2pstream.Conn)}
}

func (h *handler) handle(ctx context.Context, raw net.Conn) {
	connID := h.connID.Add(1)

	conn, err := p2pstream.NewConn(raw,
		p2pstream.OnMessageOption(func(m p2pstream.Message) {
			if m.Command != "ping" {
				return
			}
			if c := h.getConn(connID); c != nil {
				if err := c.Write(encode("pong", m.Body)); err != nil {
					slog.Warn("pong dropped", "connID", connID, "error", err)
				}
			}
		}),
		p2pstream.OnStreamErrorOption(func(err error) {
			slog.Error("stream error", "connID", connID, "kind", p2pstream.KindOf(err).Code())
		}),
		p2pstream.SendBufferSizeOption(16),
	)
	if err != nil {
		raw.Close()
		slog.Error("failed to wrap connection", "error", err)
		return
	}

	h.addConn(connID, conn)
	defer h.deleteConn(connID)

	_ = conn.Run(ctx)
}

func (h *handler) addConn(connID int64, conn *p2pstream.Conn) {
	h.Lock()
	defer h.Unlock()

	slog.Info("add new conn", "connID", connID, "addr", conn.Addr())
	h.connections[connID] = conn
}

func (h *handler) deleteConn(connID int64) {
	h.Lock()
	defer h.Unlock()

	delete(h.connections, connID)
}

func (h *handler) getConn(connID int64) *p2pstream.Conn {
	h.RLock()
	defer h.RUnlock()

	return h.connections[connID]
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", "127.0.0.1:8333")
	if err != nil {
		slog.Error("failed to listen", "error", err)
		os.Exit(1)
	}
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	slog.Info("pong started", "addr", listener.Addr())
	h := newHandler()
	for {
		raw, err := listener.Accept()
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("accept error", "error", err)
			}
			return
		}
		go h.handle(ctx, raw)
	}
}
