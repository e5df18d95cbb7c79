package p2pstream

import (
	"bytes"
	"encoding/binary"
)

// testFrame describes one frame for building test input.
type testFrame struct {
	command string
	body    []byte
}

// encodeFrame builds a frame the way a peer would send it.
func encodeFrame(magic uint32, command string, body []byte) []byte {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint32(header[offMagic:], magic)
	copy(header[offCommand:offLength], command)
	binary.LittleEndian.PutUint32(header[offLength:], uint32(len(body)))
	sum := Checksum(SHA256, body)
	copy(header[offChecksum:], sum[:])
	return append(header[:], body...)
}

func encodeFrames(frames ...testFrame) []byte {
	var buf bytes.Buffer
	for _, f := range frames {
		buf.Write(encodeFrame(MagicMainNet, f.command, f.body))
	}
	return buf.Bytes()
}

func patterned(n int, seed byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = seed + byte(i*7)
	}
	return b
}

func sampleFrames() []testFrame {
	return []testFrame{
		{command: "version", body: patterned(102, 1)},
		{command: "verack"},
		{command: "ping", body: patterned(8, 9)},
		{command: "inv", body: patterned(MaxPayloadLength, 3)},
		{command: "sendheaders"},
		{command: "addrv2xxxxxx", body: patterned(31, 5)},
	}
}

func toMessages(frames []testFrame) []Message {
	out := make([]Message, 0, len(frames))
	for _, f := range frames {
		body := f.body
		if body == nil {
			body = []byte{}
		}
		out = append(out, Message{Command: f.command, Body: body})
	}
	return out
}

// collector records everything a stream reports.
type collector struct {
	messages []Message
	errs     []error
}

func (c *collector) onMessage(m Message) { c.messages = append(c.messages, m) }
func (c *collector) onError(err error)   { c.errs = append(c.errs, err) }
