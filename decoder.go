package p2pstream

type decoderState int

const (
	awaitingHeader decoderState = iota
	awaitingBody
)

// decoder is the framing state machine for one stream. Its buffers are
// allocated once and reused for every frame.
type decoder struct {
	magic uint32
	hash  HashFunc
	emit  func(Message)

	state decoderState

	header    [HeaderSize]byte
	headerPos int
	current   Header

	body     [MaxPayloadLength]byte
	bodySize int
	bodyPos  int
}

func newDecoder(magic uint32, hash HashFunc, emit func(Message)) *decoder {
	return &decoder{
		magic: magic,
		hash:  hash,
		emit:  emit,
	}
}

// feed consumes chunk, emitting every frame it completes. Partial header or
// body bytes are kept for the next call. The first validation error stops
// feed; messages emitted before it are unaffected.
func (d *decoder) feed(chunk []byte) error {
	for len(chunk) > 0 {
		var n int
		var err error
		if d.state == awaitingBody {
			n, err = d.readBody(chunk)
		} else {
			n, err = d.readHeader(chunk)
		}
		if err != nil {
			return err
		}
		chunk = chunk[n:]
	}
	return nil
}

func (d *decoder) readHeader(chunk []byte) (int, error) {
	n := copy(d.header[d.headerPos:], chunk)
	d.headerPos += n
	if d.headerPos < HeaderSize {
		return n, nil
	}

	h := parseHeader(&d.header)
	if err := checkMagic(h.Magic, d.magic); err != nil {
		return n, err
	}
	if err := checkLength(h.Length); err != nil {
		return n, err
	}

	d.current = h
	if h.Length == 0 {
		return n, d.complete(nil)
	}
	d.bodySize = int(h.Length)
	d.bodyPos = 0
	d.state = awaitingBody
	return n, nil
}

func (d *decoder) readBody(chunk []byte) (int, error) {
	n := copy(d.body[d.bodyPos:d.bodySize], chunk)
	d.bodyPos += n
	if d.bodyPos < d.bodySize {
		return n, nil
	}
	return n, d.complete(d.body[:d.bodySize])
}

// complete validates the accumulated body, emits it and rearms for the next
// header.
func (d *decoder) complete(body []byte) error {
	if err := checkChecksum(d.hash, body, d.current.Checksum); err != nil {
		return err
	}

	msg := Message{
		Command: d.current.CommandName(),
		Body:    make([]byte, len(body)),
	}
	copy(msg.Body, body)

	d.reset()
	d.emit(msg)
	return nil
}

func (d *decoder) reset() {
	d.state = awaitingHeader
	d.headerPos = 0
	d.bodyPos = 0
	d.bodySize = 0
}
