package p2pstream

// Message is one decoded frame. Body is owned by the receiver; the decoder
// never touches it again after delivery.
type Message struct {
	// Command is the header command text with NUL padding removed.
	Command string
	// Body is the exact payload of the declared length.
	Body []byte
}

// Length returns the length of the message body.
func (m Message) Length() int {
	return len(m.Body)
}
