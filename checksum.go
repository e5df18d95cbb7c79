package p2pstream

import (
	"bytes"
	"crypto/sha256"

	"github.com/pkg/errors"
)

// HashFunc is a deterministic digest over arbitrary bytes. The frame checksum
// applies it twice.
type HashFunc func(data []byte) []byte

// SHA256 is the default HashFunc.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// Checksum returns the first ChecksumSize bytes of hash(hash(body)).
func Checksum(hash HashFunc, body []byte) [ChecksumSize]byte {
	var out [ChecksumSize]byte
	copy(out[:], hash(hash(body)))
	return out
}

func checkMagic(got, want uint32) error {
	if got != want {
		return errors.WithMessagef(ErrUnsupportedNetwork, "magic 0x%08x, want 0x%08x", got, want)
	}
	return nil
}

// checkLength must run before any body byte is buffered.
func checkLength(declared uint32) error {
	if declared > MaxPayloadLength {
		return errors.WithMessagef(ErrPayloadExceedsLimit, "declared %d bytes, limit %d", declared, MaxPayloadLength)
	}
	return nil
}

func checkChecksum(hash HashFunc, body []byte, want [ChecksumSize]byte) error {
	got := Checksum(hash, body)
	if !bytes.Equal(got[:], want[:]) {
		return errors.WithMessagef(ErrInvalidChecksum, "checksum %x, header %x", got, want)
	}
	return nil
}
