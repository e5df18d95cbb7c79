package p2pstream

import (
	"errors"
	"testing"
)

func TestChecksum_EmptyBody(t *testing.T) {
	want := [ChecksumSize]byte{0x5d, 0xf6, 0xe0, 0xe2}
	if got := Checksum(SHA256, nil); got != want {
		t.Errorf("Checksum(nil) = %x, want %x", got, want)
	}
}

func TestCheckMagic(t *testing.T) {
	if err := checkMagic(MagicMainNet, MagicMainNet); err != nil {
		t.Errorf("matching magic: %v", err)
	}

	err := checkMagic(MagicRegtest, MagicMainNet)
	if !errors.Is(err, ErrUnsupportedNetwork) {
		t.Errorf("expected ErrUnsupportedNetwork, got %v", err)
	}
}

func TestCheckLength(t *testing.T) {
	for _, n := range []uint32{0, 1, MaxPayloadLength} {
		if err := checkLength(n); err != nil {
			t.Errorf("checkLength(%d) = %v", n, err)
		}
	}

	for _, n := range []uint32{MaxPayloadLength + 1, 1 << 31, ^uint32(0)} {
		if err := checkLength(n); !errors.Is(err, ErrPayloadExceedsLimit) {
			t.Errorf("checkLength(%d) = %v, want ErrPayloadExceedsLimit", n, err)
		}
	}
}

func TestCheckChecksum(t *testing.T) {
	body := []byte("payload")
	sum := Checksum(SHA256, body)

	if err := checkChecksum(SHA256, body, sum); err != nil {
		t.Errorf("valid checksum: %v", err)
	}

	sum[3] ^= 0x80
	err := checkChecksum(SHA256, body, sum)
	if !errors.Is(err, ErrInvalidChecksum) {
		t.Errorf("expected ErrInvalidChecksum, got %v", err)
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != 0 {
		t.Error("KindOf(nil) should be 0")
	}
	if KindOf(errors.New("other")) != 0 {
		t.Error("KindOf(plain error) should be 0")
	}
	if got := KindOf(checkLength(MaxPayloadLength + 1)); got != PayloadExceedsLimit {
		t.Errorf("KindOf = %v, want %v", got, PayloadExceedsLimit)
	}
}

func TestErrorKindCodes(t *testing.T) {
	tests := map[ErrorKind]string{
		UnsupportedNetwork:  "UNSUPPORTED_NETWORK",
		PayloadExceedsLimit: "PAYLOAD_EXCEEDS_LIMIT",
		InvalidChecksum:     "INVALID_CHECKSUM",
		ErrorKind(0):        "UNKNOWN",
	}
	for kind, want := range tests {
		if got := kind.Code(); got != want {
			t.Errorf("%d.Code() = %s, want %s", kind, got, want)
		}
	}

	if ErrInvalidChecksum.Error() != "stream: invalid checksum" {
		t.Errorf("unexpected message %q", ErrInvalidChecksum.Error())
	}
}
