// Package p2pstream incrementally decodes a peer-to-peer message stream.
// Raw bytes arrive in arbitrarily sized chunks and leave as validated,
// length-prefixed messages. Encoding, dialing and handshakes are left to
// the caller.
package p2pstream

import (
	"bytes"
	"encoding/binary"
)

// Network magic values. A stream accepts exactly one of them.
const (
	MagicMainNet  uint32 = 0xD9B4BEF9
	MagicTestNet3 uint32 = 0x0709110B
	MagicRegtest  uint32 = 0xDAB5BFFA
	MagicSignet   uint32 = 0x40CF030A
)

// Wire format sizes.
const (
	// HeaderSize is the size of the fixed frame header.
	HeaderSize = 24
	// CommandSize is the size of the NUL-padded command field.
	CommandSize = 12
	// ChecksumSize is the number of double-hash bytes carried in the header.
	ChecksumSize = 4
	// MaxPayloadLength is the largest body a header may declare.
	MaxPayloadLength = 2048
)

// Header field offsets.
const (
	offMagic    = 0
	offCommand  = 4
	offLength   = 16
	offChecksum = 20
)

// Header is the fixed 24-byte frame header. Integers are little-endian.
type Header struct {
	Magic    uint32
	Command  [CommandSize]byte
	Length   uint32
	Checksum [ChecksumSize]byte
}

// CommandName returns the logical command text.
func (h Header) CommandName() string {
	return commandString(h.Command)
}

func parseHeader(b *[HeaderSize]byte) Header {
	var h Header
	h.Magic = binary.LittleEndian.Uint32(b[offMagic:offCommand])
	copy(h.Command[:], b[offCommand:offLength])
	h.Length = binary.LittleEndian.Uint32(b[offLength:offChecksum])
	copy(h.Checksum[:], b[offChecksum:HeaderSize])
	return h
}

// commandString truncates the field at the first zero byte. A field without
// a zero byte is returned whole.
func commandString(field [CommandSize]byte) string {
	if i := bytes.IndexByte(field[:], 0); i >= 0 {
		return string(field[:i])
	}
	return string(field[:])
}

// NetworkName returns a short name for a known magic value, or "" if unknown.
func NetworkName(magic uint32) string {
	switch magic {
	case MagicMainNet:
		return "mainnet"
	case MagicTestNet3:
		return "testnet3"
	case MagicRegtest:
		return "regtest"
	case MagicSignet:
		return "signet"
	}
	return ""
}

// NetworkMagic is the inverse of NetworkName.
func NetworkMagic(name string) (uint32, bool) {
	switch name {
	case "mainnet", "main":
		return MagicMainNet, true
	case "testnet3", "testnet":
		return MagicTestNet3, true
	case "regtest":
		return MagicRegtest, true
	case "signet":
		return MagicSignet, true
	}
	return 0, false
}
