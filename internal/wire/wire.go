package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed length of every frame header on the wire.
	HeaderSize = 4

	// DefaultPacketBufferSize is the per-connection receive buffer capacity.
	DefaultPacketBufferSize = 8192

	// DefaultMinimumPacketSize is the smallest accepted payload length.
	DefaultMinimumPacketSize = HeaderSize
)

// Reserved header sentinels. Negative so they can never collide with a
// payload length, which must be at least HeaderSize.
const (
	PingRequest  int32 = -1
	PingResponse int32 = -2
)

var (
	ErrShortHeader    = errors.New("wire: short header")
	ErrPacketTooLarge = errors.New("wire: packet exceeds buffer capacity")
	ErrPacketTooSmall = errors.New("wire: packet below minimum size")
	ErrUnknownControl = errors.New("wire: unknown control header")
)

// PutHeader encodes v into the first HeaderSize bytes of b.
// Byte order is big-endian on both peers.
func PutHeader(b []byte, v int32) {
	binary.BigEndian.PutUint32(b[:HeaderSize], uint32(v))
}

// AppendHeader appends the encoded header for v to dst.
func AppendHeader(dst []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(dst, uint32(v))
}

// Header decodes the first HeaderSize bytes of b.
func Header(b []byte) (int32, error) {
	if len(b) < HeaderSize {
		return 0, fmt.Errorf("%w: have %d bytes", ErrShortHeader, len(b))
	}
	return int32(binary.BigEndian.Uint32(b[:HeaderSize])), nil
}

// IsControl reports whether h is a reserved heartbeat sentinel rather
// than a payload length.
func IsControl(h int32) bool {
	return h < 0
}

// ValidateLength checks a non-negative header value against the accepted
// payload bounds: max(minimum, HeaderSize) <= n <= capacity.
func ValidateLength(n int32, minimum, capacity int) error {
	if int64(n) > int64(capacity) {
		return fmt.Errorf("%w: length=%d capacity=%d", ErrPacketTooLarge, n, capacity)
	}
	floor := minimum
	if floor < HeaderSize {
		floor = HeaderSize
	}
	if int64(n) < int64(floor) {
		return fmt.Errorf("%w: length=%d minimum=%d", ErrPacketTooSmall, n, floor)
	}
	return nil
}
