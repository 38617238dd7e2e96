package wire

import (
	"errors"
	"testing"
)

func TestHeaderRoundTrip(t *testing.T) {
	b := make([]byte, HeaderSize)
	for _, v := range []int32{0, 1, HeaderSize, 8192, PingRequest, PingResponse} {
		PutHeader(b, v)
		got, err := Header(b)
		if err != nil {
			t.Fatalf("decode header: %v", err)
		}
		if got != v {
			t.Fatalf("header mismatch: got=%d want=%d", got, v)
		}
	}
}

func TestHeaderIsBigEndian(t *testing.T) {
	b := make([]byte, HeaderSize)
	PutHeader(b, 0x01020304)
	want := []byte{0x01, 0x02, 0x03, 0x04}
	for i := range want {
		if b[i] != want[i] {
			t.Fatalf("byte %d: got=%#x want=%#x", i, b[i], want[i])
		}
	}
}

func TestHeaderShortBuffer(t *testing.T) {
	_, err := Header([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestAppendHeaderMatchesPutHeader(t *testing.T) {
	fixed := make([]byte, HeaderSize)
	PutHeader(fixed, 512)
	appended := AppendHeader(nil, 512)
	if len(appended) != HeaderSize {
		t.Fatalf("unexpected appended length=%d", len(appended))
	}
	for i := range fixed {
		if fixed[i] != appended[i] {
			t.Fatalf("byte %d mismatch", i)
		}
	}
}

func TestSentinelsAreControl(t *testing.T) {
	if !IsControl(PingRequest) || !IsControl(PingResponse) {
		t.Fatalf("sentinels must classify as control headers")
	}
	if IsControl(0) || IsControl(HeaderSize) {
		t.Fatalf("lengths must not classify as control headers")
	}
}

func TestValidateLengthBounds(t *testing.T) {
	if err := ValidateLength(HeaderSize, DefaultMinimumPacketSize, DefaultPacketBufferSize); err != nil {
		t.Fatalf("minimum length rejected: %v", err)
	}
	if err := ValidateLength(DefaultPacketBufferSize, DefaultMinimumPacketSize, DefaultPacketBufferSize); err != nil {
		t.Fatalf("capacity length rejected: %v", err)
	}
	err := ValidateLength(DefaultPacketBufferSize+1, DefaultMinimumPacketSize, DefaultPacketBufferSize)
	if !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
	err = ValidateLength(DefaultMinimumPacketSize-1, DefaultMinimumPacketSize, DefaultPacketBufferSize)
	if !errors.Is(err, ErrPacketTooSmall) {
		t.Fatalf("expected ErrPacketTooSmall, got %v", err)
	}
}

func TestValidateLengthFloorsAtHeaderSize(t *testing.T) {
	// Configuring a minimum below HeaderSize must not admit sub-header lengths.
	err := ValidateLength(HeaderSize-1, 0, DefaultPacketBufferSize)
	if !errors.Is(err, ErrPacketTooSmall) {
		t.Fatalf("expected ErrPacketTooSmall, got %v", err)
	}
}
