package link

// Payload is a read-only view over the most recently assembled message.
// It aliases the connection's receive buffer and is valid only for the
// duration of the delivery callback; callers that retain the bytes must
// Copy first.
type Payload struct {
	b []byte
}

func (p Payload) Len() int {
	return len(p.b)
}

// Bytes exposes the assembled message without copying.
func (p Payload) Bytes() []byte {
	return p.b
}

// Copy returns a detached copy of the message bytes.
func (p Payload) Copy() []byte {
	out := make([]byte, len(p.b))
	copy(out, p.b)
	return out
}
