// Package wire owns the frame format shared by both peers.
//
// Ownership boundary:
// - fixed 4-byte header codec
//
// - reserved heartbeat sentinel values
//
// - payload length bounds validation
//
// A frame is `header body?`: a big-endian int32 header followed, for
// non-negative headers, by exactly that many payload bytes. Negative
// headers are header-only control frames.
package wire
