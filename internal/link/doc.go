// Package link owns framed stream connections and their supervision.
//
// Ownership boundary:
// - per-connection receive state machine (header/payload reassembly)
//
// - serialized send path and heartbeat supervision
//
// - acceptor, connection registry, and broadcast
//
// Lifecycle order:
// - a connection is Created by Dial or by the acceptor, Started exactly
//   once, and reaches Disconnected exactly once.
//
// - registry membership spans accepted -> disconnected.
//
// Framing is owned by [github.com/danmuck/wireline/internal/wire].
package link
