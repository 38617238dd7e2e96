package link

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/wireline/internal/observability"
	"github.com/danmuck/wireline/internal/wire"
)

var (
	ErrConnClosed     = errors.New("link: connection closed")
	ErrAlreadyStarted = errors.New("link: connection already started")
)

// Disconnect reasons for locally initiated teardown paths.
const (
	reasonLocalClose   = "closed locally"
	reasonRemoteClosed = "remote closed the stream"
)

var connIDCounter atomic.Uint64

// Handlers are the per-connection event callbacks. Any field may be nil.
// OnPayload receives a view over the connection's receive buffer; the
// view is invalid once the callback returns.
type Handlers struct {
	OnConnect    func(*Conn)
	OnPayload    func(*Conn, Payload)
	OnPing       func(*Conn, time.Duration)
	OnDisconnect func(*Conn, string)
}

// Conn owns one stream socket and runs the frame reassembly state machine,
// the serialized send path, and the heartbeat supervisor for it.
//
// Receive processing is single-flight: one goroutine issues reads and is
// the only writer of the receive state, so header/payload alternation can
// never interleave. Sends from any goroutine are serialized by a write
// mutex and never touch receive state.
type Conn struct {
	id   uint64
	conn net.Conn
	cfg  Config

	handlers Handlers

	// buf is sized once to PacketBufferSize and reused for both header
	// and payload accumulation. It is touched only by the receive loop.
	buf []byte

	writeMu sync.Mutex

	started  atomic.Bool
	closed   atomic.Bool
	downOnce sync.Once
	done     chan struct{}

	pingOutstanding atomic.Int64
	pingSentAt      atomic.Int64 // unix nanos of the last probe send
	pingRTT         atomic.Int64 // last measured round trip, nanos
}

func newConn(nc net.Conn, cfg Config, handlers Handlers) *Conn {
	return &Conn{
		id:       connIDCounter.Add(1),
		conn:     nc,
		cfg:      cfg,
		handlers: handlers,
		buf:      make([]byte, cfg.PacketBufferSize),
		done:     make(chan struct{}),
	}
}

// Start arms the receive loop and the heartbeat supervisor. It may be
// called once; the connection is live until its single disconnect event.
func (c *Conn) Start() error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	observability.ConnectionOpened()
	log.Debug().
		Uint64("conn_id", c.id).
		Str("remote", c.conn.RemoteAddr().String()).
		Msg("link.conn.start")
	if h := c.handlers.OnConnect; h != nil {
		h(c)
	}
	go c.receiveLoop()
	go c.heartbeatLoop()
	return nil
}

func (c *Conn) ID() uint64 {
	return c.id
}

func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Conn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// PingRTT returns the last measured heartbeat round trip, zero before
// the first acknowledgment.
func (c *Conn) PingRTT() time.Duration {
	return time.Duration(c.pingRTT.Load())
}

func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Done is closed when the connection reaches its terminal state.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down locally. Safe to call multiple times;
// only the first teardown emits the disconnect event.
func (c *Conn) Close() error {
	c.teardown(reasonLocalClose)
	return nil
}

// receiveLoop reassembles frames from arbitrarily chunked deliveries.
// It alternates between awaiting exactly wire.HeaderSize header bytes and
// awaiting the payload length the header announced, folding every partial
// read into buf at the current accumulation offset. Any error terminates
// the loop through exactly one teardown.
func (c *Conn) receiveLoop() {
	var (
		awaitingHeader = true
		accumulated    = 0
		expected       = wire.HeaderSize
	)

	for {
		n, err := c.conn.Read(c.buf[accumulated:expected])
		if n > 0 {
			accumulated += n
		}
		if err == nil && n == 0 {
			// A zero-byte delivery is the half-closed stream indicator.
			err = io.EOF
		}
		if err != nil {
			c.teardown(disconnectReason(err))
			return
		}
		if accumulated < expected {
			continue
		}

		if !awaitingHeader {
			c.deliverPayload(expected)
			awaitingHeader = true
			accumulated = 0
			expected = wire.HeaderSize
			continue
		}

		header, err := wire.Header(c.buf[:wire.HeaderSize])
		if err != nil {
			c.teardown(err.Error())
			return
		}
		if wire.IsControl(header) {
			if err := c.handleControl(header); err != nil {
				c.teardown(err.Error())
				return
			}
			accumulated = 0
			expected = wire.HeaderSize
			continue
		}
		if err := wire.ValidateLength(header, c.cfg.MinimumPacketSize, c.cfg.PacketBufferSize); err != nil {
			c.teardown(err.Error())
			return
		}
		awaitingHeader = false
		accumulated = 0
		expected = int(header)
	}
}

// handleControl intercepts heartbeat sentinels in the header position.
func (c *Conn) handleControl(header int32) error {
	switch header {
	case wire.PingRequest:
		return c.sendHeader(wire.PingResponse)
	case wire.PingResponse:
		// An ack with no probe in flight has nothing to measure.
		if c.pingOutstanding.Load() == 0 {
			return nil
		}
		c.pingOutstanding.Store(0)
		rtt := time.Since(time.Unix(0, c.pingSentAt.Load()))
		c.pingRTT.Store(int64(rtt))
		observability.ObservePingRTT(rtt)
		log.Debug().
			Uint64("conn_id", c.id).
			Dur("rtt", rtt).
			Msg("link.conn.ping")
		if h := c.handlers.OnPing; h != nil {
			h(c, rtt)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", wire.ErrUnknownControl, header)
	}
}

func (c *Conn) deliverPayload(length int) {
	observability.RecordFrameReceived(length)
	if h := c.handlers.OnPayload; h != nil {
		h(c, Payload{b: c.buf[:length]})
	}
}

// heartbeatLoop probes the peer every PingInterval. The tick that pushes
// the outstanding count past MaxPingAttempts tears the connection down
// locally with no further network activity.
func (c *Conn) heartbeatLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			outstanding := c.pingOutstanding.Add(1)
			if outstanding > int64(c.cfg.MaxPingAttempts) {
				c.teardown(fmt.Sprintf(
					"liveness timeout: %d consecutive probes unacknowledged",
					outstanding-1,
				))
				return
			}
			c.pingSentAt.Store(time.Now().UnixNano())
			if err := c.sendHeader(wire.PingRequest); err != nil {
				c.teardown("ping probe send failed: " + err.Error())
				return
			}
		}
	}
}

// Send writes one payload frame: the length header, then the body.
// Concurrent sends from any goroutine are serialized so frames never
// interleave on the wire. A write failure is fatal to the connection.
func (c *Conn) Send(payload []byte) error {
	if err := c.sendable(payload); err != nil {
		return err
	}
	var hdr [wire.HeaderSize]byte
	wire.PutHeader(hdr[:], int32(len(payload)))

	c.writeMu.Lock()
	_, err := c.conn.Write(hdr[:])
	if err == nil {
		_, err = c.conn.Write(payload)
	}
	c.writeMu.Unlock()

	if err != nil {
		c.teardown("send failed: " + err.Error())
		return err
	}
	observability.RecordFrameSent(len(payload))
	return nil
}

// BufferedSend behaves exactly like Send but assembles header and body
// into one contiguous buffer first, trading an allocation for a single
// underlying write.
func (c *Conn) BufferedSend(payload []byte) error {
	if err := c.sendable(payload); err != nil {
		return err
	}
	frame := make([]byte, 0, wire.HeaderSize+len(payload))
	frame = wire.AppendHeader(frame, int32(len(payload)))
	frame = append(frame, payload...)

	c.writeMu.Lock()
	_, err := c.conn.Write(frame)
	c.writeMu.Unlock()

	if err != nil {
		c.teardown("send failed: " + err.Error())
		return err
	}
	observability.RecordFrameSent(len(payload))
	return nil
}

func (c *Conn) sendable(payload []byte) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	return wire.ValidateLength(int32(len(payload)), c.cfg.MinimumPacketSize, c.cfg.PacketBufferSize)
}

// sendHeader writes a header-only control frame under the write lock.
func (c *Conn) sendHeader(sentinel int32) error {
	if c.closed.Load() {
		return ErrConnClosed
	}
	var hdr [wire.HeaderSize]byte
	wire.PutHeader(hdr[:], sentinel)
	c.writeMu.Lock()
	_, err := c.conn.Write(hdr[:])
	c.writeMu.Unlock()
	return err
}

// teardown is the single convergence point for every fatal condition.
// The first caller wins: the socket closes exactly once, the heartbeat
// stops, and exactly one disconnect event fires.
func (c *Conn) teardown(reason string) {
	c.downOnce.Do(func() {
		c.closed.Store(true)
		close(c.done)
		_ = c.conn.Close()
		observability.ConnectionClosed()
		log.Info().
			Uint64("conn_id", c.id).
			Str("remote", c.conn.RemoteAddr().String()).
			Str("reason", reason).
			Msg("link.conn.disconnect")
		if h := c.handlers.OnDisconnect; h != nil {
			h(c, reason)
		}
	})
}

// disconnectReason maps receive-side errors onto human-readable reasons.
func disconnectReason(err error) string {
	switch {
	case errors.Is(err, io.EOF):
		return reasonRemoteClosed
	case errors.Is(err, net.ErrClosed):
		return reasonLocalClose
	default:
		return err.Error()
	}
}
