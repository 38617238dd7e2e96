package link

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/wireline/internal/observability"
)

// ServerConfig defines the listening endpoint and the per-connection
// configuration applied to every accepted peer.
type ServerConfig struct {
	ListenAddr string
	Conn       Config
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddr: ":9100",
		Conn:       DefaultConfig(),
	}
}

// ServerHandlers relay connection-level events for every accepted peer.
// Any field may be nil.
type ServerHandlers struct {
	OnClientConnected    func(*Conn)
	OnClientDisconnected func(*Conn, string)
	OnClientPing         func(*Conn, time.Duration)
	OnPayload            func(*Conn, Payload)
}

// ConnStatus is a point-in-time snapshot of one registry member.
type ConnStatus struct {
	ID         uint64        `json:"id"`
	RemoteAddr string        `json:"remote_addr"`
	PingRTT    time.Duration `json:"ping_rtt_ns"`
}

// Server owns the listening socket and the registry of live connections.
// Membership is mutated only by accept and disconnect events; broadcast
// operates on a point-in-time snapshot so slow sends never block accepts
// or teardowns.
type Server struct {
	cfg      ServerConfig
	handlers ServerHandlers

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

func NewServer(cfg ServerConfig, handlers ServerHandlers) *Server {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultServerConfig().ListenAddr
	}
	cfg.Conn = cfg.Conn.WithDefaults()
	return &Server{
		cfg:      cfg,
		handlers: handlers,
		conns:    make(map[*Conn]struct{}),
	}
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.cfg.ListenAddr)
}

// Run listens and serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("link.server.listening")
	return s.Serve(ctx, ln)
}

// Serve accepts connections on an existing listener. Each accepted
// socket is wrapped, registered, and started; then the next accept is
// armed. Cancellation closes the listener and every live connection.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()

	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.handleAccept(nc)
	}
}

// handleAccept wires one accepted socket into the registry and starts
// its receive loop and heartbeat.
func (s *Server) handleAccept(nc net.Conn) {
	if err := tuneSocket(nc, s.cfg.Conn); err != nil {
		log.Warn().
			Str("remote", nc.RemoteAddr().String()).
			Err(err).
			Msg("link.server.tune")
		_ = nc.Close()
		return
	}

	c := newConn(nc, s.cfg.Conn, Handlers{
		OnConnect: func(c *Conn) {
			if h := s.handlers.OnClientConnected; h != nil {
				h(c)
			}
		},
		OnPayload: func(c *Conn, p Payload) {
			if h := s.handlers.OnPayload; h != nil {
				h(c, p)
			}
		},
		OnPing: func(c *Conn, rtt time.Duration) {
			if h := s.handlers.OnClientPing; h != nil {
				h(c, rtt)
			}
		},
		OnDisconnect: func(c *Conn, reason string) {
			s.remove(c)
			if h := s.handlers.OnClientDisconnected; h != nil {
				h(c, reason)
			}
		},
	})

	s.add(c)
	log.Info().
		Uint64("conn_id", c.ID()).
		Str("remote", nc.RemoteAddr().String()).
		Int("active", s.ConnectionCount()).
		Msg("link.server.accept")
	if err := c.Start(); err != nil {
		s.remove(c)
		_ = nc.Close()
	}
}

// Broadcast sends payload to every registry member except the excluded
// one. Per-member send failures are contained: they are logged, counted,
// and never interrupt delivery to the rest. Returns the delivered count.
func (s *Server) Broadcast(payload []byte, except *Conn) int {
	delivered := 0
	for _, c := range s.snapshot() {
		if c == except {
			continue
		}
		if err := c.BufferedSend(payload); err != nil {
			observability.RecordBroadcastFailure()
			log.Warn().
				Uint64("conn_id", c.ID()).
				Err(err).
				Msg("link.server.broadcast")
			continue
		}
		delivered++
	}
	return delivered
}

func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Snapshot reports the current registry membership for observational
// surfaces.
func (s *Server) Snapshot() []ConnStatus {
	conns := s.snapshot()
	out := make([]ConnStatus, 0, len(conns))
	for _, c := range conns {
		out = append(out, ConnStatus{
			ID:         c.ID(),
			RemoteAddr: c.RemoteAddr().String(),
			PingRTT:    c.PingRTT(),
		})
	}
	return out
}

func (s *Server) add(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c] = struct{}{}
}

func (s *Server) remove(c *Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c)
}

func (s *Server) snapshot() []*Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		out = append(out, c)
	}
	return out
}

func (s *Server) closeAll() {
	for _, c := range s.snapshot() {
		_ = c.Close()
	}
}
