package relay

import (
	"context"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/wireline/internal/admin"
	"github.com/danmuck/wireline/internal/link"
)

// ServiceConfig wires the relay endpoint, its admin surface, and the
// per-connection transport settings.
type ServiceConfig struct {
	NodeID          string
	ListenAddr      string
	AdminListenAddr string
	CORSOrigins     []string
	Conn            link.Config
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		NodeID:     "wirelined.local",
		ListenAddr: ":9100",
		Conn:       link.DefaultConfig(),
	}
}

// Service is the relay runtime: every payload a client delivers is
// rebroadcast to every other registered client.
type Service struct {
	cfg    ServiceConfig
	server *link.Server
}

func NewService() *Service {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) *Service {
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = DefaultServiceConfig().ListenAddr
	}
	cfg.Conn = cfg.Conn.WithDefaults()

	svc := &Service{cfg: cfg}
	svc.server = link.NewServer(
		link.ServerConfig{ListenAddr: cfg.ListenAddr, Conn: cfg.Conn},
		link.ServerHandlers{
			OnClientConnected: func(c *link.Conn) {
				log.Info().
					Uint64("conn_id", c.ID()).
					Str("remote", c.RemoteAddr().String()).
					Msg("relay.client.connected")
			},
			OnClientDisconnected: func(c *link.Conn, reason string) {
				log.Info().
					Uint64("conn_id", c.ID()).
					Str("reason", reason).
					Msg("relay.client.disconnected")
			},
			OnClientPing: func(c *link.Conn, rtt time.Duration) {
				log.Debug().
					Uint64("conn_id", c.ID()).
					Dur("rtt", rtt).
					Msg("relay.client.ping")
			},
			OnPayload: svc.relay,
		},
	)
	return svc
}

// Server returns the underlying connection registry owner.
func (s *Service) Server() *link.Server {
	return s.server
}

// relay rebroadcasts one delivered payload to every other client. The
// payload view is only valid during this callback, and Broadcast copies
// it into each outgoing frame before returning, so no detach is needed.
func (s *Service) relay(from *link.Conn, p link.Payload) {
	delivered := s.server.Broadcast(p.Bytes(), from)
	log.Debug().
		Uint64("from", from.ID()).
		Int("bytes", p.Len()).
		Int("delivered", delivered).
		Msg("relay.broadcast")
}

// Run blocks until signal shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := s.server.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve runs the relay and the optional admin endpoint on an existing
// listener until the context is cancelled.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	log.Info().
		Str("node", s.cfg.NodeID).
		Str("addr", ln.Addr().String()).
		Msg("relay.listening")

	adminErr := make(chan error, 1)
	if strings.TrimSpace(s.cfg.AdminListenAddr) != "" {
		adminSrv := admin.New(admin.Config{
			ListenAddr:  s.cfg.AdminListenAddr,
			NodeID:      s.cfg.NodeID,
			CORSOrigins: s.cfg.CORSOrigins,
		}, s.server)
		go func() {
			adminErr <- adminSrv.Run(ctx)
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve(ctx, ln)
	}()

	select {
	case err := <-serveErr:
		return err
	case err := <-adminErr:
		if err != nil {
			return err
		}
		return <-serveErr
	}
}
