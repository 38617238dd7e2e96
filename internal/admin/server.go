package admin

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/wireline/internal/link"
	"github.com/danmuck/wireline/internal/observability"
)

// Config for the observational admin HTTP endpoint.
type Config struct {
	ListenAddr  string
	NodeID      string
	CORSOrigins []string
}

// Server exposes health, registry, and metrics surfaces over HTTP.
// Strictly observational: everything it reports comes from serialized
// snapshots of the link server.
type Server struct {
	cfg     Config
	source  *link.Server
	router  *gin.Engine
	started time.Time
}

func New(cfg Config, source *link.Server) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestTelemetry(cfg.NodeID, log.Logger))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:     cfg,
		source:  source,
		router:  r,
		started: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"node":    s.cfg.NodeID,
			"uptime":  time.Since(s.started).String(),
			"clients": s.source.ConnectionCount(),
		})
	})

	s.router.GET("/status", func(c *gin.Context) {
		conns := s.source.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"node":        s.cfg.NodeID,
			"clients":     len(conns),
			"connections": conns,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Run serves the admin endpoint until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.router,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info().Str("addr", s.cfg.ListenAddr).Msg("admin.listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
