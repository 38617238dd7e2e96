package link

import (
	"context"
	"math/rand"
	"net"
	"time"

	"github.com/rs/zerolog/log"
)

// Dial connects to a listening endpoint, applies socket tuning, and
// starts the connection. This is the only blocking entry point besides
// the non-blocking liveness probe.
func Dial(ctx context.Context, addr string, cfg Config, handlers Handlers) (*Conn, error) {
	cfg = cfg.WithDefaults()
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if err := tuneSocket(nc, cfg); err != nil {
		_ = nc.Close()
		return nil, err
	}
	c := newConn(nc, cfg, handlers)
	if err := c.Start(); err != nil {
		_ = nc.Close()
		return nil, err
	}
	return c, nil
}

// DialWithRetry dials with exponential backoff until the context is
// cancelled or maxAttempts is exhausted (0 retries forever).
func DialWithRetry(ctx context.Context, addr string, cfg Config, handlers Handlers, maxAttempts int) (*Conn, error) {
	cfg = cfg.WithDefaults()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var attempt int
	for {
		attempt++
		c, err := Dial(ctx, addr, cfg, handlers)
		if err == nil {
			return c, nil
		}
		log.Warn().
			Str("addr", addr).
			Int("attempt", attempt).
			Err(err).
			Msg("link.dial.retry")
		if maxAttempts > 0 && attempt >= maxAttempts {
			return nil, err
		}
		delay := NextBackoffDelay(cfg.Backoff, attempt, rng)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// tuneSocket applies configured socket-level options to TCP connections.
func tuneSocket(nc net.Conn, cfg Config) error {
	tc, ok := nc.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetNoDelay(cfg.NoDelay); err != nil {
		return err
	}
	if cfg.ReceiveBufferSize > 0 {
		if err := tc.SetReadBuffer(cfg.ReceiveBufferSize); err != nil {
			return err
		}
	}
	if cfg.SendBufferSize > 0 {
		if err := tc.SetWriteBuffer(cfg.SendBufferSize); err != nil {
			return err
		}
	}
	return nil
}
