package link

import (
	"context"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/danmuck/wireline/internal/testutil/testlog"
)

func TestNextBackoffDelayDeterministic(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 250 * time.Millisecond},
		{1, 250 * time.Millisecond},
		{2, 500 * time.Millisecond},
		{3, time.Second},
		{4, 2 * time.Second},
		{5, 4 * time.Second},
		{6, 5 * time.Second},
		{10, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := NextBackoffDelay(cfg, tc.attempt, nil); got != tc.want {
			t.Fatalf("attempt %d: got=%v want=%v", tc.attempt, got, tc.want)
		}
	}
}

func TestNextBackoffDelayJitterBounds(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 200 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
	rng := rand.New(rand.NewSource(1))

	base := 400 * time.Millisecond
	for i := 0; i < 100; i++ {
		got := NextBackoffDelay(cfg, 2, rng)
		if got < base/2 || got >= base+base/2 {
			t.Fatalf("jittered delay out of bounds: %v (base %v)", got, base)
		}
	}
}

func TestNextBackoffDelayClampsMultiplier(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 100 * time.Millisecond,
		Multiplier:   0.25,
		MaxDelay:     time.Second,
	}
	if got := NextBackoffDelay(cfg, 4, nil); got != 100*time.Millisecond {
		t.Fatalf("sub-unit multiplier not clamped: %v", got)
	}
}

func TestDialWithRetryExhaustsAttempts(t *testing.T) {
	testlog.Start(t)

	// Bind and immediately release a port so the dial target refuses.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := testConfig()
	cfg.ConnectTimeout = 250 * time.Millisecond
	cfg.Backoff = BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1.0, MaxDelay: time.Millisecond}

	start := time.Now()
	if _, err := DialWithRetry(context.Background(), addr, cfg, Handlers{}, 3); err == nil {
		t.Fatalf("expected dial failure")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("retries took too long: %v", elapsed)
	}
}

func TestDialWithRetryHonorsCancellation(t *testing.T) {
	testlog.Start(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	cfg := testConfig()
	cfg.ConnectTimeout = 250 * time.Millisecond
	cfg.Backoff = BackoffConfig{InitialDelay: time.Hour, Multiplier: 1.0, MaxDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	if _, err := DialWithRetry(ctx, addr, cfg, Handlers{}, 0); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
