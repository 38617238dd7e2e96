package link

import (
	"time"

	"github.com/danmuck/wireline/internal/wire"
)

// BackoffConfig defines dial retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines per-connection framing and liveness parameters.
// Values are immutable once a connection has started.
type Config struct {
	// PacketBufferSize is the fixed receive buffer capacity in bytes.
	// No payload larger than this is accepted.
	PacketBufferSize int

	// MinimumPacketSize is the smallest accepted payload length. It is
	// floored at wire.HeaderSize during validation.
	MinimumPacketSize int

	// PingInterval is the heartbeat probe period.
	PingInterval time.Duration

	// MaxPingAttempts is the number of consecutive unacknowledged probes
	// tolerated before the connection is torn down locally.
	MaxPingAttempts int

	// ConnectTimeout bounds the initial dial.
	ConnectTimeout time.Duration

	// SendBufferSize / ReceiveBufferSize set socket-level buffer sizes.
	// Zero leaves the platform default.
	SendBufferSize    int
	ReceiveBufferSize int

	// NoDelay disables send coalescing on the socket. A false here is
	// indistinguishable from unset, so WithDefaults never restores it:
	// start from DefaultConfig to keep it enabled.
	NoDelay bool

	Backoff BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		PacketBufferSize:  wire.DefaultPacketBufferSize,
		MinimumPacketSize: wire.DefaultMinimumPacketSize,
		PingInterval:      time.Second,
		MaxPingAttempts:   3,
		ConnectTimeout:    5 * time.Second,
		NoDelay:           true,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills unset numeric and duration fields from
// DefaultConfig. Boolean fields are taken as given; a zero Config
// therefore runs with NoDelay off.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.PacketBufferSize <= 0 {
		c.PacketBufferSize = def.PacketBufferSize
	}
	if c.MinimumPacketSize <= 0 {
		c.MinimumPacketSize = def.MinimumPacketSize
	}
	if c.PingInterval <= 0 {
		c.PingInterval = def.PingInterval
	}
	if c.MaxPingAttempts <= 0 {
		c.MaxPingAttempts = def.MaxPingAttempts
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.Backoff.InitialDelay <= 0 {
		c.Backoff = def.Backoff
	}
	return c
}
