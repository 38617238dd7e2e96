package link

import (
	"math/rand"
	"time"
)

// NextBackoffDelay returns how long DialWithRetry waits after failed
// attempt N (1-based) before dialing again. The delay grows by
// cfg.Multiplier per attempt from cfg.InitialDelay up to cfg.MaxDelay;
// with jitter enabled it is spread over [0.5x, 1.5x) so a fleet of
// clients losing the same relay does not reconnect in lockstep.
func NextBackoffDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	growth := cfg.Multiplier
	if growth < 1.0 {
		growth = 1.0
	}

	delay := float64(cfg.InitialDelay)
	ceiling := float64(cfg.MaxDelay)
	for i := 1; i < attempt; i++ {
		delay *= growth
		if cfg.MaxDelay > 0 && delay >= ceiling {
			delay = ceiling
			break
		}
	}

	if cfg.Jitter {
		spread := 0.5
		if rng != nil {
			spread = 0.5 + rng.Float64()
		}
		delay *= spread
	}
	return time.Duration(delay)
}
