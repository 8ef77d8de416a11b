// Package accrual converts elapsed wall-clock time into earned resources.
package accrual

import (
	"time"

	"github.com/atomicprogress/atomgame/atomgame/economy"
)

// Config bounds a single accrual step.
type Config struct {
	// MinInterval suppresses needless writes on rapid repeated calls;
	// below it the balances and checkpoint are returned unchanged.
	MinInterval time.Duration
	// OfflineCap limits how much absence is rewarded.
	OfflineCap time.Duration
}

// DefaultConfig matches the shipped game tuning.
func DefaultConfig() Config {
	return Config{
		MinInterval: time.Second,
		OfflineCap:  24 * time.Hour,
	}
}

// Outcome reports what a single Accrue call did.
type Outcome struct {
	Applied bool
	Elapsed time.Duration
	Earned  economy.Balances
}

// Accrue computes the balances earned between checkpoint and now at the
// given rates, returning the new balances and the advanced checkpoint.
// A now at or before the checkpoint yields zero elapsed time; the checkpoint
// never moves backward. Elapsed time is clamped to the offline cap before
// multiplying. Calling twice with the same now is idempotent: the first call
// advances the checkpoint, the second accrues nothing.
func Accrue(balances economy.Balances, rates economy.Rates, checkpoint, now time.Time, cfg Config) (economy.Balances, time.Time, Outcome) {
	elapsed := now.Sub(checkpoint)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed < cfg.MinInterval {
		return balances, checkpoint, Outcome{}
	}
	if cfg.OfflineCap > 0 && elapsed > cfg.OfflineCap {
		elapsed = cfg.OfflineCap
	}

	earned := rates.Over(elapsed.Seconds())
	return balances.Add(earned), now, Outcome{
		Applied: true,
		Elapsed: elapsed,
		Earned:  earned,
	}
}
