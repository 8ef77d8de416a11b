package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/economy/boosters"
)

const expiredBatchLimit = 500

// BoosterSweep periodically removes expired booster rows. Correctness never
// depends on it running: expired boosters already drop out of every rate
// computation through the end-time predicate. The sweep only keeps the table
// small and writes the expiry audit entries.
type BoosterSweep struct {
	manager  *boosters.Manager
	interval time.Duration
	ticker   *time.Ticker
	shutdown chan struct{}
}

func NewBoosterSweep(manager *boosters.Manager, interval time.Duration) *BoosterSweep {
	return &BoosterSweep{
		manager:  manager,
		interval: interval,
		shutdown: make(chan struct{}),
	}
}

func (s *BoosterSweep) Start() {
	s.ticker = time.NewTicker(s.interval)
	go func() {
		defer s.ticker.Stop()
		for {
			select {
			case <-s.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
				removed, err := s.manager.ExpireSweep(ctx, time.Now(), expiredBatchLimit)
				cancel()
				if err != nil {
					slog.Error("Booster expiry sweep failed",
						slog.String("type", "scheduler"),
						slog.String("error", err.Error()))
					continue
				}
				if removed > 0 {
					slog.Info("Expired boosters cleaned up",
						slog.String("type", "scheduler"),
						slog.Int("removed", removed))
				}
			case <-s.shutdown:
				return
			}
		}
	}()
}

func (s *BoosterSweep) Shutdown() {
	close(s.shutdown)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	slog.Info("Booster sweep shutdown completed", slog.String("type", "scheduler"))
}
