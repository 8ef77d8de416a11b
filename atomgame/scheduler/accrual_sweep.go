// Package scheduler runs the background sweeps: periodic production accrual
// across all players and cleanup of expired boosters.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/repositories"
	"github.com/atomicprogress/atomgame/atomgame/services"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	accrualPageSize      = 200
	maxConcurrentAccrual = 10
	sweepTimeout         = 60 * time.Second
)

// AccrualSweep walks the player table in id order and advances each player's
// production checkpoint. One run processes a single page; the cursor carries
// across runs so a restart resumes where the previous run stopped instead of
// starting over.
type AccrualSweep struct {
	service  *services.GameService
	players  repositories.PlayerRepository
	interval time.Duration
	ticker   *time.Ticker
	shutdown chan struct{}
	sem      *semaphore.Weighted
	cursor   int64
}

func NewAccrualSweep(service *services.GameService, players repositories.PlayerRepository, interval time.Duration) *AccrualSweep {
	return &AccrualSweep{
		service:  service,
		players:  players,
		interval: interval,
		shutdown: make(chan struct{}),
		sem:      semaphore.NewWeighted(maxConcurrentAccrual),
	}
}

// Start begins the periodic sweep.
func (s *AccrualSweep) Start() {
	s.ticker = time.NewTicker(s.interval)
	go func() {
		defer s.ticker.Stop()
		for {
			select {
			case <-s.ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
				next, processed, err := s.SweepOnce(ctx, s.cursor)
				cancel()
				if err != nil {
					slog.Error("Accrual sweep failed",
						slog.String("type", "scheduler"),
						slog.Int64("cursor", s.cursor),
						slog.String("error", err.Error()))
					continue
				}
				s.cursor = next
				if processed > 0 {
					slog.Debug("Accrual sweep page completed",
						slog.String("type", "scheduler"),
						slog.Int("processed", processed),
						slog.Int64("next_cursor", next))
				}
			case <-s.shutdown:
				return
			}
		}
	}()
}

// SweepOnce processes one page of players after the cursor and returns the
// cursor for the next run. An empty page wraps the cursor back to zero.
// Per-player failures are logged and skipped so one bad row cannot stall
// the sweep.
func (s *AccrualSweep) SweepOnce(ctx context.Context, cursor int64) (int64, int, error) {
	players, err := s.players.ListPage(ctx, cursor, accrualPageSize)
	if err != nil {
		return cursor, 0, err
	}
	if len(players) == 0 {
		return 0, 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	processed := 0
	results := make(chan int64, len(players))
	for _, p := range players {
		playerID := p.ID
		g.Go(func() error {
			if err := s.sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer s.sem.Release(1)

			if err := s.service.AccruePlayer(gctx, playerID); err != nil {
				slog.Error("Failed to accrue player",
					slog.String("type", "scheduler"),
					slog.Int64("player_id", playerID),
					slog.String("error", err.Error()))
				return nil
			}
			results <- playerID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return cursor, processed, err
	}
	close(results)
	for range results {
		processed++
	}

	return players[len(players)-1].ID, processed, nil
}

// Shutdown stops the sweep loop.
func (s *AccrualSweep) Shutdown() {
	close(s.shutdown)
	if s.ticker != nil {
		s.ticker.Stop()
	}
	slog.Info("Accrual sweep shutdown completed", slog.String("type", "scheduler"))
}
