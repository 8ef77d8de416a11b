// Package services exposes the game operations consumed by the presentation
// layer: balance reads, clicks, purchases, booster control and client/server
// reconciliation. Transport and authentication live outside this package.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/database/repositories"
	"github.com/atomicprogress/atomgame/atomgame/economy"
	"github.com/atomicprogress/atomgame/atomgame/economy/accrual"
	"github.com/atomicprogress/atomgame/atomgame/economy/boosters"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
	"github.com/atomicprogress/atomgame/atomgame/economy/history"
	"github.com/atomicprogress/atomgame/atomgame/economy/production"
	"github.com/atomicprogress/atomgame/atomgame/economy/reconcile"
	lru "github.com/hashicorp/golang-lru"
)

const (
	rateCacheSize = 10000
	rateCacheTTL  = 30 * time.Second
	// How many times a read-modify-write cycle is retried after losing the
	// optimistic version race before giving up.
	maxUpdateAttempts = 3
	// Client clocks further off than this are treated as stale and ignored.
	clockSkewTolerance = 5 * time.Minute

	dailyBonusBase      = 100
	dailyBonusMaxStreak = 7
)

// GameService coordinates the accrual engine, booster lifecycle and
// reconciliation over the player repositories.
type GameService struct {
	catalog     *catalog.Catalog
	players     repositories.PlayerRepository
	complexes   repositories.ComplexRepository
	boosterRepo repositories.BoosterRepository
	ledger      repositories.LedgerRepository
	boosterMgr  *boosters.Manager
	integrator  *history.Integrator
	accrualCfg  accrual.Config
	rateCache   *lru.Cache
	now         func() time.Time
}

func NewGameService(
	cat *catalog.Catalog,
	players repositories.PlayerRepository,
	complexes repositories.ComplexRepository,
	boosterRepo repositories.BoosterRepository,
	ledger repositories.LedgerRepository,
	boosterMgr *boosters.Manager,
	accrualCfg accrual.Config,
) *GameService {
	cache, _ := lru.New(rateCacheSize)
	return &GameService{
		catalog:     cat,
		players:     players,
		complexes:   complexes,
		boosterRepo: boosterRepo,
		ledger:      ledger,
		boosterMgr:  boosterMgr,
		integrator:  history.NewIntegrator(ledger),
		accrualCfg:  accrualCfg,
		rateCache:   cache,
		now:         time.Now,
	}
}

// playerState is one loaded read-modify-write cycle: the player row, its
// complexes and active boosters, the production result derived from them,
// and the ledger entries to append once the player row commits.
type playerState struct {
	player  *models.Player
	owned   []*models.Complex
	active  []*models.Booster
	prod    production.Result
	now     time.Time
	pending []*models.LedgerEntry
}

type cachedRates struct {
	prod production.Result
	// validUntil is capped at the earliest active booster end time so an
	// expired multiplier never outlives the booster in read projections.
	validUntil time.Time
}

// BalancesView is the read projection returned to the UI.
type BalancesView struct {
	Balances        economy.Report
	Rates           economy.Rates
	ClickMultiplier float64
	AutoCollect     bool
}

// ClickResult reports one manual click.
type ClickResult struct {
	Balances   economy.Report
	ClickValue float64
}

// FlushResult reports one buffered-click flush.
type FlushResult struct {
	Balances             economy.Report
	EarnedFromClicks     float64
	EarnedFromProduction economy.Balances
}

// SyncResult is the reconciliation outcome returned to the client.
type SyncResult struct {
	Balances   economy.Report
	Rates      economy.Rates
	ServerTime time.Time
}

// GetBalances returns the player's current balances including production
// earned since the checkpoint, without persisting anything. The projection
// uses the same clamping as a real accrual so it never shows more than a
// subsequent write would grant.
func (s *GameService) GetBalances(ctx context.Context, telegramID int64) (*BalancesView, error) {
	player, err := s.ensurePlayer(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	prod, err := s.ratesFor(ctx, player)
	if err != nil {
		return nil, err
	}

	balances, _, _ := accrual.Accrue(player.Balances(), prod.Rates, player.LastActivity, s.now(), s.accrualCfg)
	return &BalancesView{
		Balances:        balances.Report(),
		Rates:           prod.Rates,
		ClickMultiplier: prod.ClickMultiplier,
		AutoCollect:     prod.AutoCollect,
	}, nil
}

// Click applies one manual click: accrue passive production first, then add
// the catalog-derived click value and bump the click counters.
func (s *GameService) Click(ctx context.Context, telegramID int64) (*ClickResult, error) {
	var clickValue float64
	st, err := s.updatePlayer(ctx, telegramID, func(st *playerState) error {
		s.accrue(st, models.SourceProduction)

		clickValue = production.ClickValue(s.catalog, st.prod.ClickMultiplier, 1)
		st.player.Energons += clickValue
		st.player.TotalClicks++
		st.player.ManualClicks++

		st.pending = append(st.pending, &models.LedgerEntry{
			PlayerID:      st.player.ID,
			Timestamp:     st.now,
			Source:        models.SourceClick,
			EnergonsDelta: clickValue,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &ClickResult{Balances: st.player.Balances().Report(), ClickValue: clickValue}, nil
}

// FlushClicks settles a batch of buffered manual clicks. The click value is
// computed server-side from the catalog; the client-reported energon balance
// only participates in the final max-merge and is never used to price the
// clicks themselves.
func (s *GameService) FlushClicks(ctx context.Context, telegramID int64, count int64, clientEnergons float64) (*FlushResult, error) {
	if count < 0 {
		return nil, fmt.Errorf("click count must not be negative, got %d", count)
	}

	var result FlushResult
	st, err := s.updatePlayer(ctx, telegramID, func(st *playerState) error {
		out := s.accrue(st, models.SourceProduction)
		result.EarnedFromProduction = out.Earned

		clickValue := production.ClickValue(s.catalog, st.prod.ClickMultiplier, count)
		result.EarnedFromClicks = clickValue
		st.player.Energons += clickValue
		st.player.TotalClicks += count
		st.player.ManualClicks += count

		if count > 0 {
			meta, _ := json.Marshal(map[string]any{
				"click_count":      count,
				"click_multiplier": st.prod.ClickMultiplier,
			})
			st.pending = append(st.pending, &models.LedgerEntry{
				PlayerID:      st.player.ID,
				Timestamp:     st.now,
				Source:        models.SourceClickFlush,
				EnergonsDelta: clickValue,
				Metadata:      meta,
			})
		}

		// The client may have projected further ahead than the server
		// settlement; keep its energon progress, audited below.
		if clientEnergons > st.player.Energons {
			surplus := clientEnergons - st.player.Energons
			st.player.Energons = clientEnergons
			st.pending = append(st.pending, &models.LedgerEntry{
				PlayerID:      st.player.ID,
				Timestamp:     st.now,
				Source:        models.SourceClientAheadSync,
				EnergonsDelta: surplus,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Balances = st.player.Balances().Report()
	return &result, nil
}

// Sync is the reconciliation entry point, called periodically, on app close
// and on app foreground. The server accrues to its own now, then each
// resource takes max(server, client); a ledger entry is written only when
// the client was ahead. A reconciliation never rolls a balance backward and
// is idempotent at a fixed now.
func (s *GameService) Sync(ctx context.Context, telegramID int64, clientTime time.Time, client economy.Balances, closing bool) (*SyncResult, error) {
	st, err := s.updatePlayer(ctx, telegramID, func(st *playerState) error {
		skew := clientTime.Sub(st.now)
		if skew > clockSkewTolerance || skew < -clockSkewTolerance {
			slog.Warn("Stale client clock during sync, clamping",
				slog.String("type", "sync"),
				slog.Int64("telegram_id", telegramID),
				slog.Duration("skew", skew))
		}

		s.accrue(st, models.SourceProduction)

		merged := reconcile.Merge(st.player.Balances(), client)
		st.player.SetBalances(merged.Final)
		st.player.LastSyncAt = st.now
		if merged.ClientAhead {
			source := models.SourceClientAheadSync
			meta, _ := json.Marshal(map[string]any{
				"client_time": clientTime.UnixMilli(),
				"closing":     closing,
			})
			st.pending = append(st.pending, &models.LedgerEntry{
				PlayerID:       st.player.ID,
				Timestamp:      st.now,
				Source:         source,
				EnergonsDelta:  merged.Surplus.Energons,
				NeutronsDelta:  merged.Surplus.Neutrons,
				ParticlesDelta: merged.Surplus.Particles,
				Metadata:       meta,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &SyncResult{
		Balances:   st.player.Balances().Report(),
		Rates:      st.prod.Rates,
		ServerTime: st.now,
	}, nil
}

// AccruePlayer advances one player's accrual checkpoint, used by the global
// background sweep. Safe to call at any cadence: below the minimum interval
// it is a no-op, and a now earlier than the checkpoint accrues nothing.
func (s *GameService) AccruePlayer(ctx context.Context, playerID int64) error {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		player, err := s.players.GetByID(ctx, playerID)
		if err != nil {
			return err
		}
		st, err := s.loadState(ctx, player)
		if err != nil {
			return err
		}
		out := s.accrue(st, models.SourceSweepProduction)
		if !out.Applied {
			return nil
		}
		err = s.players.UpdateChecked(ctx, st.player)
		if errors.Is(err, repositories.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return err
		}
		s.flushPending(ctx, st)
		return nil
	}
	return repositories.ErrVersionConflict
}

// ProducedBetween reconstructs how much the player's complexes produced over
// [start, end] by replaying rate-changing ledger entries, independent of the
// player's current state. Used for audits and offline catch-up checks.
func (s *GameService) ProducedBetween(ctx context.Context, telegramID int64, start, end time.Time) (economy.Balances, error) {
	player, err := s.ensurePlayer(ctx, telegramID)
	if err != nil {
		return economy.Balances{}, err
	}
	return s.integrator.Totals(ctx, player.ID, start, end)
}

// RecentActivity returns the player's newest ledger entries, most recent
// first, capped at limit.
func (s *GameService) RecentActivity(ctx context.Context, telegramID int64, limit int) ([]*models.LedgerEntry, error) {
	player, err := s.ensurePlayer(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.ledger.ListByPlayer(ctx, player.ID, limit)
}

// ensurePlayer loads the player, creating the account with zero balances and
// the starter complex on first contact.
func (s *GameService) ensurePlayer(ctx context.Context, telegramID int64) (*models.Player, error) {
	player, err := s.players.GetByTelegramID(ctx, telegramID)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	player = &models.Player{
		TelegramID:         telegramID,
		LastActivity:       now,
		EnergonMultiplier:  1,
		NeutronMultiplier:  1,
		ParticleMultiplier: 1,
		ClickMultiplier:    1,
	}
	if err := s.players.Create(ctx, player); err != nil {
		// Lost a creation race; the other writer's row wins.
		if existing, getErr := s.players.GetByTelegramID(ctx, telegramID); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	starter := s.catalog.Constants().StarterComplex
	cfg, err := s.catalog.LookupComplex(starter)
	if err != nil {
		return nil, err
	}
	complex := &models.Complex{
		PlayerID:     player.ID,
		Type:         starter,
		Level:        1,
		Production:   catalog.Production(cfg, 1),
		LastUpgraded: now,
		CreatedAt:    now,
	}
	if err := s.complexes.Create(ctx, complex); err != nil {
		return nil, fmt.Errorf("failed to create starter complex: %w", err)
	}

	delta := s.rateDeltaForChange([]*models.Complex{complex}, nil)
	meta, _ := json.Marshal(map[string]any{"complex_type": starter, "starter": true})
	if err := s.ledger.Insert(ctx, &models.LedgerEntry{
		PlayerID:          player.ID,
		Timestamp:         now,
		Source:            models.SourcePurchase,
		EnergonRateDelta:  delta.Energons,
		NeutronRateDelta:  delta.Neutrons,
		ParticleRateDelta: delta.Particles,
		Metadata:          meta,
	}); err != nil {
		return nil, fmt.Errorf("failed to record starter complex: %w", err)
	}

	player.SetRates(delta)
	if err := s.players.UpdateChecked(ctx, player); err != nil {
		return nil, err
	}

	slog.Info("Created new player",
		slog.String("type", "svc"),
		slog.Int64("telegram_id", telegramID),
		slog.Int64("player_id", player.ID))
	return player, nil
}

// updatePlayer runs one optimistic read-modify-write cycle against the
// player row, retrying on version conflicts. Ledger entries queued by fn are
// appended only after the row commits.
func (s *GameService) updatePlayer(ctx context.Context, telegramID int64, fn func(*playerState) error) (*playerState, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		player, err := s.ensurePlayer(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		st, err := s.loadState(ctx, player)
		if err != nil {
			return nil, err
		}
		if err := fn(st); err != nil {
			return nil, err
		}
		err = s.players.UpdateChecked(ctx, st.player)
		if errors.Is(err, repositories.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.flushPending(ctx, st)
		s.rateCache.Remove(st.player.ID)
		return st, nil
	}
	return nil, repositories.ErrVersionConflict
}

func (s *GameService) loadState(ctx context.Context, player *models.Player) (*playerState, error) {
	now := s.now()
	owned, err := s.complexes.GetByPlayer(ctx, player.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load complexes: %w", err)
	}
	active, err := s.boosterRepo.ActiveByPlayer(ctx, player.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load boosters: %w", err)
	}
	return &playerState{
		player: player,
		owned:  owned,
		active: active,
		prod:   production.Compute(s.catalog, owned, active, now),
		now:    now,
	}, nil
}

// accrue advances the state's player to st.now and refreshes the cached
// rate and multiplier columns. A production ledger entry is queued when
// anything was earned.
func (s *GameService) accrue(st *playerState, source string) accrual.Outcome {
	balances, checkpoint, out := accrual.Accrue(st.player.Balances(), st.prod.Rates, st.player.LastActivity, st.now, s.accrualCfg)
	st.player.SetBalances(balances)
	st.player.LastActivity = checkpoint
	st.player.SetRates(st.prod.Base)
	st.player.EnergonMultiplier = st.prod.Multipliers.Energons
	st.player.NeutronMultiplier = st.prod.Multipliers.Neutrons
	st.player.ParticleMultiplier = st.prod.Multipliers.Particles
	st.player.ClickMultiplier = st.prod.ClickMultiplier

	if out.Applied && (out.Earned.Energons > 0 || out.Earned.Neutrons > 0 || out.Earned.Particles > 0) {
		st.pending = append(st.pending, &models.LedgerEntry{
			PlayerID:       st.player.ID,
			Timestamp:      st.now,
			Source:         source,
			EnergonsDelta:  out.Earned.Energons,
			NeutronsDelta:  out.Earned.Neutrons,
			ParticlesDelta: out.Earned.Particles,
			ElapsedSeconds: out.Elapsed.Seconds(),
		})
	}
	return out
}

// flushPending appends queued ledger entries after a successful commit.
// Ledger writes are audit trail; failures are logged, not propagated.
func (s *GameService) flushPending(ctx context.Context, st *playerState) {
	for _, entry := range st.pending {
		if err := s.ledger.Insert(ctx, entry); err != nil {
			slog.Error("Failed to append ledger entry",
				slog.String("type", "db"),
				slog.String("source", entry.Source),
				slog.Int64("player_id", entry.PlayerID),
				slog.String("error", err.Error()))
		}
	}
	st.pending = nil
}

// ratesFor returns the player's production result from the short-lived LRU
// cache, recomputing on miss or expiry.
func (s *GameService) ratesFor(ctx context.Context, player *models.Player) (production.Result, error) {
	if v, ok := s.rateCache.Get(player.ID); ok {
		if c, ok := v.(cachedRates); ok && s.now().Before(c.validUntil) {
			return c.prod, nil
		}
	}
	st, err := s.loadState(ctx, player)
	if err != nil {
		return production.Result{}, err
	}
	validUntil := st.now.Add(rateCacheTTL)
	for _, b := range st.active {
		if b.EndTime.Before(validUntil) {
			validUntil = b.EndTime
		}
	}
	s.rateCache.Add(player.ID, cachedRates{prod: st.prod, validUntil: validUntil})
	return st.prod, nil
}

// rateDeltaForChange computes the base-rate change caused by adding or
// modifying complexes: the difference of the two-pass base rates before and
// after. Boosters deliberately do not participate; the ledger records the
// durable rate change, not transient multipliers.
func (s *GameService) rateDeltaForChange(after, before []*models.Complex) economy.Rates {
	now := s.now()
	a := production.Compute(s.catalog, after, nil, now).Base
	b := production.Compute(s.catalog, before, nil, now).Base
	return economy.Rates{
		Energons:  a.Energons - b.Energons,
		Neutrons:  a.Neutrons - b.Neutrons,
		Particles: a.Particles - b.Particles,
	}
}
