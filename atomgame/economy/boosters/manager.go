// Package boosters manages the lifecycle of time-limited and instant
// boosters: activation, cancellation, and expiry cleanup.
package boosters

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/database/repositories"
	"github.com/atomicprogress/atomgame/atomgame/economy"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
	"github.com/atomicprogress/atomgame/atomgame/economy/production"
	"github.com/disgoorg/snowflake/v2"
)

// Manager owns booster activation, cancellation and the expiry sweep.
type Manager struct {
	catalog     *catalog.Catalog
	playerRepo  repositories.PlayerRepository
	boosterRepo repositories.BoosterRepository
	ledgerRepo  repositories.LedgerRepository
}

func NewManager(cat *catalog.Catalog, playerRepo repositories.PlayerRepository, boosterRepo repositories.BoosterRepository, ledgerRepo repositories.LedgerRepository) *Manager {
	return &Manager{
		catalog:     cat,
		playerRepo:  playerRepo,
		boosterRepo: boosterRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// ActivationResult reports what activating a booster did.
type ActivationResult struct {
	Effect      string // "instant" or "timed"
	BoosterID   snowflake.ID
	EndTime     time.Time
	AmountAdded economy.Balances
}

// Activate validates prerequisites and affordability against the player's
// post-accrual balances, then either applies an instant bonus directly or
// creates an active booster row. The player must already be accrued to now;
// Activate persists the debited player via the optimistic version check, so
// a conflicting writer surfaces as repositories.ErrVersionConflict and the
// caller retries the whole operation.
func (m *Manager) Activate(ctx context.Context, player *models.Player, complexes []*models.Complex, active []*models.Booster, boosterType string, now time.Time) (*ActivationResult, error) {
	cfg, err := m.catalog.LookupBooster(boosterType)
	if err != nil {
		return nil, err
	}

	if cfg.Prereq != nil {
		if !prereqMet(complexes, cfg.Prereq) {
			return nil, &economy.PrerequisiteError{Required: cfg.Prereq.Complex, Level: cfg.Prereq.Level}
		}
	}

	if !cfg.Instant {
		// The cap counts stored rows, not the caller's snapshot.
		count, err := m.boosterRepo.CountActive(ctx, player.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to count active boosters: %w", err)
		}
		if count >= m.catalog.Constants().MaxActiveBoosters {
			return nil, economy.ErrBoosterLimit
		}
	}

	balances := player.Balances()
	if !balances.Meets(cfg.Cost) {
		return nil, economy.ErrInsufficientResources
	}
	player.SetBalances(balances.Pay(cfg.Cost))

	meta, _ := json.Marshal(map[string]any{
		"booster_type": boosterType,
		"cost":         cfg.Cost,
	})

	if cfg.Instant {
		rates := production.Compute(m.catalog, complexes, active, now).Rates
		bonus := rates.Over(cfg.ProductionHours * 3600)
		player.SetBalances(player.Balances().Add(bonus))

		if err := m.playerRepo.UpdateChecked(ctx, player); err != nil {
			return nil, err
		}
		if err := m.ledgerRepo.Insert(ctx, &models.LedgerEntry{
			PlayerID:       player.ID,
			Timestamp:      now,
			Source:         models.SourceBoosterInstant,
			EnergonsDelta:  bonus.Energons,
			NeutronsDelta:  bonus.Neutrons,
			ParticlesDelta: bonus.Particles,
			Metadata:       meta,
		}); err != nil {
			return nil, fmt.Errorf("failed to record instant booster: %w", err)
		}
		return &ActivationResult{Effect: "instant", AmountAdded: bonus}, nil
	}

	if err := m.playerRepo.UpdateChecked(ctx, player); err != nil {
		return nil, err
	}

	booster := &models.Booster{
		PlayerID:   player.ID,
		Type:       boosterType,
		StartTime:  now,
		EndTime:    now.Add(cfg.Duration),
		Multiplier: cfg.Multiplier,
		Affects:    string(cfg.Affects),
	}
	if err := m.boosterRepo.Insert(ctx, booster); err != nil {
		return nil, fmt.Errorf("failed to insert booster: %w", err)
	}

	if err := m.ledgerRepo.Insert(ctx, &models.LedgerEntry{
		PlayerID:       player.ID,
		Timestamp:      now,
		Source:         models.SourceBoosterActivation,
		EnergonsDelta:  -float64(cfg.Cost.Energons),
		NeutronsDelta:  -float64(cfg.Cost.Neutrons),
		ParticlesDelta: -float64(cfg.Cost.Particles),
		Metadata:       meta,
	}); err != nil {
		return nil, fmt.Errorf("failed to record booster activation: %w", err)
	}

	return &ActivationResult{Effect: "timed", BoosterID: booster.ID, EndTime: booster.EndTime}, nil
}

// Cancel ends a booster immediately. Only cancelable booster types allow
// this; the booster drops out of rate computations as soon as its end time
// is rewound, independent of the next sweep.
func (m *Manager) Cancel(ctx context.Context, playerID int64, boosterID snowflake.ID, now time.Time) error {
	booster, err := m.boosterRepo.GetByID(ctx, boosterID)
	if err != nil {
		return err
	}
	if booster.PlayerID != playerID {
		return repositories.ErrNotFound
	}

	cfg, err := m.catalog.LookupBooster(booster.Type)
	if err != nil {
		return err
	}
	if !cfg.Cancelable {
		return economy.ErrNotCancelable
	}

	if err := m.boosterRepo.SetEndTime(ctx, boosterID, now); err != nil {
		return fmt.Errorf("failed to cancel booster: %w", err)
	}

	meta, _ := json.Marshal(map[string]any{
		"booster_id":   boosterID.String(),
		"booster_type": booster.Type,
	})
	return m.ledgerRepo.Insert(ctx, &models.LedgerEntry{
		PlayerID:  playerID,
		Timestamp: now,
		Source:    models.SourceBoosterCanceled,
		Metadata:  meta,
	})
}

// ExpireSweep removes boosters whose end time has passed, writing one audit
// entry per removal. Rate computations never depend on the sweep having run:
// an unswept expired booster is already excluded by the end-time predicate.
// Failures on individual boosters are logged and skipped so one bad row
// cannot stall the batch.
func (m *Manager) ExpireSweep(ctx context.Context, now time.Time, limit int) (int, error) {
	expired, err := m.boosterRepo.ListExpired(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired boosters: %w", err)
	}

	processed := 0
	for _, b := range expired {
		meta, _ := json.Marshal(map[string]any{
			"booster_id":       b.ID.String(),
			"booster_type":     b.Type,
			"duration_seconds": b.EndTime.Sub(b.StartTime).Seconds(),
		})
		if err := m.ledgerRepo.Insert(ctx, &models.LedgerEntry{
			PlayerID:  b.PlayerID,
			Timestamp: now,
			Source:    models.SourceBoosterExpired,
			Metadata:  meta,
		}); err != nil {
			slog.Error("Failed to record booster expiry",
				slog.String("type", "economy"),
				slog.String("booster_id", b.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if err := m.boosterRepo.Delete(ctx, b.ID); err != nil {
			slog.Error("Failed to delete expired booster",
				slog.String("type", "economy"),
				slog.String("booster_id", b.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		processed++
	}
	return processed, nil
}

func prereqMet(complexes []*models.Complex, prereq *catalog.Prerequisite) bool {
	for _, c := range complexes {
		if c.Type == prereq.Complex && c.Level >= prereq.Level {
			return true
		}
	}
	return false
}
