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
	"github.com/atomicprogress/atomgame/atomgame/economy/boosters"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
	"github.com/disgoorg/snowflake/v2"
)

// PurchaseResult reports a successful complex purchase.
type PurchaseResult struct {
	ComplexID int64
	Type      string
	Cost      economy.Cost
	Rates     economy.Rates
	Balances  economy.Report
}

// UpgradeResult reports a successful complex upgrade.
type UpgradeResult struct {
	ComplexID int64
	Type      string
	Level     int
	Cost      economy.Cost
	Rates     economy.Rates
	Balances  economy.Report
}

// ComplexOffer describes one complex in the shop view, with the price the
// player would pay next and whether its prerequisite is satisfied.
type ComplexOffer struct {
	Config   catalog.ComplexConfig
	Owned    bool
	Level    int
	NextCost economy.Cost
	Unlocked bool
}

// BoosterOffer describes one booster in the shop view.
type BoosterOffer struct {
	Config     catalog.BoosterConfig
	Unlocked   bool
	Affordable bool
}

// DailyBonusResult reports a claimed daily bonus.
type DailyBonusResult struct {
	Amount   float64
	Streak   int
	Balances economy.Report
}

// PurchaseComplex buys the first level of a complex. Production is accrued
// at the pre-purchase rates before the cost check so pending earnings count
// toward affordability, and the ledger purchase entry carries the base-rate
// delta the new complex introduces.
//
// The complex row is written before the player commit: a failed row write
// aborts with the debit still uncommitted, and a failed commit removes the
// row again, so the debit, the row and the ledger entry land together or
// not at all.
func (s *GameService) PurchaseComplex(ctx context.Context, telegramID int64, complexType string) (*PurchaseResult, error) {
	cfg, err := s.catalog.LookupComplex(complexType)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		player, err := s.ensurePlayer(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		st, err := s.loadState(ctx, player)
		if err != nil {
			return nil, err
		}

		for _, c := range st.owned {
			if c.Type == complexType {
				return nil, economy.ErrAlreadyOwned
			}
		}
		if cfg.Prereq != nil && !ownsAtLevel(st.owned, cfg.Prereq.Complex, cfg.Prereq.Level) {
			return nil, &economy.PrerequisiteError{Required: cfg.Prereq.Complex, Level: cfg.Prereq.Level}
		}

		s.accrue(st, models.SourceProduction)

		balances := st.player.Balances()
		if !balances.Meets(cfg.BaseCost) {
			return nil, economy.ErrInsufficientResources
		}
		st.player.SetBalances(balances.Pay(cfg.BaseCost))

		created := &models.Complex{
			PlayerID:     st.player.ID,
			Type:         complexType,
			Level:        1,
			Production:   catalog.Production(cfg, 1),
			LastUpgraded: st.now,
			CreatedAt:    st.now,
		}
		if err := s.complexes.Create(ctx, created); err != nil {
			return nil, fmt.Errorf("failed to create complex: %w", err)
		}

		delta := s.rateDeltaForChange(append(append([]*models.Complex{}, st.owned...), created), st.owned)
		st.player.SetRates(st.player.Rates().Add(delta))

		meta, _ := json.Marshal(map[string]any{"complex_type": complexType})
		st.pending = append(st.pending, &models.LedgerEntry{
			PlayerID:          st.player.ID,
			Timestamp:         st.now,
			Source:            models.SourcePurchase,
			EnergonsDelta:     -float64(cfg.BaseCost.Energons),
			NeutronsDelta:     -float64(cfg.BaseCost.Neutrons),
			ParticlesDelta:    -float64(cfg.BaseCost.Particles),
			EnergonRateDelta:  delta.Energons,
			NeutronRateDelta:  delta.Neutrons,
			ParticleRateDelta: delta.Particles,
			Metadata:          meta,
		})

		err = s.players.UpdateChecked(ctx, st.player)
		if errors.Is(err, repositories.ErrVersionConflict) {
			s.removeComplex(ctx, created.ID)
			continue
		}
		if err != nil {
			s.removeComplex(ctx, created.ID)
			return nil, err
		}
		s.flushPending(ctx, st)
		s.rateCache.Remove(st.player.ID)

		slog.Info("Complex purchased",
			slog.String("type", "economy"),
			slog.Int64("player_id", st.player.ID),
			slog.String("complex_type", complexType))
		return &PurchaseResult{
			ComplexID: created.ID,
			Type:      complexType,
			Cost:      cfg.BaseCost,
			Rates:     st.player.Rates(),
			Balances:  st.player.Balances().Report(),
		}, nil
	}
	return nil, repositories.ErrVersionConflict
}

// UpgradeComplex raises an owned complex by one level. The cost grows
// geometrically with the current level and the level cap is enforced here,
// not in the catalog. The write ordering mirrors PurchaseComplex: the level
// bump lands before the player commit, and a failed commit restores the
// previous row.
func (s *GameService) UpgradeComplex(ctx context.Context, telegramID int64, complexType string) (*UpgradeResult, error) {
	cfg, err := s.catalog.LookupComplex(complexType)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		player, err := s.ensurePlayer(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		st, err := s.loadState(ctx, player)
		if err != nil {
			return nil, err
		}

		var target *models.Complex
		for _, c := range st.owned {
			if c.Type == complexType {
				target = c
				break
			}
		}
		if target == nil {
			return nil, repositories.ErrNotFound
		}
		if target.Level >= s.catalog.Constants().MaxComplexLevel {
			return nil, economy.ErrMaxLevel
		}

		s.accrue(st, models.SourceProduction)

		cost := catalog.UpgradeCost(cfg, target.Level)
		balances := st.player.Balances()
		if !balances.Meets(cost) {
			return nil, economy.ErrInsufficientResources
		}
		st.player.SetBalances(balances.Pay(cost))

		before := cloneComplexes(st.owned)
		prev := *target
		target.Level++
		target.Production = catalog.Production(cfg, target.Level)
		target.LastUpgraded = st.now
		if err := s.complexes.Update(ctx, target); err != nil {
			return nil, fmt.Errorf("failed to persist upgrade: %w", err)
		}

		delta := s.rateDeltaForChange(st.owned, before)
		st.player.SetRates(st.player.Rates().Add(delta))

		meta, _ := json.Marshal(map[string]any{
			"complex_type": complexType,
			"new_level":    target.Level,
		})
		st.pending = append(st.pending, &models.LedgerEntry{
			PlayerID:          st.player.ID,
			Timestamp:         st.now,
			Source:            models.SourceUpgrade,
			EnergonsDelta:     -float64(cost.Energons),
			NeutronsDelta:     -float64(cost.Neutrons),
			ParticlesDelta:    -float64(cost.Particles),
			EnergonRateDelta:  delta.Energons,
			NeutronRateDelta:  delta.Neutrons,
			ParticleRateDelta: delta.Particles,
			Metadata:          meta,
		})

		err = s.players.UpdateChecked(ctx, st.player)
		if errors.Is(err, repositories.ErrVersionConflict) {
			s.restoreComplex(ctx, &prev)
			continue
		}
		if err != nil {
			s.restoreComplex(ctx, &prev)
			return nil, err
		}
		s.flushPending(ctx, st)
		s.rateCache.Remove(st.player.ID)

		return &UpgradeResult{
			ComplexID: target.ID,
			Type:      complexType,
			Level:     target.Level,
			Cost:      cost,
			Rates:     st.player.Rates(),
			Balances:  st.player.Balances().Report(),
		}, nil
	}
	return nil, repositories.ErrVersionConflict
}

// removeComplex undoes a complex insert whose player commit did not land.
func (s *GameService) removeComplex(ctx context.Context, id int64) {
	if err := s.complexes.Delete(ctx, id); err != nil {
		slog.Error("Failed to remove uncommitted complex",
			slog.String("type", "db"),
			slog.Int64("complex_id", id),
			slog.String("error", err.Error()))
	}
}

// restoreComplex writes back the pre-upgrade row when the player commit did
// not land.
func (s *GameService) restoreComplex(ctx context.Context, prev *models.Complex) {
	if err := s.complexes.Update(ctx, prev); err != nil {
		slog.Error("Failed to restore complex after aborted upgrade",
			slog.String("type", "db"),
			slog.Int64("complex_id", prev.ID),
			slog.String("error", err.Error()))
	}
}

// ActivateBooster accrues the player to now at pre-booster rates, then
// delegates validation, debit and persistence to the booster manager.
// Version conflicts from concurrent writers restart the whole cycle.
func (s *GameService) ActivateBooster(ctx context.Context, telegramID int64, boosterType string) (*boosters.ActivationResult, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		player, err := s.ensurePlayer(ctx, telegramID)
		if err != nil {
			return nil, err
		}
		st, err := s.loadState(ctx, player)
		if err != nil {
			return nil, err
		}
		s.accrue(st, models.SourceProduction)

		result, err := s.boosterMgr.Activate(ctx, st.player, st.owned, st.active, boosterType, st.now)
		if errors.Is(err, repositories.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.flushPending(ctx, st)
		s.rateCache.Remove(st.player.ID)
		return result, nil
	}
	return nil, repositories.ErrVersionConflict
}

// CancelBooster ends one of the player's cancelable boosters early.
func (s *GameService) CancelBooster(ctx context.Context, telegramID int64, boosterID snowflake.ID) error {
	player, err := s.ensurePlayer(ctx, telegramID)
	if err != nil {
		return err
	}
	if err := s.boosterMgr.Cancel(ctx, player.ID, boosterID, s.now()); err != nil {
		return err
	}
	s.rateCache.Remove(player.ID)
	return nil
}

// ClaimDailyBonus grants a streak-scaled energon bonus once per UTC day.
// Missing a day resets the streak to one.
func (s *GameService) ClaimDailyBonus(ctx context.Context, telegramID int64) (*DailyBonusResult, error) {
	var result DailyBonusResult
	st, err := s.updatePlayer(ctx, telegramID, func(st *playerState) error {
		today := st.now.UTC().Truncate(24 * time.Hour)
		if !st.player.LastBonusAt.IsZero() {
			last := st.player.LastBonusAt.UTC().Truncate(24 * time.Hour)
			if last.Equal(today) {
				return economy.ErrBonusAlreadyClaimed
			}
			if last.Equal(today.AddDate(0, 0, -1)) {
				st.player.BonusStreak++
			} else {
				st.player.BonusStreak = 1
			}
		} else {
			st.player.BonusStreak = 1
		}

		s.accrue(st, models.SourceProduction)

		streak := st.player.BonusStreak
		if streak > dailyBonusMaxStreak {
			streak = dailyBonusMaxStreak
		}
		amount := float64(dailyBonusBase * streak)
		st.player.Energons += amount
		st.player.LastBonusAt = st.now

		meta, _ := json.Marshal(map[string]any{"streak": st.player.BonusStreak})
		st.pending = append(st.pending, &models.LedgerEntry{
			PlayerID:      st.player.ID,
			Timestamp:     st.now,
			Source:        models.SourceDailyBonus,
			EnergonsDelta: amount,
			Metadata:      meta,
		})

		result = DailyBonusResult{Amount: amount, Streak: st.player.BonusStreak}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Balances = st.player.Balances().Report()
	return &result, nil
}

// AvailableComplexes lists every complex in catalog order with the player's
// ownership, next cost and unlock status.
func (s *GameService) AvailableComplexes(ctx context.Context, telegramID int64) ([]ComplexOffer, error) {
	player, err := s.ensurePlayer(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	owned, err := s.complexes.GetByPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}

	byType := make(map[string]*models.Complex, len(owned))
	for _, c := range owned {
		byType[c.Type] = c
	}

	var offers []ComplexOffer
	for _, typ := range s.catalog.ComplexTypes() {
		cfg, err := s.catalog.LookupComplex(typ)
		if err != nil {
			return nil, err
		}
		offer := ComplexOffer{
			Config:   cfg,
			Unlocked: cfg.Prereq == nil || ownsAtLevel(owned, cfg.Prereq.Complex, cfg.Prereq.Level),
			NextCost: cfg.BaseCost,
		}
		if c, ok := byType[typ]; ok {
			offer.Owned = true
			offer.Level = c.Level
			offer.NextCost = catalog.UpgradeCost(cfg, c.Level)
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// AvailableBoosters lists every booster with unlock and affordability status
// against the player's projected balances.
func (s *GameService) AvailableBoosters(ctx context.Context, telegramID int64) ([]BoosterOffer, error) {
	player, err := s.ensurePlayer(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	owned, err := s.complexes.GetByPlayer(ctx, player.ID)
	if err != nil {
		return nil, err
	}
	view, err := s.GetBalances(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	projected := economy.Balances{
		Energons:  float64(view.Balances.Energons),
		Neutrons:  float64(view.Balances.Neutrons),
		Particles: float64(view.Balances.Particles),
	}

	var offers []BoosterOffer
	for _, typ := range s.catalog.BoosterTypes() {
		cfg, err := s.catalog.LookupBooster(typ)
		if err != nil {
			return nil, err
		}
		offers = append(offers, BoosterOffer{
			Config:     cfg,
			Unlocked:   cfg.Prereq == nil || ownsAtLevel(owned, cfg.Prereq.Complex, cfg.Prereq.Level),
			Affordable: projected.Meets(cfg.Cost),
		})
	}
	return offers, nil
}

// ActiveBoosters returns the player's currently running boosters.
func (s *GameService) ActiveBoosters(ctx context.Context, telegramID int64) ([]*models.Booster, error) {
	player, err := s.ensurePlayer(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.boosterRepo.ActiveByPlayer(ctx, player.ID, s.now())
}

func ownsAtLevel(complexes []*models.Complex, complexType string, level int) bool {
	for _, c := range complexes {
		if c.Type == complexType && c.Level >= level {
			return true
		}
	}
	return false
}

func cloneComplexes(in []*models.Complex) []*models.Complex {
	out := make([]*models.Complex, len(in))
	for i, c := range in {
		cp := *c
		out[i] = &cp
	}
	return out
}
