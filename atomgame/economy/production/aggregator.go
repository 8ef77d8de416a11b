// Package production turns a player's owned complexes and active boosters
// into current per-second production rates.
package production

import (
	"log/slog"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/atomicprogress/atomgame/atomgame/economy"
	"github.com/atomicprogress/atomgame/atomgame/economy/catalog"
)

// Result is the full output of one rate computation.
type Result struct {
	// Base rates before booster multipliers
	Base economy.Rates
	// Rates with booster multipliers applied
	Rates economy.Rates
	// Booster multiplier actually applied per resource class
	Multipliers economy.Rates
	// Click value multiplier from click-boost complexes
	ClickMultiplier float64
	// Whether an auto-collect booster is currently active
	AutoCollect bool
}

// Compute derives the current production rates. Evaluation is two-pass:
// first raw producer contributions, then cross-complex multipliers, then
// booster multipliers composed per resource class. A booster counts only
// while its end time is in the future, regardless of whether the expiry
// sweep has run. Unknown types are skipped with a logged anomaly so one bad
// catalog entry cannot corrupt the whole computation.
func Compute(cat *catalog.Catalog, complexes []*models.Complex, boosters []*models.Booster, now time.Time) Result {
	consts := cat.Constants()

	var raw economy.Rates
	resourceBonus := map[economy.Resource]float64{}
	allBonus := 0.0
	clickBonus := 0.0
	autoClicks := 0.0

	// Pass 1: raw contributions and declared cross-complex bonuses.
	for _, c := range complexes {
		cfg, err := cat.LookupComplex(c.Type)
		if err != nil {
			slog.Warn("Skipping complex with unknown type",
				slog.String("type", "economy"),
				slog.String("complex_type", c.Type),
				slog.Int64("player_id", c.PlayerID))
			continue
		}
		level := float64(c.Level)
		switch a := cfg.Archetype.(type) {
		case catalog.ProducerConfig:
			switch a.Resource {
			case economy.ResourceEnergons:
				raw.Energons += a.BaseRate * level
			case economy.ResourceNeutrons:
				raw.Neutrons += a.BaseRate * level
			case economy.ResourceParticles:
				raw.Particles += a.BaseRate * level
			}
		case catalog.MultiplierConfig:
			if a.Target == economy.ResourceAll {
				allBonus += a.PerLevel * level
			} else {
				resourceBonus[a.Target] += a.PerLevel * level
			}
		case catalog.ClickBoostConfig:
			clickBonus += a.PerLevel * level
		case catalog.AutoClickerConfig:
			autoClicks += a.ClicksPerSecond * level
		case catalog.PeriodicConfig:
			// Periodic bonuses amortize into a steady rate; neutron and
			// particle shares scale down by the rarity factors.
			perSecond := a.BonusPerLevel * level / a.Interval.Seconds()
			raw.Energons += perSecond
			raw.Neutrons += perSecond / consts.NeutronRarity
			raw.Particles += perSecond / consts.ParticleRarity
		}
	}

	clickMultiplier := 1 + clickBonus

	// Auto-clickers feed click-valued energons into the passive rate.
	raw.Energons += autoClicks * consts.BaseClickValue * clickMultiplier

	// Pass 2: cross-complex multipliers.
	base := economy.Rates{
		Energons:  raw.Energons * (1 + resourceBonus[economy.ResourceEnergons]) * (1 + allBonus),
		Neutrons:  raw.Neutrons * (1 + resourceBonus[economy.ResourceNeutrons]) * (1 + allBonus),
		Particles: raw.Particles * (1 + resourceBonus[economy.ResourceParticles]) * (1 + allBonus),
	}

	// Pass 3: booster multipliers, multiplicative and order-independent,
	// clamped to the global cap.
	mult := economy.Rates{Energons: 1, Neutrons: 1, Particles: 1}
	autoCollect := false
	for _, b := range boosters {
		if !b.ActiveAt(now) {
			continue
		}
		cfg, err := cat.LookupBooster(b.Type)
		if err != nil {
			slog.Warn("Skipping booster with unknown type",
				slog.String("type", "economy"),
				slog.String("booster_type", b.Type),
				slog.Int64("player_id", b.PlayerID))
			continue
		}
		affects := economy.Resource(b.Affects)
		if affects == economy.ResourceEnergons || affects == economy.ResourceAll {
			mult.Energons *= b.Multiplier
		}
		if affects == economy.ResourceNeutrons || affects == economy.ResourceAll {
			mult.Neutrons *= b.Multiplier
		}
		if affects == economy.ResourceParticles || affects == economy.ResourceAll {
			mult.Particles *= b.Multiplier
		}
		if cfg.AutoCollect {
			autoCollect = true
		}
	}
	mult.Energons = clamp(mult.Energons, consts.MaxBoostMultiplier)
	mult.Neutrons = clamp(mult.Neutrons, consts.MaxBoostMultiplier)
	mult.Particles = clamp(mult.Particles, consts.MaxBoostMultiplier)

	return Result{
		Base: base,
		Rates: economy.Rates{
			Energons:  base.Energons * mult.Energons,
			Neutrons:  base.Neutrons * mult.Neutrons,
			Particles: base.Particles * mult.Particles,
		},
		Multipliers:     mult,
		ClickMultiplier: clickMultiplier,
		AutoCollect:     autoCollect,
	}
}

// ClickValue returns the server-computed value of count manual clicks.
// Client-supplied click values are never trusted.
func ClickValue(cat *catalog.Catalog, clickMultiplier float64, count int64) float64 {
	return cat.Constants().BaseClickValue * clickMultiplier * float64(count)
}

func clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
