package models

import (
	"time"

	"github.com/atomicprogress/atomgame/atomgame/economy"
	"github.com/uptrace/bun"
)

// Player is the sole mutable source of truth for a player's balances. The
// cached rate and multiplier columns are derived values recomputed on every
// accrual; LastActivity is the accrual checkpoint and never moves backward.
type Player struct {
	bun.BaseModel `bun:"table:players,alias:p"`

	ID         int64  `bun:"id,pk,autoincrement"`
	TelegramID int64  `bun:"telegram_id,notnull,unique"`
	Username   string `bun:"username"`
	FirstName  string `bun:"first_name"`
	LastName   string `bun:"last_name"`

	// Resource balances
	Energons  float64 `bun:"energons,notnull,default:0"`
	Neutrons  float64 `bun:"neutrons,notnull,default:0"`
	Particles float64 `bun:"particles,notnull,default:0"`

	// Cached production rates (derived, recomputed on accrual)
	EnergonRate  float64 `bun:"energon_rate,notnull,default:0"`
	NeutronRate  float64 `bun:"neutron_rate,notnull,default:0"`
	ParticleRate float64 `bun:"particle_rate,notnull,default:0"`

	// Cached booster multipliers (derived, recomputed on accrual)
	EnergonMultiplier  float64 `bun:"energon_multiplier,notnull,default:1"`
	NeutronMultiplier  float64 `bun:"neutron_multiplier,notnull,default:1"`
	ParticleMultiplier float64 `bun:"particle_multiplier,notnull,default:1"`
	ClickMultiplier    float64 `bun:"click_multiplier,notnull,default:1"`

	// Click counters, monotonically non-decreasing
	TotalClicks  int64 `bun:"total_clicks,notnull,default:0"`
	ManualClicks int64 `bun:"manual_clicks,notnull,default:0"`

	// Accrual checkpoint
	LastActivity time.Time `bun:"last_activity,notnull"`
	LastSyncAt   time.Time `bun:"last_sync_at,nullzero"`

	// Daily bonus
	BonusStreak int       `bun:"bonus_streak,notnull,default:0"`
	LastBonusAt time.Time `bun:"last_bonus_at,nullzero"`

	// Optimistic concurrency guard for read-modify-write cycles
	Version int64 `bun:"version,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// Balances returns the player's current resource amounts as a value.
func (p *Player) Balances() economy.Balances {
	return economy.Balances{Energons: p.Energons, Neutrons: p.Neutrons, Particles: p.Particles}
}

// SetBalances overwrites the player's resource amounts.
func (p *Player) SetBalances(b economy.Balances) {
	p.Energons = b.Energons
	p.Neutrons = b.Neutrons
	p.Particles = b.Particles
}

// Rates returns the cached production rates as a value.
func (p *Player) Rates() economy.Rates {
	return economy.Rates{Energons: p.EnergonRate, Neutrons: p.NeutronRate, Particles: p.ParticleRate}
}

// SetRates overwrites the cached production rates.
func (p *Player) SetRates(r economy.Rates) {
	p.EnergonRate = r.Energons
	p.NeutronRate = r.Neutrons
	p.ParticleRate = r.Particles
}
