package models

import (
	"encoding/json"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// Ledger entry source tags.
const (
	SourceClick             = "manual_click"
	SourceClickFlush        = "click_flush"
	SourceProduction        = "production"
	SourceSweepProduction   = "sweep_production"
	SourcePurchase          = "complex_purchase"
	SourceUpgrade           = "complex_upgrade"
	SourceBoosterActivation = "booster_activation"
	SourceBoosterInstant    = "booster_instant"
	SourceBoosterExpired    = "booster_expired"
	SourceBoosterCanceled   = "booster_canceled"
	SourceClientAheadSync   = "client_ahead_sync"
	SourceDailyBonus        = "daily_bonus"
	SourceLegacyImport      = "legacy_import"
)

// LedgerEntry is an immutable, append-only record of one balance-changing
// event. Purchase and upgrade entries additionally carry the per-resource
// production rate delta they caused, which is what the historical integrator
// replays.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:resource_ledger,alias:l"`

	ID        snowflake.ID `bun:"id,pk"`
	PlayerID  int64        `bun:"player_id,notnull"`
	Timestamp time.Time    `bun:"timestamp,notnull"`
	Source    string       `bun:"source,notnull"`

	EnergonsDelta  float64 `bun:"energons_delta,notnull,default:0"`
	NeutronsDelta  float64 `bun:"neutrons_delta,notnull,default:0"`
	ParticlesDelta float64 `bun:"particles_delta,notnull,default:0"`

	// Rate deltas, set only on rate-changing entries (purchase/upgrade)
	EnergonRateDelta  float64 `bun:"energon_rate_delta,notnull,default:0"`
	NeutronRateDelta  float64 `bun:"neutron_rate_delta,notnull,default:0"`
	ParticleRateDelta float64 `bun:"particle_rate_delta,notnull,default:0"`

	ElapsedSeconds float64         `bun:"elapsed_seconds,notnull,default:0"`
	Metadata       json.RawMessage `bun:"metadata,type:jsonb"`
}
