package models

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

// Booster is one activated, time-limited booster. A booster applies iff
// EndTime is after "now"; rows that have expired but not yet been swept are
// excluded by every rate computation, the sweep is cleanup only. Instant
// boosters never create a row.
type Booster struct {
	bun.BaseModel `bun:"table:boosters,alias:b"`

	ID         snowflake.ID `bun:"id,pk"`
	PlayerID   int64        `bun:"player_id,notnull"`
	Type       string       `bun:"type,notnull"`
	StartTime  time.Time    `bun:"start_time,notnull"`
	EndTime    time.Time    `bun:"end_time,notnull"`
	Multiplier float64      `bun:"multiplier,notnull"`
	Affects    string       `bun:"affects_resource,notnull"`
}

// ActiveAt reports whether the booster still applies at the given instant.
func (b *Booster) ActiveAt(now time.Time) bool {
	return b.EndTime.After(now)
}
