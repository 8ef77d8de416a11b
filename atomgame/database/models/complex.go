package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Complex is one owned building instance. A player holds at most one row per
// type; the level only ever increases. Production is a cache of
// catalog.Production(type, level), kept for read performance only.
type Complex struct {
	bun.BaseModel `bun:"table:complexes,alias:c"`

	ID           int64     `bun:"id,pk,autoincrement"`
	PlayerID     int64     `bun:"player_id,notnull"`
	Type         string    `bun:"type,notnull"`
	Level        int       `bun:"level,notnull,default:1"`
	Production   float64   `bun:"production,notnull,default:0"`
	LastUpgraded time.Time `bun:"last_upgraded,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
