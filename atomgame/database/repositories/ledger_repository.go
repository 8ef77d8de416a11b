package repositories

import (
	"context"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type LedgerRepository interface {
	// Insert appends one entry. Entries are write-once; there is no update
	// or delete path.
	Insert(ctx context.Context, entry *models.LedgerEntry) error
	// RateEvents returns the rate-changing entries (purchases and upgrades)
	// for a player up to and including until, in chronological order.
	RateEvents(ctx context.Context, playerID int64, until time.Time) ([]*models.LedgerEntry, error)
	ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*models.LedgerEntry, error)
}

type ledgerRepository struct {
	db *bun.DB
}

func NewLedgerRepository(db *bun.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) Insert(ctx context.Context, entry *models.LedgerEntry) error {
	if entry.ID == 0 {
		entry.ID = snowflake.New(time.Now())
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	_, err := r.db.NewInsert().Model(entry).Exec(ctx)
	return err
}

func (r *ledgerRepository) RateEvents(ctx context.Context, playerID int64, until time.Time) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("player_id = ?", playerID).
		Where("source IN (?)", bun.In([]string{models.SourcePurchase, models.SourceUpgrade})).
		Where("timestamp <= ?", until).
		Order("timestamp ASC").
		Scan(ctx)
	return entries, err
}

func (r *ledgerRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]*models.LedgerEntry, error) {
	var entries []*models.LedgerEntry
	err := r.db.NewSelect().
		Model(&entries).
		Where("player_id = ?", playerID).
		Order("timestamp DESC").
		Limit(limit).
		Scan(ctx)
	return entries, err
}
