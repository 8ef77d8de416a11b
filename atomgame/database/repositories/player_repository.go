package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by UpdateChecked when another writer
	// touched the row since it was read. Callers reload and retry.
	ErrVersionConflict = errors.New("player version conflict")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int64) (*models.Player, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.Player, error)
	// UpdateChecked persists the player only if its version column is
	// unchanged, then bumps it. This is the single-writer-per-record
	// guarantee for all balance-mutating read-modify-write cycles.
	UpdateChecked(ctx context.Context, player *models.Player) error
	// ListPage returns up to limit players with ID greater than afterID,
	// ordered by ID. Sweeps pass the last seen ID back in as the cursor.
	ListPage(ctx context.Context, afterID int64, limit int) ([]*models.Player, error)
}

type playerRepository struct {
	db *bun.DB
}

func NewPlayerRepository(db *bun.DB) PlayerRepository {
	return &playerRepository{db: db}
}

func (r *playerRepository) Create(ctx context.Context, player *models.Player) error {
	now := time.Now()
	player.CreatedAt = now
	player.UpdatedAt = now
	_, err := r.db.NewInsert().Model(player).Exec(ctx)
	return err
}

func (r *playerRepository) GetByID(ctx context.Context, id int64) (*models.Player, error) {
	player := new(models.Player)
	err := r.db.NewSelect().
		Model(player).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Error("Database error when getting player",
			slog.String("type", "db"),
			slog.String("operation", "GetByID"),
			slog.Int64("player_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	return player, nil
}

func (r *playerRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.Player, error) {
	player := new(models.Player)
	err := r.db.NewSelect().
		Model(player).
		Where("telegram_id = ?", telegramID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Error("Database error when getting player",
			slog.String("type", "db"),
			slog.String("operation", "GetByTelegramID"),
			slog.Int64("telegram_id", telegramID),
			slog.String("error", err.Error()))
		return nil, err
	}
	return player, nil
}

func (r *playerRepository) UpdateChecked(ctx context.Context, player *models.Player) error {
	expected := player.Version
	player.Version = expected + 1
	player.UpdatedAt = time.Now()

	res, err := r.db.NewUpdate().
		Model(player).
		WherePK().
		Where("version = ?", expected).
		Exec(ctx)
	if err != nil {
		player.Version = expected
		return fmt.Errorf("failed to update player %d: %w", player.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		player.Version = expected
		return err
	}
	if affected == 0 {
		player.Version = expected
		slog.Debug("Player update lost optimistic version race",
			slog.String("type", "db"),
			slog.String("operation", "UpdateChecked"),
			slog.Int64("player_id", player.ID),
			slog.Int64("expected_version", expected))
		return ErrVersionConflict
	}
	return nil
}

func (r *playerRepository) ListPage(ctx context.Context, afterID int64, limit int) ([]*models.Player, error) {
	var players []*models.Player
	err := r.db.NewSelect().
		Model(&players).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		slog.Error("Database error when listing players page",
			slog.String("type", "db"),
			slog.String("operation", "ListPage"),
			slog.Int64("after_id", afterID),
			slog.String("error", err.Error()))
		return nil, err
	}
	return players, nil
}
