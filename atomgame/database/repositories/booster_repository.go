package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/disgoorg/snowflake/v2"
	"github.com/uptrace/bun"
)

type BoosterRepository interface {
	Insert(ctx context.Context, booster *models.Booster) error
	GetByID(ctx context.Context, id snowflake.ID) (*models.Booster, error)
	// ActiveByPlayer returns boosters with end_time strictly after now.
	ActiveByPlayer(ctx context.Context, playerID int64, now time.Time) ([]*models.Booster, error)
	CountActive(ctx context.Context, playerID int64, now time.Time) (int, error)
	// ListExpired returns up to limit boosters whose end_time has passed,
	// oldest first, for the expiry sweep.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Booster, error)
	// SetEndTime rewinds a booster's end time, used by cancellation.
	SetEndTime(ctx context.Context, id snowflake.ID, endTime time.Time) error
	Delete(ctx context.Context, id snowflake.ID) error
}

type boosterRepository struct {
	db *bun.DB
}

func NewBoosterRepository(db *bun.DB) BoosterRepository {
	return &boosterRepository{db: db}
}

func (r *boosterRepository) Insert(ctx context.Context, booster *models.Booster) error {
	if booster.ID == 0 {
		booster.ID = snowflake.New(time.Now())
	}
	_, err := r.db.NewInsert().Model(booster).Exec(ctx)
	return err
}

func (r *boosterRepository) GetByID(ctx context.Context, id snowflake.ID) (*models.Booster, error) {
	booster := new(models.Booster)
	err := r.db.NewSelect().
		Model(booster).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return booster, nil
}

func (r *boosterRepository) ActiveByPlayer(ctx context.Context, playerID int64, now time.Time) ([]*models.Booster, error) {
	var boosters []*models.Booster
	err := r.db.NewSelect().
		Model(&boosters).
		Where("player_id = ? AND end_time > ?", playerID, now).
		Order("end_time ASC").
		Scan(ctx)
	return boosters, err
}

func (r *boosterRepository) CountActive(ctx context.Context, playerID int64, now time.Time) (int, error) {
	return r.db.NewSelect().
		Model((*models.Booster)(nil)).
		Where("player_id = ? AND end_time > ?", playerID, now).
		Count(ctx)
}

func (r *boosterRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Booster, error) {
	var boosters []*models.Booster
	err := r.db.NewSelect().
		Model(&boosters).
		Where("end_time <= ?", now).
		Order("end_time ASC").
		Limit(limit).
		Scan(ctx)
	return boosters, err
}

func (r *boosterRepository) SetEndTime(ctx context.Context, id snowflake.ID, endTime time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*models.Booster)(nil)).
		Set("end_time = ?", endTime).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *boosterRepository) Delete(ctx context.Context, id snowflake.ID) error {
	_, err := r.db.NewDelete().
		Model((*models.Booster)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
