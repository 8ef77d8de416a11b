package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/atomicprogress/atomgame/atomgame/database/models"
	"github.com/uptrace/bun"
)

type ComplexRepository interface {
	Create(ctx context.Context, complex *models.Complex) error
	GetByID(ctx context.Context, id int64) (*models.Complex, error)
	GetByPlayer(ctx context.Context, playerID int64) ([]*models.Complex, error)
	GetByPlayerAndType(ctx context.Context, playerID int64, complexType string) (*models.Complex, error)
	Update(ctx context.Context, complex *models.Complex) error
	Delete(ctx context.Context, id int64) error
}

type complexRepository struct {
	db *bun.DB
}

func NewComplexRepository(db *bun.DB) ComplexRepository {
	return &complexRepository{db: db}
}

func (r *complexRepository) Create(ctx context.Context, complex *models.Complex) error {
	if complex.CreatedAt.IsZero() {
		complex.CreatedAt = time.Now()
	}
	_, err := r.db.NewInsert().Model(complex).Exec(ctx)
	return err
}

func (r *complexRepository) GetByID(ctx context.Context, id int64) (*models.Complex, error) {
	complex := new(models.Complex)
	err := r.db.NewSelect().
		Model(complex).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return complex, nil
}

func (r *complexRepository) GetByPlayer(ctx context.Context, playerID int64) ([]*models.Complex, error) {
	var complexes []*models.Complex
	err := r.db.NewSelect().
		Model(&complexes).
		Where("player_id = ?", playerID).
		Order("created_at ASC").
		Scan(ctx)
	return complexes, err
}

func (r *complexRepository) GetByPlayerAndType(ctx context.Context, playerID int64, complexType string) (*models.Complex, error) {
	complex := new(models.Complex)
	err := r.db.NewSelect().
		Model(complex).
		Where("player_id = ? AND type = ?", playerID, complexType).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return complex, nil
}

func (r *complexRepository) Update(ctx context.Context, complex *models.Complex) error {
	_, err := r.db.NewUpdate().
		Model(complex).
		WherePK().
		Exec(ctx)
	return err
}

func (r *complexRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*models.Complex)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
