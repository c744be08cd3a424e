package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/pairloop/pairloop/internal/db"
	svcErr "github.com/pairloop/pairloop/internal/errors"
)

// CoupleRepository provides data access methods for the Couple model.
// It is the only code allowed to touch the intimacy_score column.
type CoupleRepository struct {
	db *gorm.DB
}

// NewCoupleRepository creates a new repository bound to the given DB connection.
func NewCoupleRepository(database *gorm.DB) *CoupleRepository {
	return &CoupleRepository{db: database}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *CoupleRepository) WithTx(tx *gorm.DB) *CoupleRepository {
	return &CoupleRepository{db: tx}
}

// GetByID loads a couple or returns ErrNotFound.
func (r *CoupleRepository) GetByID(ctx context.Context, coupleID string) (*db.Couple, error) {
	var couple db.Couple
	err := r.db.WithContext(ctx).First(&couple, "id = ?", coupleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, svcErr.NotFound("couple not found")
	}
	if err != nil {
		return nil, err
	}
	return &couple, nil
}

// GetScore returns the couple's current materialized score.
func (r *CoupleRepository) GetScore(ctx context.Context, coupleID string) (int, error) {
	couple, err := r.GetByID(ctx, coupleID)
	if err != nil {
		return 0, err
	}
	return couple.IntimacyScore, nil
}

// AddToScore atomically applies a delta to the couple's score and
// returns the new value.
//
// The increment happens in SQL (intimacy_score = intimacy_score + ?),
// so concurrent transactions serialize on the couple row instead of
// racing a read-modify-write in Go.
func (r *CoupleRepository) AddToScore(ctx context.Context, coupleID string, delta int) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Couple{}).
		Where("id = ?", coupleID).
		UpdateColumn("intimacy_score", gorm.Expr("intimacy_score + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, svcErr.NotFound("couple not found")
	}
	return r.GetScore(ctx, coupleID)
}
