package reviews

import (
	"context"
	"errors"
	"fmt"

	"bookly/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, review *Review) error
	GetByUID(ctx context.Context, uid uuid.UUID) (*Review, error)
	List(ctx context.Context) ([]Review, error)
	Delete(ctx context.Context, uid uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, review *Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *repository) GetByUID(ctx context.Context, uid uuid.UUID) (*Review, error) {
	var review Review
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReviewNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &review, nil
}

func (r *repository) List(ctx context.Context) ([]Review, error) {
	var out []Review
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return out, nil
}

func (r *repository) Delete(ctx context.Context, uid uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("uid = ?", uid).Delete(&Review{})
	if result.Error != nil {
		return fmt.Errorf("delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrReviewNotFound
	}
	return nil
}
