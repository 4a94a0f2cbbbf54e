package books

import (
	"context"
	"errors"
	"fmt"

	"bookly/internal/reviews"
	"bookly/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, book *Book) error
	GetByUID(ctx context.Context, uid uuid.UUID, withReviews bool) (*Book, error)
	List(ctx context.Context) ([]Book, error)
	ListByUser(ctx context.Context, userUID uuid.UUID) ([]Book, error)
	Update(ctx context.Context, book *Book) error
	Delete(ctx context.Context, uid uuid.UUID) error
	Exists(ctx context.Context, uid uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, book *Book) error {
	if err := r.db.WithContext(ctx).Omit("Reviews").Create(book).Error; err != nil {
		return fmt.Errorf("create book: %w", err)
	}
	return nil
}

func (r *repository) GetByUID(ctx context.Context, uid uuid.UUID, withReviews bool) (*Book, error) {
	query := r.db.WithContext(ctx)
	if withReviews {
		query = query.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		})
	}

	var book Book
	if err := query.Where("uid = ?", uid).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	if withReviews && book.Reviews == nil {
		book.Reviews = []reviews.Review{}
	}
	return &book, nil
}

func (r *repository) List(ctx context.Context) ([]Book, error) {
	var out []Book
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return out, nil
}

func (r *repository) ListByUser(ctx context.Context, userUID uuid.UUID) ([]Book, error) {
	var out []Book
	err := r.db.WithContext(ctx).
		Where("user_uid = ?", userUID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list books by user: %w", err)
	}
	return out, nil
}

func (r *repository) Update(ctx context.Context, book *Book) error {
	result := r.db.WithContext(ctx).Model(&Book{}).
		Where("uid = ?", book.UID).
		Select("title", "author", "publisher", "published_date", "page_count", "language", "updated_at").
		Updates(book)
	if result.Error != nil {
		return fmt.Errorf("update book: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBookNotFound
	}
	return nil
}

// Delete removes the book and its reviews in one transaction.
func (r *repository) Delete(ctx context.Context, uid uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_uid = ?", uid).Delete(&reviews.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews of book: %w", err)
		}
		result := tx.Where("uid = ?", uid).Delete(&Book{})
		if result.Error != nil {
			return fmt.Errorf("delete book: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrBookNotFound
		}
		return nil
	})
}

func (r *repository) Exists(ctx context.Context, uid uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Book{}).Where("uid = ?", uid).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check book exists: %w", err)
	}
	return count > 0, nil
}
