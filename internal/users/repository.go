package users

import (
	"context"
	"errors"
	"fmt"

	"bookly/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUID(ctx context.Context, uid uuid.UUID) (*User, error)
	// Exists reports whether email is taken, or username too when checkUsername is set.
	Exists(ctx context.Context, email, username string, checkUsername bool) (bool, error)
	MarkVerified(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, uid uuid.UUID, passwordHash string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) Create(ctx context.Context, user *User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrUserAlreadyExists.Wrap(err)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (r *repository) GetByUID(ctx context.Context, uid uuid.UUID) (*User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by uid: %w", err)
	}
	return &user, nil
}

func (r *repository) Exists(ctx context.Context, email, username string, checkUsername bool) (bool, error) {
	query := r.db.WithContext(ctx).Model(&User{}).Where("email = ?", email)
	if checkUsername {
		query = query.Or("username = ?", username)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return count > 0, nil
}

func (r *repository) MarkVerified(ctx context.Context, email string) (*User, error) {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("email = ?", email).
		Update("is_verified", true)

	if result.Error != nil {
		return nil, fmt.Errorf("mark user verified: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrUserNotFound
	}

	return r.GetByEmail(ctx, email)
}

func (r *repository) UpdatePassword(ctx context.Context, uid uuid.UUID, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&User{}).
		Where("uid = ?", uid).
		Update("password_hash", passwordHash)

	if result.Error != nil {
		return fmt.Errorf("update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}
