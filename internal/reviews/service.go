package reviews

import (
	"context"
	"fmt"

	"bookly/internal/shared/apperrors"
	"bookly/internal/users"
	"bookly/pkg/logger"

	"github.com/google/uuid"
)

// BookCatalog is the part of the books service reviews depend on.
type BookCatalog interface {
	EnsureExists(ctx context.Context, bookUID uuid.UUID) error
	InvalidateBook(ctx context.Context, bookUID uuid.UUID)
}

type Service interface {
	List(ctx context.Context) ([]Review, error)
	Get(ctx context.Context, uid uuid.UUID) (*Review, error)
	Create(ctx context.Context, author *users.User, bookUID uuid.UUID, req *CreateReviewRequest) (*Review, error)
	Delete(ctx context.Context, actor *users.User, uid uuid.UUID) error
}

type service struct {
	repo  Repository
	books BookCatalog
}

func NewService(repo Repository, books BookCatalog) Service {
	return &service{repo: repo, books: books}
}

func (s *service) List(ctx context.Context) ([]Review, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, uid uuid.UUID) (*Review, error) {
	return s.repo.GetByUID(ctx, uid)
}

func (s *service) Create(ctx context.Context, author *users.User, bookUID uuid.UUID, req *CreateReviewRequest) (*Review, error) {
	if err := s.books.EnsureExists(ctx, bookUID); err != nil {
		return nil, err
	}

	review := &Review{
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
		UserUID:    &author.UID,
		BookUID:    &bookUID,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.books.InvalidateBook(ctx, bookUID)
	logger.GetDefault().LogReviewCreated(ctx, review.UID.String(), bookUID.String(), author.UID.String())
	return review, nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *service) Delete(ctx context.Context, actor *users.User, uid uuid.UUID) error {
	review, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		return err
	}

	isAuthor := review.UserUID != nil && *review.UserUID == actor.UID
	if !isAuthor && actor.Role != users.RoleAdmin {
		return apperrors.ErrInsufficientPermission
	}

	if err := s.repo.Delete(ctx, uid); err != nil {
		return fmt.Errorf("delete review %s: %w", uid, err)
	}
	if review.BookUID != nil {
		s.books.InvalidateBook(ctx, *review.BookUID)
	}
	return nil
}
