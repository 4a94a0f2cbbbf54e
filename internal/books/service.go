package books

import (
	"context"
	"log/slog"
	"time"

	"bookly/internal/shared/apperrors"
	"bookly/pkg/cache"
	"bookly/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	List(ctx context.Context) ([]Book, error)
	ListByUser(ctx context.Context, userUID uuid.UUID) ([]Book, error)
	Get(ctx context.Context, uid uuid.UUID) (*Book, error)
	Create(ctx context.Context, ownerUID uuid.UUID, req *CreateBookRequest) (*Book, error)
	Update(ctx context.Context, uid uuid.UUID, req *UpdateBookRequest) (*Book, error)
	Delete(ctx context.Context, actorUID, uid uuid.UUID) error

	EnsureExists(ctx context.Context, uid uuid.UUID) error
	InvalidateBook(ctx context.Context, uid uuid.UUID)
}

type service struct {
	repo     Repository
	cache    cache.Service
	cacheTTL time.Duration
}

// NewService builds the books service. Book details are cached for cacheTTL;
// a nil cache disables caching.
func NewService(repo Repository, cacheService cache.Service, cacheTTL time.Duration) Service {
	return &service{repo: repo, cache: cacheService, cacheTTL: cacheTTL}
}

func bookKey(uid uuid.UUID) string {
	return cache.Key("book", uid.String())
}

func (s *service) List(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

func (s *service) ListByUser(ctx context.Context, userUID uuid.UUID) ([]Book, error) {
	return s.repo.ListByUser(ctx, userUID)
}

// Get returns a book together with its reviews.
func (s *service) Get(ctx context.Context, uid uuid.UUID) (*Book, error) {
	if s.cache == nil {
		return s.repo.GetByUID(ctx, uid, true)
	}

	var book Book
	err := s.cache.GetOrSet(ctx, bookKey(uid), s.cacheTTL, func() (interface{}, error) {
		return s.repo.GetByUID(ctx, uid, true)
	}, &book)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (s *service) Create(ctx context.Context, ownerUID uuid.UUID, req *CreateBookRequest) (*Book, error) {
	published, err := ParseDate(req.PublishedDate)
	if err != nil {
		return nil, apperrors.Validation(err)
	}

	book := &Book{
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PublishedDate: published,
		PageCount:     req.PageCount,
		Language:      req.Language,
		UserUID:       &ownerUID,
	}
	if err := s.repo.Create(ctx, book); err != nil {
		return nil, err
	}

	logger.GetDefault().LogBookCreated(ctx, book.UID.String(), ownerUID.String())
	return book, nil
}

func (s *service) Update(ctx context.Context, uid uuid.UUID, req *UpdateBookRequest) (*Book, error) {
	book, err := s.repo.GetByUID(ctx, uid, false)
	if err != nil {
		return nil, err
	}
	if err := req.apply(book); err != nil {
		return nil, apperrors.Validation(err)
	}
	if err := s.repo.Update(ctx, book); err != nil {
		return nil, err
	}

	s.InvalidateBook(ctx, uid)
	return book, nil
}

func (s *service) Delete(ctx context.Context, actorUID, uid uuid.UUID) error {
	if err := s.repo.Delete(ctx, uid); err != nil {
		return err
	}

	s.InvalidateBook(ctx, uid)
	logger.GetDefault().LogBookDeleted(ctx, uid.String(), actorUID.String())
	return nil
}

func (s *service) EnsureExists(ctx context.Context, uid uuid.UUID) error {
	ok, err := s.repo.Exists(ctx, uid)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrBookNotFound
	}
	return nil
}

// InvalidateBook drops the cached detail view. Failures are logged only;
// the entry expires on its own.
func (s *service) InvalidateBook(ctx context.Context, uid uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, bookKey(uid)); err != nil {
		logger.GetDefault().WarnContext(ctx, "failed to invalidate book cache",
			slog.String("book_uid", uid.String()), slog.String("error", err.Error()))
	}
}
