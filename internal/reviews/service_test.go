package reviews

import (
	"context"
	"testing"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/database/dbtest"
	"bookly/internal/users"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	books       map[uuid.UUID]bool
	invalidated []uuid.UUID
}

func (f *fakeCatalog) EnsureExists(_ context.Context, uid uuid.UUID) error {
	if !f.books[uid] {
		return apperrors.ErrBookNotFound
	}
	return nil
}

func (f *fakeCatalog) InvalidateBook(_ context.Context, uid uuid.UUID) {
	f.invalidated = append(f.invalidated, uid)
}

func newTestService(t *testing.T) (Service, *fakeCatalog, uuid.UUID) {
	t.Helper()
	db := dbtest.Open(t, &Review{})
	bookUID := uuid.New()
	catalog := &fakeCatalog{books: map[uuid.UUID]bool{bookUID: true}}
	return NewService(NewRepository(db), catalog), catalog, bookUID
}

func TestCreateReview(t *testing.T) {
	svc, catalog, bookUID := newTestService(t)
	author := &users.User{UID: uuid.New(), Role: users.RoleUser}

	review, err := svc.Create(context.Background(), author, bookUID, &CreateReviewRequest{Rating: 4, ReviewText: "Solid"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, review.UID)
	assert.Equal(t, author.UID, *review.UserUID)
	assert.Equal(t, bookUID, *review.BookUID)
	assert.Equal(t, []uuid.UUID{bookUID}, catalog.invalidated)

	got, err := svc.Get(context.Background(), review.UID)
	require.NoError(t, err)
	assert.Equal(t, "Solid", got.ReviewText)
}

func TestCreateReviewForMissingBook(t *testing.T) {
	svc, _, _ := newTestService(t)
	author := &users.User{UID: uuid.New(), Role: users.RoleUser}

	_, err := svc.Create(context.Background(), author, uuid.New(), &CreateReviewRequest{Rating: 4, ReviewText: "?"})
	assert.ErrorIs(t, err, apperrors.ErrBookNotFound)

	all, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetMissingReview(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)
}

func TestDeleteReviewPermissions(t *testing.T) {
	svc, _, bookUID := newTestService(t)
	ctx := context.Background()
	author := &users.User{UID: uuid.New(), Role: users.RoleUser}
	stranger := &users.User{UID: uuid.New(), Role: users.RoleUser}
	admin := &users.User{UID: uuid.New(), Role: users.RoleAdmin}

	first, err := svc.Create(ctx, author, bookUID, &CreateReviewRequest{Rating: 5, ReviewText: "Great"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, author, bookUID, &CreateReviewRequest{Rating: 1, ReviewText: "Spam"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, stranger, first.UID), apperrors.ErrInsufficientPermission)
	assert.NoError(t, svc.Delete(ctx, author, first.UID))
	assert.NoError(t, svc.Delete(ctx, admin, second.UID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, second.UID), apperrors.ErrReviewNotFound)
}

func TestListNewestFirst(t *testing.T) {
	svc, _, bookUID := newTestService(t)
	ctx := context.Background()
	author := &users.User{UID: uuid.New(), Role: users.RoleUser}

	for _, text := range []string{"first", "second"} {
		_, err := svc.Create(ctx, author, bookUID, &CreateReviewRequest{Rating: 3, ReviewText: text})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[0].CreatedAt.Before(all[1].CreatedAt))
}
