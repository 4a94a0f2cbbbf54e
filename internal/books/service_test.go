package books

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bookly/internal/reviews"
	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/database/dbtest"
	"bookly/internal/users"
	"bookly/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     Service
	reviews reviews.Service
	mr      *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t, &users.User{}, &Book{}, &reviews.Review{})
	client, mr := dbtest.Redis(t)

	svc := NewService(NewRepository(db), cache.NewService(client), time.Minute)
	return &fixture{
		svc:     svc,
		reviews: reviews.NewService(reviews.NewRepository(db), svc),
		mr:      mr,
	}
}

func sampleBook() *CreateBookRequest {
	return &CreateBookRequest{
		Title:         "The Go Programming Language",
		Author:        "Alan Donovan",
		Publisher:     "Addison-Wesley",
		PublishedDate: "2015-10-26",
		PageCount:     380,
		Language:      "English",
	}
}

func TestCreateAndGetBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := uuid.New()

	book, err := f.svc.Create(ctx, owner, sampleBook())
	require.NoError(t, err)
	assert.Equal(t, owner, *book.UserUID)
	assert.Equal(t, "2015-10-26", book.PublishedDate.String())

	got, err := f.svc.Get(ctx, book.UID)
	require.NoError(t, err)
	assert.Equal(t, book.Title, got.Title)
	assert.Empty(t, got.Reviews)
	assert.True(t, f.mr.Exists(bookKey(book.UID)), "detail view should be cached")
}

func TestGetMissingBook(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
}

func TestReviewInvalidatesCachedBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := &users.User{UID: uuid.New(), Role: users.RoleUser}

	book, err := f.svc.Create(ctx, author.UID, sampleBook())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, book.UID)
	require.NoError(t, err)

	_, err = f.reviews.Create(ctx, author, book.UID, &reviews.CreateReviewRequest{Rating: 5, ReviewText: "Classic"})
	require.NoError(t, err)
	assert.False(t, f.mr.Exists(bookKey(book.UID)))

	got, err := f.svc.Get(ctx, book.UID)
	require.NoError(t, err)
	require.Len(t, got.Reviews, 1)
	assert.Equal(t, "Classic", got.Reviews[0].ReviewText)
}

func TestUpdateBookPartially(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book, err := f.svc.Create(ctx, uuid.New(), sampleBook())
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, book.UID)
	require.NoError(t, err)

	title := "The Go Programming Language, 2nd ed."
	pages := 420
	updated, err := f.svc.Update(ctx, book.UID, &UpdateBookRequest{Title: &title, PageCount: &pages})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, 420, updated.PageCount)
	assert.Equal(t, "Alan Donovan", updated.Author)

	got, err := f.svc.Get(ctx, book.UID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title, "stale cache entry must not be served")
}

func TestUpdateMissingBook(t *testing.T) {
	f := newFixture(t)
	title := "x"

	_, err := f.svc.Update(context.Background(), uuid.New(), &UpdateBookRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
}

func TestDeleteBookRemovesReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := &users.User{UID: uuid.New(), Role: users.RoleUser}

	book, err := f.svc.Create(ctx, author.UID, sampleBook())
	require.NoError(t, err)
	review, err := f.reviews.Create(ctx, author, book.UID, &reviews.CreateReviewRequest{Rating: 4, ReviewText: "Good"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, author.UID, book.UID))

	_, err = f.svc.Get(ctx, book.UID)
	assert.ErrorIs(t, err, apperrors.ErrBookNotFound)
	_, err = f.reviews.Get(ctx, review.UID)
	assert.ErrorIs(t, err, apperrors.ErrReviewNotFound)

	assert.ErrorIs(t, f.svc.Delete(ctx, author.UID, book.UID), apperrors.ErrBookNotFound)
}

func TestListByUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	for _, owner := range []uuid.UUID{alice, alice, bob} {
		_, err := f.svc.Create(ctx, owner, sampleBook())
		require.NoError(t, err)
	}

	mine, err := f.svc.ListByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestDateJSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2001-02-03"`), &d))
	assert.Equal(t, time.February, d.Month())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"2001-02-03"`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`"03/02/2001"`), &d))
}
