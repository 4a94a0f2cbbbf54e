package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bookly/internal/books"
	"bookly/internal/reviews"
	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/config"
	"bookly/internal/shared/database/dbtest"
	"bookly/internal/shared/middleware"
	"bookly/internal/shared/tokens"
	"bookly/internal/shared/utils/response"
	"bookly/internal/users"
	"bookly/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu    sync.Mutex
	links []string
	err   error
}

func (m *recordingMailer) SendVerificationEmail(_ context.Context, _, _, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.links = append(m.links, link)
	return nil
}

func (m *recordingMailer) lastToken(t *testing.T) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.links)
	link := m.links[len(m.links)-1]
	return link[strings.LastIndex(link, "/")+1:]
}

type harness struct {
	svc    Service
	tokens *tokens.Service
	users  users.Repository
	books  books.Service
	mailer *recordingMailer
	guards *middleware.Guards
	cfg    *config.Config
	mr     *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Load()
	cfg.Email.Domain = "bookly.test"

	db := dbtest.Open(t, &users.User{}, &books.Book{}, &reviews.Review{})
	client, mr := dbtest.Redis(t)
	cacheService := cache.NewService(client)

	tokenService, err := tokens.NewService(tokens.Config{
		Secret: "test-secret", Algorithm: "HS256",
		AccessTTL: time.Hour, RefreshTTL: 48 * time.Hour, VerifyTTL: time.Hour,
	})
	require.NoError(t, err)

	userRepo := users.NewRepository(db)
	revocations := tokens.NewRevocationStore(cacheService)
	bookService := books.NewService(books.NewRepository(db), cacheService, time.Minute)
	mailer := &recordingMailer{}

	return &harness{
		svc:    NewService(userRepo, tokenService, revocations, mailer, bookService, cfg),
		tokens: tokenService,
		users:  userRepo,
		books:  bookService,
		mailer: mailer,
		guards: &middleware.Guards{Decoder: tokenService, Revocations: revocations, Users: userRepo},
		cfg:    cfg,
		mr:     mr,
	}
}

func signupRequest() *SignupRequest {
	return &SignupRequest{
		Username: "jdoe", Email: "JDoe@Example.com", Password: "s3cret!",
		FirstName: "Jane", LastName: "Doe",
	}
}

func TestSignupCreatesUnverifiedUser(t *testing.T) {
	h := newHarness(t)

	user, err := h.svc.Signup(context.Background(), signupRequest())
	require.NoError(t, err)

	assert.Equal(t, "jdoe@example.com", user.Email)
	assert.Equal(t, users.RoleUser, user.Role)
	assert.False(t, user.IsVerified)
	assert.NotEqual(t, "s3cret!", user.PasswordHash)

	require.Len(t, h.mailer.links, 1)
	assert.True(t, strings.HasPrefix(h.mailer.links[0], "http://bookly.test/api/v1/auth/verify/"))
}

func TestSignupRejectsTakenEmailOrUsername(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	_, err = h.svc.Signup(ctx, signupRequest())
	assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)

	sameName := signupRequest()
	sameName.Email = "other@example.com"
	_, err = h.svc.Signup(ctx, sameName)
	assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)

	h.cfg.Policy.UniqueUsername = false
	_, err = h.svc.Signup(ctx, sameName)
	assert.ErrorIs(t, err, apperrors.ErrUserAlreadyExists, "the username column stays unique")
}

func TestSignupMailFailurePolicy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.mailer.err = errors.New("broker unavailable")

	_, err := h.svc.Signup(ctx, signupRequest())
	assert.NoError(t, err)

	h.cfg.Policy.EmailRequiredForSignup = true
	req := signupRequest()
	req.Username, req.Email = "other", "other@example.com"
	_, err = h.svc.Signup(ctx, req)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestLoginReportsBadCredentialsUniformly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	resp, err := h.svc.Login(ctx, &LoginRequest{Email: "jdoe@example.com", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "jdoe@example.com", resp.User.Email)

	claims, err := h.tokens.Decode(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tokens.Access, claims.Kind())
	assert.Equal(t, resp.User.UID.String(), claims.User.UserUID)

	_, err = h.svc.Login(ctx, &LoginRequest{Email: "jdoe@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = h.svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "s3cret!"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Signup(ctx, signupRequest())
	require.NoError(t, err)
	resp, err := h.svc.Login(ctx, &LoginRequest{Email: "jdoe@example.com", Password: "s3cret!"})
	require.NoError(t, err)

	claims, err := h.tokens.Decode(resp.AccessToken)
	require.NoError(t, err)
	require.NoError(t, h.svc.Logout(ctx, claims))

	key := cache.Key("blocklist", claims.ID)
	require.True(t, h.mr.Exists(key))
	assert.GreaterOrEqual(t, h.mr.TTL(key), h.cfg.JWT.BlocklistTTL)
}

func TestVerifyMarksAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	user, err := h.svc.Verify(ctx, h.mailer.lastToken(t))
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	_, err = h.svc.Verify(ctx, "not-a-token")
	require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	assert.Equal(t, http.StatusBadRequest, apperrors.From(err).Status)
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, err := h.svc.Signup(ctx, signupRequest())
	require.NoError(t, err)

	err = h.svc.ChangePassword(ctx, user, &ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "n3w-pass"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	require.NoError(t, h.svc.ChangePassword(ctx, user, &ChangePasswordRequest{CurrentPassword: "s3cret!", NewPassword: "n3w-pass"}))

	_, err = h.svc.Login(ctx, &LoginRequest{Email: user.Email, Password: "s3cret!"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = h.svc.Login(ctx, &LoginRequest{Email: user.Email, Password: "n3w-pass"})
	assert.NoError(t, err)
}

// HTTP flow through the real guards.

func (h *harness) engine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	api := engine.Group(h.cfg.GetAPIBasePath())
	NewRouter(NewController(h.svc), h.guards).SetupRoutes(api)
	books.NewRouter(books.NewController(h.books), h.guards).SetupRoutes(api)
	return engine
}

func call(t *testing.T, engine *gin.Engine, method, path, token string, body interface{}) (int, response.StandardApiResponse, []byte) {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var resp response.StandardApiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp, w.Body.Bytes()
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)
	engine := h.engine()

	code, _, _ := call(t, engine, http.MethodPost, "/auth/signup", "", signupRequest())
	require.Equal(t, http.StatusCreated, code)

	code, resp, _ := call(t, engine, http.MethodPost, "/auth/signup", "", signupRequest())
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "USER_EXISTS", resp.ErrorCode)

	code, resp, _ = call(t, engine, http.MethodPost, "/auth/login", "", LoginRequest{Email: "jdoe@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.ErrorCode)

	code, _, raw := call(t, engine, http.MethodPost, "/auth/login", "", LoginRequest{Email: "jdoe@example.com", Password: "s3cret!"})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &login))

	code, _, raw = call(t, engine, http.MethodGet, "/auth/me", login.Data.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(raw), `"books":[]`)

	code, resp, _ = call(t, engine, http.MethodGet, "/auth/me", login.Data.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", resp.ErrorCode)

	code, _, raw = call(t, engine, http.MethodGet, "/auth/refresh_token", login.Data.RefreshToken, nil)
	require.Equal(t, http.StatusOK, code)
	var refreshed struct {
		Data AccessTokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &refreshed))
	assert.NotEmpty(t, refreshed.Data.AccessToken)

	code, resp, _ = call(t, engine, http.MethodGet, "/auth/refresh_token", login.Data.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "REFRESH_TOKEN_REQUIRED", resp.ErrorCode)

	code, resp, _ = call(t, engine, http.MethodPost, "/auth/logout", login.Data.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logged Out Successfully", resp.Message)

	code, resp, _ = call(t, engine, http.MethodGet, "/auth/me", login.Data.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_TOKEN", resp.ErrorCode)

	code, _, _ = call(t, engine, http.MethodGet, "/auth/me", refreshed.Data.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code, "other tokens stay valid")
}

func TestBookRoutesEnforceRoles(t *testing.T) {
	h := newHarness(t)
	engine := h.engine()
	ctx := context.Background()

	_, err := h.svc.Signup(ctx, signupRequest())
	require.NoError(t, err)
	login, err := h.svc.Login(ctx, &LoginRequest{Email: "jdoe@example.com", Password: "s3cret!"})
	require.NoError(t, err)

	book := books.CreateBookRequest{
		Title: "Dune", Author: "Frank Herbert", Publisher: "Chilton",
		PublishedDate: "1965-08-01", PageCount: 412, Language: "English",
	}
	code, _, raw := call(t, engine, http.MethodPost, "/books", login.AccessToken, book)
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		Data books.Book `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &created))
	assert.Equal(t, login.User.UID, *created.Data.UserUID)

	code, resp, _ := call(t, engine, http.MethodPost, "/books", "", book)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "NOT_AUTHENTICATED", resp.ErrorCode)

	code, resp, _ = call(t, engine, http.MethodDelete, "/books/"+created.Data.UID.String(), login.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "INSUFFICIENT_PERMISSION", resp.ErrorCode)

	code, resp, _ = call(t, engine, http.MethodGet, "/books/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_FAILED", resp.ErrorCode)

	code, _, raw = call(t, engine, http.MethodGet, "/auth/me", login.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(raw), `"title":"Dune"`)
}
