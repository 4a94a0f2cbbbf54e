package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookly/internal/shared/tokens"
	"bookly/internal/shared/utils/response"
	"bookly/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRevocations struct {
	revoked map[string]bool
	err     error
}

func (m *memRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

type memUsers map[string]*users.User

func (m memUsers) GetByEmail(_ context.Context, email string) (*users.User, error) {
	if u, ok := m[email]; ok {
		return u, nil
	}
	return nil, errNoUser
}

var errNoUser = errors.New("no such user")

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokenService(t *testing.T) *tokens.Service {
	t.Helper()
	svc, err := tokens.NewService(tokens.Config{
		Secret: "test-secret", Algorithm: "HS256",
		AccessTTL: time.Hour, RefreshTTL: 48 * time.Hour, VerifyTTL: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func newGuardedEngine(svc *tokens.Service, revs Revocations, kind tokens.Kind, extra ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	handlers := append([]gin.HandlerFunc{TokenBearer(svc, revs, kind)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims, _ := ClaimsFrom(c)
		c.JSON(http.StatusOK, gin.H{"email": claims.User.Email, "refresh": claims.Refresh})
	})
	engine.GET("/protected", handlers...)
	return engine
}

func doRequest(engine *gin.Engine, authHeader string) (*httptest.ResponseRecorder, response.StandardApiResponse) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var body response.StandardApiResponse
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

var identity = tokens.Identity{Email: "a@x.com", UserUID: "uid-1", Role: users.RoleUser}

func TestTokenBearerAccepts(t *testing.T) {
	svc := newTokenService(t)
	engine := newGuardedEngine(svc, &memRevocations{}, tokens.Access)

	token, err := svc.Issue(identity, time.Hour, false)
	require.NoError(t, err)

	w, _ := doRequest(engine, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "a@x.com")
}

func TestTokenBearerRejectsMissingHeader(t *testing.T) {
	engine := newGuardedEngine(newTokenService(t), &memRevocations{}, tokens.Access)

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer    "} {
		w, body := doRequest(engine, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		assert.Equal(t, "NOT_AUTHENTICATED", body.ErrorCode, header)
	}
}

func TestTokenBearerRejectsInvalidToken(t *testing.T) {
	svc := newTokenService(t)
	engine := newGuardedEngine(svc, &memRevocations{}, tokens.Access)

	expired, err := svc.Issue(identity, -time.Minute, false)
	require.NoError(t, err)

	for _, token := range []string{"garbage", expired} {
		w, body := doRequest(engine, "Bearer "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "INVALID_TOKEN", body.ErrorCode)
	}
}

func TestTokenBearerRejectsRevoked(t *testing.T) {
	svc := newTokenService(t)
	revs := &memRevocations{revoked: map[string]bool{}}
	engine := newGuardedEngine(svc, revs, tokens.Access)

	token, err := svc.Issue(identity, time.Hour, false)
	require.NoError(t, err)
	claims, err := svc.Decode(token)
	require.NoError(t, err)

	revs.revoked[claims.ID] = true

	w, body := doRequest(engine, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", body.ErrorCode)

	_, err = svc.Decode(token)
	assert.NoError(t, err, "revocation does not affect decoding")
}

func TestTokenBearerFailsClosedOnStoreError(t *testing.T) {
	svc := newTokenService(t)
	engine := newGuardedEngine(svc, &memRevocations{err: errors.New("redis down")}, tokens.Access)

	token, err := svc.Issue(identity, time.Hour, false)
	require.NoError(t, err)

	w, body := doRequest(engine, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "SERVER_ERROR", body.ErrorCode)
}

func TestTokenKindEnforcement(t *testing.T) {
	svc := newTokenService(t)
	pair, err := svc.IssuePair(identity)
	require.NoError(t, err)

	access := newGuardedEngine(svc, &memRevocations{}, tokens.Access)
	refresh := newGuardedEngine(svc, &memRevocations{}, tokens.Refresh)

	w, body := doRequest(access, "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", body.ErrorCode)

	w, body = doRequest(refresh, "Bearer "+pair.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "REFRESH_TOKEN_REQUIRED", body.ErrorCode)

	w, _ = doRequest(refresh, "Bearer "+pair.RefreshToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenBearerRejectsVerificationLinks(t *testing.T) {
	svc := newTokenService(t)
	engine := newGuardedEngine(svc, &memRevocations{}, tokens.Access)

	token, err := svc.IssueVerification("a@x.com")
	require.NoError(t, err)

	w, body := doRequest(engine, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", body.ErrorCode)
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = bearerToken("Basic dXNlcjpwYXNz")
	assert.False(t, ok)
}
