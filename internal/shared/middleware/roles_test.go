package middleware

import (
	"context"
	"net/http"
	"testing"
	"time"

	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/tokens"
	"bookly/internal/users"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasRole(t *testing.T) {
	assert.True(t, HasRole("admin", []string{"admin"}))
	assert.False(t, HasRole("user", []string{"admin"}))
	assert.True(t, HasRole("user", []string{"admin", "user"}))
	assert.False(t, HasRole("", []string{"admin", "user"}))
	assert.False(t, HasRole("admin", nil))
}

func issueFor(t *testing.T, svc *tokens.Service, u *users.User) string {
	t.Helper()
	token, err := svc.Issue(tokens.Identity{Email: u.Email, UserUID: u.UID.String(), Role: u.Role}, time.Hour, false)
	require.NoError(t, err)
	return token
}

func TestRequireRoles(t *testing.T) {
	svc := newTokenService(t)
	admin := &users.User{Email: "admin@x.com", Role: users.RoleAdmin}
	member := &users.User{Email: "member@x.com", Role: users.RoleUser}
	lookup := memUsers{admin.Email: admin, member.Email: member}

	adminOnly := newGuardedEngine(svc, &memRevocations{}, tokens.Access, RequireRoles(lookup, users.RoleAdmin))
	anyone := newGuardedEngine(svc, &memRevocations{}, tokens.Access, RequireRoles(lookup, users.RoleAdmin, users.RoleUser))

	w, body := doRequest(adminOnly, "Bearer "+issueFor(t, svc, member))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSION", body.ErrorCode)

	w, _ = doRequest(adminOnly, "Bearer "+issueFor(t, svc, admin))
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = doRequest(anyone, "Bearer "+issueFor(t, svc, member))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesUsesStoredRole(t *testing.T) {
	svc := newTokenService(t)
	demoted := &users.User{Email: "was-admin@x.com", Role: users.RoleUser}
	engine := newGuardedEngine(svc, &memRevocations{}, tokens.Access, RequireAdmin(memUsers{demoted.Email: demoted}))

	token, err := svc.Issue(tokens.Identity{Email: demoted.Email, Role: users.RoleAdmin}, time.Hour, false)
	require.NoError(t, err)

	w, body := doRequest(engine, "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSION", body.ErrorCode)
}

func TestRequireRolesUnknownUser(t *testing.T) {
	svc := newTokenService(t)
	lookup := &notFoundLookup{}
	engine := newGuardedEngine(svc, &memRevocations{}, tokens.Access, RequireRoles(lookup, users.RoleUser))

	w, body := doRequest(engine, "Bearer "+issueFor(t, svc, &users.User{Email: "gone@x.com"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", body.ErrorCode)
}

func TestRequireVerified(t *testing.T) {
	svc := newTokenService(t)
	pending := &users.User{Email: "new@x.com", Role: users.RoleUser}
	verified := &users.User{Email: "ok@x.com", Role: users.RoleUser, IsVerified: true}
	lookup := memUsers{pending.Email: pending, verified.Email: verified}
	engine := newGuardedEngine(svc, &memRevocations{}, tokens.Access, RequireVerified(lookup))

	w, body := doRequest(engine, "Bearer "+issueFor(t, svc, pending))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_NOT_VERIFIED", body.ErrorCode)

	w, _ = doRequest(engine, "Bearer "+issueFor(t, svc, verified))
	assert.Equal(t, http.StatusOK, w.Code)
}

type notFoundLookup struct{}

func (notFoundLookup) GetByEmail(_ context.Context, _ string) (*users.User, error) {
	return nil, apperrors.ErrUserNotFound
}
