// Package tokens issues and decodes the signed bearer tokens used by the API
// and records revoked token ids.
package tokens

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bookly/internal/shared/apperrors"
	"bookly/pkg/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Kind is the token type a guard requires.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

const purposeVerify = "verify"

// Identity is the user payload embedded in every token.
type Identity struct {
	Email   string `json:"email"`
	UserUID string `json:"user_uid"`
	Role    string `json:"role,omitempty"`
}

type Claims struct {
	User    Identity `json:"user"`
	Refresh bool     `json:"refresh"`
	Purpose string   `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Kind reports whether the claims belong to an access or a refresh token.
func (c *Claims) Kind() Kind {
	if c.Refresh {
		return Refresh
	}
	return Access
}

// Pair is the result of a successful login.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type Config struct {
	Secret     string
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
}

type Service struct {
	secret []byte
	method jwt.SigningMethod
	cfg    Config
	now    func() time.Time
}

// NewService validates the signing configuration. Only the HMAC family is
// accepted because the secret is a shared key.
func NewService(cfg Config) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.Algorithm)
	}
	return &Service{
		secret: []byte(cfg.Secret),
		method: method,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// Issue signs a new token with a fresh jti.
func (s *Service) Issue(user Identity, lifetime time.Duration, refresh bool) (string, error) {
	return s.sign(Claims{User: user, Refresh: refresh}, lifetime)
}

// IssuePair issues the access and refresh tokens handed out at login.
func (s *Service) IssuePair(user Identity) (*Pair, error) {
	access, err := s.Issue(user, s.cfg.AccessTTL, false)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Issue(user, s.cfg.RefreshTTL, true)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTTL.Seconds()),
	}, nil
}

// Now is the clock tokens are stamped with.
func (s *Service) Now() time.Time {
	return s.now()
}

// IssueAccess issues an access token with the configured lifetime.
func (s *Service) IssueAccess(user Identity) (string, error) {
	return s.Issue(user, s.cfg.AccessTTL, false)
}

// Decode verifies signature, algorithm and expiry. Every failure is reported
// as apperrors.ErrInvalidToken; the cause is only logged.
func (s *Service) Decode(token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != "" {
		return nil, s.invalid(fmt.Errorf("purpose %q token used as bearer", claims.Purpose))
	}
	return claims, nil
}

// IssueVerification issues the token embedded in account verification links.
func (s *Service) IssueVerification(email string) (string, error) {
	return s.sign(Claims{User: Identity{Email: email}, Purpose: purposeVerify}, s.cfg.VerifyTTL)
}

// DecodeVerification returns the email a verification token was issued for.
func (s *Service) DecodeVerification(token string) (string, error) {
	claims, err := s.parse(token)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeVerify || claims.User.Email == "" {
		return "", s.invalid(errors.New("not a verification token"))
	}
	return claims.User.Email, nil
}

func (s *Service) sign(claims Claims, lifetime time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Service) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.method.Alg()}))
	if err != nil {
		return nil, s.invalid(err)
	}
	if !parsed.Valid || claims.ExpiresAt == nil || claims.ID == "" {
		return nil, s.invalid(errors.New("missing exp or jti"))
	}
	return claims, nil
}

func (s *Service) invalid(cause error) error {
	logger.GetDefault().Debug("token rejected", slog.String("reason", cause.Error()))
	return apperrors.ErrInvalidToken.Wrap(cause)
}
