package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"bookly/internal/books"
	"bookly/internal/shared/apperrors"
	"bookly/internal/shared/config"
	"bookly/internal/shared/tokens"
	"bookly/internal/users"
	"bookly/pkg/logger"

	"github.com/google/uuid"
)

// Mailer queues the account verification email.
type Mailer interface {
	SendVerificationEmail(ctx context.Context, email, name, link string) error
}

// BookLister lists the books a user submitted.
type BookLister interface {
	ListByUser(ctx context.Context, userUID uuid.UUID) ([]books.Book, error)
}

type Service interface {
	Signup(ctx context.Context, req *SignupRequest) (*users.User, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	RefreshAccess(ctx context.Context, claims *tokens.Claims) (string, error)
	Logout(ctx context.Context, claims *tokens.Claims) error
	Me(ctx context.Context, user *users.User) (*MeResponse, error)
	Verify(ctx context.Context, token string) (*users.User, error)
	ResendVerification(ctx context.Context, user *users.User) error
	ChangePassword(ctx context.Context, user *users.User, req *ChangePasswordRequest) error
}

type service struct {
	repo        users.Repository
	tokens      *tokens.Service
	revocations tokens.RevocationStore
	mailer      Mailer
	books       BookLister
	config      *config.Config
}

func NewService(
	repo users.Repository,
	tokenService *tokens.Service,
	revocations tokens.RevocationStore,
	mailer Mailer,
	bookLister BookLister,
	cfg *config.Config,
) Service {
	return &service{
		repo:        repo,
		tokens:      tokenService,
		revocations: revocations,
		mailer:      mailer,
		books:       bookLister,
		config:      cfg,
	}
}

func identityOf(u *users.User) tokens.Identity {
	return tokens.Identity{Email: u.Email, UserUID: u.UID.String(), Role: u.Role}
}

func (s *service) Signup(ctx context.Context, req *SignupRequest) (*users.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.Exists(ctx, email, req.Username, s.config.Policy.UniqueUsername)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &users.User{
		Username:     req.Username,
		Email:        email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         users.RoleUser,
		PasswordHash: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	logger.GetDefault().LogUserRegistered(ctx, user.UID.String(), user.Email)

	if err := s.sendVerification(ctx, user); err != nil {
		if s.config.Policy.EmailRequiredForSignup {
			return nil, apperrors.ErrInternal.Wrap(err)
		}
		logger.GetDefault().WarnContext(ctx, "verification email not queued",
			slog.String("user_uid", user.UID.String()), slog.String("error", err.Error()))
	}
	return user, nil
}

func (s *service) sendVerification(ctx context.Context, user *users.User) error {
	token, err := s.tokens.IssueVerification(user.Email)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("http://%s%s/auth/verify/%s", s.config.Email.Domain, s.config.GetAPIBasePath(), token)
	return s.mailer.SendVerificationEmail(ctx, user.Email, user.FirstName, link)
}

// Login checks the password and issues a token pair. Unknown emails and wrong
// passwords are reported identically.
func (s *service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(identityOf(user))
	if err != nil {
		return nil, apperrors.ErrInternal.Wrap(err)
	}
	logger.GetDefault().LogAuthSuccess(ctx, user.UID.String(), "password")

	return &LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         LoginUser{Email: user.Email, UID: user.UID},
	}, nil
}

// RefreshAccess issues a new access token for the refresh token's subject.
// The user is looked up again so a changed role takes effect.
func (s *service) RefreshAccess(ctx context.Context, claims *tokens.Claims) (string, error) {
	user, err := s.repo.GetByEmail(ctx, claims.User.Email)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.IssueAccess(identityOf(user))
	if err != nil {
		return "", apperrors.ErrInternal.Wrap(err)
	}
	logger.GetDefault().LogAuthSuccess(ctx, user.UID.String(), "refresh_token")
	return token, nil
}

// Logout blocklists the presented token until it could no longer be used.
func (s *service) Logout(ctx context.Context, claims *tokens.Claims) error {
	ttl := tokens.TTLFor(claims, s.config.JWT.BlocklistTTL, s.tokens.Now())
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return apperrors.ErrInternal.Wrap(err)
	}
	logger.GetDefault().LogTokenRevoked(ctx, claims.ID, ttl)
	return nil
}

func (s *service) Me(ctx context.Context, user *users.User) (*MeResponse, error) {
	owned, err := s.books.ListByUser(ctx, user.UID)
	if err != nil {
		return nil, err
	}
	if owned == nil {
		owned = []books.Book{}
	}
	return &MeResponse{UserResponse: newUserResponse(user), Books: owned}, nil
}

// Verify marks the account named by a verification token as verified.
// A bad or expired link is a client error.
func (s *service) Verify(ctx context.Context, token string) (*users.User, error) {
	email, err := s.tokens.DecodeVerification(token)
	if err != nil {
		badLink := apperrors.ErrInvalidToken.Wrap(err)
		badLink.Status = http.StatusBadRequest
		return nil, badLink
	}
	return s.repo.MarkVerified(ctx, email)
}

func (s *service) ResendVerification(ctx context.Context, user *users.User) error {
	if user.IsVerified {
		return nil
	}
	if err := s.sendVerification(ctx, user); err != nil {
		return apperrors.ErrInternal.Wrap(err)
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, user *users.User, req *ChangePasswordRequest) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, user.UID, string(hashedPassword))
}
