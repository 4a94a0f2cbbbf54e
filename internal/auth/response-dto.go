package auth

import (
	"time"

	"bookly/internal/books"
	"bookly/internal/users"

	"github.com/google/uuid"
)

// represents user data in responses (without sensitive info)
type UserResponse struct {
	UID        uuid.UUID `json:"uid"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func newUserResponse(u *users.User) UserResponse {
	return UserResponse{
		UID:        u.UID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// the current user together with the books they submitted
type MeResponse struct {
	UserResponse
	Books []books.Book `json:"books"`
}

type LoginUser struct {
	Email string    `json:"email"`
	UID   uuid.UUID `json:"uid"`
}

// represents the login response
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         LoginUser `json:"user"`
}

type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}
