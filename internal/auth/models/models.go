package models

import (
	"strings"
	"time"

	id "pokevault/pkg/domain"
)

// User is a registered account. CurrentToken and CurrentSessionID identify the
// only session allowed to reach session-gated routes; both are nil once the
// user logs out.
type User struct {
	ID               id.UserID
	Name             string
	Email            string
	PasswordHash     string
	CurrentToken     *string
	CurrentSessionID *id.SessionID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSession reports whether a session is recorded for the user.
func (u *User) HasSession() bool {
	return u.CurrentSessionID != nil && !u.CurrentSessionID.IsNil()
}

// SessionRecord is the (token, session id) pair swapped atomically on issuance.
type SessionRecord struct {
	Token     string
	SessionID id.SessionID
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserProfile is the public view of a user.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// TokenResult is returned by every flow that issues a session token.
type TokenResult struct {
	AccessToken string
	SessionID   id.SessionID
	ExpiresIn   int
	ExpiresAt   time.Time
	User        *User
	// RevocationErr records a failed best-effort revocation of the previous
	// token. It is logged and never returned to callers.
	RevocationErr error
}

// TokenResponse is the wire shape of a TokenResult.
type TokenResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        UserProfile `json:"user"`
}

func (r *TokenResult) Response() TokenResponse {
	return TokenResponse{
		AccessToken: r.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   r.ExpiresIn,
		User:        r.User.Profile(),
	}
}

// PasswordReset is a pending reset request. Only the SHA-256 of the token is kept.
type PasswordReset struct {
	Email     string
	TokenHash string
	CreatedAt time.Time
}

// Expired reports whether the reset request is older than ttl at now.
func (p *PasswordReset) Expired(now time.Time, ttl time.Duration) bool {
	return now.After(p.CreatedAt.Add(ttl))
}

type RegisterRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,email,max=255"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token                string `json:"token" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=8,max=72,password_policy"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}
