package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"pokevault/internal/auth/models"
	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
	"pokevault/pkg/email"
	"pokevault/pkg/platform/audit"
	"pokevault/pkg/platform/sentinel"
	"pokevault/pkg/platform/validation"
)

const (
	MessageInvalidCredentials = "Invalid email or password"
	MessageEmailTaken         = "The email has already been taken."
	MessagePasswordTooLong    = "The password field must not be greater than 72 bytes."
)

// Register creates the account and logs it in. The user row and its first
// session are written in one transaction when the runner supports it.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.TokenResult, error) {
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &models.User{
		ID:           id.NewUserID(),
		Name:         strings.TrimSpace(req.Name),
		Email:        models.NormalizeEmail(req.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var result *models.TokenResult
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.NewValidation(MessageEmailTaken, map[string][]string{
					"email": {MessageEmailTaken},
				})
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
		}
		var err error
		result, err = s.issue(ctx, user, "register")
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventUserRegistered, user.ID, "email", user.Email)
	return result, nil
}

// Login checks credentials and issues a token, superseding any existing session.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResult, error) {
	user, err := s.users.FindByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.authFailure(ctx, "unknown_email", "email", email.Mask(req.Email))
			return nil, dErrors.New(dErrors.CodeInvalidCredentials, MessageInvalidCredentials)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.authFailure(ctx, "bad_password", "user_id", user.ID.String())
		s.logAudit(ctx, audit.EventLoginFailed, user.ID, "reason", "bad_password")
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, MessageInvalidCredentials)
	}

	result, err := s.issue(ctx, user, "login")
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, audit.EventLoggedIn, user.ID)
	return result, nil
}

// Logout revokes raw and clears the recorded session if it is still the
// current one. A newer session started elsewhere is left alone.
func (s *Service) Logout(ctx context.Context, userID id.UserID, sessionID id.SessionID, raw string) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "Unauthenticated.")
	}
	if raw != "" {
		if err := s.Invalidate(ctx, raw); err != nil {
			s.logger.WarnContext(ctx, "failed to revoke token on logout", "error", err, "user_id", userID.String())
			if s.metrics != nil {
				s.metrics.IncrementRevocationFailures()
			}
		}
	}
	cleared, err := s.users.ClearSession(ctx, userID, sessionID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear session")
	}
	if !cleared {
		s.logger.DebugContext(ctx, "logout of a superseded session", "user_id", userID.String(), "session_id", sessionID.String())
	}
	s.logAudit(ctx, audit.EventLoggedOut, userID)
	return nil
}

// Me returns the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID id.UserID) (*models.UserProfile, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	return &profile, nil
}

func (s *Service) hashPassword(password string) (string, error) {
	cost := s.cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// the tag counts runes, bcrypt counts bytes
		return "", dErrors.NewValidation(validation.Message, map[string][]string{"password": {MessagePasswordTooLong}})
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	return string(hash), nil
}
