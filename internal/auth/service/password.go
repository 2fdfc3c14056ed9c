package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"pokevault/internal/auth/models"
	dErrors "pokevault/pkg/domain-errors"
	"pokevault/pkg/platform/audit"
	"pokevault/pkg/platform/sentinel"
)

const MessageInvalidResetToken = "This password reset token is invalid."

// ForgotPassword stores a hashed reset token and mails the raw one. Unknown
// addresses return nil so callers cannot probe for accounts. The mailer is
// expected to queue rather than wait on the relay.
func (s *Service) ForgotPassword(ctx context.Context, req models.ForgotPasswordRequest) error {
	address := models.NormalizeEmail(req.Email)
	user, err := s.users.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	token, err := newResetToken()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate reset token")
	}
	if err := s.resets.Upsert(ctx, models.PasswordReset{
		Email:     address,
		TokenHash: hashResetToken(token),
		CreatedAt: s.now(),
	}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store reset token")
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send reset mail")
		}
	}
	s.logAudit(ctx, audit.EventPasswordResetRequested, user.ID)
	return nil
}

// ResetPassword swaps the password when token matches an unexpired request.
// Every failure returns the same message.
func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	address := models.NormalizeEmail(req.Email)
	invalid := dErrors.New(dErrors.CodeBadRequest, MessageInvalidResetToken)

	reset, err := s.resets.Find(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return invalid
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reset token")
	}
	if subtle.ConstantTimeCompare([]byte(reset.TokenHash), []byte(hashResetToken(req.Token))) != 1 {
		return invalid
	}
	if reset.Expired(s.now(), s.cfg.PasswordResetTTL) {
		_ = s.resets.Delete(ctx, address)
		return invalid
	}

	user, err := s.users.FindByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return invalid
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return err
	}

	userID := user.ID
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
		}
		if err := s.resets.Delete(ctx, address); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume reset token")
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventPasswordReset, userID)
	return nil
}

func newResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
