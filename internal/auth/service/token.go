package service

import (
	"context"
	"errors"
	"time"

	"pokevault/internal/auth/models"
	jwttoken "pokevault/internal/jwt_token"
	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
	"pokevault/pkg/platform/audit"
	"pokevault/pkg/platform/sentinel"
)

// Issue mints a token under a fresh session id and swaps it onto the user in
// one atomic write. The superseded token is revoked best-effort; a failure is
// logged and recorded on the result, never returned.
func (s *Service) Issue(ctx context.Context, user *models.User) (*models.TokenResult, error) {
	return s.issue(ctx, user, "login")
}

func (s *Service) issue(ctx context.Context, user *models.User, flow string) (*models.TokenResult, error) {
	start := time.Now()
	sessionID := jwttoken.NewSessionID()
	token, expiresAt, err := s.tokens.GenerateAccessToken(user.ID, sessionID, s.cfg.TokenTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}

	prev, err := s.users.SwapSession(ctx, user.ID, models.SessionRecord{Token: token, SessionID: sessionID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record session")
	}
	user.CurrentToken = &token
	user.CurrentSessionID = &sessionID

	result := &models.TokenResult{
		AccessToken: token,
		SessionID:   sessionID,
		ExpiresIn:   int(s.cfg.TokenTTL.Seconds()),
		ExpiresAt:   expiresAt,
		User:        user,
	}

	if prev != nil && prev.Token != "" && prev.Token != token {
		if err := s.Invalidate(ctx, prev.Token); err != nil {
			result.RevocationErr = err
			s.logger.WarnContext(ctx, "failed to revoke superseded token",
				"error", err,
				"user_id", user.ID.String(),
				"session_id", prev.SessionID.String(),
			)
			if s.metrics != nil {
				s.metrics.IncrementRevocationFailures()
			}
		}
		if s.metrics != nil {
			s.metrics.IncrementSessionsSuperseded()
		}
		s.logAudit(ctx, audit.EventSessionSuperseded, user.ID, "reason", flow)
	}

	if s.metrics != nil {
		s.metrics.IncrementTokensIssued(flow)
		s.metrics.ObserveIssue(start)
	}
	return result, nil
}

// Verify checks signature, expiry and issuer.
func (s *Service) Verify(raw string) (*jwttoken.Claims, error) {
	return s.tokens.ValidateToken(raw)
}

// Invalidate revokes raw's jti for the rest of its lifetime. Expired tokens
// are already unusable and are not recorded.
func (s *Service) Invalidate(ctx context.Context, raw string) error {
	claims, err := s.tokens.ParseIgnoringExpiry(raw)
	if err != nil {
		return err
	}
	ttl := s.cfg.TokenTTL
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.trl.RevokeToken(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke token")
	}
	return nil
}

// Refresh re-issues a token for the holder of raw under a new session id.
func (s *Service) Refresh(ctx context.Context, raw string) (*models.TokenResult, error) {
	claims, err := s.Verify(raw)
	if err != nil {
		return nil, err
	}
	userID, err := claims.ParsedUserID()
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthenticated.")
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	presentedCurrent := user.CurrentToken != nil && *user.CurrentToken == raw
	result, err := s.issue(ctx, user, "refresh")
	if err != nil {
		return nil, err
	}
	if !presentedCurrent {
		if err := s.Invalidate(ctx, raw); err != nil {
			s.logger.WarnContext(ctx, "failed to revoke refreshed token", "error", err, "user_id", userID.String())
			if result.RevocationErr == nil {
				result.RevocationErr = err
			}
		}
	}
	s.logAudit(ctx, audit.EventTokenRefreshed, user.ID)
	return result, nil
}

// CurrentSessionID reports the session id recorded for userID.
func (s *Service) CurrentSessionID(ctx context.Context, userID id.UserID) (id.SessionID, bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return id.SessionID{}, false, err
	}
	if !user.HasSession() {
		return id.SessionID{}, false, nil
	}
	return *user.CurrentSessionID, true, nil
}

func (s *Service) loadUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "Unauthenticated.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}
