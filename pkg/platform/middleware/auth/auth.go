package auth

//go:generate mockgen -source=auth.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "pokevault/pkg/domain"
	"pokevault/pkg/platform/httputil"
	"pokevault/pkg/requestcontext"
)

const (
	MessageUnauthenticated    = "Unauthenticated."
	MessageSessionInvalidated = "Session invalidated"
	bearerPrefix              = "Bearer "
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// TokenRevocationChecker defines the interface for checking if tokens are revoked
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// SessionLookup returns the session id currently recorded for a user.
// ok is false when the user has no active session recorded.
type SessionLookup interface {
	CurrentSessionID(ctx context.Context, userID id.UserID) (sessionID id.SessionID, ok bool, err error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	UserID    string
	SessionID string
	JTI       string // JWT ID for revocation tracking
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func writeUnauthenticated(w http.ResponseWriter) {
	httputil.WriteFailure(w, http.StatusUnauthorized, MessageUnauthenticated, nil)
}

// RequireAuth rejects requests without a valid bearer token. When
// revocationChecker is non-nil, revoked jtis are rejected too.
func RequireAuth(validator JWTValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token")
				writeUnauthenticated(w)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token", "error", err)
				writeUnauthenticated(w)
				return
			}

			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - bad subject", "error", err)
				writeUnauthenticated(w)
				return
			}
			sessionID, err := id.ParseSessionID(claims.SessionID)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - bad session id", "error", err)
				writeUnauthenticated(w)
				return
			}

			if revocationChecker != nil {
				revoked, err := revocationChecker.IsTokenRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation", "error", err)
					httputil.WriteFailure(w, http.StatusInternalServerError, "Failed to validate token", nil)
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked", "jti", claims.JTI)
					writeUnauthenticated(w)
					return
				}
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithSessionID(ctx, sessionID)
			ctx = requestcontext.WithRawToken(ctx, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSingleSession rejects a verified token whose session id no longer
// matches the user's recorded session. Anything it cannot decide on (missing,
// malformed or expired tokens, unknown users, store errors) passes through
// untouched so RequireAuth produces the standard response.
func RequireSingleSession(validator JWTValidator, sessions SessionLookup, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			userID, err := id.ParseUserID(claims.UserID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			current, recorded, err := sessions.CurrentSessionID(ctx, userID)
			if err != nil {
				logger.WarnContext(ctx, "session gate lookup failed", "error", err, "user_id", claims.UserID)
				next.ServeHTTP(w, r)
				return
			}
			if recorded && current.String() != claims.JTI {
				logger.InfoContext(ctx, "rejected superseded session",
					"user_id", claims.UserID,
					"jti", claims.JTI,
				)
				httputil.WriteFailure(w, http.StatusUnauthorized, MessageSessionInvalidated, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
