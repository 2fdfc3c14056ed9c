package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
)

// Verification failures. All map to 401 at the edge; the distinction is kept
// for logs and tests.
var (
	ErrTokenMalformed        = dErrors.New(dErrors.CodeUnauthorized, "malformed token")
	ErrTokenExpired          = dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	ErrTokenInvalidSignature = dErrors.New(dErrors.CodeUnauthorized, "invalid token signature")
)

// Claims represents the JWT claims carried by session tokens. The session id
// travels as the registered jti claim.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionID parses the jti claim.
func (c *Claims) SessionID() (id.SessionID, error) {
	return id.ParseSessionID(c.ID)
}

// ParsedUserID parses the user_id claim.
func (c *Claims) ParsedUserID() (id.UserID, error) {
	return id.ParseUserID(c.UserID)
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	now        func() time.Time
}

// Option configures a JWTService.
type Option func(*JWTService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewJWTService(signingKey string, issuer string, opts ...Option) *JWTService {
	s := &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateAccessToken signs a token for userID whose jti is sessionID.
func (s *JWTService) GenerateAccessToken(
	userID id.UserID,
	sessionID id.SessionID,
	expiresIn time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(expiresIn)
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        sessionID.String(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signedToken, expiresAt, nil
}

func (s *JWTService) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenUnverifiable
	}
	return s.signingKey, nil
}

func (s *JWTService) parserOptions() []jwt.ParserOption {
	return []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
	}
}

// ValidateToken verifies signature, expiry and issuer.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc, s.parserOptions()...)
	if err != nil {
		return nil, classify(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" || claims.UserID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// ParseIgnoringExpiry verifies the signature but skips time-based claim
// validation, so expired tokens can still be revoked.
func (s *JWTService) ParseIgnoringExpiry(tokenString string) (*Claims, error) {
	opts := append(s.parserOptions(), jwt.WithoutClaimsValidation())
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFunc, opts...)
	if err != nil {
		return nil, classify(err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.ID == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenInvalidSignature
	default:
		return ErrTokenMalformed
	}
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() id.SessionID {
	return id.SessionID(uuid.New())
}
