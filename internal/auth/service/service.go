package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"log/slog"
	"time"

	"pokevault/internal/auth/metrics"
	"pokevault/internal/auth/models"
	jwttoken "pokevault/internal/jwt_token"
	id "pokevault/pkg/domain"
	"pokevault/pkg/platform/audit"
	"pokevault/pkg/platform/tx"
)

// UserStore persists credentials and the single (token, session id) pair per user.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SwapSession(ctx context.Context, userID id.UserID, rec models.SessionRecord) (*models.SessionRecord, error)
	ClearSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (bool, error)
	UpdatePassword(ctx context.Context, userID id.UserID, passwordHash string) error
}

// RevocationList records invalidated token ids until they would have expired.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type ResetStore interface {
	Upsert(ctx context.Context, reset models.PasswordReset) error
	Find(ctx context.Context, email string) (*models.PasswordReset, error)
	Delete(ctx context.Context, email string) error
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// TokenSigner signs and parses session tokens.
type TokenSigner interface {
	GenerateAccessToken(userID id.UserID, sessionID id.SessionID, expiresIn time.Duration) (string, time.Time, error)
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
	ParseIgnoringExpiry(tokenString string) (*jwttoken.Claims, error)
}

// Config carries the token and password settings.
type Config struct {
	TokenTTL         time.Duration
	PasswordResetTTL time.Duration
	BcryptCost       int
}

// Service owns registration, login, the single active session per user and
// password resets.
type Service struct {
	users          UserStore
	trl            RevocationList
	resets         ResetStore
	tokens         TokenSigner
	mailer         Mailer
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	now            func() time.Time
	cfg            Config
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTxRunner groups user creation and the first session swap.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithMailer(m Mailer) Option {
	return func(s *Service) {
		s.mailer = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(users UserStore, trl RevocationList, resets ResetStore, tokens TokenSigner, cfg Config, opts ...Option) *Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.PasswordResetTTL <= 0 {
		cfg.PasswordResetTTL = time.Hour
	}
	s := &Service{
		users:  users,
		trl:    trl,
		resets: resets,
		tokens: tokens,
		cfg:    cfg,
		tx:     tx.NoopRunner{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenTTL is the lifetime of issued session tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.cfg.TokenTTL
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID id.UserID, attributes ...any) {
	args := append(attributes, "event", string(event), "log_type", "audit", "user_id", userID.String())
	s.logger.InfoContext(ctx, string(event), args...)
	if s.auditPublisher == nil {
		return
	}
	e := audit.New(event, userID)
	for i := 0; i+1 < len(attributes); i += 2 {
		key, _ := attributes[i].(string)
		val, _ := attributes[i+1].(string)
		switch key {
		case "reason":
			e.Reason = val
		case "email":
			e.Email = val
		}
	}
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}

func (s *Service) authFailure(ctx context.Context, reason string, attributes ...any) {
	args := append(attributes, "reason", reason)
	s.logger.WarnContext(ctx, "auth failure", args...)
	if s.metrics != nil {
		s.metrics.IncrementLoginFailures()
	}
}
