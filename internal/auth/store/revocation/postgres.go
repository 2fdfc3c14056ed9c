package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	upsertRevocationSQL = `
		INSERT INTO token_revocations (jti, expires_at) VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at = GREATEST(token_revocations.expires_at, EXCLUDED.expires_at)`
	isRevokedSQL = `SELECT EXISTS (SELECT 1 FROM token_revocations WHERE jti = $1 AND expires_at > $2)`
	purgeSQL     = `DELETE FROM token_revocations WHERE expires_at <= $1`
)

// PostgresTRL keeps revoked jtis in token_revocations. Expired rows stay until
// PurgeExpired removes them but never count as revoked.
type PostgresTRL struct {
	db    *sql.DB
	clock Clock
}

type PostgresTRLOption func(*PostgresTRL)

func WithPostgresClock(clock Clock) PostgresTRLOption {
	return func(trl *PostgresTRL) {
		if clock != nil {
			trl.clock = clock
		}
	}
}

func NewPostgresTRL(db *sql.DB, opts ...PostgresTRLOption) *PostgresTRL {
	trl := &PostgresTRL{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(trl)
	}
	return trl
}

// RevokeToken records jti until now+ttl. Revoking twice keeps the later expiry.
func (t *PostgresTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if _, err := t.db.ExecContext(ctx, upsertRevocationSQL, jti, t.clock().Add(ttl)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (t *PostgresTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var revoked bool
	if err := t.db.QueryRowContext(ctx, isRevokedSQL, jti, t.clock()).Scan(&revoked); err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return revoked, nil
}

// PurgeExpired deletes lapsed rows and reports how many went.
func (t *PostgresTRL) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := t.db.ExecContext(ctx, purgeSQL, t.clock())
	if err != nil {
		return 0, fmt.Errorf("purge token revocations: %w", err)
	}
	return res.RowsAffected()
}
