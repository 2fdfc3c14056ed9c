package passwordreset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"pokevault/internal/auth/models"
	"pokevault/pkg/platform/sentinel"
	"pokevault/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, reset models.PasswordReset) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO password_reset_tokens (email, token_hash, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			token_hash = EXCLUDED.token_hash,
			created_at = EXCLUDED.created_at`,
		models.NormalizeEmail(reset.Email), reset.TokenHash, reset.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, email string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT email, token_hash, created_at FROM password_reset_tokens WHERE email = $1`,
		models.NormalizeEmail(email),
	).Scan(&reset.Email, &reset.TokenHash, &reset.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find password reset: %w", err)
	}
	return &reset, nil
}

func (s *PostgresStore) Delete(ctx context.Context, email string) error {
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE email = $1`, models.NormalizeEmail(email)); err != nil {
		return fmt.Errorf("delete password reset: %w", err)
	}
	return nil
}
