package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"pokevault/internal/auth/models"
	id "pokevault/pkg/domain"
	"pokevault/pkg/platform/sentinel"
	"pokevault/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresUserStore persists users with lib/pq.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

const userColumns = `id, name, email, password_hash, current_token, current_session_id, created_at, updated_at`

func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		uuid.UUID(user.ID), user.Name, user.Email, user.PasswordHash,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID))
	return scanUser(row)
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, models.NormalizeEmail(email))
	return scanUser(row)
}

// SwapSession overwrites both session columns in one statement and returns
// the previous values read under the same row lock.
func (s *PostgresUserStore) SwapSession(ctx context.Context, userID id.UserID, rec models.SessionRecord) (*models.SessionRecord, error) {
	var prevToken sql.NullString
	var prevSession uuid.NullUUID
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		UPDATE users u
		SET current_token = $2, current_session_id = $3, updated_at = NOW()
		FROM (SELECT id, current_token, current_session_id FROM users WHERE id = $1 FOR UPDATE) prev
		WHERE u.id = prev.id
		RETURNING prev.current_token, prev.current_session_id`,
		uuid.UUID(userID), rec.Token, uuid.UUID(rec.SessionID),
	).Scan(&prevToken, &prevSession)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("swap session: %w", err)
	}
	if !prevToken.Valid {
		return nil, nil
	}
	prev := &models.SessionRecord{Token: prevToken.String}
	if prevSession.Valid {
		prev.SessionID = id.SessionID(prevSession.UUID)
	}
	return prev, nil
}

func (s *PostgresUserStore) ClearSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) (bool, error) {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE users
		SET current_token = NULL, current_session_id = NULL, updated_at = NOW()
		WHERE id = $1 AND current_session_id = $2`,
		uuid.UUID(userID), uuid.UUID(sessionID))
	if err != nil {
		return false, fmt.Errorf("clear session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("clear session rows: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresUserStore) UpdatePassword(ctx context.Context, userID id.UserID, passwordHash string) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		uuid.UUID(userID), passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u         models.User
		rawID     uuid.UUID
		token     sql.NullString
		sessionID uuid.NullUUID
	)
	err := row.Scan(&rawID, &u.Name, &u.Email, &u.PasswordHash, &token, &sessionID, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = id.UserID(rawID)
	if token.Valid {
		u.CurrentToken = &token.String
	}
	if sessionID.Valid {
		sid := id.SessionID(sessionID.UUID)
		u.CurrentSessionID = &sid
	}
	return &u, nil
}
