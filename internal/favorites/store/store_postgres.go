package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"pokevault/internal/favorites/models"
	id "pokevault/pkg/domain"
	"pokevault/pkg/platform/sentinel"
	"pokevault/pkg/platform/tx"
)

const uniqueViolation = "23505"

const favoriteColumns = `id, user_id, poke_id, name, image, description, created_at, updated_at`

// PostgresStore persists favorites with lib/pq. The (user_id, poke_id) unique
// constraint backs duplicate detection.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Favorite, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = $1 ORDER BY created_at, id`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := []*models.Favorite{}
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Find(ctx context.Context, userID id.UserID, pokeID string) (*models.Favorite, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+favoriteColumns+` FROM favorites WHERE user_id = $1 AND poke_id = $2`, uuid.UUID(userID), pokeID)
	fav, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return fav, err
}

func (s *PostgresStore) Create(ctx context.Context, fav *models.Favorite) error {
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO favorites (id, user_id, poke_id, name, image, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		uuid.UUID(fav.ID), uuid.UUID(fav.UserID), fav.PokeID, fav.Name, fav.Image, fav.Description,
	).Scan(&fav.CreatedAt, &fav.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID, pokeID string) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND poke_id = $2`, uuid.UUID(userID), pokeID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row scanner) (*models.Favorite, error) {
	var (
		fav         models.Favorite
		favID       uuid.UUID
		userID      uuid.UUID
		image, desc sql.NullString
	)
	if err := row.Scan(&favID, &userID, &fav.PokeID, &fav.Name, &image, &desc, &fav.CreatedAt, &fav.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan favorite: %w", err)
	}
	fav.ID = id.FavoriteID(favID)
	fav.UserID = id.UserID(userID)
	if image.Valid {
		fav.Image = &image.String
	}
	if desc.Valid {
		fav.Description = &desc.String
	}
	return &fav, nil
}
