package models

import (
	"strings"
	"time"

	id "pokevault/pkg/domain"
)

// Favorite is a user's saved pokemon. Name, image and description are
// snapshots taken when the favorite was created.
type Favorite struct {
	ID          id.FavoriteID
	UserID      id.UserID
	PokeID      string
	Name        string
	Image       *string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FavoriteResponse is the JSON view of a Favorite.
type FavoriteResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PokeID      string    `json:"poke_id"`
	Name        string    `json:"name"`
	Image       *string   `json:"image"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (f *Favorite) Response() FavoriteResponse {
	return FavoriteResponse{
		ID:          f.ID.String(),
		UserID:      f.UserID.String(),
		PokeID:      f.PokeID,
		Name:        f.Name,
		Image:       f.Image,
		Description: f.Description,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Responses converts a list for output, never returning nil.
func Responses(favs []*Favorite) []FavoriteResponse {
	out := make([]FavoriteResponse, 0, len(favs))
	for _, f := range favs {
		out = append(out, f.Response())
	}
	return out
}

type CreateRequest struct {
	PokeID      string  `json:"poke_id" validate:"required,max=255"`
	Name        string  `json:"name" validate:"required,max=255"`
	Image       *string `json:"image" validate:"omitempty,url,max=1000"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// BatchItem is one entry of a batch create. Missing fields are filled from
// PokeAPI.
type BatchItem struct {
	PokeID      string  `json:"poke_id" validate:"required,max=255"`
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Image       *string `json:"image" validate:"omitempty,url,max=1000"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type BatchRequest struct {
	Items []BatchItem `json:"items" validate:"required,min=1,dive"`
}

// BatchResult reports which items were created and which poke ids were
// already favorites.
type BatchResult struct {
	Created []*Favorite
	Skipped []string
}

type BatchResponse struct {
	Created []FavoriteResponse `json:"created"`
	Skipped []string           `json:"skipped"`
}

func (r *BatchResult) Response() BatchResponse {
	skipped := r.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return BatchResponse{Created: Responses(r.Created), Skipped: skipped}
}

// NormalizePokeID trims surrounding whitespace so " 25" and "25" are one key.
func NormalizePokeID(pokeID string) string {
	return strings.TrimSpace(pokeID)
}
