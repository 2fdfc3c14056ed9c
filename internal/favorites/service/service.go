package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"log/slog"

	"pokevault/internal/favorites/models"
	"pokevault/internal/pokeapi"
	id "pokevault/pkg/domain"
	dErrors "pokevault/pkg/domain-errors"
	"pokevault/pkg/platform/audit"
	"pokevault/pkg/platform/sentinel"
)

const (
	MessageDuplicateFavorite = "Duplicate favorite"
	MessageFavoriteNotFound  = "Favorite not found"
)

// Store persists favorites keyed by (user, poke id).
type Store interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]*models.Favorite, error)
	Find(ctx context.Context, userID id.UserID, pokeID string) (*models.Favorite, error)
	Create(ctx context.Context, fav *models.Favorite) error
	Delete(ctx context.Context, userID id.UserID, pokeID string) error
}

// PokemonDetails fills batch items that omit name, image or description.
type PokemonDetails interface {
	GetDetailed(ctx context.Context, id string) (*pokeapi.Pokemon, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	details        PokemonDetails
	logger         *slog.Logger
	auditPublisher AuditPublisher
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

func New(store Store, details PokemonDetails, opts ...Option) *Service {
	s := &Service{store: store, details: details, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, userID id.UserID) ([]*models.Favorite, error) {
	favs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list favorites")
	}
	return favs, nil
}

// Create saves a favorite with the caller's snapshot fields. An existing
// (user, poke id) pair is a conflict, including one inserted concurrently.
func (s *Service) Create(ctx context.Context, userID id.UserID, req models.CreateRequest) (*models.Favorite, error) {
	pokeID := models.NormalizePokeID(req.PokeID)
	exists, err := s.exists(ctx, userID, pokeID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, duplicate()
	}

	fav := &models.Favorite{
		ID:          id.NewFavoriteID(),
		UserID:      userID,
		PokeID:      pokeID,
		Name:        req.Name,
		Image:       req.Image,
		Description: req.Description,
	}
	if err := s.store.Create(ctx, fav); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, duplicate()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create favorite")
	}
	s.logAudit(ctx, audit.EventFavoriteAdded, userID, pokeID)
	return fav, nil
}

// CreateBatch creates every item whose pair does not exist yet and reports the
// rest as skipped. Missing fields are filled from PokeAPI when it answers; the
// name falls back to the poke id.
func (s *Service) CreateBatch(ctx context.Context, userID id.UserID, items []models.BatchItem) (*models.BatchResult, error) {
	result := &models.BatchResult{Created: []*models.Favorite{}, Skipped: []string{}}
	for _, item := range items {
		pokeID := models.NormalizePokeID(item.PokeID)
		exists, err := s.exists(ctx, userID, pokeID)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped = append(result.Skipped, pokeID)
			continue
		}

		fav := s.fill(ctx, userID, pokeID, item)
		if err := s.store.Create(ctx, fav); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				result.Skipped = append(result.Skipped, pokeID)
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create favorite")
		}
		s.logAudit(ctx, audit.EventFavoriteAdded, userID, pokeID)
		result.Created = append(result.Created, fav)
	}
	return result, nil
}

func (s *Service) Delete(ctx context.Context, userID id.UserID, pokeID string) error {
	pokeID = models.NormalizePokeID(pokeID)
	if err := s.store.Delete(ctx, userID, pokeID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, MessageFavoriteNotFound).
				WithFields(map[string][]string{"favorite": {"Not found"}})
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete favorite")
	}
	s.logAudit(ctx, audit.EventFavoriteRemoved, userID, pokeID)
	return nil
}

func (s *Service) exists(ctx context.Context, userID id.UserID, pokeID string) (bool, error) {
	_, err := s.store.Find(ctx, userID, pokeID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return false, nil
	default:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up favorite")
	}
}

func (s *Service) fill(ctx context.Context, userID id.UserID, pokeID string, item models.BatchItem) *models.Favorite {
	fav := &models.Favorite{
		ID:          id.NewFavoriteID(),
		UserID:      userID,
		PokeID:      pokeID,
		Image:       item.Image,
		Description: item.Description,
	}
	if item.Name != nil {
		fav.Name = *item.Name
	}
	if fav.Name == "" || fav.Image == nil || fav.Description == nil {
		details, err := s.details.GetDetailed(ctx, pokeID)
		if err != nil {
			s.logger.WarnContext(ctx, "pokemon details unavailable for favorite", "poke_id", pokeID, "error", err)
		} else {
			if fav.Name == "" {
				fav.Name = details.Name
			}
			if fav.Image == nil {
				fav.Image = details.Image
			}
			if fav.Description == nil {
				fav.Description = details.Description
			}
		}
	}
	if fav.Name == "" {
		fav.Name = pokeID
	}
	return fav
}

func duplicate() error {
	return dErrors.New(dErrors.CodeConflict, MessageDuplicateFavorite).
		WithFields(map[string][]string{"favorite": {"Already exists"}})
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, userID id.UserID, pokeID string) {
	s.logger.InfoContext(ctx, string(event), "event", string(event), "log_type", "audit", "user_id", userID.String(), "poke_id", pokeID)
	if s.auditPublisher == nil {
		return
	}
	e := audit.New(event, userID)
	e.Reason = "poke_id=" + pokeID
	if err := s.auditPublisher.Emit(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
