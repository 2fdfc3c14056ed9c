package store

import (
	"context"
	"sync"
	"time"

	"pokevault/internal/favorites/models"
	id "pokevault/pkg/domain"
	"pokevault/pkg/platform/sentinel"
)

type favoriteKey struct {
	userID id.UserID
	pokeID string
}

// InMemoryStore keeps favorites per user in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	byKey  map[favoriteKey]*models.Favorite
	byUser map[id.UserID][]favoriteKey
	now    func() time.Time
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byKey:  make(map[favoriteKey]*models.Favorite),
		byUser: make(map[id.UserID][]favoriteKey),
		now:    time.Now,
	}
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.byUser[userID]
	out := make([]*models.Favorite, 0, len(keys))
	for _, k := range keys {
		cp := *s.byKey[k]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) Find(_ context.Context, userID id.UserID, pokeID string) (*models.Favorite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fav, ok := s.byKey[favoriteKey{userID, pokeID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *fav
	return &cp, nil
}

func (s *InMemoryStore) Create(_ context.Context, fav *models.Favorite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := favoriteKey{fav.UserID, fav.PokeID}
	if _, exists := s.byKey[key]; exists {
		return sentinel.ErrConflict
	}
	now := s.now()
	fav.CreatedAt = now
	fav.UpdatedAt = now
	cp := *fav
	s.byKey[key] = &cp
	s.byUser[fav.UserID] = append(s.byUser[fav.UserID], key)
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID, pokeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := favoriteKey{userID, pokeID}
	if _, ok := s.byKey[key]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byKey, key)
	keys := s.byUser[userID]
	for i, k := range keys {
		if k == key {
			s.byUser[userID] = append(keys[:i:i], keys[i+1:]...)
			break
		}
	}
	return nil
}
