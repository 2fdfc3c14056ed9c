package passwordreset

import (
	"context"
	"sync"

	"pokevault/internal/auth/models"
	"pokevault/pkg/platform/sentinel"
)

// InMemoryStore keeps at most one pending reset per e-mail.
type InMemoryStore struct {
	mu     sync.Mutex
	resets map[string]models.PasswordReset
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{resets: make(map[string]models.PasswordReset)}
}

func (s *InMemoryStore) Upsert(_ context.Context, reset models.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reset.Email = models.NormalizeEmail(reset.Email)
	s.resets[reset.Email] = reset
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, email string) (*models.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reset, ok := s.resets[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &reset, nil
}

func (s *InMemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.resets, models.NormalizeEmail(email))
	return nil
}
