package user

import (
	"context"
	"sync"
	"time"

	"pokevault/internal/auth/models"
	id "pokevault/pkg/domain"
	"pokevault/pkg/platform/sentinel"
)

// InMemoryUserStore keeps users in a map guarded by one mutex. Session swaps
// happen under the write lock, which gives them the same atomicity as the
// single UPDATE used by the Postgres store.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	users   map[id.UserID]*models.User
	byEmail map[string]id.UserID
	now     func() time.Time
}

func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		users:   make(map[id.UserID]*models.User),
		byEmail: make(map[string]id.UserID),
		now:     time.Now,
	}
}

func clone(u *models.User) *models.User {
	cp := *u
	if u.CurrentToken != nil {
		tok := *u.CurrentToken
		cp.CurrentToken = &tok
	}
	if u.CurrentSessionID != nil {
		sid := *u.CurrentSessionID
		cp.CurrentSessionID = &sid
	}
	return &cp
}

func (s *InMemoryUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := models.NormalizeEmail(user.Email)
	if _, exists := s.byEmail[key]; exists {
		return sentinel.ErrConflict
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = clone(user)
	s.byEmail[key] = user.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		return clone(u), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.users[userID]), nil
}

// SwapSession records rec as the user's session and returns the pair it replaced.
func (s *InMemoryUserStore) SwapSession(_ context.Context, userID id.UserID, rec models.SessionRecord) (*models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	var prev *models.SessionRecord
	if u.CurrentToken != nil {
		prev = &models.SessionRecord{Token: *u.CurrentToken}
		if u.CurrentSessionID != nil {
			prev.SessionID = *u.CurrentSessionID
		}
	}
	tok := rec.Token
	sid := rec.SessionID
	u.CurrentToken = &tok
	u.CurrentSessionID = &sid
	u.UpdatedAt = s.now()
	return prev, nil
}

// ClearSession nulls the session fields only if sessionID is still current.
func (s *InMemoryUserStore) ClearSession(_ context.Context, userID id.UserID, sessionID id.SessionID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	if u.CurrentSessionID == nil || *u.CurrentSessionID != sessionID {
		return false, nil
	}
	u.CurrentToken = nil
	u.CurrentSessionID = nil
	u.UpdatedAt = s.now()
	return true, nil
}

func (s *InMemoryUserStore) UpdatePassword(_ context.Context, userID id.UserID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = s.now()
	return nil
}
