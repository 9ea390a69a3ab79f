// Package memory holds in-process stores used while the registry database
// is unreachable.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JakeFAU/empresasbrasil/internal/auth"
)

// UserStore keeps accounts in a map keyed by id.
type UserStore struct {
	mu      sync.RWMutex
	users   map[int64]auth.User
	byEmail map[string]int64
	nextID  int64
	now     func() time.Time
}

// NewUserStore seeds the store with users. Seed ids are kept when set.
func NewUserStore(seed ...auth.User) *UserStore {
	s := &UserStore{
		users:   make(map[int64]auth.User),
		byEmail: make(map[string]int64),
		nextID:  1,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, u := range seed {
		_, _ = s.Create(context.Background(), u)
	}
	return s
}

// ByEmail implements auth.UserStore.
func (s *UserStore) ByEmail(_ context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[auth.NormalizeEmail(email)]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return s.users[id], nil
}

// ByID implements auth.UserStore.
func (s *UserStore) ByID(_ context.Context, id int64) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

// Create implements auth.UserStore.
func (s *UserStore) Create(_ context.Context, u auth.User) (auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = auth.NormalizeEmail(u.Email)
	if _, taken := s.byEmail[u.Email]; taken {
		return auth.User{}, auth.ErrEmailTaken
	}
	if u.ID == 0 {
		u.ID = s.nextID
	}
	if u.ID >= s.nextID {
		s.nextID = u.ID + 1
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

// UpdatePassword implements auth.UserStore.
func (s *UserStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	return s.update(id, func(u *auth.User) { u.PasswordHash = hash })
}

// SetPlan implements auth.UserStore.
func (s *UserStore) SetPlan(_ context.Context, id int64, plan string) error {
	return s.update(id, func(u *auth.User) { u.Plan = plan })
}

func (s *UserStore) update(id int64, fn func(*auth.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	fn(&u)
	s.users[id] = u
	return nil
}
