package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/JakeFAU/empresasbrasil/internal/crm"
)

// LeadStore keeps leads in insertion order.
type LeadStore struct {
	mu    sync.RWMutex
	leads []crm.Lead
}

// NewLeadStore constructs an empty LeadStore.
func NewLeadStore() *LeadStore {
	return &LeadStore{}
}

func (s *LeadStore) index(userID int64, id string) int {
	return slices.IndexFunc(s.leads, func(l crm.Lead) bool { return l.UserID == userID && l.ID == id })
}

// Create implements crm.Store.
func (s *LeadStore) Create(_ context.Context, l crm.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := l.Key()
	for _, existing := range s.leads {
		if existing.UserID == l.UserID && existing.Key() == key {
			return crm.ErrDuplicate
		}
	}
	s.leads = append(s.leads, l)
	return nil
}

// List implements crm.Store, newest first.
func (s *LeadStore) List(_ context.Context, userID int64, stage crm.Stage) ([]crm.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []crm.Lead{}
	for i := len(s.leads) - 1; i >= 0; i-- {
		l := s.leads[i]
		if l.UserID == userID && (stage == "" || l.Stage == stage) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Get implements crm.Store.
func (s *LeadStore) Get(_ context.Context, userID int64, id string) (crm.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(userID, id)
	if i < 0 {
		return crm.Lead{}, crm.ErrNotFound
	}
	return s.leads[i], nil
}

// UpdateStage implements crm.Store.
func (s *LeadStore) UpdateStage(_ context.Context, userID int64, id string, stage crm.Stage, at time.Time) (crm.Lead, error) {
	return s.update(userID, id, at, func(l *crm.Lead) { l.Stage = stage })
}

// UpdateNotes implements crm.Store.
func (s *LeadStore) UpdateNotes(_ context.Context, userID int64, id, notes string, at time.Time) (crm.Lead, error) {
	return s.update(userID, id, at, func(l *crm.Lead) { l.Notas = notes })
}

func (s *LeadStore) update(userID int64, id string, at time.Time, fn func(*crm.Lead)) (crm.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, id)
	if i < 0 {
		return crm.Lead{}, crm.ErrNotFound
	}
	fn(&s.leads[i])
	s.leads[i].UpdatedAt = at
	return s.leads[i], nil
}

// Delete implements crm.Store.
func (s *LeadStore) Delete(_ context.Context, userID int64, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(userID, id)
	if i < 0 {
		return crm.ErrNotFound
	}
	s.leads = slices.Delete(s.leads, i, i+1)
	return nil
}

// ExistingKeys implements crm.Store.
func (s *LeadStore) ExistingKeys(_ context.Context, userID int64, keys []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	saved := make(map[string]struct{})
	for _, l := range s.leads {
		if l.UserID == userID {
			saved[l.Key()] = struct{}{}
		}
	}
	out := []string{}
	for _, k := range keys {
		if _, ok := saved[k]; ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// CountByStage implements crm.Store.
func (s *LeadStore) CountByStage(_ context.Context, userID int64) (map[crm.Stage]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[crm.Stage]int64)
	for _, l := range s.leads {
		if l.UserID == userID {
			counts[l.Stage]++
		}
	}
	return counts, nil
}
