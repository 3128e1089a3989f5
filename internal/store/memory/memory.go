// Package memory is an in-process Repository used by tests and local
// development (DATA_BACKEND=memory). It mimics the remote collaborator
// faithfully: ids and timestamps are assigned here, never by callers.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"registro/internal/core"
	"registro/internal/store"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction

	// now is swappable so tests get deterministic timestamps.
	now func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// SetClock overrides the timestamp source. Test hook.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// ListByOwner returns the owner's transactions in insertion order.
func (s *Store) ListByOwner(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.items {
		if t.UserID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Insert assigns a fresh id and both timestamps, ignoring any the caller set.
func (s *Store) Insert(_ context.Context, tx core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	s.items = append(s.items, tx)
	return tx.ID, nil
}

// Replace swaps the stored record wholesale, keeping id and CreatedAt.
func (s *Store) Replace(_ context.Context, id string, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			tx.ID = id
			tx.CreatedAt = s.items[i].CreatedAt
			tx.UpdatedAt = s.now().UTC()
			s.items[i] = tx
			return nil
		}
	}
	return store.Backendf("replace", store.ErrNotFound)
}

func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return store.Backendf("remove", store.ErrNotFound)
}
