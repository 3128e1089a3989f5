package ledger

import (
	"sync"

	"registro/internal/store"
)

// Manager hands out one Store per user. Stores live for the process
// lifetime; the filter state of a viewing session never touches them.
type Manager struct {
	repo     store.Repository
	notifier Notifier

	mu     sync.Mutex
	stores map[string]*Store
}

func NewManager(repo store.Repository, notifier Notifier) *Manager {
	return &Manager{
		repo:     repo,
		notifier: notifier,
		stores:   make(map[string]*Store),
	}
}

// ForUser returns the user's store, creating it on first use.
func (m *Manager) ForUser(userID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stores[userID]
	if !ok {
		s = NewStore(m.repo, m.notifier, userID)
		m.stores[userID] = s
	}
	return s
}
