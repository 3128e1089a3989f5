// Package ledger holds the per-user transaction store. It keeps an
// in-memory view of one user's ledger, synchronized with the remote
// repository by full reload after every mutation: there is no optimistic
// local update, the view changes only once a reload lands.
package ledger

import (
	"context"
	"sync"

	"registro/internal/amqp"
	"registro/internal/core"
	"registro/internal/log"
	"registro/internal/store"
)

// Notifier publishes ledger change events. Satisfied by *amqp.Client;
// nil disables notifications.
type Notifier interface {
	PublishLedgerEvent(ctx context.Context, action, transactionID, userID string) error
}

// Store is the ledger view for a single user. The repository is an
// explicit dependency so tests substitute a fake collaborator.
//
// Reads are served from the last successfully loaded set. A failed
// reload keeps the stale set and records the error; a failed first load
// leaves the set empty. Reload results are sequence-numbered and a
// result older than the last applied one is discarded, so a slow reload
// cannot clobber a newer state.
type Store struct {
	repo     store.Repository
	notifier Notifier
	userID   string
	logger   *log.Logger

	mu      sync.Mutex
	txs     []core.Transaction
	loading bool
	err     error
	loaded  bool   // at least one successful load
	seq     uint64 // last issued reload
	applied uint64 // last applied reload
}

func NewStore(repo store.Repository, notifier Notifier, userID string) *Store {
	return &Store{
		repo:     repo,
		notifier: notifier,
		userID:   userID,
		logger:   log.Component(log.ComponentLedger),
	}
}

// Load refreshes the in-memory set from the repository. Safe to call
// concurrently; if a newer reload has already applied by the time this
// one returns, its result is dropped.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	mySeq := s.seq
	s.loading = true
	s.mu.Unlock()

	txs, err := s.repo.ListByOwner(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if mySeq <= s.applied {
		// A newer reload already landed; this result is stale.
		s.logger.DebugContext(ctx, "Discarding stale reload",
			log.FieldUserID, s.userID, "seq", mySeq, "applied", s.applied)
		return nil
	}
	s.applied = mySeq
	if s.seq == mySeq {
		s.loading = false
	}

	if err != nil {
		s.err = err
		if !s.loaded {
			s.txs = nil
		}
		return err
	}

	s.txs = txs
	s.err = nil
	s.loaded = true
	return nil
}

// EnsureLoaded performs the initial load once; subsequent calls are
// no-ops unless the first load failed.
func (s *Store) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	done := s.loaded
	s.mu.Unlock()
	if done {
		return nil
	}
	return s.Load(ctx)
}

// Transactions returns a copy of the current set.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.txs))
	copy(out, s.txs)
	return out
}

// Loading reports whether a reload is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the error of the most recent failed reload, nil after a
// successful one.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Create stamps the record with the owning user, validates it and hands
// it to the repository, which assigns id and timestamps. The returned id
// is valid even when the follow-up reload fails; that failure is visible
// through Err.
func (s *Store) Create(ctx context.Context, tx core.Transaction) (string, error) {
	tx.UserID = s.userID
	if err := tx.Validate(); err != nil {
		return "", err
	}

	id, err := s.repo.Insert(ctx, tx)
	if err != nil {
		return "", err
	}

	s.notify(ctx, amqp.ActionCreated, id)
	s.reload(ctx)
	return id, nil
}

// Update is a full-record replace.
func (s *Store) Update(ctx context.Context, id string, tx core.Transaction) error {
	tx.UserID = s.userID
	if err := tx.Validate(); err != nil {
		return err
	}

	if err := s.repo.Replace(ctx, id, tx); err != nil {
		return err
	}

	s.notify(ctx, amqp.ActionUpdated, id)
	s.reload(ctx)
	return nil
}

// Delete removes a transaction by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}

	s.notify(ctx, amqp.ActionDeleted, id)
	s.reload(ctx)
	return nil
}

// reload is the read-after-write refresh. Its error is recorded in the
// store state, not propagated: the mutation already succeeded.
func (s *Store) reload(ctx context.Context) {
	if err := s.Load(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Reload after mutation failed",
			log.FieldUserID, s.userID, log.FieldError, err)
	}
}

// notify publishes the change event. Best-effort: a publish failure is
// logged and the mutation still counts.
func (s *Store) notify(ctx context.Context, action, id string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishLedgerEvent(ctx, action, id, s.userID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"action", action, log.FieldTransactionID, id, log.FieldError, err)
	}
}
