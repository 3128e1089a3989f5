// Package store defines the remote collaborator contract the ledger
// depends on. Implementations live in the subpackages; the ledger never
// talks to a concrete backend directly.
package store

import (
	"context"
	"errors"

	"registro/internal/core"
)

// ErrNotFound reports an id the backend does not know. It is always
// wrapped in a *BackendError, so errors.Is works on either.
var ErrNotFound = errors.New("transaction not found")

// Repository is the CRUD contract of the remote collaborator. Insert
// assigns the id and both timestamps; Replace is a full-record replace
// that bumps UpdatedAt. Implementations wrap every failure in
// *BackendError.
type Repository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error)
	Insert(ctx context.Context, tx core.Transaction) (id string, err error)
	Replace(ctx context.Context, id string, tx core.Transaction) error
	Remove(ctx context.Context, id string) error
}

// BackendError marks any remote collaborator failure: transport,
// permission, or a missing record.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return "backend " + e.Op + ": " + e.Err.Error()
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Backendf wraps err as a BackendError for the given operation.
func Backendf(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}

// IsBackendError reports whether err originated at the remote collaborator.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
