// Package backend selects and wires the persistence collaborator for
// the ledger, driven by configuration.
package backend

import (
	"context"

	"registro/internal/amqp"
	"registro/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result holds the wired repository, the optional change notifier and a
// cleanup function. Notifier is nil when AMQP is not configured.
type Result struct {
	Repository store.Repository
	Notifier   *amqp.Client
	Cleanup    CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// AMQP (optional, sqlite backend only)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// Type selects the persistence implementation.
type Type string

const (
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
