// Package sqlite implements the remote collaborator contract on a local
// SQLite database (pure-Go driver, embedded migrations).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"registro/internal/core"
	"registro/internal/log"
	"registro/internal/store"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db     *sql.DB
	logger *log.Logger
}

var _ store.Repository = (*Repository)(nil)

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:     db,
		logger: log.Component(log.ComponentStore),
	}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const selectColumns = "id, user_id, date, amount, type, category, notes, created_at, updated_at"

// ListByOwner implements store.Repository. Rows come back in insertion
// order; callers impose their own ordering.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+selectColumns+" FROM transactions WHERE user_id = ? ORDER BY rowid", ownerID)
	if err != nil {
		return nil, store.Backendf("list", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, store.Backendf("list", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, store.Backendf("list", err)
	}
	return out, nil
}

// Insert implements store.Repository, assigning id and timestamps.
func (r *Repository) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, date, amount, type, category, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, tx.UserID, tx.Date.String(), tx.Amount.String(), string(tx.Type), tx.Category, tx.Notes, now, now)
	if err != nil {
		return "", store.Backendf("insert", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved",
		log.FieldTransactionID, id,
		log.FieldUserID, tx.UserID,
		log.FieldType, tx.Type,
		log.FieldAmount, tx.Amount.String(),
		log.FieldCategory, tx.Category,
		log.FieldOperation, log.OpCreate)

	return id, nil
}

// Replace implements store.Repository: a full-record replace that keeps
// created_at and bumps updated_at.
func (r *Repository) Replace(ctx context.Context, id string, tx core.Transaction) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET user_id = ?, date = ?, amount = ?, type = ?, category = ?, notes = ?, updated_at = ?
		 WHERE id = ?`,
		tx.UserID, tx.Date.String(), tx.Amount.String(), string(tx.Type), tx.Category, tx.Notes, now, id)
	if err != nil {
		return store.Backendf("replace", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Backendf("replace", err)
	}
	if n == 0 {
		return store.Backendf("replace", store.ErrNotFound)
	}
	return nil
}

// Remove implements store.Repository.
func (r *Repository) Remove(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return store.Backendf("remove", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.Backendf("remove", err)
	}
	if n == 0 {
		return store.Backendf("remove", store.ErrNotFound)
	}
	return nil
}

// Get fetches a single transaction by id. The mirror worker uses it to
// resolve event payloads; it is not part of the collaborator contract.
func (r *Repository) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, store.Backendf("get", store.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, store.Backendf("get", err)
	}
	return tx, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		tx                   core.Transaction
		date, amount, typ    string
		createdAt, updatedAt string
	)
	err := row.Scan(&tx.ID, &tx.UserID, &date, &amount, &typ, &tx.Category, &tx.Notes, &createdAt, &updatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.Date, err = core.ParseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("scan date: %w", err)
	}
	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("scan amount: %w", err)
	}
	tx.Type = core.Type(typ)
	if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Transaction{}, fmt.Errorf("scan created_at: %w", err)
	}
	if tx.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return core.Transaction{}, fmt.Errorf("scan updated_at: %w", err)
	}
	return tx, nil
}
