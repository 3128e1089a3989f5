package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"registro/internal/core"
	"registro/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "registro.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample(user string) core.Transaction {
	return core.Transaction{
		UserID:   user,
		Date:     core.NewDate(2024, 1, 5),
		Amount:   decimal.RequireFromString("100.50"),
		Type:     core.Income,
		Category: "Stipendio",
		Notes:    "tredicesima",
	}
}

func TestInsertAndListRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.Insert(ctx, sample("u1"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got))
	}
	tx := got[0]
	if tx.ID != id || tx.UserID != "u1" {
		t.Fatalf("identity wrong: %+v", tx)
	}
	if tx.Date.String() != "2024-01-05" || !tx.Amount.Equal(decimal.RequireFromString("100.50")) {
		t.Fatalf("payload wrong: %+v", tx)
	}
	if tx.Type != core.Income || tx.Category != "Stipendio" || tx.Notes != "tredicesima" {
		t.Fatalf("payload wrong: %+v", tx)
	}
	if tx.CreatedAt.IsZero() || tx.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not assigned: %+v", tx)
	}
}

func TestListScopesToOwner(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.Insert(ctx, sample("u1")); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Insert(ctx, sample("u2")); err != nil {
		t.Fatal(err)
	}

	got, err := repo.ListByOwner(ctx, "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].UserID != "u2" {
		t.Fatalf("owner scoping broken: %v", got)
	}
}

func TestReplace(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id, err := repo.Insert(ctx, sample("u1"))
	if err != nil {
		t.Fatal(err)
	}

	repl := sample("u1")
	repl.Type = core.Expense
	repl.Amount = decimal.NewFromInt(42)
	repl.Category = "Spesa"
	if err := repo.Replace(ctx, id, repl); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Type != core.Expense || got.Category != "Spesa" || !got.Amount.Equal(decimal.NewFromInt(42)) {
		t.Fatalf("replace not applied: %+v", got)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Fatalf("updated_at went backwards: %+v", got)
	}
}

func TestRemove(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id, err := repo.Insert(ctx, sample("u1"))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Remove(ctx, id); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, err := repo.ListByOwner(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %v", got)
	}
}

func TestMissingIDIsBackendNotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	for _, err := range []error{
		repo.Replace(ctx, "nope", sample("u1")),
		repo.Remove(ctx, "nope"),
	} {
		if !errors.Is(err, store.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if !store.IsBackendError(err) {
			t.Fatalf("expected BackendError wrapper, got %v", err)
		}
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("get: expected ErrNotFound, got %v", err)
	}
}
