package backend

import (
	"context"
	"path/filepath"
	"testing"

	"registro/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "postgres"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	got, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "./registro.db",
		AMQPURL:      "amqp://localhost:5672/",
		AMQPExchange: "registro",
		AMQPQueue:    "ledger_events",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "./registro.db" || got.AMQPQueue != "ledger_events" {
		t.Fatalf("config not carried over: %+v", got)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Type: "unknown"}).Validate(); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Fatal("expected error for sqlite without path")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Fatalf("memory backend needs no extra config: %v", err)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	factory := NewFactory(nil)
	res, err := factory.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Repository == nil {
		t.Fatal("expected a repository")
	}
	if res.Notifier != nil {
		t.Fatal("memory backend must not carry a notifier")
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	factory := NewFactory(nil)
	res, err := factory.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "registro.db"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = res.Cleanup() })
	if res.Repository == nil {
		t.Fatal("expected a repository")
	}
}
