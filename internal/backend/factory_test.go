package backend

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"ledger/internal/config"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/sheets/memory"
	"ledger/internal/storage"
)

func testFactory() *DefaultFactory {
	return NewFactory(log.New(log.Config{Output: io.Discard}))
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"mirror without credentials", Config{Type: MemoryBackend, GoogleSpreadsheetID: "abc"}, true},
		{"mirror with credentials", Config{Type: MemoryBackend, GoogleSpreadsheetID: "abc", GoogleServiceAccountFile: "sa.json"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "postgres", DatabaseURL: "postgres://u@h/db", GoogleSheetName: "Ledger"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != PostgresBackend || cfg.DatabaseURL != "postgres://u@h/db" || cfg.GoogleSheetName != "Ledger" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestCreateRepository(t *testing.T) {
	ctx := context.Background()
	f := testFactory()

	res, err := f.CreateRepository(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := res.Repository.(*storage.MemoryRepository); !ok {
		t.Fatalf("memory backend returned %T", res.Repository)
	}

	res, err = f.CreateRepository(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "nested", "ledger.db")})
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer res.Cleanup()
	created, err := res.Repository.Create(ctx, core.Transaction{
		Date:        core.NewDate(2024, 1, 2),
		Description: "opening balance",
		Value:       core.NewAmount("100"),
		Type:        core.Credit,
	})
	if err != nil || created.ID == 0 {
		t.Fatalf("sqlite create: %+v, %v", created, err)
	}

	if _, err := f.CreateRepository(ctx, Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}

func TestCreateMirrorDefaultsToMemory(t *testing.T) {
	m, err := testFactory().CreateMirror(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.(*memory.Store); !ok {
		t.Fatalf("expected memory mirror, got %T", m)
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" || got[2] != "postgres" {
		t.Fatalf("unexpected backend types %v", got)
	}
}
