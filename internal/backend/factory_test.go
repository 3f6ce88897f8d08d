package backend

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"fintrack/internal/config"
	"fintrack/internal/credentials"
)

func TestCreateBackend_Memory(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(`[{"id":"1","amount":"10","type":"income"}]`), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: seed, Location: time.UTC})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Close()

	txs, err := res.Source.FetchTransactions(context.Background())
	if err != nil || len(txs) != 1 {
		t.Fatalf("FetchTransactions() = %v, %v", txs, err)
	}
	if !slices.Equal(res.Capabilities(), []string{"fetch", "create", "notifications"}) {
		t.Fatalf("unexpected capabilities: %v", res.Capabilities())
	}
}

func TestCreateBackend_SQLite(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "db", "fintrack.db"),
		Location:     time.UTC,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Cleanup == nil {
		t.Fatal("sqlite backend should close its database")
	}
	if err := res.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func TestCreateBackend_API(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:       APIBackend,
		APIBaseURL: "https://api.example.com",
		APIToken:   "tok",
		APITimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Writer == nil || res.Notifications == nil {
		t.Fatal("api backend supports every capability")
	}
}

func TestCreateBackend_Invalid(t *testing.T) {
	tests := []Config{
		{Type: "postgres"},
		{Type: APIBackend, APIToken: "tok"},
		{Type: APIBackend, APIBaseURL: "https://x"},
		{Type: SheetsBackend},
		{Type: SQLiteBackend},
	}
	for _, cfg := range tests {
		if _, err := NewFactory(nil).CreateBackend(context.Background(), cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestCredentialProvider(t *testing.T) {
	if _, ok := CredentialProvider(Config{APIToken: "a"}).(*credentials.Static); !ok {
		t.Fatal("expected static provider")
	}
	if _, ok := CredentialProvider(Config{APIToken: "a", APITokenFile: "/tmp/x"}).(*credentials.File); !ok {
		t.Fatal("token file should win")
	}
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", Timezone: "UTC", APITimeout: time.Second}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SQLiteBackend || got.SQLiteDBPath != "x.db" || got.Location != time.UTC {
		t.Fatalf("unexpected config: %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "nope"}); err == nil {
		t.Fatal("expected error for invalid backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
