package backend

import (
	"context"
	"time"

	"fintrack/internal/source"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult holds the selected source and the optional capabilities it
// supports. Writer and Notifications are nil when unsupported.
type BackendResult struct {
	Source        source.TransactionSource
	Writer        source.TransactionWriter
	Notifications source.NotificationSource
	Cleanup       CleanupFunc
}

// Close runs Cleanup if set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Remote API
	APIBaseURL   string
	APIToken     string
	APITokenFile string
	APITimeout   time.Duration

	// SQLite
	SQLiteDBPath string

	// Memory
	SeedFile string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Location reads date-only payloads on writable backends.
	Location *time.Location
}

// BackendType represents the type of backend
type BackendType string

const (
	APIBackend    BackendType = "api"
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
