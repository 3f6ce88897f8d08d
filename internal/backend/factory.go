package backend

import (
	"context"
	"fmt"

	"fintrack/internal/credentials"
	"fintrack/internal/log"
	"fintrack/internal/source/api"
	"fintrack/internal/source/memory"
	"fintrack/internal/source/sheets"
	"fintrack/internal/source/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// CredentialProvider picks the token file over a static token when both are
// configured.
func CredentialProvider(config Config) credentials.Provider {
	if config.APITokenFile != "" {
		return credentials.NewFile(config.APITokenFile)
	}
	return credentials.NewStatic(config.APIToken)
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	client, err := api.New(config.APIBaseURL, CredentialProvider(config), config.APITimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize API client: %w", err)
	}
	client.WithLogger(f.logger.WithComponent(log.ComponentSource))

	f.logger.Info("Initialized API backend",
		"base_url", config.APIBaseURL,
		"token_file", config.APITokenFile != "",
		"timeout", config.APITimeout)

	return &BackendResult{
		Source:        client,
		Writer:        client,
		Notifications: client,
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := sqlite.Open(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	repo.WithLocation(config.Location)

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Source:        repo,
		Writer:        repo,
		Notifications: repo,
		Cleanup:       repo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := sheets.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", "sheet", config.GoogleSheetName)

	// The sheet is read-only here.
	return &BackendResult{Source: cli}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store, err := memory.NewFromFile(config.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}
	store.WithLocation(config.Location)

	f.logger.Info("Initialized memory backend", "seed_file", config.SeedFile)

	return &BackendResult{
		Source:        store,
		Writer:        store,
		Notifications: store,
	}, nil
}

// Capabilities lists which optional operations r supports, for startup logs.
func (r *BackendResult) Capabilities() []string {
	caps := []string{"fetch"}
	if r.Writer != nil {
		caps = append(caps, "create")
	}
	if r.Notifications != nil {
		caps = append(caps, "notifications")
	}
	return caps
}
