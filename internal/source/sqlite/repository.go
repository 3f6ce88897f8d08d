// Package sqlite is a local transaction source backed by an SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fintrack/internal/core"
	"fintrack/internal/source"
)

var (
	_ source.TransactionSource  = (*Repository)(nil)
	_ source.TransactionWriter  = (*Repository)(nil)
	_ source.NotificationSource = (*Repository)(nil)
)

type Repository struct {
	db      *sql.DB
	queries *Queries
	loc     *time.Location
}

// Open creates the database file if needed and applies migrations.
func Open(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &Repository{db: db, queries: NewQueries(db), loc: time.Local}, nil
}

// WithLocation sets the zone used to read date-only payloads.
func (r *Repository) WithLocation(loc *time.Location) *Repository {
	if loc != nil {
		r.loc = loc
	}
	return r
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// FetchTransactions returns every row, most recently inserted first.
func (r *Repository) FetchTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransaction(row))
	}
	return out, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}
	at, _ := core.ParseTimestamp(n.Date, r.loc)
	tx := n.Transaction(uuid.NewString(), at)

	if _, err := r.queries.InsertTransaction(ctx, fromTransaction(tx)); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"type", tx.Type,
		"amount", string(tx.Amount),
		"category", tx.CategoryName())
	return tx, nil
}

// Import stores txs, skipping ids already present. txs is expected newest
// first, as the remote API lists them, and keeps that order on fetch.
func (r *Repository) Import(ctx context.Context, txs []core.Transaction) (inserted, skipped int, err error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin import: %w", err)
	}
	defer dbtx.Rollback()

	q := r.queries.WithTx(dbtx)
	for i := len(txs) - 1; i >= 0; i-- {
		tx := txs[i]
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		n, err := q.InsertTransaction(ctx, fromTransaction(tx))
		if err != nil {
			return 0, 0, fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
		if n == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	if err := dbtx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit import: %w", err)
	}
	return inserted, skipped, nil
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountTransactions(ctx)
}

func (r *Repository) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	rows, err := r.queries.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]core.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.Notification{
			ID:        row.ID,
			Title:     row.Title,
			Message:   row.Message,
			IsRead:    row.IsRead,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func (r *Repository) MarkNotificationRead(ctx context.Context, id string) error {
	n, err := r.queries.MarkNotificationRead(ctx, id)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", id, source.ErrNotFound)
	}
	return nil
}

// AddNotification stores or replaces a notification.
func (r *Repository) AddNotification(ctx context.Context, n core.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = time.Now().In(r.loc).Format(time.RFC3339)
	}
	err := r.queries.InsertNotification(ctx, notificationRow{
		ID:        n.ID,
		Title:     n.Title,
		Message:   n.Message,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func toTransaction(row transactionRow) core.Transaction {
	tx := core.Transaction{
		ID:          row.ID,
		Amount:      core.RawAmount(row.Amount),
		Type:        row.Type,
		CreatedAt:   row.CreatedAt,
		Description: row.Description,
	}
	if row.Category.Valid {
		tx.Category = &core.Category{Name: row.Category.String}
	}
	return tx
}

func fromTransaction(tx core.Transaction) transactionRow {
	row := transactionRow{
		ID:          tx.ID,
		Amount:      string(tx.Amount),
		Type:        tx.Type,
		CreatedAt:   tx.CreatedAt,
		Description: tx.Description,
	}
	if tx.Category != nil {
		row.Category = sql.NullString{String: tx.Category.Name, Valid: true}
	}
	return row
}
