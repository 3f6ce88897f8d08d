package sqlite

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type transactionRow struct {
	ID          string
	Amount      string
	Type        string
	CreatedAt   string
	Category    sql.NullString
	Description string
}

const listTransactions = `-- name: ListTransactions :many
SELECT id, amount, type, created_at, category, description
FROM transactions
ORDER BY seq DESC
`

func (q *Queries) ListTransactions(ctx context.Context) ([]transactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []transactionRow
	for rows.Next() {
		var i transactionRow
		if err := rows.Scan(&i.ID, &i.Amount, &i.Type, &i.CreatedAt, &i.Category, &i.Description); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertTransaction = `-- name: InsertTransaction :execrows
INSERT OR IGNORE INTO transactions (id, amount, type, created_at, category, description, seq)
VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM transactions))
`

// InsertTransaction returns 0 when the id already exists.
func (q *Queries) InsertTransaction(ctx context.Context, arg transactionRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertTransaction,
		arg.ID, arg.Amount, arg.Type, arg.CreatedAt, arg.Category, arg.Description)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countTransactions = `-- name: CountTransactions :one
SELECT COUNT(*) FROM transactions
`

func (q *Queries) CountTransactions(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countTransactions).Scan(&count)
	return count, err
}

const listNotifications = `-- name: ListNotifications :many
SELECT id, title, message, is_read, created_at
FROM notifications
ORDER BY created_at DESC, id
`

type notificationRow struct {
	ID        string
	Title     string
	Message   string
	IsRead    bool
	CreatedAt string
}

func (q *Queries) ListNotifications(ctx context.Context) ([]notificationRow, error) {
	rows, err := q.db.QueryContext(ctx, listNotifications)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []notificationRow
	for rows.Next() {
		var i notificationRow
		if err := rows.Scan(&i.ID, &i.Title, &i.Message, &i.IsRead, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertNotification = `-- name: InsertNotification :exec
INSERT OR REPLACE INTO notifications (id, title, message, is_read, created_at)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) InsertNotification(ctx context.Context, arg notificationRow) error {
	_, err := q.db.ExecContext(ctx, insertNotification, arg.ID, arg.Title, arg.Message, arg.IsRead, arg.CreatedAt)
	return err
}

const markNotificationRead = `-- name: MarkNotificationRead :execrows
UPDATE notifications SET is_read = 1 WHERE id = ?
`

func (q *Queries) MarkNotificationRead(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, markNotificationRead, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
