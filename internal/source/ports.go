// Package source defines where transactions come from. Every implementation
// returns the full current list; callers replace, never merge.
package source

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	// ErrNotSupported is returned by backends that lack an optional capability.
	ErrNotSupported = errors.New("operation not supported by this backend")
	ErrNotFound     = errors.New("not found")
)

// Ports for outbound adapters.
type (
	TransactionSource interface {
		FetchTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionWriter records a new income or expense and returns the stored
	// record.
	TransactionWriter interface {
		CreateTransaction(ctx context.Context, n core.NewTransaction) (core.Transaction, error)
	}

	NotificationSource interface {
		ListNotifications(ctx context.Context) ([]core.Notification, error)
		MarkNotificationRead(ctx context.Context, id string) error
	}
)
