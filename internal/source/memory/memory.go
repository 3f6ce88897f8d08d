package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/source"
)

var (
	_ source.TransactionSource  = (*Store)(nil)
	_ source.TransactionWriter  = (*Store)(nil)
	_ source.NotificationSource = (*Store)(nil)
)

// Seed is the on-disk shape of a seed file. A bare transaction array is also
// accepted.
type Seed struct {
	Transactions  []core.Transaction  `json:"transactions"`
	Notifications []core.Notification `json:"notifications"`
}

// Store keeps transactions in memory in insertion order.
type Store struct {
	mu            sync.Mutex
	items         []core.Transaction
	notifications []core.Notification
	now           func() time.Time
	loc           *time.Location
}

func New(txs []core.Transaction, notes []core.Notification) *Store {
	return &Store{
		items:         slices.Clone(txs),
		notifications: slices.Clone(notes),
		now:           time.Now,
		loc:           time.Local,
	}
}

// NewFromFile loads a seed file. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil, nil), nil
		}
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(seed.Transactions, seed.Notifications), nil
}

// ParseSeed decodes either a Seed object or a bare transaction array.
func ParseSeed(data []byte) (Seed, error) {
	var txs []core.Transaction
	if err := json.Unmarshal(data, &txs); err == nil {
		return Seed{Transactions: txs}, nil
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

// WithLocation sets the zone used to read date-only payloads.
func (s *Store) WithLocation(loc *time.Location) *Store {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *Store) FetchTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

// CreateTransaction stores the record at the head of the list, the way the
// remote API lists newest entries first.
func (s *Store) CreateTransaction(_ context.Context, n core.NewTransaction) (core.Transaction, error) {
	if err := n.Validate(); err != nil {
		return core.Transaction{}, err
	}
	at, _ := core.ParseTimestamp(n.Date, s.loc)
	tx := n.Transaction(uuid.NewString(), at)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = slices.Insert(s.items, 0, tx)
	return tx, nil
}

func (s *Store) ListNotifications(_ context.Context) ([]core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notifications), nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			s.notifications[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, source.ErrNotFound)
}

// Notify adds a notification; used by seeds and tests.
func (s *Store) Notify(n core.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = s.now().Format(time.RFC3339)
	}
	s.notifications = append(s.notifications, n)
}
