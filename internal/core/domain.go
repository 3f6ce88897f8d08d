package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Unknown Kind = iota
	Income
	Expense
)

type (
	// Kind is the classification of a transaction's free-text type.
	Kind int

	// RawAmount keeps the amount exactly as the source sent it. Sources send
	// either a JSON number or a string such as "5,000"; both end up here as
	// text and are only interpreted by NormalizeAmount.
	RawAmount string

	Category struct {
		Name string `json:"name"`
	}

	// Transaction is a record owned by the remote service. The core never
	// mutates it.
	Transaction struct {
		ID          string    `json:"id"`
		Amount      RawAmount `json:"amount"`
		Type        string    `json:"type"`
		CreatedAt   string    `json:"createdAt"`
		Category    *Category `json:"category,omitempty"`
		Description string    `json:"description,omitempty"`
	}

	// NewTransaction is the payload accepted by writable sources.
	NewTransaction struct {
		Amount      RawAmount `json:"amount"`
		Type        string    `json:"type"`
		Category    string    `json:"category"`
		Date        string    `json:"date"`
		Description string    `json:"description,omitempty"`
	}

	Notification struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Message   string `json:"message"`
		IsRead    bool   `json:"isRead"`
		CreatedAt string `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("type must be income or expense")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

func (k Kind) String() string {
	switch k {
	case Income:
		return "income"
	case Expense:
		return "expense"
	default:
		return "unknown"
	}
}

// Classify matches the type text case-insensitively. Anything that is not
// income or expense is Unknown and must not be counted anywhere.
func Classify(t string) Kind {
	t = strings.TrimSpace(t)
	switch {
	case strings.EqualFold(t, "income"):
		return Income
	case strings.EqualFold(t, "expense"):
		return Expense
	default:
		return Unknown
	}
}

// AmountOf builds a RawAmount from a number, as if the source had sent a JSON number.
func AmountOf(v float64) RawAmount {
	return RawAmount(strconv.FormatFloat(v, 'f', -1, 64))
}

func (a *RawAmount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = RawAmount(s)
		return nil
	}
	// Numbers, and anything else, are kept verbatim. A bool here becomes an
	// unparseable amount rather than a decode failure for the whole list.
	*a = RawAmount(data)
	return nil
}

// MarshalJSON emits the normalized number when the amount parses and the
// original text otherwise.
func (a RawAmount) MarshalJSON() ([]byte, error) {
	if d, ok := NormalizeAmount(string(a)); ok {
		return []byte(d.String()), nil
	}
	return json.Marshal(string(a))
}

// UnmarshalJSON accepts ids sent as numbers and categories sent as a bare
// name in addition to the {"name": ...} object.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	var aux struct {
		plain
		ID       json.RawMessage `json:"id"`
		Category json.RawMessage `json:"category"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := looseString(aux.ID)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	cat, err := looseCategory(aux.Category)
	if err != nil {
		return fmt.Errorf("category: %w", err)
	}
	*t = Transaction(aux.plain)
	t.ID = id
	t.Category = cat
	return nil
}

func looseString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

func looseCategory(raw json.RawMessage) (*Category, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return nil, nil
	case raw[0] == '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return nil, err
		}
		return &Category{Name: name}, nil
	default:
		var c Category
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, err
		}
		return &c, nil
	}
}

// Kind classifies the transaction type.
func (t Transaction) Kind() Kind {
	return Classify(t.Type)
}

// CategoryName returns the category name or "" when none is set.
func (t Transaction) CategoryName() string {
	if t.Category == nil {
		return ""
	}
	return t.Category.Name
}

func (n NewTransaction) Validate() error {
	d, ok := NormalizeAmount(string(n.Amount))
	if !ok || !d.IsPositive() {
		return ErrInvalidAmount
	}
	if Classify(n.Type) == Unknown {
		return ErrInvalidType
	}
	if strings.TrimSpace(n.Category) == "" {
		return ErrEmptyCategory
	}
	if _, ok := ParseTimestamp(n.Date, time.UTC); !ok {
		return ErrInvalidDate
	}
	if len(n.Description) > 200 {
		return ErrDescriptionSize
	}
	return nil
}

// Transaction converts the payload into a record with the given id and creation
// time, normalizing the type to the upper-case form the remote API uses.
func (n NewTransaction) Transaction(id string, createdAt time.Time) Transaction {
	tx := Transaction{
		ID:          id,
		Amount:      n.Amount,
		Type:        strings.ToUpper(Classify(n.Type).String()),
		CreatedAt:   createdAt.Format(time.RFC3339),
		Description: strings.TrimSpace(n.Description),
	}
	if c := strings.TrimSpace(n.Category); c != "" {
		tx.Category = &Category{Name: c}
	}
	return tx
}
