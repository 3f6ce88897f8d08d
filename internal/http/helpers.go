package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// maxRecentLimit caps the number of feed items a client may ask for.
const maxRecentLimit = 50

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseFeedOptions reads limit and order from the query, falling back to def.
// Limits above maxRecentLimit are clamped.
func parseFeedOptions(r *http.Request, def core.FeedOptions) (core.FeedOptions, error) {
	opts := def
	q := r.URL.Query()

	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("invalid limit %q: must be a positive integer", v)
		}
		opts.Limit = n
	}
	if opts.Limit > maxRecentLimit {
		opts.Limit = maxRecentLimit
	}

	if v := q.Get("order"); v != "" {
		order, err := core.ParseFeedOrder(v)
		if err != nil {
			return opts, err
		}
		opts.Order = order
	}
	return opts, nil
}

// decodeJSON decodes a bounded request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body larger than %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	return nil
}

// number renders a decimal as a JSON number without going through float64.
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func numbers(ds []decimal.Decimal) []json.Number {
	out := make([]json.Number, len(ds))
	for i, d := range ds {
		out[i] = number(d)
	}
	return out
}

// isValidationError reports whether err came from core.NewTransaction.Validate.
func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidType,
		core.ErrEmptyCategory,
		core.ErrInvalidDate,
		core.ErrDescriptionSize,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
