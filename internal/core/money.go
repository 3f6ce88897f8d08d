// Package core turns raw transaction lists into the numbers a finance dashboard
// shows: totals, a daily series for the current month and a recent feed.
//
// This file contains amount and timestamp normalization. Sources are sloppy
// about both, so every parse here reports failure instead of returning an error
// and callers exclude the record from whatever they are computing.
package core

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// NormalizeAmount converts a raw amount into a decimal.
//
// It accepts numeric Go values, decimals, json.Number, RawAmount and strings.
// Strings may carry comma thousands-separators and whitespace, both of which
// are stripped before parsing. The second result is false when the value
// cannot be parsed (or is NaN/Inf); the returned decimal is then zero.
//
// Examples:
//
//	NormalizeAmount("1,200.50") -> 1200.5, true
//	NormalizeAmount(" 5 000 ") -> 5000, true
//	NormalizeAmount(2000)      -> 2000, true
//	NormalizeAmount("abc")     -> 0, false
func NormalizeAmount(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case json.Number:
		return parseAmountText(string(v))
	case RawAmount:
		return parseAmountText(string(v))
	case string:
		return parseAmountText(v)
	default:
		return decimal.Zero, false
	}
}

func fromFloat(f float64) (decimal.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

func parseAmountText(s string) (decimal.Decimal, bool) {
	s = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Layouts with an explicit zone are converted into the target location; the
// rest are read as wall-clock time in it.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z0700",
		"2006-01-02T15:04:05.999999999Z0700",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
)

// ParseTimestamp parses an ISO-8601-ish timestamp and returns it in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
