package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The chart shows days 5..19 of the month: the first four days are skipped and
// at most fifteen labels follow.
const (
	WindowFirstDay = 5
	WindowMaxDays  = 15
)

const (
	FeedNewestFirst FeedOrder = "newest"
	FeedUpstream    FeedOrder = "upstream"
)

type (
	// FeedOrder decides how the recent feed is ordered before it is cut.
	FeedOrder string

	// Totals are always consistent with the list they were computed from.
	Totals struct {
		Income  decimal.Decimal
		Expense decimal.Decimal
		Balance decimal.Decimal
	}

	// DailySeries holds per-day sums for the month of "now". DailyIncome and
	// DailyExpense cover the whole month (index day-1); Labels, Income and
	// Expense are the display window.
	DailySeries struct {
		Year         int
		Month        time.Month
		DaysInMonth  int
		DailyIncome  []decimal.Decimal
		DailyExpense []decimal.Decimal
		Labels       []string
		Income       []decimal.Decimal
		Expense      []decimal.Decimal
	}

	// Exclusions counts records left out of some computation.
	Exclusions struct {
		BadAmount   int
		UnknownType int
		BadDate     int
	}

	FeedOptions struct {
		Limit int
		Order FeedOrder
	}

	// Summary is everything the dashboard needs for one transaction list.
	Summary struct {
		GeneratedAt time.Time
		Count       int
		Totals      Totals
		Series      DailySeries
		Recent      []Transaction
		Excluded    Exclusions
	}
)

// ParseFeedOrder accepts "newest" and "upstream"; empty means newest.
func ParseFeedOrder(s string) (FeedOrder, error) {
	switch FeedOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", FeedNewestFirst:
		return FeedNewestFirst, nil
	case FeedUpstream:
		return FeedUpstream, nil
	default:
		return "", fmt.Errorf("unknown feed order %q", s)
	}
}

// amountOf returns the magnitude used for aggregation. The sign of the raw
// amount is ignored; only the type decides income versus expense.
func amountOf(t Transaction) (decimal.Decimal, bool) {
	d, ok := NormalizeAmount(t.Amount)
	if !ok {
		return decimal.Zero, false
	}
	return d.Abs(), true
}

// ComputeTotals sums income and expense over the whole list.
func ComputeTotals(txs []Transaction) Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		kind := t.Kind()
		if kind == Unknown {
			continue
		}
		amt, ok := amountOf(t)
		if !ok {
			continue
		}
		if kind == Income {
			income = income.Add(amt)
		} else {
			expense = expense.Add(amt)
		}
	}
	return Totals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// windowDays returns the day numbers shown on the chart for a month length.
func windowDays(daysInMonth int) []int {
	last := min(WindowFirstDay+WindowMaxDays-1, daysInMonth)
	if last < WindowFirstDay {
		return nil
	}
	days := make([]int, 0, last-WindowFirstDay+1)
	for d := WindowFirstDay; d <= last; d++ {
		days = append(days, d)
	}
	return days
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

// ComputeDailySeries buckets current-month transactions by day of month in
// now's location. Records outside the month or with unparseable timestamps are
// left out of the series.
func ComputeDailySeries(txs []Transaction, now time.Time) DailySeries {
	loc := now.Location()
	year, month, _ := now.Date()
	days := DaysIn(year, month, loc)

	s := DailySeries{
		Year:         year,
		Month:        month,
		DaysInMonth:  days,
		DailyIncome:  zeros(days),
		DailyExpense: zeros(days),
	}

	for _, t := range txs {
		kind := t.Kind()
		if kind == Unknown {
			continue
		}
		amt, ok := amountOf(t)
		if !ok {
			continue
		}
		ts, ok := ParseTimestamp(t.CreatedAt, loc)
		if !ok {
			continue
		}
		y, m, d := ts.Date()
		if y != year || m != month {
			continue
		}
		if kind == Income {
			s.DailyIncome[d-1] = s.DailyIncome[d-1].Add(amt)
		} else {
			s.DailyExpense[d-1] = s.DailyExpense[d-1].Add(amt)
		}
	}

	window := windowDays(days)
	s.Labels = make([]string, len(window))
	s.Income = make([]decimal.Decimal, len(window))
	s.Expense = make([]decimal.Decimal, len(window))
	for i, d := range window {
		s.Labels[i] = strconv.Itoa(d)
		s.Income[i] = s.DailyIncome[d-1]
		s.Expense[i] = s.DailyExpense[d-1]
	}
	return s
}

// RecentFeed returns at most limit transactions. With FeedNewestFirst the list
// is stable-sorted by createdAt descending first; records whose timestamp does
// not parse go last in their original order. Timestamps without a zone are
// read in loc, as ComputeDailySeries does. The input is never modified.
func RecentFeed(txs []Transaction, limit int, order FeedOrder, loc *time.Location) []Transaction {
	if limit <= 0 || len(txs) == 0 {
		return []Transaction{}
	}

	if order != FeedUpstream {
		if loc == nil {
			loc = time.UTC
		}
		type keyed struct {
			t  Transaction
			at time.Time
			ok bool
		}
		ks := make([]keyed, len(txs))
		for i, t := range txs {
			at, ok := ParseTimestamp(t.CreatedAt, loc)
			ks[i] = keyed{t: t, at: at, ok: ok}
		}
		slices.SortStableFunc(ks, func(a, b keyed) int {
			switch {
			case a.ok && !b.ok:
				return -1
			case !a.ok && b.ok:
				return 1
			case !a.ok && !b.ok:
				return 0
			}
			return b.at.Compare(a.at)
		})
		n := min(limit, len(ks))
		out := make([]Transaction, n)
		for i := range out {
			out[i] = ks[i].t
		}
		return out
	}

	n := min(limit, len(txs))
	out := make([]Transaction, n)
	copy(out, txs[:n])
	return out
}

// CountExclusions reports how many records each computation had to skip.
// A record can show up in more than one counter.
func CountExclusions(txs []Transaction, loc *time.Location) Exclusions {
	var ex Exclusions
	for _, t := range txs {
		if t.Kind() == Unknown {
			ex.UnknownType++
		}
		if _, ok := NormalizeAmount(t.Amount); !ok {
			ex.BadAmount++
		}
		if _, ok := ParseTimestamp(t.CreatedAt, loc); !ok {
			ex.BadDate++
		}
	}
	return ex
}

// Summarize computes totals, the daily series and the recent feed for one
// evaluation instant.
func Summarize(txs []Transaction, now time.Time, feed FeedOptions) Summary {
	return Summary{
		GeneratedAt: now,
		Count:       len(txs),
		Totals:      ComputeTotals(txs),
		Series:      ComputeDailySeries(txs, now),
		Recent:      RecentFeed(txs, feed.Limit, feed.Order, now.Location()),
		Excluded:    CountExclusions(txs, now.Location()),
	}
}
