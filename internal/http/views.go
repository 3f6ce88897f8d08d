package http

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
)

// Wire shapes for the JSON API. Amounts are decimal JSON numbers.
type (
	totalsView struct {
		TotalIncome      json.Number `json:"totalIncome"`
		TotalExpense     json.Number `json:"totalExpense"`
		AvailableBalance json.Number `json:"availableBalance"`
	}

	seriesView struct {
		Year    int           `json:"year"`
		Month   int           `json:"month"`
		Labels  []string      `json:"labels"`
		Income  []json.Number `json:"income"`
		Expense []json.Number `json:"expense"`
	}

	exclusionsView struct {
		BadAmount   int `json:"badAmount"`
		UnknownType int `json:"unknownType"`
		BadDate     int `json:"badDate"`
	}

	recentView struct {
		Items []core.Transaction `json:"items"`
	}

	summaryView struct {
		Totals           totalsView         `json:"totals"`
		Series           seriesView         `json:"series"`
		Recent           []core.Transaction `json:"recent"`
		Excluded         exclusionsView     `json:"excluded"`
		TransactionCount int                `json:"transactionCount"`
		Generation       uint64             `json:"generation"`
		FetchedAt        time.Time          `json:"fetchedAt"`
		GeneratedAt      time.Time          `json:"generatedAt"`
		LastError        string             `json:"lastError,omitempty"`
	}

	notificationsView struct {
		Items []core.Notification `json:"items"`
	}

	transactionView struct {
		Transaction core.Transaction `json:"transaction"`
	}
)

func newTotalsView(t core.Totals) totalsView {
	return totalsView{
		TotalIncome:      number(t.Income),
		TotalExpense:     number(t.Expense),
		AvailableBalance: number(t.Balance),
	}
}

func newSeriesView(s core.DailySeries) seriesView {
	labels := s.Labels
	if labels == nil {
		labels = []string{}
	}
	return seriesView{
		Year:    s.Year,
		Month:   int(s.Month),
		Labels:  labels,
		Income:  numbers(s.Income),
		Expense: numbers(s.Expense),
	}
}

func newRecent(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return []core.Transaction{}
	}
	return txs
}

func newSummaryView(res dashboard.Result, lastErr error) summaryView {
	sum := res.Summary
	v := summaryView{
		Totals: newTotalsView(sum.Totals),
		Series: newSeriesView(sum.Series),
		Recent: newRecent(sum.Recent),
		Excluded: exclusionsView{
			BadAmount:   sum.Excluded.BadAmount,
			UnknownType: sum.Excluded.UnknownType,
			BadDate:     sum.Excluded.BadDate,
		},
		TransactionCount: sum.Count,
		GeneratedAt:      sum.GeneratedAt,
	}
	if res.Snapshot != nil {
		v.Generation = res.Snapshot.Generation
		v.FetchedAt = res.Snapshot.FetchedAt
	}
	if lastErr != nil {
		v.LastError = lastErr.Error()
	}
	return v
}
