package core

import (
	"fmt"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// September 2025 has 30 days.
var sept15 = time.Date(2025, time.September, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func tx(id string, amount RawAmount, typ, createdAt string) Transaction {
	return Transaction{ID: id, Amount: amount, Type: typ, CreatedAt: createdAt}
}

func TestComputeTotalsScenario(t *testing.T) {
	txs := []Transaction{
		tx("1", "5,000", "income", "2025-09-10T08:00:00Z"),
		tx("2", AmountOf(2000), "expense", "2025-09-10T09:00:00Z"),
	}
	got := ComputeTotals(txs)
	if !got.Income.Equal(dec("5000")) || !got.Expense.Equal(dec("2000")) || !got.Balance.Equal(dec("3000")) {
		t.Fatalf("unexpected totals: %+v", got)
	}

	s := ComputeDailySeries(txs, sept15)
	if !s.DailyIncome[9].Equal(dec("5000")) || !s.DailyExpense[9].Equal(dec("2000")) {
		t.Fatalf("day 10 slot: income=%s expense=%s", s.DailyIncome[9], s.DailyExpense[9])
	}
	i := slices.Index(s.Labels, "10")
	if i < 0 {
		t.Fatalf("day 10 missing from window labels %v", s.Labels)
	}
	if !s.Income[i].Equal(dec("5000")) || !s.Expense[i].Equal(dec("2000")) {
		t.Fatalf("window day 10: income=%s expense=%s", s.Income[i], s.Expense[i])
	}
}

func TestEmptyInput(t *testing.T) {
	got := Summarize(nil, sept15, FeedOptions{Limit: 5})
	if !got.Totals.Income.IsZero() || !got.Totals.Expense.IsZero() || !got.Totals.Balance.IsZero() {
		t.Fatalf("expected zero totals, got %+v", got.Totals)
	}
	if len(got.Recent) != 0 {
		t.Fatalf("expected empty feed, got %d", len(got.Recent))
	}
	for i := range got.Series.Labels {
		if !got.Series.Income[i].IsZero() || !got.Series.Expense[i].IsZero() {
			t.Fatalf("expected zero series at %s", got.Series.Labels[i])
		}
	}
	if got.Count != 0 || got.Excluded != (Exclusions{}) {
		t.Fatalf("unexpected counters: count=%d excluded=%+v", got.Count, got.Excluded)
	}
}

func TestTotalsInvariant(t *testing.T) {
	lists := [][]Transaction{
		{tx("a", "10.10", "income", ""), tx("b", "0.2", "expense", "")},
		{tx("a", "1,000,000.01", "INCOME", ""), tx("b", "999,999.99", "EXPENSE", ""), tx("c", "-3", "expense", "")},
		{tx("a", "7", "expense", "")},
		{tx("a", "abc", "income", ""), tx("b", "4", "refund", "")},
	}
	for i, txs := range lists {
		got := ComputeTotals(txs)
		if !got.Income.Sub(got.Expense).Equal(got.Balance) {
			t.Fatalf("list %d: %s - %s != %s", i, got.Income, got.Expense, got.Balance)
		}
	}
}

func TestNegativeRawAmountUsesMagnitude(t *testing.T) {
	got := ComputeTotals([]Transaction{tx("a", "-250", "expense", "")})
	if !got.Expense.Equal(dec("250")) || !got.Balance.Equal(dec("-250")) {
		t.Fatalf("sign should come from type only: %+v", got)
	}
}

func TestUnknownTypeExcluded(t *testing.T) {
	txs := []Transaction{
		tx("a", "100", "income", "2025-09-06T00:00:00Z"),
		tx("b", "50", "transfer", "2025-09-06T00:00:00Z"),
	}
	got := ComputeTotals(txs)
	if !got.Income.Equal(dec("100")) || !got.Expense.IsZero() {
		t.Fatalf("transfer must not be counted: %+v", got)
	}
	s := ComputeDailySeries(txs, sept15)
	if !s.DailyExpense[5].IsZero() {
		t.Fatalf("transfer must not reach the series: %s", s.DailyExpense[5])
	}
}

func TestWindowLabels(t *testing.T) {
	expect := func(from, to int) []string {
		var out []string
		for d := from; d <= to; d++ {
			out = append(out, strconv.Itoa(d))
		}
		return out
	}
	cases := []struct {
		now  time.Time
		want []string
	}{
		{sept15, expect(5, 19)}, // 30 days
		{time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC), expect(5, 19)}, // 28 days
		{time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), expect(5, 19)},
		{time.Date(2025, time.October, 31, 0, 0, 0, 0, time.UTC), expect(5, 19)},
	}
	for _, tc := range cases {
		s := ComputeDailySeries(nil, tc.now)
		if !slices.Equal(s.Labels, tc.want) {
			t.Fatalf("%s: labels %v, want %v", tc.now.Format("2006-01"), s.Labels, tc.want)
		}
		if len(s.Income) != len(s.Labels) || len(s.Expense) != len(s.Labels) {
			t.Fatalf("series not aligned with labels")
		}
		if len(s.DailyIncome) != s.DaysInMonth || len(s.DailyExpense) != s.DaysInMonth {
			t.Fatalf("month arrays should have %d slots", s.DaysInMonth)
		}
	}
}

func TestWindowDaysClipped(t *testing.T) {
	for _, days := range []int{4, 5, 12, 17, 19, 20, 28, 31} {
		got := windowDays(days)
		if len(got) > WindowMaxDays {
			t.Fatalf("%d days: window has %d labels", days, len(got))
		}
		for _, d := range got {
			if d < WindowFirstDay || d > days {
				t.Fatalf("%d days: label %d out of range", days, d)
			}
		}
		want := min(19, days) - WindowFirstDay + 1
		if want < 0 {
			want = 0
		}
		if len(got) != want {
			t.Fatalf("%d days: got %d labels, want %d", days, len(got), want)
		}
	}
}

func TestOutOfMonthCountsInTotalsOnly(t *testing.T) {
	txs := []Transaction{
		tx("last-month", "300", "income", "2025-08-10T10:00:00Z"),
		tx("last-year", "40", "expense", "2024-09-10T10:00:00Z"),
		tx("this-month", "100", "income", "2025-09-10T10:00:00Z"),
	}
	totals := ComputeTotals(txs)
	if !totals.Income.Equal(dec("400")) || !totals.Expense.Equal(dec("40")) {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	s := ComputeDailySeries(txs, sept15)
	sumIncome, sumExpense := decimal.Zero, decimal.Zero
	for d := 0; d < s.DaysInMonth; d++ {
		sumIncome = sumIncome.Add(s.DailyIncome[d])
		sumExpense = sumExpense.Add(s.DailyExpense[d])
	}
	if !sumIncome.Equal(dec("100")) || !sumExpense.IsZero() {
		t.Fatalf("series should only hold this month: income=%s expense=%s", sumIncome, sumExpense)
	}
}

func TestDayBucketingUsesNowLocation(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	now := time.Date(2025, time.September, 15, 12, 0, 0, 0, nairobi)
	// 22:30 UTC on the 9th is 01:30 on the 10th in Nairobi.
	s := ComputeDailySeries([]Transaction{tx("a", "10", "expense", "2025-09-09T22:30:00Z")}, now)
	if !s.DailyExpense[9].Equal(dec("10")) || !s.DailyExpense[8].IsZero() {
		t.Fatalf("expected bucketing on day 10: day9=%s day10=%s", s.DailyExpense[8], s.DailyExpense[9])
	}
}

func TestMalformedRecordDoesNotDisturbOthers(t *testing.T) {
	valid := []Transaction{
		tx("1", "5,000", "income", "2025-09-10T08:00:00Z"),
		tx("2", AmountOf(2000), "expense", "2025-09-10T09:00:00Z"),
	}
	mixed := append([]Transaction{tx("bad", "abc", "income", "not-a-date")}, valid...)

	want := Summarize(valid, sept15, FeedOptions{Limit: 5})
	got := Summarize(mixed, sept15, FeedOptions{Limit: 5})

	if !got.Totals.Income.Equal(want.Totals.Income) || !got.Totals.Expense.Equal(want.Totals.Expense) {
		t.Fatalf("malformed record changed totals: %+v vs %+v", got.Totals, want.Totals)
	}
	for i := range want.Series.DailyIncome {
		if !got.Series.DailyIncome[i].Equal(want.Series.DailyIncome[i]) {
			t.Fatalf("malformed record changed series at day %d", i+1)
		}
	}
	if got.Excluded.BadAmount != 1 || got.Excluded.BadDate != 1 || got.Excluded.UnknownType != 0 {
		t.Fatalf("unexpected exclusions: %+v", got.Excluded)
	}
}

func TestBadDateStillCountsInTotals(t *testing.T) {
	txs := []Transaction{tx("a", "75", "expense", "yesterday-ish")}
	if got := ComputeTotals(txs); !got.Expense.Equal(dec("75")) {
		t.Fatalf("bad date should still count in totals: %+v", got)
	}
	s := ComputeDailySeries(txs, sept15)
	for d := range s.DailyExpense {
		if !s.DailyExpense[d].IsZero() {
			t.Fatalf("bad date reached the series at day %d", d+1)
		}
	}
}

func TestRecentFeed(t *testing.T) {
	txs := []Transaction{
		tx("old", "1", "income", "2025-09-01T08:00:00Z"),
		tx("broken", "1", "income", "???"),
		tx("newest", "1", "income", "2025-09-14T08:00:00Z"),
		tx("mid", "1", "expense", "2025-09-08T08:00:00Z"),
		tx("mid-2", "1", "expense", "2025-09-08T08:00:00Z"),
		tx("older", "1", "expense", "2025-08-30T08:00:00Z"),
	}
	ids := func(in []Transaction) []string {
		out := make([]string, len(in))
		for i, t := range in {
			out[i] = t.ID
		}
		return out
	}

	cases := []struct {
		limit int
		order FeedOrder
		want  []string
	}{
		{4, FeedUpstream, []string{"old", "broken", "newest", "mid"}},
		{4, FeedNewestFirst, []string{"newest", "mid", "mid-2", "old"}},
		{10, FeedNewestFirst, []string{"newest", "mid", "mid-2", "old", "older", "broken"}},
		{10, FeedUpstream, []string{"old", "broken", "newest", "mid", "mid-2", "older"}},
		{0, FeedNewestFirst, []string{}},
		{-1, FeedUpstream, []string{}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s_%d", tc.order, tc.limit), func(t *testing.T) {
			got := ids(RecentFeed(txs, tc.limit, tc.order, time.UTC))
			if !slices.Equal(got, tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}

	if txs[0].ID != "old" || txs[2].ID != "newest" {
		t.Fatalf("input slice was reordered")
	}
}

func TestRecentFeedZonelessReadInLocation(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	txs := []Transaction{
		tx("zoneless", "1", "income", "2026-10-10T10:00:00"),    // 10:00 local
		tx("zoned", "1", "income", "2026-10-10T08:00:00+00:00"), // 11:00 local
	}
	got := RecentFeed(txs, 2, FeedNewestFirst, loc)
	if got[0].ID != "zoned" || got[1].ID != "zoneless" {
		t.Fatalf("feed order %s, %s; want zoned, zoneless", got[0].ID, got[1].ID)
	}

	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, loc)
	sum := Summarize(txs, now, FeedOptions{Limit: 2, Order: FeedNewestFirst})
	if sum.Recent[0].ID != "zoned" {
		t.Fatalf("Summarize feed starts with %s, want zoned", sum.Recent[0].ID)
	}
}

func TestParseFeedOrder(t *testing.T) {
	for in, want := range map[string]FeedOrder{"": FeedNewestFirst, "NEWEST": FeedNewestFirst, "upstream": FeedUpstream} {
		got, err := ParseFeedOrder(in)
		if err != nil || got != want {
			t.Fatalf("ParseFeedOrder(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFeedOrder("random"); err == nil {
		t.Fatalf("expected error for unknown order")
	}
}
