package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// SummaryUpdatedMessage announces that a refresh produced a new snapshot.
type SummaryUpdatedMessage struct {
	Generation       uint64          `json:"generation"`
	TotalIncome      decimal.Decimal `json:"totalIncome"`
	TotalExpense     decimal.Decimal `json:"totalExpense"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	TransactionCount int             `json:"transactionCount"`
	Timestamp        time.Time       `json:"timestamp"`
}

func NewSummaryUpdatedMessage(generation uint64, count int, totals core.Totals) *SummaryUpdatedMessage {
	return &SummaryUpdatedMessage{
		Generation:       generation,
		TotalIncome:      totals.Income,
		TotalExpense:     totals.Expense,
		AvailableBalance: totals.Balance,
		TransactionCount: count,
		Timestamp:        time.Now(),
	}
}

func (m *SummaryUpdatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SummaryUpdatedMessageFromJSON(data []byte) (*SummaryUpdatedMessage, error) {
	var msg SummaryUpdatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
