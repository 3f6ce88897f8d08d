package sheets

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
)

var requiredHeaders = []string{"ID", "Amount", "Type", "CreatedAt"}

// parseTransactions converts a values matrix with a header row into
// transactions. Amounts are kept as the cell text; blank rows are skipped.
func parseTransactions(values [][]any) ([]core.Transaction, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := map[string]int{}
	var missing []string
	for _, h := range append(requiredHeaders, "Category", "Description") {
		cols[h] = indexOf(headers, h)
	}
	for _, h := range requiredHeaders {
		if cols[h] == -1 {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]core.Transaction, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := toStrings(raw)
		tx := core.Transaction{
			ID:          safeGet(row, cols["ID"]),
			Amount:      core.RawAmount(safeGet(row, cols["Amount"])),
			Type:        safeGet(row, cols["Type"]),
			CreatedAt:   safeGet(row, cols["CreatedAt"]),
			Description: safeGet(row, cols["Description"]),
		}
		if name := safeGet(row, cols["Category"]); name != "" {
			tx.Category = &core.Category{Name: name}
		}
		if tx.ID == "" && tx.Amount == "" && tx.Type == "" {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
