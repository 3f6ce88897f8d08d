package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldBackend      = "backend"
	FieldGeneration   = "generation"
	FieldRefreshID    = "refresh_id"
	FieldTxCount      = "transaction_count"
	FieldTotalIncome  = "total_income"
	FieldTotalExpense = "total_expense"
	FieldBalance      = "available_balance"
	FieldSkipped      = "skipped"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentPoller    = "poller"
	ComponentDashboard = "dashboard"
	ComponentSource    = "source"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpFetch    = "fetch"
	OpRefresh  = "refresh"
	OpCreate   = "create"
	OpList     = "list"
	OpPublish  = "publish"
	OpImport   = "import"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error text; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithRefresh adds the identifiers of a single refresh attempt.
func (f LogFields) WithRefresh(refreshID string, generation uint64) LogFields {
	f[FieldRefreshID] = refreshID
	f[FieldGeneration] = generation
	return f
}

// WithTotals adds the headline numbers of a summary as strings so decimals
// are not rounded by the handler.
func (f LogFields) WithTotals(count int, income, expense, balance string) LogFields {
	f[FieldTxCount] = count
	f[FieldTotalIncome] = income
	f[FieldTotalExpense] = expense
	f[FieldBalance] = balance
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
