package sheets

import "context"

// HistoryEntry is one recorded ledger movement, ready for a spreadsheet
// row. Amounts are integer cents; the adapter decides presentation.
type HistoryEntry struct {
	TransactionID string
	Timestamp     string
	FromName      string
	ToName        string
	AmountCents   int64
	Note          string
}

// Ports for outbound adapters.
type HistoryAppender interface {
	Append(ctx context.Context, e HistoryEntry) (rowRef string, err error)
}
