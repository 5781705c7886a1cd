package core

// Summary is the aggregate view of the ledger used by dashboards.
type Summary struct {
	TotalBalanceCents     int64 `json:"totalBalanceCents"`
	NonCardBalanceCents   int64 `json:"nonCardBalanceCents"`
	CardBalanceCents      int64 `json:"cardBalanceCents"`
	TargetAllocationCents int64 `json:"targetAllocationCents"`
	BankBalanceCents      int64 `json:"bankBalanceCents"`
	ActiveEnvelopes       int   `json:"activeEnvelopes"`
	TransactionCount      int   `json:"transactionCount"`
}
