package core

import (
	"errors"
	"strings"
	"time"
)

// Fixed identifiers for the two core envelopes. They are deterministic so
// that repair after a corrupt or partial load always converges on the
// same entities.
const (
	IncomeEnvelopeID   = "income"
	OverflowEnvelopeID = "overflow"

	IncomeEnvelopeName   = "Income"
	OverflowEnvelopeName = "Overflow"
)

// TimestampFormat is the single textual format for transaction timestamps.
// It is fixed-width and UTC-normalized, so lexicographic comparison of two
// timestamps equals chronological comparison. Retention pruning relies on
// this property.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

const DefaultRetentionDays = 365

type (
	// Envelope is a named bucket of money. Balances are integer cents and
	// are authoritative state, not a projection of transaction history.
	Envelope struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		TargetCents  int64  `json:"targetCents"`
		BalanceCents int64  `json:"balanceCents"`
		IsIncome     bool   `json:"isIncome"`
		IsOverflow   bool   `json:"isOverflow"`
		IsCreditCard bool   `json:"isCreditCard"`
		IsActive     bool   `json:"isActive"`
	}

	// Transaction moves money between envelopes, or in/out of the system
	// when one side is empty. Envelope references are weak: they are ids
	// only, and the referenced envelope may no longer exist.
	Transaction struct {
		ID             string `json:"id"`
		Timestamp      string `json:"timestamp"`
		FromEnvelopeID string `json:"fromEnvelopeId,omitempty"`
		ToEnvelopeID   string `json:"toEnvelopeId,omitempty"`
		AmountCents    int64  `json:"amountCents"`
		Note           string `json:"note"`
	}

	Settings struct {
		TransactionRetentionDays int `json:"transactionRetentionDays"`
	}

	// State is the shared mutable aggregate and the unit of persistence.
	State struct {
		Envelopes        []*Envelope   `json:"envelopes"`
		Transactions     []Transaction `json:"transactions"`
		BankBalanceCents int64         `json:"bankBalanceCents"`
		Settings         Settings      `json:"settings"`
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyName            = errors.New("empty envelope name")
	ErrEnvelopeNotFound     = errors.New("envelope not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrCoreEnvelope         = errors.New("core envelope cannot be deleted")
	ErrNoIncomeEnvelope     = errors.New("income envelope not found")
	ErrNoAllocationTargets  = errors.New("no envelopes with an allocation target")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrCardBalanceNonzero   = errors.New("credit card balance must be zero before deletion")
)

// IsCore reports whether the envelope is one of the two singleton core
// envelopes. Core envelopes are never deleted, never deactivated, and
// carry no allocation target.
func (e *Envelope) IsCore() bool {
	return e.IsIncome || e.IsOverflow
}

func (e *Envelope) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 100 {
		return errors.New("envelope name too long (max 100 characters)")
	}
	if e.TargetCents < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if t.FromEnvelopeID == "" && t.ToEnvelopeID == "" {
		return errors.New("transaction must reference at least one envelope")
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

// FormatTimestamp renders an instant in the canonical transaction
// timestamp format.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// FindEnvelope returns the envelope with the given id, or nil. An empty id
// never resolves.
func (s *State) FindEnvelope(id string) *Envelope {
	if id == "" {
		return nil
	}
	for _, e := range s.Envelopes {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// FindTransaction returns the index of the transaction with the given id,
// or -1.
func (s *State) FindTransaction(id string) int {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}

// IncomeEnvelope returns the first envelope flagged as Income, or nil.
// After the registry's repair pass there is exactly one.
func (s *State) IncomeEnvelope() *Envelope {
	for _, e := range s.Envelopes {
		if e.IsIncome {
			return e
		}
	}
	return nil
}

// OverflowEnvelope returns the first envelope flagged as Overflow, or nil.
func (s *State) OverflowEnvelope() *Envelope {
	for _, e := range s.Envelopes {
		if e.IsOverflow {
			return e
		}
	}
	return nil
}

// EnvelopeName resolves an envelope id to a display name, falling back to
// a placeholder for ids whose envelope has been purged and to "Outside"
// for the empty id.
func (s *State) EnvelopeName(id string) string {
	if id == "" {
		return "Outside"
	}
	if e := s.FindEnvelope(id); e != nil {
		return e.Name
	}
	return "(deleted envelope)"
}

// NewState returns an empty state with default settings. Core envelopes
// are created by the registry's repair pass, not here.
func NewState() *State {
	return &State{
		Envelopes:    []*Envelope{},
		Transactions: []Transaction{},
		Settings:     Settings{TransactionRetentionDays: DefaultRetentionDays},
	}
}
