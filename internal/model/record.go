package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the entity type of a record.
type Kind string

const (
	KindExpense  Kind = "expense"
	KindTransfer Kind = "transfer"
)

// Origin records how a record entered the ledger.
type Origin string

const (
	OriginInteractive Origin = "interactive"
	OriginBatch       Origin = "batch"
)

// Record is an expense or transfer, either validated from an import row or
// loaded from the store.
type Record struct {
	ID           int64
	Kind         Kind
	ExternalID   string // optional, unique per kind when set
	AccountID    int
	ToAccountID  int // transfers only
	Amount       decimal.Decimal
	CurrencyCode string
	Description  string
	TagIDs       []int
	UserID       int       // 0 = unattributed
	Date         time.Time // zero = undated
	Origin       Origin
	BatchID      string
}

// HasDate reports whether the record carries a date.
func (r Record) HasDate() bool {
	return !r.Date.IsZero()
}
