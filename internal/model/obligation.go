package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes tasks from bills.
type ObligationKind string

const (
	KindTask ObligationKind = "task"
	KindBill ObligationKind = "bill"
)

// IsValid checks if the obligation kind is known.
func (k ObligationKind) IsValid() bool {
	return k == KindTask || k == KindBill
}

// Obligation is a task or bill belonging to exactly one account.
// Amount is zero for tasks. The assistant core only reads obligations;
// authoring them is the UI's concern.
type Obligation struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      ObligationKind  `json:"kind"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	DueAt     time.Time       `json:"due_at"`
	Completed bool            `json:"completed"`
	CreatedAt time.Time       `json:"created_at"`
}

// Overdue reports whether the obligation's due time has passed.
func (o *Obligation) Overdue(now time.Time) bool {
	return o.DueAt.Before(now)
}
