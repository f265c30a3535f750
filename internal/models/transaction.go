package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction status values. A transaction starts PENDING and is moved
// exactly once to one of the terminal values before it is persisted.
const (
	StatusPending = "PENDING"
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Transaction represents a single transfer attempt between two accounts.
// Records are append-only: once written with a terminal status they are
// never mutated again.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	SourceAccountID uuid.UUID       `json:"source_account_id"`
	TargetAccountID uuid.UUID       `json:"target_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewTransaction constructs a PENDING transaction with the creation
// timestamp set. The ID is assigned by the transaction store on save.
func NewTransaction(sourceAccountID, targetAccountID uuid.UUID, amount decimal.Decimal) *Transaction {
	return &Transaction{
		SourceAccountID: sourceAccountID,
		TargetAccountID: targetAccountID,
		Amount:          amount,
		Status:          StatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}
