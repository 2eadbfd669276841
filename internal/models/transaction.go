package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeConversion = "conversion"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is an immutable ledger record. Rows are only ever inserted;
// a conversion writes two rows (debit and credit) sharing one reference,
// a deposit writes one credit row. Negative amounts are debits.
type Transaction struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	UserID      uint            `json:"user_id" gorm:"index;not null"`
	Type        string          `json:"type" gorm:"not null"`
	Currency    string          `json:"currency" gorm:"not null;size:3"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:numeric(26,8);not null"`
	Status      string          `json:"status" gorm:"not null;default:'pending'"`
	Reference   string          `json:"reference,omitempty" gorm:"index"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"-"`
}
