package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's balance in a single currency. A verified user has
// exactly one wallet row per supported currency; balances only change
// inside a locked storage transaction.
type Wallet struct {
	ID        uint            `json:"-" gorm:"primarykey"`
	UserID    uint            `json:"user_id" gorm:"uniqueIndex:idx_wallet_user_currency;not null"`
	Currency  string          `json:"currency" gorm:"uniqueIndex:idx_wallet_user_currency;not null;size:3"`
	Balance   decimal.Decimal `json:"balance" gorm:"type:numeric(26,8);not null;default:0"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
