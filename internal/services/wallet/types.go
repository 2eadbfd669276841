package wallet

import (
	"context"

	"kobo/internal/models"

	"github.com/shopspring/decimal"
)

// Service funds wallets and answers balance and history queries.
// Balance mutations happen inside a single locked storage transaction;
// any failure after the transaction opens rolls the whole operation back.
type Service interface {
	// CreateWalletsForUser creates one zero-balance wallet per supported
	// currency in a single batch. Called once, at account verification.
	CreateWalletsForUser(ctx context.Context, userID uint) ([]models.Wallet, error)

	// Fund credits the user's base-currency wallet and appends the
	// matching deposit record. Idempotent on a caller-supplied reference.
	Fund(ctx context.Context, userID uint, req FundRequest) (*models.Transaction, error)

	GetWallets(ctx context.Context, userID uint) ([]models.Wallet, error)
	GetBalance(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetTransactionHistory(ctx context.Context, userID uint) ([]models.Transaction, error)
}

// FundRequest is a deposit into the base-currency wallet.
type FundRequest struct {
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// Config holds the currency universe for wallet operations.
type Config struct {
	BaseCurrency        string
	SupportedCurrencies []string
}

// Supported reports whether currency is part of the configured universe.
func (c Config) Supported(currency string) bool {
	for _, cur := range c.SupportedCurrencies {
		if cur == currency {
			return true
		}
	}
	return false
}
