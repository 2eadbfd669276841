package exchange

import (
	"context"
	"time"

	"kobo/internal/models"

	"github.com/shopspring/decimal"
)

// Service converts balances between a user's wallets at the current
// cached rate. All conversions route through the base currency.
type Service interface {
	// GetRates returns the current snapshot, refreshing it when stale.
	GetRates(ctx context.Context) (Snapshot, error)

	// Convert moves value between two wallets of one user and returns the
	// credit leg. The paired debit leg shares the generated reference.
	Convert(ctx context.Context, userID uint, req ConvertRequest) (*models.Transaction, error)
}

// ConvertRequest describes one conversion.
type ConvertRequest struct {
	Amount       decimal.Decimal `json:"amount"`
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
}

// Snapshot is one immutable view of the rate table. Rates are expressed
// relative to the base currency, whose rate is always exactly 1. The map
// is never mutated after publication; it is replaced wholesale on refresh.
type Snapshot struct {
	Rates       map[string]decimal.Decimal `json:"rates"`
	LastUpdated time.Time                  `json:"last_updated"`
	NextUpdate  time.Time                  `json:"next_update"`
}

// Quote is a provider response: rates relative to the base currency plus
// the provider's advertised next-update time.
type Quote struct {
	Rates      map[string]decimal.Decimal
	NextUpdate time.Time
}

// Provider fetches current rates from an external source. Implementations
// must bound the call with a timeout; the cache treats a malformed
// response exactly like a network failure.
type Provider interface {
	FetchRates(ctx context.Context) (*Quote, error)
}
