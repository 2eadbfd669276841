package exchange

import "errors"

// Service errors
var (
	// User-correctable
	ErrSameCurrency        = errors.New("choose two different currencies")
	ErrBaseCurrencyRoute   = errors.New("conversion is only allowed between the base currency and another currency")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Rate fetch failed and no prior snapshot exists
	ErrRatesUnavailable = errors.New("exchange rates unavailable")

	// A non-positive rate is a configuration fault, not a user error
	ErrInvalidRate = errors.New("invalid exchange rate values")

	// Data integrity
	ErrWalletNotFound = errors.New("wallet not found")

	// Generic post-transaction failure, detail goes to the logs
	ErrConversionFailed = errors.New("currency conversion failed")
)
