package wallet

import "errors"

// Service errors
var (
	// User-correctable
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrBaseCurrencyOnly    = errors.New("wallets can only be funded in the base currency")
	ErrDuplicateReference  = errors.New("transaction with this reference already exists")

	// Data integrity: a verified user always has one wallet per currency
	ErrWalletNotFound = errors.New("wallet not found")

	// Generic post-transaction failure, detail goes to the logs
	ErrTransactionFailed = errors.New("transaction failed")
)
