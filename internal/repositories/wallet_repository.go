package repositories

import (
	"errors"

	"kobo/internal/models"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateWallet     = errors.New("wallet already exists")
)

// WalletRepository defines the database operations for wallets and their
// ledger records. Implementations returned by ExecuteInTransaction are
// scoped to that transaction; LockForUpdate and Save must only be called
// on such a scoped repository.
type WalletRepository interface {
	// Core wallet operations
	CreateBatch(wallets []*models.Wallet) error
	GetByUserAndCurrency(userID uint, currency string) (*models.Wallet, error)
	GetAllByUser(userID uint) ([]models.Wallet, error)

	// Locked operations, valid only inside ExecuteInTransaction
	LockForUpdate(userID uint, currency string) (*models.Wallet, error)
	Save(wallet *models.Wallet) error

	// Ledger records, append-only
	CreateTransaction(txn *models.Transaction) error
	FindTransactionByReference(reference string) (*models.Transaction, error)

	// ExecuteInTransaction runs fn inside a single storage transaction.
	// Row locks taken via LockForUpdate are released on commit or rollback.
	ExecuteInTransaction(fn func(tx WalletRepository) error) error
}
