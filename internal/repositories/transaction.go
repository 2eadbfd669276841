package repositories

import (
	"fmt"

	"kobo/internal/models"

	"gorm.io/gorm"
)

// TransactionRepository is the read side of the ledger. Records are written
// through WalletRepository inside a locked transaction; reads here take no
// locks.
type TransactionRepository interface {
	ListByUser(userID uint) ([]models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) ListByUser(userID uint) ([]models.Transaction, error) {
	var transactions []models.Transaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&transactions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}
