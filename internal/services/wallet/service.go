package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kobo/internal/metrics"
	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/sirupsen/logrus"
)

type service struct {
	repo    repositories.WalletRepository
	txRepo  repositories.TransactionRepository
	cache   repositories.CacheRepository
	config  Config
	metrics metrics.Collector
	log     *logrus.Logger
}

// NewService creates a new wallet service
func NewService(
	repo repositories.WalletRepository,
	txRepo repositories.TransactionRepository,
	cache repositories.CacheRepository,
	config Config,
	collector metrics.Collector,
	log *logrus.Logger,
) Service {
	if repo == nil {
		panic("wallet repository is required")
	}
	if txRepo == nil {
		panic("transaction repository is required")
	}
	if cache == nil {
		panic("cache is required")
	}

	if config.BaseCurrency == "" {
		config.BaseCurrency = DefaultBaseCurrency
	}
	if len(config.SupportedCurrencies) == 0 {
		config.SupportedCurrencies = DefaultSupportedCurrencies
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &service{
		repo:    repo,
		txRepo:  txRepo,
		cache:   cache,
		config:  config,
		metrics: collector,
		log:     log,
	}
}

func (s *service) CreateWalletsForUser(ctx context.Context, userID uint) ([]models.Wallet, error) {
	wallets := make([]*models.Wallet, 0, len(s.config.SupportedCurrencies))
	for _, currency := range s.config.SupportedCurrencies {
		wallets = append(wallets, &models.Wallet{
			UserID:   userID,
			Currency: currency,
		})
	}

	if err := s.repo.CreateBatch(wallets); err != nil {
		return nil, fmt.Errorf("failed to create wallets for user %d: %w", userID, err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"currencies": s.config.SupportedCurrencies,
	}).Info("created wallets for verified user")

	created := make([]models.Wallet, 0, len(wallets))
	for _, w := range wallets {
		created = append(created, *w)
	}
	return created, nil
}

// Fund credits the base-currency wallet inside one locked transaction.
// The duplicate-reference check runs after the wallet lock is held, so two
// concurrent submissions with the same reference cannot both pass it.
func (s *service) Fund(ctx context.Context, userID uint, req FundRequest) (*models.Transaction, error) {
	started := time.Now()
	currency := strings.ToUpper(req.Currency)

	if currency != s.config.BaseCurrency {
		return nil, fmt.Errorf("%w: fund in %s and convert to other currencies", ErrBaseCurrencyOnly, s.config.BaseCurrency)
	}
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	var txn *models.Transaction
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		wallet, err := tx.LockForUpdate(userID, currency)
		if err != nil {
			return err
		}

		if req.Reference != "" {
			_, err := tx.FindTransactionByReference(req.Reference)
			if err == nil {
				return ErrDuplicateReference
			}
			if !errors.Is(err, repositories.ErrTransactionNotFound) {
				return err
			}
		}

		txn = &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionTypeDeposit,
			Currency:    currency,
			Amount:      req.Amount,
			Status:      models.TransactionStatusCompleted,
			Reference:   req.Reference,
			Description: fmt.Sprintf("Wallet funding - %s", currency),
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return err
		}

		wallet.Balance = wallet.Balance.Add(req.Amount)
		return tx.Save(wallet)
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateReference):
			return nil, ErrDuplicateReference
		case errors.Is(err, repositories.ErrWalletNotFound):
			return nil, ErrWalletNotFound
		}
		s.metrics.RecordError("fund", "transaction")
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":   userID,
			"currency":  currency,
			"reference": req.Reference,
		}).Error("funding transaction rolled back")
		return nil, ErrTransactionFailed
	}

	if err := s.cache.InvalidateWallets(ctx, userID, currency); err != nil {
		s.log.WithError(err).Warn("failed to invalidate wallet cache")
	}

	s.metrics.RecordTransaction(models.TransactionTypeDeposit, currency, req.Amount.InexactFloat64())
	s.metrics.RecordOperationDuration("fund", time.Since(started))

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"currency":  currency,
		"amount":    req.Amount.String(),
		"reference": req.Reference,
	}).Info("wallet funded")

	return txn, nil
}

func (s *service) GetWallets(ctx context.Context, userID uint) ([]models.Wallet, error) {
	if wallets, err := s.cache.GetWallets(ctx, userID); err == nil {
		s.metrics.RecordCacheHit("wallets")
		return wallets, nil
	}
	s.metrics.RecordCacheMiss("wallets")

	wallets, err := s.repo.GetAllByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}

	if err := s.cache.SetWallets(ctx, userID, wallets); err != nil {
		s.log.WithError(err).Warn("failed to cache wallets")
	}
	return wallets, nil
}

func (s *service) GetBalance(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	currency = strings.ToUpper(currency)
	if !s.config.Supported(currency) {
		return nil, ErrUnsupportedCurrency
	}

	if wallet, err := s.cache.GetWallet(ctx, userID, currency); err == nil {
		s.metrics.RecordCacheHit("wallet")
		return wallet, nil
	}
	s.metrics.RecordCacheMiss("wallet")

	wallet, err := s.repo.GetByUserAndCurrency(userID, currency)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	if err := s.cache.SetWallet(ctx, wallet); err != nil {
		s.log.WithError(err).Warn("failed to cache wallet")
	}
	return wallet, nil
}

func (s *service) GetTransactionHistory(ctx context.Context, userID uint) ([]models.Transaction, error) {
	transactions, err := s.txRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return transactions, nil
}
