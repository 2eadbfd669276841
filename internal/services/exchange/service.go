package exchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kobo/internal/metrics"
	"kobo/internal/models"
	"kobo/internal/repositories"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conversion output is always rounded to 2 decimal places before it is
// persisted. This is a fixed business rule, independent of the wallet
// column precision.
const conversionScale = 2

type service struct {
	wallets repositories.WalletRepository
	cache   repositories.CacheRepository
	rates   *RateCache
	base    string
	metrics metrics.Collector
	log     *logrus.Logger
}

// NewService creates a new exchange service
func NewService(
	wallets repositories.WalletRepository,
	cache repositories.CacheRepository,
	rates *RateCache,
	base string,
	collector metrics.Collector,
	log *logrus.Logger,
) Service {
	if wallets == nil {
		panic("wallet repository is required")
	}
	if cache == nil {
		panic("cache is required")
	}
	if rates == nil {
		panic("rate cache is required")
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &service{
		wallets: wallets,
		cache:   cache,
		rates:   rates,
		base:    base,
		metrics: collector,
		log:     log,
	}
}

func (s *service) GetRates(ctx context.Context) (Snapshot, error) {
	return s.rates.GetRates(ctx)
}

// Convert debits the source wallet and credits the destination wallet at
// the current rate, inside one storage transaction. The two wallets are
// locked in currency-lexical order regardless of which one is the source,
// so opposite-direction conversions for the same user cannot deadlock.
func (s *service) Convert(ctx context.Context, userID uint, req ConvertRequest) (*models.Transaction, error) {
	started := time.Now()
	from := strings.ToUpper(req.FromCurrency)
	to := strings.ToUpper(req.ToCurrency)

	if from == to {
		return nil, ErrSameCurrency
	}
	if from != s.base && to != s.base {
		return nil, ErrBaseCurrencyRoute
	}
	if req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	snapshot, err := s.rates.GetRates(ctx)
	if err != nil {
		return nil, err
	}

	fromRate, fromOK := snapshot.Rates[from]
	toRate, toOK := snapshot.Rates[to]
	if !fromOK || !toOK {
		return nil, ErrUnsupportedCurrency
	}
	if fromRate.Sign() <= 0 || toRate.Sign() <= 0 {
		s.metrics.RecordError("convert", "invalid_rate")
		return nil, ErrInvalidRate
	}

	converted := req.Amount.Mul(toRate.Div(fromRate)).Round(conversionScale)
	reference := "CONV-" + uuid.NewString()
	description := fmt.Sprintf("Currency conversion: %s %s to %s %s",
		req.Amount.String(), from, converted.String(), to)

	var credit *models.Transaction
	err = s.wallets.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		locked := make(map[string]*models.Wallet, 2)
		for _, currency := range lockOrder(from, to) {
			wallet, err := tx.LockForUpdate(userID, currency)
			if err != nil {
				return err
			}
			locked[currency] = wallet
		}

		source, dest := locked[from], locked[to]
		if source.Balance.LessThan(req.Amount) {
			return ErrInsufficientBalance
		}

		source.Balance = source.Balance.Sub(req.Amount)
		dest.Balance = dest.Balance.Add(converted)
		if err := tx.Save(source); err != nil {
			return err
		}
		if err := tx.Save(dest); err != nil {
			return err
		}

		debit := &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionTypeConversion,
			Currency:    from,
			Amount:      req.Amount.Neg(),
			Status:      models.TransactionStatusCompleted,
			Reference:   reference,
			Description: description,
		}
		if err := tx.CreateTransaction(debit); err != nil {
			return err
		}

		credit = &models.Transaction{
			UserID:      userID,
			Type:        models.TransactionTypeConversion,
			Currency:    to,
			Amount:      converted,
			Status:      models.TransactionStatusCompleted,
			Reference:   reference,
			Description: description,
		}
		return tx.CreateTransaction(credit)
	})

	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientBalance):
			return nil, fmt.Errorf("%w: %s", ErrInsufficientBalance, from)
		case errors.Is(err, repositories.ErrWalletNotFound):
			return nil, ErrWalletNotFound
		}
		s.metrics.RecordError("convert", "transaction")
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":   userID,
			"from":      from,
			"to":        to,
			"amount":    req.Amount.String(),
			"reference": reference,
		}).Error("conversion rolled back")
		return nil, ErrConversionFailed
	}

	if err := s.cache.InvalidateWallets(ctx, userID, from, to); err != nil {
		s.log.WithError(err).Warn("failed to invalidate wallet cache")
	}

	s.metrics.RecordTransaction(models.TransactionTypeConversion, to, converted.InexactFloat64())
	s.metrics.RecordOperationDuration("convert", time.Since(started))

	s.log.WithFields(logrus.Fields{
		"user_id":   userID,
		"from":      from,
		"to":        to,
		"amount":    req.Amount.String(),
		"converted": converted.String(),
		"reference": reference,
	}).Info("conversion completed")

	return credit, nil
}

// lockOrder returns the two currencies in lexical order. Locking by
// currency code rather than by source/destination role keeps concurrent
// opposite-direction conversions from forming a lock cycle.
func lockOrder(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
