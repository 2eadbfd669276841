package repositories

import (
	"context"
	"time"

	"kobo/internal/models"
)

// CacheRepository defines the read-side cache for wallet lookups.
// The cache is strictly an acceleration layer: every committed balance
// mutation invalidates the affected keys, and a miss falls through to
// postgres.
type CacheRepository interface {
	GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	SetWallet(ctx context.Context, wallet *models.Wallet) error
	GetWallets(ctx context.Context, userID uint) ([]models.Wallet, error)
	SetWallets(ctx context.Context, userID uint, wallets []models.Wallet) error
	InvalidateWallets(ctx context.Context, userID uint, currencies ...string) error
}

// DefaultExpiration is the cache TTL for wallet entries.
const DefaultExpiration = 24 * time.Hour
