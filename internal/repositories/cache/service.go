package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kobo/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations

func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, s.ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get cache value: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Wallet caching

func (s *CacheService) GetWallet(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := s.Get(ctx, walletKey(userID, currency), &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s *CacheService) SetWallet(ctx context.Context, wallet *models.Wallet) error {
	if wallet == nil {
		return errors.New("cannot cache nil wallet")
	}
	return s.Set(ctx, walletKey(wallet.UserID, wallet.Currency), wallet)
}

func (s *CacheService) GetWallets(ctx context.Context, userID uint) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.Get(ctx, walletListKey(userID), &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

func (s *CacheService) SetWallets(ctx context.Context, userID uint, wallets []models.Wallet) error {
	return s.Set(ctx, walletListKey(userID), wallets)
}

// InvalidateWallets drops the cached list plus the named per-currency
// entries for a user. Called after every committed balance mutation.
func (s *CacheService) InvalidateWallets(ctx context.Context, userID uint, currencies ...string) error {
	keys := []string{walletListKey(userID)}
	for _, currency := range currencies {
		keys = append(keys, walletKey(userID, currency))
	}
	return s.Delete(ctx, keys...)
}

func walletKey(userID uint, currency string) string {
	return fmt.Sprintf("wallet:%d:%s", userID, currency)
}

func walletListKey(userID uint) string {
	return fmt.Sprintf("wallet:%d:all", userID)
}

// HealthCheck pings redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}
