package exchange

import (
	"context"
	"sync"
	"time"

	"kobo/internal/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RateCache owns the process-wide rate snapshot. Readers take a copy of
// the current snapshot under a read lock; refreshes build a complete
// replacement and swap it in, so a reader can never observe a partially
// updated rate table. The provider call itself runs outside the snapshot
// lock, behind a separate refresh mutex that guarantees a burst of
// expired callers triggers exactly one fetch.
type RateCache struct {
	provider  Provider
	base      string
	supported []string
	metrics   metrics.Collector
	log       *logrus.Logger

	mu       sync.RWMutex
	snapshot Snapshot

	refreshMu sync.Mutex
}

func NewRateCache(provider Provider, base string, supported []string, collector metrics.Collector, log *logrus.Logger) *RateCache {
	if provider == nil {
		panic("rate provider is required")
	}
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	rates := make(map[string]decimal.Decimal, len(supported))
	for _, currency := range supported {
		rates[currency] = decimal.Zero
	}
	rates[base] = decimal.NewFromInt(1)

	return &RateCache{
		provider:  provider,
		base:      base,
		supported: supported,
		metrics:   collector,
		log:       log,
		snapshot: Snapshot{
			Rates: rates,
			// Zero LastUpdated marks "never fetched"; NextUpdate in the
			// past forces a refresh on first use.
			NextUpdate: time.Now(),
		},
	}
}

// GetRates returns the cached snapshot while it is fresh, otherwise
// refreshes. On refresh failure a previously fetched snapshot is served
// stale; with no prior snapshot the failure surfaces as
// ErrRatesUnavailable.
func (c *RateCache) GetRates(ctx context.Context) (Snapshot, error) {
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}

	quote, err := c.provider.FetchRates(ctx)
	if err == nil {
		err = c.install(quote)
	}
	if err != nil {
		c.metrics.RecordRateRefresh("failure")

		c.mu.RLock()
		snap := c.snapshot
		c.mu.RUnlock()

		if snap.LastUpdated.IsZero() {
			c.log.WithError(err).Error("rate refresh failed with no cached snapshot")
			return Snapshot{}, ErrRatesUnavailable
		}
		// Staleness beats unavailability.
		c.log.WithError(err).WithField("last_updated", snap.LastUpdated).
			Warn("rate refresh failed, serving stale snapshot")
		return snap, nil
	}

	c.metrics.RecordRateRefresh("success")

	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()
	return snap, nil
}

func (c *RateCache) fresh() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.snapshot.LastUpdated.IsZero() && time.Now().Before(c.snapshot.NextUpdate) {
		return c.snapshot, true
	}
	return Snapshot{}, false
}

// install validates a quote and swaps in the replacement snapshot. A quote
// missing any supported currency, or carrying a non-positive rate, is
// rejected so the caller handles it like any other fetch failure.
func (c *RateCache) install(quote *Quote) error {
	rates := make(map[string]decimal.Decimal, len(c.supported))
	rates[c.base] = decimal.NewFromInt(1)

	for _, currency := range c.supported {
		if currency == c.base {
			continue
		}
		rate, ok := quote.Rates[currency]
		if !ok {
			return &missingRateError{currency}
		}
		if rate.Sign() <= 0 {
			return &missingRateError{currency}
		}
		rates[currency] = rate
	}

	nextUpdate := quote.NextUpdate
	if !nextUpdate.After(time.Now()) {
		// A provider clock glitch must not pin us in permanent refresh.
		nextUpdate = time.Now().Add(time.Minute)
	}

	c.mu.Lock()
	c.snapshot = Snapshot{
		Rates:       rates,
		LastUpdated: time.Now(),
		NextUpdate:  nextUpdate,
	}
	c.mu.Unlock()
	return nil
}

type missingRateError struct {
	currency string
}

func (e *missingRateError) Error() string {
	return "rate response missing usable rate for " + e.currency
}
