package exchange

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	mu    sync.Mutex
	calls int
	quote *Quote
	err   error
}

func (p *stubProvider) FetchRates(ctx context.Context) (*Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.quote, nil
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *stubProvider) set(quote *Quote, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quote = quote
	p.err = err
}

var testCurrencies = []string{"NGN", "USD", "EUR", "GBP"}

func testQuote(nextUpdate time.Time) *Quote {
	return &Quote{
		Rates: map[string]decimal.Decimal{
			"USD": decimal.RequireFromString("0.0012"),
			"EUR": decimal.RequireFromString("0.0011"),
			"GBP": decimal.RequireFromString("0.00095"),
		},
		NextUpdate: nextUpdate,
	}
}

func TestRateCache_ServesCachedSnapshotWithinWindow(t *testing.T) {
	provider := &stubProvider{quote: testQuote(time.Now().Add(30 * time.Minute))}
	cache := NewRateCache(provider, "NGN", testCurrencies, nil, nil)

	first, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, provider.callCount())

	second, err := cache.GetRates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount(), "call inside the window must not hit the provider")

	assert.True(t, second.Rates["USD"].Equal(first.Rates["USD"]))
	assert.True(t, second.Rates["NGN"].Equal(decimal.NewFromInt(1)), "base rate is always exactly 1")
	assert.Equal(t, first.LastUpdated, second.LastUpdated)
}

func TestRateCache_RefreshesOnceAfterExpiry(t *testing.T) {
	provider := &stubProvider{quote: testQuote(time.Now().Add(20 * time.Millisecond))}
	cache := NewRateCache(provider, "NGN", testCurrencies, nil, nil)

	_, err := cache.GetRates(context.Background())
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	provider.set(testQuote(time.Now().Add(30*time.Minute)), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.GetRates(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, provider.callCount(), "expiry triggers exactly one refresh")
}

func TestRateCache_ServesStaleSnapshotOnRefreshFailure(t *testing.T) {
	provider := &stubProvider{quote: testQuote(time.Now().Add(20 * time.Millisecond))}
	cache := NewRateCache(provider, "NGN", testCurrencies, nil, nil)

	fresh, err := cache.GetRates(context.Background())
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	provider.set(nil, errors.New("provider down"))

	stale, err := cache.GetRates(context.Background())
	require.NoError(t, err, "staleness is preferred over unavailability")
	assert.True(t, stale.Rates["USD"].Equal(fresh.Rates["USD"]))
	assert.Equal(t, fresh.LastUpdated, stale.LastUpdated)
}

func TestRateCache_FailsWhenNoSnapshotEverSucceeded(t *testing.T) {
	provider := &stubProvider{err: errors.New("provider down")}
	cache := NewRateCache(provider, "NGN", testCurrencies, nil, nil)

	_, err := cache.GetRates(context.Background())
	assert.ErrorIs(t, err, ErrRatesUnavailable)
}

func TestRateCache_MalformedResponseTreatedAsFailure(t *testing.T) {
	quote := testQuote(time.Now().Add(30 * time.Minute))
	delete(quote.Rates, "GBP")
	provider := &stubProvider{quote: quote}
	cache := NewRateCache(provider, "NGN", testCurrencies, nil, nil)

	_, err := cache.GetRates(context.Background())
	assert.ErrorIs(t, err, ErrRatesUnavailable)
}

func TestRateCache_RejectsNonPositiveRates(t *testing.T) {
	quote := testQuote(time.Now().Add(30 * time.Minute))
	quote.Rates["EUR"] = decimal.Zero
	provider := &stubProvider{quote: quote}
	cache := NewRateCache(provider, "NGN", testCurrencies, nil, nil)

	_, err := cache.GetRates(context.Background())
	assert.ErrorIs(t, err, ErrRatesUnavailable)
}
