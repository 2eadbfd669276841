package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// FetchTimeout bounds every rate provider call.
const FetchTimeout = 5 * time.Second

// httpProvider calls an exchangerate-api style endpoint: a GET with no
// parameters returning conversion_rates keyed by currency code plus the
// next scheduled update time.
type httpProvider struct {
	url    string
	client *http.Client
}

func NewHTTPProvider(url string) Provider {
	return &httpProvider{
		url: url,
		client: &http.Client{
			Timeout: FetchTimeout,
		},
	}
}

type providerResponse struct {
	ConversionRates   map[string]decimal.Decimal `json:"conversion_rates"`
	TimeNextUpdateUTC string                     `json:"time_next_update_utc"`
}

func (p *httpProvider) FetchRates(ctx context.Context) (*Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchange rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rate response: %w", err)
	}
	if len(body.ConversionRates) == 0 {
		return nil, errors.New("rate response missing conversion_rates")
	}

	nextUpdate, err := parseProviderTime(body.TimeNextUpdateUTC)
	if err != nil {
		return nil, fmt.Errorf("rate response has invalid time_next_update_utc: %w", err)
	}

	return &Quote{
		Rates:      body.ConversionRates,
		NextUpdate: nextUpdate,
	}, nil
}

func parseProviderTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", value)
}
