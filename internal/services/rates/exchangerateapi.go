package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/pkg/retrier"
)

const defaultExchangeRateAPIURL = "https://v6.exchangerate-api.com"

type exchangeRateAPIResponse struct {
	Result          string                     `json:"result"`
	ErrorType       string                     `json:"error-type"`
	BaseCode        string                     `json:"base_code"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

// ExchangeRateAPISource fetches fiat rates from exchangerate-api.com.
type ExchangeRateAPISource struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewExchangeRateAPISource creates a fiat source. baseURL may be empty.
func NewExchangeRateAPISource(apiKey, baseURL string, timeout time.Duration) *ExchangeRateAPISource {
	if baseURL == "" {
		baseURL = defaultExchangeRateAPIURL
	}
	return &ExchangeRateAPISource{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

func (s *ExchangeRateAPISource) Name() string {
	return "exchangerate-api"
}

// FetchAll returns the USD price of every registered fiat currency the API
// knows about. Conversion rates are USD per unit, so prices are reciprocals.
func (s *ExchangeRateAPISource) FetchAll(ctx context.Context) ([]domain.RateEntry, error) {
	if s.apiKey == "" {
		return nil, retrier.Permanent(errors.New("exchangerate-api key is empty"))
	}

	url := fmt.Sprintf("%s/v6/%s/latest/%s", s.baseURL, s.apiKey, Anchor)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retrier.Permanent(errors.Wrap(err, "failed to create HTTP request"))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, retrier.Permanent(errors.Errorf("API rejected key with status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload exchangeRateAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, retrier.Permanent(errors.Wrap(err, "failed to unmarshal response"))
	}
	if payload.Result != "success" {
		return nil, retrier.Permanent(errors.Errorf("API returned %q: %s", payload.Result, payload.ErrorType))
	}

	observedAt := s.now().UTC()
	one := decimal.NewFromInt(1)
	var entries []domain.RateEntry
	for _, code := range domain.CodesOfKind(domain.KindFiat) {
		if code == Anchor {
			continue
		}
		rate, ok := payload.ConversionRates[code]
		if !ok || !rate.IsPositive() {
			continue
		}
		entries = append(entries, domain.NewRateEntry(code, Anchor, one.Div(rate), observedAt, s.Name()))
	}

	if len(entries) == 0 {
		return nil, errors.New("API returned no supported currencies")
	}

	return entries, nil
}
