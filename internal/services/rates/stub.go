package rates

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

// stubPrices offline prices of one unit in USD.
var stubPrices = map[string]decimal.Decimal{
	"EUR": decimal.RequireFromString("1.08"),
	"GBP": decimal.RequireFromString("1.27"),
	"RUB": decimal.RequireFromString("0.0105"),
	"BTC": decimal.RequireFromString("60000"),
	"ETH": decimal.RequireFromString("2500"),
	"SOL": decimal.RequireFromString("150"),
}

// StubSource serves a fixed price table, used when no live source is configured.
type StubSource struct {
	kinds []domain.CurrencyKind
	now   func() time.Time
}

// NewStubSource creates a stub limited to the given kinds, all kinds when empty.
func NewStubSource(kinds ...domain.CurrencyKind) *StubSource {
	if len(kinds) == 0 {
		kinds = []domain.CurrencyKind{domain.KindFiat, domain.KindCrypto}
	}
	return &StubSource{kinds: kinds, now: time.Now}
}

func (s *StubSource) Name() string {
	return "stub"
}

func (s *StubSource) FetchAll(ctx context.Context) ([]domain.RateEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observedAt := s.now().UTC()
	var entries []domain.RateEntry
	for _, kind := range s.kinds {
		for _, code := range domain.CodesOfKind(kind) {
			price, ok := stubPrices[code]
			if !ok {
				continue
			}
			entries = append(entries, domain.NewRateEntry(code, Anchor, price, observedAt, s.Name()))
		}
	}

	return entries, nil
}
