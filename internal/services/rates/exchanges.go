package rates

import (
	"context"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

// stablecoin quote used for crypto tickers, treated as one Anchor unit.
const stablecoin = "USDT"

// BinanceSource fetches crypto prices from the public Binance ticker API.
type BinanceSource struct {
	client *binance.Client
	now    func() time.Time
}

// NewBinanceSource creates a source. Public prices need no credentials.
func NewBinanceSource(client *binance.Client) *BinanceSource {
	if client == nil {
		client = binance.NewClient("", "")
	}
	return &BinanceSource{client: client, now: time.Now}
}

func (s *BinanceSource) Name() string {
	return "binance"
}

func (s *BinanceSource) FetchAll(ctx context.Context) ([]domain.RateEntry, error) {
	var entries []domain.RateEntry
	for _, code := range domain.CodesOfKind(domain.KindCrypto) {
		symbol := code + stablecoin
		prices, err := s.client.NewListPricesService().Symbol(symbol).Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get %s price", symbol)
		}
		if len(prices) == 0 {
			return nil, errors.Errorf("binance API returned empty prices for %s", symbol)
		}

		price, err := decimal.NewFromString(prices[0].Price)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s price %q", symbol, prices[0].Price)
		}
		entries = append(entries, domain.NewRateEntry(code, Anchor, price, s.now().UTC(), s.Name()))
	}

	return entries, nil
}

// BybitSource fetches crypto prices from public Bybit V5 spot tickers.
type BybitSource struct {
	client *bybit.Client
	now    func() time.Time
}

// NewBybitSource creates a source. Public tickers need no credentials.
func NewBybitSource(client *bybit.Client) *BybitSource {
	if client == nil {
		client = bybit.NewClient()
	}
	return &BybitSource{client: client, now: time.Now}
}

func (s *BybitSource) Name() string {
	return "bybit"
}

func (s *BybitSource) FetchAll(ctx context.Context) ([]domain.RateEntry, error) {
	var entries []domain.RateEntry
	for _, code := range domain.CodesOfKind(domain.KindCrypto) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		symbol := bybit.SymbolV5(code + stablecoin)
		result, err := s.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
			Category: "spot",
			Symbol:   &symbol,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "failed to get %s ticker", symbol)
		}
		if result.Result.Spot == nil || len(result.Result.Spot.List) == 0 {
			return nil, errors.Errorf("bybit API returned empty prices for %s", symbol)
		}

		last := result.Result.Spot.List[0].LastPrice
		price, err := decimal.NewFromString(last)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s price %q", symbol, last)
		}
		entries = append(entries, domain.NewRateEntry(code, Anchor, price, s.now().UTC(), s.Name()))
	}

	return entries, nil
}
