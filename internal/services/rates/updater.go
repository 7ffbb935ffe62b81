package rates

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/pkg/retrier"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RateSink installs a complete rate snapshot.
type RateSink interface {
	Refresh(entries []domain.RateEntry, fetchedAt time.Time, source string) error
}

// RefreshSummary describes an installed snapshot.
type RefreshSummary struct {
	Count     int
	FetchedAt time.Time
	Source    string
}

// Updater fetches all sources and replaces the cached snapshot.
type Updater struct {
	sink    RateSink
	sources []Source
	home    string
	retrier *retrier.Retrier
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// UpdaterOption configures the Updater.
type UpdaterOption func(*Updater)

// WithRetrier overrides the retry policy used for every source.
func WithRetrier(r *retrier.Retrier) UpdaterOption {
	return func(u *Updater) {
		u.retrier = r
	}
}

// WithTimeout bounds a whole refresh.
func WithTimeout(d time.Duration) UpdaterOption {
	return func(u *Updater) {
		u.timeout = d
	}
}

// WithClock overrides the refresh timestamp source.
func WithClock(now func() time.Time) UpdaterOption {
	return func(u *Updater) {
		u.now = now
	}
}

// NewUpdater creates an Updater. Sources are fetched concurrently; when two
// sources price the same currency the earlier one wins.
func NewUpdater(sink RateSink, home string, sources []Source, logger *zap.Logger, opts ...UpdaterOption) (*Updater, error) {
	if sink == nil {
		return nil, errors.New("rate sink is required for Updater")
	}
	if len(sources) == 0 {
		return nil, errors.New("at least one rate source is required")
	}
	homeCurrency, err := domain.LookupCurrency(home)
	if err != nil {
		return nil, errors.Wrap(err, "home currency")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	u := &Updater{
		sink:    sink,
		sources: sources,
		home:    homeCurrency.Code,
		timeout: 10 * time.Second,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.retrier == nil {
		u.retrier = retrier.New(
			retrier.WithRetryIf(func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			}),
			retrier.WithOnRetry(func(attempt int, err error) {
				logger.Warn("retrying rate fetch", zap.Int("attempt", attempt), zap.Error(err))
			}),
		)
	}

	return u, nil
}

// Refresh fetches every source, derives the full pair table and installs it.
// Nothing is installed when any source fails.
func (u *Updater) Refresh(ctx context.Context) (RefreshSummary, error) {
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	fetched := make([][]domain.RateEntry, len(u.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range u.sources {
		g.Go(func() error {
			entries, err := retrier.DoWithData(u.retrier, gctx, src.FetchAll)
			if err != nil {
				return &domain.FetchError{Source: src.Name(), Err: err}
			}
			fetched[i] = entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		u.logger.Error("rate refresh failed", zap.Error(err))
		return RefreshSummary{}, err
	}

	fetchedAt := u.now().UTC()
	prices, sources := mergeAnchorPrices(fetched)

	entries, err := derivePairs(prices, sources, u.home, fetchedAt)
	if err != nil {
		return RefreshSummary{}, err
	}

	source := joinSources(fetched)
	if err := u.sink.Refresh(entries, fetchedAt, source); err != nil {
		return RefreshSummary{}, err
	}

	u.logger.Info("rates updated",
		zap.Int("pairs", len(entries)),
		zap.String("source", source),
		zap.Time("fetched_at", fetchedAt))

	return RefreshSummary{Count: len(entries), FetchedAt: fetchedAt, Source: source}, nil
}

// mergeAnchorPrices collects the Anchor price of every registered currency.
func mergeAnchorPrices(fetched [][]domain.RateEntry) (map[string]decimal.Decimal, map[string]string) {
	one := decimal.NewFromInt(1)
	prices := map[string]decimal.Decimal{Anchor: one}
	sources := map[string]string{}

	for _, group := range fetched {
		for _, e := range group {
			if !e.Price.IsPositive() {
				continue
			}

			code, price := e.Pair.Base, e.Price
			switch {
			case e.Pair.Quote == Anchor:
			case e.Pair.Base == Anchor:
				code, price = e.Pair.Quote, one.Div(e.Price)
			default:
				continue
			}

			if !domain.IsSupported(code) {
				continue
			}
			if _, ok := prices[code]; ok {
				continue
			}
			prices[code] = price
			sources[code] = e.Source
		}
	}

	return prices, sources
}

// derivePairs emits one entry per unordered pair of priced currencies:
// X_home for every X, and a_b for other pairs with a before b in the registry.
func derivePairs(prices map[string]decimal.Decimal, sources map[string]string, home string, at time.Time) ([]domain.RateEntry, error) {
	homePrice, ok := prices[home]
	if !ok {
		return nil, &domain.FetchError{
			Source: "merge",
			Err:    errors.Errorf("no source priced home currency %s", home),
		}
	}

	codes := domain.CurrencyCodes()
	var entries []domain.RateEntry
	for _, code := range codes {
		price, ok := prices[code]
		if !ok || code == home {
			continue
		}
		entries = append(entries, domain.NewRateEntry(code, home, price.Div(homePrice), at, sourceOf(sources, code)))
	}

	for i, a := range codes {
		pa, ok := prices[a]
		if !ok || a == home {
			continue
		}
		for _, b := range codes[i+1:] {
			pb, ok := prices[b]
			if !ok || b == home {
				continue
			}
			entries = append(entries, domain.NewRateEntry(a, b, pa.Div(pb), at, sourceOf(sources, a)))
		}
	}

	return entries, nil
}

func sourceOf(sources map[string]string, code string) string {
	if s, ok := sources[code]; ok {
		return s
	}
	return "derived"
}

func joinSources(fetched [][]domain.RateEntry) string {
	seen := map[string]bool{}
	var names []string
	for _, group := range fetched {
		for _, e := range group {
			if e.Source != "" && !seen[e.Source] {
				seen[e.Source] = true
				names = append(names, e.Source)
			}
		}
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}
