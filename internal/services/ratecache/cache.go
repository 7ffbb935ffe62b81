// Package ratecache holds the latest exchange rate snapshot and decides
// whether it is still fresh enough to trade on.
package ratecache

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"go.uber.org/zap"
)

// DefaultTTL is used when no positive TTL is configured.
const DefaultTTL = 300 * time.Second

// Cache is the single owner of the rate table. Freshness is judged against one
// global refresh timestamp because every refresh replaces the whole table.
type Cache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	store       domain.Gateway
	logger      *zap.Logger
	entries     map[domain.Pair]domain.RateEntry
	lastRefresh time.Time
	source      string
}

type storedRate struct {
	Rate      decimal.Decimal `json:"rate"`
	UpdatedAt time.Time       `json:"updated_at"`
	Source    string          `json:"source,omitempty"`
}

type storedSnapshot struct {
	Pairs       map[string]storedRate `json:"pairs"`
	Source      string                `json:"source"`
	LastRefresh time.Time             `json:"last_refresh"`
}

// New creates a cache and restores the persisted snapshot, if any.
func New(ttl time.Duration, store domain.Gateway, logger *zap.Logger) (*Cache, error) {
	if store == nil {
		return nil, errors.New("rate cache requires a persistence gateway")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := &Cache{
		ttl:     ttl,
		store:   store,
		logger:  logger,
		entries: make(map[domain.Pair]domain.RateEntry),
	}
	if err := c.restore(); err != nil {
		logger.Warn("discarding unreadable rates snapshot", zap.Error(err))
	}

	return c, nil
}

func (c *Cache) restore() error {
	payload, err := c.store.Load(domain.KindRates)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}

	var snapshot storedSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return errors.Wrap(err, "decode rates snapshot")
	}

	entries := make([]domain.RateEntry, 0, len(snapshot.Pairs))
	for key, rate := range snapshot.Pairs {
		pair, err := domain.ParsePair(key)
		if err != nil {
			return err
		}
		source := rate.Source
		if source == "" {
			source = snapshot.Source
		}
		entries = append(entries, domain.RateEntry{
			Pair:       pair,
			Price:      rate.Rate,
			ObservedAt: rate.UpdatedAt,
			Source:     source,
		})
	}

	table, err := buildTable(entries)
	if err != nil {
		return err
	}

	c.entries = table
	c.lastRefresh = snapshot.LastRefresh
	c.source = snapshot.Source

	return nil
}

// buildTable validates a snapshot and indexes it by pair.
func buildTable(entries []domain.RateEntry) (map[domain.Pair]domain.RateEntry, error) {
	table := make(map[domain.Pair]domain.RateEntry, len(entries))
	for _, e := range entries {
		pair := domain.NewPair(e.Pair.Base, e.Pair.Quote)
		if !domain.IsSupported(pair.Base) || !domain.IsSupported(pair.Quote) {
			return nil, errors.Wrapf(domain.ErrInvalidSnapshot, "unsupported currency in %s", pair)
		}
		if pair.Base == pair.Quote {
			return nil, errors.Wrapf(domain.ErrInvalidSnapshot, "self pair %s", pair)
		}
		if !e.Price.IsPositive() {
			return nil, errors.Wrapf(domain.ErrInvalidSnapshot, "non-positive price %s for %s", e.Price, pair)
		}
		if _, ok := table[pair]; ok {
			return nil, errors.Wrapf(domain.ErrInvalidSnapshot, "duplicate pair %s", pair)
		}
		if _, ok := table[pair.Inverse()]; ok {
			return nil, errors.Wrapf(domain.ErrInvalidSnapshot, "both directions given for %s", pair)
		}
		e.Pair = pair
		table[pair] = e
	}

	return table, nil
}

// Refresh replaces the whole table. The snapshot is validated and persisted
// before it becomes visible; on any failure the previous table stays in place.
// lastRefresh becomes fetchedAt even when it is older than the current one.
func (c *Cache) Refresh(entries []domain.RateEntry, fetchedAt time.Time, source string) error {
	if len(entries) == 0 {
		return errors.Wrap(domain.ErrInvalidSnapshot, "empty snapshot")
	}

	table, err := buildTable(entries)
	if err != nil {
		return err
	}

	snapshot := storedSnapshot{
		Pairs:       make(map[string]storedRate, len(table)),
		Source:      source,
		LastRefresh: fetchedAt,
	}
	for pair, e := range table {
		snapshot.Pairs[pair.String()] = storedRate{Rate: e.Price, UpdatedAt: e.ObservedAt, Source: e.Source}
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode rates snapshot")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Save(domain.KindRates, payload); err != nil {
		return &domain.PersistenceError{Op: "save", Kind: domain.KindRates, Err: err}
	}

	c.entries = table
	c.lastRefresh = fetchedAt
	c.source = source

	c.logger.Info("rates refreshed",
		zap.Int("pairs", len(table)),
		zap.String("source", source),
		zap.Time("fetched_at", fetchedAt))

	return nil
}

// GetRate returns the price of one base in quote. The inverse direction is
// derived by reciprocal from the stored pair.
func (c *Cache) GetRate(base, quote string, now time.Time) (decimal.Decimal, error) {
	pair := domain.NewPair(base, quote)
	if _, err := domain.LookupCurrency(pair.Base); err != nil {
		return decimal.Zero, err
	}
	if _, err := domain.LookupCurrency(pair.Quote); err != nil {
		return decimal.Zero, err
	}
	if pair.Base == pair.Quote {
		return decimal.NewFromInt(1), nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.rateLocked(pair, now)
}

// GetRates prices every base in quote against one snapshot of the table.
// Bases without a usable rate are left out of the result; the error reports
// only an unknown quote currency.
func (c *Cache) GetRates(bases []string, quote string, now time.Time) (map[string]decimal.Decimal, error) {
	quoteCurrency, err := domain.LookupCurrency(quote)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(bases))
	for _, base := range bases {
		pair := domain.NewPair(base, quoteCurrency.Code)
		if !domain.IsSupported(pair.Base) {
			continue
		}
		if pair.Base == pair.Quote {
			out[pair.Base] = decimal.NewFromInt(1)
			continue
		}
		if price, err := c.rateLocked(pair, now); err == nil {
			out[pair.Base] = price
		}
	}

	return out, nil
}

// rateLocked resolves pair from the current table. Callers hold c.mu.
func (c *Cache) rateLocked(pair domain.Pair, now time.Time) (decimal.Decimal, error) {
	if len(c.entries) == 0 {
		return decimal.Zero, errors.Wrapf(domain.ErrUnknownPair, "%s", pair)
	}
	if age := now.Sub(c.lastRefresh); age > c.ttl {
		return decimal.Zero, errors.Wrapf(domain.ErrStaleRate, "last refresh %s ago, ttl %s",
			age.Truncate(time.Second), c.ttl)
	}

	if e, ok := c.entries[pair]; ok {
		return e.Price, nil
	}
	if e, ok := c.entries[pair.Inverse()]; ok {
		return decimal.NewFromInt(1).Div(e.Price), nil
	}

	return decimal.Zero, errors.Wrapf(domain.ErrUnknownPair, "%s", pair)
}

// IsFresh reports whether GetRate would accept the cache at now.
func (c *Cache) IsFresh(now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return !c.lastRefresh.IsZero() && now.Sub(c.lastRefresh) <= c.ttl
}

// LastRefresh returns when and from where the current table was fetched.
func (c *Cache) LastRefresh() (time.Time, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastRefresh, c.source
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Entries returns the stored table sorted by pair.
func (c *Cache) Entries() []domain.RateEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.RateEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Pair.String() < out[j].Pair.String()
	})

	return out
}

// String returns a short description for logs.
func (c *Cache) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return fmt.Sprintf("ratecache(pairs=%d, source=%s, last_refresh=%s)",
		len(c.entries), c.source, c.lastRefresh.Format(time.RFC3339))
}
