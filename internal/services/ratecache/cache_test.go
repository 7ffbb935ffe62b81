package ratecache

import (
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/internal/storage/filestore"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func entry(base, quote, price string) domain.RateEntry {
	return domain.NewRateEntry(base, quote, decimal.RequireFromString(price), t0, "test")
}

func newCache(t *testing.T, ttl time.Duration) (*Cache, *filestore.Memory) {
	t.Helper()
	store := filestore.NewMemory()
	c, err := New(ttl, store, zap.NewNop())
	require.NoError(t, err)
	return c, store
}

func TestCache_TTLBoundary(t *testing.T) {
	c, _ := newCache(t, 300*time.Second)
	require.NoError(t, c.Refresh([]domain.RateEntry{entry("BTC", "USD", "50000")}, t0, "test"))

	price, err := c.GetRate("BTC", "USD", t0.Add(299*time.Second))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(50000)))
	assert.True(t, c.IsFresh(t0.Add(299*time.Second)))

	_, err = c.GetRate("BTC", "USD", t0.Add(301*time.Second))
	assert.ErrorIs(t, err, domain.ErrStaleRate)
	assert.False(t, c.IsFresh(t0.Add(301*time.Second)))
}

func TestCache_DefaultTTL(t *testing.T) {
	c, _ := newCache(t, 0)
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestCache_InverseIsReciprocal(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	require.NoError(t, c.Refresh([]domain.RateEntry{entry("BTC", "USD", "50000")}, t0, "test"))

	price, err := c.GetRate("usd", "btc", t0)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.00002")), price.String())
}

func TestCache_SameCurrencyIsOne(t *testing.T) {
	c, _ := newCache(t, time.Minute)

	price, err := c.GetRate("EUR", "EUR", t0)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(1)))
}

func TestCache_UnknownPair(t *testing.T) {
	c, _ := newCache(t, time.Minute)

	_, err := c.GetRate("BTC", "USD", t0)
	assert.ErrorIs(t, err, domain.ErrUnknownPair, "never refreshed")

	require.NoError(t, c.Refresh([]domain.RateEntry{entry("BTC", "USD", "50000")}, t0, "test"))
	_, err = c.GetRate("ETH", "EUR", t0)
	assert.ErrorIs(t, err, domain.ErrUnknownPair)
}

func TestCache_GetRates(t *testing.T) {
	c, _ := newCache(t, time.Minute)
	require.NoError(t, c.Refresh([]domain.RateEntry{
		entry("BTC", "USD", "50000"),
		entry("EUR", "USD", "1.25"),
	}, t0, "test"))

	rates, err := c.GetRates([]string{"USD", "btc", "EUR", "SOL", "ZZZ"}, "usd", t0)
	require.NoError(t, err)
	require.Len(t, rates, 3)
	assert.True(t, rates["USD"].Equal(decimal.NewFromInt(1)))
	assert.True(t, rates["BTC"].Equal(decimal.NewFromInt(50000)))
	assert.True(t, rates["EUR"].Equal(decimal.RequireFromString("1.25")))

	rates, err = c.GetRates([]string{"USD", "BTC"}, "EUR", t0)
	require.NoError(t, err)
	assert.True(t, rates["USD"].Equal(decimal.RequireFromString("0.8")), rates["USD"].String())
	assert.NotContains(t, rates, "BTC")

	rates, err = c.GetRates([]string{"USD", "BTC"}, "USD", t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{"USD"}, keys(rates), "stale table prices nothing but the quote itself")

	_, err = c.GetRates([]string{"BTC"}, "ZZZ", t0)
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func keys(m map[string]decimal.Decimal) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCache_UnknownCurrency(t *testing.T) {
	c, _ := newCache(t, time.Minute)

	_, err := c.GetRate("ZZZ", "USD", t0)
	assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
}

func TestCache_StaleEvenWhenRefreshedWithOlderTimestamp(t *testing.T) {
	c, _ := newCache(t, 300*time.Second)
	require.NoError(t, c.Refresh([]domain.RateEntry{entry("BTC", "USD", "50000")}, t0, "test"))

	older := t0.Add(-time.Hour)
	require.NoError(t, c.Refresh([]domain.RateEntry{entry("BTC", "USD", "51000")}, older, "test"))

	for _, pair := range [][2]string{{"BTC", "USD"}, {"USD", "BTC"}, {"ETH", "USD"}} {
		_, err := c.GetRate(pair[0], pair[1], t0)
		assert.ErrorIs(t, err, domain.ErrStaleRate, pair)
	}
}

func TestCache_RefreshIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name    string
		entries []domain.RateEntry
	}{
		{name: "empty", entries: nil},
		{name: "unknown currency", entries: []domain.RateEntry{entry("ETH", "USD", "3000"), entry("ZZZ", "USD", "1")}},
		{name: "zero price", entries: []domain.RateEntry{entry("ETH", "USD", "3000"), entry("EUR", "USD", "0")}},
		{name: "negative price", entries: []domain.RateEntry{entry("ETH", "USD", "-1")}},
		{name: "self pair", entries: []domain.RateEntry{entry("USD", "USD", "1")}},
		{name: "both directions", entries: []domain.RateEntry{entry("ETH", "USD", "3000"), entry("USD", "ETH", "0.0003")}},
		{name: "duplicate", entries: []domain.RateEntry{entry("ETH", "USD", "3000"), entry("ETH", "USD", "3100")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := newCache(t, time.Minute)
			require.NoError(t, c.Refresh([]domain.RateEntry{entry("BTC", "USD", "50000")}, t0, "first"))
			saves := store.Saves()

			err := c.Refresh(tt.entries, t0.Add(time.Second), "second")
			assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
			assert.Equal(t, saves, store.Saves())

			price, err := c.GetRate("BTC", "USD", t0)
			require.NoError(t, err)
			assert.True(t, price.Equal(decimal.NewFromInt(50000)))
			last, source := c.LastRefresh()
			assert.Equal(t, t0, last)
			assert.Equal(t, "first", source)
		})
	}
}

func TestCache_RefreshPersistenceFailureKeepsOldTable(t *testing.T) {
	c, store := newCache(t, time.Minute)
	require.NoError(t, c.Refresh([]domain.RateEntry{entry("BTC", "USD", "50000")}, t0, "first"))

	store.SetFailSave(errors.New("disk full"))
	err := c.Refresh([]domain.RateEntry{entry("BTC", "USD", "60000")}, t0.Add(time.Second), "second")
	assert.ErrorIs(t, err, domain.ErrPersistence)

	price, err := c.GetRate("BTC", "USD", t0)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(50000)))
}

func TestCache_RestoresPersistedSnapshot(t *testing.T) {
	store := filestore.NewMemory()
	c, err := New(time.Minute, store, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Refresh([]domain.RateEntry{
		entry("BTC", "USD", "50000"),
		entry("EUR", "USD", "1.08"),
	}, t0, "stub"))

	restored, err := New(time.Minute, store, zap.NewNop())
	require.NoError(t, err)

	price, err := restored.GetRate("EUR", "USD", t0.Add(30*time.Second))
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("1.08")))

	last, source := restored.LastRefresh()
	assert.True(t, last.Equal(t0))
	assert.Equal(t, "stub", source)
	assert.Len(t, restored.Entries(), 2)
}

func TestCache_CorruptSnapshotIsNoData(t *testing.T) {
	store := filestore.NewMemory()
	require.NoError(t, store.Save(domain.KindRates, []byte("{not json")))

	c, err := New(time.Minute, store, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, c.Entries())
	assert.False(t, c.IsFresh(t0))
}

func TestCache_ConcurrentRefreshAndRead(t *testing.T) {
	c, _ := newCache(t, time.Hour)
	tableA := []domain.RateEntry{entry("BTC", "USD", "50000"), entry("ETH", "USD", "2500")}
	tableB := []domain.RateEntry{entry("BTC", "USD", "60000"), entry("ETH", "USD", "3000")}
	require.NoError(t, c.Refresh(tableA, t0, "a"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			table := tableA
			if i%2 == 0 {
				table = tableB
			}
			assert.NoError(t, c.Refresh(table, t0, "flip"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			price, err := c.GetRate("BTC", "USD", t0)
			assert.NoError(t, err)
			assert.True(t, price.Equal(decimal.NewFromInt(50000)) || price.Equal(decimal.NewFromInt(60000)))
		}
	}()
	wg.Wait()
}

func TestCache_GetRatesReadsOneTable(t *testing.T) {
	c, _ := newCache(t, time.Hour)
	tableA := []domain.RateEntry{entry("BTC", "USD", "50000"), entry("ETH", "USD", "2500")}
	tableB := []domain.RateEntry{entry("BTC", "USD", "60000"), entry("ETH", "USD", "3000")}
	require.NoError(t, c.Refresh(tableA, t0, "a"))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			table := tableA
			if i%2 == 0 {
				table = tableB
			}
			assert.NoError(t, c.Refresh(table, t0, "flip"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			rates, err := c.GetRates([]string{"BTC", "ETH"}, "USD", t0)
			assert.NoError(t, err)
			fromA := rates["BTC"].Equal(decimal.NewFromInt(50000)) && rates["ETH"].Equal(decimal.NewFromInt(2500))
			fromB := rates["BTC"].Equal(decimal.NewFromInt(60000)) && rates["ETH"].Equal(decimal.NewFromInt(3000))
			assert.True(t, fromA || fromB, "mixed tables: %v", rates)
		}
	}()
	wg.Wait()
}
