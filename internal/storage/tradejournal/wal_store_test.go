package tradejournal

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

func newResult(userID int64, side domain.Side, amount string) domain.TradeResult {
	return domain.TradeResult{
		ID:            uuid.New().String(),
		UserID:        userID,
		Side:          side,
		Currency:      "BTC",
		Amount:        decimal.RequireFromString(amount),
		Cost:          decimal.RequireFromString("500"),
		Price:         decimal.NewFromInt(50000),
		QuoteCurrency: "USD",
		Timestamp:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestWALStore_AppendAndHistory(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, store.Close())
	}()

	first := newResult(1, domain.SideBuy, "0.01")
	other := newResult(2, domain.SideBuy, "1")
	second := newResult(1, domain.SideSell, "0.005")

	require.NoError(t, store.Append(first))
	require.NoError(t, store.Append(other))
	require.NoError(t, store.Append(second))
	assert.Equal(t, uint64(3), store.CurrentIndex())

	history, err := store.History(1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
	assert.True(t, history[1].Amount.Equal(decimal.RequireFromString("0.005")))

	// user 1 must not match user 10's prefix
	history, err = store.History(10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestWALStore_AppendRequiresID(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	result := newResult(1, domain.SideBuy, "1")
	result.ID = ""
	assert.Error(t, store.Append(result))
}

func TestWALStore_Nil(t *testing.T) {
	var store *WALStore
	assert.Error(t, store.Append(newResult(1, domain.SideBuy, "1")))
	assert.Equal(t, uint64(0), store.CurrentIndex())
}
