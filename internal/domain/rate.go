package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateEntry price of one Pair.Base in Pair.Quote.
type RateEntry struct {
	Pair       Pair
	Price      decimal.Decimal
	ObservedAt time.Time
	Source     string
}

// NewRateEntry creates a RateEntry with normalized codes.
func NewRateEntry(base, quote string, price decimal.Decimal, observedAt time.Time, source string) RateEntry {
	return RateEntry{
		Pair:       NewPair(base, quote),
		Price:      price,
		ObservedAt: observedAt,
		Source:     source,
	}
}
