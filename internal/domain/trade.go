package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side direction of a trade from the user's point of view.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// String returns the string representation.
func (s Side) String() string {
	return string(s)
}

// Leg one balance adjustment of a trade.
type Leg struct {
	Currency string
	Amount   decimal.Decimal
}

// NewLeg creates a Leg with a normalized code.
func NewLeg(currency string, amount decimal.Decimal) Leg {
	return Leg{Currency: NormalizeCode(currency), Amount: amount}
}

// String returns a human-readable string representation.
func (l Leg) String() string {
	return fmt.Sprintf("%s %s", l.Amount.String(), l.Currency)
}

// TradeIntent a validated trade request. It is never persisted.
type TradeIntent struct {
	UserID        int64
	Side          Side
	Currency      string
	Amount        decimal.Decimal
	QuoteCurrency string
}

// Legs returns the debit and credit for the intent at the given quote value.
func (t TradeIntent) Legs(value decimal.Decimal) (debit, credit Leg) {
	if t.Side == SideBuy {
		return Leg{Currency: t.QuoteCurrency, Amount: value}, Leg{Currency: t.Currency, Amount: t.Amount}
	}
	return Leg{Currency: t.Currency, Amount: t.Amount}, Leg{Currency: t.QuoteCurrency, Amount: value}
}

// TradeResult outcome of an applied trade.
type TradeResult struct {
	ID            string          `json:"id"`
	UserID        int64           `json:"user_id"`
	Side          Side            `json:"side"`
	Currency      string          `json:"currency"`
	Amount        decimal.Decimal `json:"amount"`
	Cost          decimal.Decimal `json:"cost"`
	Price         decimal.Decimal `json:"price"`
	QuoteCurrency string          `json:"quote_currency"`
	Timestamp     time.Time       `json:"ts"`
}

// String returns a human-readable string representation.
func (t TradeResult) String() string {
	return fmt.Sprintf("%s %s %s at %s %s (total %s %s)",
		t.Side, t.Amount.String(), t.Currency, t.Price.String(), t.QuoteCurrency, t.Cost.String(), t.QuoteCurrency)
}
