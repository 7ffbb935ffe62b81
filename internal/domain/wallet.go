package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Wallet balances per currency code. A missing entry means zero.
type Wallet map[string]decimal.Decimal

// Balance returns the balance for code, zero when absent.
func (w Wallet) Balance(code string) decimal.Decimal {
	if b, ok := w[code]; ok {
		return b
	}
	return decimal.Zero
}

// Clone returns an independent copy.
func (w Wallet) Clone() Wallet {
	out := make(Wallet, len(w))
	for code, b := range w {
		out[code] = b
	}
	return out
}

// Codes returns held currency codes in registry order, unknown codes last.
func (w Wallet) Codes() []string {
	codes := make([]string, 0, len(w))
	for code := range w {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		oi, oj := CurrencyOrder(codes[i]), CurrencyOrder(codes[j])
		if oi < 0 || oj < 0 {
			if oi == oj {
				return codes[i] < codes[j]
			}
			return oj < 0
		}
		return oi < oj
	})
	return codes
}

// Portfolio wallet of a single user.
type Portfolio struct {
	UserID int64  `json:"user_id"`
	Wallet Wallet `json:"wallet"`
}

// NewPortfolio creates an empty portfolio.
func NewPortfolio(userID int64) *Portfolio {
	return &Portfolio{UserID: userID, Wallet: make(Wallet)}
}

// Clone returns a deep copy.
func (p *Portfolio) Clone() Portfolio {
	return Portfolio{UserID: p.UserID, Wallet: p.Wallet.Clone()}
}
