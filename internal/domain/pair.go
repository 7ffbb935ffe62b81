package domain

import (
	"fmt"
	"strings"
)

// Pair currency pair, price is quoted as units of Quote per one Base.
type Pair struct {
	// Base currency being priced.
	Base string
	// Quote currency the price is expressed in.
	Quote string
}

// NewPair builds a pair from normalized codes.
func NewPair(base, quote string) Pair {
	return Pair{Base: NormalizeCode(base), Quote: NormalizeCode(quote)}
}

// String returns the string representation, also used as the persisted key.
func (p Pair) String() string {
	return fmt.Sprintf("%s_%s", p.Base, p.Quote)
}

// Inverse returns the pair with base and quote swapped.
func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// ParsePair parses BASE_QUOTE.
func ParsePair(s string) (Pair, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Pair{}, fmt.Errorf("invalid pair %q, expected BASE_QUOTE", s)
	}
	return NewPair(parts[0], parts[1]), nil
}
