// Package domain defines core data structures used throughout the wallet.
package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// CurrencyKind classifies a tradable unit.
type CurrencyKind string

const (
	// KindFiat government issued currency.
	KindFiat CurrencyKind = "fiat"
	// KindCrypto cryptocurrency.
	KindCrypto CurrencyKind = "crypto"
)

// String returns the string representation.
func (k CurrencyKind) String() string {
	return string(k)
}

// Currency is a registered tradable unit.
type Currency struct {
	// Code upper-case ticker, e.g. USD or BTC.
	Code string
	// Name human-readable name.
	Name string
	// Kind fiat or crypto.
	Kind CurrencyKind
	// Precision number of fractional digits kept in amounts.
	Precision int32
	// Detail issuing country for fiat, hashing algorithm for crypto.
	Detail string
}

// DisplayInfo returns a one-line description for the CLI.
func (c Currency) DisplayInfo() string {
	switch c.Kind {
	case KindFiat:
		return fmt.Sprintf("[FIAT] %s - %s (Issuing: %s)", c.Code, c.Name, c.Detail)
	case KindCrypto:
		return fmt.Sprintf("[CRYPTO] %s - %s (Algo: %s)", c.Code, c.Name, c.Detail)
	default:
		return fmt.Sprintf("%s - %s", c.Code, c.Name)
	}
}

// registry is the static table of supported currencies, in display order.
var registry = []Currency{
	{Code: "USD", Name: "US Dollar", Kind: KindFiat, Precision: 2, Detail: "United States"},
	{Code: "EUR", Name: "Euro", Kind: KindFiat, Precision: 2, Detail: "Eurozone"},
	{Code: "GBP", Name: "Pound Sterling", Kind: KindFiat, Precision: 2, Detail: "United Kingdom"},
	{Code: "RUB", Name: "Russian Ruble", Kind: KindFiat, Precision: 2, Detail: "Russia"},
	{Code: "BTC", Name: "Bitcoin", Kind: KindCrypto, Precision: 8, Detail: "SHA-256"},
	{Code: "ETH", Name: "Ethereum", Kind: KindCrypto, Precision: 8, Detail: "Ethash"},
	{Code: "SOL", Name: "Solana", Kind: KindCrypto, Precision: 8, Detail: "Proof of History"},
}

var registryIndex = func() map[string]int {
	idx := make(map[string]int, len(registry))
	for i, c := range registry {
		idx[c.Code] = i
	}
	return idx
}()

// NormalizeCode trims and upper-cases a user supplied currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// LookupCurrency returns the registered currency for code.
func LookupCurrency(code string) (Currency, error) {
	i, ok := registryIndex[NormalizeCode(code)]
	if !ok {
		return Currency{}, errors.Wrapf(ErrUnknownCurrency, "%q", NormalizeCode(code))
	}
	return registry[i], nil
}

// IsSupported reports whether code is registered.
func IsSupported(code string) bool {
	_, ok := registryIndex[NormalizeCode(code)]
	return ok
}

// PrecisionOf returns the number of fractional digits kept for code.
func PrecisionOf(code string) (int32, error) {
	c, err := LookupCurrency(code)
	if err != nil {
		return 0, err
	}
	return c.Precision, nil
}

// KindOf returns the classification of code.
func KindOf(code string) (CurrencyKind, error) {
	c, err := LookupCurrency(code)
	if err != nil {
		return "", err
	}
	return c.Kind, nil
}

// CurrencyCodes returns all registered codes in registry order.
func CurrencyCodes() []string {
	codes := make([]string, len(registry))
	for i, c := range registry {
		codes[i] = c.Code
	}
	return codes
}

// CurrencyOrder returns the registry position of code, or -1 when unknown.
func CurrencyOrder(code string) int {
	i, ok := registryIndex[NormalizeCode(code)]
	if !ok {
		return -1
	}
	return i
}

// CodesOfKind returns registered codes of one kind in registry order.
func CodesOfKind(kind CurrencyKind) []string {
	var codes []string
	for _, c := range registry {
		if c.Kind == kind {
			codes = append(codes, c.Code)
		}
	}
	return codes
}
