package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupCurrency(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantCode  string
		wantKind  CurrencyKind
		precision int32
	}{
		{name: "fiat", code: "USD", wantCode: "USD", wantKind: KindFiat, precision: 2},
		{name: "crypto", code: "BTC", wantCode: "BTC", wantKind: KindCrypto, precision: 8},
		{name: "lower case and spaces", code: "  eth ", wantCode: "ETH", wantKind: KindCrypto, precision: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := LookupCurrency(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, c.Code)
			assert.Equal(t, tt.wantKind, c.Kind)
			assert.Equal(t, tt.precision, c.Precision)
			assert.True(t, IsSupported(tt.code))
		})
	}
}

func TestLookupCurrency_Unknown(t *testing.T) {
	_, err := LookupCurrency("ZZZ")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
	assert.False(t, IsSupported("ZZZ"))

	_, err = PrecisionOf("ZZZ")
	assert.ErrorIs(t, err, ErrUnknownCurrency)

	_, err = KindOf("")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestCurrencyCodes_RegistryOrder(t *testing.T) {
	codes := CurrencyCodes()
	require.NotEmpty(t, codes)
	assert.Equal(t, "USD", codes[0])
	for i, code := range codes {
		assert.Equal(t, i, CurrencyOrder(code))
	}
	assert.Equal(t, -1, CurrencyOrder("ZZZ"))
}

func TestCodesOfKind(t *testing.T) {
	assert.Equal(t, []string{"USD", "EUR", "GBP", "RUB"}, CodesOfKind(KindFiat))
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, CodesOfKind(KindCrypto))
	assert.Empty(t, CodesOfKind("metal"))
}

func TestPair(t *testing.T) {
	p, err := ParsePair("btc_usd")
	require.NoError(t, err)
	assert.Equal(t, Pair{Base: "BTC", Quote: "USD"}, p)
	assert.Equal(t, "BTC_USD", p.String())
	assert.Equal(t, Pair{Base: "USD", Quote: "BTC"}, p.Inverse())

	_, err = ParsePair("BTCUSD")
	assert.Error(t, err)
}

func TestWallet_CodesOrderedByRegistry(t *testing.T) {
	w := Wallet{}
	w["BTC"] = w.Balance("BTC")
	w["USD"] = w.Balance("USD")
	w["EUR"] = w.Balance("EUR")

	assert.Equal(t, []string{"USD", "EUR", "BTC"}, w.Codes())
	assert.True(t, w.Balance("ETH").IsZero())

	clone := w.Clone()
	delete(clone, "USD")
	assert.Len(t, w, 3)
}
