package trading

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

// Holding one wallet line of a portfolio view.
type Holding struct {
	Currency string
	Balance  decimal.Decimal
	// Value in the view base currency, invalid when no fresh rate exists.
	Value decimal.NullDecimal
}

// View portfolio valued in a base currency.
type View struct {
	UserID   int64
	Base     string
	Holdings []Holding
	// Total sum of valued holdings.
	Total decimal.Decimal
	// Complete is false when at least one holding could not be valued.
	Complete bool
}

// PortfolioView lists the user's balances in registry order and values them
// in base, or in the home currency when base is empty. All holdings are
// valued against one rate snapshot.
func (e *Engine) PortfolioView(userID int64, base string, now time.Time) (View, error) {
	if base == "" {
		base = e.home.Code
	}
	baseCurrency, err := domain.LookupCurrency(base)
	if err != nil {
		return View{}, err
	}

	portfolio, err := e.ledger.Portfolio(userID)
	if err != nil {
		return View{}, err
	}

	view := View{
		UserID:   userID,
		Base:     baseCurrency.Code,
		Total:    decimal.Zero,
		Complete: true,
	}
	codes := portfolio.Wallet.Codes()
	rates, err := e.quoter.GetRates(codes, baseCurrency.Code, now)
	if err != nil {
		return View{}, err
	}
	for _, code := range codes {
		holding := Holding{Currency: code, Balance: portfolio.Wallet.Balance(code)}

		rate, ok := rates[code]
		if !ok {
			view.Complete = false
		} else {
			value := holding.Balance.Mul(rate).RoundBank(baseCurrency.Precision)
			holding.Value = decimal.NewNullDecimal(value)
			view.Total = view.Total.Add(value)
		}

		view.Holdings = append(view.Holdings, holding)
	}

	return view, nil
}
