// Package trading turns buy and sell requests into ledger changes priced
// from the rate cache.
package trading

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"go.uber.org/zap"
)

// RateQuoter provides prices from the current rate snapshot.
type RateQuoter interface {
	GetRate(base, quote string, now time.Time) (decimal.Decimal, error)
	// GetRates prices several bases against the same snapshot, omitting
	// bases without a usable rate.
	GetRates(bases []string, quote string, now time.Time) (map[string]decimal.Decimal, error)
}

// Ledger applies balance changes.
type Ledger interface {
	Apply(userID int64, debit, credit domain.Leg) error
	Portfolio(userID int64) (domain.Portfolio, error)
}

// Journal records applied trades.
type Journal interface {
	Append(result domain.TradeResult) error
	History(userID int64) ([]domain.TradeResult, error)
}

// Engine executes trades against the home currency.
type Engine struct {
	home    domain.Currency
	quoter  RateQuoter
	ledger  Ledger
	journal Journal
	logger  *zap.Logger
}

// NewEngine creates an Engine. journal may be nil.
func NewEngine(homeCurrency string, quoter RateQuoter, ledger Ledger, journal Journal, logger *zap.Logger) (*Engine, error) {
	home, err := domain.LookupCurrency(homeCurrency)
	if err != nil {
		return nil, errors.Wrap(err, "home currency")
	}
	if quoter == nil {
		return nil, errors.New("rate quoter is required for Engine")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required for Engine")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		home:    home,
		quoter:  quoter,
		ledger:  ledger,
		journal: journal,
		logger:  logger,
	}, nil
}

// HomeCurrency returns the currency trades are settled in.
func (e *Engine) HomeCurrency() string {
	return e.home.Code
}

// Buy acquires amount of currency paying in the home currency.
func (e *Engine) Buy(userID int64, currency string, amount decimal.Decimal, now time.Time) (domain.TradeResult, error) {
	return e.trade(userID, domain.SideBuy, currency, amount, now)
}

// Sell disposes of amount of currency for the home currency.
func (e *Engine) Sell(userID int64, currency string, amount decimal.Decimal, now time.Time) (domain.TradeResult, error) {
	return e.trade(userID, domain.SideSell, currency, amount, now)
}

func (e *Engine) trade(userID int64, side domain.Side, currency string, amount decimal.Decimal, now time.Time) (domain.TradeResult, error) {
	intent, err := e.newIntent(userID, side, currency, amount)
	if err != nil {
		return domain.TradeResult{}, err
	}

	// one price for the whole trade
	price, err := e.quoter.GetRate(intent.Currency, intent.QuoteCurrency, now)
	if err != nil {
		return domain.TradeResult{}, err
	}

	value := intent.Amount.Mul(price).RoundBank(e.home.Precision)
	if !value.IsPositive() {
		return domain.TradeResult{}, errors.Wrapf(domain.ErrInvalidAmount,
			"%s %s is worth less than the smallest %s unit", intent.Amount, intent.Currency, e.home.Code)
	}

	debit, credit := intent.Legs(value)
	if err := e.ledger.Apply(userID, debit, credit); err != nil {
		e.logger.Info("trade rejected",
			zap.Int64("user_id", userID),
			zap.String("side", side.String()),
			zap.String("currency", intent.Currency),
			zap.String("amount", intent.Amount.String()),
			zap.Error(err))
		return domain.TradeResult{}, err
	}

	result := domain.TradeResult{
		ID:            uuid.New().String(),
		UserID:        userID,
		Side:          side,
		Currency:      intent.Currency,
		Amount:        intent.Amount,
		Cost:          value,
		Price:         price,
		QuoteCurrency: intent.QuoteCurrency,
		Timestamp:     now,
	}

	if e.journal != nil {
		if err := e.journal.Append(result); err != nil {
			e.logger.Warn("failed to journal trade", zap.String("trade_id", result.ID), zap.Error(err))
		}
	}

	e.logger.Info("trade applied",
		zap.String("trade_id", result.ID),
		zap.Int64("user_id", userID),
		zap.String("side", side.String()),
		zap.String("currency", result.Currency),
		zap.String("amount", result.Amount.String()),
		zap.String("price", result.Price.String()),
		zap.String("cost", result.Cost.String()))

	return result, nil
}

// newIntent validates a request without touching the cache or the ledger.
// Amounts are truncated to the currency precision before the sign check.
func (e *Engine) newIntent(userID int64, side domain.Side, currency string, amount decimal.Decimal) (domain.TradeIntent, error) {
	c, err := domain.LookupCurrency(currency)
	if err != nil {
		return domain.TradeIntent{}, err
	}
	if c.Code == e.home.Code {
		return domain.TradeIntent{}, errors.Wrapf(domain.ErrSameCurrency, "%s is the home currency", c.Code)
	}

	amount = amount.Truncate(c.Precision)
	if !amount.IsPositive() {
		return domain.TradeIntent{}, errors.Wrapf(domain.ErrInvalidAmount,
			"amount must be positive with at most %d decimals", c.Precision)
	}

	return domain.TradeIntent{
		UserID:        userID,
		Side:          side,
		Currency:      c.Code,
		Amount:        amount,
		QuoteCurrency: e.home.Code,
	}, nil
}

// Quote returns the cached price of one base in quote.
func (e *Engine) Quote(base, quote string, now time.Time) (decimal.Decimal, error) {
	return e.quoter.GetRate(base, quote, now)
}

// History returns the user's applied trades, oldest first.
func (e *Engine) History(userID int64) ([]domain.TradeResult, error) {
	if e.journal == nil {
		return nil, nil
	}
	return e.journal.History(userID)
}
