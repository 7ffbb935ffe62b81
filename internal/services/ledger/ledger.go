// Package ledger stores user wallets and applies balance changes atomically.
package ledger

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"go.uber.org/zap"
)

// Ledger owns every portfolio. A single mutex serializes all mutations so a
// debit and its credit are never interleaved with another change.
type Ledger struct {
	mu         sync.Mutex
	store      domain.Gateway
	logger     *zap.Logger
	portfolios map[int64]*domain.Portfolio
}

// New creates a ledger and restores persisted portfolios.
// A missing or unreadable record starts an empty ledger.
func New(store domain.Gateway, logger *zap.Logger) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("ledger requires a persistence gateway")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{
		store:      store,
		logger:     logger,
		portfolios: make(map[int64]*domain.Portfolio),
	}
	if err := l.restore(); err != nil {
		logger.Warn("discarding unreadable portfolios record", zap.Error(err))
		l.portfolios = make(map[int64]*domain.Portfolio)
	}

	return l, nil
}

func (l *Ledger) restore() error {
	payload, err := l.store.Load(domain.KindPortfolios)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}

	var stored []domain.Portfolio
	if err := json.Unmarshal(payload, &stored); err != nil {
		return errors.Wrap(err, "decode portfolios")
	}

	for i := range stored {
		p := stored[i]
		if p.Wallet == nil {
			p.Wallet = make(domain.Wallet)
		}
		for code, balance := range p.Wallet {
			if balance.IsNegative() {
				return errors.Errorf("negative %s balance for user %d", code, p.UserID)
			}
		}
		l.portfolios[p.UserID] = &p
	}

	return nil
}

// Open creates an empty portfolio for a new user. Opening an existing
// portfolio is a no-op.
func (l *Ledger) Open(userID int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.portfolios[userID]; ok {
		return nil
	}

	l.portfolios[userID] = domain.NewPortfolio(userID)
	if err := l.persist(); err != nil {
		delete(l.portfolios, userID)
		return err
	}

	return nil
}

// GetBalance returns the balance of currency, zero when the user holds none.
func (l *Ledger) GetBalance(userID int64, currency string) (decimal.Decimal, error) {
	c, err := domain.LookupCurrency(currency)
	if err != nil {
		return decimal.Zero, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[userID]
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrUserNotFound, "user %d", userID)
	}

	return p.Wallet.Balance(c.Code), nil
}

// Portfolio returns a copy of the user's portfolio.
func (l *Ledger) Portfolio(userID int64) (domain.Portfolio, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[userID]
	if !ok {
		return domain.Portfolio{}, errors.Wrapf(domain.ErrUserNotFound, "user %d", userID)
	}

	return p.Clone(), nil
}

// Apply decreases the debit balance and increases the credit balance of the
// same user as one step. Nothing changes when the debit is not covered or
// the result cannot be persisted.
func (l *Ledger) Apply(userID int64, debit, credit domain.Leg) error {
	debit, err := validateLeg(debit)
	if err != nil {
		return err
	}
	credit, err = validateLeg(credit)
	if err != nil {
		return err
	}
	if debit.Currency == credit.Currency {
		return errors.Wrapf(domain.ErrSameCurrency, "%s", debit.Currency)
	}

	return l.mutate(userID, func(w domain.Wallet) error {
		available := w.Balance(debit.Currency)
		if available.LessThan(debit.Amount) {
			return &domain.InsufficientFundsError{
				Currency:  debit.Currency,
				Available: available,
				Required:  debit.Amount,
			}
		}
		if remaining := available.Sub(debit.Amount); remaining.IsZero() {
			delete(w, debit.Currency)
		} else {
			w[debit.Currency] = remaining
		}
		w[credit.Currency] = w.Balance(credit.Currency).Add(credit.Amount)
		return nil
	})
}

// Deposit credits virtual funds to a wallet. The amount is truncated to the
// currency precision.
func (l *Ledger) Deposit(userID int64, currency string, amount decimal.Decimal) error {
	precision, err := domain.PrecisionOf(currency)
	if err != nil {
		return err
	}
	credit, err := validateLeg(domain.NewLeg(currency, amount.Truncate(precision)))
	if err != nil {
		return err
	}

	return l.mutate(userID, func(w domain.Wallet) error {
		w[credit.Currency] = w.Balance(credit.Currency).Add(credit.Amount)
		return nil
	})
}

// mutate runs change on a copy of the wallet, persists the result and only
// then installs it. A failed save leaves the previous wallet in place.
func (l *Ledger) mutate(userID int64, change func(w domain.Wallet) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	p, ok := l.portfolios[userID]
	if !ok {
		return errors.Wrapf(domain.ErrUserNotFound, "user %d", userID)
	}

	previous := p.Wallet
	next := previous.Clone()
	if err := change(next); err != nil {
		return err
	}

	p.Wallet = next
	if err := l.persist(); err != nil {
		p.Wallet = previous
		l.logger.Error("portfolio change rolled back", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}

	return nil
}

// persist writes all portfolios. Callers hold l.mu.
func (l *Ledger) persist() error {
	ids := make([]int64, 0, len(l.portfolios))
	for id := range l.portfolios {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	stored := make([]domain.Portfolio, 0, len(ids))
	for _, id := range ids {
		stored = append(stored, *l.portfolios[id])
	}

	payload, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return &domain.PersistenceError{Op: "encode", Kind: domain.KindPortfolios, Err: err}
	}
	if err := l.store.Save(domain.KindPortfolios, payload); err != nil {
		return &domain.PersistenceError{Op: "save", Kind: domain.KindPortfolios, Err: err}
	}

	return nil
}

func validateLeg(leg domain.Leg) (domain.Leg, error) {
	c, err := domain.LookupCurrency(leg.Currency)
	if err != nil {
		return domain.Leg{}, err
	}
	if !leg.Amount.IsPositive() {
		return domain.Leg{}, errors.Wrapf(domain.ErrInvalidAmount, "%s must be positive", leg.Amount)
	}

	return domain.Leg{Currency: c.Code, Amount: leg.Amount}, nil
}
