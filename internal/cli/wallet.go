package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

func parseAmount(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, errors.Wrap(domain.ErrInvalidAmount, "-amount is required")
	}
	amount, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrInvalidAmount, "%q is not a number", value)
	}
	return amount, nil
}

type depositCmd struct {
	app      *App
	currency string
	amount   string
}

func (*depositCmd) Name() string     { return "deposit" }
func (*depositCmd) Synopsis() string { return "top up the wallet with virtual funds" }
func (*depositCmd) Usage() string {
	return `deposit -currency <code> -amount <n>
`
}

func (c *depositCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "currency code, e.g. USD")
	f.StringVar(&c.amount, "amount", "", "positive amount")
}

func (c *depositCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, ok := c.app.currentUser()
	if !ok {
		return subcommands.ExitFailure
	}
	code, err := parseCode("currency", c.currency)
	if err != nil {
		return c.app.fail(err)
	}
	amount, err := parseAmount(c.amount)
	if err != nil {
		return c.app.fail(err)
	}

	// the ledger keeps only the registered precision
	amount = amount.Truncate(precisionOf(code))
	if err := c.app.ledger.Deposit(user.ID, code, amount); err != nil {
		return c.app.fail(err)
	}
	balance, err := c.app.ledger.GetBalance(user.ID, code)
	if err != nil {
		return c.app.fail(err)
	}

	c.app.success("Deposited %s %s, balance %s %s", amount, code, balance, code)
	return subcommands.ExitSuccess
}

type tradeCmd struct {
	app      *App
	side     domain.Side
	currency string
	amount   string
}

func (c *tradeCmd) Name() string { return c.side.String() }
func (c *tradeCmd) Synopsis() string {
	if c.side == domain.SideBuy {
		return "buy a currency paying in the home currency"
	}
	return "sell a currency for the home currency"
}
func (c *tradeCmd) Usage() string {
	return fmt.Sprintf("%s -currency <code> -amount <n>\n", c.side)
}

func (c *tradeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "currency code, e.g. BTC")
	f.StringVar(&c.amount, "amount", "", "amount of the currency")
}

func (c *tradeCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, ok := c.app.currentUser()
	if !ok {
		return subcommands.ExitFailure
	}
	if c.currency == "" {
		return c.app.usage("%s requires -currency", c.side)
	}
	amount, err := parseAmount(c.amount)
	if err != nil {
		return c.app.fail(err)
	}

	var result domain.TradeResult
	if c.side == domain.SideBuy {
		result, err = c.app.engine.Buy(user.ID, c.currency, amount, c.app.now())
	} else {
		result, err = c.app.engine.Sell(user.ID, c.currency, amount, c.app.now())
	}
	if err != nil {
		return c.app.fail(err)
	}

	c.app.success("%s", result)

	// balances after the trade
	rows := make([][]string, 0, 2)
	for _, code := range []string{result.Currency, result.QuoteCurrency} {
		balance, err := c.app.ledger.GetBalance(user.ID, code)
		if err != nil {
			return c.app.fail(err)
		}
		rows = append(rows, []string{code, balance.String()})
	}
	fmt.Fprintln(c.app.out, renderTable([]string{"Currency", "Balance"}, rows, false))

	return subcommands.ExitSuccess
}

type showPortfolioCmd struct {
	app  *App
	base string
}

func (*showPortfolioCmd) Name() string     { return "show-portfolio" }
func (*showPortfolioCmd) Synopsis() string { return "list balances valued in a base currency" }
func (*showPortfolioCmd) Usage() string {
	return `show-portfolio [-base <code>]

  Values every holding with the cached rates. Holdings without a fresh rate
  are shown without a value.
`
}

func (c *showPortfolioCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.base, "base", "", "valuation currency, the home currency by default")
}

func (c *showPortfolioCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, ok := c.app.currentUser()
	if !ok {
		return subcommands.ExitFailure
	}

	view, err := c.app.engine.PortfolioView(user.ID, c.base, c.app.now())
	if err != nil {
		return c.app.fail(err)
	}

	fmt.Fprintln(c.app.out, headerStyle.Render(fmt.Sprintf("Portfolio of %s (base %s)", user.Username, view.Base)))
	if len(view.Holdings) == 0 {
		fmt.Fprintln(c.app.out, hintStyle.Render("wallet is empty, try: deposit -currency USD -amount 1000"))
		return subcommands.ExitSuccess
	}

	rows := make([][]string, 0, len(view.Holdings)+1)
	for _, h := range view.Holdings {
		value := "n/a"
		if h.Value.Valid {
			value = h.Value.Decimal.StringFixed(precisionOf(view.Base))
		}
		rows = append(rows, []string{h.Currency, h.Balance.String(), value})
	}
	rows = append(rows, []string{"TOTAL", "", view.Total.StringFixed(precisionOf(view.Base))})
	fmt.Fprintln(c.app.out, renderTable([]string{"Currency", "Balance", "Value " + view.Base}, rows, true))

	if !view.Complete {
		fmt.Fprintln(c.app.out, hintStyle.Render("some holdings have no fresh rate, run update-rates"))
	}
	return subcommands.ExitSuccess
}

type historyCmd struct {
	app   *App
	limit int
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "list applied trades of the current user" }
func (*historyCmd) Usage() string {
	return `history [-limit <n>]
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "limit", 20, "show at most n most recent trades, 0 for all")
}

func (c *historyCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, ok := c.app.currentUser()
	if !ok {
		return subcommands.ExitFailure
	}

	trades, err := c.app.engine.History(user.ID)
	if err != nil {
		return c.app.fail(err)
	}
	if len(trades) == 0 {
		fmt.Fprintln(c.app.out, hintStyle.Render("no trades yet"))
		return subcommands.ExitSuccess
	}
	if c.limit > 0 && len(trades) > c.limit {
		trades = trades[len(trades)-c.limit:]
	}

	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			t.Timestamp.Local().Format("2006-01-02 15:04:05"),
			t.Side.String(),
			t.Amount.String() + " " + t.Currency,
			t.Price.String(),
			t.Cost.String() + " " + t.QuoteCurrency,
		})
	}
	fmt.Fprintln(c.app.out, renderTable([]string{"Time", "Side", "Amount", "Price", "Total"}, rows, false))
	return subcommands.ExitSuccess
}

func precisionOf(code string) int32 {
	p, err := domain.PrecisionOf(code)
	if err != nil {
		return 2
	}
	return p
}
