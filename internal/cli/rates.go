package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

type getRateCmd struct {
	app  *App
	from string
	to   string
}

func (*getRateCmd) Name() string     { return "get-rate" }
func (*getRateCmd) Synopsis() string { return "show the cached rate of a pair" }
func (*getRateCmd) Usage() string {
	return `get-rate -from <code> -to <code>

  Fails when the cache is older than rates_ttl_seconds.
`
}

func (c *getRateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "base currency")
	f.StringVar(&c.to, "to", "", "quote currency")
}

func (c *getRateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, err := parseCode("from", c.from)
	if err != nil {
		return c.app.fail(err)
	}
	to, err := parseCode("to", c.to)
	if err != nil {
		return c.app.fail(err)
	}

	rate, err := c.app.engine.Quote(from, to, c.app.now())
	if err != nil {
		return c.app.fail(err)
	}

	lastRefresh, source := c.app.cache.LastRefresh()
	c.app.printf("%s→%s %s (updated %s, %s)\n", from, to, rate.String(),
		lastRefresh.Local().Format("2006-01-02 15:04:05"), source)
	return subcommands.ExitSuccess
}

type updateRatesCmd struct {
	app *App
}

func (*updateRatesCmd) Name() string     { return "update-rates" }
func (*updateRatesCmd) Synopsis() string { return "fetch fresh rates from the configured sources" }
func (*updateRatesCmd) Usage() string {
	return `update-rates

  Replaces the whole cache. On any failure the previous rates stay.
`
}
func (*updateRatesCmd) SetFlags(_ *flag.FlagSet) {}

func (c *updateRatesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	summary, err := c.app.updater.Refresh(ctx)
	if err != nil {
		return c.app.fail(err)
	}

	c.app.success("Updated %d pairs from %s at %s", summary.Count, summary.Source,
		summary.FetchedAt.Local().Format("2006-01-02 15:04:05"))
	return subcommands.ExitSuccess
}

type showRatesCmd struct {
	app      *App
	currency string
}

func (*showRatesCmd) Name() string     { return "show-rates" }
func (*showRatesCmd) Synopsis() string { return "list cached rates" }
func (*showRatesCmd) Usage() string {
	return `show-rates [-currency <code>]
`
}

func (c *showRatesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "only pairs involving this currency")
}

func (c *showRatesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	filter := ""
	if c.currency != "" {
		code, err := parseCode("currency", c.currency)
		if err != nil {
			return c.app.fail(err)
		}
		filter = code
	}

	entries := c.app.cache.Entries()
	if len(entries) == 0 {
		return c.app.fail(domain.ErrUnknownPair)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if filter != "" && e.Pair.Base != filter && e.Pair.Quote != filter {
			continue
		}
		rows = append(rows, []string{e.Pair.String(), e.Price.String(), e.Source})
	}

	lastRefresh, source := c.app.cache.LastRefresh()
	state := successStyle.Render("fresh")
	if !c.app.cache.IsFresh(c.app.now()) {
		state = errorStyle.Render("stale")
	}
	fmt.Fprintln(c.app.out, headerStyle.Render(fmt.Sprintf("Rates from %s, refreshed %s", source,
		lastRefresh.Local().Format("2006-01-02 15:04:05")))+" "+state)
	fmt.Fprintln(c.app.out, renderTable([]string{"Pair", "Rate", "Source"}, rows, false))
	return subcommands.ExitSuccess
}

type currenciesCmd struct {
	app *App
}

func (*currenciesCmd) Name() string             { return "currencies" }
func (*currenciesCmd) Synopsis() string         { return "list supported currencies" }
func (*currenciesCmd) Usage() string            { return "currencies\n" }
func (*currenciesCmd) SetFlags(_ *flag.FlagSet) {}

func (c *currenciesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rows := make([][]string, 0, len(domain.CurrencyCodes()))
	for _, code := range domain.CurrencyCodes() {
		currency, err := domain.LookupCurrency(code)
		if err != nil {
			return c.app.fail(err)
		}
		rows = append(rows, []string{currency.Code, currency.DisplayInfo(), fmt.Sprint(currency.Precision)})
	}
	fmt.Fprintln(c.app.out, renderTable([]string{"Code", "Description", "Decimals"}, rows, false))
	return subcommands.ExitSuccess
}
