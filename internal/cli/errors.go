package cli

import (
	"fmt"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"go.uber.org/zap"
)

// hints suggest the next command for expected failures.
var hints = []struct {
	err  error
	hint string
}{
	{domain.ErrNotLoggedIn, "log in first: valutatrade login -username <name>"},
	{domain.ErrStaleRate, "refresh the cache: valutatrade update-rates"},
	{domain.ErrUnknownPair, "refresh the cache: valutatrade update-rates"},
	{domain.ErrInsufficientFunds, "top up the wallet: valutatrade deposit -currency <code> -amount <n>"},
	{domain.ErrUnknownCurrency, "list supported codes: valutatrade currencies"},
	{domain.ErrFetchFailure, "check the network or set offline_rates and retry update-rates"},
	{domain.ErrUserNotFound, "create an account: valutatrade register -username <name>"},
}

func hintFor(err error) string {
	for _, h := range hints {
		if errors.Is(err, h.err) {
			return h.hint
		}
	}
	return ""
}

// fail reports err with a hint and returns the failure status.
func (a *App) fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(a.errOut, errorStyle.Render("error: ")+err.Error())
	if hint := hintFor(err); hint != "" {
		fmt.Fprintln(a.errOut, hintStyle.Render(hint))
	}
	a.logger.Debug("command failed", zap.Error(err))
	return subcommands.ExitFailure
}

// usage reports a missing or malformed flag.
func (a *App) usage(format string, args ...any) subcommands.ExitStatus {
	fmt.Fprintln(a.errOut, errorStyle.Render("usage: ")+fmt.Sprintf(format, args...))
	return subcommands.ExitUsageError
}
