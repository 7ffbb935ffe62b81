// Package cli implements the valutatrade command line: one subcommand per
// use case plus an interactive shell running the same commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/config"
	"github.com/vadiminshakov/valutatrade/internal/clients"
	"github.com/vadiminshakov/valutatrade/internal/domain"
	"github.com/vadiminshakov/valutatrade/internal/services/ledger"
	"github.com/vadiminshakov/valutatrade/internal/services/ratecache"
	"github.com/vadiminshakov/valutatrade/internal/services/rates"
	"github.com/vadiminshakov/valutatrade/internal/services/session"
	"github.com/vadiminshakov/valutatrade/internal/services/trading"
	"github.com/vadiminshakov/valutatrade/internal/storage/filestore"
	"github.com/vadiminshakov/valutatrade/internal/storage/tradejournal"
	"go.uber.org/zap"
)

// App wires services for one CLI process.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	cache   *ratecache.Cache
	ledger  *ledger.Ledger
	engine  *trading.Engine
	updater *rates.Updater
	users   *session.Users
	session *session.Session
	journal *tradejournal.WALStore

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	now    func() time.Time
	// prompt asks for a secret when it is not passed as a flag.
	prompt func(title string) (string, error)
}

// NewApp opens the stores under cfg.DataDir and builds the services.
func NewApp(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := filestore.NewStore(cfg.DataDir,
		filestore.WithBackupDir(cfg.BackupPath()),
		filestore.WithLogger(logger.Named("filestore")))
	if err != nil {
		return nil, errors.Wrap(err, "open data directory")
	}

	cache, err := ratecache.New(cfg.RatesTTL(), store, logger.Named("ratecache"))
	if err != nil {
		return nil, err
	}
	l, err := ledger.New(store, logger.Named("ledger"))
	if err != nil {
		return nil, err
	}
	journal, err := tradejournal.NewWALStore(cfg.JournalPath())
	if err != nil {
		return nil, errors.Wrap(err, "open trade journal")
	}

	engine, err := trading.NewEngine(cfg.HomeCurrency, cache, l, journal, logger.Named("trading"))
	if err != nil {
		journal.Close()
		return nil, err
	}
	updater, err := rates.NewUpdater(cache, cfg.HomeCurrency, rateSources(cfg), logger.Named("rates"),
		rates.WithTimeout(cfg.RequestTimeout*3))
	if err != nil {
		journal.Close()
		return nil, err
	}
	users, err := session.NewUsers(store, l, logger.Named("users"))
	if err != nil {
		journal.Close()
		return nil, err
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		cache:   cache,
		ledger:  l,
		engine:  engine,
		updater: updater,
		users:   users,
		session: session.NewSession(store),
		journal: journal,
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		now:     time.Now,
		prompt:  promptPassword,
	}, nil
}

// rateSources picks one fiat and one crypto source. Offline mode and a
// missing API key fall back to the stub table.
func rateSources(cfg config.Config) []rates.Source {
	if cfg.OfflineRates {
		return []rates.Source{rates.NewStubSource()}
	}

	var fiat rates.Source = rates.NewStubSource(domain.KindFiat)
	if cfg.ExchangeRateAPIKey != "" {
		fiat = rates.NewExchangeRateAPISource(cfg.ExchangeRateAPIKey, "", cfg.RequestTimeout)
	}
	crypto := rates.NewFallback(
		rates.NewBinanceSource(clients.NewBinancePublicClient(cfg.RequestTimeout)),
		rates.NewBybitSource(clients.NewBybitPublicClient()),
	)

	return []rates.Source{fiat, crypto}
}

// Close releases the trade journal.
func (a *App) Close() error {
	return a.journal.Close()
}

// Register adds every command to c. The shell is registered only at top level.
func (a *App) Register(c *subcommands.Commander, withShell bool) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	c.Register(&registerCmd{app: a}, "account")
	c.Register(&loginCmd{app: a}, "account")
	c.Register(&logoutCmd{app: a}, "account")
	c.Register(&whoamiCmd{app: a}, "account")

	c.Register(&depositCmd{app: a}, "wallet")
	c.Register(&tradeCmd{app: a, side: domain.SideBuy}, "wallet")
	c.Register(&tradeCmd{app: a, side: domain.SideSell}, "wallet")
	c.Register(&showPortfolioCmd{app: a}, "wallet")
	c.Register(&historyCmd{app: a}, "wallet")

	c.Register(&getRateCmd{app: a}, "rates")
	c.Register(&updateRatesCmd{app: a}, "rates")
	c.Register(&showRatesCmd{app: a}, "rates")
	c.Register(&currenciesCmd{app: a}, "rates")

	if withShell {
		c.Register(&shellCmd{app: a}, "")
	}
}

// Run executes one command line.
func (a *App) Run(ctx context.Context, args []string, withShell bool) subcommands.ExitStatus {
	fs := flag.NewFlagSet("valutatrade", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	if err := fs.Parse(args); err != nil {
		return subcommands.ExitUsageError
	}

	commander := subcommands.NewCommander(fs, "valutatrade")
	commander.Output = a.out
	commander.Error = a.errOut
	a.Register(commander, withShell)

	return commander.Execute(ctx)
}

// currentUser resolves the logged-in user and reports a failure when nobody is.
func (a *App) currentUser() (domain.SessionUser, bool) {
	user, err := a.session.CurrentUser()
	if err != nil {
		a.fail(err)
		return domain.SessionUser{}, false
	}
	return user, true
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) success(format string, args ...any) {
	fmt.Fprintln(a.out, successStyle.Render(fmt.Sprintf(format, args...)))
}
