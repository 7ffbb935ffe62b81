package cli

import (
	"context"
	"flag"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/valutatrade/internal/domain"
)

type registerCmd struct {
	app      *App
	username string
	password string
}

func (*registerCmd) Name() string     { return "register" }
func (*registerCmd) Synopsis() string { return "create an account with an empty wallet" }
func (*registerCmd) Usage() string {
	return `register -username <name> [-password <secret>]

  Creates a user. The password is prompted for when not passed.
`
}

func (c *registerCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "login name, at least 3 letters or digits")
	f.StringVar(&c.password, "password", "", "password, at least 4 characters")
}

func (c *registerCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		return c.app.usage("register requires -username")
	}
	password, err := c.app.resolvePassword(c.password, "Choose a password")
	if err != nil {
		return c.app.fail(err)
	}

	user, err := c.app.users.Register(c.username, password)
	if err != nil {
		return c.app.fail(err)
	}

	c.app.success("User %q registered (id=%d). Log in with: login -username %s", user.Username, user.ID, user.Username)
	return subcommands.ExitSuccess
}

type loginCmd struct {
	app      *App
	username string
	password string
}

func (*loginCmd) Name() string     { return "login" }
func (*loginCmd) Synopsis() string { return "log in as an existing user" }
func (*loginCmd) Usage() string {
	return `login -username <name> [-password <secret>]
`
}

func (c *loginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.username, "username", "", "login name")
	f.StringVar(&c.password, "password", "", "password")
}

func (c *loginCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.username == "" {
		return c.app.usage("login requires -username")
	}
	password, err := c.app.resolvePassword(c.password, "Password")
	if err != nil {
		return c.app.fail(err)
	}

	user, err := c.app.users.Authenticate(c.username, password)
	if err != nil {
		return c.app.fail(err)
	}
	if _, err := c.app.session.Login(user); err != nil {
		return c.app.fail(err)
	}

	c.app.success("Logged in as %q", user.Username)
	return subcommands.ExitSuccess
}

type logoutCmd struct {
	app *App
}

func (*logoutCmd) Name() string             { return "logout" }
func (*logoutCmd) Synopsis() string         { return "end the current session" }
func (*logoutCmd) Usage() string            { return "logout\n" }
func (*logoutCmd) SetFlags(_ *flag.FlagSet) {}

func (c *logoutCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.app.session.Logout(); err != nil {
		return c.app.fail(err)
	}
	c.app.success("Logged out")
	return subcommands.ExitSuccess
}

type whoamiCmd struct {
	app *App
}

func (*whoamiCmd) Name() string             { return "whoami" }
func (*whoamiCmd) Synopsis() string         { return "show the logged-in user" }
func (*whoamiCmd) Usage() string            { return "whoami\n" }
func (*whoamiCmd) SetFlags(_ *flag.FlagSet) {}

func (c *whoamiCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	user, ok := c.app.currentUser()
	if !ok {
		return subcommands.ExitFailure
	}
	c.app.printf("%s (id=%d)\n", user.Username, user.ID)
	return subcommands.ExitSuccess
}

// parseCode validates a currency flag.
func parseCode(flagName, value string) (string, error) {
	if value == "" {
		return "", errors.Errorf("-%s is required", flagName)
	}
	c, err := domain.LookupCurrency(value)
	if err != nil {
		return "", err
	}
	return c.Code, nil
}
