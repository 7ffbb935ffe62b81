package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

type shellCmd struct {
	app *App
}

func (*shellCmd) Name() string     { return "shell" }
func (*shellCmd) Synopsis() string { return "run commands interactively" }
func (*shellCmd) Usage() string {
	return `shell

  Reads one command per line, e.g. "buy -currency BTC -amount 0.01".
  Type "exit" or "quit" to leave.
`
}
func (*shellCmd) SetFlags(_ *flag.FlagSet) {}

func (c *shellCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Fprintln(c.app.out, headerStyle.Render("valutatrade shell")+" "+hintStyle.Render("type help, or exit to quit"))

	scanner := bufio.NewScanner(c.app.in)
	for {
		fmt.Fprint(c.app.out, "> ")
		if !scanner.Scan() {
			break
		}

		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			break
		}

		// each line gets a fresh commander so flag values never leak between lines
		c.app.Run(ctx, args, false)

		if ctx.Err() != nil {
			break
		}
	}
	fmt.Fprintln(c.app.out)

	if err := scanner.Err(); err != nil {
		return c.app.fail(err)
	}
	return subcommands.ExitSuccess
}
