package cli

import (
	"github.com/charmbracelet/huh"
	"github.com/pkg/errors"
)

// promptPassword reads a secret from the terminal without echoing it.
func promptPassword(title string) (string, error) {
	var password string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Value(&password).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password must not be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return "", errors.Wrap(err, "password prompt")
	}
	return password, nil
}

// resolvePassword returns the flag value or asks for it.
func (a *App) resolvePassword(flagValue, title string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return a.prompt(title)
}
