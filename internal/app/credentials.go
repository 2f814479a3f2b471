package app

import (
	"fmt"

	"github.com/jgivc/coursefetch/internal/adapter/session"
	"github.com/urfave/cli/v2"
)

const (
	flagEdit = "edit"
	flagPath = "path"
)

func (a *App) credentialsCommand() *cli.Command {
	return &cli.Command{
		Name:  "credentials",
		Usage: "check, locate or edit the credentials file (headers and cookies of a logged in browser session)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flagEdit, Usage: "open the credentials file in $EDITOR"},
			&cli.BoolFlag{Name: flagPath, Usage: "print the path of the credentials file"},
		},
		Action: a.credentials,
	}
}

func (a *App) credentials(c *cli.Context) error {
	cfg, log, err := a.setup(c)
	if err != nil {
		return err
	}

	store := session.NewStore(a.fs, cfg.CredentialsFile, log)
	if err := store.Ensure(); err != nil {
		return err
	}

	switch {
	case c.Bool(flagPath):
		fmt.Fprintln(a.stdout, store.Path())

		return nil
	case c.Bool(flagEdit):
		a.console.Info(fmt.Sprintf("Credentials File Path: %s", store.Path()))

		if err := store.EditCommand().Run(); err != nil {
			return fmt.Errorf("failed to edit the file: %w", err)
		}
	}

	creds, err := store.Load()
	if err != nil {
		return err
	}

	a.console.Info(fmt.Sprintf("%s has %d headers and %d cookies.", store.Path(), len(creds.Headers), len(creds.Cookies)))

	return nil
}
