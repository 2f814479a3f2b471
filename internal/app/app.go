package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/jgivc/coursefetch/internal/adapter/console"
	"github.com/jgivc/coursefetch/internal/common"
	"github.com/jgivc/coursefetch/internal/config"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

const (
	flagConfig = "config"
	dotEnvFile = ".env"
)

var errUsage = errors.New("usage error")

type App struct {
	version string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs

	// configDir overrides the per-user config directory
	configDir string
	dotEnv    bool

	console *console.Console
}

func New(version string) *App {
	return &App{
		version: version,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		fs:      afero.NewOsFs(),
		dotEnv:  true,
	}
}

// Run executes the command line and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	a.console = console.New(a.stdout, a.stdin)

	app := &cli.App{
		Name:      config.AppName,
		Usage:     "download courses with their videos, resources and text lectures",
		Version:   a.version,
		Writer:    a.stdout,
		ErrWriter: a.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "path to the config file (default: <user config dir>/coursefetch/config.yml)",
			},
		},
		Commands: []*cli.Command{
			a.downloadCommand(),
			a.historyCommand(),
			a.credentialsCommand(),
		},
		ExitErrHandler: func(*cli.Context, error) {},
	}

	return a.report(app.RunContext(ctx, args))
}

// setup loads the config and builds the root logger of the run.
func (a *App) setup(c *cli.Context) (*config.Config, *slog.Logger, error) {
	dir := a.configDir
	if dir == "" {
		var err error
		if dir, err = config.Dir(); err != nil {
			return nil, nil, err
		}
	}

	if a.dotEnv {
		if err := config.LoadDotEnv(dotEnvFile); err != nil {
			return nil, nil, err
		}
	}

	path, required := c.String(flagConfig), true
	if path == "" {
		path, required = filepath.Join(dir, config.ConfigFileName), false
	}

	cfg, err := config.Load(a.fs, path, required, dir)
	if err != nil {
		return nil, nil, err
	}

	level, err := cfg.LogLevel.Level()
	if err != nil {
		return nil, nil, err
	}

	log := slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})).
		With(slog.String("run_id", uuid.NewString()))

	return cfg, log, nil
}

// report prints what went wrong and picks the exit code. An interrupted run
// cleaned up after itself and counts as a success.
func (a *App) report(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, common.ErrInterrupted), errors.Is(err, context.Canceled):
		a.console.Warn("Process interrupted. cleaning up...")
		a.console.Info("Cleanup was successful")

		return 0
	case errors.Is(err, common.ErrIncorrectURL):
		a.console.Error(fmt.Sprintf("Incorrect Url. %s", err))
		a.console.Info("Use a course or lecture url of the configured base_url.")
	case errors.Is(err, common.ErrElementNotFound):
		a.console.Error("The program couldn't fetch resources. There might be updates to the site or your subscription has ended. Or you might have invalid cookies.")
		a.console.Info(err.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		a.console.Error("The content inside the credentials file is not valid. Please add the appropriate headers and cookies.")
		a.console.Info(fmt.Sprintf("Use `%s credentials --edit` to edit the credentials.", config.AppName))
	case errors.Is(err, common.ErrRange):
		a.console.Error("The specified section or lecture doesn't exist.")
	default:
		a.console.Error(err.Error())
	}

	return 1
}
