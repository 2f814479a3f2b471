package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jgivc/coursefetch/internal/adapter/fsadapter"
	"github.com/jgivc/coursefetch/internal/adapter/scraper"
	"github.com/jgivc/coursefetch/internal/adapter/session"
	"github.com/jgivc/coursefetch/internal/adapter/tpladapter"
	"github.com/jgivc/coursefetch/internal/config"
	"github.com/jgivc/coursefetch/internal/repository/journal"
	"github.com/jgivc/coursefetch/internal/service/download"
	"github.com/jgivc/coursefetch/internal/service/prefetch"
	"github.com/jgivc/coursefetch/internal/service/retry"
	"github.com/jgivc/coursefetch/internal/service/selector"
	"github.com/jgivc/coursefetch/internal/service/transfer"
	"github.com/urfave/cli/v2"
)

const (
	flagSection     = "section"
	flagLecture     = "lecture"
	flagOnly        = "only"
	flagTimeout     = "timeout"
	flagChunkSize   = "chunk-size"
	flagNoConfirm   = "noconfirm"
	flagWorkers     = "workers"
	flagMaxAttempts = "max-attempts"
	flagIndex       = "index"
)

func (a *App) downloadCommand() *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "download a course or a part of it",
		ArgsUsage: "URL [PATH]",
		Description: "URL is any course or lecture url of the course. PATH is where the course directory is created (default: current directory).\n" +
			"SPEC is N, start, end, all or LOW:HIGH. A single number means from N onward, or exactly N with --only.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagSection, Aliases: []string{"s"}, Usage: "sections to download, `SPEC`"},
			&cli.StringFlag{Name: flagLecture, Aliases: []string{"l"}, Usage: "lectures to download in the first selected section, `SPEC`"},
			&cli.BoolFlag{Name: flagOnly, Usage: "download exactly the given section and lecture"},
			&cli.IntFlag{Name: flagTimeout, Aliases: []string{"T"}, Usage: "network timeout in `SECONDS`"},
			&cli.IntFlag{Name: flagChunkSize, Usage: "read size of a transfer in bytes"},
			&cli.BoolFlag{Name: flagNoConfirm, Usage: "overwrite existing files without asking"},
			&cli.IntFlag{Name: flagWorkers, Usage: "lecture pages fetched concurrently ahead of the downloads"},
			&cli.IntFlag{Name: flagMaxAttempts, Usage: "give up a request after N attempts, 0 retries forever"},
			&cli.BoolFlag{Name: flagIndex, Usage: "write an index.html into the course directory"},
		},
		Action: a.download,
	}
}

func (a *App) download(c *cli.Context) error {
	if c.NArg() < 1 || c.NArg() > 2 {
		return fmt.Errorf("%w: download needs URL and an optional PATH", errUsage)
	}

	sections, lectures, err := rangeSpecs(c.String(flagSection), c.String(flagLecture), c.Bool(flagOnly))
	if err != nil {
		return err
	}

	cfg, log, err := a.setup(c)
	if err != nil {
		return err
	}
	applyDownloadFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	basePath := c.Args().Get(1)
	if basePath == "" {
		basePath = "."
	}

	creds, err := session.NewStore(a.fs, cfg.CredentialsFile, log).Load()
	if err != nil {
		return err
	}

	client := session.NewClient(creds, session.ClientOptions{
		Timeout:           cfg.TimeoutDuration(),
		RequestsPerSecond: *cfg.RequestsPerSecond,
	}, log)

	policy := retry.NewPolicy(retry.NetworkClassifier(cfg.RetryDelay), cfg.MaxAttempts, log)
	policy.Notify = a.notify

	scr, err := scraper.NewScraper(client, cfg.BaseURL, policy, log)
	if err != nil {
		return err
	}

	course, err := scr.Course(c.Args().Get(0))
	if err != nil {
		return err
	}

	renderer, err := tpladapter.NewTplAdapter(cfg.LectureTemplate)
	if err != nil {
		return err
	}

	engine := transfer.NewEngine(client, a.fs, policy, cfg.TimeoutDuration(), log)
	svc := download.NewDownloadService(a.fs, engine, renderer, a.console, log)

	if cfg.Workers > 1 {
		svc.SetPrefetcher(prefetch.NewPool(cfg.Workers, log))
	}

	if cfg.RedisURL != "" {
		rdb, err := journal.NewRedisClient(c.Context, cfg.RedisURL)
		if err != nil {
			log.Warn("Journal disabled", slog.Any("error", err))
		} else {
			defer rdb.Close()
			svc.SetJournal(journal.NewJournalRepository(rdb, log))
		}
	}

	if cfg.WriteIndex {
		index, err := fsadapter.NewFSAdapterWithFS(a.fs, log)
		if err != nil {
			return err
		}

		svc.SetIndexWriter(index)
	}

	report, err := svc.Download(c.Context, course, download.Options{
		BasePath:  basePath,
		Sections:  sections,
		Lectures:  lectures,
		ChunkSize: cfg.ChunkSize,
		NoConfirm: cfg.NoConfirm,
		Index:     cfg.WriteIndex,
	})
	if err != nil {
		return err
	}

	a.console.Info(fmt.Sprintf("Done. %d files saved to %s, %d skipped.", report.Files, report.CourseDir, report.Skipped))

	return nil
}

func (a *App) notify(err error, action retry.Action, attempt int) {
	a.console.Error(action.Message)

	if action.Hint != "" {
		a.console.Info(action.Hint)
	}

	if action.Kind != retry.KindRetryImmediately {
		a.console.Error(err.Error())
	}
}

func applyDownloadFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet(flagTimeout) {
		cfg.Timeout = c.Int(flagTimeout)
	}

	if c.IsSet(flagChunkSize) {
		cfg.ChunkSize = c.Int(flagChunkSize)
	}

	if c.IsSet(flagNoConfirm) {
		cfg.NoConfirm = c.Bool(flagNoConfirm)
	}

	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}

	if c.IsSet(flagMaxAttempts) {
		cfg.MaxAttempts = c.Int(flagMaxAttempts)
	}

	if c.IsSet(flagIndex) {
		cfg.WriteIndex = c.Bool(flagIndex)
	}
}

// rangeSpecs turns the section and lecture flags into selections.
//
// Without --only a single number selects from that item onward. With --only it
// selects exactly that item, and a missing section means the first one. LOW:HIGH
// ranges are taken as given either way.
func rangeSpecs(section, lecture string, only bool) (selector.Spec, selector.Spec, error) {
	if only && section == "" && lecture == "" {
		return selector.Spec{}, selector.Spec{}, fmt.Errorf("%w: cannot use --only without a section or lecture", errUsage)
	}

	sections, err := flagSpec(section, only, only && lecture != "")
	if err != nil {
		return selector.Spec{}, selector.Spec{}, fmt.Errorf("%w: --section: %w", errUsage, err)
	}

	lectures, err := flagSpec(lecture, only, false)
	if err != nil {
		return selector.Spec{}, selector.Spec{}, fmt.Errorf("%w: --lecture: %w", errUsage, err)
	}

	return sections, lectures, nil
}

func flagSpec(value string, only, firstByDefault bool) (selector.Spec, error) {
	switch {
	case value == "" && firstByDefault:
		return selector.Spec{Low: selector.TokenStart, High: selector.TokenStart}, nil
	case value == "":
		return selector.All, nil
	case strings.Contains(value, ":"):
		return selector.Parse(value, false, false)
	}

	return selector.Parse(value, only, !only)
}
