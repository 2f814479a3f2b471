package app

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jgivc/coursefetch/internal/adapter/scraper"
	"github.com/jgivc/coursefetch/internal/repository/journal"
	"github.com/urfave/cli/v2"
)

const flagForget = "forget"

var errJournalDisabled = errors.New("the transfer journal is disabled, set redis_url in the config")

func (a *App) historyCommand() *cli.Command {
	return &cli.Command{
		Name:      "history",
		Usage:     "list journaled transfers of a course, or all journaled courses",
		ArgsUsage: "[URL]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flagForget, Usage: "drop the journal of the course at URL"},
		},
		Action: a.history,
	}
}

func (a *App) history(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("%w: history takes at most one URL", errUsage)
	}

	if c.Bool(flagForget) && c.NArg() == 0 {
		return fmt.Errorf("%w: --forget needs a course URL", errUsage)
	}

	cfg, log, err := a.setup(c)
	if err != nil {
		return err
	}

	if cfg.RedisURL == "" {
		return errJournalDisabled
	}

	rdb, err := journal.NewRedisClient(c.Context, cfg.RedisURL)
	if err != nil {
		return err
	}
	defer rdb.Close()

	repo := journal.NewJournalRepository(rdb, log)
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)

	if c.NArg() == 0 {
		courses, err := repo.Courses(c.Context)
		if err != nil {
			return err
		}

		fmt.Fprintln(w, "COURSE\tFILES")
		for courseURL, count := range courses {
			fmt.Fprintf(w, "%s\t%d\n", courseURL, count)
		}

		return w.Flush()
	}

	scr, err := scraper.NewScraper(nil, cfg.BaseURL, nil, log)
	if err != nil {
		return err
	}

	courseURL, err := scr.CourseURL(c.Args().Get(0))
	if err != nil {
		return err
	}

	if c.Bool(flagForget) {
		if err := repo.Forget(c.Context, courseURL); err != nil {
			return err
		}

		a.console.Info(fmt.Sprintf("Forgot transfers of %s", courseURL))

		return nil
	}

	entries, err := repo.List(c.Context, courseURL)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "COMPLETED\tSECTION\tLECTURE\tSIZE\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			time.Unix(e.Completed, 0).Format(time.DateTime), e.Section, strings.TrimSpace(e.Lecture), e.Size, e.Path)
	}

	return w.Flush()
}
