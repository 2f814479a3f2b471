package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/jgivc/coursefetch/internal/common"
	"github.com/jgivc/coursefetch/internal/service/transfer"
)

type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	return [...]string{"INFO", "WARNING", "ERROR"}[l]
}

// Console prints user facing messages, asks questions and draws progress bars.
// Diagnostics go to slog, not here.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	in  *bufio.Reader

	now            func() time.Time
	redrawInterval time.Duration

	// a read left behind by a canceled Confirm, picked up by the next one
	pending chan answer
}

type answer struct {
	line string
	err  error
}

func New(out io.Writer, in io.Reader) *Console {
	return &Console{
		out:            out,
		in:             bufio.NewReader(in),
		now:            time.Now,
		redrawInterval: defaultRedrawInterval,
	}
}

func (c *Console) Message(level Level, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s: %s\n", level, msg)
}

func (c *Console) Info(msg string) {
	c.Message(LevelInfo, msg)
}

func (c *Console) Warn(msg string) {
	c.Message(LevelWarning, msg)
}

func (c *Console) Error(msg string) {
	c.Message(LevelError, msg)
}

// Confirm asks a yes/no question. Anything but "y" or "yes" declines, and so
// does closed input. A canceled ctx stops the wait with common.ErrInterrupted.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "%s: %s [y/N]: ", LevelWarning, question)

	ch := c.pending
	if ch == nil {
		ch = make(chan answer, 1)
		go func() {
			line, err := c.in.ReadString('\n')
			ch <- answer{line: line, err: err}
		}()
	}

	var a answer
	select {
	case <-ctx.Done():
		c.pending = ch
		fmt.Fprintln(c.out)

		return false, fmt.Errorf("%w: %w", common.ErrInterrupted, ctx.Err())
	case a = <-ch:
		c.pending = nil
	}

	if a.err != nil && !errors.Is(a.err, io.EOF) {
		return false, fmt.Errorf("cannot read answer: %w", a.err)
	}

	if errors.Is(a.err, io.EOF) && a.line == "" {
		fmt.Fprintln(c.out)
	}

	switch strings.ToLower(strings.TrimSpace(a.line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *Console) NewProgress(name string) transfer.Progress {
	return &progressBar{console: c, name: name, total: -1}
}
