package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jgivc/coursefetch/internal/common"
	"github.com/jgivc/coursefetch/internal/service/retry"
	"github.com/spf13/afero"
)

const (
	DefaultChunkSize   = 4096
	DefaultIdleTimeout = 60 * time.Second

	fileMode = 0o644
)

var errStalled = errors.New("stalled read")

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Progress is the handle a transfer reports to. Total is -1 when unknown.
type Progress interface {
	Reset(total int64)
	Advance(n int64)
	Done()
}

type Task struct {
	URL       string
	Path      string
	ChunkSize int
	Progress  Progress
}

type Engine struct {
	client      HTTPClient
	fs          afero.Fs
	policy      *retry.Policy
	idleTimeout time.Duration
	log         *slog.Logger
}

func NewEngine(client HTTPClient, fs afero.Fs, policy *retry.Policy, idleTimeout time.Duration, log *slog.Logger) *Engine {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	return &Engine{
		client:      client,
		fs:          fs,
		policy:      policy,
		idleTimeout: idleTimeout,
		log:         log.With(slog.String("item", "TransferEngine")),
	}
}

// Transfer streams task.URL into task.Path. Every retry restarts the file from
// byte 0. When ctx is canceled the destination is removed and the returned error
// wraps common.ErrInterrupted.
func (e *Engine) Transfer(ctx context.Context, task Task) (int64, error) {
	if task.ChunkSize <= 0 {
		task.ChunkSize = DefaultChunkSize
	}

	log := e.log.With(slog.String("url", task.URL), slog.String("path", task.Path))
	log.Debug("Start transfer", slog.Int("chunk_size", task.ChunkSize))

	written, err := retry.Do(ctx, e.policy, func(ctx context.Context) (int64, error) {
		return e.attempt(ctx, task)
	})
	if err != nil {
		// canceled while waiting to retry
		if ctx.Err() != nil && !errors.Is(err, common.ErrInterrupted) {
			return 0, e.interrupted(task.Path, err)
		}

		if rmErr := e.remove(task.Path); rmErr != nil {
			log.Error("Cannot remove partial file", slog.Any("error", rmErr))
		}

		return 0, err
	}

	task.Progress.Done()
	log.Debug("Transfer done", slog.Int64("bytes", written))

	return written, nil
}

// Save writes already fetched content to path with the same cancellation cleanup as Transfer.
func (e *Engine) Save(ctx context.Context, path string, content []byte, progress Progress) error {
	progress.Reset(int64(len(content)))

	if err := ctx.Err(); err != nil {
		return e.interrupted(path, err)
	}

	if err := afero.WriteFile(e.fs, path, content, fileMode); err != nil {
		return fmt.Errorf("cannot write %s: %w: %w", path, common.ErrFilesystem, err)
	}

	if err := ctx.Err(); err != nil {
		return e.interrupted(path, err)
	}

	progress.Advance(int64(len(content)))
	progress.Done()

	return nil
}

func (e *Engine) attempt(parent context.Context, task Task) (int64, error) {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, task.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("cannot create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return 0, e.failed(parent, ctx, task.Path, fmt.Errorf("cannot get %s: %w", task.URL, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &common.StatusError{URL: task.URL, StatusCode: resp.StatusCode}
	}

	// A retried transfer starts over, so must its progress.
	task.Progress.Reset(resp.ContentLength)

	file, err := e.fs.OpenFile(task.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return 0, fmt.Errorf("cannot create %s: %w: %w", task.Path, common.ErrFilesystem, err)
	}

	watchdog := time.AfterFunc(e.idleTimeout, func() { cancel(errStalled) })
	defer watchdog.Stop()

	var (
		written int64
		buf     = make([]byte, task.ChunkSize)
	)

	for {
		n, rerr := resp.Body.Read(buf)
		watchdog.Reset(e.idleTimeout)

		if n > 0 {
			if parent.Err() != nil {
				file.Close()

				return written, e.interrupted(task.Path, parent.Err())
			}

			if _, err := file.Write(buf[:n]); err != nil {
				file.Close()

				return written, fmt.Errorf("cannot write %s: %w: %w", task.Path, common.ErrFilesystem, err)
			}

			written += int64(n)
			task.Progress.Advance(int64(n))
		}

		if rerr == io.EOF {
			break
		}

		if rerr != nil {
			file.Close()

			return written, e.failed(parent, ctx, task.Path, fmt.Errorf("cannot read %s: %w", task.URL, rerr))
		}
	}

	if err := file.Close(); err != nil {
		return written, fmt.Errorf("cannot close %s: %w: %w", task.Path, common.ErrFilesystem, err)
	}

	return written, nil
}

// failed turns a network error into an interruption, a stall timeout, or leaves it as is.
func (e *Engine) failed(parent, attempt context.Context, path string, err error) error {
	if parent.Err() != nil {
		return e.interrupted(path, parent.Err())
	}

	if errors.Is(context.Cause(attempt), errStalled) {
		return fmt.Errorf("%w: no data received for %s", common.ErrTimeout, e.idleTimeout)
	}

	return err
}

func (e *Engine) interrupted(path string, cause error) error {
	e.log.Warn("Transfer interrupted, cleaning up", slog.String("path", path))

	if err := e.remove(path); err != nil {
		return fmt.Errorf("%w: cannot remove %s: %w", common.ErrInterrupted, path, err)
	}

	return fmt.Errorf("%w: %w", common.ErrInterrupted, cause)
}

func (e *Engine) remove(path string) error {
	if err := e.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
