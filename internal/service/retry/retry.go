package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultDelay = 5 * time.Second
)

type Kind int

const (
	KindRetryImmediately Kind = iota
	KindRetryAfterDelay
	KindFatal
)

func (k Kind) String() string {
	return [...]string{"RetryImmediately", "RetryAfterDelay", "Fatal"}[k]
}

// Action is what a Classifier decides to do with a failed attempt.
type Action struct {
	Kind    Kind
	Delay   time.Duration
	Message string // logged on every retry
	Hint    string // optional second line for the user
}

func RetryImmediately(msg string) Action {
	return Action{Kind: KindRetryImmediately, Message: msg}
}

func RetryAfterDelay(delay time.Duration, msg string) Action {
	return Action{Kind: KindRetryAfterDelay, Delay: delay, Message: msg}
}

func Fatal() Action {
	return Action{Kind: KindFatal}
}

type Classifier func(err error) Action

// Notifier receives a line for every failed attempt that is going to be retried.
type Notifier func(err error, action Action, attempt int)

type Sleeper func(ctx context.Context, d time.Duration) error

// Policy runs an operation until it succeeds, the classifier declares the error
// fatal, or MaxAttempts is reached. MaxAttempts 0 retries forever.
type Policy struct {
	Classify    Classifier
	MaxAttempts int
	Sleep       Sleeper
	Notify      Notifier

	log *slog.Logger
}

func NewPolicy(classify Classifier, maxAttempts int, log *slog.Logger) *Policy {
	return &Policy{
		Classify:    classify,
		MaxAttempts: maxAttempts,
		Sleep:       sleepContext,
		log:         log.With(slog.String("item", "RetryPolicy")),
	}
}

// Do runs op under p. The loop is iterative so an unbounded policy does not grow the stack.
func Do[T any](ctx context.Context, p *Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		res, err := op(ctx)
		if err == nil {
			return res, nil
		}

		action := p.Classify(err)
		if action.Kind == KindFatal {
			return zero, err
		}

		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		p.log.Error(action.Message, slog.Int("attempt", attempt), slog.String("action", action.Kind.String()), slog.Any("error", err))
		if p.Notify != nil {
			p.Notify(err, action, attempt)
		}

		if action.Kind == KindRetryAfterDelay && action.Delay > 0 {
			if err := p.Sleep(ctx, action.Delay); err != nil {
				return zero, err
			}
		}
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p *Policy, op func(ctx context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})

	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
