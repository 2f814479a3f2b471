package prefetch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jgivc/coursefetch/internal/entity"
)

// Pool resolves lecture metadata concurrently ahead of the sequential transfer loop.
// Failures are only logged: the orchestrator asks again and gets the error itself.
type Pool struct {
	workers int
	log     *slog.Logger
}

func NewPool(workers int, log *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}

	return &Pool{
		workers: workers,
		log:     log.With(slog.String("item", "PrefetchPool")),
	}
}

// Prefetch blocks until every unresolved lecture was tried or ctx is done.
func (p *Pool) Prefetch(ctx context.Context, lectures []*entity.LectureRef) {
	var pending []*entity.LectureRef
	for _, lecture := range lectures {
		if !lecture.Resolved() {
			pending = append(pending, lecture)
		}
	}

	if len(pending) == 0 {
		return
	}

	in := make(chan *entity.LectureRef, len(pending))
	for _, lecture := range pending {
		in <- lecture
	}
	close(in)

	workers := min(p.workers, len(pending))

	var (
		wg       sync.WaitGroup
		resolved atomic.Int32
	)

	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go p.worker(ctx, n, in, &resolved, &wg)
	}

	wg.Wait()

	p.log.Debug("Prefetch done", slog.Int("lectures", len(pending)), slog.Int("resolved", int(resolved.Load())))
}

func (p *Pool) worker(ctx context.Context, n int, in <-chan *entity.LectureRef, resolved *atomic.Int32, wg *sync.WaitGroup) {
	defer wg.Done()

	log := p.log.With(slog.Int("worker_id", n))

	for lecture := range in {
		select {
		case <-ctx.Done():
			log.Debug("Interrupted")

			return
		default:
		}

		if _, err := lecture.Meta(ctx); err != nil {
			log.Warn("Cannot prefetch lecture", slog.String("url", lecture.URL), slog.Any("error", err))

			continue
		}

		resolved.Add(1)
	}
}
