// Package tasks runs fire-and-forget work that outlives its HTTP request.
// One attempt per task, no queue, no retry: a task either completes or fails
// silently with a log line and a metric. Nothing can await a task's outcome.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wardrobeapp/wardrobe/internal/observability"
)

type Config struct {
	// TaskTimeout bounds a single task. Background removal on a large photo
	// can take seconds; anything past the timeout is abandoned and logged.
	TaskTimeout time.Duration
}

type Runner struct {
	cfg  Config
	log  *slog.Logger
	prom *observability.Prom

	wg       sync.WaitGroup
	mu       sync.Mutex
	draining bool
}

func New(cfg Config, log *slog.Logger, prom *observability.Prom) *Runner {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 60 * time.Second
	}

	return &Runner{
		cfg:  cfg,
		log:  log,
		prom: prom,
	}
}

// Go schedules fn on its own goroutine. The caller has already sent its HTTP
// response; failures are logged, never surfaced. Panics are swallowed so a
// bad image cannot take the process down. Returns false when the runner is
// draining during shutdown.
func (r *Runner) Go(taskType string, fn func(ctx context.Context) error) bool {
	r.mu.Lock()

	if r.draining {
		r.mu.Unlock()
		return false
	}

	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()

		defer func() {
			if rec := recover(); rec != nil {
				if r.prom != nil {
					r.prom.CountTaskPanic(taskType)
				}
				r.log.Error("task panicked", "task", taskType, "panic", rec)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TaskTimeout)
		defer cancel()

		start := time.Now()

		err := r.observe(taskType, func() error {
			return fn(ctx)
		})

		if err != nil {
			r.log.Warn("task failed", "task", taskType, "err", err, "elapsed_ms", time.Since(start).Milliseconds())
			return
		}

		r.log.Debug("task done", "task", taskType, "elapsed_ms", time.Since(start).Milliseconds())
	}()

	return true
}

// Close stops accepting new tasks and waits for in-flight ones until ctx
// expires. Abandoned tasks keep running; their files stay consistent because
// the post-processor overwrites atomically.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	r.draining = true
	r.mu.Unlock()

	done := make(chan struct{})

	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) observe(taskType string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveTask(taskType, fn)
	}
	return fn()
}
