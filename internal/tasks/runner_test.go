package tasks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func newTestRunner(cfg Config) *Runner {
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
}

func TestGoRunsTask(t *testing.T) {
	r := newTestRunner(Config{})

	done := make(chan struct{})

	ok := r.Go("test", func(ctx context.Context) error {
		close(done)
		return nil
	})

	if !ok {
		t.Fatal("task rejected")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

func TestTaskFailureIsSwallowed(t *testing.T) {
	r := newTestRunner(Config{})

	if !r.Go("test", func(ctx context.Context) error {
		return errors.New("boom")
	}) {
		t.Fatal("task rejected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestTaskPanicIsRecovered(t *testing.T) {
	r := newTestRunner(Config{})

	if !r.Go("test", func(ctx context.Context) error {
		panic("bad image")
	}) {
		t.Fatal("task rejected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Close returning cleanly proves the goroutine exited via recover
	if err := r.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestCloseRejectsNewTasks(t *testing.T) {
	r := newTestRunner(Config{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := r.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if r.Go("test", func(ctx context.Context) error { return nil }) {
		t.Fatal("draining runner accepted a task")
	}
}

func TestCloseWaitsForInflightTasks(t *testing.T) {
	r := newTestRunner(Config{})

	var finished atomic.Bool
	started := make(chan struct{})

	r.Go("test", func(ctx context.Context) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.Close(ctx); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if !finished.Load() {
		t.Fatal("close returned before the task finished")
	}
}

func TestTaskTimeoutCancelsContext(t *testing.T) {
	r := newTestRunner(Config{TaskTimeout: 50 * time.Millisecond})

	expired := make(chan struct{})

	r.Go("test", func(ctx context.Context) error {
		<-ctx.Done()
		close(expired)
		return ctx.Err()
	})

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("task context never expired")
	}
}
