package shutdown

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"
)

func newTestHandler(timeout time.Duration) *Handler {
	return NewHandler(timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.logger == nil {
		t.Error("logger is nil")
	}
	if len(h.hooks) != 0 {
		t.Errorf("hooks = %d, want 0", len(h.hooks))
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := newTestHandler(5 * time.Second)

	callOrder := make([]int, 0)
	var mu sync.Mutex

	// Registered 1, 2, 3; called 3, 2, 1.
	for i := 1; i <= 3; i++ {
		h.OnShutdown("hook", func(ctx context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.WaitContext(context.Background())
	}()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("WaitContext() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitContext() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 || callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3 2 1]", callOrder)
	}

	if err := h.Run(); err != nil {
		t.Errorf("second Run() = %v, want nil", err)
	}
	if len(callOrder) != 3 {
		t.Errorf("hooks ran again: %v", callOrder)
	}
}

func TestHandler_Trigger(t *testing.T) {
	h := newTestHandler(time.Second)

	var called bool
	h.OnShutdown("flag", func(ctx context.Context) error {
		called = true
		return nil
	})

	h.Trigger("listener failed")
	h.Trigger("ignored")

	if err := h.WaitContext(context.Background()); err != nil {
		t.Fatalf("WaitContext() error = %v", err)
	}
	if !called {
		t.Error("hook not called after Trigger")
	}
}

func TestHandler_WaitContext_Cancel(t *testing.T) {
	h := newTestHandler(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.WaitContext(ctx); err != nil {
		t.Fatalf("WaitContext() error = %v", err)
	}
}

func TestHandler_HookErrors(t *testing.T) {
	h := newTestHandler(time.Second)

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var ranLast bool
	h.OnShutdown("last", func(ctx context.Context) error {
		ranLast = true
		return nil
	})
	h.OnShutdown("a", func(ctx context.Context) error { return errA })
	h.OnShutdown("b", func(ctx context.Context) error { return errB })

	err := h.Run()
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Run() error = %v, want both hook errors", err)
	}
	if !strings.Contains(err.Error(), "a: a failed") {
		t.Errorf("error %q missing hook name", err)
	}
	if !ranLast {
		t.Error("a failing hook stopped later hooks")
	}
}

func TestHandler_RunOnce(t *testing.T) {
	h := newTestHandler(time.Second)

	var count int
	h.OnShutdown("count", func(ctx context.Context) error {
		count++
		return nil
	})

	h.Run()
	h.Run()
	if count != 1 {
		t.Errorf("hook ran %d times, want 1", count)
	}
}

func TestHandler_HookTimeout(t *testing.T) {
	h := newTestHandler(20 * time.Millisecond)

	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := h.Run()
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := newTestHandler(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("noop", func(ctx context.Context) error { return nil })
		}()
	}
	wg.Wait()

	if len(h.hooks) != 100 {
		t.Errorf("hooks = %d, want 100", len(h.hooks))
	}
}
