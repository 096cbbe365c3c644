package dispatch

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"membridge/internal/tool"
)

func newStartedExecutor(t *testing.T) *Executor {
	t.Helper()
	e := New()
	e.Start()
	t.Cleanup(e.Stop)
	return e
}

func TestInvoke_ReturnsResult(t *testing.T) {
	e := newStartedExecutor(t)

	got, err := e.Invoke(context.Background(), tool.Tool{
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"echo": args["text"]}, nil
		},
	}, map[string]any{"text": "hi"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got.(map[string]any)["echo"] != "hi" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestInvoke_RecoversPanic(t *testing.T) {
	e := newStartedExecutor(t)

	_, err := e.Invoke(context.Background(), tool.Tool{
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			panic("address out of range")
		},
	}, nil)
	if err == nil {
		t.Fatal("expected error from panicking tool")
	}
	if !strings.Contains(err.Error(), "address out of range") {
		t.Errorf("expected original panic message preserved, got %v", err)
	}

	// The worker must survive the panic and keep serving calls.
	if _, err := e.Invoke(context.Background(), tool.Tool{
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return "ok", nil
		},
	}, nil); err != nil {
		t.Errorf("Invoke after panic: %v", err)
	}
}

// TestInvoke_SerializesConcurrentCalls submits two slow calls concurrently
// and verifies their execution windows never overlap: the second call does
// not begin before the first completes.
func TestInvoke_SerializesConcurrentCalls(t *testing.T) {
	e := newStartedExecutor(t)

	const delay = 50 * time.Millisecond
	type window struct{ start, end time.Time }

	var mu sync.Mutex
	var windows []window

	slow := tool.Tool{
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			start := time.Now()
			time.Sleep(delay)
			mu.Lock()
			windows = append(windows, window{start: start, end: time.Now()})
			mu.Unlock()
			return nil, nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Invoke(context.Background(), slow, nil); err != nil {
				t.Errorf("Invoke: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(windows) != 2 {
		t.Fatalf("expected 2 executions, got %d", len(windows))
	}
	first, second := windows[0], windows[1]
	if second.start.Before(first.end) {
		t.Errorf("executions overlap: second started %v before first ended", first.end.Sub(second.start))
	}
}

func TestInvoke_AfterStopFails(t *testing.T) {
	e := New()
	e.Start()
	e.Stop()

	_, err := e.Invoke(context.Background(), tool.Tool{
		Handler: func(_ context.Context, _ map[string]any) (any, error) { return nil, nil },
	}, nil)
	if err == nil {
		t.Fatal("expected error after Stop")
	}
}
