// Package dispatch serializes tool execution onto one dedicated worker
// goroutine. The host collaborator's state is not safe for concurrent
// access, so every tool body must run on that single execution context;
// callers from any connection hand their call off and block on a per-call
// future until the worker has run it to completion.
//
// At most one call occupies the worker at a time system-wide. This is the
// system's sole concurrency-safety mechanism and its deliberate
// backpressure point: a slow tool delays every other pending call but
// never blocks connection acceptance.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"membridge/internal/tool"
)

// outcome is what the worker reports back on a call's future channel.
type outcome struct {
	result any
	err    error
}

// pending is one enqueued call. done is buffered so the worker never
// blocks publishing the outcome.
type pending struct {
	ctx     context.Context
	handler tool.Handler
	args    map[string]any
	done    chan outcome
}

// Executor owns the affinity worker.
type Executor struct {
	calls chan *pending

	stopOnce sync.Once
	stopped  chan struct{}
}

// New creates an Executor. Start must be called before Invoke.
func New() *Executor {
	return &Executor{
		calls:   make(chan *pending),
		stopped: make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (e *Executor) Start() {
	go e.run()
}

// Stop shuts the worker down. Calls already executing run to completion;
// calls still waiting to be dispatched fail with an internal error.
func (e *Executor) Stop() {
	e.stopOnce.Do(func() { close(e.stopped) })
}

// Invoke hands the call to the affinity worker and blocks until the worker
// has executed it. There is no timeout: a tool that never returns stalls
// its caller, by contract. A panic inside the tool is recovered and
// returned as an error carrying the original message.
func (e *Executor) Invoke(ctx context.Context, t tool.Tool, args map[string]any) (any, error) {
	// Checked before the hand-off: once Stop has run, the worker may
	// still be draining its select, so racing it on e.calls could let a
	// post-Stop call through.
	select {
	case <-e.stopped:
		return nil, fmt.Errorf("dispatch: executor stopped")
	default:
	}

	call := &pending{
		ctx:     ctx,
		handler: t.Handler,
		args:    args,
		done:    make(chan outcome, 1),
	}

	select {
	case e.calls <- call:
	case <-e.stopped:
		return nil, fmt.Errorf("dispatch: executor stopped")
	}

	out := <-call.done
	return out.result, out.err
}

func (e *Executor) run() {
	for {
		select {
		case call := <-e.calls:
			call.done <- e.execute(call)
		case <-e.stopped:
			return
		}
	}
}

func (e *Executor) execute(call *pending) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("tool panicked: %v", r)}
		}
	}()

	result, err := call.handler(call.ctx, call.args)
	return outcome{result: result, err: err}
}
