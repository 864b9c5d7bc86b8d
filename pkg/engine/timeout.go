package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/automdl/pkg/graph"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when an evaluation exceeds its time limit.
	ErrTimeout = errors.New("engine: evaluation timed out")

	// ErrSuperseded is returned when a newer evaluation started first.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")

	// ErrPanic is returned when evaluation panicked.
	ErrPanic = errors.New("engine: panic during evaluation")
)

// evalResult passes evaluation results through channels.
type evalResult struct {
	graph  *graph.DesignGraph
	errors []EvalError
	err    error
}

// wait waits for a result from ch for at most the engine timeout. The
// generation check discards results of evaluations that were overtaken.
//
// On timeout the goroutine may still be running; the buffered channel lets
// it finish and its result is dropped.
func (e *Engine) wait(ctx context.Context, ch <-chan evalResult, gen uint64) (*graph.DesignGraph, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.graph, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)

	case <-ctx.Done():
		return nil, nil, fmt.Errorf("engine: %w", ctx.Err())
	}
}
