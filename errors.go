package tinygraph

import (
	"errors"
	"fmt"

	"github.com/edge-ml/tinygraph/allocator"
	"github.com/edge-ml/tinygraph/internal/arena"
)

var (
	// ErrArenaExhausted is returned when an allocation pass needs more
	// bytes than the arena holds.
	ErrArenaExhausted = arena.ErrArenaExhausted

	// ErrTooManyScratchBuffers is returned when a pass exceeds the fixed
	// scratch registry capacity.
	ErrTooManyScratchBuffers = allocator.ErrTooManyScratchBuffers

	// ErrExternalContextAlreadySet is returned by SetExternalContext when
	// the slot was set before, even with an identical value.
	ErrExternalContextAlreadySet = errors.New("tinygraph: external context already set")
)

// UnsupportedOperatorError reports a capability-table miss during
// allocation.
type UnsupportedOperatorError = allocator.UnsupportedOperatorError

// OperatorPrepareError reports a kernel prepare failure during allocation.
type OperatorPrepareError = allocator.PrepareError

// OperatorInvokeError reports a kernel failure during Invoke. The node loop
// stops at the failing node; earlier outputs are left as written.
//
// The operator's own error can be accessed via errors.Unwrap.
type OperatorInvokeError struct {
	Node  int
	Op    string
	cause error
}

func (e *OperatorInvokeError) Error() string {
	return fmt.Sprintf("invoke of node %d (%s) failed: %v", e.Node, e.Op, e.cause)
}

func (e *OperatorInvokeError) Unwrap() error { return e.cause }

// translateError attaches graph identity to errors crossing the public
// surface. Sentinel and typed kinds stay reachable through errors.Is/As.
func translateError(graph string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("tinygraph: graph %q: %w", graph, err)
}
