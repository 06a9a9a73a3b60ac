package allocator

import (
	"errors"
	"fmt"
)

// ErrTooManyScratchBuffers is returned when a pass requests more scratch
// buffers than the fixed registry capacity.
var ErrTooManyScratchBuffers = errors.New("allocator: too many scratch buffers")

// UnsupportedOperatorError reports a capability-table miss during resolve.
type UnsupportedOperatorError struct {
	Op string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("allocator: unsupported operator %q", e.Op)
}

// PrepareError reports a kernel prepare failure. The pass is aborted; tail
// bytes already consumed are not reclaimed until the arena is discarded.
type PrepareError struct {
	Node int
	Op   string
	Err  error
}

func (e *PrepareError) Error() string {
	return fmt.Sprintf("allocator: prepare of node %d (%s) failed: %v", e.Node, e.Op, e.Err)
}

func (e *PrepareError) Unwrap() error { return e.Err }
