package tinygraph

import (
	"context"
	"fmt"

	"github.com/edge-ml/tinygraph/internal/mem"
	"github.com/edge-ml/tinygraph/resource"
)

// Arena is a host-allocated, alignment-friendly buffer for interpreter use,
// optionally charged against a resource.Controller memory budget.
type Arena struct {
	buf    []byte
	rc     *resource.Controller
	closed bool
}

// NewArena allocates size bytes of aligned backing memory. When rc is
// non-nil, the bytes are acquired from its memory budget and returned on
// Close.
func NewArena(ctx context.Context, size int, rc *resource.Controller) (*Arena, error) {
	if size <= 0 {
		return nil, fmt.Errorf("tinygraph: invalid arena size %d", size)
	}
	if err := rc.AcquireMemory(ctx, int64(size)); err != nil {
		return nil, fmt.Errorf("tinygraph: arena budget: %w", err)
	}
	return &Arena{
		buf: mem.AllocAligned(size, 16),
		rc:  rc,
	}, nil
}

// Bytes returns the backing buffer.
func (a *Arena) Bytes() []byte { return a.buf }

// Size returns the buffer length.
func (a *Arena) Size() int { return len(a.buf) }

// Close releases the memory budget. Idempotent. The buffer must not be used
// afterwards; any interpreter built on it must be discarded first.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.rc.ReleaseMemory(int64(len(a.buf)))
	return nil
}
