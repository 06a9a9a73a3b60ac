package allocator

import (
	"unsafe"

	"github.com/edge-ml/tinygraph/internal/arena"
)

// MaxScratchBuffers caps the number of scratch buffer requests a single
// allocation pass may register across all nodes.
const MaxScratchBuffers = 64

// scratchRequest is one pending request, recorded during prepare and
// resolved at commit. The table lives in arena temp space so a failed pass
// leaves no committed trace; it is gone after ResetTemp.
type scratchRequest struct {
	node int32
	size int32
}

const scratchRequestSize = int(unsafe.Sizeof(scratchRequest{}))

type scratchRegistry struct {
	ar    *arena.Allocator
	table []scratchRequest
	n     int
}

func newScratchRegistry(ar *arena.Allocator) *scratchRegistry {
	return &scratchRegistry{ar: ar}
}

// request records a scratch need for node and returns its index. Indices
// are dense in request order and become the Scratch() handle after commit.
func (r *scratchRegistry) request(node, size int) (int, error) {
	if r.table == nil {
		off, err := r.ar.AllocateFromHead(MaxScratchBuffers*scratchRequestSize, arena.BufferAlignment)
		if err != nil {
			return 0, err
		}
		raw, err := r.ar.Bytes(off, MaxScratchBuffers*scratchRequestSize)
		if err != nil {
			return 0, err
		}
		r.table = unsafe.Slice((*scratchRequest)(unsafe.Pointer(&raw[0])), MaxScratchBuffers)
	}
	if r.n >= MaxScratchBuffers {
		return 0, ErrTooManyScratchBuffers
	}
	r.table[r.n] = scratchRequest{node: int32(node), size: int32(size)}
	r.n++
	return r.n - 1, nil
}

// drain copies the pending requests out of arena space. Must run before the
// plan is committed, since committing the head region may overwrite the
// temp-space table.
func (r *scratchRegistry) drain() []scratchRequest {
	if r.n == 0 {
		return nil
	}
	out := make([]scratchRequest, r.n)
	copy(out, r.table[:r.n])
	return out
}
