package planner

import (
	"fmt"
	"sort"
)

// Requirement describes one buffer to place: its size in bytes and the
// half-open range of operator execution indices during which its content
// must remain valid. FirstUse <= LastUse; both are inclusive.
type Requirement struct {
	Size     int
	FirstUse int
	LastUse  int
}

// Greedy is a deterministic greedy first-fit offset planner.
//
// The zero value is not usable; create one with New. A Greedy is good for a
// single Plan call per set of requirements; Add after Plan is not supported.
type Greedy struct {
	align int
	reqs  []Requirement
}

// New creates a planner whose offsets are multiples of align.
func New(align int) *Greedy {
	if align <= 0 {
		align = 1
	}
	return &Greedy{align: align}
}

// Add registers a buffer requirement and returns its id. Ids are dense and
// index the offset slice returned by Plan.
func (g *Greedy) Add(size, firstUse, lastUse int) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("planner: negative size %d", size)
	}
	if firstUse > lastUse {
		return 0, fmt.Errorf("planner: inverted lifetime [%d, %d]", firstUse, lastUse)
	}
	g.reqs = append(g.reqs, Requirement{Size: size, FirstUse: firstUse, LastUse: lastUse})
	return len(g.reqs) - 1, nil
}

// Len reports the number of registered requirements.
func (g *Greedy) Len() int { return len(g.reqs) }

type placement struct {
	id     int
	offset int
}

// Plan computes an offset for every registered requirement and the total
// plan size in bytes. Two buffers share bytes only if their lifetime
// intervals do not overlap.
func (g *Greedy) Plan() (offsets []int, total int, err error) {
	n := len(g.reqs)
	offsets = make([]int, n)

	// Largest first; ties by earlier first use, then insertion order.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := g.reqs[order[a]], g.reqs[order[b]]
		if ra.Size != rb.Size {
			return ra.Size > rb.Size
		}
		if ra.FirstUse != rb.FirstUse {
			return ra.FirstUse < rb.FirstUse
		}
		return order[a] < order[b]
	})

	// Placed buffers kept sorted by offset.
	placed := make([]placement, 0, n)

	for _, id := range order {
		req := g.reqs[id]
		size := alignUp(req.Size, g.align)

		// First-fit scan over lifetime-overlapping neighbours.
		candidate := 0
		for _, p := range placed {
			other := g.reqs[p.id]
			if other.LastUse < req.FirstUse || req.LastUse < other.FirstUse {
				continue // disjoint lifetimes may alias
			}
			if p.offset-candidate >= size {
				break // gap found
			}
			if end := alignUp(p.offset+other.Size, g.align); end > candidate {
				candidate = end
			}
		}

		offsets[id] = candidate
		placed = insertByOffset(placed, placement{id: id, offset: candidate})
		if end := candidate + req.Size; end > total {
			total = end
		}
	}

	return offsets, total, nil
}

func insertByOffset(placed []placement, p placement) []placement {
	i := sort.Search(len(placed), func(i int) bool {
		if placed[i].offset != p.offset {
			return placed[i].offset > p.offset
		}
		return placed[i].id > p.id
	})
	placed = append(placed, placement{})
	copy(placed[i+1:], placed[i:])
	placed[i] = p
	return placed
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}
