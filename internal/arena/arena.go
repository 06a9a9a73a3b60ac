package arena

import (
	"errors"
	"fmt"
	"unsafe"
)

// BufferAlignment is the fixed alignment boundary for every arena
// allocation. It matches the strictest DMA/memory-access requirement of the
// targets the runtime is deployed on.
const BufferAlignment = 16

// ErrArenaExhausted is returned when an allocation would make the head and
// tail cursors cross. No partial allocation is performed.
var ErrArenaExhausted = errors.New("arena: exhausted")

// Stats is a snapshot of arena usage.
//
// Note on semantics:
//   - Capacity: usable bytes after start-address alignment
//   - HeadUsed: committed non-persistent plan area (survives ResetTemp)
//   - TempUsed: per-pass bookkeeping above the committed head line
//   - TailUsed: persistent allocations, never reclaimed
type Stats struct {
	Capacity    int
	HeadUsed    int
	TempUsed    int
	TailUsed    int
	TotalAllocs int
}

// Allocator is a two-ended bump allocator over one fixed buffer.
type Allocator struct {
	buf  []byte
	head int // committed head line
	temp int // temp cursor, head <= temp <= tail
	tail int // grows downward from len(buf)

	allocs int
}

// New creates an Allocator over buf. The usable region starts at the first
// BufferAlignment-aligned address inside buf, so a few leading bytes may be
// sacrificed when the caller passes an unaligned buffer.
func New(buf []byte) *Allocator {
	if len(buf) == 0 {
		return &Allocator{}
	}

	addr := uintptr(unsafe.Pointer(&buf[0]))
	skip := int((BufferAlignment - (addr & (BufferAlignment - 1))) & (BufferAlignment - 1))
	if skip > len(buf) {
		skip = len(buf)
	}
	buf = buf[skip:]

	return &Allocator{
		buf:  buf,
		tail: len(buf),
	}
}

func alignUp(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}

func alignDown(v, align int) int {
	return v &^ (align - 1)
}

// AllocateFromTail reserves size bytes of persistent storage and returns its
// byte offset. Tail offsets remain valid until the arena is discarded.
func (a *Allocator) AllocateFromTail(size, align int) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("arena: negative size %d", size)
	}
	if align <= 0 {
		align = BufferAlignment
	}

	newTail := alignDown(a.tail-size, align)
	if newTail < a.temp {
		return 0, ErrArenaExhausted
	}
	a.tail = newTail
	a.allocs++
	return newTail, nil
}

// AllocateFromHead reserves size bytes of temporary storage above the
// committed head line and returns its byte offset. The offset is valid only
// until the next ResetTemp.
func (a *Allocator) AllocateFromHead(size, align int) (int, error) {
	if size < 0 {
		return 0, fmt.Errorf("arena: negative size %d", size)
	}
	if align <= 0 {
		align = BufferAlignment
	}

	off := alignUp(a.temp, align)
	if off+size > a.tail {
		return 0, ErrArenaExhausted
	}
	a.temp = off + size
	a.allocs++
	return off, nil
}

// GrowHead raises the committed head line to at least size bytes. The
// committed line only ever moves up, which is what lets multiple tenants
// share the plan area: after all tenants have allocated, head usage is the
// maximum of their individual requirements.
//
// Any outstanding temp allocations below the new line are considered
// consumed; the temp cursor is advanced along with the line.
func (a *Allocator) GrowHead(size int) error {
	if size <= a.head {
		return nil
	}
	size = alignUp(size, BufferAlignment)
	if size > a.tail {
		return ErrArenaExhausted
	}
	a.head = size
	if a.temp < a.head {
		a.temp = a.head
	}
	return nil
}

// ResetTemp reclaims every temporary allocation made since the last reset,
// dropping the temp cursor back to the committed head line.
func (a *Allocator) ResetTemp() {
	a.temp = a.head
}

// HeadUsedBytes reports the committed non-persistent plan area in bytes.
func (a *Allocator) HeadUsedBytes() int { return a.head }

// TempUsedBytes reports outstanding temporary bookkeeping bytes above the
// committed head line.
func (a *Allocator) TempUsedBytes() int { return a.temp - a.head }

// TailUsedBytes reports persistent allocation bytes.
func (a *Allocator) TailUsedBytes() int { return len(a.buf) - a.tail }

// UsedBytes reports total committed usage: head plan area plus tail.
func (a *Allocator) UsedBytes() int { return a.head + a.TailUsedBytes() }

// Capacity reports the usable arena size in bytes.
func (a *Allocator) Capacity() int { return len(a.buf) }

// AvailableBytes reports the bytes still free between the temp cursor and
// the tail.
func (a *Allocator) AvailableBytes() int { return a.tail - a.temp }

// Bytes returns a view of the arena region [offset, offset+size). The view
// aliases arena memory; it is valid as long as the region's allocation is.
func (a *Allocator) Bytes(offset, size int) ([]byte, error) {
	if offset < 0 || size < 0 || offset+size > len(a.buf) {
		return nil, fmt.Errorf("arena: region [%d, %d) out of bounds (capacity %d)", offset, offset+size, len(a.buf))
	}
	return a.buf[offset : offset+size : offset+size], nil
}

// Stats returns a snapshot of current usage.
func (a *Allocator) Stats() Stats {
	return Stats{
		Capacity:    len(a.buf),
		HeadUsed:    a.head,
		TempUsed:    a.temp - a.head,
		TailUsed:    len(a.buf) - a.tail,
		TotalAllocs: a.allocs,
	}
}

func (a *Allocator) String() string {
	s := a.Stats()
	return fmt.Sprintf("Arena{capacity: %d, head: %d, temp: %d, tail: %d, allocs: %d}",
		s.Capacity, s.HeadUsed, s.TempUsed, s.TailUsed, s.TotalAllocs)
}
