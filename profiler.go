package tinygraph

import (
	"time"
)

// Profiler receives one BeginEvent/EndEvent pair around every node the
// interpreter invokes. Implement this interface to integrate with tracing
// systems; events are delivered synchronously on the invoking goroutine.
//
// When diagnostics are disabled (WithDiagnostics(false)), no events are
// delivered at all.
type Profiler interface {
	// BeginEvent opens an event tagged with the operator name and returns
	// a handle for the matching EndEvent.
	BeginEvent(tag string) uint32

	// EndEvent closes the event identified by handle.
	EndEvent(handle uint32)
}

// NoopProfiler is a no-op implementation of Profiler.
type NoopProfiler struct{}

func (NoopProfiler) BeginEvent(string) uint32 { return 0 }
func (NoopProfiler) EndEvent(uint32)          {}

// ProfileEvent is one recorded begin/end pair.
type ProfileEvent struct {
	Tag      string
	Start    time.Time
	Duration time.Duration
	Closed   bool
}

// BasicProfiler records events in memory. Useful for tests and basic timing
// without external dependencies. Not safe for concurrent use, matching the
// interpreter's single-threaded execution model.
type BasicProfiler struct {
	events []ProfileEvent
}

// BeginEvent implements Profiler.
func (p *BasicProfiler) BeginEvent(tag string) uint32 {
	p.events = append(p.events, ProfileEvent{Tag: tag, Start: time.Now()})
	return uint32(len(p.events) - 1)
}

// EndEvent implements Profiler.
func (p *BasicProfiler) EndEvent(handle uint32) {
	if int(handle) >= len(p.events) {
		return
	}
	e := &p.events[handle]
	e.Duration = time.Since(e.Start)
	e.Closed = true
}

// Events returns the recorded events in begin order.
func (p *BasicProfiler) Events() []ProfileEvent { return p.events }

// Reset discards all recorded events.
func (p *BasicProfiler) Reset() { p.events = p.events[:0] }
