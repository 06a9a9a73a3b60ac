package allocator

import (
	"log/slog"
)

// Category tags one class of arena allocation for diagnostic accounting.
type Category int

const (
	// CategoryTensorData is planned non-persistent tensor storage.
	CategoryTensorData Category = iota
	// CategoryVariableData is persistent variable tensor storage.
	CategoryVariableData
	// CategoryOpData is persistent per-node operator state.
	CategoryOpData
	// CategoryNodeMetadata is persistent node bookkeeping (tensor id arrays).
	CategoryNodeMetadata
	// CategoryTempPlanning is temporary planning bookkeeping, reclaimed at
	// commit.
	CategoryTempPlanning
	// CategoryPersistentOther is persistent data outside the classes above.
	CategoryPersistentOther

	numCategories
)

func (c Category) String() string {
	switch c {
	case CategoryTensorData:
		return "tensor data"
	case CategoryVariableData:
		return "variable data"
	case CategoryOpData:
		return "op data"
	case CategoryNodeMetadata:
		return "node metadata"
	case CategoryTempPlanning:
		return "temp planning"
	case CategoryPersistentOther:
		return "other persistent"
	default:
		return "unknown"
	}
}

// RecordedAllocation is the accumulated byte accounting for one category.
// Used includes alignment padding; Requested does not.
type RecordedAllocation struct {
	Requested int
	Used      int
	Count     int
}

// recorder accumulates per-category totals. A nil recorder is a no-op, so
// the plain GraphAllocator pays nothing.
type recorder struct {
	totals [numCategories]RecordedAllocation
}

func (r *recorder) add(c Category, requested, used int) {
	if r == nil {
		return
	}
	t := &r.totals[c]
	t.Requested += requested
	t.Used += used
	t.Count++
}

// merge folds a completed pass into the running totals. Failed passes are
// never merged, so their partial allocations stay invisible.
func (r *recorder) merge(pass *recorder) {
	if r == nil || pass == nil {
		return
	}
	for c := range r.totals {
		r.totals[c].Requested += pass.totals[c].Requested
		r.totals[c].Used += pass.totals[c].Used
		r.totals[c].Count += pass.totals[c].Count
	}
}

// RecordingAllocator is a GraphAllocator that additionally accounts every
// arena allocation by category. Placement, ordering and outcomes are
// identical to the plain allocator.
type RecordingAllocator struct {
	*GraphAllocator
	logger *slog.Logger
}

// NewRecording creates a recording allocator over a caller-owned buffer.
// logger receives PrintAllocations output; nil discards it.
func NewRecording(buf []byte, logger *slog.Logger) *RecordingAllocator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ga := New(buf)
	ga.rec = &recorder{}
	return &RecordingAllocator{GraphAllocator: ga, logger: logger}
}

// RecordedAllocation returns the accumulated accounting for one category.
// Only successful passes contribute.
func (ra *RecordingAllocator) RecordedAllocation(c Category) RecordedAllocation {
	if c < 0 || c >= numCategories {
		return RecordedAllocation{}
	}
	return ra.rec.totals[c]
}

// PrintAllocations dumps the recorded accounting through the logger. The
// format is diagnostic output, not a compatibility surface.
func (ra *RecordingAllocator) PrintAllocations() {
	s := ra.Stats()
	ra.logger.Info("arena usage",
		slog.Int("capacity", s.Capacity),
		slog.Int("head_used", s.HeadUsed),
		slog.Int("tail_used", s.TailUsed),
	)
	for c := Category(0); c < numCategories; c++ {
		t := ra.rec.totals[c]
		ra.logger.Info("recorded allocation",
			slog.String("category", c.String()),
			slog.Int("requested_bytes", t.Requested),
			slog.Int("used_bytes", t.Used),
			slog.Int("allocations", t.Count),
		)
	}
}
