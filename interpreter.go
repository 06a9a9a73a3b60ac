package tinygraph

import (
	"github.com/edge-ml/tinygraph/allocator"
	"github.com/edge-ml/tinygraph/model"
	"github.com/edge-ml/tinygraph/ops"
	"github.com/edge-ml/tinygraph/tensor"
)

// State is the interpreter lifecycle state.
type State int

const (
	// StateConstructed means no allocation pass has run yet.
	StateConstructed State = iota
	// StateTensorsAllocated means the graph is bound and runnable.
	StateTensorsAllocated
	// StateFailed means the allocation pass failed. Failure is sticky: the
	// arena is not retried and every call returns the original error.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateTensorsAllocated:
		return "tensors allocated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Interpreter runs one graph against one arena. It is not safe for
// concurrent use; see the package comment for the serialization contract.
type Interpreter struct {
	graph *model.Graph
	res   ops.Resolver
	alloc allocator.Interface

	state    State
	exec     *allocator.Execution
	allocErr error

	ext    any
	extSet bool

	opts options
}

// New creates an Interpreter sharing alloc with any other interpreters
// built on it. Construction never fails; errors surface from
// AllocateTensors.
//
// The graph must outlive the interpreter and may be shared across tenants.
func New(g *model.Graph, res ops.Resolver, alloc allocator.Interface, optFns ...Option) *Interpreter {
	opts := applyOptions(optFns)
	if !opts.diagnostics {
		opts.logger = NoopLogger()
	}
	return &Interpreter{
		graph: g,
		res:   res,
		alloc: alloc,
		opts:  opts,
	}
}

// NewWithArena creates an Interpreter owning a fresh allocator over buf.
func NewWithArena(g *model.Graph, res ops.Resolver, buf []byte, optFns ...Option) *Interpreter {
	return New(g, res, allocator.New(buf), optFns...)
}

// State reports the current lifecycle state.
func (i *Interpreter) State() State { return i.state }

// AllocateTensors runs the allocation pass and binds every tensor to arena
// storage. Calling it again after success is a no-op; after failure it
// returns the original error without touching the arena again.
func (i *Interpreter) AllocateTensors() error {
	switch i.state {
	case StateTensorsAllocated:
		return nil
	case StateFailed:
		return i.allocErr
	}

	exec, err := i.alloc.Allocate(i.graph, i.res)
	if err != nil {
		i.state = StateFailed
		i.allocErr = translateError(i.graph.Name(), err)
		i.opts.logger.LogAllocate(i.graph.Name(), i.alloc.UsedBytes(), i.allocErr)
		return i.allocErr
	}
	i.exec = exec
	i.state = StateTensorsAllocated
	i.opts.logger.LogAllocate(i.graph.Name(), i.alloc.UsedBytes(), nil)
	return nil
}

// Invoke executes every node in order. If no allocation pass has run yet,
// one is performed first. The loop is fail-fast: the first node error is
// returned and later nodes do not run; outputs already written stay as
// written.
func (i *Interpreter) Invoke() error {
	if i.state == StateConstructed {
		if err := i.AllocateTensors(); err != nil {
			return err
		}
	}
	if i.state == StateFailed {
		return i.allocErr
	}

	profile := i.opts.diagnostics
	for n := 0; n < i.exec.NumNodes(); n++ {
		var handle uint32
		if profile {
			handle = i.opts.profiler.BeginEvent(i.exec.NodeOp(n))
		}
		err := i.exec.InvokeNode(n, i.ext)
		if profile {
			i.opts.profiler.EndEvent(handle)
		}
		if err != nil {
			werr := translateError(i.graph.Name(),
				&OperatorInvokeError{Node: n, Op: i.exec.NodeOp(n), cause: err})
			i.opts.logger.LogInvoke(i.graph.Name(), i.exec.NumNodes(), werr)
			return werr
		}
	}
	i.opts.logger.LogInvoke(i.graph.Name(), i.exec.NumNodes(), nil)
	return nil
}

// InputsSize reports the graph input count.
func (i *Interpreter) InputsSize() int { return len(i.graph.Inputs()) }

// OutputsSize reports the graph output count.
func (i *Interpreter) OutputsSize() int { return len(i.graph.Outputs()) }

// Input returns the idx-th graph input tensor. Nil before a successful
// allocation pass or when idx is out of range.
func (i *Interpreter) Input(idx int) *tensor.Tensor {
	if i.exec == nil {
		return nil
	}
	return i.exec.Input(idx)
}

// Output returns the idx-th graph output tensor. Nil before a successful
// allocation pass or when idx is out of range.
func (i *Interpreter) Output(idx int) *tensor.Tensor {
	if i.exec == nil {
		return nil
	}
	return i.exec.Output(idx)
}

// ArenaUsedBytes reports total committed arena usage, including bytes other
// tenants of a shared allocator committed.
func (i *Interpreter) ArenaUsedBytes() int { return i.alloc.UsedBytes() }

// SetExternalContext stores v for kernels to read through their invoke
// context. The slot is set-once: any second call fails with
// ErrExternalContextAlreadySet and leaves the stored value unchanged.
func (i *Interpreter) SetExternalContext(v any) error {
	if i.extSet {
		return ErrExternalContextAlreadySet
	}
	i.ext = v
	i.extSet = true
	return nil
}

// GetExternalContext returns the stored value, nil if never set.
func (i *Interpreter) GetExternalContext() any { return i.ext }

// Close releases kernel-held resources. Safe on a never-allocated or
// already-closed interpreter.
func (i *Interpreter) Close() error {
	if i.exec != nil {
		i.exec.Free()
	}
	return nil
}
