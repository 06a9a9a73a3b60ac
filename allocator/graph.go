package allocator

import (
	"fmt"
	"unsafe"

	"github.com/edge-ml/tinygraph/internal/arena"
	"github.com/edge-ml/tinygraph/internal/planner"
	"github.com/edge-ml/tinygraph/model"
	"github.com/edge-ml/tinygraph/ops"
	"github.com/edge-ml/tinygraph/tensor"
)

// Interface is the allocator surface the interpreter drives. Satisfied by
// GraphAllocator and RecordingAllocator.
type Interface interface {
	// Allocate runs one full allocation pass for g and returns the bound
	// execution. Passes on a shared allocator must be serialized.
	Allocate(g *model.Graph, res ops.Resolver) (*Execution, error)
	HeadUsedBytes() int
	TailUsedBytes() int
	UsedBytes() int
	Capacity() int
}

// GraphAllocator owns one arena and runs allocation passes against it. It
// may be shared across graphs; see the package comment for the multi-tenant
// contract.
type GraphAllocator struct {
	ar  *arena.Allocator
	rec *recorder
}

// New creates a GraphAllocator over a caller-owned buffer.
func New(buf []byte) *GraphAllocator {
	return &GraphAllocator{ar: arena.New(buf)}
}

// HeadUsedBytes reports the committed non-persistent plan area.
func (ga *GraphAllocator) HeadUsedBytes() int { return ga.ar.HeadUsedBytes() }

// TailUsedBytes reports accumulated persistent bytes.
func (ga *GraphAllocator) TailUsedBytes() int { return ga.ar.TailUsedBytes() }

// UsedBytes reports total committed arena usage.
func (ga *GraphAllocator) UsedBytes() int { return ga.ar.UsedBytes() }

// Capacity reports the usable arena size.
func (ga *GraphAllocator) Capacity() int { return ga.ar.Capacity() }

// Stats returns an arena usage snapshot.
func (ga *GraphAllocator) Stats() arena.Stats { return ga.ar.Stats() }

// execNode is one resolved, prepared operator invocation. The tensor id
// arrays are views over persistent arena storage.
type execNode struct {
	op      string
	kernel  *ops.Kernel
	inputs  []int32
	outputs []int32
	opData  []byte
}

// Execution is the frozen product of one allocation pass: bound tensors,
// resolved nodes and committed scratch views. It stays valid until the
// owning arena is discarded.
type Execution struct {
	graph     *model.Graph
	ar        *arena.Allocator
	tensors   []tensor.Tensor
	nodes     []execNode
	scratch   [][]byte
	planBytes int
	freed     bool
}

// NumNodes reports the operator count.
func (e *Execution) NumNodes() int { return len(e.nodes) }

// NodeOp returns the operator name of node i.
func (e *Execution) NodeOp(i int) string { return e.nodes[i].op }

// Tensor returns the bound tensor with graph id.
func (e *Execution) Tensor(id int) *tensor.Tensor { return &e.tensors[id] }

// NumInputs reports the graph input count.
func (e *Execution) NumInputs() int { return len(e.graph.Inputs()) }

// NumOutputs reports the graph output count.
func (e *Execution) NumOutputs() int { return len(e.graph.Outputs()) }

// Input returns the i-th graph input tensor, nil when out of range.
func (e *Execution) Input(i int) *tensor.Tensor {
	ids := e.graph.Inputs()
	if i < 0 || i >= len(ids) {
		return nil
	}
	return &e.tensors[ids[i]]
}

// Output returns the i-th graph output tensor, nil when out of range.
func (e *Execution) Output(i int) *tensor.Tensor {
	ids := e.graph.Outputs()
	if i < 0 || i >= len(ids) {
		return nil
	}
	return &e.tensors[ids[i]]
}

// PlanBytes reports the size of this execution's non-persistent plan.
func (e *Execution) PlanBytes() int { return e.planBytes }

// InvokeNode runs node i's kernel against the bound storage. The raw kernel
// error is returned unchanged; callers attach node identity.
func (e *Execution) InvokeNode(i int, ext any) error {
	n := &e.nodes[i]
	return n.kernel.Invoke(&invokeContext{e: e, n: n, ext: ext})
}

// Free releases out-of-arena resources held by the kernels. Safe to call on
// a partially-built execution and more than once.
func (e *Execution) Free() {
	if e.freed {
		return
	}
	e.freed = true
	for i := range e.nodes {
		n := &e.nodes[i]
		if n.kernel != nil && n.kernel.Free != nil {
			n.kernel.Free()
		}
	}
}

// Allocate implements Interface. The pass is strictly ordered: derive
// records, resolve kernels, prepare nodes, plan lifetimes, commit the plan,
// release temp bookkeeping, bind storage. A failure aborts the pass; tail
// bytes consumed before the failure are only reclaimed by discarding the
// arena.
func (ga *GraphAllocator) Allocate(g *model.Graph, res ops.Resolver) (*Execution, error) {
	var pass *recorder
	if ga.rec != nil {
		pass = &recorder{}
	}

	e := &Execution{graph: g, ar: ga.ar}

	// Tensor descriptors; constants bind to the model buffer immediately.
	e.tensors = make([]tensor.Tensor, g.NumTensors())
	for id := range e.tensors {
		ts := g.Tensor(id)
		t := &e.tensors[id]
		t.Name = ts.Name
		t.Type = ts.Type
		t.Dims = ts.Dims
		t.Variable = ts.Variable
		if ts.Buffer != model.NoBuffer {
			t.Constant = true
			t.Data = g.Buffer(ts.Buffer)
		}
	}

	// Node records; tensor id arrays live in persistent arena storage.
	e.nodes = make([]execNode, g.NumOperators())
	for i := range e.nodes {
		op := g.Operator(i)
		inputs, err := ga.idArray(op.Inputs, pass)
		if err != nil {
			return nil, err
		}
		outputs, err := ga.idArray(op.Outputs, pass)
		if err != nil {
			return nil, err
		}
		e.nodes[i] = execNode{op: op.Op, inputs: inputs, outputs: outputs}
	}

	// Resolve every operator before any prepare runs.
	for i := range e.nodes {
		k, err := res.Find(e.nodes[i].op)
		if err != nil {
			return nil, &UnsupportedOperatorError{Op: e.nodes[i].op}
		}
		e.nodes[i].kernel = k
	}

	// Prepare pass. Scratch requests land in arena temp space.
	reg := newScratchRegistry(ga.ar)
	for i := range e.nodes {
		n := &e.nodes[i]
		if n.kernel.Prepare == nil {
			continue
		}
		pctx := &prepareContext{ga: ga, e: e, node: i, reg: reg, pass: pass}
		if err := n.kernel.Prepare(pctx); err != nil {
			e.Free()
			return nil, &PrepareError{Node: i, Op: n.op, Err: err}
		}
	}
	if reg.table != nil {
		pass.add(CategoryTempPlanning, reg.n*scratchRequestSize,
			MaxScratchBuffers*scratchRequestSize)
	}

	// Copy requests out of temp space before the commit can clobber them.
	requests := reg.drain()

	// Plan non-persistent tensor storage together with scratch buffers.
	first, last := lifetimes(g)
	pl := planner.New(arena.BufferAlignment)
	planID := make([]int, g.NumTensors())
	for id := range e.tensors {
		planID[id] = -1
		t, ts := &e.tensors[id], g.Tensor(id)
		if t.Variable || t.Constant || first[id] < 0 {
			continue
		}
		pid, err := pl.Add(ts.ByteSize(), first[id], last[id])
		if err != nil {
			return nil, fmt.Errorf("allocator: tensor %q: %w", t.Name, err)
		}
		planID[id] = pid
	}
	scratchID := make([]int, len(requests))
	for i, req := range requests {
		pid, err := pl.Add(int(req.size), int(req.node), int(req.node))
		if err != nil {
			return nil, fmt.Errorf("allocator: scratch buffer %d: %w", i, err)
		}
		scratchID[i] = pid
	}
	offsets, total, err := pl.Plan()
	if err != nil {
		return nil, err
	}

	// Commit the plan, then release temp bookkeeping.
	if err := ga.ar.GrowHead(total); err != nil {
		return nil, err
	}
	ga.ar.ResetTemp()
	e.planBytes = total

	// Bind: planned tensors into the head region, variables into fresh
	// tail storage, scratch views last.
	for id := range e.tensors {
		t, ts := &e.tensors[id], g.Tensor(id)
		switch {
		case planID[id] >= 0:
			b, err := ga.ar.Bytes(offsets[planID[id]], ts.ByteSize())
			if err != nil {
				return nil, err
			}
			t.Data = b
			pass.add(CategoryTensorData, ts.ByteSize(), alignUp(ts.ByteSize(), arena.BufferAlignment))
		case t.Variable:
			b, err := ga.tailBytes(ts.ByteSize(), pass, CategoryVariableData)
			if err != nil {
				return nil, err
			}
			zero(b)
			t.Data = b
		}
	}
	e.scratch = make([][]byte, len(requests))
	for i, req := range requests {
		b, err := ga.ar.Bytes(offsets[scratchID[i]], int(req.size))
		if err != nil {
			return nil, err
		}
		e.scratch[i] = b
	}

	ga.rec.merge(pass)
	return e, nil
}

// lifetimes computes each tensor's [firstUse, lastUse] interval in operator
// execution order. A produced tensor's interval starts at its producer;
// graph inputs start at 0; graph outputs extend to the last node. Tensors
// with no use at all get firstUse -1 and are not planned.
func lifetimes(g *model.Graph) (first, last []int) {
	n := g.NumTensors()
	first = make([]int, n)
	last = make([]int, n)
	for id := range first {
		first[id], last[id] = -1, -1
	}
	for i := 0; i < g.NumOperators(); i++ {
		op := g.Operator(i)
		for _, id := range op.Outputs {
			if first[id] < 0 {
				first[id] = i
			}
			last[id] = max(last[id], i)
		}
		for _, id := range op.Inputs {
			if first[id] < 0 {
				first[id] = i
			}
			last[id] = max(last[id], i)
		}
	}
	for _, id := range g.Inputs() {
		first[id] = 0
	}
	lastNode := g.NumOperators() - 1
	for _, id := range g.Outputs() {
		if first[id] < 0 {
			first[id] = 0
		}
		last[id] = lastNode
	}
	for id := range first {
		if first[id] >= 0 {
			last[id] = max(last[id], first[id])
		}
	}
	return first, last
}

// idArray copies tensor ids into persistent arena storage and returns the
// typed view.
func (ga *GraphAllocator) idArray(ids []int, pass *recorder) ([]int32, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw, err := ga.tailBytes(4*len(ids), pass, CategoryNodeMetadata)
	if err != nil {
		return nil, err
	}
	out := unsafe.Slice((*int32)(unsafe.Pointer(&raw[0])), len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out, nil
}

// tailBytes allocates persistent storage and returns the view, recording it
// under category. Used bytes include alignment padding.
func (ga *GraphAllocator) tailBytes(size int, pass *recorder, c Category) ([]byte, error) {
	before := ga.ar.TailUsedBytes()
	off, err := ga.ar.AllocateFromTail(size, arena.BufferAlignment)
	if err != nil {
		return nil, err
	}
	pass.add(c, size, ga.ar.TailUsedBytes()-before)
	return ga.ar.Bytes(off, size)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func alignUp(v, align int) int {
	return (v + align - 1) &^ (align - 1)
}

// prepareContext is the per-node view handed to Kernel.Prepare. Tensor
// storage is unbound at this point except for constants.
type prepareContext struct {
	ga   *GraphAllocator
	e    *Execution
	node int
	reg  *scratchRegistry
	pass *recorder
}

func (c *prepareContext) n() *execNode { return &c.e.nodes[c.node] }

func (c *prepareContext) NumInputs() int  { return len(c.n().inputs) }
func (c *prepareContext) NumOutputs() int { return len(c.n().outputs) }

func (c *prepareContext) Input(i int) *tensor.Tensor {
	ids := c.n().inputs
	if i < 0 || i >= len(ids) {
		return nil
	}
	return &c.e.tensors[ids[i]]
}

func (c *prepareContext) Output(i int) *tensor.Tensor {
	ids := c.n().outputs
	if i < 0 || i >= len(ids) {
		return nil
	}
	return &c.e.tensors[ids[i]]
}

func (c *prepareContext) RequestScratchBuffer(size int) (int, error) {
	return c.reg.request(c.node, size)
}

func (c *prepareContext) AllocateOpData(size int) ([]byte, error) {
	b, err := c.ga.tailBytes(size, c.pass, CategoryOpData)
	if err != nil {
		return nil, err
	}
	zero(b)
	c.n().opData = b
	return b, nil
}

// invokeContext is the per-node view handed to Kernel.Invoke.
type invokeContext struct {
	e   *Execution
	n   *execNode
	ext any
}

func (c *invokeContext) NumInputs() int  { return len(c.n.inputs) }
func (c *invokeContext) NumOutputs() int { return len(c.n.outputs) }

func (c *invokeContext) Input(i int) *tensor.Tensor {
	if i < 0 || i >= len(c.n.inputs) {
		return nil
	}
	return &c.e.tensors[c.n.inputs[i]]
}

func (c *invokeContext) Output(i int) *tensor.Tensor {
	if i < 0 || i >= len(c.n.outputs) {
		return nil
	}
	return &c.e.tensors[c.n.outputs[i]]
}

func (c *invokeContext) Scratch(idx int) []byte {
	if idx < 0 || idx >= len(c.e.scratch) {
		return nil
	}
	return c.e.scratch[idx]
}

func (c *invokeContext) OpData() []byte       { return c.n.opData }
func (c *invokeContext) ExternalContext() any { return c.ext }
