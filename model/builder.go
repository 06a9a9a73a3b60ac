package model

import (
	"errors"
	"fmt"
)

// ErrEmptyGraph is returned by Build for a graph without operators.
var ErrEmptyGraph = errors.New("model: graph has no operators")

// Builder assembles a Graph. Not safe for concurrent use.
//
// Tensor and buffer ids are assigned densely in Add order; operator order is
// execution order.
type Builder struct {
	g   Graph
	err error
}

// NewBuilder creates a Builder for a graph with the given display name.
func NewBuilder(name string) *Builder {
	return &Builder{g: Graph{name: name}}
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *Builder) addTensor(ts TensorSpec) int {
	if ts.Type.Size() == 0 {
		b.fail(fmt.Errorf("model: tensor %q has invalid type", ts.Name))
	}
	for _, d := range ts.Dims {
		if d <= 0 {
			b.fail(fmt.Errorf("model: tensor %q has non-positive dim %d", ts.Name, d))
		}
	}
	b.g.tensors = append(b.g.tensors, ts)
	return len(b.g.tensors) - 1
}

// AddTensor declares an ordinary tensor and returns its id.
func (b *Builder) AddTensor(name string, dt DataType, dims []int) int {
	return b.addTensor(TensorSpec{Name: name, Type: dt, Dims: dims, Buffer: NoBuffer})
}

// AddVariable declares a variable tensor: zero-initialized persistent state
// that survives across invocations.
func (b *Builder) AddVariable(name string, dt DataType, dims []int) int {
	return b.addTensor(TensorSpec{Name: name, Type: dt, Dims: dims, Variable: true, Buffer: NoBuffer})
}

// AddConstant declares a tensor backed by read-only constant data.
func (b *Builder) AddConstant(name string, dt DataType, dims []int, data []byte) int {
	id := b.addTensor(TensorSpec{Name: name, Type: dt, Dims: dims, Buffer: len(b.g.buffers)})
	b.g.buffers = append(b.g.buffers, data)

	if want := b.g.tensors[id].ByteSize(); len(data) != want {
		b.fail(fmt.Errorf("model: constant %q: data is %d bytes, spec needs %d", name, len(data), want))
	}
	return id
}

// AddOperator appends an operator record referencing tensors by id.
func (b *Builder) AddOperator(op string, inputs, outputs []int) {
	if op == "" {
		b.fail(errors.New("model: empty operator identity"))
	}
	b.g.ops = append(b.g.ops, OperatorSpec{
		Op:      op,
		Inputs:  append([]int(nil), inputs...),
		Outputs: append([]int(nil), outputs...),
	})
}

// SetInputs declares the graph input tensors, in caller order.
func (b *Builder) SetInputs(ids ...int) { b.g.inputs = append([]int(nil), ids...) }

// SetOutputs declares the graph output tensors, in caller order.
func (b *Builder) SetOutputs(ids ...int) { b.g.outputs = append([]int(nil), ids...) }

// Build validates the assembled description and returns the immutable
// Graph. The Builder must not be reused afterwards.
func (b *Builder) Build() (*Graph, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.g.ops) == 0 {
		return nil, ErrEmptyGraph
	}

	checkRef := func(where string, id int) {
		if id < 0 || id >= len(b.g.tensors) {
			b.fail(fmt.Errorf("model: %s references unknown tensor %d", where, id))
		}
	}
	for i, op := range b.g.ops {
		for _, id := range op.Inputs {
			checkRef(fmt.Sprintf("operator %d (%s) input", i, op.Op), id)
		}
		for _, id := range op.Outputs {
			checkRef(fmt.Sprintf("operator %d (%s) output", i, op.Op), id)
			if id >= 0 && id < len(b.g.tensors) && b.g.tensors[id].Buffer != NoBuffer {
				b.fail(fmt.Errorf("model: operator %d (%s) writes constant tensor %d", i, op.Op, id))
			}
		}
	}
	for _, id := range b.g.inputs {
		checkRef("graph input", id)
	}
	for _, id := range b.g.outputs {
		checkRef("graph output", id)
	}
	if b.err != nil {
		return nil, b.err
	}

	g := b.g
	b.g = Graph{}
	return &g, nil
}
