package model

import "fmt"

// DataType is the element type of a tensor.
type DataType uint8

const (
	// Int8 is a signed 8-bit element.
	Int8 DataType = iota + 1
	// UInt8 is an unsigned 8-bit element.
	UInt8
	// Int32 is a signed 32-bit element.
	Int32
	// Float32 is an IEEE-754 single-precision element.
	Float32
)

// Size returns the element size in bytes, or 0 for an invalid type.
func (dt DataType) Size() int {
	switch dt {
	case Int8, UInt8:
		return 1
	case Int32, Float32:
		return 4
	default:
		return 0
	}
}

func (dt DataType) String() string {
	switch dt {
	case Int8:
		return "int8"
	case UInt8:
		return "uint8"
	case Int32:
		return "int32"
	case Float32:
		return "float32"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(dt))
	}
}

// NoBuffer marks a tensor without backing constant data.
const NoBuffer = -1

// TensorSpec describes one graph value. Specs carry no storage; the
// allocator resolves each spec to an arena location.
type TensorSpec struct {
	Name string
	Type DataType
	Dims []int
	// Variable marks state that must persist across repeated invocations.
	// Variable tensors are excluded from storage reuse.
	Variable bool
	// Buffer indexes the graph's constant data, or NoBuffer.
	Buffer int
}

// NumElements returns the product of the dimensions.
func (ts *TensorSpec) NumElements() int {
	n := 1
	for _, d := range ts.Dims {
		n *= d
	}
	return n
}

// ByteSize returns the storage the tensor needs in bytes.
func (ts *TensorSpec) ByteSize() int {
	return ts.NumElements() * ts.Type.Size()
}

// OperatorSpec is one node of the computation graph: an operator identity
// plus ordered tensor references. The slice order is the contract between
// graph and kernel.
type OperatorSpec struct {
	Op      string
	Inputs  []int
	Outputs []int
}

// Graph is an immutable computation graph description.
type Graph struct {
	name    string
	tensors []TensorSpec
	buffers [][]byte
	ops     []OperatorSpec
	inputs  []int
	outputs []int
}

// Name returns the graph's optional display name.
func (g *Graph) Name() string { return g.name }

// NumTensors returns the tensor count.
func (g *Graph) NumTensors() int { return len(g.tensors) }

// Tensor returns the spec of tensor id. The returned pointer references the
// graph's internal slice and must be treated as read-only.
func (g *Graph) Tensor(id int) *TensorSpec { return &g.tensors[id] }

// NumOperators returns the operator count; operator index is execution order.
func (g *Graph) NumOperators() int { return len(g.ops) }

// Operator returns the operator record at execution index i (read-only).
func (g *Graph) Operator(i int) *OperatorSpec { return &g.ops[i] }

// Buffer returns the constant data block at index i (read-only).
func (g *Graph) Buffer(i int) []byte { return g.buffers[i] }

// Inputs returns the tensor ids of the graph inputs, in caller order.
func (g *Graph) Inputs() []int { return g.inputs }

// Outputs returns the tensor ids of the graph outputs, in caller order.
func (g *Graph) Outputs() []int { return g.outputs }
