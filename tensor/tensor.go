// Package tensor defines the runtime view of a graph value: the spec
// metadata plus the concrete storage the allocator bound it to.
package tensor

import (
	"fmt"

	"github.com/edge-ml/tinygraph/internal/mem"
	"github.com/edge-ml/tinygraph/model"
)

// Tensor is one bound graph value. The Data slice aliases arena memory (or
// the model's constant buffer); it is valid for the lifetime of the owning
// allocator's arena.
//
// A Tensor is created by the allocation pass and never reallocated; callers
// read and write through the typed views.
type Tensor struct {
	Name string
	Type model.DataType
	Dims []int
	// Variable marks persistent state excluded from storage reuse.
	Variable bool
	// Constant marks storage backed by the read-only model buffer.
	Constant bool
	// Data is the bound storage, len == ByteSize of the spec.
	Data []byte
}

// NumElements returns the product of the dimensions.
func (t *Tensor) NumElements() int {
	n := 1
	for _, d := range t.Dims {
		n *= d
	}
	return n
}

// ByteSize returns len(Data).
func (t *Tensor) ByteSize() int { return len(t.Data) }

// Int32s returns the storage as an []int32 view. Panics if the tensor is
// not int32 typed; element type confusion inside a kernel is a programming
// error, not a runtime condition.
func (t *Tensor) Int32s() []int32 {
	t.mustBe(model.Int32)
	return mem.Int32s(t.Data)
}

// Float32s returns the storage as a []float32 view.
func (t *Tensor) Float32s() []float32 {
	t.mustBe(model.Float32)
	return mem.Float32s(t.Data)
}

// Int8s returns the storage as an []int8 view.
func (t *Tensor) Int8s() []int8 {
	t.mustBe(model.Int8)
	return mem.Int8s(t.Data)
}

// Uint8s returns the storage as a []uint8 view.
func (t *Tensor) Uint8s() []uint8 {
	t.mustBe(model.UInt8)
	return t.Data
}

func (t *Tensor) mustBe(dt model.DataType) {
	if t.Type != dt {
		panic(fmt.Sprintf("tensor: %q is %s, viewed as %s", t.Name, t.Type, dt))
	}
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor{%q %s %v, %d bytes}", t.Name, t.Type, t.Dims, len(t.Data))
}
