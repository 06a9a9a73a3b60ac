// Package testutil provides small reference graphs and kernels used across
// the test suites: a doubling graph, a three-input sum, a stateful running
// median and a chained passthrough graph with variable state.
package testutil

import (
	"fmt"
	"sort"

	"github.com/edge-ml/tinygraph/internal/mem"
	"github.com/edge-ml/tinygraph/model"
	"github.com/edge-ml/tinygraph/ops"
)

// Operator names registered by Resolver.
const (
	OpDouble      = "DOUBLE"
	OpSum3        = "SUM3"
	OpMedian      = "MEDIAN"
	OpPassthrough = "PASSTHROUGH"
)

func mustBuild(b *model.Builder) *model.Graph {
	g, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("testutil: bad reference graph: %v", err))
	}
	return g
}

// SimpleGraph is one int32 scalar input doubled into two int32 outputs.
func SimpleGraph() *model.Graph {
	b := model.NewBuilder("simple")
	in := b.AddTensor("in", model.Int32, []int{1})
	out0 := b.AddTensor("out0", model.Int32, []int{1})
	out1 := b.AddTensor("out1", model.Int32, []int{1})
	b.AddOperator(OpDouble, []int{in}, []int{out0, out1})
	b.SetInputs(in)
	b.SetOutputs(out0, out1)
	return mustBuild(b)
}

// MultiInputGraph sums an int32, an int8 and an int32 input into one int32
// output.
func MultiInputGraph() *model.Graph {
	b := model.NewBuilder("multi-input")
	a := b.AddTensor("a", model.Int32, []int{1})
	c := b.AddTensor("b", model.Int8, []int{1})
	d := b.AddTensor("c", model.Int32, []int{1})
	out := b.AddTensor("sum", model.Int32, []int{1})
	b.AddOperator(OpSum3, []int{a, c, d}, []int{out})
	b.SetInputs(a, c, d)
	b.SetOutputs(out)
	return mustBuild(b)
}

// StatefulGraph computes the running median of a uint8[3] input and reports
// how many times the node has been invoked since allocation.
func StatefulGraph() *model.Graph {
	b := model.NewBuilder("stateful")
	in := b.AddTensor("in", model.UInt8, []int{3})
	median := b.AddTensor("median", model.UInt8, []int{1})
	count := b.AddTensor("invoke_count", model.Int32, []int{1})
	b.AddOperator(OpMedian, []int{in}, []int{median, count})
	b.SetInputs(in)
	b.SetOutputs(median, count)
	return mustBuild(b)
}

// ComplexGraph chains three passthrough nodes, each carrying its own
// variable int32 accumulator. One int32 input, one int32 output.
func ComplexGraph() *model.Graph {
	b := model.NewBuilder("complex")
	t := b.AddTensor("in", model.Int32, []int{1})
	b.SetInputs(t)
	for i := 0; i < 3; i++ {
		state := b.AddVariable(fmt.Sprintf("state%d", i), model.Int32, []int{1})
		next := b.AddTensor(fmt.Sprintf("t%d", i+1), model.Int32, []int{1})
		b.AddOperator(OpPassthrough, []int{t, state}, []int{next})
		t = next
	}
	b.SetOutputs(t)
	return mustBuild(b)
}

// Resolver returns a registry with all reference kernels.
func Resolver() *ops.Registry {
	r := ops.NewRegistry()
	r.MustRegister(OpDouble, &ops.Kernel{Invoke: invokeDouble})
	r.MustRegister(OpSum3, &ops.Kernel{Invoke: invokeSum3})
	r.MustRegister(OpMedian, &ops.Kernel{Prepare: prepareMedian, Invoke: invokeMedian})
	r.MustRegister(OpPassthrough, &ops.Kernel{Invoke: invokePassthrough})
	return r
}

func invokeDouble(ctx ops.InvokeContext) error {
	v := ctx.Input(0).Int32s()[0] * 2
	ctx.Output(0).Int32s()[0] = v
	ctx.Output(1).Int32s()[0] = v
	return nil
}

func invokeSum3(ctx ops.InvokeContext) error {
	sum := ctx.Input(0).Int32s()[0] +
		int32(ctx.Input(1).Int8s()[0]) +
		ctx.Input(2).Int32s()[0]
	ctx.Output(0).Int32s()[0] = sum
	return nil
}

// Median op data layout: [0] invoke count, [1] scratch buffer handle.
const medianOpDataSize = 8

func prepareMedian(ctx ops.PrepareContext) error {
	data, err := ctx.AllocateOpData(medianOpDataSize)
	if err != nil {
		return err
	}
	idx, err := ctx.RequestScratchBuffer(ctx.Input(0).NumElements())
	if err != nil {
		return err
	}
	mem.Int32s(data)[1] = int32(idx)
	return nil
}

func invokeMedian(ctx ops.InvokeContext) error {
	state := mem.Int32s(ctx.OpData())
	in := ctx.Input(0).Uint8s()

	// Selection happens in scratch so the input survives the invoke.
	work := ctx.Scratch(int(state[1]))[:len(in)]
	copy(work, in)
	sort.Slice(work, func(a, b int) bool { return work[a] < work[b] })
	ctx.Output(0).Uint8s()[0] = work[len(work)/2]

	state[0]++
	ctx.Output(1).Int32s()[0] = state[0]
	return nil
}

func invokePassthrough(ctx ops.InvokeContext) error {
	ctx.Output(0).Int32s()[0] = ctx.Input(0).Int32s()[0]
	// The variable input tracks how often this node ran.
	ctx.Input(1).Int32s()[0]++
	return nil
}
