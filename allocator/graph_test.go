package allocator

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edge-ml/tinygraph/model"
	"github.com/edge-ml/tinygraph/ops"
	"github.com/edge-ml/tinygraph/testutil"
)

// dataOffset locates a bound slice inside the allocator's arena.
func dataOffset(t *testing.T, ga *GraphAllocator, b []byte) int {
	t.Helper()
	base, err := ga.ar.Bytes(0, ga.ar.Capacity())
	require.NoError(t, err)
	return int(uintptr(unsafe.Pointer(&b[0])) - uintptr(unsafe.Pointer(&base[0])))
}

func TestAllocate_Simple(t *testing.T) {
	ga := New(make([]byte, 2048))

	e, err := ga.Allocate(testutil.SimpleGraph(), testutil.Resolver())
	require.NoError(t, err)

	assert.Equal(t, 1, e.NumInputs())
	assert.Equal(t, 2, e.NumOutputs())
	assert.Equal(t, 1, e.NumNodes())
	assert.Equal(t, testutil.OpDouble, e.NodeOp(0))

	require.NotNil(t, e.Input(0))
	assert.Len(t, e.Input(0).Data, 4)
	assert.Nil(t, e.Input(1))
	assert.Nil(t, e.Output(2))

	assert.Greater(t, e.PlanBytes(), 0)
	assert.GreaterOrEqual(t, ga.HeadUsedBytes(), e.PlanBytes())
	assert.Greater(t, ga.TailUsedBytes(), 0) // node metadata
}

func TestAllocate_ConstantBinding(t *testing.T) {
	b := model.NewBuilder("addc")
	in := b.AddTensor("in", model.Int32, []int{1})
	c := b.AddConstant("c", model.Int32, []int{1}, []byte{100, 0, 0, 0})
	out := b.AddTensor("out", model.Int32, []int{1})
	b.AddOperator("ADDC", []int{in, c}, []int{out})
	b.SetInputs(in)
	b.SetOutputs(out)
	g, err := b.Build()
	require.NoError(t, err)

	r := ops.NewRegistry()
	r.MustRegister("ADDC", &ops.Kernel{
		Invoke: func(ctx ops.InvokeContext) error {
			ctx.Output(0).Int32s()[0] = ctx.Input(0).Int32s()[0] + ctx.Input(1).Int32s()[0]
			return nil
		},
	})

	ga := New(make([]byte, 2048))
	e, err := ga.Allocate(g, r)
	require.NoError(t, err)

	// Constants bind to the model buffer, not arena storage.
	ct := e.Tensor(c)
	assert.True(t, ct.Constant)
	assert.Equal(t, int32(100), ct.Int32s()[0])
	assert.Same(t, &g.Buffer(0)[0], &ct.Data[0])

	e.Input(0).Int32s()[0] = 11
	require.NoError(t, e.InvokeNode(0, nil))
	assert.Equal(t, int32(111), e.Output(0).Int32s()[0])
}

func TestAllocate_VariableZeroed(t *testing.T) {
	ga := New(make([]byte, 4096))

	// Dirty the arena first so variable binding has something to scrub.
	base, err := ga.ar.Bytes(0, ga.ar.Capacity())
	require.NoError(t, err)
	for i := range base {
		base[i] = 0xAA
	}

	e, err := ga.Allocate(testutil.ComplexGraph(), testutil.Resolver())
	require.NoError(t, err)

	g := testutil.ComplexGraph()
	for id := 0; id < g.NumTensors(); id++ {
		if !g.Tensor(id).Variable {
			continue
		}
		v := e.Tensor(id)
		assert.Equal(t, int32(0), v.Int32s()[0], "variable %q not zeroed", v.Name)
	}
}

func TestAllocate_UnsupportedOperator(t *testing.T) {
	ga := New(make([]byte, 2048))

	_, err := ga.Allocate(testutil.SimpleGraph(), ops.NewRegistry())
	var ue *UnsupportedOperatorError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, testutil.OpDouble, ue.Op)
}

func TestAllocate_PrepareFailed(t *testing.T) {
	cause := errors.New("bad shape")
	r := ops.NewRegistry()
	r.MustRegister(testutil.OpDouble, &ops.Kernel{
		Prepare: func(ops.PrepareContext) error { return cause },
		Invoke:  func(ops.InvokeContext) error { return nil },
	})

	ga := New(make([]byte, 2048))
	_, err := ga.Allocate(testutil.SimpleGraph(), r)

	var pe *PrepareError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, pe.Node)
	assert.Equal(t, testutil.OpDouble, pe.Op)
	assert.ErrorIs(t, err, cause)
}

func TestAllocate_TooManyScratchBuffers(t *testing.T) {
	r := ops.NewRegistry()
	r.MustRegister(testutil.OpDouble, &ops.Kernel{
		Prepare: func(ctx ops.PrepareContext) error {
			for j := 0; j <= MaxScratchBuffers; j++ {
				if _, err := ctx.RequestScratchBuffer(8); err != nil {
					return err
				}
			}
			return nil
		},
		Invoke: func(ops.InvokeContext) error { return nil },
	})

	ga := New(make([]byte, 8192))
	_, err := ga.Allocate(testutil.SimpleGraph(), r)
	assert.ErrorIs(t, err, ErrTooManyScratchBuffers)
}

func TestAllocate_TempReleasedAfterCommit(t *testing.T) {
	ga := New(make([]byte, 4096))

	_, err := ga.Allocate(testutil.StatefulGraph(), testutil.Resolver())
	require.NoError(t, err)

	// Scratch request bookkeeping must be gone once the pass commits.
	assert.Equal(t, 0, ga.ar.TempUsedBytes())
}

func TestAllocate_MultiTenantHeadReuse(t *testing.T) {
	soloA := New(make([]byte, 8192))
	_, err := soloA.Allocate(testutil.SimpleGraph(), testutil.Resolver())
	require.NoError(t, err)

	soloB := New(make([]byte, 8192))
	_, err = soloB.Allocate(testutil.ComplexGraph(), testutil.Resolver())
	require.NoError(t, err)

	shared := New(make([]byte, 8192))
	_, err = shared.Allocate(testutil.SimpleGraph(), testutil.Resolver())
	require.NoError(t, err)
	_, err = shared.Allocate(testutil.ComplexGraph(), testutil.Resolver())
	require.NoError(t, err)

	// Head approaches the max of the tenants, never the sum.
	assert.LessOrEqual(t, shared.HeadUsedBytes(),
		soloA.HeadUsedBytes()+soloB.HeadUsedBytes())

	// A repeat tenant must not grow the head at all.
	before := shared.HeadUsedBytes()
	_, err = shared.Allocate(testutil.ComplexGraph(), testutil.Resolver())
	require.NoError(t, err)
	assert.Equal(t, before, shared.HeadUsedBytes())
}

func TestAllocate_NoOverlappingLifetimesShareBytes(t *testing.T) {
	g := testutil.ComplexGraph()
	ga := New(make([]byte, 8192))
	e, err := ga.Allocate(g, testutil.Resolver())
	require.NoError(t, err)

	first, last := lifetimes(g)
	type region struct {
		id       int
		from, to int // byte range, inclusive-exclusive
	}
	var planned []region
	for id := 0; id < g.NumTensors(); id++ {
		tn := e.Tensor(id)
		if tn.Variable || tn.Constant || len(tn.Data) == 0 {
			continue
		}
		off := dataOffset(t, ga, tn.Data)
		planned = append(planned, region{id: id, from: off, to: off + len(tn.Data)})
	}

	for a := 0; a < len(planned); a++ {
		for b := a + 1; b < len(planned); b++ {
			ra, rb := planned[a], planned[b]
			timeOverlap := first[ra.id] <= last[rb.id] && first[rb.id] <= last[ra.id]
			byteOverlap := ra.from < rb.to && rb.from < ra.to
			if timeOverlap {
				assert.False(t, byteOverlap,
					"tensors %d and %d overlap in time and share bytes", ra.id, rb.id)
			}
		}
	}
}

func TestAllocate_Deterministic(t *testing.T) {
	offsets := func() map[string]int {
		ga := New(make([]byte, 4096))
		e, err := ga.Allocate(testutil.StatefulGraph(), testutil.Resolver())
		require.NoError(t, err)
		out := make(map[string]int)
		for id := 0; id < e.graph.NumTensors(); id++ {
			tn := e.Tensor(id)
			if len(tn.Data) == 0 {
				continue
			}
			out[tn.Name] = dataOffset(t, ga, tn.Data)
		}
		return out
	}

	first := offsets()
	for run := 0; run < 5; run++ {
		assert.Equal(t, first, offsets())
	}
}

func TestLifetimes(t *testing.T) {
	g := testutil.ComplexGraph()
	first, last := lifetimes(g)

	in := g.Inputs()[0]
	assert.Equal(t, 0, first[in])
	assert.Equal(t, 0, last[in]) // consumed only by node 0

	out := g.Outputs()[0]
	assert.Equal(t, 2, first[out]) // produced by the last node
	assert.Equal(t, 2, last[out])

	// The t1 intermediate is produced by node 0 and consumed by node 1.
	for id := 0; id < g.NumTensors(); id++ {
		if g.Tensor(id).Name == "t1" {
			assert.Equal(t, 0, first[id])
			assert.Equal(t, 1, last[id])
		}
	}
}
