package ops

import (
	"fmt"

	"github.com/edge-ml/tinygraph/model"
)

// Builtin operator names.
const (
	OpAdd  = "ADD"
	OpMul  = "MUL"
	OpRelu = "RELU"
)

// Builtins returns a registry with the element-wise builtin kernels. Each
// call returns a fresh registry so callers can add their own entries.
func Builtins() *Registry {
	r := NewRegistry()
	r.MustRegister(OpAdd, &Kernel{
		Prepare: prepareBinaryElementwise,
		Invoke:  invokeAdd,
	})
	r.MustRegister(OpMul, &Kernel{
		Prepare: prepareBinaryElementwise,
		Invoke:  invokeMul,
	})
	r.MustRegister(OpRelu, &Kernel{
		Prepare: prepareUnaryElementwise,
		Invoke:  invokeRelu,
	})
	return r
}

func prepareBinaryElementwise(ctx PrepareContext) error {
	if ctx.NumInputs() != 2 || ctx.NumOutputs() != 1 {
		return fmt.Errorf("want 2 inputs and 1 output, have %d/%d",
			ctx.NumInputs(), ctx.NumOutputs())
	}
	a, b, out := ctx.Input(0), ctx.Input(1), ctx.Output(0)
	if a.Type != b.Type || a.Type != out.Type {
		return fmt.Errorf("mixed element types %s/%s/%s", a.Type, b.Type, out.Type)
	}
	if a.NumElements() != b.NumElements() || a.NumElements() != out.NumElements() {
		return fmt.Errorf("shape mismatch %v/%v/%v", a.Dims, b.Dims, out.Dims)
	}
	return nil
}

func prepareUnaryElementwise(ctx PrepareContext) error {
	if ctx.NumInputs() != 1 || ctx.NumOutputs() != 1 {
		return fmt.Errorf("want 1 input and 1 output, have %d/%d",
			ctx.NumInputs(), ctx.NumOutputs())
	}
	in, out := ctx.Input(0), ctx.Output(0)
	if in.Type != out.Type {
		return fmt.Errorf("mixed element types %s/%s", in.Type, out.Type)
	}
	if in.NumElements() != out.NumElements() {
		return fmt.Errorf("shape mismatch %v/%v", in.Dims, out.Dims)
	}
	return nil
}

func invokeAdd(ctx InvokeContext) error {
	a, b, out := ctx.Input(0), ctx.Input(1), ctx.Output(0)
	switch a.Type {
	case model.Int32:
		av, bv, ov := a.Int32s(), b.Int32s(), out.Int32s()
		for i := range ov {
			ov[i] = av[i] + bv[i]
		}
	case model.Float32:
		av, bv, ov := a.Float32s(), b.Float32s(), out.Float32s()
		for i := range ov {
			ov[i] = av[i] + bv[i]
		}
	default:
		return fmt.Errorf("unsupported element type %s", a.Type)
	}
	return nil
}

func invokeMul(ctx InvokeContext) error {
	a, b, out := ctx.Input(0), ctx.Input(1), ctx.Output(0)
	switch a.Type {
	case model.Int32:
		av, bv, ov := a.Int32s(), b.Int32s(), out.Int32s()
		for i := range ov {
			ov[i] = av[i] * bv[i]
		}
	case model.Float32:
		av, bv, ov := a.Float32s(), b.Float32s(), out.Float32s()
		for i := range ov {
			ov[i] = av[i] * bv[i]
		}
	default:
		return fmt.Errorf("unsupported element type %s", a.Type)
	}
	return nil
}

func invokeRelu(ctx InvokeContext) error {
	in, out := ctx.Input(0), ctx.Output(0)
	switch in.Type {
	case model.Int32:
		iv, ov := in.Int32s(), out.Int32s()
		for i := range ov {
			ov[i] = max(iv[i], 0)
		}
	case model.Float32:
		iv, ov := in.Float32s(), out.Float32s()
		for i := range ov {
			ov[i] = max(iv[i], 0)
		}
	default:
		return fmt.Errorf("unsupported element type %s", in.Type)
	}
	return nil
}
