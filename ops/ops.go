// Package ops defines the operator capability table: the Kernel entry
// points an operator implementation provides, the contexts the runtime
// hands to them, and a Registry for resolving operator names.
package ops

import (
	"errors"
	"fmt"

	"github.com/edge-ml/tinygraph/tensor"
)

var (
	// ErrNotFound is returned by a Resolver for an unknown operator name.
	ErrNotFound = errors.New("ops: operator not found")
	// ErrAlreadyRegistered is returned when registering a duplicate name.
	ErrAlreadyRegistered = errors.New("ops: operator already registered")
)

// PrepareContext is the view a kernel gets during the allocation pass.
// Scratch and op-data requests are only legal here; the storage they
// name is bound before Invoke runs.
type PrepareContext interface {
	// NumInputs reports the operator's input count.
	NumInputs() int
	// NumOutputs reports the operator's output count.
	NumOutputs() int
	// Input returns the i-th input tensor, nil when out of range.
	// Storage is not bound yet; only metadata may be inspected.
	Input(i int) *tensor.Tensor
	// Output returns the i-th output tensor, nil when out of range.
	Output(i int) *tensor.Tensor
	// RequestScratchBuffer registers a per-invocation scratch region of
	// the given size. The returned index is passed to
	// InvokeContext.Scratch later.
	RequestScratchBuffer(size int) (int, error)
	// AllocateOpData reserves persistent per-node state that survives
	// across invocations. Zero-initialized.
	AllocateOpData(size int) ([]byte, error)
}

// InvokeContext is the view a kernel gets while executing a node.
type InvokeContext interface {
	NumInputs() int
	NumOutputs() int
	// Input returns the i-th input tensor with storage bound, nil when
	// out of range.
	Input(i int) *tensor.Tensor
	Output(i int) *tensor.Tensor
	// Scratch returns the scratch region registered under idx during
	// prepare. Contents do not persist between invocations.
	Scratch(idx int) []byte
	// OpData returns the persistent region reserved by AllocateOpData,
	// nil if none was requested.
	OpData() []byte
	// ExternalContext returns the value set on the interpreter, nil by
	// default.
	ExternalContext() any
}

// Kernel is one operator implementation. Prepare and Free are optional;
// Invoke is required.
type Kernel struct {
	// Prepare runs once per node during the allocation pass.
	Prepare func(ctx PrepareContext) error
	// Invoke runs once per node per interpreter invocation.
	Invoke func(ctx InvokeContext) error
	// Free releases out-of-arena resources held by the kernel.
	Free func()
}

// Resolver maps operator names to kernels.
type Resolver interface {
	// Find returns the kernel for name, or ErrNotFound.
	Find(name string) (*Kernel, error)
}

// Registry is a mutable name-to-kernel table. It implements Resolver.
// Not safe for concurrent mutation.
type Registry struct {
	kernels map[string]*Kernel
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kernels: make(map[string]*Kernel)}
}

// Register adds a kernel under name.
func (r *Registry) Register(name string, k *Kernel) error {
	if k == nil || k.Invoke == nil {
		return fmt.Errorf("ops: kernel %q has no invoke entry point", name)
	}
	if _, ok := r.kernels[name]; ok {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, name)
	}
	r.kernels[name] = k
	return nil
}

// MustRegister is Register that panics on error, for package-level tables.
func (r *Registry) MustRegister(name string, k *Kernel) {
	if err := r.Register(name, k); err != nil {
		panic(err)
	}
}

// Find implements Resolver.
func (r *Registry) Find(name string) (*Kernel, error) {
	k, ok := r.kernels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return k, nil
}

// Names returns the registered operator names, unordered.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	return names
}
