package nxa

import "fmt"

// DefaultPackage is the operator package every core op belongs to.
const DefaultPackage = "nxa.base"

// GraphBuilder accumulates one lowered subgraph: a tensor registry keyed by
// name, the declared external outputs and constant origins, and the operator
// list in build order. It never computes anything; it is the bookkeeping
// boundary in front of the accelerator's graph-construction ABI.
//
// A builder belongs to a single translation pass and must not be shared.
type GraphBuilder struct {
	name         string
	tensors      map[string]*Tensor
	order        []string
	ops          []*Operator
	outputs      map[string]bool
	initializers map[string]bool
	finalized    bool
}

// NewGraphBuilder creates an empty builder for one subgraph. graphOutputs are
// the tensor names the surrounding engine reads back; initializerNames are
// the tensors that originate from portable-graph constants.
func NewGraphBuilder(name string, graphOutputs, initializerNames []string) *GraphBuilder {
	b := &GraphBuilder{
		name:         name,
		tensors:      make(map[string]*Tensor),
		outputs:      make(map[string]bool, len(graphOutputs)),
		initializers: make(map[string]bool, len(initializerNames)),
	}
	for _, n := range graphOutputs {
		b.outputs[n] = true
	}
	for _, n := range initializerNames {
		b.initializers[n] = true
	}
	return b
}

// Name returns the subgraph name.
func (b *GraphBuilder) Name() string { return b.name }

// ContainsTensor reports whether a tensor name is already registered.
func (b *GraphBuilder) ContainsTensor(name string) bool {
	_, ok := b.tensors[name]
	return ok
}

// IsGraphOutput reports whether name is a declared output of the subgraph.
func (b *GraphBuilder) IsGraphOutput(name string) bool { return b.outputs[name] }

// IsInitializer reports whether name originates from a portable-graph
// constant.
func (b *GraphBuilder) IsInitializer(name string) bool { return b.initializers[name] }

// AddTensor registers a tensor descriptor. Re-adding an existing name is a
// no-op and still reports success, so sibling nodes sharing an input may both
// register it. A malformed descriptor (empty name, undefined element type) is
// rejected.
func (b *GraphBuilder) AddTensor(t Tensor) bool {
	if b.finalized || t.Name == "" {
		return false
	}
	if _, ok := b.tensors[t.Name]; ok {
		return true
	}
	if t.Kind != TensorKindNull && ElementSize(t.DataType) == 0 {
		return false
	}
	b.tensors[t.Name] = &t
	b.order = append(b.order, t.Name)
	return true
}

// Tensor returns the registered descriptor for name, or nil.
func (b *GraphBuilder) Tensor(name string) *Tensor { return b.tensors[name] }

// NumTensors returns the registry size.
func (b *GraphBuilder) NumTensors() int { return len(b.tensors) }

// NumOperators returns the number of appended operators.
func (b *GraphBuilder) NumOperators() int { return len(b.ops) }

// AddOperator validates an operator against the registry and the accelerator
// ABI's structural rules, then appends it unless validateOnly is set. The
// append is the only place the dry-run and persisting modes diverge: a
// validate-only call leaves the builder untouched.
func (b *GraphBuilder) AddOperator(op Operator, validateOnly bool) error {
	if b.finalized {
		return fmt.Errorf("graph %s is already finalized", b.name)
	}
	for _, in := range op.InputNames {
		if !b.ContainsTensor(in) {
			return Errorf(KindMissingTensor, "operator %s references tensor %q before it is registered", op.Name, in)
		}
	}
	if err := validateOperator(b, &op); err != nil {
		return err
	}
	if validateOnly {
		return nil
	}
	for _, out := range op.Outputs {
		if !b.AddTensor(out) {
			return Errorf(KindValidationRejected, "operator %s produced a malformed output tensor %q", op.Name, out.Name)
		}
	}
	b.ops = append(b.ops, &op)
	return nil
}

// Finalize freezes the builder and returns the completed graph. The builder
// rejects further mutation afterwards.
func (b *GraphBuilder) Finalize() *Graph {
	b.finalized = true
	g := &Graph{
		Name:      b.name,
		Operators: b.ops,
	}
	g.Tensors = make([]*Tensor, 0, len(b.order))
	g.byName = make(map[string]*Tensor, len(b.order))
	for _, name := range b.order {
		t := b.tensors[name]
		g.Tensors = append(g.Tensors, t)
		g.byName[name] = t
	}
	return g
}

// Graph is a finalized NXA graph, immutable and exclusively owned by the
// compiled unit it was built for.
type Graph struct {
	Name      string
	Tensors   []*Tensor
	Operators []*Operator

	byName map[string]*Tensor
}

// Tensor looks up a descriptor by name, or nil.
func (g *Graph) Tensor(name string) *Tensor { return g.byName[name] }

// InputNames returns the names of all external-input tensors in registration
// order.
func (g *Graph) InputNames() []string {
	var names []string
	for _, t := range g.Tensors {
		if t.Kind == TensorKindAppWrite {
			names = append(names, t.Name)
		}
	}
	return names
}

// OutputNames returns the names of all external-output tensors in
// registration order.
func (g *Graph) OutputNames() []string {
	var names []string
	for _, t := range g.Tensors {
		if t.Kind == TensorKindAppRead {
			names = append(names, t.Name)
		}
	}
	return names
}
