// Package registry maps ONNX op types to the builders that lower them into
// NXA operators.
package registry

import (
	"sort"

	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
)

// OpBuilder lowers one NodeUnit into NXA descriptors appended to the graph
// builder. With validateOnly set, the builder runs the identical pipeline but
// the accumulator persists nothing; this is what capability queries rely on.
type OpBuilder interface {
	// OpType returns the ONNX op type this builder handles.
	OpType() string

	// Translate runs the three translation stages for the unit.
	Translate(g *nxa.GraphBuilder, unit *onnx.NodeUnit, validateOnly bool) error
}

// Registry holds the op type → builder mapping. It is populated once when
// the provider is constructed and read-only afterwards, so concurrent
// lookups need no synchronization.
type Registry struct {
	builders map[string]OpBuilder
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{builders: make(map[string]OpBuilder)}
}

// Register adds a builder for an op type, replacing any previous entry.
func (r *Registry) Register(b OpBuilder) {
	r.builders[b.OpType()] = b
}

// Get returns the builder for a given op type.
func (r *Registry) Get(opType string) (OpBuilder, bool) {
	b, ok := r.builders[opType]
	return b, ok
}

// SupportedOps returns the registered op types, sorted.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.builders))
	for op := range r.builders {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
