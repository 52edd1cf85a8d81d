// Package provider drives offload onto the NXA accelerator: it decides which
// portable-graph nodes can be lowered (capability query), groups them into
// contiguous partitions, and compiles each accepted partition into a callable
// NXA graph.
package provider

import (
	"fmt"

	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/onnpu/onnpu/pkg/opbuilders"
	"github.com/onnpu/onnpu/pkg/registry"
	"k8s.io/klog/v2"
)

// Provider is one NXA execution provider instance. The builder registry is
// populated at construction and read-only afterwards, so concurrent
// GetCapability calls on different graphs are safe. Compile mutates the
// compiled-model map and is not safe for concurrent use on the same instance.
type Provider struct {
	opts     Options
	registry *registry.Registry
	runtime  nxa.Runtime
	compiled map[string]*CompiledModel
}

// New creates a provider with the full op-builder registry and the given
// device runtime. A nil runtime selects the host-only software runtime.
func New(opts Options, rt nxa.Runtime) *Provider {
	if rt == nil {
		if opts.BackendPath != "" {
			klog.Warningf("no device runtime linked, ignoring backend_path %q", opts.BackendPath)
		}
		rt = nxa.NewSoftwareRuntime()
	}
	if opts.ProfilingLevel != ProfilingOff {
		klog.Infof("NXA profiling level: %s", opts.ProfilingLevel)
	}
	return &Provider{
		opts:     opts,
		registry: opbuilders.NewRegistry(),
		runtime:  rt,
		compiled: make(map[string]*CompiledModel),
	}
}

// SupportedOps returns the op types the provider can lower, sorted.
func (p *Provider) SupportedOps() []string { return p.registry.SupportedOps() }

// NodeGroup is one offload candidate: a contiguous run of supported node
// units in the graph's topological order.
type NodeGroup struct {
	Name  string
	Units []*onnx.NodeUnit
}

// GetCapability reports which node units of the graph can be lowered,
// grouped into contiguous topological runs. The pass is read-only over the
// source graph: every unit is dry-run against a throwaway accumulator, so
// calling it repeatedly yields the same result.
func (p *Provider) GetCapability(info *onnx.GraphInfo) ([]NodeGroup, error) {
	units, err := onnx.BuildNodeUnits(info)
	if err != nil {
		return nil, fmt.Errorf("grouping nodes of graph %s: %w", info.Graph.Name, err)
	}

	var groups []NodeGroup
	var current []*onnx.NodeUnit
	flush := func() {
		if len(current) == 0 {
			return
		}
		groups = append(groups, NodeGroup{
			Name:  fmt.Sprintf("NXA_%s_%d", info.Graph.Name, len(groups)),
			Units: current,
		})
		current = nil
	}

	for _, unit := range units {
		if p.isUnitSupported(info, unit) {
			current = append(current, unit)
			continue
		}
		flush()
	}
	flush()

	klog.V(1).Infof("graph %s: %d of %d node units offloadable in %d partition(s)",
		info.Graph.Name, countUnits(groups), len(units), len(groups))
	return groups, nil
}

func countUnits(groups []NodeGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Units)
	}
	return n
}

// isUnitSupported dry-runs the unit's full translation pipeline against a
// scratch accumulator. The scratch builder is discarded afterwards, so a
// failing unit leaves nothing behind for later units in the same query.
func (p *Provider) isUnitSupported(info *onnx.GraphInfo, unit *onnx.NodeUnit) bool {
	builder, ok := p.registry.Get(unit.OpType())
	if !ok {
		klog.V(1).Infof("node %s (%s) not offloadable: no builder registered", unit.Name(), unit.OpType())
		return false
	}
	scratch := nxa.NewGraphBuilder("capability", outputNames(info), initializerNames(info))
	if err := builder.Translate(scratch, unit, true); err != nil {
		klog.V(1).Infof("node %s (%s) not offloadable: %v", unit.Name(), unit.OpType(), err)
		return false
	}
	return true
}

// Compile lowers each accepted group into its own NXA graph, hands it to the
// runtime, and registers a compute entry point per group. Results are
// returned in input order. A unit that passed the capability query but fails
// here is a partitioning bug, so the error says so instead of reporting an
// ordinary unsupported node.
func (p *Provider) Compile(info *onnx.GraphInfo, groups []NodeGroup) ([]*CompiledModel, error) {
	models := make([]*CompiledModel, 0, len(groups))
	for _, group := range groups {
		model, err := p.compileGroup(info, group)
		if err != nil {
			return nil, err
		}
		p.compiled[group.Name] = model
		models = append(models, model)
	}
	return models, nil
}

func (p *Provider) compileGroup(info *onnx.GraphInfo, group NodeGroup) (*CompiledModel, error) {
	b := nxa.NewGraphBuilder(group.Name, groupOutputNames(info, group.Units), initializerNames(info))
	for _, unit := range group.Units {
		builder, ok := p.registry.Get(unit.OpType())
		if !ok {
			return nil, fmt.Errorf("partition %s: capability/compile inconsistency: no builder for accepted node %s (%s)",
				group.Name, unit.Name(), unit.OpType())
		}
		if err := builder.Translate(b, unit, false); err != nil {
			return nil, fmt.Errorf("partition %s: capability/compile inconsistency: accepted node %s (%s) failed to compile: %w",
				group.Name, unit.Name(), unit.OpType(), err)
		}
	}

	graph := b.Finalize()
	exec, err := p.runtime.PrepareGraph(graph)
	if err != nil {
		return nil, fmt.Errorf("partition %s: preparing NXA graph: %w", group.Name, err)
	}
	klog.V(1).Infof("partition %s compiled: %d tensors, %d operators", group.Name, len(graph.Tensors), len(graph.Operators))
	return &CompiledModel{
		name:    group.Name,
		graph:   graph,
		exec:    exec,
		inputs:  graph.InputNames(),
		outputs: graph.OutputNames(),
	}, nil
}

// Compiled returns the registered entry point for a partition name, or nil.
func (p *Provider) Compiled(name string) *CompiledModel { return p.compiled[name] }

// outputNames lists the model's declared graph outputs.
func outputNames(info *onnx.GraphInfo) []string {
	names := make([]string, 0, len(info.Graph.Outputs))
	for i := range info.Graph.Outputs {
		names = append(names, info.Graph.Outputs[i].Name)
	}
	return names
}

// initializerNames lists the model's constant tensors.
func initializerNames(info *onnx.GraphInfo) []string {
	names := make([]string, 0, len(info.Initializers))
	for name := range info.Initializers {
		names = append(names, name)
	}
	return names
}

// groupOutputNames computes the external outputs of one partition: tensors
// its nodes produce that either are declared model outputs or feed a node
// outside the partition. Those must surface as app-readable tensors.
func groupOutputNames(info *onnx.GraphInfo, units []*onnx.NodeUnit) []string {
	inGroup := make(map[*onnx.NodeProto]bool)
	produced := make(map[string]bool)
	for _, u := range units {
		for _, n := range u.Nodes() {
			inGroup[n] = true
			for _, out := range n.Outputs {
				produced[out] = true
			}
		}
	}

	external := make(map[string]bool)
	for name := range produced {
		if info.Outputs[name] {
			external[name] = true
		}
	}
	for i := range info.Graph.Nodes {
		n := &info.Graph.Nodes[i]
		if inGroup[n] {
			continue
		}
		for _, in := range n.Inputs {
			if produced[in] {
				external[in] = true
			}
		}
	}

	// Stable order: follow each unit's declared outputs.
	var names []string
	seen := make(map[string]bool)
	for _, u := range units {
		for _, out := range u.Outputs() {
			if external[out.Name] && !seen[out.Name] {
				seen[out.Name] = true
				names = append(names, out.Name)
			}
		}
	}
	return names
}

// CompiledModel is a compiled partition's compute entry point.
type CompiledModel struct {
	name    string
	graph   *nxa.Graph
	exec    nxa.Executable
	inputs  []string
	outputs []string
}

// Name returns the partition name.
func (m *CompiledModel) Name() string { return m.name }

// Graph returns the finalized NXA graph. Read-only.
func (m *CompiledModel) Graph() *nxa.Graph { return m.graph }

// InputNames returns the externally written tensors in registration order.
func (m *CompiledModel) InputNames() []string { return m.inputs }

// OutputNames returns the externally read tensors in registration order.
func (m *CompiledModel) OutputNames() []string { return m.outputs }

// Compute runs the partition. Every declared input must be supplied; output
// buffers are filled in place.
func (m *CompiledModel) Compute(inputs map[string][]byte, outputs map[string][]byte) error {
	for _, name := range m.inputs {
		if _, ok := inputs[name]; !ok {
			return fmt.Errorf("partition %s: missing input buffer %q", m.name, name)
		}
	}
	return m.exec.Execute(inputs, outputs)
}
