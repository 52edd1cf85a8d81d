package onnx

import "fmt"

// QuantParams is the fixed-point encoding attached to one tensor: a single
// scale/zero-point pair, or per-axis arrays for channel-wise encodings.
type QuantParams struct {
	Scale     float32
	ZeroPoint int32

	// Per-axis encoding. When Scales holds more than one entry, Axis selects
	// the quantized dimension and Scale/ZeroPoint hold the first entry.
	Axis       int32
	Scales     []float32
	ZeroPoints []int32
}

// PerAxis reports whether the encoding is channel-wise.
func (q *QuantParams) PerAxis() bool {
	return q != nil && len(q.Scales) > 1
}

// IODef describes one input or output of a NodeUnit: the tensor name, its
// ONNX element type, its static shape when resolvable, and the quantization
// encoding recovered from a fused Quantize/Dequantize pair, if any.
type IODef struct {
	Name       string
	ElemType   int32
	Shape      []uint32
	ShapeKnown bool
	Quant      *QuantParams

	// Initializer points at the constant backing this input, when the tensor
	// is a graph initializer.
	Initializer *TensorProto
}

// NodeUnit is the unit of translation: a single ONNX node, or a cluster of
// DequantizeLinear inputs, one target node, and QuantizeLinear outputs fused
// into one logical quantized operation.
type NodeUnit struct {
	name    string
	opType  string
	inputs  []IODef
	outputs []IODef
	nodes   []*NodeProto
	target  *NodeProto
}

// Name returns a stable identifier for the unit: the target node's name, or
// its first output name when the node is anonymous.
func (u *NodeUnit) Name() string { return u.name }

// OpType returns the target node's operator type.
func (u *NodeUnit) OpType() string { return u.opType }

// Inputs returns the unit's ordered inputs. Fused units report the quantized
// tensors feeding the DequantizeLinear nodes, not the dequantized edges.
func (u *NodeUnit) Inputs() []IODef { return u.inputs }

// Outputs returns the unit's ordered outputs.
func (u *NodeUnit) Outputs() []IODef { return u.outputs }

// Nodes returns every portable node covered by this unit, the target node
// included.
func (u *NodeUnit) Nodes() []*NodeProto { return u.nodes }

// Target returns the node carrying the unit's attributes.
func (u *NodeUnit) Target() *NodeProto { return u.target }

// Quantized reports whether any input or output carries a quantization
// encoding.
func (u *NodeUnit) Quantized() bool {
	for i := range u.inputs {
		if u.inputs[i].Quant != nil {
			return true
		}
	}
	for i := range u.outputs {
		if u.outputs[i].Quant != nil {
			return true
		}
	}
	return false
}

// GraphInfo indexes a GraphProto for name-based lookups during lowering.
type GraphInfo struct {
	Graph        *GraphProto
	Initializers map[string]*TensorProto
	ValueInfos   map[string]*ValueInfoProto
	Outputs      map[string]bool
	Inputs       map[string]bool
}

// NewGraphInfo builds the lookup maps for a graph. Initializers without an
// explicit value_info entry get one synthesized from their dims and type.
func NewGraphInfo(g *GraphProto) *GraphInfo {
	info := &GraphInfo{
		Graph:        g,
		Initializers: make(map[string]*TensorProto, len(g.Initializers)),
		ValueInfos:   make(map[string]*ValueInfoProto),
		Outputs:      make(map[string]bool, len(g.Outputs)),
		Inputs:       make(map[string]bool, len(g.Inputs)),
	}
	for i := range g.Initializers {
		t := &g.Initializers[i]
		info.Initializers[t.Name] = t
	}
	for i := range g.Inputs {
		info.ValueInfos[g.Inputs[i].Name] = &g.Inputs[i]
		info.Inputs[g.Inputs[i].Name] = true
	}
	for i := range g.Outputs {
		info.ValueInfos[g.Outputs[i].Name] = &g.Outputs[i]
		info.Outputs[g.Outputs[i].Name] = true
	}
	for i := range g.ValueInfo {
		info.ValueInfos[g.ValueInfo[i].Name] = &g.ValueInfo[i]
	}
	for name, t := range info.Initializers {
		if _, ok := info.ValueInfos[name]; ok {
			continue
		}
		dims := make([]DimensionProto, len(t.Dims))
		for j, d := range t.Dims {
			dims[j] = DimensionProto{DimValue: d}
		}
		info.ValueInfos[name] = &ValueInfoProto{
			Name: name,
			Type: &TypeProto{TensorType: &TensorTypeProto{
				ElemType: t.DataType,
				Shape:    &TensorShapeProto{Dims: dims},
			}},
		}
	}
	return info
}

// IsInitializer reports whether name refers to a graph initializer.
func (info *GraphInfo) IsInitializer(name string) bool {
	_, ok := info.Initializers[name]
	return ok
}

// resolveIO fills an IODef from the graph's value metadata. Unknown values
// keep an undefined element type and no shape; the op builders reject those
// later with a typed error.
func (info *GraphInfo) resolveIO(name string) IODef {
	io := IODef{Name: name}
	io.Initializer = info.Initializers[name]
	vi, ok := info.ValueInfos[name]
	if !ok {
		return io
	}
	if et, err := ElemTypeOf(vi); err == nil {
		io.ElemType = et
	}
	if shape, err := ShapeOf(vi); err == nil {
		io.Shape = shape
		io.ShapeKnown = true
	}
	return io
}

// BuildNodeUnits groups the graph's nodes, in their given topological order,
// into translation units. A node whose non-constant inputs all come from
// exclusive DequantizeLinear producers and whose outputs all feed exclusive
// QuantizeLinear consumers is folded with them into a single quantized unit.
func BuildNodeUnits(info *GraphInfo) ([]*NodeUnit, error) {
	g := info.Graph
	producer := make(map[string]*NodeProto)
	consumers := make(map[string][]*NodeProto)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		for _, out := range n.Outputs {
			producer[out] = n
		}
		for _, in := range n.Inputs {
			if in == "" {
				continue
			}
			consumers[in] = append(consumers[in], n)
		}
	}

	// First pass: resolve fusion targets and claim their Quantize/Dequantize
	// satellites. A DequantizeLinear precedes its target in topological order,
	// so emitting units in a single pass would produce the satellite twice,
	// once standalone and once inside the fused unit.
	claimed := make(map[*NodeProto]bool)
	fused := make(map[*NodeProto]*NodeUnit)
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.OpType == "DequantizeLinear" || n.OpType == "QuantizeLinear" {
			continue
		}
		if unit, covered := tryFuseQDQ(info, n, producer, consumers); unit != nil {
			fused[n] = unit
			for _, c := range covered {
				claimed[c] = true
			}
		}
	}

	// Second pass: emit units in topological order. Every node lands in
	// exactly one unit.
	var units []*NodeUnit
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if unit, ok := fused[n]; ok {
			units = append(units, unit)
			continue
		}
		if claimed[n] {
			continue
		}
		units = append(units, standaloneUnit(info, n))
	}
	return units, nil
}

func standaloneUnit(info *GraphInfo, n *NodeProto) *NodeUnit {
	unit := &NodeUnit{
		name:   unitName(n),
		opType: n.OpType,
		nodes:  []*NodeProto{n},
		target: n,
	}
	for _, in := range n.Inputs {
		if in == "" {
			continue
		}
		unit.inputs = append(unit.inputs, info.resolveIO(in))
	}
	for _, out := range n.Outputs {
		unit.outputs = append(unit.outputs, info.resolveIO(out))
	}
	return unit
}

// tryFuseQDQ attempts to fold n with its surrounding Quantize/Dequantize
// nodes. It returns nil when the pattern does not hold exactly.
func tryFuseQDQ(info *GraphInfo, n *NodeProto, producer map[string]*NodeProto, consumers map[string][]*NodeProto) (*NodeUnit, []*NodeProto) {
	covered := []*NodeProto{n}
	unit := &NodeUnit{name: unitName(n), opType: n.OpType, target: n}

	sawQuant := false
	for _, in := range n.Inputs {
		if in == "" {
			continue
		}
		if info.IsInitializer(in) {
			unit.inputs = append(unit.inputs, info.resolveIO(in))
			continue
		}
		dq := producer[in]
		if dq == nil || dq.OpType != "DequantizeLinear" || len(consumers[in]) != 1 {
			return nil, nil
		}
		qp, err := quantParamsOf(info, dq)
		if err != nil {
			return nil, nil
		}
		io := info.resolveIO(dq.Inputs[0])
		io.Quant = qp
		unit.inputs = append(unit.inputs, io)
		covered = append(covered, dq)
		sawQuant = true
	}
	if !sawQuant {
		return nil, nil
	}

	for _, out := range n.Outputs {
		cs := consumers[out]
		if len(cs) != 1 || cs[0].OpType != "QuantizeLinear" || info.Outputs[out] {
			return nil, nil
		}
		q := cs[0]
		qp, err := quantParamsOf(info, q)
		if err != nil {
			return nil, nil
		}
		io := info.resolveIO(q.Outputs[0])
		io.Quant = qp
		unit.outputs = append(unit.outputs, io)
		covered = append(covered, q)
	}

	unit.nodes = covered
	return unit, covered
}

// quantParamsOf reads the scale and zero-point inputs of a QuantizeLinear or
// DequantizeLinear node. Both must be initializers.
func quantParamsOf(info *GraphInfo, n *NodeProto) (*QuantParams, error) {
	if len(n.Inputs) < 2 {
		return nil, fmt.Errorf("node %s has no scale input", unitName(n))
	}
	scaleInit, ok := info.Initializers[n.Inputs[1]]
	if !ok {
		return nil, fmt.Errorf("scale %q of node %s is not an initializer", n.Inputs[1], unitName(n))
	}
	scales, err := Float32Values(scaleInit)
	if err != nil || len(scales) == 0 {
		return nil, fmt.Errorf("cannot read scale %q: %w", n.Inputs[1], err)
	}

	var zps []int64
	if len(n.Inputs) > 2 && n.Inputs[2] != "" {
		zpInit, ok := info.Initializers[n.Inputs[2]]
		if !ok {
			return nil, fmt.Errorf("zero point %q of node %s is not an initializer", n.Inputs[2], unitName(n))
		}
		zps, err = Int64Values(zpInit)
		if err != nil {
			return nil, fmt.Errorf("cannot read zero point %q: %w", n.Inputs[2], err)
		}
	}

	// An omitted zero point defaults to 0; a present one must match the scale
	// count exactly.
	if len(zps) > 0 && len(zps) != len(scales) {
		return nil, fmt.Errorf("node %s: %d zero points for %d scales", unitName(n), len(zps), len(scales))
	}

	qp := &QuantParams{Scale: scales[0]}
	if len(zps) > 0 {
		qp.ZeroPoint = int32(zps[0])
	}
	if len(scales) > 1 {
		qp.Axis = int32(NewAttrHelper(n).Int("axis", 1))
		qp.Scales = scales
		qp.ZeroPoints = make([]int32, len(scales))
		for i, z := range zps {
			qp.ZeroPoints[i] = int32(z)
		}
	}
	return qp, nil
}

func unitName(n *NodeProto) string {
	if n.Name != "" {
		return n.Name
	}
	if len(n.Outputs) > 0 {
		return n.Outputs[0]
	}
	return n.OpType
}
