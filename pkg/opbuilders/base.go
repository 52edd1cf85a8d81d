// Package opbuilders contains the per-operator translation strategies that
// lower ONNX node units into NXA operators, plus the shared default pipeline
// they inherit: process inputs, process attributes, process outputs.
package opbuilders

import (
	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/onnpu/onnpu/pkg/registry"
	"k8s.io/klog/v2"
)

// attrsFunc is the op-specific middle stage: derive params from node
// attributes and hand off to processOutputs.
type attrsFunc func(b *opBuilder, g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, validateOnly bool) error

// opBuilder is the shared strategy implementation. Each registered op
// configures one instance; ops that need custom attribute handling set
// processAttrs, everything else inherits the default stages.
type opBuilder struct {
	onnxOpType   string
	nxaOpType    string
	maxInputs    int // 0 means all declared inputs
	maxOutputs   int
	processAttrs attrsFunc
}

// OpType returns the ONNX op type this builder handles.
func (b *opBuilder) OpType() string { return b.onnxOpType }

// Translate runs the three stages. The validateOnly flag flows untouched into
// the accumulator's append; the stage logic is byte-for-byte the same in both
// modes, which is what keeps capability query and compile consistent.
func (b *opBuilder) Translate(g *nxa.GraphBuilder, unit *onnx.NodeUnit, validateOnly bool) error {
	klog.V(2).Infof("NXA builder adding node. Onnx node name: [%s] onnx node type: [%s]", unit.Name(), unit.OpType())

	inputNames, err := b.processInputs(g, unit)
	if err != nil {
		return err
	}
	if b.processAttrs != nil {
		return b.processAttrs(b, g, unit, inputNames, validateOnly)
	}
	if len(inputNames) == 0 {
		return nil
	}
	return b.processOutputs(g, unit, inputNames, nil, validateOnly)
}

// processInputs registers every not-yet-present input tensor: element type
// (quantized-aware), quantization encoding, shape, and for initializers the
// unpacked constant payload. Already-registered names are skipped so sibling
// nodes sharing an input both succeed.
func (b *opBuilder) processInputs(g *nxa.GraphBuilder, unit *onnx.NodeUnit) ([]string, error) {
	inputs := unit.Inputs()
	if b.maxInputs > 0 && len(inputs) > b.maxInputs {
		inputs = inputs[:b.maxInputs]
	}

	inputNames := make([]string, 0, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		if g.ContainsTensor(in.Name) {
			klog.V(2).Infof("Tensor already added, skip it: %s", in.Name)
			inputNames = append(inputNames, in.Name)
			continue
		}

		dataType, err := nxa.MapElementType(in.ElemType, in.Quant != nil)
		if err != nil {
			return nil, err
		}
		if !in.ShapeKnown {
			return nil, nxa.Errorf(nxa.KindShapeViolation, "cannot get shape of input %q of node %s", in.Name, unit.Name())
		}

		var data []byte
		kind := nxa.TensorKindAppWrite
		if in.Initializer != nil {
			data, err = onnx.UnpackInitializer(in.Initializer)
			if err != nil {
				return nil, nxa.Errorf(nxa.KindUnsupportedType, "cannot unpack initializer %q: %w", in.Name, err)
			}
			kind = nxa.TensorKindStatic
		}

		added := g.AddTensor(nxa.Tensor{
			Name:     in.Name,
			Kind:     kind,
			DataType: dataType,
			Quant:    quantizationOf(in.Quant),
			Dims:     in.Shape,
			Data:     data,
		})
		if !added {
			return nil, nxa.Errorf(nxa.KindValidationRejected, "failed to add tensor %q for node %s", in.Name, unit.Name())
		}
		inputNames = append(inputNames, in.Name)
	}
	return inputNames, nil
}

// processOutputs is shared by every op: build the output descriptors, assign
// roles, and append the finished operator. Declared subgraph outputs become
// app-read tensors, everything else stays native to the accelerator.
func (b *opBuilder) processOutputs(g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, params []nxa.Param, validateOnly bool) error {
	outputs := unit.Outputs()
	n := len(outputs)
	if b.maxOutputs > 0 && n > b.maxOutputs {
		n = b.maxOutputs
	}

	built := make([]nxa.Tensor, 0, n)
	for i := 0; i < n; i++ {
		out := &outputs[i]

		dataType, err := nxa.MapElementType(out.ElemType, out.Quant != nil)
		if err != nil {
			return err
		}
		if !out.ShapeKnown {
			return nxa.Errorf(nxa.KindShapeViolation, "cannot get shape of output %q of node %s", out.Name, unit.Name())
		}

		kind := nxa.TensorKindNative
		if g.IsGraphOutput(out.Name) {
			kind = nxa.TensorKindAppRead
		}
		built = append(built, nxa.Tensor{
			Name:     out.Name,
			Kind:     kind,
			DataType: dataType,
			Quant:    quantizationOf(out.Quant),
			Dims:     out.Shape,
		})
	}

	return g.AddOperator(nxa.Operator{
		Name:       unit.Name(),
		Package:    nxa.DefaultPackage,
		Type:       b.nxaOpType,
		Params:     params,
		InputNames: inputNames,
		Outputs:    built,
	}, validateOnly)
}

// processAxisAttribute normalizes the node's axis attribute against the rank
// of its first input and appends the axis param. Gather carries a signed
// 32-bit axis, every other op an unsigned one. The normalized value is
// returned so sibling attributes can be checked against it.
func (b *opBuilder) processAxisAttribute(unit *onnx.NodeUnit, params *[]nxa.Param, defaultAxis int32) (int32, error) {
	inputs := unit.Inputs()
	if len(inputs) == 0 || !inputs[0].ShapeKnown {
		return 0, nxa.Errorf(nxa.KindShapeViolation, "cannot get shape of input 0 of node %s", unit.Name())
	}
	rank := int32(len(inputs[0].Shape))

	axis := int32(onnx.NewAttrHelper(unit.Target()).Int("axis", int64(defaultAxis)))
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return 0, nxa.Errorf(nxa.KindShapeViolation, "node %s: NXA requires axis in [0, rank-1], got %d for rank %d", unit.Name(), axis, rank)
	}

	if unit.OpType() == "Gather" {
		*params = append(*params, nxa.ScalarParam(paramAxis, nxa.ScalarInt32(axis)))
	} else {
		*params = append(*params, nxa.ScalarParam(paramAxis, nxa.ScalarUint32(uint32(axis))))
	}
	return axis, nil
}

// quantizationOf converts portable quantization params into the NXA encoding.
// NXA stores the negated zero point as its offset.
func quantizationOf(q *onnx.QuantParams) nxa.Quantization {
	if q == nil {
		return nxa.Quantization{Encoding: nxa.QuantEncodingUndefined}
	}
	if q.PerAxis() {
		offsets := make([]int32, len(q.ZeroPoints))
		for i, zp := range q.ZeroPoints {
			offsets[i] = -zp
		}
		return nxa.Quantization{
			Encoding: nxa.QuantEncodingAxisScaleOffset,
			Axis:     q.Axis,
			Scales:   append([]float32(nil), q.Scales...),
			Offsets:  offsets,
		}
	}
	return nxa.Quantization{
		Encoding: nxa.QuantEncodingScaleOffset,
		Scale:    q.Scale,
		Offset:   -q.ZeroPoint,
	}
}

// Param names defined by the NXA op package.
const (
	paramAxis     = "axis"
	paramAxes     = "axes"
	paramKeepDims = "keep_dims"
	paramPerm     = "perm"
)

// NewRegistry builds the full op registry. Called once per provider; the
// result is read-only afterwards.
func NewRegistry() *registry.Registry {
	r := registry.New()
	registerSimpleOps(r)
	registerAxisOps(r)
	registerArgMaxMinOps(r)
	registerGatherOp(r)
	registerReduceOps(r)
	registerTransposeOp(r)
	registerReshapeOp(r)
	return r
}
