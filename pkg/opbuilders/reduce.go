package opbuilders

import (
	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/onnpu/onnpu/pkg/registry"
)

// ReduceMax and ReduceMin lower their axes attribute into a static unsigned
// tensor parameter; an absent attribute reduces over every axis. Models that
// pass axes as a second input (opset 18 and later) are not handled.
func registerReduceOps(r *registry.Registry) {
	for _, op := range []string{"ReduceMax", "ReduceMin"} {
		r.Register(&opBuilder{
			onnxOpType:   op,
			nxaOpType:    op,
			maxInputs:    1,
			maxOutputs:   1,
			processAttrs: reduceAttrs,
		})
	}
}

func reduceAttrs(b *opBuilder, g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, validateOnly bool) error {
	if len(unit.Inputs()) > 1 {
		return nxa.Errorf(nxa.KindUnsupportedAttribute, "node %s: %s with axes as a dynamic input is not supported", unit.Name(), unit.OpType())
	}
	if len(unit.Inputs()) == 0 {
		return nxa.Errorf(nxa.KindShapeViolation, "node %s has no inputs", unit.Name())
	}
	in := unit.Inputs()[0]
	if !in.ShapeKnown {
		return nxa.Errorf(nxa.KindShapeViolation, "cannot get shape of input 0 of node %s", unit.Name())
	}
	rank := int64(len(in.Shape))

	attrs := onnx.NewAttrHelper(unit.Target())
	rawAxes := attrs.Ints("axes")
	if len(rawAxes) == 0 {
		rawAxes = make([]int64, rank)
		for i := range rawAxes {
			rawAxes[i] = int64(i)
		}
	}
	axes := make([]uint32, len(rawAxes))
	for i, a := range rawAxes {
		if a < 0 {
			a += rank
		}
		if a < 0 || a >= rank {
			return nxa.Errorf(nxa.KindShapeViolation, "node %s: NXA requires axis in [0, rank-1], got %d for rank %d", unit.Name(), a, rank)
		}
		axes[i] = uint32(a)
	}

	params := []nxa.Param{
		uint32TensorParam(paramAxes, axes),
		nxa.ScalarParam(paramKeepDims, nxa.ScalarBool(attrs.Int("keepdims", 1) != 0)),
	}
	return b.processOutputs(g, unit, inputNames, params, validateOnly)
}
