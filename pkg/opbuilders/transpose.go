package opbuilders

import (
	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/onnpu/onnpu/pkg/registry"
)

// Transpose lowers its permutation into a static tensor parameter. When the
// attribute is absent ONNX reverses the dimensions, so the default perm is
// rank-1 down to 0.
func registerTransposeOp(r *registry.Registry) {
	r.Register(&opBuilder{
		onnxOpType:   "Transpose",
		nxaOpType:    "Transpose",
		maxOutputs:   1,
		processAttrs: transposeAttrs,
	})
}

func transposeAttrs(b *opBuilder, g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, validateOnly bool) error {
	inputs := unit.Inputs()
	if len(inputs) == 0 {
		return nxa.Errorf(nxa.KindShapeViolation, "node %s has no inputs", unit.Name())
	}
	in := inputs[0]
	if !in.ShapeKnown {
		return nxa.Errorf(nxa.KindShapeViolation, "cannot get shape of input 0 of node %s", unit.Name())
	}
	rank := int64(len(in.Shape))

	rawPerm := onnx.NewAttrHelper(unit.Target()).Ints("perm")
	if len(rawPerm) == 0 {
		rawPerm = make([]int64, rank)
		for i := range rawPerm {
			rawPerm[i] = rank - 1 - int64(i)
		}
	}
	if int64(len(rawPerm)) != rank {
		return nxa.Errorf(nxa.KindShapeViolation, "node %s: perm has %d entries for rank %d", unit.Name(), len(rawPerm), rank)
	}
	perm := make([]uint32, len(rawPerm))
	for i, p := range rawPerm {
		if p < 0 || p >= rank {
			return nxa.Errorf(nxa.KindShapeViolation, "node %s: perm entry %d out of range for rank %d", unit.Name(), p, rank)
		}
		perm[i] = uint32(p)
	}

	params := []nxa.Param{uint32TensorParam(paramPerm, perm)}
	return b.processOutputs(g, unit, inputNames, params, validateOnly)
}
