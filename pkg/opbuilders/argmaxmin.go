package opbuilders

import (
	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/onnpu/onnpu/pkg/registry"
)

// ArgMax and ArgMin carry a normalized axis plus a keep_dims flag. NXA always
// selects the first occurrence on ties, so select_last_index=1 cannot be
// honored and fails the build.
func registerArgMaxMinOps(r *registry.Registry) {
	for _, m := range []struct{ onnxType, nxaType string }{
		{"ArgMax", "Argmax"},
		{"ArgMin", "Argmin"},
	} {
		r.Register(&opBuilder{
			onnxOpType:   m.onnxType,
			nxaOpType:    m.nxaType,
			maxOutputs:   1,
			processAttrs: argMaxMinAttrs,
		})
	}
}

func argMaxMinAttrs(b *opBuilder, g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, validateOnly bool) error {
	attrs := onnx.NewAttrHelper(unit.Target())
	if attrs.Int("select_last_index", 0) != 0 {
		return nxa.Errorf(nxa.KindUnsupportedAttribute, "node %s: NXA does not support select_last_index for %s", unit.Name(), unit.OpType())
	}

	var params []nxa.Param
	if _, err := b.processAxisAttribute(unit, &params, 0); err != nil {
		return err
	}
	params = append(params, nxa.ScalarParam(paramKeepDims, nxa.ScalarBool(attrs.Int("keepdims", 1) != 0)))
	return b.processOutputs(g, unit, inputNames, params, validateOnly)
}
