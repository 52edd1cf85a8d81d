package opbuilders

import (
	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/onnpu/onnpu/pkg/registry"
)

// Gather is the one op whose axis parameter the NXA op package declares as a
// signed 32-bit scalar; processAxisAttribute picks the signed form from the op
// type.
func registerGatherOp(r *registry.Registry) {
	r.Register(&opBuilder{
		onnxOpType:   "Gather",
		nxaOpType:    "Gather",
		maxOutputs:   1,
		processAttrs: gatherAttrs,
	})
}

func gatherAttrs(b *opBuilder, g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, validateOnly bool) error {
	var params []nxa.Param
	if _, err := b.processAxisAttribute(unit, &params, 0); err != nil {
		return err
	}
	return b.processOutputs(g, unit, inputNames, params, validateOnly)
}
