package opbuilders

import (
	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/onnpu/onnpu/pkg/registry"
)

// Softmax and Concat both lower to a single NXA op carrying a normalized,
// unsigned axis parameter.
func registerAxisOps(r *registry.Registry) {
	r.Register(&opBuilder{
		onnxOpType:   "Softmax",
		nxaOpType:    "Softmax",
		maxOutputs:   1,
		processAttrs: softmaxAttrs,
	})
	r.Register(&opBuilder{
		onnxOpType:   "Concat",
		nxaOpType:    "Concat",
		maxOutputs:   1,
		processAttrs: concatAttrs,
	})
}

func softmaxAttrs(b *opBuilder, g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, validateOnly bool) error {
	var params []nxa.Param
	// Opset 13 default: the last axis.
	if _, err := b.processAxisAttribute(unit, &params, -1); err != nil {
		return err
	}
	return b.processOutputs(g, unit, inputNames, params, validateOnly)
}

func concatAttrs(b *opBuilder, g *nxa.GraphBuilder, unit *onnx.NodeUnit, inputNames []string, validateOnly bool) error {
	if !onnx.NewAttrHelper(unit.Target()).Has("axis") {
		return nxa.Errorf(nxa.KindUnsupportedAttribute, "node %s: Concat requires an axis attribute", unit.Name())
	}
	var params []nxa.Param
	if _, err := b.processAxisAttribute(unit, &params, 0); err != nil {
		return err
	}
	return b.processOutputs(g, unit, inputNames, params, validateOnly)
}
