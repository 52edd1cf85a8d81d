package opbuilders

import "github.com/onnpu/onnpu/pkg/registry"

// Reshape keeps only its data input on the device; the shape input is folded
// into the already-known output shape, so the NXA op needs no parameters.
func registerReshapeOp(r *registry.Registry) {
	r.Register(&opBuilder{
		onnxOpType: "Reshape",
		nxaOpType:  "Reshape",
		maxInputs:  1,
		maxOutputs: 1,
	})
}
