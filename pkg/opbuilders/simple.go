package opbuilders

import "github.com/onnpu/onnpu/pkg/registry"

// Ops whose translation is the default pipeline with no parameters: the NXA
// op consumes the inputs as-is and the op type carries all the semantics.
func registerSimpleOps(r *registry.Registry) {
	for _, m := range []struct{ onnxType, nxaType string }{
		{"Add", "ElementWiseAdd"},
		{"Sub", "ElementWiseSubtract"},
		{"Mul", "ElementWiseMultiply"},
		{"Div", "ElementWiseDivide"},
		{"MatMul", "MatMul"},
		{"Relu", "Relu"},
		{"Sigmoid", "Sigmoid"},
		{"Tanh", "Tanh"},
	} {
		r.Register(&opBuilder{
			onnxOpType: m.onnxType,
			nxaOpType:  m.nxaType,
			maxOutputs: 1,
		})
	}
}
