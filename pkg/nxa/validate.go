package nxa

// opSchema is the structural contract the accelerator enforces for one op
// type at graph-build time.
type opSchema struct {
	minInputs  int
	maxInputs  int
	minOutputs int
}

// opSchemas is the accelerator's operator vocabulary. An op type absent from
// this table is rejected by validation regardless of its descriptors.
var opSchemas = map[string]opSchema{
	"ElementWiseAdd":      {2, 2, 1},
	"ElementWiseSubtract": {2, 2, 1},
	"ElementWiseMultiply": {2, 2, 1},
	"ElementWiseDivide":   {2, 2, 1},
	"MatMul":              {2, 2, 1},
	"Relu":                {1, 1, 1},
	"Sigmoid":             {1, 1, 1},
	"Tanh":                {1, 1, 1},
	"Softmax":             {1, 1, 1},
	"Concat":              {1, 16, 1},
	"Gather":              {2, 2, 1},
	"Argmax":              {1, 1, 1},
	"Argmin":              {1, 1, 1},
	"ReduceMax":           {1, 1, 1},
	"ReduceMin":           {1, 1, 1},
	"Transpose":           {1, 1, 1},
	"Reshape":             {1, 1, 1},
}

// validateOperator runs the structural and type checks the NXA ABI applies
// when an operator is appended. All rejections carry KindValidationRejected;
// earlier pipeline stages catch the locally detectable kinds first.
func validateOperator(b *GraphBuilder, op *Operator) error {
	schema, ok := opSchemas[op.Type]
	if !ok {
		return Errorf(KindValidationRejected, "operator %s: op type %q is not defined in package %s", op.Name, op.Type, op.Package)
	}
	if n := len(op.InputNames); n < schema.minInputs || n > schema.maxInputs {
		return Errorf(KindValidationRejected, "operator %s: op type %q takes %d..%d inputs, got %d",
			op.Name, op.Type, schema.minInputs, schema.maxInputs, len(op.InputNames))
	}
	if len(op.Outputs) < schema.minOutputs {
		return Errorf(KindValidationRejected, "operator %s: op type %q requires at least %d outputs, got %d",
			op.Name, op.Type, schema.minOutputs, len(op.Outputs))
	}

	for _, in := range op.InputNames {
		if err := validateTensor(b.Tensor(in), op); err != nil {
			return err
		}
	}
	for i := range op.Outputs {
		if err := validateTensor(&op.Outputs[i], op); err != nil {
			return err
		}
	}

	for _, p := range op.Params {
		switch {
		case p.Scalar != nil:
			if ElementSize(p.Scalar.DataType) == 0 {
				return Errorf(KindValidationRejected, "operator %s: param %q has undefined scalar type", op.Name, p.Name)
			}
		case p.Tensor != nil:
			if err := validateTensor(p.Tensor, op); err != nil {
				return err
			}
			if len(p.Tensor.Data) == 0 {
				return Errorf(KindValidationRejected, "operator %s: tensor param %q has no payload", op.Name, p.Name)
			}
		default:
			return Errorf(KindValidationRejected, "operator %s: param %q carries neither scalar nor tensor", op.Name, p.Name)
		}
	}
	return nil
}

func validateTensor(t *Tensor, op *Operator) error {
	if t == nil {
		return Errorf(KindValidationRejected, "operator %s references an unregistered tensor", op.Name)
	}
	size := ElementSize(t.DataType)
	if size == 0 {
		return Errorf(KindValidationRejected, "operator %s: tensor %q has undefined element type", op.Name, t.Name)
	}
	for i, d := range t.Dims {
		if d == 0 {
			return Errorf(KindValidationRejected, "operator %s: tensor %q has zero-sized dimension %d", op.Name, t.Name, i)
		}
	}
	switch t.DataType {
	case DataTypeSFixed8, DataTypeSFixed16, DataTypeSFixed32,
		DataTypeUFixed8, DataTypeUFixed16, DataTypeUFixed32:
		if t.Quant.Encoding == QuantEncodingUndefined {
			return Errorf(KindValidationRejected, "operator %s: fixed-point tensor %q has no quantization encoding", op.Name, t.Name)
		}
	}
	if t.Kind == TensorKindStatic && len(t.Dims) > 0 {
		want := NumElements(t.Dims) * int64(size)
		if int64(len(t.Data)) != want {
			return Errorf(KindValidationRejected, "operator %s: static tensor %q payload is %d bytes, want %d",
				op.Name, t.Name, len(t.Data), want)
		}
	}
	return nil
}
