package nxa

import (
	"fmt"
	"strings"
)

// Diagnostic rendering of NXA descriptors. Advisory only: nothing in the
// build pipeline branches on these strings.

// String returns the stable enum label.
func (dt DataType) String() string {
	switch dt {
	case DataTypeInt8:
		return "NXA_DATATYPE_INT_8"
	case DataTypeInt16:
		return "NXA_DATATYPE_INT_16"
	case DataTypeInt32:
		return "NXA_DATATYPE_INT_32"
	case DataTypeInt64:
		return "NXA_DATATYPE_INT_64"
	case DataTypeUint8:
		return "NXA_DATATYPE_UINT_8"
	case DataTypeUint16:
		return "NXA_DATATYPE_UINT_16"
	case DataTypeUint32:
		return "NXA_DATATYPE_UINT_32"
	case DataTypeUint64:
		return "NXA_DATATYPE_UINT_64"
	case DataTypeFloat16:
		return "NXA_DATATYPE_FLOAT_16"
	case DataTypeFloat32:
		return "NXA_DATATYPE_FLOAT_32"
	case DataTypeBool8:
		return "NXA_DATATYPE_BOOL_8"
	case DataTypeSFixed8:
		return "NXA_DATATYPE_SFIXED_POINT_8"
	case DataTypeSFixed16:
		return "NXA_DATATYPE_SFIXED_POINT_16"
	case DataTypeSFixed32:
		return "NXA_DATATYPE_SFIXED_POINT_32"
	case DataTypeUFixed8:
		return "NXA_DATATYPE_UFIXED_POINT_8"
	case DataTypeUFixed16:
		return "NXA_DATATYPE_UFIXED_POINT_16"
	case DataTypeUFixed32:
		return "NXA_DATATYPE_UFIXED_POINT_32"
	default:
		return "NXA_DATATYPE_UNDEFINED"
	}
}

// String returns the stable enum label.
func (k TensorKind) String() string {
	switch k {
	case TensorKindAppWrite:
		return "NXA_TENSOR_APP_WRITE"
	case TensorKindAppRead:
		return "NXA_TENSOR_APP_READ"
	case TensorKindNative:
		return "NXA_TENSOR_NATIVE"
	case TensorKindStatic:
		return "NXA_TENSOR_STATIC"
	case TensorKindNull:
		return "NXA_TENSOR_NULL"
	default:
		return "Unsupported kind"
	}
}

// String returns the stable enum label.
func (e QuantEncoding) String() string {
	switch e {
	case QuantEncodingScaleOffset:
		return "NXA_QUANT_SCALE_OFFSET"
	case QuantEncodingAxisScaleOffset:
		return "NXA_QUANT_AXIS_SCALE_OFFSET"
	default:
		return "Unknown quantization encoding"
	}
}

// String renders the encoding and, for the per-tensor form, its values.
func (q Quantization) String() string {
	if q.Encoding == QuantEncodingUndefined {
		return "encoding=undefined"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "encoding=%s", q.Encoding)
	if q.Encoding == QuantEncodingScaleOffset {
		fmt.Fprintf(&sb, " scale=%v offset=%d", q.Scale, q.Offset)
	}
	return sb.String()
}

// String renders the scalar value for its type. Rendering of 64-bit integers
// and of unsigned/fixed-point quantized scalars is a known, intentional gap:
// translation supports them, the formatter does not. Float16 scalars render
// as empty for the same reason.
func (s Scalar) String() string {
	switch s.DataType {
	case DataTypeInt8, DataTypeInt16, DataTypeInt32:
		return fmt.Sprintf("%d", s.Int64)
	case DataTypeInt64:
		return "int64 is not supported"
	case DataTypeUint8, DataTypeUint16, DataTypeUint32:
		return fmt.Sprintf("%d", s.Uint64)
	case DataTypeUint64:
		return "uint64 is not supported"
	case DataTypeFloat16:
		return ""
	case DataTypeFloat32:
		return fmt.Sprintf("%v", s.Float32)
	case DataTypeSFixed8, DataTypeSFixed16, DataTypeSFixed32,
		DataTypeUFixed8, DataTypeUFixed16, DataTypeUFixed32:
		return "fixed point data is not supported"
	case DataTypeBool8:
		if s.Bool {
			return "1"
		}
		return "0"
	default:
		return "Unknown scalar type"
	}
}

// String renders the full tensor descriptor.
func (t Tensor) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "name=%s kind=%s dataType=%s rank=%d dims=(", t.Name, t.Kind, t.DataType, len(t.Dims))
	for _, d := range t.Dims {
		fmt.Fprintf(&sb, "%d ", d)
	}
	sb.WriteString(")")
	if len(t.Data) > 0 {
		fmt.Fprintf(&sb, " staticBytes=%d", len(t.Data))
	}
	fmt.Fprintf(&sb, " quantizeParams: %s", t.Quant)
	return sb.String()
}

// String renders a parameter: its name plus value or tensor payload.
func (p Param) String() string {
	if p.Tensor != nil {
		return fmt.Sprintf("type=NXA_PARAMTYPE_TENSOR name=%s %s", p.Name, *p.Tensor)
	}
	if p.Scalar != nil {
		return fmt.Sprintf("type=NXA_PARAMTYPE_SCALAR name=%s value=%s", p.Name, *p.Scalar)
	}
	return fmt.Sprintf("type=Unknown name=%s", p.Name)
}

// String renders the operator with its inputs, outputs and params, one per
// line.
func (op Operator) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "NXA_OpConfig node name: %s package_name: %s NXA_op_type: %s num_of_params: %d num_of_inputs: %d num_of_outputs: %d",
		op.Name, op.Package, op.Type, len(op.Params), len(op.InputNames), len(op.Outputs))
	sb.WriteString("\n node_inputs:\n")
	for _, in := range op.InputNames {
		sb.WriteString("  " + in + "\n")
	}
	sb.WriteString(" node_outputs:\n")
	for i := range op.Outputs {
		sb.WriteString("  " + op.Outputs[i].String() + "\n")
	}
	sb.WriteString(" node_params:\n")
	for i := range op.Params {
		sb.WriteString("  " + op.Params[i].String() + "\n")
	}
	return sb.String()
}
