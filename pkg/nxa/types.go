package nxa

// TensorKind is the role a tensor plays in an NXA graph.
type TensorKind uint32

const (
	// TensorKindNull marks an unused tensor slot.
	TensorKindNull TensorKind = iota
	// TensorKindAppWrite is an external input written by the application.
	TensorKindAppWrite
	// TensorKindAppRead is an external output read by the application.
	TensorKindAppRead
	// TensorKindNative is an internal tensor owned by the accelerator.
	TensorKindNative
	// TensorKindStatic is a constant whose payload ships with the graph.
	TensorKindStatic
)

// QuantEncoding selects the quantization metadata variant of a tensor.
type QuantEncoding uint32

const (
	QuantEncodingUndefined QuantEncoding = iota
	QuantEncodingScaleOffset
	QuantEncodingAxisScaleOffset
)

// Quantization is the fixed-point encoding of a tensor. Scale/Offset carry
// the per-tensor form; Scales/Offsets plus Axis carry the channel-wise form.
type Quantization struct {
	Encoding QuantEncoding
	Scale    float32
	Offset   int32
	Axis     int32
	Scales   []float32
	Offsets  []int32
}

// Tensor is an NXA tensor descriptor. Name is the registry key and must be
// unique within one graph. Data is set only for TensorKindStatic and is owned
// exclusively by this descriptor.
type Tensor struct {
	Name     string
	Kind     TensorKind
	DataType DataType
	Quant    Quantization
	Dims     []uint32
	Data     []byte
}

// Scalar is a typed scalar value carried by an operator parameter. Exactly
// the field matching DataType is meaningful.
type Scalar struct {
	DataType DataType
	Int64    int64
	Uint64   uint64
	Float32  float32
	Bool     bool
}

// ScalarInt32 builds a signed 32-bit scalar.
func ScalarInt32(v int32) Scalar {
	return Scalar{DataType: DataTypeInt32, Int64: int64(v)}
}

// ScalarUint32 builds an unsigned 32-bit scalar.
func ScalarUint32(v uint32) Scalar {
	return Scalar{DataType: DataTypeUint32, Uint64: uint64(v)}
}

// ScalarFloat32 builds a 32-bit float scalar.
func ScalarFloat32(v float32) Scalar {
	return Scalar{DataType: DataTypeFloat32, Float32: v}
}

// ScalarBool builds a bool8 scalar.
func ScalarBool(v bool) Scalar {
	return Scalar{DataType: DataTypeBool8, Bool: v}
}

// Param is a named operator parameter: a scalar or a tensor-valued constant,
// attached to exactly one operator.
type Param struct {
	Name   string
	Scalar *Scalar
	Tensor *Tensor
}

// ScalarParam builds a scalar-valued parameter.
func ScalarParam(name string, s Scalar) Param {
	return Param{Name: name, Scalar: &s}
}

// TensorParam builds a tensor-valued parameter. The tensor is static by
// definition.
func TensorParam(name string, t Tensor) Param {
	t.Kind = TensorKindStatic
	return Param{Name: name, Tensor: &t}
}

// Operator is one NXA operator descriptor: the op's identity, attached
// parameters, the names of its already-registered inputs, and its freshly
// built output descriptors.
type Operator struct {
	Name       string
	Package    string
	Type       string
	Params     []Param
	InputNames []string
	Outputs    []Tensor
}
