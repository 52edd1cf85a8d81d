// Package onnx holds a minimal, dependency-light view of the ONNX model
// format: hand-written message structs plus a wire-format decoder built on
// protowire. Only the fields the lowering pipeline consumes are modeled.
package onnx

// ModelProto is the top-level ONNX model message.
type ModelProto struct {
	IRVersion       int64
	OpsetImport     []OperatorSetID
	ProducerName    string
	ProducerVersion string
	Domain          string
	ModelVersion    int64
	DocString       string
	Graph           *GraphProto
	MetadataProps   []StringStringEntry
}

// GraphProto is the computation graph: nodes in topological order plus the
// value metadata needed to type every edge.
type GraphProto struct {
	Name         string
	Nodes        []NodeProto
	Inputs       []ValueInfoProto
	Outputs      []ValueInfoProto
	Initializers []TensorProto
	ValueInfo    []ValueInfoProto
	DocString    string
}

// NodeProto is a single operation node.
type NodeProto struct {
	Name       string
	OpType     string
	Domain     string
	Inputs     []string
	Outputs    []string
	Attributes []AttributeProto
	DocString  string
}

// TensorProto carries a constant tensor (initializer). Data lives either in
// RawData or in one of the legacy typed fields, never both.
type TensorProto struct {
	Name         string
	DataType     int32
	Dims         []int64
	RawData      []byte
	FloatData    []float32
	Int32Data    []int32
	Int64Data    []int64
	DoubleData   []float64
	Uint64Data   []uint64
	ExternalData []StringStringEntry
	DataLocation int32
	DocString    string
}

// ValueInfoProto names and types one graph edge.
type ValueInfoProto struct {
	Name      string
	Type      *TypeProto
	DocString string
}

// TypeProto wraps the tensor type variant. Sequence/map types are not modeled.
type TypeProto struct {
	TensorType *TensorTypeProto
}

// TensorTypeProto is the element type and shape of a tensor-typed value.
type TensorTypeProto struct {
	ElemType int32
	Shape    *TensorShapeProto
}

// TensorShapeProto is an ordered dimension list.
type TensorShapeProto struct {
	Dims []DimensionProto
}

// DimensionProto is one dimension: a static value or a symbolic name.
type DimensionProto struct {
	DimValue int64
	DimParam string
}

// AttributeProto is a named node attribute.
type AttributeProto struct {
	Name      string
	Type      int32
	F         float32
	I         int64
	S         []byte
	T         *TensorProto
	Floats    []float32
	Ints      []int64
	Strings   [][]byte
	DocString string
}

// OperatorSetID pins an operator-set version for a domain.
type OperatorSetID struct {
	Domain  string
	Version int64
}

// StringStringEntry is a key/value metadata pair.
type StringStringEntry struct {
	Key   string
	Value string
}

// TensorProto.DataType values (subset of the ONNX enum).
const (
	TensorProtoUndefined = 0
	TensorProtoFloat     = 1
	TensorProtoUint8     = 2
	TensorProtoInt8      = 3
	TensorProtoUint16    = 4
	TensorProtoInt16     = 5
	TensorProtoInt32     = 6
	TensorProtoInt64     = 7
	TensorProtoString    = 8
	TensorProtoBool      = 9
	TensorProtoFloat16   = 10
	TensorProtoDouble    = 11
	TensorProtoUint32    = 12
	TensorProtoUint64    = 13
	TensorProtoBfloat16  = 16
)

// AttributeProto.Type values.
const (
	AttributeProtoUndefined = 0
	AttributeProtoFloat     = 1
	AttributeProtoInt       = 2
	AttributeProtoString    = 3
	AttributeProtoTensor    = 4
	AttributeProtoGraph     = 5
	AttributeProtoFloats    = 6
	AttributeProtoInts      = 7
	AttributeProtoStrings   = 8
)

// TensorProto.DataLocation values.
const (
	DataLocationDefault  = 0
	DataLocationExternal = 1
)

// DataTypeName returns the ONNX enum label for a TensorProto data type,
// for error messages.
func DataTypeName(dt int32) string {
	switch dt {
	case TensorProtoFloat:
		return "FLOAT"
	case TensorProtoUint8:
		return "UINT8"
	case TensorProtoInt8:
		return "INT8"
	case TensorProtoUint16:
		return "UINT16"
	case TensorProtoInt16:
		return "INT16"
	case TensorProtoInt32:
		return "INT32"
	case TensorProtoInt64:
		return "INT64"
	case TensorProtoString:
		return "STRING"
	case TensorProtoBool:
		return "BOOL"
	case TensorProtoFloat16:
		return "FLOAT16"
	case TensorProtoDouble:
		return "DOUBLE"
	case TensorProtoUint32:
		return "UINT32"
	case TensorProtoUint64:
		return "UINT64"
	case TensorProtoBfloat16:
		return "BFLOAT16"
	default:
		return "UNDEFINED"
	}
}
