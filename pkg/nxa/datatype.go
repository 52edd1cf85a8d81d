// Package nxa models the NXA accelerator's graph-construction surface: the
// element-type space, tensor/operator descriptors, and the graph builder that
// accumulates a lowered subgraph before it is handed to the device runtime.
package nxa

// DataType is an NXA element type.
type DataType uint32

const (
	DataTypeUndefined DataType = iota
	DataTypeInt8
	DataTypeInt16
	DataTypeInt32
	DataTypeInt64
	DataTypeUint8
	DataTypeUint16
	DataTypeUint32
	DataTypeUint64
	DataTypeFloat16
	DataTypeFloat32
	DataTypeBool8
	DataTypeSFixed8
	DataTypeSFixed16
	DataTypeSFixed32
	DataTypeUFixed8
	DataTypeUFixed16
	DataTypeUFixed32
)

// onnxToPlain maps ONNX element types onto NXA types for float-path tensors.
var onnxToPlain = map[int32]DataType{
	3:  DataTypeInt8,   // INT8
	5:  DataTypeInt16,  // INT16
	6:  DataTypeInt32,  // INT32
	7:  DataTypeInt64,  // INT64
	2:  DataTypeUint8,  // UINT8
	4:  DataTypeUint16, // UINT16
	12: DataTypeUint32, // UINT32
	13: DataTypeUint64, // UINT64
	10: DataTypeFloat16,
	1:  DataTypeFloat32,
	9:  DataTypeBool8,
}

// onnxToQuantized maps ONNX element types onto NXA types for quantized
// tensors. Sub-64-bit integers become fixed-point types; everything else maps
// as in the plain table.
var onnxToQuantized = map[int32]DataType{
	3:  DataTypeSFixed8,
	5:  DataTypeSFixed16,
	6:  DataTypeSFixed32,
	7:  DataTypeInt64,
	2:  DataTypeUFixed8,
	4:  DataTypeUFixed16,
	12: DataTypeUFixed32,
	13: DataTypeUint64,
	10: DataTypeFloat16,
	1:  DataTypeFloat32,
	9:  DataTypeBool8,
}

// MapElementType translates an ONNX element type into the NXA type space.
// The quantized flag alone selects between the two tables; a miss is an
// unsupported-type build failure, never a silent default.
func MapElementType(onnxType int32, quantized bool) (DataType, error) {
	table := onnxToPlain
	if quantized {
		table = onnxToQuantized
	}
	dt, ok := table[onnxType]
	if !ok {
		return DataTypeUndefined, Errorf(KindUnsupportedType, "ONNX data type %d is not supported by NXA (quantized=%v)", onnxType, quantized)
	}
	return dt, nil
}

var elementSizes = map[DataType]int{
	DataTypeInt8:     1,
	DataTypeInt16:    2,
	DataTypeInt32:    4,
	DataTypeInt64:    8,
	DataTypeUint8:    1,
	DataTypeUint16:   2,
	DataTypeUint32:   4,
	DataTypeUint64:   8,
	DataTypeFloat16:  2,
	DataTypeFloat32:  4,
	DataTypeBool8:    1,
	DataTypeSFixed8:  1,
	DataTypeSFixed16: 2,
	DataTypeSFixed32: 4,
	DataTypeUFixed8:  1,
	DataTypeUFixed16: 2,
	DataTypeUFixed32: 4,
}

// ElementSize returns the byte width of an NXA element type, or 0 when the
// type is unknown. Callers must treat 0 as "unknown", not as zero-size.
func ElementSize(dt DataType) int {
	return elementSizes[dt]
}

// NumElements multiplies out a dimension list; an empty list counts as zero.
func NumElements(dims []uint32) int64 {
	if len(dims) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range dims {
		n *= int64(d)
	}
	return n
}
