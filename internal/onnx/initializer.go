package onnx

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ShapeOf extracts the static dimensions of a tensor-typed value. Symbolic
// (named) dimensions have no static value and make the shape unresolvable.
func ShapeOf(info *ValueInfoProto) ([]uint32, error) {
	if info == nil || info.Type == nil || info.Type.TensorType == nil {
		return nil, fmt.Errorf("value has no tensor type information")
	}
	shape := info.Type.TensorType.Shape
	if shape == nil {
		return []uint32{}, nil
	}
	dims := make([]uint32, len(shape.Dims))
	for i, d := range shape.Dims {
		if d.DimParam != "" {
			return nil, fmt.Errorf("dimension %d of %q is symbolic (%s)", i, info.Name, d.DimParam)
		}
		if d.DimValue < 0 {
			return nil, fmt.Errorf("dimension %d of %q is negative", i, info.Name)
		}
		dims[i] = uint32(d.DimValue)
	}
	return dims, nil
}

// ElemTypeOf extracts the element type of a tensor-typed value.
func ElemTypeOf(info *ValueInfoProto) (int32, error) {
	if info == nil || info.Type == nil || info.Type.TensorType == nil {
		return TensorProtoUndefined, fmt.Errorf("value has no tensor type information")
	}
	return info.Type.TensorType.ElemType, nil
}

// NumElements returns the element count implied by dims; zero for an empty
// dimension list.
func NumElements(dims []int64) int64 {
	if len(dims) == 0 {
		return 0
	}
	n := int64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// UnpackInitializer copies an initializer's payload into a freshly owned byte
// slice, little-endian, normalizing the legacy typed storage fields into the
// raw layout. The returned slice never aliases the proto.
func UnpackInitializer(t *TensorProto) ([]byte, error) {
	if t.DataLocation == DataLocationExternal || len(t.ExternalData) > 0 {
		return nil, fmt.Errorf("initializer %q uses external data, which is not supported here", t.Name)
	}
	if len(t.RawData) > 0 {
		return append([]byte(nil), t.RawData...), nil
	}

	switch t.DataType {
	case TensorProtoFloat:
		out := make([]byte, 4*len(t.FloatData))
		for i, v := range t.FloatData {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
		}
		return out, nil
	case TensorProtoDouble:
		out := make([]byte, 8*len(t.DoubleData))
		for i, v := range t.DoubleData {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
		}
		return out, nil
	case TensorProtoInt64:
		out := make([]byte, 8*len(t.Int64Data))
		for i, v := range t.Int64Data {
			binary.LittleEndian.PutUint64(out[i*8:], uint64(v))
		}
		return out, nil
	case TensorProtoUint64:
		out := make([]byte, 8*len(t.Uint64Data))
		for i, v := range t.Uint64Data {
			binary.LittleEndian.PutUint64(out[i*8:], v)
		}
		return out, nil
	case TensorProtoInt32:
		out := make([]byte, 4*len(t.Int32Data))
		for i, v := range t.Int32Data {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
		return out, nil
	case TensorProtoUint32:
		// Legacy uint32 data rides in uint64_data.
		out := make([]byte, 4*len(t.Uint64Data))
		for i, v := range t.Uint64Data {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(v))
		}
		return out, nil
	case TensorProtoInt16, TensorProtoUint16, TensorProtoFloat16, TensorProtoBfloat16:
		// 16-bit payloads ride in int32_data, one element per entry.
		out := make([]byte, 2*len(t.Int32Data))
		for i, v := range t.Int32Data {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
		}
		return out, nil
	case TensorProtoInt8, TensorProtoUint8, TensorProtoBool:
		out := make([]byte, len(t.Int32Data))
		for i, v := range t.Int32Data {
			out[i] = byte(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("initializer %q has unsupported data type %s", t.Name, DataTypeName(t.DataType))
	}
}

// Int64Values reads an integer initializer as int64 values, covering both
// legacy typed fields and raw storage.
func Int64Values(t *TensorProto) ([]int64, error) {
	switch t.DataType {
	case TensorProtoInt64:
		if len(t.Int64Data) > 0 {
			return append([]int64(nil), t.Int64Data...), nil
		}
		if len(t.RawData)%8 != 0 {
			return nil, fmt.Errorf("initializer %q raw data length %d is not a multiple of 8", t.Name, len(t.RawData))
		}
		out := make([]int64, len(t.RawData)/8)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(t.RawData[i*8:]))
		}
		return out, nil
	case TensorProtoInt32:
		if len(t.Int32Data) > 0 {
			out := make([]int64, len(t.Int32Data))
			for i, v := range t.Int32Data {
				out[i] = int64(v)
			}
			return out, nil
		}
		if len(t.RawData)%4 != 0 {
			return nil, fmt.Errorf("initializer %q raw data length %d is not a multiple of 4", t.Name, len(t.RawData))
		}
		out := make([]int64, len(t.RawData)/4)
		for i := range out {
			out[i] = int64(int32(binary.LittleEndian.Uint32(t.RawData[i*4:])))
		}
		return out, nil
	case TensorProtoInt8:
		if len(t.Int32Data) > 0 {
			out := make([]int64, len(t.Int32Data))
			for i, v := range t.Int32Data {
				out[i] = int64(v)
			}
			return out, nil
		}
		out := make([]int64, len(t.RawData))
		for i, v := range t.RawData {
			out[i] = int64(int8(v))
		}
		return out, nil
	case TensorProtoUint8:
		if len(t.Int32Data) > 0 {
			out := make([]int64, len(t.Int32Data))
			for i, v := range t.Int32Data {
				out[i] = int64(v)
			}
			return out, nil
		}
		out := make([]int64, len(t.RawData))
		for i, v := range t.RawData {
			out[i] = int64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("initializer %q is not integer typed (%s)", t.Name, DataTypeName(t.DataType))
	}
}

// Float32Values reads a float initializer as float32 values.
func Float32Values(t *TensorProto) ([]float32, error) {
	if t.DataType != TensorProtoFloat {
		return nil, fmt.Errorf("initializer %q is not FLOAT typed (%s)", t.Name, DataTypeName(t.DataType))
	}
	if len(t.FloatData) > 0 {
		return append([]float32(nil), t.FloatData...), nil
	}
	if len(t.RawData)%4 != 0 {
		return nil, fmt.Errorf("initializer %q raw data length %d is not a multiple of 4", t.Name, len(t.RawData))
	}
	out := make([]float32, len(t.RawData)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(t.RawData[i*4:]))
	}
	return out, nil
}
