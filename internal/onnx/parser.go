package onnx

import (
	"fmt"
	"math"
	"os"

	"google.golang.org/protobuf/encoding/protowire"
)

// ParseFile reads and parses an ONNX model file.
func ParseFile(path string) (*ModelProto, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ONNX file: %w", err)
	}
	return Parse(data)
}

// Parse decodes an ONNX model from its serialized protobuf form.
func Parse(data []byte) (*ModelProto, error) {
	model := &ModelProto{}
	if err := unmarshalModel(data, model); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ONNX protobuf: %w", err)
	}
	return model, nil
}

func unmarshalModel(b []byte, m *ModelProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readVarint(b, &m.IRVersion)
		case 2:
			return readString(b, &m.ProducerName)
		case 3:
			return readString(b, &m.ProducerVersion)
		case 4:
			return readString(b, &m.Domain)
		case 5:
			return readVarint(b, &m.ModelVersion)
		case 6:
			return readString(b, &m.DocString)
		case 7:
			m.Graph = &GraphProto{}
			return readMessage(b, m.Graph, unmarshalGraph)
		case 8:
			var opset OperatorSetID
			n, err := readMessage(b, &opset, unmarshalOpsetID)
			if err == nil {
				m.OpsetImport = append(m.OpsetImport, opset)
			}
			return n, err
		case 14:
			var entry StringStringEntry
			n, err := readMessage(b, &entry, unmarshalStringString)
			if err == nil {
				m.MetadataProps = append(m.MetadataProps, entry)
			}
			return n, err
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalGraph(b []byte, g *GraphProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var node NodeProto
			n, err := readMessage(b, &node, unmarshalNode)
			if err == nil {
				g.Nodes = append(g.Nodes, node)
			}
			return n, err
		case 2:
			return readString(b, &g.Name)
		case 5:
			var tensor TensorProto
			n, err := readMessage(b, &tensor, unmarshalTensor)
			if err == nil {
				g.Initializers = append(g.Initializers, tensor)
			}
			return n, err
		case 10:
			return readString(b, &g.DocString)
		case 11:
			var info ValueInfoProto
			n, err := readMessage(b, &info, unmarshalValueInfo)
			if err == nil {
				g.Inputs = append(g.Inputs, info)
			}
			return n, err
		case 12:
			var info ValueInfoProto
			n, err := readMessage(b, &info, unmarshalValueInfo)
			if err == nil {
				g.Outputs = append(g.Outputs, info)
			}
			return n, err
		case 13:
			var info ValueInfoProto
			n, err := readMessage(b, &info, unmarshalValueInfo)
			if err == nil {
				g.ValueInfo = append(g.ValueInfo, info)
			}
			return n, err
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalNode(b []byte, nd *NodeProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var s string
			n, err := readString(b, &s)
			if err == nil {
				nd.Inputs = append(nd.Inputs, s)
			}
			return n, err
		case 2:
			var s string
			n, err := readString(b, &s)
			if err == nil {
				nd.Outputs = append(nd.Outputs, s)
			}
			return n, err
		case 3:
			return readString(b, &nd.Name)
		case 4:
			return readString(b, &nd.OpType)
		case 5:
			var attr AttributeProto
			n, err := readMessage(b, &attr, unmarshalAttribute)
			if err == nil {
				nd.Attributes = append(nd.Attributes, attr)
			}
			return n, err
		case 6:
			return readString(b, &nd.DocString)
		case 7:
			return readString(b, &nd.Domain)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalTensor(b []byte, t *TensorProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readRepeatedVarint(b, typ, &t.Dims, func(v uint64) int64 { return int64(v) })
		case 2:
			var dt int64
			n, err := readVarint(b, &dt)
			t.DataType = int32(dt)
			return n, err
		case 4:
			return readRepeatedFixed32(b, typ, &t.FloatData)
		case 5:
			return readRepeatedVarint(b, typ, &t.Int32Data, func(v uint64) int32 { return int32(v) })
		case 7:
			return readRepeatedVarint(b, typ, &t.Int64Data, func(v uint64) int64 { return int64(v) })
		case 8:
			return readString(b, &t.Name)
		case 9:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowire.ParseError(n)
			}
			t.RawData = append([]byte(nil), v...)
			return n, nil
		case 10:
			return readRepeatedFixed64(b, typ, &t.DoubleData)
		case 11:
			return readRepeatedVarint(b, typ, &t.Uint64Data, func(v uint64) uint64 { return v })
		case 12:
			return readString(b, &t.DocString)
		case 13:
			var entry StringStringEntry
			n, err := readMessage(b, &entry, unmarshalStringString)
			if err == nil {
				t.ExternalData = append(t.ExternalData, entry)
			}
			return n, err
		case 14:
			var loc int64
			n, err := readVarint(b, &loc)
			t.DataLocation = int32(loc)
			return n, err
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalValueInfo(b []byte, v *ValueInfoProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readString(b, &v.Name)
		case 2:
			v.Type = &TypeProto{}
			return readMessage(b, v.Type, unmarshalType)
		case 3:
			return readString(b, &v.DocString)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalType(b []byte, t *TypeProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			t.TensorType = &TensorTypeProto{}
			return readMessage(b, t.TensorType, unmarshalTensorType)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalTensorType(b []byte, t *TensorTypeProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var et int64
			n, err := readVarint(b, &et)
			t.ElemType = int32(et)
			return n, err
		case 2:
			t.Shape = &TensorShapeProto{}
			return readMessage(b, t.Shape, unmarshalShape)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalShape(b []byte, s *TensorShapeProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			var dim DimensionProto
			n, err := readMessage(b, &dim, unmarshalDim)
			if err == nil {
				s.Dims = append(s.Dims, dim)
			}
			return n, err
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalDim(b []byte, d *DimensionProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readVarint(b, &d.DimValue)
		case 2:
			return readString(b, &d.DimParam)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalAttribute(b []byte, a *AttributeProto) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readString(b, &a.Name)
		case 2:
			v, n := protowire.ConsumeFixed32(b)
			if n < 0 {
				return n, protowire.ParseError(n)
			}
			a.F = math.Float32frombits(v)
			return n, nil
		case 3:
			return readVarint(b, &a.I)
		case 4:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowire.ParseError(n)
			}
			a.S = append([]byte(nil), v...)
			return n, nil
		case 5:
			a.T = &TensorProto{}
			return readMessage(b, a.T, unmarshalTensor)
		case 7:
			return readRepeatedFixed32(b, typ, &a.Floats)
		case 8:
			return readRepeatedVarint(b, typ, &a.Ints, func(v uint64) int64 { return int64(v) })
		case 9:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, protowire.ParseError(n)
			}
			a.Strings = append(a.Strings, append([]byte(nil), v...))
			return n, nil
		case 13:
			return readString(b, &a.DocString)
		case 20:
			var at int64
			n, err := readVarint(b, &at)
			a.Type = int32(at)
			return n, err
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalOpsetID(b []byte, o *OperatorSetID) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readString(b, &o.Domain)
		case 2:
			return readVarint(b, &o.Version)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

func unmarshalStringString(b []byte, e *StringStringEntry) error {
	return eachField(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return readString(b, &e.Key)
		case 2:
			return readString(b, &e.Value)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

// eachField walks the wire-encoded fields of one message, delegating the
// value bytes of each field to fn. fn returns the number of value bytes it
// consumed.
func eachField(b []byte, fn func(num protowire.Number, typ protowire.Type, b []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		n, err := fn(num, typ, b)
		if err != nil {
			return fmt.Errorf("field %d: %w", num, err)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

func readVarint(b []byte, dst *int64) (int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	*dst = int64(v)
	return n, nil
}

func readString(b []byte, dst *string) (int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	*dst = string(v)
	return n, nil
}

func readMessage[T any](b []byte, dst *T, unmarshal func([]byte, *T) error) (int, error) {
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	return n, unmarshal(v, dst)
}

// readRepeatedVarint handles a repeated varint field in both packed and
// unpacked encodings.
func readRepeatedVarint[T any](b []byte, typ protowire.Type, dst *[]T, conv func(uint64) T) (int, error) {
	if typ == protowire.VarintType {
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return n, protowire.ParseError(n)
		}
		*dst = append(*dst, conv(v))
		return n, nil
	}
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	for len(packed) > 0 {
		v, m := protowire.ConsumeVarint(packed)
		if m < 0 {
			return n, protowire.ParseError(m)
		}
		*dst = append(*dst, conv(v))
		packed = packed[m:]
	}
	return n, nil
}

func readRepeatedFixed32(b []byte, typ protowire.Type, dst *[]float32) (int, error) {
	if typ == protowire.Fixed32Type {
		v, n := protowire.ConsumeFixed32(b)
		if n < 0 {
			return n, protowire.ParseError(n)
		}
		*dst = append(*dst, math.Float32frombits(v))
		return n, nil
	}
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	for len(packed) >= 4 {
		v, m := protowire.ConsumeFixed32(packed)
		if m < 0 {
			return n, protowire.ParseError(m)
		}
		*dst = append(*dst, math.Float32frombits(v))
		packed = packed[m:]
	}
	return n, nil
}

func readRepeatedFixed64(b []byte, typ protowire.Type, dst *[]float64) (int, error) {
	if typ == protowire.Fixed64Type {
		v, n := protowire.ConsumeFixed64(b)
		if n < 0 {
			return n, protowire.ParseError(n)
		}
		*dst = append(*dst, math.Float64frombits(v))
		return n, nil
	}
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n, protowire.ParseError(n)
	}
	for len(packed) >= 8 {
		v, m := protowire.ConsumeFixed64(packed)
		if m < 0 {
			return n, protowire.ParseError(m)
		}
		*dst = append(*dst, math.Float64frombits(v))
		packed = packed[m:]
	}
	return n, nil
}
