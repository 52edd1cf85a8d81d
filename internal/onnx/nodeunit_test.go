package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatValueInfo(name string, dims ...int64) ValueInfoProto {
	return typedValueInfo(name, TensorProtoFloat, dims...)
}

func typedValueInfo(name string, elemType int32, dims ...int64) ValueInfoProto {
	protoDims := make([]DimensionProto, len(dims))
	for i, d := range dims {
		protoDims[i] = DimensionProto{DimValue: d}
	}
	return ValueInfoProto{
		Name: name,
		Type: &TypeProto{TensorType: &TensorTypeProto{
			ElemType: elemType,
			Shape:    &TensorShapeProto{Dims: protoDims},
		}},
	}
}

func TestBuildNodeUnitsStandalone(t *testing.T) {
	g := &GraphProto{
		Name: "g",
		Nodes: []NodeProto{
			{Name: "add0", OpType: "Add", Inputs: []string{"a", "b"}, Outputs: []string{"c"}},
			{Name: "relu0", OpType: "Relu", Inputs: []string{"c"}, Outputs: []string{"d"}},
		},
		Inputs:  []ValueInfoProto{floatValueInfo("a", 2, 3), floatValueInfo("b", 2, 3)},
		Outputs: []ValueInfoProto{floatValueInfo("d", 2, 3)},
		ValueInfo: []ValueInfoProto{
			floatValueInfo("c", 2, 3),
		},
	}
	info := NewGraphInfo(g)

	units, err := BuildNodeUnits(info)
	require.NoError(t, err)
	require.Len(t, units, 2)

	add := units[0]
	assert.Equal(t, "add0", add.Name())
	assert.Equal(t, "Add", add.OpType())
	require.Len(t, add.Inputs(), 2)
	assert.Equal(t, "a", add.Inputs()[0].Name)
	assert.True(t, add.Inputs()[0].ShapeKnown)
	assert.Equal(t, []uint32{2, 3}, add.Inputs()[0].Shape)
	assert.False(t, add.Quantized())

	relu := units[1]
	assert.Equal(t, "Relu", relu.OpType())
	require.Len(t, relu.Outputs(), 1)
	assert.Equal(t, "d", relu.Outputs()[0].Name)
}

func TestBuildNodeUnitsQDQFusion(t *testing.T) {
	g := &GraphProto{
		Name: "g",
		Nodes: []NodeProto{
			{Name: "dq0", OpType: "DequantizeLinear", Inputs: []string{"xq", "scale", "zp"}, Outputs: []string{"x_dq"}},
			{Name: "relu0", OpType: "Relu", Inputs: []string{"x_dq"}, Outputs: []string{"y_raw"}},
			{Name: "q0", OpType: "QuantizeLinear", Inputs: []string{"y_raw", "scale", "zp"}, Outputs: []string{"yq"}},
		},
		Inputs:  []ValueInfoProto{typedValueInfo("xq", TensorProtoUint8, 1, 4)},
		Outputs: []ValueInfoProto{typedValueInfo("yq", TensorProtoUint8, 1, 4)},
		ValueInfo: []ValueInfoProto{
			floatValueInfo("x_dq", 1, 4),
			floatValueInfo("y_raw", 1, 4),
		},
		Initializers: []TensorProto{
			{Name: "scale", DataType: TensorProtoFloat, FloatData: []float32{0.1}},
			{Name: "zp", DataType: TensorProtoUint8, Int32Data: []int32{3}},
		},
	}
	info := NewGraphInfo(g)

	units, err := BuildNodeUnits(info)
	require.NoError(t, err)
	require.Len(t, units, 1, "the DQ/Relu/Q cluster should fold into one unit")

	unit := units[0]
	assert.Equal(t, "Relu", unit.OpType())
	assert.Len(t, unit.Nodes(), 3)
	assert.True(t, unit.Quantized())

	require.Len(t, unit.Inputs(), 1)
	in := unit.Inputs()[0]
	assert.Equal(t, "xq", in.Name, "fused units read the quantized tensor, not the dequantized edge")
	require.NotNil(t, in.Quant)
	assert.InDelta(t, 0.1, in.Quant.Scale, 1e-6)
	assert.Equal(t, int32(3), in.Quant.ZeroPoint)
	assert.False(t, in.Quant.PerAxis())

	require.Len(t, unit.Outputs(), 1)
	out := unit.Outputs()[0]
	assert.Equal(t, "yq", out.Name)
	require.NotNil(t, out.Quant)
}

func TestBuildNodeUnitsCoverEachNodeOnce(t *testing.T) {
	// The fused cluster is followed by a standalone consumer; the satellite
	// Quantize/Dequantize nodes must not surface as units of their own.
	g := &GraphProto{
		Name: "g",
		Nodes: []NodeProto{
			{Name: "dq0", OpType: "DequantizeLinear", Inputs: []string{"xq", "scale", "zp"}, Outputs: []string{"x_dq"}},
			{Name: "relu0", OpType: "Relu", Inputs: []string{"x_dq"}, Outputs: []string{"y_raw"}},
			{Name: "q0", OpType: "QuantizeLinear", Inputs: []string{"y_raw", "scale", "zp"}, Outputs: []string{"yq"}},
			{Name: "id0", OpType: "Identity", Inputs: []string{"yq"}, Outputs: []string{"y"}},
		},
		Inputs:  []ValueInfoProto{typedValueInfo("xq", TensorProtoUint8, 1, 4)},
		Outputs: []ValueInfoProto{typedValueInfo("y", TensorProtoUint8, 1, 4)},
		ValueInfo: []ValueInfoProto{
			floatValueInfo("x_dq", 1, 4),
			floatValueInfo("y_raw", 1, 4),
			typedValueInfo("yq", TensorProtoUint8, 1, 4),
		},
		Initializers: []TensorProto{
			{Name: "scale", DataType: TensorProtoFloat, FloatData: []float32{0.1}},
			{Name: "zp", DataType: TensorProtoUint8, Int32Data: []int32{3}},
		},
	}
	info := NewGraphInfo(g)

	units, err := BuildNodeUnits(info)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "Relu", units[0].OpType())
	assert.Equal(t, "Identity", units[1].OpType())

	seen := make(map[*NodeProto]int)
	for _, u := range units {
		for _, n := range u.Nodes() {
			seen[n]++
		}
	}
	require.Len(t, seen, len(g.Nodes))
	for n, count := range seen {
		assert.Equal(t, 1, count, "node %s grouped %d times", n.Name, count)
	}
}

func TestBuildNodeUnitsNoFusionWithoutQuantizeConsumer(t *testing.T) {
	// Relu's output leaves the graph unquantized, so nothing can fold.
	g := &GraphProto{
		Name: "g",
		Nodes: []NodeProto{
			{Name: "dq0", OpType: "DequantizeLinear", Inputs: []string{"xq", "scale"}, Outputs: []string{"x_dq"}},
			{Name: "relu0", OpType: "Relu", Inputs: []string{"x_dq"}, Outputs: []string{"y"}},
		},
		Inputs:  []ValueInfoProto{typedValueInfo("xq", TensorProtoUint8, 4)},
		Outputs: []ValueInfoProto{floatValueInfo("y", 4)},
		ValueInfo: []ValueInfoProto{
			floatValueInfo("x_dq", 4),
		},
		Initializers: []TensorProto{
			{Name: "scale", DataType: TensorProtoFloat, FloatData: []float32{0.5}},
		},
	}
	info := NewGraphInfo(g)

	units, err := BuildNodeUnits(info)
	require.NoError(t, err)
	assert.Len(t, units, 2)
	assert.Equal(t, "DequantizeLinear", units[0].OpType())
	assert.Equal(t, "Relu", units[1].OpType())
}

func TestQuantParamsRejectZeroPointCountMismatch(t *testing.T) {
	g := &GraphProto{
		Name: "g",
		Initializers: []TensorProto{
			{Name: "scales", DataType: TensorProtoFloat, FloatData: []float32{0.1, 0.2}},
			{Name: "zp", DataType: TensorProtoUint8, Int32Data: []int32{3}},
		},
	}
	info := NewGraphInfo(g)
	dq := &NodeProto{Name: "dq0", OpType: "DequantizeLinear", Inputs: []string{"xq", "scales", "zp"}, Outputs: []string{"x"}}

	_, err := quantParamsOf(info, dq)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 zero points for 2 scales")
}

func TestGraphInfoSynthesizesInitializerValueInfo(t *testing.T) {
	g := &GraphProto{
		Name: "g",
		Initializers: []TensorProto{
			{Name: "w", DataType: TensorProtoFloat, Dims: []int64{4, 2}, FloatData: []float32{0, 1, 2, 3, 4, 5, 6, 7}},
		},
	}
	info := NewGraphInfo(g)

	assert.True(t, info.IsInitializer("w"))
	io := info.resolveIO("w")
	assert.Equal(t, int32(TensorProtoFloat), io.ElemType)
	assert.True(t, io.ShapeKnown)
	assert.Equal(t, []uint32{4, 2}, io.Shape)
	require.NotNil(t, io.Initializer)
}
