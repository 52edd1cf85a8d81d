package provider

import (
	"testing"

	"github.com/onnpu/onnpu/internal/onnx"
	"github.com/onnpu/onnpu/pkg/nxa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueInfo(name string, elemType int32, dims ...int64) onnx.ValueInfoProto {
	protoDims := make([]onnx.DimensionProto, len(dims))
	for i, d := range dims {
		protoDims[i] = onnx.DimensionProto{DimValue: d}
	}
	return onnx.ValueInfoProto{
		Name: name,
		Type: &onnx.TypeProto{TensorType: &onnx.TensorTypeProto{
			ElemType: elemType,
			Shape:    &onnx.TensorShapeProto{Dims: protoDims},
		}},
	}
}

// splitGraph has a supported MatMul on each side of an op no builder handles,
// so capability query must produce two partitions.
func splitGraph() *onnx.GraphProto {
	return &onnx.GraphProto{
		Name: "split",
		Nodes: []onnx.NodeProto{
			{Name: "mm0", OpType: "MatMul", Inputs: []string{"x", "w"}, Outputs: []string{"t1"}},
			{Name: "floor0", OpType: "Floor", Inputs: []string{"t1"}, Outputs: []string{"t2"}},
			{Name: "mm1", OpType: "MatMul", Inputs: []string{"t2", "w"}, Outputs: []string{"y"}},
		},
		Inputs:  []onnx.ValueInfoProto{valueInfo("x", onnx.TensorProtoFloat, 2, 2)},
		Outputs: []onnx.ValueInfoProto{valueInfo("y", onnx.TensorProtoFloat, 2, 2)},
		ValueInfo: []onnx.ValueInfoProto{
			valueInfo("t1", onnx.TensorProtoFloat, 2, 2),
			valueInfo("t2", onnx.TensorProtoFloat, 2, 2),
		},
		Initializers: []onnx.TensorProto{
			{Name: "w", DataType: onnx.TensorProtoFloat, Dims: []int64{2, 2}, FloatData: []float32{1, 2, 3, 4}},
		},
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(map[string]string{
		"backend_path":    "/opt/nxa/libnxa.so",
		"profiling_level": "detailed",
	})
	require.NoError(t, err)
	assert.Equal(t, "/opt/nxa/libnxa.so", opts.BackendPath)
	assert.Equal(t, ProfilingDetailed, opts.ProfilingLevel)

	_, err = ParseOptions(map[string]string{"profiling_level": "verbose"})
	assert.Error(t, err)

	_, err = ParseOptions(map[string]string{"backend_pathh": "x"})
	assert.Error(t, err)
}

func TestGetCapabilitySplitsOnUnsupportedNode(t *testing.T) {
	p := New(Options{}, nil)
	info := onnx.NewGraphInfo(splitGraph())

	groups, err := p.GetCapability(info)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0].Units, 1)
	assert.Equal(t, "mm0", groups[0].Units[0].Name())
	assert.Len(t, groups[1].Units, 1)
	assert.Equal(t, "mm1", groups[1].Units[0].Name())
}

func TestGetCapabilityIsIdempotent(t *testing.T) {
	p := New(Options{}, nil)
	info := onnx.NewGraphInfo(splitGraph())

	first, err := p.GetCapability(info)
	require.NoError(t, err)
	second, err := p.GetCapability(info)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Len(t, second[i].Units, len(first[i].Units))
	}
}

// Every group the capability query accepts must compile; the two phases run
// the identical pipeline, diverging only at the accumulator append.
func TestCapabilityCompileConsistency(t *testing.T) {
	p := New(Options{}, nil)
	info := onnx.NewGraphInfo(splitGraph())

	groups, err := p.GetCapability(info)
	require.NoError(t, err)

	models, err := p.Compile(info, groups)
	require.NoError(t, err)
	require.Len(t, models, len(groups))

	for i, m := range models {
		assert.Equal(t, groups[i].Name, m.Name())
		assert.Same(t, m, p.Compiled(groups[i].Name))
		assert.Equal(t, 1, len(m.Graph().Operators))
	}

	// mm0's result feeds a node outside its partition, so it surfaces as an
	// external output even though it is not a model output.
	assert.Equal(t, []string{"t1"}, models[0].OutputNames())
	assert.Equal(t, []string{"y"}, models[1].OutputNames())
	assert.Equal(t, []string{"x"}, models[0].InputNames())
	assert.Equal(t, []string{"t2"}, models[1].InputNames())
}

// Both partitions load the initializer "w"; each compiled graph must own its
// payload outright.
func TestCompiledPartitionsShareNoConstantBuffers(t *testing.T) {
	p := New(Options{}, nil)
	info := onnx.NewGraphInfo(splitGraph())

	groups, err := p.GetCapability(info)
	require.NoError(t, err)
	models, err := p.Compile(info, groups)
	require.NoError(t, err)
	require.Len(t, models, 2)

	w0 := models[0].Graph().Tensor("w")
	w1 := models[1].Graph().Tensor("w")
	require.NotNil(t, w0)
	require.NotNil(t, w1)
	require.Equal(t, w0.Data, w1.Data)

	w0.Data[0] ^= 0xff
	assert.NotEqual(t, w0.Data[0], w1.Data[0], "constant payloads must not alias across partitions")
}

func TestComputeRequiresInputsAndDevice(t *testing.T) {
	p := New(Options{}, nil)
	info := onnx.NewGraphInfo(splitGraph())

	groups, err := p.GetCapability(info)
	require.NoError(t, err)
	models, err := p.Compile(info, groups)
	require.NoError(t, err)

	m := models[0]
	err = m.Compute(map[string][]byte{}, map[string][]byte{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing input buffer")

	err = m.Compute(map[string][]byte{"x": make([]byte, 16)}, map[string][]byte{"t1": make([]byte, 16)})
	assert.ErrorIs(t, err, nxa.ErrNoDevice, "the software runtime refuses execution")
}

// qdqGraph wraps one Relu in a DequantizeLinear/QuantizeLinear pair sharing
// a per-tensor scale and zero point.
func qdqGraph() *onnx.GraphProto {
	return &onnx.GraphProto{
		Name: "qdq",
		Nodes: []onnx.NodeProto{
			{Name: "dq0", OpType: "DequantizeLinear", Inputs: []string{"xq", "scale", "zp"}, Outputs: []string{"x_dq"}},
			{Name: "relu0", OpType: "Relu", Inputs: []string{"x_dq"}, Outputs: []string{"y_raw"}},
			{Name: "q0", OpType: "QuantizeLinear", Inputs: []string{"y_raw", "scale", "zp"}, Outputs: []string{"yq"}},
		},
		Inputs:  []onnx.ValueInfoProto{valueInfo("xq", onnx.TensorProtoUint8, 1, 4)},
		Outputs: []onnx.ValueInfoProto{valueInfo("yq", onnx.TensorProtoUint8, 1, 4)},
		ValueInfo: []onnx.ValueInfoProto{
			valueInfo("x_dq", onnx.TensorProtoFloat, 1, 4),
			valueInfo("y_raw", onnx.TensorProtoFloat, 1, 4),
		},
		Initializers: []onnx.TensorProto{
			{Name: "scale", DataType: onnx.TensorProtoFloat, FloatData: []float32{0.1}},
			{Name: "zp", DataType: onnx.TensorProtoUint8, Int32Data: []int32{3}},
		},
	}
}

func TestQDQGraphCompilesToOneFixedPointPartition(t *testing.T) {
	p := New(Options{}, nil)
	info := onnx.NewGraphInfo(qdqGraph())

	groups, err := p.GetCapability(info)
	require.NoError(t, err)
	require.Len(t, groups, 1, "the fused cluster must not split around its Quantize/Dequantize nodes")
	require.Len(t, groups[0].Units, 1)
	assert.Equal(t, "relu0", groups[0].Units[0].Name())

	models, err := p.Compile(info, groups)
	require.NoError(t, err)
	require.Len(t, models, 1)

	m := models[0]
	assert.Equal(t, []string{"xq"}, m.InputNames())
	assert.Equal(t, []string{"yq"}, m.OutputNames())
	require.Len(t, m.Graph().Operators, 1)

	xq := m.Graph().Tensor("xq")
	require.NotNil(t, xq)
	assert.Equal(t, nxa.DataTypeUFixed8, xq.DataType)
	assert.Equal(t, nxa.QuantEncodingScaleOffset, xq.Quant.Encoding)
	assert.Equal(t, int32(-3), xq.Quant.Offset, "the offset is the negated zero point")

	yq := m.Graph().Tensor("yq")
	require.NotNil(t, yq)
	assert.Equal(t, nxa.DataTypeUFixed8, yq.DataType)
	assert.Equal(t, nxa.TensorKindAppRead, yq.Kind)
}

func TestFullyUnsupportedGraphYieldsNoGroups(t *testing.T) {
	g := &onnx.GraphProto{
		Name: "cpu-only",
		Nodes: []onnx.NodeProto{
			{Name: "floor0", OpType: "Floor", Inputs: []string{"x"}, Outputs: []string{"y"}},
		},
		Inputs:  []onnx.ValueInfoProto{valueInfo("x", onnx.TensorProtoFloat, 4)},
		Outputs: []onnx.ValueInfoProto{valueInfo("y", onnx.TensorProtoFloat, 4)},
	}
	p := New(Options{}, nil)

	groups, err := p.GetCapability(onnx.NewGraphInfo(g))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSymbolicShapeExcludesNode(t *testing.T) {
	g := &onnx.GraphProto{
		Name: "dyn",
		Nodes: []onnx.NodeProto{
			{Name: "relu0", OpType: "Relu", Inputs: []string{"x"}, Outputs: []string{"y"}},
		},
		Inputs: []onnx.ValueInfoProto{{
			Name: "x",
			Type: &onnx.TypeProto{TensorType: &onnx.TensorTypeProto{
				ElemType: onnx.TensorProtoFloat,
				Shape: &onnx.TensorShapeProto{Dims: []onnx.DimensionProto{
					{DimParam: "batch"}, {DimValue: 8},
				}},
			}},
		}},
		Outputs: []onnx.ValueInfoProto{valueInfo("y", onnx.TensorProtoFloat, 1, 8)},
	}
	p := New(Options{}, nil)

	groups, err := p.GetCapability(onnx.NewGraphInfo(g))
	require.NoError(t, err)
	assert.Empty(t, groups, "unresolvable shapes fall back to the CPU")
}
