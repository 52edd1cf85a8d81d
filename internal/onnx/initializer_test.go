package onnx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpackInitializerNeverAliases(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	init := &TensorProto{Name: "w", DataType: TensorProtoFloat, RawData: raw}

	out, err := UnpackInitializer(init)
	require.NoError(t, err)
	require.Equal(t, raw, out)

	out[0] = 99
	assert.Equal(t, byte(1), init.RawData[0], "unpacked payload must be an owned copy")
}

func TestUnpackInitializerLegacyFields(t *testing.T) {
	out, err := UnpackInitializer(&TensorProto{Name: "f", DataType: TensorProtoFloat, FloatData: []float32{1.0}})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, out)

	out, err = UnpackInitializer(&TensorProto{Name: "b", DataType: TensorProtoUint8, Int32Data: []int32{7, 250}})
	require.NoError(t, err)
	assert.Equal(t, []byte{7, 250}, out)

	out, err = UnpackInitializer(&TensorProto{Name: "i64", DataType: TensorProtoInt64, Int64Data: []int64{-1}})
	require.NoError(t, err)
	assert.Len(t, out, 8)
}

func TestUnpackInitializerExternalData(t *testing.T) {
	_, err := UnpackInitializer(&TensorProto{Name: "big", DataType: TensorProtoFloat, DataLocation: DataLocationExternal})
	assert.Error(t, err)
}

func TestInt64Values(t *testing.T) {
	vals, err := Int64Values(&TensorProto{Name: "a", DataType: TensorProtoInt64, Int64Data: []int64{3, -7}})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, -7}, vals)

	vals, err = Int64Values(&TensorProto{Name: "b", DataType: TensorProtoInt8, RawData: []byte{0xff}})
	require.NoError(t, err)
	assert.Equal(t, []int64{-1}, vals)

	_, err = Int64Values(&TensorProto{Name: "c", DataType: TensorProtoFloat})
	assert.Error(t, err)
}

func TestFloat32Values(t *testing.T) {
	vals, err := Float32Values(&TensorProto{Name: "s", DataType: TensorProtoFloat, RawData: []byte{0, 0, 0x80, 0x3f}})
	require.NoError(t, err)
	assert.Equal(t, []float32{1.0}, vals)

	_, err = Float32Values(&TensorProto{Name: "s", DataType: TensorProtoInt32})
	assert.Error(t, err)
}
