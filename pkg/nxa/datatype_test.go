package nxa

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapElementTypeTables(t *testing.T) {
	tests := []struct {
		onnxType  int32
		quantized bool
		want      DataType
	}{
		{3, false, DataTypeInt8},
		{3, true, DataTypeSFixed8},
		{5, true, DataTypeSFixed16},
		{6, true, DataTypeSFixed32},
		{2, true, DataTypeUFixed8},
		{4, true, DataTypeUFixed16},
		{12, true, DataTypeUFixed32},
		{7, false, DataTypeInt64},
		{7, true, DataTypeInt64},
		{13, true, DataTypeUint64},
		{1, false, DataTypeFloat32},
		{1, true, DataTypeFloat32},
		{10, true, DataTypeFloat16},
		{9, false, DataTypeBool8},
		{9, true, DataTypeBool8},
	}
	for _, tt := range tests {
		got, err := MapElementType(tt.onnxType, tt.quantized)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "onnx type %d quantized=%v", tt.onnxType, tt.quantized)
	}
}

// The quantized and plain tables may disagree only on sub-64-bit integers.
func TestMapElementTypeDisjointness(t *testing.T) {
	subWordInts := map[int32]bool{2: true, 3: true, 4: true, 5: true, 6: true, 12: true}
	for onnxType := range onnxToPlain {
		plain, err := MapElementType(onnxType, false)
		require.NoError(t, err)
		quant, err := MapElementType(onnxType, true)
		require.NoError(t, err)
		if subWordInts[onnxType] {
			assert.NotEqual(t, plain, quant, "onnx type %d should become fixed point when quantized", onnxType)
		} else {
			assert.Equal(t, plain, quant, "onnx type %d must map identically in both tables", onnxType)
		}
	}
}

func TestMapElementTypeMiss(t *testing.T) {
	// STRING and DOUBLE are outside the NXA type space.
	for _, onnxType := range []int32{8, 11} {
		for _, quantized := range []bool{false, true} {
			_, err := MapElementType(onnxType, quantized)
			require.Error(t, err)
			assert.Equal(t, KindUnsupportedType, KindOf(err))
		}
	}
}

func TestElementSize(t *testing.T) {
	assert.Equal(t, 1, ElementSize(DataTypeInt8))
	assert.Equal(t, 2, ElementSize(DataTypeFloat16))
	assert.Equal(t, 4, ElementSize(DataTypeUFixed32))
	assert.Equal(t, 8, ElementSize(DataTypeUint64))
	assert.Equal(t, 0, ElementSize(DataTypeUndefined), "unknown types report 0, not a size")
}

func TestKindOf(t *testing.T) {
	err := Errorf(KindShapeViolation, "rank %d out of range", 9)
	assert.Equal(t, KindShapeViolation, KindOf(err))
	assert.Equal(t, "rank 9 out of range", err.Error())

	wrapped := Errorf(KindUnsupportedType, "while lowering: %w", err)
	assert.Equal(t, KindUnsupportedType, KindOf(wrapped))

	assert.Equal(t, KindUnknown, KindOf(assert.AnError))
}

func TestErrorfKeepsFullWrapChain(t *testing.T) {
	scaleErr := errors.New("scale missing")
	zpErr := errors.New("zero point missing")

	err := Errorf(KindMissingTensor, "node q0: %w and %w", scaleErr, zpErr)
	assert.ErrorIs(t, err, scaleErr)
	assert.ErrorIs(t, err, zpErr)

	mid := fmt.Errorf("reading initializer: %w", scaleErr)
	err = Errorf(KindUnsupportedType, "node dq0: %w", mid)
	assert.ErrorIs(t, err, mid)
	assert.ErrorIs(t, err, scaleErr)
	assert.Equal(t, KindUnsupportedType, KindOf(err))
}
