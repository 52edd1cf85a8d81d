package opbuilders

import (
	"encoding/binary"

	"github.com/onnpu/onnpu/pkg/nxa"
)

// uint32TensorParam packs a rank-1 unsigned tensor parameter, little endian,
// the byte order the device ABI expects for static payloads.
func uint32TensorParam(name string, values []uint32) nxa.Param {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], v)
	}
	return nxa.TensorParam(name, nxa.Tensor{
		Name:     name,
		DataType: nxa.DataTypeUint32,
		Dims:     []uint32{uint32(len(values))},
		Data:     data,
	})
}
