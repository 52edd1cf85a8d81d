package onnx

// AttrHelper reads node attributes with typed defaults, so op builders do not
// have to walk the attribute list themselves.
type AttrHelper struct {
	node *NodeProto
}

// NewAttrHelper creates a helper over the node's attributes.
func NewAttrHelper(node *NodeProto) *AttrHelper {
	return &AttrHelper{node: node}
}

func (h *AttrHelper) find(name string) *AttributeProto {
	for i := range h.node.Attributes {
		if h.node.Attributes[i].Name == name {
			return &h.node.Attributes[i]
		}
	}
	return nil
}

// Int returns the named INT attribute, or def when absent.
func (h *AttrHelper) Int(name string, def int64) int64 {
	if a := h.find(name); a != nil && a.Type == AttributeProtoInt {
		return a.I
	}
	return def
}

// Float returns the named FLOAT attribute, or def when absent.
func (h *AttrHelper) Float(name string, def float32) float32 {
	if a := h.find(name); a != nil && a.Type == AttributeProtoFloat {
		return a.F
	}
	return def
}

// String returns the named STRING attribute, or def when absent.
func (h *AttrHelper) String(name string, def string) string {
	if a := h.find(name); a != nil && a.Type == AttributeProtoString {
		return string(a.S)
	}
	return def
}

// Ints returns the named INTS attribute, or nil when absent.
func (h *AttrHelper) Ints(name string) []int64 {
	if a := h.find(name); a != nil && a.Type == AttributeProtoInts {
		return a.Ints
	}
	return nil
}

// Floats returns the named FLOATS attribute, or nil when absent.
func (h *AttrHelper) Floats(name string) []float32 {
	if a := h.find(name); a != nil && a.Type == AttributeProtoFloats {
		return a.Floats
	}
	return nil
}

// Tensor returns the named TENSOR attribute, or nil when absent.
func (h *AttrHelper) Tensor(name string) *TensorProto {
	if a := h.find(name); a != nil && a.Type == AttributeProtoTensor {
		return a.T
	}
	return nil
}

// Has reports whether the attribute is present, regardless of type.
func (h *AttrHelper) Has(name string) bool {
	return h.find(name) != nil
}
