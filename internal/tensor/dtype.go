package tensor

// DType is the compile-time constraint for element types supported by Tensor.
//
// The encoder pipeline only moves float32 activations and int32 token ids,
// so the constraint is deliberately narrow.
type DType interface {
	~float32 | ~int32
}

// DataType is the runtime type tag carried by RawTensor.
type DataType int

// Supported runtime data types.
const (
	Float32 DataType = iota
	Int32
)

// Size returns the element size in bytes.
func (d DataType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable type name.
func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

// inferDataType maps a Go value to its runtime DataType tag.
func inferDataType(v any) DataType {
	switch v.(type) {
	case float32:
		return Float32
	case int32:
		return Int32
	default:
		panic("unsupported element type")
	}
}
