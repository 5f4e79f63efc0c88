package graph

import "fmt"

// ScalarType identifies the element type of a tensor value. ScalarUnknown
// marks values whose element type was never profiled; such values cannot be
// sized and are excluded from planning.
type ScalarType int8

const (
	ScalarUnknown ScalarType = iota
	Byte
	Char
	Short
	Int
	Long
	Half
	Float
	Double
	Bool
)

var scalarTypeNames = map[ScalarType]string{
	ScalarUnknown: "unknown",
	Byte:          "byte",
	Char:          "char",
	Short:         "short",
	Int:           "int",
	Long:          "long",
	Half:          "half",
	Float:         "float",
	Double:        "double",
	Bool:          "bool",
}

func (s ScalarType) String() string {
	if name, ok := scalarTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("ScalarType(%d)", int8(s))
}

// ElementSize returns the byte width of one element, or 0 when the scalar
// type is unknown.
func (s ScalarType) ElementSize() uint64 {
	switch s {
	case Byte, Char, Bool:
		return 1
	case Short, Half:
		return 2
	case Int, Float:
		return 4
	case Long, Double:
		return 8
	default:
		return 0
	}
}

// ParseScalarType maps a lowercase type name to its ScalarType.
func ParseScalarType(name string) (ScalarType, error) {
	for st, n := range scalarTypeNames {
		if n == name && st != ScalarUnknown {
			return st, nil
		}
	}
	return ScalarUnknown, fmt.Errorf("unknown scalar type %q", name)
}

// DeviceType identifies the device whose allocator serves a value's buffer.
type DeviceType int8

const (
	DeviceCPU DeviceType = iota
	DeviceCUDA
)

func (d DeviceType) String() string {
	switch d {
	case DeviceCPU:
		return "cpu"
	case DeviceCUDA:
		return "cuda"
	default:
		return fmt.Sprintf("DeviceType(%d)", int8(d))
	}
}

// ParseDeviceType maps a lowercase device name to its DeviceType.
func ParseDeviceType(name string) (DeviceType, error) {
	switch name {
	case "", "cpu":
		return DeviceCPU, nil
	case "cuda":
		return DeviceCUDA, nil
	default:
		return DeviceCPU, fmt.Errorf("unknown device type %q", name)
	}
}

// TensorType carries the profiled type facts the planner sizes buffers from.
// Nil Sizes or Strides mean the corresponding fact was never profiled
// (typically because of in-place mutation).
type TensorType struct {
	Dtype   ScalarType
	Sizes   []int64
	Strides []int64
	Device  DeviceType
}

// Numel returns the element count, or false when the shape is unknown or
// contains an unprofiled (negative) dimension.
func (t *TensorType) Numel() (int64, bool) {
	if t.Sizes == nil {
		return 0, false
	}
	numel := int64(1)
	for _, d := range t.Sizes {
		if d < 0 {
			return 0, false
		}
		numel *= d
	}
	return numel, true
}

// DefaultStrides derives contiguous row-major strides for a shape.
func DefaultStrides(sizes []int64) []int64 {
	strides := make([]int64, len(sizes))
	stride := int64(1)
	for i := len(sizes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= sizes[i]
	}
	return strides
}
