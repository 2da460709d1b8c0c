package filter

// Value is a scalar admitted in fields, filters, and condition results:
// signed integer, floating point, boolean, string, byte sequence, or nil
// where explicitly allowed. Go's static typing means no runtime type
// tests are needed here — any Go value that isn't a map, slice, or func
// satisfies the informal "Value" contract, and isForbiddenValue below is
// what actually enforces it at the boundary.
type Value = any

// FieldRef names a field by an opaque, caller-chosen identifier. The core
// never interprets it; it must simply be non-empty.
type FieldRef string

// Operand is anything that can appear inside a Condition: a Value, a
// FieldRef, or a nested Condition. Go has no sum types, so this is
// expressed as an interface implemented by the three admissible shapes.
type Operand interface {
	// renderOperand returns the wire representation of this operand: a
	// bare value for Value/FieldRef, or a rendered map for a Condition.
	renderOperand() any
}

// valueOperand wraps a scalar Value so it satisfies Operand.
type valueOperand struct{ v Value }

func (o valueOperand) renderOperand() any { return o.v }

// Val wraps a scalar as an Operand. Use this to pass literals (numbers,
// strings, bools) into arithmetic/comparison factories alongside
// FieldRefs and Conditions.
func Val(v Value) Operand { return valueOperand{v} }

func (f FieldRef) renderOperand() any { return string(f) }

// IsForbiddenValue reports whether v is a shape the algebra rejects as a
// scalar Value (mappings, non-byte sequences, sets, callables). Exported so
// package query can apply the same rule to fields()/filter() values.
func IsForbiddenValue(v any) bool { return isForbiddenValue(v) }

// isForbiddenValue reports whether v is a shape the algebra explicitly
// rejects as a Value: mappings, sequences (other than the byte-slice
// special case), sets, and callables. Go has no native "set" or
// "callable" literal type overlapping with JSON-able data, so this guards
// against maps, slices (except []byte), channels, and funcs.
func isForbiddenValue(v any) bool {
	switch v.(type) {
	case map[string]any:
		return true
	case func(), func() error:
		return true
	}
	switch v.(type) {
	case []byte, string, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, bool, nil:
		return false
	}
	return reflectIsCompositeNonByteSlice(v)
}
