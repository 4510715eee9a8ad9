package avm2

import (
	"math"
	"strconv"

	"github.com/noctilia/ruffle/gc"
)

// ---------------------------------------------------------------------------
// Value: tagged union of runtime values
// ---------------------------------------------------------------------------

// ValueKind discriminates the runtime value union.
type ValueKind int

const (
	KindUndefined ValueKind = iota
	KindNull
	KindBoolean
	KindNumber
	KindInteger
	KindString
	KindObject
)

func (k ValueKind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	}
	return "unknown"
}

// Value is one AVM2 runtime value.
type Value struct {
	kind    ValueKind
	boolean bool
	number  float64
	integer int32
	str     String
	object  Object
}

// Pre-defined singleton values.
var (
	Undefined = Value{kind: KindUndefined}
	Null      = Value{kind: KindNull}
	True      = Value{kind: KindBoolean, boolean: true}
	False     = Value{kind: KindBoolean}
)

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// BooleanValue creates a boolean value.
func BooleanValue(b bool) Value {
	return Value{kind: KindBoolean, boolean: b}
}

// NumberValue creates a double-precision number value.
func NumberValue(n float64) Value {
	return Value{kind: KindNumber, number: n}
}

// IntegerValue creates an integer value.
func IntegerValue(i int32) Value {
	return Value{kind: KindInteger, integer: i}
}

// StringValue wraps a String (either backing form).
func StringValue(s String) Value {
	return Value{kind: KindString, str: s}
}

// ObjectValue wraps an object reference.
func ObjectValue(o Object) Value {
	return Value{kind: KindObject, object: o}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the discriminant of the value.
func (v Value) Kind() ValueKind { return v.kind }

// IsUndefined returns true if v is undefined.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull returns true if v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBoolean returns true if v is a boolean.
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }

// IsNumber returns true if v is a number or integer.
func (v Value) IsNumber() bool { return v.kind == KindNumber || v.kind == KindInteger }

// IsString returns true if v is a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsObject returns true if v is an object reference.
func (v Value) IsObject() bool { return v.kind == KindObject }

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Boolean returns the boolean payload.
// Panics if v is not a boolean.
func (v Value) Boolean() bool {
	if v.kind != KindBoolean {
		panic("Value.Boolean: not a boolean")
	}
	return v.boolean
}

// Integer returns the integer payload.
// Panics if v is not an integer.
func (v Value) Integer() int32 {
	if v.kind != KindInteger {
		panic("Value.Integer: not an integer")
	}
	return v.integer
}

// String returns the string payload.
// Panics if v is not a string.
func (v Value) String() String {
	if v.kind != KindString {
		panic("Value.String: not a string")
	}
	return v.str
}

// Object returns the object payload.
// Panics if v is not an object.
func (v Value) Object() Object {
	if v.kind != KindObject {
		panic("Value.Object: not an object")
	}
	return v.object
}

// AsObject returns the object payload, or nil and false for non-objects.
func (v Value) AsObject() (Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.object, true
}

// ---------------------------------------------------------------------------
// Coercions
// ---------------------------------------------------------------------------

// CoerceBoolean converts the value to a boolean per AS3 truthiness rules.
func (v Value) CoerceBoolean() bool {
	switch v.kind {
	case KindUndefined, KindNull:
		return false
	case KindBoolean:
		return v.boolean
	case KindNumber:
		return v.number != 0 && !math.IsNaN(v.number)
	case KindInteger:
		return v.integer != 0
	case KindString:
		return v.str.Len() > 0
	default:
		return true
	}
}

// CoerceNumber converts the value to a double.
func (v Value) CoerceNumber() float64 {
	switch v.kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindBoolean:
		if v.boolean {
			return 1
		}
		return 0
	case KindNumber:
		return v.number
	case KindInteger:
		return float64(v.integer)
	case KindString:
		s := v.str.Str()
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}

// CoerceInteger converts the value to a 32-bit integer.
func (v Value) CoerceInteger() int32 {
	if v.kind == KindInteger {
		return v.integer
	}
	n := v.CoerceNumber()
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return int32(int64(n))
}

// CoerceString converts the value to its string representation.
func (v Value) CoerceString() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		if v.boolean {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.number)
	case KindInteger:
		return strconv.FormatInt(int64(v.integer), 10)
	case KindString:
		return v.str.Str()
	default:
		return "[object Object]"
	}
}

// formatNumber renders a double the way AS3 does for whole values: no
// trailing ".0", NaN and infinities spelled out.
func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// ---------------------------------------------------------------------------
// Equality
// ---------------------------------------------------------------------------

// StrictEquals implements the === comparison.
func (v Value) StrictEquals(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		return v.CoerceNumber() == other.CoerceNumber()
	}
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean:
		return v.boolean == other.boolean
	case KindString:
		return v.str.Equals(other.str)
	case KindObject:
		return v.object == other.object
	}
	return false
}

// Equals implements the loose == comparison: undefined and null compare
// equal to each other, numbers and strings compare after numeric coercion.
func (v Value) Equals(other Value) bool {
	if v.kind == other.kind {
		return v.StrictEquals(other)
	}
	vNullish := v.kind == KindUndefined || v.kind == KindNull
	oNullish := other.kind == KindUndefined || other.kind == KindNull
	if vNullish || oNullish {
		return vNullish && oNullish
	}
	if v.kind == KindObject || other.kind == KindObject {
		return false
	}
	return v.CoerceNumber() == other.CoerceNumber()
}

// lessThan implements the abstract < comparison: string against string
// compares lexically, anything else compares numerically. The second
// result is false when either side coerces to NaN, leaving the order
// undefined; every ordered comparison on an undefined order is false.
func lessThan(a, b Value) (less, ordered bool) {
	if a.kind == KindString && b.kind == KindString {
		return a.str.Str() < b.str.Str(), true
	}
	x := a.CoerceNumber()
	y := b.CoerceNumber()
	if math.IsNaN(x) || math.IsNaN(y) {
		return false, false
	}
	return x < y, true
}

// Trace marks heap objects referenced by the value.
func (v Value) Trace(mark func(gc.Object)) {
	switch v.kind {
	case KindString:
		v.str.trace(mark)
	case KindObject:
		if v.object != nil {
			mark(v.object)
		}
	}
}
