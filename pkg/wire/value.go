package wire

import (
	"fmt"
	"math"
	"sort"
)

// Reserved object keys.
const (
	// HandleKey marks an object as a handle reference.
	HandleKey = "$handle"

	// TypeKey carries the wire type id of a handle reference.
	TypeKey = "$type"
)

// Value is a JSON-shaped wire value. The concrete types are Null, Bool,
// String, Int, Uint, Float, Array, and Object. A nil Value is treated as
// Null by the codec.
type Value interface {
	isValue()
}

// Null is the wire null value.
type Null struct{}

// Bool is a wire boolean.
type Bool bool

// String is a wire string.
type String string

// Int is a wire integer. Decoded numbers that fit int64 become Int.
type Int int64

// Uint is a wire integer above the int64 range.
type Uint uint64

// Float is a wire floating-point number.
type Float float64

// Array is an ordered sequence of wire values.
type Array []Value

// Object is a string-keyed map of wire values. An Object carrying the
// "$handle" key is a handle reference; without it, a DTO field map.
type Object map[string]Value

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (String) isValue() {}
func (Int) isValue()    {}
func (Uint) isValue()   {}
func (Float) isValue()  {}
func (Array) isValue()  {}
func (Object) isValue() {}

// IsNull reports whether v is nil or wire null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// NewHandleRef builds the reserved handle-reference object shape.
func NewHandleRef(id, wireTypeID string) Object {
	return Object{
		HandleKey: String(id),
		TypeKey:   String(wireTypeID),
	}
}

// HandleRef extracts a handle reference from v. ok is false when v is not
// an object or carries no "$handle" key.
func HandleRef(v Value) (id, wireTypeID string, ok bool) {
	obj, isObj := v.(Object)
	if !isObj {
		return "", "", false
	}
	h, present := obj[HandleKey]
	if !present {
		return "", "", false
	}
	hs, isStr := h.(String)
	if !isStr {
		return "", "", false
	}
	if t, tok := obj[TypeKey].(String); tok {
		wireTypeID = string(t)
	}
	return string(hs), wireTypeID, true
}

// IsHandleRef reports whether v is the reserved handle-reference shape.
func IsHandleRef(v Value) bool {
	_, _, ok := HandleRef(v)
	return ok
}

// Equal compares two wire values structurally. Int, Uint, and Float
// compare across kinds when they represent the same number.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int, Uint, Float:
		return numericEqual(a, b)
	case Array:
		bv, ok := b.(Array)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, present := bv[k]
			if !present || !Equal(v, w) {
				return false
			}
		}
		return true
	}
	return false
}

func numericEqual(a, b Value) bool {
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return false
	}
	return af == bf
}

func asFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n), true
	case Uint:
		return float64(n), true
	case Float:
		return float64(n), true
	}
	return 0, false
}

// Keys returns the object's keys in sorted order. Useful for deterministic
// iteration in tests and log output.
func (o Object) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Render formats the value for diagnostics. Not a substitute for Encode.
func Render(v Value) string {
	switch t := v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return fmt.Sprintf("%t", bool(t))
	case String:
		return fmt.Sprintf("%q", string(t))
	case Int:
		return fmt.Sprintf("%d", int64(t))
	case Uint:
		return fmt.Sprintf("%d", uint64(t))
	case Float:
		if math.IsInf(float64(t), 0) || math.IsNaN(float64(t)) {
			return "null"
		}
		return fmt.Sprintf("%g", float64(t))
	case Array:
		s := "["
		for i, e := range t {
			if i > 0 {
				s += ","
			}
			s += Render(e)
		}
		return s + "]"
	case Object:
		s := "{"
		for i, k := range t.Keys() {
			if i > 0 {
				s += ","
			}
			s += fmt.Sprintf("%q:%s", k, Render(t[k]))
		}
		return s + "}"
	}
	return fmt.Sprintf("<%T>", v)
}

// KindName names the value's wire kind for error messages.
func KindName(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Int, Uint:
		return "integer"
	case Float:
		return "number"
	case Array:
		return "array"
	case Object:
		if IsHandleRef(v) {
			return "handle"
		}
		return "object"
	}
	return "unknown"
}
