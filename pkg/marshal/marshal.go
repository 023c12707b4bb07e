package marshal

import (
	"fmt"
	"net/url"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
	"github.com/hostlink-protocol/hostlink-go/pkg/handle"
	"github.com/hostlink-protocol/hostlink-go/pkg/intrinsics"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// Marshaller converts between native values and wire values using the
// capability surface, the handle registry, and the intrinsics map.
type Marshaller struct {
	surface    *capability.Surface
	handles    *handle.Registry
	intrinsics *intrinsics.Registry
}

// New creates a marshaller over the given registries.
func New(surface *capability.Surface, handles *handle.Registry, reg *intrinsics.Registry) *Marshaller {
	return &Marshaller{surface: surface, handles: handles, intrinsics: reg}
}

// Handles returns the underlying handle registry.
func (m *Marshaller) Handles() *handle.Registry {
	return m.handles
}

// Context locates a conversion for error messages: which operation and
// which parameter were being processed.
type Context struct {
	Operation string
	Parameter string
}

// ToWire converts a native value to a wire value, registering handles
// for by-reference values as needed.
func (m *Marshaller) ToWire(v any) (wire.Value, error) {
	if v == nil {
		return wire.Null{}, nil
	}
	return m.toWire(reflect.ValueOf(v))
}

func (m *Marshaller) toWire(rv reflect.Value) (wire.Value, error) {
	if !rv.IsValid() {
		return wire.Null{}, nil
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return wire.Null{}, nil
		}
		rv = rv.Elem()
	}
	t := rv.Type()

	// Nil pointers are wire null regardless of target type.
	if t.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return wire.Null{}, nil
		}
		// Dereference only when the pointee copies by value; otherwise
		// the pointer itself is the shared reference to register.
		elem := t.Elem()
		if m.copiesByValue(elem) {
			return m.toWire(rv.Elem())
		}
	}

	// Declared enums encode as their member name.
	if enum, ok := m.surface.EnumFor(t); ok {
		ordinal := enumOrdinal(rv)
		name, ok := enum.NameFor(ordinal)
		if !ok {
			return nil, fmt.Errorf("enum %s has no member with ordinal %d", t, ordinal)
		}
		return wire.String(name), nil
	}

	if wv, ok := primitiveToWire(rv); ok {
		return wv, nil
	}

	// Fixed arrays and slices copy inline: identity is not meaningful
	// across the boundary for snapshots.
	if t.Kind() == reflect.Array || t.Kind() == reflect.Slice {
		arr := make(wire.Array, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := m.toWire(rv.Index(i))
			if err != nil {
				return nil, err
			}
			arr[i] = ev
		}
		return arr, nil
	}

	// Declared DTOs copy field-by-field; no handle is allocated.
	if schema, ok := m.surface.DTOFor(t); ok {
		st := rv
		for st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		obj := make(wire.Object, len(schema.Fields()))
		for _, f := range schema.Fields() {
			fv, err := m.toWire(st.Field(f.Index))
			if err != nil {
				return nil, fmt.Errorf("DTO field %q: %w", f.Name, err)
			}
			obj[f.Name] = fv
		}
		return obj, nil
	}

	// Everything else shares by reference.
	return m.registerHandle(rv), nil
}

// copiesByValue reports whether a pointee type marshals by copy, so the
// pointer can be dereferenced without losing sharing semantics.
func (m *Marshaller) copiesByValue(t reflect.Type) bool {
	if isPrimitiveType(t) {
		return true
	}
	if _, ok := m.surface.EnumFor(t); ok {
		return true
	}
	if _, ok := m.surface.DTOFor(t); ok {
		return true
	}
	return false
}

// registerHandle allocates a registry entry and returns the handle
// reference shape.
func (m *Marshaller) registerHandle(rv reflect.Value) wire.Object {
	t := rv.Type()
	var wireTypeID string
	if t.Kind() == reflect.Map {
		wireTypeID = m.intrinsics.DictWireTypeID(t.Key(), t.Elem())
	} else {
		wireTypeID = m.intrinsics.ResolveResourceWireTypeID(t)
	}
	id := m.handles.Register(rv.Interface(), wireTypeID)
	return wire.NewHandleRef(id, wireTypeID)
}

func enumOrdinal(rv reflect.Value) int64 {
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	default:
		return rv.Int()
	}
}

// primitiveToWire encodes the non-enum primitive kinds.
func primitiveToWire(rv reflect.Value) (wire.Value, bool) {
	t := rv.Type()
	switch t {
	case durationType:
		return wire.Float(durationToMillis(time.Duration(rv.Int()))), true
	case timeType:
		return wire.String(rv.Interface().(time.Time).Format(time.RFC3339Nano)), true
	case dateOnlyType:
		return wire.String(rv.Interface().(DateOnly).String()), true
	case timeOnlyType:
		return wire.String(rv.Interface().(TimeOnly).String()), true
	case uuidType:
		return wire.String(rv.Interface().(uuid.UUID).String()), true
	case urlType:
		u := rv.Interface().(url.URL)
		return wire.String(u.String()), true
	}
	switch t.Kind() {
	case reflect.String:
		return wire.String(rv.String()), true
	case reflect.Bool:
		return wire.Bool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return wire.Int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return wire.Uint(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return wire.Float(rv.Float()), true
	}
	return nil, false
}
