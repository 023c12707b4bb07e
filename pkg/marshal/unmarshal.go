package marshal

import (
	"math"
	"net/url"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/hostlink-protocol/hostlink-go/pkg/capability"
	"github.com/hostlink-protocol/hostlink-go/pkg/wire"
)

// FromWire converts a wire value to a native value assignable to the
// target type. ctx locates the conversion in error messages.
func (m *Marshaller) FromWire(v wire.Value, target reflect.Type, ctx Context) (any, error) {
	rv, err := m.fromWire(v, target, ctx)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func (m *Marshaller) fromWire(v wire.Value, target reflect.Type, ctx Context) (reflect.Value, error) {
	// Wire null becomes the target's zero value regardless of type.
	if wire.IsNull(v) {
		return reflect.Zero(target), nil
	}

	// Handle references resolve to the registered instance.
	if id, _, ok := wire.HandleRef(v); ok {
		obj, err := m.handles.Resolve(id)
		if err != nil {
			return reflect.Value{}, err
		}
		ov := reflect.ValueOf(obj)
		if !ov.Type().AssignableTo(target) {
			return reflect.Value{}, m.coercionErr(ctx, target, "handle of "+ov.Type().String())
		}
		return ov, nil
	}

	// Pointer targets to by-value kinds unwrap one level; nullable
	// enums and optional primitives land here.
	if target.Kind() == reflect.Pointer && m.copiesByValue(target.Elem()) {
		inner, err := m.fromWire(v, target.Elem(), ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}

	// Declared enums accept a member name (case-insensitive) or an
	// ordinal index into the declared member order.
	if enum, ok := m.surface.EnumFor(target); ok {
		return m.enumFromWire(v, target, enum, ctx)
	}

	// The empty interface takes the generic native shape.
	if target.Kind() == reflect.Interface && target.NumMethod() == 0 {
		av, err := m.anyFromWire(v, ctx)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(target).Elem()
		if av != nil {
			out.Set(reflect.ValueOf(av))
		}
		return out, nil
	}

	switch tv := v.(type) {
	case wire.Array:
		switch target.Kind() {
		case reflect.Slice:
			out := reflect.MakeSlice(target, len(tv), len(tv))
			for i, e := range tv {
				ev, err := m.fromWire(e, target.Elem(), ctx)
				if err != nil {
					return reflect.Value{}, err
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		case reflect.Array:
			if len(tv) != target.Len() {
				return reflect.Value{}, m.coercionErr(ctx, target, "array of wrong length")
			}
			out := reflect.New(target).Elem()
			for i, e := range tv {
				ev, err := m.fromWire(e, target.Elem(), ctx)
				if err != nil {
					return reflect.Value{}, err
				}
				out.Index(i).Set(ev)
			}
			return out, nil
		}

	case wire.Object:
		if target.Kind() == reflect.Map {
			out := reflect.MakeMapWithSize(target, len(tv))
			for k, e := range tv {
				kv, err := m.fromWire(wire.String(k), target.Key(), ctx)
				if err != nil {
					return reflect.Value{}, err
				}
				ev, err := m.fromWire(e, target.Elem(), ctx)
				if err != nil {
					return reflect.Value{}, err
				}
				out.SetMapIndex(kv, ev)
			}
			return out, nil
		}
		if isStructTarget(target) && !isPrimitiveStruct(target) {
			return m.dtoFromWire(tv, target, ctx)
		}
	}

	return m.primitiveFromWire(v, target, ctx)
}

func isStructTarget(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func isPrimitiveStruct(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t {
	case timeType, dateOnlyType, timeOnlyType, uuidType, urlType:
		return true
	}
	return false
}

// dtoFromWire populates a declared DTO from a plain wire object. An
// undeclared struct target fails fast: arbitrary object graphs that
// were never vetted for the wire contract are not silently accepted.
func (m *Marshaller) dtoFromWire(obj wire.Object, target reflect.Type, ctx Context) (reflect.Value, error) {
	schema, ok := m.surface.DTOFor(target)
	if !ok {
		st := target
		for st.Kind() == reflect.Pointer {
			st = st.Elem()
		}
		return reflect.Value{}, capability.NewContractError(
			"type %s is not a declared capability DTO; declare it on the capability surface", st)
	}

	out := reflect.New(schema.NativeType()).Elem()
	for _, f := range schema.Fields() {
		fv, present := obj[f.Name]
		if !present {
			continue
		}
		fieldCtx := ctx
		fieldCtx.Parameter = ctx.Parameter + "." + f.Name
		val, err := m.fromWire(fv, f.Type, fieldCtx)
		if err != nil {
			return reflect.Value{}, err
		}
		out.Field(f.Index).Set(val)
	}

	if target.Kind() == reflect.Pointer {
		ptr := reflect.New(schema.NativeType())
		ptr.Elem().Set(out)
		return ptr, nil
	}
	return out, nil
}

func (m *Marshaller) enumFromWire(v wire.Value, target reflect.Type, enum *capability.EnumSchema, ctx Context) (reflect.Value, error) {
	var ordinal int64
	switch tv := v.(type) {
	case wire.String:
		ord, ok := enum.OrdinalFor(string(tv))
		if !ok {
			return reflect.Value{}, m.coercionErr(ctx, target, "string "+string(tv))
		}
		ordinal = ord
	case wire.Int:
		ordinal = int64(tv)
	case wire.Uint:
		ordinal = int64(tv)
	case wire.Float:
		f := float64(tv)
		if f != math.Trunc(f) {
			return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
		}
		ordinal = int64(f)
	default:
		return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
	}
	if _, ok := enum.NameFor(ordinal); !ok {
		return reflect.Value{}, m.coercionErr(ctx, target, "out-of-range ordinal")
	}

	out := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out.SetUint(uint64(ordinal))
	default:
		out.SetInt(ordinal)
	}
	return out, nil
}

// anyFromWire converts a wire value to its generic native shape.
func (m *Marshaller) anyFromWire(v wire.Value, ctx Context) (any, error) {
	switch tv := v.(type) {
	case nil, wire.Null:
		return nil, nil
	case wire.Bool:
		return bool(tv), nil
	case wire.String:
		return string(tv), nil
	case wire.Int:
		return int64(tv), nil
	case wire.Uint:
		return uint64(tv), nil
	case wire.Float:
		return float64(tv), nil
	case wire.Array:
		out := make([]any, len(tv))
		for i, e := range tv {
			ev, err := m.anyFromWire(e, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case wire.Object:
		if id, _, ok := wire.HandleRef(v); ok {
			return m.handles.Resolve(id)
		}
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			ev, err := m.anyFromWire(e, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	}
	return nil, m.coercionErr(ctx, reflect.TypeOf((*any)(nil)).Elem(), wire.KindName(v))
}

// primitiveFromWire coerces wire primitives, mirroring the encode table.
func (m *Marshaller) primitiveFromWire(v wire.Value, target reflect.Type, ctx Context) (reflect.Value, error) {
	switch target {
	case durationType:
		switch tv := v.(type) {
		case wire.Float:
			return reflect.ValueOf(millisToDuration(float64(tv))), nil
		case wire.Int:
			return reflect.ValueOf(millisToDuration(float64(tv))), nil
		case wire.String:
			d, err := time.ParseDuration(string(tv))
			if err != nil {
				return reflect.Value{}, m.coercionErr(ctx, target, "string "+string(tv))
			}
			return reflect.ValueOf(d), nil
		}
		return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))

	case timeType:
		s, ok := v.(wire.String)
		if !ok {
			return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
		}
		t, err := time.Parse(time.RFC3339Nano, string(s))
		if err != nil {
			return reflect.Value{}, m.coercionErr(ctx, target, "string "+string(s))
		}
		return reflect.ValueOf(t), nil

	case dateOnlyType:
		s, ok := v.(wire.String)
		if !ok {
			return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
		}
		d, err := ParseDateOnly(string(s))
		if err != nil {
			return reflect.Value{}, m.coercionErr(ctx, target, "string "+string(s))
		}
		return reflect.ValueOf(d), nil

	case timeOnlyType:
		s, ok := v.(wire.String)
		if !ok {
			return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
		}
		t, err := ParseTimeOnly(string(s))
		if err != nil {
			return reflect.Value{}, m.coercionErr(ctx, target, "string "+string(s))
		}
		return reflect.ValueOf(t), nil

	case uuidType:
		s, ok := v.(wire.String)
		if !ok {
			return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
		}
		u, err := uuid.Parse(string(s))
		if err != nil {
			return reflect.Value{}, m.coercionErr(ctx, target, "string "+string(s))
		}
		return reflect.ValueOf(u), nil

	case urlType:
		s, ok := v.(wire.String)
		if !ok {
			return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
		}
		u, err := url.Parse(string(s))
		if err != nil {
			return reflect.Value{}, m.coercionErr(ctx, target, "string "+string(s))
		}
		return reflect.ValueOf(*u), nil
	}

	switch target.Kind() {
	case reflect.String:
		if s, ok := v.(wire.String); ok {
			out := reflect.New(target).Elem()
			out.SetString(string(s))
			return out, nil
		}

	case reflect.Bool:
		if b, ok := v.(wire.Bool); ok {
			out := reflect.New(target).Elem()
			out.SetBool(bool(b))
			return out, nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n, ok := wireInteger(v); ok {
			out := reflect.New(target).Elem()
			if out.OverflowInt(n) {
				return reflect.Value{}, m.coercionErr(ctx, target, "out-of-range integer")
			}
			out.SetInt(n)
			return out, nil
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n, ok := wireUnsigned(v); ok {
			out := reflect.New(target).Elem()
			if out.OverflowUint(n) {
				return reflect.Value{}, m.coercionErr(ctx, target, "out-of-range integer")
			}
			out.SetUint(n)
			return out, nil
		}

	case reflect.Float32, reflect.Float64:
		if f, ok := wireNumber(v); ok {
			out := reflect.New(target).Elem()
			out.SetFloat(f)
			return out, nil
		}
	}

	return reflect.Value{}, m.coercionErr(ctx, target, wire.KindName(v))
}

func wireInteger(v wire.Value) (int64, bool) {
	switch n := v.(type) {
	case wire.Int:
		return int64(n), true
	case wire.Uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case wire.Float:
		f := float64(n)
		if f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}

func wireUnsigned(v wire.Value) (uint64, bool) {
	switch n := v.(type) {
	case wire.Int:
		if int64(n) < 0 {
			return 0, false
		}
		return uint64(n), true
	case wire.Uint:
		return uint64(n), true
	case wire.Float:
		f := float64(n)
		if f != math.Trunc(f) || f < 0 {
			return 0, false
		}
		return uint64(f), true
	}
	return 0, false
}

func wireNumber(v wire.Value) (float64, bool) {
	switch n := v.(type) {
	case wire.Int:
		return float64(n), true
	case wire.Uint:
		return float64(n), true
	case wire.Float:
		return float64(n), true
	}
	return 0, false
}

func (m *Marshaller) coercionErr(ctx Context, target reflect.Type, actual string) *capability.CoercionError {
	return &capability.CoercionError{
		Operation: ctx.Operation,
		Parameter: ctx.Parameter,
		Expected:  target.String(),
		Actual:    actual,
	}
}
