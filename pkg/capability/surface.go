package capability

import (
	"fmt"
	"reflect"
)

// Surface is the read-only capability table the host supplies at startup.
// Build it with the Add/Declare methods, then call Freeze. Lookups after
// Freeze are safe for concurrent use; mutation after Freeze is an error.
type Surface struct {
	assemblies map[string]*Assembly
	dtos       map[reflect.Type]*DTOSchema
	enums      map[reflect.Type]*EnumSchema
	allowlist  []string
	frozen     bool
}

// NewSurface creates an empty capability surface.
func NewSurface() *Surface {
	return &Surface{
		assemblies: make(map[string]*Assembly),
		dtos:       make(map[reflect.Type]*DTOSchema),
		enums:      make(map[reflect.Type]*EnumSchema),
	}
}

// AddAssembly declares a named assembly and returns it for type
// registration. Re-adding an existing name returns the existing assembly.
func (s *Surface) AddAssembly(name string) *Assembly {
	if s.frozen {
		panic("capability: surface is frozen")
	}
	if asm, ok := s.assemblies[name]; ok {
		return asm
	}
	asm := &Assembly{
		name:  name,
		types: make(map[string]*TypeEntry),
	}
	s.assemblies[name] = asm
	return asm
}

// Assembly returns a declared assembly by name.
func (s *Surface) Assembly(name string) (*Assembly, bool) {
	asm, ok := s.assemblies[name]
	return asm, ok
}

// Allow adds entries to the assembly allowlist. Entries are assembly
// names or prefixes; matching semantics live in the policy package.
func (s *Surface) Allow(entries ...string) {
	if s.frozen {
		panic("capability: surface is frozen")
	}
	s.allowlist = append(s.allowlist, entries...)
}

// Allowlist returns a copy of the declared allowlist entries.
func (s *Surface) Allowlist() []string {
	out := make([]string, len(s.allowlist))
	copy(out, s.allowlist)
	return out
}

// Freeze validates the surface and marks it read-only.
func (s *Surface) Freeze() error {
	for name, asm := range s.assemblies {
		for typeName, entry := range asm.types {
			if entry.typ == nil {
				return fmt.Errorf("assembly %q: type %q has no native type", name, typeName)
			}
		}
	}
	s.frozen = true
	return nil
}

// Frozen reports whether the surface has been frozen.
func (s *Surface) Frozen() bool {
	return s.frozen
}

// Assembly is a named group of exported types. It is the unit the
// allowlist gates: a fresh lookup names an assembly, and a blocked
// assembly must look exactly like a missing one.
type Assembly struct {
	name  string
	types map[string]*TypeEntry
}

// Name returns the assembly name.
func (a *Assembly) Name() string {
	return a.name
}

// AddType declares an exported type under this assembly and returns its
// entry for member registration.
func (a *Assembly) AddType(name string, t reflect.Type) *TypeEntry {
	entry := &TypeEntry{
		name:          name,
		typ:           t,
		statics:       make(map[string]reflect.Value),
		staticGetters: make(map[string]reflect.Value),
		staticSetters: make(map[string]reflect.Value),
	}
	a.types[name] = entry
	return entry
}

// Type returns a declared type entry by its exported name.
func (a *Assembly) Type(name string) (*TypeEntry, bool) {
	entry, ok := a.types[name]
	return entry, ok
}

// TypeNames returns the exported type names declared in this assembly.
func (a *Assembly) TypeNames() []string {
	names := make([]string, 0, len(a.types))
	for name := range a.types {
		names = append(names, name)
	}
	return names
}

// TypeEntry describes one exported type: its native type plus the
// constructor, static methods, and static properties a fresh lookup may
// target. Go has no static members, so "static" here means package-level
// functions registered against the type's exported name.
type TypeEntry struct {
	name string
	typ  reflect.Type

	ctor          reflect.Value
	hasCtor       bool
	statics       map[string]reflect.Value
	staticGetters map[string]reflect.Value
	staticSetters map[string]reflect.Value
}

// Name returns the exported type name.
func (e *TypeEntry) Name() string {
	return e.name
}

// NativeType returns the native type this entry exports.
func (e *TypeEntry) NativeType() reflect.Type {
	return e.typ
}

// SetConstructor registers the function invoked by createObject. fn must
// be a func; its parameters become the wire argument list.
func (e *TypeEntry) SetConstructor(fn any) *TypeEntry {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("capability: constructor for %q is not a func", e.name))
	}
	e.ctor = v
	e.hasCtor = true
	return e
}

// Constructor returns the registered constructor, if any.
func (e *TypeEntry) Constructor() (reflect.Value, bool) {
	return e.ctor, e.hasCtor
}

// AddStaticMethod registers a function invocable by invokeStaticMethod.
func (e *TypeEntry) AddStaticMethod(name string, fn any) *TypeEntry {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("capability: static method %q.%s is not a func", e.name, name))
	}
	e.statics[name] = v
	return e
}

// StaticMethod returns a registered static method by name.
func (e *TypeEntry) StaticMethod(name string) (reflect.Value, bool) {
	v, ok := e.statics[name]
	return v, ok
}

// AddStaticProperty registers getter/setter functions for a static
// property. Either may be nil for a write-only or read-only property.
func (e *TypeEntry) AddStaticProperty(name string, getter, setter any) *TypeEntry {
	if getter != nil {
		g := reflect.ValueOf(getter)
		if g.Kind() != reflect.Func || g.Type().NumIn() != 0 || g.Type().NumOut() != 1 {
			panic(fmt.Sprintf("capability: getter for %q.%s must be func() T", e.name, name))
		}
		e.staticGetters[name] = g
	}
	if setter != nil {
		st := reflect.ValueOf(setter)
		if st.Kind() != reflect.Func || st.Type().NumIn() != 1 {
			panic(fmt.Sprintf("capability: setter for %q.%s must be func(T)", e.name, name))
		}
		e.staticSetters[name] = st
	}
	return e
}

// StaticGetter returns a registered property getter by name.
func (e *TypeEntry) StaticGetter(name string) (reflect.Value, bool) {
	v, ok := e.staticGetters[name]
	return v, ok
}

// StaticSetter returns a registered property setter by name.
func (e *TypeEntry) StaticSetter(name string) (reflect.Value, bool) {
	v, ok := e.staticSetters[name]
	return v, ok
}
