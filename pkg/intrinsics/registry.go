package intrinsics

import (
	"reflect"
	"strings"

	"github.com/hostlink-protocol/hostlink-go/pkg/resource"
)

// Namespace is the wire id prefix for hosting types.
const Namespace = "host/"

// ResourceSuffix is the conventional type-name suffix stripped when
// deriving a resource's wire id.
const ResourceSuffix = "Resource"

// Registry resolves native types to wire type ids.
type Registry struct {
	fixed   map[reflect.Type]string
	markers map[reflect.Type]string

	resourceIface reflect.Type
	builderIface  reflect.Type
}

// NewRegistry builds the registry over the hosting resource model.
func NewRegistry() *Registry {
	r := &Registry{
		fixed:         make(map[reflect.Type]string),
		markers:       make(map[reflect.Type]string),
		resourceIface: reflect.TypeOf((*resource.Resource)(nil)).Elem(),
		builderIface:  reflect.TypeOf((*resource.AnyBuilder)(nil)).Elem(),
	}

	// Hand-assigned intrinsic ids.
	r.fixed[reflect.TypeOf((*resource.Builder)(nil))] = Namespace + "Builder"
	r.fixed[reflect.TypeOf((*resource.App)(nil))] = Namespace + "App"

	// Marker interfaces map to their name verbatim.
	for _, iface := range []any{
		(*resource.Resource)(nil),
		(*resource.WithEnvironment)(nil),
		(*resource.WithEndpoints)(nil),
		(*resource.WithArgs)(nil),
		(*resource.WithConnectionString)(nil),
	} {
		t := reflect.TypeOf(iface).Elem()
		r.markers[t] = Namespace + t.Name()
	}

	return r
}

// ResolveWireTypeID resolves a native type to its wire id. Returns false
// when no intrinsic mapping exists; callers fall back to handle typing
// via ResolveResourceWireTypeID.
func (r *Registry) ResolveWireTypeID(t reflect.Type) (string, bool) {
	if t == nil {
		return "", false
	}

	// 1. Hand-assigned intrinsics.
	if id, ok := r.fixed[t]; ok {
		return id, true
	}

	// 2. Resource-builder shape: unwrap to the resource it builds.
	if elem, ok := r.builderElem(t); ok {
		return r.ResolveWireTypeID(elem)
	}

	// 3. Concrete resource types following the naming convention.
	if t.Kind() != reflect.Interface && r.implementsResource(t) {
		name := simpleName(t)
		if strings.HasSuffix(name, ResourceSuffix) && name != ResourceSuffix {
			return Namespace + strings.TrimSuffix(name, ResourceSuffix), true
		}
	}

	// 4. Marker interfaces.
	if t.Kind() == reflect.Interface {
		if id, ok := r.markers[t]; ok {
			return id, true
		}
	}

	return "", false
}

// ResolveResourceWireTypeID resolves a type to a wire id, falling back
// to the concrete type's simple name when no intrinsic mapping exists.
func (r *Registry) ResolveResourceWireTypeID(t reflect.Type) string {
	if id, ok := r.ResolveWireTypeID(t); ok {
		return id
	}
	return simpleName(t)
}

// DictWireTypeID formats the special wire id for dictionary-shaped
// handles, so the remote side can discover indexing semantics without a
// round trip.
func (r *Registry) DictWireTypeID(key, value reflect.Type) string {
	return "Dict<" + r.ResolveResourceWireTypeID(key) + "," + r.ResolveResourceWireTypeID(value) + ">"
}

// builderElem unwraps a resource-builder type to the resource type it
// parameterizes.
func (r *Registry) builderElem(t reflect.Type) (reflect.Type, bool) {
	if !t.Implements(r.builderIface) {
		return nil, false
	}
	st := t
	for st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, false
	}
	for i := 0; i < st.NumField(); i++ {
		ft := st.Field(i).Type
		if r.implementsResource(ft) {
			return ft, true
		}
	}
	return nil, false
}

func (r *Registry) implementsResource(t reflect.Type) bool {
	if t.Implements(r.resourceIface) {
		return true
	}
	if t.Kind() != reflect.Pointer {
		return reflect.PointerTo(t).Implements(r.resourceIface)
	}
	return false
}

// simpleName returns the type's unqualified name, stripping pointers and
// generic instantiation brackets.
func simpleName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		// Unnamed types (maps, slices, funcs) render their kind.
		return t.String()
	}
	if i := strings.Index(name, "["); i > 0 {
		name = name[:i]
	}
	return name
}
