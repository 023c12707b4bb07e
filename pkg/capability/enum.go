package capability

import (
	"fmt"
	"reflect"
	"strings"
)

// EnumSchema describes a declared enum: a named integer type and its
// ordered member names. Member i corresponds to the native value i, the
// usual iota convention.
type EnumSchema struct {
	typ     reflect.Type
	members []string
}

// NativeType returns the declared enum type.
func (e *EnumSchema) NativeType() reflect.Type {
	return e.typ
}

// Members returns the member names in declared order.
func (e *EnumSchema) Members() []string {
	return e.members
}

// NameFor returns the member name for an ordinal value.
func (e *EnumSchema) NameFor(ordinal int64) (string, bool) {
	if ordinal < 0 || ordinal >= int64(len(e.members)) {
		return "", false
	}
	return e.members[ordinal], true
}

// OrdinalFor returns the ordinal for a member name. The comparison is
// case-insensitive.
func (e *EnumSchema) OrdinalFor(name string) (int64, bool) {
	for i, m := range e.members {
		if strings.EqualFold(m, name) {
			return int64(i), true
		}
	}
	return 0, false
}

// DeclareEnum declares a named integer type as a wire enum with the
// given member names, in ordinal order starting at zero.
func (s *Surface) DeclareEnum(sample any, members ...string) error {
	if s.frozen {
		panic("capability: surface is frozen")
	}
	t := reflect.TypeOf(sample)
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return fmt.Errorf("capability: enum %s is not an integer type", t)
	}
	if len(members) == 0 {
		return fmt.Errorf("capability: enum %s declared with no members", t)
	}
	if _, exists := s.enums[t]; exists {
		return fmt.Errorf("capability: enum %s already declared", t)
	}
	s.enums[t] = &EnumSchema{typ: t, members: members}
	return nil
}

// EnumFor returns the schema for a declared enum type.
func (s *Surface) EnumFor(t reflect.Type) (*EnumSchema, bool) {
	schema, ok := s.enums[t]
	return schema, ok
}
