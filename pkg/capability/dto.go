package capability

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Field pairs a wire field name with the Go struct field carrying it.
// FieldName may be empty when it matches the wire name up to the usual
// lowerCamel/UpperCamel difference.
type Field struct {
	Name      string
	FieldName string
}

// FieldSchema is the resolved, read-only form of a declared DTO field.
type FieldSchema struct {
	// Name is the wire field name.
	Name string

	// Index is the struct field index.
	Index int

	// Type is the native field type.
	Type reflect.Type
}

// DTOSchema describes a declared by-value wire type: the struct and its
// ordered field list. Only declared DTOs may be populated from wire
// objects; anything else is a contract violation.
type DTOSchema struct {
	typ    reflect.Type
	fields []FieldSchema
}

// NativeType returns the declared struct type.
func (d *DTOSchema) NativeType() reflect.Type {
	return d.typ
}

// Fields returns the declared field schemas in declaration order.
func (d *DTOSchema) Fields() []FieldSchema {
	return d.fields
}

// Field returns the schema for a wire field name.
func (d *DTOSchema) Field(name string) (FieldSchema, bool) {
	for _, f := range d.fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// DeclareDTO declares a struct type as a by-value wire DTO. sample is a
// value (or pointer) of the struct type. With no explicit fields, every
// exported field is declared under its lowerCamel name; explicit fields
// pin the wire names and order.
func (s *Surface) DeclareDTO(sample any, fields ...Field) error {
	if s.frozen {
		panic("capability: surface is frozen")
	}
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("capability: DTO %s is not a struct", t)
	}
	if _, exists := s.dtos[t]; exists {
		return fmt.Errorf("capability: DTO %s already declared", t)
	}

	schema := &DTOSchema{typ: t}
	if len(fields) == 0 {
		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			schema.fields = append(schema.fields, FieldSchema{
				Name:  lowerCamel(sf.Name),
				Index: i,
				Type:  sf.Type,
			})
		}
	} else {
		for _, f := range fields {
			fieldName := f.FieldName
			if fieldName == "" {
				fieldName = upperCamel(f.Name)
			}
			sf, ok := t.FieldByName(fieldName)
			if !ok {
				return fmt.Errorf("capability: DTO %s has no field %q", t, fieldName)
			}
			schema.fields = append(schema.fields, FieldSchema{
				Name:  f.Name,
				Index: sf.Index[0],
				Type:  sf.Type,
			})
		}
	}

	s.dtos[t] = schema
	return nil
}

// DTOFor returns the schema for a declared DTO type. Pointer types
// resolve through to their element type.
func (s *Surface) DTOFor(t reflect.Type) (*DTOSchema, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	schema, ok := s.dtos[t]
	return schema, ok
}

func lowerCamel(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

func upperCamel(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
