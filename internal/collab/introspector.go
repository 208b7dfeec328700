package collab

import (
	"reflect"

	"github.com/ATSOTECK/pyhost/internal/pytype"
)

// FieldInfo and MethodInfo are aliased to pytype's own discovery types
// rather than redeclared: ReflectIntrospector must satisfy
// pytype.NativeClassIntrospector exactly (pytype cannot import collab,
// so the interface lives there and this package's concrete adapter
// structurally implements it).
type FieldInfo = pytype.FieldInfo
type MethodInfo = pytype.MethodInfo

// NativeClassIntrospector is an alias of pytype.NativeClassIntrospector,
// kept under this package's own name for callers that only import
// collab.
type NativeClassIntrospector = pytype.NativeClassIntrospector

// ReflectIntrospector is the concrete, `reflect`-based
// NativeClassIntrospector, adapted from the host interpreter's own
// reflect.ValueOf/Kind() conversion switch in internal/runtime/api.go
// (ToGoValue/FromGoValue).
type ReflectIntrospector struct{}

// NewReflectIntrospector returns a ready-to-use ReflectIntrospector.
func NewReflectIntrospector() *ReflectIntrospector { return &ReflectIntrospector{} }

// Fields implements NativeClassIntrospector.
func (r *ReflectIntrospector) Fields(class reflect.Type) ([]FieldInfo, error) {
	st := class
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, nil
	}

	var out []FieldInfo
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		optional := f.Type.Kind() == reflect.Ptr || f.Type.Kind() == reflect.Interface
		out = append(out, FieldInfo{
			Name:     f.Name,
			GoType:   f.Type,
			Index:    f.Index,
			Optional: optional,
			Tag:      f.Tag,
		})
	}
	return out, nil
}

// Methods implements NativeClassIntrospector.
func (r *ReflectIntrospector) Methods(class reflect.Type) ([]MethodInfo, error) {
	var out []MethodInfo
	for i := 0; i < class.NumMethod(); i++ {
		m := class.Method(i)
		out = append(out, MethodInfo{Name: m.Name, GoType: m.Type, Index: m.Index})
	}
	return out, nil
}
