package pytype

import (
	"reflect"
	"strings"
)

// FieldInfo describes one discoverable field of a native class, as
// reported by a NativeClassIntrospector.
type FieldInfo struct {
	Name     string
	GoType   reflect.Type
	Index    []int
	Optional bool // pointer or interface-kinded field
	Tag      reflect.StructTag
}

// MethodInfo describes one discoverable method of a native class.
type MethodInfo struct {
	Name   string
	GoType reflect.Type
	Index  int
}

// NativeClassIntrospector discovers a native Go class's exposable
// fields and methods. TypeExposer's reflective-discovery path (spec
// §4.6) depends on this interface, not on `reflect` directly, so the
// host interpreter's own field/method enumeration machinery can be
// plugged in (internal/collab.ReflectIntrospector is the concrete
// adapter TypeFactory wires in).
type NativeClassIntrospector interface {
	Fields(class reflect.Type) ([]FieldInfo, error)
	Methods(class reflect.Type) ([]MethodInfo, error)
}

// discoveredMemberTag is the struct-tag key reflective member discovery
// reads from a native class's fields, e.g. `py:"real,readonly"`.
const discoveredMemberTag = "py"

// goMethodNameFor derives the Go method name reflective slot discovery
// looks for on a self-class to satisfy sm, e.g. SMAdd -> "PyAdd",
// SMGetItem -> "PyGetitem". Every entry in specialMethodNames is a
// single underscore-free word between its leading/trailing "__", so a
// straight Py+Capitalized(word) join needs no per-slot lookup table to
// keep in sync as slots are appended.
func goMethodNameFor(sm SpecialMethod) string {
	word := strings.Trim(sm.String(), "_")
	if word == "" {
		return "Py"
	}
	return "Py" + strings.ToUpper(word[:1]) + word[1:]
}

// fieldKindOf maps a Go field type to the FieldKind a discovered
// MemberDescriptor coerces against, mirroring TypeSpec.Member's manual
// FieldKind argument.
func fieldKindOf(t reflect.Type) FieldKind {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldInt
	case reflect.Float32, reflect.Float64:
		return FieldFloat
	case reflect.String:
		return FieldString
	case reflect.Bool:
		return FieldBool
	default:
		return FieldObject
	}
}

// discoverMembers walks primaryClass's exported, `py`-tagged fields via
// introspector and stages a memberSpec for each, per spec §4.6's
// struct-tag discovery convention. Discovery only ever ADDS to members
// already staged via TypeSpec.Member; a name clash between a discovered
// and a manually staged member is an InternalError (the same
// consistency rule Freeze enforces among manually staged members).
func discoverMembers(introspector NativeClassIntrospector, typeName string, primaryClass reflect.Type, existing []memberSpec) ([]memberSpec, error) {
	if introspector == nil {
		return existing, nil
	}
	fields, err := introspector.Fields(primaryClass)
	if err != nil {
		return nil, newInternalError("TypeSpec %q: discovering members of %s: %s", typeName, primaryClass, err.Error())
	}

	seen := make(map[string]bool, len(existing))
	for _, m := range existing {
		seen[m.name] = true
	}

	out := existing
	for _, f := range fields {
		tag, ok := f.Tag.Lookup(discoveredMemberTag)
		if !ok || tag == "" {
			continue
		}
		parts := strings.Split(tag, ",")
		name := strings.TrimSpace(parts[0])
		if name == "" || name == "-" {
			continue
		}
		if seen[name] {
			return nil, newInternalError("TypeSpec %q: discovered member %q clashes with an already-staged attribute", typeName, name)
		}

		readOnly, optional := false, f.Optional
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "readonly":
				readOnly = true
			case "optional":
				optional = true
			}
		}

		out = append(out, memberSpec{
			name: name, field: f.Name, kind: fieldKindOf(f.GoType),
			readOnly: readOnly, optional: optional,
		})
		seen[name] = true
	}
	return out, nil
}

// discoverSlot finds sm's implementation on selfClass via introspector,
// returning the matching MethodInfo or false. Each self-class is probed
// independently (rather than once against the primary class and reused),
// so a self-class that defines its own, more specific override of a
// dunder Go's own method-set resolution already surfaces it — the "most
// specific native class that the implementation's first parameter
// accepts" selection spec §4.6 describes, expressed as "ask the
// self-class's own method set" rather than a separate overload-ranking
// pass, since Go's method sets already resolve embedding-promoted
// overrides to the nearest definition.
func discoverSlot(introspector NativeClassIntrospector, selfClass reflect.Type, sm SpecialMethod) (MethodInfo, bool, error) {
	if introspector == nil {
		return MethodInfo{}, false, nil
	}
	methods, err := introspector.Methods(selfClass)
	if err != nil {
		return MethodInfo{}, false, newInternalError("discovering methods of %s: %s", selfClass, err.Error())
	}
	goName := goMethodNameFor(sm)
	for _, m := range methods {
		if m.Name == goName {
			return m, true, nil
		}
	}
	return MethodInfo{}, false, nil
}
