package pytype

import "reflect"

// memberSpec records one MemberDescriptor-to-be, captured at Spec time
// and realized into a real MemberDescriptor by the TypeExposer once the
// owning PyType exists.
type memberSpec struct {
	name     string
	kind     FieldKind
	readOnly bool
	optional bool
	doc      string
	field    string // struct field name the exposer resolves via reflect
}

// methodSpec records one MethodDescriptor-to-be. Exactly one of fn or
// pyCode is set: fn for a native Go-bodied method (TypeSpec.Method/
// NewMethod), pyCode for a method whose body is a compiled Python code
// object run through the factory's BytecodeEvaluator
// (TypeSpec.PythonMethod). sig, if non-nil, is the CallSignature
// MethodDescriptor.Call marshals positional/keyword arguments against
// before invoking fn (TypeSpec.MethodWithSignature).
type methodSpec struct {
	name   string
	fn     CallFunc
	pyCode any
	sig    *CallSignature
	doc    string
	isNew  bool
}

// slotSpec records one filled dunder slot, staged against whichever
// self-class index the builder was targeting when it was added.
type slotSpec struct {
	sm         SpecialMethod
	selfClass  int
	rawSetter  func(*Representation)
}

// selfClassSpec records one native class TypeSpec will adopt or accept.
type selfClassSpec struct {
	class    reflect.Type
	accepted bool // true: "accepted" (no Representation of its own), false: "adopted"
}

// TypeSpec is the fluent, mutate-then-freeze builder from spec §4.5: call
// the With* methods to accumulate a type's shape, then Freeze to get an
// immutable FrozenSpec ready for the TypeFactory. A TypeSpec must never
// be reused after Freeze; doing so panics.
type TypeSpec struct {
	name       string
	shape      TypeShape
	baseNames  []string
	feature    FeatureFlags
	doc        string

	primaryClass reflect.Type
	selfClasses  []selfClassSpec

	members []memberSpec
	methods []methodSpec
	slots   []slotSpec

	discoverMembers bool
	discoverSlots   []SpecialMethod

	frozen bool
}

// NewTypeSpec starts building a type named name, backed primarily by
// primaryClass.
func NewTypeSpec(name string, primaryClass reflect.Type) *TypeSpec {
	return &TypeSpec{name: name, primaryClass: primaryClass, shape: ShapeSimple}
}

func (s *TypeSpec) checkMutable() {
	if s.frozen {
		panic(newInternalError("TypeSpec %q: mutated after Freeze", s.name))
	}
}

// WithDoc sets the type's docstring.
func (s *TypeSpec) WithDoc(doc string) *TypeSpec {
	s.checkMutable()
	s.doc = doc
	return s
}

// WithBase adds baseName to the type's bases, resolved by the factory
// against already-published types at FromSpec time.
func (s *TypeSpec) WithBase(baseName string) *TypeSpec {
	s.checkMutable()
	s.baseNames = append(s.baseNames, baseName)
	return s
}

// WithFeature ORs flag into the type's feature set.
func (s *TypeSpec) WithFeature(flag FeatureFlags) *TypeSpec {
	s.checkMutable()
	s.feature |= flag
	return s
}

// AsAdoptive marks the type Adoptive and adds class as an adopted
// self-class (gets its own Representation and self-class index).
func (s *TypeSpec) AsAdoptive() *TypeSpec {
	s.checkMutable()
	s.shape = ShapeAdoptive
	return s
}

// AsReplaceable marks the type Replaceable (shares a SharedRepresentation
// with siblings registered under the same clique).
func (s *TypeSpec) AsReplaceable() *TypeSpec {
	s.checkMutable()
	s.shape = ShapeReplaceable
	s.feature |= REPLACEABLE
	return s
}

// Adopt registers class as an additional native class this Adoptive type
// accepts as self, with its own Representation (distinguishable self-class
// index). Must only be called after AsAdoptive.
func (s *TypeSpec) Adopt(class reflect.Type) *TypeSpec {
	s.checkMutable()
	if s.shape != ShapeAdoptive {
		panic(newInternalError("TypeSpec %q: Adopt called on a non-Adoptive spec", s.name))
	}
	s.selfClasses = append(s.selfClasses, selfClassSpec{class: class, accepted: false})
	return s
}

// Accept registers class as a native class this type's descriptors must
// tolerate as self without giving it its own Representation (e.g. a host
// subtype reusing the primary's slots verbatim).
func (s *TypeSpec) Accept(class reflect.Type) *TypeSpec {
	s.checkMutable()
	s.selfClasses = append(s.selfClasses, selfClassSpec{class: class, accepted: true})
	return s
}

// Member stages a MemberDescriptor reflecting the named struct field of
// the primary native class.
func (s *TypeSpec) Member(name, field string, kind FieldKind, readOnly, optional bool) *TypeSpec {
	s.checkMutable()
	s.members = append(s.members, memberSpec{name: name, field: field, kind: kind, readOnly: readOnly, optional: optional})
	return s
}

// Method stages a MethodDescriptor named name with body fn.
func (s *TypeSpec) Method(name string, fn CallFunc) *TypeSpec {
	s.checkMutable()
	s.methods = append(s.methods, methodSpec{name: name, fn: fn})
	return s
}

// NewMethod stages the special __new__ MethodDescriptor.
func (s *TypeSpec) NewMethod(fn CallFunc) *TypeSpec {
	s.checkMutable()
	s.methods = append(s.methods, methodSpec{name: "__new__", fn: fn, isNew: true})
	return s
}

// MethodWithSignature stages a MethodDescriptor whose positional/keyword
// arguments are marshaled against sig (via the factory's
// ArgumentMarshaler, spec §4.4 step 4) before fn is invoked with the
// coerced values.
func (s *TypeSpec) MethodWithSignature(name string, sig CallSignature, fn CallFunc) *TypeSpec {
	s.checkMutable()
	s.methods = append(s.methods, methodSpec{name: name, fn: fn, sig: &sig})
	return s
}

// PythonMethod stages a MethodDescriptor whose body is a compiled
// Python code object, run through the factory's BytecodeEvaluator
// rather than a native Go function — the bridge a collaborator uses to
// install a method whose implementation is Python source the host
// interpreter compiled, not a TypeSpec author's Go closure.
func (s *TypeSpec) PythonMethod(name string, code any) *TypeSpec {
	s.checkMutable()
	s.methods = append(s.methods, methodSpec{name: name, pyCode: code})
	return s
}

// WithDiscoveredMembers enables reflective member discovery (spec §4.6):
// the TypeExposer's attached NativeClassIntrospector walks primaryClass's
// exported, `py`-tagged struct fields and stages a memberSpec for each,
// in addition to anything staged manually via Member.
func (s *TypeSpec) WithDiscoveredMembers() *TypeSpec {
	s.checkMutable()
	s.discoverMembers = true
	return s
}

// WithDiscoveredSlots enables reflective method discovery (spec §4.6)
// for each of sms: the TypeExposer's attached NativeClassIntrospector
// looks up each self-class's own implementation by Go method-name
// convention (goMethodNameFor) and fills that self-class's
// Representation slot with it, failing the whole Freeze->FromSpec
// pipeline with an InternalError if any non-accepted self-class lacks
// an applicable implementation.
func (s *TypeSpec) WithDiscoveredSlots(sms ...SpecialMethod) *TypeSpec {
	s.checkMutable()
	s.discoverSlots = append(s.discoverSlots, sms...)
	return s
}

// Slot stages a filled dunder slot for the primary self-class (index 0).
// Use SlotFor to target an adopted self-class by index.
func (s *TypeSpec) Slot(sm SpecialMethod, setter func(*Representation)) *TypeSpec {
	return s.SlotFor(0, sm, setter)
}

// SlotFor stages a filled dunder slot for the self-class at selfClass
// index (0 = primary, 1.. = adopted classes in Adopt call order).
func (s *TypeSpec) SlotFor(selfClass int, sm SpecialMethod, setter func(*Representation)) *TypeSpec {
	s.checkMutable()
	s.slots = append(s.slots, slotSpec{sm: sm, selfClass: selfClass, rawSetter: setter})
	return s
}

// FrozenSpec is the immutable result of TypeSpec.Freeze, ready for
// TypeFactory.FromSpec. Consistency violations are reported at Freeze
// time rather than deep inside factory publication.
type FrozenSpec struct {
	name       string
	shape      TypeShape
	baseNames  []string
	feature    FeatureFlags
	doc        string

	primaryClass reflect.Type
	selfClasses  []selfClassSpec

	members []memberSpec
	methods []methodSpec
	slots   []slotSpec

	discoverMembers bool
	discoverSlots   []SpecialMethod
}

// Freeze validates s and returns an immutable FrozenSpec. s must not be
// used again afterward. Returns a *TypeError for a spec that violates a
// documented consistency rule (e.g. a non-Adoptive type with Adopt calls,
// an optional non-reference member, a read-only member with no getter
// possible).
func (s *TypeSpec) Freeze() (*FrozenSpec, error) {
	s.checkMutable()
	if s.name == "" {
		return nil, newTypeError("TypeSpec: type must have a name")
	}
	if s.shape != ShapeAdoptive && len(s.selfClasses) > 0 {
		hasAdopted := false
		for _, sc := range s.selfClasses {
			if !sc.accepted {
				hasAdopted = true
			}
		}
		if hasAdopted {
			return nil, newTypeError("TypeSpec %q: Adopt requires AsAdoptive", s.name)
		}
	}
	for _, m := range s.members {
		if m.optional && m.kind != FieldObject {
			return nil, newTypeError("TypeSpec %q: member %q: only reference-typed members may be optional", s.name, m.name)
		}
	}
	seen := map[string]bool{}
	for _, m := range s.members {
		if seen[m.name] {
			return nil, newTypeError("TypeSpec %q: duplicate attribute name %q", s.name, m.name)
		}
		seen[m.name] = true
	}
	for _, m := range s.methods {
		if seen[m.name] && !m.isNew {
			return nil, newTypeError("TypeSpec %q: duplicate attribute name %q", s.name, m.name)
		}
		if m.fn == nil && m.pyCode == nil {
			return nil, newTypeError("TypeSpec %q: method %q has neither a native body nor Python code", s.name, m.name)
		}
		seen[m.name] = true
	}

	s.frozen = true
	return &FrozenSpec{
		name: s.name, shape: s.shape, baseNames: s.baseNames, feature: s.feature, doc: s.doc,
		primaryClass: s.primaryClass, selfClasses: s.selfClasses,
		members: s.members, methods: s.methods, slots: s.slots,
		discoverMembers: s.discoverMembers, discoverSlots: s.discoverSlots,
	}, nil
}
