package pytype

import (
	"reflect"
	"sync"
)

// FeatureFlags is the bitset of per-type feature flags from spec §4.3.
type FeatureFlags uint64

const (
	BASETYPE FeatureFlags = 1 << iota
	IMMUTABLE
	REPLACEABLE
	INSTANTIABLE
	SEQUENCE
	MAPPING
	METHOD_DESCR
	INT_SUBCLASS
	STR_SUBCLASS
	TYPE_SUBCLASS

	// Derived flags, computed from the type's dictionary at population
	// time rather than set by a TypeSpec.
	HAS_SET
	HAS_DELETE
	HAS_GETITEM
	IS_DATA_DESCR
)

// TypeShape distinguishes the three PyType variants.
type TypeShape int

const (
	// ShapeSimple: one native class represents all instances.
	ShapeSimple TypeShape = iota
	// ShapeAdoptive: a primary native class plus adopted/accepted classes.
	ShapeAdoptive
	// ShapeReplaceable: shares a SharedRepresentation with siblings so
	// __class__ may be reassigned between them.
	ShapeReplaceable
)

// selfClass is one entry of an adoptive type's self-class list: a native
// class this type will accept as `self`, together with the
// Representation backing it.
type selfClass struct {
	class     reflect.Type
	repr      *Representation
	accepted  bool // true for "accepted but not adopted" (no Representation index of its own)
}

// PyType is the Python `type` object: name, bases, MRO, dict, features,
// self-class list. Once published by a TypeFactory it is Python-ready:
// its MRO is computed and its dictionary holds its full descriptor set.
type PyType struct {
	mu sync.RWMutex

	name    string
	bases   []*PyType
	mro     []*PyType
	dict    map[string]Value
	shape   TypeShape
	feature FeatureFlags

	selfClasses []selfClass

	// shared is non-nil for ShapeReplaceable types: the SharedRepresentation
	// every sibling type in the clique uses, plus the slot/dict layout
	// signature CheckClassAssignment compares against.
	shared       *Representation
	layoutSig    layoutSignature
	metaclass    *PyType
}

// Metaclass returns t's metaclass — `type` for every ordinary type,
// including `type` itself (spec §4.7 bootstrap step 1, §9 "Cyclic
// graphs"). Nil only for a *PyType built directly via NewType and never
// published through a TypeFactory (tests, and the bootstrap workshop
// artifact before TypeFactory.Bootstrap closes the cycle).
func (t *PyType) Metaclass() *PyType {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.metaclass
}

func (t *PyType) setMetaclass(m *PyType) {
	t.mu.Lock()
	t.metaclass = m
	t.mu.Unlock()
}

// layoutSignature captures what CheckClassAssignment must agree on
// between two Replaceable types sharing a Representation: same slots,
// same __dict__ presence, same immutability.
type layoutSignature struct {
	slots     []string
	hasDict   bool
	immutable bool
}

// NewType constructs a not-yet-ready PyType. TypeFactory is the only
// caller that should produce PyTypes destined for publication; direct
// construction is for tests and for the bootstrap path itself.
func NewType(name string, shape TypeShape, bases []*PyType) *PyType {
	return &PyType{
		name:  name,
		shape: shape,
		bases: bases,
		dict:  make(map[string]Value),
	}
}

func (t *PyType) Name() string         { return t.name }
func (t *PyType) Bases() []*PyType     { return t.bases }
func (t *PyType) Shape() TypeShape     { return t.shape }
func (t *PyType) MRO() []*PyType       { return t.mro }
func (t *PyType) Dict() map[string]Value {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Value, len(t.dict))
	for k, v := range t.dict {
		out[k] = v
	}
	return out
}

// SetDictEntry installs name -> value directly in t's own dict (not via
// an MRO-respecting attribute-set; used by the factory/exposer during
// population and by Python-level `setattr` on mutable types).
func (t *PyType) SetDictEntry(name string, value Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.feature&IMMUTABLE != 0 {
		return newTypeError("can't set attributes of built-in/extension type '%s'", t.name)
	}
	t.dict[name] = value
	return nil
}

func (t *PyType) dictGet(name string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.dict[name]
	return v, ok
}

// HasFeature performs a bitset test against t's feature flags.
func (t *PyType) HasFeature(flag FeatureFlags) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.feature&flag != 0
}

func (t *PyType) addFeature(flag FeatureFlags) {
	t.mu.Lock()
	t.feature |= flag
	t.mu.Unlock()
}

// Lookup searches name along t's MRO, returning the first value found
// in any base's (or t's own) dict.
func (t *PyType) Lookup(name string) (Value, bool) {
	for _, cls := range t.mro {
		if v, ok := cls.dictGet(name); ok {
			return v, true
		}
	}
	return nil, false
}

// IsSubtypeOf reports whether other appears in t's MRO (MRO containment).
func (t *PyType) IsSubtypeOf(other *PyType) bool {
	for _, cls := range t.mro {
		if cls == other {
			return true
		}
	}
	return false
}

// SubclassIndex returns the matching self-class index for class, or -1
// if class is only "accepted" (no Representation index of its own).
func (t *PyType) SubclassIndex(class reflect.Type) int {
	for i, sc := range t.selfClasses {
		if sc.class == class {
			if sc.accepted {
				return -1
			}
			return i
		}
	}
	return -1
}

// SelfClassRepresentation returns the Representation registered for
// class among t's self-classes, or nil.
func (t *PyType) SelfClassRepresentation(class reflect.Type) *Representation {
	for _, sc := range t.selfClasses {
		if sc.class == class {
			return sc.repr
		}
	}
	return nil
}

// Of returns type(obj): registry.Get(native_class_of(obj)).PythonType(obj).
func Of(reg *Registry, objectRepr *Representation, obj Value) *PyType {
	repr := reg.Get(reflect.TypeOf(obj), objectRepr)
	return repr.PythonType(obj)
}

// MetaclassOf returns metaclass(type(obj)): spec §8's worked invariant
// `type(type(x)) == metaclass(type(x))` holds because registry.TypeOf
// resolves a *PyType value (obj's type) through the same native-class
// binding every other instance uses — *PyType itself is bound to `type`
// during TypeFactory.Bootstrap, so both sides land on the same value.
func MetaclassOf(reg *Registry, objectRepr *Representation, obj Value) *PyType {
	return Of(reg, objectRepr, obj).Metaclass()
}

// CheckClassAssignment implements the Replaceable-type `__class__`
// reassignment rule (spec §4.3, §8 scenario 5): candidate must share t's
// SharedRepresentation and an identical layout signature.
func (t *PyType) CheckClassAssignment(candidate *PyType) error {
	if t.shape != ShapeReplaceable || candidate.shape != ShapeReplaceable {
		return newTypeError("__class__ assignment only supported for heap types or ModuleType subclasses")
	}
	if t.shared == nil || candidate.shared == nil || t.shared != candidate.shared {
		return newTypeError("__class__ assignment: '%s' object layout differs from '%s'", candidate.name, t.name)
	}
	if !sameLayout(t.layoutSig, candidate.layoutSig) {
		return newTypeError("__class__ assignment: '%s' object layout differs from '%s'", candidate.name, t.name)
	}
	return nil
}

func sameLayout(a, b layoutSignature) bool {
	if a.hasDict != b.hasDict || a.immutable != b.immutable {
		return false
	}
	if len(a.slots) != len(b.slots) {
		return false
	}
	for i := range a.slots {
		if a.slots[i] != b.slots[i] {
			return false
		}
	}
	return true
}
