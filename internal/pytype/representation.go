package pytype

import "reflect"

// RepresentationKind distinguishes the three flavors of Representation
// described by the data model.
type RepresentationKind int

const (
	// SimpleRepresentation: the representation is the type's sole native
	// class, or its instances' type is fixed.
	SimpleRepresentation RepresentationKind = iota
	// AdoptedRepresentation: a native class adopted by an adoptive type,
	// not its primary.
	AdoptedRepresentation
	// SharedRepresentation: one native class backs many mutually
	// replaceable Python types; each instance carries its own __class__.
	SharedRepresentation
)

// classHolder is implemented by native instances that carry their own
// mutable __class__, used by SharedRepresentation and by the registry's
// superclass-inheritance lookup rule.
type classHolder interface {
	PyClassHolder() *PyType
}

// rawSlot is the uniform storage shape every SpecialMethod slot is
// boxed into internally. Per-signature setters (SetUnary, SetBinary, ...)
// wrap a strongly-typed function into this shape; per-signature getters
// (Unary, Binary, ...) invoke it and unwrap the result. This keeps the
// external API signature-safe while the storage array stays a single
// flat, branch-free table.
type rawSlot func(self Value, args []Value, kwargs map[string]Value) (Value, error)

// Representation pairs one native Go class with the dunder-method
// dispatch table for its instances. Once published in a Registry, a
// native_class → Representation binding never changes.
type Representation struct {
	class reflect.Type
	kind  RepresentationKind
	slots [numSpecialMethod]rawSlot

	// index is this representation's position in the owning PyType's
	// self-class list (primary=0, adopted/accepted follow).
	index int

	// fixedType backs SimpleRepresentation and AdoptedRepresentation: the
	// owning *PyType is known up front. SharedRepresentation instead uses
	// classOf, consulting the instance's own class-holder interface.
	fixedType *PyType
	classOf   func(instance Value) *PyType
}

func newEmptyRepresentation(class reflect.Type, kind RepresentationKind) *Representation {
	r := &Representation{class: class, kind: kind}
	for sm := SpecialMethod(0); sm < numSpecialMethod; sm++ {
		r.slots[sm] = makeEmptyStub(sm)
	}
	return r
}

func makeEmptyStub(sm SpecialMethod) rawSlot {
	return func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
		return nil, &EmptySlotError{Method: sm}
	}
}

// NativeClass returns the native Go class this Representation is bound to.
func (r *Representation) NativeClass() reflect.Type { return r.class }

// Kind reports which of the three Representation flavors this is.
func (r *Representation) Kind() RepresentationKind { return r.kind }

// Index returns this representation's position in the owning adoptive
// type's self-class list.
func (r *Representation) Index() int { return r.index }

// PythonType returns instance's Python type. For SharedRepresentation
// this consults the instance via classHolder; otherwise it returns the
// representation's fixed type.
func (r *Representation) PythonType(instance Value) *PyType {
	if r.classOf != nil {
		return r.classOf(instance)
	}
	return r.fixedType
}

// classOfOrFixed implements the classOf rule every ShapeReplaceable
// type's shared Representation installs: if instance carries its own
// mutable __class__ (classHolder), honor it — this is what makes
// __class__ reassignment (PyType.CheckClassAssignment) visible to
// TypeOf — otherwise fall back to the type that was live when the
// clique's first sibling was published.
func classOfOrFixed(instance Value, fallback *PyType) *PyType {
	if holder, ok := instance.(classHolder); ok {
		if t := holder.PyClassHolder(); t != nil {
			return t
		}
	}
	return fallback
}

// HasFeature delegates to instance's Python type.
func (r *Representation) HasFeature(instance Value, flag FeatureFlags) bool {
	t := r.PythonType(instance)
	if t == nil {
		return false
	}
	return t.HasFeature(flag)
}

// IsDataDescriptor reports whether value's own Representation offers a
// __set__ or __delete__ slot, i.e. whether value behaves as a data
// descriptor when found in a type's dict.
func (r *Registry) IsDataDescriptor(value Value) bool {
	repr := r.representationOf(value)
	if repr == nil {
		return false
	}
	return repr.slotFilled(SMSet) || repr.slotFilled(SMDelete)
}

func (r *Representation) slotFilled(sm SpecialMethod) bool {
	_, err := r.slots[sm](nil, nil, nil)
	return !IsEmptySlot(err)
}

// IsEmptySlotFilled reports whether repr has a non-empty slot for sm,
// without invoking it for side effects beyond the stub's own trivial
// error return.
func IsEmptySlotFilled(repr *Representation, sm SpecialMethod) bool {
	return repr.slotFilled(sm)
}

// --- per-signature setters ---

func (r *Representation) SetUnary(sm SpecialMethod, fn UnaryFunc) {
	r.slots[sm] = func(self Value, _ []Value, _ map[string]Value) (Value, error) { return fn(self) }
}

func (r *Representation) SetBinary(sm SpecialMethod, fn BinaryFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		if len(args) < 1 {
			return nil, &ArgumentError{Message: sm.String() + " requires one argument"}
		}
		return fn(self, args[0])
	}
}

func (r *Representation) SetTernary(sm SpecialMethod, fn TernaryFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		var a, b Value
		if len(args) > 0 {
			a = args[0]
		}
		if len(args) > 1 {
			b = args[1]
		}
		return fn(self, a, b)
	}
}

func (r *Representation) SetPredicate(sm SpecialMethod, fn PredicateFunc) {
	r.slots[sm] = func(self Value, _ []Value, _ map[string]Value) (Value, error) {
		ok, err := fn(self)
		return ok, err
	}
}

func (r *Representation) SetLen(sm SpecialMethod, fn LenFunc) {
	r.slots[sm] = func(self Value, _ []Value, _ map[string]Value) (Value, error) {
		n, err := fn(self)
		return n, err
	}
}

func (r *Representation) SetGetItem(sm SpecialMethod, fn GetItemFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		if len(args) < 1 {
			return nil, &ArgumentError{Message: "__getitem__ requires a key"}
		}
		return fn(self, args[0])
	}
}

func (r *Representation) SetSetItem(sm SpecialMethod, fn SetItemFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		if len(args) < 2 {
			return nil, &ArgumentError{Message: "__setitem__ requires a key and a value"}
		}
		return nil, fn(self, args[0], args[1])
	}
}

func (r *Representation) SetDelItem(sm SpecialMethod, fn DelItemFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		if len(args) < 1 {
			return nil, &ArgumentError{Message: "__delitem__ requires a key"}
		}
		return nil, fn(self, args[0])
	}
}

func (r *Representation) SetGetAttr(sm SpecialMethod, fn GetAttrFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		name, _ := args[0].(string)
		return fn(self, name)
	}
}

func (r *Representation) SetSetAttr(sm SpecialMethod, fn SetAttrFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		name, _ := args[0].(string)
		return nil, fn(self, name, args[1])
	}
}

func (r *Representation) SetDelAttr(sm SpecialMethod, fn DelAttrFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		name, _ := args[0].(string)
		return nil, fn(self, name)
	}
}

func (r *Representation) SetDescrGet(sm SpecialMethod, fn DescrGetFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		var obj, owner Value
		if len(args) > 0 {
			obj = args[0]
		}
		if len(args) > 1 {
			owner = args[1]
		}
		return fn(self, obj, owner)
	}
}

func (r *Representation) SetDescrSet(sm SpecialMethod, fn DescrSetFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		return nil, fn(self, args[0], args[1])
	}
}

func (r *Representation) SetDescrDelete(sm SpecialMethod, fn DescrDeleteFunc) {
	r.slots[sm] = func(self Value, args []Value, _ map[string]Value) (Value, error) {
		return nil, fn(self, args[0])
	}
}

func (r *Representation) SetInit(sm SpecialMethod, fn InitFunc) {
	r.slots[sm] = func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
		return nil, fn(self, args, kwargs)
	}
}

func (r *Representation) SetCall(sm SpecialMethod, fn CallFunc) {
	r.slots[sm] = func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
		return fn(self, args, kwargs)
	}
}

// setSlot installs a raw slot function directly, bypassing the typed
// Set* wrappers — used by reflective slot discovery, whose
// implementation is found by name at Expose time rather than supplied
// as a compile-time-checked Go func literal.
func (r *Representation) setSlot(sm SpecialMethod, slot rawSlot) {
	r.slots[sm] = slot
}

// --- per-signature getters/invokers ---

func (r *Representation) Unary(sm SpecialMethod, self Value) (Value, error) {
	return r.slots[sm](self, nil, nil)
}

func (r *Representation) Binary(sm SpecialMethod, self, other Value) (Value, error) {
	return r.slots[sm](self, []Value{other}, nil)
}

func (r *Representation) Ternary(sm SpecialMethod, self, a, b Value) (Value, error) {
	return r.slots[sm](self, []Value{a, b}, nil)
}

func (r *Representation) Predicate(sm SpecialMethod, self Value) (bool, error) {
	v, err := r.slots[sm](self, nil, nil)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

func (r *Representation) Len(sm SpecialMethod, self Value) (int, error) {
	v, err := r.slots[sm](self, nil, nil)
	if err != nil {
		return 0, err
	}
	n, _ := v.(int)
	return n, nil
}

func (r *Representation) GetItem(sm SpecialMethod, self, key Value) (Value, error) {
	return r.slots[sm](self, []Value{key}, nil)
}

func (r *Representation) SetItem(sm SpecialMethod, self, key, value Value) error {
	_, err := r.slots[sm](self, []Value{key, value}, nil)
	return err
}

func (r *Representation) DelItem(sm SpecialMethod, self, key Value) error {
	_, err := r.slots[sm](self, []Value{key}, nil)
	return err
}

func (r *Representation) GetAttrSlot(sm SpecialMethod, self Value, name string) (Value, error) {
	return r.slots[sm](self, []Value{name}, nil)
}

func (r *Representation) SetAttrSlot(sm SpecialMethod, self Value, name string, value Value) error {
	_, err := r.slots[sm](self, []Value{name, value}, nil)
	return err
}

func (r *Representation) DelAttrSlot(sm SpecialMethod, self Value, name string) error {
	_, err := r.slots[sm](self, []Value{name}, nil)
	return err
}

func (r *Representation) DescrGet(sm SpecialMethod, self, obj, owner Value) (Value, error) {
	return r.slots[sm](self, []Value{obj, owner}, nil)
}

func (r *Representation) DescrSet(sm SpecialMethod, self, obj, value Value) error {
	_, err := r.slots[sm](self, []Value{obj, value}, nil)
	return err
}

func (r *Representation) DescrDelete(sm SpecialMethod, self, obj Value) error {
	_, err := r.slots[sm](self, []Value{obj}, nil)
	return err
}

func (r *Representation) InitSlot(sm SpecialMethod, self Value, args []Value, kwargs map[string]Value) error {
	_, err := r.slots[sm](self, args, kwargs)
	return err
}

func (r *Representation) CallSlot(sm SpecialMethod, self Value, args []Value, kwargs map[string]Value) (Value, error) {
	return r.slots[sm](self, args, kwargs)
}
