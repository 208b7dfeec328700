package pytype

import (
	"fmt"
	"reflect"
)

// TypeExposer turns a FrozenSpec's staged (or reflectively discovered)
// members/methods/slots into real Descriptors and installs them in a
// PyType's dict, plus builds the Representation(s) the spec's
// self-classes need. Manual staging (TypeSpec.Member/Method/Slot) is
// handled directly; reflective discovery (TypeSpec.WithDiscoveredMembers/
// WithDiscoveredSlots, spec §4.6) is delegated to introspector so this
// package depends on the NativeClassIntrospector interface rather than
// a hardwired reflect.Value field/method walk over every native class.
type TypeExposer struct {
	introspector NativeClassIntrospector
	marshaler    ArgumentMarshaler
	evaluator    BytecodeEvaluator
}

// NewTypeExposer returns a ready-to-use TypeExposer. introspector may be
// nil (WithDiscoveredMembers/WithDiscoveredSlots become no-ops/errors;
// manual staging still works); TypeFactory.SetArgumentMarshaler and
// SetBytecodeEvaluator attach the other two collaborators after
// construction since they're per-factory, not per-exposer, concerns.
func NewTypeExposer(introspector NativeClassIntrospector) *TypeExposer {
	return &TypeExposer{introspector: introspector}
}

// Expose populates t's dict from fs and fills the Representations for
// each of fs's self-classes, returning them in self-class order (index 0
// = primary). t must already have its MRO computed; Expose only adds
// entries to t's own dict, it does not consult bases.
func (e *TypeExposer) Expose(t *PyType, fs *FrozenSpec) ([]*Representation, error) {
	reprs, err := e.buildRepresentations(t, fs)
	if err != nil {
		return nil, err
	}

	if err := e.discoverAndFillSlots(t, fs, reprs); err != nil {
		return nil, err
	}

	members := fs.members
	if fs.discoverMembers {
		members, err = discoverMembers(e.introspector, fs.name, fs.primaryClass, fs.members)
		if err != nil {
			return nil, err
		}
	}
	for _, m := range members {
		descr, err := e.buildMemberDescriptor(t, fs.primaryClass, m)
		if err != nil {
			return nil, err
		}
		if err := t.SetDictEntry(descr.Name(), descr); err != nil {
			return nil, err
		}
	}

	for _, m := range fs.methods {
		descr, err := e.buildMethodDescriptor(t, m)
		if err != nil {
			return nil, err
		}
		if err := t.SetDictEntry(descr.Name(), descr); err != nil {
			return nil, err
		}
	}

	for _, sm := range allSlotWrapperNames() {
		if IsEmptySlotFilled(reprs[0], sm) {
			descr := NewWrapperDescriptor(sm.String(), sm, t)
			if err := t.SetDictEntry(descr.Name(), descr); err != nil {
				return nil, err
			}
		}
	}

	e.deriveFeatureFlags(t, reprs[0])
	RunSetNameHooks(t)
	return reprs, nil
}

// RunSetNameHooks walks t's own dict and invokes __set_name__(owner,
// name) on any entry that implements SetNameAware, mirroring
// internal/runtime/builtins_classes.go's callSetName. TypeExposer.Expose
// calls this once automatically; callers that populate a PyType's dict
// by other means (a collaborator bridging in a dynamically-built class,
// the way internal/collab binds Python-level subclass bodies) must call
// it again once their own population pass is complete.
func RunSetNameHooks(t *PyType) {
	for name, v := range t.Dict() {
		if aware, ok := v.(SetNameAware); ok {
			aware.SetName(t, name)
		}
	}
}

// buildRepresentations allocates one Representation per self-class
// (primary at index 0, then each Adopt/Accept entry in call order),
// fills slots staged against each index via fs.slots, and points each
// back at t as its fixed PythonType (Simple/Adoptive) — Replaceable
// types instead get a SharedRepresentation installed by the factory
// after Expose returns, overriding index 0's fixedType with classOf.
func (e *TypeExposer) buildRepresentations(t *PyType, fs *FrozenSpec) ([]*Representation, error) {
	classes := make([]reflect.Type, 0, 1+len(fs.selfClasses))
	accepted := make([]bool, 0, 1+len(fs.selfClasses))
	classes = append(classes, fs.primaryClass)
	accepted = append(accepted, false)
	for _, sc := range fs.selfClasses {
		classes = append(classes, sc.class)
		accepted = append(accepted, sc.accepted)
	}

	reprs := make([]*Representation, len(classes))
	for i, class := range classes {
		if accepted[i] {
			continue // accepted self-classes reuse the primary's Representation, no entry of their own
		}
		r := newEmptyRepresentation(class, representationKindFor(t.shape))
		r.index = i
		r.fixedType = t
		reprs[i] = r
	}
	for i := range accepted {
		if accepted[i] {
			reprs[i] = reprs[0]
		}
	}

	for _, ss := range fs.slots {
		if ss.selfClass < 0 || ss.selfClass >= len(reprs) || reprs[ss.selfClass] == nil {
			return nil, newInternalError("TypeSpec %q: slot staged for unknown self-class index %d", fs.name, ss.selfClass)
		}
		ss.rawSetter(reprs[ss.selfClass])
	}

	t.selfClasses = make([]selfClass, len(classes))
	for i, class := range classes {
		t.selfClasses[i] = selfClass{class: class, repr: reprs[i], accepted: accepted[i]}
	}

	return reprs, nil
}

// discoverAndFillSlots implements the reflective half of spec §4.6:
// for each SpecialMethod fs staged via WithDiscoveredSlots, probe every
// non-accepted self-class for an applicable Go method (goMethodNameFor)
// and fill that self-class's Representation slot with it. A self-class
// with no applicable implementation is an InternalError — the spec's
// mandated failure mode for an adoptive type that can't actually
// satisfy the dunder it claims every self-class supports.
func (e *TypeExposer) discoverAndFillSlots(t *PyType, fs *FrozenSpec, reprs []*Representation) error {
	if len(fs.discoverSlots) == 0 {
		return nil
	}
	for _, sm := range fs.discoverSlots {
		for i, sc := range t.selfClasses {
			if sc.accepted {
				continue
			}
			method, found, err := discoverSlot(e.introspector, sc.class, sm)
			if err != nil {
				return err
			}
			if !found {
				return newInternalError("TypeSpec %q: self-class %s has no applicable implementation of %s", fs.name, sc.class, sm)
			}
			reprs[i].setSlot(sm, makeDiscoveredSlot(sm, method.Name))
		}
	}
	return nil
}

func representationKindFor(shape TypeShape) RepresentationKind {
	switch shape {
	case ShapeReplaceable:
		return SharedRepresentation
	case ShapeAdoptive:
		return AdoptedRepresentation
	default:
		return SimpleRepresentation
	}
}

// buildMemberDescriptor resolves m.field against primaryClass via
// reflect, producing get/set/del closures that box/unbox the Go struct
// field value as a Python attribute value.
func (e *TypeExposer) buildMemberDescriptor(t *PyType, primaryClass reflect.Type, m memberSpec) (*MemberDescriptor, error) {
	structType := primaryClass
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, newInternalError("TypeSpec %q: member %q: primary native class is not a struct", t.name, m.name)
	}
	field, ok := structType.FieldByName(m.field)
	if !ok {
		return nil, newInternalError("TypeSpec %q: member %q: no struct field %q", t.name, m.name, m.field)
	}

	get := func(instance Value) (Value, bool, error) {
		v := dereference(reflect.ValueOf(instance))
		fv := v.FieldByIndex(field.Index)
		if m.kind == FieldObject && fv.Kind() == reflect.Ptr && fv.IsNil() {
			return nil, false, nil
		}
		return fv.Interface(), true, nil
	}

	var set func(Value, Value) error
	if !m.readOnly {
		set = func(instance Value, value Value) error {
			v := dereference(reflect.ValueOf(instance))
			fv := v.FieldByIndex(field.Index)
			if !fv.CanSet() {
				return newInternalError("TypeSpec %q: member %q: field not addressable (pass a pointer instance)", t.name, m.name)
			}
			rv := reflect.ValueOf(value)
			if !rv.IsValid() {
				if fv.Kind() != reflect.Ptr && fv.Kind() != reflect.Interface {
					return newTypeError("cannot assign None to non-reference attribute %q", m.name)
				}
				fv.Set(reflect.Zero(fv.Type()))
				return nil
			}
			if !rv.Type().AssignableTo(fv.Type()) {
				return newTypeError("attribute %q: expected %s, got %s", m.name, fv.Type(), rv.Type())
			}
			fv.Set(rv)
			return nil
		}
	}

	var del func(Value) error
	if m.kind == FieldObject {
		del = func(instance Value) error {
			v := dereference(reflect.ValueOf(instance))
			fv := v.FieldByIndex(field.Index)
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
	}

	return NewMemberDescriptor(m.name, t, m.kind, m.readOnly, m.optional, get, set, del), nil
}

func dereference(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Ptr {
		return v.Elem()
	}
	return v
}

// buildMethodDescriptor realizes a staged methodSpec. A Python-bodied
// method (TypeSpec.PythonMethod) is wrapped into a CallFunc that runs
// its code through e.evaluator, binding `self` plus the positional
// arguments into locals before execution and reading back `__result__`
// afterward (the same convention internal/collab.VMEvaluator's own test
// exercises) — TypeExposer depends on BytecodeEvaluator, never on a
// concrete VM, for this. A method staged with a CallSignature
// (TypeSpec.MethodWithSignature) gets that signature and the factory's
// ArgumentMarshaler attached so MethodDescriptor.Call marshals its
// arguments before invoking fn.
func (e *TypeExposer) buildMethodDescriptor(t *PyType, m methodSpec) (*MethodDescriptor, error) {
	fn := m.fn
	if m.pyCode != nil {
		if e.evaluator == nil {
			return nil, newInternalError("TypeSpec %q: method %q has Python code but no BytecodeEvaluator is attached", t.name, m.name)
		}
		code := m.pyCode
		evaluator := e.evaluator
		fn = func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
			locals := make(map[string]Value, len(args)+1)
			locals["self"] = self
			for i, a := range args {
				locals[fmt.Sprintf("arg%d", i)] = a
			}
			globals := make(map[string]Value, len(kwargs))
			for k, v := range kwargs {
				globals[k] = v
			}
			return evaluator.Eval(code, globals, locals)
		}
	}

	var descr *MethodDescriptor
	if m.isNew {
		descr = NewNewMethodDescriptor(t, fn)
	} else {
		descr = NewMethodDescriptor(m.name, t, fn)
	}
	descr.SetDoc(m.doc)
	if m.sig != nil {
		descr.SetSignature(*m.sig, e.marshaler)
	}
	return descr, nil
}

// deriveFeatureFlags sets the four derived flags (HAS_SET, HAS_DELETE,
// HAS_GETITEM, IS_DATA_DESCR) from the primary representation's filled
// slots, per spec §4.3.
func (e *TypeExposer) deriveFeatureFlags(t *PyType, primary *Representation) {
	if IsEmptySlotFilled(primary, SMSet) {
		t.addFeature(HAS_SET)
	}
	if IsEmptySlotFilled(primary, SMDelete) {
		t.addFeature(HAS_DELETE)
	}
	if IsEmptySlotFilled(primary, SMGetItem) {
		t.addFeature(HAS_GETITEM)
	}
	if IsEmptySlotFilled(primary, SMSet) || IsEmptySlotFilled(primary, SMDelete) {
		t.addFeature(IS_DATA_DESCR)
	}
}

// allSlotWrapperNames lists the SpecialMethods that get a WrapperDescriptor
// when filled (every slot except SMNew/SMInit, which use MethodDescriptor
// semantics instead since they're staged via TypeSpec.Method/NewMethod).
func allSlotWrapperNames() []SpecialMethod {
	out := make([]SpecialMethod, 0, numSpecialMethod)
	for sm := SpecialMethod(0); sm < numSpecialMethod; sm++ {
		if sm == SMNew || sm == SMInit {
			continue
		}
		out = append(out, sm)
	}
	return out
}
