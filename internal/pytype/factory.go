package pytype

import (
	"reflect"
	"sync"
)

// BaseResolver supplies the FrozenSpec for a not-yet-built base type by
// name, letting FromSpec build dependency chains on demand. Returning an
// error (e.g. "unknown type") aborts the whole FromSpec call.
type BaseResolver func(name string) (*FrozenSpec, error)

// TypeFactory is the single writer of a Registry: it turns FrozenSpecs
// into published PyTypes. Construction is reentrant (FromSpec may call
// itself while resolving a base that isn't built yet) but never
// concurrent — the factory serializes all writers through one mutex,
// entered once per top-level call and held across any nested recursive
// calls from the same goroutine.
type TypeFactory struct {
	reg     *Registry
	exposer *TypeExposer

	mu    sync.Mutex
	depth int

	types     map[string]*PyType // name -> published type, visible only once FromSpec returns it
	metaclass *PyType            // `type` itself, set once Bootstrap closes the cycle
}

// NewTypeFactory returns a TypeFactory that publishes into reg. introspector
// may be nil (discovery-free, manual TypeSpec staging only, as the
// bootstrap path and internal/pytype/demo's simple Adoptive int use); a
// non-nil introspector (internal/collab.ReflectIntrospector is the
// concrete adapter) lets FromSpec-published types use TypeSpec's
// WithDiscoveredMembers/WithDiscoveredSlots reflective-discovery path.
func NewTypeFactory(reg *Registry, introspector NativeClassIntrospector) *TypeFactory {
	return &TypeFactory{
		reg:     reg,
		exposer: NewTypeExposer(introspector),
		types:   make(map[string]*PyType),
	}
}

// SetArgumentMarshaler attaches the marshaler MethodDescriptor.Call uses
// to coerce positional/keyword arguments against a staged CallSignature
// (TypeSpec.MethodWithSignature), per spec §4.4 step 4. Optional: a
// factory with no marshaler attached falls back to passing args/kwargs
// through unmarshaled, same as a method staged without a signature.
func (f *TypeFactory) SetArgumentMarshaler(m ArgumentMarshaler) {
	f.exposer.marshaler = m
}

// SetBytecodeEvaluator attaches the evaluator TypeSpec.PythonMethod's
// staged methods run through (internal/collab.VMEvaluator is the
// concrete adapter over the host interpreter's VM).
func (f *TypeFactory) SetBytecodeEvaluator(e BytecodeEvaluator) {
	f.exposer.evaluator = e
}

func (f *TypeFactory) enter() {
	if f.depth == 0 {
		f.mu.Lock()
	}
	f.depth++
}

func (f *TypeFactory) leave() {
	f.depth--
	if f.depth == 0 {
		f.mu.Unlock()
	}
}

// Lookup returns a previously published type by name, or nil.
func (f *TypeFactory) Lookup(name string) *PyType {
	f.enter()
	defer f.leave()
	return f.types[name]
}

// Bootstrap builds and publishes `object`, then `type`, then closes the
// cyclic graph spec §4.7 step 1 and §9 "Cyclic graphs" require: `type`
// is Adoptive-less but Simple over *PyType itself, its one base is
// `object`, and both `object.metaclass` and `type.metaclass` are `type`.
// Because every *PyType value (object included) shares *PyType as its
// native Go class, the Registry's ordinary exact-match lookup already
// makes `type(object) is type` and `type(type) is type` both resolve
// through the same binding — no special-casing beyond publishing `type`
// and wiring the two metaclass pointers is needed. Must be called
// exactly once, before any other FromSpec call.
func (f *TypeFactory) Bootstrap(objectClass reflect.Type) (*PyType, error) {
	f.enter()
	defer f.leave()

	if existing, ok := f.types["object"]; ok {
		return existing, nil
	}

	objSpec := NewTypeSpec("object", objectClass).WithFeature(BASETYPE | INSTANTIABLE)
	objFS, err := objSpec.Freeze()
	if err != nil {
		return nil, err
	}
	objType, err := f.buildLocked(objFS, nil)
	if err != nil {
		return nil, err
	}
	f.reg.SetObjectRepresentation(objType.selfClasses[0].repr)

	typeSpec := NewTypeSpec("type", reflect.TypeOf((*PyType)(nil))).
		WithBase("object").
		WithFeature(BASETYPE | INSTANTIABLE | TYPE_SUBCLASS)
	typeFS, err := typeSpec.Freeze()
	if err != nil {
		return nil, err
	}
	typeType, err := f.buildLocked(typeFS, nil)
	if err != nil {
		return nil, err
	}

	f.metaclass = typeType
	objType.setMetaclass(typeType)
	typeType.setMetaclass(typeType)

	return objType, nil
}

// FromSpec builds and publishes the type described by fs, resolving any
// not-yet-built base types through resolve (nil if fs.baseNames is
// already fully satisfied by previously published types). Idempotent:
// calling FromSpec again with the same fs.name returns the
// already-published type.
func (f *TypeFactory) FromSpec(fs *FrozenSpec, resolve BaseResolver) (*PyType, error) {
	f.enter()
	defer f.leave()
	return f.buildLocked(fs, resolve)
}

// buildLocked assumes the factory's critical section is already held
// (directly or by an outer FromSpec/Bootstrap call in the same
// goroutine).
func (f *TypeFactory) buildLocked(fs *FrozenSpec, resolve BaseResolver) (*PyType, error) {
	if existing, ok := f.types[fs.name]; ok {
		return existing, nil
	}

	bases := make([]*PyType, 0, len(fs.baseNames))
	for _, name := range fs.baseNames {
		if t, ok := f.types[name]; ok {
			bases = append(bases, t)
			continue
		}
		if resolve == nil {
			return nil, newInternalError("FromSpec %q: base %q is not yet published and no resolver was supplied", fs.name, name)
		}
		baseSpec, err := resolve(name)
		if err != nil {
			return nil, newTypeError("FromSpec %q: resolving base %q: %s", fs.name, name, err.Error())
		}
		baseType, err := f.buildLocked(baseSpec, resolve)
		if err != nil {
			return nil, err
		}
		bases = append(bases, baseType)
	}

	if len(bases) == 0 && fs.name != "object" {
		if obj, ok := f.types["object"]; ok {
			bases = []*PyType{obj}
		}
	}

	t := NewType(fs.name, fs.shape, bases)
	t.feature = fs.feature

	mro, err := computeC3MRO(t, bases)
	if err != nil {
		return nil, err
	}
	t.mro = mro

	reprs, err := f.exposer.Expose(t, fs)
	if err != nil {
		return nil, err
	}

	if fs.shape == ShapeReplaceable {
		t.shared = reprs[0]
		fixed := t
		reprs[0].classOf = func(instance Value) *PyType { return classOfOrFixed(instance, fixed) }
		t.layoutSig = layoutSignatureOf(t)
	}

	// Every type other than `object`/`type` themselves (wired directly by
	// Bootstrap, which runs before f.metaclass exists) gets `type` as its
	// metaclass once Bootstrap has closed the cycle.
	if f.metaclass != nil {
		t.setMetaclass(f.metaclass)
	}

	// Every self-class (primary, adopted, or merely accepted) needs its own
	// native-class -> Representation binding so Registry.Get resolves
	// instances of it to t; accepted classes simply alias the primary's
	// Representation rather than getting a distinct self-class index.
	bindings := make(map[reflect.Type]*Representation, len(t.selfClasses))
	for _, sc := range t.selfClasses {
		bindings[sc.class] = sc.repr
	}
	if err := f.reg.RegisterAll(bindings); err != nil {
		return nil, err
	}

	// Published only now: before this point t was a workshop artifact not
	// reachable from f.types or the Registry's snapshot, so no reader could
	// have observed a partially-built type.
	f.types[fs.name] = t
	return t, nil
}

// layoutSignatureOf derives a Replaceable type's layout signature from
// its own dict: the set of MemberDescriptor names (its "slots", in the
// CPython __slots__ sense) plus whether it declared IMMUTABLE.
func layoutSignatureOf(t *PyType) layoutSignature {
	var names []string
	for name, v := range t.dict {
		if _, ok := v.(*MemberDescriptor); ok {
			names = append(names, name)
		}
	}
	return layoutSignature{
		slots:     names,
		hasDict:   true,
		immutable: t.feature&IMMUTABLE != 0,
	}
}
