package pytype

// DynamicInstance is the per-instance storage a SubclassRepresentationGenerator
// hands back for a Replaceable type built at runtime: slot read/write/
// delete for its declared `__slots__`, an optional `__dict__`, and its
// own mutable __class__ (the classHolder contract
// classOfOrFixed/CheckClassAssignment rely on).
type DynamicInstance interface {
	Slot(name string) (Value, bool)
	SetSlot(name string, value Value) bool
	DeleteSlot(name string) bool
	Dict() map[string]Value
	PyClassHolder() *PyType
	SetClass(t *PyType)
}

// SubclassRepresentationGenerator builds the per-instance storage (and
// its constructor) a new Replaceable PyType needs once it joins an
// existing SharedRepresentation clique at runtime — e.g. the host
// interpreter executing a Python `class Sub(Base): __slots__ = (...)`
// statement after bootstrap, per spec §4.3's Replaceable shape.
// TypeFactory.NewReplaceableSubclass depends on this interface, not on
// any concrete instance representation (internal/collab's
// SlottedSubclassGenerator, via its PyTypeSubclassGenerator adapter, is
// the one concrete implementation: Go has no runtime class-synthesis
// equivalent to the host system's, so every generated subclass shares
// one generic instance shape instead of a distinct native class).
type SubclassRepresentationGenerator interface {
	Generate(owner *PyType, slotNames []string, withDict bool) (func() DynamicInstance, error)
}

// NewReplaceableSubclass publishes a new Replaceable sibling of parent,
// sharing parent's SharedRepresentation (so instances of either type
// satisfy the same native-class binding and __class__ reassignment
// between them is possible per PyType.CheckClassAssignment) and backed
// by gen's generated instance storage for slotNames.
func (f *TypeFactory) NewReplaceableSubclass(parent *PyType, name string, slotNames []string, withDict bool, gen SubclassRepresentationGenerator) (*PyType, func() DynamicInstance, error) {
	f.enter()
	defer f.leave()

	if parent.shape != ShapeReplaceable || parent.shared == nil {
		return nil, nil, newTypeError("cannot create a Replaceable subclass of non-Replaceable type %q", parent.name)
	}
	if _, ok := f.types[name]; ok {
		return nil, nil, newTypeError("type %q is already published", name)
	}

	bases := []*PyType{parent}
	t := NewType(name, ShapeReplaceable, bases)
	t.feature = parent.feature

	mro, err := computeC3MRO(t, bases)
	if err != nil {
		return nil, nil, err
	}
	t.mro = mro
	t.shared = parent.shared
	if f.metaclass != nil {
		t.setMetaclass(f.metaclass)
	}

	for _, slotName := range slotNames {
		descr := newSlotMemberDescriptor(t, slotName)
		if err := t.SetDictEntry(slotName, descr); err != nil {
			return nil, nil, err
		}
	}
	t.layoutSig = layoutSignatureOf(t)
	RunSetNameHooks(t)

	ctor, err := gen.Generate(t, slotNames, withDict)
	if err != nil {
		return nil, nil, err
	}

	// Instances of a generated subclass carry *PyType indirectly via
	// DynamicInstance, not reflect.TypeOf(instance); the SharedRepresentation
	// they share already dispatches on classHolder (classOfOrFixed), so no
	// Registry binding is needed for this native shape.
	f.types[name] = t
	return t, ctor, nil
}

// newSlotMemberDescriptor exposes one declared __slots__ entry of a
// runtime-generated subclass as a MemberDescriptor backed by the
// instance's DynamicInstance storage rather than a reflect.StructField
// (the generated subclass has no native Go struct of its own).
func newSlotMemberDescriptor(t *PyType, slotName string) *MemberDescriptor {
	get := func(instance Value) (Value, bool, error) {
		di, ok := instance.(DynamicInstance)
		if !ok {
			return nil, false, newInternalError("subclass %q slot %q: instance does not implement DynamicInstance", t.name, slotName)
		}
		v, ok := di.Slot(slotName)
		return v, ok, nil
	}
	set := func(instance Value, value Value) error {
		di, ok := instance.(DynamicInstance)
		if !ok {
			return newInternalError("subclass %q slot %q: instance does not implement DynamicInstance", t.name, slotName)
		}
		if !di.SetSlot(slotName, value) {
			return newAttributeError(t.name, slotName, "not a declared slot")
		}
		return nil
	}
	del := func(instance Value) error {
		di, ok := instance.(DynamicInstance)
		if !ok {
			return newInternalError("subclass %q slot %q: instance does not implement DynamicInstance", t.name, slotName)
		}
		if !di.DeleteSlot(slotName) {
			return newAttributeError(t.name, slotName, "not a declared slot")
		}
		return nil
	}
	return NewMemberDescriptor(slotName, t, FieldObject, false, true, get, set, del)
}
