package pytype

import "reflect"

// Descriptor is implemented by every value that can live in a PyType's
// dict and bridge attribute access to native code. All four kinds from
// spec §4.4 (Member, GetSet, Wrapper, Method) implement it.
type Descriptor interface {
	Name() string
	ObjClass() *PyType
	Get(reg *Registry, obj, owner Value) (Value, error)
}

// DataDescriptor is a Descriptor that additionally implements __set__
// and/or __delete__. The attribute protocol (C8) gives these precedence
// over instance-dict entries.
type DataDescriptor interface {
	Descriptor
	Set(reg *Registry, obj, value Value) error
	Delete(reg *Registry, obj Value) error
}

// SetNameAware is implemented by any dict value that wants to learn its
// owning type and attribute name once it is installed, mirroring
// CPython's __set_name__ hook. None of the four built-in descriptor
// kinds need it for themselves; it exists for collaborator-supplied
// values (e.g. a PyInstance-backed descriptor bridged in from the
// interpreter's own object model, the way internal/runtime's callSetName
// drives __set_name__ for its PyClass dicts) that TypeSpec.Method or a
// direct SetDictEntry installs into a PyType.
type SetNameAware interface {
	SetName(owner *PyType, name string)
}

// checkSelf verifies type(obj) is a subclass of objClass, the invariant
// every descriptor's Get/Set/Delete must enforce before touching obj.
func checkSelf(reg *Registry, obj Value, objClass *PyType, descrName string) error {
	t := reg.TypeOf(obj)
	if t == nil || !t.IsSubtypeOf(objClass) {
		gotName := "<unknown>"
		if t != nil {
			gotName = t.Name()
		}
		return newTypeError("descriptor '%s' for '%s' objects doesn't apply to a '%s' object",
			descrName, objClass.Name(), gotName)
	}
	return nil
}

// FieldKind identifies a MemberDescriptor's primitive coercion rule.
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldFloat
	FieldString
	FieldBool
	FieldObject // reference type; the only kind that may be Optional
)

// MemberDescriptor exposes a typed native field as an instance
// attribute, per spec §4.4. get/set/del are built by the TypeExposer
// from a reflect.StructField; MemberDescriptor itself holds no
// reflection state so it stays trivially testable without a live native
// instance type.
type MemberDescriptor struct {
	name     string
	objClass *PyType
	doc      string
	kind     FieldKind
	readOnly bool
	optional bool

	get func(instance Value) (value Value, present bool, err error)
	set func(instance Value, value Value) error
	del func(instance Value) error
}

// NewMemberDescriptor builds a MemberDescriptor. get must never be nil;
// set/del may be nil (readOnly implies set is nil; non-optional
// non-reference fields imply del is nil).
func NewMemberDescriptor(name string, objClass *PyType, kind FieldKind, readOnly, optional bool,
	get func(Value) (Value, bool, error), set func(Value, Value) error, del func(Value) error) *MemberDescriptor {
	return &MemberDescriptor{
		name: name, objClass: objClass, kind: kind,
		readOnly: readOnly, optional: optional,
		get: get, set: set, del: del,
	}
}

func (d *MemberDescriptor) Name() string      { return d.name }
func (d *MemberDescriptor) ObjClass() *PyType { return d.objClass }
func (d *MemberDescriptor) SetDoc(doc string) { d.doc = doc }
func (d *MemberDescriptor) Doc() string       { return d.doc }

func (d *MemberDescriptor) Get(reg *Registry, obj, _ Value) (Value, error) {
	if err := checkSelf(reg, obj, d.objClass, d.name); err != nil {
		return nil, err
	}
	val, present, err := d.get(obj)
	if err != nil {
		return nil, err
	}
	if !present {
		if d.optional {
			return nil, newAttributeError(d.objClass.Name(), d.name, "not set")
		}
		return nil, nil // reference field absent, non-optional: Python None
	}
	return val, nil
}

func (d *MemberDescriptor) Set(reg *Registry, obj, value Value) error {
	if err := checkSelf(reg, obj, d.objClass, d.name); err != nil {
		return err
	}
	if d.readOnly {
		return newAttributeError(d.objClass.Name(), d.name, "read-only")
	}
	if err := d.set(obj, value); err != nil {
		return newTypeError("%s", err.Error())
	}
	return nil
}

func (d *MemberDescriptor) Delete(reg *Registry, obj Value) error {
	if err := checkSelf(reg, obj, d.objClass, d.name); err != nil {
		return err
	}
	if d.kind != FieldObject {
		return newAttributeError(d.objClass.Name(), d.name, "cannot be deleted")
	}
	if d.del == nil {
		return newAttributeError(d.objClass.Name(), d.name, "cannot be deleted")
	}
	return d.del(obj)
}

// GetSetDescriptor exposes up to three function pointers (get/set/delete)
// and supports types with multiple self-classes by holding a table
// indexed by self-class, per spec §4.4.
type GetSetDescriptor struct {
	name     string
	objClass *PyType
	doc      string

	getByIndex []func(obj Value) (Value, error)
	setByIndex []func(obj Value, value Value) error
	delByIndex []func(obj Value) error
}

// NewGetSetDescriptor builds a GetSetDescriptor with room for
// selfClassCount self-classes; fill per-index entries with SetGetter/
// SetSetter/SetDeleter.
func NewGetSetDescriptor(name string, objClass *PyType, selfClassCount int) *GetSetDescriptor {
	return &GetSetDescriptor{
		name: name, objClass: objClass,
		getByIndex: make([]func(Value) (Value, error), selfClassCount),
		setByIndex: make([]func(Value, Value) error, selfClassCount),
		delByIndex: make([]func(Value) error, selfClassCount),
	}
}

func (d *GetSetDescriptor) Name() string      { return d.name }
func (d *GetSetDescriptor) ObjClass() *PyType { return d.objClass }
func (d *GetSetDescriptor) SetDoc(doc string) { d.doc = doc }
func (d *GetSetDescriptor) Doc() string       { return d.doc }

func (d *GetSetDescriptor) SetGetter(index int, fn func(Value) (Value, error)) { d.getByIndex[index] = fn }
func (d *GetSetDescriptor) SetSetter(index int, fn func(Value, Value) error)   { d.setByIndex[index] = fn }
func (d *GetSetDescriptor) SetDeleter(index int, fn func(Value) error)        { d.delByIndex[index] = fn }

// resolveIndex implements the selection algorithm from spec §4.4: exact
// self-class match by Representation.Index(), else a subtype whose
// accepted native class matches obj's actual class, else -1 (empty
// slot).
func (d *GetSetDescriptor) resolveIndex(reg *Registry, obj Value) (int, error) {
	t := reg.TypeOf(obj)
	if t == d.objClass {
		repr := reg.representationFor(obj)
		return repr.Index(), nil
	}
	if t == nil || !t.IsSubtypeOf(d.objClass) {
		return -1, newTypeError("descriptor '%s' for '%s' objects doesn't apply to a '%s' object",
			d.name, d.objClass.Name(), typeNameOrUnknown(t))
	}
	idx := d.objClass.SubclassIndex(reflect.TypeOf(obj))
	return idx, nil
}

func typeNameOrUnknown(t *PyType) string {
	if t == nil {
		return "<unknown>"
	}
	return t.Name()
}

func (d *GetSetDescriptor) Get(reg *Registry, obj, _ Value) (Value, error) {
	idx, err := d.resolveIndex(reg, obj)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(d.getByIndex) || d.getByIndex[idx] == nil {
		return nil, newAttributeError(d.objClass.Name(), d.name, "no such attribute")
	}
	return d.getByIndex[idx](obj)
}

func (d *GetSetDescriptor) Set(reg *Registry, obj, value Value) error {
	idx, err := d.resolveIndex(reg, obj)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(d.setByIndex) || d.setByIndex[idx] == nil {
		return newAttributeError(d.objClass.Name(), d.name, "read-only")
	}
	return d.setByIndex[idx](obj, value)
}

func (d *GetSetDescriptor) Delete(reg *Registry, obj Value) error {
	idx, err := d.resolveIndex(reg, obj)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(d.delByIndex) || d.delByIndex[idx] == nil {
		return newAttributeError(d.objClass.Name(), d.name, "cannot be deleted")
	}
	return d.delByIndex[idx](obj)
}

// WrapperDescriptor binds a SpecialMethod kind to the owning type,
// dispatching through whichever Representation obj's actual native
// class is registered under (each adopted class already carries its own
// Representation with the correct function pointer filled in, so
// selection here is simply "ask the registry for obj's representation").
type WrapperDescriptor struct {
	name     string
	sm       SpecialMethod
	objClass *PyType
	doc      string
}

// NewWrapperDescriptor builds a WrapperDescriptor for sm, owned by objClass.
func NewWrapperDescriptor(name string, sm SpecialMethod, objClass *PyType) *WrapperDescriptor {
	return &WrapperDescriptor{name: name, sm: sm, objClass: objClass}
}

func (d *WrapperDescriptor) Name() string      { return d.name }
func (d *WrapperDescriptor) ObjClass() *PyType { return d.objClass }
func (d *WrapperDescriptor) SetDoc(doc string) { d.doc = doc }
func (d *WrapperDescriptor) Doc() string       { return d.doc }

// Get implements the descriptor protocol: binds self, returning a
// callable BoundWrapper.
func (d *WrapperDescriptor) Get(reg *Registry, obj, _ Value) (Value, error) {
	if obj == nil {
		return d, nil
	}
	if err := checkSelf(reg, obj, d.objClass, d.name); err != nil {
		return nil, err
	}
	return &BoundWrapper{Descriptor: d, Self: obj}, nil
}

// Call implements the WrapperDescriptor.__call__ algorithm from spec
// §4.4: require a self argument, verify its type, select the per-class
// function pointer via the registry, and invoke.
func (d *WrapperDescriptor) Call(reg *Registry, args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) < 1 {
		return nil, newTypeError("%s() missing required argument: 'self'", d.name)
	}
	self := args[0]
	if err := checkSelf(reg, self, d.objClass, d.name); err != nil {
		return nil, err
	}
	repr := reg.representationFor(self)
	v, err := repr.slots[d.sm](self, args[1:], kwargs)
	if err != nil {
		if IsEmptySlot(err) {
			return nil, newTypeError("'%s' object does not support %s", d.objClass.Name(), d.name)
		}
		return nil, err
	}
	return v, nil
}

// BoundWrapper is the result of binding a WrapperDescriptor to an
// instance via the descriptor protocol (e.g. `x.__add__`).
type BoundWrapper struct {
	Descriptor *WrapperDescriptor
	Self       Value
}

// Call invokes the bound wrapper with the remaining (non-self) arguments.
func (b *BoundWrapper) Call(reg *Registry, args []Value, kwargs map[string]Value) (Value, error) {
	full := append([]Value{b.Self}, args...)
	return b.Descriptor.Call(reg, full, kwargs)
}

// MethodDescriptor is an ordinary exposed method (@PythonMethod) or the
// special __new__ case (@PythonNewMethod). Supports the method-descriptor
// optimized call pattern: a loose self as the first positional argument
// is equivalent to binding then calling.
type MethodDescriptor struct {
	name     string
	qualname string
	objClass *PyType
	doc      string
	isNew    bool
	fn       CallFunc

	sig       *CallSignature
	marshaler ArgumentMarshaler
}

// NewMethodDescriptor builds a MethodDescriptor whose body is fn.
func NewMethodDescriptor(name string, objClass *PyType, fn CallFunc) *MethodDescriptor {
	return &MethodDescriptor{name: name, objClass: objClass, fn: fn}
}

// NewNewMethodDescriptor builds the special __new__ MethodDescriptor
// variant (its self argument is the type being instantiated, not an
// instance).
func NewNewMethodDescriptor(objClass *PyType, fn CallFunc) *MethodDescriptor {
	return &MethodDescriptor{name: "__new__", objClass: objClass, fn: fn, isNew: true}
}

func (d *MethodDescriptor) Name() string        { return d.name }
func (d *MethodDescriptor) ObjClass() *PyType   { return d.objClass }
func (d *MethodDescriptor) IsNew() bool         { return d.isNew }
func (d *MethodDescriptor) SetQualname(q string) { d.qualname = q }
func (d *MethodDescriptor) Qualname() string    { return d.qualname }
func (d *MethodDescriptor) SetDoc(doc string)   { d.doc = doc }
func (d *MethodDescriptor) Doc() string         { return d.doc }

// SetSignature attaches sig and marshaler: Call will marshal positional/
// keyword arguments against sig via marshaler before invoking d.fn,
// instead of passing them through unchecked. marshaler may be nil (a
// factory with no ArgumentMarshaler attached), in which case Call falls
// back to the unmarshaled behavior as if SetSignature were never called.
func (d *MethodDescriptor) SetSignature(sig CallSignature, marshaler ArgumentMarshaler) {
	d.sig = &sig
	d.marshaler = marshaler
}

func (d *MethodDescriptor) Get(reg *Registry, obj, _ Value) (Value, error) {
	if obj == nil {
		return d, nil
	}
	if !d.isNew {
		if err := checkSelf(reg, obj, d.objClass, d.name); err != nil {
			return nil, err
		}
	}
	return &BoundMethod{Descriptor: d, Self: obj}, nil
}

// Call implements the method-descriptor optimized call pattern: args[0]
// is treated as the loose self. If a CallSignature is attached (spec
// §4.4 step 4), the remaining arguments are marshaled against it first.
func (d *MethodDescriptor) Call(reg *Registry, args []Value, kwargs map[string]Value) (Value, error) {
	if len(args) < 1 {
		return nil, newTypeError("%s() missing required argument: 'self'", d.name)
	}
	self := args[0]
	if !d.isNew {
		if err := checkSelf(reg, self, d.objClass, d.name); err != nil {
			return nil, err
		}
	}
	rest, kw := args[1:], kwargs
	if d.sig != nil && d.marshaler != nil {
		marshaled, err := d.marshaler.Parse(*d.sig, rest, kwargs)
		if err != nil {
			return nil, newTypeError("%s", err.Error())
		}
		rest, kw = marshaled, nil
	}
	return d.fn(self, rest, kw)
}

// BoundMethod is the result of binding a MethodDescriptor to an instance.
type BoundMethod struct {
	Descriptor *MethodDescriptor
	Self       Value
}

// Call invokes the bound method with the remaining arguments.
func (b *BoundMethod) Call(reg *Registry, args []Value, kwargs map[string]Value) (Value, error) {
	full := append([]Value{b.Self}, args...)
	return b.Descriptor.Call(reg, full, kwargs)
}
