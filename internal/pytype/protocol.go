package pytype

// GetAttribute implements the default `__getattribute__` algorithm (spec
// §4.8, CPython's data-model precedence): a data descriptor found via
// MRO lookup wins over the instance dict, which wins over a non-data
// descriptor or plain class attribute found via MRO lookup.
//
// instanceDict is the caller's view of obj's own __dict__ (nil if obj's
// type has no instance dict); it is read-only from this function's
// perspective — callers own instance-dict storage.
func GetAttribute(reg *Registry, obj Value, name string, instanceDict map[string]Value) (Value, error) {
	t := reg.TypeOf(obj)
	if t == nil {
		return nil, newInternalError("GetAttribute: obj has no resolvable type")
	}

	classAttr, foundInClass := t.Lookup(name)

	if foundInClass {
		if descr, ok := classAttr.(Descriptor); ok {
			if _, isData := descr.(DataDescriptor); isData {
				return descr.Get(reg, obj, t)
			}
		}
	}

	if instanceDict != nil {
		if v, ok := instanceDict[name]; ok {
			return v, nil
		}
	}

	if foundInClass {
		if descr, ok := classAttr.(Descriptor); ok {
			return descr.Get(reg, obj, t)
		}
		return classAttr, nil
	}

	return nil, newAttributeError(t.Name(), name, "")
}

// SetAttr implements the default `__setattr__` algorithm: a data
// descriptor found via MRO lookup handles the assignment; otherwise the
// value is written into instanceDict directly (instanceDict must be
// non-nil; a type with no instance dict rejects arbitrary attribute
// assignment upstream, before SetAttr is ever called).
func SetAttr(reg *Registry, obj Value, name string, value Value, instanceDict map[string]Value) error {
	t := reg.TypeOf(obj)
	if t == nil {
		return newInternalError("SetAttr: obj has no resolvable type")
	}

	if classAttr, ok := t.Lookup(name); ok {
		if descr, ok := classAttr.(DataDescriptor); ok {
			return descr.Set(reg, obj, value)
		}
	}

	if instanceDict == nil {
		return newAttributeError(t.Name(), name, "object has no attribute assignment support")
	}
	instanceDict[name] = value
	return nil
}

// DelAttr implements the default `__delattr__` algorithm, mirroring
// SetAttr's descriptor-then-instance-dict precedence.
func DelAttr(reg *Registry, obj Value, name string, instanceDict map[string]Value) error {
	t := reg.TypeOf(obj)
	if t == nil {
		return newInternalError("DelAttr: obj has no resolvable type")
	}

	if classAttr, ok := t.Lookup(name); ok {
		if descr, ok := classAttr.(DataDescriptor); ok {
			return descr.Delete(reg, obj)
		}
	}

	if instanceDict == nil {
		return newAttributeError(t.Name(), name, "")
	}
	if _, ok := instanceDict[name]; !ok {
		return newAttributeError(t.Name(), name, "")
	}
	delete(instanceDict, name)
	return nil
}

// callable is implemented by every value GetAttribute can return that
// Call should know how to invoke: a bound method/wrapper, or any plain
// Go function matching CallFunc's shape.
type callable interface {
	Call(reg *Registry, args []Value, kwargs map[string]Value) (Value, error)
}

// Call implements the generic call protocol (spec §4.8): if fn is one of
// the core's own bound-callable types, invoke it directly; otherwise fall
// back to fn's own Representation's __call__ slot, the path a plain
// callable instance (one whose type defines SMCall) takes.
func Call(reg *Registry, fn Value, args []Value, kwargs map[string]Value) (Value, error) {
	if c, ok := fn.(callable); ok {
		return c.Call(reg, args, kwargs)
	}
	if f, ok := fn.(CallFunc); ok {
		return f(fn, args, kwargs)
	}

	repr := reg.representationFor(fn)
	if repr == nil {
		return nil, newTypeError("'%s' object is not callable", reg.TypeOf(fn).Name())
	}
	v, err := repr.CallSlot(SMCall, fn, args, kwargs)
	if err != nil {
		if IsEmptySlot(err) {
			return nil, newTypeError("'%s' object is not callable", repr.PythonType(fn).Name())
		}
		return nil, err
	}
	return v, nil
}

// VectorCall is the fast-path call entry: positional-only, no keywords.
// Equivalent to Call(reg, fn, args, nil) but named separately so
// collaborators (e.g. the bytecode evaluator) can special-case the
// common no-kwargs case without allocating an empty map.
func VectorCall(reg *Registry, fn Value, args []Value) (Value, error) {
	return Call(reg, fn, args, nil)
}

// Str implements the `str()` builtin's fallback rule: use __str__ if
// filled, otherwise fall back to __repr__.
func Str(reg *Registry, obj Value) (Value, error) {
	repr := reg.representationFor(obj)
	if repr == nil {
		return nil, newInternalError("Str: obj has no resolvable representation")
	}
	v, err := repr.Unary(SMStr, obj)
	if err == nil {
		return v, nil
	}
	if !IsEmptySlot(err) {
		return nil, err
	}
	return Repr(reg, obj)
}

// Repr implements the `repr()` builtin: invoke __repr__, with no
// fallback (every object's Representation must fill this, even if only
// with object's default `<ClassName object>` implementation).
func Repr(reg *Registry, obj Value) (Value, error) {
	repr := reg.representationFor(obj)
	if repr == nil {
		return nil, newInternalError("Repr: obj has no resolvable representation")
	}
	v, err := repr.Unary(SMRepr, obj)
	if err != nil {
		if IsEmptySlot(err) {
			t := repr.PythonType(obj)
			name := "object"
			if t != nil {
				name = t.Name()
			}
			return "<" + name + " object>", nil
		}
		return nil, err
	}
	return v, nil
}
