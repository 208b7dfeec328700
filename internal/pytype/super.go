package pytype

// Super is the result of Python's `super(type, obj)`: a proxy that
// resolves attribute lookups starting one step past startType in obj's
// MRO, rather than at obj's own type. Grounded on the host's PySuper
// (internal/runtime/types.go), generalized from *PyClass to *PyType.
type Super struct {
	startType *PyType
	obj       Value
	objType   *PyType
}

// NewSuper builds a Super proxy. objType is obj's own type (obj's
// Python type per the registry, not necessarily startType); it is what
// the proxied lookup walks the MRO of, skipping every entry up to and
// including startType.
func NewSuper(startType *PyType, obj Value, objType *PyType) *Super {
	return &Super{startType: startType, obj: obj, objType: objType}
}

// GetAttr resolves name starting one entry past startType in objType's
// MRO, binding a found Descriptor to obj exactly as GetAttribute would,
// per spec's supplemented-feature description of super().
func (s *Super) GetAttr(reg *Registry, name string) (Value, error) {
	mro := s.objType.MRO()
	start := 0
	for i, cls := range mro {
		if cls == s.startType {
			start = i + 1
			break
		}
	}

	for _, cls := range mro[start:] {
		if v, ok := cls.dictGet(name); ok {
			if descr, ok := v.(Descriptor); ok {
				return descr.Get(reg, s.obj, s.objType)
			}
			return v, nil
		}
	}

	return nil, newAttributeError(s.objType.Name(), name, "")
}
