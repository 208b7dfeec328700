package collab

import "github.com/ATSOTECK/pyhost/internal/pytype"

// BridgedDescriptor wraps a descriptor value owned by the host
// interpreter's own object model (a *PyInstance in internal/runtime's
// terms) so it can sit in a pytype.PyType's dict and still receive the
// __set_name__ callback when the class finishes building, mirroring
// internal/runtime/builtins_classes.go's callSetName. Bound is the
// callback the interpreter supplies; it is expected to invoke the
// bridged instance's own __set_name__ method if it defines one.
type BridgedDescriptor struct {
	pytype.Descriptor
	Bound func(owner *pytype.PyType, name string)
}

// NewBridgedDescriptor wraps inner, adding a __set_name__ hook.
func NewBridgedDescriptor(inner pytype.Descriptor, onSetName func(owner *pytype.PyType, name string)) *BridgedDescriptor {
	return &BridgedDescriptor{Descriptor: inner, Bound: onSetName}
}

// SetName implements pytype.SetNameAware.
func (b *BridgedDescriptor) SetName(owner *pytype.PyType, name string) {
	if b.Bound != nil {
		b.Bound(owner, name)
	}
}
