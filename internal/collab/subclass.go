package collab

import (
	"sync"

	"github.com/ATSOTECK/pyhost/internal/pytype"
)

// SubclassRepresentationGenerator produces a native representation for a
// Python-level subclass of a core type (e.g. `class MyInt(int): pass`).
// The source system this spec distills from runs on a JVM and generates
// a genuinely new bytecode class per subclass; Go has no runtime
// class-synthesis equivalent, so this interface's one concrete
// implementation below backs every generated subclass with instances of
// one generic DynamicInstance struct instead.
type SubclassRepresentationGenerator interface {
	// Generate returns a constructor for instances of a Python subclass
	// named className, inheriting base's slots, with instance-level slot
	// storage for slotNames plus (if withDict) a managed __dict__.
	Generate(class *pytype.PyType, slotNames []string, withDict bool) (func() *DynamicInstance, error)
}

// DynamicInstance is the generic native representation backing every
// Go-side Python subclass: its slots map holds `__slots__`-declared
// storage, its dict (if non-nil) backs instances that also carry a
// `__dict__`, and class points at the instance's actual (possibly
// reassigned) Python type.
type DynamicInstance struct {
	mu    sync.RWMutex
	class *pytype.PyType
	slots map[string]any
	dict  map[string]pytype.Value // nil unless the subclass carries __dict__
}

// NewDynamicInstance constructs a DynamicInstance of class, with storage
// for slotNames and, if withDict, a Python-visible __dict__.
func NewDynamicInstance(class *pytype.PyType, slotNames []string, withDict bool) *DynamicInstance {
	d := &DynamicInstance{class: class, slots: make(map[string]any, len(slotNames))}
	for _, name := range slotNames {
		d.slots[name] = nil
	}
	if withDict {
		d.dict = make(map[string]pytype.Value)
	}
	return d
}

// PyClassHolder implements the classHolder contract the core's
// SharedRepresentation lookup rule relies on: an instance that carries
// its own mutable __class__.
func (d *DynamicInstance) PyClassHolder() *pytype.PyType {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.class
}

// SetClass reassigns d's Python type, after the caller has already
// validated the assignment via PyType.CheckClassAssignment.
func (d *DynamicInstance) SetClass(class *pytype.PyType) {
	d.mu.Lock()
	d.class = class
	d.mu.Unlock()
}

// Slot reads one of d's declared `__slots__` entries.
func (d *DynamicInstance) Slot(name string) (pytype.Value, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.slots[name]
	return v, ok && v != nil
}

// SetSlot writes one of d's declared `__slots__` entries. Returns false
// if name was never declared for this instance's layout.
func (d *DynamicInstance) SetSlot(name string, value pytype.Value) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, declared := d.slots[name]; !declared {
		return false
	}
	d.slots[name] = value
	return true
}

// DeleteSlot clears a declared slot back to unset.
func (d *DynamicInstance) DeleteSlot(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, declared := d.slots[name]; !declared {
		return false
	}
	d.slots[name] = nil
	return true
}

// Dict returns d's instance dict, or nil if this subclass layout has none.
func (d *DynamicInstance) Dict() map[string]pytype.Value {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dict
}

// PyTypeSubclassGenerator adapts a SlottedSubclassGenerator to
// pytype.SubclassRepresentationGenerator's exact signature
// (`func() pytype.DynamicInstance`, an interface-returning constructor)
// rather than this package's own `func() *DynamicInstance` — Go does
// not convert between the two function types implicitly even though
// *DynamicInstance implements pytype.DynamicInstance, so
// TypeFactory.NewReplaceableSubclass takes this thin wrapper instead of
// SlottedSubclassGenerator directly.
type PyTypeSubclassGenerator struct {
	inner *SlottedSubclassGenerator
}

// NewPyTypeSubclassGenerator wraps inner (or a fresh SlottedSubclassGenerator
// if inner is nil) as a pytype.SubclassRepresentationGenerator.
func NewPyTypeSubclassGenerator(inner *SlottedSubclassGenerator) *PyTypeSubclassGenerator {
	if inner == nil {
		inner = NewSlottedSubclassGenerator()
	}
	return &PyTypeSubclassGenerator{inner: inner}
}

// Generate implements pytype.SubclassRepresentationGenerator.
func (g *PyTypeSubclassGenerator) Generate(owner *pytype.PyType, slotNames []string, withDict bool) (func() pytype.DynamicInstance, error) {
	ctor, err := g.inner.Generate(owner, slotNames, withDict)
	if err != nil {
		return nil, err
	}
	return func() pytype.DynamicInstance { return ctor() }, nil
}

// SlottedSubclassGenerator is the concrete SubclassRepresentationGenerator:
// every generated subclass gets a DynamicInstance-backed constructor
// rather than a distinct Go type. See DynamicInstance's doc comment and
// DESIGN.md's Open Question resolution for the tradeoff this records.
type SlottedSubclassGenerator struct{}

// NewSlottedSubclassGenerator returns a ready-to-use generator.
func NewSlottedSubclassGenerator() *SlottedSubclassGenerator { return &SlottedSubclassGenerator{} }

// Generate implements SubclassRepresentationGenerator.
func (g *SlottedSubclassGenerator) Generate(class *pytype.PyType, slotNames []string, withDict bool) (func() *DynamicInstance, error) {
	names := make([]string, len(slotNames))
	copy(names, slotNames)
	return func() *DynamicInstance {
		return NewDynamicInstance(class, names, withDict)
	}, nil
}
