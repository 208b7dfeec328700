package pytype

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Registry is the process-wide, concurrent map from native-class identity
// to Representation. Reads are lock-free after publication; writes occur
// only inside the TypeFactory with its lock held. A Registry is normally
// obtained once per process via NewRegistry and shared by a TypeFactory.
type Registry struct {
	mu       sync.Mutex // guards writes; factory serializes through this
	snapshot atomic.Pointer[map[reflect.Type]*Representation]

	// objectRepr is the bootstrap-installed Representation for `object`,
	// used as the fallback rule-3 default for unregistered native classes.
	// Set once by the TypeFactory during bootstrap.
	objectRepr atomic.Pointer[Representation]
}

// SetObjectRepresentation installs the bootstrap Representation for
// `object`. Called exactly once, by the TypeFactory, before any other
// type is published.
func (r *Registry) SetObjectRepresentation(repr *Representation) {
	r.objectRepr.Store(repr)
}

// TypeOf returns type(obj) using the three-step lookup rule, falling
// back to the registered `object` representation. Panics (as an
// InternalError) if called before SetObjectRepresentation — this is a
// bootstrap ordering bug, not a runtime condition callers should expect.
func (r *Registry) TypeOf(obj Value) *PyType {
	objRepr := r.objectRepr.Load()
	if objRepr == nil {
		panic(newInternalError("registry.TypeOf called before object representation was installed"))
	}
	repr := r.Get(reflect.TypeOf(obj), objRepr)
	return repr.PythonType(obj)
}

// representationFor returns obj's Representation via the full three-step
// lookup (exact match, class-holder inheritance, object fallback).
func (r *Registry) representationFor(obj Value) *Representation {
	objRepr := r.objectRepr.Load()
	if objRepr == nil {
		return r.representationOf(obj)
	}
	return r.Get(reflect.TypeOf(obj), objRepr)
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	reg := &Registry{}
	empty := map[reflect.Type]*Representation{}
	reg.snapshot.Store(&empty)
	return reg
}

// Get performs the three-step lookup from spec §4.2: exact match, then
// class-holder superclass inheritance, then a fabricated default
// Representation treating class as a plain `object`.
func (r *Registry) Get(class reflect.Type, objectRepr *Representation) *Representation {
	m := *r.snapshot.Load()
	if repr, ok := m[class]; ok {
		return repr
	}
	if found := r.inheritedRepresentation(class, m); found != nil {
		return found
	}
	return objectRepr
}

// GetExact returns the representation bound to class, or nil if none is
// published. Unlike Get, it never fabricates a default or walks
// superclasses — used by call sites that must distinguish "genuinely
// unregistered" from "falls back to object".
func (r *Registry) GetExact(class reflect.Type) *Representation {
	m := *r.snapshot.Load()
	return m[class]
}

// inheritedRepresentation implements rule 2: if class's zero value
// implements classHolder, Go has no notion of "superclass" to walk (Go
// types don't inherit), so this rule only applies when class is itself
// already registered under a name alias; kept as a documented no-op hook
// for collaborators that register Go-level type families (e.g. a
// generated-subclass struct registered once but instantiated for many
// Python subclasses via its embedded *PyType field).
func (r *Registry) inheritedRepresentation(class reflect.Type, m map[reflect.Type]*Representation) *Representation {
	if class == nil {
		return nil
	}
	if class.Kind() == reflect.Ptr {
		if repr, ok := m[class.Elem()]; ok {
			return repr
		}
	}
	return nil
}

// RegisterAll installs many native_class → Representation bindings
// atomically. If any class in bindings is already bound to a different
// Representation, the whole batch fails with a ClashError and no binding
// is installed. Must be called with the factory lock held.
func (r *Registry) RegisterAll(bindings map[reflect.Type]*Representation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := *r.snapshot.Load()
	for class, repr := range bindings {
		if existing, ok := current[class]; ok && existing != repr {
			return &ClashError{ClassName: class.String()}
		}
	}

	next := make(map[reflect.Type]*Representation, len(current)+len(bindings))
	for k, v := range current {
		next[k] = v
	}
	for k, v := range bindings {
		next[k] = v
	}
	r.snapshot.Store(&next)
	return nil
}

// representationOf is a convenience used by IsDataDescriptor and the
// attribute protocol: resolve value's Representation via reflection,
// falling back to nil rather than fabricating an object default (callers
// that need the full three-step Get must supply their own object
// Representation).
func (r *Registry) representationOf(value Value) *Representation {
	if value == nil {
		return nil
	}
	return r.GetExact(reflect.TypeOf(value))
}

// Snapshot returns the current set of published bindings, for
// introspection (e.g. cmd/typeinspectord). The returned map must not be
// mutated.
func (r *Registry) Snapshot() map[reflect.Type]*Representation {
	return *r.snapshot.Load()
}
