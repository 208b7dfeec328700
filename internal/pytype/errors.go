package pytype

import "fmt"

// Error kinds per the data model's taxonomy. TypeError and AttributeError
// are the only two that escape to Python-level code; EmptySlotError,
// ArgumentError and ClashError are internal sentinels translated at the
// nearest boundary (never surfaced directly — see IsEmptySlot and the
// factory's handling of ClashError).

// TypeError reports an argument-type mismatch, a non-callable invocation,
// attribute access on the wrong type, or a coercion failure.
type TypeError struct {
	Message string
}

func (e *TypeError) Error() string { return "TypeError: " + truncate(e.Message, 100) }

func newTypeError(format string, args ...any) *TypeError {
	return &TypeError{Message: fmt.Sprintf(format, args...)}
}

// AttributeError reports a missing attribute, a read-only attribute
// write, or a mandatory-attribute delete.
type AttributeError struct {
	TypeName string
	Name     string
	Reason   string // e.g. "read-only", "no such attribute", "optional attribute not set"
}

func (e *AttributeError) Error() string {
	name := truncate(e.Name, 50)
	typeName := truncate(e.TypeName, 50)
	if e.Reason != "" {
		return fmt.Sprintf("AttributeError: '%s' object attribute '%s' is %s", typeName, name, e.Reason)
	}
	return fmt.Sprintf("AttributeError: '%s' object has no attribute '%s'", typeName, name)
}

func newAttributeError(typeName, name, reason string) *AttributeError {
	return &AttributeError{TypeName: typeName, Name: name, Reason: reason}
}

// EmptySlotError is the sentinel raised by an unfilled Representation
// slot. Callers catch it to fall back to an alternative protocol (e.g.
// __str__ falling back to __repr__); it must never reach user code.
type EmptySlotError struct {
	Method SpecialMethod
}

func (e *EmptySlotError) Error() string {
	return fmt.Sprintf("pytype: empty slot %s", e.Method)
}

// IsEmptySlot reports whether err (or something it wraps) is an
// EmptySlotError, optionally for a specific SpecialMethod.
func IsEmptySlot(err error) bool {
	_, ok := err.(*EmptySlotError)
	return ok
}

// ArgumentError reports an argument count or keyword-name mismatch
// internal to the call-marshaling machinery. It is always converted to
// a *TypeError at the boundary where a call actually happens
// (WrapperDescriptor.Call, MethodDescriptor.Call).
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string { return "pytype: argument error: " + e.Message }

func (e *ArgumentError) asTypeError() *TypeError { return newTypeError("%s", e.Message) }

// ClashError is raised when the factory is asked to bind a native class
// to two different Representations. Fatal during bootstrap; the caller
// wraps it as an InternalError once outside the factory's own recovery.
type ClashError struct {
	ClassName string
}

func (e *ClashError) Error() string {
	return fmt.Sprintf("pytype: native class %q already bound to a different representation", e.ClassName)
}

// MROConflictError is raised when C3 linearization has no consistent
// merge for a type's bases.
type MROConflictError struct {
	TypeName string
	Bases    []string
}

func (e *MROConflictError) Error() string {
	return fmt.Sprintf("TypeError: Cannot create a consistent method resolution order (MRO) for bases %v of %q",
		e.Bases, e.TypeName)
}

// InternalError indicates a type-system invariant was violated; it is
// always a bug, never a user-recoverable condition.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string { return "InternalError: " + e.Message }

func newInternalError(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}

// StopIteration signals iterator exhaustion. Expected control flow, not
// logged or treated as failure.
type StopIteration struct{}

func (e *StopIteration) Error() string { return "StopIteration" }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
