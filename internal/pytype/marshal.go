package pytype

// ParamKind mirrors the primitive coercion rules MemberDescriptor
// enforces on struct fields, reused for positional/keyword argument
// binding into a MethodDescriptor's native implementation.
type ParamKind int

const (
	ParamInt ParamKind = iota
	ParamFloat
	ParamString
	ParamBool
	ParamAny
)

// Param describes one parameter of a method's call signature.
type Param struct {
	Name     string
	Kind     ParamKind
	Optional bool
	Default  Value
}

// CallSignature is an ordered parameter list a MethodDescriptor staged
// via TypeSpec.MethodWithSignature marshals its arguments against, e.g.
// `def f(x: int, y: str = "a")`.
type CallSignature struct {
	Name   string
	Params []Param
}

// ArgumentMarshaler binds positional/keyword call arguments against a
// CallSignature, coercing and validating each against its declared
// kind, per spec §4.4 step 4: "Marshal remaining arguments according to
// the special-method signature." MethodDescriptor depends on this
// interface, not on any concrete coercion code, so the host
// interpreter's own argument-checking machinery can be plugged in
// (internal/collab.RageArgParser is the concrete adapter TypeFactory
// wires in via SetArgumentMarshaler).
type ArgumentMarshaler interface {
	Parse(sig CallSignature, args []Value, kwargs map[string]Value) ([]Value, error)
}
