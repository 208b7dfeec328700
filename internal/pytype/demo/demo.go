// Package demo is a worked instance of the type-system core, wiring a
// Registry and TypeFactory through every mechanism the core defines:
// the object/type metaclass bootstrap, an Adoptive int over two native
// classes, a reflectively-discovered point type, and a Replaceable
// dynamic-subclass clique. It exercises Representation, Registry,
// PyType, TypeSpec and TypeFactory together end to end, wiring every
// internal/collab adapter, and doubles as the integration test for the
// whole core.
package demo

import (
	"reflect"

	"github.com/ATSOTECK/pyhost/internal/collab"
	"github.com/ATSOTECK/pyhost/internal/pytype"
)

// hostBool and hostInt stand in for two distinct native Go classes that
// both want to present as Python's built-in int: a native boolean
// (Python's bool is an int subclass) and a native machine integer.
type hostBool struct{ Value bool }
type hostInt struct{ Value int64 }

// hostPoint is discovered reflectively rather than staged manually: its
// `py`-tagged fields and PyAdd method are found by
// collab.ReflectIntrospector at Expose time (TypeSpec.WithDiscoveredMembers/
// WithDiscoveredSlots), not declared via TypeSpec.Member/Slot.
type hostPoint struct {
	X int64 `py:"x"`
	Y int64 `py:"y"`
}

// PyAdd implements point's __add__ slot; discoverSlot finds it by the
// goMethodNameFor(SMAdd) == "PyAdd" naming convention.
func (p hostPoint) PyAdd(other pytype.Value) (pytype.Value, error) {
	o, ok := other.(hostPoint)
	if !ok {
		return nil, &pytype.TypeError{Message: "can only add point to point"}
	}
	return hostPoint{X: p.X + o.X, Y: p.Y + o.Y}, nil
}

// scalePoint backs point's "scale" method, staged via
// TypeSpec.MethodWithSignature so MethodDescriptor.Call marshals its
// argument through the factory's ArgumentMarshaler (collab.RageArgParser)
// before scalePoint ever sees it.
func scalePoint(self pytype.Value, args []pytype.Value, _ map[string]pytype.Value) (pytype.Value, error) {
	p, ok := self.(hostPoint)
	if !ok {
		return nil, &pytype.TypeError{Message: "scale() requires a point self"}
	}
	factor, ok := args[0].(int)
	if !ok {
		return nil, &pytype.TypeError{Message: "scale(): argument 'factor' must be int"}
	}
	return hostPoint{X: p.X * int64(factor), Y: p.Y * int64(factor)}, nil
}

// Core wires together a fresh Registry and TypeFactory, bootstraps
// `object`/`type`, and builds the adoptive `int`, reflectively-discovered
// `point`, and a Replaceable `dynamic`/`leaf`/`leaf2` clique over it.
// Returned for callers (tests, cmd/typeinspectord) that want to drive
// the live core rather than just read Types.
type Core struct {
	Registry *pytype.Registry
	Factory  *pytype.TypeFactory
	Object   *pytype.PyType
	Type     *pytype.PyType
	Int      *pytype.PyType
	Point    *pytype.PyType
	Dynamic  *pytype.PyType
	Leaf     *pytype.PyType
	Leaf2    *pytype.PyType

	scaleDescr *pytype.MethodDescriptor
	leafCtor   func() pytype.DynamicInstance
	leaf2Ctor  func() pytype.DynamicInstance

	// BoundAttrName/BoundOwnerName are filled in by the bridged "scale"
	// descriptor's __set_name__ callback once Build installs it, proving
	// the hook internal/collab.BridgedDescriptor exists to drive actually
	// fires.
	BoundAttrName  string
	BoundOwnerName string
}

// Build constructs the demo core end to end.
func Build() (*Core, error) {
	reg := pytype.NewRegistry()
	factory := pytype.NewTypeFactory(reg, collab.NewReflectIntrospector())
	factory.SetArgumentMarshaler(collab.NewRageArgParser())

	objectClass := reflect.TypeOf(struct{}{})
	objectType, err := factory.Bootstrap(objectClass)
	if err != nil {
		return nil, err
	}
	typeType := factory.Lookup("type")

	intType, err := buildIntType(factory)
	if err != nil {
		return nil, err
	}

	pointType, scaleDescr, boundAttr, boundOwner, err := buildPointType(factory)
	if err != nil {
		return nil, err
	}

	dynamicType, leafType, leafCtor, leaf2Type, leaf2Ctor, err := buildDynamicClique(factory)
	if err != nil {
		return nil, err
	}

	return &Core{
		Registry: reg, Factory: factory,
		Object: objectType, Type: typeType, Int: intType, Point: pointType,
		Dynamic: dynamicType, Leaf: leafType, Leaf2: leaf2Type,
		scaleDescr: scaleDescr, leafCtor: leafCtor, leaf2Ctor: leaf2Ctor,
		BoundAttrName: boundAttr, BoundOwnerName: boundOwner,
	}, nil
}

// buildIntType builds the adoptive `int` type over hostBool/hostInt,
// mirroring CPython's actual bool-is-an-int-subclass relationship,
// where a native boolean value IS a Python int (a separate `bool` type
// would need a second, value-dependent Representation resolution, which
// is the SharedRepresentation mechanism, not Adoptive; this scenario
// demonstrates Adoptive only).
func buildIntType(factory *pytype.TypeFactory) (*pytype.PyType, error) {
	intSpec := pytype.NewTypeSpec("int", reflect.TypeOf(hostInt{})).
		WithBase("object").
		AsAdoptive().
		Adopt(reflect.TypeOf(hostBool{})).
		Member("real", "Value", pytype.FieldInt, true, false).
		WithFeature(pytype.INSTANTIABLE)
	intFrozen, err := intSpec.Freeze()
	if err != nil {
		return nil, err
	}
	return factory.FromSpec(intFrozen, resolveFromFactory(factory))
}

// buildPointType builds `point`, a type whose members and __add__ slot
// are found by reflection (spec §4.6) rather than staged manually, and
// whose "scale" method is marshaled through collab.RageArgParser and
// then re-wrapped in a collab.BridgedDescriptor to prove the
// __set_name__ bridge fires. Returns the built type, the underlying
// MethodDescriptor (so callers can drive it directly, past the bridge),
// and the name/owner the bridge's callback recorded.
func buildPointType(factory *pytype.TypeFactory) (*pytype.PyType, *pytype.MethodDescriptor, string, string, error) {
	scaleSig := pytype.CallSignature{
		Name:   "scale",
		Params: []pytype.Param{{Name: "factor", Kind: pytype.ParamInt}},
	}
	pointSpec := pytype.NewTypeSpec("point", reflect.TypeOf(hostPoint{})).
		WithBase("object").
		WithFeature(pytype.INSTANTIABLE).
		WithDiscoveredMembers().
		WithDiscoveredSlots(pytype.SMAdd).
		MethodWithSignature("scale", scaleSig, scalePoint)
	pointFS, err := pointSpec.Freeze()
	if err != nil {
		return nil, nil, "", "", err
	}
	pointType, err := factory.FromSpec(pointFS, resolveFromFactory(factory))
	if err != nil {
		return nil, nil, "", "", err
	}

	scaleDescr, ok := pointType.Dict()["scale"].(*pytype.MethodDescriptor)
	if !ok {
		return nil, nil, "", "", &pytype.InternalError{Message: "demo: point.scale did not build as a MethodDescriptor"}
	}
	var boundAttr, boundOwner string
	bridged := collab.NewBridgedDescriptor(scaleDescr, func(owner *pytype.PyType, name string) {
		boundAttr, boundOwner = name, owner.Name()
	})
	if err := pointType.SetDictEntry("scale", bridged); err != nil {
		return nil, nil, "", "", err
	}
	pytype.RunSetNameHooks(pointType)

	return pointType, scaleDescr, boundAttr, boundOwner, nil
}

// buildDynamicClique builds a Replaceable root type plus two sibling
// subclasses published after the fact via TypeFactory.NewReplaceableSubclass,
// backed by collab.SlottedSubclassGenerator (via its
// PyTypeSubclassGenerator adapter) rather than a distinct native Go
// class per subclass — Go has no runtime class-synthesis equivalent to
// the host system's own.
func buildDynamicClique(factory *pytype.TypeFactory) (root, leaf *pytype.PyType, leafCtor func() pytype.DynamicInstance, leaf2 *pytype.PyType, leaf2Ctor func() pytype.DynamicInstance, err error) {
	rootSpec := pytype.NewTypeSpec("dynamic", reflect.TypeOf(&collab.DynamicInstance{})).
		WithBase("object").
		AsReplaceable().
		WithFeature(pytype.INSTANTIABLE)
	rootFS, err := rootSpec.Freeze()
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	root, err = factory.FromSpec(rootFS, resolveFromFactory(factory))
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	gen := collab.NewPyTypeSubclassGenerator(nil)
	leaf, leafCtor, err = factory.NewReplaceableSubclass(root, "leaf", []string{"tag"}, false, gen)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	leaf2, leaf2Ctor, err = factory.NewReplaceableSubclass(root, "leaf2", []string{"tag"}, false, gen)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return root, leaf, leafCtor, leaf2, leaf2Ctor, nil
}

// resolveFromFactory lets FromSpec resolve "int"/"object" as bases
// against types the factory has already published, by looking the
// name back up through the factory itself — this demo never needs to
// build a spec chain deeper than one level, so no resolver beyond
// "already published" is required.
func resolveFromFactory(f *pytype.TypeFactory) pytype.BaseResolver {
	return func(name string) (*pytype.FrozenSpec, error) {
		return nil, &pytype.InternalError{Message: "demo: no lazy base resolution beyond already-published types for " + name}
	}
}

// AdoptedBoolResolvesToInt is the scenario's core assertion (spec §8
// scenario 2): a hostBool instance, looked up through the Registry via
// int's adopted self-class, reports its Python type as `int` — not
// `object`, and not a fabricated type of its own.
func (c *Core) AdoptedBoolResolvesToInt(v hostBool) bool {
	return c.Registry.TypeOf(v) == c.Int
}

// TypeOfTypeIsType is spec §8 scenario 1's core assertion: `type` is its
// own type, and so is `object`'s — both land on the same binding
// because every *PyType value shares *PyType as its native Go class.
func (c *Core) TypeOfTypeIsType() bool {
	return c.Registry.TypeOf(c.Type) == c.Type && c.Registry.TypeOf(c.Object) == c.Type
}

// ObjectMetaclassIsType checks PyType.Metaclass() directly, rather than
// through Registry.TypeOf, for both object and type.
func (c *Core) ObjectMetaclassIsType() bool {
	return c.Object.Metaclass() == c.Type && c.Type.Metaclass() == c.Type
}

// AddPoints dispatches through point's reflectively-discovered __add__
// slot via the Representation's ordinary Binary call, the same path any
// BinOp bytecode op would take.
func (c *Core) AddPoints(a, b hostPoint) (pytype.Value, error) {
	repr := c.Registry.GetExact(reflect.TypeOf(a))
	if repr == nil {
		return nil, &pytype.InternalError{Message: "demo: no Representation bound for hostPoint"}
	}
	return repr.Binary(pytype.SMAdd, a, b)
}

// ScalePoint calls point's "scale" MethodDescriptor directly, driving
// its staged CallSignature through collab.RageArgParser before
// scalePoint runs.
func (c *Core) ScalePoint(p hostPoint, factor int) (pytype.Value, error) {
	return c.scaleDescr.Call(c.Registry, []pytype.Value{p, factor}, nil)
}

// NewLeaf and NewLeaf2 construct instances of the two Replaceable
// dynamic-clique siblings.
func (c *Core) NewLeaf() pytype.DynamicInstance  { return c.leafCtor() }
func (c *Core) NewLeaf2() pytype.DynamicInstance { return c.leaf2Ctor() }

// ClassOf resolves instance's Python type the same way any attribute
// lookup or isinstance() check would: through the Registry, which for a
// Replaceable instance means consulting its own mutable __class__.
func (c *Core) ClassOf(instance pytype.Value) *pytype.PyType {
	return c.Registry.TypeOf(instance)
}

// ReassignClass implements spec §8 scenario 5's `__class__` reassignment:
// validates the instance's current class and to share a layout via
// PyType.CheckClassAssignment, then mutates instance's own __class__
// pointer.
func (c *Core) ReassignClass(instance pytype.DynamicInstance, to *pytype.PyType) error {
	from := c.ClassOf(instance)
	if err := from.CheckClassAssignment(to); err != nil {
		return err
	}
	instance.SetClass(to)
	return nil
}
