package pytype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type descrPoint struct{ X int }

func newPointRegistry(t *testing.T) (*Registry, *PyType) {
	t.Helper()
	reg := NewRegistry()
	objectRepr := newEmptyRepresentation(reflect.TypeOf(struct{}{}), SimpleRepresentation)
	reg.SetObjectRepresentation(objectRepr)

	pt := NewType("Point", ShapeSimple, nil)
	pt.mro = []*PyType{pt}
	repr := newEmptyRepresentation(reflect.TypeOf(&descrPoint{}), SimpleRepresentation)
	repr.fixedType = pt
	require.NoError(t, reg.RegisterAll(map[reflect.Type]*Representation{reflect.TypeOf(&descrPoint{}): repr}))
	return reg, pt
}

func TestMemberDescriptorGetSetDelete(t *testing.T) {
	reg, pt := newPointRegistry(t)

	get := func(instance Value) (Value, bool, error) { return instance.(*descrPoint).X, true, nil }
	set := func(instance Value, value Value) error { instance.(*descrPoint).X = value.(int); return nil }
	m := NewMemberDescriptor("x", pt, FieldInt, false, false, get, set, nil)

	p := &descrPoint{X: 3}
	v, err := m.Get(reg, p, pt)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	require.NoError(t, m.Set(reg, p, 9))
	assert.Equal(t, 9, p.X)

	err = m.Delete(reg, p)
	require.Error(t, err)
	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
}

func TestMemberDescriptorReadOnlyRejectsSet(t *testing.T) {
	reg, pt := newPointRegistry(t)
	get := func(instance Value) (Value, bool, error) { return instance.(*descrPoint).X, true, nil }
	m := NewMemberDescriptor("x", pt, FieldInt, true, false, get, nil, nil)

	err := m.Set(reg, &descrPoint{X: 1}, 2)
	require.Error(t, err)
	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, "read-only", attrErr.Reason)
}

func TestMemberDescriptorCheckSelfRejectsWrongType(t *testing.T) {
	reg, pt := newPointRegistry(t)
	get := func(instance Value) (Value, bool, error) { return 1, true, nil }
	m := NewMemberDescriptor("x", pt, FieldInt, true, false, get, nil, nil)

	_, err := m.Get(reg, "not a point", pt)
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestMemberDescriptorOptionalAbsentRaisesAttributeError(t *testing.T) {
	reg, pt := newPointRegistry(t)
	get := func(instance Value) (Value, bool, error) { return nil, false, nil }
	m := NewMemberDescriptor("opt", pt, FieldObject, true, true, get, nil, nil)

	_, err := m.Get(reg, &descrPoint{}, pt)
	require.Error(t, err)
	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
	assert.Equal(t, "not set", attrErr.Reason)
}

func TestGetSetDescriptorResolvesBySelfClassIndex(t *testing.T) {
	reg := NewRegistry()
	objectRepr := newEmptyRepresentation(reflect.TypeOf(struct{}{}), SimpleRepresentation)
	reg.SetObjectRepresentation(objectRepr)

	ty := NewType("int", ShapeAdoptive, nil)
	ty.mro = []*PyType{ty}
	primaryClass := reflect.TypeOf(0)
	adoptedClass := reflect.TypeOf(false)
	primaryRepr := newEmptyRepresentation(primaryClass, AdoptedRepresentation)
	primaryRepr.fixedType = ty
	primaryRepr.index = 0
	adoptedRepr := newEmptyRepresentation(adoptedClass, AdoptedRepresentation)
	adoptedRepr.fixedType = ty
	adoptedRepr.index = 1
	ty.selfClasses = []selfClass{
		{class: primaryClass, repr: primaryRepr},
		{class: adoptedClass, repr: adoptedRepr},
	}
	require.NoError(t, reg.RegisterAll(map[reflect.Type]*Representation{
		primaryClass: primaryRepr, adoptedClass: adoptedRepr,
	}))

	d := NewGetSetDescriptor("real", ty, 2)
	d.SetGetter(0, func(obj Value) (Value, error) { return obj.(int), nil })
	d.SetGetter(1, func(obj Value) (Value, error) {
		if obj.(bool) {
			return 1, nil
		}
		return 0, nil
	})

	v, err := d.Get(reg, 7, ty)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = d.Get(reg, true, ty)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestGetSetDescriptorUnfilledSlotIsAttributeError(t *testing.T) {
	reg, pt := newPointRegistry(t)
	d := NewGetSetDescriptor("missing", pt, 1)
	_, err := d.Get(reg, &descrPoint{}, pt)
	require.Error(t, err)
	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
}

func TestWrapperDescriptorBindAndCall(t *testing.T) {
	reg, pt := newPointRegistry(t)
	repr := reg.GetExact(reflect.TypeOf(&descrPoint{}))
	repr.SetBinary(SMAdd, func(self, other Value) (Value, error) {
		return self.(*descrPoint).X + other.(int), nil
	})

	d := NewWrapperDescriptor("__add__", SMAdd, pt)
	p := &descrPoint{X: 4}

	bound, err := d.Get(reg, p, pt)
	require.NoError(t, err)
	bw, ok := bound.(*BoundWrapper)
	require.True(t, ok)

	v, err := bw.Call(reg, []Value{3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	// Unbound call (class-level __add__(instance, other)).
	v, err = d.Call(reg, []Value{p, 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, 14, v)
}

func TestWrapperDescriptorCallRequiresSelf(t *testing.T) {
	_, pt := newPointRegistry(t)
	reg := NewRegistry()
	reg.SetObjectRepresentation(newEmptyRepresentation(reflect.TypeOf(struct{}{}), SimpleRepresentation))
	d := NewWrapperDescriptor("__add__", SMAdd, pt)
	_, err := d.Call(reg, nil, nil)
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestMethodDescriptorBindAndCall(t *testing.T) {
	reg, pt := newPointRegistry(t)
	fn := func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
		return self.(*descrPoint).X + args[0].(int), nil
	}
	d := NewMethodDescriptor("offset", pt, fn)
	p := &descrPoint{X: 5}

	bound, err := d.Get(reg, p, pt)
	require.NoError(t, err)
	bm := bound.(*BoundMethod)

	v, err := bm.Call(reg, []Value{2}, nil)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = d.Call(reg, []Value{p, 100}, nil)
	require.NoError(t, err)
	assert.Equal(t, 105, v)
}

func TestNewMethodDescriptorSkipsSelfTypeCheck(t *testing.T) {
	_, pt := newPointRegistry(t)
	fn := func(self Value, args []Value, kwargs map[string]Value) (Value, error) { return self, nil }
	d := NewNewMethodDescriptor(pt, fn)
	assert.True(t, d.IsNew())
	assert.Equal(t, "__new__", d.Name())
}
