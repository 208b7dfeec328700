package pytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuperGetAttrSkipsPastStartType(t *testing.T) {
	reg := NewRegistry()

	grand := NewType("Grand", ShapeSimple, nil)
	require.NoError(t, grand.SetDictEntry("greet", "grand-hello"))
	grand.mro = []*PyType{grand}

	mid := NewType("Mid", ShapeSimple, []*PyType{grand})
	require.NoError(t, mid.SetDictEntry("greet", "mid-hello"))
	mid.mro = []*PyType{mid, grand}

	child := NewType("Child", ShapeSimple, []*PyType{mid})
	child.mro = []*PyType{child, mid, grand}

	obj := "instance"
	s := NewSuper(mid, obj, child)
	v, err := s.GetAttr(reg, "greet")
	require.NoError(t, err)
	assert.Equal(t, "grand-hello", v, "super(Mid, obj).greet must skip Mid's own override")
}

func TestSuperGetAttrBindsDescriptor(t *testing.T) {
	reg, pt := newPointRegistry(t)
	base := NewType("Base", ShapeSimple, nil)
	get := func(instance Value) (Value, bool, error) { return instance.(*descrPoint).X, true, nil }
	require.NoError(t, base.SetDictEntry("x", NewMemberDescriptor("x", pt, FieldInt, true, false, get, nil, nil)))
	base.mro = []*PyType{base}

	derived := NewType("Derived", ShapeSimple, []*PyType{base})
	derived.mro = []*PyType{derived, base}

	p := &descrPoint{X: 11}
	s := NewSuper(derived, p, derived)
	v, err := s.GetAttr(reg, "x")
	require.NoError(t, err)
	assert.Equal(t, 11, v)
}

func TestSuperGetAttrMissingRaisesAttributeError(t *testing.T) {
	reg := NewRegistry()
	base := NewType("Base", ShapeSimple, nil)
	base.mro = []*PyType{base}
	derived := NewType("Derived", ShapeSimple, []*PyType{base})
	derived.mro = []*PyType{derived, base}

	s := NewSuper(derived, "x", derived)
	_, err := s.GetAttr(reg, "missing")
	require.Error(t, err)
	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
}
