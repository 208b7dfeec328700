package pytype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type regIntLike struct{ V int }

func TestRegistryTypeOfFallsBackToObject(t *testing.T) {
	reg := NewRegistry()
	objectRepr := newEmptyRepresentation(reflect.TypeOf(struct{}{}), SimpleRepresentation)
	objectType := NewType("object", ShapeSimple, nil)
	objectRepr.fixedType = objectType
	reg.SetObjectRepresentation(objectRepr)

	assert.Same(t, objectType, reg.TypeOf(regIntLike{V: 1}))
}

func TestRegistryTypeOfPanicsBeforeBootstrap(t *testing.T) {
	reg := NewRegistry()
	assert.Panics(t, func() {
		reg.TypeOf(regIntLike{V: 1})
	})
}

func TestRegistryRegisterAllBindsExactMatch(t *testing.T) {
	reg := NewRegistry()
	objectRepr := newEmptyRepresentation(reflect.TypeOf(struct{}{}), SimpleRepresentation)
	reg.SetObjectRepresentation(objectRepr)

	intType := NewType("int", ShapeSimple, nil)
	intRepr := newEmptyRepresentation(reflect.TypeOf(regIntLike{}), SimpleRepresentation)
	intRepr.fixedType = intType

	require.NoError(t, reg.RegisterAll(map[reflect.Type]*Representation{
		reflect.TypeOf(regIntLike{}): intRepr,
	}))

	assert.Same(t, intType, reg.TypeOf(regIntLike{V: 9}))
	assert.Same(t, intRepr, reg.GetExact(reflect.TypeOf(regIntLike{})))
}

func TestRegistryRegisterAllRejectsClash(t *testing.T) {
	reg := NewRegistry()
	class := reflect.TypeOf(regIntLike{})
	first := newEmptyRepresentation(class, SimpleRepresentation)
	second := newEmptyRepresentation(class, SimpleRepresentation)

	require.NoError(t, reg.RegisterAll(map[reflect.Type]*Representation{class: first}))

	err := reg.RegisterAll(map[reflect.Type]*Representation{class: second})
	require.Error(t, err)
	var clash *ClashError
	require.ErrorAs(t, err, &clash)
	assert.Equal(t, class.String(), clash.ClassName)

	// Re-registering the same Representation for the same class is a no-op, not a clash.
	assert.NoError(t, reg.RegisterAll(map[reflect.Type]*Representation{class: first}))
}

func TestRegistrySnapshotIsReadOnlyView(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.Snapshot())

	class := reflect.TypeOf(regIntLike{})
	repr := newEmptyRepresentation(class, SimpleRepresentation)
	require.NoError(t, reg.RegisterAll(map[reflect.Type]*Representation{class: repr}))

	snap := reg.Snapshot()
	require.Len(t, snap, 1)
	assert.Same(t, repr, snap[class])
}

func TestRegistryGetExactVsGet(t *testing.T) {
	reg := NewRegistry()
	objectRepr := newEmptyRepresentation(reflect.TypeOf(struct{}{}), SimpleRepresentation)
	reg.SetObjectRepresentation(objectRepr)

	class := reflect.TypeOf(regIntLike{})
	assert.Nil(t, reg.GetExact(class))
	assert.Same(t, objectRepr, reg.Get(class, objectRepr))
}
