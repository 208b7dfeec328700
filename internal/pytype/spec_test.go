package pytype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type specNative struct {
	Real int64
}

func TestTypeSpecFreezeRequiresName(t *testing.T) {
	_, err := NewTypeSpec("", reflect.TypeOf(specNative{})).Freeze()
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestTypeSpecAdoptWithoutAsAdoptiveFails(t *testing.T) {
	assert.Panics(t, func() {
		NewTypeSpec("int", reflect.TypeOf(specNative{})).Adopt(reflect.TypeOf(0))
	})
}

func TestTypeSpecFreezeRejectsDuplicateAttributeNames(t *testing.T) {
	s := NewTypeSpec("int", reflect.TypeOf(specNative{})).
		Member("real", "Real", FieldInt, true, false).
		Method("real", func(self Value, args []Value, kwargs map[string]Value) (Value, error) { return nil, nil })
	_, err := s.Freeze()
	require.Error(t, err)
}

func TestTypeSpecFreezeRejectsOptionalNonReferenceMember(t *testing.T) {
	s := NewTypeSpec("int", reflect.TypeOf(specNative{})).
		Member("real", "Real", FieldInt, false, true)
	_, err := s.Freeze()
	require.Error(t, err)
}

func TestTypeSpecFreezeIsIdempotentlyImmutable(t *testing.T) {
	s := NewTypeSpec("int", reflect.TypeOf(specNative{}))
	_, err := s.Freeze()
	require.NoError(t, err)

	assert.Panics(t, func() {
		s.WithDoc("late mutation")
	})
}

func TestTypeSpecFluentBuildProducesExpectedFrozenSpec(t *testing.T) {
	s := NewTypeSpec("int", reflect.TypeOf(specNative{})).
		WithBase("object").
		WithFeature(INSTANTIABLE).
		AsAdoptive().
		Adopt(reflect.TypeOf(false)).
		Member("real", "Real", FieldInt, true, false)

	fs, err := s.Freeze()
	require.NoError(t, err)
	assert.Equal(t, "int", fs.name)
	assert.Equal(t, ShapeAdoptive, fs.shape)
	assert.Equal(t, []string{"object"}, fs.baseNames)
	assert.True(t, fs.feature&INSTANTIABLE != 0)
	require.Len(t, fs.selfClasses, 1)
	assert.False(t, fs.selfClasses[0].accepted)
	require.Len(t, fs.members, 1)
	assert.Equal(t, "real", fs.members[0].name)
}

func TestTypeSpecAcceptWithoutAdoptiveIsAllowed(t *testing.T) {
	s := NewTypeSpec("int", reflect.TypeOf(specNative{})).Accept(reflect.TypeOf(int32(0)))
	fs, err := s.Freeze()
	require.NoError(t, err)
	require.Len(t, fs.selfClasses, 1)
	assert.True(t, fs.selfClasses[0].accepted)
}
