package pytype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exposerNative struct {
	Real int64
}

func buildExposed(t *testing.T, fs *FrozenSpec) (*PyType, []*Representation) {
	t.Helper()
	return buildExposedWith(t, fs, nil)
}

func buildExposedWith(t *testing.T, fs *FrozenSpec, introspector NativeClassIntrospector) (*PyType, []*Representation) {
	t.Helper()
	ty := NewType(fs.name, fs.shape, nil)
	ty.feature = fs.feature
	ty.mro = []*PyType{ty}

	e := NewTypeExposer(introspector)
	reprs, err := e.Expose(ty, fs)
	require.NoError(t, err)
	return ty, reprs
}

func TestExposeInstallsMemberDescriptor(t *testing.T) {
	fs, err := NewTypeSpec("int", reflect.TypeOf(exposerNative{})).
		Member("real", "Real", FieldInt, true, false).
		Freeze()
	require.NoError(t, err)

	ty, reprs := buildExposed(t, fs)
	require.Len(t, reprs, 1)

	v, ok := ty.Lookup("real")
	require.True(t, ok)
	md, ok := v.(*MemberDescriptor)
	require.True(t, ok)
	assert.Equal(t, "real", md.Name())
	assert.True(t, md.readOnly)
}

func TestExposeAdoptiveBuildsOneRepresentationPerSelfClass(t *testing.T) {
	fs, err := NewTypeSpec("int", reflect.TypeOf(exposerNative{})).
		AsAdoptive().
		Adopt(reflect.TypeOf(false)).
		Freeze()
	require.NoError(t, err)

	ty, reprs := buildExposed(t, fs)
	require.Len(t, reprs, 2)
	assert.Equal(t, 0, reprs[0].Index())
	assert.Equal(t, 1, reprs[1].Index())
	assert.Same(t, ty, reprs[0].PythonType(exposerNative{}))
	assert.Same(t, ty, reprs[1].PythonType(false))

	require.Len(t, ty.selfClasses, 2)
	assert.Equal(t, reflect.TypeOf(exposerNative{}), ty.selfClasses[0].class)
	assert.Equal(t, reflect.TypeOf(false), ty.selfClasses[1].class)
}

func TestExposeAcceptedSelfClassReusesPrimaryRepresentation(t *testing.T) {
	fs, err := NewTypeSpec("int", reflect.TypeOf(exposerNative{})).
		Accept(reflect.TypeOf(int32(0))).
		Freeze()
	require.NoError(t, err)

	ty, reprs := buildExposed(t, fs)
	require.Len(t, reprs, 2)
	assert.Same(t, reprs[0], reprs[1])
}

func TestExposeMethodAndSlotWrapper(t *testing.T) {
	fs, err := NewTypeSpec("int", reflect.TypeOf(exposerNative{})).
		Method("bit_length", func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
			return 64, nil
		}).
		Slot(SMAdd, func(r *Representation) {
			r.SetBinary(SMAdd, func(self, other Value) (Value, error) { return self, nil })
		}).
		Freeze()
	require.NoError(t, err)

	ty, _ := buildExposed(t, fs)

	_, ok := ty.Lookup("bit_length")
	require.True(t, ok)

	_, ok = ty.Lookup("__add__")
	require.True(t, ok, "a filled slot must get a WrapperDescriptor installed")
	_, ok = ty.Lookup("__sub__")
	assert.False(t, ok, "an unfilled slot must not get a WrapperDescriptor")
}

func TestExposeDerivesFeatureFlagsFromFilledSlots(t *testing.T) {
	fs, err := NewTypeSpec("mutable", reflect.TypeOf(exposerNative{})).
		Slot(SMSet, func(r *Representation) {
			r.SetDescrSet(SMSet, func(self, obj, value Value) error { return nil })
		}).
		Freeze()
	require.NoError(t, err)

	ty, _ := buildExposed(t, fs)
	assert.True(t, ty.HasFeature(HAS_SET))
	assert.True(t, ty.HasFeature(IS_DATA_DESCR))
	assert.False(t, ty.HasFeature(HAS_DELETE))
}

type setNameSpy struct {
	owner *PyType
	name  string
	calls int
}

func (s *setNameSpy) Name() string                        { return "spy" }
func (s *setNameSpy) ObjClass() *PyType                    { return nil }
func (s *setNameSpy) Get(reg *Registry, obj, owner Value) (Value, error) { return s, nil }
func (s *setNameSpy) SetName(owner *PyType, name string) {
	s.owner = owner
	s.name = name
	s.calls++
}

func TestRunSetNameHooksFiresOnlyForSetNameAwareEntries(t *testing.T) {
	ty := NewType("Foo", ShapeSimple, nil)
	spy := &setNameSpy{}
	require.NoError(t, ty.SetDictEntry("tracked", spy))
	require.NoError(t, ty.SetDictEntry("plain", 42))

	RunSetNameHooks(ty)

	assert.Same(t, ty, spy.owner)
	assert.Equal(t, "tracked", spy.name)
	assert.Equal(t, 1, spy.calls)
}
