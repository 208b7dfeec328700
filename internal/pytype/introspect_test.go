package pytype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testIntrospector is a minimal NativeClassIntrospector, local to this
// package's tests to avoid importing internal/collab (which itself
// imports pytype, so a test-time import here would cycle). It mirrors
// internal/collab.ReflectIntrospector's own reflect.Type walk.
type testIntrospector struct{}

func (testIntrospector) Fields(class reflect.Type) ([]FieldInfo, error) {
	st := class
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return nil, nil
	}
	var out []FieldInfo
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		out = append(out, FieldInfo{
			Name: f.Name, GoType: f.Type, Index: f.Index,
			Optional: f.Type.Kind() == reflect.Ptr || f.Type.Kind() == reflect.Interface,
			Tag:      f.Tag,
		})
	}
	return out, nil
}

func (testIntrospector) Methods(class reflect.Type) ([]MethodInfo, error) {
	var out []MethodInfo
	for i := 0; i < class.NumMethod(); i++ {
		m := class.Method(i)
		out = append(out, MethodInfo{Name: m.Name, GoType: m.Type, Index: m.Index})
	}
	return out, nil
}

type discoveredPoint struct {
	X int64 `py:"x"`
	Y int64 `py:"y,readonly"`
	Z int64 // untagged: must not be discovered
}

func (p discoveredPoint) PyAdd(other Value) (Value, error) {
	o := other.(discoveredPoint)
	return discoveredPoint{X: p.X + o.X, Y: p.Y + o.Y}, nil
}

func TestDiscoverMembersReadsStructTagsAndSkipsUntagged(t *testing.T) {
	members, err := discoverMembers(testIntrospector{}, "point", reflect.TypeOf(discoveredPoint{}), nil)
	require.NoError(t, err)
	require.Len(t, members, 2)

	byName := map[string]memberSpec{}
	for _, m := range members {
		byName[m.name] = m
	}
	assert.Equal(t, "X", byName["x"].field)
	assert.False(t, byName["x"].readOnly)
	assert.Equal(t, "Y", byName["y"].field)
	assert.True(t, byName["y"].readOnly)
	_, hasZ := byName["z"]
	assert.False(t, hasZ)
}

func TestDiscoverMembersRejectsClashWithManuallyStagedAttribute(t *testing.T) {
	existing := []memberSpec{{name: "x", field: "Manual"}}
	_, err := discoverMembers(testIntrospector{}, "point", reflect.TypeOf(discoveredPoint{}), existing)
	require.Error(t, err)
	var ie *InternalError
	require.ErrorAs(t, err, &ie)
}

func TestDiscoverSlotFindsGoMethodByNamingConvention(t *testing.T) {
	mi, ok, err := discoverSlot(testIntrospector{}, reflect.TypeOf(discoveredPoint{}), SMAdd)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PyAdd", mi.Name)
}

func TestDiscoverSlotMissingImplementationReportsNotFound(t *testing.T) {
	_, ok, err := discoverSlot(testIntrospector{}, reflect.TypeOf(discoveredPoint{}), SMSub)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExposeWithDiscoveredMembersAndSlots(t *testing.T) {
	fs, err := NewTypeSpec("point", reflect.TypeOf(discoveredPoint{})).
		WithDiscoveredMembers().
		WithDiscoveredSlots(SMAdd).
		Freeze()
	require.NoError(t, err)

	ty, _ := buildExposedWith(t, fs, testIntrospector{})

	_, ok := ty.Lookup("x")
	require.True(t, ok, "discovered member 'x' must be installed")
	_, ok = ty.Lookup("y")
	require.True(t, ok, "discovered member 'y' must be installed")

	a := discoveredPoint{X: 1, Y: 2}
	b := discoveredPoint{X: 3, Y: 4}
	repr := ty.selfClasses[0].repr
	sum, err := repr.Binary(SMAdd, a, b)
	require.NoError(t, err)
	assert.Equal(t, discoveredPoint{X: 4, Y: 6}, sum)
}

func TestExposeWithDiscoveredSlotsFailsWhenSelfClassLacksImplementation(t *testing.T) {
	fs, err := NewTypeSpec("point", reflect.TypeOf(discoveredPoint{})).
		WithDiscoveredSlots(SMSub).
		Freeze()
	require.NoError(t, err)

	ty := NewType(fs.name, fs.shape, nil)
	ty.feature = fs.feature
	ty.mro = []*PyType{ty}
	e := NewTypeExposer(testIntrospector{})
	_, err = e.Expose(ty, fs)
	require.Error(t, err)
	var ie *InternalError
	require.ErrorAs(t, err, &ie)
}
