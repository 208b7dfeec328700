package pytype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type factoryObject struct{}
type factoryInt struct{ Real int64 }
type factoryBool struct{ Value bool }

func TestFactoryBootstrapIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)

	first, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)
	second, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestFactoryFromSpecPublishesAndIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)
	_, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)

	fs, err := NewTypeSpec("int", reflect.TypeOf(factoryInt{})).WithBase("object").Freeze()
	require.NoError(t, err)

	t1, err := f.FromSpec(fs, nil)
	require.NoError(t, err)
	assert.Equal(t, "int", t1.Name())
	require.Len(t, t1.Bases(), 1)
	assert.Equal(t, "object", t1.Bases()[0].Name())

	t2, err := f.FromSpec(fs, nil)
	require.NoError(t, err)
	assert.Same(t, t1, t2)
	assert.Same(t, t1, f.Lookup("int"))
}

func TestFactoryFromSpecResolvesBaseViaResolver(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)
	_, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)

	intSpec := NewTypeSpec("int", reflect.TypeOf(factoryInt{})).WithBase("object")
	intFrozen, err := intSpec.Freeze()
	require.NoError(t, err)

	resolve := func(name string) (*FrozenSpec, error) {
		if name == "int" {
			return intFrozen, nil
		}
		return nil, newInternalError("unknown base %q", name)
	}

	boolSpec := NewTypeSpec("bool", reflect.TypeOf(factoryBool{})).WithBase("int")
	boolFrozen, err := boolSpec.Freeze()
	require.NoError(t, err)

	boolType, err := f.FromSpec(boolFrozen, resolve)
	require.NoError(t, err)
	require.Len(t, boolType.Bases(), 1)
	assert.Equal(t, "int", boolType.Bases()[0].Name())
	assert.True(t, boolType.IsSubtypeOf(f.Lookup("object")))
}

func TestFactoryFromSpecWithoutResolverFailsOnUnbuiltBase(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)
	_, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)

	fs, err := NewTypeSpec("child", reflect.TypeOf(factoryInt{})).WithBase("nonexistent").Freeze()
	require.NoError(t, err)

	_, err = f.FromSpec(fs, nil)
	require.Error(t, err)
}

func TestFactoryAdoptiveTypeRegistersBothSelfClasses(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)
	_, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)

	fs, err := NewTypeSpec("int", reflect.TypeOf(factoryInt{})).
		WithBase("object").
		AsAdoptive().
		Adopt(reflect.TypeOf(factoryBool{})).
		Freeze()
	require.NoError(t, err)

	intType, err := f.FromSpec(fs, nil)
	require.NoError(t, err)

	assert.Same(t, intType, reg.TypeOf(factoryInt{Real: 1}))
	assert.Same(t, intType, reg.TypeOf(factoryBool{Value: true}))
}

func TestBootstrapClosesTypeObjectCycle(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)

	objType, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)
	typeType := f.Lookup("type")
	require.NotNil(t, typeType, "Bootstrap must publish `type` alongside `object`")

	assert.Same(t, typeType, reg.TypeOf(objType), "type(object) must be type")
	assert.Same(t, typeType, reg.TypeOf(typeType), "type(type) must be type")
	assert.Same(t, typeType, objType.Metaclass())
	assert.Same(t, typeType, typeType.Metaclass())

	require.Len(t, typeType.MRO(), 2)
	assert.Same(t, typeType, typeType.MRO()[0])
	assert.Same(t, objType, typeType.MRO()[1])
	require.Len(t, objType.MRO(), 1)
	assert.Same(t, objType, objType.MRO()[0])
}

func TestSubsequentTypesGetTypeAsMetaclass(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)
	_, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)
	typeType := f.Lookup("type")

	fs, err := NewTypeSpec("int", reflect.TypeOf(factoryInt{})).WithBase("object").Freeze()
	require.NoError(t, err)
	intType, err := f.FromSpec(fs, nil)
	require.NoError(t, err)

	assert.Same(t, typeType, intType.Metaclass())
	assert.Same(t, typeType, reg.TypeOf(intType))
}

func TestFactoryFromSpecClashErrorOnReusedNativeClass(t *testing.T) {
	reg := NewRegistry()
	f := NewTypeFactory(reg, nil)
	_, err := f.Bootstrap(reflect.TypeOf(factoryObject{}))
	require.NoError(t, err)

	first, err := NewTypeSpec("int", reflect.TypeOf(factoryInt{})).WithBase("object").Freeze()
	require.NoError(t, err)
	_, err = f.FromSpec(first, nil)
	require.NoError(t, err)

	// A second, distinct type trying to claim the same native class as its
	// own primary must fail with a ClashError, surfaced as-is from
	// buildLocked's RegisterAll call.
	second, err := NewTypeSpec("notint", reflect.TypeOf(factoryInt{})).WithBase("object").Freeze()
	require.NoError(t, err)
	_, err = f.FromSpec(second, nil)
	require.Error(t, err)
	var clash *ClashError
	require.ErrorAs(t, err, &clash)
}
