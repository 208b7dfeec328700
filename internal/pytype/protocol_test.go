package pytype

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type protocolInstance struct {
	dict map[string]Value
}

func TestGetAttributeDataDescriptorBeatsInstanceDict(t *testing.T) {
	reg, ty := newPointRegistry(t)
	get := func(instance Value) (Value, bool, error) { return instance.(*descrPoint).X, true, nil }
	set := func(instance Value, value Value) error { instance.(*descrPoint).X = value.(int); return nil }
	descr := NewMemberDescriptor("x", ty, FieldInt, false, false, get, set, nil)
	require.NoError(t, ty.SetDictEntry("x", descr))

	p := &descrPoint{X: 3}
	instDict := map[string]Value{"x": 999}

	v, err := GetAttribute(reg, p, "x", instDict)
	require.NoError(t, err)
	assert.Equal(t, 3, v, "a data descriptor must win over the instance dict")
}

func TestGetAttributeInstanceDictBeatsPlainClassAttribute(t *testing.T) {
	reg, ty := newPointRegistry(t)
	require.NoError(t, ty.SetDictEntry("label", "class-level"))

	instDict := map[string]Value{"label": "instance-level"}
	v, err := GetAttribute(reg, &descrPoint{}, "label", instDict)
	require.NoError(t, err)
	assert.Equal(t, "instance-level", v)
}

func TestGetAttributeFallsBackToClassAttribute(t *testing.T) {
	reg, ty := newPointRegistry(t)
	require.NoError(t, ty.SetDictEntry("label", "class-level"))

	v, err := GetAttribute(reg, &descrPoint{}, "label", nil)
	require.NoError(t, err)
	assert.Equal(t, "class-level", v)
}

func TestGetAttributeMissingRaisesAttributeError(t *testing.T) {
	reg, _ := newPointRegistry(t)
	_, err := GetAttribute(reg, &descrPoint{}, "nope", nil)
	require.Error(t, err)
	var attrErr *AttributeError
	require.ErrorAs(t, err, &attrErr)
}

func TestSetAttrUsesDataDescriptorThenInstanceDict(t *testing.T) {
	reg, ty := newPointRegistry(t)
	get := func(instance Value) (Value, bool, error) { return instance.(*descrPoint).X, true, nil }
	set := func(instance Value, value Value) error { instance.(*descrPoint).X = value.(int); return nil }
	descr := NewMemberDescriptor("x", ty, FieldInt, false, false, get, set, nil)
	require.NoError(t, ty.SetDictEntry("x", descr))

	p := &descrPoint{X: 1}
	require.NoError(t, SetAttr(reg, p, "x", 42, nil))
	assert.Equal(t, 42, p.X)

	instDict := map[string]Value{}
	require.NoError(t, SetAttr(reg, p, "other", "v", instDict))
	assert.Equal(t, "v", instDict["other"])

	require.Error(t, SetAttr(reg, p, "other", "v", nil))
}

func TestDelAttrPrefersDataDescriptor(t *testing.T) {
	reg, ty := newPointRegistry(t)
	called := false
	get := func(instance Value) (Value, bool, error) { return 0, true, nil }
	del := func(instance Value) error { called = true; return nil }
	descr := NewMemberDescriptor("x", ty, FieldObject, false, true, get, nil, del)
	require.NoError(t, ty.SetDictEntry("x", descr))

	require.NoError(t, DelAttr(reg, &descrPoint{}, "x", nil))
	assert.True(t, called)
}

func TestCallDispatchesThroughRepresentationCallSlot(t *testing.T) {
	reg, ty := newPointRegistry(t)
	repr := reg.GetExact(reflect.TypeOf(&descrPoint{}))
	repr.SetCall(SMCall, func(self Value, args []Value, kwargs map[string]Value) (Value, error) {
		return self.(*descrPoint).X + args[0].(int), nil
	})

	v, err := Call(reg, &descrPoint{X: 10}, []Value{5}, nil)
	require.NoError(t, err)
	assert.Equal(t, 15, v)

	_ = ty // silence unused in case assertions above are trimmed later
}

func TestCallRejectsNonCallable(t *testing.T) {
	reg, _ := newPointRegistry(t)
	_, err := Call(reg, &descrPoint{}, nil, nil)
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestStrFallsBackToRepr(t *testing.T) {
	reg, _ := newPointRegistry(t)
	repr := reg.GetExact(reflect.TypeOf(&descrPoint{}))
	repr.SetUnary(SMRepr, func(self Value) (Value, error) { return "Point(...)", nil })

	v, err := Str(reg, &descrPoint{})
	require.NoError(t, err)
	assert.Equal(t, "Point(...)", v)
}

func TestReprDefaultsWhenUnfilled(t *testing.T) {
	reg, _ := newPointRegistry(t)
	v, err := Repr(reg, &descrPoint{})
	require.NoError(t, err)
	assert.Equal(t, "<Point object>", v)
}
