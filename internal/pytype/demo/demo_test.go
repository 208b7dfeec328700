package demo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdoptedRepresentationResolvesToOwningType(t *testing.T) {
	core, err := Build()
	require.NoError(t, err)
	require.NotNil(t, core.Int)

	require.True(t, core.Registry.TypeOf(hostInt{Value: 7}) == core.Int,
		"the primary self-class must resolve to int")
	require.True(t, core.AdoptedBoolResolvesToInt(hostBool{Value: true}),
		"the adopted self-class must resolve to int, not object")
}

func TestObjectIsIntsOnlyBase(t *testing.T) {
	core, err := Build()
	require.NoError(t, err)
	require.Len(t, core.Int.Bases(), 1)
	require.True(t, core.Int.Bases()[0] == core.Object)
	require.True(t, core.Int.IsSubtypeOf(core.Object))
}

func TestTypeIsItsOwnMetaclassAndObjects(t *testing.T) {
	core, err := Build()
	require.NoError(t, err)
	require.True(t, core.TypeOfTypeIsType())
	require.True(t, core.ObjectMetaclassIsType())
	require.True(t, core.Registry.TypeOf(core.Int) == core.Type,
		"every published type's own Python type must be `type`")
}

func TestPointMembersAndAddSlotAreDiscoveredReflectively(t *testing.T) {
	core, err := Build()
	require.NoError(t, err)

	_, ok := core.Point.Lookup("x")
	require.True(t, ok)
	_, ok = core.Point.Lookup("y")
	require.True(t, ok)

	sum, err := core.AddPoints(hostPoint{X: 1, Y: 2}, hostPoint{X: 3, Y: 4})
	require.NoError(t, err)
	require.Equal(t, hostPoint{X: 4, Y: 6}, sum)
}

func TestPointScaleMarshalsArgumentsAndFiresSetNameHook(t *testing.T) {
	core, err := Build()
	require.NoError(t, err)

	result, err := core.ScalePoint(hostPoint{X: 2, Y: 3}, 5)
	require.NoError(t, err)
	require.Equal(t, hostPoint{X: 10, Y: 15}, result)

	require.Equal(t, "scale", core.BoundAttrName)
	require.Equal(t, "point", core.BoundOwnerName)
}

func TestReplaceableCliqueSharesLayoutAndSupportsClassReassignment(t *testing.T) {
	core, err := Build()
	require.NoError(t, err)

	leaf := core.NewLeaf()
	require.True(t, core.ClassOf(leaf) == core.Leaf)

	require.NoError(t, core.ReassignClass(leaf, core.Leaf2))
	require.True(t, core.ClassOf(leaf) == core.Leaf2,
		"reassigning __class__ must be visible through TypeOf afterward")

	require.Error(t, core.Leaf.CheckClassAssignment(core.Dynamic),
		"a subclass with extra slots must not be assignable onto its parent's bare layout")
}
