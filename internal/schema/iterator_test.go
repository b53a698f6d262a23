package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator_Filters(t *testing.T) {
	b := newBuilder(t, "std", "default")
	str := b.scalar("std::str")
	local := b.scalar("default::thing")
	anyType := b.pseudo("std::anytype")

	assert.Equal(t, 5, b.c.Objects().Count())

	scalars := b.c.Objects(OfVariant(VariantScalarType)).Collect()
	assert.ElementsMatch(t, []Object{str, local}, scalars)

	std := b.c.Objects(InModules("std")).Collect()
	assert.ElementsMatch(t, []Object{str, anyType}, std, "modules never match a module filter")

	both := b.c.Objects(OfVariant(VariantPseudoType), InModules("std", "default")).Collect()
	assert.Equal(t, []Object{anyType}, both)
}

func TestIterator_Restartable(t *testing.T) {
	b := newBuilder(t, "std")
	b.scalar("std::a")
	b.scalar("std::b")

	it := b.c.Objects(OfVariant(VariantScalarType))
	first := it.Collect()
	second := it.Collect()
	assert.Equal(t, first, second)

	n := 0
	for range it.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
	assert.Len(t, it.Collect(), 2)
}

func TestIterator_NextReset(t *testing.T) {
	b := newBuilder(t, "std")
	b.scalar("std::a")
	b.scalar("std::b")

	it := b.c.Objects(OfVariant(VariantScalarType))
	var seen []Object
	for obj, ok := it.Next(); ok; obj, ok = it.Next() {
		seen = append(seen, obj)
	}
	assert.Len(t, seen, 2)
	_, ok := it.Next()
	assert.False(t, ok, "exhausted cursor stays exhausted")

	it.Reset()
	first, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, seen[0], first)
}

func TestIterator_SnapshotIsolation(t *testing.T) {
	b := newBuilder(t, "std")
	b.scalar("std::a")
	it := b.c.Objects()
	b.scalar("std::b")

	assert.Equal(t, 2, it.Count(), "iterator is bound to the value it was created from")
	assert.Equal(t, 3, b.c.Objects().Count())
}

func TestGetDescendants(t *testing.T) {
	b := newBuilder(t, "std")
	anyreal := b.scalar("std::anyreal")
	anyint := b.scalar("std::anyint", anyreal)
	i16 := b.scalar("std::int16", anyint)
	i64 := b.scalar("std::int64", anyint)
	f64 := b.scalar("std::float64", anyreal)

	direct, err := b.c.GetDescendants(anyreal, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{anyint, f64}, direct)

	all, err := b.c.GetDescendants(anyreal, UnboundedDepth)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{anyint, f64, i16, i64}, all)

	leaf, err := b.c.GetDescendants(i64, UnboundedDepth)
	require.NoError(t, err)
	assert.Empty(t, leaf)

	_, err = b.c.Discard(i64).GetDescendants(i64, 0)
	assert.True(t, IsNotFound(err))
}

func TestGetDescendants_VirtualChildren(t *testing.T) {
	b := newBuilder(t, "std")
	str := b.scalar("std::str")
	i64 := b.scalar("std::int64")
	union := b.add(VariantObjectType, ParseName("std::Union"), Fields{
		FieldVirtualChildren: ObjectList{str, i64},
	})

	got, err := b.c.GetDescendants(union, UnboundedDepth)
	require.NoError(t, err)
	assert.ElementsMatch(t, []Object{str, i64}, got)
}
