package bdt

import (
	"bytes"
	"testing"

	"github.com/behrlich/bridge-solver/pkg/intset"
	"github.com/stretchr/testify/require"
)

func setOf(xs ...int) *intset.Set {
	s := intset.New()
	for _, x := range xs {
		s.Insert(x)
	}
	return s
}

func TestAtomContains(t *testing.T) {
	m := NewManager()
	a := m.Atom(3)
	require.True(t, m.Contains(a, setOf(3)))
	require.False(t, m.Contains(a, setOf(4)))
	require.False(t, m.Contains(a, setOf(3, 4)))
}

func TestCubeContainsExactSet(t *testing.T) {
	m := NewManager()
	c := m.Cube(setOf(1, 2, 3))
	require.True(t, m.Contains(c, setOf(1, 2, 3)))
	require.False(t, m.Contains(c, setOf(1, 2)))
}

func TestUnionizeContainsEither(t *testing.T) {
	m := NewManager()
	a := m.Cube(setOf(1))
	b := m.Cube(setOf(2))
	u := m.Unionize(a, b)
	require.True(t, m.Contains(u, setOf(1)))
	require.True(t, m.Contains(u, setOf(2)))
	require.False(t, m.Contains(u, setOf(3)))
}

func TestIntersectIsCommutativeAndIdempotent(t *testing.T) {
	m := NewManager()
	a := m.Unionize(m.Cube(setOf(1)), m.Cube(setOf(2)))
	b := m.Unionize(m.Cube(setOf(2)), m.Cube(setOf(3)))

	ab := m.Intersect(a, b)
	ba := m.Intersect(b, a)
	require.Equal(t, ab, ba)
	require.True(t, m.Contains(ab, setOf(2)))
	require.False(t, m.Contains(ab, setOf(1)))
	require.False(t, m.Contains(ab, setOf(3)))
}

func TestExtrudeForcesMembership(t *testing.T) {
	m := NewManager()
	base := m.Cube(setOf(1))
	ext := m.Extrude(base, 2)
	require.True(t, m.Contains(ext, setOf(1, 2)))
}

func TestRequireKeepsOnlySetsWithVar(t *testing.T) {
	m := NewManager()
	fam := m.Unionize(m.Cube(setOf(1)), m.Cube(setOf(1, 2)))
	req := m.Require(fam, 2)
	require.True(t, m.Contains(req, setOf(1, 2)))
	require.False(t, m.Contains(req, setOf(1)))
}

func TestRemoveDropsVar(t *testing.T) {
	m := NewManager()
	fam := m.Cube(setOf(1, 2))
	rem := m.Remove(fam, 2)
	require.True(t, m.Contains(rem, setOf(1)))
	require.False(t, m.Contains(rem, setOf(1, 2)))
}

func TestSubsetSupersetOf(t *testing.T) {
	m := NewManager()
	small := m.Cube(setOf(1))
	big := m.Unionize(small, m.Cube(setOf(2)))
	require.True(t, m.SubsetOf(small, big))
	require.True(t, m.SupersetOf(big, small))
	require.False(t, m.SubsetOf(big, small))
}

func TestGetCubesRoundTrip(t *testing.T) {
	m := NewManager()
	fam := m.Unionize(m.Cube(setOf(1, 2)), m.Cube(setOf(3)))

	cubes := m.GetCubes(fam)
	require.Len(t, cubes, 2)

	var union Handle
	for _, c := range cubes {
		union = m.Unionize(union, m.Cube(c))
	}
	require.Equal(t, fam, union)
}

func TestGetUsedVars(t *testing.T) {
	m := NewManager()
	fam := m.Cube(setOf(1, 5, 9))
	used := m.GetUsedVars(fam)
	require.True(t, used.Contains(1))
	require.True(t, used.Contains(5))
	require.True(t, used.Contains(9))
	require.False(t, used.Contains(2))
}

func TestAntiCubeExcludesSetsContainingSmall(t *testing.T) {
	m := NewManager()
	big := setOf(1, 2, 3)
	small := setOf(2)

	anti := m.AntiCube(big, small)
	require.True(t, m.Contains(anti, setOf(1, 3)))
	require.False(t, m.Contains(anti, setOf(1, 2, 3)))
}

func TestSetToAtomsIsUnionOfSingletons(t *testing.T) {
	m := NewManager()
	fam := m.SetToAtoms(setOf(1, 2))
	require.True(t, m.Contains(fam, setOf(1)))
	require.True(t, m.Contains(fam, setOf(2)))
	require.False(t, m.Contains(fam, setOf(1, 2)))
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := NewManager()
	fam := m.Unionize(m.Cube(setOf(1, 2)), m.Cube(setOf(3)))

	var buf bytes.Buffer
	require.NoError(t, m.WriteTo(&buf))

	m2 := NewManager()
	require.NoError(t, ReadInto(&buf, m2))

	require.True(t, m2.Contains(fam, setOf(1, 2)))
	require.True(t, m2.Contains(fam, setOf(3)))
	require.False(t, m2.Contains(fam, setOf(1)))
}

func TestReadIntoRejectsNonEmptyManager(t *testing.T) {
	m := NewManager()
	m.Atom(1)

	var buf bytes.Buffer
	src := NewManager()
	src.Atom(2)
	require.NoError(t, src.WriteTo(&buf))

	require.Error(t, ReadInto(&buf, m))
}

func TestMapSizesTracksNodeCount(t *testing.T) {
	m := NewManager()
	require.Equal(t, 0, m.MapSizes()[0])
	m.Atom(1)
	require.Equal(t, 1, m.MapSizes()[0])
}
