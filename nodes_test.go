// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds the flat SDD [vs[0]: vals[0] -> [vs[1]: vals[1] -> ... 1]].
func chain(k *Kernel[Bitset], vs []Variable, vals []Bitset) Node {
	x := k.One()
	for i := len(vs) - 1; i >= 0; i-- {
		x = k.Flat(vs[i], vals[i], x)
	}
	return x
}

func TestTerminals(t *testing.T) {
	k := New[Bitset]()
	assert.NotEqual(t, k.Zero(), k.One())
	assert.Equal(t, NodeZero, k.Kind(k.Zero()))
	assert.Equal(t, NodeOne, k.Kind(k.One()))
	assert.Equal(t, Variable(-1), k.Variable(k.Zero()))
	assert.Nil(t, k.Arcs(k.One()))
}

func TestFlatCanonical(t *testing.T) {
	k := New[Bitset]()
	a := k.Flat(0, BitsetOf(1, 2), k.One())
	b := k.Flat(0, BitsetOf(2, 1), k.One())
	// two SDDs are equal iff their handles are equal
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, k.Flat(0, BitsetOf(1), k.One()))
	assert.NotEqual(t, a, k.Flat(1, BitsetOf(1, 2), k.One()))

	// arcs to Zero and empty labels collapse to Zero
	assert.Equal(t, k.Zero(), k.Flat(0, BitsetOf(), k.One()))
	assert.Equal(t, k.Zero(), k.Flat(0, BitsetOf(1), k.Zero()))
	assert.Equal(t, k.Zero(), k.Hier(0, k.Zero(), k.One()))
}

func TestArcMerging(t *testing.T) {
	k := New[Bitset]()
	// two arcs with the same target are merged by unioning their labels
	x, err := k.Union(k.Flat(0, BitsetOf(0), k.One()), k.Flat(0, BitsetOf(1), k.One()))
	require.NoError(t, err)
	assert.Equal(t, k.Flat(0, BitsetOf(0, 1), k.One()), x)

	eq := cmp.Comparer(func(a, b Bitset) bool { return a.Equal(b) })
	want := []Arc[Bitset]{{Values: BitsetOf(0, 1), Down: k.One()}}
	if diff := cmp.Diff(want, k.Arcs(x), eq); diff != "" {
		t.Errorf("unexpected arcs (-want +got):\n%s", diff)
	}
}

func TestCountAndPaths(t *testing.T) {
	k := New[Bitset]()
	x := chain(k, []Variable{2, 1, 0}, []Bitset{BitsetOf(0, 1), BitsetOf(0), BitsetOf(0)})
	assert.Equal(t, int64(2), k.Count(x).Int64())
	assert.Equal(t, int64(1), k.Paths(x).Int64())
	assert.Equal(t, int64(0), k.Count(k.Zero()).Int64())
	assert.Equal(t, int64(1), k.Count(k.One()).Int64())

	// a hierarchical node multiplies the counts of its label and successor
	h := k.Hier(0, x, k.One())
	assert.Equal(t, int64(2), k.Count(h).Int64())
	assert.Equal(t, int64(1), k.Paths(h).Int64())
}

func TestHierCanonical(t *testing.T) {
	k := New[Bitset]()
	lbl := k.Flat(0, BitsetOf(3), k.One())
	a := k.Hier(0, lbl, k.One())
	b := k.Hier(0, lbl, k.One())
	assert.Equal(t, a, b)
	assert.Equal(t, NodeHier, k.Kind(a))

	arcs := k.Arcs(a)
	require.Len(t, arcs, 1)
	assert.Equal(t, lbl, arcs[0].Label)
	assert.Equal(t, k.One(), arcs[0].Down)
}

func TestPrintForms(t *testing.T) {
	k := New[Bitset]()
	assert.Equal(t, "0", k.Print(k.Zero()))
	assert.Equal(t, "1", k.Print(k.One()))
	x := k.Flat(0, BitsetOf(0, 1), k.One())
	assert.Equal(t, "({0,1} -> 1)", k.Print(x))
	assert.Equal(t, "(({0,1} -> 1) -> 1)", k.Print(k.Hier(1, x, k.One())))
}

func TestFlatSetKernel(t *testing.T) {
	k := New[FlatSet]()
	x := k.Flat(0, FlatSetOf(1, 2), k.One())
	y := k.Flat(0, FlatSetOf(2, 3), k.One())
	assert.Equal(t, x, k.Flat(0, FlatSetOf(2, 1), k.One()))

	u, err := k.Union(x, y)
	require.NoError(t, err)
	assert.Equal(t, k.Flat(0, FlatSetOf(1, 2, 3), k.One()), u)
	assert.Equal(t, int64(3), k.Count(u).Int64())

	i, err := k.Inter(x, y)
	require.NoError(t, err)
	assert.Equal(t, k.Flat(0, FlatSetOf(2), k.One()), i)
}
