// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd_test

import (
	"fmt"

	"github.com/sddkit/sdd"
)

// flip complements every element of a label with respect to {0, 1}.
type flip struct{}

func (flip) Apply(v sdd.Bitset) sdd.Bitset {
	out := sdd.BitsetOf()
	v.Each(func(e int) bool {
		out = out.With(1 - e)
		return true
	})
	return out
}

func (flip) Selector() bool { return false }
func (flip) String() string { return "flip" }

// This example shows the basic usage of the package: build an order and an
// initial state, describe the transitions as a homomorphism, and compute the
// reachable states with a fixpoint.
func Example_basic() {
	k := sdd.New[sdd.Bitset]()
	// three Boolean cells, p0 on top
	o := k.NewOrder("p0", "p1", "p2")

	// initial state: every cell at 0
	x := k.One()
	for _, id := range []string{"p2", "p1", "p0"} {
		v, _ := o.IdentifierVariable(id)
		x = k.Flat(v, sdd.BitsetOf(0), x)
	}

	// each cell can flip independently
	ops := []sdd.Hom{k.Identity()}
	for _, id := range []string{"p0", "p1", "p2"} {
		v, _ := o.IdentifierVariable(id)
		ops = append(ops, k.ValuesFunction(v, flip{}))
	}
	step, _ := k.Sum(ops...)

	reach, _ := k.Eval(k.Fixpoint(step), o, x)
	fmt.Printf("Number of reachable states: %s\n", k.Count(reach))
	// Output:
	// Number of reachable states: 8
}
