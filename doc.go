// Copyright (c) 2023 the sddkit authors
//
// MIT License

/*
Package sdd implements Hierarchical Set Decision Diagrams (SDD), a data
structure used to represent very large sets of tuples symbolically, together
with the homomorphisms that transform them.

Basics

An SDD is a directed acyclic graph whose arcs are labelled either by a set of
values (flat nodes) or by a nested SDD (hierarchical nodes). Every SDD built
in a Kernel is canonical: structurally equal diagrams are interned to a
single record, so that semantic equality of two diagrams is an O(1)
comparison of their handles. The two terminals are Zero, the empty set, and
One, the set containing only the empty tuple.

Diagrams are organized by a variable Order that associates library variables
to user identifiers, possibly with nested sub-orders for hierarchical
levels. The order is built by adding identifiers, the first added ending up
the deepest; the library assigns the variables itself.

Homomorphisms

Operations over SDDs are expressed with homomorphisms, an algebra of
composable operators: identity, constants, cons, sums, intersections,
compositions, fixpoints, local applications inside a nested level, pure
functions over arc labels, and user-defined inductive strategies.
Homomorphisms are canonicalized by the same interning discipline as
diagrams, after a set of builder rewrites that, for instance, flatten nested
sums and regroup the Locals working on the same identifier.

Evaluating a homomorphism h on a diagram x under an order o is the central
loop of the library. Evaluation is memoized, operator by operator, in a
cache tied to the top-level order; binary operations on diagrams use their
own cache. Both caches are bounded and evict the least frequently used half
of their entries when full, a policy that fits the workload of fixpoint
computations better than recency-based eviction. Rewrite specializes a
fixpoint of a sum of transitions into a saturation operator that computes
fixpoints level by level.

Values

The type of arc labels is a parameter of the kernel. Any type satisfying the
Values interface can be used; the package provides Bitset, a fixed-width set
over {0..63}, and FlatSet, a hash-consed sorted set of ints.

The package is written in pure Go. A kernel and everything built from it is
confined to a single goroutine: there is no internal synchronization, and
callers that want parallelism should use one kernel per goroutine.
*/
package sdd
