// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

// Values is the contract satisfied by the types that can label the arcs of a
// flat node. Values are immutable: all the operations return fresh values and
// never modify their receiver. The library only assumes a total equality, a
// deterministic serialization (used to identify values in the unicity
// tables), the usual set operations, and an ordered iteration.
//
// Two instances are provided: Bitset, a fixed-width set over {0..63}, and
// FlatSet, a structurally shared sorted set of ints.
type Values[V any] interface {
	// IsEmpty reports whether the set has no element.
	IsEmpty() bool

	// Equal is a total equality over values.
	Equal(V) bool

	// Union returns the set of elements found in either operand.
	Union(V) V

	// Inter returns the set of elements found in both operands.
	Inter(V) V

	// Diff returns the set of elements of the receiver not found in the
	// operand.
	Diff(V) V

	// Size returns the number of elements.
	Size() int

	// Each calls f on every element in increasing order. Iteration stops
	// early when f returns false.
	Each(f func(int) bool)

	// AppendBytes appends a deterministic serialization of the value to buf.
	// Two values are equal if and only if they serialize to the same bytes;
	// the unicity tables rely on this to canonicalize nodes.
	AppendBytes(buf []byte) []byte

	String() string
}
