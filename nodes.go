// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"math/big"
	"sort"
)

// NodeKind discriminates the four SDD variants.
type NodeKind uint8

const (
	NodeZero NodeKind = iota
	NodeOne
	NodeFlat
	NodeHier
)

// arc is one entry of the α-list of a node. Flat nodes use val, hierarchical
// nodes use label; down is the successor in both cases.
type arc[V Values[V]] struct {
	val   V
	label Node
	down  Node
}

// sddNode is the record interned for each canonical SDD. The α-list is the
// variable-size payload of the record; it is serialized after the fixed
// fields in the unicity key.
type sddNode[V Values[V]] struct {
	kind NodeKind
	v    Variable
	arcs []arc[V]
}

// Arc is the public view of one arc of a node, as returned by Arcs. For a
// flat node the label is in Values; for a hierarchical node it is in Label.
type Arc[V Values[V]] struct {
	Values V
	Label  Node
	Down   Node
}

// ************************************************************

// nodekey serializes a node into its unicity key. Two nodes are structurally
// equal exactly when their keys are equal: values serialize
// deterministically and nested SDDs are already canonical handles.
func (k *Kernel[V]) nodekey(n *sddNode[V]) string {
	buf := k.hbuff[:0]
	buf = append(buf, byte(n.kind))
	buf = appendInt(buf, int(n.v))
	for i := range n.arcs {
		if n.kind == kflat {
			buf = n.arcs[i].val.AppendBytes(buf)
		} else {
			buf = appendInt(buf, int(n.arcs[i].label))
		}
		buf = appendInt(buf, int(n.arcs[i].down))
	}
	k.hbuff = buf
	return string(buf)
}

// internNode returns the canonical handle for a node record, inserting it in
// the unicity table when it is seen for the first time.
func (k *Kernel[V]) internNode(n sddNode[V]) Node {
	key := k.nodekey(&n)
	if id, ok := k.unique[key]; ok {
		return id
	}
	id := Node(len(k.nodes))
	k.nodes = append(k.nodes, n)
	k.unique[key] = id
	k.produced++
	return id
}

const (
	kzero = NodeZero
	kone  = NodeOne
	kflat = NodeFlat
	khier = NodeHier
)

// makeflat builds the canonical flat node with variable v and the given
// α-list. Arcs with an empty label or a Zero successor are dropped, arcs
// sharing a successor are merged by unioning their labels, and the result is
// sorted before interning. An empty α-list yields Zero.
func (k *Kernel[V]) makeflat(v Variable, arcs []arc[V]) Node {
	w := 0
	for _, a := range arcs {
		if a.down == zeroNode || a.val.IsEmpty() {
			continue
		}
		arcs[w] = a
		w++
	}
	arcs = arcs[:w]
	if len(arcs) == 0 {
		return zeroNode
	}
	sort.Slice(arcs, func(i, j int) bool { return arcs[i].down < arcs[j].down })
	w = 0
	for i := 1; i < len(arcs); i++ {
		if arcs[i].down == arcs[w].down {
			arcs[w].val = arcs[w].val.Union(arcs[i].val)
			continue
		}
		w++
		arcs[w] = arcs[i]
	}
	arcs = arcs[:w+1]
	return k.internNode(sddNode[V]{kind: kflat, v: v, arcs: arcs})
}

// makehier is the hierarchical counterpart of makeflat. Merging two arcs
// that share a successor unions their labels with an SDD union on the nested
// level, which can fail with Top when the nested operands are incompatible.
func (k *Kernel[V]) makehier(v Variable, arcs []arc[V]) (Node, error) {
	w := 0
	for _, a := range arcs {
		if a.down == zeroNode || a.label == zeroNode {
			continue
		}
		arcs[w] = a
		w++
	}
	arcs = arcs[:w]
	if len(arcs) == 0 {
		return zeroNode, nil
	}
	sort.Slice(arcs, func(i, j int) bool { return arcs[i].down < arcs[j].down })
	w = 0
	for i := 1; i < len(arcs); i++ {
		if arcs[i].down == arcs[w].down {
			lbl, err := k.apply(OpUnion, arcs[w].label, arcs[i].label)
			if err != nil {
				return zeroNode, err
			}
			arcs[w].label = lbl
			continue
		}
		w++
		arcs[w] = arcs[i]
	}
	arcs = arcs[:w+1]
	return k.internNode(sddNode[V]{kind: khier, v: v, arcs: arcs}), nil
}

// ************************************************************

// Flat returns the SDD with a single arc labelled by val at variable v,
// leading to down. The result is Zero when val is empty or down is Zero.
// Larger α-lists are obtained by taking unions of flat nodes.
func (k *Kernel[V]) Flat(v Variable, val V, down Node) Node {
	if val.IsEmpty() || down == zeroNode {
		return zeroNode
	}
	return k.internNode(sddNode[V]{kind: kflat, v: v, arcs: []arc[V]{{val: val, down: down}}})
}

// Hier returns the hierarchical SDD with a single arc labelled by the SDD
// label at variable v, leading to down. The result is Zero when label or
// down is Zero.
func (k *Kernel[V]) Hier(v Variable, label Node, down Node) Node {
	if label == zeroNode || down == zeroNode {
		return zeroNode
	}
	return k.internNode(sddNode[V]{kind: khier, v: v, arcs: []arc[V]{{label: label, down: down}}})
}

// Kind returns the variant of x.
func (k *Kernel[V]) Kind(x Node) NodeKind {
	return k.nodes[x].kind
}

// Variable returns the variable of the top level of x. Terminal nodes have
// no variable; we return -1 for them.
func (k *Kernel[V]) Variable(x Node) Variable {
	n := &k.nodes[x]
	if n.kind == kzero || n.kind == kone {
		return -1
	}
	return n.v
}

// Arcs returns a copy of the α-list of x, in canonical order. Terminal nodes
// have no arcs.
func (k *Kernel[V]) Arcs(x Node) []Arc[V] {
	n := &k.nodes[x]
	if len(n.arcs) == 0 {
		return nil
	}
	res := make([]Arc[V], len(n.arcs))
	for i, a := range n.arcs {
		res[i] = Arc[V]{Values: a.val, Label: a.label, Down: a.down}
	}
	return res
}

// Count returns the number of tuples in the set denoted by x. We return a
// result using arbitrary-precision arithmetic to avoid possible overflows on
// deep hierarchies.
func (k *Kernel[V]) Count(x Node) *big.Int {
	memo := make(map[Node]*big.Int)
	return k.count(x, memo, true)
}

// Paths returns the number of paths in the graph of x. Unlike Count, every
// flat arc contributes one path whatever the size of its label.
func (k *Kernel[V]) Paths(x Node) *big.Int {
	memo := make(map[Node]*big.Int)
	return k.count(x, memo, false)
}

func (k *Kernel[V]) count(x Node, memo map[Node]*big.Int, tuples bool) *big.Int {
	switch x {
	case zeroNode:
		return big.NewInt(0)
	case oneNode:
		return big.NewInt(1)
	}
	if res, ok := memo[x]; ok {
		return res
	}
	n := &k.nodes[x]
	res := big.NewInt(0)
	for _, a := range n.arcs {
		term := big.NewInt(1)
		if n.kind == khier {
			term.Set(k.count(a.label, memo, tuples))
		} else if tuples {
			term.SetInt64(int64(a.val.Size()))
		}
		term.Mul(term, k.count(a.down, memo, tuples))
		res.Add(res, term)
	}
	memo[x] = res
	return res
}
