// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

// Operator identifies the binary operations available on SDDs. All three
// treat Zero as an algebraic identity (or absorbing) element and are
// implemented by the same square-union recursion.
type Operator uint8

const (
	OpUnion Operator = iota
	OpInter
	OpDiff
)

var opnames = [3]string{
	OpUnion: "union",
	OpInter: "inter",
	OpDiff:  "diff",
}

func (op Operator) String() string {
	return opnames[op]
}

// sddOp is the fingerprint of a binary operation in the cache. Operands of
// the commutative operations are sorted so that both argument orders hit the
// same entry.
type sddOp struct {
	op          Operator
	left, right Node
}

// ************************************************************

// Union returns the union of a sequence of SDDs. The operands must share
// their top variable and kind; otherwise the operation fails with Top.
func (k *Kernel[V]) Union(xs ...Node) (Node, error) {
	return k.sum(append([]Node{}, xs...))
}

// Inter returns the intersection of a sequence of SDDs. Operands at
// different variables have an empty intersection.
func (k *Kernel[V]) Inter(xs ...Node) (Node, error) {
	if len(xs) == 0 {
		return zeroNode, ErrEmptyOperands
	}
	res := xs[0]
	for _, x := range xs[1:] {
		var err error
		res, err = k.apply(OpInter, res, x)
		if err != nil {
			return zeroNode, err
		}
		if res == zeroNode {
			return zeroNode, nil
		}
	}
	return res, nil
}

// Diff returns the difference x minus y.
func (k *Kernel[V]) Diff(x, y Node) (Node, error) {
	return k.apply(OpDiff, x, y)
}

// ************************************************************

// apply implements the three binary operations, with the terminal cases
// resolved before consulting the cache.
func (k *Kernel[V]) apply(op Operator, x, y Node) (Node, error) {
	switch op {
	case OpUnion:
		if x == y {
			return x, nil
		}
		if x == zeroNode {
			return y, nil
		}
		if y == zeroNode {
			return x, nil
		}
	case OpInter:
		if x == y {
			return x, nil
		}
		if x == zeroNode || y == zeroNode {
			return zeroNode, nil
		}
	case OpDiff:
		if x == y || x == zeroNode {
			return zeroNode, nil
		}
		if y == zeroNode {
			return x, nil
		}
	}
	xn, yn := &k.nodes[x], &k.nodes[y]
	if xn.kind != yn.kind || xn.v != yn.v {
		// Operands at incompatible levels: either their top variables
		// disagree, or a flat and a hierarchical node meet at the same
		// variable. Intersecting across variables is simply empty; every
		// other combination breaks the order discipline.
		if op == OpInter && !(xn.kind != kone && yn.kind != kone && xn.kind != yn.kind && xn.v == yn.v) {
			return zeroNode, nil
		}
		return zeroNode, newTop()
	}
	key := sddOp{op, x, y}
	if op != OpDiff && y < x {
		key = sddOp{op, y, x}
	}
	// copy out of the arena: the recursion below interns new nodes, which
	// can move the backing array under our feet
	kind, v, xarcs, yarcs := xn.kind, xn.v, xn.arcs, yn.arcs
	return k.opcache.eval(key, func() (Node, error) {
		if kind == kflat {
			arcs, err := k.squareFlat(op, xarcs, yarcs)
			if err != nil {
				return zeroNode, err
			}
			return k.makeflat(v, arcs), nil
		}
		arcs, err := k.squareHier(op, xarcs, yarcs)
		if err != nil {
			return zeroNode, err
		}
		return k.makehier(v, arcs)
	})
}

// squareFlat computes the α-list of op(x, y) for two flat nodes at the same
// variable: common parts of the labels are paired with the recursive
// operation on the successors, and for union and difference the disjoint
// remainders keep their original successor.
func (k *Kernel[V]) squareFlat(op Operator, A, B []arc[V]) ([]arc[V], error) {
	var res []arc[V]
	switch op {
	case OpInter:
		for _, a := range A {
			for _, b := range B {
				c := a.val.Inter(b.val)
				if c.IsEmpty() {
					continue
				}
				d, err := k.apply(OpInter, a.down, b.down)
				if err != nil {
					return nil, err
				}
				res = append(res, arc[V]{val: c, down: d})
			}
		}
	case OpDiff:
		for _, a := range A {
			rem := a.val
			for _, b := range B {
				c := a.val.Inter(b.val)
				if c.IsEmpty() {
					continue
				}
				d, err := k.apply(OpDiff, a.down, b.down)
				if err != nil {
					return nil, err
				}
				res = append(res, arc[V]{val: c, down: d})
				rem = rem.Diff(b.val)
			}
			if !rem.IsEmpty() {
				res = append(res, arc[V]{val: rem, down: a.down})
			}
		}
	case OpUnion:
		res = append(res, A...)
		for _, b := range B {
			var err error
			res, err = k.insertFlat(res, b.val, b.down)
			if err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

// insertFlat adds one arc to a partition of flat arcs, keeping the labels
// pairwise disjoint: the parts of val already covered are rerouted to the
// union of the two successors, the rest gets its own arc.
func (k *Kernel[V]) insertFlat(acc []arc[V], val V, down Node) ([]arc[V], error) {
	rem := val
	out := make([]arc[V], 0, len(acc)+1)
	for _, a := range acc {
		if rem.IsEmpty() {
			out = append(out, a)
			continue
		}
		c := a.val.Inter(rem)
		if c.IsEmpty() {
			out = append(out, a)
			continue
		}
		rem = rem.Diff(c)
		if a.down == down {
			out = append(out, a)
			continue
		}
		if stay := a.val.Diff(c); !stay.IsEmpty() {
			out = append(out, arc[V]{val: stay, down: a.down})
		}
		d, err := k.apply(OpUnion, a.down, down)
		if err != nil {
			return nil, err
		}
		out = append(out, arc[V]{val: c, down: d})
	}
	if !rem.IsEmpty() {
		out = append(out, arc[V]{val: rem, down: down})
	}
	return out, nil
}

// squareHier is squareFlat with the label arithmetic replaced by the
// recursive SDD operations on the nested level.
func (k *Kernel[V]) squareHier(op Operator, A, B []arc[V]) ([]arc[V], error) {
	var res []arc[V]
	switch op {
	case OpInter:
		for _, a := range A {
			for _, b := range B {
				c, err := k.apply(OpInter, a.label, b.label)
				if err != nil {
					return nil, err
				}
				if c == zeroNode {
					continue
				}
				d, err := k.apply(OpInter, a.down, b.down)
				if err != nil {
					return nil, err
				}
				res = append(res, arc[V]{label: c, down: d})
			}
		}
	case OpDiff:
		for _, a := range A {
			rem := a.label
			for _, b := range B {
				c, err := k.apply(OpInter, a.label, b.label)
				if err != nil {
					return nil, err
				}
				if c == zeroNode {
					continue
				}
				d, err := k.apply(OpDiff, a.down, b.down)
				if err != nil {
					return nil, err
				}
				res = append(res, arc[V]{label: c, down: d})
				if rem, err = k.apply(OpDiff, rem, b.label); err != nil {
					return nil, err
				}
			}
			if rem != zeroNode {
				res = append(res, arc[V]{label: rem, down: a.down})
			}
		}
	case OpUnion:
		res = append(res, A...)
		for _, b := range B {
			var err error
			res, err = k.insertHier(res, b.label, b.down)
			if err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

func (k *Kernel[V]) insertHier(acc []arc[V], label Node, down Node) ([]arc[V], error) {
	rem := label
	out := make([]arc[V], 0, len(acc)+1)
	for _, a := range acc {
		if rem == zeroNode {
			out = append(out, a)
			continue
		}
		c, err := k.apply(OpInter, a.label, rem)
		if err != nil {
			return nil, err
		}
		if c == zeroNode {
			out = append(out, a)
			continue
		}
		if rem, err = k.apply(OpDiff, rem, c); err != nil {
			return nil, err
		}
		if a.down == down {
			out = append(out, a)
			continue
		}
		stay, err := k.apply(OpDiff, a.label, c)
		if err != nil {
			return nil, err
		}
		if stay != zeroNode {
			out = append(out, arc[V]{label: stay, down: a.down})
		}
		d, err := k.apply(OpUnion, a.down, down)
		if err != nil {
			return nil, err
		}
		out = append(out, arc[V]{label: c, down: d})
	}
	if rem != zeroNode {
		out = append(out, arc[V]{label: rem, down: down})
	}
	return out, nil
}

// ************************************************************

// sum batches the union of any number of operands at once: arcs are grouped
// by target first, which keeps the degree of the recursion proportional to
// the number of distinct successors instead of the number of operands. This
// is what the evaluation of an n-ary Sum homomorphism relies on.
func (k *Kernel[V]) sum(xs []Node) (Node, error) {
	ops := xs[:0]
	for _, x := range xs {
		if x == zeroNode {
			continue
		}
		dup := false
		for _, o := range ops {
			if o == x {
				dup = true
				break
			}
		}
		if !dup {
			ops = append(ops, x)
		}
	}
	if len(ops) == 0 {
		return zeroNode, nil
	}
	if len(ops) == 1 {
		return ops[0], nil
	}
	kind, v := k.nodes[ops[0]].kind, k.nodes[ops[0]].v
	for _, x := range ops[1:] {
		n := &k.nodes[x]
		if n.kind != kind || n.v != v {
			return zeroNode, newTop()
		}
	}
	// group arcs by target across all the operands
	var arcs []arc[V]
	for _, x := range ops {
		arcs = append(arcs, k.nodes[x].arcs...)
	}
	if kind == kflat {
		grouped := groupFlat(arcs)
		var acc []arc[V]
		for _, a := range grouped {
			var err error
			acc, err = k.insertFlat(acc, a.val, a.down)
			if err != nil {
				return zeroNode, err
			}
		}
		return k.makeflat(v, acc), nil
	}
	grouped, err := k.groupHier(arcs)
	if err != nil {
		return zeroNode, err
	}
	var acc []arc[V]
	for _, a := range grouped {
		if acc, err = k.insertHier(acc, a.label, a.down); err != nil {
			return zeroNode, err
		}
	}
	return k.makehier(v, acc)
}

// groupFlat merges the arcs that share a successor by unioning their labels.
func groupFlat[V Values[V]](arcs []arc[V]) []arc[V] {
	bytarget := make(map[Node]int, len(arcs))
	var out []arc[V]
	for _, a := range arcs {
		if i, ok := bytarget[a.down]; ok {
			out[i].val = out[i].val.Union(a.val)
			continue
		}
		bytarget[a.down] = len(out)
		out = append(out, a)
	}
	return out
}

func (k *Kernel[V]) groupHier(arcs []arc[V]) ([]arc[V], error) {
	bytarget := make(map[Node]int, len(arcs))
	var out []arc[V]
	for _, a := range arcs {
		if i, ok := bytarget[a.down]; ok {
			lbl, err := k.apply(OpUnion, out[i].label, a.label)
			if err != nil {
				return nil, err
			}
			out[i].label = lbl
			continue
		}
		bytarget[a.down] = len(out)
		out = append(out, a)
	}
	return out, nil
}
