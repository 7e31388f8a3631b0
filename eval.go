// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// evop is the fingerprint of a homomorphism evaluation in the cache. The
// order is deliberately absent: within one evaluation session it is a
// function of x and of the top-level order the cache is tied to.
type evop struct {
	h Hom
	x Node
}

// Eval applies the homomorphism h to x under the order o. The result is a
// canonical SDD; on failure the error wraps an *EvalError whose trace lists
// the operators crossed while propagating (see IsTop and IsConsOnNonOne).
//
// Every intermediate application is memoized in a cache tied to o, so
// repeated evaluations under the same top-level order share work. A single
// cache is used for the whole evaluation, including the bodies of fixpoints;
// a dedicated, smaller fixpoint cache would be a possible optimization knob
// but is not implemented.
func (k *Kernel[V]) Eval(h Hom, o Order, x Node) (Node, error) {
	c := k.evalcache(o.head)
	res, err := k.eval(c, h, o.head, x)
	if err != nil {
		return zeroNode, errors.Wrap(err, "homomorphism evaluation failed")
	}
	return res, nil
}

func (k *Kernel[V]) eval(c *opcache[evop], h Hom, o *onode, x Node) (Node, error) {
	if h == identityHom {
		return x, nil
	}
	if o != nil && k.skipNode(h, o) {
		if x == zeroNode || x == oneNode {
			// nothing left to rewrite below. Note that a Constant never
			// skips, so this is sound even though it would not commute
			// with it.
			return x, nil
		}
		if k.nodes[x].v != o.v {
			return zeroNode, k.decorate(newTop(), h)
		}
		return c.eval(evop{h, x}, func() (Node, error) { return k.skipStep(c, h, o, x) })
	}
	return c.eval(evop{h, x}, func() (Node, error) { return k.step(c, h, o, x) })
}

// skipStep rewrites h(o, x) when h does not inspect the top level of x: the
// operator is pushed down into the children, x' = {(label, h(o.next, sub))}.
// This is what lifts operators past unrelated levels and makes saturation
// work.
func (k *Kernel[V]) skipStep(c *opcache[evop], h Hom, o *onode, x Node) (Node, error) {
	xn := k.nodes[x]
	res := make([]arc[V], 0, len(xn.arcs))
	for _, a := range xn.arcs {
		d, err := k.eval(c, h, o.next, a.down)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		res = append(res, arc[V]{val: a.val, label: a.label, down: d})
	}
	if xn.kind == kflat {
		return k.makeflat(o.v, res), nil
	}
	r, err := k.makehier(o.v, res)
	if err != nil {
		return zeroNode, k.decorate(err, h)
	}
	return r, nil
}

// step dispatches on the operator once the identity and skip fast paths did
// not apply. Zero is not short-circuited here: a Constant (which is filtered
// out of the cache), and any operator built over one, can map it to a
// non-empty SDD, and Cons fails on it like on any node other than One.
func (k *Kernel[V]) step(c *opcache[evop], h Hom, o *onode, x Node) (Node, error) {
	hn := k.homs[h]
	switch hn.kind {

	case hConstant:
		return hn.sdd, nil

	case hConsFlat, hConsHier:
		if x != oneNode {
			return zeroNode, k.decorate(newConsOnNonOne(), h)
		}
		var next *onode
		if o != nil {
			next = o.next
		}
		d, err := k.eval(c, hn.ops[0], next, x)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		if hn.kind == hConsFlat {
			return k.makeflat(hn.v, []arc[V]{{val: hn.val, down: d}}), nil
		}
		r, err := k.makehier(hn.v, []arc[V]{{label: hn.sdd, down: d}})
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		return r, nil

	case hSum:
		rs := make([]Node, 0, len(hn.ops))
		for _, op := range hn.ops {
			r, err := k.eval(c, op, o, x)
			if err != nil {
				return zeroNode, k.decorate(err, h)
			}
			rs = append(rs, r)
		}
		res, err := k.sum(rs)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		return res, nil

	case hInter:
		res, err := k.eval(c, hn.ops[0], o, x)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		for _, op := range hn.ops[1:] {
			if res == zeroNode {
				return zeroNode, nil
			}
			r, err := k.eval(c, op, o, x)
			if err != nil {
				return zeroNode, k.decorate(err, h)
			}
			if res, err = k.apply(OpInter, res, r); err != nil {
				return zeroNode, k.decorate(err, h)
			}
		}
		return res, nil

	case hComp:
		t, err := k.eval(c, hn.ops[1], o, x)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		r, err := k.eval(c, hn.ops[0], o, t)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		return r, nil

	case hFixpoint:
		// two states: growing while the handle changes, stable as soon as
		// two consecutive iterations agree. Equality is handle equality.
		x1 := x
		for {
			x2, err := k.eval(c, hn.ops[0], o, x1)
			if err != nil {
				return zeroNode, k.decorate(err, h)
			}
			if x2 == x1 {
				return x1, nil
			}
			x1 = x2
		}

	case hLocal:
		if x == zeroNode {
			return zeroNode, nil
		}
		if o == nil || x == oneNode {
			// the identifier does not appear below this point
			return x, nil
		}
		xn := k.nodes[x]
		if xn.kind != khier || xn.v != o.v {
			return zeroNode, k.decorate(newTop(), h)
		}
		res := make([]arc[V], 0, len(xn.arcs))
		for _, a := range xn.arcs {
			lbl, err := k.eval(c, hn.ops[0], o.nested, a.label)
			if err != nil {
				return zeroNode, k.decorate(err, h)
			}
			res = append(res, arc[V]{label: lbl, down: a.down})
		}
		r, err := k.makehier(o.v, res)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		return r, nil

	case hValues:
		if x == zeroNode {
			return zeroNode, nil
		}
		if x == oneNode {
			return zeroNode, k.decorate(newTop(), h)
		}
		xn := k.nodes[x]
		if xn.kind != kflat || xn.v != hn.v {
			return zeroNode, k.decorate(newTop(), h)
		}
		res := make([]arc[V], 0, len(xn.arcs))
		for _, a := range xn.arcs {
			res = append(res, arc[V]{val: hn.fn.Apply(a.val), down: a.down})
		}
		return k.makeflat(xn.v, res), nil

	case hInduct:
		if x == zeroNode {
			return zeroNode, nil
		}
		if x == oneNode {
			return hn.ind.One(), nil
		}
		xn := k.nodes[x]
		if xn.kind != kflat {
			return zeroNode, k.decorate(newTop(), h)
		}
		var next *onode
		if o != nil {
			next = o.next
		}
		rs := make([]Node, 0, len(xn.arcs))
		for _, a := range xn.arcs {
			g := hn.ind.Arc(xn.v, a.val)
			d, err := k.eval(c, g, next, a.down)
			if err != nil {
				return zeroNode, k.decorate(err, h)
			}
			rs = append(rs, k.makeflat(xn.v, []arc[V]{{val: a.val, down: d}}))
		}
		res, err := k.sum(rs)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		return res, nil

	case hSatFix:
		f, l, g := hn.ops[0], hn.ops[1], hn.ops[2:]
		x1 := x
		for {
			prev := x1
			var err error
			if f != nilHom {
				if x1, err = k.eval(c, f, o, x1); err != nil {
					return zeroNode, k.decorate(err, h)
				}
			}
			if l != nilHom {
				if x1, err = k.eval(c, l, o, x1); err != nil {
					return zeroNode, k.decorate(err, h)
				}
			}
			for _, gi := range g {
				r, err := k.eval(c, gi, o, x1)
				if err != nil {
					return zeroNode, k.decorate(err, h)
				}
				if x1, err = k.apply(OpUnion, x1, r); err != nil {
					return zeroNode, k.decorate(err, h)
				}
			}
			if x1 == prev {
				return x1, nil
			}
		}

	case hSatSum:
		f, l, g := hn.ops[0], hn.ops[1], hn.ops[2:]
		parts := make([]Node, 0, len(g)+2)
		for _, op := range append([]Hom{f, l}, g...) {
			if op == nilHom {
				continue
			}
			r, err := k.eval(c, op, o, x)
			if err != nil {
				return zeroNode, k.decorate(err, h)
			}
			parts = append(parts, r)
		}
		res, err := k.sum(parts)
		if err != nil {
			return zeroNode, k.decorate(err, h)
		}
		return res, nil
	}

	invariant(false, "unknown homomorphism kind in dispatch")
	return zeroNode, nil
}

// decorate appends the printed form of the operator being evaluated to the
// trace of an evaluation error.
func (k *Kernel[V]) decorate(err error, h Hom) error {
	var e *EvalError
	if stderrors.As(err, &e) {
		return e.addStep(k.PrintHom(h))
	}
	return err
}
