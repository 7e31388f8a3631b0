// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

// Rewrite specializes h for evaluation under the order o, turning fixpoints
// of sums into saturation operators. At each level the operands of the sum
// are partitioned into: F, the part that must be applied on the current
// level; L, the Locals working on the nested level of the head identifier;
// and G, the operands that skip the current level, which are pushed further
// down recursively. The fixpoint of the whole sum then becomes a
// SaturationFixpoint interleaving the fixpoint of F, the fixpoint of the
// nested level, and the contributions of G, level by level.
//
// Rewriting preserves semantics: Eval(Rewrite(o, h), o, x) == Eval(h, o, x)
// for every x. It only pays off on fixpoints of large sums, which is the
// shape produced by transition systems.
func (k *Kernel[V]) Rewrite(o Order, h Hom) Hom {
	return k.rewriteAt(o.head, h)
}

func (k *Kernel[V]) rewriteAt(o *onode, h Hom) Hom {
	if o == nil {
		return h
	}
	hn := k.homs[h]
	switch hn.kind {

	case hFixpoint:
		inner := k.homs[hn.ops[0]]
		if inner.kind != hSum {
			return h
		}
		// the decomposition below is only sound when the iterated function
		// contains the identity, i.e. when the fixpoint accumulates
		hasID := false
		var fpart, gpart, lpart []Hom
		for _, op := range inner.ops {
			if op == identityHom {
				hasID = true
				continue
			}
			opn := k.homs[op]
			if opn.kind == hLocal && o.named && opn.id == o.id {
				lpart = append(lpart, opn.ops[0])
				continue
			}
			if k.skipNode(op, o) {
				gpart = append(gpart, k.rewriteAt(o.next, op))
				continue
			}
			fpart = append(fpart, op)
		}
		if !hasID {
			return h
		}
		f, l := nilHom, nilHom
		if len(fpart) > 0 {
			f = k.Fixpoint(k.mustSum(append(fpart, identityHom)))
		}
		if len(lpart) > 0 {
			nested := k.Fixpoint(k.mustSum(append(lpart, identityHom)))
			l = k.Local(o.id, k.rewriteAt(o.nested, nested))
		}
		if f == nilHom && l == nilHom && len(gpart) == 0 {
			return identityHom
		}
		return k.satFixpoint(o.v, f, l, gpart)

	case hSum:
		var fpart, gpart, lpart []Hom
		for _, op := range hn.ops {
			opn := k.homs[op]
			if opn.kind == hLocal && o.named && opn.id == o.id {
				lpart = append(lpart, opn.ops[0])
				continue
			}
			if k.skipNode(op, o) {
				gpart = append(gpart, k.rewriteAt(o.next, op))
				continue
			}
			fpart = append(fpart, op)
		}
		if len(gpart) == 0 && len(lpart) == 0 {
			return h
		}
		f, l := nilHom, nilHom
		if len(fpart) > 0 {
			f = k.mustSum(fpart)
		}
		if len(lpart) > 0 {
			l = k.Local(o.id, k.rewriteAt(o.nested, k.mustSum(lpart)))
		}
		return k.satSum(o.v, f, l, gpart)
	}
	return h
}

func (k *Kernel[V]) mustSum(ops []Hom) Hom {
	s, err := k.Sum(ops...)
	invariant(err == nil, "sum of a non-empty operand list cannot fail")
	return s
}
