// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"reflect"
	"sort"

	"github.com/mitchellh/hashstructure"
)

// HomKind discriminates the homomorphism variants.
type HomKind uint8

const (
	HomIdentity HomKind = iota
	HomConstant
	HomConsFlat
	HomConsHier
	HomSum
	HomIntersection
	HomComposition
	HomFixpoint
	HomLocal
	HomValuesFunction
	HomInductive
	HomSaturationFixpoint
	HomSaturationSum
)

const (
	hIdentity = HomIdentity
	hConstant = HomConstant
	hConsFlat = HomConsFlat
	hConsHier = HomConsHier
	hSum      = HomSum
	hInter    = HomIntersection
	hComp     = HomComposition
	hFixpoint = HomFixpoint
	hLocal    = HomLocal
	hValues   = HomValuesFunction
	hInduct   = HomInductive
	hSatFix   = HomSaturationFixpoint
	hSatSum   = HomSaturationSum
)

// ValuesOperation is a pure function over arc labels, evaluated by a
// ValuesFunction homomorphism. Implementations must be deterministic,
// preserve the empty set, and should be plain comparable structs: the
// operation is part of the homomorphism's identity in the unicity table.
type ValuesOperation[V any] interface {
	// Apply transforms one arc label.
	Apply(V) V

	// Selector reports whether Apply always returns a subset of its
	// argument.
	Selector() bool

	String() string
}

// homNode is the record interned for each canonical homomorphism. The
// fields used depend on the kind; the operand list is the variable-size
// payload. For the saturation variants ops is [F, L, G...] where F and L may
// be nilHom.
type homNode[V Values[V]] struct {
	kind HomKind
	v    Variable
	val  V       // flat cons label
	sdd  Node    // constant value, hierarchical cons label
	id   string  // local identifier
	ops  []Hom   // operands
	fn   ValuesOperation[V]
	ind  Inductive[V]
}

// ************************************************************

func (k *Kernel[V]) homkey(h *homNode[V], probe int) string {
	buf := k.hbuff[:0]
	buf = append(buf, byte(h.kind))
	buf = appendInt(buf, int(h.v))
	buf = appendInt(buf, int(h.sdd))
	buf = appendInt(buf, len(h.id))
	buf = append(buf, h.id...)
	if h.kind == hConsFlat {
		buf = h.val.AppendBytes(buf)
	}
	for _, op := range h.ops {
		buf = appendInt(buf, int(op))
	}
	if h.fn != nil {
		buf = appendUserHash(buf, h.fn)
	}
	if h.ind != nil {
		buf = appendUserHash(buf, h.ind)
	}
	if probe > 0 {
		buf = appendInt(buf, probe)
	}
	k.hbuff = buf
	return string(buf)
}

// appendUserHash fingerprints a user-supplied payload. The hash is not
// injective, so interning double-checks with a structural comparison and
// probes on collisions.
func appendUserHash(buf []byte, payload interface{}) []byte {
	hash, err := hashstructure.Hash(payload, nil)
	if err != nil {
		hash = 0
	}
	return append(buf,
		byte(hash), byte(hash>>8), byte(hash>>16), byte(hash>>24),
		byte(hash>>32), byte(hash>>40), byte(hash>>48), byte(hash>>56))
}

func (k *Kernel[V]) homEqual(a, b *homNode[V]) bool {
	if a.kind != b.kind || a.v != b.v || a.sdd != b.sdd || a.id != b.id ||
		len(a.ops) != len(b.ops) {
		return false
	}
	for i := range a.ops {
		if a.ops[i] != b.ops[i] {
			return false
		}
	}
	if a.kind == hConsFlat && !a.val.Equal(b.val) {
		return false
	}
	if (a.fn == nil) != (b.fn == nil) || (a.ind == nil) != (b.ind == nil) {
		return false
	}
	if a.fn != nil && !reflect.DeepEqual(a.fn, b.fn) {
		return false
	}
	if a.ind != nil && !reflect.DeepEqual(a.ind, b.ind) {
		return false
	}
	return true
}

func (k *Kernel[V]) internHom(h homNode[V]) Hom {
	for probe := 0; ; probe++ {
		key := k.homkey(&h, probe)
		id, ok := k.homuniq[key]
		if !ok {
			id = Hom(len(k.homs))
			k.homs = append(k.homs, h)
			k.homuniq[key] = id
			return id
		}
		if k.homEqual(&k.homs[id], &h) {
			return id
		}
	}
}

// ************************************************************
// Builders. Each builder first attempts an algebraic simplification and
// only then interns; the rewrites keep the operator trees canonical so
// that two equivalent constructions share one handle.

// Constant returns the homomorphism mapping every SDD to x.
func (k *Kernel[V]) Constant(x Node) Hom {
	return k.internHom(homNode[V]{kind: hConstant, sdd: x})
}

// Cons returns the homomorphism that, applied to One, builds the flat node
// [v: val -> h(One)]. Applying it to anything else is an error.
func (k *Kernel[V]) Cons(v Variable, val V, h Hom) Hom {
	return k.internHom(homNode[V]{kind: hConsFlat, v: v, val: val, ops: []Hom{h}})
}

// ConsHier is the hierarchical form of Cons: the arc label is an SDD over
// the nested order at v.
func (k *Kernel[V]) ConsHier(v Variable, label Node, h Hom) Hom {
	return k.internHom(homNode[V]{kind: hConsHier, v: v, sdd: label, ops: []Hom{h}})
}

// Sum returns the pointwise union of its operands. Nested sums are
// flattened, Locals on the same identifier are regrouped under a single
// Local, and the operand list is sorted and deduplicated. Regrouping the
// Locals is not only an optimization: saturation relies on it to visit a
// nested level once per step instead of once per operand.
func (k *Kernel[V]) Sum(ops ...Hom) (Hom, error) {
	return k.nary(hSum, ops)
}

// Intersection returns the pointwise intersection of its operands, with the
// same canonicalization as Sum.
func (k *Kernel[V]) Intersection(ops ...Hom) (Hom, error) {
	return k.nary(hInter, ops)
}

func (k *Kernel[V]) nary(kind HomKind, ops []Hom) (Hom, error) {
	if len(ops) == 0 {
		return identityHom, ErrEmptyOperands
	}
	set := make(map[Hom]struct{})
	locals := make(map[string][]Hom)
	var lorder []string
	var visit func(h Hom)
	visit = func(h Hom) {
		hn := k.homs[h]
		switch hn.kind {
		case kind:
			for _, op := range hn.ops {
				visit(op)
			}
		case hLocal:
			if _, ok := locals[hn.id]; !ok {
				lorder = append(lorder, hn.id)
			}
			locals[hn.id] = append(locals[hn.id], hn.ops[0])
		default:
			set[h] = struct{}{}
		}
	}
	for _, op := range ops {
		visit(op)
	}
	for _, id := range lorder {
		inner, err := k.nary(kind, locals[id])
		if err != nil {
			return identityHom, err
		}
		set[k.Local(id, inner)] = struct{}{}
	}
	flat := make([]Hom, 0, len(set))
	for h := range set {
		flat = append(flat, h)
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i] < flat[j] })
	if len(flat) == 1 {
		return flat[0], nil
	}
	return k.internHom(homNode[V]{kind: kind, ops: flat}), nil
}

// Compose returns the composition a after b.
func (k *Kernel[V]) Compose(a, b Hom) Hom {
	if a == identityHom {
		return b
	}
	if b == identityHom {
		return a
	}
	if k.homs[a].kind == hConstant {
		// the result of a does not depend on its input
		return a
	}
	return k.internHom(homNode[V]{kind: hComp, ops: []Hom{a, b}})
}

// Fixpoint returns the homomorphism iterating h until its output stops
// changing.
func (k *Kernel[V]) Fixpoint(h Hom) Hom {
	hn := k.homs[h]
	switch hn.kind {
	case hIdentity:
		return identityHom
	case hFixpoint:
		return h
	case hLocal:
		return k.Local(hn.id, k.Fixpoint(hn.ops[0]))
	}
	return k.internHom(homNode[V]{kind: hFixpoint, ops: []Hom{h}})
}

// Local returns the homomorphism applying h inside the nested level named
// by id, leaving every other level untouched.
func (k *Kernel[V]) Local(id string, h Hom) Hom {
	if h == identityHom {
		return identityHom
	}
	return k.internHom(homNode[V]{kind: hLocal, id: id, ops: []Hom{h}})
}

// ValuesFunction returns the homomorphism applying f to every arc label of
// a flat node at variable v.
func (k *Kernel[V]) ValuesFunction(v Variable, f ValuesOperation[V]) Hom {
	return k.internHom(homNode[V]{kind: hValues, v: v, fn: f})
}

// Inductive returns the homomorphism deferring to the user strategy u; see
// the Inductive interface.
func (k *Kernel[V]) Inductive(u Inductive[V]) Hom {
	return k.internHom(homNode[V]{kind: hInduct, ind: u})
}

func (k *Kernel[V]) satFixpoint(v Variable, f, l Hom, g []Hom) Hom {
	return k.internHom(homNode[V]{kind: hSatFix, v: v, ops: append([]Hom{f, l}, g...)})
}

func (k *Kernel[V]) satSum(v Variable, f, l Hom, g []Hom) Hom {
	return k.internHom(homNode[V]{kind: hSatSum, v: v, ops: append([]Hom{f, l}, g...)})
}

// ************************************************************
// Inspection.

// KindOf returns the variant of h.
func (k *Kernel[V]) KindOf(h Hom) HomKind {
	return k.homs[h].kind
}

// Operands returns a copy of the operand list of h. For compositions the
// list is [outer, inner]; for the saturation variants it is [F, L, G...]
// where F and L may be -1 when absent.
func (k *Kernel[V]) Operands(h Hom) []Hom {
	return append([]Hom{}, k.homs[h].ops...)
}

// LocalID returns the identifier of a Local homomorphism.
func (k *Kernel[V]) LocalID(h Hom) (string, bool) {
	hn := k.homs[h]
	return hn.id, hn.kind == hLocal
}

// ************************************************************
// Static predicates.

// Skip reports whether h does not inspect the level at the head of o, that
// is whether h(o, x) can be computed by pushing h down into the children of
// x when the top variable of x is o.Variable().
func (k *Kernel[V]) Skip(h Hom, o Order) bool {
	if o.Empty() {
		return false
	}
	return k.skipNode(h, o.head)
}

func (k *Kernel[V]) skipNode(h Hom, o *onode) bool {
	hn := k.homs[h]
	switch hn.kind {
	case hIdentity:
		return true
	case hSum, hInter:
		for _, op := range hn.ops {
			if !k.skipNode(op, o) {
				return false
			}
		}
		return true
	case hComp:
		return k.skipNode(hn.ops[0], o) && k.skipNode(hn.ops[1], o)
	case hFixpoint:
		return k.skipNode(hn.ops[0], o)
	case hLocal:
		return !(o.named && o.id == hn.id)
	case hValues:
		return o.v != hn.v
	case hInduct:
		return hn.ind.Skip(o.v)
	case hSatFix, hSatSum:
		return o.v != hn.v
	}
	// constants and cons always work on the current level
	return false
}

// Selector reports whether h(o, x) is guaranteed to be a subset of x for
// every x.
func (k *Kernel[V]) Selector(h Hom) bool {
	hn := k.homs[h]
	switch hn.kind {
	case hIdentity:
		return true
	case hSum:
		for _, op := range hn.ops {
			if !k.Selector(op) {
				return false
			}
		}
		return true
	case hInter:
		// the intersection shrinks as soon as one operand does
		for _, op := range hn.ops {
			if k.Selector(op) {
				return true
			}
		}
		return false
	case hComp:
		return k.Selector(hn.ops[0]) && k.Selector(hn.ops[1])
	case hFixpoint, hLocal:
		return k.Selector(hn.ops[0])
	case hValues:
		return hn.fn.Selector()
	case hSatFix, hSatSum:
		for _, op := range hn.ops {
			if op != nilHom && !k.Selector(op) {
				return false
			}
		}
		return true
	}
	return false
}
