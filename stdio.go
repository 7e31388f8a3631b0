// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"unsafe"
)

// Print returns a textual representation of the SDD x: 0 and 1 for the
// terminals, and (l1 -> c1, l2 -> c2) for nodes, with hierarchical labels
// printed as nested SDDs. The form is informational and is not meant to be
// parsed back.
func (k *Kernel[V]) Print(x Node) string {
	switch x {
	case zeroNode:
		return "0"
	case oneNode:
		return "1"
	}
	n := &k.nodes[x]
	var b strings.Builder
	b.WriteByte('(')
	for i, a := range n.arcs {
		if i > 0 {
			b.WriteString(", ")
		}
		if n.kind == kflat {
			b.WriteString(a.val.String())
		} else {
			b.WriteString(k.Print(a.label))
		}
		b.WriteString(" -> ")
		b.WriteString(k.Print(a.down))
	}
	b.WriteByte(')')
	return b.String()
}

// PrintHom returns a textual representation of the homomorphism h: (h)* for
// a fixpoint, (a + b) for a sum, (a & b) for an intersection, a ∘ b for a
// composition and @id(h) for a local.
func (k *Kernel[V]) PrintHom(h Hom) string {
	if h == nilHom {
		return "_"
	}
	hn := k.homs[h]
	switch hn.kind {
	case hIdentity:
		return "id"
	case hConstant:
		return "cst(" + k.Print(hn.sdd) + ")"
	case hConsFlat:
		return fmt.Sprintf("cons(%d, %s, %s)", hn.v, hn.val.String(), k.PrintHom(hn.ops[0]))
	case hConsHier:
		return fmt.Sprintf("cons(%d, %s, %s)", hn.v, k.Print(hn.sdd), k.PrintHom(hn.ops[0]))
	case hSum:
		return "(" + k.printOps(hn.ops, " + ") + ")"
	case hInter:
		return "(" + k.printOps(hn.ops, " & ") + ")"
	case hComp:
		return k.PrintHom(hn.ops[0]) + " ∘ " + k.PrintHom(hn.ops[1])
	case hFixpoint:
		return "(" + k.PrintHom(hn.ops[0]) + ")*"
	case hLocal:
		return "@" + hn.id + "(" + k.PrintHom(hn.ops[0]) + ")"
	case hValues:
		return fmt.Sprintf("fun(%d, %s)", hn.v, hn.fn.String())
	case hInduct:
		return "ind(" + hn.ind.String() + ")"
	case hSatFix:
		return fmt.Sprintf("sat@%d(%s | %s | (%s))*", hn.v,
			k.PrintHom(hn.ops[0]), k.PrintHom(hn.ops[1]), k.printOps(hn.ops[2:], " + "))
	case hSatSum:
		return fmt.Sprintf("sat@%d(%s | %s | (%s))", hn.v,
			k.PrintHom(hn.ops[0]), k.PrintHom(hn.ops[1]), k.printOps(hn.ops[2:], " + "))
	}
	return "?"
}

func (k *Kernel[V]) printOps(ops []Hom, sep string) string {
	strs := make([]string, len(ops))
	for i, op := range ops {
		strs[i] = k.PrintHom(op)
	}
	return strings.Join(strs, sep)
}

// ************************************************************

// Statistics returns the statistics of all the operation caches: the SDD
// operation cache first, then one entry per evaluation cache.
func (k *Kernel[V]) Statistics() []CacheStatistics {
	res := []CacheStatistics{k.opcache.statistics()}
	evs := make([]CacheStatistics, 0, len(k.evalcaches))
	for _, c := range k.evalcaches {
		evs = append(evs, c.statistics())
	}
	sort.Slice(evs, func(i, j int) bool { return evs[i].Size < evs[j].Size })
	return append(res, evs...)
}

// Stats returns information about the unicity tables.
func (k *Kernel[V]) Stats() string {
	res := fmt.Sprintf("Nodes:      %d\n", len(k.nodes))
	res += fmt.Sprintf("Produced:   %d\n", k.produced)
	res += fmt.Sprintf("Homs:       %d", len(k.homs))
	return res
}

// PrintStats outputs a textual representation of the kernel statistics,
// including the hit/miss/filtered counts of every cache round.
func (k *Kernel[V]) PrintStats(w io.Writer) {
	fmt.Fprintln(w, "==============")
	fmt.Fprintln(w, k.Stats())
	for _, cs := range k.Statistics() {
		fmt.Fprintln(w, "==============")
		total := cs.Total()
		fmt.Fprintf(w, "%s cache: %d entries, %d cleanups\n", cs.Name, cs.Size, cs.Cleanups())
		fmt.Fprintf(w, "totals:    %s\n", total)
		tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
		for i, r := range cs.Rounds {
			fmt.Fprintf(tw, "round %d\t hits: %d\t misses: %d\t filtered: %d\n",
				i, r.Hits, r.Misses, r.Filtered)
		}
		tw.Flush()
	}
	fmt.Fprintln(w, "==============")
}

// Sizes returns the in-memory sizes of the main record types, mostly useful
// to keep an eye on the footprint of the arenas.
func (k *Kernel[V]) Sizes() string {
	var n sddNode[V]
	var a arc[V]
	var h homNode[V]
	var e centry
	var o onode
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "sdd node\t %d\n", unsafe.Sizeof(n))
	fmt.Fprintf(tw, "arc\t %d\n", unsafe.Sizeof(a))
	fmt.Fprintf(tw, "homomorphism\t %d\n", unsafe.Sizeof(h))
	fmt.Fprintf(tw, "cache entry\t %d\n", unsafe.Sizeof(e))
	fmt.Fprintf(tw, "order node\t %d\n", unsafe.Sizeof(o))
	tw.Flush()
	return b.String()
}
