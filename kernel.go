// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"github.com/sirupsen/logrus"
)

// _MAXVAR is the maximal value of a library variable. We keep variables in
// the first 21 bits of an int32, like levels in a BDD package, so that nodes
// stay small when the arch is 32 bits.
const _MAXVAR Variable = 0x1FFFFF

// _DEFAULTCACHESIZE is the default maximal number of entries in the
// operation caches. A cache of 10 000 entries works well even for large
// examples; lesser values do it for smaller ones.
const _DEFAULTCACHESIZE int = 10000

// Variable is the type of library variables. Variables are assigned to user
// identifiers by the order builder and never chosen directly.
type Variable = int32

// Node is the handle of a canonical SDD. The two constants Zero and One are
// always at index 0 and 1. Handle equality coincides with semantic equality:
// two SDDs built in the same kernel denote the same set of tuples exactly
// when their handles are equal.
type Node int

// Hom is the handle of a canonical homomorphism. Identity is always at index
// 0. Like for nodes, handle equality is semantic equality of the operator
// trees after the builder rewrites.
type Hom int

const (
	zeroNode Node = 0
	oneNode  Node = 1

	identityHom Hom = 0
)

// nilHom marks an absent component in a saturation operator.
const nilHom Hom = -1

// Kernel owns every canonicalized node and homomorphism, together with the
// operation caches. It is the entry point of the whole library: a process
// typically creates one kernel per Values configuration and shares it across
// all the evaluations.
//
// A kernel is not safe for concurrent use. All the operations are
// synchronous and deterministic; callers that need isolation should create
// separate kernels.
type Kernel[V Values[V]] struct {
	nodes    []sddNode[V]    // arena of all the SDD nodes; 0 and 1 are the constants
	unique   map[string]Node // unicity table for nodes, keyed by serialized content
	homs     []homNode[V]    // arena of all the homomorphisms; 0 is Identity
	homuniq  map[string]Hom  // unicity table for homomorphisms
	produced int             // total number of new nodes ever produced
	hbuff    []byte          // scratch buffer for unicity keys

	opcache    *opcache[sddOp]           // cache for union/inter/diff results
	evalcaches map[*onode]*opcache[evop] // one evaluation cache per top-level order

	configs
	log *logrus.Logger
}

// New initializes a kernel. Options can change the cache sizes, the variable
// assignment strategy and the logger; see the documentation of the option
// functions.
func New[V Values[V]](options ...Option) *Kernel[V] {
	k := &Kernel[V]{
		unique:     make(map[string]Node),
		homuniq:    make(map[string]Hom),
		evalcaches: make(map[*onode]*opcache[evop]),
		configs:    makeconfigs(),
		log:        logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(&k.configs)
	}
	if k.configs.logger != nil {
		k.log = k.configs.logger
	}
	// The two terminal nodes. They are not inserted in the unicity table:
	// their handles are fixed.
	k.nodes = append(k.nodes,
		sddNode[V]{kind: kzero},
		sddNode[V]{kind: kone})
	// Identity is the only homomorphism present from the start.
	k.homs = append(k.homs, homNode[V]{kind: hIdentity})
	k.opcache = newopcache[sddOp]("sdd", k.configs.sddcachesize, k.configs.nocache, k.log)
	return k
}

// Zero returns the empty set.
func (k *Kernel[V]) Zero() Node { return zeroNode }

// One returns the set containing only the empty tuple.
func (k *Kernel[V]) One() Node { return oneNode }

// Identity returns the identity homomorphism.
func (k *Kernel[V]) Identity() Hom { return identityHom }

// Scrub invalidates all the operation caches. The unicity tables are left
// untouched: canonical nodes live as long as the kernel. Scrubbing is purely
// an optimization entry point, never required for correctness.
func (k *Kernel[V]) Scrub() {
	k.opcache.clear()
	k.evalcaches = make(map[*onode]*opcache[evop])
}

// evalcache returns the evaluation cache tied to a top-level order, creating
// it on first use. The order is not part of the memoization key: within one
// evaluation session it is a function of the input node, so (h, x) identifies
// the operation. Distinct top-level orders get distinct caches.
func (k *Kernel[V]) evalcache(head *onode) *opcache[evop] {
	if c, ok := k.evalcaches[head]; ok {
		return c
	}
	c := newopcache[evop]("hom", k.configs.homcachesize, k.configs.nocache, k.log,
		func(op evop) bool { return k.homs[op.h].kind != hConstant })
	k.evalcaches[head] = c
	return c
}

// appendInt appends the little-endian bytes of n to buf. This is the basic
// block of every unicity key.
func appendInt(buf []byte, n int) []byte {
	u := uint64(n)
	return append(buf,
		byte(u), byte(u>>8), byte(u>>16), byte(u>>24),
		byte(u>>32), byte(u>>40), byte(u>>48), byte(u>>56))
}
