// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ************************************************************
// opcache is used for caching the results of SDD operations and of
// homomorphism evaluations. It is a bounded table with an LFU eviction
// policy: fixpoint loops consult the same operation many times, so favoring
// high-frequency entries yields better hit ratios than recency-based
// eviction on this workload.

// Round is the statistics of a cache between two cleanups.
type Round struct {
	Hits     int
	Misses   int
	Filtered int
}

// CacheStatistics describes how well a cache performed. A new round is
// pushed at each cleanup, so the rounds give a detailed view of the cache
// behavior over time; Rounds[0] is the oldest.
type CacheStatistics struct {
	Name   string
	Size   int
	Rounds []Round
}

// Cleanups returns the number of cleanups the cache went through.
func (s CacheStatistics) Cleanups() int {
	return len(s.Rounds) - 1
}

// Total sums the rounds.
func (s CacheStatistics) Total() Round {
	var t Round
	for _, r := range s.Rounds {
		t.Hits += r.Hits
		t.Misses += r.Misses
		t.Filtered += r.Filtered
	}
	return t
}

func (r Round) String() string {
	return fmt.Sprintf("hits: %d, misses: %d, filtered: %d", r.Hits, r.Misses, r.Filtered)
}

// centry associates an operation to its result. The hit counter drives the
// LFU cleanup.
type centry struct {
	res  Node
	hits int
}

// opcache is a bounded hash table of operation results, parameterized by the
// operation key type. Filters reject operations that should not be cached; a
// filter must always return the same answer for the same operation.
type opcache[K comparable] struct {
	name     string
	max      int
	disabled bool
	entries  map[K]*centry
	rounds   []Round // rounds[len-1] is the current one
	filters  []func(K) bool
	log      *logrus.Logger
}

func newopcache[K comparable](name string, max int, disabled bool, log *logrus.Logger, filters ...func(K) bool) *opcache[K] {
	return &opcache[K]{
		name:     name,
		max:      max,
		disabled: disabled,
		entries:  make(map[K]*centry, max),
		rounds:   make([]Round, 1),
		filters:  filters,
		log:      log,
	}
}

func (c *opcache[K]) cur() *Round {
	return &c.rounds[len(c.rounds)-1]
}

// eval returns the cached result for op, or computes it with f. The result
// of a failed computation is never cached and the miss that provoked it is
// taken back from the statistics.
func (c *opcache[K]) eval(op K, f func() (Node, error)) (Node, error) {
	if c.disabled {
		return f()
	}
	for _, keep := range c.filters {
		if !keep(op) {
			c.cur().Filtered++
			res, err := f()
			if err != nil {
				c.cur().Filtered--
				return zeroNode, err
			}
			return res, nil
		}
	}
	if e, ok := c.entries[op]; ok {
		c.cur().Hits++
		e.hits++
		return e.res, nil
	}
	c.cur().Misses++
	if len(c.entries) >= c.max {
		c.cleanup()
	}
	res, err := f()
	if err != nil {
		c.cur().Misses--
		return zeroNode, err
	}
	c.entries[op] = &centry{res: res}
	return res, nil
}

// cleanup removes the half of the cache whose hit counts are in the lower
// half, using partial selection, and pushes a new statistics round.
// Surviving entries keep their counts.
func (c *opcache[K]) cleanup() {
	c.rounds = append(c.rounds, Round{})
	cut := len(c.entries) / 2
	if cut == 0 {
		return
	}
	type kh struct {
		key  K
		hits int
	}
	all := make([]kh, 0, len(c.entries))
	for key, e := range c.entries {
		all = append(all, kh{key, e.hits})
	}
	// Partial selection: after this call the cut smallest hit counts sit in
	// all[:cut], in no particular order.
	nthElement(all, cut, func(a, b kh) bool { return a.hits < b.hits })
	for _, e := range all[:cut] {
		delete(c.entries, e.key)
	}
	if _DEBUG {
		c.log.WithFields(logrus.Fields{
			"cache":   c.name,
			"evicted": cut,
			"kept":    len(c.entries),
		}).Debug("cache cleanup")
	}
}

func (c *opcache[K]) clear() {
	c.entries = make(map[K]*centry, c.max)
	c.rounds = append(c.rounds, Round{})
}

func (c *opcache[K]) size() int {
	return len(c.entries)
}

func (c *opcache[K]) statistics() CacheStatistics {
	return CacheStatistics{
		Name:   c.name,
		Size:   len(c.entries),
		Rounds: append([]Round{}, c.rounds...),
	}
}

// ************************************************************

// nthElement partially sorts s so that s[:n] holds the n smallest elements
// according to less. Classic Hoare selection, iterative.
func nthElement[T any](s []T, n int, less func(a, b T) bool) {
	lo, hi := 0, len(s)-1
	for lo < hi {
		// median-of-three pivot to avoid quadratic behavior on sorted input
		mid := lo + (hi-lo)/2
		if less(s[mid], s[lo]) {
			s[mid], s[lo] = s[lo], s[mid]
		}
		if less(s[hi], s[lo]) {
			s[hi], s[lo] = s[lo], s[hi]
		}
		if less(s[hi], s[mid]) {
			s[hi], s[mid] = s[mid], s[hi]
		}
		pivot := s[mid]
		i, j := lo, hi
		for i <= j {
			for less(s[i], pivot) {
				i++
			}
			for less(pivot, s[j]) {
				j--
			}
			if i <= j {
				s[i], s[j] = s[j], s[i]
				i++
				j--
			}
		}
		switch {
		case n <= j:
			hi = j
		case n >= i:
			lo = i
		default:
			return
		}
	}
}
