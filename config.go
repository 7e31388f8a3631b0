// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import "github.com/sirupsen/logrus"

// configs stores the values of the different parameters of a kernel.
type configs struct {
	sddcachesize int                    // maximal number of entries in the SDD operation cache
	homcachesize int                    // maximal number of entries in each evaluation cache
	first        func() Variable        // variable assigned to the tail identifier of an order
	next         func(Variable) Variable // variable assigned above an existing head
	nocache      bool                   // disable the operation caches (testing)
	logger       *logrus.Logger
}

// Option is a configuration option for New.
type Option func(*configs)

func makeconfigs() configs {
	return configs{
		sddcachesize: _DEFAULTCACHESIZE,
		homcachesize: _DEFAULTCACHESIZE,
		first:        func() Variable { return 0 },
		next:         func(v Variable) Variable { return v + 1 },
	}
}

// SDDCachesize is a configuration option (function). Used as a parameter in
// New it sets the maximal number of entries in the cache for union,
// intersection and difference results. When the cache is full, half of it is
// evicted with an LFU strategy.
func SDDCachesize(size int) Option {
	return func(c *configs) {
		if size > 0 {
			c.sddcachesize = size
		}
	}
}

// HomCachesize is a configuration option (function). Used as a parameter in
// New it sets the maximal number of entries in the homomorphism evaluation
// caches. One such cache is created for each top-level order used in a call
// to Eval.
func HomCachesize(size int) Option {
	return func(c *configs) {
		if size > 0 {
			c.homcachesize = size
		}
	}
}

// VarTraits is a configuration option (function). It sets the strategy used
// to assign library variables when identifiers are added to an order: first
// gives the variable of the deepest (tail) identifier and next gives the
// variable assigned above an existing head. The default strategy numbers
// variables 0, 1, 2... so that variables strictly decrease from the head of
// an order to its tail.
func VarTraits(first func() Variable, next func(Variable) Variable) Option {
	return func(c *configs) {
		c.first = first
		c.next = next
	}
}

// CacheOff is a configuration option (function). It disables all the
// operation caches. Evaluation results must not depend on cache state, so
// this option only exists to make that property testable (and to measure the
// benefit of memoization).
func CacheOff() Option {
	return func(c *configs) {
		c.nocache = true
	}
}

// WithLogger is a configuration option (function). It sets the logger used
// for debug messages about cache cleanups. The default is
// the logrus standard logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *configs) {
		c.logger = log
	}
}
