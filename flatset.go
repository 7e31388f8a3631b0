// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"fmt"
	"sort"
	"strings"
)

// FlatSet is a sorted set of ints with structural sharing: the element slices
// are hash-consed in a process-wide store, so that two FlatSet with the same
// elements point to the same record and equality is a pointer comparison.
//
// Like the rest of the library, the store is not safe for concurrent use.
type FlatSet struct {
	d *fsdata
}

type fsdata struct {
	idx   int
	elems []int
}

// fsstore is the process-wide unicity table for FlatSet contents. Records are
// addressed by a stable index, which is what AppendBytes serializes.
var fsstore = struct {
	unique map[string]*fsdata
	all    []*fsdata
	buf    []byte
}{unique: make(map[string]*fsdata)}

func internFlatSet(elems []int) FlatSet {
	if len(elems) == 0 {
		return FlatSet{}
	}
	fsstore.buf = fsstore.buf[:0]
	for _, e := range elems {
		fsstore.buf = appendInt(fsstore.buf, e)
	}
	key := string(fsstore.buf)
	if d, ok := fsstore.unique[key]; ok {
		return FlatSet{d}
	}
	d := &fsdata{idx: len(fsstore.all), elems: elems}
	fsstore.all = append(fsstore.all, d)
	fsstore.unique[key] = d
	return FlatSet{d}
}

// FlatSetOf returns the canonical set containing the given elements.
func FlatSetOf(elems ...int) FlatSet {
	if len(elems) == 0 {
		return FlatSet{}
	}
	s := append([]int{}, elems...)
	sort.Ints(s)
	w := 1
	for i := 1; i < len(s); i++ {
		if s[i] != s[i-1] {
			s[w] = s[i]
			w++
		}
	}
	return internFlatSet(s[:w])
}

func (v FlatSet) IsEmpty() bool {
	return v.d == nil
}

func (v FlatSet) Equal(o FlatSet) bool {
	return v.d == o.d
}

func (v FlatSet) Union(o FlatSet) FlatSet {
	if v.d == nil {
		return o
	}
	if o.d == nil || v.d == o.d {
		return v
	}
	a, b := v.d.elems, o.d.elems
	res := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			res = append(res, a[i])
			i++
		case a[i] > b[j]:
			res = append(res, b[j])
			j++
		default:
			res = append(res, a[i])
			i++
			j++
		}
	}
	res = append(res, a[i:]...)
	res = append(res, b[j:]...)
	return internFlatSet(res)
}

func (v FlatSet) Inter(o FlatSet) FlatSet {
	if v.d == nil || o.d == nil {
		return FlatSet{}
	}
	if v.d == o.d {
		return v
	}
	a, b := v.d.elems, o.d.elems
	var res []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			res = append(res, a[i])
			i++
			j++
		}
	}
	return internFlatSet(res)
}

func (v FlatSet) Diff(o FlatSet) FlatSet {
	if v.d == nil || v.d == o.d {
		return FlatSet{}
	}
	if o.d == nil {
		return v
	}
	a, b := v.d.elems, o.d.elems
	var res []int
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			res = append(res, a[i])
			i++
		case a[i] > b[j]:
			j++
		default:
			i++
			j++
		}
	}
	res = append(res, a[i:]...)
	return internFlatSet(res)
}

func (v FlatSet) Size() int {
	if v.d == nil {
		return 0
	}
	return len(v.d.elems)
}

func (v FlatSet) Each(f func(int) bool) {
	if v.d == nil {
		return
	}
	for _, e := range v.d.elems {
		if !f(e) {
			return
		}
	}
}

func (v FlatSet) AppendBytes(buf []byte) []byte {
	if v.d == nil {
		return appendInt(buf, -1)
	}
	return appendInt(buf, v.d.idx)
}

func (v FlatSet) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	v.Each(func(e int) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		fmt.Fprintf(&b, "%d", e)
		return true
	})
	b.WriteByte('}')
	return b.String()
}
