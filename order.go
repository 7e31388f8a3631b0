// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	"fmt"
	"strings"
)

// Order is an immutable linked sequence associating library variables to
// user identifiers. The head carries the highest variable; variables
// strictly decrease from head to tail, and the children of a node at some
// variable always live strictly below it. A node may carry a nested order,
// in which case the identifiers of the nested level are scoped under the
// node's own identifier.
//
// Orders are values: Add returns a new order sharing the tail of the old
// one, so copies are cheap and an order that has been incorporated as the
// nested part of another can never be grown in place.
type Order struct {
	head *onode
}

// onode is one element of an order. An element without an identifier is
// artificial, that is generated by the library rather than named by the
// user.
type onode struct {
	v      Variable
	id     string
	named  bool
	nested *onode
	next   *onode
}

// NewOrder returns the order of the given identifiers, from head to tail.
// Identifiers are added in reverse so that the first one of the list ends up
// with the highest variable. Identifiers must be unique within one order.
func (k *Kernel[V]) NewOrder(ids ...string) Order {
	o := Order{}
	for i := len(ids) - 1; i >= 0; i-- {
		o = k.Add(o, ids[i])
	}
	return o
}

// Add returns a new order whose head associates id to a fresh variable,
// above everything already in o.
func (k *Kernel[V]) Add(o Order, id string) Order {
	return k.add(o, id, true, nil)
}

// AddNested is like Add but the new head also carries a nested order for the
// hierarchical level named by id.
func (k *Kernel[V]) AddNested(o Order, id string, nested Order) Order {
	return k.add(o, id, true, nested.head)
}

func (k *Kernel[V]) add(o Order, id string, named bool, nested *onode) Order {
	var v Variable
	if o.head == nil {
		v = k.configs.first()
	} else {
		v = k.configs.next(o.head.v)
	}
	if v > _MAXVAR {
		panic(fmt.Sprintf("too many variables in order (%d)", v))
	}
	return Order{&onode{v: v, id: id, named: named, nested: nested, next: o.head}}
}

// Empty reports whether the order has no element. It is unsafe to call any
// accessor other than Add on an empty order.
func (o Order) Empty() bool {
	return o.head == nil
}

// Variable returns the library variable of the order's head.
func (o Order) Variable() Variable {
	return o.head.v
}

// Identifier returns the user identifier of the order's head. The second
// result is false for artificial elements.
func (o Order) Identifier() (string, bool) {
	return o.head.id, o.head.named
}

// Next returns the order after the head.
func (o Order) Next() Order {
	return Order{o.head.next}
}

// Nested returns the nested order of the head, which is empty for flat
// elements.
func (o Order) Nested() Order {
	return Order{o.head.nested}
}

// IdentifierVariable searches the order, including nested levels, for the
// given identifier and returns its variable. It returns
// ErrIdentifierNotFound when the identifier does not appear.
func (o Order) IdentifierVariable(id string) (Variable, error) {
	if n := o.head.find(id); n != nil {
		return n.v, nil
	}
	return -1, ErrIdentifierNotFound
}

func (n *onode) find(id string) *onode {
	for ; n != nil; n = n.next {
		if n.named && n.id == id {
			return n
		}
		if n.nested != nil {
			if res := n.nested.find(id); res != nil {
				return res
			}
		}
	}
	return nil
}

func (o Order) String() string {
	var b strings.Builder
	for n := o.head; n != nil; n = n.next {
		if n != o.head {
			b.WriteString(" >> ")
		}
		if n.named {
			b.WriteString(n.id)
		} else {
			fmt.Fprintf(&b, "#%d", n.v)
		}
		if n.nested != nil {
			fmt.Fprintf(&b, " | (%s)", Order{n.nested})
		}
	}
	return b.String()
}
