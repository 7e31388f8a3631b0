// Copyright (c) 2023 the sddkit authors
//
// MIT License

package sdd

import (
	stderrors "errors"
	"strings"

	"github.com/pkg/errors"
)

// ErrIdentifierNotFound is returned by Order.IdentifierVariable when an
// identifier does not appear in the order.
var ErrIdentifierNotFound = stderrors.New("identifier not found in order")

// ErrEmptyOperands is returned by Sum and Intersection when they are built
// with zero operands.
var ErrEmptyOperands = stderrors.New("empty operand list")

type errKind uint8

const (
	errTop errKind = iota
	errConsOnNonOne
)

var errNames = map[errKind]string{
	errTop:          "top: union of incompatible levels",
	errConsOnNonOne: "cons evaluated on a node that is not |1|",
}

// EvalError is the error produced when an evaluation fails. Top, the
// overflow produced by the SDD engine when two operands live at incompatible
// levels, is the main cause; each homomorphism operator on the way out
// decorates the error with its own printed form, so the trace reads from the
// innermost operator to the outermost one.
//
// Evaluation errors are deterministic given the inputs: they are never
// cached and there is no point in retrying.
type EvalError struct {
	kind  errKind
	steps []string
}

func newTop() *EvalError {
	return &EvalError{kind: errTop}
}

func newConsOnNonOne() *EvalError {
	return &EvalError{kind: errConsOnNonOne}
}

func (e *EvalError) Error() string {
	if len(e.steps) == 0 {
		return errNames[e.kind]
	}
	return errNames[e.kind] + "; in " + strings.Join(e.steps, "; in ")
}

// Steps returns the trace of operator steps accumulated while the error
// propagated, innermost first.
func (e *EvalError) Steps() []string {
	return e.steps
}

func (e *EvalError) addStep(s string) *EvalError {
	e.steps = append(e.steps, s)
	return e
}

// IsTop reports whether err is, or wraps, a Top evaluation error.
func IsTop(err error) bool {
	var e *EvalError
	return stderrors.As(errors.Cause(err), &e) && e.kind == errTop
}

// IsConsOnNonOne reports whether err is, or wraps, a ConsOnNonOne
// evaluation error.
func IsConsOnNonOne(err error) bool {
	var e *EvalError
	return stderrors.As(errors.Cause(err), &e) && e.kind == errConsOnNonOne
}

// invariant aborts on a broken internal invariant. Such a condition should
// never be observable; there is no way to recover from it.
func invariant(cond bool, msg string) {
	if !cond {
		panic("invariant violation: " + msg)
	}
}
