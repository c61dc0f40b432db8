package mvm

import (
	"errors"
	"fmt"
)

// ErrOutOfGas aborts the current external operation when the gas quota
// reaches zero. It is distinguished from an explicit FAILWITH so the
// protocol boundary can account fees differently.
var ErrOutOfGas = errors.New("mvm: gas exhausted")

// TypeError rejects a program during typechecking. It never leaks into the
// interpreter: a program that produced a TypeError has no typed form to run.
type TypeError struct {
	Prim string // syntactic form being checked, "" at toplevel
	Msg  string
}

func (e *TypeError) Error() string {
	if e.Prim == "" {
		return "typechecking: " + e.Msg
	}
	return fmt.Sprintf("typechecking %s: %s", e.Prim, e.Msg)
}

func typeErrorf(prim, format string, args ...interface{}) error {
	return &TypeError{Prim: prim, Msg: fmt.Sprintf(format, args...)}
}

// FailError is the absorbing marker produced by FAILWITH. It carries the
// top-of-stack value for diagnostics and propagates unchanged through every
// enclosing scope of the same external operation.
type FailError struct {
	Value Value
	Ty    *Ty
}

func (e *FailError) Error() string {
	if n, err := EncodeValue(e.Value, e.Ty); err == nil {
		return "script failed with " + n.String()
	}
	return "script failed"
}

// RuntimeError is a non-FAILWITH runtime abort: mutez overflow, oversized
// shifts, and similar checked conditions. Like FailError it is fatal for
// the external operation.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return "mvm: " + e.Msg }

var (
	ErrMutezOverflow  = &RuntimeError{Msg: "mutez overflow"}
	ErrMutezUnderflow = &RuntimeError{Msg: "mutez subtraction underflow"}
	ErrShiftOverflow  = &RuntimeError{Msg: "shift amount above 256"}
	ErrCallDepth      = &RuntimeError{Msg: "call depth limit reached"}
)

// InternalError reports that the interpreter found no applicable rule for a
// typed node. For any program that passed typechecking this is unreachable;
// observing it means a soundness bug, so it is never folded into FailError
// and must not be papered over by callers.
type InternalError struct {
	Instr string
	Msg   string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("mvm: internal: no applicable rule for %s: %s", e.Instr, e.Msg)
}

func errNoRule(i *Instr, format string, args ...interface{}) error {
	return &InternalError{Instr: i.Op.String(), Msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err terminates the external operation (all four
// abort classes). It is true for every non-nil engine error; it exists so
// call sites read as policy, not accident.
func IsFatal(err error) bool { return err != nil }
