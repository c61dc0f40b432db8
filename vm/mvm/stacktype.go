package mvm

import "strings"

// StackTy is an ordered sequence of value-type descriptors, top first. At
// the interpreter boundary stack types are always closed; the open tails
// used during typechecking are meta-variables scoped to a single typing
// rule and never materialise here.
//
// A nil StackTy is distinct from an empty one: nil marks the unreachable
// stack after FAILWITH or NEVER.
type StackTy []*Ty

// EmptyStack is the closed empty stack type.
var EmptyStack = StackTy{}

// Push returns a new stack type with t on top; the receiver is unchanged.
func (s StackTy) Push(t *Ty) StackTy {
	out := make(StackTy, 0, len(s)+1)
	out = append(out, t)
	return append(out, s...)
}

// Drop returns the stack type below the top n elements.
func (s StackTy) Drop(n int) StackTy { return s[n:] }

func (s StackTy) Top() *Ty { return s[0] }

// Failed reports whether s is the unreachable post-FAILWITH stack.
func (s StackTy) Failed() bool { return s == nil }

func (s StackTy) Equal(o StackTy) bool {
	if s.Failed() || o.Failed() {
		return s.Failed() && o.Failed()
	}
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if !s[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (s StackTy) String() string {
	if s.Failed() {
		return "[FAILED]"
	}
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, " : ") + "]"
}

// unifyStacks merges two branch output stacks: a failed branch unifies with
// anything, otherwise the shapes must be equal element-wise.
func unifyStacks(prim string, a, b StackTy) (StackTy, error) {
	if a.Failed() {
		return b, nil
	}
	if b.Failed() {
		return a, nil
	}
	if !a.Equal(b) {
		return nil, typeErrorf(prim, "branches disagree: %s vs %s", a, b)
	}
	return a, nil
}
