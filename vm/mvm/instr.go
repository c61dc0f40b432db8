package mvm

import (
	"github.com/stacknet-protocol/stackvm/core"
)

// Instr is a typed instruction node. Every node carries the input and
// output stack types it was checked against; the typechecker is the only
// producer, so a node's existence is the proof that, for stacks matching
// In, evaluation cannot fail to find an applicable rule.
//
// Nodes are immutable and persistent; branches share unrelated subtrees.
type Instr struct {
	Op OpCode

	// In is the stack type the node consumes; Out the one it produces.
	// Out is nil after FAILWITH/NEVER (unreachable).
	In, Out StackTy

	// Body holds the sub-instructions of a sequence.
	Body []*Instr

	// BrA/BrB hold sub-programs: the two arms of a conditional, or the
	// single body of LOOP/LOOP_LEFT/DIP/MAP/ITER/LAMBDA (in BrA).
	BrA, BrB *Instr

	// N is the numeric argument of DIP/DROP/DUP/DIG/DUG/PAIR/UNPAIR/GET/
	// UPDATE n, and the memo size of SAPLING_EMPTY_STATE.
	N int

	// Ty1/Ty2 are type arguments (PUSH t, NONE t, NIL t, EMPTY_MAP k v,
	// CONTRACT t, UNPACK t, VIEW _ t, LAMBDA a b, EMIT t...).
	Ty1, Ty2 *Ty

	// Val is the literal of PUSH.
	Val Value

	// Name is the entrypoint of SELF/CONTRACT, the view name of VIEW, or
	// the event tag of EMIT.
	Name string

	// Script is the untyped inner script of CREATE_CONTRACT; it was
	// typechecked when this node was built and is re-typechecked when the
	// origination is applied.
	Script *core.Script
}

// Seq builds the typed identity-through-composition node for an already
// checked instruction list. in/out must thread correctly; callers are the
// typechecker and vetted builders only.
func seqInstr(body []*Instr, in, out StackTy) *Instr {
	return &Instr{Op: OpSeq, Body: body, In: in, Out: out}
}
