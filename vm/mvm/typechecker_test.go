package mvm

import (
	"strings"
	"testing"

	"github.com/stacknet-protocol/stackvm/micheline"
)

func checkOK(t *testing.T, code micheline.Node, in StackTy) *Instr {
	t.Helper()
	typed, err := Typecheck(NewGas(1<<20), code, in)
	if err != nil {
		t.Fatalf("Typecheck(%s): %v", code, err)
	}
	return typed
}

func checkBad(t *testing.T, code micheline.Node, in StackTy, wantSub string) {
	t.Helper()
	_, err := Typecheck(NewGas(1<<20), code, in)
	if err == nil {
		t.Fatalf("Typecheck(%s): expected error containing %q", code, wantSub)
	}
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("Typecheck(%s): got %T (%v), want *TypeError", code, err, err)
	}
	if !strings.Contains(err.Error(), wantSub) {
		t.Errorf("Typecheck(%s): error %q does not mention %q", code, err, wantSub)
	}
}

func TestTypecheckPushAdd(t *testing.T) {
	code := seq(
		prim("PUSH", prim("int"), micheline.NewInt(5)),
		prim("PUSH", prim("int"), micheline.NewInt(10)),
		prim("ADD"),
	)
	typed := checkOK(t, code, StackTy{})
	if !typed.Out.Equal(StackTy{IntT()}) {
		t.Errorf("output stack = %s, want [int]", typed.Out)
	}
}

func TestTypecheckArithCarriers(t *testing.T) {
	cases := []struct {
		op   string
		in   StackTy
		want *Ty
	}{
		{"ADD", StackTy{NatT(), NatT()}, NatT()},
		{"ADD", StackTy{IntT(), NatT()}, IntT()},
		{"ADD", StackTy{TimestampT(), IntT()}, TimestampT()},
		{"ADD", StackTy{MutezT(), MutezT()}, MutezT()},
		{"SUB", StackTy{NatT(), NatT()}, IntT()},
		{"SUB", StackTy{TimestampT(), TimestampT()}, IntT()},
		{"MUL", StackTy{MutezT(), NatT()}, MutezT()},
		{"EDIV", StackTy{IntT(), IntT()}, OptionT(PairT(IntT(), IntT()))},
		{"EDIV", StackTy{NatT(), IntT()}, OptionT(PairT(IntT(), NatT()))},
		{"EDIV", StackTy{MutezT(), MutezT()}, OptionT(PairT(NatT(), MutezT()))},
	}
	for _, c := range cases {
		typed := checkOK(t, seq(prim(c.op)), c.in)
		if !typed.Out.Equal(StackTy{c.want}) {
			t.Errorf("%s on %s: output %s, want [%s]", c.op, c.in, typed.Out, c.want)
		}
	}
}

func TestTypecheckBranchMismatch(t *testing.T) {
	code := seq(prim("IF",
		seq(prim("PUSH", prim("int"), micheline.NewInt(1))),
		seq(prim("PUSH", prim("string"), micheline.NewString("x"))),
	))
	checkBad(t, code, StackTy{BoolT()}, "IF")
}

func TestTypecheckBranchOneSideFails(t *testing.T) {
	// A failed branch unifies with anything.
	code := seq(prim("IF",
		seq(prim("PUSH", prim("int"), micheline.NewInt(1))),
		seq(prim("PUSH", prim("string"), micheline.NewString("boom")), prim("FAILWITH")),
	))
	typed := checkOK(t, code, StackTy{BoolT()})
	if !typed.Out.Equal(StackTy{IntT()}) {
		t.Errorf("output stack = %s, want [int]", typed.Out)
	}
}

func TestTypecheckDeadCodeRejected(t *testing.T) {
	code := seq(prim("FAILWITH"), prim("UNIT"))
	checkBad(t, code, StackTy{IntT()}, "unreachable")
}

func TestTypecheckDupTicketRejected(t *testing.T) {
	checkBad(t, seq(prim("DUP")), StackTy{TicketT(IntT())}, "DUP")
}

func TestTypecheckPushNonPushable(t *testing.T) {
	code := seq(prim("PUSH", prim("ticket", prim("int")), micheline.NewInt(1)))
	checkBad(t, code, StackTy{}, "PUSH")
}

func TestTypecheckStackTooShort(t *testing.T) {
	checkBad(t, seq(prim("ADD")), StackTy{IntT()}, "stack too short")
}

func TestTypecheckCombPairAccess(t *testing.T) {
	// GET 3 on pair int (pair string nat) reaches the string leaf.
	in := StackTy{CombT(IntT(), StringT(), NatT())}
	typed := checkOK(t, seq(prim("GET", micheline.NewInt(3))), in)
	if !typed.Out.Equal(StackTy{StringT()}) {
		t.Errorf("GET 3 output %s, want [string]", typed.Out)
	}

	typed = checkOK(t, seq(prim("PAIR", micheline.NewInt(3))),
		StackTy{IntT(), StringT(), NatT()})
	if !typed.Out.Equal(StackTy{CombT(IntT(), StringT(), NatT())}) {
		t.Errorf("PAIR 3 output %s", typed.Out)
	}
}

func TestTypecheckLoopBody(t *testing.T) {
	// LOOP body must restore the loop head type.
	code := seq(prim("LOOP", seq(prim("PUSH", prim("bool"), prim("False")))))
	typed := checkOK(t, code, StackTy{BoolT()})
	if !typed.Out.Equal(StackTy{}) {
		t.Errorf("LOOP output %s, want []", typed.Out)
	}

	bad := seq(prim("LOOP", seq(prim("PUSH", prim("int"), micheline.NewInt(1)))))
	checkBad(t, bad, StackTy{BoolT()}, "LOOP")
}

func TestTypecheckDipPreservesPrefix(t *testing.T) {
	code := seq(prim("DIP", micheline.NewInt(2), seq(prim("DROP"))))
	typed := checkOK(t, code, StackTy{IntT(), NatT(), StringT()})
	if !typed.Out.Equal(StackTy{IntT(), NatT()}) {
		t.Errorf("DIP 2 output %s, want [int nat]", typed.Out)
	}
}

func TestTypecheckLambdaAndExec(t *testing.T) {
	code := seq(
		prim("LAMBDA", prim("int"), prim("int"),
			seq(prim("PUSH", prim("int"), micheline.NewInt(1)), prim("ADD"))),
		prim("SWAP"),
		prim("EXEC"),
	)
	typed := checkOK(t, code, StackTy{IntT()})
	if !typed.Out.Equal(StackTy{IntT()}) {
		t.Errorf("EXEC output %s, want [int]", typed.Out)
	}
}

func TestTypecheckSelfForbiddenOutsideContract(t *testing.T) {
	checkBad(t, seq(prim("SELF")), StackTy{}, "SELF")
}

func TestTypecheckUnknownPrim(t *testing.T) {
	checkBad(t, seq(prim("FROBNICATE")), StackTy{}, "FROBNICATE")
}

func TestTypecheckGasMetered(t *testing.T) {
	code := seq(
		prim("PUSH", prim("int"), micheline.NewInt(5)),
		prim("PUSH", prim("int"), micheline.NewInt(10)),
		prim("ADD"),
	)
	_, err := Typecheck(NewGas(2), code, StackTy{})
	if err != ErrOutOfGas {
		t.Fatalf("got %v, want ErrOutOfGas", err)
	}
}
