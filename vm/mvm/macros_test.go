package mvm

import (
	"testing"

	"github.com/stacknet-protocol/stackvm/micheline"
)

func expand(t *testing.T, n micheline.Node) micheline.Node {
	t.Helper()
	out, err := ExpandMacros(n)
	if err != nil {
		t.Fatalf("ExpandMacros(%s): %v", n, err)
	}
	return out
}

func TestIsMacro(t *testing.T) {
	yes := []string{
		"FAIL", "ASSERT", "IF_SOME", "IF_RIGHT", "CMPEQ", "CMPGE", "IFCMPLT",
		"IFEQ", "ASSERT_CMPEQ", "ASSERT_NEQ", "CADR", "CDAR",
		"DUUP", "DUUUP", "PAPAIR", "PPAIIR", "UNPAPAIR", "SET_CAR", "MAP_CDR",
	}
	no := []string{
		"PAIR", "UNPAIR", "CAR", "CDR", "DUP", "ADD", "IF", "COMPARE",
		"PAR", "CMPFOO", "DUXP", "ASSERT_FOO",
	}
	for _, n := range yes {
		if !IsMacro(n) {
			t.Errorf("IsMacro(%q) = false, want true", n)
		}
	}
	for _, n := range no {
		if IsMacro(n) {
			t.Errorf("IsMacro(%q) = true, want false", n)
		}
	}
}

func TestExpandCmpMacro(t *testing.T) {
	got := expand(t, prim("CMPEQ"))
	want := seq(prim("COMPARE"), prim("EQ"))
	if got.String() != want.String() {
		t.Errorf("CMPEQ expands to %s, want %s", got, want)
	}
}

func TestExpandIfSome(t *testing.T) {
	some := seq(prim("DROP"))
	none := seq(prim("UNIT"))
	got := expand(t, prim("IF_SOME", some, none))
	want := prim("IF_NONE", none, some)
	if got.String() != want.String() {
		t.Errorf("IF_SOME expands to %s, want %s", got, want)
	}
}

func TestExpandCadr(t *testing.T) {
	got := expand(t, prim("CADR"))
	want := seq(prim("CAR"), prim("CDR"))
	if got.String() != want.String() {
		t.Errorf("CADR expands to %s, want %s", got, want)
	}
}

func TestExpandDuup(t *testing.T) {
	got := expand(t, prim("DUUUP"))
	want := prim("DUP", micheline.NewInt(3))
	if got.String() != want.String() {
		t.Errorf("DUUUP expands to %s, want %s", got, want)
	}
}

// PAPAIR on [a b c] builds pair a (pair b c); its expansion must typecheck
// and produce exactly that shape.
func TestExpandPairMacroTypechecks(t *testing.T) {
	typed := checkOK(t, seq(prim("PAPAIR")), StackTy{IntT(), StringT(), NatT()})
	want := StackTy{PairT(IntT(), PairT(StringT(), NatT()))}
	if !typed.Out.Equal(want) {
		t.Errorf("PAPAIR output %s, want %s", typed.Out, want)
	}

	typed = checkOK(t, seq(prim("PPAIIR")), StackTy{IntT(), StringT(), NatT()})
	want = StackTy{PairT(PairT(IntT(), StringT()), NatT())}
	if !typed.Out.Equal(want) {
		t.Errorf("PPAIIR output %s, want %s", typed.Out, want)
	}
}

func TestExpandUnpairMacroInverts(t *testing.T) {
	in := StackTy{PairT(IntT(), PairT(StringT(), NatT()))}
	typed := checkOK(t, seq(prim("UNPAPAIR")), in)
	want := StackTy{IntT(), StringT(), NatT()}
	if !typed.Out.Equal(want) {
		t.Errorf("UNPAPAIR output %s, want %s", typed.Out, want)
	}
}

func TestExpandAssert(t *testing.T) {
	typed := checkOK(t, seq(prim("ASSERT")), StackTy{BoolT()})
	if !typed.Out.Equal(StackTy{}) {
		t.Errorf("ASSERT output %s, want []", typed.Out)
	}
}

func TestExpandAssertCmp(t *testing.T) {
	typed := checkOK(t, seq(prim("ASSERT_CMPEQ")), StackTy{IntT(), IntT()})
	if !typed.Out.Equal(StackTy{}) {
		t.Errorf("ASSERT_CMPEQ output %s, want []", typed.Out)
	}
}

func TestExpandMacroArityError(t *testing.T) {
	if _, err := ExpandMacros(prim("CMPEQ", seq())); err == nil {
		t.Error("CMPEQ with an argument should be rejected")
	}
	if _, err := ExpandMacros(prim("IF_SOME", seq())); err == nil {
		t.Error("IF_SOME with one argument should be rejected")
	}
}

func TestExpandNested(t *testing.T) {
	// Macros inside block arguments expand too.
	got := expand(t, seq(prim("IF", seq(prim("CMPEQ")), seq())))
	want := seq(prim("IF", seq(seq(prim("COMPARE"), prim("EQ"))), seq()))
	if got.String() != want.String() {
		t.Errorf("nested expansion: %s, want %s", got, want)
	}
}
