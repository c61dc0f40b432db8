package mvm

import (
	"math/big"
	"testing"

	"github.com/stacknet-protocol/stackvm/core"
)

func mustAddr(t *testing.T, s string) core.Address {
	t.Helper()
	a, err := core.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	return a
}

// orderedCase lists values of one comparable type in strictly ascending
// order; the ordering engine must agree on every pair drawn from it.
type orderedCase struct {
	name string
	ty   *Ty
	asc  []Value
}

func orderedCases(t *testing.T) []orderedCase {
	t.Helper()
	zeroBody := "0000000000000000000000000000000000000000"
	addrA := mustAddr(t, "acc1"+zeroBody)
	addrB := mustAddr(t, "ctr1"+zeroBody)
	return []orderedCase{
		{"bool", BoolT(), []Value{BoolV(false), BoolV(true)}},
		{"int", IntT(), []Value{NewInt(-5), NewInt(0), NewInt(3), NewInt(99)}},
		{"nat", NatT(), []Value{NewInt(0), NewInt(1), NewInt(1000)}},
		{"mutez", MutezT(), []Value{MutezV(0), MutezV(7), MutezV(1 << 40)}},
		{"string", StringT(), []Value{StringV(""), StringV("a"), StringV("ab"), StringV("b")}},
		{"bytes", BytesT(), []Value{BytesV{}, BytesV{0x00}, BytesV{0x00, 0x01}, BytesV{0xff}}},
		{"timestamp", TimestampT(), []Value{
			TimestampV{Unix: big.NewInt(-100)},
			TimestampV{Unix: big.NewInt(0)},
			TimestampV{Unix: big.NewInt(1700000000)},
		}},
		{"address", AddressT(), []Value{AddressV{A: addrA}, AddressV{A: addrB}}},
		{"option int", OptionT(IntT()), []Value{None(), Some(NewInt(-1)), Some(NewInt(4))}},
		{"or int string", OrT(IntT(), StringT()), []Value{
			Left(NewInt(1)), Left(NewInt(2)), Right(StringV("a")), Right(StringV("b")),
		}},
		{"pair int string", PairT(IntT(), StringT()), []Value{
			PairV{L: NewInt(1), R: StringV("z")},
			PairV{L: NewInt(2), R: StringV("a")},
			PairV{L: NewInt(2), R: StringV("b")},
		}},
	}
}

func TestCompareTotalOrder(t *testing.T) {
	g := NewGas(1 << 30)
	for _, c := range orderedCases(t) {
		for i, a := range c.asc {
			for j, b := range c.asc {
				got, err := Compare(g, c.ty, a, b)
				if err != nil {
					t.Fatalf("%s: Compare: %v", c.name, err)
				}
				want := 0
				if i < j {
					want = -1
				} else if i > j {
					want = 1
				}
				if got != want {
					t.Errorf("%s: Compare(#%d, #%d) = %d, want %d", c.name, i, j, got, want)
				}
			}
		}
	}
}

func TestCompareAntisymmetric(t *testing.T) {
	g := NewGas(1 << 30)
	for _, c := range orderedCases(t) {
		for _, a := range c.asc {
			for _, b := range c.asc {
				ab, err := Compare(g, c.ty, a, b)
				if err != nil {
					t.Fatal(err)
				}
				ba, err := Compare(g, c.ty, b, a)
				if err != nil {
					t.Fatal(err)
				}
				if ab != -ba {
					t.Errorf("%s: Compare(a,b)=%d but Compare(b,a)=%d", c.name, ab, ba)
				}
			}
		}
	}
}

func TestCompareUnitAlwaysEqual(t *testing.T) {
	g := NewGas(1000)
	got, err := Compare(g, UnitT(), UnitV{}, UnitV{})
	if err != nil || got != 0 {
		t.Fatalf("Compare(unit) = %d, %v", got, err)
	}
}

func TestCompareConsumesGas(t *testing.T) {
	g := NewGas(1 << 20)
	before := g.Remaining()
	if _, err := Compare(g, PairT(IntT(), IntT()),
		PairV{L: NewInt(1), R: NewInt(2)}, PairV{L: NewInt(1), R: NewInt(3)}); err != nil {
		t.Fatal(err)
	}
	if g.Remaining() >= before {
		t.Error("comparison consumed no gas")
	}
}

func TestCompareOutOfGas(t *testing.T) {
	g := NewGas(1)
	if _, err := Compare(g, IntT(), NewInt(1), NewInt(2)); err != ErrOutOfGas {
		t.Fatalf("got %v, want ErrOutOfGas", err)
	}
	if g.Remaining() != 0 {
		t.Errorf("remaining = %d after exhaustion", g.Remaining())
	}
}
