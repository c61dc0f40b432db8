package mvm

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stacknet-protocol/stackvm/micheline"
)

func evalCtx(t *testing.T) CallContext {
	t.Helper()
	self := mustAddr(t, "ctr1"+"1111111111111111111111111111111111111111")
	source := mustAddr(t, "acc1"+"2222222222222222222222222222222222222222")
	return CallContext{
		Self:    self,
		Source:  source,
		Sender:  source,
		Amount:  42,
		Balance: 1000,
		Now:     big.NewInt(1700000000),
		Level:   99,
	}
}

// evalOK typechecks code against the stack type, runs it on the given
// values (top first) and returns the resulting stack.
func evalOK(t *testing.T, code micheline.Node, in StackTy, top ...Value) *Stack {
	t.Helper()
	g := NewGas(1 << 22)
	typed, err := Typecheck(g, code, in)
	if err != nil {
		t.Fatalf("Typecheck(%s): %v", code, err)
	}
	ev := NewEvaluator(g, nil, evalCtx(t))
	st := NewStack(top...)
	if err := ev.Run(typed, st); err != nil {
		t.Fatalf("Run(%s): %v", code, err)
	}
	return st
}

func evalErr(t *testing.T, code micheline.Node, in StackTy, top ...Value) error {
	t.Helper()
	g := NewGas(1 << 22)
	typed, err := Typecheck(g, code, in)
	if err != nil {
		t.Fatalf("Typecheck(%s): %v", code, err)
	}
	ev := NewEvaluator(g, nil, evalCtx(t))
	st := NewStack(top...)
	err = ev.Run(typed, st)
	if err == nil {
		t.Fatalf("Run(%s): expected error", code)
	}
	return err
}

func wantInt(t *testing.T, v Value, want int64) {
	t.Helper()
	x, ok := v.(IntV)
	if !ok {
		t.Fatalf("got %#v, want IntV", v)
	}
	if !x.Int.IsInt64() || x.Int.Int64() != want {
		t.Errorf("got %s, want %d", x.Int, want)
	}
}

func TestRunPushAdd(t *testing.T) {
	code := seq(
		prim("PUSH", prim("int"), micheline.NewInt(5)),
		prim("PUSH", prim("int"), micheline.NewInt(10)),
		prim("ADD"),
	)
	st := evalOK(t, code, StackTy{})
	if st.Len() != 1 {
		t.Fatalf("stack depth %d, want 1", st.Len())
	}
	wantInt(t, st.Pop(), 15)
}

func TestRunSub(t *testing.T) {
	code := seq(
		prim("PUSH", prim("int"), micheline.NewInt(3)),
		prim("PUSH", prim("int"), micheline.NewInt(10)),
		prim("SUB"),
	)
	wantInt(t, evalOK(t, code, StackTy{}).Pop(), 7)
}

func TestRunUnpair(t *testing.T) {
	st := evalOK(t, seq(prim("UNPAIR")),
		StackTy{PairT(IntT(), StringT())},
		PairV{L: NewInt(5), R: StringV("x")})
	if st.Len() != 2 {
		t.Fatalf("stack depth %d, want 2", st.Len())
	}
	wantInt(t, st.Pop(), 5)
	if s := st.Pop().(StringV); s != "x" {
		t.Errorf("second = %q, want x", s)
	}
}

func TestRunIfBranches(t *testing.T) {
	code := seq(prim("IF",
		seq(prim("PUSH", prim("int"), micheline.NewInt(1))),
		seq(prim("PUSH", prim("int"), micheline.NewInt(2))),
	))
	wantInt(t, evalOK(t, code, StackTy{BoolT()}, BoolV(true)).Pop(), 1)
	wantInt(t, evalOK(t, code, StackTy{BoolT()}, BoolV(false)).Pop(), 2)
}

func TestRunSetUpdateKeepsOrder(t *testing.T) {
	code := seq(
		prim("EMPTY_SET", prim("nat")),
		prim("PUSH", prim("bool"), prim("True")),
		prim("PUSH", prim("nat"), micheline.NewInt(3)),
		prim("UPDATE"),
		prim("PUSH", prim("bool"), prim("True")),
		prim("PUSH", prim("nat"), micheline.NewInt(1)),
		prim("UPDATE"),
	)
	st := evalOK(t, code, StackTy{})
	set := st.Pop().(SetV)
	var got []int64
	set.Each(func(v Value) error {
		got = append(got, v.(IntV).Int.Int64())
		return nil
	})
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Errorf("iteration order %v, want [1 3]", got)
	}
}

func TestRunSetRemove(t *testing.T) {
	code := seq(
		prim("PUSH", prim("bool"), prim("False")),
		prim("PUSH", prim("nat"), micheline.NewInt(3)),
		prim("UPDATE"),
		prim("SIZE"),
	)
	in := StackTy{SetT(NatT())}
	set, err := EmptySet().Update(NewInt(3), true, cmpAt(NewGas(1000), NatT()))
	if err != nil {
		t.Fatal(err)
	}
	wantInt(t, evalOK(t, code, in, set).Pop(), 0)
}

func TestRunMapOverList(t *testing.T) {
	code := seq(prim("MAP", seq(
		prim("PUSH", prim("int"), micheline.NewInt(1)),
		prim("ADD"),
	)))
	st := evalOK(t, code, StackTy{ListT(IntT())},
		ListOf(NewInt(1), NewInt(2), NewInt(3)))
	var got []int64
	st.Pop().(ListV).Each(func(v Value) error {
		got = append(got, v.(IntV).Int.Int64())
		return nil
	})
	if len(got) != 3 || got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Errorf("mapped list %v, want [2 3 4]", got)
	}
}

func TestRunIterSum(t *testing.T) {
	code := seq(
		prim("PUSH", prim("int"), micheline.NewInt(0)),
		prim("SWAP"),
		prim("ITER", seq(prim("ADD"))),
	)
	st := evalOK(t, code, StackTy{ListT(IntT())},
		ListOf(NewInt(10), NewInt(20), NewInt(12)))
	wantInt(t, st.Pop(), 42)
}

func TestRunDigDugIdentity(t *testing.T) {
	code := seq(prim("DIG", micheline.NewInt(2)), prim("DUG", micheline.NewInt(2)))
	st := evalOK(t, code, StackTy{IntT(), IntT(), IntT()},
		NewInt(1), NewInt(2), NewInt(3))
	wantInt(t, st.Pop(), 1)
	wantInt(t, st.Pop(), 2)
	wantInt(t, st.Pop(), 3)
}

func TestRunLambdaExecApply(t *testing.T) {
	code := seq(
		prim("LAMBDA", prim("pair", prim("nat"), prim("nat")), prim("nat"),
			seq(prim("UNPAIR"), prim("ADD"))),
		prim("PUSH", prim("nat"), micheline.NewInt(3)),
		prim("APPLY"),
		prim("PUSH", prim("nat"), micheline.NewInt(4)),
		prim("EXEC"),
	)
	wantInt(t, evalOK(t, code, StackTy{}).Pop(), 7)
}

func TestRunLambdaRec(t *testing.T) {
	// Factorial through LAMBDA_REC.
	body := seq(
		prim("DUP"),
		prim("PUSH", prim("int"), micheline.NewInt(1)),
		prim("SWAP"),
		prim("COMPARE"),
		prim("LE"),
		prim("IF",
			seq(prim("DIP", seq(prim("DROP"))),
				prim("DROP"),
				prim("PUSH", prim("int"), micheline.NewInt(1))),
			seq(prim("DUP"),
				prim("PUSH", prim("int"), micheline.NewInt(1)),
				prim("SWAP"),
				prim("SUB"),
				prim("DIG", micheline.NewInt(2)),
				prim("SWAP"),
				prim("EXEC"),
				prim("MUL"))),
	)
	code := seq(
		prim("LAMBDA_REC", prim("int"), prim("int"), body),
		prim("PUSH", prim("int"), micheline.NewInt(5)),
		prim("EXEC"),
	)
	wantInt(t, evalOK(t, code, StackTy{}).Pop(), 120)
}

func TestRunFailwith(t *testing.T) {
	code := seq(prim("PUSH", prim("string"), micheline.NewString("boom")), prim("FAILWITH"))
	err := evalErr(t, code, StackTy{})
	var fe *FailError
	if !errors.As(err, &fe) {
		t.Fatalf("got %T (%v), want *FailError", err, err)
	}
	if s, ok := fe.Value.(StringV); !ok || s != "boom" {
		t.Errorf("failure payload %#v, want \"boom\"", fe.Value)
	}
}

func TestRunMutezOverflow(t *testing.T) {
	huge := new(big.Int).SetUint64(1<<63 - 1)
	code := seq(
		prim("PUSH", prim("mutez"), micheline.NewBig(huge)),
		prim("PUSH", prim("mutez"), micheline.NewBig(huge)),
		prim("ADD"),
	)
	if err := evalErr(t, code, StackTy{}); err != ErrMutezOverflow {
		t.Fatalf("got %v, want ErrMutezOverflow", err)
	}
}

func TestRunMutezSubUnderflow(t *testing.T) {
	code := seq(
		prim("PUSH", prim("mutez"), micheline.NewInt(5)),
		prim("PUSH", prim("mutez"), micheline.NewInt(1)),
		prim("SUB"),
	)
	if err := evalErr(t, code, StackTy{}); err != ErrMutezUnderflow {
		t.Fatalf("got %v, want ErrMutezUnderflow", err)
	}

	soft := seq(
		prim("PUSH", prim("mutez"), micheline.NewInt(5)),
		prim("PUSH", prim("mutez"), micheline.NewInt(1)),
		prim("SUB_MUTEZ"),
	)
	opt := evalOK(t, soft, StackTy{}).Pop().(OptionV)
	if opt.Some {
		t.Errorf("SUB_MUTEZ 1 5 = Some, want None")
	}
}

func TestRunShiftOverflow(t *testing.T) {
	code := seq(
		prim("PUSH", prim("nat"), micheline.NewInt(257)),
		prim("PUSH", prim("nat"), micheline.NewInt(1)),
		prim("LSL"),
	)
	if err := evalErr(t, code, StackTy{}); err != ErrShiftOverflow {
		t.Fatalf("got %v, want ErrShiftOverflow", err)
	}
}

func TestRunEdivTruncating(t *testing.T) {
	div := func(x, y int64) OptionV {
		code := seq(
			prim("PUSH", prim("int"), micheline.NewInt(y)),
			prim("PUSH", prim("int"), micheline.NewInt(x)),
			prim("EDIV"),
		)
		return evalOK(t, code, StackTy{}).Pop().(OptionV)
	}

	r := div(7, 2)
	if !r.Some {
		t.Fatal("7/2 = None")
	}
	p := r.V.(PairV)
	wantInt(t, p.L, 3)
	wantInt(t, p.R, 1)

	// Quotient truncates toward zero; the remainder keeps the dividend's
	// sign.
	r = div(-7, 2)
	p = r.V.(PairV)
	wantInt(t, p.L, -3)
	wantInt(t, p.R, -1)

	r = div(7, -2)
	p = r.V.(PairV)
	wantInt(t, p.L, -3)
	wantInt(t, p.R, 1)

	if div(7, 0).Some {
		t.Error("division by zero = Some, want None")
	}
}

func TestRunTicketSplitJoin(t *testing.T) {
	code := seq(
		prim("TICKET"),
		prim("ASSERT_SOME"),
		prim("PUSH", prim("pair", prim("nat"), prim("nat")),
			prim("Pair", micheline.NewInt(1), micheline.NewInt(3))),
		prim("SWAP"),
		prim("SPLIT_TICKET"),
		prim("ASSERT_SOME"),
		prim("JOIN_TICKETS"),
		prim("ASSERT_SOME"),
	)
	st := evalOK(t, code, StackTy{StringT(), NatT()}, StringV("tok"), NewInt(4))
	tk := st.Pop().(*TicketV)
	if c, ok := tk.Content.(StringV); !ok || c != "tok" {
		t.Errorf("content = %#v, want \"tok\"", tk.Content)
	}
	if !tk.Amount.IsInt64() || tk.Amount.Int64() != 4 {
		t.Errorf("amount = %s, want 4", tk.Amount)
	}
	if !tk.Ticketer.Equal(evalCtx(t).Self.ContractOnly()) {
		t.Errorf("ticketer = %s, want self", tk.Ticketer)
	}
}

func TestRunZeroTicketRejected(t *testing.T) {
	code := seq(prim("TICKET"))
	st := evalOK(t, code, StackTy{StringT(), NatT()}, StringV("tok"), NewInt(0))
	if st.Pop().(OptionV).Some {
		t.Error("zero-amount ticket = Some, want None")
	}
}

func TestRunReadTicket(t *testing.T) {
	code := seq(prim("TICKET"), prim("ASSERT_SOME"), prim("READ_TICKET"))
	st := evalOK(t, code, StackTy{StringT(), NatT()}, StringV("tok"), NewInt(2))
	if st.Len() != 2 {
		t.Fatalf("stack depth %d, want 2", st.Len())
	}
	triple := st.Pop().(PairV)
	if _, ok := triple.L.(AddressV); !ok {
		t.Errorf("first component %#v, want address", triple.L)
	}
	rest := triple.R.(PairV)
	if c := rest.L.(StringV); c != "tok" {
		t.Errorf("content = %q", c)
	}
	wantInt(t, rest.R, 2)
	if _, ok := st.Pop().(*TicketV); !ok {
		t.Error("ticket not kept under the read result")
	}
}

func TestRunAmbientValues(t *testing.T) {
	ctx := evalCtx(t)

	st := evalOK(t, seq(prim("AMOUNT")), StackTy{})
	if m := st.Pop().(MutezV); uint64(m) != ctx.Amount {
		t.Errorf("AMOUNT = %d, want %d", m, ctx.Amount)
	}

	st = evalOK(t, seq(prim("BALANCE")), StackTy{})
	if m := st.Pop().(MutezV); uint64(m) != ctx.Balance {
		t.Errorf("BALANCE = %d, want %d", m, ctx.Balance)
	}

	st = evalOK(t, seq(prim("NOW")), StackTy{})
	if ts := st.Pop().(TimestampV); ts.Unix.Cmp(ctx.Now) != 0 {
		t.Errorf("NOW = %s, want %s", ts.Unix, ctx.Now)
	}

	st = evalOK(t, seq(prim("SENDER")), StackTy{})
	if a := st.Pop().(AddressV); !a.A.Equal(ctx.Sender.ContractOnly()) {
		t.Errorf("SENDER = %s, want %s", a.A, ctx.Sender)
	}
}

func TestRunConcatSlice(t *testing.T) {
	code := seq(
		prim("CONCAT"),
		prim("PUSH", prim("nat"), micheline.NewInt(3)),
		prim("PUSH", prim("nat"), micheline.NewInt(2)),
		prim("SLICE"),
		prim("ASSERT_SOME"),
	)
	st := evalOK(t, code, StackTy{StringT(), StringT()},
		StringV("hello"), StringV("world"))
	if s := st.Pop().(StringV); s != "llo" {
		t.Errorf("slice = %q, want \"llo\"", s)
	}
}

func TestRunLoopCountdown(t *testing.T) {
	// Count down from 5, accumulating iterations.
	code := seq(
		prim("PUSH", prim("int"), micheline.NewInt(5)),
		prim("PUSH", prim("bool"), prim("True")),
		prim("LOOP", seq(
			prim("PUSH", prim("int"), micheline.NewInt(1)),
			prim("SWAP"),
			prim("SUB"),
			prim("DUP"),
			prim("PUSH", prim("int"), micheline.NewInt(0)),
			prim("SWAP"),
			prim("COMPARE"),
			prim("GT"),
		)),
	)
	wantInt(t, evalOK(t, code, StackTy{}).Pop(), 0)
}

func TestRunGasExhaustion(t *testing.T) {
	g := NewGas(1 << 20)
	code := seq(
		prim("PUSH", prim("int"), micheline.NewInt(1)),
		prim("DROP"),
	)
	typed, err := Typecheck(g, code, StackTy{})
	if err != nil {
		t.Fatal(err)
	}
	ev := NewEvaluator(NewGas(5), nil, CallContext{})
	if err := ev.Run(typed, NewStack()); err != ErrOutOfGas {
		t.Fatalf("got %v, want ErrOutOfGas", err)
	}
}

func TestRunPackUnpackRoundTrip(t *testing.T) {
	ty := PairT(IntT(), StringT())
	code := seq(
		prim("PACK"),
		prim("UNPACK", prim("pair", prim("int"), prim("string"))),
		prim("ASSERT_SOME"),
	)
	st := evalOK(t, code, StackTy{ty}, PairV{L: NewInt(-42), R: StringV("v")})
	p := st.Pop().(PairV)
	wantInt(t, p.L, -42)
	if s := p.R.(StringV); s != "v" {
		t.Errorf("round trip string = %q", s)
	}
}

func TestRunCheckSignatureEd25519(t *testing.T) {
	pub, sig := testEd25519([]byte("payload"))
	code := seq(prim("CHECK_SIGNATURE"))
	st := evalOK(t, code, StackTy{KeyT(), SignatureT(), BytesT()},
		KeyV{K: pub}, SigV{S: sig}, BytesV("payload"))
	if !bool(st.Pop().(BoolV)) {
		t.Fatal("valid signature rejected")
	}

	st = evalOK(t, code, StackTy{KeyT(), SignatureT(), BytesT()},
		KeyV{K: pub}, SigV{S: sig}, BytesV("tampered"))
	if bool(st.Pop().(BoolV)) {
		t.Fatal("signature over different payload accepted")
	}
}
