package mvm

import (
	"math/big"

	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/params"
)

// StateReader is the read-only view of chain state the interpreter needs.
// The process layer implements it on top of the full state database; the
// interpreter never writes through it, all writes travel as emitted
// operations and big_map overlays.
type StateReader interface {
	// ScriptAt returns the stored script of an originated contract.
	ScriptAt(addr core.Address) (*core.Script, bool, error)

	// StorageAt returns the current storage literal of a contract.
	StorageAt(addr core.Address) (micheline.Node, bool, error)

	// BalanceOf returns the spendable balance of any address, zero for
	// addresses that do not exist yet.
	BalanceOf(addr core.Address) (uint64, error)

	// BigMapGet fetches the value bound under the hashed key of an
	// allocated big_map.
	BigMapGet(id *big.Int, key common.Hash) (micheline.Node, bool, error)

	VotingPower(kh core.KeyHash) (*big.Int, error)
	TotalVotingPower() (*big.Int, error)
}

// CallContext carries the ambient values of one contract invocation. The
// process layer fills it per call; BALANCE already includes the transferred
// amount.
type CallContext struct {
	Self         core.Address
	Source       core.Address
	Sender       core.Address
	Amount       uint64
	Balance      uint64
	Now          *big.Int
	Level        uint64
	MinBlockTime uint64
	ChainID      core.ChainID
}

// Evaluator runs typed instruction trees. It owns no state of its own
// beyond the call depth and the per-external-operation emission nonce; a
// fresh one is built per call and must not be shared between goroutines.
type Evaluator struct {
	Gas    *Gas
	State  StateReader
	Crypto Crypto
	Codec  Codec
	Ctx    CallContext

	depth int
	nonce *uint64
}

// NewEvaluator wires an evaluator with the default crypto and codec when
// the caller passes nil for either.
func NewEvaluator(g *Gas, st StateReader, ctx CallContext) *Evaluator {
	var nonce uint64
	return &Evaluator{
		Gas:    g,
		State:  st,
		Crypto: DefaultCrypto{},
		Codec:  DefaultCodec{},
		Ctx:    ctx,
		nonce:  &nonce,
	}
}

func (e *Evaluator) nextNonce() uint64 {
	n := *e.nonce
	*e.nonce++
	return n
}

// fork derives an evaluator for a nested invocation (a view call) sharing
// gas, state and the emission nonce.
func (e *Evaluator) fork(ctx CallContext) *Evaluator {
	out := *e
	out.Ctx = ctx
	out.depth = e.depth + 1
	return &out
}

// Run executes one typed node against the stack. Before any rule fires it
// re-checks the stack depth against the node's input type; a mismatch is a
// soundness violation reported as InternalError, never as a script failure.
func (e *Evaluator) Run(i *Instr, s *Stack) error {
	if s.Len() < len(i.In) {
		return errNoRule(i, "stack depth %d, need %d", s.Len(), len(i.In))
	}
	if err := e.Gas.Consume(params.InstrStepGas); err != nil {
		return err
	}

	switch i.Op {
	case OpSeq:
		for _, b := range i.Body {
			if err := e.Run(b, s); err != nil {
				return err
			}
		}
		return nil

	// Control.

	case OpFailwith:
		return &FailError{Value: s.Pop(), Ty: i.Ty1}

	case OpNever:
		return errNoRule(i, "a value of type never reached the interpreter")

	case OpIf:
		if bool(s.Pop().(BoolV)) {
			return e.Run(i.BrA, s)
		}
		return e.Run(i.BrB, s)

	case OpIfNone:
		o := s.Pop().(OptionV)
		if !o.Some {
			return e.Run(i.BrA, s)
		}
		s.Push(o.V)
		return e.Run(i.BrB, s)

	case OpIfLeft:
		o := s.Pop().(OrV)
		s.Push(o.V)
		if o.IsRight {
			return e.Run(i.BrB, s)
		}
		return e.Run(i.BrA, s)

	case OpIfCons:
		l := s.Pop().(ListV)
		if head, tail, ok := l.Uncons(); ok {
			s.Push(tail)
			s.Push(head)
			return e.Run(i.BrA, s)
		}
		return e.Run(i.BrB, s)

	case OpLoop:
		for bool(s.Pop().(BoolV)) {
			if err := e.Run(i.BrA, s); err != nil {
				return err
			}
		}
		return nil

	case OpLoopLeft:
		for {
			o := s.Pop().(OrV)
			s.Push(o.V)
			if o.IsRight {
				return nil
			}
			if err := e.Run(i.BrA, s); err != nil {
				return err
			}
		}

	case OpDip:
		saved := make([]Value, i.N)
		for j := 0; j < i.N; j++ {
			saved[j] = s.Pop()
		}
		if err := e.Run(i.BrA, s); err != nil {
			return err
		}
		for j := i.N - 1; j >= 0; j-- {
			s.Push(saved[j])
		}
		return nil

	case OpExec:
		arg := s.Pop()
		lam := s.Pop().(*LambdaV)
		res, err := e.execLambda(lam, arg)
		if err != nil {
			return err
		}
		s.Push(res)
		return nil

	case OpApply:
		capV := s.Pop()
		lam := s.Pop().(*LambdaV)
		s.Push(&LambdaV{
			ArgTy:      lam.ArgTy.Args[1],
			RetTy:      lam.RetTy,
			Code:       lam.Code,
			Rec:        lam.Rec,
			Captured:   append(append([]Value(nil), lam.Captured...), capV),
			CapturedTy: append(append([]*Ty(nil), lam.CapturedTy...), i.Ty1),
		})
		return nil

	// Stack manipulation.

	case OpDrop:
		for j := 0; j < i.N; j++ {
			s.Pop()
		}
		return nil

	case OpDup:
		s.Push(s.Peek(i.N - 1))
		return nil

	case OpSwap:
		s.Swap()
		return nil

	case OpDig:
		s.Dig(i.N)
		return nil

	case OpDug:
		s.Dug(i.N)
		return nil

	case OpPush:
		s.Push(i.Val)
		return nil

	case OpLambda, OpLambdaRec:
		s.Push(&LambdaV{ArgTy: i.Ty1, RetTy: i.Ty2, Code: i.BrA, Rec: i.Op == OpLambdaRec})
		return nil

	// Comparison.

	case OpCompare:
		x := s.Pop()
		y := s.Pop()
		c, err := Compare(e.Gas, i.Ty1, x, y)
		if err != nil {
			return err
		}
		s.Push(NewInt(int64(c)))
		return nil

	case OpEq, OpNeq, OpLt, OpGt, OpLe, OpGe:
		sign := s.Pop().(IntV).Int.Sign()
		var r bool
		switch i.Op {
		case OpEq:
			r = sign == 0
		case OpNeq:
			r = sign != 0
		case OpLt:
			r = sign < 0
		case OpGt:
			r = sign > 0
		case OpLe:
			r = sign <= 0
		case OpGe:
			r = sign >= 0
		}
		s.Push(BoolV(r))
		return nil

	// Pairs, options, unions, lists.

	case OpUnit:
		s.Push(UnitV{})
		return nil

	case OpCar:
		s.Push(s.Pop().(PairV).L)
		return nil

	case OpCdr:
		s.Push(s.Pop().(PairV).R)
		return nil

	case OpPair:
		vals := make([]Value, i.N)
		for j := 0; j < i.N; j++ {
			vals[j] = s.Pop()
		}
		res := vals[i.N-1]
		for j := i.N - 2; j >= 0; j-- {
			res = PairV{L: vals[j], R: res}
		}
		s.Push(res)
		return nil

	case OpUnpair:
		parts := make([]Value, 0, i.N)
		v := s.Pop()
		for j := 0; j < i.N-1; j++ {
			p := v.(PairV)
			parts = append(parts, p.L)
			v = p.R
		}
		parts = append(parts, v)
		for j := i.N - 1; j >= 0; j-- {
			s.Push(parts[j])
		}
		return nil

	case OpGetN:
		v, err := combGetV(i, s.Pop(), i.N)
		if err != nil {
			return err
		}
		s.Push(v)
		return nil

	case OpUpdateN:
		nv := s.Pop()
		v, err := combUpdateV(i, s.Pop(), i.N, nv)
		if err != nil {
			return err
		}
		s.Push(v)
		return nil

	case OpLeft:
		s.Push(Left(s.Pop()))
		return nil

	case OpRight:
		s.Push(Right(s.Pop()))
		return nil

	case OpSome:
		s.Push(Some(s.Pop()))
		return nil

	case OpNone:
		s.Push(None())
		return nil

	case OpNil:
		s.Push(EmptyList())
		return nil

	case OpCons:
		v := s.Pop()
		l := s.Pop().(ListV)
		s.Push(l.Cons(v))
		return nil

	// Grouped families.

	case OpAdd, OpSub, OpSubMutez, OpMul, OpEdiv, OpNeg, OpAbs, OpIsNat,
		OpInt, OpNat, OpBytes, OpNot, OpAnd, OpOr, OpXor, OpLsl, OpLsr,
		OpConcat, OpSlice, OpSize:
		return e.execArith(i, s)

	case OpEmptySet, OpEmptyMap, OpEmptyBigMap, OpMap, OpIter, OpMem,
		OpGet, OpUpdate, OpGetAndUpdate:
		return e.execContainer(i, s)

	default:
		return e.execDomain(i, s)
	}
}

// execLambda invokes a lambda value on an argument, rebuilding the nested
// pair from captured arguments first.
func (e *Evaluator) execLambda(l *LambdaV, arg Value) (Value, error) {
	if e.depth >= params.CallDepthLimit {
		return nil, ErrCallDepth
	}
	e.depth++
	defer func() { e.depth-- }()

	for j := len(l.Captured) - 1; j >= 0; j-- {
		arg = PairV{L: l.Captured[j], R: arg}
	}
	var st *Stack
	if l.Rec {
		st = NewStack(arg, l)
	} else {
		st = NewStack(arg)
	}
	if err := e.Run(l.Code, st); err != nil {
		return nil, err
	}
	if st.Len() != 1 {
		return nil, &InternalError{Instr: "EXEC", Msg: "lambda left an ill-sized stack"}
	}
	return st.Pop(), nil
}

func combGetV(i *Instr, v Value, n int) (Value, error) {
	k := n
	for k > 1 {
		p, ok := v.(PairV)
		if !ok {
			return nil, errNoRule(i, "comb too short for index %d", n)
		}
		v = p.R
		k -= 2
	}
	if k == 1 {
		p, ok := v.(PairV)
		if !ok {
			return nil, errNoRule(i, "comb too short for index %d", n)
		}
		return p.L, nil
	}
	return v, nil
}

func combUpdateV(i *Instr, v Value, n int, nv Value) (Value, error) {
	if n == 0 {
		return nv, nil
	}
	p, ok := v.(PairV)
	if !ok {
		return nil, errNoRule(i, "comb too short for index %d", n)
	}
	if n == 1 {
		return PairV{L: nv, R: p.R}, nil
	}
	rest, err := combUpdateV(i, p.R, n-2, nv)
	if err != nil {
		return nil, err
	}
	return PairV{L: p.L, R: rest}, nil
}
