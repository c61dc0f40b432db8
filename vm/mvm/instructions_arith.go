package mvm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/stacknet-protocol/stackvm/params"
)

// Arithmetic, bitwise and string/bytes rules. The instruction's Ty1/Ty2
// record the checked operand types (top first), so dispatch here is a plain
// table lookup with no re-inference.

func (e *Evaluator) execArith(i *Instr, s *Stack) error {
	switch i.Op {
	case OpAdd:
		return e.execAdd(i, s)
	case OpSub:
		return e.execSub(i, s)
	case OpSubMutez:
		x := uint64(s.Pop().(MutezV))
		y := uint64(s.Pop().(MutezV))
		if x < y {
			s.Push(None())
		} else {
			s.Push(Some(MutezV(x - y)))
		}
		return nil
	case OpMul:
		return e.execMul(i, s)
	case OpEdiv:
		return e.execEdiv(i, s)
	case OpNeg:
		return e.execNeg(i, s)

	case OpAbs:
		x := s.Pop().(IntV).Int
		if err := e.Gas.Consume(bigNumCost(x)); err != nil {
			return err
		}
		s.Push(IntV{Int: new(big.Int).Abs(x)})
		return nil

	case OpIsNat:
		x := s.Pop().(IntV)
		if x.Int.Sign() < 0 {
			s.Push(None())
		} else {
			s.Push(Some(x))
		}
		return nil

	case OpInt:
		switch i.Ty1.Kind {
		case TyNat:
			s.Push(s.Pop().(IntV))
		case TyBls12381Fr:
			x := s.Pop().(FrV)
			s.Push(IntV{Int: x.X.ToBig()})
		case TyBytes:
			b := s.Pop().(BytesV)
			if err := e.Gas.Consume(hashCost(len(b))); err != nil {
				return err
			}
			s.Push(IntV{Int: decodeSignedBytes(b)})
		}
		return nil

	case OpNat:
		b := s.Pop().(BytesV)
		if err := e.Gas.Consume(hashCost(len(b))); err != nil {
			return err
		}
		s.Push(IntV{Int: new(big.Int).SetBytes(b)})
		return nil

	case OpBytes:
		x := s.Pop().(IntV).Int
		if err := e.Gas.Consume(bigNumCost(x)); err != nil {
			return err
		}
		if i.Ty1.Kind == TyNat {
			if x.Sign() == 0 {
				s.Push(BytesV{})
			} else {
				s.Push(BytesV(x.Bytes()))
			}
		} else {
			s.Push(BytesV(encodeSignedBytes(x)))
		}
		return nil

	case OpNot:
		switch i.Ty1.Kind {
		case TyBool:
			s.Push(BoolV(!bool(s.Pop().(BoolV))))
		case TyInt, TyNat:
			x := s.Pop().(IntV).Int
			if err := e.Gas.Consume(bigNumCost(x)); err != nil {
				return err
			}
			s.Push(IntV{Int: new(big.Int).Not(x)})
		case TyBytes:
			b := s.Pop().(BytesV)
			if err := e.Gas.Consume(hashCost(len(b))); err != nil {
				return err
			}
			out := make([]byte, len(b))
			for j, c := range b {
				out[j] = ^c
			}
			s.Push(BytesV(out))
		}
		return nil

	case OpAnd, OpOr, OpXor:
		return e.execLogic(i, s)

	case OpLsl, OpLsr:
		return e.execShift(i, s)

	case OpConcat:
		return e.execConcat(i, s)

	case OpSlice:
		return e.execSlice(i, s)

	case OpSize:
		v := s.Pop()
		var n int
		switch x := v.(type) {
		case StringV:
			n = len(x)
		case BytesV:
			n = len(x)
		case ListV:
			n = x.Len()
		case SetV:
			n = x.Len()
		case MapV:
			n = x.Len()
		default:
			return errNoRule(i, "unsized value")
		}
		s.Push(NewInt(int64(n)))
		return nil
	}
	return errNoRule(i, "not an arithmetic instruction")
}

func (e *Evaluator) execAdd(i *Instr, s *Stack) error {
	a, b := i.Ty1.Kind, i.Ty2.Kind
	switch {
	case a == TyMutez:
		x := uint64(s.Pop().(MutezV))
		y := uint64(s.Pop().(MutezV))
		r, overflow := math.SafeAdd(x, y)
		if overflow || r > params.MutezMax {
			return ErrMutezOverflow
		}
		s.Push(MutezV(r))
	case a == TyBls12381Fr:
		x := s.Pop().(FrV)
		y := s.Pop().(FrV)
		if err := e.Gas.Consume(params.BlsOpGas); err != nil {
			return err
		}
		var r FrV
		r.X.AddMod(&x.X, &y.X, blsFrOrder256)
		s.Push(r)
	case a == TyBls12381G1:
		x := s.Pop().(G1V)
		y := s.Pop().(G1V)
		if err := e.Gas.Consume(params.BlsOpGas); err != nil {
			return err
		}
		r, err := e.Crypto.G1Add(x, y)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(G1V(r))
	case a == TyBls12381G2:
		x := s.Pop().(G2V)
		y := s.Pop().(G2V)
		if err := e.Gas.Consume(params.BlsOpGas); err != nil {
			return err
		}
		r, err := e.Crypto.G2Add(x, y)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(G2V(r))
	default:
		x := popBig(s)
		y := popBig(s)
		if err := e.Gas.Consume(bigNumCost(x, y)); err != nil {
			return err
		}
		r := new(big.Int).Add(x, y)
		if a == TyTimestamp || b == TyTimestamp {
			s.Push(TimestampV{Unix: r})
		} else {
			s.Push(IntV{Int: r})
		}
	}
	return nil
}

func (e *Evaluator) execSub(i *Instr, s *Stack) error {
	a, b := i.Ty1.Kind, i.Ty2.Kind
	switch {
	case a == TyMutez:
		x := uint64(s.Pop().(MutezV))
		y := uint64(s.Pop().(MutezV))
		if x < y {
			return ErrMutezUnderflow
		}
		s.Push(MutezV(x - y))
	default:
		x := popBig(s)
		y := popBig(s)
		if err := e.Gas.Consume(bigNumCost(x, y)); err != nil {
			return err
		}
		r := new(big.Int).Sub(x, y)
		if a == TyTimestamp && b == TyInt {
			s.Push(TimestampV{Unix: r})
		} else {
			s.Push(IntV{Int: r})
		}
	}
	return nil
}

func (e *Evaluator) execMul(i *Instr, s *Stack) error {
	a, b := i.Ty1.Kind, i.Ty2.Kind
	switch {
	case a == TyMutez || b == TyMutez:
		var m, n uint64
		if a == TyMutez {
			m = uint64(s.Pop().(MutezV))
			nat := s.Pop().(IntV).Int
			if !nat.IsUint64() {
				return ErrMutezOverflow
			}
			n = nat.Uint64()
		} else {
			nat := s.Pop().(IntV).Int
			m = uint64(s.Pop().(MutezV))
			if !nat.IsUint64() {
				return ErrMutezOverflow
			}
			n = nat.Uint64()
		}
		r, overflow := math.SafeMul(m, n)
		if overflow || r > params.MutezMax {
			return ErrMutezOverflow
		}
		s.Push(MutezV(r))
	case a == TyBls12381G1 || a == TyBls12381G2:
		p := s.Pop()
		scalar := s.Pop().(FrV)
		if err := e.Gas.Consume(params.BlsOpGas); err != nil {
			return err
		}
		var r []byte
		var err error
		if a == TyBls12381G1 {
			r, err = e.Crypto.G1Mul(p.(G1V), &scalar.X)
		} else {
			r, err = e.Crypto.G2Mul(p.(G2V), &scalar.X)
		}
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		if a == TyBls12381G1 {
			s.Push(G1V(r))
		} else {
			s.Push(G2V(r))
		}
	case a == TyBls12381Fr || b == TyBls12381Fr:
		if err := e.Gas.Consume(params.BlsOpGas); err != nil {
			return err
		}
		var x, y FrV
		if a == TyBls12381Fr {
			x = s.Pop().(FrV)
			if b == TyBls12381Fr {
				y = s.Pop().(FrV)
			} else {
				y = frFromBig(s.Pop().(IntV).Int)
			}
		} else {
			x = frFromBig(s.Pop().(IntV).Int)
			y = s.Pop().(FrV)
		}
		var r FrV
		r.X.MulMod(&x.X, &y.X, blsFrOrder256)
		s.Push(r)
	default:
		x := popBig(s)
		y := popBig(s)
		if err := e.Gas.Consume(bigNumCost(x, y)); err != nil {
			return err
		}
		s.Push(IntV{Int: new(big.Int).Mul(x, y)})
	}
	return nil
}

func (e *Evaluator) execEdiv(i *Instr, s *Stack) error {
	a, b := i.Ty1.Kind, i.Ty2.Kind
	x := popBig(s)
	y := popBig(s)
	if y.Sign() == 0 {
		s.Push(None())
		return nil
	}
	if err := e.Gas.Consume(bigNumCost(x, y)); err != nil {
		return err
	}
	// Quotient rounds toward zero, so the remainder carries the dividend's
	// sign on mixed-sign division.
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(x, y, r)
	var qv, rv Value
	switch {
	case a == TyMutez && b == TyNat:
		qv, rv = MutezV(q.Uint64()), MutezV(r.Uint64())
	case a == TyMutez && b == TyMutez:
		qv, rv = IntV{Int: q}, MutezV(r.Uint64())
	default:
		qv, rv = IntV{Int: q}, IntV{Int: r}
	}
	s.Push(Some(PairV{L: qv, R: rv}))
	return nil
}

func (e *Evaluator) execNeg(i *Instr, s *Stack) error {
	switch i.Ty1.Kind {
	case TyInt, TyNat:
		x := s.Pop().(IntV).Int
		if err := e.Gas.Consume(bigNumCost(x)); err != nil {
			return err
		}
		s.Push(IntV{Int: new(big.Int).Neg(x)})
	case TyBls12381Fr:
		x := s.Pop().(FrV)
		if err := e.Gas.Consume(params.BlsOpGas); err != nil {
			return err
		}
		var r FrV
		if !x.X.IsZero() {
			r.X.Sub(blsFrOrder256, &x.X)
		}
		s.Push(r)
	case TyBls12381G1, TyBls12381G2:
		if err := e.Gas.Consume(params.BlsOpGas); err != nil {
			return err
		}
		var r []byte
		var err error
		if i.Ty1.Kind == TyBls12381G1 {
			r, err = e.Crypto.G1Neg(s.Pop().(G1V))
		} else {
			r, err = e.Crypto.G2Neg(s.Pop().(G2V))
		}
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		if i.Ty1.Kind == TyBls12381G1 {
			s.Push(G1V(r))
		} else {
			s.Push(G2V(r))
		}
	}
	return nil
}

func (e *Evaluator) execLogic(i *Instr, s *Stack) error {
	switch i.Ty1.Kind {
	case TyBool:
		x := bool(s.Pop().(BoolV))
		y := bool(s.Pop().(BoolV))
		var r bool
		switch i.Op {
		case OpAnd:
			r = x && y
		case OpOr:
			r = x || y
		case OpXor:
			r = x != y
		}
		s.Push(BoolV(r))
	case TyInt, TyNat:
		x := s.Pop().(IntV).Int
		y := s.Pop().(IntV).Int
		if err := e.Gas.Consume(bigNumCost(x, y)); err != nil {
			return err
		}
		r := new(big.Int)
		switch i.Op {
		case OpAnd:
			r.And(x, y)
		case OpOr:
			r.Or(x, y)
		case OpXor:
			r.Xor(x, y)
		}
		s.Push(IntV{Int: r})
	case TyBytes:
		x := s.Pop().(BytesV)
		y := s.Pop().(BytesV)
		if err := e.Gas.Consume(hashCost(len(x) + len(y))); err != nil {
			return err
		}
		s.Push(BytesV(bytesLogic(i.Op, x, y)))
	}
	return nil
}

// bytesLogic aligns the operands on their right edge: AND truncates to the
// shorter operand, OR and XOR zero-extend to the longer one.
func bytesLogic(op OpCode, x, y []byte) []byte {
	if len(x) > len(y) {
		x, y = y, x
	}
	// x is now the shorter operand.
	pad := len(y) - len(x)
	if op == OpAnd {
		out := make([]byte, len(x))
		for j := range out {
			out[j] = x[j] & y[pad+j]
		}
		return out
	}
	out := make([]byte, len(y))
	copy(out, y)
	for j := range x {
		if op == OpOr {
			out[pad+j] |= x[j]
		} else {
			out[pad+j] ^= x[j]
		}
	}
	return out
}

func (e *Evaluator) execShift(i *Instr, s *Stack) error {
	if i.Ty1.Kind == TyNat {
		x := s.Pop().(IntV).Int
		amt := s.Pop().(IntV).Int
		if !amt.IsUint64() || amt.Uint64() > params.MaxShiftAmount {
			return ErrShiftOverflow
		}
		n := uint(amt.Uint64())
		if err := e.Gas.Consume(bigNumCost(x) + uint64(n)/8); err != nil {
			return err
		}
		r := new(big.Int)
		if i.Op == OpLsl {
			r.Lsh(x, n)
		} else {
			r.Rsh(x, n)
		}
		s.Push(IntV{Int: r})
		return nil
	}

	b := s.Pop().(BytesV)
	amt := s.Pop().(IntV).Int
	if !amt.IsUint64() || amt.Uint64() > params.MaxShiftAmount {
		return ErrShiftOverflow
	}
	n := uint(amt.Uint64())
	if err := e.Gas.Consume(hashCost(len(b)) + uint64(n)/8); err != nil {
		return err
	}
	v := new(big.Int).SetBytes(b)
	var width int
	if i.Op == OpLsl {
		v.Lsh(v, n)
		width = len(b) + (int(n)+7)/8
	} else {
		v.Rsh(v, n)
		width = len(b) - int(n)/8
		if width < 0 {
			width = 0
		}
	}
	out := make([]byte, width)
	raw := v.Bytes()
	if len(raw) > width {
		raw = raw[len(raw)-width:]
	}
	copy(out[width-len(raw):], raw)
	s.Push(BytesV(out))
	return nil
}

func (e *Evaluator) execConcat(i *Instr, s *Stack) error {
	if i.Ty1.Kind == TyList {
		l := s.Pop().(ListV)
		if i.Ty1.Args[0].Kind == TyString {
			var out []byte
			err := l.Each(func(v Value) error {
				out = append(out, string(v.(StringV))...)
				return e.Gas.Consume(hashCost(len(string(v.(StringV)))))
			})
			if err != nil {
				return err
			}
			s.Push(StringV(out))
			return nil
		}
		var out []byte
		err := l.Each(func(v Value) error {
			out = append(out, v.(BytesV)...)
			return e.Gas.Consume(hashCost(len(v.(BytesV))))
		})
		if err != nil {
			return err
		}
		s.Push(BytesV(out))
		return nil
	}
	if i.Ty1.Kind == TyString {
		x := s.Pop().(StringV)
		y := s.Pop().(StringV)
		if err := e.Gas.Consume(hashCost(len(x) + len(y))); err != nil {
			return err
		}
		s.Push(x + y)
		return nil
	}
	x := s.Pop().(BytesV)
	y := s.Pop().(BytesV)
	if err := e.Gas.Consume(hashCost(len(x) + len(y))); err != nil {
		return err
	}
	out := make([]byte, 0, len(x)+len(y))
	out = append(out, x...)
	out = append(out, y...)
	s.Push(BytesV(out))
	return nil
}

func (e *Evaluator) execSlice(i *Instr, s *Stack) error {
	off := s.Pop().(IntV).Int
	ln := s.Pop().(IntV).Int
	v := s.Pop()
	var size int
	if i.Ty1.Kind == TyString {
		size = len(v.(StringV))
	} else {
		size = len(v.(BytesV))
	}
	if !off.IsUint64() || !ln.IsUint64() {
		s.Push(None())
		return nil
	}
	o, l := off.Uint64(), ln.Uint64()
	if o+l > uint64(size) || o+l < o {
		s.Push(None())
		return nil
	}
	if err := e.Gas.Consume(hashCost(int(l))); err != nil {
		return err
	}
	if i.Ty1.Kind == TyString {
		s.Push(Some(v.(StringV)[o : o+l]))
	} else {
		out := make([]byte, l)
		copy(out, v.(BytesV)[o:o+l])
		s.Push(Some(BytesV(out)))
	}
	return nil
}

// popBig reads the numeric top of the stack as a big integer regardless of
// its concrete carrier.
func popBig(s *Stack) *big.Int {
	switch x := s.Pop().(type) {
	case IntV:
		return x.Int
	case MutezV:
		return new(big.Int).SetUint64(uint64(x))
	case TimestampV:
		return x.Unix
	}
	panic("mvm: non-numeric operand")
}

// encodeSignedBytes is the big-endian two's-complement encoding at minimal
// width; zero encodes to the empty string.
func encodeSignedBytes(x *big.Int) []byte {
	if x.Sign() == 0 {
		return []byte{}
	}
	if x.Sign() > 0 {
		b := x.Bytes()
		if b[0]&0x80 != 0 {
			b = append([]byte{0}, b...)
		}
		return b
	}
	for n := x.BitLen() / 8; ; n++ {
		if n == 0 {
			continue
		}
		min := new(big.Int).Lsh(big.NewInt(1), uint(8*n-1))
		min.Neg(min)
		if x.Cmp(min) < 0 {
			continue
		}
		v := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
		v.Add(v, x)
		raw := v.Bytes()
		out := make([]byte, n)
		copy(out[n-len(raw):], raw)
		return out
	}
}

func decodeSignedBytes(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*len(b)))
		v.Sub(v, mod)
	}
	return v
}
