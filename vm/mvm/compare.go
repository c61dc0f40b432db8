package mvm

import (
	"bytes"

	"github.com/stacknet-protocol/stackvm/params"
)

// Compare totally orders two runtime values of the same comparable type,
// returning -1, 0 or 1. It is a pure function of the two values and gas:
// every recursive step consumes params.CompareStepGas, so deeply nested
// pairs are bounded by the quota, not by structure.
func Compare(g *Gas, ty *Ty, a, b Value) (int, error) {
	if err := g.Consume(params.CompareStepGas); err != nil {
		return 0, err
	}
	switch ty.Kind {
	case TyUnit, TyNever:
		return 0, nil

	case TyBool:
		x, y := a.(BoolV), b.(BoolV)
		switch {
		case x == y:
			return 0, nil
		case !bool(x):
			return -1, nil
		}
		return 1, nil

	case TyInt, TyNat:
		return a.(IntV).Int.Cmp(b.(IntV).Int), nil

	case TyMutez:
		x, y := a.(MutezV), b.(MutezV)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil

	case TyTimestamp:
		return a.(TimestampV).Unix.Cmp(b.(TimestampV).Unix), nil

	case TyString:
		return bytes.Compare([]byte(a.(StringV)), []byte(b.(StringV))), nil

	case TyBytes:
		return bytes.Compare(a.(BytesV), b.(BytesV)), nil

	case TyAddress:
		return a.(AddressV).A.Compare(b.(AddressV).A), nil

	case TyKey:
		return a.(KeyV).K.Compare(b.(KeyV).K), nil

	case TyKeyHash:
		return a.(KeyHashV).H.Compare(b.(KeyHashV).H), nil

	case TySignature:
		return a.(SigV).S.Compare(b.(SigV).S), nil

	case TyChainID:
		return a.(ChainIDV).C.Compare(b.(ChainIDV).C), nil

	case TyOption:
		x, y := a.(OptionV), b.(OptionV)
		switch {
		case !x.Some && !y.Some:
			return 0, nil
		case !x.Some:
			return -1, nil
		case !y.Some:
			return 1, nil
		}
		return Compare(g, ty.Args[0], x.V, y.V)

	case TyOr:
		x, y := a.(OrV), b.(OrV)
		switch {
		case !x.IsRight && y.IsRight:
			return -1, nil
		case x.IsRight && !y.IsRight:
			return 1, nil
		case x.IsRight:
			return Compare(g, ty.Args[1], x.V, y.V)
		}
		return Compare(g, ty.Args[0], x.V, y.V)

	case TyPair:
		x, y := a.(PairV), b.(PairV)
		c, err := Compare(g, ty.Args[0], x.L, y.L)
		if err != nil || c != 0 {
			return c, err
		}
		return Compare(g, ty.Args[1], x.R, y.R)
	}
	return 0, &InternalError{Instr: "COMPARE", Msg: "non-comparable type " + ty.String()}
}

// cmpAt builds a cmpFunc over a fixed key type for container walks.
func cmpAt(g *Gas, ty *Ty) cmpFunc {
	return func(a, b Value) (int, error) {
		return Compare(g, ty, a, b)
	}
}
