package mvm

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"

	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/params"
)

// DecodeValue parses a literal tree against a type descriptor, producing
// the runtime value. Domain constants accept both the readable string form
// and the optimized byte form. Decoding is metered: container literals pay
// per element, and embedded lambdas pay typechecking gas.
func DecodeValue(g *Gas, n micheline.Node, ty *Ty) (Value, error) {
	if err := g.Consume(params.TypecheckStepGas); err != nil {
		return nil, err
	}
	name := tyNames[ty.Kind]
	switch ty.Kind {
	case TyUnit:
		if isPrim(n, micheline.DUnit) {
			return UnitV{}, nil
		}
	case TyNever:
		return nil, typeErrorf(name, "type never has no values")
	case TyBool:
		if isPrim(n, micheline.DTrue) {
			return BoolV(true), nil
		}
		if isPrim(n, micheline.DFalse) {
			return BoolV(false), nil
		}
	case TyInt:
		if x, ok := n.(*micheline.Int); ok {
			return IntV{Int: new(big.Int).Set(x.Value)}, nil
		}
	case TyNat:
		if x, ok := n.(*micheline.Int); ok && x.Value.Sign() >= 0 {
			return IntV{Int: new(big.Int).Set(x.Value)}, nil
		}
	case TyString:
		if x, ok := n.(*micheline.String); ok {
			return StringV(x.Value), nil
		}
	case TyBytes:
		if x, ok := n.(*micheline.Bytes); ok {
			return BytesV(append([]byte(nil), x.Value...)), nil
		}
	case TyMutez:
		if x, ok := n.(*micheline.Int); ok && x.Value.Sign() >= 0 && x.Value.IsUint64() {
			if v := x.Value.Uint64(); v <= params.MutezMax {
				return MutezV(v), nil
			}
		}
	case TyTimestamp:
		switch x := n.(type) {
		case *micheline.Int:
			return TimestampV{Unix: new(big.Int).Set(x.Value)}, nil
		case *micheline.String:
			t, err := time.Parse(time.RFC3339, x.Value)
			if err != nil {
				return nil, typeErrorf(name, "bad timestamp %q", x.Value)
			}
			return TimestampV{Unix: big.NewInt(t.Unix())}, nil
		}
	case TyAddress:
		switch x := n.(type) {
		case *micheline.String:
			a, err := core.ParseAddress(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return AddressV{A: a}, nil
		case *micheline.Bytes:
			a, err := core.AddressFromBytes(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return AddressV{A: a}, nil
		}
	case TyKey:
		switch x := n.(type) {
		case *micheline.String:
			k, err := core.ParsePublicKey(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return KeyV{K: k}, nil
		case *micheline.Bytes:
			k, err := core.PublicKeyFromBytes(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return KeyV{K: k}, nil
		}
	case TyKeyHash:
		switch x := n.(type) {
		case *micheline.String:
			h, err := core.ParseKeyHash(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return KeyHashV{H: h}, nil
		case *micheline.Bytes:
			h, err := core.KeyHashFromBytes(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return KeyHashV{H: h}, nil
		}
	case TySignature:
		switch x := n.(type) {
		case *micheline.String:
			s, err := core.ParseSignature(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return SigV{S: s}, nil
		case *micheline.Bytes:
			return SigV{S: core.Signature(append([]byte(nil), x.Value...))}, nil
		}
	case TyChainID:
		switch x := n.(type) {
		case *micheline.String:
			c, err := core.ParseChainID(x.Value)
			if err != nil {
				return nil, typeErrorf(name, "%v", err)
			}
			return ChainIDV{C: c}, nil
		case *micheline.Bytes:
			var c core.ChainID
			if len(x.Value) != len(c) {
				return nil, typeErrorf(name, "chain id must be %d bytes", len(c))
			}
			copy(c[:], x.Value)
			return ChainIDV{C: c}, nil
		}
	case TyBls12381G1:
		if x, ok := n.(*micheline.Bytes); ok {
			return G1V(append([]byte(nil), x.Value...)), nil
		}
	case TyBls12381G2:
		if x, ok := n.(*micheline.Bytes); ok {
			return G2V(append([]byte(nil), x.Value...)), nil
		}
	case TyBls12381Fr:
		switch x := n.(type) {
		case *micheline.Bytes:
			return frFromBig(new(big.Int).SetBytes(x.Value)), nil
		case *micheline.Int:
			return frFromBig(x.Value), nil
		}
	case TySaplingTransaction:
		if x, ok := n.(*micheline.Bytes); ok {
			return SaplingTxV{Data: append([]byte(nil), x.Value...), MemoSize: ty.MemoSize}, nil
		}
	case TySaplingState:
		if s, ok := n.(*micheline.Seq); ok && len(s.Items) == 0 {
			return SaplingStateV{MemoSize: ty.MemoSize}, nil
		}
	case TyChest:
		if x, ok := n.(*micheline.Bytes); ok {
			return ChestV(append([]byte(nil), x.Value...)), nil
		}
	case TyChestKey:
		if x, ok := n.(*micheline.Bytes); ok {
			return ChestKeyV(append([]byte(nil), x.Value...)), nil
		}

	case TyOption:
		if p, ok := n.(*micheline.Prim); ok {
			switch p.Name {
			case micheline.DNone:
				if len(p.Args) == 0 {
					return None(), nil
				}
			case micheline.DSome:
				if len(p.Args) == 1 {
					v, err := DecodeValue(g, p.Args[0], ty.Args[0])
					if err != nil {
						return nil, err
					}
					return Some(v), nil
				}
			}
		}
	case TyOr:
		if p, ok := n.(*micheline.Prim); ok && len(p.Args) == 1 {
			switch p.Name {
			case micheline.DLeft:
				v, err := DecodeValue(g, p.Args[0], ty.Args[0])
				if err != nil {
					return nil, err
				}
				return Left(v), nil
			case micheline.DRight:
				v, err := DecodeValue(g, p.Args[0], ty.Args[1])
				if err != nil {
					return nil, err
				}
				return Right(v), nil
			}
		}
	case TyPair:
		if p, ok := n.(*micheline.Prim); ok && p.Name == micheline.DPair && len(p.Args) >= 2 {
			// n-ary Pair literals denote the right comb.
			l, err := DecodeValue(g, p.Args[0], ty.Args[0])
			if err != nil {
				return nil, err
			}
			var rest micheline.Node
			if len(p.Args) == 2 {
				rest = p.Args[1]
			} else {
				rest = &micheline.Prim{Name: micheline.DPair, Args: p.Args[1:]}
			}
			r, err := DecodeValue(g, rest, ty.Args[1])
			if err != nil {
				return nil, err
			}
			return PairV{L: l, R: r}, nil
		}
	case TyList:
		if s, ok := n.(*micheline.Seq); ok {
			vals := make([]Value, len(s.Items))
			for i, it := range s.Items {
				v, err := DecodeValue(g, it, ty.Args[0])
				if err != nil {
					return nil, err
				}
				vals[i] = v
			}
			return ListOf(vals...), nil
		}
	case TySet:
		if s, ok := n.(*micheline.Seq); ok {
			set := EmptySet()
			var prev Value
			for _, it := range s.Items {
				v, err := DecodeValue(g, it, ty.Args[0])
				if err != nil {
					return nil, err
				}
				if prev != nil {
					c, err := Compare(g, ty.Args[0], prev, v)
					if err != nil {
						return nil, err
					}
					if c >= 0 {
						return nil, typeErrorf(name, "set literal not strictly sorted")
					}
				}
				set.elems = append(set.elems, v)
				prev = v
			}
			return set, nil
		}
	case TyMap:
		if s, ok := n.(*micheline.Seq); ok {
			m, err := decodeMapEntries(g, s.Items, ty.Args[0], ty.Args[1])
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	case TyBigMap:
		switch x := n.(type) {
		case *micheline.Int:
			return &BigMapV{
				ID:    new(big.Int).Set(x.Value),
				KeyTy: ty.Args[0],
				ValTy: ty.Args[1],
			}, nil
		case *micheline.Seq:
			m, err := decodeMapEntries(g, x.Items, ty.Args[0], ty.Args[1])
			if err != nil {
				return nil, err
			}
			b := &BigMapV{KeyTy: ty.Args[0], ValTy: ty.Args[1]}
			for _, e := range m.entries {
				b.overlay = append(b.overlay, overlayEntry{Key: e.Key, Val: e.Val})
			}
			return b, nil
		}
	case TyLambda:
		rec := false
		body := n
		if p, ok := n.(*micheline.Prim); ok && p.Name == micheline.DLambdaRec && len(p.Args) == 1 {
			rec = true
			body = p.Args[0]
		}
		if _, ok := body.(*micheline.Seq); ok {
			code, err := checkLambda(g, body, ty.Args[0], ty.Args[1], rec)
			if err != nil {
				return nil, err
			}
			return &LambdaV{ArgTy: ty.Args[0], RetTy: ty.Args[1], Code: code, Rec: rec}, nil
		}
	case TyTicket:
		// Readable form: Pair ticketer content amount.
		if p, ok := n.(*micheline.Prim); ok && p.Name == micheline.DPair && len(p.Args) == 3 {
			tk, err := DecodeValue(g, p.Args[0], AddressT())
			if err != nil {
				return nil, err
			}
			content, err := DecodeValue(g, p.Args[1], ty.Args[0])
			if err != nil {
				return nil, err
			}
			amt, err := DecodeValue(g, p.Args[2], NatT())
			if err != nil {
				return nil, err
			}
			if amt.(IntV).Int.Sign() <= 0 {
				return nil, typeErrorf(name, "ticket amount must be positive")
			}
			return &TicketV{
				Ticketer:  tk.(AddressV).A,
				Content:   content,
				ContentTy: ty.Args[0],
				Amount:    amt.(IntV).Int,
			}, nil
		}
	case TyContract, TyOperation:
		return nil, typeErrorf(name, "no literal form")
	}
	return nil, typeErrorf(name, "cannot parse %s as %s", n.String(), ty)
}

func decodeMapEntries(g *Gas, items []micheline.Node, kt, vt *Ty) (MapV, error) {
	m := EmptyMap()
	var prev Value
	for _, it := range items {
		p, ok := it.(*micheline.Prim)
		if !ok || p.Name != micheline.DElt || len(p.Args) != 2 {
			return MapV{}, typeErrorf("map", "Elt expected in map literal")
		}
		k, err := DecodeValue(g, p.Args[0], kt)
		if err != nil {
			return MapV{}, err
		}
		v, err := DecodeValue(g, p.Args[1], vt)
		if err != nil {
			return MapV{}, err
		}
		if prev != nil {
			c, err := Compare(g, kt, prev, k)
			if err != nil {
				return MapV{}, err
			}
			if c >= 0 {
				return MapV{}, typeErrorf("map", "map literal not strictly sorted")
			}
		}
		m.entries = append(m.entries, MapEntry{Key: k, Val: v})
		prev = k
	}
	return m, nil
}

func isPrim(n micheline.Node, name string) bool {
	p, ok := n.(*micheline.Prim)
	return ok && p.Name == name && len(p.Args) == 0
}

// blsFrOrder is the order of the BLS12-381 scalar field.
var blsFrOrder = mustBig("52435875175126190479447740508185965837690552500527637822603658699938581184513")

func mustBig(s string) *big.Int {
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("mvm: bad constant " + s)
	}
	return x
}

var blsFrOrder256 = func() *uint256.Int {
	x, _ := uint256.FromBig(blsFrOrder)
	return x
}()

func frFromBig(x *big.Int) FrV {
	r := new(big.Int).Mod(x, blsFrOrder)
	var v FrV
	u, _ := uint256.FromBig(r)
	v.X = *u
	return v
}
