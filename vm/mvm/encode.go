package mvm

import (
	"fmt"
	"math/big"

	"github.com/stacknet-protocol/stackvm/micheline"
)

// EncodeValue renders a runtime value back to its literal tree. Domain
// constants use the readable string form; the result round-trips through
// DecodeValue at the same type. Operations have no literal form.
func EncodeValue(v Value, ty *Ty) (micheline.Node, error) {
	switch ty.Kind {
	case TyUnit:
		return micheline.NewPrim(micheline.DUnit), nil
	case TyBool:
		if bool(v.(BoolV)) {
			return micheline.NewPrim(micheline.DTrue), nil
		}
		return micheline.NewPrim(micheline.DFalse), nil
	case TyInt, TyNat:
		return micheline.NewBig(new(big.Int).Set(v.(IntV).Int)), nil
	case TyString:
		return micheline.NewString(string(v.(StringV))), nil
	case TyBytes:
		return micheline.NewBytes(append([]byte(nil), v.(BytesV)...)), nil
	case TyMutez:
		return micheline.NewBig(new(big.Int).SetUint64(uint64(v.(MutezV)))), nil
	case TyTimestamp:
		return micheline.NewBig(new(big.Int).Set(v.(TimestampV).Unix)), nil
	case TyAddress:
		return micheline.NewString(v.(AddressV).A.String()), nil
	case TyKey:
		return micheline.NewString(v.(KeyV).K.String()), nil
	case TyKeyHash:
		return micheline.NewString(v.(KeyHashV).H.String()), nil
	case TySignature:
		return micheline.NewString(v.(SigV).S.String()), nil
	case TyChainID:
		return micheline.NewString(v.(ChainIDV).C.String()), nil
	case TyContract:
		return micheline.NewString(v.(ContractV).Addr.String()), nil
	case TyBls12381G1:
		return micheline.NewBytes(append([]byte(nil), v.(G1V)...)), nil
	case TyBls12381G2:
		return micheline.NewBytes(append([]byte(nil), v.(G2V)...)), nil
	case TyBls12381Fr:
		x := v.(FrV)
		return micheline.NewBytes(x.X.Bytes()), nil
	case TySaplingState:
		s := v.(SaplingStateV)
		if s.ID != nil {
			return micheline.NewBig(new(big.Int).Set(s.ID)), nil
		}
		return micheline.NewSeq(), nil
	case TySaplingTransaction:
		return micheline.NewBytes(append([]byte(nil), v.(SaplingTxV).Data...)), nil
	case TyChest:
		return micheline.NewBytes(append([]byte(nil), v.(ChestV)...)), nil
	case TyChestKey:
		return micheline.NewBytes(append([]byte(nil), v.(ChestKeyV)...)), nil

	case TyOption:
		o := v.(OptionV)
		if !o.Some {
			return micheline.NewPrim(micheline.DNone), nil
		}
		inner, err := EncodeValue(o.V, ty.Args[0])
		if err != nil {
			return nil, err
		}
		return micheline.NewPrim(micheline.DSome, inner), nil
	case TyOr:
		o := v.(OrV)
		side, ctor := ty.Args[0], micheline.DLeft
		if o.IsRight {
			side, ctor = ty.Args[1], micheline.DRight
		}
		inner, err := EncodeValue(o.V, side)
		if err != nil {
			return nil, err
		}
		return micheline.NewPrim(ctor, inner), nil
	case TyPair:
		p := v.(PairV)
		l, err := EncodeValue(p.L, ty.Args[0])
		if err != nil {
			return nil, err
		}
		r, err := EncodeValue(p.R, ty.Args[1])
		if err != nil {
			return nil, err
		}
		return micheline.NewPrim(micheline.DPair, l, r), nil
	case TyList:
		items := make([]micheline.Node, 0, v.(ListV).Len())
		err := v.(ListV).Each(func(e Value) error {
			n, err := EncodeValue(e, ty.Args[0])
			if err != nil {
				return err
			}
			items = append(items, n)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return micheline.NewSeq(items...), nil
	case TySet:
		items := make([]micheline.Node, 0, v.(SetV).Len())
		err := v.(SetV).Each(func(e Value) error {
			n, err := EncodeValue(e, ty.Args[0])
			if err != nil {
				return err
			}
			items = append(items, n)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return micheline.NewSeq(items...), nil
	case TyMap:
		items := make([]micheline.Node, 0, v.(MapV).Len())
		err := v.(MapV).Each(func(e MapEntry) error {
			k, err := EncodeValue(e.Key, ty.Args[0])
			if err != nil {
				return err
			}
			val, err := EncodeValue(e.Val, ty.Args[1])
			if err != nil {
				return err
			}
			items = append(items, micheline.NewPrim(micheline.DElt, k, val))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return micheline.NewSeq(items...), nil
	case TyBigMap:
		b := v.(*BigMapV)
		if b.ID != nil {
			return micheline.NewBig(new(big.Int).Set(b.ID)), nil
		}
		items := make([]micheline.Node, 0, len(b.overlay))
		for _, e := range b.overlay {
			if e.Val == nil {
				continue
			}
			k, err := EncodeValue(e.Key, ty.Args[0])
			if err != nil {
				return nil, err
			}
			val, err := EncodeValue(e.Val, ty.Args[1])
			if err != nil {
				return nil, err
			}
			items = append(items, micheline.NewPrim(micheline.DElt, k, val))
		}
		return micheline.NewSeq(items...), nil
	case TyLambda:
		return encodeLambda(v.(*LambdaV))
	case TyTicket:
		t := v.(*TicketV)
		content, err := EncodeValue(t.Content, ty.Args[0])
		if err != nil {
			return nil, err
		}
		return micheline.NewPrim(micheline.DPair,
			micheline.NewString(t.Ticketer.String()),
			content,
			micheline.NewBig(new(big.Int).Set(t.Amount))), nil
	}
	return nil, fmt.Errorf("mvm: %s has no literal form", ty)
}

// encodeLambda renders a lambda back to code. Captured arguments become a
// PUSH/PAIR prefix so the closure stays a plain quotation on the wire.
func encodeLambda(l *LambdaV) (micheline.Node, error) {
	body := instrToNode(l.Code)
	seq, ok := body.(*micheline.Seq)
	if !ok {
		seq = micheline.NewSeq(body)
	}
	if len(l.Captured) > 0 {
		prefix := make([]micheline.Node, 0, 2*len(l.Captured))
		for i := len(l.Captured) - 1; i >= 0; i-- {
			lit, err := EncodeValue(l.Captured[i], l.CapturedTy[i])
			if err != nil {
				return nil, err
			}
			prefix = append(prefix,
				micheline.NewPrim("PUSH", tyToNode(l.CapturedTy[i]), lit),
				micheline.NewPrim("PAIR"))
		}
		seq = micheline.NewSeq(append(prefix, seq.Items...)...)
	}
	if l.Rec {
		return micheline.NewPrim(micheline.DLambdaRec, seq), nil
	}
	return seq, nil
}

// instrToNode renders a typed instruction tree back to its concrete form.
// The rendering is deterministic, which is what PACK of lambdas relies on.
func instrToNode(i *Instr) micheline.Node {
	if i.Op == OpSeq {
		items := make([]micheline.Node, len(i.Body))
		for j, b := range i.Body {
			items[j] = instrToNode(b)
		}
		return micheline.NewSeq(items...)
	}
	p := micheline.NewPrim(i.Op.String())
	switch i.Op {
	case OpIf, OpIfNone, OpIfLeft, OpIfCons:
		p.Args = []micheline.Node{instrToNode(i.BrA), instrToNode(i.BrB)}
	case OpLoop, OpLoopLeft, OpMap, OpIter:
		p.Args = []micheline.Node{instrToNode(i.BrA)}
	case OpDip:
		if i.N == 1 {
			p.Args = []micheline.Node{instrToNode(i.BrA)}
		} else {
			p.Args = []micheline.Node{micheline.NewInt(int64(i.N)), instrToNode(i.BrA)}
		}
	case OpDrop, OpDup:
		if i.N != 1 {
			p.Args = []micheline.Node{micheline.NewInt(int64(i.N))}
		}
	case OpPair, OpUnpair:
		if i.N != 2 {
			p.Args = []micheline.Node{micheline.NewInt(int64(i.N))}
		}
	case OpDig, OpDug, OpGetN, OpUpdateN, OpSaplingEmptyState:
		p.Args = []micheline.Node{micheline.NewInt(int64(i.N))}
	case OpPush:
		lit, err := EncodeValue(i.Val, i.Ty1)
		if err != nil {
			// Pushable types always have a literal form.
			lit = micheline.NewPrim(micheline.DUnit)
		}
		p.Args = []micheline.Node{tyToNode(i.Ty1), lit}
	case OpLambda, OpLambdaRec:
		p.Args = []micheline.Node{tyToNode(i.Ty1), tyToNode(i.Ty2), instrToNode(i.BrA)}
	case OpNone, OpNil, OpLeft, OpRight, OpEmptySet, OpUnpack:
		p.Args = []micheline.Node{tyToNode(i.Ty1)}
	case OpEmptyMap, OpEmptyBigMap:
		p.Args = []micheline.Node{tyToNode(i.Ty1), tyToNode(i.Ty2)}
	case OpContract:
		p.Args = []micheline.Node{tyToNode(i.Ty1)}
		if i.Name != "" {
			p.Annots = []string{"%" + i.Name}
		}
	case OpSelf, OpEmit:
		if i.Name != "" {
			p.Annots = []string{"%" + i.Name}
		}
		if i.Op == OpEmit && i.Ty1 != nil {
			p.Args = []micheline.Node{tyToNode(i.Ty1)}
		}
	case OpView:
		p.Args = []micheline.Node{micheline.NewString(i.Name), tyToNode(i.Ty2)}
	case OpCreateContract:
		p.Args = []micheline.Node{i.Script.Tree()}
	}
	return p
}
