package mvm

import (
	"math/big"

	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/micheline"
)

// BigMapSink receives big_map allocations and writes when a storage value
// is committed. The state database implements it.
type BigMapSink interface {
	// AllocBigMap reserves a fresh identifier for a map allocated during
	// this operation.
	AllocBigMap(keyTy, valTy micheline.Node) *big.Int

	BigMapSet(id *big.Int, key common.Hash, value micheline.Node)
	BigMapDelete(id *big.Int, key common.Hash)
}

// CommitBigMaps walks a storage value, allocates identifiers for big_maps
// created during evaluation, flushes every overlay through sink, and
// returns the value with clean references. It is the only place overlays
// become durable; failed operations never reach it.
func (e *Evaluator) CommitBigMaps(v Value, ty *Ty, sink BigMapSink) (Value, error) {
	if !ty.HasBigMap() {
		return v, nil
	}
	switch ty.Kind {
	case TyBigMap:
		return e.commitOne(v.(*BigMapV), sink)

	case TyPair:
		p := v.(PairV)
		l, err := e.CommitBigMaps(p.L, ty.Args[0], sink)
		if err != nil {
			return nil, err
		}
		r, err := e.CommitBigMaps(p.R, ty.Args[1], sink)
		if err != nil {
			return nil, err
		}
		return PairV{L: l, R: r}, nil

	case TyOr:
		o := v.(OrV)
		side := ty.Args[0]
		if o.IsRight {
			side = ty.Args[1]
		}
		inner, err := e.CommitBigMaps(o.V, side, sink)
		if err != nil {
			return nil, err
		}
		return OrV{IsRight: o.IsRight, V: inner}, nil

	case TyOption:
		o := v.(OptionV)
		if !o.Some {
			return v, nil
		}
		inner, err := e.CommitBigMaps(o.V, ty.Args[0], sink)
		if err != nil {
			return nil, err
		}
		return Some(inner), nil

	case TyList:
		l := v.(ListV)
		vals := make([]Value, 0, l.Len())
		err := l.Each(func(el Value) error {
			c, err := e.CommitBigMaps(el, ty.Args[0], sink)
			if err != nil {
				return err
			}
			vals = append(vals, c)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return ListOf(vals...), nil

	case TyMap:
		m := v.(MapV)
		entries := make([]MapEntry, 0, m.Len())
		err := m.Each(func(en MapEntry) error {
			c, err := e.CommitBigMaps(en.Val, ty.Args[1], sink)
			if err != nil {
				return err
			}
			entries = append(entries, MapEntry{Key: en.Key, Val: c})
			return nil
		})
		if err != nil {
			return nil, err
		}
		return MapV{entries: entries}, nil
	}
	return v, nil
}

func (e *Evaluator) commitOne(b *BigMapV, sink BigMapSink) (Value, error) {
	id := b.ID
	if id == nil {
		id = sink.AllocBigMap(tyToNode(b.KeyTy), tyToNode(b.ValTy))
	}
	for _, en := range b.overlay {
		kh, err := e.KeyHash(en.Key, b.KeyTy)
		if err != nil {
			return nil, err
		}
		if en.Val == nil {
			sink.BigMapDelete(id, kh)
			continue
		}
		node, err := EncodeValue(en.Val, b.ValTy)
		if err != nil {
			return nil, &RuntimeError{Msg: err.Error()}
		}
		sink.BigMapSet(id, kh, node)
	}
	return &BigMapV{ID: id, KeyTy: b.KeyTy, ValTy: b.ValTy}, nil
}
