package mvm

import (
	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/params"
)

// Container rules. All containers are persistent values; updates build new
// spines and leave the input untouched, which is what makes the branch
// sharing in the interpreter sound.

func (e *Evaluator) execContainer(i *Instr, s *Stack) error {
	switch i.Op {
	case OpEmptySet:
		s.Push(EmptySet())
		return nil

	case OpEmptyMap:
		s.Push(EmptyMap())
		return nil

	case OpEmptyBigMap:
		s.Push(&BigMapV{KeyTy: i.Ty1, ValTy: i.Ty2})
		return nil

	case OpMap:
		return e.execMap(i, s)

	case OpIter:
		return e.execIter(i, s)

	case OpMem:
		x := s.Pop()
		cont := s.Pop()
		var found bool
		var err error
		switch c := cont.(type) {
		case SetV:
			found, err = c.Mem(x, cmpAt(e.Gas, i.Ty1.Args[0]))
		case MapV:
			found, err = c.Mem(x, cmpAt(e.Gas, i.Ty1.Args[0]))
		case *BigMapV:
			_, found, err = e.bigMapGet(c, x)
		default:
			return errNoRule(i, "not a container")
		}
		if err != nil {
			return err
		}
		s.Push(BoolV(found))
		return nil

	case OpGet:
		k := s.Pop()
		cont := s.Pop()
		var v Value
		var found bool
		var err error
		switch c := cont.(type) {
		case MapV:
			v, found, err = c.Get(k, cmpAt(e.Gas, i.Ty1.Args[0]))
		case *BigMapV:
			v, found, err = e.bigMapGet(c, k)
		default:
			return errNoRule(i, "not a lookup container")
		}
		if err != nil {
			return err
		}
		if found {
			s.Push(Some(v))
		} else {
			s.Push(None())
		}
		return nil

	case OpUpdate:
		if err := e.Gas.Consume(params.ContainerStepGas); err != nil {
			return err
		}
		switch i.Ty1.Kind {
		case TySet:
			x := s.Pop()
			present := bool(s.Pop().(BoolV))
			set := s.Pop().(SetV)
			res, err := set.Update(x, present, cmpAt(e.Gas, i.Ty1.Args[0]))
			if err != nil {
				return err
			}
			s.Push(res)
		case TyMap:
			k := s.Pop()
			opt := s.Pop().(OptionV)
			m := s.Pop().(MapV)
			var v Value
			if opt.Some {
				v = opt.V
			}
			res, err := m.Update(k, v, cmpAt(e.Gas, i.Ty1.Args[0]))
			if err != nil {
				return err
			}
			s.Push(res)
		case TyBigMap:
			k := s.Pop()
			opt := s.Pop().(OptionV)
			b := s.Pop().(*BigMapV)
			var v Value
			if opt.Some {
				v = opt.V
			}
			res, err := b.withUpdate(k, v, cmpAt(e.Gas, i.Ty1.Args[0]))
			if err != nil {
				return err
			}
			s.Push(res)
		}
		return nil

	case OpGetAndUpdate:
		if err := e.Gas.Consume(params.ContainerStepGas); err != nil {
			return err
		}
		k := s.Pop()
		opt := s.Pop().(OptionV)
		var v Value
		if opt.Some {
			v = opt.V
		}
		cmp := cmpAt(e.Gas, i.Ty1.Args[0])
		switch c := s.Pop().(type) {
		case MapV:
			old, found, err := c.Get(k, cmp)
			if err != nil {
				return err
			}
			res, err := c.Update(k, v, cmp)
			if err != nil {
				return err
			}
			s.Push(res)
			if found {
				s.Push(Some(old))
			} else {
				s.Push(None())
			}
		case *BigMapV:
			old, found, err := e.bigMapGet(c, k)
			if err != nil {
				return err
			}
			res, err := c.withUpdate(k, v, cmp)
			if err != nil {
				return err
			}
			s.Push(res)
			if found {
				s.Push(Some(old))
			} else {
				s.Push(None())
			}
		default:
			return errNoRule(i, "not a lookup container")
		}
		return nil
	}
	return errNoRule(i, "not a container instruction")
}

func (e *Evaluator) execMap(i *Instr, s *Stack) error {
	switch i.Ty1.Kind {
	case TyList:
		l := s.Pop().(ListV)
		var results []Value
		err := l.Each(func(v Value) error {
			if err := e.Gas.Consume(params.ContainerStepGas); err != nil {
				return err
			}
			s.Push(v)
			if err := e.Run(i.BrA, s); err != nil {
				return err
			}
			results = append(results, s.Pop())
			return nil
		})
		if err != nil {
			return err
		}
		s.Push(ListOf(results...))
		return nil

	case TyOption:
		o := s.Pop().(OptionV)
		if !o.Some {
			s.Push(None())
			return nil
		}
		s.Push(o.V)
		if err := e.Run(i.BrA, s); err != nil {
			return err
		}
		s.Push(Some(s.Pop()))
		return nil

	case TyMap:
		m := s.Pop().(MapV)
		entries := make([]MapEntry, 0, m.Len())
		err := m.Each(func(en MapEntry) error {
			if err := e.Gas.Consume(params.ContainerStepGas); err != nil {
				return err
			}
			s.Push(PairV{L: en.Key, R: en.Val})
			if err := e.Run(i.BrA, s); err != nil {
				return err
			}
			entries = append(entries, MapEntry{Key: en.Key, Val: s.Pop()})
			return nil
		})
		if err != nil {
			return err
		}
		s.Push(MapV{entries: entries})
		return nil
	}
	return errNoRule(i, "not a mappable container")
}

func (e *Evaluator) execIter(i *Instr, s *Stack) error {
	step := func(v Value) error {
		if err := e.Gas.Consume(params.ContainerStepGas); err != nil {
			return err
		}
		s.Push(v)
		return e.Run(i.BrA, s)
	}
	switch c := s.Pop().(type) {
	case ListV:
		return c.Each(step)
	case SetV:
		return c.Each(step)
	case MapV:
		return c.Each(func(en MapEntry) error {
			return step(PairV{L: en.Key, R: en.Val})
		})
	}
	return errNoRule(i, "not an iterable container")
}

// bigMapGet consults the local overlay first and falls back to the state
// resolver for allocated maps. Keys travel to the resolver as the blake2b
// hash of their packed form.
func (e *Evaluator) bigMapGet(b *BigMapV, k Value) (Value, bool, error) {
	cmp := cmpAt(e.Gas, b.KeyTy)
	v, present, hit, err := b.get(k, cmp)
	if err != nil || hit {
		return v, present, err
	}
	if b.ID == nil {
		return nil, false, nil
	}
	if err := e.Gas.Consume(params.BigMapResolveGas); err != nil {
		return nil, false, err
	}
	kh, err := e.KeyHash(k, b.KeyTy)
	if err != nil {
		return nil, false, err
	}
	node, ok, err := e.State.BigMapGet(b.ID, kh)
	if err != nil || !ok {
		return nil, false, err
	}
	val, err := DecodeValue(e.Gas, node, b.ValTy)
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// KeyHash computes the stored-key digest of a big_map key: blake2b over the
// packed value.
func (e *Evaluator) KeyHash(k Value, ty *Ty) (common.Hash, error) {
	data, err := e.Codec.Pack(e.Gas, k, ty)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2b256(data), nil
}
