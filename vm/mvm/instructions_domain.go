package mvm

import (
	"math/big"

	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/params"
)

// Domain rules: serialization, cryptography, chain context, operations,
// tickets, sapling and timelock.

func (e *Evaluator) execDomain(i *Instr, s *Stack) error {
	switch i.Op {

	// Serialization and crypto.

	case OpPack:
		data, err := e.Codec.Pack(e.Gas, s.Pop(), i.Ty1)
		if err != nil {
			return err
		}
		s.Push(BytesV(data))
		return nil

	case OpUnpack:
		v, ok, err := e.Codec.Unpack(e.Gas, s.Pop().(BytesV), i.Ty1)
		if err != nil {
			return err
		}
		if ok {
			s.Push(Some(v))
		} else {
			s.Push(None())
		}
		return nil

	case OpHashKey:
		k := s.Pop().(KeyV)
		if err := e.Gas.Consume(hashCost(len(k.K.Data))); err != nil {
			return err
		}
		s.Push(KeyHashV{H: k.K.Hash()})
		return nil

	case OpCheckSignature:
		key := s.Pop().(KeyV)
		sig := s.Pop().(SigV)
		msg := s.Pop().(BytesV)
		if err := e.Gas.Consume(params.SigCheckGas + hashCost(len(msg))); err != nil {
			return err
		}
		ok, err := e.Crypto.CheckSignature(key.K, sig.S, msg)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(BoolV(ok))
		return nil

	case OpBlake2b, OpKeccak, OpSha256, OpSha512, OpSha3:
		b := s.Pop().(BytesV)
		if err := e.Gas.Consume(hashCost(len(b))); err != nil {
			return err
		}
		var out []byte
		switch i.Op {
		case OpBlake2b:
			out = e.Crypto.Blake2b(b)
		case OpKeccak:
			out = e.Crypto.Keccak(b)
		case OpSha256:
			out = e.Crypto.Sha256(b)
		case OpSha512:
			out = e.Crypto.Sha512(b)
		case OpSha3:
			out = e.Crypto.Sha3(b)
		}
		s.Push(BytesV(out))
		return nil

	case OpPairingCheck:
		l := s.Pop().(ListV)
		cost := params.BlsPairingBaseGas + uint64(l.Len())*params.BlsPairingPairGas
		if err := e.Gas.Consume(cost); err != nil {
			return err
		}
		var pairs [][2][]byte
		l.Each(func(v Value) error {
			p := v.(PairV)
			pairs = append(pairs, [2][]byte{p.L.(G1V), p.R.(G2V)})
			return nil
		})
		ok, err := e.Crypto.PairingCheck(pairs)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(BoolV(ok))
		return nil

	// Chain context and operations.

	case OpAddress:
		s.Push(AddressV{A: s.Pop().(ContractV).Addr})
		return nil

	case OpContract:
		return e.execContract(i, s)

	case OpImplicitAccount:
		kh := s.Pop().(KeyHashV)
		s.Push(ContractV{Addr: kh.H.Address(), ParamTy: UnitT()})
		return nil

	case OpTransferTokens:
		arg := s.Pop()
		amount := s.Pop().(MutezV)
		dest := s.Pop().(ContractV)
		lit, err := EncodeValue(arg, i.Ty1)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(OperationV{Op: &core.InternalOperation{
			Kind:        core.OpTransfer,
			Source:      e.Ctx.Self,
			Nonce:       e.nextNonce(),
			Destination: dest.Addr.ContractOnly(),
			Entrypoint:  dest.Addr.Entrypoint,
			Amount:      uint64(amount),
			Parameter:   lit,
		}})
		return nil

	case OpSetDelegate:
		opt := s.Pop().(OptionV)
		op := &core.InternalOperation{
			Kind:   core.OpDelegation,
			Source: e.Ctx.Self,
			Nonce:  e.nextNonce(),
		}
		if opt.Some {
			kh := opt.V.(KeyHashV).H
			op.Delegate = &kh
		}
		s.Push(OperationV{Op: op})
		return nil

	case OpCreateContract:
		if err := e.Gas.Consume(params.OriginationGas); err != nil {
			return err
		}
		delegate := s.Pop().(OptionV)
		balance := s.Pop().(MutezV)
		storage := s.Pop()
		lit, err := EncodeValue(storage, i.Ty2)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		op := &core.InternalOperation{
			Kind:        core.OpOrigination,
			Source:      e.Ctx.Self,
			Nonce:       e.nextNonce(),
			Script:      i.Script,
			Balance:     uint64(balance),
			StorageInit: lit,
		}
		if delegate.Some {
			kh := delegate.V.(KeyHashV).H
			op.Delegate = &kh
		}
		op.Originated = core.DeriveContractAddress(e.Ctx.Self, op.Nonce)
		s.Push(AddressV{A: op.Originated})
		s.Push(OperationV{Op: op})
		return nil

	case OpEmit:
		payload := s.Pop()
		lit, err := EncodeValue(payload, i.Ty1)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(OperationV{Op: &core.InternalOperation{
			Kind:      core.OpEvent,
			Source:    e.Ctx.Self,
			Nonce:     e.nextNonce(),
			Tag:       i.Name,
			EventType: tyToNode(i.Ty1),
			Payload:   lit,
		}})
		return nil

	case OpBalance:
		s.Push(MutezV(e.Ctx.Balance))
		return nil
	case OpAmount:
		s.Push(MutezV(e.Ctx.Amount))
		return nil
	case OpNow:
		s.Push(TimestampV{Unix: e.Ctx.Now})
		return nil
	case OpLevel:
		s.Push(IntV{Int: new(big.Int).SetUint64(e.Ctx.Level)})
		return nil
	case OpMinBlockTime:
		s.Push(IntV{Int: new(big.Int).SetUint64(e.Ctx.MinBlockTime)})
		return nil
	case OpSource:
		s.Push(AddressV{A: e.Ctx.Source})
		return nil
	case OpSender:
		s.Push(AddressV{A: e.Ctx.Sender})
		return nil
	case OpSelf:
		addr := e.Ctx.Self.ContractOnly()
		addr.Entrypoint = i.Name
		s.Push(ContractV{Addr: addr, ParamTy: i.Ty1})
		return nil
	case OpSelfAddress:
		s.Push(AddressV{A: e.Ctx.Self.ContractOnly()})
		return nil
	case OpChainID:
		s.Push(ChainIDV{C: e.Ctx.ChainID})
		return nil
	case OpTotalVotingPower:
		p, err := e.State.TotalVotingPower()
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(IntV{Int: p})
		return nil
	case OpVotingPower:
		kh := s.Pop().(KeyHashV)
		p, err := e.State.VotingPower(kh.H)
		if err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		s.Push(IntV{Int: p})
		return nil

	case OpView:
		return e.execView(i, s)

	// Tickets.

	case OpTicket:
		content := s.Pop()
		amount := s.Pop().(IntV)
		if amount.Int.Sign() == 0 {
			s.Push(None())
			return nil
		}
		s.Push(Some(&TicketV{
			Ticketer:  e.Ctx.Self.ContractOnly(),
			Content:   content,
			ContentTy: i.Ty1,
			Amount:    new(big.Int).Set(amount.Int),
		}))
		return nil

	case OpReadTicket:
		t := s.Peek(0).(*TicketV)
		info := PairV{
			L: AddressV{A: t.Ticketer},
			R: PairV{L: t.Content, R: IntV{Int: new(big.Int).Set(t.Amount)}},
		}
		s.Push(info)
		return nil

	case OpSplitTicket:
		t := s.Pop().(*TicketV)
		p := s.Pop().(PairV)
		a := p.L.(IntV).Int
		b := p.R.(IntV).Int
		sum := new(big.Int).Add(a, b)
		if a.Sign() == 0 || b.Sign() == 0 || sum.Cmp(t.Amount) != 0 {
			s.Push(None())
			return nil
		}
		left := &TicketV{Ticketer: t.Ticketer, Content: t.Content, ContentTy: t.ContentTy, Amount: new(big.Int).Set(a)}
		right := &TicketV{Ticketer: t.Ticketer, Content: t.Content, ContentTy: t.ContentTy, Amount: new(big.Int).Set(b)}
		s.Push(Some(PairV{L: left, R: right}))
		return nil

	case OpJoinTickets:
		p := s.Pop().(PairV)
		x := p.L.(*TicketV)
		y := p.R.(*TicketV)
		if !x.Ticketer.Equal(y.Ticketer) {
			s.Push(None())
			return nil
		}
		c, err := Compare(e.Gas, x.ContentTy, x.Content, y.Content)
		if err != nil {
			return err
		}
		if c != 0 {
			s.Push(None())
			return nil
		}
		s.Push(Some(&TicketV{
			Ticketer:  x.Ticketer,
			Content:   x.Content,
			ContentTy: x.ContentTy,
			Amount:    new(big.Int).Add(x.Amount, y.Amount),
		}))
		return nil

	// Sapling and timelock.

	case OpSaplingEmptyState:
		s.Push(SaplingStateV{MemoSize: i.N})
		return nil

	case OpSaplingVerifyUpdate:
		tx := s.Pop().(SaplingTxV)
		state := s.Pop().(SaplingStateV)
		if err := e.Gas.Consume(params.SigCheckGas); err != nil {
			return err
		}
		balance, next, ok := e.Crypto.VerifySaplingUpdate(state, tx)
		if !ok {
			s.Push(None())
			return nil
		}
		s.Push(Some(PairV{L: IntV{Int: balance}, R: next}))
		return nil

	case OpOpenChest:
		key := s.Pop().(ChestKeyV)
		chest := s.Pop().(ChestV)
		timeBound := s.Pop().(IntV)
		if err := e.Gas.Consume(hashCost(len(chest))); err != nil {
			return err
		}
		payload, ok := e.Crypto.OpenChest(key, chest, timeBound.Int)
		if !ok {
			s.Push(None())
			return nil
		}
		s.Push(Some(BytesV(payload)))
		return nil
	}
	return errNoRule(i, "unhandled opcode")
}

// execContract resolves an address to a typed contract handle, or None when
// the target is missing or its entrypoint type disagrees.
func (e *Evaluator) execContract(i *Instr, s *Stack) error {
	addr := s.Pop().(AddressV).A

	// An entrypoint may come from the address or the instruction, but a
	// conflict between the two resolves to None.
	ep := i.Name
	if addr.Entrypoint != "" {
		if ep != "" && ep != addr.Entrypoint {
			s.Push(None())
			return nil
		}
		ep = addr.Entrypoint
	}

	if addr.Kind == core.AddrImplicit {
		if (ep != "" && ep != "default") || i.Ty1.Kind != TyUnit {
			s.Push(None())
			return nil
		}
		s.Push(Some(ContractV{Addr: addr.ContractOnly(), ParamTy: UnitT()}))
		return nil
	}

	script, ok, err := e.State.ScriptAt(addr.ContractOnly())
	if err != nil {
		return &RuntimeError{Msg: err.Error()}
	}
	if !ok {
		s.Push(None())
		return nil
	}
	paramTy, perr := ParseTy(script.ParamType)
	if perr != nil {
		s.Push(None())
		return nil
	}
	epTy, ok := FindEntrypointTy(paramTy, ep)
	if !ok || !epTy.Equal(i.Ty1) {
		s.Push(None())
		return nil
	}
	handle := addr.ContractOnly()
	handle.Entrypoint = ep
	if handle.Entrypoint == "default" {
		handle.Entrypoint = ""
	}
	s.Push(Some(ContractV{Addr: handle, ParamTy: i.Ty1}))
	return nil
}

// execView runs a named view of another contract against its current
// storage. Every failure mode short of gas exhaustion resolves to None.
func (e *Evaluator) execView(i *Instr, s *Stack) error {
	arg := s.Pop()
	addr := s.Pop().(AddressV).A.ContractOnly()

	if err := e.Gas.Consume(params.ViewCallGas); err != nil {
		return err
	}
	if e.depth >= params.CallDepthLimit {
		return ErrCallDepth
	}

	none := func() error {
		s.Push(None())
		return nil
	}
	if addr.Kind != core.AddrOriginated {
		return none()
	}
	script, ok, err := e.State.ScriptAt(addr)
	if err != nil {
		return &RuntimeError{Msg: err.Error()}
	}
	if !ok {
		return none()
	}
	typed, terr := TypecheckScript(e.Gas, script)
	if terr != nil {
		if terr == ErrOutOfGas {
			return terr
		}
		return none()
	}
	view, ok := typed.Views[i.Name]
	if !ok || !view.ArgTy.Equal(i.Ty1) || !view.RetTy.Equal(i.Ty2) {
		return none()
	}
	storageNode, ok, err := e.State.StorageAt(addr)
	if err != nil {
		return &RuntimeError{Msg: err.Error()}
	}
	if !ok {
		return none()
	}
	storage, derr := DecodeValue(e.Gas, storageNode, typed.StorageTy)
	if derr != nil {
		if derr == ErrOutOfGas {
			return derr
		}
		return none()
	}
	balance, err := e.State.BalanceOf(addr)
	if err != nil {
		return &RuntimeError{Msg: err.Error()}
	}

	sub := e.fork(CallContext{
		Self:         addr,
		Source:       e.Ctx.Source,
		Sender:       e.Ctx.Self.ContractOnly(),
		Amount:       0,
		Balance:      balance,
		Now:          e.Ctx.Now,
		Level:        e.Ctx.Level,
		MinBlockTime: e.Ctx.MinBlockTime,
		ChainID:      e.Ctx.ChainID,
	})
	st := NewStack(PairV{L: arg, R: storage})
	if rerr := sub.Run(view.Code, st); rerr != nil {
		switch rerr.(type) {
		case *FailError:
			return none()
		}
		return rerr
	}
	if st.Len() != 1 {
		return &InternalError{Instr: "VIEW", Msg: "view left an ill-sized stack"}
	}
	s.Push(Some(st.Pop()))
	return nil
}
