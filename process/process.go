package process

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/log"

	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/interfaces"
	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/params"
	"github.com/stacknet-protocol/stackvm/vm/mvm"
)

// ChainContext is the per-block ambient data every call in an operation
// sees identically.
type ChainContext struct {
	ChainID      core.ChainID
	Level        uint64
	Now          *big.Int
	MinBlockTime uint64
}

// Receipt is the outcome of one external operation. A failed operation
// reverts every state write but still consumes its fee and reports the gas
// spent up to the failure.
type Receipt struct {
	Success bool
	GasUsed uint64
	Err     error

	// Storage is the destination contract's resulting storage literal;
	// nil for calls to implicit accounts.
	Storage micheline.Node

	// InternalOps lists every applied internal operation in application
	// order; Events is the subset of event emissions.
	InternalOps []*core.InternalOperation
	Events      []*core.InternalOperation
}

var (
	ErrNoSuchContract   = errors.New("process: destination contract does not exist")
	ErrNoSuchEntrypoint = errors.New("process: no such entrypoint")
	ErrAddressCollision = errors.New("process: originated address already exists")
	ErrBadImplicitCall  = errors.New("process: implicit accounts accept only unit on default")
)

// Processor applies external operations against a state database. One
// processor may be reused across operations; it holds only the script
// cache, which is safe to share.
type Processor struct {
	db    interfaces.StateDB
	cache *ScriptCache
	log   log.Logger
}

func NewProcessor(db interfaces.StateDB) *Processor {
	return &Processor{
		db:    db,
		cache: NewScriptCache(params.ScriptCacheSize),
		log:   log.New("module", "process"),
	}
}

// ApplyOperation runs one external operation to completion. The fee is
// debited first and survives failure; everything after the snapshot is
// all-or-nothing.
func (p *Processor) ApplyOperation(ctx ChainContext, op *core.ExternalOperation) *Receipt {
	r := &Receipt{}
	if err := p.db.DebitFee(op.Source, op.Fee); err != nil {
		r.Err = err
		return r
	}

	gas := mvm.NewGas(op.GasLimit)
	snap := p.db.Snapshot()
	views := newViewState(p.db)
	run := &opRun{
		p:       p,
		chain:   ctx,
		gas:     gas,
		ev:      mvm.NewEvaluator(gas, views, mvm.CallContext{}),
		views:   views,
		source:  op.Source,
		receipt: r,
	}

	err := run.transfer(op.Source, op.Destination, op.Entrypoint, op.Parameter, op.Amount, 0)
	r.GasUsed = op.GasLimit - gas.Remaining()
	if err != nil {
		p.db.RevertToSnapshot(snap)
		r.Err = err
		r.Storage = nil
		r.InternalOps = nil
		r.Events = nil
		p.log.Debug("operation failed", "dest", op.Destination, "gas", r.GasUsed, "err", err)
		return r
	}
	r.Success = true
	p.log.Debug("operation applied", "dest", op.Destination, "gas", r.GasUsed,
		"internal", len(r.InternalOps))
	return r
}

// opRun is the mutable state of one external operation: shared gas, shared
// evaluator (and thus emission nonce), and the receipt being accumulated.
type opRun struct {
	p       *Processor
	chain   ChainContext
	gas     *mvm.Gas
	ev      *mvm.Evaluator
	views   *viewState
	source  core.Address
	receipt *Receipt
}

// transfer moves funds and, for an originated destination, invokes its
// code. Internal operations emitted by the callee are applied depth first:
// all descendants of an emitted operation run before its next sibling.
func (r *opRun) transfer(src, dest core.Address, ep string, param micheline.Node, amount uint64, depth int) error {
	if depth > params.CallDepthLimit {
		return mvm.ErrCallDepth
	}
	target := dest.ContractOnly()
	if err := r.p.db.Transfer(src.ContractOnly(), target, amount); err != nil {
		return err
	}
	if dest.Kind == core.AddrImplicit {
		if ep != "" && ep != "default" {
			return ErrBadImplicitCall
		}
		if param != nil {
			if u, ok := param.(*micheline.Prim); !ok || u.Name != micheline.DUnit {
				return ErrBadImplicitCall
			}
		}
		return nil
	}

	script, ok, err := r.p.db.ScriptAt(target)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSuchContract
	}
	typed, err := r.p.typedScript(r.gas, script)
	if err != nil {
		return err
	}

	entry, ok := typed.Entries.Resolve(ep)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchEntrypoint, ep)
	}
	if param == nil {
		param = micheline.NewPrim(micheline.DUnit)
	}
	arg, err := mvm.ParseValue(r.gas, param, entry.Ty)
	if err != nil {
		return err
	}
	wrapped, err := typed.Entries.Wrap(entry.Name, arg)
	if err != nil {
		return err
	}

	storageNode, ok, err := r.p.db.StorageAt(target)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoSuchContract
	}
	storage, err := mvm.ParseValue(r.gas, storageNode, typed.StorageTy)
	if err != nil {
		return err
	}
	balance, err := r.p.db.BalanceOf(target)
	if err != nil {
		return err
	}

	r.ev.Ctx = mvm.CallContext{
		Self:         target,
		Source:       r.source.ContractOnly(),
		Sender:       src.ContractOnly(),
		Amount:       amount,
		Balance:      balance,
		Now:          r.chain.Now,
		Level:        r.chain.Level,
		MinBlockTime: r.chain.MinBlockTime,
		ChainID:      r.chain.ChainID,
	}
	st := mvm.NewStack(mvm.PairV{L: wrapped, R: storage})
	if err := r.ev.Run(typed.Code, st); err != nil {
		return err
	}
	result := st.Pop().(mvm.PairV)
	emitted := result.L.(mvm.ListV)

	committed, err := r.ev.CommitBigMaps(result.R, typed.StorageTy, r.p.db)
	if err != nil {
		return err
	}
	newStorage, err := mvm.EncodeValue(committed, typed.StorageTy)
	if err != nil {
		return err
	}
	if err := r.views.note(target); err != nil {
		return err
	}
	if err := r.p.db.SetStorage(target, newStorage); err != nil {
		return err
	}
	if depth == 0 {
		r.receipt.Storage = newStorage
	}

	return emitted.Each(func(v mvm.Value) error {
		return r.applyInternal(v.(mvm.OperationV).Op, depth+1)
	})
}

func (r *opRun) applyInternal(iop *core.InternalOperation, depth int) error {
	r.receipt.InternalOps = append(r.receipt.InternalOps, iop)
	switch iop.Kind {
	case core.OpTransfer:
		dest := iop.Destination
		dest.Entrypoint = iop.Entrypoint
		return r.transfer(iop.Source, dest, iop.Entrypoint, iop.Parameter, iop.Amount, depth)

	case core.OpOrigination:
		return r.originate(iop)

	case core.OpDelegation:
		return r.p.db.SetDelegate(iop.Source.ContractOnly(), iop.Delegate)

	case core.OpEvent:
		r.receipt.Events = append(r.receipt.Events, iop)
		r.p.log.Debug("contract event", "source", iop.Source, "tag", iop.Tag)
		return nil
	}
	return fmt.Errorf("process: unknown internal operation kind %d", iop.Kind)
}

func (r *opRun) originate(iop *core.InternalOperation) error {
	addr := iop.Originated
	if r.p.db.Exists(addr) {
		return ErrAddressCollision
	}
	typed, err := r.p.typedScript(r.gas, iop.Script)
	if err != nil {
		return err
	}
	storage, err := mvm.ParseValue(r.gas, iop.StorageInit, typed.StorageTy)
	if err != nil {
		return err
	}
	committed, err := r.ev.CommitBigMaps(storage, typed.StorageTy, r.p.db)
	if err != nil {
		return err
	}
	node, err := mvm.EncodeValue(committed, typed.StorageTy)
	if err != nil {
		return err
	}
	if err := r.views.note(addr); err != nil {
		return err
	}
	if err := r.p.db.CreateContract(addr, iop.Script, node, 0); err != nil {
		return err
	}
	if err := r.p.db.Transfer(iop.Source.ContractOnly(), addr, iop.Balance); err != nil {
		return err
	}
	if iop.Delegate != nil {
		if err := r.p.db.SetDelegate(addr, iop.Delegate); err != nil {
			return err
		}
	}
	r.p.log.Debug("contract originated", "addr", addr, "balance", iop.Balance)
	return nil
}

// typedScript returns the cached typechecked form of a script, checking it
// once on first sight. A cache hit still charges the recorded typechecking
// cost: gas accounting must not depend on which node checked the script
// first.
func (p *Processor) typedScript(gas *mvm.Gas, script *core.Script) (*mvm.TypedScript, error) {
	h := script.Hash()
	if ts, cost, ok := p.cache.Get(h); ok {
		if err := gas.Consume(cost); err != nil {
			return nil, err
		}
		return ts, nil
	}
	before := gas.Remaining()
	ts, err := mvm.TypecheckScript(gas, script)
	if err != nil {
		return nil, err
	}
	p.cache.Put(ts, before-gas.Remaining())
	return ts, nil
}
