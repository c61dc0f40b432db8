package process

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/vm/mvm"
)

func mustAddr(t *testing.T, s string) core.Address {
	t.Helper()
	a, err := core.ParseAddress(s)
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", s, err)
	}
	return a
}

func op(name string, args ...micheline.Node) *micheline.Prim {
	return micheline.NewPrim(name, args...)
}

func blk(items ...micheline.Node) *micheline.Seq {
	return micheline.NewSeq(items...)
}

func testChain() ChainContext {
	return ChainContext{
		Level:        5,
		Now:          big.NewInt(1700000000),
		MinBlockTime: 15,
	}
}

var (
	srcHex      = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	contractHex = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	otherHex    = "cccccccccccccccccccccccccccccccccccccccc"
)

// adderScript accepts %add int (added to storage) and %reset unit.
func adderScript() *core.Script {
	return &core.Script{
		ParamType: op("or",
			op("int").WithAnnots("%add"),
			op("unit").WithAnnots("%reset")),
		StorageType: op("int"),
		Code: blk(
			op("UNPAIR"),
			op("IF_LEFT",
				blk(op("ADD")),
				blk(op("DROP"), op("DROP"), op("PUSH", op("int"), micheline.NewInt(0)))),
			op("NIL", op("operation")),
			op("PAIR"),
		),
	}
}

func setup(t *testing.T) (*MemState, *Processor, core.Address) {
	t.Helper()
	m := NewMemState()
	src := mustAddr(t, "acc1"+srcHex)
	m.SetBalance(src, 1000)
	return m, NewProcessor(m), src
}

func TestApplyOperationAddsToStorage(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	m.Originate(contract, adderScript(), micheline.NewInt(7), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Entrypoint:  "add",
		Parameter:   micheline.NewInt(10),
		Fee:         10,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	if r.Storage == nil || r.Storage.String() != "17" {
		t.Errorf("receipt storage = %v, want 17", r.Storage)
	}
	node, ok, err := m.StorageAt(contract)
	if err != nil || !ok {
		t.Fatalf("StorageAt: %v %v", ok, err)
	}
	if node.String() != "17" {
		t.Errorf("stored storage = %s, want 17", node)
	}
	if r.GasUsed == 0 || r.GasUsed >= 1_000_000 {
		t.Errorf("gas used = %d", r.GasUsed)
	}
	if bal, _ := m.BalanceOf(src); bal != 990 {
		t.Errorf("source balance = %d, want 990 (fee only)", bal)
	}
}

func TestApplyOperationRevertsOnFailure(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	failing := &core.Script{
		ParamType:   op("unit"),
		StorageType: op("int"),
		Code: blk(
			op("DROP"),
			op("PUSH", op("string"), micheline.NewString("nope")),
			op("FAILWITH"),
		),
	}
	m.Originate(contract, failing, micheline.NewInt(1), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Amount:      25,
		Fee:         10,
		GasLimit:    1_000_000,
	})
	if r.Success {
		t.Fatal("failing contract reported success")
	}
	var fe *mvm.FailError
	if !errors.As(r.Err, &fe) {
		t.Fatalf("receipt error %T (%v), want *mvm.FailError", r.Err, r.Err)
	}
	if r.GasUsed == 0 {
		t.Error("failure consumed no gas")
	}
	// The transferred amount came back; only the fee is gone.
	if bal, _ := m.BalanceOf(src); bal != 990 {
		t.Errorf("source balance = %d, want 990", bal)
	}
	if bal, _ := m.BalanceOf(contract); bal != 0 {
		t.Errorf("contract balance = %d, want 0", bal)
	}
	if node, _, _ := m.StorageAt(contract); node.String() != "1" {
		t.Errorf("storage = %s, want untouched 1", node)
	}
}

func TestApplyOperationUnknownEntrypoint(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	m.Originate(contract, adderScript(), micheline.NewInt(0), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Entrypoint:  "missing",
		Parameter:   micheline.NewInt(1),
		Fee:         5,
		GasLimit:    100_000,
	})
	if r.Success {
		t.Fatal("unknown entrypoint accepted")
	}
	if !errors.Is(r.Err, ErrNoSuchEntrypoint) {
		t.Errorf("err = %v, want ErrNoSuchEntrypoint", r.Err)
	}
	if bal, _ := m.BalanceOf(src); bal != 995 {
		t.Errorf("source balance = %d, want 995", bal)
	}
}

func TestApplyOperationFeeTooHigh(t *testing.T) {
	m, p, src := setup(t)
	_ = m
	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: mustAddr(t, "acc1"+otherHex),
		Fee:         5000,
		GasLimit:    100_000,
	})
	if r.Success || r.Err == nil {
		t.Fatal("unaffordable fee accepted")
	}
}

func TestTransferToImplicitAccount(t *testing.T) {
	m, p, src := setup(t)
	dest := mustAddr(t, "acc1"+otherHex)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: dest,
		Amount:      300,
		Fee:         10,
		GasLimit:    100_000,
	})
	if !r.Success {
		t.Fatalf("transfer failed: %v", r.Err)
	}
	if r.Storage != nil {
		t.Error("implicit destination produced a storage literal")
	}
	if bal, _ := m.BalanceOf(dest); bal != 300 {
		t.Errorf("destination balance = %d, want 300", bal)
	}
	if bal, _ := m.BalanceOf(src); bal != 690 {
		t.Errorf("source balance = %d, want 690", bal)
	}
}

func TestTransferToImplicitRejectsParameter(t *testing.T) {
	_, p, src := setup(t)
	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: mustAddr(t, "acc1"+otherHex),
		Parameter:   micheline.NewInt(3),
		Fee:         1,
		GasLimit:    100_000,
	})
	if r.Success || !errors.Is(r.Err, ErrBadImplicitCall) {
		t.Fatalf("err = %v, want ErrBadImplicitCall", r.Err)
	}
}

// forwarderScript sends 5 mutez to the address held in storage.
func forwarderScript() *core.Script {
	return &core.Script{
		ParamType:   op("unit"),
		StorageType: op("address"),
		Code: blk(
			op("CDR"),
			op("DUP"),
			op("CONTRACT", op("unit")),
			op("ASSERT_SOME"),
			op("PUSH", op("mutez"), micheline.NewInt(5)),
			op("UNIT"),
			op("TRANSFER_TOKENS"),
			op("NIL", op("operation")),
			op("SWAP"),
			op("CONS"),
			op("PAIR"),
		),
	}
}

func TestInternalTransferChain(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	payee := mustAddr(t, "acc1"+otherHex)
	m.Originate(contract, forwarderScript(), micheline.NewString(payee.String()), 100)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Fee:         10,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	if len(r.InternalOps) != 1 {
		t.Fatalf("internal ops = %d, want 1", len(r.InternalOps))
	}
	iop := r.InternalOps[0]
	if iop.Kind != core.OpTransfer || iop.Amount != 5 {
		t.Errorf("internal op = %v amount %d", iop.Kind, iop.Amount)
	}
	if !iop.Source.Equal(contract.ContractOnly()) {
		t.Errorf("internal source = %s, want the contract", iop.Source)
	}
	if bal, _ := m.BalanceOf(payee); bal != 5 {
		t.Errorf("payee balance = %d, want 5", bal)
	}
	if bal, _ := m.BalanceOf(contract); bal != 95 {
		t.Errorf("contract balance = %d, want 95", bal)
	}
}

func TestInternalFailureRevertsWholeOperation(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	payee := mustAddr(t, "acc1"+otherHex)
	// Forwarding more than the contract holds must fail the whole chain.
	broke := forwarderScript()
	m.Originate(contract, broke, micheline.NewString(payee.String()), 2)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Fee:         10,
		GasLimit:    1_000_000,
	})
	if r.Success {
		t.Fatal("insolvent internal transfer succeeded")
	}
	if bal, _ := m.BalanceOf(payee); bal != 0 {
		t.Errorf("payee balance = %d after revert", bal)
	}
	if bal, _ := m.BalanceOf(contract); bal != 2 {
		t.Errorf("contract balance = %d, want 2", bal)
	}
}

func originatorScript() *core.Script {
	inner := blk(
		op("parameter", op("unit")),
		op("storage", op("unit")),
		op("code", blk(op("CDR"), op("NIL", op("operation")), op("PAIR"))),
	)
	return &core.Script{
		ParamType:   op("unit"),
		StorageType: op("unit"),
		Code: blk(
			op("DROP"),
			op("UNIT"),
			op("PUSH", op("mutez"), micheline.NewInt(0)),
			op("NONE", op("key_hash")),
			op("CREATE_CONTRACT", inner),
			op("NIL", op("operation")),
			op("SWAP"),
			op("CONS"),
			op("DIP", blk(op("DROP"))),
			op("UNIT"),
			op("SWAP"),
			op("PAIR"),
		),
	}
}

func TestOriginationByContract(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	m.Originate(contract, originatorScript(), op("Unit"), 50)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Fee:         10,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	if len(r.InternalOps) != 1 || r.InternalOps[0].Kind != core.OpOrigination {
		t.Fatalf("internal ops = %+v, want one origination", r.InternalOps)
	}
	child := r.InternalOps[0].Originated
	if !m.Exists(child) {
		t.Fatal("originated contract does not exist")
	}
	want := core.DeriveContractAddress(contract, r.InternalOps[0].Nonce)
	if !child.Equal(want) {
		t.Errorf("originated address %s, want %s", child, want)
	}
	if node, ok, _ := m.StorageAt(child); !ok || node.String() != "Unit" {
		t.Errorf("child storage = %v, want Unit", node)
	}
}

func eventScript() *core.Script {
	return &core.Script{
		ParamType:   op("string"),
		StorageType: op("unit"),
		Code: blk(
			op("CAR"),
			op("EMIT", op("string")).WithAnnots("%ping"),
			op("NIL", op("operation")),
			op("SWAP"),
			op("CONS"),
			op("UNIT"),
			op("SWAP"),
			op("PAIR"),
		),
	}
}

func TestEventEmission(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	m.Originate(contract, eventScript(), op("Unit"), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Parameter:   micheline.NewString("hello"),
		Fee:         1,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	if len(r.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(r.Events))
	}
	ev := r.Events[0]
	if ev.Tag != "ping" {
		t.Errorf("event tag = %q, want ping", ev.Tag)
	}
	if ev.Payload == nil || ev.Payload.String() != `"hello"` {
		t.Errorf("event payload = %v", ev.Payload)
	}
}

func bigMapScript() *core.Script {
	return &core.Script{
		ParamType:   op("unit"),
		StorageType: op("big_map", op("string"), op("int")),
		Code: blk(
			op("CDR"),
			op("PUSH", op("int"), micheline.NewInt(1)),
			op("SOME"),
			op("PUSH", op("string"), micheline.NewString("k")),
			op("UPDATE"),
			op("NIL", op("operation")),
			op("PAIR"),
		),
	}
}

func TestBigMapCommit(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	m.Originate(contract, bigMapScript(), blk(), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Fee:         1,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	// The committed storage is the allocated identifier.
	if r.Storage == nil || r.Storage.String() != "0" {
		t.Fatalf("storage = %v, want big_map id 0", r.Storage)
	}

	ev := mvm.NewEvaluator(mvm.NewGas(100_000), m, mvm.CallContext{})
	kh, err := ev.KeyHash(mvm.StringV("k"), mvm.StringT())
	if err != nil {
		t.Fatal(err)
	}
	node, ok, err := m.BigMapGet(big.NewInt(0), kh)
	if err != nil || !ok {
		t.Fatalf("committed entry missing: %v %v", ok, err)
	}
	if node.String() != "1" {
		t.Errorf("entry = %s, want 1", node)
	}
}

func viewedScript() *core.Script {
	return &core.Script{
		ParamType:   op("unit"),
		StorageType: op("int"),
		Code:        blk(op("CDR"), op("NIL", op("operation")), op("PAIR")),
		Views: []core.View{{
			Name:    "peek",
			ArgType: op("unit"),
			RetType: op("int"),
			Code:    blk(op("CDR")),
		}},
	}
}

func viewerScript() *core.Script {
	return &core.Script{
		ParamType:   op("address"),
		StorageType: op("int"),
		Code: blk(
			op("CAR"),
			op("UNIT"),
			op("VIEW", micheline.NewString("peek"), op("int")),
			op("IF_SOME", blk(), blk(op("PUSH", op("int"), micheline.NewInt(-1)))),
			op("NIL", op("operation")),
			op("PAIR"),
		),
	}
}

func TestViewCall(t *testing.T) {
	m, p, src := setup(t)
	viewed := mustAddr(t, "ctr1"+contractHex)
	viewer := mustAddr(t, "ctr1"+otherHex)
	m.Originate(viewed, viewedScript(), micheline.NewInt(10), 0)
	m.Originate(viewer, viewerScript(), micheline.NewInt(0), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: viewer,
		Parameter:   micheline.NewString(viewed.String()),
		Fee:         1,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	if r.Storage == nil || r.Storage.String() != "10" {
		t.Errorf("viewer storage = %v, want the viewed value 10", r.Storage)
	}
}

// mutatorScript bumps its counter to 99, then calls the watcher held in
// storage, handing over its own address. Its "peek" view exposes the
// counter.
func mutatorScript() *core.Script {
	return &core.Script{
		ParamType:   op("unit"),
		StorageType: op("pair", op("int"), op("address")),
		Code: blk(
			op("CDR"),
			op("UNPAIR"),
			op("DROP"),
			op("PUSH", op("int"), micheline.NewInt(99)),
			op("PAIR"),
			op("DUP"),
			op("CDR"),
			op("CONTRACT", op("address")),
			op("ASSERT_SOME"),
			op("PUSH", op("mutez"), micheline.NewInt(0)),
			op("SELF_ADDRESS"),
			op("TRANSFER_TOKENS"),
			op("NIL", op("operation")),
			op("SWAP"),
			op("CONS"),
			op("PAIR"),
		),
		Views: []core.View{{
			Name:    "peek",
			ArgType: op("unit"),
			RetType: op("int"),
			Code:    blk(op("CDR"), op("CAR")),
		}},
	}
}

func TestViewSeesStartOfCallStorage(t *testing.T) {
	m, p, src := setup(t)
	mutator := mustAddr(t, "ctr1"+contractHex)
	watcher := mustAddr(t, "ctr1"+otherHex)
	m.Originate(mutator, mutatorScript(),
		op("Pair", micheline.NewInt(7), micheline.NewString(watcher.String())), 0)
	m.Originate(watcher, viewerScript(), micheline.NewInt(0), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: mutator,
		Fee:         1,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	// The mutator already committed 99, but the watcher's view must still
	// observe the value the operation started from.
	if node, _, _ := m.StorageAt(watcher); node.String() != "7" {
		t.Errorf("watcher storage = %s, want the start-of-call value 7", node)
	}
	node, _, _ := m.StorageAt(mutator)
	if pr, ok := node.(*micheline.Prim); !ok || pr.Args[0].String() != "99" {
		t.Errorf("mutator storage = %s, want counter 99", node)
	}
}

func TestGasChargeUnaffectedByCacheWarmth(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	m.Originate(contract, adderScript(), micheline.NewInt(0), 0)

	call := func() *Receipt {
		return p.ApplyOperation(testChain(), &core.ExternalOperation{
			Source:      src,
			Destination: contract,
			Entrypoint:  "add",
			Parameter:   micheline.NewInt(0),
			Fee:         1,
			GasLimit:    1_000_000,
		})
	}
	cold := call()
	if !cold.Success {
		t.Fatalf("cold call failed: %v", cold.Err)
	}
	warm := call()
	if !warm.Success {
		t.Fatalf("warm call failed: %v", warm.Err)
	}
	if cold.GasUsed != warm.GasUsed {
		t.Errorf("gas used cold=%d warm=%d, want identical", cold.GasUsed, warm.GasUsed)
	}
}

func TestScriptCacheReuse(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	m.Originate(contract, adderScript(), micheline.NewInt(0), 0)

	for i := 0; i < 3; i++ {
		r := p.ApplyOperation(testChain(), &core.ExternalOperation{
			Source:      src,
			Destination: contract,
			Entrypoint:  "add",
			Parameter:   micheline.NewInt(1),
			Fee:         1,
			GasLimit:    1_000_000,
		})
		if !r.Success {
			t.Fatalf("call %d failed: %v", i, r.Err)
		}
	}
	if p.cache.Len() != 1 {
		t.Errorf("cache entries = %d, want 1", p.cache.Len())
	}
	if node, _, _ := m.StorageAt(contract); node.String() != "3" {
		t.Errorf("storage = %s, want 3", node)
	}
}

func TestDelegationByContract(t *testing.T) {
	m, p, src := setup(t)
	contract := mustAddr(t, "ctr1"+contractHex)
	delegate := core.KeyHash{Curve: core.CurveEd25519}
	script := &core.Script{
		ParamType:   op("key_hash"),
		StorageType: op("unit"),
		Code: blk(
			op("CAR"),
			op("SOME"),
			op("SET_DELEGATE"),
			op("NIL", op("operation")),
			op("SWAP"),
			op("CONS"),
			op("UNIT"),
			op("SWAP"),
			op("PAIR"),
		),
	}
	m.Originate(contract, script, op("Unit"), 0)

	r := p.ApplyOperation(testChain(), &core.ExternalOperation{
		Source:      src,
		Destination: contract,
		Parameter:   micheline.NewString(delegate.String()),
		Fee:         1,
		GasLimit:    1_000_000,
	})
	if !r.Success {
		t.Fatalf("operation failed: %v", r.Err)
	}
	got, ok := m.Delegate(contract)
	if !ok {
		t.Fatal("delegate not recorded")
	}
	if got.Compare(delegate) != 0 {
		t.Errorf("delegate = %s, want %s", got, delegate)
	}
}
