package process

import (
	"errors"
	"math/big"

	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/interfaces"
	"github.com/stacknet-protocol/stackvm/micheline"
)

// MemState is an in-memory StateDB used by tests and tooling. Snapshots
// copy the whole state; acceptable at test scale and trivially correct.
type MemState struct {
	accounts   map[core.Address]*memAccount
	bigmaps    map[string]map[common.Hash]micheline.Node
	nextBigMap int64
	voting     map[core.KeyHash]*big.Int
	totalVote  *big.Int
	snaps      []*MemState
}

type memAccount struct {
	balance  uint64
	script   *core.Script
	storage  micheline.Node
	delegate *core.KeyHash
}

var errInsufficientBalance = errors.New("process: insufficient balance")

func NewMemState() *MemState {
	return &MemState{
		accounts:  make(map[core.Address]*memAccount),
		bigmaps:   make(map[string]map[common.Hash]micheline.Node),
		voting:    make(map[core.KeyHash]*big.Int),
		totalVote: new(big.Int),
	}
}

func (m *MemState) account(addr core.Address) *memAccount {
	addr = addr.ContractOnly()
	a, ok := m.accounts[addr]
	if !ok {
		a = &memAccount{}
		m.accounts[addr] = a
	}
	return a
}

// Test setup helpers.

func (m *MemState) SetBalance(addr core.Address, amount uint64) {
	m.account(addr).balance = amount
}

func (m *MemState) SetVotingPower(kh core.KeyHash, power *big.Int) {
	m.voting[kh] = new(big.Int).Set(power)
	total := new(big.Int)
	for _, p := range m.voting {
		total.Add(total, p)
	}
	m.totalVote = total
}

// Originate installs a contract directly, bypassing operation processing.
func (m *MemState) Originate(addr core.Address, script *core.Script, storage micheline.Node, balance uint64) {
	a := m.account(addr)
	a.script = script
	a.storage = storage
	a.balance = balance
}

// Delegate reports the current delegate of an account, if any.
func (m *MemState) Delegate(addr core.Address) (*core.KeyHash, bool) {
	a, ok := m.accounts[addr.ContractOnly()]
	if !ok || a.delegate == nil {
		return nil, false
	}
	return a.delegate, true
}

// mvm.StateReader

func (m *MemState) ScriptAt(addr core.Address) (*core.Script, bool, error) {
	a, ok := m.accounts[addr.ContractOnly()]
	if !ok || a.script == nil {
		return nil, false, nil
	}
	return a.script, true, nil
}

func (m *MemState) StorageAt(addr core.Address) (micheline.Node, bool, error) {
	a, ok := m.accounts[addr.ContractOnly()]
	if !ok || a.storage == nil {
		return nil, false, nil
	}
	return a.storage, true, nil
}

func (m *MemState) BalanceOf(addr core.Address) (uint64, error) {
	a, ok := m.accounts[addr.ContractOnly()]
	if !ok {
		return 0, nil
	}
	return a.balance, nil
}

func (m *MemState) BigMapGet(id *big.Int, key common.Hash) (micheline.Node, bool, error) {
	entries, ok := m.bigmaps[interfaces.BigMapID(id)]
	if !ok {
		return nil, false, nil
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (m *MemState) VotingPower(kh core.KeyHash) (*big.Int, error) {
	if p, ok := m.voting[kh]; ok {
		return new(big.Int).Set(p), nil
	}
	return new(big.Int), nil
}

func (m *MemState) TotalVotingPower() (*big.Int, error) {
	return new(big.Int).Set(m.totalVote), nil
}

// mvm.BigMapSink

func (m *MemState) AllocBigMap(keyTy, valTy micheline.Node) *big.Int {
	id := big.NewInt(m.nextBigMap)
	m.nextBigMap++
	m.bigmaps[interfaces.BigMapID(id)] = make(map[common.Hash]micheline.Node)
	return id
}

func (m *MemState) BigMapSet(id *big.Int, key common.Hash, value micheline.Node) {
	entries, ok := m.bigmaps[interfaces.BigMapID(id)]
	if !ok {
		entries = make(map[common.Hash]micheline.Node)
		m.bigmaps[interfaces.BigMapID(id)] = entries
	}
	entries[key] = value
}

func (m *MemState) BigMapDelete(id *big.Int, key common.Hash) {
	if entries, ok := m.bigmaps[interfaces.BigMapID(id)]; ok {
		delete(entries, key)
	}
}

// Writers.

func (m *MemState) Exists(addr core.Address) bool {
	_, ok := m.accounts[addr.ContractOnly()]
	return ok
}

func (m *MemState) CreateContract(addr core.Address, script *core.Script, storage micheline.Node, balance uint64) error {
	addr = addr.ContractOnly()
	if _, ok := m.accounts[addr]; ok {
		return ErrAddressCollision
	}
	m.accounts[addr] = &memAccount{balance: balance, script: script, storage: storage}
	return nil
}

func (m *MemState) SetStorage(addr core.Address, storage micheline.Node) error {
	a, ok := m.accounts[addr.ContractOnly()]
	if !ok {
		return ErrNoSuchContract
	}
	a.storage = storage
	return nil
}

func (m *MemState) SetDelegate(addr core.Address, delegate *core.KeyHash) error {
	m.account(addr).delegate = delegate
	return nil
}

func (m *MemState) Transfer(from, to core.Address, amount uint64) error {
	src := m.account(from)
	if src.balance < amount {
		return errInsufficientBalance
	}
	dst := m.account(to)
	src.balance -= amount
	dst.balance += amount
	return nil
}

func (m *MemState) DebitFee(addr core.Address, amount uint64) error {
	a := m.account(addr)
	if a.balance < amount {
		return errInsufficientBalance
	}
	a.balance -= amount
	return nil
}

// Snapshots.

func (m *MemState) Snapshot() int {
	m.snaps = append(m.snaps, m.copyState())
	return len(m.snaps) - 1
}

func (m *MemState) RevertToSnapshot(id int) {
	saved := m.snaps[id]
	m.snaps = m.snaps[:id]
	m.accounts = saved.accounts
	m.bigmaps = saved.bigmaps
	m.nextBigMap = saved.nextBigMap
	m.voting = saved.voting
	m.totalVote = saved.totalVote
}

func (m *MemState) copyState() *MemState {
	out := &MemState{
		accounts:   make(map[core.Address]*memAccount, len(m.accounts)),
		bigmaps:    make(map[string]map[common.Hash]micheline.Node, len(m.bigmaps)),
		nextBigMap: m.nextBigMap,
		voting:     make(map[core.KeyHash]*big.Int, len(m.voting)),
		totalVote:  new(big.Int).Set(m.totalVote),
	}
	for k, a := range m.accounts {
		cp := *a
		out.accounts[k] = &cp
	}
	for id, entries := range m.bigmaps {
		cp := make(map[common.Hash]micheline.Node, len(entries))
		for k, v := range entries {
			cp[k] = v
		}
		out.bigmaps[id] = cp
	}
	for k, p := range m.voting {
		out.voting[k] = new(big.Int).Set(p)
	}
	return out
}

var _ interfaces.StateDB = (*MemState)(nil)
