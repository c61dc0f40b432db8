package interfaces

import (
	"math/big"

	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/vm/mvm"
)

// StateDB is the full mutable chain-state surface the process layer drives.
// The read side is exactly what the interpreter consumes; everything the
// interpreter itself may do with state is covered by mvm.StateReader, and
// the write methods below are reachable only through applied operations.
type StateDB interface {
	mvm.StateReader
	mvm.BigMapSink

	// Exists reports whether an account is present, funded or not.
	Exists(addr core.Address) bool

	// CreateContract originates a contract with its script, initial
	// storage and starting balance. The address must be fresh.
	CreateContract(addr core.Address, script *core.Script, storage micheline.Node, balance uint64) error

	// SetStorage replaces the storage literal of an existing contract.
	SetStorage(addr core.Address, storage micheline.Node) error

	// SetDelegate points an account at a delegate; nil withdraws it.
	SetDelegate(addr core.Address, delegate *core.KeyHash) error

	// Transfer moves balance between accounts, creating an implicit
	// destination on first touch.
	Transfer(from, to core.Address, amount uint64) error

	// DebitFee burns the operation fee from an account. Fees survive a
	// revert: they are taken before the snapshot.
	DebitFee(addr core.Address, amount uint64) error

	// Snapshot marks the current state; RevertToSnapshot unwinds every
	// write made since the mark, including big_map writes.
	Snapshot() int
	RevertToSnapshot(id int)
}

// BigMapID formats a big_map identifier as a state key.
func BigMapID(id *big.Int) string { return id.String() }
