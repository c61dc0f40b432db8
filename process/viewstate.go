package process

import (
	"math/big"

	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/interfaces"
	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/vm/mvm"
)

// viewState is the StateReader handed to the interpreter for one external
// operation. Storage reads are pinned to the values present when the
// operation started, so a view running inside a later internal operation
// cannot observe mid-operation writes. All other reads pass through.
type viewState struct {
	db      interfaces.StateDB
	storage map[core.Address]pinnedStorage
}

type pinnedStorage struct {
	node micheline.Node
	ok   bool
}

var _ mvm.StateReader = (*viewState)(nil)

func newViewState(db interfaces.StateDB) *viewState {
	return &viewState{db: db, storage: make(map[core.Address]pinnedStorage)}
}

// note records the current storage of addr on first touch. It must run
// before every storage write, contract creation included; a contract
// originated mid-operation is pinned as absent.
func (v *viewState) note(addr core.Address) error {
	if _, seen := v.storage[addr]; seen {
		return nil
	}
	node, ok, err := v.db.StorageAt(addr)
	if err != nil {
		return err
	}
	v.storage[addr] = pinnedStorage{node: node, ok: ok}
	return nil
}

func (v *viewState) StorageAt(addr core.Address) (micheline.Node, bool, error) {
	if p, seen := v.storage[addr]; seen {
		return p.node, p.ok, nil
	}
	return v.db.StorageAt(addr)
}

func (v *viewState) ScriptAt(addr core.Address) (*core.Script, bool, error) {
	return v.db.ScriptAt(addr)
}

func (v *viewState) BalanceOf(addr core.Address) (uint64, error) {
	return v.db.BalanceOf(addr)
}

func (v *viewState) BigMapGet(id *big.Int, key common.Hash) (micheline.Node, bool, error) {
	return v.db.BigMapGet(id, key)
}

func (v *viewState) VotingPower(kh core.KeyHash) (*big.Int, error) {
	return v.db.VotingPower(kh)
}

func (v *viewState) TotalVotingPower() (*big.Int, error) {
	return v.db.TotalVotingPower()
}
