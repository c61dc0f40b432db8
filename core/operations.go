package core

import (
	"errors"

	"github.com/stacknet-protocol/stackvm/micheline"
)

var errScriptShape = errors.New("core: malformed script toplevel")

// OpKind tags the variants of an internal operation.
type OpKind byte

const (
	OpTransfer OpKind = iota
	OpOrigination
	OpDelegation
	OpEvent
)

func (k OpKind) String() string {
	switch k {
	case OpTransfer:
		return "transfer"
	case OpOrigination:
		return "origination"
	case OpDelegation:
		return "delegation"
	case OpEvent:
		return "event"
	}
	return "unknown"
}

// InternalOperation is an operation emitted by contract code. It is inert
// data until the process layer applies it; emitting never mutates state by
// itself.
type InternalOperation struct {
	Kind   OpKind
	Source Address
	// Nonce is the per-external-operation emission counter; it makes
	// originated addresses unique within one external operation.
	Nonce uint64

	// Transfer
	Destination Address
	Amount      uint64
	Entrypoint  string
	Parameter   micheline.Node

	// Origination. Originated holds the address derived at emission time.
	Script      *Script
	Balance     uint64
	StorageInit micheline.Node
	Originated  Address

	// Delegation; nil withdraws the delegation. Also used by Origination.
	Delegate *KeyHash

	// Event
	Tag       string
	EventType micheline.Node
	Payload   micheline.Node
}

// ExternalOperation is the protocol-boundary envelope the process layer
// consumes: who calls what, with which argument, under which limits.
type ExternalOperation struct {
	Source      Address
	Destination Address
	Entrypoint  string
	Parameter   micheline.Node
	Amount      uint64
	Fee         uint64
	GasLimit    uint64
}
