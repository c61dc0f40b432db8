package mvm

import (
	"math/big"

	"github.com/stacknet-protocol/stackvm/params"
)

// Gas is the strictly decreasing per-operation quota. Every metered step
// consults it before running; reaching zero aborts with ErrOutOfGas. A Gas
// value is owned by exactly one evaluation and is never shared between
// concurrent invocations.
type Gas struct {
	remaining uint64
}

func NewGas(limit uint64) *Gas {
	return &Gas{remaining: limit}
}

// Consume deducts cost, or exhausts the quota and returns ErrOutOfGas if
// cost exceeds what remains.
func (g *Gas) Consume(cost uint64) error {
	if cost > g.remaining {
		g.remaining = 0
		return ErrOutOfGas
	}
	g.remaining -= cost
	return nil
}

func (g *Gas) Remaining() uint64 { return g.remaining }

// bigNumCost prices an arbitrary-precision arithmetic step by the word
// length of its operands.
func bigNumCost(xs ...*big.Int) uint64 {
	words := 1
	for _, x := range xs {
		if n := len(x.Bits()); n > words {
			words = n
		}
	}
	return uint64(words) * params.BigNumWordGas
}

func hashCost(n int) uint64 {
	return uint64(n) * params.HashByteGas
}
