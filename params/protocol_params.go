package params

const (
	// MaxShiftAmount is the largest accepted LSL/LSR shift; larger shifts
	// abort the operation.
	MaxShiftAmount = 256

	// MaxPairCombN bounds the n accepted by PAIR n / UNPAIR n / GET n /
	// UPDATE n / DUP n / DIG n / DUG n / DROP n.
	MaxPairCombN = 1024

	// CallDepthLimit bounds nested internal operations and view re-entry
	// within one external operation.
	CallDepthLimit = 1024

	// ScriptCacheSize is the number of typechecked scripts kept by the
	// process-layer cache.
	ScriptCacheSize = 1024

	// MutezMax is the largest representable mutez amount.
	MutezMax uint64 = 1<<63 - 1
)
