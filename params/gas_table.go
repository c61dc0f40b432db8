package params

// Gas costs consulted by the engine. The concrete numbers are placeholders
// behind the metering protocol: every metered step consumes a constant from
// this table before its semantics run, and changing a constant never changes
// acceptance or results, only where gas exhaustion strikes.
const (
	// InstrStepGas is the base dispatch cost charged for every instruction
	// before its own semantics are evaluated.
	InstrStepGas uint64 = 10

	// CompareStepGas is charged per structural comparison step.
	CompareStepGas uint64 = 5

	// ContainerStepGas is charged per element visited during a container
	// merge walk, traversal or rebuild.
	ContainerStepGas uint64 = 8

	// TypecheckStepGas is charged per typing rule application during
	// origination-time typechecking.
	TypecheckStepGas uint64 = 4

	// BigNumWordGas is charged per 64-bit word of the operands of an
	// arbitrary-precision arithmetic step.
	BigNumWordGas uint64 = 2

	// HashByteGas is charged per input byte of a hashing instruction.
	HashByteGas uint64 = 1

	// SigCheckGas is the flat cost of a signature verification.
	SigCheckGas uint64 = 3000

	// BlsOpGas is the flat cost of a BLS12-381 group operation.
	BlsOpGas uint64 = 1500

	// BlsPairingBaseGas and BlsPairingPairGas price PAIRING_CHECK.
	BlsPairingBaseGas uint64 = 45000
	BlsPairingPairGas uint64 = 34000

	// PackByteGas is charged per byte produced by PACK and consumed by
	// UNPACK.
	PackByteGas uint64 = 2

	// BigMapResolveGas is the flat cost of one on-demand big-map resolution
	// through the storage collaborator.
	BigMapResolveGas uint64 = 200

	// ViewCallGas is the flat cost of entering a view evaluation, on top of
	// the gas the view body itself consumes.
	ViewCallGas uint64 = 500

	// OriginationGas is the flat cost of materialising a CREATE_CONTRACT
	// operation (the originated script is typechecked when applied).
	OriginationGas uint64 = 1000
)
