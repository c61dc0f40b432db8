package mvm

// OpCode is the tag of a typed instruction node. One tag exists per
// instruction form of the closed vocabulary, plus OpSeq for sequencing.
type OpCode uint16

const (
	OpSeq OpCode = iota

	// Control
	OpFailwith
	OpIf
	OpIfLeft
	OpIfCons
	OpIfNone
	OpLoop
	OpLoopLeft
	OpDip
	OpExec
	OpApply
	OpNever

	// Stack
	OpDrop
	OpDup
	OpSwap
	OpDig
	OpDug
	OpPush
	OpLambda
	OpLambdaRec

	// Comparison
	OpCompare
	OpEq
	OpNeq
	OpLt
	OpGt
	OpLe
	OpGe

	// Pairs, options, unions, lists
	OpUnit
	OpCar
	OpCdr
	OpPair
	OpUnpair
	OpGetN
	OpUpdateN
	OpLeft
	OpRight
	OpSome
	OpNone
	OpNil
	OpCons
	OpSize

	// Containers
	OpEmptySet
	OpEmptyMap
	OpEmptyBigMap
	OpMap
	OpIter
	OpMem
	OpGet
	OpUpdate
	OpGetAndUpdate

	// Strings and bytes
	OpConcat
	OpSlice

	// Arithmetic
	OpAdd
	OpSub
	OpSubMutez
	OpMul
	OpEdiv
	OpNeg
	OpAbs
	OpIsNat
	OpInt
	OpNat
	OpBytes
	OpNot
	OpAnd
	OpOr
	OpXor
	OpLsl
	OpLsr

	// Serialization and crypto
	OpPack
	OpUnpack
	OpHashKey
	OpCheckSignature
	OpBlake2b
	OpKeccak
	OpSha256
	OpSha512
	OpSha3
	OpPairingCheck

	// Domain
	OpAddress
	OpContract
	OpImplicitAccount
	OpTransferTokens
	OpSetDelegate
	OpCreateContract
	OpEmit
	OpBalance
	OpAmount
	OpNow
	OpLevel
	OpSource
	OpSender
	OpSelf
	OpSelfAddress
	OpChainID
	OpVotingPower
	OpTotalVotingPower
	OpMinBlockTime
	OpView

	// Tickets
	OpTicket
	OpReadTicket
	OpSplitTicket
	OpJoinTickets

	// Sapling and timelock
	OpSaplingEmptyState
	OpSaplingVerifyUpdate
	OpOpenChest
)

var opNames = map[OpCode]string{
	OpSeq: "{}", OpFailwith: "FAILWITH", OpIf: "IF", OpIfLeft: "IF_LEFT",
	OpIfCons: "IF_CONS", OpIfNone: "IF_NONE", OpLoop: "LOOP",
	OpLoopLeft: "LOOP_LEFT", OpDip: "DIP", OpExec: "EXEC", OpApply: "APPLY",
	OpNever: "NEVER", OpDrop: "DROP", OpDup: "DUP", OpSwap: "SWAP",
	OpDig: "DIG", OpDug: "DUG", OpPush: "PUSH", OpLambda: "LAMBDA",
	OpLambdaRec: "LAMBDA_REC", OpCompare: "COMPARE", OpEq: "EQ",
	OpNeq: "NEQ", OpLt: "LT", OpGt: "GT", OpLe: "LE", OpGe: "GE",
	OpUnit: "UNIT", OpCar: "CAR", OpCdr: "CDR", OpPair: "PAIR",
	OpUnpair: "UNPAIR", OpGetN: "GET", OpUpdateN: "UPDATE", OpLeft: "LEFT",
	OpRight: "RIGHT", OpSome: "SOME", OpNone: "NONE", OpNil: "NIL",
	OpCons: "CONS", OpSize: "SIZE", OpEmptySet: "EMPTY_SET",
	OpEmptyMap: "EMPTY_MAP", OpEmptyBigMap: "EMPTY_BIG_MAP", OpMap: "MAP",
	OpIter: "ITER", OpMem: "MEM", OpGet: "GET", OpUpdate: "UPDATE",
	OpGetAndUpdate: "GET_AND_UPDATE", OpConcat: "CONCAT", OpSlice: "SLICE",
	OpAdd: "ADD", OpSub: "SUB", OpSubMutez: "SUB_MUTEZ", OpMul: "MUL",
	OpEdiv: "EDIV", OpNeg: "NEG", OpAbs: "ABS", OpIsNat: "ISNAT",
	OpInt: "INT", OpNat: "NAT", OpBytes: "BYTES", OpNot: "NOT",
	OpAnd: "AND", OpOr: "OR", OpXor: "XOR", OpLsl: "LSL", OpLsr: "LSR",
	OpPack: "PACK", OpUnpack: "UNPACK", OpHashKey: "HASH_KEY",
	OpCheckSignature: "CHECK_SIGNATURE", OpBlake2b: "BLAKE2B",
	OpKeccak: "KECCAK", OpSha256: "SHA256", OpSha512: "SHA512",
	OpSha3: "SHA3", OpPairingCheck: "PAIRING_CHECK", OpAddress: "ADDRESS",
	OpContract: "CONTRACT", OpImplicitAccount: "IMPLICIT_ACCOUNT",
	OpTransferTokens: "TRANSFER_TOKENS", OpSetDelegate: "SET_DELEGATE",
	OpCreateContract: "CREATE_CONTRACT", OpEmit: "EMIT",
	OpBalance: "BALANCE", OpAmount: "AMOUNT", OpNow: "NOW",
	OpLevel: "LEVEL", OpSource: "SOURCE", OpSender: "SENDER",
	OpSelf: "SELF", OpSelfAddress: "SELF_ADDRESS", OpChainID: "CHAIN_ID",
	OpVotingPower: "VOTING_POWER", OpTotalVotingPower: "TOTAL_VOTING_POWER",
	OpMinBlockTime: "MIN_BLOCK_TIME", OpView: "VIEW", OpTicket: "TICKET",
	OpReadTicket: "READ_TICKET", OpSplitTicket: "SPLIT_TICKET",
	OpJoinTickets: "JOIN_TICKETS", OpSaplingEmptyState: "SAPLING_EMPTY_STATE",
	OpSaplingVerifyUpdate: "SAPLING_VERIFY_UPDATE", OpOpenChest: "OPEN_CHEST",
}

func (op OpCode) String() string {
	if s, ok := opNames[op]; ok {
		return s
	}
	return "INVALID"
}
