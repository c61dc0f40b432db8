package micheline

// Primitive names of the closed vocabulary, split by role. Macro names are
// not listed here: macros are recognised by grammar and desugared to this
// vocabulary before typechecking.

// Data constructors.
const (
	DUnit      = "Unit"
	DTrue      = "True"
	DFalse     = "False"
	DPair      = "Pair"
	DLeft      = "Left"
	DRight     = "Right"
	DSome      = "Some"
	DNone      = "None"
	DElt       = "Elt"
	DLambdaRec = "Lambda_rec"
)

// Type constructors.
var typePrims = []string{
	"unit", "never", "bool", "int", "nat", "string", "bytes", "mutez",
	"timestamp", "address", "key", "key_hash", "signature", "chain_id",
	"bls12_381_g1", "bls12_381_g2", "bls12_381_fr",
	"sapling_state", "sapling_transaction", "ticket", "chest", "chest_key",
	"option", "list", "set", "map", "big_map", "pair", "or", "lambda",
	"contract", "operation",
}

// Instructions.
var instrPrims = []string{
	"FAILWITH", "IF", "IF_LEFT", "IF_CONS", "IF_NONE", "LOOP", "LOOP_LEFT",
	"DIP", "EXEC", "APPLY", "DROP", "DUP", "SWAP", "DIG", "DUG", "PUSH",
	"LAMBDA", "LAMBDA_REC", "COMPARE", "EQ", "NEQ", "LT", "GT", "LE", "GE",
	"UNIT", "NEVER", "CAR", "CDR", "PAIR", "UNPAIR", "LEFT", "RIGHT",
	"SOME", "NONE", "NIL", "CONS", "SIZE", "EMPTY_SET", "EMPTY_MAP",
	"EMPTY_BIG_MAP", "MAP", "ITER", "MEM", "GET", "UPDATE",
	"GET_AND_UPDATE", "CONCAT", "SLICE", "ADD", "SUB", "SUB_MUTEZ", "MUL",
	"EDIV", "NEG", "ABS", "ISNAT", "INT", "NAT", "BYTES", "NOT", "AND",
	"OR", "XOR", "LSL", "LSR", "PACK", "UNPACK", "HASH_KEY",
	"CHECK_SIGNATURE", "BLAKE2B", "KECCAK", "SHA256", "SHA512", "SHA3",
	"ADDRESS", "CONTRACT", "IMPLICIT_ACCOUNT", "TRANSFER_TOKENS",
	"SET_DELEGATE", "CREATE_CONTRACT", "EMIT", "BALANCE", "AMOUNT", "NOW",
	"LEVEL", "SOURCE", "SENDER", "SELF", "SELF_ADDRESS", "CHAIN_ID",
	"VOTING_POWER", "TOTAL_VOTING_POWER", "MIN_BLOCK_TIME", "VIEW",
	"TICKET", "READ_TICKET", "SPLIT_TICKET", "JOIN_TICKETS",
	"PAIRING_CHECK", "SAPLING_EMPTY_STATE", "SAPLING_VERIFY_UPDATE",
	"OPEN_CHEST",
}

// Script toplevel keywords.
var fieldPrims = []string{"parameter", "storage", "code", "view"}

var knownPrims map[string]struct{}

func init() {
	knownPrims = make(map[string]struct{})
	for _, set := range [][]string{typePrims, instrPrims, fieldPrims} {
		for _, p := range set {
			knownPrims[p] = struct{}{}
		}
	}
	for _, p := range []string{DUnit, DTrue, DFalse, DPair, DLeft, DRight, DSome, DNone, DElt, DLambdaRec} {
		knownPrims[p] = struct{}{}
	}
}

// KnownPrim reports whether name belongs to the closed core vocabulary
// (types, instructions, data constructors or script fields). Macros are not
// known prims.
func KnownPrim(name string) bool {
	_, ok := knownPrims[name]
	return ok
}
