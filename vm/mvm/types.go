package mvm

import (
	"strconv"
	"strings"
)

// TyKind enumerates the closed set of value-type constructors.
type TyKind uint8

const (
	TyUnit TyKind = iota
	TyNever
	TyBool
	TyInt
	TyNat
	TyString
	TyBytes
	TyMutez
	TyTimestamp
	TyAddress
	TyKey
	TyKeyHash
	TySignature
	TyChainID
	TyBls12381G1
	TyBls12381G2
	TyBls12381Fr
	TySaplingState
	TySaplingTransaction
	TyTicket
	TyChest
	TyChestKey
	TyOption
	TyList
	TySet
	TyMap
	TyBigMap
	TyPair
	TyOr
	TyLambda
	TyContract
	TyOperation
)

var tyNames = map[TyKind]string{
	TyUnit: "unit", TyNever: "never", TyBool: "bool", TyInt: "int",
	TyNat: "nat", TyString: "string", TyBytes: "bytes", TyMutez: "mutez",
	TyTimestamp: "timestamp", TyAddress: "address", TyKey: "key",
	TyKeyHash: "key_hash", TySignature: "signature", TyChainID: "chain_id",
	TyBls12381G1: "bls12_381_g1", TyBls12381G2: "bls12_381_g2",
	TyBls12381Fr: "bls12_381_fr", TySaplingState: "sapling_state",
	TySaplingTransaction: "sapling_transaction", TyTicket: "ticket",
	TyChest: "chest", TyChestKey: "chest_key", TyOption: "option",
	TyList: "list", TySet: "set", TyMap: "map", TyBigMap: "big_map",
	TyPair: "pair", TyOr: "or", TyLambda: "lambda", TyContract: "contract",
	TyOperation: "operation",
}

// Ty is a monomorphic value-type descriptor. Descriptors are immutable and
// may share substructure. Name is the optional type-name annotation; Fields
// holds the optional per-component field/constructor annotations of pair
// and or (empty string for an unannotated component).
type Ty struct {
	Kind   TyKind
	Args   []*Ty
	Name   string
	Fields []string
	// MemoSize parameterises sapling_state and sapling_transaction.
	MemoSize int
}

func newTy(k TyKind, args ...*Ty) *Ty { return &Ty{Kind: k, Args: args} }

func UnitT() *Ty      { return newTy(TyUnit) }
func NeverT() *Ty     { return newTy(TyNever) }
func BoolT() *Ty      { return newTy(TyBool) }
func IntT() *Ty       { return newTy(TyInt) }
func NatT() *Ty       { return newTy(TyNat) }
func StringT() *Ty    { return newTy(TyString) }
func BytesT() *Ty     { return newTy(TyBytes) }
func MutezT() *Ty     { return newTy(TyMutez) }
func TimestampT() *Ty { return newTy(TyTimestamp) }
func AddressT() *Ty   { return newTy(TyAddress) }
func KeyT() *Ty       { return newTy(TyKey) }
func KeyHashT() *Ty   { return newTy(TyKeyHash) }
func SignatureT() *Ty { return newTy(TySignature) }
func ChainIDT() *Ty   { return newTy(TyChainID) }
func OperationT() *Ty { return newTy(TyOperation) }

func OptionT(t *Ty) *Ty    { return newTy(TyOption, t) }
func ListT(t *Ty) *Ty      { return newTy(TyList, t) }
func SetT(t *Ty) *Ty       { return newTy(TySet, t) }
func MapT(k, v *Ty) *Ty    { return newTy(TyMap, k, v) }
func BigMapT(k, v *Ty) *Ty { return newTy(TyBigMap, k, v) }
func PairT(l, r *Ty) *Ty   { return newTy(TyPair, l, r) }
func OrT(l, r *Ty) *Ty     { return newTy(TyOr, l, r) }
func LambdaT(a, r *Ty) *Ty { return newTy(TyLambda, a, r) }
func ContractT(t *Ty) *Ty  { return newTy(TyContract, t) }
func TicketT(t *Ty) *Ty    { return newTy(TyTicket, t) }

// CombT builds the right-comb pair of three or more components.
func CombT(tys ...*Ty) *Ty {
	if len(tys) < 2 {
		panic("mvm: comb pair needs at least two components")
	}
	t := tys[len(tys)-1]
	for i := len(tys) - 2; i >= 0; i-- {
		t = PairT(tys[i], t)
	}
	return t
}

func (t *Ty) field(i int) string {
	if i < len(t.Fields) {
		return t.Fields[i]
	}
	return ""
}

// Equal implements descriptor equality: unnamed shapes must match, type
// names must match unless at least one is absent, and field annotations on
// pair/or components must match unless one side's is absent.
func (t *Ty) Equal(o *Ty) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.Kind != o.Kind || len(t.Args) != len(o.Args) {
		return false
	}
	if t.Name != "" && o.Name != "" && t.Name != o.Name {
		return false
	}
	if t.MemoSize != o.MemoSize {
		return false
	}
	for i := range t.Args {
		fa, fb := t.field(i), o.field(i)
		if fa != "" && fb != "" && fa != fb {
			return false
		}
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Comparable reports whether values of t admit the total order of the
// comparison engine, as required for set elements, map keys and COMPARE.
func (t *Ty) Comparable() bool {
	switch t.Kind {
	case TyUnit, TyNever, TyBool, TyInt, TyNat, TyString, TyBytes, TyMutez,
		TyTimestamp, TyAddress, TyKey, TyKeyHash, TySignature, TyChainID:
		return true
	case TyOption:
		return t.Args[0].Comparable()
	case TyOr, TyPair:
		return t.Args[0].Comparable() && t.Args[1].Comparable()
	}
	return false
}

func (t *Ty) contains(pred func(*Ty) bool) bool {
	if pred(t) {
		return true
	}
	for _, a := range t.Args {
		if a.contains(pred) {
			return true
		}
	}
	return false
}

// HasTicket reports whether a ticket occurs anywhere in t. Such types are
// excluded from DUP-style duplication at the type level.
func (t *Ty) HasTicket() bool {
	return t.contains(func(t *Ty) bool { return t.Kind == TyTicket })
}

func (t *Ty) HasOperation() bool {
	return t.contains(func(t *Ty) bool { return t.Kind == TyOperation })
}

func (t *Ty) HasBigMap() bool {
	return t.contains(func(t *Ty) bool { return t.Kind == TyBigMap })
}

func (t *Ty) HasContract() bool {
	return t.contains(func(t *Ty) bool { return t.Kind == TyContract })
}

func (t *Ty) HasSaplingState() bool {
	return t.contains(func(t *Ty) bool { return t.Kind == TySaplingState })
}

// Duplicable reports whether DUP may copy values of t.
func (t *Ty) Duplicable() bool { return !t.HasTicket() }

// Pushable reports whether PUSH may carry a literal of t.
func (t *Ty) Pushable() bool {
	return !t.contains(func(t *Ty) bool {
		switch t.Kind {
		case TyOperation, TyContract, TyBigMap, TyTicket, TySaplingState:
			return true
		}
		return false
	})
}

// Storable reports whether values of t may appear in contract storage.
func (t *Ty) Storable() bool {
	return !t.contains(func(t *Ty) bool {
		return t.Kind == TyOperation || t.Kind == TyContract
	})
}

// Packable reports whether PACK accepts values of t and APPLY may capture
// them into a closure.
func (t *Ty) Packable() bool {
	return !t.contains(func(t *Ty) bool {
		switch t.Kind {
		case TyOperation, TyContract, TyBigMap, TyTicket, TySaplingState:
			return true
		}
		return false
	})
}

// AllowedInView reports whether t may be a view argument or return type.
func (t *Ty) AllowedInView() bool {
	return !t.contains(func(t *Ty) bool {
		switch t.Kind {
		case TyOperation, TyBigMap, TyTicket, TySaplingState:
			return true
		}
		return false
	})
}

// bigMapValueLegal rejects big_map (and sapling state) anywhere inside a
// big_map's value type, keeping the no-nested-big_map invariant structural.
func bigMapValueLegal(t *Ty) bool {
	return !t.contains(func(t *Ty) bool {
		return t.Kind == TyBigMap || t.Kind == TySaplingState || t.Kind == TyOperation
	})
}

func (t *Ty) String() string {
	var b strings.Builder
	t.write(&b, false)
	return b.String()
}

func (t *Ty) write(b *strings.Builder, nested bool) {
	simple := len(t.Args) == 0 && t.Name == "" && t.MemoSize == 0
	if nested && !simple {
		b.WriteByte('(')
	}
	b.WriteString(tyNames[t.Kind])
	if t.Name != "" {
		b.WriteString(" :")
		b.WriteString(t.Name)
	}
	for i, a := range t.Args {
		b.WriteByte(' ')
		if f := t.field(i); f != "" {
			// Field annotations print attached to the component.
			b.WriteByte('(')
			a.write(b, false)
			b.WriteString(" %")
			b.WriteString(f)
			b.WriteByte(')')
			continue
		}
		a.write(b, true)
	}
	if t.MemoSize > 0 {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(t.MemoSize))
	}
	if nested && !simple {
		b.WriteByte(')')
	}
}
