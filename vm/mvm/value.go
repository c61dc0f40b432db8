package mvm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/stacknet-protocol/stackvm/core"
)

// Value is a runtime value on the stack. Values are immutable; composite
// values share substructure freely, so branches of a conditional can reuse
// untouched parts of the stack without copying.
type Value interface {
	value()
}

type (
	// UnitV is the sole inhabitant of unit.
	UnitV struct{}

	// BoolV inhabits bool.
	BoolV bool

	// IntV carries int and nat values; the static type of the slot decides
	// which. The magnitude is bounded only by gas.
	IntV struct {
		Int *big.Int
	}

	// StringV inhabits string.
	StringV string

	// BytesV inhabits bytes.
	BytesV []byte

	// MutezV is the checked 63-bit token amount.
	MutezV uint64

	// TimestampV is seconds since epoch, arbitrary precision.
	TimestampV struct {
		Unix *big.Int
	}

	AddressV struct{ A core.Address }
	KeyV     struct{ K core.PublicKey }
	KeyHashV struct{ H core.KeyHash }
	SigV     struct{ S core.Signature }
	ChainIDV struct{ C core.ChainID }

	// PairV is a binary pair; right combs are nested PairVs.
	PairV struct {
		L, R Value
	}

	// OrV injects into a disjunction.
	OrV struct {
		IsRight bool
		V       Value
	}

	// OptionV inhabits option; V is nil iff Some is false.
	OptionV struct {
		Some bool
		V    Value
	}

	// ListV is a persistent cons list.
	ListV struct {
		root *consCell
		size int
	}

	// SetV holds its elements key-sorted and duplicate-free. The slice is
	// never mutated after construction.
	SetV struct {
		elems []Value
	}

	// MapV holds its entries key-sorted and duplicate-free. The slice is
	// never mutated after construction.
	MapV struct {
		entries []MapEntry
	}

	// BigMapV is a reference to a lazily resolved map plus a local overlay
	// of uncommitted writes. ID is nil for maps allocated in this
	// operation and not yet committed.
	BigMapV struct {
		ID      *big.Int
		KeyTy   *Ty
		ValTy   *Ty
		overlay []overlayEntry
	}

	// LambdaV is a code quotation with its declared stack effect plus the
	// arguments captured so far by APPLY, outermost first. CapturedTy runs
	// parallel to Captured; it is what lets a closure be serialized back to
	// PUSH/PAIR form.
	LambdaV struct {
		ArgTy, RetTy *Ty
		Code         *Instr
		Rec          bool
		Captured     []Value
		CapturedTy   []*Ty
	}

	// TicketV is the non-duplicable (ticketer, content, amount) triple.
	TicketV struct {
		Ticketer  core.Address
		Content   Value
		ContentTy *Ty
		Amount    *big.Int
	}

	// OperationV wraps an emitted internal operation.
	OperationV struct {
		Op *core.InternalOperation
	}

	// ContractV is a typed handle on an existing contract (or implicit
	// account) entrypoint.
	ContractV struct {
		Addr    core.Address
		ParamTy *Ty
	}

	// G1V and G2V hold BLS12-381 points in their canonical encodings; the
	// crypto collaborator interprets them.
	G1V []byte
	G2V []byte

	// FrV is a BLS12-381 scalar-field element, reduced mod the field
	// order.
	FrV struct {
		X uint256.Int
	}

	SaplingStateV struct {
		ID       *big.Int // nil when empty and unallocated
		MemoSize int
	}

	SaplingTxV struct {
		Data     []byte
		MemoSize int
	}

	ChestV    []byte
	ChestKeyV []byte
)

type MapEntry struct {
	Key, Val Value
}

type overlayEntry struct {
	Key Value
	// Val is nil for a pending removal.
	Val Value
}

func (UnitV) value()         {}
func (BoolV) value()         {}
func (IntV) value()          {}
func (StringV) value()       {}
func (BytesV) value()        {}
func (MutezV) value()        {}
func (TimestampV) value()    {}
func (AddressV) value()      {}
func (KeyV) value()          {}
func (KeyHashV) value()      {}
func (SigV) value()          {}
func (ChainIDV) value()      {}
func (PairV) value()         {}
func (OrV) value()           {}
func (OptionV) value()       {}
func (ListV) value()         {}
func (SetV) value()          {}
func (MapV) value()          {}
func (*BigMapV) value()      {}
func (*LambdaV) value()      {}
func (*TicketV) value()      {}
func (OperationV) value()    {}
func (ContractV) value()     {}
func (G1V) value()           {}
func (G2V) value()           {}
func (FrV) value()           {}
func (SaplingStateV) value() {}
func (SaplingTxV) value()    {}
func (ChestV) value()        {}
func (ChestKeyV) value()     {}

func NewInt(i int64) IntV        { return IntV{Int: big.NewInt(i)} }
func NewBigIntV(x *big.Int) IntV { return IntV{Int: x} }
func None() OptionV              { return OptionV{} }
func Some(v Value) OptionV       { return OptionV{Some: true, V: v} }
func Left(v Value) OrV           { return OrV{V: v} }
func Right(v Value) OrV          { return OrV{IsRight: true, V: v} }

// list

type consCell struct {
	head Value
	tail *consCell
}

func EmptyList() ListV { return ListV{} }

// ListOf builds a list with vals[0] as head.
func ListOf(vals ...Value) ListV {
	l := EmptyList()
	for i := len(vals) - 1; i >= 0; i-- {
		l = l.Cons(vals[i])
	}
	return l
}

func (l ListV) Cons(v Value) ListV {
	return ListV{root: &consCell{head: v, tail: l.root}, size: l.size + 1}
}

func (l ListV) Uncons() (Value, ListV, bool) {
	if l.root == nil {
		return nil, ListV{}, false
	}
	return l.root.head, ListV{root: l.root.tail, size: l.size - 1}, true
}

func (l ListV) Len() int { return l.size }

// Each walks the list front to back; f returning an error stops the walk.
func (l ListV) Each(f func(Value) error) error {
	for c := l.root; c != nil; c = c.tail {
		if err := f(c.head); err != nil {
			return err
		}
	}
	return nil
}

// Reverse returns the list reversed.
func (l ListV) Reverse() ListV {
	out := EmptyList()
	l.Each(func(v Value) error {
		out = out.Cons(v)
		return nil
	})
	return out
}

// set / map

func EmptySet() SetV { return SetV{} }
func EmptyMap() MapV { return MapV{} }

func (s SetV) Len() int { return len(s.elems) }
func (m MapV) Len() int { return len(m.entries) }

// Each visits elements in ascending key order.
func (s SetV) Each(f func(Value) error) error {
	for _, e := range s.elems {
		if err := f(e); err != nil {
			return err
		}
	}
	return nil
}

// Each visits entries in ascending key order.
func (m MapV) Each(f func(MapEntry) error) error {
	for _, e := range m.entries {
		if err := f(e); err != nil {
			return err
		}
	}
	return nil
}

// cmpFunc compares two values of the container's key type, consuming gas.
type cmpFunc func(a, b Value) (int, error)

// setFind walks the sorted element list, comparing x against each element,
// and returns the insertion index and whether x is present.
func setFind(elems []Value, x Value, cmp cmpFunc) (int, bool, error) {
	for i, e := range elems {
		c, err := cmp(x, e)
		if err != nil {
			return 0, false, err
		}
		if c == 0 {
			return i, true, nil
		}
		if c < 0 {
			return i, false, nil
		}
	}
	return len(elems), false, nil
}

// Update returns the set with x inserted (present=true) or removed. The
// receiver is unchanged; sortedness and uniqueness are preserved by the
// merge-style walk.
func (s SetV) Update(x Value, present bool, cmp cmpFunc) (SetV, error) {
	i, found, err := setFind(s.elems, x, cmp)
	if err != nil {
		return SetV{}, err
	}
	switch {
	case present && !found:
		out := make([]Value, 0, len(s.elems)+1)
		out = append(out, s.elems[:i]...)
		out = append(out, x)
		out = append(out, s.elems[i:]...)
		return SetV{elems: out}, nil
	case !present && found:
		out := make([]Value, 0, len(s.elems)-1)
		out = append(out, s.elems[:i]...)
		out = append(out, s.elems[i+1:]...)
		return SetV{elems: out}, nil
	}
	return s, nil
}

func (s SetV) Mem(x Value, cmp cmpFunc) (bool, error) {
	_, found, err := setFind(s.elems, x, cmp)
	return found, err
}

func mapFind(entries []MapEntry, k Value, cmp cmpFunc) (int, bool, error) {
	for i, e := range entries {
		c, err := cmp(k, e.Key)
		if err != nil {
			return 0, false, err
		}
		if c == 0 {
			return i, true, nil
		}
		if c < 0 {
			return i, false, nil
		}
	}
	return len(entries), false, nil
}

func (m MapV) Get(k Value, cmp cmpFunc) (Value, bool, error) {
	i, found, err := mapFind(m.entries, k, cmp)
	if err != nil || !found {
		return nil, false, err
	}
	return m.entries[i].Val, true, nil
}

func (m MapV) Mem(k Value, cmp cmpFunc) (bool, error) {
	_, found, err := mapFind(m.entries, k, cmp)
	return found, err
}

// Update returns the map with k bound to v (or unbound when v is nil). The
// receiver is unchanged.
func (m MapV) Update(k Value, v Value, cmp cmpFunc) (MapV, error) {
	i, found, err := mapFind(m.entries, k, cmp)
	if err != nil {
		return MapV{}, err
	}
	switch {
	case v != nil && found:
		out := make([]MapEntry, len(m.entries))
		copy(out, m.entries)
		out[i] = MapEntry{Key: k, Val: v}
		return MapV{entries: out}, nil
	case v != nil:
		out := make([]MapEntry, 0, len(m.entries)+1)
		out = append(out, m.entries[:i]...)
		out = append(out, MapEntry{Key: k, Val: v})
		out = append(out, m.entries[i:]...)
		return MapV{entries: out}, nil
	case found:
		out := make([]MapEntry, 0, len(m.entries)-1)
		out = append(out, m.entries[:i]...)
		out = append(out, m.entries[i+1:]...)
		return MapV{entries: out}, nil
	}
	return m, nil
}

// big_map overlay

// get consults the overlay only; the caller falls back to the resolver on a
// miss when ID is set.
func (b *BigMapV) get(k Value, cmp cmpFunc) (Value, bool, bool, error) {
	for _, e := range b.overlay {
		c, err := cmp(k, e.Key)
		if err != nil {
			return nil, false, false, err
		}
		if c == 0 {
			return e.Val, e.Val != nil, true, nil
		}
		if c < 0 {
			break
		}
	}
	return nil, false, false, nil
}

// withUpdate returns a copy of b whose overlay binds k to v (nil removes).
func (b *BigMapV) withUpdate(k Value, v Value, cmp cmpFunc) (*BigMapV, error) {
	out := &BigMapV{ID: b.ID, KeyTy: b.KeyTy, ValTy: b.ValTy}
	inserted := false
	for _, e := range b.overlay {
		if !inserted {
			c, err := cmp(k, e.Key)
			if err != nil {
				return nil, err
			}
			if c == 0 {
				out.overlay = append(out.overlay, overlayEntry{Key: k, Val: v})
				inserted = true
				continue
			}
			if c < 0 {
				out.overlay = append(out.overlay, overlayEntry{Key: k, Val: v})
				inserted = true
			}
		}
		out.overlay = append(out.overlay, e)
	}
	if !inserted {
		out.overlay = append(out.overlay, overlayEntry{Key: k, Val: v})
	}
	return out, nil
}

// Overlay exposes the pending writes in key order for diff extraction at
// commit time.
func (b *BigMapV) Overlay() []MapEntry {
	out := make([]MapEntry, 0, len(b.overlay))
	for _, e := range b.overlay {
		out = append(out, MapEntry{Key: e.Key, Val: e.Val})
	}
	return out
}
