package mvm

import (
	"github.com/stacknet-protocol/stackvm/micheline"
)

var tyKindByName = map[string]TyKind{}

func init() {
	for k, n := range tyNames {
		tyKindByName[n] = k
	}
}

// parseTy parses a type expression. The returned field annotation is the
// component's %name, owned by the enclosing pair/or constructor.
func parseTy(n micheline.Node) (*Ty, string, error) {
	p, ok := n.(*micheline.Prim)
	if !ok {
		return nil, "", typeErrorf("", "type expression expected, got %s", n.String())
	}
	kind, ok := tyKindByName[p.Name]
	if !ok {
		return nil, "", typeErrorf(p.Name, "unknown type primitive")
	}
	as, err := splitAnnots(p.Name, p.Annots)
	if err != nil {
		return nil, "", err
	}
	if len(as.fields) > 1 {
		return nil, "", typeErrorf(p.Name, "at most one field annotation on a type")
	}
	var field string
	if len(as.fields) == 1 {
		field = as.fields[0]
	}
	t := &Ty{Kind: kind, Name: as.typeName}

	arity := func(n int) error {
		if len(p.Args) != n {
			return typeErrorf(p.Name, "expects %d argument(s), %d given", n, len(p.Args))
		}
		return nil
	}

	switch kind {
	case TyOption, TyList, TySet, TyContract, TyTicket:
		if err := arity(1); err != nil {
			return nil, "", err
		}
		arg, f, err := parseTy(p.Args[0])
		if err != nil {
			return nil, "", err
		}
		t.Args = []*Ty{arg}
		if f != "" {
			t.Fields = []string{f}
		}
		switch kind {
		case TySet:
			if !arg.Comparable() {
				return nil, "", typeErrorf(p.Name, "element type %s is not comparable", arg)
			}
		case TyTicket:
			if !arg.Comparable() {
				return nil, "", typeErrorf(p.Name, "content type %s is not comparable", arg)
			}
		}

	case TyMap, TyBigMap, TyOr, TyLambda:
		if err := arity(2); err != nil {
			return nil, "", err
		}
		l, fl, err := parseTy(p.Args[0])
		if err != nil {
			return nil, "", err
		}
		r, fr, err := parseTy(p.Args[1])
		if err != nil {
			return nil, "", err
		}
		t.Args = []*Ty{l, r}
		if fl != "" || fr != "" {
			t.Fields = []string{fl, fr}
		}
		switch kind {
		case TyMap, TyBigMap:
			if !l.Comparable() {
				return nil, "", typeErrorf(p.Name, "key type %s is not comparable", l)
			}
			if kind == TyBigMap && !bigMapValueLegal(r) {
				return nil, "", typeErrorf(p.Name, "illegal big_map value type %s", r)
			}
		}

	case TyPair:
		// pair is n-ary in concrete syntax and a right comb internally.
		if len(p.Args) < 2 {
			return nil, "", typeErrorf(p.Name, "expects at least 2 arguments, %d given", len(p.Args))
		}
		args := make([]*Ty, len(p.Args))
		fields := make([]string, len(p.Args))
		named := false
		for i, a := range p.Args {
			at, f, err := parseTy(a)
			if err != nil {
				return nil, "", err
			}
			args[i], fields[i] = at, f
			named = named || f != ""
		}
		// Fold into binary right-comb pairs; field annots stay with the
		// component position they belong to.
		comb := args[len(args)-1]
		combField := fields[len(fields)-1]
		for i := len(args) - 2; i >= 1; i-- {
			inner := &Ty{Kind: TyPair, Args: []*Ty{args[i], comb}}
			if named || combField != "" {
				inner.Fields = []string{fields[i], combField}
			}
			comb = inner
			combField = ""
		}
		t.Args = []*Ty{args[0], comb}
		if named {
			t.Fields = []string{fields[0], ""}
		}

	case TySaplingState, TySaplingTransaction:
		if err := arity(1); err != nil {
			return nil, "", err
		}
		ms, ok := p.Args[0].(*micheline.Int)
		if !ok || !ms.Value.IsInt64() || ms.Value.Sign() < 0 {
			return nil, "", typeErrorf(p.Name, "memo size must be a non-negative integer")
		}
		t.MemoSize = int(ms.Value.Int64())

	default:
		if err := arity(0); err != nil {
			return nil, "", err
		}
	}
	return t, field, nil
}

// ParseTy parses a standalone type expression, rejecting a dangling field
// annotation (fields only make sense inside pair/or).
func ParseTy(n micheline.Node) (*Ty, error) {
	t, _, err := parseTy(n)
	return t, err
}

// tyToNode renders a descriptor back to its concrete tree form.
func tyToNode(t *Ty) micheline.Node {
	p := &micheline.Prim{Name: tyNames[t.Kind]}
	if t.Name != "" {
		p.Annots = append(p.Annots, ":"+t.Name)
	}
	switch {
	case t.MemoSize > 0 || t.Kind == TySaplingState || t.Kind == TySaplingTransaction:
		p.Args = []micheline.Node{micheline.NewInt(int64(t.MemoSize))}
	default:
		for i, a := range t.Args {
			an := tyToNode(a)
			if f := t.field(i); f != "" {
				ap := an.(*micheline.Prim)
				ap.Annots = append([]string{"%" + f}, ap.Annots...)
			}
			p.Args = append(p.Args, an)
		}
	}
	return p
}
