package mvm

import (
	"strings"

	"github.com/stacknet-protocol/stackvm/micheline"
)

// Macro expansion. Macros are recognised by grammar on the primitive name
// and desugar deterministically (and reversibly) to the core vocabulary
// before typechecking; the typechecker itself never sees a macro.

var cmpSuffixes = []string{"EQ", "NEQ", "LT", "GT", "LE", "GE"}

func isCmpSuffix(s string) bool {
	for _, x := range cmpSuffixes {
		if s == x {
			return true
		}
	}
	return false
}

// IsMacro reports whether name denotes a macro.
func IsMacro(name string) bool {
	switch {
	case name == "FAIL", name == "ASSERT", name == "IF_SOME", name == "IF_RIGHT",
		name == "ASSERT_NONE", name == "ASSERT_SOME", name == "ASSERT_LEFT",
		name == "ASSERT_RIGHT", name == "SET_CAR", name == "SET_CDR",
		name == "MAP_CAR", name == "MAP_CDR":
		return true
	case strings.HasPrefix(name, "CMP") && isCmpSuffix(name[3:]):
		return true
	case strings.HasPrefix(name, "IFCMP") && isCmpSuffix(name[5:]):
		return true
	case strings.HasPrefix(name, "IF") && isCmpSuffix(name[2:]):
		return true
	case strings.HasPrefix(name, "ASSERT_CMP") && isCmpSuffix(name[10:]):
		return true
	case strings.HasPrefix(name, "ASSERT_") && isCmpSuffix(name[7:]):
		return true
	case isCadrMacro(name), isDupMacro(name), isPairMacro(name), isUnpairMacro(name):
		return true
	}
	return false
}

func isCadrMacro(name string) bool {
	if len(name) < 4 || name[0] != 'C' || name[len(name)-1] != 'R' {
		return false
	}
	for _, c := range name[1 : len(name)-1] {
		if c != 'A' && c != 'D' {
			return false
		}
	}
	return true
}

func isDupMacro(name string) bool {
	if len(name) < 4 || name[0] != 'D' || name[len(name)-1] != 'P' {
		return false
	}
	for _, c := range name[1 : len(name)-1] {
		if c != 'U' {
			return false
		}
	}
	return true
}

// parsePairWord parses the middle letters of a P...R word into the two
// subtrees of the outermost pair. The core PAIR/UNPAIR names are excluded
// by length before this is consulted.
func parsePairWord(middle string) (*pairTree, bool) {
	l, rest, ok := parsePairTree(middle)
	if !ok {
		return nil, false
	}
	r, rest, ok := parsePairTree(rest)
	if !ok || rest != "" {
		return nil, false
	}
	return &pairTree{l: l, r: r}, true
}

func isPairMacro(name string) bool {
	// len > 4 keeps the core PAIR instruction out of the macro grammar.
	if len(name) <= 4 || name[0] != 'P' || name[len(name)-1] != 'R' {
		return false
	}
	_, ok := parsePairWord(name[1 : len(name)-1])
	return ok
}

func isUnpairMacro(name string) bool {
	return strings.HasPrefix(name, "UN") && len(name) > 6 && isPairMacro(name[2:])
}

// ExpandMacros rewrites every macro occurrence in n to its core expansion.
// Non-macro nodes are rebuilt structurally so the result shares nothing
// with the input.
func ExpandMacros(n micheline.Node) (micheline.Node, error) {
	switch x := n.(type) {
	case *micheline.Seq:
		out := &micheline.Seq{Items: make([]micheline.Node, len(x.Items))}
		for i, it := range x.Items {
			e, err := ExpandMacros(it)
			if err != nil {
				return nil, err
			}
			out.Items[i] = e
		}
		return out, nil
	case *micheline.Prim:
		args := make([]micheline.Node, len(x.Args))
		for i, a := range x.Args {
			e, err := ExpandMacros(a)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		p := &micheline.Prim{Name: x.Name, Args: args, Annots: x.Annots}
		if IsMacro(p.Name) {
			return expandOne(p)
		}
		return p, nil
	default:
		return n.Clone(), nil
	}
}

func seq(items ...micheline.Node) *micheline.Seq { return micheline.NewSeq(items...) }
func prim(name string, args ...micheline.Node) *micheline.Prim {
	return micheline.NewPrim(name, args...)
}

var failSeq = seq(prim("UNIT"), prim("FAILWITH"))

func expandOne(p *micheline.Prim) (micheline.Node, error) {
	name := p.Name
	arity := func(n int) error {
		if len(p.Args) != n {
			return typeErrorf(name, "macro expects %d argument(s), %d given", n, len(p.Args))
		}
		return nil
	}

	switch {
	case name == "FAIL":
		if err := arity(0); err != nil {
			return nil, err
		}
		return failSeq.Clone(), nil

	case name == "ASSERT":
		if err := arity(0); err != nil {
			return nil, err
		}
		return seq(prim("IF", seq(), failSeq.Clone())), nil

	case name == "IF_SOME":
		if err := arity(2); err != nil {
			return nil, err
		}
		return prim("IF_NONE", p.Args[1], p.Args[0]), nil

	case name == "IF_RIGHT":
		if err := arity(2); err != nil {
			return nil, err
		}
		return prim("IF_LEFT", p.Args[1], p.Args[0]), nil

	case name == "ASSERT_NONE":
		return seq(prim("IF_NONE", seq(), failSeq.Clone())), nil
	case name == "ASSERT_SOME":
		return seq(prim("IF_NONE", failSeq.Clone(), seq())), nil
	case name == "ASSERT_LEFT":
		return seq(prim("IF_LEFT", seq(), failSeq.Clone())), nil
	case name == "ASSERT_RIGHT":
		return seq(prim("IF_LEFT", failSeq.Clone(), seq())), nil

	case strings.HasPrefix(name, "CMP") && isCmpSuffix(name[3:]):
		if err := arity(0); err != nil {
			return nil, err
		}
		return seq(prim("COMPARE"), prim(name[3:])), nil

	case strings.HasPrefix(name, "IFCMP") && isCmpSuffix(name[5:]):
		if err := arity(2); err != nil {
			return nil, err
		}
		return seq(prim("COMPARE"), prim(name[5:]), prim("IF", p.Args[0], p.Args[1])), nil

	case strings.HasPrefix(name, "IF") && isCmpSuffix(name[2:]):
		if err := arity(2); err != nil {
			return nil, err
		}
		return seq(prim(name[2:]), prim("IF", p.Args[0], p.Args[1])), nil

	case strings.HasPrefix(name, "ASSERT_CMP") && isCmpSuffix(name[10:]):
		if err := arity(0); err != nil {
			return nil, err
		}
		return seq(prim("COMPARE"), prim(name[10:]),
			prim("IF", seq(), failSeq.Clone())), nil

	case strings.HasPrefix(name, "ASSERT_") && isCmpSuffix(name[7:]):
		if err := arity(0); err != nil {
			return nil, err
		}
		return seq(prim(name[7:]), prim("IF", seq(), failSeq.Clone())), nil

	case name == "SET_CAR":
		return seq(prim("CDR"), prim("SWAP"), prim("PAIR")), nil
	case name == "SET_CDR":
		return seq(prim("CAR"), prim("PAIR")), nil

	case name == "MAP_CAR":
		if err := arity(1); err != nil {
			return nil, err
		}
		return seq(prim("DUP"), prim("CDR"),
			prim("DIP", seq(prim("CAR"), p.Args[0])),
			prim("SWAP"), prim("PAIR")), nil

	case name == "MAP_CDR":
		if err := arity(1); err != nil {
			return nil, err
		}
		return seq(prim("DUP"), prim("CDR"), asSeq(p.Args[0]),
			prim("SWAP"), prim("CAR"), prim("PAIR")), nil

	case isCadrMacro(name):
		items := make([]micheline.Node, 0, len(name)-2)
		for _, c := range name[1 : len(name)-1] {
			if c == 'A' {
				items = append(items, prim("CAR"))
			} else {
				items = append(items, prim("CDR"))
			}
		}
		return seq(items...), nil

	case isDupMacro(name):
		// DUUP = DUP 2, DUUUP = DUP 3, ...
		n := len(name) - 2
		return prim("DUP", micheline.NewInt(int64(n))), nil

	case isPairMacro(name):
		tree, _ := parsePairWord(name[1 : len(name)-1])
		return seq(buildPair(tree)...), nil

	case isUnpairMacro(name):
		tree, _ := parsePairWord(name[3 : len(name)-1])
		return seq(buildUnpair(tree)...), nil
	}
	return nil, typeErrorf(name, "unknown macro")
}

func asSeq(n micheline.Node) micheline.Node {
	if _, ok := n.(*micheline.Seq); ok {
		return n
	}
	return seq(n)
}

// pairTree is the shape described by a P[AIP]+R word: leaves consume stack
// values in order, internal nodes pair their children.
type pairTree struct {
	leaf bool
	l, r *pairTree
}

func parsePairTree(s string) (*pairTree, string, bool) {
	if s == "" {
		return nil, s, false
	}
	switch s[0] {
	case 'A', 'I':
		return &pairTree{leaf: true}, s[1:], true
	case 'P':
		l, rest, ok := parsePairTree(s[1:])
		if !ok {
			return nil, s, false
		}
		r, rest, ok := parsePairTree(rest)
		if !ok {
			return nil, s, false
		}
		return &pairTree{l: l, r: r}, rest, true
	}
	return nil, s, false
}

// buildPair emits the instruction sequence assembling the tree from stack
// values: leaves are already in place, inner nodes pair left then right.
func buildPair(t *pairTree) []micheline.Node {
	if t.leaf {
		return nil
	}
	out := buildPair(t.l)
	if sub := buildPair(t.r); len(sub) > 0 {
		out = append(out, prim("DIP", seq(sub...)))
	}
	return append(out, prim("PAIR"))
}

func buildUnpair(t *pairTree) []micheline.Node {
	if t.leaf {
		return nil
	}
	out := []micheline.Node{prim("UNPAIR")}
	out = append(out, buildUnpair(t.l)...)
	if sub := buildUnpair(t.r); len(sub) > 0 {
		out = append(out, prim("DIP", seq(sub...)))
	}
	return out
}
