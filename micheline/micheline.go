// Package micheline implements the generic 5-constructor expression tree
// consumed and produced by the engine: integer, string and byte-string
// literals, sequences, and primitive applications with arguments and
// annotations. The tree is produced by an external parser or decoded from
// its JSON form; this package never interprets it.
package micheline

import (
	"fmt"
	"math/big"
	"strings"
)

// Node is one vertex of the generic tree. The five concrete forms are Int,
// String, Bytes, Seq and Prim. Nodes are immutable once built; sharing
// subtrees is safe.
type Node interface {
	// Clone returns a deep copy of the node.
	Clone() Node

	String() string
}

// Int is an arbitrary-precision integer literal.
type Int struct {
	Value *big.Int
}

// String is a string literal restricted to printable 7-bit ASCII plus the
// \n, \\ and \" escapes.
type String struct {
	Value string
}

// Bytes is a raw byte-string literal.
type Bytes struct {
	Value []byte
}

// Seq is an ordered sequence of nodes.
type Seq struct {
	Items []Node
}

// Prim is a primitive application: a name, ordered arguments and an ordered
// annotation list.
type Prim struct {
	Name   string
	Args   []Node
	Annots []string
}

func NewInt(i int64) *Int        { return &Int{Value: big.NewInt(i)} }
func NewBig(v *big.Int) *Int     { return &Int{Value: new(big.Int).Set(v)} }
func NewString(s string) *String { return &String{Value: s} }
func NewBytes(b []byte) *Bytes   { return &Bytes{Value: append([]byte(nil), b...)} }
func NewSeq(items ...Node) *Seq  { return &Seq{Items: items} }
func NewPrim(name string, args ...Node) *Prim {
	return &Prim{Name: name, Args: args}
}

// WithAnnots returns a copy of p carrying the given annotations.
func (p *Prim) WithAnnots(annots ...string) *Prim {
	q := *p
	q.Annots = append([]string(nil), annots...)
	return &q
}

func (n *Int) Clone() Node    { return &Int{Value: new(big.Int).Set(n.Value)} }
func (n *String) Clone() Node { return &String{Value: n.Value} }
func (n *Bytes) Clone() Node  { return &Bytes{Value: append([]byte(nil), n.Value...)} }

func (n *Seq) Clone() Node {
	items := make([]Node, len(n.Items))
	for i, it := range n.Items {
		items[i] = it.Clone()
	}
	return &Seq{Items: items}
}

func (n *Prim) Clone() Node {
	args := make([]Node, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.Clone()
	}
	return &Prim{Name: n.Name, Args: args, Annots: append([]string(nil), n.Annots...)}
}

func (n *Int) String() string    { return n.Value.String() }
func (n *String) String() string { return fmt.Sprintf("%q", n.Value) }
func (n *Bytes) String() string  { return fmt.Sprintf("0x%x", n.Value) }

func (n *Seq) String() string {
	parts := make([]string, len(n.Items))
	for i, it := range n.Items {
		parts[i] = it.String()
	}
	return "{ " + strings.Join(parts, " ; ") + " }"
}

func (n *Prim) String() string {
	parts := []string{n.Name}
	parts = append(parts, n.Annots...)
	for _, a := range n.Args {
		s := a.String()
		if p, ok := a.(*Prim); ok && (len(p.Args) > 0 || len(p.Annots) > 0) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// ValidString reports whether s is a legal string literal: printable 7-bit
// ASCII (32..126) only. Escapes are already resolved at this level.
func ValidString(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\n' && (c < 32 || c > 126) {
			return false
		}
	}
	return true
}
