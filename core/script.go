package core

import (
	"encoding/json"

	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/micheline"
)

// View is a named, independently typed, read-only entry of a script.
type View struct {
	Name    string
	ArgType micheline.Node
	RetType micheline.Node
	Code    micheline.Node
}

// Script is the stored, untyped form of a contract: declared parameter and
// storage types, the code quotation, and zero or more views. It is built
// once at origination and never mutated; the typechecked form is produced
// from it exactly once and cached.
type Script struct {
	ParamType   micheline.Node
	StorageType micheline.Node
	Code        micheline.Node
	Views       []View
}

// Tree returns the canonical toplevel sequence
// { parameter t ; storage t ; code { ... } ; view "n" a r { ... } ... }.
func (s *Script) Tree() micheline.Node {
	items := []micheline.Node{
		micheline.NewPrim("parameter", s.ParamType),
		micheline.NewPrim("storage", s.StorageType),
		micheline.NewPrim("code", s.Code),
	}
	for _, v := range s.Views {
		items = append(items, micheline.NewPrim("view",
			micheline.NewString(v.Name), v.ArgType, v.RetType, v.Code))
	}
	return micheline.NewSeq(items...)
}

// Hash returns the blake2b script hash over the canonical JSON encoding of
// the toplevel tree. It keys the typechecked-script cache.
func (s *Script) Hash() common.Hash {
	data, err := json.Marshal(s.Tree())
	if err != nil {
		// The tree is built from decoded nodes; marshalling cannot fail on
		// well-formed literals. Hash the error text rather than mask it.
		return common.Blake2b256([]byte("invalid:" + err.Error()))
	}
	return common.Blake2b256(data)
}

// ScriptFromTree parses the toplevel sequence form of a script.
func ScriptFromTree(n micheline.Node) (*Script, error) {
	seq, ok := n.(*micheline.Seq)
	if !ok {
		return nil, errScriptShape
	}
	s := &Script{}
	for _, item := range seq.Items {
		p, ok := item.(*micheline.Prim)
		if !ok {
			return nil, errScriptShape
		}
		switch p.Name {
		case "parameter":
			if len(p.Args) != 1 || s.ParamType != nil {
				return nil, errScriptShape
			}
			s.ParamType = p.Args[0]
		case "storage":
			if len(p.Args) != 1 || s.StorageType != nil {
				return nil, errScriptShape
			}
			s.StorageType = p.Args[0]
		case "code":
			if len(p.Args) != 1 || s.Code != nil {
				return nil, errScriptShape
			}
			s.Code = p.Args[0]
		case "view":
			if len(p.Args) != 4 {
				return nil, errScriptShape
			}
			name, ok := p.Args[0].(*micheline.String)
			if !ok {
				return nil, errScriptShape
			}
			s.Views = append(s.Views, View{
				Name:    name.Value,
				ArgType: p.Args[1],
				RetType: p.Args[2],
				Code:    p.Args[3],
			})
		default:
			return nil, errScriptShape
		}
	}
	if s.ParamType == nil || s.StorageType == nil || s.Code == nil {
		return nil, errScriptShape
	}
	return s, nil
}
