package mvm

import (
	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/micheline"
)

// TypedView is a typechecked view body.
type TypedView struct {
	Name  string
	ArgTy *Ty
	RetTy *Ty
	Code  *Instr
}

// TypedScript is the proof-carrying form of a contract: the declared types
// parsed into descriptors, the code as a typed instruction tree, and the
// entrypoint table. It is immutable and safe to share between evaluations.
type TypedScript struct {
	Source    *core.Script
	Hash      common.Hash
	ParamTy   *Ty
	StorageTy *Ty
	Code      *Instr
	Entries   *EntrypointTable
	Views     map[string]*TypedView
}

// TypecheckScript checks a stored script toplevel. The code must map
// [pair parameter storage] to [pair (list operation) storage]; each view
// must map [pair argument storage] to [return].
func TypecheckScript(g *Gas, s *core.Script) (*TypedScript, error) {
	paramTy, err := ParseTy(s.ParamType)
	if err != nil {
		return nil, err
	}
	if paramTy.HasOperation() {
		return nil, typeErrorf("parameter", "%s is not a parameter type", paramTy)
	}
	storageTy, err := ParseTy(s.StorageType)
	if err != nil {
		return nil, err
	}
	if !storageTy.Storable() {
		return nil, typeErrorf("storage", "%s is not storable", storageTy)
	}
	entries, err := NewEntrypointTable(paramTy)
	if err != nil {
		return nil, err
	}

	code, err := ExpandMacros(s.Code)
	if err != nil {
		return nil, err
	}
	c := &checker{gas: g, env: &checkEnv{SelfParam: paramTy, Entrypoints: entries}}
	in := StackTy{PairT(paramTy, storageTy)}
	want := StackTy{PairT(ListT(OperationT()), storageTy)}
	typed, err := c.block("code", code, in)
	if err != nil {
		return nil, err
	}
	if !typed.Out.Failed() && !typed.Out.Equal(want) {
		return nil, typeErrorf("code", "produces %s, want %s", typed.Out, want)
	}

	ts := &TypedScript{
		Source:    s,
		Hash:      s.Hash(),
		ParamTy:   paramTy,
		StorageTy: storageTy,
		Code:      typed,
		Entries:   entries,
		Views:     make(map[string]*TypedView, len(s.Views)),
	}
	for _, v := range s.Views {
		tv, err := typecheckView(g, v, storageTy)
		if err != nil {
			return nil, err
		}
		if _, dup := ts.Views[tv.Name]; dup {
			return nil, typeErrorf("view", "duplicate view %q", tv.Name)
		}
		ts.Views[tv.Name] = tv
	}
	return ts, nil
}

func typecheckView(g *Gas, v core.View, storageTy *Ty) (*TypedView, error) {
	if !legalAnnotBody(v.Name) || v.Name == "" {
		return nil, typeErrorf("view", "bad view name %q", v.Name)
	}
	argTy, err := ParseTy(v.ArgType)
	if err != nil {
		return nil, err
	}
	retTy, err := ParseTy(v.RetType)
	if err != nil {
		return nil, err
	}
	if !argTy.AllowedInView() {
		return nil, typeErrorf("view", "%s cannot be a view argument", argTy)
	}
	if !retTy.AllowedInView() {
		return nil, typeErrorf("view", "%s cannot be a view return type", retTy)
	}
	code, err := ExpandMacros(v.Code)
	if err != nil {
		return nil, err
	}
	c := &checker{gas: g, env: &checkEnv{InView: true}}
	typed, err := c.block("view", code, StackTy{PairT(argTy, storageTy)})
	if err != nil {
		return nil, err
	}
	if !typed.Out.Failed() && !typed.Out.Equal(StackTy{retTy}) {
		return nil, typeErrorf("view", "%q produces %s, want [%s]", v.Name, typed.Out, retTy)
	}
	return &TypedView{Name: v.Name, ArgTy: argTy, RetTy: retTy, Code: typed}, nil
}

// ParseValue is the external decoding entry: it parses a literal against a
// parsed type expression, as the process layer does for call parameters and
// initial storage.
func ParseValue(g *Gas, lit micheline.Node, ty *Ty) (Value, error) {
	return DecodeValue(g, lit, ty)
}
