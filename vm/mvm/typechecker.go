package mvm

import (
	"github.com/stacknet-protocol/stackvm/core"
	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/params"
)

// The typechecker turns an untyped instruction tree into a typed one in a
// single syntax-directed pass. Each rule consumes a prefix of the input
// stack type and produces the output stack type recorded on the node; no
// inference or back-tracking happens, so checking is linear in program size
// and metered per node.

// checkEnv carries the ambient typing context of the code being checked.
// Lambda bodies get a fresh environment with no self parameter, which is
// what makes SELF illegal inside them.
type checkEnv struct {
	// SelfParam is the full parameter type of the enclosing contract; nil
	// outside contract code.
	SelfParam *Ty

	// Entrypoints resolves SELF %name; nil when SelfParam is nil.
	Entrypoints *EntrypointTable

	// InView forbids the instructions that mint operations or address the
	// contract's own parameter.
	InView bool
}

type checker struct {
	gas *Gas
	env *checkEnv
}

// Typecheck expands macros in code and checks it against the input stack
// type. The environment has no self parameter, so SELF is rejected; contract
// toplevels go through TypecheckScript instead.
func Typecheck(g *Gas, code micheline.Node, in StackTy) (*Instr, error) {
	expanded, err := ExpandMacros(code)
	if err != nil {
		return nil, err
	}
	c := &checker{gas: g, env: &checkEnv{}}
	return c.instr(expanded, in)
}

// checkLambda checks a lambda body of declared type argTy -> retTy. A
// recursive body additionally sees the lambda itself below the argument.
func checkLambda(g *Gas, body micheline.Node, argTy, retTy *Ty, rec bool) (*Instr, error) {
	expanded, err := ExpandMacros(body)
	if err != nil {
		return nil, err
	}
	c := &checker{gas: g, env: &checkEnv{}}
	in := StackTy{argTy}
	if rec {
		in = StackTy{argTy, LambdaT(argTy, retTy)}
	}
	typed, err := c.instr(expanded, in)
	if err != nil {
		return nil, err
	}
	if !typed.Out.Failed() && !typed.Out.Equal(StackTy{retTy}) {
		return nil, typeErrorf("LAMBDA", "body produces %s, want [%s]", typed.Out, retTy)
	}
	return typed, nil
}

// instr checks one node against a non-failed input stack type.
func (c *checker) instr(n micheline.Node, in StackTy) (*Instr, error) {
	if err := c.gas.Consume(params.TypecheckStepGas); err != nil {
		return nil, err
	}
	switch x := n.(type) {
	case *micheline.Seq:
		return c.seq(x, in)
	case *micheline.Prim:
		return c.prim(x, in)
	}
	return nil, typeErrorf("", "instruction expected, got %s", n.String())
}

// seq threads the stack type through the items. An item that leaves the
// failed stack must be the last one: code after FAILWITH is dead and the
// program is rejected.
func (c *checker) seq(s *micheline.Seq, in StackTy) (*Instr, error) {
	body := make([]*Instr, 0, len(s.Items))
	cur := in
	for i, it := range s.Items {
		if cur.Failed() {
			return nil, typeErrorf("", "unreachable code after %s", body[i-1].Op)
		}
		typed, err := c.instr(it, cur)
		if err != nil {
			return nil, err
		}
		body = append(body, typed)
		cur = typed.Out
	}
	return seqInstr(body, in, cur), nil
}

// block checks a sub-program argument, which must be a sequence literal.
func (c *checker) block(prim string, n micheline.Node, in StackTy) (*Instr, error) {
	s, ok := n.(*micheline.Seq)
	if !ok {
		return nil, typeErrorf(prim, "code block expected, got %s", n.String())
	}
	return c.seq(s, in)
}

func need(prim string, s StackTy, n int) error {
	if len(s) < n {
		return typeErrorf(prim, "stack too short: %d element(s) needed, %d present", n, len(s))
	}
	return nil
}

func intArg(p *micheline.Prim, i int) (int, bool) {
	if i >= len(p.Args) {
		return 0, false
	}
	x, ok := p.Args[i].(*micheline.Int)
	if !ok || !x.Value.IsInt64() || x.Value.Sign() < 0 {
		return 0, false
	}
	return int(x.Value.Int64()), true
}

func (c *checker) tyArg(prim string, p *micheline.Prim, i int) (*Ty, error) {
	if i >= len(p.Args) {
		return nil, typeErrorf(prim, "type argument %d missing", i)
	}
	return ParseTy(p.Args[i])
}

func arityErr(prim string, want, got int) error {
	return typeErrorf(prim, "expects %d argument(s), %d given", want, got)
}

func (c *checker) prim(p *micheline.Prim, in StackTy) (*Instr, error) {
	name := p.Name
	if _, err := splitAnnots(name, p.Annots); err != nil {
		return nil, err
	}
	args := func(n int) error {
		if len(p.Args) != n {
			return arityErr(name, n, len(p.Args))
		}
		return nil
	}
	out := func(i *Instr, s StackTy) (*Instr, error) {
		i.In, i.Out = in, s
		return i, nil
	}

	switch name {

	// Control.

	case "FAILWITH":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if !in.Top().Packable() {
			return nil, typeErrorf(name, "%s is not a legal failure payload", in.Top())
		}
		return out(&Instr{Op: OpFailwith, Ty1: in.Top()}, nil)

	case "NEVER":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyNever {
			return nil, typeErrorf(name, "never expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpNever}, nil)

	case "IF":
		if err := args(2); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyBool {
			return nil, typeErrorf(name, "bool expected, got %s", in.Top())
		}
		rest := in.Drop(1)
		bt, err := c.block(name, p.Args[0], rest)
		if err != nil {
			return nil, err
		}
		bf, err := c.block(name, p.Args[1], rest)
		if err != nil {
			return nil, err
		}
		o, err := unifyStacks(name, bt.Out, bf.Out)
		if err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpIf, BrA: bt, BrB: bf}, o)

	case "IF_NONE":
		if err := args(2); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyOption {
			return nil, typeErrorf(name, "option expected, got %s", in.Top())
		}
		rest := in.Drop(1)
		bn, err := c.block(name, p.Args[0], rest)
		if err != nil {
			return nil, err
		}
		bs, err := c.block(name, p.Args[1], rest.Push(in.Top().Args[0]))
		if err != nil {
			return nil, err
		}
		o, err := unifyStacks(name, bn.Out, bs.Out)
		if err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpIfNone, BrA: bn, BrB: bs}, o)

	case "IF_LEFT":
		if err := args(2); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyOr {
			return nil, typeErrorf(name, "or expected, got %s", in.Top())
		}
		rest := in.Drop(1)
		bl, err := c.block(name, p.Args[0], rest.Push(in.Top().Args[0]))
		if err != nil {
			return nil, err
		}
		br, err := c.block(name, p.Args[1], rest.Push(in.Top().Args[1]))
		if err != nil {
			return nil, err
		}
		o, err := unifyStacks(name, bl.Out, br.Out)
		if err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpIfLeft, BrA: bl, BrB: br}, o)

	case "IF_CONS":
		if err := args(2); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyList {
			return nil, typeErrorf(name, "list expected, got %s", in.Top())
		}
		rest := in.Drop(1)
		bc, err := c.block(name, p.Args[0], rest.Push(in.Top()).Push(in.Top().Args[0]))
		if err != nil {
			return nil, err
		}
		bn, err := c.block(name, p.Args[1], rest)
		if err != nil {
			return nil, err
		}
		o, err := unifyStacks(name, bc.Out, bn.Out)
		if err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpIfCons, BrA: bc, BrB: bn}, o)

	case "LOOP":
		if err := args(1); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyBool {
			return nil, typeErrorf(name, "bool expected, got %s", in.Top())
		}
		rest := in.Drop(1)
		body, err := c.block(name, p.Args[0], rest)
		if err != nil {
			return nil, err
		}
		if !body.Out.Failed() && !body.Out.Equal(in) {
			return nil, typeErrorf(name, "body produces %s, want %s", body.Out, in)
		}
		return out(&Instr{Op: OpLoop, BrA: body}, rest)

	case "LOOP_LEFT":
		if err := args(1); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		top := in.Top()
		if top.Kind != TyOr {
			return nil, typeErrorf(name, "or expected, got %s", top)
		}
		rest := in.Drop(1)
		body, err := c.block(name, p.Args[0], rest.Push(top.Args[0]))
		if err != nil {
			return nil, err
		}
		if !body.Out.Failed() && !body.Out.Equal(rest.Push(top)) {
			return nil, typeErrorf(name, "body produces %s, want %s", body.Out, rest.Push(top))
		}
		return out(&Instr{Op: OpLoopLeft, BrA: body}, rest.Push(top.Args[1]))

	case "DIP":
		n := 1
		code := 0
		if len(p.Args) == 2 {
			var ok bool
			if n, ok = intArg(p, 0); !ok {
				return nil, typeErrorf(name, "non-negative depth expected")
			}
			code = 1
		} else if len(p.Args) != 1 {
			return nil, arityErr(name, 1, len(p.Args))
		}
		if err := need(name, in, n); err != nil {
			return nil, err
		}
		body, err := c.block(name, p.Args[code], in.Drop(n))
		if err != nil {
			return nil, err
		}
		if body.Out.Failed() {
			return nil, typeErrorf(name, "body must not end in failure")
		}
		o := body.Out
		for i := n - 1; i >= 0; i-- {
			o = o.Push(in[i])
		}
		return out(&Instr{Op: OpDip, N: n, BrA: body}, o)

	case "EXEC":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		lam := in[1]
		if lam.Kind != TyLambda {
			return nil, typeErrorf(name, "lambda expected below the argument, got %s", lam)
		}
		if !in.Top().Equal(lam.Args[0]) {
			return nil, typeErrorf(name, "argument %s does not match lambda input %s", in.Top(), lam.Args[0])
		}
		return out(&Instr{Op: OpExec}, in.Drop(2).Push(lam.Args[1]))

	case "APPLY":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		lam := in[1]
		if lam.Kind != TyLambda || lam.Args[0].Kind != TyPair {
			return nil, typeErrorf(name, "lambda over a pair expected, got %s", lam)
		}
		capTy := lam.Args[0].Args[0]
		if !in.Top().Equal(capTy) {
			return nil, typeErrorf(name, "captured %s does not match %s", in.Top(), capTy)
		}
		if !capTy.Packable() {
			return nil, typeErrorf(name, "%s cannot be captured into a closure", capTy)
		}
		res := LambdaT(lam.Args[0].Args[1], lam.Args[1])
		return out(&Instr{Op: OpApply, Ty1: capTy}, in.Drop(2).Push(res))

	// Stack manipulation.

	case "DROP":
		n := 1
		if len(p.Args) == 1 {
			var ok bool
			if n, ok = intArg(p, 0); !ok {
				return nil, typeErrorf(name, "non-negative count expected")
			}
		} else if len(p.Args) != 0 {
			return nil, arityErr(name, 0, len(p.Args))
		}
		if err := need(name, in, n); err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpDrop, N: n}, in.Drop(n))

	case "DUP":
		n := 1
		if len(p.Args) == 1 {
			var ok bool
			if n, ok = intArg(p, 0); !ok || n < 1 {
				return nil, typeErrorf(name, "positive depth expected")
			}
		} else if len(p.Args) != 0 {
			return nil, arityErr(name, 0, len(p.Args))
		}
		if err := need(name, in, n); err != nil {
			return nil, err
		}
		t := in[n-1]
		if !t.Duplicable() {
			return nil, typeErrorf(name, "%s cannot be duplicated", t)
		}
		return out(&Instr{Op: OpDup, N: n}, in.Push(t))

	case "SWAP":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		o := append(StackTy{in[1], in[0]}, in.Drop(2)...)
		return out(&Instr{Op: OpSwap}, o)

	case "DIG":
		n, ok := intArg(p, 0)
		if !ok || len(p.Args) != 1 {
			return nil, typeErrorf(name, "non-negative depth expected")
		}
		if err := need(name, in, n+1); err != nil {
			return nil, err
		}
		o := make(StackTy, 0, len(in))
		o = append(o, in[n])
		o = append(o, in[:n]...)
		o = append(o, in[n+1:]...)
		return out(&Instr{Op: OpDig, N: n}, o)

	case "DUG":
		n, ok := intArg(p, 0)
		if !ok || len(p.Args) != 1 {
			return nil, typeErrorf(name, "non-negative depth expected")
		}
		if err := need(name, in, n+1); err != nil {
			return nil, err
		}
		o := make(StackTy, 0, len(in))
		o = append(o, in[1:n+1]...)
		o = append(o, in[0])
		o = append(o, in[n+1:]...)
		return out(&Instr{Op: OpDug, N: n}, o)

	case "PUSH":
		if err := args(2); err != nil {
			return nil, err
		}
		t, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		if !t.Pushable() {
			return nil, typeErrorf(name, "%s is not pushable", t)
		}
		v, err := DecodeValue(c.gas, p.Args[1], t)
		if err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpPush, Ty1: t, Val: v}, in.Push(t))

	case "LAMBDA", "LAMBDA_REC":
		if err := args(3); err != nil {
			return nil, err
		}
		a, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		r, err := c.tyArg(name, p, 1)
		if err != nil {
			return nil, err
		}
		rec := name == "LAMBDA_REC"
		body, err := checkLambda(c.gas, p.Args[2], a, r, rec)
		if err != nil {
			return nil, err
		}
		op := OpLambda
		if rec {
			op = OpLambdaRec
		}
		return out(&Instr{Op: op, Ty1: a, Ty2: r, BrA: body}, in.Push(LambdaT(a, r)))

	// Comparison.

	case "COMPARE":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if !in[0].Equal(in[1]) {
			return nil, typeErrorf(name, "operands disagree: %s vs %s", in[0], in[1])
		}
		if !in[0].Comparable() {
			return nil, typeErrorf(name, "%s is not comparable", in[0])
		}
		return out(&Instr{Op: OpCompare, Ty1: in[0]}, in.Drop(2).Push(IntT()))

	case "EQ", "NEQ", "LT", "GT", "LE", "GE":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyInt {
			return nil, typeErrorf(name, "int expected, got %s", in.Top())
		}
		op := map[string]OpCode{"EQ": OpEq, "NEQ": OpNeq, "LT": OpLt,
			"GT": OpGt, "LE": OpLe, "GE": OpGe}[name]
		return out(&Instr{Op: op}, in.Drop(1).Push(BoolT()))

	// Pairs, options, unions, lists.

	case "UNIT":
		return out(&Instr{Op: OpUnit}, in.Push(UnitT()))

	case "CAR", "CDR":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyPair {
			return nil, typeErrorf(name, "pair expected, got %s", in.Top())
		}
		i := 0
		op := OpCar
		if name == "CDR" {
			i, op = 1, OpCdr
		}
		return out(&Instr{Op: op}, in.Drop(1).Push(in.Top().Args[i]))

	case "PAIR":
		n := 2
		if len(p.Args) == 1 {
			var ok bool
			if n, ok = intArg(p, 0); !ok || n < 2 {
				return nil, typeErrorf(name, "arity of at least 2 expected")
			}
		} else if len(p.Args) != 0 {
			return nil, arityErr(name, 0, len(p.Args))
		}
		if n > params.MaxPairCombN {
			return nil, typeErrorf(name, "arity %d above limit %d", n, params.MaxPairCombN)
		}
		if err := need(name, in, n); err != nil {
			return nil, err
		}
		t := CombT(in[:n]...)
		return out(&Instr{Op: OpPair, N: n}, in.Drop(n).Push(t))

	case "UNPAIR":
		n := 2
		if len(p.Args) == 1 {
			var ok bool
			if n, ok = intArg(p, 0); !ok || n < 2 {
				return nil, typeErrorf(name, "arity of at least 2 expected")
			}
		} else if len(p.Args) != 0 {
			return nil, arityErr(name, 0, len(p.Args))
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		parts := make([]*Ty, 0, n)
		t := in.Top()
		for i := 0; i < n-1; i++ {
			if t.Kind != TyPair {
				return nil, typeErrorf(name, "comb of %d components expected, got %s", n, in.Top())
			}
			parts = append(parts, t.Args[0])
			t = t.Args[1]
		}
		parts = append(parts, t)
		o := in.Drop(1)
		for i := n - 1; i >= 0; i-- {
			o = o.Push(parts[i])
		}
		return out(&Instr{Op: OpUnpair, N: n}, o)

	case "LEFT", "RIGHT":
		if err := args(1); err != nil {
			return nil, err
		}
		other, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		var t *Ty
		op := OpLeft
		if name == "LEFT" {
			t = OrT(in.Top(), other)
		} else {
			t, op = OrT(other, in.Top()), OpRight
		}
		return out(&Instr{Op: op, Ty1: other}, in.Drop(1).Push(t))

	case "SOME":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpSome}, in.Drop(1).Push(OptionT(in.Top())))

	case "NONE":
		if err := args(1); err != nil {
			return nil, err
		}
		t, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpNone, Ty1: t}, in.Push(OptionT(t)))

	case "NIL":
		if err := args(1); err != nil {
			return nil, err
		}
		t, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		return out(&Instr{Op: OpNil, Ty1: t}, in.Push(ListT(t)))

	case "CONS":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if in[1].Kind != TyList || !in[1].Args[0].Equal(in[0]) {
			return nil, typeErrorf(name, "cannot cons %s onto %s", in[0], in[1])
		}
		return out(&Instr{Op: OpCons}, in.Drop(2).Push(in[1]))

	case "SIZE":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		switch in.Top().Kind {
		case TyString, TyBytes, TyList, TySet, TyMap:
		default:
			return nil, typeErrorf(name, "sized value expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpSize}, in.Drop(1).Push(NatT()))

	// Containers.

	case "EMPTY_SET":
		if err := args(1); err != nil {
			return nil, err
		}
		t, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		if !t.Comparable() {
			return nil, typeErrorf(name, "element type %s is not comparable", t)
		}
		return out(&Instr{Op: OpEmptySet, Ty1: t}, in.Push(SetT(t)))

	case "EMPTY_MAP", "EMPTY_BIG_MAP":
		if err := args(2); err != nil {
			return nil, err
		}
		k, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		v, err := c.tyArg(name, p, 1)
		if err != nil {
			return nil, err
		}
		if !k.Comparable() {
			return nil, typeErrorf(name, "key type %s is not comparable", k)
		}
		if name == "EMPTY_MAP" {
			return out(&Instr{Op: OpEmptyMap, Ty1: k, Ty2: v}, in.Push(MapT(k, v)))
		}
		if !bigMapValueLegal(v) {
			return nil, typeErrorf(name, "illegal big_map value type %s", v)
		}
		return out(&Instr{Op: OpEmptyBigMap, Ty1: k, Ty2: v}, in.Push(BigMapT(k, v)))

	case "MAP":
		if err := args(1); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		top := in.Top()
		rest := in.Drop(1)
		var elem *Ty
		switch top.Kind {
		case TyList, TyOption:
			elem = top.Args[0]
		case TyMap:
			elem = PairT(top.Args[0], top.Args[1])
		default:
			return nil, typeErrorf(name, "list, map or option expected, got %s", top)
		}
		body, err := c.block(name, p.Args[0], rest.Push(elem))
		if err != nil {
			return nil, err
		}
		if body.Out.Failed() {
			return nil, typeErrorf(name, "body must not end in failure")
		}
		if err := need(name, body.Out, 1); err != nil {
			return nil, err
		}
		if !body.Out.Drop(1).Equal(rest) {
			return nil, typeErrorf(name, "body must leave the rest of the stack unchanged")
		}
		resElem := body.Out.Top()
		var res *Ty
		switch top.Kind {
		case TyList:
			res = ListT(resElem)
		case TyOption:
			res = OptionT(resElem)
		case TyMap:
			res = MapT(top.Args[0], resElem)
		}
		return out(&Instr{Op: OpMap, BrA: body, Ty1: top}, rest.Push(res))

	case "ITER":
		if err := args(1); err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		top := in.Top()
		rest := in.Drop(1)
		var elem *Ty
		switch top.Kind {
		case TyList, TySet:
			elem = top.Args[0]
		case TyMap:
			elem = PairT(top.Args[0], top.Args[1])
		default:
			return nil, typeErrorf(name, "list, set or map expected, got %s", top)
		}
		body, err := c.block(name, p.Args[0], rest.Push(elem))
		if err != nil {
			return nil, err
		}
		if !body.Out.Failed() && !body.Out.Equal(rest) {
			return nil, typeErrorf(name, "body produces %s, want %s", body.Out, rest)
		}
		return out(&Instr{Op: OpIter, BrA: body, Ty1: top}, rest)

	case "MEM":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		cont := in[1]
		var keyTy *Ty
		switch cont.Kind {
		case TySet, TyMap, TyBigMap:
			keyTy = cont.Args[0]
		default:
			return nil, typeErrorf(name, "set, map or big_map expected, got %s", cont)
		}
		if !in[0].Equal(keyTy) {
			return nil, typeErrorf(name, "key %s does not match %s", in[0], cont)
		}
		return out(&Instr{Op: OpMem, Ty1: cont}, in.Drop(2).Push(BoolT()))

	case "GET":
		if len(p.Args) == 1 {
			n, ok := intArg(p, 0)
			if !ok {
				return nil, typeErrorf(name, "non-negative index expected")
			}
			if err := need(name, in, 1); err != nil {
				return nil, err
			}
			t, err := combGet(name, in.Top(), n)
			if err != nil {
				return nil, err
			}
			return out(&Instr{Op: OpGetN, N: n}, in.Drop(1).Push(t))
		}
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		cont := in[1]
		if cont.Kind != TyMap && cont.Kind != TyBigMap {
			return nil, typeErrorf(name, "map or big_map expected, got %s", cont)
		}
		if !in[0].Equal(cont.Args[0]) {
			return nil, typeErrorf(name, "key %s does not match %s", in[0], cont)
		}
		return out(&Instr{Op: OpGet, Ty1: cont}, in.Drop(2).Push(OptionT(cont.Args[1])))

	case "UPDATE":
		if len(p.Args) == 1 {
			n, ok := intArg(p, 0)
			if !ok {
				return nil, typeErrorf(name, "non-negative index expected")
			}
			if err := need(name, in, 2); err != nil {
				return nil, err
			}
			t, err := combUpdate(name, in[1], n, in[0])
			if err != nil {
				return nil, err
			}
			return out(&Instr{Op: OpUpdateN, N: n}, in.Drop(2).Push(t))
		}
		if err := need(name, in, 3); err != nil {
			return nil, err
		}
		cont := in[2]
		switch cont.Kind {
		case TySet:
			if !in[0].Equal(cont.Args[0]) || in[1].Kind != TyBool {
				return nil, typeErrorf(name, "%s and bool expected above %s", cont.Args[0], cont)
			}
		case TyMap, TyBigMap:
			if !in[0].Equal(cont.Args[0]) || in[1].Kind != TyOption || !in[1].Args[0].Equal(cont.Args[1]) {
				return nil, typeErrorf(name, "%s and option %s expected above %s", cont.Args[0], cont.Args[1], cont)
			}
		default:
			return nil, typeErrorf(name, "set, map or big_map expected, got %s", cont)
		}
		return out(&Instr{Op: OpUpdate, Ty1: cont}, in.Drop(3).Push(cont))

	case "GET_AND_UPDATE":
		if err := need(name, in, 3); err != nil {
			return nil, err
		}
		cont := in[2]
		if cont.Kind != TyMap && cont.Kind != TyBigMap {
			return nil, typeErrorf(name, "map or big_map expected, got %s", cont)
		}
		if !in[0].Equal(cont.Args[0]) || in[1].Kind != TyOption || !in[1].Args[0].Equal(cont.Args[1]) {
			return nil, typeErrorf(name, "%s and option %s expected above %s", cont.Args[0], cont.Args[1], cont)
		}
		o := in.Drop(3).Push(cont).Push(OptionT(cont.Args[1]))
		return out(&Instr{Op: OpGetAndUpdate, Ty1: cont}, o)

	// Strings and bytes.

	case "CONCAT":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		top := in.Top()
		if top.Kind == TyList {
			et := top.Args[0]
			if et.Kind != TyString && et.Kind != TyBytes {
				return nil, typeErrorf(name, "list of string or bytes expected, got %s", top)
			}
			return out(&Instr{Op: OpConcat, Ty1: top}, in.Drop(1).Push(et))
		}
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if top.Kind != TyString && top.Kind != TyBytes || !in[1].Equal(top) {
			return nil, typeErrorf(name, "two strings or two bytes expected, got %s and %s", in[0], in[1])
		}
		return out(&Instr{Op: OpConcat, Ty1: top}, in.Drop(2).Push(top))

	case "SLICE":
		if err := need(name, in, 3); err != nil {
			return nil, err
		}
		if in[0].Kind != TyNat || in[1].Kind != TyNat {
			return nil, typeErrorf(name, "offset and length must be nat")
		}
		if in[2].Kind != TyString && in[2].Kind != TyBytes {
			return nil, typeErrorf(name, "string or bytes expected, got %s", in[2])
		}
		return out(&Instr{Op: OpSlice, Ty1: in[2]}, in.Drop(3).Push(OptionT(in[2])))

	// Arithmetic.

	case "ADD", "SUB", "MUL", "EDIV", "SUB_MUTEZ":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		res := arithResult(name, in[0], in[1])
		if res == nil {
			return nil, typeErrorf(name, "no rule for %s and %s", in[0], in[1])
		}
		op := map[string]OpCode{"ADD": OpAdd, "SUB": OpSub, "MUL": OpMul,
			"EDIV": OpEdiv, "SUB_MUTEZ": OpSubMutez}[name]
		return out(&Instr{Op: op, Ty1: in[0], Ty2: in[1]}, in.Drop(2).Push(res))

	case "NEG":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		var res *Ty
		switch in.Top().Kind {
		case TyInt, TyNat:
			res = IntT()
		case TyBls12381G1, TyBls12381G2, TyBls12381Fr:
			res = in.Top()
		default:
			return nil, typeErrorf(name, "no rule for %s", in.Top())
		}
		return out(&Instr{Op: OpNeg, Ty1: in.Top()}, in.Drop(1).Push(res))

	case "ABS":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyInt {
			return nil, typeErrorf(name, "int expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpAbs}, in.Drop(1).Push(NatT()))

	case "ISNAT":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyInt {
			return nil, typeErrorf(name, "int expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpIsNat}, in.Drop(1).Push(OptionT(NatT())))

	case "INT":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		switch in.Top().Kind {
		case TyNat, TyBls12381Fr, TyBytes:
		default:
			return nil, typeErrorf(name, "no rule for %s", in.Top())
		}
		return out(&Instr{Op: OpInt, Ty1: in.Top()}, in.Drop(1).Push(IntT()))

	case "NAT":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyBytes {
			return nil, typeErrorf(name, "bytes expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpNat}, in.Drop(1).Push(NatT()))

	case "BYTES":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyInt && in.Top().Kind != TyNat {
			return nil, typeErrorf(name, "int or nat expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpBytes, Ty1: in.Top()}, in.Drop(1).Push(BytesT()))

	case "NOT":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		var res *Ty
		switch in.Top().Kind {
		case TyBool:
			res = BoolT()
		case TyInt, TyNat:
			res = IntT()
		case TyBytes:
			res = BytesT()
		default:
			return nil, typeErrorf(name, "no rule for %s", in.Top())
		}
		return out(&Instr{Op: OpNot, Ty1: in.Top()}, in.Drop(1).Push(res))

	case "AND", "OR", "XOR":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		res := logicResult(name, in[0], in[1])
		if res == nil {
			return nil, typeErrorf(name, "no rule for %s and %s", in[0], in[1])
		}
		op := map[string]OpCode{"AND": OpAnd, "OR": OpOr, "XOR": OpXor}[name]
		return out(&Instr{Op: op, Ty1: in[0]}, in.Drop(2).Push(res))

	case "LSL", "LSR":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if in[1].Kind != TyNat {
			return nil, typeErrorf(name, "shift amount must be nat")
		}
		if in[0].Kind != TyNat && in[0].Kind != TyBytes {
			return nil, typeErrorf(name, "nat or bytes expected, got %s", in[0])
		}
		op := OpLsl
		if name == "LSR" {
			op = OpLsr
		}
		return out(&Instr{Op: op, Ty1: in[0]}, in.Drop(2).Push(in[0]))

	// Serialization and crypto.

	case "PACK":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if !in.Top().Packable() {
			return nil, typeErrorf(name, "%s is not packable", in.Top())
		}
		return out(&Instr{Op: OpPack, Ty1: in.Top()}, in.Drop(1).Push(BytesT()))

	case "UNPACK":
		if err := args(1); err != nil {
			return nil, err
		}
		t, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		if !t.Packable() {
			return nil, typeErrorf(name, "%s is not packable", t)
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyBytes {
			return nil, typeErrorf(name, "bytes expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpUnpack, Ty1: t}, in.Drop(1).Push(OptionT(t)))

	case "HASH_KEY":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyKey {
			return nil, typeErrorf(name, "key expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpHashKey}, in.Drop(1).Push(KeyHashT()))

	case "CHECK_SIGNATURE":
		if err := need(name, in, 3); err != nil {
			return nil, err
		}
		if in[0].Kind != TyKey || in[1].Kind != TySignature || in[2].Kind != TyBytes {
			return nil, typeErrorf(name, "key, signature and bytes expected")
		}
		return out(&Instr{Op: OpCheckSignature}, in.Drop(3).Push(BoolT()))

	case "BLAKE2B", "KECCAK", "SHA256", "SHA512", "SHA3":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyBytes {
			return nil, typeErrorf(name, "bytes expected, got %s", in.Top())
		}
		op := map[string]OpCode{"BLAKE2B": OpBlake2b, "KECCAK": OpKeccak,
			"SHA256": OpSha256, "SHA512": OpSha512, "SHA3": OpSha3}[name]
		return out(&Instr{Op: op}, in.Drop(1).Push(BytesT()))

	case "PAIRING_CHECK":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		want := ListT(PairT(newTy(TyBls12381G1), newTy(TyBls12381G2)))
		if !in.Top().Equal(want) {
			return nil, typeErrorf(name, "list (pair bls12_381_g1 bls12_381_g2) expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpPairingCheck}, in.Drop(1).Push(BoolT()))

	// Domain.

	case "ADDRESS":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyContract {
			return nil, typeErrorf(name, "contract expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpAddress}, in.Drop(1).Push(AddressT()))

	case "CONTRACT":
		if err := args(1); err != nil {
			return nil, err
		}
		t, err := c.tyArg(name, p, 0)
		if err != nil {
			return nil, err
		}
		if t.HasOperation() {
			return nil, typeErrorf(name, "%s is not a parameter type", t)
		}
		ep, err := fieldAnnot(name, p.Annots)
		if err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyAddress {
			return nil, typeErrorf(name, "address expected, got %s", in.Top())
		}
		o := in.Drop(1).Push(OptionT(ContractT(t)))
		return out(&Instr{Op: OpContract, Ty1: t, Name: ep}, o)

	case "IMPLICIT_ACCOUNT":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyKeyHash {
			return nil, typeErrorf(name, "key_hash expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpImplicitAccount}, in.Drop(1).Push(ContractT(UnitT())))

	case "TRANSFER_TOKENS":
		if c.env.InView {
			return nil, typeErrorf(name, "forbidden in a view")
		}
		if err := need(name, in, 3); err != nil {
			return nil, err
		}
		if in[1].Kind != TyMutez || in[2].Kind != TyContract || !in[0].Equal(in[2].Args[0]) {
			return nil, typeErrorf(name, "argument, mutez and matching contract expected")
		}
		return out(&Instr{Op: OpTransferTokens, Ty1: in[2].Args[0]}, in.Drop(3).Push(OperationT()))

	case "SET_DELEGATE":
		if c.env.InView {
			return nil, typeErrorf(name, "forbidden in a view")
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if !in.Top().Equal(OptionT(KeyHashT())) {
			return nil, typeErrorf(name, "option key_hash expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpSetDelegate}, in.Drop(1).Push(OperationT()))

	case "CREATE_CONTRACT":
		if c.env.InView {
			return nil, typeErrorf(name, "forbidden in a view")
		}
		if err := args(1); err != nil {
			return nil, err
		}
		script, err := core.ScriptFromTree(p.Args[0])
		if err != nil {
			return nil, typeErrorf(name, "%v", err)
		}
		typed, err := TypecheckScript(c.gas, script)
		if err != nil {
			return nil, err
		}
		if err := need(name, in, 3); err != nil {
			return nil, err
		}
		if !in[0].Equal(OptionT(KeyHashT())) || in[1].Kind != TyMutez {
			return nil, typeErrorf(name, "option key_hash and mutez expected")
		}
		if !in[2].Equal(typed.StorageTy) {
			return nil, typeErrorf(name, "initial storage %s does not match script storage %s", in[2], typed.StorageTy)
		}
		o := in.Drop(3).Push(AddressT()).Push(OperationT())
		return out(&Instr{Op: OpCreateContract, Script: script, Ty1: typed.ParamTy, Ty2: typed.StorageTy}, o)

	case "EMIT":
		if c.env.InView {
			return nil, typeErrorf(name, "forbidden in a view")
		}
		tag, err := fieldAnnot(name, p.Annots)
		if err != nil {
			return nil, err
		}
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		t := in.Top()
		if len(p.Args) == 1 {
			if t, err = c.tyArg(name, p, 0); err != nil {
				return nil, err
			}
			if !in.Top().Equal(t) {
				return nil, typeErrorf(name, "payload %s does not match declared %s", in.Top(), t)
			}
		} else if len(p.Args) != 0 {
			return nil, arityErr(name, 0, len(p.Args))
		}
		if !t.Packable() {
			return nil, typeErrorf(name, "%s is not a legal event payload", t)
		}
		return out(&Instr{Op: OpEmit, Ty1: t, Name: tag}, in.Drop(1).Push(OperationT()))

	case "BALANCE":
		return out(&Instr{Op: OpBalance}, in.Push(MutezT()))
	case "AMOUNT":
		return out(&Instr{Op: OpAmount}, in.Push(MutezT()))
	case "NOW":
		return out(&Instr{Op: OpNow}, in.Push(TimestampT()))
	case "LEVEL":
		return out(&Instr{Op: OpLevel}, in.Push(NatT()))
	case "MIN_BLOCK_TIME":
		return out(&Instr{Op: OpMinBlockTime}, in.Push(NatT()))
	case "SOURCE":
		return out(&Instr{Op: OpSource}, in.Push(AddressT()))
	case "SENDER":
		return out(&Instr{Op: OpSender}, in.Push(AddressT()))
	case "SELF_ADDRESS":
		return out(&Instr{Op: OpSelfAddress}, in.Push(AddressT()))
	case "CHAIN_ID":
		return out(&Instr{Op: OpChainID}, in.Push(ChainIDT()))
	case "TOTAL_VOTING_POWER":
		return out(&Instr{Op: OpTotalVotingPower}, in.Push(NatT()))

	case "SELF":
		if c.env.SelfParam == nil || c.env.InView {
			return nil, typeErrorf(name, "forbidden outside contract code")
		}
		ep, err := fieldAnnot(name, p.Annots)
		if err != nil {
			return nil, err
		}
		t, ok := c.env.Entrypoints.Resolve(ep)
		if !ok {
			return nil, typeErrorf(name, "no entrypoint %q", ep)
		}
		return out(&Instr{Op: OpSelf, Ty1: t.Ty, Name: ep}, in.Push(ContractT(t.Ty)))

	case "VOTING_POWER":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyKeyHash {
			return nil, typeErrorf(name, "key_hash expected, got %s", in.Top())
		}
		return out(&Instr{Op: OpVotingPower}, in.Drop(1).Push(NatT()))

	case "VIEW":
		if err := args(2); err != nil {
			return nil, err
		}
		vn, ok := p.Args[0].(*micheline.String)
		if !ok {
			return nil, typeErrorf(name, "view name expected")
		}
		t, err := c.tyArg(name, p, 1)
		if err != nil {
			return nil, err
		}
		if !t.AllowedInView() {
			return nil, typeErrorf(name, "%s cannot be a view return type", t)
		}
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if !in[0].AllowedInView() {
			return nil, typeErrorf(name, "%s cannot be a view argument", in[0])
		}
		if in[1].Kind != TyAddress {
			return nil, typeErrorf(name, "address expected below the argument, got %s", in[1])
		}
		return out(&Instr{Op: OpView, Ty1: in[0], Ty2: t, Name: vn.Value}, in.Drop(2).Push(OptionT(t)))

	// Tickets.

	case "TICKET":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if in[1].Kind != TyNat {
			return nil, typeErrorf(name, "nat amount expected below the content")
		}
		if !in[0].Comparable() {
			return nil, typeErrorf(name, "content type %s is not comparable", in[0])
		}
		o := in.Drop(2).Push(OptionT(TicketT(in[0])))
		return out(&Instr{Op: OpTicket, Ty1: in[0]}, o)

	case "READ_TICKET":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		if in.Top().Kind != TyTicket {
			return nil, typeErrorf(name, "ticket expected, got %s", in.Top())
		}
		info := CombT(AddressT(), in.Top().Args[0], NatT())
		return out(&Instr{Op: OpReadTicket}, in.Push(info))

	case "SPLIT_TICKET":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if in[0].Kind != TyTicket || !in[1].Equal(PairT(NatT(), NatT())) {
			return nil, typeErrorf(name, "ticket and pair nat nat expected")
		}
		o := in.Drop(2).Push(OptionT(PairT(in[0], in[0])))
		return out(&Instr{Op: OpSplitTicket}, o)

	case "JOIN_TICKETS":
		if err := need(name, in, 1); err != nil {
			return nil, err
		}
		top := in.Top()
		if top.Kind != TyPair || top.Args[0].Kind != TyTicket || !top.Args[0].Equal(top.Args[1]) {
			return nil, typeErrorf(name, "pair of equal tickets expected, got %s", top)
		}
		return out(&Instr{Op: OpJoinTickets}, in.Drop(1).Push(OptionT(top.Args[0])))

	// Sapling and timelock.

	case "SAPLING_EMPTY_STATE":
		ms, ok := intArg(p, 0)
		if !ok || len(p.Args) != 1 {
			return nil, typeErrorf(name, "memo size expected")
		}
		t := &Ty{Kind: TySaplingState, MemoSize: ms}
		return out(&Instr{Op: OpSaplingEmptyState, N: ms}, in.Push(t))

	case "SAPLING_VERIFY_UPDATE":
		if err := need(name, in, 2); err != nil {
			return nil, err
		}
		if in[0].Kind != TySaplingTransaction || in[1].Kind != TySaplingState ||
			in[0].MemoSize != in[1].MemoSize {
			return nil, typeErrorf(name, "transaction and state with equal memo size expected")
		}
		o := in.Drop(2).Push(OptionT(PairT(IntT(), in[1])))
		return out(&Instr{Op: OpSaplingVerifyUpdate}, o)

	case "OPEN_CHEST":
		if err := need(name, in, 3); err != nil {
			return nil, err
		}
		if in[0].Kind != TyChestKey || in[1].Kind != TyChest || in[2].Kind != TyNat {
			return nil, typeErrorf(name, "chest_key, chest and nat expected")
		}
		return out(&Instr{Op: OpOpenChest}, in.Drop(3).Push(OptionT(BytesT())))
	}

	if !micheline.KnownPrim(name) {
		return nil, typeErrorf(name, "unknown primitive")
	}
	return nil, typeErrorf(name, "not an instruction")
}

// combGet resolves the type of comb component n: even indices walk down the
// right spine, a final odd step takes the left component.
func combGet(prim string, t *Ty, n int) (*Ty, error) {
	k := n
	for k > 1 {
		if t.Kind != TyPair {
			return nil, typeErrorf(prim, "pair comb too short for index %d", n)
		}
		t = t.Args[1]
		k -= 2
	}
	if k == 1 {
		if t.Kind != TyPair {
			return nil, typeErrorf(prim, "pair comb too short for index %d", n)
		}
		return t.Args[0], nil
	}
	return t, nil
}

// combUpdate rebuilds the comb type with component n replaced by nv.
func combUpdate(prim string, t *Ty, n int, nv *Ty) (*Ty, error) {
	if n == 0 {
		return nv, nil
	}
	if t.Kind != TyPair {
		return nil, typeErrorf(prim, "pair comb too short for index %d", n)
	}
	if n == 1 {
		return &Ty{Kind: TyPair, Args: []*Ty{nv, t.Args[1]}, Name: t.Name, Fields: t.Fields}, nil
	}
	rest, err := combUpdate(prim, t.Args[1], n-2, nv)
	if err != nil {
		return nil, err
	}
	return &Ty{Kind: TyPair, Args: []*Ty{t.Args[0], rest}, Name: t.Name, Fields: t.Fields}, nil
}

// arithResult is the result-type table of the overloaded binary arithmetic,
// keyed on (top, below). nil means no applicable rule.
func arithResult(name string, a, b *Ty) *Ty {
	k := func(x, y TyKind) bool { return a.Kind == x && b.Kind == y }
	switch name {
	case "ADD":
		switch {
		case k(TyNat, TyNat):
			return NatT()
		case k(TyInt, TyInt), k(TyInt, TyNat), k(TyNat, TyInt):
			return IntT()
		case k(TyTimestamp, TyInt), k(TyInt, TyTimestamp):
			return TimestampT()
		case k(TyMutez, TyMutez):
			return MutezT()
		case k(TyBls12381G1, TyBls12381G1), k(TyBls12381G2, TyBls12381G2),
			k(TyBls12381Fr, TyBls12381Fr):
			return a
		}
	case "SUB":
		switch {
		case k(TyInt, TyInt), k(TyInt, TyNat), k(TyNat, TyInt), k(TyNat, TyNat):
			return IntT()
		case k(TyTimestamp, TyInt):
			return TimestampT()
		case k(TyTimestamp, TyTimestamp):
			return IntT()
		case k(TyMutez, TyMutez):
			return MutezT()
		}
	case "SUB_MUTEZ":
		if k(TyMutez, TyMutez) {
			return OptionT(MutezT())
		}
	case "MUL":
		switch {
		case k(TyNat, TyNat):
			return NatT()
		case k(TyInt, TyInt), k(TyInt, TyNat), k(TyNat, TyInt):
			return IntT()
		case k(TyMutez, TyNat), k(TyNat, TyMutez):
			return MutezT()
		case k(TyBls12381Fr, TyBls12381Fr):
			return a
		case k(TyNat, TyBls12381Fr), k(TyInt, TyBls12381Fr),
			k(TyBls12381Fr, TyNat), k(TyBls12381Fr, TyInt):
			return newTy(TyBls12381Fr)
		case k(TyBls12381G1, TyBls12381Fr), k(TyBls12381G2, TyBls12381Fr):
			return a
		}
	case "EDIV":
		switch {
		case k(TyNat, TyNat):
			return OptionT(PairT(NatT(), NatT()))
		case k(TyInt, TyInt), k(TyInt, TyNat):
			// Truncating division: the remainder keeps the dividend's sign.
			return OptionT(PairT(IntT(), IntT()))
		case k(TyNat, TyInt):
			return OptionT(PairT(IntT(), NatT()))
		case k(TyMutez, TyNat):
			return OptionT(PairT(MutezT(), MutezT()))
		case k(TyMutez, TyMutez):
			return OptionT(PairT(NatT(), MutezT()))
		}
	}
	return nil
}

func logicResult(name string, a, b *Ty) *Ty {
	k := func(x, y TyKind) bool { return a.Kind == x && b.Kind == y }
	switch {
	case k(TyBool, TyBool):
		return BoolT()
	case k(TyNat, TyNat):
		return NatT()
	case k(TyBytes, TyBytes):
		return BytesT()
	case name == "AND" && k(TyInt, TyNat):
		return NatT()
	}
	return nil
}
