package mvm

import (
	"testing"

	"github.com/stacknet-protocol/stackvm/micheline"
)

func mustParseTy(t *testing.T, n micheline.Node) *Ty {
	t.Helper()
	ty, err := ParseTy(n)
	if err != nil {
		t.Fatalf("ParseTy(%s): %v", n, err)
	}
	return ty
}

func paramTree(t *testing.T) *Ty {
	return mustParseTy(t, prim("or",
		prim("or",
			prim("int").WithAnnots("%add"),
			prim("unit").WithAnnots("%reset")),
		prim("string").WithAnnots("%store")))
}

func TestEntrypointTableCollects(t *testing.T) {
	tab, err := NewEntrypointTable(paramTree(t))
	if err != nil {
		t.Fatal(err)
	}
	cases := []struct {
		name string
		ty   *Ty
		path []bool
	}{
		{"add", IntT(), []bool{false, false}},
		{"reset", UnitT(), []bool{false, true}},
		{"store", StringT(), []bool{true}},
	}
	for _, c := range cases {
		ep, ok := tab.Resolve(c.name)
		if !ok {
			t.Fatalf("entrypoint %q not found", c.name)
		}
		if !ep.Ty.Equal(c.ty) {
			t.Errorf("%q type = %s, want %s", c.name, ep.Ty, c.ty)
		}
		if len(ep.Path) != len(c.path) {
			t.Fatalf("%q path length %d, want %d", c.name, len(ep.Path), len(c.path))
		}
		for i := range c.path {
			if ep.Path[i] != c.path[i] {
				t.Errorf("%q path[%d] = %v, want %v", c.name, i, ep.Path[i], c.path[i])
			}
		}
	}
}

func TestEntrypointImplicitDefault(t *testing.T) {
	root := paramTree(t)
	tab, err := NewEntrypointTable(root)
	if err != nil {
		t.Fatal(err)
	}
	ep, ok := tab.Resolve("")
	if !ok {
		t.Fatal("empty name did not resolve to default")
	}
	if !ep.Ty.Equal(root) {
		t.Errorf("implicit default type = %s, want root %s", ep.Ty, root)
	}
	if len(ep.Path) != 0 {
		t.Errorf("implicit default path = %v, want empty", ep.Path)
	}
}

func TestEntrypointExplicitDefault(t *testing.T) {
	root := mustParseTy(t, prim("or",
		prim("int").WithAnnots("%default"),
		prim("unit").WithAnnots("%other")))
	tab, err := NewEntrypointTable(root)
	if err != nil {
		t.Fatal(err)
	}
	ep, ok := tab.Resolve("default")
	if !ok {
		t.Fatal("default not found")
	}
	if !ep.Ty.Equal(IntT()) {
		t.Errorf("explicit default type = %s, want int", ep.Ty)
	}
	if len(ep.Path) != 1 || ep.Path[0] {
		t.Errorf("explicit default path = %v, want [Left]", ep.Path)
	}
}

func TestEntrypointDuplicateRejected(t *testing.T) {
	root := mustParseTy(t, prim("or",
		prim("int").WithAnnots("%dup"),
		prim("unit").WithAnnots("%dup")))
	if _, err := NewEntrypointTable(root); err == nil {
		t.Fatal("duplicate entrypoint name accepted")
	}
}

func TestEntrypointWrap(t *testing.T) {
	tab, err := NewEntrypointTable(paramTree(t))
	if err != nil {
		t.Fatal(err)
	}
	v, err := tab.Wrap("reset", UnitV{})
	if err != nil {
		t.Fatal(err)
	}
	// reset sits at Left (Right _).
	outer, ok := v.(OrV)
	if !ok || outer.IsRight {
		t.Fatalf("outer injection = %#v, want Left", v)
	}
	inner, ok := outer.V.(OrV)
	if !ok || !inner.IsRight {
		t.Fatalf("inner injection = %#v, want Right", outer.V)
	}
	if _, ok := inner.V.(UnitV); !ok {
		t.Errorf("wrapped payload = %#v, want UnitV", inner.V)
	}
}

func TestEntrypointWrapUnknown(t *testing.T) {
	tab, err := NewEntrypointTable(paramTree(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tab.Wrap("nope", UnitV{}); err == nil {
		t.Fatal("unknown entrypoint accepted")
	}
}

func TestFindEntrypointTy(t *testing.T) {
	ty, ok := FindEntrypointTy(paramTree(t), "add")
	if !ok || !ty.Equal(IntT()) {
		t.Fatalf("FindEntrypointTy(add) = %s, %v", ty, ok)
	}
	if _, ok := FindEntrypointTy(paramTree(t), "missing"); ok {
		t.Fatal("missing entrypoint resolved")
	}
}
