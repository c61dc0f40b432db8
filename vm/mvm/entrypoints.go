package mvm

// Entrypoint resolution. A contract's parameter type is a tree of or
// constructors whose field annotations name entrypoints. The table is built
// once at typechecking (duplicate names reject the script) and consulted at
// every call to wrap the argument in the Left/Right chain leading to the
// named branch.

// Entrypoint is one named branch of the parameter disjunction. Path lists
// the injections from the root: false for Left, true for Right.
type Entrypoint struct {
	Name string
	Ty   *Ty
	Path []bool
}

// EntrypointTable maps entrypoint names to their branch.
type EntrypointTable struct {
	root    *Ty
	entries map[string]Entrypoint
	// explicitDefault is set when some branch is annotated %default, which
	// displaces the implicit root default.
	explicitDefault bool
}

// NewEntrypointTable walks the or tree of paramTy depth first, collecting
// constructor annotations. A name occurring twice is a TypeError.
func NewEntrypointTable(paramTy *Ty) (*EntrypointTable, error) {
	t := &EntrypointTable{root: paramTy, entries: make(map[string]Entrypoint)}
	if err := t.collect(paramTy, nil); err != nil {
		return nil, err
	}
	if _, ok := t.entries["default"]; ok {
		t.explicitDefault = true
	} else {
		t.entries["default"] = Entrypoint{Name: "default", Ty: paramTy}
	}
	return t, nil
}

func (t *EntrypointTable) collect(ty *Ty, path []bool) error {
	if ty.Kind != TyOr {
		return nil
	}
	for i, side := range ty.Args {
		branch := append(append([]bool(nil), path...), i == 1)
		if name := ty.field(i); name != "" {
			if _, dup := t.entries[name]; dup {
				return typeErrorf("parameter", "duplicate entrypoint %q", name)
			}
			t.entries[name] = Entrypoint{Name: name, Ty: side, Path: branch}
		}
		if err := t.collect(side, branch); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the entrypoint for name; the empty name means "default".
func (t *EntrypointTable) Resolve(name string) (Entrypoint, bool) {
	if name == "" {
		name = "default"
	}
	ep, ok := t.entries[name]
	return ep, ok
}

// Wrap produces the single value the contract's code receives for a call to
// the named entrypoint with argument v.
func (t *EntrypointTable) Wrap(name string, v Value) (Value, error) {
	ep, ok := t.Resolve(name)
	if !ok {
		return nil, typeErrorf("parameter", "no entrypoint %q", name)
	}
	for i := len(ep.Path) - 1; i >= 0; i-- {
		v = OrV{IsRight: ep.Path[i], V: v}
	}
	return v, nil
}

// Root returns the full parameter type.
func (t *EntrypointTable) Root() *Ty { return t.root }

// FindEntrypointTy looks up the type of a named entrypoint in an arbitrary
// parameter type, as CONTRACT %name does against a foreign contract.
func FindEntrypointTy(paramTy *Ty, name string) (*Ty, bool) {
	tab, err := NewEntrypointTable(paramTy)
	if err != nil {
		return nil, false
	}
	ep, ok := tab.Resolve(name)
	if !ok {
		return nil, false
	}
	return ep.Ty, true
}
