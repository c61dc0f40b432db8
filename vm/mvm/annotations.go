package mvm

// Annotation handling. Field (%) and type (:) annotations are load-bearing
// in type equality and entrypoint resolution; variable (@) annotations are
// display-only refinements and are validated then ignored.

type annotSet struct {
	typeName string   // :name, at most one
	fields   []string // %name, in source order
	vars     []string // @name, in source order
}

func legalAnnotBody(s string) bool {
	if len(s) > 254 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		ok := c == '_' || c == '.' ||
			(c >= '0' && c <= '9') ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !ok {
			return false
		}
	}
	return true
}

// splitAnnots validates and buckets a raw annotation list. A malformed
// annotation is a TypeError for the whole program.
func splitAnnots(prim string, raw []string) (annotSet, error) {
	var out annotSet
	for _, a := range raw {
		if len(a) == 0 {
			return out, typeErrorf(prim, "empty annotation")
		}
		body := a[1:]
		// %@ ("the parameter") and bare % are legal field annotations.
		if a[0] == '%' && (body == "" || body == "@") {
			out.fields = append(out.fields, body)
			continue
		}
		if !legalAnnotBody(body) {
			return out, typeErrorf(prim, "malformed annotation %q", a)
		}
		switch a[0] {
		case ':':
			if out.typeName != "" {
				return out, typeErrorf(prim, "multiple type annotations")
			}
			out.typeName = body
		case '%':
			out.fields = append(out.fields, body)
		case '@':
			out.vars = append(out.vars, body)
		default:
			return out, typeErrorf(prim, "malformed annotation %q", a)
		}
	}
	return out, nil
}

// fieldAnnot returns the single field annotation of an instruction like
// SELF %ep or CONTRACT %ep, or "" when absent.
func fieldAnnot(prim string, raw []string) (string, error) {
	as, err := splitAnnots(prim, raw)
	if err != nil {
		return "", err
	}
	if len(as.fields) > 1 {
		return "", typeErrorf(prim, "at most one field annotation expected")
	}
	if len(as.fields) == 1 {
		return as.fields[0], nil
	}
	return "", nil
}
