package micheline

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
)

// The JSON wire shape is fixed by the protocol: {"int":"<dec>"},
// {"string":"<s>"}, {"bytes":"<hex>"}, arrays for sequences, and
// {"prim":"<name>","args":[...],"annots":[...]}.

type jsonNode struct {
	Int    *string           `json:"int,omitempty"`
	Str    *string           `json:"string,omitempty"`
	Bytes  *string           `json:"bytes,omitempty"`
	Prim   string            `json:"prim,omitempty"`
	Args   []json.RawMessage `json:"args,omitempty"`
	Annots []string          `json:"annots,omitempty"`
}

func (n *Int) MarshalJSON() ([]byte, error) {
	s := n.Value.String()
	return json.Marshal(jsonNode{Int: &s})
}

func (n *String) MarshalJSON() ([]byte, error) {
	if !ValidString(n.Value) {
		return nil, fmt.Errorf("micheline: non-printable string literal")
	}
	s := n.Value
	return json.Marshal(jsonNode{Str: &s})
}

func (n *Bytes) MarshalJSON() ([]byte, error) {
	s := hex.EncodeToString(n.Value)
	return json.Marshal(jsonNode{Bytes: &s})
}

func (n *Seq) MarshalJSON() ([]byte, error) {
	items := n.Items
	if items == nil {
		items = []Node{}
	}
	return json.Marshal(items)
}

func (n *Prim) MarshalJSON() ([]byte, error) {
	raw := struct {
		Prim   string   `json:"prim"`
		Args   []Node   `json:"args,omitempty"`
		Annots []string `json:"annots,omitempty"`
	}{Prim: n.Name, Args: n.Args, Annots: n.Annots}
	return json.Marshal(raw)
}

// DecodeJSON parses the JSON encoding of a generic tree. Malformed input is
// a SyntaxError-class failure: it is rejected before any typing happens.
func DecodeJSON(data []byte) (Node, error) {
	return decodeRaw(json.RawMessage(data))
}

func decodeRaw(raw json.RawMessage) (Node, error) {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, err
			}
			seq := &Seq{Items: make([]Node, len(items))}
			for i, it := range items {
				n, err := decodeRaw(it)
				if err != nil {
					return nil, err
				}
				seq.Items[i] = n
			}
			return seq, nil
		case '{':
			return decodeObject(raw)
		default:
			return nil, fmt.Errorf("micheline: unexpected JSON value %q", raw)
		}
	}
	return nil, fmt.Errorf("micheline: empty JSON value")
}

func decodeObject(raw json.RawMessage) (Node, error) {
	var obj jsonNode
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	switch {
	case obj.Int != nil:
		v, ok := new(big.Int).SetString(*obj.Int, 10)
		if !ok {
			return nil, fmt.Errorf("micheline: bad int literal %q", *obj.Int)
		}
		return &Int{Value: v}, nil
	case obj.Str != nil:
		if !ValidString(*obj.Str) {
			return nil, fmt.Errorf("micheline: non-printable string literal %q", *obj.Str)
		}
		return &String{Value: *obj.Str}, nil
	case obj.Bytes != nil:
		b, err := hex.DecodeString(*obj.Bytes)
		if err != nil {
			return nil, fmt.Errorf("micheline: bad bytes literal %q", *obj.Bytes)
		}
		return &Bytes{Value: b}, nil
	case obj.Prim != "":
		// Unknown primitive names are accepted here and rejected by the
		// typechecker; decoding only fixes the tree shape.
		p := &Prim{Name: obj.Prim, Annots: obj.Annots}
		p.Args = make([]Node, len(obj.Args))
		for i, a := range obj.Args {
			n, err := decodeRaw(a)
			if err != nil {
				return nil, err
			}
			p.Args[i] = n
		}
		return p, nil
	}
	return nil, fmt.Errorf("micheline: object is not a tree node")
}
