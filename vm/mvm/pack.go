package mvm

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stacknet-protocol/stackvm/micheline"
	"github.com/stacknet-protocol/stackvm/params"
)

// Codec turns values into the canonical byte form used by PACK, UNPACK and
// big_map key hashing. Encodings are versioned by a leading tag byte so a
// format change cannot be confused with old data.
type Codec interface {
	// Pack serializes v at type ty, charging gas per output byte.
	Pack(g *Gas, v Value, ty *Ty) ([]byte, error)

	// Unpack parses data at type ty. ok is false for any malformed input;
	// errors are reserved for gas exhaustion.
	Unpack(g *Gas, data []byte, ty *Ty) (Value, bool, error)
}

// packVersion prefixes every packed blob.
const packVersion = 0x05

// DefaultCodec encodes the literal tree of a value in RLP behind the
// version byte. The rendering of lambdas through instrToNode is
// deterministic, so equal values pack to equal bytes.
type DefaultCodec struct{}

func (DefaultCodec) Pack(g *Gas, v Value, ty *Ty) ([]byte, error) {
	node, err := EncodeValue(v, ty)
	if err != nil {
		return nil, &RuntimeError{Msg: err.Error()}
	}
	raw, err := rlp.EncodeToBytes(nodeToRLP(node))
	if err != nil {
		return nil, &RuntimeError{Msg: err.Error()}
	}
	out := append([]byte{packVersion}, raw...)
	if err := g.Consume(uint64(len(out)) * params.PackByteGas); err != nil {
		return nil, err
	}
	return out, nil
}

func (DefaultCodec) Unpack(g *Gas, data []byte, ty *Ty) (Value, bool, error) {
	if err := g.Consume(uint64(len(data)) * params.PackByteGas); err != nil {
		return nil, false, err
	}
	if len(data) == 0 || data[0] != packVersion {
		return nil, false, nil
	}
	s := rlp.NewStream(bytes.NewReader(data[1:]), uint64(len(data)))
	node, err := rlpToNode(s)
	if err != nil {
		return nil, false, nil
	}
	v, err := DecodeValue(g, node, ty)
	if err != nil {
		if err == ErrOutOfGas {
			return nil, false, err
		}
		return nil, false, nil
	}
	return v, true, nil
}

// Node tags inside the RLP framing.
const (
	rlpTagInt    = "i"
	rlpTagString = "s"
	rlpTagBytes  = "b"
	rlpTagSeq    = "q"
	rlpTagPrim   = "p"
)

func nodeToRLP(n micheline.Node) interface{} {
	switch x := n.(type) {
	case *micheline.Int:
		return []interface{}{rlpTagInt, x.Value.Text(10)}
	case *micheline.String:
		return []interface{}{rlpTagString, x.Value}
	case *micheline.Bytes:
		return []interface{}{rlpTagBytes, x.Value}
	case *micheline.Seq:
		items := make([]interface{}, len(x.Items))
		for i, it := range x.Items {
			items[i] = nodeToRLP(it)
		}
		return []interface{}{rlpTagSeq, items}
	case *micheline.Prim:
		args := make([]interface{}, len(x.Args))
		for i, a := range x.Args {
			args[i] = nodeToRLP(a)
		}
		annots := make([]interface{}, len(x.Annots))
		for i, a := range x.Annots {
			annots[i] = a
		}
		return []interface{}{rlpTagPrim, x.Name, annots, args}
	}
	return []interface{}{}
}

var errBadPack = errors.New("mvm: malformed packed data")

func rlpToNode(s *rlp.Stream) (micheline.Node, error) {
	if _, err := s.List(); err != nil {
		return nil, err
	}
	tag, err := s.Bytes()
	if err != nil {
		return nil, err
	}
	var node micheline.Node
	switch string(tag) {
	case rlpTagInt:
		txt, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		v, ok := new(big.Int).SetString(string(txt), 10)
		if !ok {
			return nil, errBadPack
		}
		node = micheline.NewBig(v)
	case rlpTagString:
		v, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		node = micheline.NewString(string(v))
	case rlpTagBytes:
		v, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		node = micheline.NewBytes(v)
	case rlpTagSeq:
		items, err := rlpNodeList(s)
		if err != nil {
			return nil, err
		}
		node = micheline.NewSeq(items...)
	case rlpTagPrim:
		name, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		annots, err := rlpStringList(s)
		if err != nil {
			return nil, err
		}
		args, err := rlpNodeList(s)
		if err != nil {
			return nil, err
		}
		p := micheline.NewPrim(string(name), args...)
		p.Annots = annots
		node = p
	default:
		return nil, errBadPack
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	return node, nil
}

func rlpNodeList(s *rlp.Stream) ([]micheline.Node, error) {
	if _, err := s.List(); err != nil {
		return nil, err
	}
	var out []micheline.Node
	for {
		if _, _, err := s.Kind(); err == rlp.EOL {
			break
		} else if err != nil {
			return nil, err
		}
		n, err := rlpToNode(s)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	return out, nil
}

func rlpStringList(s *rlp.Stream) ([]string, error) {
	if _, err := s.List(); err != nil {
		return nil, err
	}
	var out []string
	for {
		if _, _, err := s.Kind(); err == rlp.EOL {
			break
		} else if err != nil {
			return nil, err
		}
		b, err := s.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, string(b))
	}
	if err := s.ListEnd(); err != nil {
		return nil, err
	}
	return out, nil
}
