package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/stacknet-protocol/stackvm/common"
)

// KeyCurve tags the signature scheme of a public key.
type KeyCurve byte

const (
	CurveEd25519   KeyCurve = 0x00
	CurveSecp256k1 KeyCurve = 0x01
	CurveP256      KeyCurve = 0x02
)

// PublicKey is a curve tag plus the raw public key bytes of that scheme.
type PublicKey struct {
	Curve KeyCurve
	Data  []byte
}

// Bytes returns the optimized encoding: curve tag followed by the raw key.
func (k PublicKey) Bytes() []byte {
	return append([]byte{byte(k.Curve)}, k.Data...)
}

func (k PublicKey) String() string {
	return "pub" + hex.EncodeToString(k.Bytes())
}

func (k PublicKey) Equal(o PublicKey) bool {
	return k.Curve == o.Curve && bytes.Equal(k.Data, o.Data)
}

// Compare orders keys by their optimized encoding.
func (k PublicKey) Compare(o PublicKey) int {
	return bytes.Compare(k.Bytes(), o.Bytes())
}

// Hash returns the key hash: curve tag plus blake2b-160 of the raw key.
func (k PublicKey) Hash() KeyHash {
	return KeyHash{Curve: k.Curve, Body: common.Blake2b160(k.Data)}
}

func ParsePublicKey(s string) (PublicKey, error) {
	if !strings.HasPrefix(s, "pub") {
		return PublicKey{}, fmt.Errorf("core: bad public key %q", s)
	}
	b, err := hex.DecodeString(s[3:])
	if err != nil || len(b) < 2 {
		return PublicKey{}, fmt.Errorf("core: bad public key %q", s)
	}
	return PublicKeyFromBytes(b)
}

func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	if len(b) < 2 {
		return PublicKey{}, fmt.Errorf("core: public key too short")
	}
	c := KeyCurve(b[0])
	if c != CurveEd25519 && c != CurveSecp256k1 && c != CurveP256 {
		return PublicKey{}, fmt.Errorf("core: bad key curve 0x%02x", b[0])
	}
	return PublicKey{Curve: c, Data: append([]byte(nil), b[1:]...)}, nil
}

// KeyHash is the 20-byte hash of a public key, tagged with its curve.
type KeyHash struct {
	Curve KeyCurve
	Body  [common.AddressSize]byte
}

func (h KeyHash) Bytes() []byte {
	return append([]byte{byte(h.Curve)}, h.Body[:]...)
}

func (h KeyHash) String() string {
	return "kh" + hex.EncodeToString(h.Bytes())
}

func (h KeyHash) Compare(o KeyHash) int {
	return bytes.Compare(h.Bytes(), o.Bytes())
}

// Address returns the implicit account controlled by the key.
func (h KeyHash) Address() Address {
	return Address{Kind: AddrImplicit, Body: h.Body}
}

func ParseKeyHash(s string) (KeyHash, error) {
	if !strings.HasPrefix(s, "kh") {
		return KeyHash{}, fmt.Errorf("core: bad key hash %q", s)
	}
	b, err := hex.DecodeString(s[2:])
	if err != nil {
		return KeyHash{}, err
	}
	return KeyHashFromBytes(b)
}

func KeyHashFromBytes(b []byte) (KeyHash, error) {
	if len(b) != 1+common.AddressSize {
		return KeyHash{}, fmt.Errorf("core: key hash must be %d bytes", 1+common.AddressSize)
	}
	h := KeyHash{Curve: KeyCurve(b[0])}
	copy(h.Body[:], b[1:])
	return h, nil
}

// Signature is an opaque signature blob; the scheme is carried by the key it
// is checked against.
type Signature []byte

func (s Signature) String() string {
	return "sig" + hex.EncodeToString(s)
}

func (s Signature) Compare(o Signature) int {
	return bytes.Compare(s, o)
}

func ParseSignature(str string) (Signature, error) {
	if !strings.HasPrefix(str, "sig") {
		return nil, fmt.Errorf("core: bad signature %q", str)
	}
	b, err := hex.DecodeString(str[3:])
	if err != nil {
		return nil, err
	}
	return Signature(b), nil
}

// ChainID identifies the chain a signature or operation is bound to.
type ChainID [4]byte

func (c ChainID) Bytes() []byte { return c[:] }

func (c ChainID) String() string {
	return "net" + hex.EncodeToString(c[:])
}

func (c ChainID) Compare(o ChainID) int {
	return bytes.Compare(c[:], o[:])
}

func ParseChainID(s string) (ChainID, error) {
	var c ChainID
	if !strings.HasPrefix(s, "net") {
		return c, fmt.Errorf("core: bad chain id %q", s)
	}
	b, err := hex.DecodeString(s[3:])
	if err != nil || len(b) != len(c) {
		return c, fmt.Errorf("core: bad chain id %q", s)
	}
	copy(c[:], b)
	return c, nil
}
