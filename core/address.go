package core

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/stacknet-protocol/stackvm/common"
)

// AddressKind distinguishes implicit (key-hash backed) accounts from
// originated contracts.
type AddressKind byte

const (
	AddrImplicit   AddressKind = 0x00
	AddrOriginated AddressKind = 0x01
)

// Address identifies an account. At the protocol boundary an address may
// additionally name an entrypoint of the target contract; the empty string
// means the default entrypoint.
type Address struct {
	Kind       AddressKind
	Body       [common.AddressSize]byte
	Entrypoint string
}

// readable prefixes for the two address kinds.
const (
	addrImplicitPrefix   = "acc1"
	addrOriginatedPrefix = "ctr1"
)

// Bytes returns the optimized (canonical) encoding: a kind byte, the 20-byte
// body, and for a non-default entrypoint a '%' separator followed by the
// entrypoint name. The optimized form is what hashing, packing and
// comparison operate on.
func (a Address) Bytes() []byte {
	out := make([]byte, 0, 1+common.AddressSize+1+len(a.Entrypoint))
	out = append(out, byte(a.Kind))
	out = append(out, a.Body[:]...)
	if a.Entrypoint != "" {
		out = append(out, '%')
		out = append(out, a.Entrypoint...)
	}
	return out
}

// String returns the readable form, e.g. acc1<hex> or ctr1<hex>%entrypoint.
func (a Address) String() string {
	prefix := addrImplicitPrefix
	if a.Kind == AddrOriginated {
		prefix = addrOriginatedPrefix
	}
	s := prefix + hex.EncodeToString(a.Body[:])
	if a.Entrypoint != "" {
		s += "%" + a.Entrypoint
	}
	return s
}

// ContractOnly strips the entrypoint, leaving the bare account identity.
func (a Address) ContractOnly() Address {
	a.Entrypoint = ""
	return a
}

// Equal reports account-and-entrypoint equality.
func (a Address) Equal(b Address) bool {
	return a.Kind == b.Kind && a.Body == b.Body && a.Entrypoint == b.Entrypoint
}

// Compare orders addresses by their optimized encoding.
func (a Address) Compare(b Address) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// ParseAddress accepts the readable form produced by String.
func ParseAddress(s string) (Address, error) {
	var a Address
	switch {
	case strings.HasPrefix(s, addrImplicitPrefix):
		a.Kind = AddrImplicit
	case strings.HasPrefix(s, addrOriginatedPrefix):
		a.Kind = AddrOriginated
	default:
		return a, fmt.Errorf("core: bad address %q", s)
	}
	s = s[len(addrImplicitPrefix):]
	if i := strings.IndexByte(s, '%'); i >= 0 {
		a.Entrypoint = s[i+1:]
		s = s[:i]
		if a.Entrypoint == "" {
			return a, fmt.Errorf("core: empty entrypoint in address")
		}
	}
	body, err := hex.DecodeString(s)
	if err != nil || len(body) != common.AddressSize {
		return a, fmt.Errorf("core: bad address body %q", s)
	}
	copy(a.Body[:], body)
	return a, nil
}

// AddressFromBytes decodes the optimized form.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) < 1+common.AddressSize {
		return a, fmt.Errorf("core: address too short")
	}
	if k := AddressKind(b[0]); k != AddrImplicit && k != AddrOriginated {
		return a, fmt.Errorf("core: bad address kind 0x%02x", b[0])
	} else {
		a.Kind = k
	}
	copy(a.Body[:], b[1:1+common.AddressSize])
	rest := b[1+common.AddressSize:]
	if len(rest) > 0 {
		if rest[0] != '%' || len(rest) == 1 {
			return a, fmt.Errorf("core: bad entrypoint suffix")
		}
		a.Entrypoint = string(rest[1:])
	}
	return a, nil
}

// DeriveContractAddress derives the address of a contract originated by the
// given operation: blake2b-160 over the originating account and its
// per-operation origination nonce.
func DeriveContractAddress(origin Address, nonce uint64) Address {
	buf := append(origin.ContractOnly().Bytes(), common.Uint64ToByte(nonce)...)
	return Address{Kind: AddrOriginated, Body: common.Blake2b160(buf)}
}
