package mvm

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/bls12381"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/stacknet-protocol/stackvm/common"
	"github.com/stacknet-protocol/stackvm/core"
)

// Crypto is the cryptographic collaborator of the evaluator. The default
// implementation covers the production schemes; tests may substitute a
// deterministic fake.
type Crypto interface {
	Blake2b(b []byte) []byte
	Sha256(b []byte) []byte
	Sha512(b []byte) []byte
	Keccak(b []byte) []byte
	Sha3(b []byte) []byte

	// CheckSignature verifies msg against sig under key's scheme. A
	// malformed key or signature is a verification failure, not an error;
	// errors are reserved for unsupported schemes.
	CheckSignature(key core.PublicKey, sig core.Signature, msg []byte) (bool, error)

	PairingCheck(pairs [][2][]byte) (bool, error)
	G1Add(a, b []byte) ([]byte, error)
	G2Add(a, b []byte) ([]byte, error)
	G1Neg(a []byte) ([]byte, error)
	G2Neg(a []byte) ([]byte, error)
	G1Mul(p []byte, scalar *uint256.Int) ([]byte, error)
	G2Mul(p []byte, scalar *uint256.Int) ([]byte, error)

	// VerifySaplingUpdate checks a shielded transaction against a pool
	// state, returning the transparent balance delta and the successor
	// state.
	VerifySaplingUpdate(state SaplingStateV, tx SaplingTxV) (*big.Int, SaplingStateV, bool)

	// OpenChest recovers the chest payload with a time-lock key; ok is
	// false when the key does not open the chest.
	OpenChest(key ChestKeyV, chest ChestV, timeBound *big.Int) ([]byte, bool)
}

// DefaultCrypto is the production Crypto implementation.
type DefaultCrypto struct{}

func (DefaultCrypto) Blake2b(b []byte) []byte {
	h := common.Blake2b256(b)
	return h[:]
}

func (DefaultCrypto) Sha256(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}

func (DefaultCrypto) Sha512(b []byte) []byte {
	h := sha512.Sum512(b)
	return h[:]
}

func (DefaultCrypto) Keccak(b []byte) []byte {
	return crypto.Keccak256(b)
}

func (DefaultCrypto) Sha3(b []byte) []byte {
	h := sha3.Sum256(b)
	return h[:]
}

func (DefaultCrypto) CheckSignature(key core.PublicKey, sig core.Signature, msg []byte) (bool, error) {
	switch key.Curve {
	case core.CurveEd25519:
		if len(key.Data) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
			return false, nil
		}
		return ed25519.Verify(ed25519.PublicKey(key.Data), msg, sig), nil

	case core.CurveSecp256k1:
		if len(sig) != 64 {
			return false, nil
		}
		digest := common.Blake2b256(msg)
		return crypto.VerifySignature(key.Data, digest[:], sig), nil

	case core.CurveP256:
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), key.Data)
		if x == nil || len(sig) != 64 {
			return false, nil
		}
		digest := common.Blake2b256(msg)
		pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
		r := new(big.Int).SetBytes(sig[:32])
		ss := new(big.Int).SetBytes(sig[32:])
		return ecdsa.Verify(pub, digest[:], r, ss), nil
	}
	return false, errors.New("unsupported signature scheme")
}

func (DefaultCrypto) PairingCheck(pairs [][2][]byte) (bool, error) {
	engine := bls12381.NewPairingEngine()
	for _, p := range pairs {
		p1, err := engine.G1.FromBytes(p[0])
		if err != nil {
			return false, err
		}
		p2, err := engine.G2.FromBytes(p[1])
		if err != nil {
			return false, err
		}
		engine.AddPair(p1, p2)
	}
	return engine.Check(), nil
}

func (DefaultCrypto) G1Add(a, b []byte) ([]byte, error) {
	g := bls12381.NewG1()
	pa, err := g.FromBytes(a)
	if err != nil {
		return nil, err
	}
	pb, err := g.FromBytes(b)
	if err != nil {
		return nil, err
	}
	r := g.New()
	g.Add(r, pa, pb)
	return g.ToBytes(r), nil
}

func (DefaultCrypto) G2Add(a, b []byte) ([]byte, error) {
	g := bls12381.NewG2()
	pa, err := g.FromBytes(a)
	if err != nil {
		return nil, err
	}
	pb, err := g.FromBytes(b)
	if err != nil {
		return nil, err
	}
	r := g.New()
	g.Add(r, pa, pb)
	return g.ToBytes(r), nil
}

func (DefaultCrypto) G1Neg(a []byte) ([]byte, error) {
	g := bls12381.NewG1()
	p, err := g.FromBytes(a)
	if err != nil {
		return nil, err
	}
	r := g.New()
	g.Neg(r, p)
	return g.ToBytes(r), nil
}

func (DefaultCrypto) G2Neg(a []byte) ([]byte, error) {
	g := bls12381.NewG2()
	p, err := g.FromBytes(a)
	if err != nil {
		return nil, err
	}
	r := g.New()
	g.Neg(r, p)
	return g.ToBytes(r), nil
}

func (DefaultCrypto) G1Mul(p []byte, scalar *uint256.Int) ([]byte, error) {
	g := bls12381.NewG1()
	pt, err := g.FromBytes(p)
	if err != nil {
		return nil, err
	}
	r := g.New()
	g.MulScalar(r, pt, scalar.ToBig())
	return g.ToBytes(r), nil
}

func (DefaultCrypto) G2Mul(p []byte, scalar *uint256.Int) ([]byte, error) {
	g := bls12381.NewG2()
	pt, err := g.FromBytes(p)
	if err != nil {
		return nil, err
	}
	r := g.New()
	g.MulScalar(r, pt, scalar.ToBig())
	return g.ToBytes(r), nil
}

// VerifySaplingUpdate rejects every transaction: the shielded-pool circuit
// is not wired in this build, and refusing updates keeps the instruction's
// None path honest instead of minting unverified balance.
func (DefaultCrypto) VerifySaplingUpdate(SaplingStateV, SaplingTxV) (*big.Int, SaplingStateV, bool) {
	return nil, SaplingStateV{}, false
}

// OpenChest implements the commitment form of a chest: a 32-byte blake2b
// commitment to the key followed by the payload. A key opens the chest iff
// it hashes to the commitment.
func (DefaultCrypto) OpenChest(key ChestKeyV, chest ChestV, _ *big.Int) ([]byte, bool) {
	if len(chest) < common.HashSize {
		return nil, false
	}
	h := common.Blake2b256(key)
	if h != sliceToHash(chest[:common.HashSize]) {
		return nil, false
	}
	return append([]byte(nil), chest[common.HashSize:]...), true
}

func sliceToHash(b []byte) common.Hash {
	var h common.Hash
	copy(h[:], b)
	return h
}

// SealChest is the inverse of OpenChest, used when constructing chests.
func SealChest(key ChestKeyV, payload []byte) ChestV {
	h := common.Blake2b256(key)
	return ChestV(append(h[:], payload...))
}
