package common

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
)

// HashSize is the byte length of the full digests used for script hashes
// and big-map key hashes.
const HashSize = 32

// AddressSize is the byte length of the short digests used for key hashes
// and contract address bodies.
const AddressSize = 20

// Hash is a 32-byte digest.
type Hash [HashSize]byte

// Blake2b256 returns the 32-byte blake2b digest of data. It is the canonical
// hash of the engine: script hashes, big-map key hashes and the BLAKE2B
// instruction all use it.
func Blake2b256(data []byte) Hash {
	return blake2b.Sum256(data)
}

// Blake2b160 returns the 20-byte blake2b digest of data, used for key hashes
// and contract address derivation.
func Blake2b160(data []byte) [AddressSize]byte {
	h, _ := blake2b.New(AddressSize, nil)
	h.Write(data)
	var out [AddressSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Keccak256 returns the 32-byte keccak digest of data.
func Keccak256(data []byte) Hash {
	var out Hash
	copy(out[:], crypto.Keccak256(data))
	return out
}

func Uint64ToByte(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}

func ByteToUint64(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}
