package mvm

import (
	"bytes"
	"crypto/ed25519"
	"testing"

	"github.com/stacknet-protocol/stackvm/core"
)

// testEd25519 derives a fixed keypair and signs msg with it.
func testEd25519(msg []byte) (core.PublicKey, core.Signature) {
	seed := bytes.Repeat([]byte{7}, ed25519.SeedSize)
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	sig := ed25519.Sign(priv, msg)
	return core.PublicKey{Curve: core.CurveEd25519, Data: pub}, core.Signature(sig)
}

func TestCheckSignatureEd25519(t *testing.T) {
	var c DefaultCrypto
	pub, sig := testEd25519([]byte("msg"))

	ok, err := c.CheckSignature(pub, sig, []byte("msg"))
	if err != nil || !ok {
		t.Fatalf("valid signature: ok=%v err=%v", ok, err)
	}
	ok, err = c.CheckSignature(pub, sig, []byte("other"))
	if err != nil || ok {
		t.Fatalf("wrong message: ok=%v err=%v", ok, err)
	}

	// Truncated material is a verification failure, not an error.
	ok, err = c.CheckSignature(pub, sig[:10], []byte("msg"))
	if err != nil || ok {
		t.Fatalf("short signature: ok=%v err=%v", ok, err)
	}
}

func TestCheckSignatureUnknownScheme(t *testing.T) {
	var c DefaultCrypto
	key := core.PublicKey{Curve: core.KeyCurve(0x7f), Data: []byte{1, 2}}
	if _, err := c.CheckSignature(key, core.Signature{}, nil); err == nil {
		t.Fatal("unknown scheme did not error")
	}
}

func TestHashLengths(t *testing.T) {
	var c DefaultCrypto
	msg := []byte("input")
	cases := []struct {
		name string
		fn   func([]byte) []byte
		n    int
	}{
		{"blake2b", c.Blake2b, 32},
		{"sha256", c.Sha256, 32},
		{"sha512", c.Sha512, 64},
		{"keccak", c.Keccak, 32},
		{"sha3", c.Sha3, 32},
	}
	for _, cs := range cases {
		if got := len(cs.fn(msg)); got != cs.n {
			t.Errorf("%s digest length %d, want %d", cs.name, got, cs.n)
		}
	}
	if bytes.Equal(c.Sha256(msg), c.Sha3(msg)) {
		t.Error("sha256 and sha3-256 should differ")
	}
}

func TestChestRoundTrip(t *testing.T) {
	var c DefaultCrypto
	key := ChestKeyV("secret key material")
	chest := SealChest(key, []byte("hidden payload"))

	got, ok := c.OpenChest(key, chest, nil)
	if !ok {
		t.Fatal("matching key did not open the chest")
	}
	if !bytes.Equal(got, []byte("hidden payload")) {
		t.Errorf("payload = %q", got)
	}

	if _, ok := c.OpenChest(ChestKeyV("wrong"), chest, nil); ok {
		t.Error("wrong key opened the chest")
	}
	if _, ok := c.OpenChest(key, ChestV("short"), nil); ok {
		t.Error("truncated chest opened")
	}
}

func TestSaplingUpdateAlwaysRefused(t *testing.T) {
	var c DefaultCrypto
	_, _, ok := c.VerifySaplingUpdate(SaplingStateV{MemoSize: 8}, SaplingTxV{Data: []byte{1}, MemoSize: 8})
	if ok {
		t.Fatal("sapling verification unexpectedly succeeded")
	}
}
