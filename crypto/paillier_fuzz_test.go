package crypto

import (
	"math/big"
	"sync"
	"testing"
)

var (
	fuzzKeyOnce sync.Once
	fuzzPub     *PublicKey
	fuzzPriv    *PrivateKey
)

func fuzzKeypair(t testing.TB) (*PublicKey, *PrivateKey) {
	fuzzKeyOnce.Do(func() {
		var err error
		fuzzPub, fuzzPriv, err = GenerateKeypair(128)
		if err != nil {
			t.Fatalf("keypair generation failed: %v", err)
		}
	})
	return fuzzPub, fuzzPriv
}

func FuzzEncryptDecryptRoundTrip(f *testing.F) {
	f.Add(uint64(0))
	f.Add(uint64(1))
	f.Add(uint64(2))
	f.Add(uint64(1<<63 - 1))

	f.Fuzz(func(t *testing.T, m uint64) {
		pub, priv := fuzzKeypair(t)
		plain := new(big.Int).SetUint64(m)
		plain.Mod(plain, pub.N)

		c, err := Encrypt(pub, plain)
		if err != nil {
			t.Fatalf("encryption failed: %v", err)
		}

		// Invariant 1: ciphertext lies in [0, n^2)
		if c.Sign() < 0 || c.Cmp(pub.NSquared()) >= 0 {
			t.Fatalf("ciphertext out of range")
		}

		// Invariant 2: decryption recovers the plaintext
		got := Decrypt(priv, c)
		if got.Cmp(plain) != 0 {
			t.Fatalf("round trip mismatch: got %s, want %s", got, plain)
		}
	})
}

func FuzzHomomorphicAdd(f *testing.F) {
	f.Add(uint64(0), uint64(0))
	f.Add(uint64(1), uint64(1))
	f.Add(uint64(12345), uint64(67890))

	f.Fuzz(func(t *testing.T, a, b uint64) {
		pub, priv := fuzzKeypair(t)

		// Keep a+b well below n so the sum does not wrap.
		ma := new(big.Int).SetUint64(a)
		mb := new(big.Int).SetUint64(b)

		ca, err := Encrypt(pub, ma)
		if err != nil {
			t.Fatalf("encrypting a: %v", err)
		}
		cb, err := Encrypt(pub, mb)
		if err != nil {
			t.Fatalf("encrypting b: %v", err)
		}

		got := Decrypt(priv, Add(pub, ca, cb))
		want := new(big.Int).Add(ma, mb)
		if got.Cmp(want) != 0 {
			t.Fatalf("homomorphic sum mismatch: got %s, want %s", got, want)
		}
	})
}
