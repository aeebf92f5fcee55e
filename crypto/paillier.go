package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// DefaultKeyBits is the modulus size used by the demo deployment. Large
// enough to exercise multi-hundred-bit arithmetic while keeping key
// generation fast in the field.
const DefaultKeyBits = 256

// keyGenMaxAttempts caps the prime search. The search terminating is
// overwhelmingly likely long before this; hitting the ceiling indicates a
// broken randomness source rather than bad luck.
const keyGenMaxAttempts = 1000

// ErrMessageOutOfRange is returned by Encrypt when the plaintext is not in
// [0, n).
var ErrMessageOutOfRange = errors.New("crypto: message out of range [0, n)")

// ErrKeyGeneration is returned when the prime search exceeds its attempt
// ceiling.
var ErrKeyGeneration = errors.New("crypto: key generation failed")

// PublicKey is a Paillier public key with n = p*q and g = n+1. Immutable
// once generated; safe for unsynchronized concurrent use.
type PublicKey struct {
	N *big.Int
	G *big.Int

	nSq *big.Int
}

// PrivateKey holds the decryption trapdoor: lambda = lcm(p-1, q-1) and the
// precomputed constant mu. The primes p and q are discarded at generation
// time and never persisted.
type PrivateKey struct {
	Lambda *big.Int
	Mu     *big.Int
	N      *big.Int

	nSq *big.Int
}

// NewPublicKey constructs a public key from its components, deriving g = n+1.
func NewPublicKey(n *big.Int) *PublicKey {
	return &PublicKey{
		N:   n,
		G:   new(big.Int).Add(n, bigOne),
		nSq: new(big.Int).Mul(n, n),
	}
}

// NSquared returns n*n, the modulus of every ciphertext operation.
func (pub *PublicKey) NSquared() *big.Int {
	if pub.nSq == nil {
		pub.nSq = new(big.Int).Mul(pub.N, pub.N)
	}
	return pub.nSq
}

// NSquared returns n*n for the private key's modulus.
func (priv *PrivateKey) NSquared() *big.Int {
	if priv.nSq == nil {
		priv.nSq = new(big.Int).Mul(priv.N, priv.N)
	}
	return priv.nSq
}

// GenerateKeypair produces a Paillier keypair with an n of the given bit
// length. Each prime is drawn at bits/2 with its top bit forced, so n lands
// within one bit of the requested length. A draw of p == q is rejected and
// retried; the
// naive construction does not guard against it and a keypair built from
// equal primes is unusable.
//
// Key generation is CPU-bound and should be allowed to run to completion; a
// half-formed keypair has no value.
func GenerateKeypair(bits int) (*PublicKey, *PrivateKey, error) {
	if bits < 16 {
		return nil, nil, fmt.Errorf("crypto: key size %d bits too small", bits)
	}

	for attempt := 0; attempt < keyGenMaxAttempts; attempt++ {
		p, err := GeneratePrime(bits / 2)
		if err != nil {
			return nil, nil, err
		}
		q, err := GeneratePrime(bits / 2)
		if err != nil {
			return nil, nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		pub := NewPublicKey(n)

		pMinusOne := new(big.Int).Sub(p, bigOne)
		qMinusOne := new(big.Int).Sub(q, bigOne)
		lambda, err := LCM(pMinusOne, qMinusOne)
		if err != nil {
			return nil, nil, err
		}

		// mu = L(g^lambda mod n^2)^-1 mod n, with L(x) = (x-1)/n exact.
		x := ModExp(pub.G, lambda, pub.NSquared())
		mu, err := ModInverse(lFunction(x, n), n)
		if err != nil {
			// gcd(L(x), n) != 1 can only happen for a degenerate draw;
			// retry with fresh primes.
			continue
		}

		priv := &PrivateKey{
			Lambda: lambda,
			Mu:     mu,
			N:      n,
			nSq:    new(big.Int).Set(pub.NSquared()),
		}
		return pub, priv, nil
	}
	return nil, nil, ErrKeyGeneration
}

// lFunction computes L(x) = (x-1)/n using exact integer division.
func lFunction(x, n *big.Int) *big.Int {
	l := new(big.Int).Sub(x, bigOne)
	return l.Div(l, n)
}

// Encrypt encrypts m under pub with fresh randomness. Every call draws a new
// r uniformly from [1, n) with gcd(r, n) == 1, so encrypting the same
// plaintext twice yields different ciphertexts. Returns ErrMessageOutOfRange
// unless 0 <= m < n.
func Encrypt(pub *PublicKey, m *big.Int) (*big.Int, error) {
	r, err := randomNonce(pub.N)
	if err != nil {
		return nil, err
	}
	return EncryptWithNonce(pub, m, r)
}

// EncryptWithNonce encrypts m with caller-supplied randomness r, computing
// (g^m mod n^2) * (r^n mod n^2) mod n^2. Pure function of its inputs; reusing
// r forfeits semantic security, so outside of tests prefer Encrypt.
func EncryptWithNonce(pub *PublicKey, m, r *big.Int) (*big.Int, error) {
	if m.Sign() < 0 || m.Cmp(pub.N) >= 0 {
		return nil, ErrMessageOutOfRange
	}

	nSq := pub.NSquared()
	c := ModExp(pub.G, m, nSq)
	c.Mul(c, ModExp(r, pub.N, nSq))
	return c.Mod(c, nSq), nil
}

// randomNonce draws r uniformly from [1, n) with gcd(r, n) == 1, resampling
// until both hold.
func randomNonce(n *big.Int) (*big.Int, error) {
	for {
		r, err := rand.Int(rand.Reader, n)
		if err != nil {
			return nil, fmt.Errorf("crypto: drawing encryption nonce: %w", err)
		}
		if r.Sign() == 0 {
			continue
		}
		if GCD(r, n).Cmp(bigOne) == 0 {
			return r, nil
		}
	}
}

// Decrypt recovers the plaintext as L(c^lambda mod n^2) * mu mod n.
//
// No validation of c is performed: a value that is not a ciphertext under
// the matching key decrypts to an arbitrary integer in [0, n) rather than an
// error. See the package documentation.
func Decrypt(priv *PrivateKey, c *big.Int) *big.Int {
	x := ModExp(c, priv.Lambda, priv.NSquared())
	m := lFunction(x, priv.N)
	m.Mul(m, priv.Mu)
	return m.Mod(m, priv.N)
}

// Add homomorphically combines two ciphertexts: the result decrypts to the
// sum of their plaintexts mod n. Computed as (c1 * c2) mod n^2.
func Add(pub *PublicKey, c1, c2 *big.Int) *big.Int {
	c := new(big.Int).Mul(c1, c2)
	return c.Mod(c, pub.NSquared())
}

// AddPlain adds a known plaintext m to ciphertext c without fresh
// randomness: (c * g^m) mod n^2. Useful for seeding an accumulator or adding
// constants cheaply.
func AddPlain(pub *PublicKey, c, m *big.Int) *big.Int {
	nSq := pub.NSquared()
	out := new(big.Int).Mul(c, ModExp(pub.G, m, nSq))
	return out.Mod(out, nSq)
}

// ParseCiphertext parses the base-10 decimal wire representation of a
// ciphertext. Values are never transmitted as fixed-width binary: they far
// exceed 64 bits.
func ParseCiphertext(s string) (*big.Int, error) {
	c, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("crypto: invalid ciphertext %q", truncateForError(s))
	}
	if c.Sign() < 0 {
		return nil, fmt.Errorf("crypto: negative ciphertext")
	}
	return c, nil
}

func truncateForError(s string) string {
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
