// Package crypto provides the cryptographic primitives for privacy-preserving
// vote collection.
//
// This package implements the core operations the backend depends on:
//
//   - Arbitrary-precision modular arithmetic (exponentiation, inverse, gcd/lcm)
//   - Probabilistic primality testing (Miller-Rabin with trial division)
//   - Paillier keypair generation and the additively homomorphic cryptosystem
//     (encrypt, decrypt, ciphertext addition, plaintext addition)
//   - AES-256-GCM sealing of photo blobs with HKDF-derived per-object keys
//
// All Paillier values (n, n squared, ciphertexts, exponents) are math/big
// integers; nothing in this package downcasts to fixed-width types, since n
// squared for even modest key sizes vastly exceeds native word width. On the
// wire and in storage these values travel as base-10 decimal strings.
//
// # Homomorphic property
//
// For ciphertexts c1, c2 encrypting m1, m2 under the same public key,
// Add(pub, c1, c2) decrypts to m1+m2 mod n. The plaintext space is Z_n:
// sums exceeding n wrap around. In practice n is astronomically larger than
// any realistic vote count, so the wraparound is a modeled limit rather than
// an operational concern.
//
// # Decryption of malformed input
//
// Decrypt performs no validation of its ciphertext argument. Feeding it a
// value that was not produced under the matching public key yields an
// arbitrary integer in [0, n), not an error. The scheme cannot distinguish
// well-formed from malformed ciphertexts, so no such check is attempted.
//
// Note: operations in this package are not constant-time.
package crypto
