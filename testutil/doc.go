/*
Package testutil provides shared fixtures for testing the vote backend.

Key generation dominates test time if every test searches for fresh primes,
so the package maintains one process-wide keypair at a reduced modulus size
and hands it to every caller:

	pub, priv := testutil.SharedKeypair()

It also provides generators for encrypted vote fixtures and well-linked
audit chains:

	ciphertexts := testutil.EncryptVotes(t, pub, 1, 1, 0)
	entries := testutil.LinkedChain("vote_received", "photo_uploaded")

The shared keypair is 128 bits, far below any secure size. It exists only to
keep tests fast; nothing outside _test.go files should import this package.
*/
package testutil
