// Package aggregator implements the homomorphic vote aggregation pipeline.
//
// Aggregation retrieves every stored ciphertext for a (question, key) pair,
// folds them into a single ciphertext with Paillier addition, and decrypts
// that one accumulator to obtain the total. Individual ciphertexts are never
// decrypted; the private key is touched exactly once, at the final step.
//
// Homomorphic addition is commutative and associative, so retrieval order
// does not matter, and aggregation can run concurrently with new vote
// appends: it only requires a consistent snapshot of rows already committed.
// Votes racing in during an aggregation appear in the next one.
package aggregator
