// Package services wires the cryptosystem, aggregation pipeline, and audit
// chain to persistence and HTTP transport.
//
// The core packages (crypto, audit, aggregator) are library-shaped; this
// package is the plumbing around them. It provides:
//
//   - VoteStore implementations: PostgreSQL-backed (lib/pq) for deployment
//     and an in-memory twin for tests and development
//   - A process-wide keyring holding the Paillier keypairs, generated once
//     at startup and read-only thereafter
//   - A filesystem blob store for client-encrypted photos
//   - The chi-based HTTP API surface
//
// Storing a vote (or photo) and appending its audit entry happen inside one
// serialized unit of work. Two concurrent appends racing to read the latest
// chain entry could otherwise both link to the same predecessor and corrupt
// the chain's linearity, so stores hold a dedicated append lock across the
// read-latest-then-insert step. Aggregation reads are not serialized against
// appends; they only need a committed snapshot.
package services
