// Package cmd provides CLI commands for the vote backend.
//
// # Commands
//
// server: The HTTP backend. Holds the Paillier keypair, stores encrypted
// votes and photo metadata, maintains the audit chain, and answers
// aggregation queries.
//
//	go run ./cmd/server --addr=:8000 --db-host=localhost
//	go run ./cmd/server --memory --admin-token=dev-token
//
// audit: Offline hash chain verifier, suitable for cron or CI. Connects
// directly to the database and exits non-zero on a broken chain.
//
//	go run ./cmd/audit --db-host=localhost
//
// demo-cli: Client-side tooling. Encrypts votes locally before submission,
// requests tallies, seals and uploads photos, and triggers chain
// verification.
//
//	go run ./cmd/demo-cli vote --question=visit-check --answer=yes --participant=agent-17
//	go run ./cmd/demo-cli tally --question=visit-check
package cmd
