// Package audit implements the append-only hash-chained integrity log.
//
// Every stored vote and photo produces exactly one audit entry. Each entry
// carries the SHA-256 digest of its payload and the payload digest of the
// entry immediately preceding it, so altering any stored record invalidates
// every subsequent link. Entries are created exactly once and never mutated
// or removed; the only read is a linear pass in id order.
//
// Verification walks the chain once and reports the first entry whose link
// no longer matches. A broken chain is evidence of tampering and is reported,
// never repaired.
package audit
