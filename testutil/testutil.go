package testutil

import (
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/fieldvotes/securevotes/audit"
	"github.com/fieldvotes/securevotes/crypto"
)

// SharedKeypairBits is the modulus size of the shared test keypair. Small on
// purpose: tests need speed, not security.
const SharedKeypairBits = 128

var (
	keyOnce sync.Once
	keyPub  *crypto.PublicKey
	keyPriv *crypto.PrivateKey
)

// SharedKeypair returns the process-wide test keypair, generating it on
// first use.
func SharedKeypair() (*crypto.PublicKey, *crypto.PrivateKey) {
	keyOnce.Do(func() {
		pub, priv, err := crypto.GenerateKeypair(SharedKeypairBits)
		if err != nil {
			panic(fmt.Sprintf("testutil: generating shared keypair: %v", err))
		}
		keyPub, keyPriv = pub, priv
	})
	return keyPub, keyPriv
}

// EncryptVotes encrypts each plaintext under pub and returns the ciphertexts
// as decimal strings, the form they travel and persist in.
func EncryptVotes(t *testing.T, pub *crypto.PublicKey, plaintexts ...int64) []string {
	t.Helper()
	out := make([]string, 0, len(plaintexts))
	for _, m := range plaintexts {
		c, err := crypto.Encrypt(pub, big.NewInt(m))
		if err != nil {
			t.Fatalf("encrypting %d: %v", m, err)
		}
		out = append(out, c.String())
	}
	return out
}

// LinkedChain builds a well-linked audit chain with one entry per event
// type, ids starting at 1. Payloads are synthetic but distinct, so breaking
// any link is detectable.
func LinkedChain(eventTypes ...string) []audit.Entry {
	entries := make([]audit.Entry, 0, len(eventTypes))
	prev := ""
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, eventType := range eventTypes {
		payloadHash := audit.HashPayload(fmt.Sprintf("%s:%d", eventType, i))
		entries = append(entries, audit.Entry{
			ID:          int64(i + 1),
			EventType:   eventType,
			PayloadHash: payloadHash,
			PrevHash:    prev,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
		prev = payloadHash
	}
	return entries
}
