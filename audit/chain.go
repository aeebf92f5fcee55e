package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Event types recorded in the chain.
const (
	EventVoteReceived  = "vote_received"
	EventPhotoUploaded = "photo_uploaded"
)

// ErrChainBroken indicates the chain failed verification. Integrity
// violations are evidence; callers must surface them, never repair them.
var ErrChainBroken = errors.New("audit: hash chain broken")

// Entry is one link of the chain. PrevHash is empty only for the first
// entry; for every other entry it must equal the PayloadHash of the entry
// with the next-lower id.
type Entry struct {
	ID          int64     `json:"id"`
	EventType   string    `json:"event_type"`
	PayloadHash string    `json:"payload_hash"`
	PrevHash    string    `json:"prev_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// VerificationResult reports the outcome of a linear chain walk.
type VerificationResult struct {
	OK            bool   `json:"ok"`
	Length        int    `json:"length"`
	FirstBrokenID *int64 `json:"first_broken_id,omitempty"`
}

// Err returns nil for an intact chain, or an error wrapping ErrChainBroken
// that names the first broken entry.
func (r VerificationResult) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w at entry id %d (%d entries total)", ErrChainBroken, *r.FirstBrokenID, r.Length)
}

// HashPayload computes the SHA-256 hex digest of an audit payload.
func HashPayload(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// VotePayload builds the canonical payload for a vote entry.
func VotePayload(questionID, ciphertext, keyID string) string {
	return fmt.Sprintf("%s:%s:%s", questionID, ciphertext, keyID)
}

// PhotoPayload builds the canonical payload for a photo entry.
func PhotoPayload(objectName string, sizeBytes int64, keyID string) string {
	return fmt.Sprintf("photo:%s:%d:%s", objectName, sizeBytes, keyID)
}

// Verify walks entries, which must be in ascending id order, and checks that
// every entry after the first links to its predecessor's payload hash. The
// scan stops at the first broken link and reports the offending id. Verify
// is read-only and idempotent.
func Verify(entries []Entry) VerificationResult {
	result := VerificationResult{OK: true, Length: len(entries)}

	var prevPayload string
	for i, e := range entries {
		if i == 0 {
			prevPayload = e.PayloadHash
			continue
		}
		if e.PrevHash != prevPayload {
			id := e.ID
			result.OK = false
			result.FirstBrokenID = &id
			return result
		}
		prevPayload = e.PayloadHash
	}
	return result
}
