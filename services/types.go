package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/fieldvotes/securevotes/audit"
)

// ErrInvalidQuestion is returned when a vote targets an unknown or inactive
// question. Surfaced to the caller as a rejected request, not retried.
var ErrInvalidQuestion = errors.New("services: unknown or inactive question")

// ErrDuplicateQuestion is returned when creating a question whose id is
// already taken.
var ErrDuplicateQuestion = errors.New("services: question id already exists")

// Question is a survey question votes are cast against.
type Question struct {
	ID         int64     `json:"id"`
	QuestionID string    `json:"question_id"`
	Label      string    `json:"label"`
	CreatedBy  string    `json:"created_by"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// VoteRecord is a stored encrypted vote. ParticipantFingerprint is a one-way
// hash of the participant identity; the raw identity is never persisted. The
// ciphertext is an opaque decimal string produced client-side.
type VoteRecord struct {
	ID                     int64     `json:"id"`
	QuestionID             string    `json:"question_id"`
	ParticipantFingerprint string    `json:"participant_fingerprint"`
	Ciphertext             string    `json:"ciphertext"`
	KeyID                  string    `json:"key_id"`
	CreatedAt              time.Time `json:"created_at"`
}

// StoredPhoto is metadata for a client-encrypted photo blob. The blob itself
// lives in the BlobStore under StorageKey; the backend never holds the key
// that sealed it.
type StoredPhoto struct {
	ID          int64     `json:"id"`
	ObjectName  string    `json:"object_name"`
	StorageKey  string    `json:"storage_key"`
	Nonce       string    `json:"nonce"`
	Alg         string    `json:"alg"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	KeyID       string    `json:"key_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Stats summarizes stored data volumes for the admin surface.
type Stats struct {
	TotalVotes         int64 `json:"total_votes"`
	UniqueQuestions    int64 `json:"unique_questions"`
	UniqueParticipants int64 `json:"unique_participants"`
	TotalPhotos        int64 `json:"total_photos"`
	TotalAuditEntries  int64 `json:"total_audit_entries"`
}

// VoteStore is the persistence boundary for votes, questions, photos, and
// the audit chain. RecordVote and RecordPhoto are atomic: the record and its
// audit entry commit together or not at all, and appends are serialized so
// no two entries link to the same predecessor.
type VoteStore interface {
	CreateQuestion(ctx context.Context, questionID, label, createdBy string) (*Question, error)
	ListQuestions(ctx context.Context) ([]*Question, error)

	// RecordVote persists the vote and appends its vote_received audit
	// entry in one unit of work. Returns ErrInvalidQuestion if the
	// question is unknown or inactive.
	RecordVote(ctx context.Context, vote *VoteRecord) (*VoteRecord, *audit.Entry, error)
	CiphertextsByQuestion(ctx context.Context, questionID, keyID string) ([]string, error)

	// RecordPhoto persists photo metadata and appends its photo_uploaded
	// audit entry in one unit of work.
	RecordPhoto(ctx context.Context, photo *StoredPhoto) (*StoredPhoto, *audit.Entry, error)

	// AuditEntries returns the full chain in ascending id order.
	AuditEntries(ctx context.Context) ([]audit.Entry, error)
	// LatestAuditEntries returns up to limit entries, newest first.
	LatestAuditEntries(ctx context.Context, limit int) ([]audit.Entry, error)

	Stats(ctx context.Context) (*Stats, error)
	Ping(ctx context.Context) error
	Close() error
}

// BlobStore persists opaque encrypted photo blobs by storage key.
type BlobStore interface {
	Put(ctx context.Context, storageKey string, data []byte) error
	Get(ctx context.Context, storageKey string) ([]byte, error)
}

// Fingerprint computes the one-way SHA-256 hex fingerprint stored in place
// of participant and agent identities.
func Fingerprint(identity string) string {
	sum := sha256.Sum256([]byte(identity))
	return hex.EncodeToString(sum[:])
}
