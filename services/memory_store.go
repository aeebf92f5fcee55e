package services

import (
	"context"
	"sync"
	"time"

	"github.com/fieldvotes/securevotes/audit"
)

// InMemoryStore implements VoteStore without a database, for tests and
// development mode. The single mutex doubles as the chain append lock.
type InMemoryStore struct {
	mu        sync.RWMutex
	questions map[string]*Question
	votes     []VoteRecord
	photos    []StoredPhoto
	entries   []audit.Entry
	nextID    map[string]int64
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		questions: make(map[string]*Question),
		nextID:    map[string]int64{"question": 1, "vote": 1, "photo": 1, "audit": 1},
	}
}

func (s *InMemoryStore) take(seq string) int64 {
	id := s.nextID[seq]
	s.nextID[seq] = id + 1
	return id
}

// CreateQuestion inserts a new active question.
func (s *InMemoryStore) CreateQuestion(_ context.Context, questionID, label, createdBy string) (*Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.questions[questionID]; exists {
		return nil, ErrDuplicateQuestion
	}
	q := &Question{
		ID:         s.take("question"),
		QuestionID: questionID,
		Label:      label,
		CreatedBy:  createdBy,
		IsActive:   true,
		CreatedAt:  time.Now().UTC(),
	}
	s.questions[questionID] = q
	return q, nil
}

// ListQuestions returns all active questions in insertion order.
func (s *InMemoryStore) ListQuestions(_ context.Context) ([]*Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.IsActive {
			copied := *q
			out = append(out, &copied)
		}
	}
	// Map iteration order is random; restore insertion order by id.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ID > out[j].ID; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out, nil
}

// RecordVote stores a vote and appends its audit entry atomically under the
// store lock.
func (s *InMemoryStore) RecordVote(_ context.Context, vote *VoteRecord) (*VoteRecord, *audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, exists := s.questions[vote.QuestionID]
	if !exists || !q.IsActive {
		return nil, nil, ErrInvalidQuestion
	}

	stored := *vote
	stored.ID = s.take("vote")
	stored.CreatedAt = time.Now().UTC()
	s.votes = append(s.votes, stored)

	payloadHash := audit.HashPayload(audit.VotePayload(vote.QuestionID, vote.Ciphertext, vote.KeyID))
	entry := s.appendEntryLocked(audit.EventVoteReceived, payloadHash)
	return &stored, entry, nil
}

// RecordPhoto stores photo metadata and appends its audit entry atomically.
func (s *InMemoryStore) RecordPhoto(_ context.Context, photo *StoredPhoto) (*StoredPhoto, *audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *photo
	stored.ID = s.take("photo")
	stored.CreatedAt = time.Now().UTC()
	s.photos = append(s.photos, stored)

	payloadHash := audit.HashPayload(audit.PhotoPayload(photo.ObjectName, photo.SizeBytes, photo.KeyID))
	entry := s.appendEntryLocked(audit.EventPhotoUploaded, payloadHash)
	return &stored, entry, nil
}

func (s *InMemoryStore) appendEntryLocked(eventType, payloadHash string) *audit.Entry {
	prevHash := ""
	if n := len(s.entries); n > 0 {
		prevHash = s.entries[n-1].PayloadHash
	}
	entry := audit.Entry{
		ID:          s.take("audit"),
		EventType:   eventType,
		PayloadHash: payloadHash,
		PrevHash:    prevHash,
		CreatedAt:   time.Now().UTC(),
	}
	s.entries = append(s.entries, entry)
	return &entry
}

// CiphertextsByQuestion returns stored ciphertexts for a (question, key) pair.
func (s *InMemoryStore) CiphertextsByQuestion(_ context.Context, questionID, keyID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for _, v := range s.votes {
		if v.QuestionID == questionID && v.KeyID == keyID {
			out = append(out, v.Ciphertext)
		}
	}
	return out, nil
}

// AuditEntries returns the chain in ascending id order.
func (s *InMemoryStore) AuditEntries(_ context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// LatestAuditEntries returns up to limit entries, newest first.
func (s *InMemoryStore) LatestAuditEntries(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.entries)
	if limit > n {
		limit = n
	}
	out := make([]audit.Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.entries[i])
	}
	return out, nil
}

// Stats returns stored data volumes.
func (s *InMemoryStore) Stats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	questions := make(map[string]struct{})
	participants := make(map[string]struct{})
	for _, v := range s.votes {
		questions[v.QuestionID] = struct{}{}
		participants[v.ParticipantFingerprint] = struct{}{}
	}
	return &Stats{
		TotalVotes:         int64(len(s.votes)),
		UniqueQuestions:    int64(len(questions)),
		UniqueParticipants: int64(len(participants)),
		TotalPhotos:        int64(len(s.photos)),
		TotalAuditEntries:  int64(len(s.entries)),
	}, nil
}

// Ping always succeeds for the in-memory store.
func (s *InMemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *InMemoryStore) Close() error { return nil }

// TamperAuditEntry overwrites one entry's prev hash, bypassing the
// append-only discipline. Test hook for exercising chain verification.
func (s *InMemoryStore) TamperAuditEntry(id int64, prevHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].PrevHash = prevHash
			return
		}
	}
}
