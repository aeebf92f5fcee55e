package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fieldvotes/securevotes/audit"
	_ "github.com/lib/pq"
)

// PostgresStore implements VoteStore with PostgreSQL persistence.
type PostgresStore struct {
	db *sql.DB

	// appendMu serializes chain appends so two transactions can never read
	// the same latest entry and both link to it.
	appendMu sync.Mutex
}

// PostgresConfig contains PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ConnectionString returns the PostgreSQL connection string.
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id SERIAL PRIMARY KEY,
		question_id VARCHAR(64) NOT NULL UNIQUE,
		label VARCHAR(512) NOT NULL,
		created_by VARCHAR(64) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS votes (
		id SERIAL PRIMARY KEY,
		question_id VARCHAR(64) NOT NULL,
		participant_fingerprint VARCHAR(128) NOT NULL,
		ciphertext TEXT NOT NULL,
		key_id VARCHAR(64) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS audit_log (
		id SERIAL PRIMARY KEY,
		event_type VARCHAR(64) NOT NULL,
		payload_hash VARCHAR(128) NOT NULL,
		prev_hash VARCHAR(128),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS photos (
		id SERIAL PRIMARY KEY,
		object_name VARCHAR(256) NOT NULL UNIQUE,
		storage_key VARCHAR(64) NOT NULL,
		nonce VARCHAR(64) NOT NULL,
		alg VARCHAR(32) NOT NULL,
		content_type VARCHAR(128) NOT NULL,
		size_bytes BIGINT NOT NULL,
		key_id VARCHAR(64) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_votes_question_key ON votes(question_id, key_id);
	CREATE INDEX IF NOT EXISTS idx_audit_created ON audit_log(created_at);
	`

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// CreateQuestion inserts a new active question.
func (s *PostgresStore) CreateQuestion(ctx context.Context, questionID, label, createdBy string) (*Question, error) {
	q := &Question{QuestionID: questionID, Label: label, CreatedBy: createdBy, IsActive: true}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO questions (question_id, label, created_by)
		VALUES ($1, $2, $3)
		ON CONFLICT (question_id) DO NOTHING
		RETURNING id, created_at
	`, questionID, label, createdBy).Scan(&q.ID, &q.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateQuestion
	}
	if err != nil {
		return nil, fmt.Errorf("inserting question: %w", err)
	}
	return q, nil
}

// ListQuestions returns all active questions in insertion order.
func (s *PostgresStore) ListQuestions(ctx context.Context) ([]*Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, question_id, label, created_by, is_active, created_at
		FROM questions WHERE is_active ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		q := &Question{}
		if err := rows.Scan(&q.ID, &q.QuestionID, &q.Label, &q.CreatedBy, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// RecordVote stores a vote and its vote_received audit entry in one
// transaction. The append mutex spans the read-latest-then-insert step of
// the chain so concurrent appends serialize.
func (s *PostgresStore) RecordVote(ctx context.Context, vote *VoteRecord) (*VoteRecord, *audit.Entry, error) {
	payloadHash := audit.HashPayload(audit.VotePayload(vote.QuestionID, vote.Ciphertext, vote.KeyID))

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var questionRow int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM questions WHERE question_id = $1 AND is_active`, vote.QuestionID).Scan(&questionRow)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrInvalidQuestion
	}
	if err != nil {
		return nil, nil, fmt.Errorf("checking question: %w", err)
	}

	stored := *vote
	err = tx.QueryRowContext(ctx, `
		INSERT INTO votes (question_id, participant_fingerprint, ciphertext, key_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, vote.QuestionID, vote.ParticipantFingerprint, vote.Ciphertext, vote.KeyID).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("inserting vote: %w", err)
	}

	entry, err := appendEntryTx(ctx, tx, audit.EventVoteReceived, payloadHash)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing vote: %w", err)
	}
	return &stored, entry, nil
}

// RecordPhoto stores photo metadata and its photo_uploaded audit entry in
// one transaction.
func (s *PostgresStore) RecordPhoto(ctx context.Context, photo *StoredPhoto) (*StoredPhoto, *audit.Entry, error) {
	payloadHash := audit.HashPayload(audit.PhotoPayload(photo.ObjectName, photo.SizeBytes, photo.KeyID))

	s.appendMu.Lock()
	defer s.appendMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stored := *photo
	err = tx.QueryRowContext(ctx, `
		INSERT INTO photos (object_name, storage_key, nonce, alg, content_type, size_bytes, key_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, photo.ObjectName, photo.StorageKey, photo.Nonce, photo.Alg, photo.ContentType,
		photo.SizeBytes, photo.KeyID).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("inserting photo: %w", err)
	}

	entry, err := appendEntryTx(ctx, tx, audit.EventPhotoUploaded, payloadHash)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("committing photo: %w", err)
	}
	return &stored, entry, nil
}

// appendEntryTx links and inserts one audit entry inside an open
// transaction. Callers must hold the append mutex.
func appendEntryTx(ctx context.Context, tx *sql.Tx, eventType, payloadHash string) (*audit.Entry, error) {
	var prevHash sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT payload_hash FROM audit_log ORDER BY id DESC LIMIT 1`).Scan(&prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reading chain head: %w", err)
	}

	entry := &audit.Entry{
		EventType:   eventType,
		PayloadHash: payloadHash,
		PrevHash:    prevHash.String,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO audit_log (event_type, payload_hash, prev_hash)
		VALUES ($1, $2, NULLIF($3, ''))
		RETURNING id, created_at
	`, eventType, payloadHash, entry.PrevHash).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("appending audit entry: %w", err)
	}
	return entry, nil
}

// CiphertextsByQuestion returns all stored ciphertexts for a (question, key)
// pair. Order is irrelevant to aggregation.
func (s *PostgresStore) CiphertextsByQuestion(ctx context.Context, questionID, keyID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ciphertext FROM votes WHERE question_id = $1 AND key_id = $2`, questionID, keyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning ciphertext: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AuditEntries returns the whole chain in ascending id order.
func (s *PostgresStore) AuditEntries(ctx context.Context) ([]audit.Entry, error) {
	return s.queryAuditEntries(ctx,
		`SELECT id, event_type, payload_hash, prev_hash, created_at FROM audit_log ORDER BY id ASC`)
}

// LatestAuditEntries returns up to limit entries, newest first.
func (s *PostgresStore) LatestAuditEntries(ctx context.Context, limit int) ([]audit.Entry, error) {
	return s.queryAuditEntries(ctx,
		`SELECT id, event_type, payload_hash, prev_hash, created_at FROM audit_log ORDER BY id DESC LIMIT $1`, limit)
}

func (s *PostgresStore) queryAuditEntries(ctx context.Context, query string, args ...any) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var prev sql.NullString
		if err := rows.Scan(&e.ID, &e.EventType, &e.PayloadHash, &prev, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.PrevHash = prev.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns stored data volumes.
func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM votes),
			(SELECT COUNT(DISTINCT question_id) FROM votes),
			(SELECT COUNT(DISTINCT participant_fingerprint) FROM votes),
			(SELECT COUNT(*) FROM photos),
			(SELECT COUNT(*) FROM audit_log)
	`).Scan(&stats.TotalVotes, &stats.UniqueQuestions, &stats.UniqueParticipants,
		&stats.TotalPhotos, &stats.TotalAuditEntries)
	if err != nil {
		return nil, fmt.Errorf("querying stats: %w", err)
	}
	return stats, nil
}

// Ping probes database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
