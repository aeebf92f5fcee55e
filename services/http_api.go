package services

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/fieldvotes/securevotes/aggregator"
	"github.com/fieldvotes/securevotes/audit"
	"github.com/fieldvotes/securevotes/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// APIConfig configures the HTTP API surface.
type APIConfig struct {
	Store VoteStore
	Blobs BlobStore
	Keys  *Keyring
	Log   *slog.Logger

	// AdminToken guards question creation and the stats endpoint. Static
	// bearer token; full user auth is out of scope. Empty disables the
	// admin surface.
	AdminToken string

	// AllowedOrigins for CORS; defaults to the local dev frontend.
	AllowedOrigins []string
}

// API exposes vote submission, aggregation, audit, and crypto endpoints.
type API struct {
	cfg        *APIConfig
	aggregator *aggregator.Aggregator
	log        *slog.Logger
}

// NewAPI wires the API around a store and keyring.
func NewAPI(cfg *APIConfig) *API {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &API{
		cfg:        cfg,
		aggregator: aggregator.New(cfg.Store, cfg.Keys),
		log:        log,
	}
}

// VoteRequest is a client-encrypted vote submission.
type VoteRequest struct {
	QuestionID    string `json:"question_id"`
	ParticipantID string `json:"participant_id"`
	Ciphertext    string `json:"ciphertext"`
	KeyID         string `json:"key_id"`
}

// VoteResponse confirms a stored vote.
type VoteResponse struct {
	Status     string `json:"status"`
	VoteID     int64  `json:"vote_id"`
	QuestionID string `json:"question_id"`
	KeyID      string `json:"key_id"`
	AuditID    int64  `json:"audit_id"`
}

// QuestionRequest creates a new question.
type QuestionRequest struct {
	QuestionID string `json:"question_id"`
	Label      string `json:"label"`
}

// PhotoUploadRequest carries a client-encrypted photo blob. The ciphertext
// includes the AES-GCM tag; the server stores it opaque.
type PhotoUploadRequest struct {
	ObjectName    string `json:"object_name"`
	NonceB64      string `json:"nonce_b64"`
	CiphertextB64 string `json:"ciphertext_b64"`
	ContentType   string `json:"content_type"`
	KeyID         string `json:"key_id"`
	Alg           string `json:"alg,omitempty"`
}

// PhotoUploadResponse confirms a stored photo.
type PhotoUploadResponse struct {
	Status     string `json:"status"`
	PhotoID    int64  `json:"photo_id"`
	ObjectName string `json:"object_name"`
	StorageKey string `json:"storage_key"`
	AuditID    int64  `json:"audit_id"`
}

// PublicKeyResponse publishes the public key for client-side encryption.
// n and g are decimal strings of arbitrary length.
type PublicKeyResponse struct {
	KeyID string `json:"key_id"`
	N     string `json:"n"`
	G     string `json:"g"`
}

// EncryptRequest asks the server to encrypt a binary vote, a fallback for
// clients that cannot encrypt locally.
type EncryptRequest struct {
	Plaintext int64 `json:"plaintext"`
}

// EncryptResponse returns the resulting ciphertext.
type EncryptResponse struct {
	KeyID      string `json:"key_id"`
	Plaintext  int64  `json:"plaintext"`
	Ciphertext string `json:"ciphertext"`
}

// RegisterRoutes registers all API routes.
func (a *API) RegisterRoutes(r chi.Router) {
	origins := a.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", a.handleHealth)

	r.Get("/questions", a.handleListQuestions)
	r.With(a.requireAdmin).Post("/questions", a.handleCreateQuestion)

	r.Post("/votes/send", a.handleSendVote)
	r.Get("/votes/aggregate", a.handleAggregate)

	r.Post("/uploads/photo", a.handleUploadPhoto)

	r.Get("/audit/verify", a.handleAuditVerify)
	r.Get("/audit/logs", a.handleAuditLogs)

	r.Get("/crypto/pubkey", a.handlePublicKey)
	r.Post("/crypto/encrypt", a.handleEncrypt)

	r.With(a.requireAdmin).Get("/admin/stats", a.handleStats)
}

// requireAdmin checks the static bearer token on administrative routes.
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.AdminToken == "" {
			http.Error(w, "admin surface disabled", http.StatusForbidden)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token != a.cfg.AdminToken {
			http.Error(w, "invalid admin token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.cfg.Store.Ping(r.Context()); err != nil {
		a.log.Error("health check failed", "err", err)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok", "database": "ok"})
}

func (a *API) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.cfg.Store.ListQuestions(r.Context())
	if err != nil {
		a.log.Error("listing questions", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if questions == nil {
		questions = []*Question{}
	}
	writeJSON(w, questions)
}

func (a *API) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !validLength(req.QuestionID, 1, 64) || !validLength(req.Label, 1, 512) {
		http.Error(w, "question_id and label are required", http.StatusBadRequest)
		return
	}

	q, err := a.cfg.Store.CreateQuestion(r.Context(), req.QuestionID, req.Label, "admin")
	if errors.Is(err, ErrDuplicateQuestion) {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	if err != nil {
		a.log.Error("creating question", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.log.Info("question created", "question_id", q.QuestionID)
	writeJSONStatus(w, http.StatusCreated, q)
}

func (a *API) handleSendVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !validLength(req.QuestionID, 1, 64) || !validLength(req.ParticipantID, 1, 256) ||
		!validLength(req.KeyID, 1, 64) || req.Ciphertext == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}
	if _, err := crypto.ParseCiphertext(req.Ciphertext); err != nil {
		http.Error(w, "ciphertext must be a non-negative decimal string", http.StatusBadRequest)
		return
	}

	vote := &VoteRecord{
		QuestionID:             req.QuestionID,
		ParticipantFingerprint: Fingerprint(req.ParticipantID),
		Ciphertext:             req.Ciphertext,
		KeyID:                  req.KeyID,
	}
	stored, entry, err := a.cfg.Store.RecordVote(r.Context(), vote)
	if errors.Is(err, ErrInvalidQuestion) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		a.log.Error("recording vote", "question_id", req.QuestionID, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.log.Info("vote stored", "question_id", stored.QuestionID, "vote_id", stored.ID, "audit_id", entry.ID)
	writeJSONStatus(w, http.StatusCreated, &VoteResponse{
		Status:     "stored",
		VoteID:     stored.ID,
		QuestionID: stored.QuestionID,
		KeyID:      stored.KeyID,
		AuditID:    entry.ID,
	})
}

func (a *API) handleAggregate(w http.ResponseWriter, r *http.Request) {
	questionID := r.URL.Query().Get("question_id")
	if questionID == "" {
		http.Error(w, "question_id is required", http.StatusBadRequest)
		return
	}
	keyID := r.URL.Query().Get("key_id")
	if keyID == "" {
		keyID = DefaultKeyID
	}

	result, err := a.aggregator.Aggregate(r.Context(), questionID, keyID)
	if errors.Is(err, aggregator.ErrUnknownKey) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		a.log.Error("aggregating votes", "question_id", questionID, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (a *API) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	var req PhotoUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !validLength(req.ObjectName, 1, 256) || req.NonceB64 == "" || req.CiphertextB64 == "" ||
		!validLength(req.ContentType, 1, 128) || !validLength(req.KeyID, 1, 64) {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	ciphertext, err := base64.StdEncoding.DecodeString(req.CiphertextB64)
	if err != nil {
		http.Error(w, "invalid base64 ciphertext", http.StatusBadRequest)
		return
	}
	if _, err := base64.StdEncoding.DecodeString(req.NonceB64); err != nil {
		http.Error(w, "invalid base64 nonce", http.StatusBadRequest)
		return
	}

	alg := req.Alg
	if alg == "" {
		alg = crypto.BlobAlgorithm
	}

	storageKey := uuid.NewString()
	if err := a.cfg.Blobs.Put(r.Context(), storageKey, ciphertext); err != nil {
		a.log.Error("storing blob", "object_name", req.ObjectName, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	photo := &StoredPhoto{
		ObjectName:  req.ObjectName,
		StorageKey:  storageKey,
		Nonce:       req.NonceB64,
		Alg:         alg,
		ContentType: req.ContentType,
		SizeBytes:   int64(len(ciphertext)),
		KeyID:       req.KeyID,
	}
	stored, entry, err := a.cfg.Store.RecordPhoto(r.Context(), photo)
	if err != nil {
		a.log.Error("recording photo", "object_name", req.ObjectName, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	a.log.Info("photo stored", "object_name", stored.ObjectName, "photo_id", stored.ID, "audit_id", entry.ID)
	writeJSONStatus(w, http.StatusCreated, &PhotoUploadResponse{
		Status:     "stored",
		PhotoID:    stored.ID,
		ObjectName: stored.ObjectName,
		StorageKey: stored.StorageKey,
		AuditID:    entry.ID,
	})
}

func (a *API) handleAuditVerify(w http.ResponseWriter, r *http.Request) {
	entries, err := a.cfg.Store.AuditEntries(r.Context())
	if err != nil {
		a.log.Error("reading audit chain", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result := audit.Verify(entries)
	if !result.OK {
		// Evidence of tampering is reported, never repaired.
		a.log.Error("audit chain broken", "first_broken_id", *result.FirstBrokenID, "length", result.Length)
	}
	writeJSON(w, result)
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 200 {
			http.Error(w, "limit must be in [1, 200]", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := a.cfg.Store.LatestAuditEntries(r.Context(), limit)
	if err != nil {
		a.log.Error("reading audit log", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	writeJSON(w, entries)
}

func (a *API) handlePublicKey(w http.ResponseWriter, r *http.Request) {
	pair := a.cfg.Keys.Default()
	writeJSON(w, &PublicKeyResponse{
		KeyID: pair.KeyID,
		N:     pair.Public.N.String(),
		G:     pair.Public.G.String(),
	})
}

func (a *API) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Plaintext != 0 && req.Plaintext != 1 {
		http.Error(w, "plaintext must be 0 or 1", http.StatusBadRequest)
		return
	}

	pair := a.cfg.Keys.Default()
	c, err := crypto.Encrypt(pair.Public, big.NewInt(req.Plaintext))
	if err != nil {
		a.log.Error("encrypting vote", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, &EncryptResponse{
		KeyID:      pair.KeyID,
		Plaintext:  req.Plaintext,
		Ciphertext: c.String(),
	})
}

func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.cfg.Store.Stats(r.Context())
	if err != nil {
		a.log.Error("querying stats", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func validLength(s string, min, max int) bool {
	return len(s) >= min && len(s) <= max
}
