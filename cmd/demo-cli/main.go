// Command securevotes provides CLI tools for interacting with a deployed
// vote backend.
//
// # Commands
//
// vote: Encrypt a yes/no answer locally and submit it. The plaintext never
// leaves the machine.
//
//	securevotes vote --server=http://localhost:8000 --question=visit-check --answer=yes --participant=agent-17
//
// tally: Request the homomorphic total for a question.
//
//	securevotes tally --server=http://localhost:8000 --question=visit-check
//
// upload-photo: Seal a photo with AES-256-GCM and upload the ciphertext.
//
//	securevotes upload-photo --server=http://localhost:8000 --file=site.jpg --key-hex=<64 hex chars>
//
// verify: Ask the server to verify its audit chain.
//
//	securevotes verify --server=http://localhost:8000
package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldvotes/securevotes/audit"
	"github.com/fieldvotes/securevotes/crypto"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "vote":
		err = runVote(args)
	case "tally":
		err = runTally(args)
	case "upload-photo":
		err = runUploadPhoto(args)
	case "verify":
		err = runVerify(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`securevotes - CLI for the vote backend

Usage:
  securevotes <command> [options]

Commands:
  vote          Encrypt and submit a yes/no answer
  tally         Request the homomorphic total for a question
  upload-photo  Seal and upload a photo
  verify        Verify the server's audit chain

Run 'securevotes <command> --help' for command-specific options.`)
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

// pubkeyResponse mirrors the server's GET /crypto/pubkey payload.
type pubkeyResponse struct {
	KeyID string `json:"key_id"`
	N     string `json:"n"`
	G     string `json:"g"`
}

func fetchPublicKey(serverURL string) (*pubkeyResponse, *crypto.PublicKey, error) {
	var resp pubkeyResponse
	if err := getJSON(serverURL+"/crypto/pubkey", &resp); err != nil {
		return nil, nil, fmt.Errorf("fetching public key: %w", err)
	}

	n, ok := new(big.Int).SetString(resp.N, 10)
	if !ok {
		return nil, nil, fmt.Errorf("server returned malformed modulus %q", resp.N)
	}
	return &resp, crypto.NewPublicKey(n), nil
}

// --- Vote Command ---

func runVote(args []string) error {
	fs := newFlagSet("vote")
	serverURL := fs.String("server", "http://localhost:8000", "Server base URL")
	question := fs.String("question", "", "Question id to vote on")
	answer := fs.String("answer", "", "Answer: yes or no")
	participant := fs.String("participant", "", "Participant identity (hashed before storage)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *question == "" || *participant == "" {
		return fmt.Errorf("--question and --participant are required")
	}

	var plaintext int64
	switch *answer {
	case "yes":
		plaintext = 1
	case "no":
		plaintext = 0
	default:
		return fmt.Errorf("--answer must be yes or no")
	}

	keyInfo, pub, err := fetchPublicKey(*serverURL)
	if err != nil {
		return err
	}

	ciphertext, err := crypto.Encrypt(pub, big.NewInt(plaintext))
	if err != nil {
		return fmt.Errorf("encrypting vote: %w", err)
	}

	var resp struct {
		Status  string `json:"status"`
		VoteID  int64  `json:"vote_id"`
		AuditID int64  `json:"audit_id"`
	}
	err = postJSON(*serverURL+"/votes/send", map[string]string{
		"question_id":    *question,
		"participant_id": *participant,
		"ciphertext":     ciphertext.String(),
		"key_id":         keyInfo.KeyID,
	}, &resp)
	if err != nil {
		return fmt.Errorf("submitting vote: %w", err)
	}

	fmt.Printf("Vote stored: vote_id=%d audit_id=%d key_id=%s\n", resp.VoteID, resp.AuditID, keyInfo.KeyID)
	return nil
}

// --- Tally Command ---

func runTally(args []string) error {
	fs := newFlagSet("tally")
	serverURL := fs.String("server", "http://localhost:8000", "Server base URL")
	question := fs.String("question", "", "Question id to tally")
	keyID := fs.String("key-id", "", "Key id (defaults to the server's key)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *question == "" {
		return fmt.Errorf("--question is required")
	}

	url := fmt.Sprintf("%s/votes/aggregate?question_id=%s", *serverURL, *question)
	if *keyID != "" {
		url += "&key_id=" + *keyID
	}

	var resp struct {
		QuestionID string `json:"question_id"`
		Count      int    `json:"count"`
		Total      string `json:"total"`
	}
	if err := getJSON(url, &resp); err != nil {
		return fmt.Errorf("requesting tally: %w", err)
	}

	fmt.Printf("Question %s: %s yes out of %d votes\n", resp.QuestionID, resp.Total, resp.Count)
	return nil
}

// --- Upload Photo Command ---

func runUploadPhoto(args []string) error {
	fs := newFlagSet("upload-photo")
	serverURL := fs.String("server", "http://localhost:8000", "Server base URL")
	filePath := fs.String("file", "", "Photo file to seal and upload")
	keyHex := fs.String("key-hex", "", "32-byte master key as hex (generated if empty)")
	contentType := fs.String("content-type", "image/jpeg", "Content type of the photo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *filePath == "" {
		return fmt.Errorf("--file is required")
	}

	masterKey, err := loadOrGenerateMasterKey(*keyHex)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	objectName := filepath.Base(*filePath)
	sealed, err := crypto.SealBlob(masterKey, objectName, data)
	if err != nil {
		return fmt.Errorf("sealing photo: %w", err)
	}

	var resp struct {
		Status     string `json:"status"`
		PhotoID    int64  `json:"photo_id"`
		StorageKey string `json:"storage_key"`
		AuditID    int64  `json:"audit_id"`
	}
	err = postJSON(*serverURL+"/uploads/photo", map[string]any{
		"object_name":    objectName,
		"nonce_b64":      base64.StdEncoding.EncodeToString(sealed.Nonce),
		"ciphertext_b64": base64.StdEncoding.EncodeToString(sealed.Ciphertext),
		"content_type":   *contentType,
		"key_id":         "local",
		"alg":            crypto.BlobAlgorithm,
	}, &resp)
	if err != nil {
		return fmt.Errorf("uploading photo: %w", err)
	}

	fmt.Printf("Photo stored: photo_id=%d storage_key=%s audit_id=%d\n", resp.PhotoID, resp.StorageKey, resp.AuditID)
	return nil
}

func loadOrGenerateMasterKey(keyHex string) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid key hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("master key must be 32 bytes, got %d", len(key))
		}
		return key, nil
	}

	key, err := crypto.NewMasterKey()
	if err != nil {
		return nil, err
	}
	fmt.Printf("Generated master key (keep it to decrypt later): %s\n", hex.EncodeToString(key))
	return key, nil
}

// --- Verify Command ---

func runVerify(args []string) error {
	fs := newFlagSet("verify")
	serverURL := fs.String("server", "http://localhost:8000", "Server base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var resp audit.VerificationResult
	if err := getJSON(*serverURL+"/audit/verify", &resp); err != nil {
		return fmt.Errorf("requesting verification: %w", err)
	}

	if err := resp.Err(); err != nil {
		return err
	}
	fmt.Printf("Chain intact: %d entries verified\n", resp.Length)
	return nil
}

// --- HTTP helpers ---

func getJSON(url string, out any) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := httpClient.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}
