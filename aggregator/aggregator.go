package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/fieldvotes/securevotes/crypto"
)

// ErrUnknownKey is returned when no keypair exists for the requested key id.
var ErrUnknownKey = errors.New("aggregator: unknown key id")

// CiphertextSource provides the stored ciphertexts for a (question, key)
// pair, as decimal strings.
type CiphertextSource interface {
	CiphertextsByQuestion(ctx context.Context, questionID, keyID string) ([]string, error)
}

// KeySource resolves a key id to its keypair. Implementations are expected
// to be immutable after startup and safe for concurrent reads.
type KeySource interface {
	Keypair(keyID string) (*crypto.PublicKey, *crypto.PrivateKey, bool)
}

// Result is the outcome of aggregating one (question, key) pair. Total and
// AggregateCiphertext are decimal strings; the ciphertext is absent when no
// votes were stored. The aggregate ciphertext is returned alongside the
// decrypted total for audit and debugging.
type Result struct {
	QuestionID          string `json:"question_id"`
	KeyID               string `json:"key_id"`
	Count               int    `json:"count"`
	Total               string `json:"total"`
	AggregateCiphertext string `json:"aggregate_ciphertext,omitempty"`
}

// Aggregator folds stored ciphertexts into homomorphic totals.
type Aggregator struct {
	source CiphertextSource
	keys   KeySource
}

// New creates an aggregator reading ciphertexts from source and keys from
// keys.
func New(source CiphertextSource, keys KeySource) *Aggregator {
	return &Aggregator{source: source, keys: keys}
}

// Aggregate computes the homomorphic total for a (question, key) pair.
//
// With no stored votes it returns count 0 and total 0 without touching the
// cryptosystem. Otherwise it seeds an accumulator with an encryption of
// zero, folds every ciphertext in, and decrypts the accumulator once.
func (a *Aggregator) Aggregate(ctx context.Context, questionID, keyID string) (*Result, error) {
	pub, priv, ok := a.keys.Keypair(keyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, keyID)
	}

	rows, err := a.source.CiphertextsByQuestion(ctx, questionID, keyID)
	if err != nil {
		return nil, fmt.Errorf("fetching ciphertexts: %w", err)
	}

	result := &Result{
		QuestionID: questionID,
		KeyID:      keyID,
		Count:      len(rows),
		Total:      "0",
	}
	if len(rows) == 0 {
		return result, nil
	}

	acc, err := crypto.Encrypt(pub, big.NewInt(0))
	if err != nil {
		return nil, fmt.Errorf("seeding accumulator: %w", err)
	}
	for _, row := range rows {
		c, err := crypto.ParseCiphertext(row)
		if err != nil {
			return nil, fmt.Errorf("stored ciphertext for question %s: %w", questionID, err)
		}
		acc = crypto.Add(pub, acc, c)
	}

	result.Total = crypto.Decrypt(priv, acc).String()
	result.AggregateCiphertext = acc.String()
	return result, nil
}
