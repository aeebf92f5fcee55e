package services

import (
	"fmt"

	"github.com/fieldvotes/securevotes/crypto"
)

// DefaultKeyID names the keypair generated at startup. A production variant
// would mint a new id per key-rotation epoch; rotation itself is out of
// scope here.
const DefaultKeyID = "key-v1"

// Keypair binds a key id to its Paillier keys.
type Keypair struct {
	KeyID   string
	Public  *crypto.PublicKey
	Private *crypto.PrivateKey
}

// Keyring holds the process-wide keypairs. Built once at startup and never
// mutated, so concurrent reads need no synchronization. The private keys
// live only in memory; they are never serialized to the store.
type Keyring struct {
	pairs     map[string]*Keypair
	defaultID string
}

// NewKeyring generates the default keypair at the given modulus size. Key
// generation is a prime search and may take a moment; it runs to completion
// rather than being interruptible, since a half-formed keypair is unusable.
func NewKeyring(bits int) (*Keyring, error) {
	pub, priv, err := crypto.GenerateKeypair(bits)
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", DefaultKeyID, err)
	}

	return &Keyring{
		pairs: map[string]*Keypair{
			DefaultKeyID: {KeyID: DefaultKeyID, Public: pub, Private: priv},
		},
		defaultID: DefaultKeyID,
	}, nil
}

// NewKeyringFromPair builds a keyring around an existing keypair. Used by
// tests to avoid repeated prime searches.
func NewKeyringFromPair(keyID string, pub *crypto.PublicKey, priv *crypto.PrivateKey) *Keyring {
	return &Keyring{
		pairs:     map[string]*Keypair{keyID: {KeyID: keyID, Public: pub, Private: priv}},
		defaultID: keyID,
	}
}

// Keypair resolves a key id. Satisfies aggregator.KeySource.
func (k *Keyring) Keypair(keyID string) (*crypto.PublicKey, *crypto.PrivateKey, bool) {
	pair, ok := k.pairs[keyID]
	if !ok {
		return nil, nil, false
	}
	return pair.Public, pair.Private, true
}

// Default returns the startup keypair.
func (k *Keyring) Default() *Keypair {
	return k.pairs[k.defaultID]
}
