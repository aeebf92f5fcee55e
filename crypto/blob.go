package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// BlobAlgorithm names the sealing construction recorded alongside photo
// metadata.
const BlobAlgorithm = "AES-256-GCM"

// SealedBlob is a client-side encrypted photo. The backend stores the
// ciphertext (with the GCM tag appended) and the nonce; it never sees the
// key.
type SealedBlob struct {
	Nonce      []byte
	Ciphertext []byte
}

// NewMasterKey draws a fresh 32-byte master key for blob sealing.
func NewMasterKey() ([]byte, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("crypto: drawing master key: %w", err)
	}
	return key, nil
}

// deriveBlobKey derives a per-object AES-256 key from the master key, bound
// to the object name so blobs cannot be swapped between names undetected.
func deriveBlobKey(masterKey []byte, objectName string) ([]byte, error) {
	kdf := hkdf.New(sha256.New, masterKey, nil, []byte("photo:"+objectName))
	key := make([]byte, 32)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("crypto: deriving blob key: %w", err)
	}
	return key, nil
}

// SealBlob encrypts a photo under a key derived from masterKey and the
// object name. Performed on the client; the server receives only the sealed
// form.
func SealBlob(masterKey []byte, objectName string, plaintext []byte) (*SealedBlob, error) {
	key, err := deriveBlobKey(masterKey, objectName)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("crypto: drawing blob nonce: %w", err)
	}

	return &SealedBlob{
		Nonce:      nonce,
		Ciphertext: gcm.Seal(nil, nonce, plaintext, []byte(objectName)),
	}, nil
}

// OpenBlob decrypts a sealed photo. Fails if the blob was tampered with or
// sealed under a different object name.
func OpenBlob(masterKey []byte, objectName string, blob *SealedBlob) ([]byte, error) {
	key, err := deriveBlobKey(masterKey, objectName)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, blob.Nonce, blob.Ciphertext, []byte(objectName))
	if err != nil {
		return nil, fmt.Errorf("crypto: opening blob: %w", err)
	}
	return plaintext, nil
}
