package crypto

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenBlob(t *testing.T) {
	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)

	plaintext := []byte("field survey photo bytes")
	sealed, err := SealBlob(masterKey, "site-42/photo-1.jpg", plaintext)
	require.NoError(t, err)
	require.Len(t, sealed.Nonce, 12)
	require.GreaterOrEqual(t, len(sealed.Ciphertext), len(plaintext)+16)
	require.False(t, bytes.Contains(sealed.Ciphertext, plaintext))

	opened, err := OpenBlob(masterKey, "site-42/photo-1.jpg", sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestOpenBlobRejectsTampering(t *testing.T) {
	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)

	sealed, err := SealBlob(masterKey, "obj", []byte("payload"))
	require.NoError(t, err)

	sealed.Ciphertext[0] ^= 0xff
	_, err = OpenBlob(masterKey, "obj", sealed)
	require.Error(t, err)
}

func TestOpenBlobRejectsWrongObjectName(t *testing.T) {
	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)

	sealed, err := SealBlob(masterKey, "obj-a", []byte("payload"))
	require.NoError(t, err)

	// Keys are bound to the object name; a renamed blob must not open.
	_, err = OpenBlob(masterKey, "obj-b", sealed)
	require.Error(t, err)
}
