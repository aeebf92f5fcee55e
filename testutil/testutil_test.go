package testutil

import (
	"math/big"
	"testing"

	"github.com/fieldvotes/securevotes/audit"
	"github.com/fieldvotes/securevotes/crypto"
	"github.com/stretchr/testify/require"
)

func TestSharedKeypairRoundTrip(t *testing.T) {
	pub, priv := SharedKeypair()

	for i, c := range EncryptVotes(t, pub, 0, 1) {
		parsed, err := crypto.ParseCiphertext(c)
		require.NoError(t, err)
		// Compare numerically: two equal big.Ints can differ in internal
		// representation.
		require.Zero(t, big.NewInt(int64(i)).Cmp(crypto.Decrypt(priv, parsed)))
	}
}

func TestLinkedChainVerifies(t *testing.T) {
	entries := LinkedChain(audit.EventVoteReceived, audit.EventVoteReceived, audit.EventPhotoUploaded)
	require.Len(t, entries, 3)
	require.Empty(t, entries[0].PrevHash)

	result := audit.Verify(entries)
	require.True(t, result.OK)
	require.Equal(t, 3, result.Length)

	entries[1].PrevHash = "forged"
	broken := audit.Verify(entries)
	require.False(t, broken.OK)
	require.Equal(t, entries[1].ID, *broken.FirstBrokenID)
}
