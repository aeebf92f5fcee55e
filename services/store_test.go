package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/fieldvotes/securevotes/audit"
	"github.com/stretchr/testify/require"
)

func seedQuestion(t *testing.T, store *InMemoryStore, questionID string) {
	t.Helper()
	_, err := store.CreateQuestion(context.Background(), questionID, "label", "admin")
	require.NoError(t, err)
}

func TestInMemoryStoreDuplicateQuestion(t *testing.T) {
	store := NewInMemoryStore()
	seedQuestion(t, store, "q1")

	_, err := store.CreateQuestion(context.Background(), "q1", "again", "admin")
	require.ErrorIs(t, err, ErrDuplicateQuestion)
}

func TestInMemoryStoreRejectsUnknownQuestion(t *testing.T) {
	store := NewInMemoryStore()

	_, _, err := store.RecordVote(context.Background(), &VoteRecord{
		QuestionID:             "missing",
		ParticipantFingerprint: Fingerprint("p1"),
		Ciphertext:             "12345",
		KeyID:                  DefaultKeyID,
	})
	require.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestInMemoryStoreChainLinkage(t *testing.T) {
	store := NewInMemoryStore()
	seedQuestion(t, store, "q1")

	for i := 0; i < 3; i++ {
		_, _, err := store.RecordVote(context.Background(), &VoteRecord{
			QuestionID:             "q1",
			ParticipantFingerprint: Fingerprint(fmt.Sprintf("p%d", i)),
			Ciphertext:             fmt.Sprintf("100%d", i),
			KeyID:                  DefaultKeyID,
		})
		require.NoError(t, err)
	}
	_, _, err := store.RecordPhoto(context.Background(), &StoredPhoto{
		ObjectName:  "site.jpg",
		StorageKey:  "k1",
		Nonce:       "bm9uY2U=",
		Alg:         "AES-256-GCM",
		ContentType: "image/jpeg",
		SizeBytes:   128,
		KeyID:       "local",
	})
	require.NoError(t, err)

	entries, err := store.AuditEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 4)
	require.Empty(t, entries[0].PrevHash)
	for i := 1; i < len(entries); i++ {
		require.Equal(t, entries[i-1].PayloadHash, entries[i].PrevHash, "entry %d", i)
	}
	require.Equal(t, audit.EventPhotoUploaded, entries[3].EventType)

	result := audit.Verify(entries)
	require.True(t, result.OK)
}

func TestInMemoryStoreConcurrentAppends(t *testing.T) {
	store := NewInMemoryStore()
	seedQuestion(t, store, "q1")

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := store.RecordVote(context.Background(), &VoteRecord{
				QuestionID:             "q1",
				ParticipantFingerprint: Fingerprint(fmt.Sprintf("p%d", i)),
				Ciphertext:             fmt.Sprintf("9%d", i),
				KeyID:                  DefaultKeyID,
			})
			require.NoError(t, err)
		}(i)
	}
	wg.Wait()

	entries, err := store.AuditEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 32)
	require.True(t, audit.Verify(entries).OK)
}

func TestInMemoryStoreLatestAuditEntries(t *testing.T) {
	store := NewInMemoryStore()
	seedQuestion(t, store, "q1")
	for i := 0; i < 5; i++ {
		_, _, err := store.RecordVote(context.Background(), &VoteRecord{
			QuestionID:             "q1",
			ParticipantFingerprint: Fingerprint("p"),
			Ciphertext:             "1",
			KeyID:                  DefaultKeyID,
		})
		require.NoError(t, err)
	}

	latest, err := store.LatestAuditEntries(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Greater(t, latest[0].ID, latest[1].ID)

	all, err := store.LatestAuditEntries(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, all, 5)
}

func TestKeyringUnknownKey(t *testing.T) {
	pub, priv := testKeypair(t)
	keys := NewKeyringFromPair(DefaultKeyID, pub, priv)

	_, _, ok := keys.Keypair("key-v9")
	require.False(t, ok)

	gotPub, gotPriv, ok := keys.Keypair(DefaultKeyID)
	require.True(t, ok)
	require.Equal(t, pub, gotPub)
	require.Equal(t, priv, gotPriv)
	require.Equal(t, DefaultKeyID, keys.Default().KeyID)
}

func TestFileBlobStoreRoundTrip(t *testing.T) {
	blobs, err := NewFileBlobStore(t.TempDir())
	require.NoError(t, err)

	data := []byte("sealed photo bytes")
	require.NoError(t, blobs.Put(context.Background(), "blob-1", data))

	got, err := blobs.Get(context.Background(), "blob-1")
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestFileBlobStoreRejectsTraversal(t *testing.T) {
	blobs, err := NewFileBlobStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../escape", "a/b", `a\b`} {
		require.Error(t, blobs.Put(context.Background(), key, []byte("x")), "key %q", key)
		_, err := blobs.Get(context.Background(), key)
		require.Error(t, err, "key %q", key)
	}
}

func TestFingerprintStableAndOneWay(t *testing.T) {
	a := Fingerprint("participant-1")
	b := Fingerprint("participant-1")
	c := Fingerprint("participant-2")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Len(t, a, 64)
	require.NotContains(t, a, "participant")
}
