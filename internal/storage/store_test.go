package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Local {
	t.Helper()

	root := t.TempDir()
	store, err := New(filepath.Join(root, "uploads"), filepath.Join(root, "completed"))
	require.NoError(t, err)
	return store
}

func TestStoreChunkCommitsAtomically(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("u1", 0, []byte("hello")))

	require.True(t, store.ChunkExists("u1", 0))
	size, ok := store.ChunkSize("u1", 0)
	require.True(t, ok)
	require.Equal(t, int64(5), size)

	data, err := store.GetChunk("u1", 0)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	// No temp file left behind after the commit.
	entries, err := os.ReadDir(filepath.Join(store.uploadsRoot, "u1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "0.chunk", entries[0].Name())
}

func TestStoreChunkOverwriteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("u1", 3, []byte("same bytes")))
	require.NoError(t, store.StoreChunk("u1", 3, []byte("same bytes")))
	require.NoError(t, store.StoreChunk("u1", 3, []byte("same bytes")))

	require.Equal(t, []int{3}, store.ListChunks("u1"))

	data, err := store.GetChunk("u1", 3)
	require.NoError(t, err)
	require.Equal(t, []byte("same bytes"), data)
}

func TestStoreChunkAcceptsEmptyPayload(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("u1", 0, nil))
	size, ok := store.ChunkSize("u1", 0)
	require.True(t, ok)
	require.Zero(t, size)
}

func TestGetChunkMissing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, err := store.GetChunk("nope", 0)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.False(t, store.ChunkExists("nope", 0))
	_, ok := store.ChunkSize("nope", 0)
	require.False(t, ok)
}

func TestListChunksSortedAndFiltered(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	for _, idx := range []int{4, 0, 2} {
		require.NoError(t, store.StoreChunk("u1", idx, []byte{byte(idx)}))
	}

	// Noise the enumeration must ignore: temp files and non-integer stems.
	dir := filepath.Join(store.uploadsRoot, "u1")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.chunk.tmp"), []byte("partial"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.chunk"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	require.Equal(t, []int{0, 2, 4}, store.ListChunks("u1"))
}

func TestListChunksMissingDir(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	require.Empty(t, store.ListChunks("absent"))
}

func TestReassembleFileOrdersChunks(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	// Stored out of order; output must follow index order.
	require.NoError(t, store.StoreChunk("u1", 2, []byte("cc")))
	require.NoError(t, store.StoreChunk("u1", 0, []byte("aa")))
	require.NoError(t, store.StoreChunk("u1", 1, []byte("bb")))

	path, err := store.ReassembleFile("u1", 3, "out.bin", 6)
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("aabbcc"), content)

	// Staging chunks survive reassembly; cleanup is separate.
	require.Equal(t, []int{0, 1, 2}, store.ListChunks("u1"))
}

func TestReassembleFileMissingChunks(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("u1", 0, []byte("aa")))
	require.NoError(t, store.StoreChunk("u1", 3, []byte("dd")))

	_, err := store.ReassembleFile("u1", 4, "out.bin", -1)
	var missingErr *MissingChunksError
	require.ErrorAs(t, err, &missingErr)
	require.Equal(t, []int{1, 2}, missingErr.Missing)

	_, statErr := os.Stat(filepath.Join(store.completedRoot, "out.bin"))
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestReassembleFileSizeMismatchDeletesOutput(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("u1", 0, []byte("abcd")))

	_, err := store.ReassembleFile("u1", 1, "out.bin", 99)
	require.Error(t, err)
	require.Contains(t, err.Error(), "size mismatch")

	_, statErr := os.Stat(filepath.Join(store.completedRoot, "out.bin"))
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestReassembleFileSkipsSizeCheckWhenNegative(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("u1", 0, []byte("abcd")))

	path, err := store.ReassembleFile("u1", 1, "out.bin", -1)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte("abcd"), content)
}

func TestCleanupChunksRemovesSessionDir(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("u1", 0, []byte("x")))
	require.NoError(t, store.CleanupChunks("u1"))

	_, err := os.Stat(filepath.Join(store.uploadsRoot, "u1"))
	require.ErrorIs(t, err, os.ErrNotExist)

	// Cleaning an absent session is not an error.
	require.NoError(t, store.CleanupChunks("u1"))
}

func TestFileChecksum(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	sum, err := store.FileChecksum(path)
	require.NoError(t, err)
	require.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", sum)
	require.Len(t, sum, 64)
}

func TestConcurrentStoresSameIndex(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	payloadA := bytes.Repeat([]byte{0xaa}, 512)
	payloadB := bytes.Repeat([]byte{0xbb}, 512)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		payload := payloadA
		if i%2 == 1 {
			payload = payloadB
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.StoreChunk("u1", 0, payload)
		}()
	}
	wg.Wait()

	// Exactly one committed chunk; its content is one of the two payloads,
	// never an interleaving.
	require.Equal(t, []int{0}, store.ListChunks("u1"))
	data, err := store.GetChunk("u1", 0)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, payloadA) || bytes.Equal(data, payloadB))
}

func TestConcurrentStoresDistinctIndices(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	const total = 50
	errs := make(chan error, total)
	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		idx := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.StoreChunk("u1", idx, []byte{byte(idx)})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Len(t, store.ListChunks("u1"), total)
}

func TestStaleSessions(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	require.NoError(t, store.StoreChunk("old", 0, []byte("x")))
	require.NoError(t, store.StoreChunk("fresh", 0, []byte("x")))

	// Age the first session dir past the cutoff.
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(store.uploadsRoot, "old"), past, past))

	stale, err := store.StaleSessions(1 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"old"}, stale)
}
