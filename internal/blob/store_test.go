package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kereva-dev/duet/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), maxSize)
	require.NoError(t, err)
	return store
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore(t, 1024)

	data := []byte("hello attachment")
	ref, err := store.Put(data)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), ref)

	got, err := store.Get(ref)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPutIdempotent(t *testing.T) {
	store := newTestStore(t, 1024)

	data := []byte("same bytes")
	ref1, err := store.Put(data)
	require.NoError(t, err)
	ref2, err := store.Put(data)
	require.NoError(t, err)
	assert.Equal(t, ref1, ref2)

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(filepath.Join(store.dir, ref1)))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestPutTooLarge(t *testing.T) {
	store := newTestStore(t, 8)

	_, err := store.Put(make([]byte, 9))
	assert.True(t, errors.Is(err, errcode.ErrAttachmentTooLarge))

	// At the cap is still accepted.
	_, err = store.Put(make([]byte, 8))
	assert.NoError(t, err)
}

func TestPutEmpty(t *testing.T) {
	store := newTestStore(t, 1024)

	_, err := store.Put(nil)
	assert.True(t, errors.Is(err, errcode.ErrInvalidParam))
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t, 1024)

	sum := sha256.Sum256([]byte("never stored"))
	_, err := store.Get(hex.EncodeToString(sum[:]))
	assert.True(t, errors.Is(err, errcode.ErrBlobNotFound))
}

func TestGetRejectsMalformedRef(t *testing.T) {
	store := newTestStore(t, 1024)

	for _, ref := range []string{
		"",
		"../../etc/passwd",
		"short",
		"ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789ABCDEF0123456789",
	} {
		_, err := store.Get(ref)
		assert.True(t, errors.Is(err, errcode.ErrBlobNotFound), "ref %q", ref)
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t, 1024)

	ref, err := store.Put([]byte("to remove"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ref))
	_, err = store.Get(ref)
	assert.True(t, errors.Is(err, errcode.ErrBlobNotFound))

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ref))
}

func TestValidRef(t *testing.T) {
	sum := sha256.Sum256([]byte("x"))
	assert.True(t, ValidRef(hex.EncodeToString(sum[:])))
	assert.False(t, ValidRef("not-a-ref"))
	assert.False(t, ValidRef(""))
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "0.5KB", FormatSize(512))
	assert.Equal(t, "1.0KB", FormatSize(1024))
	assert.Equal(t, "750.0KB", FormatSize(750*1024))
	assert.Equal(t, "1.00MB", FormatSize(1024*1024))
	assert.Equal(t, "1.50MB", FormatSize(1536*1024))
}
