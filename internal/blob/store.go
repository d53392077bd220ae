package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/kereva-dev/duet/pkg/errcode"
)

var refPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Store is a content-addressed blob store backed by the local filesystem.
// Blobs are keyed by the hex SHA-256 of their content, so uploads are
// idempotent and refs are safe to embed in messages verbatim.
type Store struct {
	dir     string
	maxSize int64
}

// NewStore creates a Store rooted at dir
func NewStore(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// MaxSize returns the configured per-blob size cap
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// Put stores data and returns its ref. Rejects payloads over the size cap
// before touching disk.
func (s *Store) Put(data []byte) (string, error) {
	if int64(len(data)) > s.maxSize {
		return "", errcode.ErrAttachmentTooLarge
	}
	if len(data) == 0 {
		return "", errcode.ErrInvalidParam
	}

	sum := sha256.Sum256(data)
	ref := hex.EncodeToString(sum[:])
	path := filepath.Join(s.dir, ref)

	// Same content, same path. Skip the rewrite.
	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}

	tmp, err := os.CreateTemp(s.dir, "upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp blob: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to place blob: %w", err)
	}

	return ref, nil
}

// Get reads a blob back by ref
func (s *Store) Get(ref string) ([]byte, error) {
	if !ValidRef(ref) {
		return nil, errcode.ErrBlobNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if os.IsNotExist(err) {
		return nil, errcode.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *Store) Delete(ref string) error {
	if !ValidRef(ref) {
		return errcode.ErrBlobNotFound
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// ValidRef reports whether ref has the shape of a stored blob key.
// Also guards against path traversal in user-supplied refs.
func ValidRef(ref string) bool {
	return refPattern.MatchString(ref)
}

// FormatSize renders a byte count for user display. Sizes under one
// megabyte show one decimal in KB, larger sizes two decimals in MB.
func FormatSize(size int64) string {
	const (
		kb = 1024
		mb = 1024 * 1024
	)
	if size < mb {
		return fmt.Sprintf("%.1fKB", float64(size)/kb)
	}
	return fmt.Sprintf("%.2fMB", float64(size)/mb)
}
