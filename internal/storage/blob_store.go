package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	// ErrNotFound is returned when a blob is missing on disk.
	ErrNotFound = errors.New("blob not found")
	// ErrStorageFailure is returned when a blob could not be fully persisted.
	ErrStorageFailure = errors.New("storage failure")
)

// Blob describes a file persisted by the BlobStore.
type Blob struct {
	Key  string
	Path string
	Size int64
}

// BlobStore places uploaded files under a per-owner directory below root.
// Blob names are opaque keys, never the client-supplied filename.
type BlobStore struct {
	fs   afero.Fs
	root string
}

// NewBlobStore creates the root directory on fs if needed.
func NewBlobStore(afs afero.Fs, root string) (*BlobStore, error) {
	if err := afs.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root %s: %w", root, err)
	}
	return &BlobStore{fs: afs, root: root}, nil
}

// NewOSBlobStore is a BlobStore on the local filesystem.
func NewOSBlobStore(root string) (*BlobStore, error) {
	return NewBlobStore(afero.NewOsFs(), root)
}

// OwnerDir returns the directory holding an owner's blobs.
func (s *BlobStore) OwnerDir(ownerID uint) string {
	return filepath.Join(s.root, strconv.FormatUint(uint64(ownerID), 10))
}

// Store copies r into a new blob for ownerID. The data is written to a
// temporary file, synced and renamed into place, so a failed upload never
// leaves a truncated blob at the returned path.
func (s *BlobStore) Store(ownerID uint, r io.Reader) (*Blob, error) {
	dir := s.OwnerDir(ownerID)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create owner dir %s: %v: %w", dir, err, ErrStorageFailure)
	}

	key := uuid.NewString()
	final := filepath.Join(dir, key)

	tmp, err := afero.TempFile(s.fs, dir, "."+key+"-*.part")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %v: %w", err, ErrStorageFailure)
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = s.fs.Rename(tmpName, final)
	}
	if err != nil {
		if rmErr := s.fs.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("write blob: %v (cleanup: %v): %w", err, rmErr, ErrStorageFailure)
		}
		return nil, fmt.Errorf("write blob: %v: %w", err, ErrStorageFailure)
	}

	return &Blob{Key: key, Path: final, Size: size}, nil
}

// Open returns the blob at path for reading along with its current size.
func (s *BlobStore) Open(path string) (afero.File, int64, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, 0, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}

	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	return f, info.Size(), nil
}

// Remove deletes the blob at path. A missing blob is not an error.
func (s *BlobStore) Remove(path string) error {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
