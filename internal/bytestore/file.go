package bytestore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/andybalholm/brotli"
	"github.com/cespare/xxhash/v2"
)

// blobExt marks files owned by this store inside the cache directory.
const blobExt = ".br"

// FileStore persists one brotli-compressed blob per key under a directory.
// Filenames are the xxhash64 of the key, so any key string maps to a safe,
// fixed-length filename. Suitable for single-instance deployments.
type FileStore struct {
	mu     sync.RWMutex
	dir    string
	hits   atomic.Int64
	misses atomic.Int64
}

// NewFileStore creates the cache directory if needed and returns the store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%016x%s", xxhash.Sum64String(key), blobExt))
}

// Get reads and decompresses the blob for key.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			s.misses.Add(1)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open blob: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(brotli.NewReader(f))
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress blob: %w", err)
	}
	s.hits.Add(1)
	return data, true, nil
}

// Set compresses value and writes it atomically using temp file + rename.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(value); err != nil {
		return fmt.Errorf("failed to compress blob: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize compression: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp) // Clean up temp file
		return fmt.Errorf("failed to rename blob: %w", err)
	}
	return nil
}

// Delete removes the blob for key if present.
func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Stats walks the cache directory, reporting compressed on-disk size.
func (s *FileStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != blobExt {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.ItemCount++
		stats.SizeBytes += info.Size()
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to walk cache directory: %w", err)
	}
	return stats, nil
}

// Close releases resources (no-op for file store).
func (s *FileStore) Close() error {
	return nil
}
