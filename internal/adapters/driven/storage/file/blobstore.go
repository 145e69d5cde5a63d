package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
	"github.com/tao-shen/CiteTrack-sub002/internal/core/ports/driven"
	"github.com/tao-shen/CiteTrack-sub002/internal/logger"
)

var (
	_ driven.BlobStore   = (*BlobStore)(nil)
	_ driven.BlobWatcher = (*BlobStore)(nil)
)

// defaultDebounce coalesces the burst of events one rename produces.
const defaultDebounce = 100 * time.Millisecond

// BlobStore stores blobs as files in a directory shared with companion
// processes.
type BlobStore struct {
	dir      string
	debounce time.Duration
	log      logger.Logger

	mu sync.Mutex
	// written holds the digest of the last bytes this process wrote per key,
	// so Watch can ignore its own writes.
	written map[string][sha256.Size]byte
}

// NewBlobStore creates a blob store in dir.
// If dir is empty, defaults to ~/.citetrack/data.
func NewBlobStore(dir string) (*BlobStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".citetrack", "data")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &BlobStore{
		dir:      dir,
		debounce: defaultDebounce,
		log:      logger.Scope("blobstore"),
		written:  make(map[string][sha256.Size]byte),
	}, nil
}

// Dir returns the directory holding the blobs.
func (s *BlobStore) Dir() string {
	return s.dir
}

func (s *BlobStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: blob key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

// ReadBlob returns the bytes stored under key.
func (s *BlobStore) ReadBlob(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", key, err)
	}
	return data, nil
}

// WriteBlob atomically replaces the bytes stored under key.
func (s *BlobStore) WriteBlob(_ context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing blob %s: %w", key, err)
	}
	s.written[key] = sha256.Sum256(data)
	return nil
}

// DeleteBlob removes key.
func (s *BlobStore) DeleteBlob(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.written, key)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting blob %s: %w", key, err)
	}
	return nil
}

// Watch calls onChange after another process writes key. Blocks until ctx
// is cancelled.
func (s *BlobStore) Watch(ctx context.Context, key string, onChange func()) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Renames replace the file, so watch the directory rather than the file.
	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}

	name := filepath.Base(path)
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name || !isBlobWrite(event) {
				continue
			}
			timer.Reset(s.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watch %s: %v", key, err)

		case <-timer.C:
			if s.isOwnWrite(key, path) {
				continue
			}
			s.log.Debug("%s changed on disk", key)
			onChange()
		}
	}
}

// isOwnWrite reports whether the file still holds the bytes this process
// last wrote.
func (s *BlobStore) isOwnWrite(key, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	sum := sha256.Sum256(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	last, ok := s.written[key]
	return ok && bytes.Equal(last[:], sum[:])
}

func isBlobWrite(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0
}
