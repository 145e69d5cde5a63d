package driven

import "context"

// BlobStore persists opaque blobs by key.
type BlobStore interface {
	// ReadBlob returns the stored bytes.
	// Returns domain.ErrNotFound if nothing is stored under key.
	ReadBlob(ctx context.Context, key string) ([]byte, error)

	// WriteBlob replaces the bytes stored under key.
	WriteBlob(ctx context.Context, key string, data []byte) error

	// DeleteBlob removes key. Deleting a missing key is not an error.
	DeleteBlob(ctx context.Context, key string) error
}

// BlobWatcher reports writes to a blob made by another process.
type BlobWatcher interface {
	// Watch calls onChange after key is written externally.
	// Blocks until ctx is cancelled.
	Watch(ctx context.Context, key string, onChange func()) error
}
