package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store is the blob-store collaborator: it persists raw uploaded bytes
// under an object key and hands back a retrievable URL for them.
// Metadata stays in the file registry; only bytes live here.
type Store interface {
	Save(ctx context.Context, key string, data io.Reader, size int64, contentType string) (int64, error)
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// FileSystemStore stores uploaded blobs on the local filesystem and serves
// them through the router's /media/ static route.
type FileSystemStore struct {
	basePath string
	baseURL  string
}

// NewFileSystemStore creates a new filesystem storage backend. baseURL is
// the public server address used to build download URLs.
func NewFileSystemStore(basePath, baseURL string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath, baseURL: baseURL}
}

// EnsureDir creates the storage directory if it doesn't exist.
func (fs *FileSystemStore) EnsureDir() error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data to a file named after the object key.
// Returns the number of bytes written.
func (fs *FileSystemStore) Save(_ context.Context, key string, data io.Reader, _ int64, _ string) (int64, error) {
	filePath := fs.filePath(key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up partial file on error
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// URL returns the public media URL for a stored blob.
// Returns an error if the blob does not exist on disk.
func (fs *FileSystemStore) URL(_ context.Context, key string) (string, error) {
	filePath := fs.filePath(key)

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("blob not found for key %s", key)
		}
		return "", fmt.Errorf("failed to stat blob: %w", err)
	}

	return fs.baseURL + "/media/" + key, nil
}

// Delete removes the stored blob for an object key.
func (fs *FileSystemStore) Delete(_ context.Context, key string) error {
	filePath := fs.filePath(key)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", filePath, err)
	}
	return nil
}

// BasePath returns the directory the router should expose as /media/.
func (fs *FileSystemStore) BasePath() string {
	return fs.basePath
}

func (fs *FileSystemStore) filePath(key string) string {
	return filepath.Join(fs.basePath, filepath.FromSlash(key))
}
