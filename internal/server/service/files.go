package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"vertex/internal/server/database"
	"vertex/internal/server/storage"

	"github.com/google/uuid"
)

// ErrNotFound covers both a missing file id and an id owned by someone
// else; ownership isolation must not leak existence.
var ErrNotFound = errors.New("file not found")

// FileStore is the persistence surface FileService needs. Implemented by
// database.FileRepository; tests substitute an in-memory fake.
type FileStore interface {
	Create(ctx context.Context, file *database.File) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*database.File, error)
	GetByOwner(ctx context.Context, ownerID, fileID uuid.UUID) (*database.File, error)
}

// FileInfo is the metadata view returned for a stored file.
type FileInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"-"` // map key in responses, not a field
	URL       string    `json:"url"`
	Type      string    `json:"type"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// FileService owns the file registry: blob persistence via the store
// collaborator plus owner-scoped metadata.
type FileService struct {
	repo  FileStore
	store storage.Store
}

// NewFileService creates a new file service.
func NewFileService(repo FileStore, store storage.Store) *FileService {
	return &FileService{repo: repo, store: store}
}

// Store persists the uploaded bytes and records metadata for the owner.
// The blob write and the metadata insert are not atomic: when the insert
// fails the blob is deleted best-effort, but a crash in between can leak a
// stored blob with no record.
func (s *FileService) Store(ctx context.Context, ownerID uuid.UUID, data io.Reader, filename, contentType string, size int64) (*FileInfo, error) {
	id := uuid.New()
	objectKey := "uploads/" + id.String()
	name := sanitizeFilename(filename)

	written, err := s.store.Save(ctx, objectKey, data, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	now := time.Now().UTC()
	file := &database.File{
		ID:          id,
		OwnerID:     ownerID,
		Name:        name,
		ContentType: contentType,
		SizeBytes:   written,
		ObjectKey:   objectKey,
		CreatedAt:   now,
	}

	if err := s.repo.Create(ctx, file); err != nil {
		if derr := s.store.Delete(ctx, objectKey); derr != nil {
			slog.Error("failed to clean up orphaned blob", "key", objectKey, "error", derr)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	slog.Info("file stored",
		"id", id,
		"owner", ownerID,
		"filename", name,
		"content_type", contentType,
		"size", written,
	)

	return s.fileInfo(ctx, file), nil
}

// List returns every file owned by ownerID, and nothing owned by anyone
// else. An owner with no files gets an empty slice.
func (s *FileService) List(ctx context.Context, ownerID uuid.UUID) ([]*FileInfo, error) {
	files, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	infos := make([]*FileInfo, 0, len(files))
	for _, f := range files {
		infos = append(infos, s.fileInfo(ctx, f))
	}
	return infos, nil
}

// Get returns one file owned by ownerID. Unparseable ids and ids belonging
// to other owners both report ErrNotFound.
func (s *FileService) Get(ctx context.Context, ownerID uuid.UUID, fileID string) (*FileInfo, error) {
	id, err := uuid.Parse(fileID)
	if err != nil {
		return nil, ErrNotFound
	}

	file, err := s.repo.GetByOwner(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, database.ErrFileNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return s.fileInfo(ctx, file), nil
}

// fileInfo builds the metadata view, resolving the blob URL. A blob the
// store cannot locate degrades to an empty URL rather than failing the
// whole metadata read.
func (s *FileService) fileInfo(ctx context.Context, f *database.File) *FileInfo {
	url, err := s.store.URL(ctx, f.ObjectKey)
	if err != nil {
		slog.Error("failed to resolve blob URL", "id", f.ID, "key", f.ObjectKey, "error", err)
		url = ""
	}

	return &FileInfo{
		ID:        f.ID.String(),
		Name:      f.Name,
		URL:       url,
		Type:      f.ContentType,
		Size:      f.SizeBytes,
		CreatedAt: f.CreatedAt,
	}
}

// maxFilenameBytes bounds stored display names; the filename arrives
// straight from the client's Content-Disposition header.
const maxFilenameBytes = 255

// sanitizeFilename strips directory components and limits length.
func sanitizeFilename(name string) string {
	// Normalize Windows-style backslashes to forward slashes before
	// calling filepath.Base, which is platform-specific.
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)

	if len(name) > maxFilenameBytes {
		ext := filepath.Ext(name)
		if len(ext) >= maxFilenameBytes {
			// The "extension" is the whole name; nothing worth keeping.
			ext = ""
		}
		stem := truncateRunes(name[:len(name)-len(ext)], maxFilenameBytes-len(ext))
		name = stem + ext
	}

	if name == "" || name == "." || name == "/" {
		name = "upload.bin"
	}

	return name
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
