package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

// FileRepository provides persistence for file metadata. Every read is
// scoped by owner; a file belonging to another user is indistinguishable
// from one that does not exist.
type FileRepository struct {
	db *DB
}

// NewFileRepository creates a new FileRepository.
func NewFileRepository(db *DB) *FileRepository {
	return &FileRepository{db: db}
}

// Create inserts a new file metadata record.
func (r *FileRepository) Create(ctx context.Context, file *File) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO files (id, owner_id, name, content_type, size_bytes, object_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		file.ID,
		file.OwnerID,
		file.Name,
		file.ContentType,
		file.SizeBytes,
		file.ObjectKey,
		file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create file record: %w", err)
	}
	return nil
}

// ListByOwner returns all files owned by the given user, in no particular
// order. An owner with no files gets an empty slice, not an error.
func (r *FileRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*File, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, owner_id, name, content_type, size_bytes, object_key, created_at
		FROM files WHERE owner_id = $1
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		file := &File{}
		if err := rows.Scan(
			&file.ID,
			&file.OwnerID,
			&file.Name,
			&file.ContentType,
			&file.SizeBytes,
			&file.ObjectKey,
			&file.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// GetByOwner retrieves one file by id, but only when it belongs to ownerID.
// A matching id under a different owner returns ErrFileNotFound.
func (r *FileRepository) GetByOwner(ctx context.Context, ownerID, fileID uuid.UUID) (*File, error) {
	file := &File{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, owner_id, name, content_type, size_bytes, object_key, created_at
		FROM files WHERE owner_id = $1 AND id = $2
	`, ownerID, fileID).Scan(
		&file.ID,
		&file.OwnerID,
		&file.Name,
		&file.ContentType,
		&file.SizeBytes,
		&file.ObjectKey,
		&file.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}
