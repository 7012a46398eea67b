package database

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Rows are immutable after creation; there is
// no profile update path.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// File is the metadata record for one uploaded file. The bytes themselves
// live in the blob store under ObjectKey.
type File struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	ContentType string
	SizeBytes   int64
	ObjectKey   string
	CreatedAt   time.Time
}
