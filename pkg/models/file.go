package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	FileSourceUpload    = "upload"
	FileSourceJobResult = "job_result"
)

// File is an immutable content record. The bytes live in the blob store under
// StorageKey and are never rewritten after creation.
type File struct {
	ID          uuid.UUID `db:"id"           json:"id"`
	OwnerID     uuid.UUID `db:"owner_id"     json:"owner_id"`
	StorageKey  string    `db:"storage_key"  json:"-"`
	Filename    string    `db:"filename"     json:"filename"`
	ContentType string    `db:"content_type" json:"content_type"`
	SizeBytes   int64     `db:"size_bytes"   json:"size_bytes"`
	SHA256      string    `db:"sha256"       json:"sha256"`
	Source      string    `db:"source"       json:"source"`
	CreatedAt   time.Time `db:"created_at"   json:"created_at"`
}
