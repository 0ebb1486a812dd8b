package models

import (
	"time"

	"github.com/google/uuid"
)

// Usage event types written by the API and the job runner.
const (
	EventUpload       = "upload"
	EventJobCreated   = "job_created"
	EventJobCompleted = "job_completed"
	EventAIExplain    = "ai_explain"
)

// UsageEvent is an append-only audit record. Rate counters for the AI
// endpoint are computed by counting recent rows per event type and owner.
type UsageEvent struct {
	ID         uuid.UUID      `db:"id"          json:"id"`
	OwnerID    uuid.UUID      `db:"owner_id"    json:"owner_id"`
	APIKeyID   *uuid.UUID     `db:"api_key_id"  json:"api_key_id,omitempty"`
	EventType  string         `db:"event_type"  json:"event_type"`
	ResourceID *uuid.UUID     `db:"resource_id" json:"resource_id,omitempty"`
	Metadata   map[string]any `db:"metadata"    json:"metadata"`
	RequestID  *string        `db:"request_id"  json:"request_id,omitempty"`
	CreatedAt  time.Time      `db:"created_at"  json:"created_at"`
}
