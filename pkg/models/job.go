// Package models contains shared data models used across the UtilityHub codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job tracks one request to run an app against an input file. The API returns
// the job on POST /api/v1/jobs; the client polls GET /api/v1/jobs/{id} until
// status is completed or failed. Once a job is claimed by a runner only that
// runner mutates the row until it reaches a terminal state.
type Job struct {
	ID           uuid.UUID      `db:"id"             json:"id"`
	Seq          int64          `db:"seq"            json:"-"`
	OwnerID      uuid.UUID      `db:"owner_id"       json:"owner_id"`
	AppID        string         `db:"app_id"         json:"app_id"`
	InputFileID  uuid.UUID      `db:"input_file_id"  json:"input_file_id"`
	Status       string         `db:"status"         json:"status"`
	Progress     int            `db:"progress"       json:"progress"`
	Options      map[string]any `db:"options"        json:"options"`
	Result       map[string]any `db:"result"         json:"result,omitempty"`
	ResultFileID *uuid.UUID     `db:"result_file_id" json:"result_file_id,omitempty"`
	Error        *string        `db:"error"          json:"error,omitempty"`
	CreatedAt    time.Time      `db:"created_at"     json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"     json:"updated_at"`
	StartedAt    *time.Time     `db:"started_at"     json:"started_at,omitempty"`
	CompletedAt  *time.Time     `db:"completed_at"   json:"completed_at,omitempty"`
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
