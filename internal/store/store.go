package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/utilityhub/utilityhub/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.File, error)
	GetFileByID(ctx context.Context, id uuid.UUID) (*models.File, error)

	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.Job, error)
	ListRecentJobs(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Job, error)

	// NextQueuedJob returns the oldest queued job, ordered by created_at with
	// seq as the tie-break. Returns ErrNotFound when the queue is empty.
	NextQueuedJob(ctx context.Context) (*models.Job, error)
	// ClaimJob performs the conditional queued -> processing transition.
	// Returns ErrNotFound when another runner won the claim (zero rows updated);
	// the caller owns the job exclusively on success.
	ClaimJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int) error
	CompleteJob(ctx context.Context, id uuid.UUID, result map[string]any, resultFileID uuid.UUID) error
	// FailJob is the terminal escape hatch. It carries no status precondition
	// so a claimed job can never be left in processing.
	FailJob(ctx context.Context, id uuid.UUID, reason string) error

	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, ownerID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error

	CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error
	CountUsageSince(ctx context.Context, eventType string, ownerID uuid.UUID, since time.Time) (int, error)
}
