// Package runner claims queued jobs and executes their apps. Multiple runner
// processes can poll the same queue; the conditional claim in the store
// guarantees each job is executed by at most one of them.
package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utilityhub/utilityhub/internal/apps"
	"github.com/utilityhub/utilityhub/internal/blob"
	"github.com/utilityhub/utilityhub/internal/cache"
	"github.com/utilityhub/utilityhub/internal/store"
	"github.com/utilityhub/utilityhub/pkg/models"
)

// ErrOwnershipMismatch marks a job whose input file belongs to a different
// owner. The runner fails such jobs without ever fetching the blob.
var ErrOwnershipMismatch = errors.New("input file owner does not match job owner")

// Progress checkpoints reported while a job runs. Claim sets 5; terminal
// states set 100.
const (
	progressFetching = 20
	progressRunning  = 55
)

// Outcome describes what happened to one job in a batch.
type Outcome struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

type Runner struct {
	store    store.Store
	blobs    blob.Store
	registry *apps.Registry
	cache    cache.Cache
	logger   *slog.Logger
}

func New(st store.Store, blobs blob.Store, registry *apps.Registry, ca cache.Cache, logger *slog.Logger) *Runner {
	return &Runner{store: st, blobs: blobs, registry: registry, cache: ca, logger: logger}
}

// RunBatch claims and executes up to limit queued jobs, oldest first. The
// batch ends early when the queue drains or another runner wins a claim; a
// failed job does not stop the batch. Infrastructure errors before a claim
// abort the batch.
func (r *Runner) RunBatch(ctx context.Context, limit int) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, limit)

	for i := 0; i < limit; i++ {
		next, err := r.store.NextQueuedJob(ctx)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return outcomes, fmt.Errorf("fetching next queued job: %w", err)
		}

		job, err := r.store.ClaimJob(ctx, next.ID)
		if errors.Is(err, store.ErrNotFound) {
			// Lost the claim race; another runner is ahead of us, so stop
			// rather than contend for the rest of the queue.
			r.logger.Debug("lost job claim", "job_id", next.ID)
			break
		}
		if err != nil {
			return outcomes, fmt.Errorf("claiming job %s: %w", next.ID, err)
		}

		outcomes = append(outcomes, r.execute(ctx, job))
	}

	return outcomes, nil
}

// execute drives a claimed job to a terminal state. Every exit path calls
// CompleteJob or FailJob so the job can never be stranded in processing.
func (r *Runner) execute(ctx context.Context, job *models.Job) Outcome {
	start := time.Now()
	log := r.logger.With("job_id", job.ID, "app_id", job.AppID)
	log.Info("job claimed")

	err := r.run(ctx, job)
	if err != nil {
		log.Warn("job failed", "error", err, "duration", time.Since(start))
		if failErr := r.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			log.Error("recording job failure", "error", failErr)
		}
		r.invalidateJobCache(ctx, job.ID)
		return Outcome{JobID: job.ID, Status: models.JobStatusFailed, Error: err.Error()}
	}

	log.Info("job completed", "duration", time.Since(start))
	r.invalidateJobCache(ctx, job.ID)
	r.recordCompletion(ctx, job, start)
	return Outcome{JobID: job.ID, Status: models.JobStatusCompleted}
}

// run performs the app execution pipeline for one claimed job.
func (r *Runner) run(ctx context.Context, job *models.Job) error {
	app, err := r.registry.Get(job.AppID)
	if err != nil {
		return err
	}

	inputFile, err := r.store.GetFileByID(ctx, job.InputFileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("input file %s not found", job.InputFileID)
		}
		return fmt.Errorf("loading input file record: %w", err)
	}

	if inputFile.OwnerID != job.OwnerID {
		return ErrOwnershipMismatch
	}

	if err := r.store.UpdateJobProgress(ctx, job.ID, progressFetching); err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}

	body, err := r.blobs.Get(ctx, inputFile.StorageKey)
	if err != nil {
		return fmt.Errorf("fetching input object: %w", err)
	}
	data, err := blob.ToBytes(body)
	if err != nil {
		return fmt.Errorf("reading input object: %w", err)
	}

	if err := r.store.UpdateJobProgress(ctx, job.ID, progressRunning); err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}

	options, err := app.ValidateOptions(job.Options)
	if err != nil {
		return err
	}

	runResult, err := app.Run(ctx, apps.RunContext{
		OwnerID:   job.OwnerID,
		JobID:     job.ID,
		InputFile: inputFile,
		InputData: data,
		Options:   options,
	})
	if err != nil {
		return fmt.Errorf("running app %s: %w", job.AppID, err)
	}

	resultFile, err := r.storeResult(ctx, job, runResult)
	if err != nil {
		return fmt.Errorf("storing result artifact: %w", err)
	}

	if err := r.store.CompleteJob(ctx, job.ID, runResult.Report, resultFile.ID); err != nil {
		return fmt.Errorf("completing job: %w", err)
	}

	return nil
}

// storeResult uploads the app's output artifact and records its file row.
func (r *Runner) storeResult(ctx context.Context, job *models.Job, result *apps.RunResult) (*models.File, error) {
	sum := sha256.Sum256(result.OutputData)
	now := time.Now().UTC()

	file := &models.File{
		ID:          uuid.New(),
		OwnerID:     job.OwnerID,
		Filename:    result.OutputFilename,
		ContentType: result.OutputContentType,
		SizeBytes:   int64(len(result.OutputData)),
		SHA256:      hex.EncodeToString(sum[:]),
		Source:      models.FileSourceJobResult,
		CreatedAt:   now,
	}
	file.StorageKey = blob.ObjectKey(file.OwnerID, file.ID, file.Filename, now)

	if err := r.blobs.Put(ctx, file.StorageKey, result.OutputData, file.ContentType, map[string]string{
		"job-id": job.ID.String(),
	}); err != nil {
		return nil, fmt.Errorf("uploading result object: %w", err)
	}

	if err := r.store.CreateFile(ctx, file); err != nil {
		return nil, fmt.Errorf("recording result file: %w", err)
	}

	return file, nil
}

// invalidateJobCache drops the cached job row after a terminal write so
// polls observe the final state immediately. Best effort.
func (r *Runner) invalidateJobCache(ctx context.Context, jobID uuid.UUID) {
	if err := r.cache.Delete(ctx, cache.JobKey(jobID)); err != nil {
		r.logger.Debug("invalidating job cache", "job_id", jobID, "error", err)
	}
}

// recordCompletion writes the job_completed usage event for a successful
// run. The job is already terminal; an audit write failure must not
// resurrect it, so errors are logged and swallowed.
func (r *Runner) recordCompletion(ctx context.Context, job *models.Job, start time.Time) {
	jobID := job.ID
	event := &models.UsageEvent{
		ID:         uuid.New(),
		OwnerID:    job.OwnerID,
		EventType:  models.EventJobCompleted,
		ResourceID: &jobID,
		Metadata: map[string]any{
			"app_id":      job.AppID,
			"duration_ms": time.Since(start).Milliseconds(),
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateUsageEvent(ctx, event); err != nil {
		r.logger.Error("recording usage event", "job_id", job.ID, "error", err)
	}
}
