package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/utilityhub/utilityhub/pkg/models"
)

const jobColumns = `id, seq, owner_id, app_id, input_file_id, status, progress, options, result,
	 result_file_id, error, created_at, updated_at, started_at, completed_at`

const fileColumns = `id, owner_id, storage_key, filename, content_type, size_bytes, sha256, source, created_at`

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Files ---

func (s *PostgresStore) CreateFile(ctx context.Context, file *models.File) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO files (id, owner_id, storage_key, filename, content_type, size_bytes, sha256, source, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		file.ID, file.OwnerID, file.StorageKey, file.Filename, file.ContentType,
		file.SizeBytes, file.SHA256, file.Source, file.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetFile(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.File, error) {
	return s.scanFile(s.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

func (s *PostgresStore) GetFileByID(ctx context.Context, id uuid.UUID) (*models.File, error) {
	return s.scanFile(s.pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files WHERE id = $1`, id))
}

func (s *PostgresStore) scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	err := row.Scan(&f.ID, &f.OwnerID, &f.StorageKey, &f.Filename, &f.ContentType,
		&f.SizeBytes, &f.SHA256, &f.Source, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return &f, nil
}

// --- Jobs ---

func (s *PostgresStore) CreateJob(ctx context.Context, job *models.Job) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (id, owner_id, app_id, input_file_id, status, progress, options, result, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING seq`,
		job.ID, job.OwnerID, job.AppID, job.InputFileID, job.Status, job.Progress,
		job.Options, job.Result, job.CreatedAt, job.UpdatedAt,
	).Scan(&job.Seq)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*models.Job, error) {
	return s.scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND owner_id = $2`, id, ownerID))
}

func (s *PostgresStore) ListRecentJobs(ctx context.Context, ownerID uuid.UUID, limit int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		j, err := s.scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (s *PostgresStore) NextQueuedJob(ctx context.Context) (*models.Job, error) {
	return s.scanJob(s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE status = $1
		 ORDER BY created_at ASC, seq ASC LIMIT 1`, models.JobStatusQueued))
}

func (s *PostgresStore) ClaimJob(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	// Compare-and-swap on status. At most one concurrent runner observes a
	// non-empty RETURNING set; everyone else gets ErrNotFound.
	return s.scanJob(s.pool.QueryRow(ctx,
		`UPDATE jobs
		 SET status = $2, progress = 5, started_at = NOW(), updated_at = NOW(), error = NULL
		 WHERE id = $1 AND status = $3
		 RETURNING `+jobColumns,
		id, models.JobStatusProcessing, models.JobStatusQueued))
}

func (s *PostgresStore) UpdateJobProgress(ctx context.Context, id uuid.UUID, progress int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs SET progress = $2, updated_at = NOW() WHERE id = $1`, id, progress)
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, id uuid.UUID, result map[string]any, resultFileID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs
		 SET status = $2, progress = 100, result = $3, result_file_id = $4,
		     completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id, models.JobStatusCompleted, result, resultFileID)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

func (s *PostgresStore) FailJob(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs
		 SET status = $2, progress = 100, error = $3, completed_at = NOW(), updated_at = NOW()
		 WHERE id = $1`,
		id, models.JobStatusFailed, reason)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanJob(row pgx.Row) (*models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.Seq, &j.OwnerID, &j.AppID, &j.InputFileID, &j.Status,
		&j.Progress, &j.Options, &j.Result, &j.ResultFileID, &j.Error,
		&j.CreatedAt, &j.UpdatedAt, &j.StartedAt, &j.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}

// --- API Keys ---

func (s *PostgresStore) GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, key_hash, key_prefix, scopes, last_used_at, revoked_at, created_at, updated_at
		 FROM api_keys WHERE key_prefix = $1 AND revoked_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api keys by prefix: %w", err)
	}
	defer rows.Close()
	return scanAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, owner_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.OwnerID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, ownerID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, owner_id, name, key_hash, key_prefix, scopes, last_used_at, revoked_at, created_at, updated_at
		 FROM api_keys WHERE owner_id = $1 AND revoked_at IS NULL ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	defer rows.Close()
	return scanAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET revoked_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND owner_id = $2 AND revoked_at IS NULL`, id, ownerID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.RevokedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// --- Usage Events ---

func (s *PostgresStore) CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_events (id, owner_id, api_key_id, event_type, resource_id, metadata, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.OwnerID, event.APIKeyID, event.EventType, event.ResourceID,
		event.Metadata, event.RequestID, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("create usage event: %w", err)
	}
	return nil
}

func (s *PostgresStore) CountUsageSince(ctx context.Context, eventType string, ownerID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM usage_events
		 WHERE event_type = $1 AND owner_id = $2 AND created_at >= $3`,
		eventType, ownerID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count usage events: %w", err)
	}
	return count, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
