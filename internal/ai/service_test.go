package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityhub/utilityhub/internal/ai/mock"
	"github.com/utilityhub/utilityhub/internal/config"
	"github.com/utilityhub/utilityhub/internal/store"
	"github.com/utilityhub/utilityhub/pkg/models"
)

// stubStore covers the Store methods the explain service touches.
type stubStore struct {
	store.Store

	jobs     map[uuid.UUID]*models.Job
	events   []*models.UsageEvent
	counts   map[string]int
	countErr error
	eventErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		jobs:   make(map[uuid.UUID]*models.Job),
		counts: make(map[string]int),
	}
}

func (s *stubStore) GetJob(ctx context.Context, id, ownerID uuid.UUID) (*models.Job, error) {
	j, ok := s.jobs[id]
	if !ok || j.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return j, nil
}

func (s *stubStore) CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error {
	if s.eventErr != nil {
		return s.eventErr
	}
	s.events = append(s.events, event)
	return nil
}

// CountUsageSince filters recorded events by timestamp the way the real
// store's created_at >= since query does. Pre-seeded counts are added on top.
func (s *stubStore) CountUsageSince(ctx context.Context, eventType string, ownerID uuid.UUID, since time.Time) (int, error) {
	if s.countErr != nil {
		return 0, s.countErr
	}
	n := s.counts[eventType]
	for _, e := range s.events {
		if e.EventType == eventType && e.OwnerID == ownerID && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// stubCache is an in-memory Cache.
type stubCache struct {
	data map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (c *stubCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *stubCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *stubCache) Ping(ctx context.Context) error { return nil }

func (c *stubCache) SetJob(ctx context.Context, job *models.Job, ttl time.Duration) error {
	return nil
}

func (c *stubCache) GetJob(ctx context.Context, jobID uuid.UUID) (*models.Job, bool, error) {
	return nil, false, nil
}

func (c *stubCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	return 1, nil
}

func enabledConfig() config.AIConfig {
	return config.AIConfig{
		Enabled:          true,
		Provider:         "mock",
		RatePerMinute:    5,
		DailyCap:         50,
		InferenceTimeout: time.Second,
	}
}

func completedJob(ownerID uuid.UUID) *models.Job {
	return &models.Job{
		ID:      uuid.New(),
		OwnerID: ownerID,
		AppID:   "csv_profiler",
		Status:  models.JobStatusCompleted,
		Result: map[string]any{
			"schemaVersion": "1.0",
			"summary":       map[string]any{"rowCount": 3},
		},
	}
}

func TestExplainDisabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	svc := NewExplainService(mock.NewProvider(), newStubStore(), newStubCache(), cfg)

	_, err := svc.Explain(context.Background(), uuid.New(), nil, uuid.New())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestExplainJobNotFound(t *testing.T) {
	svc := NewExplainService(mock.NewProvider(), newStubStore(), newStubCache(), enabledConfig())

	_, err := svc.Explain(context.Background(), uuid.New(), nil, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestExplainJobNotCompleted(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	job := completedJob(owner)
	job.Status = models.JobStatusProcessing
	job.Result = nil
	st.jobs[job.ID] = job

	svc := NewExplainService(mock.NewProvider(), st, newStubCache(), enabledConfig())

	_, err := svc.Explain(context.Background(), owner, nil, job.ID)
	assert.ErrorIs(t, err, ErrJobNotCompleted)
}

func TestExplainSuccess(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	keyID := uuid.New()
	job := completedJob(owner)
	st.jobs[job.ID] = job

	svc := NewExplainService(mock.NewProvider(), st, newStubCache(), enabledConfig())

	resp, err := svc.Explain(context.Background(), owner, &keyID, job.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Summary)
	assert.Equal(t, "mock", resp.Provider)
	assert.False(t, resp.Cached)

	require.Len(t, st.events, 1)
	assert.Equal(t, models.EventAIExplain, st.events[0].EventType)
	assert.Equal(t, owner, st.events[0].OwnerID)
	require.NotNil(t, st.events[0].APIKeyID)
	assert.Equal(t, keyID, *st.events[0].APIKeyID)
	assert.False(t, st.events[0].CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now().UTC(), st.events[0].CreatedAt, time.Minute)
}

func TestExplainRecordedUsageTripsRateLimit(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	first := completedJob(owner)
	second := completedJob(owner)
	second.Result["summary"] = map[string]any{"rowCount": 7}
	st.jobs[first.ID] = first
	st.jobs[second.ID] = second

	cfg := enabledConfig()
	cfg.RatePerMinute = 1
	svc := NewExplainService(mock.NewProvider(), st, newStubCache(), cfg)

	_, err := svc.Explain(context.Background(), owner, nil, first.ID)
	require.NoError(t, err)

	// The recorded event carries a real timestamp, so the minute window
	// counts it and the second call hits the cap.
	_, err = svc.Explain(context.Background(), owner, nil, second.ID)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestExplainCachedSecondCall(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	job := completedJob(owner)
	st.jobs[job.ID] = job

	calls := 0
	provider := &mock.MockProvider{
		Name_: "mock",
		ExplainFunc: func(_ context.Context, _ map[string]any) (models.ExplainResult, error) {
			calls++
			return models.ExplainResult{Summary: "first"}, nil
		},
	}

	svc := NewExplainService(provider, st, newStubCache(), enabledConfig())

	first, err := svc.Explain(context.Background(), owner, nil, job.ID)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := svc.Explain(context.Background(), owner, nil, job.ID)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "first", second.Summary)

	// Cache hit skips the provider and does not consume quota.
	assert.Equal(t, 1, calls)
	assert.Len(t, st.events, 1)
}

func TestExplainRateLimited(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	job := completedJob(owner)
	st.jobs[job.ID] = job
	st.counts[models.EventAIExplain] = 5

	svc := NewExplainService(mock.NewProvider(), st, newStubCache(), enabledConfig())

	_, err := svc.Explain(context.Background(), owner, nil, job.ID)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Empty(t, st.events)
}

func TestExplainDailyCap(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	job := completedJob(owner)
	st.jobs[job.ID] = job

	cfg := enabledConfig()
	cfg.RatePerMinute = 100
	cfg.DailyCap = 3
	st.counts[models.EventAIExplain] = 3

	svc := NewExplainService(mock.NewProvider(), st, newStubCache(), cfg)

	_, err := svc.Explain(context.Background(), owner, nil, job.ID)
	assert.ErrorIs(t, err, ErrDailyCapExceeded)
}

func TestExplainProviderFailure(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	job := completedJob(owner)
	st.jobs[job.ID] = job

	svc := NewExplainService(mock.NewFailingProvider(models.ErrProviderUnavailable), st, newStubCache(), enabledConfig())

	_, err := svc.Explain(context.Background(), owner, nil, job.ID)
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
	assert.Empty(t, st.events)
}

func TestExplainTimeout(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	job := completedJob(owner)
	st.jobs[job.ID] = job

	cfg := enabledConfig()
	cfg.InferenceTimeout = 10 * time.Millisecond

	svc := NewExplainService(mock.NewTimeoutProvider(), st, newStubCache(), cfg)

	_, err := svc.Explain(context.Background(), owner, nil, job.ID)
	assert.ErrorIs(t, err, models.ErrInferenceTimeout)
}

func TestExplainEventWriteFailureStillReturnsResult(t *testing.T) {
	st := newStubStore()
	owner := uuid.New()
	job := completedJob(owner)
	st.jobs[job.ID] = job
	st.eventErr = errors.New("events table unavailable")

	svc := NewExplainService(mock.NewProvider(), st, newStubCache(), enabledConfig())

	resp, err := svc.Explain(context.Background(), owner, nil, job.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Summary)
}
