// Package ai orchestrates plain-language explanations of profiling reports.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utilityhub/utilityhub/internal/cache"
	"github.com/utilityhub/utilityhub/internal/config"
	"github.com/utilityhub/utilityhub/internal/store"
	"github.com/utilityhub/utilityhub/pkg/models"
)

const explainCacheTTL = time.Hour

// ExplainResponse is the output of an explain operation.
type ExplainResponse struct {
	Summary       string   `json:"summary"`
	CleaningSteps []string `json:"cleaningSteps"`
	Risks         []string `json:"risks"`
	Provider      string   `json:"provider"`
	Cached        bool     `json:"cached"`
}

// ExplainService validates quota, invokes the provider, and caches results.
type ExplainService struct {
	provider models.AIProvider
	store    store.Store
	cache    cache.Cache
	cfg      config.AIConfig
}

func NewExplainService(provider models.AIProvider, st store.Store, ca cache.Cache, cfg config.AIConfig) *ExplainService {
	return &ExplainService{provider: provider, store: st, cache: ca, cfg: cfg}
}

// Explain produces a plain-language explanation of a completed job's report.
// Identical reports hit the cache and do not consume quota.
func (s *ExplainService) Explain(ctx context.Context, ownerID uuid.UUID, apiKeyID *uuid.UUID, jobID uuid.UUID) (*ExplainResponse, error) {
	if !s.cfg.Enabled {
		return nil, ErrDisabled
	}

	job, err := s.store.GetJob(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.JobStatusCompleted || job.Result == nil {
		return nil, ErrJobNotCompleted
	}

	reportHash, err := hashReport(job.Result)
	if err != nil {
		return nil, fmt.Errorf("hashing report: %w", err)
	}

	cacheKey := cache.ExplainResultKey(ownerID, reportHash)
	if data, ok, err := s.cache.Get(ctx, cacheKey); err == nil && ok {
		var cached ExplainResponse
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.Cached = true
			return &cached, nil
		}
	}

	if err := s.checkQuota(ctx, ownerID); err != nil {
		return nil, err
	}

	inferenceCtx, cancel := context.WithTimeout(ctx, s.cfg.InferenceTimeout)
	defer cancel()

	result, err := s.provider.ExplainReport(inferenceCtx, job.Result)
	if err != nil {
		return nil, err
	}

	resp := &ExplainResponse{
		Summary:       result.Summary,
		CleaningSteps: result.CleaningSteps,
		Risks:         result.Risks,
		Provider:      s.provider.Name(),
	}

	if data, err := json.Marshal(resp); err == nil {
		_ = s.cache.Set(ctx, cacheKey, data, explainCacheTTL)
	}

	s.recordUsage(ctx, ownerID, apiKeyID, jobID)

	return resp, nil
}

// checkQuota enforces the per-minute rate and the daily cap, both counted
// from ai_explain usage events.
func (s *ExplainService) checkQuota(ctx context.Context, ownerID uuid.UUID) error {
	now := time.Now().UTC()

	minuteCount, err := s.store.CountUsageSince(ctx, models.EventAIExplain, ownerID, now.Add(-time.Minute))
	if err != nil {
		return fmt.Errorf("counting recent usage: %w", err)
	}
	if minuteCount >= s.cfg.RatePerMinute {
		return ErrRateLimited
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayCount, err := s.store.CountUsageSince(ctx, models.EventAIExplain, ownerID, midnight)
	if err != nil {
		return fmt.Errorf("counting daily usage: %w", err)
	}
	if dayCount >= s.cfg.DailyCap {
		return ErrDailyCapExceeded
	}

	return nil
}

// recordUsage writes the ai_explain event that quota counting depends on.
// The explanation has already been produced; a write failure is logged, not
// surfaced.
func (s *ExplainService) recordUsage(ctx context.Context, ownerID uuid.UUID, apiKeyID *uuid.UUID, jobID uuid.UUID) {
	event := &models.UsageEvent{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		APIKeyID:   apiKeyID,
		EventType:  models.EventAIExplain,
		ResourceID: &jobID,
		Metadata:   map[string]any{"provider": s.provider.Name()},
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateUsageEvent(ctx, event); err != nil {
		slog.Error("recording ai usage event", "owner_id", ownerID, "error", err)
	}
}

func hashReport(report map[string]any) (string, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
