package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/utilityhub/utilityhub/internal/ai"
	mw "github.com/utilityhub/utilityhub/internal/api/middleware"
	"github.com/utilityhub/utilityhub/internal/api/response"
	"github.com/utilityhub/utilityhub/internal/store"
	"github.com/utilityhub/utilityhub/pkg/models"
)

// Explainer defines the interface the handler depends on.
type Explainer interface {
	Explain(ctx context.Context, ownerID uuid.UUID, apiKeyID *uuid.UUID, jobID uuid.UUID) (*ai.ExplainResponse, error)
}

// NewExplainHandler returns an http.HandlerFunc for POST /api/v1/ai/explain.
func NewExplainHandler(svc Explainer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		var req struct {
			JobID string `json:"job_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		jobID, err := uuid.Parse(req.JobID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job_id must be a UUID", nil)
			return
		}

		var apiKeyID *uuid.UUID
		if keyID, ok := mw.GetAPIKeyID(r); ok {
			apiKeyID = &keyID
		}

		result, err := svc.Explain(r.Context(), ownerID, apiKeyID, jobID)
		if err != nil {
			switch {
			case errors.Is(err, ai.ErrDisabled):
				response.Error(w, http.StatusServiceUnavailable, "AI_DISABLED",
					"AI features are not enabled on this deployment", nil)
			case errors.Is(err, store.ErrNotFound):
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
			case errors.Is(err, ai.ErrJobNotCompleted):
				response.Error(w, http.StatusConflict, "JOB_NOT_COMPLETED",
					"The job has not produced a report yet", nil)
			case errors.Is(err, ai.ErrRateLimited):
				w.Header().Set("Retry-After", "60")
				response.Error(w, http.StatusTooManyRequests, "AI_RATE_LIMIT_EXCEEDED",
					"Too many explanations this minute", nil)
			case errors.Is(err, ai.ErrDailyCapExceeded):
				response.Error(w, http.StatusTooManyRequests, "AI_DAILY_CAP_EXCEEDED",
					"Daily explanation cap reached", nil)
			case errors.Is(err, models.ErrProviderUnavailable):
				response.Error(w, http.StatusBadGateway, "AI_PROVIDER_UNAVAILABLE",
					"The AI provider is not available", nil)
			case errors.Is(err, models.ErrInferenceTimeout):
				response.Error(w, http.StatusGatewayTimeout, "AI_INFERENCE_TIMEOUT",
					"AI explanation took too long and was cancelled", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.JSON(w, result)
	}
}
