package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/utilityhub/utilityhub/internal/api/response"
	"github.com/utilityhub/utilityhub/internal/runner"
)

const (
	defaultBatchLimit = 1
	maxBatchLimit     = 10
)

// BatchRunner drains queued jobs. Implemented by runner.Runner.
type BatchRunner interface {
	RunBatch(ctx context.Context, limit int) ([]runner.Outcome, error)
}

// NewRunBatchHandler returns an http.HandlerFunc for
// POST /api/v1/internal/jobs/run. Requires the service scope; invoked by the
// worker process and by cron-style schedulers.
func NewRunBatchHandler(r BatchRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		limit := defaultBatchLimit

		var body struct {
			Limit *int `json:"limit"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil && err != io.EOF {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if body.Limit != nil {
			if *body.Limit < 1 || *body.Limit > maxBatchLimit {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be between 1 and 10", nil)
				return
			}
			limit = *body.Limit
		}

		outcomes, err := r.RunBatch(req.Context(), limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Batch execution aborted", map[string]any{"completed": len(outcomes)})
			return
		}
		if outcomes == nil {
			outcomes = []runner.Outcome{}
		}

		response.JSON(w, map[string]any{
			"outcomes": outcomes,
			"count":    len(outcomes),
		})
	}
}
