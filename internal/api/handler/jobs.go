package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/utilityhub/utilityhub/internal/api/middleware"
	"github.com/utilityhub/utilityhub/internal/api/response"
	"github.com/utilityhub/utilityhub/internal/apps"
	"github.com/utilityhub/utilityhub/internal/cache"
	"github.com/utilityhub/utilityhub/internal/store"
	"github.com/utilityhub/utilityhub/pkg/models"
)

const (
	defaultJobListLimit = 20
	maxJobListLimit     = 100

	// Poll cache TTLs: active jobs change under the runner, terminal rows
	// are immutable.
	jobCacheActiveTTL   = 3 * time.Second
	jobCacheTerminalTTL = 10 * time.Minute
)

// NewListAppsHandler returns an http.HandlerFunc for GET /api/v1/apps.
func NewListAppsHandler(registry *apps.Registry) http.HandlerFunc {
	type appInfo struct {
		ID                   string   `json:"id"`
		Name                 string   `json:"name"`
		Description          string   `json:"description"`
		AcceptedContentTypes []string `json:"accepted_content_types"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		out := []appInfo{}
		for _, app := range registry.List() {
			out = append(out, appInfo{
				ID:                   app.ID(),
				Name:                 app.Name(),
				Description:          app.Description(),
				AcceptedContentTypes: app.AcceptedContentTypes(),
			})
		}
		response.JSON(w, out)
	}
}

// NewCreateJobHandler returns an http.HandlerFunc for POST /api/v1/jobs.
// Validates the app and options up front so clients get schema errors
// synchronously instead of a failed job.
func NewCreateJobHandler(st store.Store, ca cache.Cache, registry *apps.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		var req struct {
			AppID       string         `json:"app_id"`
			InputFileID string         `json:"input_file_id"`
			Options     map[string]any `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		app, err := registry.Get(req.AppID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "UNKNOWN_APP",
				"app_id does not name a registered app", map[string]any{"app_id": req.AppID})
			return
		}

		inputFileID, err := uuid.Parse(req.InputFileID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "input_file_id must be a UUID", nil)
			return
		}

		if req.Options == nil {
			req.Options = map[string]any{}
		}
		options, err := app.ValidateOptions(req.Options)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_OPTIONS", err.Error(), nil)
			return
		}

		file, err := st.GetFile(r.Context(), inputFileID, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Input file not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not load the input file", nil)
			return
		}

		if !accepts(app.AcceptedContentTypes(), file.ContentType) {
			response.Error(w, http.StatusBadRequest, "UNSUPPORTED_CONTENT_TYPE",
				"The input file content type is not accepted by this app",
				map[string]any{"content_type": file.ContentType, "accepted": app.AcceptedContentTypes()})
			return
		}

		now := time.Now().UTC()
		job := &models.Job{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			AppID:       app.ID(),
			InputFileID: inputFileID,
			Status:      models.JobStatusQueued,
			Progress:    0,
			Options:     options,
			Result:      map[string]any{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := st.CreateJob(r.Context(), job); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not create the job", nil)
			return
		}

		_ = ca.SetJob(r.Context(), job, jobCacheActiveTTL)

		recordEvent(r, st, ownerID, models.EventJobCreated, job.ID, map[string]any{
			"app_id": job.AppID,
		})

		response.Created(w, job)
	}
}

// NewGetJobHandler returns an http.HandlerFunc for GET /api/v1/jobs/{jobID}.
// Clients poll this until the job reaches completed or failed.
func NewGetJobHandler(st store.Store, ca cache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "jobID must be a UUID", nil)
			return
		}

		// Poll fast path. The runner invalidates on terminal writes, so a
		// hit is at most jobCacheActiveTTL stale.
		if cached, found, cacheErr := ca.GetJob(r.Context(), jobID); cacheErr == nil && found {
			if cached.OwnerID != ownerID {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
				return
			}
			response.JSON(w, cached)
			return
		}

		job, err := st.GetJob(r.Context(), jobID, ownerID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Job not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not load the job", nil)
			return
		}

		ttl := jobCacheActiveTTL
		if job.Terminal() {
			ttl = jobCacheTerminalTTL
		}
		_ = ca.SetJob(r.Context(), job, ttl)

		response.JSON(w, job)
	}
}

// NewListJobsHandler returns an http.HandlerFunc for GET /api/v1/jobs.
func NewListJobsHandler(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID, ok := mw.GetOwnerID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing owner", nil)
			return
		}

		limit := defaultJobListLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
				return
			}
			limit = n
		}
		if limit > maxJobListLimit {
			limit = maxJobListLimit
		}

		jobs, err := st.ListRecentJobs(r.Context(), ownerID, limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not list jobs", nil)
			return
		}
		if jobs == nil {
			jobs = []*models.Job{}
		}

		response.JSON(w, jobs)
	}
}

// accepts reports whether contentType is in the app's accepted set.
func accepts(accepted []string, contentType string) bool {
	for _, ct := range accepted {
		if ct == contentType {
			return true
		}
	}
	return false
}
