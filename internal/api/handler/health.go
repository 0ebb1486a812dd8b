package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/utilityhub/utilityhub/internal/api/response"
)

// Pinger is anything whose liveness can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns an http.HandlerFunc for GET /api/v1/health.
// Dependencies are checked with a short timeout; a degraded dependency flips
// the overall status but the endpoint still answers 200 so load balancers can
// read the detail.
func NewHealthHandler(db, cache, blobs Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		status := "ok"
		for name, dep := range map[string]Pinger{"database": db, "cache": cache, "blob_store": blobs} {
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "unreachable"
				status = "degraded"
				continue
			}
			checks[name] = "ok"
		}

		response.JSON(w, map[string]any{
			"status": status,
			"checks": checks,
		})
	}
}
