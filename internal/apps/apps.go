// Package apps holds the registry of runnable data apps and the contract a
// job executor uses to invoke them.
package apps

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/utilityhub/utilityhub/pkg/models"
)

var (
	// ErrUnknownApp is returned when a job names an app that is not registered.
	ErrUnknownApp = errors.New("unknown app")
	// ErrInvalidOptions is returned when job options fail an app's schema.
	ErrInvalidOptions = errors.New("invalid app options")
)

// RunContext carries everything an app needs for a single execution.
type RunContext struct {
	OwnerID   uuid.UUID
	JobID     uuid.UUID
	InputFile *models.File
	InputData []byte
	Options   map[string]any
}

// RunResult is what an app produces: a structured report plus the bytes of
// the derived output artifact.
type RunResult struct {
	Report            map[string]any
	OutputData        []byte
	OutputFilename    string
	OutputContentType string
}

// App is a registered data application.
type App interface {
	ID() string
	Name() string
	Description() string
	AcceptedContentTypes() []string

	// ValidateOptions checks raw job options against the app's schema and
	// returns the normalized options with defaults applied. Schema failures
	// wrap ErrInvalidOptions.
	ValidateOptions(raw map[string]any) (map[string]any, error)

	Run(ctx context.Context, rc RunContext) (*RunResult, error)
}

// Registry maps app IDs to implementations. Registration happens at startup;
// lookups after that are read-only, so no locking.
type Registry struct {
	apps  map[string]App
	order []string
}

func NewRegistry() *Registry {
	return &Registry{apps: make(map[string]App)}
}

// DefaultRegistry returns a registry with all built-in apps registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewCSVProfiler())
	return r
}

func (r *Registry) Register(app App) {
	if _, exists := r.apps[app.ID()]; !exists {
		r.order = append(r.order, app.ID())
	}
	r.apps[app.ID()] = app
}

func (r *Registry) Get(id string) (App, error) {
	app, ok := r.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrUnknownApp, id)
	}
	return app, nil
}

// List returns registered apps in registration order.
func (r *Registry) List() []App {
	out := make([]App, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.apps[id])
	}
	return out
}
