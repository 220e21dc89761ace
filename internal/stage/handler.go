package stage

import (
	"context"

	"reelcast/internal/project"
)

// Handler describes the contract the workflow manager needs from each stage.
// Execute reads the project snapshot and returns the fields to merge; it
// never writes to the store itself.
type Handler interface {
	Step() project.Step
	Execute(ctx context.Context, p *project.Project) (project.Patch, error)
	HealthCheck(ctx context.Context) Health
}

// RequestChecker is implemented by handlers whose request options can be
// rejected up front. Errors wrap services.ErrValidation.
type RequestChecker interface {
	CheckRequest(req project.Request) error
}

// readiness is implemented by stages that can report missing configuration.
type readiness interface {
	Ready() error
}

func healthOf(name string, r readiness) Health {
	if r == nil {
		return Unhealthy(name, "stage not configured")
	}
	return HealthFromError(name, r.Ready())
}
