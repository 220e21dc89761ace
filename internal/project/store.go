package project

import (
	"context"
	"time"
)

// ListOptions filters List results.
type ListOptions struct {
	// Limit caps the number of projects returned; zero means no cap.
	Limit int
	// Statuses restricts results to the given statuses when non-empty.
	Statuses []Status
}

// Store persists projects. Implementations must make Update atomic per
// project id without serialising unrelated projects behind one lock.
//
// Get and Update report an unknown id through the boolean result, never
// through the error.
type Store interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, bool, error)
	Update(ctx context.Context, id string, patch Patch) (*Project, bool, error)
	List(ctx context.Context, opts ListOptions) ([]*Project, error)
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteBefore removes projects last updated before cutoff and reports
	// how many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

// Matches reports whether p satisfies the status filter in opts.
func (opts ListOptions) Matches(p *Project) bool {
	if len(opts.Statuses) == 0 {
		return true
	}
	for _, status := range opts.Statuses {
		if p.Status == status {
			return true
		}
	}
	return false
}
