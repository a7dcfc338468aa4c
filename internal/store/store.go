// Package store persists job records behind a keyed-store abstraction. Both
// implementations write the whole record per transition, so a concurrent
// reader always sees a consistent status/result/error triple.
package store

import (
	"context"
	"errors"

	"github.com/actasweb/api/internal/model"
)

// ErrJobNotFound is returned for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

// JobStore maps job ids to Job records. Save replaces the stored record
// atomically; Get returns a private copy the caller may mutate.
type JobStore interface {
	Save(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
}
