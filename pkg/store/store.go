// Package store persists simulation jobs and their results.
//
// The HTTP API runs simulations asynchronously: a job is created when a
// simulation starts, updated with progress while it runs, and holds the
// aggregated [simulation.Results] once it finishes. Backends:
//
//   - [MemoryStore]: process-local, the server default
//   - [FileStore]: one JSON file per job, for the CLI and single-node servers
//   - [MongoStore]: shared store for replicated servers
//
// Records expire after their TTL. MongoDB removes them with a TTL index;
// the other backends drop them on read and on [Store.Cleanup].
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/simulation"
)

// DefaultTTL is how long finished jobs are kept.
const DefaultTTL = 24 * time.Hour

// ErrNotFound is returned for unknown or expired job IDs.
var ErrNotFound = dferrors.New(dferrors.ErrCodeNotFound, "simulation not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the job has stopped.
func (s Status) Terminal() bool { return s != StatusRunning }

// Record is one simulation job.
type Record struct {
	ID          string              `json:"id" bson:"_id"`
	GeneratorID string              `json:"generatorId,omitempty" bson:"generatorId,omitempty"`
	Status      Status              `json:"status" bson:"status"`
	Progress    simulation.Progress `json:"progress" bson:"progress"`
	Results     *simulation.Results `json:"results,omitempty" bson:"results,omitempty"`
	Error       string              `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
	ExpiresAt   time.Time           `json:"expiresAt" bson:"expiresAt"`
}

// NewRecord returns a running job with a fresh UUID.
func NewRecord(generatorID string, total int, ttl time.Duration) *Record {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Record{
		ID:          uuid.NewString(),
		GeneratorID: generatorID,
		Status:      StatusRunning,
		Progress:    simulation.Progress{Total: total},
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
}

// Expired reports whether the record is past its expiry.
func (r *Record) Expired() bool {
	return !r.ExpiresAt.IsZero() && time.Now().After(r.ExpiresAt)
}

// ListOptions filters [Store.List].
type ListOptions struct {
	GeneratorID string
	// Limit caps the result; 0 means no limit.
	Limit int
}

// Store is the interface for job storage backends.
type Store interface {
	// Get returns the job with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Put inserts or replaces a job and stamps UpdatedAt.
	Put(ctx context.Context, r *Record) error

	// Delete removes a job. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns unexpired jobs, newest first.
	List(ctx context.Context, opts ListOptions) ([]*Record, error)

	// Cleanup removes expired jobs and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)

	Close(ctx context.Context) error
}

// ValidID reports whether id has the UUID form issued by [NewRecord].
func ValidID(id string) bool {
	return uuid.Validate(id) == nil
}
