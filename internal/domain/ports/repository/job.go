package repository

import (
	"context"

	"assistant-relay/internal/domain/model"
)

// JobRepository is the single source of truth for job state. Every mutating
// call enforces the lifecycle guards and must be safe for concurrent use.
type JobRepository interface {
	// Submit creates a job in queued status. Fails with ErrInvalidArgument
	// when the message is empty after trimming.
	Submit(ctx context.Context, userID, message string) (*model.Job, error)

	// Get returns a snapshot of the job, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.Job, error)

	// FetchNext scans the user's jobs in insertion order and atomically
	// claims the first queued one, marking it processing. Returns (nil, nil)
	// when no queued job exists; that is not an error.
	FetchNext(ctx context.Context, userID string) (*model.Job, error)

	// Complete finalizes the job with the given reply text.
	// ErrNotFound when missing, ErrConflict when cancelled or already
	// terminal, ErrInvalidArgument when the reply is blank.
	Complete(ctx context.Context, id, reply string) (*model.Job, error)

	// Fail marks the job errored. A blank message is stored as
	// "unknown error". Same guards as Complete, minus reply validation.
	Fail(ctx context.Context, id, message string) (*model.Job, error)

	// Cancel marks a queued or processing job cancelled. ErrConflict when the
	// job already finished as done or error.
	Cancel(ctx context.Context, id string) (*model.Job, error)

	// AppendChunk appends an incremental delta to the accumulating reply
	// without changing status. ErrInvalidArgument when the delta is empty.
	AppendChunk(ctx context.Context, id, delta string) (*model.Job, error)
}
