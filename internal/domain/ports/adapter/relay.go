package adapter

import (
	"context"

	"assistant-relay/internal/domain/model"
)

// RelayClient is the worker's view of the relay API. Implementations map
// HTTP 404 to domain.ErrNotFound, 409 to domain.ErrConflict and 429 to
// domain.ErrRateLimited; a Conflict means the job is no longer the worker's
// and it must stop acting on it.
type RelayClient interface {
	// FetchNext claims the next queued job for the configured user.
	// Returns (nil, nil) when the queue is empty.
	FetchNext(ctx context.Context) (*model.Job, error)

	Complete(ctx context.Context, jobID, reply string) error
	Fail(ctx context.Context, jobID, message string) error
	StreamChunk(ctx context.Context, jobID, delta string) error

	Heartbeat(ctx context.Context, status string) error
	UpdateTasks(ctx context.Context, tasks []string) error
	UpdatePersonal(ctx context.Context, items []model.PersonalItem) error
	UpdateWeather(ctx context.Context, summary model.WeatherSummary) error
}
