package repository

import (
	"context"

	"assistant-relay/internal/domain/model"
)

// PresenceRepository tracks worker heartbeats per user key. Entries expire on
// their own; a missing entry means the worker has not been seen recently.
type PresenceRepository interface {
	Beat(ctx context.Context, userID, status string) error
	Get(ctx context.Context, userID string) (*model.WorkerPresence, error)
}

// MirrorRepository stores the per-user documents the worker pushes after it
// mutates its own memory: daily tasks, personal facts and the latest weather
// summary. Clients read these instead of talking to the worker directly.
type MirrorRepository interface {
	SetTasks(ctx context.Context, userID string, tasks []string) error
	Tasks(ctx context.Context, userID string) ([]string, error)

	SetPersonal(ctx context.Context, userID string, items []model.PersonalItem) error
	Personal(ctx context.Context, userID string) ([]model.PersonalItem, error)

	SetWeather(ctx context.Context, userID string, summary model.WeatherSummary) error
	Weather(ctx context.Context, userID string) (model.WeatherSummary, error)
}
