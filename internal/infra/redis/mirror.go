package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/repository"
)

var _ repository.MirrorRepository = (*MirrorRepo)(nil)

// MirrorRepo stores the per-user documents the worker syncs to the relay as
// JSON blobs with a shared TTL. Reads of absent keys return empty values,
// not errors: a mirror nobody has written yet is simply empty.
type MirrorRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewMirrorRepo(client RedisClient, ttl time.Duration) *MirrorRepo {
	return &MirrorRepo{client: client, ttl: ttl}
}

func mirrorKey(kind, userID string) string {
	return fmt.Sprintf("mirror:%s:%s", kind, userID)
}

func (m *MirrorRepo) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.client.Set(ctx, key, data, m.ttl)
}

// getJSON unmarshals into out and reports whether the key existed.
func (m *MirrorRepo) getJSON(ctx context.Context, key string, out any) (bool, error) {
	data, err := m.client.Get(ctx, key)
	if err != nil {
		if IsNil(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MirrorRepo) SetTasks(ctx context.Context, userID string, tasks []string) error {
	return m.setJSON(ctx, mirrorKey("tasks", userID), tasks)
}

func (m *MirrorRepo) Tasks(ctx context.Context, userID string) ([]string, error) {
	tasks := []string{}
	if _, err := m.getJSON(ctx, mirrorKey("tasks", userID), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (m *MirrorRepo) SetPersonal(ctx context.Context, userID string, items []model.PersonalItem) error {
	return m.setJSON(ctx, mirrorKey("personal", userID), items)
}

func (m *MirrorRepo) Personal(ctx context.Context, userID string) ([]model.PersonalItem, error) {
	items := []model.PersonalItem{}
	if _, err := m.getJSON(ctx, mirrorKey("personal", userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (m *MirrorRepo) SetWeather(ctx context.Context, userID string, summary model.WeatherSummary) error {
	return m.setJSON(ctx, mirrorKey("weather", userID), summary)
}

func (m *MirrorRepo) Weather(ctx context.Context, userID string) (model.WeatherSummary, error) {
	var summary model.WeatherSummary
	if _, err := m.getJSON(ctx, mirrorKey("weather", userID), &summary); err != nil {
		return model.WeatherSummary{}, err
	}
	return summary, nil
}
