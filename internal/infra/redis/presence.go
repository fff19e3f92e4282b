package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/repository"
)

var _ repository.PresenceRepository = (*PresenceRepo)(nil)

// PresenceRepo keeps the last heartbeat per user key. Entries carry a TTL so
// a dead worker simply ages out instead of reporting stale liveness.
type PresenceRepo struct {
	client RedisClient
	ttl    time.Duration
	now    func() time.Time
}

func NewPresenceRepo(client RedisClient, ttl time.Duration) *PresenceRepo {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PresenceRepo{client: client, ttl: ttl, now: time.Now}
}

func presenceKey(userID string) string {
	return fmt.Sprintf("worker_presence:%s", userID)
}

func (p *PresenceRepo) Beat(ctx context.Context, userID, status string) error {
	if status != model.WorkerBusy {
		status = model.WorkerOnline
	}
	hb := model.WorkerPresence{LastSeen: p.now().UTC(), Status: status}
	data, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, presenceKey(userID), data, p.ttl)
}

// Get returns (nil, nil) when no recent heartbeat exists.
func (p *PresenceRepo) Get(ctx context.Context, userID string) (*model.WorkerPresence, error) {
	data, err := p.client.Get(ctx, presenceKey(userID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var hb model.WorkerPresence
	if err := json.Unmarshal([]byte(data), &hb); err != nil {
		return nil, err
	}
	return &hb, nil
}
