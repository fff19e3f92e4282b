package store

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"assistant-relay/internal/domain"
	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/repository"

	"github.com/oklog/ulid/v2"
)

var _ repository.JobRepository = (*MemoryJobStore)(nil)

// MemoryJobStore keeps every job in one in-process table. A single mutex
// serializes all mutations, which makes the FetchNext scan-and-claim atomic:
// no two callers can observe the same job as queued.
type MemoryJobStore struct {
	mu      sync.Mutex
	jobs    map[string]*model.Job
	order   []string // job IDs in insertion order
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs:    make(map[string]*model.Job),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}
}

func (s *MemoryJobStore) Submit(ctx context.Context, userID, message string) (*model.Job, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrInvalidArgument
	}
	if userID == "" {
		userID = "default"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &model.Job{
		ID:        ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		UserID:    userID,
		Message:   message,
		Status:    model.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return job.Clone(), nil
}

func (s *MemoryJobStore) Get(ctx context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return job.Clone(), nil
}

func (s *MemoryJobStore) FetchNext(ctx context.Context, userID string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.order {
		job := s.jobs[id]
		if job.UserID != userID || job.Status != model.JobStatusQueued {
			continue
		}
		job.Status = model.JobStatusProcessing
		job.UpdatedAt = s.now()
		return job.Clone(), nil
	}
	return nil, nil
}

func (s *MemoryJobStore) Complete(ctx context.Context, id, reply string) (*model.Job, error) {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil, domain.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil, domain.ErrConflict
	}
	job.Status = model.JobStatusDone
	job.Reply = reply
	job.UpdatedAt = s.now()
	return job.Clone(), nil
}

func (s *MemoryJobStore) Fail(ctx context.Context, id, message string) (*model.Job, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = "unknown error"
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil, domain.ErrConflict
	}
	job.Status = model.JobStatusError
	job.Error = message
	job.UpdatedAt = s.now()
	return job.Clone(), nil
}

func (s *MemoryJobStore) Cancel(ctx context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status.Terminal() {
		// Cancellation is not retroactive; done/error/cancelled all reject.
		return nil, domain.ErrConflict
	}
	job.Status = model.JobStatusCancelled
	job.UpdatedAt = s.now()
	return job.Clone(), nil
}

func (s *MemoryJobStore) AppendChunk(ctx context.Context, id, delta string) (*model.Job, error) {
	if delta == "" {
		return nil, domain.ErrInvalidArgument
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status.Terminal() {
		return nil, domain.ErrConflict
	}
	job.Reply += delta
	job.UpdatedAt = s.now()
	return job.Clone(), nil
}
