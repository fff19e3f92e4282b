package usecase

import (
	"context"

	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/repository"
	"assistant-relay/internal/infra/metrics"
	"assistant-relay/internal/infra/stream"

	"github.com/rs/zerolog"
)

// JobUseCase is the broker core: it enforces the job lifecycle through the
// store and fans every observable change out through the stream registry.
type JobUseCase interface {
	Submit(ctx context.Context, userID, message string) (*model.Job, error)
	Get(ctx context.Context, id string) (*model.Job, error)
	FetchNext(ctx context.Context, userID string) (*model.Job, error)
	Complete(ctx context.Context, id, reply string) error
	Fail(ctx context.Context, id, message string) error
	Cancel(ctx context.Context, id string) error
	AppendChunk(ctx context.Context, id, delta string) error

	// Subscribe opens a live stream for the job. For a job already in a
	// terminal state the subscriber still gets the readiness frame, then the
	// terminal frame, and the stream closes immediately.
	Subscribe(ctx context.Context, id string) (*stream.Subscriber, error)
	Unsubscribe(jobID, subscriberID string)
}

var _ JobUseCase = (*jobUseCase)(nil)

type jobUseCase struct {
	store    repository.JobRepository
	registry *stream.Registry
	log      *zerolog.Logger
}

func NewJobUseCase(store repository.JobRepository, registry *stream.Registry, logger *zerolog.Logger) JobUseCase {
	l := logger.With().Str("component", "JobUseCase").Logger()
	return &jobUseCase{store: store, registry: registry, log: &l}
}

func (uc *jobUseCase) Submit(ctx context.Context, userID, message string) (*model.Job, error) {
	job, err := uc.store.Submit(ctx, userID, message)
	if err != nil {
		return nil, err
	}
	metrics.IncJobSubmitted()
	uc.log.Info().Str("job_id", job.ID).Str("user_id", job.UserID).Msg("job submitted")
	return job, nil
}

func (uc *jobUseCase) Get(ctx context.Context, id string) (*model.Job, error) {
	return uc.store.Get(ctx, id)
}

func (uc *jobUseCase) FetchNext(ctx context.Context, userID string) (*model.Job, error) {
	job, err := uc.store.FetchNext(ctx, userID)
	if err != nil || job == nil {
		return nil, err
	}
	uc.log.Debug().Str("job_id", job.ID).Str("user_id", userID).Msg("job claimed")
	return job, nil
}

func (uc *jobUseCase) Complete(ctx context.Context, id, reply string) error {
	job, err := uc.store.Complete(ctx, id, reply)
	if err != nil {
		return err
	}
	uc.finalize(job)
	return nil
}

func (uc *jobUseCase) Fail(ctx context.Context, id, message string) error {
	job, err := uc.store.Fail(ctx, id, message)
	if err != nil {
		return err
	}
	uc.finalize(job)
	return nil
}

func (uc *jobUseCase) Cancel(ctx context.Context, id string) error {
	job, err := uc.store.Cancel(ctx, id)
	if err != nil {
		return err
	}
	uc.finalize(job)
	return nil
}

func (uc *jobUseCase) AppendChunk(ctx context.Context, id, delta string) error {
	if _, err := uc.store.AppendChunk(ctx, id, delta); err != nil {
		return err
	}
	metrics.IncJobChunk()
	uc.registry.Publish(id, model.StreamFrame{Delta: delta})
	return nil
}

func (uc *jobUseCase) Subscribe(ctx context.Context, id string) (*stream.Subscriber, error) {
	job, err := uc.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return stream.NewClosedSubscriber(id, model.TerminalFrame(job)), nil
	}

	sub := uc.registry.Subscribe(id)

	// The job may have finished between the lookup and the registration, in
	// which case CloseAll has already run and nobody will ever close this
	// subscriber. Re-check and finish the stream ourselves; the subscriber
	// accepts a single terminal frame, so a publish that already reached it
	// makes the Deliver a no-op.
	job, err = uc.store.Get(ctx, id)
	if err == nil && job.Status.Terminal() {
		sub.Deliver(model.TerminalFrame(job))
		uc.registry.Unsubscribe(id, sub.ID)
	}
	return sub, nil
}

func (uc *jobUseCase) Unsubscribe(jobID, subscriberID string) {
	uc.registry.Unsubscribe(jobID, subscriberID)
}

// finalize pushes the terminal frame and tears down every open stream for
// the job. Publishing is fire-and-forget; the store mutation has already
// committed by the time we get here.
func (uc *jobUseCase) finalize(job *model.Job) {
	metrics.IncJobFinished(string(job.Status))
	uc.registry.Publish(job.ID, model.TerminalFrame(job))
	uc.registry.CloseAll(job.ID)
	uc.log.Info().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("job finished")
}
