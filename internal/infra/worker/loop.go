package worker

import (
	"context"
	"time"

	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Loop polls the relay for queued jobs on a fixed cadence and hands each
// claimed job to the processor through the pool. Transport errors are not
// fatal: the loop just waits for the next tick and tries again.
type Loop struct {
	relay     adapter.RelayClient
	processor *Processor
	interval  time.Duration
	log       *zerolog.Logger
}

func NewLoop(relay adapter.RelayClient, processor *Processor, interval time.Duration, logger *zerolog.Logger) *Loop {
	l := logger.With().Str("component", "WorkerLoop").Logger()
	return &Loop{relay: relay, processor: processor, interval: interval, log: &l}
}

// Run blocks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context, pool *Pool) error {
	l.log.Info().Dur("poll_interval", l.interval).Msg("worker loop started")
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("worker loop stopping")
			return ctx.Err()
		case <-ticker.C:
			_ = pool.Submit(func(ctx context.Context) error {
				l.pollOnce(ctx)
				return nil
			})
		}
	}
}

func (l *Loop) pollOnce(ctx context.Context) {
	l.processor.ResetDailyIfNeeded(ctx)

	if err := l.relay.Heartbeat(ctx, model.WorkerOnline); err != nil {
		l.log.Warn().Err(err).Msg("heartbeat failed")
	}

	job, err := l.relay.FetchNext(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("fetch next failed")
		return
	}
	if job == nil {
		return
	}

	if err := l.relay.Heartbeat(ctx, model.WorkerBusy); err != nil {
		l.log.Warn().Err(err).Msg("busy heartbeat failed")
	}

	l.processor.Process(ctx, job)

	if err := l.relay.Heartbeat(ctx, model.WorkerOnline); err != nil {
		l.log.Warn().Err(err).Msg("online heartbeat failed")
	}
}
