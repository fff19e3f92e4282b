package worker

import (
	"context"
	"errors"
	"time"

	"assistant-relay/internal/domain"
	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/adapter"
	"assistant-relay/internal/infra/logging"
	"assistant-relay/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Processor handles one claimed job end to end: deterministic commands
// first, then a streamed model generation with batched delta pushes, then
// finalization. A Conflict from any relay call means the job was cancelled
// under us; the processor stops and treats that as a clean outcome.
type Processor struct {
	relay    adapter.RelayClient
	gen      adapter.TextGenerator
	weather  adapter.WeatherService
	commands *CommandSet
	mem      *Memory
	prompts  *PromptBuilder
	intents  *IntentClassifier
	conv     *ConversationLog

	flushEvery time.Duration
	minFlush   int
	log        *zerolog.Logger
}

// NewProcessor wires a processor. intents and conv may be nil; the regex
// commands then carry routing alone and no transcript is written.
func NewProcessor(
	relay adapter.RelayClient,
	gen adapter.TextGenerator,
	weather adapter.WeatherService,
	mem *Memory,
	prompts *PromptBuilder,
	intents *IntentClassifier,
	conv *ConversationLog,
	flushEvery time.Duration,
	minFlush int,
	logger *zerolog.Logger,
) *Processor {
	l := logger.With().Str("component", "Processor").Logger()
	return &Processor{
		relay:      relay,
		gen:        gen,
		weather:    weather,
		commands:   NewCommandSet(mem),
		mem:        mem,
		prompts:    prompts,
		intents:    intents,
		conv:       conv,
		flushEvery: flushEvery,
		minFlush:   minFlush,
		log:        &l,
	}
}

// ResetDailyIfNeeded clears yesterday's tasks and refreshes the relay
// mirror. The loop calls this on every poll so the reset does not wait for
// a job to arrive.
func (p *Processor) ResetDailyIfNeeded(ctx context.Context) {
	if p.mem.ResetDailyIfNeeded() {
		p.log.Info().Msg("daily tasks reset")
		p.syncMirrors(ctx, p.log)
	}
}

func (p *Processor) Process(ctx context.Context, job *model.Job) {
	ctx = logging.WithJobID(ctx, job.ID)
	log := logging.With(ctx, p.log)

	text := job.Message
	if text == "" {
		_ = p.relay.Fail(ctx, job.ID, "Empty message")
		return
	}

	if reply, changed, handled := p.commands.Handle(text); handled {
		log.Info().Msg("command handled")
		if err := p.relay.Complete(ctx, job.ID, reply); err != nil {
			p.reportFinalizeError(log, job.ID, err)
			return
		}
		p.conv.Append(text, reply)
		if changed {
			p.syncMirrors(ctx, log)
		}
		return
	}

	// The regexes did not recognize the message; ask the classifier whether
	// it is still a deterministic request in free-form phrasing.
	wantsWeather := p.weather != nil && WantsWeather(text)
	if p.intents != nil {
		res := p.intents.Classify(ctx, text, p.mem.PersonalKeys())
		if res.Intent == IntentWeather {
			wantsWeather = p.weather != nil
		} else if reply, changed, handled := p.commands.HandleIntent(res); handled {
			log.Info().Str("intent", string(res.Intent)).Msg("intent handled")
			if err := p.relay.Complete(ctx, job.ID, reply); err != nil {
				p.reportFinalizeError(log, job.ID, err)
				return
			}
			p.conv.Append(text, reply)
			if changed {
				p.syncMirrors(ctx, log)
			}
			return
		}
	}

	if wantsWeather {
		if err := p.weather.Refresh(ctx, false); err != nil {
			log.Warn().Err(err).Msg("weather refresh failed")
		} else if err := p.relay.UpdateWeather(ctx, p.weather.Summary()); err != nil {
			log.Warn().Err(err).Msg("weather mirror sync failed")
		}
	}

	reply, err := p.generate(ctx, job, wantsWeather)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			log.Info().Msg("job cancelled mid-generation")
			return
		}
		log.Error().Err(err).Msg("generation failed")
		_ = p.relay.Fail(ctx, job.ID, err.Error())
		return
	}

	if err := p.relay.Complete(ctx, job.ID, reply); err != nil {
		p.reportFinalizeError(log, job.ID, err)
		return
	}
	p.conv.Append(text, reply)
}

// generate streams the model output, batching deltas into relay chunk
// pushes. A Conflict on a chunk push aborts the generation.
func (p *Processor) generate(ctx context.Context, job *model.Job, wantsWeather bool) (string, error) {
	var weatherDay, weatherWeek string
	if wantsWeather {
		weatherDay = p.weather.DayReport()
		weatherWeek = p.weather.WeekReport()
	}
	prompt := p.prompts.Build(job.Message, p.mem, weatherDay, weatherWeek)

	genCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var conflicted bool
	batcher := NewChunkBatcher(p.flushEvery, p.minFlush, func(chunk string) {
		err := p.relay.StreamChunk(genCtx, job.ID, chunk)
		if errors.Is(err, domain.ErrConflict) {
			conflicted = true
			cancel()
		} else if err != nil {
			p.log.Warn().Err(err).Str("job_id", job.ID).Msg("chunk push failed")
		}
	})

	start := time.Now()
	reply, err := p.gen.GenerateStream(genCtx, prompt, func(delta string) {
		batcher.Add(delta)
	})
	if conflicted {
		return "", domain.ErrConflict
	}
	if err != nil {
		metrics.IncGenerationFailure(p.gen.Name())
		return "", err
	}
	metrics.ObserveGeneration(p.gen.Name(), time.Since(start).Seconds())

	batcher.Flush(true)
	return reply, nil
}

func (p *Processor) reportFinalizeError(log *zerolog.Logger, jobID string, err error) {
	if errors.Is(err, domain.ErrConflict) {
		// The job is no longer ours; stop acting on it.
		log.Info().Msg("job finalized elsewhere")
		return
	}
	log.Error().Err(err).Str("job_id", jobID).Msg("finalize failed")
}

// syncMirrors pushes the worker's memory to the relay so clients can read
// it. Failures only log; mirrors are best-effort.
func (p *Processor) syncMirrors(ctx context.Context, log *zerolog.Logger) {
	if err := p.relay.UpdateTasks(ctx, p.mem.Tasks()); err != nil {
		log.Warn().Err(err).Msg("tasks mirror sync failed")
	}
	if err := p.relay.UpdatePersonal(ctx, p.mem.Personal()); err != nil {
		log.Warn().Err(err).Msg("personal mirror sync failed")
	}
}
