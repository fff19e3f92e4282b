package stream

import (
	"sync"

	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const subscriberBuffer = 64

// Subscriber is one live-update sink for a job. Frames arrive on a buffered
// channel; the channel is closed by the registry when the job finishes.
type Subscriber struct {
	ID    string
	JobID string

	mu       sync.Mutex
	closed   bool
	terminal bool
	frames   chan model.StreamFrame
}

// Frames is the receive side of the subscription. The channel closes when
// the job reaches a terminal state or the registry shuts the stream down.
func (s *Subscriber) Frames() <-chan model.StreamFrame {
	return s.frames
}

// push delivers a frame without ever blocking: when the buffer is full the
// frame is dropped for this subscriber only. A subscriber accepts at most
// one terminal frame, so a publish racing a direct Deliver cannot end the
// stream twice.
func (s *Subscriber) push(f model.StreamFrame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if f.Terminal() && s.terminal {
		return false
	}
	select {
	case s.frames <- f:
		if f.Terminal() {
			s.terminal = true
		}
		return true
	default:
		metrics.IncStreamFrameDropped()
		return false
	}
}

// Deliver pushes a frame to this subscriber only. Used for the
// immediate-terminal path when subscribing to an already finished job.
func (s *Subscriber) Deliver(f model.StreamFrame) {
	s.push(f)
}

// NewClosedSubscriber builds a subscriber that was never registered with a
// registry: it already holds the readiness frame plus the given frames and
// its channel is closed. Used when subscribing to a job that has already
// finished.
func NewClosedSubscriber(jobID string, frames ...model.StreamFrame) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		JobID:  jobID,
		frames: make(chan model.StreamFrame, len(frames)+1),
	}
	sub.frames <- model.StreamFrame{Ready: true}
	for _, f := range frames {
		sub.frames <- f
	}
	sub.closed = true
	sub.terminal = true
	close(sub.frames)
	return sub
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.frames)
	}
}

// Registry tracks the open subscribers per job and fans published frames out
// to all of them. It knows nothing about jobs beyond their identifiers, and
// nothing about the transport the frames end up on.
type Registry struct {
	mu    sync.Mutex
	byJob map[string]map[string]*Subscriber
	log   *zerolog.Logger
}

func NewRegistry(logger *zerolog.Logger) *Registry {
	l := logger.With().Str("component", "StreamRegistry").Logger()
	return &Registry{
		byJob: make(map[string]map[string]*Subscriber),
		log:   &l,
	}
}

// Subscribe registers a new sink for the job and immediately pushes the
// readiness frame to it alone.
func (r *Registry) Subscribe(jobID string) *Subscriber {
	sub := &Subscriber{
		ID:     uuid.NewString(),
		JobID:  jobID,
		frames: make(chan model.StreamFrame, subscriberBuffer),
	}

	r.mu.Lock()
	set := r.byJob[jobID]
	if set == nil {
		set = make(map[string]*Subscriber)
		r.byJob[jobID] = set
	}
	set[sub.ID] = sub
	r.mu.Unlock()

	metrics.IncStreamSubscribers()
	sub.push(model.StreamFrame{Ready: true})
	return sub
}

// Publish pushes a frame to every subscriber of the job, best-effort. Sends
// happen outside the registry lock so a slow consumer cannot stall either
// the other subscribers or the caller.
func (r *Registry) Publish(jobID string, f model.StreamFrame) {
	for _, sub := range r.snapshot(jobID) {
		if !sub.push(f) {
			r.log.Debug().Str("job_id", jobID).Str("subscriber_id", sub.ID).Msg("frame dropped")
		}
	}
}

// CloseAll terminates every open subscription for the job and discards its
// entry. Closing a job with no subscribers is a no-op.
func (r *Registry) CloseAll(jobID string) {
	r.mu.Lock()
	set := r.byJob[jobID]
	delete(r.byJob, jobID)
	r.mu.Unlock()

	for _, sub := range set {
		sub.close()
		metrics.DecStreamSubscribers()
	}
}

// Unsubscribe removes one subscriber after its connection dropped. The
// per-job entry is discarded once the set is empty.
func (r *Registry) Unsubscribe(jobID, subscriberID string) {
	r.mu.Lock()
	set := r.byJob[jobID]
	sub, ok := set[subscriberID]
	if ok {
		delete(set, subscriberID)
		if len(set) == 0 {
			delete(r.byJob, jobID)
		}
	}
	r.mu.Unlock()

	if ok {
		sub.close()
		metrics.DecStreamSubscribers()
	}
}

// Count reports the number of open subscribers for a job.
func (r *Registry) Count(jobID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byJob[jobID])
}

func (r *Registry) snapshot(jobID string) []*Subscriber {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := r.byJob[jobID]
	if len(set) == 0 {
		return nil
	}
	out := make([]*Subscriber, 0, len(set))
	for _, sub := range set {
		out = append(out, sub)
	}
	return out
}
