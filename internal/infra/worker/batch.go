package worker

import (
	"strings"
	"time"
)

// ChunkBatcher coalesces generation deltas before they are pushed to the
// relay. Tokens often arrive every few milliseconds; sending each one as its
// own request would flood the broker, so the batcher flushes only when the
// buffer reaches minSize runes or flushEvery has elapsed since the last
// flush. Flush(true) drains whatever is left before the job completes.
//
// This is sender-side policy only; correctness never depends on it.
type ChunkBatcher struct {
	flushEvery time.Duration
	minSize    int
	sink       func(chunk string)
	now        func() time.Time

	pending   strings.Builder
	lastFlush time.Time
}

func NewChunkBatcher(flushEvery time.Duration, minSize int, sink func(chunk string)) *ChunkBatcher {
	b := &ChunkBatcher{
		flushEvery: flushEvery,
		minSize:    minSize,
		sink:       sink,
		now:        time.Now,
	}
	b.lastFlush = b.now()
	return b
}

// Add buffers a delta and flushes if the policy says so.
func (b *ChunkBatcher) Add(delta string) {
	if delta == "" {
		return
	}
	b.pending.WriteString(delta)
	b.Flush(false)
}

// Flush sends the pending buffer to the sink. Unless forced, it holds small
// young buffers back to trade a little latency for fewer pushes.
func (b *ChunkBatcher) Flush(force bool) {
	if b.pending.Len() == 0 {
		return
	}
	age := b.now().Sub(b.lastFlush)
	if !force && age < b.flushEvery && b.pending.Len() < b.minSize {
		return
	}
	chunk := b.pending.String()
	b.pending.Reset()
	b.lastFlush = b.now()
	b.sink(chunk)
}
