package stream

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"assistant-relay/internal/domain/model"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func recvFrame(t *testing.T, sub *Subscriber) model.StreamFrame {
	t.Helper()
	select {
	case f, ok := <-sub.Frames():
		if !ok {
			t.Fatal("channel closed while expecting frame")
		}
		return f
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
	}
	return model.StreamFrame{}
}

func TestSubscribeGetsReadyFrame(t *testing.T) {
	r := NewRegistry(testLogger())
	sub := r.Subscribe("job-1")

	f := recvFrame(t, sub)
	if !f.Ready {
		t.Fatalf("first frame: got %+v, want ready", f)
	}
	if r.Count("job-1") != 1 {
		t.Errorf("count: got %d, want 1", r.Count("job-1"))
	}
}

func TestPublishFansOut(t *testing.T) {
	r := NewRegistry(testLogger())
	a := r.Subscribe("job-1")
	b := r.Subscribe("job-1")
	other := r.Subscribe("job-2")
	recvFrame(t, a)
	recvFrame(t, b)
	recvFrame(t, other)

	r.Publish("job-1", model.StreamFrame{Delta: "hi"})

	for _, sub := range []*Subscriber{a, b} {
		f := recvFrame(t, sub)
		if f.Delta != "hi" {
			t.Errorf("delta: got %+v", f)
		}
	}
	select {
	case f := <-other.Frames():
		t.Errorf("other job received frame %+v", f)
	default:
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	r := NewRegistry(testLogger())
	slow := r.Subscribe("job-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		// nobody reads slow; overflow the buffer well past capacity
		for i := 0; i < subscriberBuffer*2; i++ {
			r.Publish("job-1", model.StreamFrame{Delta: "x"})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The buffer holds the ready frame plus as many deltas as fit.
	n := len(slow.frames)
	if n != subscriberBuffer {
		t.Errorf("buffered frames: got %d, want %d", n, subscriberBuffer)
	}
}

func TestCloseAllClosesChannels(t *testing.T) {
	r := NewRegistry(testLogger())
	a := r.Subscribe("job-1")
	b := r.Subscribe("job-1")
	recvFrame(t, a)
	recvFrame(t, b)

	r.CloseAll("job-1")

	for _, sub := range []*Subscriber{a, b} {
		select {
		case _, ok := <-sub.Frames():
			if ok {
				t.Error("expected closed channel")
			}
		case <-time.After(time.Second):
			t.Fatal("channel not closed")
		}
	}
	if r.Count("job-1") != 0 {
		t.Errorf("count after close: %d", r.Count("job-1"))
	}

	// Closing again, and publishing afterwards, must be harmless.
	r.CloseAll("job-1")
	r.Publish("job-1", model.StreamFrame{Delta: "late"})
}

func TestUnsubscribeRemovesOne(t *testing.T) {
	r := NewRegistry(testLogger())
	a := r.Subscribe("job-1")
	b := r.Subscribe("job-1")
	recvFrame(t, a)
	recvFrame(t, b)

	r.Unsubscribe("job-1", a.ID)

	if _, ok := <-a.Frames(); ok {
		t.Error("unsubscribed channel still open")
	}
	if r.Count("job-1") != 1 {
		t.Errorf("count: got %d, want 1", r.Count("job-1"))
	}

	r.Publish("job-1", model.StreamFrame{Delta: "still here"})
	if f := recvFrame(t, b); f.Delta != "still here" {
		t.Errorf("survivor frame: %+v", f)
	}

	// Unknown IDs are a no-op.
	r.Unsubscribe("job-1", "missing")
	r.Unsubscribe("missing", b.ID)
}

func TestSubscriberAcceptsOneTerminalFrame(t *testing.T) {
	r := NewRegistry(testLogger())
	sub := r.Subscribe("job-1")
	recvFrame(t, sub)

	// A publish racing a direct Deliver must still end the stream with a
	// single terminal frame.
	r.Publish("job-1", model.StreamFrame{Done: true})
	sub.Deliver(model.StreamFrame{Done: true})
	r.CloseAll("job-1")

	terminal := 0
	for f := range sub.Frames() {
		if f.Terminal() {
			terminal++
		}
	}
	if terminal != 1 {
		t.Fatalf("terminal frames: got %d, want 1", terminal)
	}
}

func TestClosedSubscriberReplaysFrames(t *testing.T) {
	sub := NewClosedSubscriber("job-1", model.StreamFrame{Done: true})

	var frames []model.StreamFrame
	for f := range sub.Frames() {
		frames = append(frames, f)
	}
	if len(frames) != 2 || !frames[0].Ready || !frames[1].Done {
		t.Fatalf("frames: %+v", frames)
	}

	sub.Deliver(model.StreamFrame{Delta: "late"}) // must not panic
}

func TestDeliverAfterCloseIsSafe(t *testing.T) {
	r := NewRegistry(testLogger())
	sub := r.Subscribe("job-1")
	recvFrame(t, sub)

	r.CloseAll("job-1")
	sub.Deliver(model.StreamFrame{Done: true}) // must not panic on closed channel
}
