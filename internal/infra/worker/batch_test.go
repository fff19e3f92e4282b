package worker

import (
	"testing"
	"time"
)

func TestBatcherHoldsSmallYoungBuffer(t *testing.T) {
	var sent []string
	clock := time.Unix(0, 0)
	b := NewChunkBatcher(60*time.Millisecond, 32, func(chunk string) { sent = append(sent, chunk) })
	b.now = func() time.Time { return clock }
	b.lastFlush = clock

	b.Add("Hel")
	b.Add("lo")
	if len(sent) != 0 {
		t.Fatalf("flushed too early: %v", sent)
	}

	// Crossing the age threshold releases the buffer on the next Add.
	clock = clock.Add(100 * time.Millisecond)
	b.Add("!")
	if len(sent) != 1 || sent[0] != "Hello!" {
		t.Fatalf("sent: %v", sent)
	}
}

func TestBatcherFlushesOnSize(t *testing.T) {
	var sent []string
	b := NewChunkBatcher(time.Hour, 5, func(chunk string) { sent = append(sent, chunk) })

	b.Add("ab")
	b.Add("cd")
	if len(sent) != 0 {
		t.Fatalf("flushed below min size: %v", sent)
	}
	b.Add("e")
	if len(sent) != 1 || sent[0] != "abcde" {
		t.Fatalf("sent: %v", sent)
	}
}

func TestBatcherForcedFlushDrainsRemainder(t *testing.T) {
	var sent []string
	b := NewChunkBatcher(time.Hour, 1024, func(chunk string) { sent = append(sent, chunk) })

	b.Add("tail")
	b.Flush(true)
	if len(sent) != 1 || sent[0] != "tail" {
		t.Fatalf("sent: %v", sent)
	}

	// Nothing pending: forced flush is a no-op, not an empty push.
	b.Flush(true)
	if len(sent) != 1 {
		t.Fatalf("empty flush pushed: %v", sent)
	}
}

func TestBatcherIgnoresEmptyDeltas(t *testing.T) {
	var sent []string
	b := NewChunkBatcher(time.Hour, 1, func(chunk string) { sent = append(sent, chunk) })
	b.Add("")
	if len(sent) != 0 {
		t.Fatalf("sent: %v", sent)
	}
}
