package worker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestConversationAppendsPerDayFile(t *testing.T) {
	dir := t.TempDir()
	l := zerolog.Nop()
	c := NewConversationLog(dir, &l)
	c.now = func() time.Time {
		return time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	}

	c.Append("what's the time?", "Current time: 14:30")
	c.Append("add note: oil change", "Added note 1.")

	b, err := os.ReadFile(filepath.Join(dir, "2024", "06", "2024-06-01.md"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	got := string(b)
	for _, want := range []string{
		"[2024-06-01T14:30:00Z] USER: what's the time?",
		"[2024-06-01T14:30:00Z] WAYNE: Current time: 14:30",
		"USER: add note: oil change",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("transcript missing %q:\n%s", want, got)
		}
	}
}

func TestConversationDisabled(t *testing.T) {
	var nilLog *ConversationLog
	nilLog.Append("a", "b") // nil receiver is a no-op

	l := zerolog.Nop()
	c := NewConversationLog("", &l)
	c.Append("a", "b")
}
