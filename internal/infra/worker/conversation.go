package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ConversationLog appends each exchange to a per-day markdown file under
// dir/YYYY/MM/YYYY-MM-DD.md. An empty dir disables logging. Failures only
// warn; the transcript is best-effort.
type ConversationLog struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
	log *zerolog.Logger
}

func NewConversationLog(dir string, logger *zerolog.Logger) *ConversationLog {
	l := logger.With().Str("component", "ConversationLog").Logger()
	return &ConversationLog{dir: dir, now: time.Now, log: &l}
}

func (c *ConversationLog) Append(userText, reply string) {
	if c == nil || c.dir == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dir := filepath.Join(c.dir, now.Format("2006"), now.Format("01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Warn().Err(err).Msg("conversation dir")
		return
	}

	stamp := now.UTC().Format(time.RFC3339)
	block := fmt.Sprintf("\n[%s] USER: %s\n[%s] WAYNE: %s\n", stamp, userText, stamp, reply)

	file := filepath.Join(dir, now.Format("2006-01-02")+".md")
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		c.log.Warn().Err(err).Msg("conversation file")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(block); err != nil {
		c.log.Warn().Err(err).Msg("conversation write")
	}
}
