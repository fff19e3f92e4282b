package worker

import (
	"strings"
	"sync"
	"time"

	"assistant-relay/internal/domain/model"
)

// Memory is the worker's own record of tasks, notes and personal facts. It
// is the authority for this data; the relay only carries read-only mirrors
// of it.
type Memory struct {
	mu        sync.Mutex
	tasks     []string
	notes     []string
	personal  []model.PersonalItem
	lastReset string

	now func() time.Time
}

func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	m.lastReset = m.today()
	return m
}

func (m *Memory) today() string {
	return m.now().Format("2006-01-02")
}

// ResetDailyIfNeeded clears the daily tasks once per calendar day. Notes and
// personal data are kept. Returns true when the tasks were cleared so the
// caller can refresh the relay mirror.
func (m *Memory) ResetDailyIfNeeded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	today := m.today()
	if m.lastReset == today {
		return false
	}
	m.tasks = nil
	m.lastReset = today
	return true
}

// PersonalKeys lists the stored personal-data keys in insertion order.
func (m *Memory) PersonalKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.personal))
	for _, it := range m.personal {
		keys = append(keys, it.Key)
	}
	return keys
}

func (m *Memory) Tasks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.tasks...)
}

func (m *Memory) AddTask(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, text)
	return len(m.tasks)
}

func (m *Memory) ClearTasks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = nil
}

func (m *Memory) Notes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.notes...)
}

func (m *Memory) AddNote(text string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes = append(m.notes, text)
	return len(m.notes)
}

// RemoveNote deletes by 1-based index and returns the removed note.
func (m *Memory) RemoveNote(index int) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 1 || index > len(m.notes) {
		return "", false
	}
	removed := m.notes[index-1]
	m.notes = append(m.notes[:index-1], m.notes[index:]...)
	return removed, true
}

func (m *Memory) Personal() []model.PersonalItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PersonalItem(nil), m.personal...)
}

// SetPersonal upserts by case-insensitive key and returns the stored key.
func (m *Memory) SetPersonal(key, value string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	norm := strings.ToLower(key)
	for i, it := range m.personal {
		if strings.ToLower(it.Key) == norm {
			m.personal[i].Value = value
			return it.Key
		}
	}
	m.personal = append(m.personal, model.PersonalItem{Key: key, Value: value})
	return key
}

func (m *Memory) GetPersonal(key string) (model.PersonalItem, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	norm := strings.ToLower(key)
	for _, it := range m.personal {
		if strings.ToLower(it.Key) == norm {
			return it, true
		}
	}
	return model.PersonalItem{}, false
}

func (m *Memory) RemovePersonal(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	norm := strings.ToLower(key)
	for i, it := range m.personal {
		if strings.ToLower(it.Key) == norm {
			m.personal = append(m.personal[:i], m.personal[i+1:]...)
			return true
		}
	}
	return false
}
