package worker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"assistant-relay/internal/domain"
	"assistant-relay/internal/domain/model"
	"assistant-relay/internal/domain/ports/adapter"
)

// ---- Fakes ----

type fakeRelay struct {
	mu         sync.Mutex
	completed  map[string]string
	failed     map[string]string
	chunks     map[string][]string
	tasksSync  [][]string
	weatherSet []model.WeatherSummary

	chunkErr error
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{
		completed: map[string]string{},
		failed:    map[string]string{},
		chunks:    map[string][]string{},
	}
}

func (f *fakeRelay) FetchNext(ctx context.Context) (*model.Job, error) { return nil, nil }

func (f *fakeRelay) Complete(ctx context.Context, jobID, reply string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed[jobID] = reply
	return nil
}

func (f *fakeRelay) Fail(ctx context.Context, jobID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[jobID] = message
	return nil
}

func (f *fakeRelay) StreamChunk(ctx context.Context, jobID, delta string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chunkErr != nil {
		return f.chunkErr
	}
	f.chunks[jobID] = append(f.chunks[jobID], delta)
	return nil
}

func (f *fakeRelay) Heartbeat(ctx context.Context, status string) error { return nil }

func (f *fakeRelay) UpdateTasks(ctx context.Context, tasks []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasksSync = append(f.tasksSync, tasks)
	return nil
}

func (f *fakeRelay) UpdatePersonal(ctx context.Context, items []model.PersonalItem) error {
	return nil
}

func (f *fakeRelay) UpdateWeather(ctx context.Context, summary model.WeatherSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.weatherSet = append(f.weatherSet, summary)
	return nil
}

type fakeGenerator struct {
	deltas []string
	err    error
	called bool
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return strings.Join(g.deltas, ""), nil
}

func (g *fakeGenerator) GenerateStream(ctx context.Context, prompt string, onDelta adapter.StreamFunc) (string, error) {
	g.called = true
	if g.err != nil {
		return "", g.err
	}
	for _, d := range g.deltas {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		onDelta(d)
	}
	return strings.Join(g.deltas, ""), nil
}

type fakeWeather struct {
	refreshed int
	summary   model.WeatherSummary
}

func (w *fakeWeather) Refresh(ctx context.Context, force bool) error {
	w.refreshed++
	return nil
}
func (w *fakeWeather) Summary() model.WeatherSummary { return w.summary }
func (w *fakeWeather) DayReport() string             { return "Current: 91 F" }
func (w *fakeWeather) WeekReport() string            { return "7-Day: hot" }

// ---- Harness ----

type procEnv struct {
	relay   *fakeRelay
	gen     *fakeGenerator
	weather *fakeWeather
	mem     *Memory
	proc    *Processor
}

func newProcEnv(t *testing.T, gen *fakeGenerator) *procEnv {
	return newProcEnvOpts(t, gen, false)
}

// newProcEnvOpts optionally routes unrecognized messages through the
// classifier, which shares the fake generator.
func newProcEnvOpts(t *testing.T, gen *fakeGenerator, classify bool) *procEnv {
	t.Helper()
	l := zerolog.Nop()
	relay := newFakeRelay()
	weather := &fakeWeather{summary: model.WeatherSummary{CurrentTempF: 91}}
	prompts, err := NewPromptBuilder(4096)
	if err != nil {
		t.Fatalf("prompt builder: %v", err)
	}
	mem := NewMemory()
	var intents *IntentClassifier
	if classify {
		intents = NewIntentClassifier(gen, &l)
	}
	proc := NewProcessor(relay, gen, weather, mem, prompts, intents, nil, time.Millisecond, 1, &l)
	return &procEnv{relay: relay, gen: gen, weather: weather, mem: mem, proc: proc}
}

func testJob(message string) *model.Job {
	return &model.Job{ID: "job-1", UserID: "u1", Message: message, Status: model.JobStatusProcessing}
}

// ---- Tests ----

func TestProcessEmptyMessageFails(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{})
	env.proc.Process(context.Background(), testJob(""))
	if env.relay.failed["job-1"] != "Empty message" {
		t.Errorf("failed: %v", env.relay.failed)
	}
}

func TestProcessCommandSkipsGenerator(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{deltas: []string{"should not run"}})
	env.proc.Process(context.Background(), testJob("what's the time?"))

	if env.gen.called {
		t.Error("generator invoked for a command")
	}
	reply := env.relay.completed["job-1"]
	if !strings.HasPrefix(reply, "Current time:") {
		t.Errorf("reply: %q", reply)
	}
	if len(env.relay.tasksSync) != 0 {
		t.Error("read-only command synced mirrors")
	}
}

func TestProcessMutatingCommandSyncsMirrors(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{})
	env.proc.Process(context.Background(), testJob("add walk the dog to my daily tasks"))

	if len(env.relay.tasksSync) != 1 {
		t.Fatalf("tasks syncs: %d", len(env.relay.tasksSync))
	}
	if got := env.relay.tasksSync[0]; len(got) != 1 || got[0] != "walk the dog" {
		t.Errorf("synced tasks: %v", got)
	}
}

func TestProcessStreamsAndCompletes(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{deltas: []string{"Once ", "upon ", "a time."}})
	env.proc.Process(context.Background(), testJob("tell me a story"))

	if env.relay.completed["job-1"] != "Once upon a time." {
		t.Errorf("completed: %q", env.relay.completed["job-1"])
	}
	var streamed string
	for _, c := range env.relay.chunks["job-1"] {
		streamed += c
	}
	if streamed != "Once upon a time." {
		t.Errorf("streamed: %q", streamed)
	}
}

func TestProcessWeatherQuestionRefreshesAndMirrors(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{deltas: []string{"Hot out."}})
	env.proc.Process(context.Background(), testJob("what's the weather today"))

	if env.weather.refreshed != 1 {
		t.Errorf("refreshes: %d", env.weather.refreshed)
	}
	if len(env.relay.weatherSet) != 1 || env.relay.weatherSet[0].CurrentTempF != 91 {
		t.Errorf("weather mirror: %v", env.relay.weatherSet)
	}
	if env.relay.completed["job-1"] != "Hot out." {
		t.Errorf("completed: %q", env.relay.completed["job-1"])
	}
}

func TestProcessGenerationErrorFailsJob(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{err: context.DeadlineExceeded})
	env.proc.Process(context.Background(), testJob("tell me a story"))

	if _, ok := env.relay.failed["job-1"]; !ok {
		t.Error("job not failed")
	}
	if _, ok := env.relay.completed["job-1"]; ok {
		t.Error("failed job also completed")
	}
}

func TestProcessIntentHandlesFreeFormPhrasing(t *testing.T) {
	verdict := `{"intent":"tasks.add","args":{"text":"water the plants"}}`
	env := newProcEnvOpts(t, &fakeGenerator{deltas: []string{verdict}}, true)

	env.proc.Process(context.Background(), testJob("please remember I must water the plants"))

	if env.gen.called {
		t.Error("generation ran for a classified intent")
	}
	reply := env.relay.completed["job-1"]
	if !strings.Contains(reply, "water the plants") {
		t.Errorf("reply: %q", reply)
	}
	if len(env.relay.tasksSync) != 1 || env.relay.tasksSync[0][0] != "water the plants" {
		t.Errorf("tasks sync: %v", env.relay.tasksSync)
	}
}

func TestProcessIntentNoneFallsThroughToGeneration(t *testing.T) {
	env := newProcEnvOpts(t, &fakeGenerator{deltas: []string{"The story."}}, true)

	env.proc.Process(context.Background(), testJob("tell me a story"))

	if !env.gen.called {
		t.Fatal("generation skipped")
	}
	if env.relay.completed["job-1"] != "The story." {
		t.Errorf("completed: %q", env.relay.completed["job-1"])
	}
}

func TestResetDailyClearsTasksOncePerDay(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{})
	ctx := context.Background()

	day := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	env.mem.now = func() time.Time { return day }
	env.mem.lastReset = "2024-05-31"
	env.mem.AddTask("stale")

	env.proc.ResetDailyIfNeeded(ctx)
	if len(env.mem.Tasks()) != 0 {
		t.Fatalf("tasks after reset: %v", env.mem.Tasks())
	}
	if len(env.relay.tasksSync) != 1 || len(env.relay.tasksSync[0]) != 0 {
		t.Fatalf("mirror after reset: %v", env.relay.tasksSync)
	}

	// Same day: nothing happens, fresh tasks survive.
	env.mem.AddTask("fresh")
	env.proc.ResetDailyIfNeeded(ctx)
	if got := env.mem.Tasks(); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("tasks same day: %v", got)
	}
	if len(env.relay.tasksSync) != 1 {
		t.Errorf("mirror synced again on the same day: %d", len(env.relay.tasksSync))
	}

	// Next day: cleared again.
	day = day.Add(24 * time.Hour)
	env.proc.ResetDailyIfNeeded(ctx)
	if len(env.mem.Tasks()) != 0 {
		t.Errorf("tasks next day: %v", env.mem.Tasks())
	}
}

func TestProcessWritesTranscript(t *testing.T) {
	dir := t.TempDir()
	l := zerolog.Nop()
	relay := newFakeRelay()
	prompts, err := NewPromptBuilder(4096)
	if err != nil {
		t.Fatalf("prompt builder: %v", err)
	}
	conv := NewConversationLog(dir, &l)
	stamp := time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	conv.now = func() time.Time { return stamp }

	proc := NewProcessor(relay, &fakeGenerator{}, nil, NewMemory(), prompts, nil, conv, time.Millisecond, 1, &l)
	proc.Process(context.Background(), testJob("what's the time?"))

	b, err := os.ReadFile(filepath.Join(dir, "2024", "06", "2024-06-01.md"))
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if !strings.Contains(string(b), "USER: what's the time?") ||
		!strings.Contains(string(b), "WAYNE: Current time:") {
		t.Errorf("transcript content: %q", b)
	}
}

func TestProcessConflictAbortsQuietly(t *testing.T) {
	env := newProcEnv(t, &fakeGenerator{deltas: []string{"chunk one ", "chunk two"}})
	env.relay.chunkErr = domain.ErrConflict

	env.proc.Process(context.Background(), testJob("tell me a story"))

	// Cancelled under us: no completion, no failure report.
	if len(env.relay.completed) != 0 {
		t.Errorf("completed: %v", env.relay.completed)
	}
	if len(env.relay.failed) != 0 {
		t.Errorf("failed: %v", env.relay.failed)
	}
}
