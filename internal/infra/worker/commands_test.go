package worker

import (
	"strings"
	"testing"
	"time"
)

func newTestCommands() *CommandSet {
	c := NewCommandSet(NewMemory())
	c.now = func() time.Time {
		return time.Date(2024, 6, 1, 14, 30, 0, 0, time.UTC)
	}
	return c
}

func TestTimeAndDateQueries(t *testing.T) {
	c := newTestCommands()

	reply, changed, handled := c.Handle("what's the time?")
	if !handled || changed {
		t.Fatalf("handled=%v changed=%v", handled, changed)
	}
	if reply != "Current time: 14:30" {
		t.Errorf("reply: %q", reply)
	}

	reply, _, handled = c.Handle("what day is it")
	if !handled || reply != "Current date: 2024-06-01" {
		t.Errorf("date reply: %q handled=%v", reply, handled)
	}
}

func TestHelpCommand(t *testing.T) {
	c := newTestCommands()
	reply, _, handled := c.Handle("help")
	if !handled || !strings.Contains(reply, "you can ask") {
		t.Errorf("help: %q handled=%v", reply, handled)
	}
}

func TestTaskCommands(t *testing.T) {
	c := newTestCommands()

	reply, _, handled := c.Handle("daily tasks")
	if !handled || !strings.Contains(reply, "No daily tasks yet") {
		t.Fatalf("empty list: %q", reply)
	}

	reply, changed, _ := c.Handle("add walk the dog to my daily tasks")
	if !changed || !strings.Contains(reply, "walk the dog") {
		t.Fatalf("add: %q changed=%v", reply, changed)
	}

	reply, _, _ = c.Handle("show my daily tasks")
	if !strings.Contains(reply, "1. walk the dog") {
		t.Errorf("list: %q", reply)
	}

	reply, changed, _ = c.Handle("clear my daily tasks")
	if !changed || reply != "Cleared your daily tasks." {
		t.Errorf("clear: %q changed=%v", reply, changed)
	}
}

func TestNoteCommands(t *testing.T) {
	c := newTestCommands()

	reply, changed, handled := c.Handle("add note: buy oil filter")
	if !handled || !changed || !strings.Contains(reply, "buy oil filter") {
		t.Fatalf("add: %q", reply)
	}
	c.Handle("add note: rotate tires")

	reply, _, _ = c.Handle("show notes")
	if !strings.Contains(reply, "1. buy oil filter") || !strings.Contains(reply, "2. rotate tires") {
		t.Errorf("list: %q", reply)
	}

	reply, changed, _ = c.Handle("remove note 1")
	if !changed || !strings.Contains(reply, "buy oil filter") {
		t.Errorf("remove: %q changed=%v", reply, changed)
	}

	reply, changed, _ = c.Handle("remove note 9")
	if changed || !strings.Contains(reply, "could not find") {
		t.Errorf("remove missing: %q changed=%v", reply, changed)
	}
}

func TestPersonalCommands(t *testing.T) {
	c := newTestCommands()

	reply, changed, handled := c.Handle("set my truck to red F-150")
	if !handled || !changed {
		t.Fatalf("set: handled=%v changed=%v", handled, changed)
	}
	if reply != "Updated personal data: truck = red F-150." {
		t.Errorf("set reply: %q", reply)
	}

	reply, _, _ = c.Handle("what's my truck?")
	if reply != "truck: red F-150" {
		t.Errorf("get: %q", reply)
	}

	// Keys upsert case-insensitively under the first stored spelling.
	c.Handle("set my Truck to blue Tacoma")
	reply, _, _ = c.Handle("what's my truck")
	if reply != "truck: blue Tacoma" {
		t.Errorf("after upsert: %q", reply)
	}

	reply, _, _ = c.Handle("list personal data")
	if !strings.Contains(reply, "- truck: blue Tacoma") {
		t.Errorf("list: %q", reply)
	}

	reply, changed, _ = c.Handle("remove personal data truck")
	if !changed || reply != "Removed personal data: truck." {
		t.Errorf("remove: %q changed=%v", reply, changed)
	}

	reply, _, _ = c.Handle("what's my truck")
	if !strings.Contains(reply, "don't have") {
		t.Errorf("get missing: %q", reply)
	}
}

func TestAgeQuery(t *testing.T) {
	c := newTestCommands() // clock fixed at 2024-06-01

	reply, _, handled := c.Handle("how old am I")
	if !handled || !strings.Contains(reply, "don't have your birthday yet") {
		t.Fatalf("no birthday: %q handled=%v", reply, handled)
	}

	c.Handle("set my birthday to 1980-05-20")
	reply, changed, handled := c.Handle("how old am i")
	if !handled || changed || reply != "You are 44 years old." {
		t.Errorf("age: %q changed=%v handled=%v", reply, changed, handled)
	}

	// The anniversary has not come around yet this year.
	c.Handle("set my birthday to December 12, 1980")
	reply, _, _ = c.Handle("what's my age")
	if reply != "You are 43 years old." {
		t.Errorf("age before anniversary: %q", reply)
	}
}

func TestAgeReadsBirthdaySynonymKeys(t *testing.T) {
	c := newTestCommands()
	c.Handle("set my born to 06/01/2000")

	reply, _, _ := c.Handle("how old am I")
	if reply != "You are 24 years old." {
		t.Errorf("age via synonym key: %q", reply)
	}
}

func TestHandleIntent(t *testing.T) {
	c := newTestCommands()

	reply, changed, handled := c.HandleIntent(IntentResult{
		Intent: IntentPersonalSet,
		Args:   map[string]any{"key": "name", "value": "Wayne"},
	})
	if !handled || !changed || reply != "Updated personal data: name = Wayne." {
		t.Fatalf("set: %q changed=%v handled=%v", reply, changed, handled)
	}

	reply, _, _ = c.HandleIntent(IntentResult{
		Intent: IntentPersonalGet,
		Args:   map[string]any{"key": "Name"},
	})
	if reply != "name: Wayne" {
		t.Errorf("get: %q", reply)
	}

	reply, _, handled = c.HandleIntent(IntentResult{Intent: IntentTasksList})
	if !handled || !strings.Contains(reply, "No daily tasks yet") {
		t.Errorf("list: %q handled=%v", reply, handled)
	}

	if _, _, handled := c.HandleIntent(IntentResult{Intent: IntentNone}); handled {
		t.Error("none intent handled")
	}
	if _, _, handled := c.HandleIntent(IntentResult{Intent: IntentPersonalGet}); handled {
		t.Error("get intent without key handled")
	}
}

func TestNonCommandsPassThrough(t *testing.T) {
	c := newTestCommands()
	for _, text := range []string{
		"tell me a story about trucks",
		"how do I change a tire",
		"",
	} {
		if _, _, handled := c.Handle(text); handled {
			t.Errorf("%q unexpectedly handled", text)
		}
	}
}
