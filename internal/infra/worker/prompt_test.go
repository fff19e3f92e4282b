package worker

import (
	"fmt"
	"strings"
	"testing"
)

func TestBuildIncludesSectionsOnDemand(t *testing.T) {
	b, err := NewPromptBuilder(4096)
	if err != nil {
		t.Fatalf("prompt builder: %v", err)
	}
	mem := NewMemory()
	mem.AddTask("walk dog")
	mem.AddNote("buy oil filter")
	mem.SetPersonal("truck", "red F-150")

	prompt := b.Build("what are my tasks today", mem, "sunny day", "sunny week")

	if !strings.Contains(prompt, "[daily_tasks]\n- walk dog") {
		t.Errorf("tasks section missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[weather_today]\n(omitted)") {
		t.Errorf("weather should be omitted:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[notes]\n(omitted)") {
		t.Errorf("notes should be omitted:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[personal_data]\n- truck: red F-150") {
		t.Errorf("personal data always included:\n%s", prompt)
	}
	if !strings.HasSuffix(prompt, "User: what are my tasks today\nWayne:") {
		t.Errorf("prompt tail:\n%s", prompt)
	}
}

func TestBuildWeatherQuestion(t *testing.T) {
	b, _ := NewPromptBuilder(4096)
	prompt := b.Build("what's the weather like", NewMemory(), "Current: 91 F", "7-Day:")

	if !strings.Contains(prompt, "[weather_today]\nCurrent: 91 F") {
		t.Errorf("day report missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[weather_week]\n7-Day:") {
		t.Errorf("week report missing:\n%s", prompt)
	}
}

func TestBuildEmptySectionMarker(t *testing.T) {
	b, _ := NewPromptBuilder(4096)
	prompt := b.Build("show my notes", NewMemory(), "", "")
	if !strings.Contains(prompt, "[notes]\n(empty)") {
		t.Errorf("empty marker missing:\n%s", prompt)
	}
}

func TestTrimDropsBulkFirst(t *testing.T) {
	b, _ := NewPromptBuilder(4096)
	mem := NewMemory()
	for i := 0; i < 800; i++ {
		mem.AddNote(fmt.Sprintf("note number %d about nothing in particular", i))
	}

	full := b.Build("remember my notes", mem, "", "")
	if b.Tokens(full) > 4096 {
		t.Fatalf("prompt still over budget: %d tokens", b.Tokens(full))
	}
	if !strings.Contains(full, "[notes]\n(omitted)") {
		t.Errorf("notes not trimmed:\n%.400s", full)
	}
	// The question always survives trimming.
	if !strings.Contains(full, "User: remember my notes") {
		t.Error("user text trimmed away")
	}
}

func TestTrimLastResortKeepsHeaderAndQuestion(t *testing.T) {
	b, _ := NewPromptBuilder(80)
	mem := NewMemory()
	mem.SetPersonal("story", strings.Repeat("long value ", 200))

	prompt := b.Build("hello", mem, "", "")
	if !strings.HasPrefix(prompt, "You are Wayne") {
		t.Errorf("header missing:\n%s", prompt)
	}
	if !strings.Contains(prompt, "User: hello") {
		t.Errorf("question missing:\n%s", prompt)
	}
	if b.Tokens(prompt) > 120 {
		t.Errorf("last resort prompt too large: %d tokens", b.Tokens(prompt))
	}
}

func TestWantsWeather(t *testing.T) {
	for text, want := range map[string]bool{
		"what's the weather":       true,
		"will it rain tomorrow":    true,
		"forecast for the week":    true,
		"what's the temperature":   true,
		"tell me a story":          false,
		"add walk dog to my tasks": false,
	} {
		if got := WantsWeather(text); got != want {
			t.Errorf("WantsWeather(%q) = %v, want %v", text, got, want)
		}
	}
}
