package worker

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"assistant-relay/internal/domain/model"

	"github.com/pkoukk/tiktoken-go"
)

var (
	needsTasksRe = regexp.MustCompile(`(?i)\b(tasks?|todo|to-do|list)\b`)
	needsNotesRe = regexp.MustCompile(`(?i)\b(notes?|remember|memory)\b`)
	wantsWeather = regexp.MustCompile(`(?i)\b(weather|forecast|temperature|rain|snow|storm)\b`)
)

// WantsWeather reports whether the user's text asks about conditions so the
// processor knows to refresh the forecast first.
func WantsWeather(text string) bool {
	return wantsWeather.MatchString(text)
}

// PromptBuilder assembles the assistant prompt from worker memory and the
// weather reports, including a context section only when the question needs
// it, and trims sections to keep the whole prompt inside the token budget.
type PromptBuilder struct {
	budget int
	enc    *tiktoken.Tiktoken
	now    func() time.Time
}

func NewPromptBuilder(budget int) (*PromptBuilder, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load token encoding: %w", err)
	}
	return &PromptBuilder{budget: budget, enc: enc, now: time.Now}, nil
}

const promptHeader = `You are Wayne, a local personal assistant who is quick, concise, direct, and practical.
Rules:
- Do not invent personal facts not in personal_data.
- Output should only contain the answer, no extra bloat.
- Use daily_tasks when asked about tasks or planning.`

func (b *PromptBuilder) Build(userText string, mem *Memory, weatherDay, weatherWeek string) string {
	needsTasks := needsTasksRe.MatchString(userText)
	needsNotes := needsNotesRe.MatchString(userText)
	needsWeather := WantsWeather(userText)

	section := func(include bool, content string) string {
		if !include {
			return "(omitted)"
		}
		if content == "" {
			return "(empty)"
		}
		return content
	}

	personal := personalBlock(mem.Personal())
	tasks := listBlock(mem.Tasks())
	notes := listBlock(mem.Notes())

	prompt := strings.Join([]string{
		promptHeader,
		"",
		"[now]",
		b.now().Format("2006-01-02 15:04:05"),
		"",
		"[weather_today]",
		section(needsWeather, weatherDay),
		"",
		"[weather_week]",
		section(needsWeather, weatherWeek),
		"",
		"[personal_data]",
		section(true, personal),
		"",
		"[daily_tasks]",
		section(needsTasks, tasks),
		"",
		"[notes]",
		section(needsNotes, notes),
		"",
		"User: " + userText,
		"Wayne:",
	}, "\n")

	return b.trim(prompt, userText)
}

// Tokens counts prompt tokens for the configured encoding.
func (b *PromptBuilder) Tokens(text string) int {
	return len(b.enc.Encode(text, nil, nil))
}

// trim drops the bulkier context sections when the assembled prompt blows
// the budget. The user text and header always survive.
func (b *PromptBuilder) trim(prompt, userText string) string {
	if b.Tokens(prompt) <= b.budget {
		return prompt
	}
	for _, name := range []string{"notes", "weather_week", "daily_tasks", "weather_today", "personal_data"} {
		prompt = replaceSection(prompt, name, "(omitted)")
		if b.Tokens(prompt) <= b.budget {
			return prompt
		}
	}
	// Still over budget: keep only the header and the question.
	return promptHeader + "\n\nUser: " + userText + "\nWayne:"
}

func replaceSection(prompt, name, with string) string {
	// Section bodies never contain blank lines, so the next blank line ends
	// the section.
	header := "[" + name + "]\n"
	start := strings.Index(prompt, header)
	if start < 0 {
		return prompt
	}
	bodyStart := start + len(header)
	end := strings.Index(prompt[bodyStart:], "\n\n")
	if end < 0 {
		return prompt
	}
	return prompt[:bodyStart] + with + prompt[bodyStart+end:]
}

func personalBlock(items []model.PersonalItem) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("- %s: %s", it.Key, it.Value))
	}
	return strings.Join(lines, "\n")
}

func listBlock(items []string) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+it)
	}
	return strings.Join(lines, "\n")
}
