package worker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CommandSet answers deterministic queries (time, tasks, notes, personal
// data, help) before any model call happens. Handle returns handled=false
// when the text is not a command, in which case the job goes to the
// generator; changed=true means worker memory mutated and the relay mirrors
// need a sync.
type CommandSet struct {
	mem *Memory
	now func() time.Time
}

func NewCommandSet(mem *Memory) *CommandSet {
	return &CommandSet{mem: mem, now: time.Now}
}

var (
	timeQueryRe = regexp.MustCompile(`what(?:'s| is)\s+the\s+time|\bcurrent\s+time\b|\btime\s+is\s+it\b|\bwhat\s+time\b`)
	dateQueryRe = regexp.MustCompile(`what(?:'s| is)\s+the\s+date|\btoday'?s\s+date\b|\bwhat\s+day\s+is\s+it\b|\bwhat'?s\s+today\b`)

	addTaskRe   = regexp.MustCompile(`(?i)\badd\s+(?:task\s+)?(.+?)(?:\s+to\s+my\s+daily\s+tasks)?$`)
	personalSet = regexp.MustCompile(`(?i)(?:set|update|change)\s+(?:my\s+)?(?:personal\s+data\s+|personal\s+|profile\s+)?(.+?)\s*(?:to|:)\s*(.+)$`)
	personalGet = regexp.MustCompile(`(?i)(?:what(?:'s| is)|show|get)\s+my\s+(.+?)\??$`)
	personalDel = regexp.MustCompile(`(?i)(?:remove|delete|clear)\s+(?:my\s+)?(?:personal\s+data\s+|personal\s+|profile\s+)?(.+)$`)
	noteAddRe   = regexp.MustCompile(`(?i)\b(?:add|create)\s+notes?\s*[:\-]?\s*(.+)$`)
	noteDelRe   = regexp.MustCompile(`(?i)\b(?:remove|delete)\s+notes?\s*[:\-]?\s*(.+)$`)
	ageQueryRe  = regexp.MustCompile(`(?i)\bhow\s+old\s+am\s+i\b|\b(?:what(?:'s| is)|show|get)\s+my\s+age\b`)
)

// birthdayKeys are the personal-data keys consulted for age questions, in
// lookup order.
var birthdayKeys = []string{"birthday", "born", "birth"}

var birthdayLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

func (c *CommandSet) Handle(text string) (reply string, changed, handled bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false, false
	}
	lower := strings.ToLower(text)
	tokens := normalizeTokens(lower)

	if r := c.handleTime(lower); r != "" {
		return r, false, true
	}
	if r := c.handleHelp(lower, tokens); r != "" {
		return r, false, true
	}
	if r, ch := c.handleTasks(text, lower, tokens); r != "" {
		return r, ch, true
	}
	if r, ch := c.handleNotes(text, lower, tokens); r != "" {
		return r, ch, true
	}
	if r, ch := c.handlePersonal(text, tokens); r != "" {
		return r, ch, true
	}
	return "", false, false
}

// HandleIntent executes a classified intent against worker memory. Weather
// and none are not handled here; those messages stay on the generation
// path.
func (c *CommandSet) HandleIntent(res IntentResult) (reply string, changed, handled bool) {
	switch res.Intent {
	case IntentTasksAdd:
		text := res.Arg("text")
		if text == "" {
			return "Tell me the task text to add.", false, true
		}
		n := c.mem.AddTask(text)
		return fmt.Sprintf("Added task %d: %q.", n, text), true, true
	case IntentTasksList:
		return c.taskListReply(), false, true
	case IntentPersonalAge:
		return c.handleAge(), false, true
	case IntentPersonalGet:
		key := res.Arg("key")
		if key == "" {
			return "", false, false
		}
		if it, ok := c.mem.GetPersonal(key); ok {
			return fmt.Sprintf("%s: %s", it.Key, it.Value), false, true
		}
		return fmt.Sprintf("I don't have %q yet. Use \"set %s to ...\" to add it.", key, key), false, true
	case IntentPersonalSet:
		key, value := res.Arg("key"), res.Arg("value")
		if key == "" || value == "" {
			return "", false, false
		}
		stored := c.mem.SetPersonal(key, value)
		return fmt.Sprintf("Updated personal data: %s = %s.", stored, value), true, true
	}
	return "", false, false
}

func (c *CommandSet) handleTime(lower string) string {
	isTime := timeQueryRe.MatchString(lower)
	isDate := dateQueryRe.MatchString(lower)
	if !isTime && !isDate {
		return ""
	}
	now := c.now()
	if isDate && !isTime {
		return "Current date: " + now.Format("2006-01-02")
	}
	return "Current time: " + now.Format("15:04")
}

func (c *CommandSet) handleHelp(lower string, tokens []string) string {
	wantsHelp := hasToken(tokens, "help") || hasToken(tokens, "commands") ||
		strings.Contains(lower, "what can you do") ||
		strings.Contains(lower, "what do you do") ||
		strings.Contains(lower, "list commands")
	if !wantsHelp {
		return ""
	}
	return strings.Join([]string{
		"Here are some things you can ask:",
		"- Tasks: daily tasks, add task <text>, clear my daily tasks",
		"- Time/date: what's the time, what's the date, what day is it",
		"- Weather: weather, forecast, temperature",
		"- Personal data: list personal data, set my weight to 180, what's my name, how old am I",
		"- Notes: show notes, add note <text>, remove note <num>",
	}, "\n")
}

func (c *CommandSet) handleTasks(text, lower string, tokens []string) (string, bool) {
	hasTasks := hasToken(tokens, "task") || hasToken(tokens, "tasks")
	if !hasTasks {
		return "", false
	}

	if strings.Contains(lower, "clear") {
		c.mem.ClearTasks()
		return "Cleared your daily tasks.", true
	}
	if m := addTaskRe.FindStringSubmatch(text); m != nil && hasToken(tokens, "add") {
		task := strings.TrimSpace(m[1])
		task = strings.TrimPrefix(task, "task ")
		if task == "" {
			return "Tell me the task text to add.", false
		}
		n := c.mem.AddTask(task)
		return fmt.Sprintf("Added task %d: %q.", n, task), true
	}

	return c.taskListReply(), false
}

func (c *CommandSet) taskListReply() string {
	tasks := c.mem.Tasks()
	if len(tasks) == 0 {
		return "Here are your daily tasks:\nNo daily tasks yet."
	}
	lines := []string{"Here are your daily tasks:"}
	for i, t := range tasks {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, t))
	}
	return strings.Join(lines, "\n")
}

func (c *CommandSet) handleNotes(text, lower string, tokens []string) (string, bool) {
	if !hasToken(tokens, "note") && !hasToken(tokens, "notes") {
		return "", false
	}

	wantsList := hasToken(tokens, "list") || hasToken(tokens, "show") || hasToken(tokens, "view") || lower == "notes"
	if wantsList {
		notes := c.mem.Notes()
		if len(notes) == 0 {
			return "No notes yet.", false
		}
		lines := []string{"Notes:"}
		for i, n := range notes {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, n))
		}
		return strings.Join(lines, "\n"), false
	}

	if m := noteAddRe.FindStringSubmatch(text); m != nil {
		note := strings.TrimSpace(m[1])
		if note == "" {
			return "Tell me the note text to add.", false
		}
		n := c.mem.AddNote(note)
		return fmt.Sprintf("Added note %d: %q.", n, note), true
	}

	if m := noteDelRe.FindStringSubmatch(text); m != nil {
		target := strings.TrimSpace(m[1])
		if idx, err := strconv.Atoi(target); err == nil {
			if removed, ok := c.mem.RemoveNote(idx); ok {
				return fmt.Sprintf("Removed note %d: %q.", idx, removed), true
			}
		}
		return "I could not find that note. Try `list notes` to see the numbers.", false
	}

	return "I can list, add, or remove notes. Try `list notes`, `add note ...`, or `remove note 2`.", false
}

func (c *CommandSet) handlePersonal(text string, tokens []string) (string, bool) {
	hasDomain := hasToken(tokens, "personal") || hasToken(tokens, "profile") || hasToken(tokens, "data")

	if hasDomain && (hasToken(tokens, "list") || hasToken(tokens, "show") || hasToken(tokens, "view")) {
		items := c.mem.Personal()
		if len(items) == 0 {
			return "No personal data yet.", false
		}
		lines := []string{"Personal data:"}
		for _, it := range items {
			lines = append(lines, fmt.Sprintf("- %s: %s", it.Key, it.Value))
		}
		return strings.Join(lines, "\n"), false
	}

	if m := personalSet.FindStringSubmatch(text); m != nil {
		key, value := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		if key == "" || value == "" {
			return "Tell me which personal data key and value to set.", false
		}
		stored := c.mem.SetPersonal(key, value)
		return fmt.Sprintf("Updated personal data: %s = %s.", stored, value), true
	}

	if ageQueryRe.MatchString(text) {
		return c.handleAge(), false
	}

	if hasDomain {
		if m := personalDel.FindStringSubmatch(text); m != nil {
			key := strings.TrimSpace(m[1])
			if !c.mem.RemovePersonal(key) {
				return fmt.Sprintf("I could not find %q in personal data.", key), false
			}
			return fmt.Sprintf("Removed personal data: %s.", key), true
		}
	}

	if m := personalGet.FindStringSubmatch(text); m != nil {
		key := strings.TrimSpace(m[1])
		if it, ok := c.mem.GetPersonal(key); ok {
			return fmt.Sprintf("%s: %s", it.Key, it.Value), false
		}
		return fmt.Sprintf("I don't have %q yet. Use \"set %s to ...\" to add it.", key, key), false
	}

	return "", false
}

// handleAge computes the user's age from the stored birthday.
func (c *CommandSet) handleAge() string {
	for _, key := range birthdayKeys {
		it, ok := c.mem.GetPersonal(key)
		if !ok {
			continue
		}
		born, ok := parseBirthday(it.Value)
		if !ok {
			continue
		}
		return fmt.Sprintf("You are %d years old.", yearsSince(born, c.now()))
	}
	return "I don't have your birthday yet. Set it and I can calculate your age."
}

func parseBirthday(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func yearsSince(born, now time.Time) int {
	years := now.Year() - born.Year()
	anniversary := time.Date(now.Year(), born.Month(), born.Day(), 0, 0, 0, 0, now.Location())
	if now.Before(anniversary) {
		years--
	}
	if years < 0 {
		years = 0
	}
	return years
}

func hasToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

var nonWordRe = regexp.MustCompile(`[^a-z0-9_]+`)

func normalizeTokens(lower string) []string {
	return strings.Fields(nonWordRe.ReplaceAllString(lower, " "))
}
