package worker

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"assistant-relay/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

// Intent is a routing decision for a message the command regexes did not
// recognize. The classifier asks the model for one of these instead of a
// free-form reply.
type Intent string

const (
	IntentNone        Intent = "none"
	IntentWeather     Intent = "weather.current"
	IntentTasksList   Intent = "tasks.list"
	IntentTasksAdd    Intent = "tasks.add"
	IntentPersonalGet Intent = "personal.get"
	IntentPersonalSet Intent = "personal.set"
	IntentPersonalAge Intent = "personal.age"
)

type IntentResult struct {
	Intent Intent         `json:"intent"`
	Args   map[string]any `json:"args"`
}

// Arg returns the named string argument, or "" when absent or not a string.
func (r IntentResult) Arg(name string) string {
	v, ok := r.Args[name]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

var knownIntents = map[Intent]bool{
	IntentWeather:     true,
	IntentTasksList:   true,
	IntentTasksAdd:    true,
	IntentPersonalGet: true,
	IntentPersonalSet: true,
	IntentPersonalAge: true,
}

// IntentClassifier routes free-form phrasings onto deterministic handlers by
// asking the generator for a JSON verdict. Any failure, from transport to
// unparseable output, degrades to IntentNone and the message goes to the
// normal generation path.
type IntentClassifier struct {
	gen adapter.TextGenerator
	log *zerolog.Logger
}

func NewIntentClassifier(gen adapter.TextGenerator, logger *zerolog.Logger) *IntentClassifier {
	l := logger.With().Str("component", "IntentClassifier").Logger()
	return &IntentClassifier{gen: gen, log: &l}
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func (c *IntentClassifier) Classify(ctx context.Context, text string, personalKeys []string) IntentResult {
	keysLine := "Personal keys: (none)"
	if len(personalKeys) > 0 {
		keysLine = "Personal keys: " + strings.Join(personalKeys, ", ")
	}
	prompt := strings.Join([]string{
		"Return JSON only.",
		"Intents: weather.current, tasks.list, tasks.add, personal.get, personal.set, personal.age, none.",
		"tasks.add -> args.text. personal.get -> args.key. personal.set -> args.key, args.value.",
		keysLine,
		"User: " + text,
		"JSON:",
	}, "\n")

	raw, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		c.log.Warn().Err(err).Msg("intent classification failed")
		return IntentResult{Intent: IntentNone}
	}

	jsonText := jsonObjectRe.FindString(raw)
	if jsonText == "" {
		return IntentResult{Intent: IntentNone}
	}
	var res IntentResult
	if err := json.Unmarshal([]byte(jsonText), &res); err != nil || !knownIntents[res.Intent] {
		return IntentResult{Intent: IntentNone}
	}
	return res
}
