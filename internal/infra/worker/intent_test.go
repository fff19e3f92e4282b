package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClassifier(gen *fakeGenerator) *IntentClassifier {
	l := zerolog.Nop()
	return NewIntentClassifier(gen, &l)
}

func TestClassifyParsesVerdict(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{
		`Sure! {"intent":"personal.get","args":{"key":"name"}}`,
	}}
	res := newTestClassifier(gen).Classify(context.Background(), "who am I", []string{"name"})

	if res.Intent != IntentPersonalGet {
		t.Fatalf("intent: %q", res.Intent)
	}
	if res.Arg("key") != "name" {
		t.Errorf("key arg: %q", res.Arg("key"))
	}
}

func TestClassifyDegradesToNone(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"generator error": {err: errors.New("down")},
		"no json":         {deltas: []string{"I think you want tasks."}},
		"bad json":        {deltas: []string{`{"intent":`}},
		"unknown intent":  {deltas: []string{`{"intent":"tasks.reorder"}`}},
	}
	for name, gen := range cases {
		if res := newTestClassifier(gen).Classify(context.Background(), "hm", nil); res.Intent != IntentNone {
			t.Errorf("%s: intent %q, want none", name, res.Intent)
		}
	}
}

func TestClassifyNonStringArg(t *testing.T) {
	gen := &fakeGenerator{deltas: []string{`{"intent":"tasks.add","args":{"text":42}}`}}
	res := newTestClassifier(gen).Classify(context.Background(), "hm", nil)

	if res.Intent != IntentTasksAdd || res.Arg("text") != "" {
		t.Errorf("intent=%q text=%q", res.Intent, res.Arg("text"))
	}
}
