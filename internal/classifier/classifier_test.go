package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/prompts"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
)

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) GenerateWithSystem(_ context.Context, _, _ string, _ ...llms.CallOption) (*llm.Generation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Generation{Text: f.response}, nil
}

func newTestClassifier(gen Generator, enabled bool) *Classifier {
	exec := ratelimit.New(2, 0, time.Millisecond, 2.0, llm.IsRetryable)
	return New(gen, exec, prompts.Defaults(), enabled)
}

func TestClassifyParsesJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"plain json", `{"is_question": true, "is_relevant": false, "question_type": "factual", "confidence": 0.9, "reasoning": "clear question"}`},
		{"json fence", "```json\n{\"is_question\": true, \"is_relevant\": false, \"question_type\": \"factual\", \"confidence\": 0.9, \"reasoning\": \"clear question\"}\n```"},
		{"bare fence", "```\n{\"is_question\": true, \"is_relevant\": false, \"question_type\": \"factual\", \"confidence\": 0.9, \"reasoning\": \"clear question\"}\n```"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClassifier(&fakeGenerator{response: tt.response}, true)
			got := c.Classify(context.Background(), "What is entropy?")

			if !got.IsQuestion || got.IsRelevant {
				t.Errorf("got %+v, want is_question=true is_relevant=false", got)
			}
			if got.Confidence != 0.9 {
				t.Errorf("confidence = %v, want 0.9", got.Confidence)
			}
		})
	}
}

func TestClassifyParseFailureDefaults(t *testing.T) {
	c := newTestClassifier(&fakeGenerator{response: "I think this is a question."}, true)
	got := c.Classify(context.Background(), "hm")

	if !got.IsQuestion || !got.IsRelevant || got.Confidence != 0.5 {
		t.Errorf("got %+v, want permissive default", got)
	}
}

func TestClassifyProviderErrorDefaults(t *testing.T) {
	c := newTestClassifier(&fakeGenerator{err: errors.New("boom")}, true)
	got := c.Classify(context.Background(), "What is X?")

	if !got.IsQuestion || !got.IsRelevant || got.Confidence != 0.5 {
		t.Errorf("got %+v, want permissive default", got)
	}
}

func TestClassifyDisabledSkipsModel(t *testing.T) {
	gen := &fakeGenerator{response: `{"is_question": false}`}
	c := newTestClassifier(gen, false)

	got := c.Classify(context.Background(), "anything")
	if gen.calls != 0 {
		t.Errorf("model called %d times while disabled", gen.calls)
	}
	if !got.IsQuestion || !got.IsRelevant || got.Confidence != 1.0 {
		t.Errorf("got %+v, want confident default", got)
	}
}

func TestShouldStore(t *testing.T) {
	c := newTestClassifier(&fakeGenerator{}, true)

	tests := []struct {
		name   string
		result Result
		want   bool
	}{
		{"all true at threshold", Result{IsQuestion: true, IsRelevant: true, Confidence: 0.60}, true},
		{"just below threshold", Result{IsQuestion: true, IsRelevant: true, Confidence: 0.59}, false},
		{"not a question", Result{IsQuestion: false, IsRelevant: true, Confidence: 0.9}, false},
		{"not relevant", Result{IsQuestion: true, IsRelevant: false, Confidence: 0.9}, false},
		{"high confidence", Result{IsQuestion: true, IsRelevant: true, Confidence: 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ShouldStore(tt.result); got != tt.want {
				t.Errorf("ShouldStore(%+v) = %v, want %v", tt.result, got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence with prose", "Here you go:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
