// Package classifier gates whether input text is a genuine, in-scope question.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/prompts"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
)

// storeThreshold is the minimum confidence for persisting a question.
const storeThreshold = 0.6

// Result is the outcome of classifying one input.
type Result struct {
	IsQuestion   bool    `json:"is_question"`
	IsRelevant   bool    `json:"is_relevant"`
	QuestionType string  `json:"question_type"`
	Confidence   float64 `json:"confidence"`
	Reasoning    string  `json:"reasoning"`
}

// Generator is the completion surface the classifier needs.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...llms.CallOption) (*llm.Generation, error)
}

// Classifier classifies queries with a single low-temperature model call.
type Classifier struct {
	gen     Generator
	exec    *ratelimit.Executor
	prompts *prompts.Library
	enabled bool
}

// New creates a classifier. When disabled it returns a confident default
// without calling the model.
func New(gen Generator, exec *ratelimit.Executor, lib *prompts.Library, enabled bool) *Classifier {
	slog.Info("initialized query classifier", "enabled", enabled)
	return &Classifier{
		gen:     gen,
		exec:    exec,
		prompts: lib,
		enabled: enabled,
	}
}

// Classify never fails: any provider or parse error yields a permissive
// default so transient issues do not block legitimate questions.
func (c *Classifier) Classify(ctx context.Context, query string) Result {
	if !c.enabled {
		return Result{
			IsQuestion:   true,
			IsRelevant:   true,
			QuestionType: "general",
			Confidence:   1.0,
			Reasoning:    "classification disabled",
		}
	}

	systemPrompt := c.prompts.Render(prompts.ClassificationSystem, nil)
	userPrompt := c.prompts.Render(prompts.ClassificationUser, map[string]string{"query": query})

	generation, err := ratelimit.Do(ctx, c.exec, func(ctx context.Context) (*llm.Generation, error) {
		return c.gen.GenerateWithSystem(ctx, systemPrompt, userPrompt,
			llms.WithTemperature(0.3),
			llms.WithMaxTokens(200),
		)
	})
	if err != nil {
		slog.Warn("classification call failed, using permissive default", "error", err)
		return permissiveDefault(fmt.Sprintf("classification error: %v", err))
	}

	var result Result
	if err := json.Unmarshal([]byte(stripFences(generation.Text)), &result); err != nil {
		slog.Warn("classification response unparseable, using permissive default", "error", err)
		return permissiveDefault("classification parsing failed")
	}

	slog.Debug("query classified", "is_question", result.IsQuestion, "is_relevant", result.IsRelevant, "type", result.QuestionType, "confidence", result.Confidence)
	return result
}

// ShouldStore reports whether the query should be persisted as a question.
func (c *Classifier) ShouldStore(r Result) bool {
	return r.IsQuestion && r.IsRelevant && r.Confidence >= storeThreshold
}

func permissiveDefault(reason string) Result {
	return Result{
		IsQuestion:   true,
		IsRelevant:   true,
		QuestionType: "general",
		Confidence:   0.5,
		Reasoning:    reason,
	}
}

// stripFences removes a markdown code-fence wrapper around the JSON body.
func stripFences(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
	} else {
		return text
	}

	if end := strings.Index(text, "```"); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}
