// Package prompts loads named prompt templates and canned user-facing
// messages from a YAML file, with built-in defaults.
package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template names.
const (
	ClassificationSystem = "classification_system_prompt"
	ClassificationUser   = "classification_user_prompt"
	AnswerSystem         = "chatbot_system_prompt"
	AnswerUser           = "chatbot_user_prompt"
	SplitSystem          = "split_system_prompt"
	SplitUser            = "split_user_prompt"
)

// Error message names.
const (
	MsgNoContext       = "no_context"
	MsgProcessingError = "processing_error"
	MsgNotAQuestion    = "not_a_question"
	MsgOffTopic        = "off_topic"
)

// Library holds prompt templates and canned error messages.
type Library struct {
	Templates     map[string]string `yaml:"templates"`
	ErrorMessages map[string]string `yaml:"error_messages"`
}

// Defaults returns the built-in prompt library.
func Defaults() *Library {
	return &Library{
		Templates: map[string]string{
			ClassificationSystem: `You are a query classifier for an educational chemistry assistant. Classify the user's input and respond with strict JSON only, no prose, using this schema:
{"is_question": bool, "is_relevant": bool, "question_type": string, "confidence": number, "reasoning": string}

is_question: whether the input asks something. is_relevant: whether it relates to studying chemistry or learning material. question_type: one of "factual", "conceptual", "calculation", "procedural", "general". confidence: 0.0-1.0.`,

			ClassificationUser: `Classify this input:

{query}`,

			AnswerSystem: `You are ChemBot, a helpful chemistry tutor. Answer the student's question using ONLY the provided context from their uploaded learning material. If the context does not contain enough information, say so clearly. Explain concepts step by step and keep a friendly, encouraging tone.`,

			AnswerUser: `Context from the learning material:
{context}

Previous conversation:
{history}

Student question: {question}

Answer:`,

			SplitSystem: `You split long educational text into smaller coherent sections of approximately {chunk_size} words each. Each section must be a complete thought starting and ending at a natural boundary.`,

			SplitUser: `Insert the marker "---SPLIT---" on its own line between sections of roughly {chunk_size} words. Return the original text unchanged apart from the added markers.

Text to split:
{text}`,
		},
		ErrorMessages: map[string]string{
			MsgNoContext:       "I couldn't find relevant information in the content to answer your question.",
			MsgProcessingError: "I encountered an error processing your question. Please try again.",
			MsgNotAQuestion:    "I noticed this might not be a question. If you'd like to learn something specific from your material, please ask me a question!",
			MsgOffTopic:        "This question seems to be outside the scope of your uploaded learning material. I can only help with questions related to the content you've provided.",
		},
	}
}

// Load reads a prompt library from a YAML file. Entries missing from the
// file fall back to the defaults; an empty path returns the defaults.
func Load(path string) (*Library, error) {
	lib := Defaults()
	if path == "" {
		return lib, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}

	var loaded Library
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}

	for name, text := range loaded.Templates {
		lib.Templates[name] = text
	}
	for name, text := range loaded.ErrorMessages {
		lib.ErrorMessages[name] = text
	}

	slog.Info("loaded prompts", "file", path, "templates", len(loaded.Templates))
	return lib, nil
}

// Render substitutes {name} placeholders in the named template.
// Unknown template names render empty.
func (l *Library) Render(name string, vars map[string]string) string {
	text, ok := l.Templates[name]
	if !ok {
		slog.Warn("unknown prompt template", "name", name)
		return ""
	}
	for key, value := range vars {
		text = strings.ReplaceAll(text, "{"+key+"}", value)
	}
	return text
}

// ErrorMessage returns the canned message for a failure mode.
func (l *Library) ErrorMessage(name string) string {
	if msg, ok := l.ErrorMessages[name]; ok {
		return msg
	}
	return Defaults().ErrorMessages[MsgProcessingError]
}
