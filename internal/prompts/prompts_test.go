package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsCoverAllNames(t *testing.T) {
	lib := Defaults()

	for _, name := range []string{ClassificationSystem, ClassificationUser, AnswerSystem, AnswerUser, SplitSystem, SplitUser} {
		if lib.Templates[name] == "" {
			t.Errorf("missing default template %q", name)
		}
	}
	for _, name := range []string{MsgNoContext, MsgProcessingError, MsgNotAQuestion, MsgOffTopic} {
		if lib.ErrorMessages[name] == "" {
			t.Errorf("missing default error message %q", name)
		}
	}
}

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	lib := Defaults()

	got := lib.Render(AnswerUser, map[string]string{
		"context":  "CONTEXT-BLOCK",
		"history":  "HISTORY-BLOCK",
		"question": "What is a mole?",
	})

	for _, want := range []string{"CONTEXT-BLOCK", "HISTORY-BLOCK", "What is a mole?"} {
		if !strings.Contains(got, want) {
			t.Errorf("rendered template missing %q", want)
		}
	}
	if strings.Contains(got, "{question}") {
		t.Error("placeholder left unsubstituted")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if got := Defaults().Render("nonexistent", nil); got != "" {
		t.Errorf("unknown template rendered %q, want empty", got)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompts.yaml")
	content := `templates:
  chatbot_system_prompt: "custom system"
error_messages:
  no_context: "custom no context"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	lib, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := lib.Templates[AnswerSystem]; got != "custom system" {
		t.Errorf("override not applied: %q", got)
	}
	if got := lib.ErrorMessage(MsgNoContext); got != "custom no context" {
		t.Errorf("error message override not applied: %q", got)
	}
	// Untouched entries keep their defaults
	if lib.Templates[ClassificationSystem] == "" {
		t.Error("default template lost after load")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	lib, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lib.Templates[AnswerSystem] == "" {
		t.Error("empty path did not return defaults")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/nonexistent/prompts.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
