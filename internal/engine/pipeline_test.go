package engine

import (
	"context"
	"strings"
	"testing"
)

func sampleDocument() string {
	para := strings.Repeat("chemistry word ", 30)
	return "# Acids\n\n" + para + "\n\n# Bases\n\n" + para
}

func TestIngestMilestones(t *testing.T) {
	env := newTestEnv(t, relevantJSON)

	var stages []string
	var percentages []int
	result, err := env.engine.Ingest(context.Background(), sampleDocument(), "doc1", map[string]any{"title": "Intro"}, func(p Progress) {
		stages = append(stages, p.Stage)
		percentages = append(percentages, p.Percentage)
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if result.ContentID != "doc1" {
		t.Errorf("content id = %q", result.ContentID)
	}
	if result.ChunkCount == 0 {
		t.Error("no chunks stored")
	}
	if result.WordCount == 0 {
		t.Error("word count is zero")
	}
	if result.Strategy != "heuristic" {
		t.Errorf("strategy = %q, want heuristic", result.Strategy)
	}

	if percentages[0] != 0 {
		t.Errorf("first milestone = %d, want 0", percentages[0])
	}
	if percentages[len(percentages)-1] != 100 {
		t.Errorf("last milestone = %d, want 100", percentages[len(percentages)-1])
	}
	for i := 1; i < len(percentages); i++ {
		if percentages[i] < percentages[i-1] {
			t.Errorf("milestones regressed: %v", percentages)
			break
		}
	}

	for _, stage := range []string{"initializing", "converting", "chunking", "embedding", "completing"} {
		found := false
		for _, s := range stages {
			if s == stage {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing %q stage in %v", stage, stages)
		}
	}
}

func TestIngestStampsContentMetadata(t *testing.T) {
	env := newTestEnv(t, relevantJSON)

	_, err := env.engine.Ingest(context.Background(), sampleDocument(), "doc1", map[string]any{"title": "Intro"}, nil)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(env.retriever.chunks) == 0 {
		t.Fatal("no chunks reached the store")
	}
	for _, c := range env.retriever.chunks {
		if c.Metadata["content_id"] != "doc1" {
			t.Errorf("chunk metadata content_id = %v", c.Metadata["content_id"])
		}
		if c.Metadata["title"] != "Intro" {
			t.Errorf("chunk metadata title = %v", c.Metadata["title"])
		}
	}
}

func TestIngestEmptyDocument(t *testing.T) {
	env := newTestEnv(t, relevantJSON)

	var stages []string
	_, err := env.engine.Ingest(context.Background(), "   \n\n  ", "doc1", nil, func(p Progress) {
		stages = append(stages, p.Stage)
	})
	if err == nil {
		t.Fatal("expected error for empty document")
	}
	if stages[len(stages)-1] != "error" {
		t.Errorf("last stage = %q, want error", stages[len(stages)-1])
	}
}
