package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SurabhiV1999/ChemBot/internal/engine"
	"github.com/SurabhiV1999/ChemBot/internal/models"
)

func sampleInput(i int) models.QuestionInput {
	return models.QuestionInput{
		Question:       fmt.Sprintf("What is reaction %d?", i),
		Answer:         fmt.Sprintf("Reaction %d combines an acid and a base.", i),
		ContentID:      "doc1",
		UserID:         "u1",
		QuestionType:   "factual",
		Confidence:     0.9,
		ModelUsed:      "test-model",
		TokensUsed:     42,
		ResponseTimeMS: 120,
	}
}

func TestCreateAndGetQuestion(t *testing.T) {
	requireDB(t)
	wipeData(t)
	ctx := context.Background()

	id, err := testDB.QueryCreateQuestion(ctx, sampleInput(1))
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if id == "" {
		t.Fatal("empty question ID")
	}

	q, err := testDB.QueryGetQuestion(ctx, id)
	if err != nil {
		t.Fatalf("get question: %v", err)
	}
	if q.Question != "What is reaction 1?" {
		t.Errorf("question = %q", q.Question)
	}
	if q.Confidence != 0.9 || q.TokensUsed != 42 {
		t.Errorf("confidence = %v tokens = %d", q.Confidence, q.TokensUsed)
	}
	if q.Created.IsZero() {
		t.Error("created timestamp not set")
	}
}

func TestGetQuestionNotFound(t *testing.T) {
	requireDB(t)

	_, err := testDB.QueryGetQuestion(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRecentQuestionsOrderAndLimit(t *testing.T) {
	requireDB(t)
	wipeData(t)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		if _, err := testDB.QueryCreateQuestion(ctx, sampleInput(i)); err != nil {
			t.Fatalf("create question %d: %v", i, err)
		}
	}

	questions, err := testDB.QueryRecentQuestions(ctx, "doc1", "u1", 3)
	if err != nil {
		t.Fatalf("recent questions: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("got %d questions, want 3", len(questions))
	}
	// Most recent three, replayed oldest first
	if questions[0].Question != "What is reaction 2?" {
		t.Errorf("first = %q", questions[0].Question)
	}
	if questions[2].Question != "What is reaction 4?" {
		t.Errorf("last = %q", questions[2].Question)
	}
}

func TestRecentQuestionsScopedToUser(t *testing.T) {
	requireDB(t)
	wipeData(t)
	ctx := context.Background()

	input := sampleInput(1)
	if _, err := testDB.QueryCreateQuestion(ctx, input); err != nil {
		t.Fatalf("create question: %v", err)
	}

	questions, err := testDB.QueryRecentQuestions(ctx, "doc1", "someone-else", 5)
	if err != nil {
		t.Fatalf("recent questions: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("got %d questions for wrong user, want 0", len(questions))
	}
}

func TestDeleteContentQuestions(t *testing.T) {
	requireDB(t)
	wipeData(t)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if _, err := testDB.QueryCreateQuestion(ctx, sampleInput(i)); err != nil {
			t.Fatalf("create question %d: %v", i, err)
		}
	}

	deleted, err := testDB.QueryDeleteContentQuestions(ctx, "doc1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	questions, err := testDB.QueryRecentQuestions(ctx, "doc1", "u1", 5)
	if err != nil {
		t.Fatalf("recent questions: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("questions survived delete: %d", len(questions))
	}
}

func TestCreateAnalyticsEvent(t *testing.T) {
	requireDB(t)
	wipeData(t)
	ctx := context.Background()

	qid := "abc123"
	err := testDB.QueryCreateAnalyticsEvent(ctx, models.AnalyticsEvent{
		Type:       "question_answered",
		UserID:     "u1",
		ContentID:  "doc1",
		QuestionID: &qid,
		Metadata:   map[string]any{"cached": false, "response_time_ms": 120},
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}

	results, err := testDB.Query(ctx, "SELECT count() AS c FROM analytics_event GROUP ALL", nil)
	if err != nil {
		t.Fatalf("count events: %v", err)
	}
	if results == nil || len(*results) == 0 {
		t.Fatal("no count result")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	requireDB(t)
	wipeData(t)
	ctx := context.Background()
	store := NewStore(testDB)

	id, err := store.SaveQuestion(ctx, engine.QuestionRecord{
		Question:       "What is a mole?",
		Answer:         "A mole is 6.022e23 particles.",
		ContentID:      "doc1",
		UserID:         "u1",
		QuestionType:   "factual",
		Confidence:     0.85,
		ModelUsed:      "test-model",
		TokensUsed:     10,
		ResponseTimeMS: 50,
	})
	if err != nil {
		t.Fatalf("save question: %v", err)
	}
	if id == "" {
		t.Fatal("empty question ID")
	}

	if err := store.SaveAnalyticsEvent(ctx, engine.AnalyticsEvent{
		Type:       "question_answered",
		UserID:     "u1",
		ContentID:  "doc1",
		QuestionID: id,
		Metadata:   map[string]any{"cached": false},
	}); err != nil {
		t.Fatalf("save event: %v", err)
	}

	turns, err := store.LoadRecentTurns(ctx, "doc1", "u1", 5)
	if err != nil {
		t.Fatalf("load turns: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(turns))
	}
	if turns[0].Question != "What is a mole?" {
		t.Errorf("turn question = %q", turns[0].Question)
	}
}
