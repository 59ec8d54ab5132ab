package db

import (
	"context"

	"github.com/SurabhiV1999/ChemBot/internal/conversation"
	"github.com/SurabhiV1999/ChemBot/internal/engine"
	"github.com/SurabhiV1999/ChemBot/internal/models"
)

// Store adapts the SurrealDB client to the engine's persistence surface.
type Store struct {
	client *Client
}

// NewStore wraps a connected client.
func NewStore(client *Client) *Store {
	return &Store{client: client}
}

// SaveQuestion stores an answered question and returns its record ID.
func (s *Store) SaveQuestion(ctx context.Context, rec engine.QuestionRecord) (string, error) {
	return s.client.QueryCreateQuestion(ctx, models.QuestionInput{
		Question:       rec.Question,
		Answer:         rec.Answer,
		ContentID:      rec.ContentID,
		UserID:         rec.UserID,
		QuestionType:   rec.QuestionType,
		Confidence:     rec.Confidence,
		ModelUsed:      rec.ModelUsed,
		TokensUsed:     rec.TokensUsed,
		ResponseTimeMS: rec.ResponseTimeMS,
	})
}

// SaveAnalyticsEvent stores one usage event.
func (s *Store) SaveAnalyticsEvent(ctx context.Context, ev engine.AnalyticsEvent) error {
	event := models.AnalyticsEvent{
		Type:      ev.Type,
		UserID:    ev.UserID,
		ContentID: ev.ContentID,
		Metadata:  ev.Metadata,
	}
	if ev.QuestionID != "" {
		event.QuestionID = &ev.QuestionID
	}
	return s.client.QueryCreateAnalyticsEvent(ctx, event)
}

// LoadRecentTurns rebuilds conversation turns from stored questions.
func (s *Store) LoadRecentTurns(ctx context.Context, contentID, userID string, limit int) ([]conversation.Turn, error) {
	questions, err := s.client.QueryRecentQuestions(ctx, contentID, userID, limit)
	if err != nil {
		return nil, err
	}

	turns := make([]conversation.Turn, len(questions))
	for i, q := range questions {
		turns[i] = conversation.Turn{
			Question:  q.Question,
			Answer:    q.Answer,
			Timestamp: q.Created,
		}
	}
	return turns, nil
}
