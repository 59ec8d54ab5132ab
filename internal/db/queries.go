package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/SurabhiV1999/ChemBot/internal/models"
)

// QueryCreateQuestion stores an answered question and returns its record ID.
func (c *Client) QueryCreateQuestion(ctx context.Context, input models.QuestionInput) (string, error) {
	sql := `
		CREATE question SET
			question = $question,
			answer = $answer,
			content_id = $content_id,
			user_id = $user_id,
			question_type = $question_type,
			confidence = $confidence,
			model_used = $model_used,
			tokens_used = $tokens_used,
			response_time_ms = $response_time_ms
		RETURN AFTER
	`

	results, err := surrealdb.Query[[]models.Question](ctx, c.db, sql, map[string]any{
		"question":         input.Question,
		"answer":           input.Answer,
		"content_id":       input.ContentID,
		"user_id":          input.UserID,
		"question_type":    input.QuestionType,
		"confidence":       input.Confidence,
		"model_used":       input.ModelUsed,
		"tokens_used":      input.TokensUsed,
		"response_time_ms": input.ResponseTimeMS,
	})
	if err != nil {
		return "", fmt.Errorf("create question: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return "", fmt.Errorf("create question: no result returned")
	}

	id, err := models.RecordIDString((*results)[0].Result[0].ID)
	if err != nil {
		return "", fmt.Errorf("create question: %w", err)
	}
	return id, nil
}

// QueryCreateAnalyticsEvent stores one usage event.
func (c *Client) QueryCreateAnalyticsEvent(ctx context.Context, ev models.AnalyticsEvent) error {
	if ev.Metadata == nil {
		ev.Metadata = map[string]any{}
	}

	sql := `
		CREATE analytics_event SET
			type = $type,
			user_id = $user_id,
			content_id = $content_id,
			question_id = $question_id,
			metadata = $metadata
	`

	_, err := surrealdb.Query[any](ctx, c.db, sql, map[string]any{
		"type":        ev.Type,
		"user_id":     ev.UserID,
		"content_id":  ev.ContentID,
		"question_id": ev.QuestionID,
		"metadata":    ev.Metadata,
	})
	if err != nil {
		return fmt.Errorf("create analytics event: %w", wrapQueryError(err))
	}
	return nil
}

// QueryRecentQuestions returns the latest stored questions for one
// (content, user) pair, oldest first so they replay in order.
func (c *Client) QueryRecentQuestions(ctx context.Context, contentID, userID string, limit int) ([]models.Question, error) {
	sql := `
		SELECT * FROM (
			SELECT * FROM question
			WHERE content_id = $content_id AND user_id = $user_id
			ORDER BY created DESC
			LIMIT $limit
		) ORDER BY created ASC
	`

	results, err := surrealdb.Query[[]models.Question](ctx, c.db, sql, map[string]any{
		"content_id": contentID,
		"user_id":    userID,
		"limit":      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("recent questions: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return []models.Question{}, nil
	}
	return (*results)[0].Result, nil
}

// QueryDeleteUserQuestions deletes one user's stored questions for a content.
// Returns the number of deleted records.
func (c *Client) QueryDeleteUserQuestions(ctx context.Context, contentID, userID string) (int, error) {
	sql := `DELETE question WHERE content_id = $content_id AND user_id = $user_id RETURN BEFORE`

	results, err := surrealdb.Query[[]models.Question](ctx, c.db, sql, map[string]any{
		"content_id": contentID,
		"user_id":    userID,
	})
	if err != nil {
		return 0, fmt.Errorf("delete user questions: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}

// QueryGetQuestion retrieves a stored question by ID. Returns ErrNotFound
// when it does not exist.
func (c *Client) QueryGetQuestion(ctx context.Context, id string) (*models.Question, error) {
	results, err := surrealdb.Query[[]models.Question](ctx, c.db, `
		SELECT * FROM type::record("question", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get question: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// QueryDeleteContentQuestions deletes all stored questions for a content.
// Returns the number of deleted records.
func (c *Client) QueryDeleteContentQuestions(ctx context.Context, contentID string) (int, error) {
	sql := `DELETE question WHERE content_id = $content_id RETURN BEFORE`

	results, err := surrealdb.Query[[]models.Question](ctx, c.db, sql, map[string]any{
		"content_id": contentID,
	})
	if err != nil {
		return 0, fmt.Errorf("delete content questions: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}
