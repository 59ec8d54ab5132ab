// Package models defines data structures persisted by ChemBot.
package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Question is an answered, stored user question.
type Question struct {
	ID             surrealmodels.RecordID `json:"id,omitempty"`
	Question       string                 `json:"question"`
	Answer         string                 `json:"answer"`
	ContentID      string                 `json:"content_id"`
	UserID         string                 `json:"user_id"`
	QuestionType   string                 `json:"question_type,omitempty"`
	Confidence     float64                `json:"confidence,omitempty"`
	ModelUsed      string                 `json:"model_used,omitempty"`
	TokensUsed     int                    `json:"tokens_used,omitempty"`
	ResponseTimeMS int64                  `json:"response_time_ms,omitempty"`
	Created        time.Time              `json:"created,omitempty"`
}

// QuestionInput is the write shape for creating a question record.
type QuestionInput struct {
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	ContentID      string  `json:"content_id"`
	UserID         string  `json:"user_id"`
	QuestionType   string  `json:"question_type"`
	Confidence     float64 `json:"confidence"`
	ModelUsed      string  `json:"model_used"`
	TokensUsed     int     `json:"tokens_used"`
	ResponseTimeMS int64   `json:"response_time_ms"`
}
