package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// AnalyticsEvent records one usage event, such as an answered question.
type AnalyticsEvent struct {
	ID         surrealmodels.RecordID `json:"id,omitempty"`
	Type       string                 `json:"type"`
	UserID     string                 `json:"user_id,omitempty"`
	ContentID  string                 `json:"content_id,omitempty"`
	QuestionID *string                `json:"question_id,omitempty"`
	Metadata   map[string]any         `json:"metadata,omitempty"`
	Created    time.Time              `json:"created,omitempty"`
}
