// Package engine orchestrates classification, caching, retrieval and
// generation into buffered and streamed answers.
package engine

import (
	"context"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/SurabhiV1999/ChemBot/internal/cache"
	"github.com/SurabhiV1999/ChemBot/internal/chunker"
	"github.com/SurabhiV1999/ChemBot/internal/classifier"
	"github.com/SurabhiV1999/ChemBot/internal/conversation"
	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/metrics"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
	"github.com/SurabhiV1999/ChemBot/internal/vectorstore"
)

// Match aliases a vector retrieval hit.
type Match = vectorstore.Match

// AskRequest is one question against one content.
type AskRequest struct {
	Question  string
	ContentID string
	UserID    string
	TopK      int
	UseCache  bool
}

// SourceChunk is one retrieval hit attached to an answer.
type SourceChunk struct {
	Text           string  `json:"text"`
	ChunkIndex     int     `json:"chunk_index"`
	RelevanceScore float64 `json:"relevance_score"`
	SectionTitle   string  `json:"section_title,omitempty"`
}

// Answer is the full response for one question.
type Answer struct {
	Answer          string             `json:"answer"`
	ConfidenceScore float64            `json:"confidence_score"`
	ResponseTimeMS  int64              `json:"response_time_ms"`
	ModelUsed       string             `json:"model_used,omitempty"`
	TokensUsed      int                `json:"tokens_used"`
	SourceChunks    []SourceChunk      `json:"source_chunks,omitempty"`
	Cached          bool               `json:"cached"`
	CacheKey        string             `json:"cache_key,omitempty"`
	QuestionID      string             `json:"question_id,omitempty"`
	Classification  *classifier.Result `json:"classification,omitempty"`
}

// IngestResult summarizes one document ingestion.
type IngestResult struct {
	ContentID  string        `json:"content_id"`
	ChunkCount int           `json:"chunks_count"`
	WordCount  int           `json:"word_count"`
	Strategy   string        `json:"chunking_strategy"`
	Duration   time.Duration `json:"-"`
}

// Progress is one ingestion milestone.
type Progress struct {
	Stage      string `json:"stage"`
	Percentage int    `json:"percentage"`
	Message    string `json:"message"`
}

// QuestionRecord is what gets persisted for a stored question.
type QuestionRecord struct {
	Question       string
	Answer         string
	ContentID      string
	UserID         string
	QuestionType   string
	Confidence     float64
	ModelUsed      string
	TokensUsed     int
	ResponseTimeMS int64
}

// AnalyticsEvent is emitted after answered questions and cache hits.
type AnalyticsEvent struct {
	Type       string
	UserID     string
	ContentID  string
	QuestionID string
	Metadata   map[string]any
}

// Generator is the completion surface the engine needs.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string, opts ...llms.CallOption) (*llm.Generation, error)
	GenerateWithSystemStream(ctx context.Context, systemPrompt, userPrompt string, onToken func(string) error, opts ...llms.CallOption) (*llm.Generation, error)
	Model() string
}

// Retriever is the vector retrieval surface the engine needs.
type Retriever interface {
	StoreChunks(ctx context.Context, chunks []chunker.Chunk, contentID string, progress func(done, total int)) (int, error)
	SearchSimilar(ctx context.Context, query, contentID string, topK int) ([]vectorstore.Match, error)
	DeleteContent(ctx context.Context, contentID string) error
}

// Persistence is the external question/analytics store. The engine works
// without one; a nil persistence only logs.
type Persistence interface {
	SaveQuestion(ctx context.Context, rec QuestionRecord) (string, error)
	SaveAnalyticsEvent(ctx context.Context, ev AnalyticsEvent) error
	LoadRecentTurns(ctx context.Context, contentID, userID string, limit int) ([]conversation.Turn, error)
}

// Stats aggregates runtime counters across the engine's services.
type Stats struct {
	Executor      ratelimit.Stats  `json:"rate_limiter"`
	Cache         cache.Stats      `json:"cache"`
	Operations    metrics.Snapshot `json:"operations"`
	Conversations int              `json:"conversations"`
}
