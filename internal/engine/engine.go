package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/SurabhiV1999/ChemBot/internal/cache"
	"github.com/SurabhiV1999/ChemBot/internal/classifier"
	"github.com/SurabhiV1999/ChemBot/internal/config"
	"github.com/SurabhiV1999/ChemBot/internal/conversation"
	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/metrics"
	"github.com/SurabhiV1999/ChemBot/internal/prompts"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
)

// sourceTextLimit truncates source chunk text in responses.
const sourceTextLimit = 500

// Engine sequences cache check, classification, retrieval, generation,
// cache store and window update for every question.
type Engine struct {
	gen         Generator
	retriever   Retriever
	cache       cache.Cache
	window      *conversation.Window
	classifier  *classifier.Classifier
	prompts     *prompts.Library
	exec        *ratelimit.Executor
	persistence Persistence
	metrics     *metrics.Collector
	cfg         config.Config
}

// Deps bundles the collaborators an engine needs. Cache and Persistence
// may be nil.
type Deps struct {
	Generator   Generator
	Retriever   Retriever
	Cache       cache.Cache
	Window      *conversation.Window
	Classifier  *classifier.Classifier
	Prompts     *prompts.Library
	Executor    *ratelimit.Executor
	Persistence Persistence
	Config      config.Config
}

// New creates the orchestrator.
func New(deps Deps) *Engine {
	return &Engine{
		gen:         deps.Generator,
		retriever:   deps.Retriever,
		cache:       deps.Cache,
		window:      deps.Window,
		classifier:  deps.Classifier,
		prompts:     deps.Prompts,
		exec:        deps.Executor,
		persistence: deps.Persistence,
		metrics:     metrics.NewCollector(),
		cfg:         deps.Config,
	}
}

// Ask answers one question. Rejections, empty retrieval and generation
// failures all resolve to canned answers, never raw provider errors.
func (e *Engine) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	start := time.Now()
	topK := e.topK(req.TopK)
	params := e.cacheParams(topK)

	slog.Info("processing question", "content_id", req.ContentID, "user_id", req.UserID, "question_len", len(req.Question))

	// Cache check: a hit skips classification entirely.
	if req.UseCache && e.cacheUsable() {
		var cached Answer
		hit, err := e.cache.Get(ctx, req.Question, req.ContentID, params, &cached)
		if err != nil {
			slog.Warn("cache lookup failed", "error", err)
		}
		if hit {
			cached.Cached = true
			cached.ResponseTimeMS = time.Since(start).Milliseconds()
			slog.Info("cache hit", "content_id", req.ContentID, "response_time_ms", cached.ResponseTimeMS)
			e.trackAnalytics(ctx, req, "", true, cached.ResponseTimeMS, nil)
			return &cached, nil
		}
	}

	// Classification gate.
	clsStart := time.Now()
	cls := e.classifier.Classify(ctx, req.Question)
	e.metrics.RecordTiming(metrics.OpClassify, time.Since(clsStart))
	if !cls.IsQuestion {
		return &Answer{
			Answer:         e.prompts.ErrorMessage(prompts.MsgNotAQuestion),
			ResponseTimeMS: time.Since(start).Milliseconds(),
			Classification: &cls,
		}, nil
	}
	if !cls.IsRelevant {
		return &Answer{
			Answer:         e.prompts.ErrorMessage(prompts.MsgOffTopic),
			ResponseTimeMS: time.Since(start).Milliseconds(),
			Classification: &cls,
		}, nil
	}

	// Retrieval.
	retrieveStart := time.Now()
	matches, err := e.retriever.SearchSimilar(ctx, req.Question, req.ContentID, topK)
	e.metrics.RecordTiming(metrics.OpRetrieve, time.Since(retrieveStart))
	if err != nil {
		if ctxDone(err) {
			return nil, err
		}
		slog.Error("retrieval failed", "content_id", req.ContentID, "error", err)
		return e.processingErrorAnswer(start, &cls), nil
	}
	if len(matches) == 0 {
		slog.Info("no relevant context found", "content_id", req.ContentID)
		return &Answer{
			Answer:         e.prompts.ErrorMessage(prompts.MsgNoContext),
			ResponseTimeMS: time.Since(start).Milliseconds(),
			Classification: &cls,
		}, nil
	}

	// Generation.
	history := e.window.Context(req.ContentID, req.UserID, e.cfg.ContextTurns)
	systemPrompt, userPrompt := e.answerPrompts(req.Question, matches, history)

	genStart := time.Now()
	generation, err := ratelimit.Do(ctx, e.exec, func(ctx context.Context) (*llm.Generation, error) {
		return e.gen.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		if ctxDone(err) {
			return nil, err
		}
		slog.Error("generation failed after retries", "content_id", req.ContentID, "error", err)
		return e.processingErrorAnswer(start, &cls), nil
	}
	e.metrics.RecordModelUsage(metrics.OpGenerate, time.Since(genStart), int64(generation.TokensUsed))

	answer := &Answer{
		Answer:          generation.Text,
		ConfidenceScore: confidence(matches),
		ResponseTimeMS:  time.Since(start).Milliseconds(),
		ModelUsed:       e.gen.Model(),
		TokensUsed:      generation.TokensUsed,
		SourceChunks:    e.formatSources(matches),
		Classification:  &cls,
	}

	e.finalize(ctx, req, cls, answer, params)
	return answer, nil
}

// finalize runs cache-store, persistence, window update and analytics
// after a true generation path.
func (e *Engine) finalize(ctx context.Context, req AskRequest, cls classifier.Result, answer *Answer, params map[string]any) {
	if req.UseCache && e.cacheUsable() {
		stored := *answer
		stored.Cached = true
		stored.CacheKey = cache.Key(req.Question, req.ContentID, params)
		if err := e.cache.Put(ctx, req.Question, req.ContentID, params, &stored); err != nil {
			slog.Warn("cache store failed", "error", err)
		}
	}

	if e.persistence != nil && e.classifier.ShouldStore(cls) {
		id, err := e.persistence.SaveQuestion(ctx, QuestionRecord{
			Question:       req.Question,
			Answer:         answer.Answer,
			ContentID:      req.ContentID,
			UserID:         req.UserID,
			QuestionType:   cls.QuestionType,
			Confidence:     cls.Confidence,
			ModelUsed:      answer.ModelUsed,
			TokensUsed:     answer.TokensUsed,
			ResponseTimeMS: answer.ResponseTimeMS,
		})
		if err != nil {
			slog.Warn("question persistence failed", "error", err)
		} else {
			answer.QuestionID = id
		}
	}

	e.window.AddTurn(req.ContentID, req.UserID, req.Question, answer.Answer)
	e.trackAnalytics(ctx, req, answer.QuestionID, false, answer.ResponseTimeMS, &cls)
}

// Invalidate removes a content's vectors and cached answers.
func (e *Engine) Invalidate(ctx context.Context, contentID string) error {
	if err := e.retriever.DeleteContent(ctx, contentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if e.cache != nil {
		if _, err := e.cache.InvalidateNamespace(ctx, contentID); err != nil {
			slog.Warn("cache invalidation failed", "content_id", contentID, "error", err)
		}
	}
	slog.Info("invalidated content", "content_id", contentID)
	return nil
}

// ClearConversation drops the history for one (content, user) pair.
func (e *Engine) ClearConversation(contentID, userID string) {
	e.window.Clear(contentID, userID)
}

// LoadConversation hydrates the window from persisted turns.
func (e *Engine) LoadConversation(ctx context.Context, contentID, userID string) error {
	if e.persistence == nil {
		return nil
	}
	turns, err := e.persistence.LoadRecentTurns(ctx, contentID, userID, e.cfg.MaxHistory)
	if err != nil {
		return fmt.Errorf("load recent turns: %w", err)
	}
	e.window.Load(contentID, userID, turns)
	slog.Info("loaded conversation", "content_id", contentID, "user_id", userID, "turns", len(turns))
	return nil
}

// Stats snapshots runtime counters.
func (e *Engine) Stats() Stats {
	s := Stats{
		Executor:      e.exec.Stats(),
		Operations:    e.metrics.Snapshot(),
		Conversations: e.window.Len(),
	}
	if e.cache != nil {
		s.Cache = e.cache.Stats()
	}
	return s
}

func (e *Engine) topK(requested int) int {
	if requested > 0 {
		return requested
	}
	if e.cfg.TopK > 0 {
		return e.cfg.TopK
	}
	return 5
}

func (e *Engine) cacheParams(topK int) map[string]any {
	return map[string]any{
		"top_k": topK,
		"model": e.gen.Model(),
	}
}

func (e *Engine) cacheUsable() bool {
	return e.cache != nil && e.cache.Enabled()
}

func (e *Engine) processingErrorAnswer(start time.Time, cls *classifier.Result) *Answer {
	return &Answer{
		Answer:         e.prompts.ErrorMessage(prompts.MsgProcessingError),
		ResponseTimeMS: time.Since(start).Milliseconds(),
		Classification: cls,
	}
}

func (e *Engine) answerPrompts(question string, matches []Match, history string) (string, string) {
	systemPrompt := e.prompts.Render(prompts.AnswerSystem, nil)
	userPrompt := e.prompts.Render(prompts.AnswerUser, map[string]string{
		"context":  prepareContext(matches),
		"history":  history,
		"question": question,
	})
	return systemPrompt, userPrompt
}

// prepareContext labels retrieved chunks for the prompt.
func prepareContext(matches []Match) string {
	parts := make([]string, len(matches))
	for i, match := range matches {
		parts[i] = fmt.Sprintf("[Context %d - Chunk %v]\n%s\n", i+1, metaValue(match.Metadata, "chunk_index"), metaString(match.Metadata, "text"))
	}
	return strings.Join(parts, "\n")
}

// confidence is the mean of the top-3 match scores, clamped to [0,1].
func confidence(matches []Match) float64 {
	if len(matches) == 0 {
		return 0
	}
	n := min(len(matches), 3)
	sum := 0.0
	for _, match := range matches[:n] {
		sum += float64(match.Score)
	}
	avg := sum / float64(n)
	return math.Round(math.Min(math.Max(avg, 0), 1)*100) / 100
}

func (e *Engine) formatSources(matches []Match) []SourceChunk {
	sources := make([]SourceChunk, len(matches))
	for i, match := range matches {
		text := metaString(match.Metadata, "text")
		if len(text) > sourceTextLimit {
			text = text[:sourceTextLimit] + "..."
		}
		sources[i] = SourceChunk{
			Text:           text,
			ChunkIndex:     metaInt(match.Metadata, "chunk_index"),
			RelevanceScore: math.Round(float64(match.Score)*1000) / 1000,
			SectionTitle:   metaString(match.Metadata, "section_title"),
		}
	}
	return sources
}

func (e *Engine) trackAnalytics(ctx context.Context, req AskRequest, questionID string, cached bool, responseTimeMS int64, cls *classifier.Result) {
	if e.persistence == nil {
		return
	}

	metadata := map[string]any{
		"cached":           cached,
		"response_time_ms": responseTimeMS,
	}
	if cls != nil {
		metadata["question_type"] = cls.QuestionType
		metadata["confidence"] = cls.Confidence
	} else if cached {
		metadata["question_type"] = "cached"
	}

	err := e.persistence.SaveAnalyticsEvent(ctx, AnalyticsEvent{
		Type:       "question_answered",
		UserID:     req.UserID,
		ContentID:  req.ContentID,
		QuestionID: questionID,
		Metadata:   metadata,
	})
	if err != nil {
		slog.Warn("analytics tracking failed", "error", err)
	}
}

func ctxDone(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func metaValue(meta map[string]any, key string) any {
	if meta == nil {
		return "?"
	}
	if v, ok := meta[key]; ok {
		return v
	}
	return "?"
}

func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func metaInt(meta map[string]any, key string) int {
	switch n := meta[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
