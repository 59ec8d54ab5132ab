package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/SurabhiV1999/ChemBot/internal/classifier"
	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/metrics"
	"github.com/SurabhiV1999/ChemBot/internal/prompts"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
)

const (
	// streamReplayPiece is the rune count per piece when replaying a
	// cached answer, with streamReplayDelay pacing between pieces.
	streamReplayPiece = 10
	streamReplayDelay = 10 * time.Millisecond

	// streamConfidence is the default confidence for streamed answers,
	// which skip per-chunk scoring of the final text.
	streamConfidence = 0.8
)

// AskStream answers one question, delivering text increments through
// onToken. Cache-store, window update and persistence run only after the
// stream completes normally; cancellation or an onToken error skips them.
func (e *Engine) AskStream(ctx context.Context, req AskRequest, onToken func(string) error) (*Answer, error) {
	start := time.Now()
	topK := e.topK(req.TopK)
	params := e.cacheParams(topK)

	// Cache hit: replay in small pieces to preserve streaming behavior
	// without re-invoking the model.
	if req.UseCache && e.cacheUsable() {
		var cached Answer
		hit, err := e.cache.Get(ctx, req.Question, req.ContentID, params, &cached)
		if err != nil {
			slog.Warn("cache lookup failed", "error", err)
		}
		if hit {
			if err := replay(ctx, cached.Answer, onToken); err != nil {
				return nil, err
			}
			cached.Cached = true
			// Replayed payloads carry the stream defaults even when the
			// entry was written by the buffered path.
			cached.ConfidenceScore = streamConfidence
			cached.TokensUsed = 0
			cached.ResponseTimeMS = time.Since(start).Milliseconds()
			e.trackAnalytics(ctx, req, "", true, cached.ResponseTimeMS, nil)
			return &cached, nil
		}
	}

	clsStart := time.Now()
	cls := e.classifier.Classify(ctx, req.Question)
	e.metrics.RecordTiming(metrics.OpClassify, time.Since(clsStart))
	if !cls.IsQuestion {
		return e.rejectStream(start, prompts.MsgNotAQuestion, cls, onToken)
	}
	if !cls.IsRelevant {
		return e.rejectStream(start, prompts.MsgOffTopic, cls, onToken)
	}

	retrieveStart := time.Now()
	matches, err := e.retriever.SearchSimilar(ctx, req.Question, req.ContentID, topK)
	e.metrics.RecordTiming(metrics.OpRetrieve, time.Since(retrieveStart))
	if err != nil {
		if ctxDone(err) {
			return nil, err
		}
		slog.Error("retrieval failed", "content_id", req.ContentID, "error", err)
		return e.rejectStream(start, prompts.MsgProcessingError, cls, onToken)
	}
	if len(matches) == 0 {
		return e.rejectStream(start, prompts.MsgNoContext, cls, onToken)
	}

	history := e.window.Context(req.ContentID, req.UserID, e.cfg.ContextTurns)
	systemPrompt, userPrompt := e.answerPrompts(req.Question, matches, history)

	genStart := time.Now()
	// Retry only while nothing has reached the consumer; a retry after
	// delivery began would replay the stream from the start.
	delivered := false
	generation, err := ratelimit.Do(ctx, e.exec, func(ctx context.Context) (*llm.Generation, error) {
		g, genErr := e.gen.GenerateWithSystemStream(ctx, systemPrompt, userPrompt, func(token string) error {
			delivered = true
			return onToken(token)
		})
		if genErr != nil && delivered {
			return nil, ratelimit.Permanent(genErr)
		}
		return g, genErr
	})
	if err != nil {
		if ctxDone(err) || ctx.Err() != nil {
			// Consumer went away mid-stream; skip finalization.
			return nil, err
		}
		slog.Error("streaming generation failed", "content_id", req.ContentID, "error", err)
		return e.rejectStream(start, prompts.MsgProcessingError, cls, onToken)
	}
	e.metrics.RecordModelUsage(metrics.OpStream, time.Since(genStart), int64(generation.TokensUsed))

	answer := &Answer{
		Answer:          generation.Text,
		ConfidenceScore: streamConfidence,
		ResponseTimeMS:  time.Since(start).Milliseconds(),
		ModelUsed:       e.gen.Model(),
		TokensUsed:      generation.TokensUsed,
		SourceChunks:    e.formatSources(matches),
		Classification:  &cls,
	}

	e.finalize(ctx, req, cls, answer, params)
	return answer, nil
}

// rejectStream delivers a canned message as a single increment.
func (e *Engine) rejectStream(start time.Time, msgName string, cls classifier.Result, onToken func(string) error) (*Answer, error) {
	msg := e.prompts.ErrorMessage(msgName)
	if err := onToken(msg); err != nil {
		return nil, err
	}
	return &Answer{
		Answer:         msg,
		ResponseTimeMS: time.Since(start).Milliseconds(),
		Classification: &cls,
	}, nil
}

// replay streams an already generated answer in fixed-size pieces.
func replay(ctx context.Context, text string, onToken func(string) error) error {
	runes := []rune(text)
	for i := 0; i < len(runes); i += streamReplayPiece {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+streamReplayPiece, len(runes))
		if err := onToken(string(runes[i:end])); err != nil {
			return err
		}
		time.Sleep(streamReplayDelay)
	}
	return nil
}
