// Package conversation keeps a bounded question/answer history per
// (content, user) pair for prompt context.
package conversation

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Turn is one answered question.
type Turn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Window holds the last maxHistory turns per conversation key. Cross-key
// growth is bounded by an LRU over conversations.
type Window struct {
	mu         sync.Mutex
	turns      *lru.Cache[string, []Turn]
	maxHistory int
}

// NewWindow creates a window keeping maxHistory turns for up to
// maxConversations concurrent (content, user) pairs.
func NewWindow(maxHistory, maxConversations int) (*Window, error) {
	if maxHistory <= 0 {
		maxHistory = 5
	}
	if maxConversations <= 0 {
		maxConversations = 1000
	}

	turns, err := lru.New[string, []Turn](maxConversations)
	if err != nil {
		return nil, fmt.Errorf("create conversation cache: %w", err)
	}

	return &Window{
		turns:      turns,
		maxHistory: maxHistory,
	}, nil
}

func conversationKey(contentID, userID string) string {
	return contentID + "\x00" + userID
}

// AddTurn appends a turn and truncates to the most recent maxHistory.
// Append-then-truncate is atomic per key.
func (w *Window) AddTurn(contentID, userID, question, answer string) {
	key := conversationKey(contentID, userID)

	w.mu.Lock()
	defer w.mu.Unlock()

	history, _ := w.turns.Get(key)
	history = append(history, Turn{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now(),
	})
	if len(history) > w.maxHistory {
		history = history[len(history)-w.maxHistory:]
	}
	w.turns.Add(key, history)
}

// Context renders the most recent turns as prompt context, oldest first.
// limit caps the turns; zero or negative means all retained turns.
func (w *Window) Context(contentID, userID string, limit int) string {
	turns := w.History(contentID, userID)
	if len(turns) == 0 {
		return ""
	}

	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	parts := make([]string, len(turns))
	for i, turn := range turns {
		parts[i] = fmt.Sprintf("Student: %s\nChemBot: %s", turn.Question, turn.Answer)
	}
	return strings.Join(parts, "\n\n")
}

// History returns a copy of the retained turns, oldest first.
func (w *Window) History(contentID, userID string) []Turn {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, ok := w.turns.Get(conversationKey(contentID, userID))
	if !ok {
		return nil
	}
	out := make([]Turn, len(history))
	copy(out, history)
	return out
}

// Clear removes the conversation entirely.
func (w *Window) Clear(contentID, userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns.Remove(conversationKey(contentID, userID))
	slog.Debug("cleared conversation", "content_id", contentID, "user_id", userID)
}

// Load hydrates a conversation from persisted turns, oldest first,
// replacing anything already held for the key. Truncation still applies.
func (w *Window) Load(contentID, userID string, turns []Turn) {
	if len(turns) > w.maxHistory {
		turns = turns[len(turns)-w.maxHistory:]
	}
	history := make([]Turn, len(turns))
	copy(history, turns)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns.Add(conversationKey(contentID, userID), history)
}

// Len returns the number of live conversations.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.turns.Len()
}
