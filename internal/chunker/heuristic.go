package chunker

import (
	"context"
	"strings"
	"unicode"
)

// heuristicChunker accumulates paragraphs up to the target size, seeding each
// new chunk with a trailing overlap window from the previous one.
type heuristicChunker struct {
	cfg Config
}

func (c *heuristicChunker) Chunk(_ context.Context, text string, metadata map[string]any) ([]Chunk, error) {
	return renumber(c.chunk(text, metadata)), nil
}

func (c *heuristicChunker) chunk(text string, metadata map[string]any) []Chunk {
	paragraphs := splitParagraphs(text)

	var chunks []Chunk
	var current []string
	currentWords := 0

	emit := func() {
		if len(current) == 0 {
			return
		}
		body := strings.Join(current, "\n\n")
		meta := copyMeta(metadata)
		meta["chunking_strategy"] = "heuristic"
		meta["paragraph_count"] = len(current)
		chunks = append(chunks, Chunk{
			Text:      body,
			Metadata:  meta,
			WordCount: wordCount(body),
			Method:    "heuristic",
		})
	}

	for _, para := range paragraphs {
		words := wordCount(para)

		// A paragraph too large for any chunk is split at sentence level.
		if words > c.cfg.ChunkSize {
			emit()
			current = nil
			currentWords = 0
			chunks = append(chunks, c.chunkBySentences(para, metadata)...)
			continue
		}

		if currentWords+words > c.cfg.ChunkSize && len(current) > 0 {
			emit()
			current = tailWithin(current, c.cfg.Overlap)
			currentWords = totalWords(current)
		}

		current = append(current, para)
		currentWords += words
	}

	emit()
	return chunks
}

// chunkBySentences applies the same accumulate/overlap logic at sentence
// granularity for paragraphs that exceed the chunk size on their own.
func (c *heuristicChunker) chunkBySentences(paragraph string, metadata map[string]any) []Chunk {
	sentences := splitSentences(paragraph)

	var chunks []Chunk
	var current []string
	currentWords := 0

	emit := func() {
		if len(current) == 0 {
			return
		}
		body := strings.Join(current, " ")
		meta := copyMeta(metadata)
		meta["chunking_strategy"] = "heuristic"
		meta["sentence_count"] = len(current)
		chunks = append(chunks, Chunk{
			Text:      body,
			Metadata:  meta,
			WordCount: wordCount(body),
			Method:    "heuristic",
		})
	}

	for _, sentence := range sentences {
		words := wordCount(sentence)

		if currentWords+words > c.cfg.ChunkSize && len(current) > 0 {
			emit()
			current = tailWithin(current, c.cfg.Overlap)
			currentWords = totalWords(current)
		}

		current = append(current, sentence)
		currentWords += words
	}

	emit()
	return chunks
}

// tailWithin returns the trailing parts whose total word count fits the
// overlap budget, preserving order.
func tailWithin(parts []string, overlap int) []string {
	if overlap <= 0 {
		return nil
	}

	words := 0
	start := len(parts)
	for i := len(parts) - 1; i >= 0; i-- {
		w := wordCount(parts[i])
		if words+w > overlap {
			break
		}
		words += w
		start = i
	}

	if start == len(parts) {
		return nil
	}
	tail := make([]string, len(parts)-start)
	copy(tail, parts[start:])
	return tail
}

func totalWords(parts []string) int {
	total := 0
	for _, p := range parts {
		total += wordCount(p)
	}
	return total
}

// splitParagraphs splits on blank lines and drops empty entries.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences splits text at sentence-ending punctuation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			// Only break before whitespace or end of text
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Skip likely abbreviations like "Dr."
				if i > 1 && unicode.IsUpper(runes[i-1]) {
					continue
				}
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
