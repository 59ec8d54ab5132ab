package chunker

import (
	"context"
	"regexp"
	"strings"
)

var headerRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// semanticChunker splits on markdown headers, keeping small sections whole
// and delegating oversized sections to the heuristic strategy.
type semanticChunker struct {
	cfg Config
}

type section struct {
	title string
	level int
	text  string
}

func (c *semanticChunker) Chunk(_ context.Context, text string, metadata map[string]any) ([]Chunk, error) {
	return renumber(c.chunk(text, metadata)), nil
}

func (c *semanticChunker) chunk(text string, metadata map[string]any) []Chunk {
	sections := parseSections(text)
	heuristic := &heuristicChunker{cfg: c.cfg}

	var chunks []Chunk
	for _, sec := range sections {
		if wordCount(sec.text) <= c.cfg.ChunkSize {
			meta := copyMeta(metadata)
			meta["chunking_strategy"] = "semantic"
			meta["section_title"] = sec.title
			meta["section_level"] = sec.level
			meta["is_complete_section"] = true
			chunks = append(chunks, Chunk{
				Text:      sec.text,
				Metadata:  meta,
				WordCount: wordCount(sec.text),
				Method:    "semantic",
			})
			continue
		}

		// Oversized section: heuristic sub-chunks keep the section context.
		for _, sub := range heuristic.chunk(sec.text, metadata) {
			sub.Metadata["chunking_strategy"] = "semantic_hybrid"
			sub.Metadata["section_title"] = sec.title
			sub.Metadata["section_level"] = sec.level
			sub.Metadata["is_complete_section"] = false
			sub.Metadata["parent_section"] = sec.title
			sub.Method = "semantic_hybrid"
			chunks = append(chunks, sub)
		}
	}

	return chunks
}

// parseSections splits markdown into header-delimited sections. Content
// before the first header becomes an "Introduction" section. Each section
// keeps its header line.
func parseSections(text string) []section {
	lines := strings.Split(text, "\n")

	var sections []section
	current := section{title: "Introduction", level: 1}
	var buf []string

	flush := func() {
		body := strings.TrimSpace(strings.Join(buf, "\n"))
		if body != "" {
			current.text = body
			sections = append(sections, current)
		}
		buf = nil
	}

	for _, line := range lines {
		if m := headerRe.FindStringSubmatch(line); m != nil {
			flush()
			current = section{title: strings.TrimSpace(m[2]), level: len(m[1])}
		}
		buf = append(buf, line)
	}
	flush()

	return sections
}
