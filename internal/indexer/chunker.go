package indexer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultChunkSize is the target maximum number of words per chunk.
	DefaultChunkSize = 500
	// DefaultOverlap is the number of trailing words carried into the next chunk.
	DefaultOverlap = 50
)

// ErrInvalidConfig is returned when chunker settings cannot guarantee forward progress.
var ErrInvalidConfig = errors.New("invalid chunker config")

var (
	// Every rune unicode.IsSpace accepts, except the line feed.
	horizontalSpace  = regexp.MustCompile(`[\t\v\f\r\x{85}\x{2028}\x{2029}\p{Zs}]+`)
	spaceAroundBreak = regexp.MustCompile(` ?\n ?`)
	paragraphBreak   = regexp.MustCompile(`\n+`)
)

// ChunkerConfig holds the word-based sizing for the chunker.
type ChunkerConfig struct {
	ChunkSize int // Target maximum words per chunk
	Overlap   int // Words copied from the end of one chunk into the next
}

// DefaultChunkerConfig returns the default chunk size and overlap.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		ChunkSize: DefaultChunkSize,
		Overlap:   DefaultOverlap,
	}
}

// Validate checks that the sliding window always advances.
func (c ChunkerConfig) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be greater than 0, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("%w: overlap must not be negative, got %d", ErrInvalidConfig, c.Overlap)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap (%d) must be smaller than chunk size (%d)", ErrInvalidConfig, c.Overlap, c.ChunkSize)
	}
	return nil
}

// Chunker splits extracted document text into overlapping, word-bounded chunks.
// It holds no mutable state and is safe for concurrent use.
type Chunker struct {
	cfg ChunkerConfig
}

// NewChunker creates a chunker after validating its configuration.
func NewChunker(cfg ChunkerConfig) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Config returns the chunker configuration.
func (c *Chunker) Config() ChunkerConfig {
	return c.cfg
}

// Chunk splits text into chunks of at most ChunkSize words, keeping paragraphs
// together where possible. Empty or whitespace-only text yields no chunks.
func (c *Chunker) Chunk(text string) []Chunk {
	cleaned := normalizeText(text)
	if cleaned == "" {
		return []Chunk{}
	}

	b := &chunkBuilder{}
	var current []string
	currentWords := 0

	for _, para := range splitParagraphs(cleaned) {
		paraWords := strings.Fields(para)
		paraCount := len(paraWords)

		// Oversized paragraph: flush, then split it into word windows
		if paraCount > c.cfg.ChunkSize {
			if len(current) > 0 {
				b.add(strings.Join(current, "\n\n"))
				current = nil
				currentWords = 0
			}
			for _, window := range c.windows(paraWords) {
				b.add(window)
			}
			continue
		}

		if currentWords+paraCount > c.cfg.ChunkSize && len(current) > 0 {
			b.add(strings.Join(current, "\n\n"))

			overlapWords := tailWords(strings.Fields(strings.Join(current, " ")), c.cfg.Overlap)
			current = nil
			if len(overlapWords) > 0 {
				current = append(current, strings.Join(overlapWords, " "))
			}
			current = append(current, para)
			currentWords = len(overlapWords) + paraCount
			continue
		}

		current = append(current, para)
		currentWords += paraCount
	}

	if len(current) > 0 {
		b.add(strings.Join(current, "\n\n"))
	}

	// Nothing flushed for non-empty text: fall back to a flat word split
	if len(b.chunks) == 0 {
		for _, window := range c.windows(strings.Fields(cleaned)) {
			b.add(window)
		}
	}

	return b.chunks
}

// windows splits words into windows of ChunkSize words advancing by
// ChunkSize-Overlap words. The last window may be shorter.
func (c *Chunker) windows(words []string) []string {
	size := c.cfg.ChunkSize
	if size < 1 {
		size = 1
	}
	step := size - c.cfg.Overlap
	if step < 1 {
		step = 1
	}

	var out []string
	for i := 0; i < len(words); i += step {
		end := min(i+size, len(words))
		out = append(out, strings.Join(words[i:end], " "))
		if i+size >= len(words) {
			break
		}
	}
	return out
}

// chunkBuilder assigns sequential indexes to emitted chunks.
type chunkBuilder struct {
	chunks []Chunk
}

func (b *chunkBuilder) add(content string) {
	if content == "" {
		return
	}
	b.chunks = append(b.chunks, Chunk{
		Content:    content,
		ChunkIndex: len(b.chunks),
		PageNumber: 0,
	})
}

// normalizeText unifies line endings, collapses horizontal whitespace and
// strips spaces adjacent to line breaks.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spaceAroundBreak.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}

// splitParagraphs splits normalized text on runs of line breaks.
func splitParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// tailWords returns the last n words, or all of them when fewer exist.
func tailWords(words []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(words) {
		n = len(words)
	}
	return words[len(words)-n:]
}
