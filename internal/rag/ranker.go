package rag

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxChunks is the number of chunks returned when no limit is given.
	DefaultMaxChunks = 3

	minQueryTermLength = 3
	exactMatchWeight   = 3.0
	partialMatchWeight = 1.5
	multiTermBonus     = 2.0
	positionDecay      = 0.1
)

// ErrInvalidConfig is returned for ranker settings that cannot produce results.
var ErrInvalidConfig = errors.New("invalid ranker config")

// RankerConfig holds ranker settings.
type RankerConfig struct {
	// MaxChunks is the default number of chunks returned per query.
	MaxChunks int
	// StopWords are excluded from query terms. Nil means the built-in English set.
	StopWords StopWords
}

// DefaultRankerConfig returns the default ranker settings.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{
		MaxChunks: DefaultMaxChunks,
		StopWords: DefaultStopWords(),
	}
}

// Ranker selects the chunks of a document most relevant to a free-text query
// using lexical scoring only. It is immutable and safe for concurrent use.
type Ranker struct {
	maxChunks int
	stopWords StopWords
}

// NewRanker creates a ranker after validating its configuration.
func NewRanker(cfg RankerConfig) (*Ranker, error) {
	if cfg.MaxChunks <= 0 {
		return nil, fmt.Errorf("%w: max chunks must be greater than 0, got %d", ErrInvalidConfig, cfg.MaxChunks)
	}
	stopWords := cfg.StopWords
	if stopWords == nil {
		stopWords = DefaultStopWords()
	}
	return &Ranker{
		maxChunks: cfg.MaxChunks,
		stopWords: stopWords,
	}, nil
}

// MaxChunks returns the default result size.
func (r *Ranker) MaxChunks() int {
	return r.maxChunks
}

// QueryTerms lower-cases and splits the query on whitespace, dropping short
// tokens and stop words. Each distinct term appears once, in first-seen order.
func (r *Ranker) QueryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < minQueryTermLength {
			continue
		}
		if r.stopWords.Contains(f) {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// FindRelevantChunks returns up to maxChunks chunks ranked best-first.
// maxChunks <= 0 selects the configured default. When the query has no usable
// terms the leading chunks are returned unscored in their original order.
func (r *Ranker) FindRelevantChunks(chunks []Chunk, query string, maxChunks int) []RankedChunk {
	if maxChunks <= 0 {
		maxChunks = r.maxChunks
	}
	if len(chunks) == 0 {
		return []RankedChunk{}
	}

	terms := r.QueryTerms(query)
	if len(terms) == 0 {
		n := min(maxChunks, len(chunks))
		out := make([]RankedChunk, n)
		for i := 0; i < n; i++ {
			out[i] = project(chunks[i])
		}
		return out
	}

	scored := scoreChunks(chunks, terms)
	n := min(maxChunks, len(scored))
	out := make([]RankedChunk, n)
	for i := 0; i < n; i++ {
		out[i] = project(scored[i].Chunk)
	}
	return out
}

// Score returns every chunk with a positive score for the query, best-first.
func (r *Ranker) Score(chunks []Chunk, query string) []ScoredChunk {
	terms := r.QueryTerms(query)
	if len(chunks) == 0 || len(terms) == 0 {
		return []ScoredChunk{}
	}
	return scoreChunks(chunks, terms)
}

// scoreChunks scores, filters and sorts chunks against non-empty terms.
func scoreChunks(chunks []Chunk, terms []string) []ScoredChunk {
	total := float64(len(chunks))
	scored := make([]ScoredChunk, 0, len(chunks))

	for position, chunk := range chunks {
		content := strings.ToLower(chunk.Content)
		wordCount := max(len(strings.Fields(content)), 1)
		freq := wordFrequencies(content)

		var raw float64
		matched := 0
		for _, term := range terms {
			exact := countWholeWord(content, term, freq)
			partial := strings.Count(content, term)
			raw += float64(exact) * exactMatchWeight
			raw += float64(max(0, partial-exact)) * partialMatchWeight
			if partial > 0 {
				matched++
			}
		}
		if matched > 1 {
			raw += float64(matched) * multiTermBonus
		}

		score := raw / math.Sqrt(float64(wordCount))
		score *= 1 - (float64(position)/total)*positionDecay
		if score <= 0 {
			continue
		}

		scored = append(scored, ScoredChunk{
			Chunk:        chunk,
			Score:        score,
			RawScore:     raw,
			MatchedWords: matched,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.MatchedWords != b.MatchedWords {
			return a.MatchedWords > b.MatchedWords
		}
		return a.ChunkIndex < b.ChunkIndex
	})

	return scored
}

func project(c Chunk) RankedChunk {
	return RankedChunk{
		ID:         c.ID,
		Content:    c.Content,
		ChunkIndex: c.ChunkIndex,
		PageNumber: c.PageNumber,
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordFrequencies counts maximal runs of word characters.
func wordFrequencies(content string) map[string]int {
	freq := make(map[string]int)
	for _, w := range strings.FieldsFunc(content, func(r rune) bool { return !isWordRune(r) }) {
		freq[w]++
	}
	return freq
}

// countWholeWord counts occurrences of term bounded by word boundaries on
// both sides. Terms made only of word characters are answered from freq;
// others are scanned literally.
func countWholeWord(content, term string, freq map[string]int) int {
	if term == "" {
		return 0
	}
	if strings.IndexFunc(term, func(r rune) bool { return !isWordRune(r) }) < 0 {
		return freq[term]
	}

	count := 0
	for offset := 0; offset <= len(content)-len(term); {
		i := strings.Index(content[offset:], term)
		if i < 0 {
			break
		}
		start := offset + i
		end := start + len(term)
		if atBoundary(content, start) && atBoundary(content, end) {
			count++
			offset = end
			continue
		}
		_, size := utf8.DecodeRuneInString(content[start:])
		offset = start + size
	}
	return count
}

// atBoundary reports whether a word boundary lies at byte offset i.
func atBoundary(s string, i int) bool {
	before, after := false, false
	if i > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:i])
		before = isWordRune(r)
	}
	if i < len(s) {
		r, _ := utf8.DecodeRuneInString(s[i:])
		after = isWordRune(r)
	}
	return before != after
}
