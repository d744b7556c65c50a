package rag

// Chunk is a persisted document chunk handed to the ranker.
type Chunk struct {
	// ID is the stable chunk identifier (empty for chunks that were never stored).
	ID string
	// Content is the chunk text.
	Content string
	// ChunkIndex is the chunk index within the document.
	ChunkIndex int
	// PageNumber is the page the chunk came from (always 0).
	PageNumber int
}

// ScoredChunk is a chunk with its lexical relevance score for one query.
// It only lives for the duration of a ranking call.
type ScoredChunk struct {
	Chunk
	// Score is the normalized, position-adjusted score used for ordering.
	Score float64
	// RawScore is the weighted match count before normalization.
	RawScore float64
	// MatchedWords is the number of query terms found in the chunk.
	MatchedWords int
}

// RankedChunk is the plain projection of a chunk returned by the ranker.
type RankedChunk struct {
	ID         string `json:"id,omitempty"`
	Content    string `json:"content"`
	ChunkIndex int    `json:"chunk_index"`
	PageNumber int    `json:"page_number"`
}

// GeneratedCard is a flashcard parsed from LLM output.
type GeneratedCard struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// GeneratedQuestion is a multiple-choice question parsed from LLM output.
type GeneratedQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty"`
}

// Answer is a chat answer grounded in the ranked chunks.
type Answer struct {
	Text   string
	Chunks []RankedChunk
}

// Explanation is a concept explanation together with the context it was built from.
type Explanation struct {
	Text    string
	Context string
	Chunks  []RankedChunk
}

// ChunkIndexes returns the chunk indexes of the ranked chunks in rank order.
func ChunkIndexes(chunks []RankedChunk) []int {
	indexes := make([]int, len(chunks))
	for i, c := range chunks {
		indexes[i] = c.ChunkIndex
	}
	return indexes
}
