package indexer

// Chunk represents one retrievable segment of document text.
type Chunk struct {
	Content    string // Chunk text content, never empty
	ChunkIndex int    // Index within document (starts at 0)
	PageNumber int    // Always 0, extracted text carries no page boundaries
}
