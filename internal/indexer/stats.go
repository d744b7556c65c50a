package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ChunkerVersion is the version identifier for the chunker implementation.
// Update this when chunking logic changes significantly.
const ChunkerVersion = "v2.0"

// ChunkStats contains statistics about the chunks of one document.
type ChunkStats struct {
	// Chunks is the number of chunks.
	Chunks int `json:"chunks"`
	// TotalWords is the number of words across all chunks, overlap included.
	TotalWords int `json:"total_words"`
	// Words contains per-chunk word count statistics.
	Words WordStats `json:"words"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion identifies the chunker version and sizing that produced the chunks.
	IndexVersion string `json:"index_version"`
}

// WordStats contains statistics about word counts in chunks.
type WordStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// ComputeChunkStats computes word statistics for the given chunk contents.
func ComputeChunkStats(contents []string, cfg ChunkerConfig) ChunkStats {
	counts := make([]int, len(contents))
	total := 0
	for i, content := range contents {
		counts[i] = len(strings.Fields(content))
		total += counts[i]
	}

	return ChunkStats{
		Chunks:         len(contents),
		TotalWords:     total,
		Words:          computeWordStats(counts),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   IndexVersion(cfg),
	}
}

// IndexVersion returns a short hash of the chunker version and sizing.
func IndexVersion(cfg ChunkerConfig) string {
	input := fmt.Sprintf("%s|chunkSize=%d|overlap=%d", ChunkerVersion, cfg.ChunkSize, cfg.Overlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeWordStats computes min, max, mean, and p95 from word counts.
func computeWordStats(counts []int) WordStats {
	if len(counts) == 0 {
		return WordStats{}
	}

	sorted := make([]int, len(counts))
	copy(sorted, counts)
	sort.Ints(sorted)

	sum := 0
	for _, c := range counts {
		sum += c
	}
	mean := float64(sum) / float64(len(counts))

	p95Index := int(math.Ceil(float64(len(sorted)) * 0.95))
	if p95Index >= len(sorted) {
		p95Index = len(sorted) - 1
	}

	return WordStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100, // Round to 2 decimal places
		P95:  sorted[p95Index],
	}
}
