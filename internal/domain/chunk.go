package domain

import "fmt"

// Chunk represents one bounded slice of a document's extracted text, the unit
// of embedding and retrieval. ChunkIndex is a dense 0-based sequence per
// document in original-text order.
type Chunk struct {
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
}

// ChunkID returns the deterministic index key for a chunk.
func (c Chunk) ChunkID() string {
	return fmt.Sprintf("%s_%d", c.DocumentID, c.ChunkIndex)
}

// RetrievedChunk is a chunk returned from similarity search, ordered best
// match first by the index.
type RetrievedChunk struct {
	DocumentID string
	ChunkIndex int
	Content    string
}

// Citation is a retrieved chunk attached to an answer as evidence. It has no
// lifecycle of its own.
type Citation struct {
	Text       string `json:"text"`
	ChunkIndex int    `json:"chunk_index"`
}
