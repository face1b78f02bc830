package service

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkChars is the chunk size budget used for report ingestion.
const DefaultMaxChunkChars = 1000

// ChunkText splits extracted text into bounded, order-preserving segments for
// embedding. Words are greedily packed into chunks of at most maxChars
// characters, counting one separator per word; a single word longer than
// maxChars is never split and becomes its own oversized chunk. Boundaries may
// fall mid-sentence. Deterministic: same text and limit, same chunks.
func ChunkText(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(text)/maxChars+1)
	current := make([]string, 0, 64)
	currentSize := 0

	for _, word := range words {
		// Characters, not bytes: multibyte words must not flush early.
		wordSize := utf8.RuneCountInString(word) + 1 // +1 for the joining space
		if currentSize+wordSize > maxChars && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentSize = 0
		}
		current = append(current, word)
		currentSize += wordSize
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
