package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_OversizedWordStandsAlone(t *testing.T) {
	chunks := ChunkText("a bb ccc dddddddddd", 10)

	assert.Equal(t, []string{"a bb ccc", "dddddddddd"}, chunks)
}

func TestChunkText_EmptyInput(t *testing.T) {
	assert.Nil(t, ChunkText("", 1000))
	assert.Nil(t, ChunkText("   \n\t  ", 1000))
}

func TestChunkText_PreservesWordSequence(t *testing.T) {
	inputs := []string{
		"the quick brown fox jumps over the lazy dog",
		"Scope 1 emissions fell 12%   across  all\nfacilities in 2023",
		strings.Repeat("sustainability reporting framework alignment ", 200),
	}

	for _, input := range inputs {
		chunks := ChunkText(input, 50)

		rejoined := strings.Join(chunks, " ")
		assert.Equal(t, strings.Fields(input), strings.Fields(rejoined),
			"no word may be lost, duplicated, or reordered")
	}
}

func TestChunkText_CountsCharactersNotBytes(t *testing.T) {
	// Nine characters but 17 bytes; a byte count would flush early.
	chunks := ChunkText("éééé éééé", 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "éééé éééé", chunks[0])

	// Boundaries for multibyte text must match the ASCII ones:
	// "ΑΑ ΒΒ ΓΓ" packs like "aa bb cc" under the same limit.
	assert.Equal(t, []string{"ΑΑ ΒΒ", "ΓΓ"}, ChunkText("ΑΑ ΒΒ ΓΓ", 6))
	assert.Equal(t, []string{"aa bb", "cc"}, ChunkText("aa bb cc", 6))
}

func TestChunkText_RespectsLimit(t *testing.T) {
	input := strings.Repeat("word ", 500)

	chunks := ChunkText(input, 100)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
		assert.NotEmpty(t, chunk)
	}
}

func TestChunkText_Deterministic(t *testing.T) {
	input := strings.Repeat("energy water waste emissions governance ", 100)

	first := ChunkText(input, 1000)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, ChunkText(input, 1000))
	}
}

func TestChunkText_SingleChunkWhenUnderLimit(t *testing.T) {
	chunks := ChunkText("short report summary", 1000)

	assert.Equal(t, []string{"short report summary"}, chunks)
}

func TestChunkText_DefaultLimit(t *testing.T) {
	// 2400 words of 3 chars each + separators is about 9600 chars, which
	// packs into 10 chunks of ~250 words at the 1000-char default.
	input := strings.TrimSpace(strings.Repeat("abc ", 2400))

	chunks := ChunkText(input, 0)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), DefaultMaxChunkChars)
	}
}
