package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Balizero1987/ayo-sub004/internal/ingestion/structure"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

func TestChunkDocumentFlatFallback(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := ChunkDocument("doc-1", text, structure.Document{})

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.Equal(t, types.HierarchyDocument, c.HierarchyLevel)
		assert.LessOrEqual(t, len(c.Text), fixedWindowSize)
	}
}

func TestChunkDocumentPerArticle(t *testing.T) {
	doc := structure.Document{
		Chapters: []structure.Chapter{
			{
				Number: "I",
				Title:  "KETENTUAN UMUM",
				Articles: []structure.Article{
					{Number: "1", Text: "Pasal 1\nIsi singkat.", Ayat: nil},
					{Number: "2", Text: "Pasal 2\nIsi singkat kedua.", Ayat: []string{"1", "2"}},
				},
			},
		},
	}

	chunks := ChunkDocument("doc-2", "", doc)

	require.Len(t, chunks, 2)
	assert.Equal(t, types.HierarchyArticle, chunks[0].HierarchyLevel)
	assert.Equal(t, "doc-2-bab-I-pasal-1", chunks[0].ArticleID)
	assert.Equal(t, "doc-2-bab-I-pasal-2", chunks[1].ArticleID)
	assert.Equal(t, []string{"1", "2"}, chunks[1].ClauseNumbers)
	assert.True(t, chunks[1].ClauseSeqValid)
	assert.Equal(t, 0, chunks[0].ChunkIndex)
	assert.Equal(t, 1, chunks[1].ChunkIndex)
}

func TestChunkDocumentSplitsLongArticle(t *testing.T) {
	paragraph := strings.Repeat("kata ", 100) + "\n\n"
	longText := strings.Repeat(paragraph, 20) // well over maxChunkChars

	doc := structure.Document{
		Chapters: []structure.Chapter{
			{
				Number: "I",
				Articles: []structure.Article{
					{Number: "1", Text: longText},
				},
			},
		},
	}

	chunks := ChunkDocument("doc-3", "", doc)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), maxChunkChars)
		assert.Equal(t, "doc-3-bab-I-pasal-1", c.ArticleID)
	}
}

func TestChunkDocumentRecursiveFallbackForHugeArticle(t *testing.T) {
	huge := strings.Repeat("x", recursiveThreshold+500)
	doc := structure.Document{
		Chapters: []structure.Chapter{
			{Number: "I", Articles: []structure.Article{{Number: "1", Text: huge}}},
		},
	}

	chunks := ChunkDocument("doc-4", "", doc)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Text), maxChunkChars)
	}
}

func TestFixedWindowSplitOverlap(t *testing.T) {
	text := strings.Repeat("b", 2200)
	parts := fixedWindowSplit(text, 1000, 100)

	require.Len(t, parts, 3)
	assert.Equal(t, 1000, len(parts[0]))
	assert.Equal(t, 1000, len(parts[1]))
	assert.Equal(t, text[1800:], parts[2])
}

func TestMergeSmallChunksCombinesTrailingFragment(t *testing.T) {
	chunks := []string{strings.Repeat("a", 300), "tiny"}
	merged := mergeSmallChunks(chunks)
	require.Len(t, merged, 1)
	assert.Contains(t, merged[0], "tiny")
}

func TestSemanticSplitDeterministic(t *testing.T) {
	text := strings.Repeat("paragraph text here.\n\n", 50)
	first := semanticSplit(text)
	second := semanticSplit(text)
	assert.Equal(t, first, second)
}
