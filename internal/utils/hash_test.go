package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkPointIDIsDeterministic(t *testing.T) {
	id1 := ChunkPointID("doc-1/chapter-2/article-3")
	id2 := ChunkPointID("doc-1/chapter-2/article-3")
	assert.Equal(t, id1, id2)

	other := ChunkPointID("doc-1/chapter-2/article-4")
	assert.NotEqual(t, id1, other)
}

func TestNormalizedMD5IgnoresCaseAndOuterWhitespace(t *testing.T) {
	a := NormalizedMD5("  How much is Investor KITAS?  ")
	b := NormalizedMD5("how much is investor kitas?")
	assert.Equal(t, a, b)
}

func TestNormalizedMD5KeepsPunctuation(t *testing.T) {
	// Deliberate upstream behavior (§9 open question): punctuation is not
	// stripped, so "kitas" and "kitas?" hash differently.
	withPunct := NormalizedMD5("investor kitas?")
	withoutPunct := NormalizedMD5("investor kitas")
	assert.NotEqual(t, withPunct, withoutPunct)
}

func TestContentFingerprintChangesWithContent(t *testing.T) {
	a := ContentFingerprint("hello world")
	b := ContentFingerprint("hello world!")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, ContentFingerprint("hello world"))
}

func TestDocumentIDTruncatesAndStripsPath(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "a"
	}
	id := DocumentID("/tmp/" + long + ".pdf")
	assert.Len(t, id, 64)
	assert.Equal(t, "uu-2024", DocumentID("folder/uu-2024.txt"))
}
