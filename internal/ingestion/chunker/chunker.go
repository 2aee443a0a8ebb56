// Package chunker implements the third stage of C4: turning parsed text and
// its detected hierarchy into bounded, embeddable chunks.
package chunker

import (
	"fmt"
	"strings"

	"github.com/Balizero1987/ayo-sub004/internal/ingestion/structure"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

const (
	minChunkChars = 200
	maxChunkChars = 1500

	// recursiveThreshold mirrors the original ingester's char_limit: an
	// article longer than this is re-split rather than embedded whole.
	recursiveThreshold = 4000

	fixedWindowSize    = 1000
	fixedWindowOverlap = 100
)

// ChunkDocument turns a parsed hierarchy into chunk records. Point/parent ids
// and sibling back-references are left unset; the orchestrator assigns those
// once it has deterministic UUIDs to work with.
func ChunkDocument(documentID string, rawText string, doc structure.Document) []types.Chunk {
	if len(doc.Chapters) == 0 {
		return chunkFlat(documentID, rawText)
	}

	var chunks []types.Chunk
	index := 0
	for _, chapter := range doc.Chapters {
		chapterID := fmt.Sprintf("%s-bab-%s", documentID, orUnnumbered(chapter.Number))

		if len(chapter.Articles) == 0 {
			for _, part := range splitText(chapter.Text) {
				chunks = append(chunks, types.Chunk{
					Text:           part,
					DocumentID:     documentID,
					ChapterID:      chapterID,
					HierarchyPath:  chapterPath(chapter),
					HierarchyLevel: types.HierarchyChapter,
					ChapterTitle:   chapter.Title,
					ChunkIndex:     index,
				})
				index++
			}
			continue
		}

		for _, article := range chapter.Articles {
			articleID := fmt.Sprintf("%s-pasal-%s", chapterID, article.Number)
			seqValid := structure.SequenceValid(article.Ayat)
			for _, part := range splitText(article.Text) {
				chunks = append(chunks, types.Chunk{
					Text:           part,
					DocumentID:     documentID,
					ChapterID:      chapterID,
					ArticleID:      articleID,
					HierarchyPath:  fmt.Sprintf("%s > Pasal %s", chapterPath(chapter), article.Number),
					HierarchyLevel: types.HierarchyArticle,
					ChapterTitle:   chapter.Title,
					ClauseNumbers:  article.Ayat,
					ClauseSeqValid: seqValid,
					ChunkIndex:     index,
				})
				index++
			}
		}
	}
	return chunks
}

func orUnnumbered(number string) string {
	if number == "" {
		return "0"
	}
	return number
}

func chapterPath(chapter structure.Chapter) string {
	if chapter.Number == "" {
		return "Document"
	}
	return fmt.Sprintf("BAB %s", chapter.Number)
}

// chunkFlat handles text with no detected legal structure (KBLI tables,
// pricing sheets, generic prose): fixed-window split over the whole text.
func chunkFlat(documentID, rawText string) []types.Chunk {
	var chunks []types.Chunk
	for i, part := range fixedWindowSplit(rawText, fixedWindowSize, fixedWindowOverlap) {
		chunks = append(chunks, types.Chunk{
			Text:           part,
			DocumentID:     documentID,
			HierarchyPath:  "Document",
			HierarchyLevel: types.HierarchyDocument,
			ChunkIndex:     i,
		})
	}
	return chunks
}

// splitText breaks a structural unit (chapter or article body) into chunks.
// A unit of at most maxChunkChars is kept whole; a longer one is packed on
// paragraph breaks into pieces of up to maxChunkChars. Only in a unit longer
// than recursiveThreshold is a piece still over maxChunkChars (one long
// paragraph) re-split with the fixed window; in a shorter unit such a piece
// stays a single chunk longer than maxChunkChars.
func splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChunkChars {
		return []string{text}
	}

	parts := semanticSplit(text)
	if len(text) <= recursiveThreshold {
		return parts
	}

	var out []string
	for _, p := range parts {
		if len(p) > maxChunkChars {
			out = append(out, fixedWindowSplit(p, fixedWindowSize, fixedWindowOverlap)...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

// semanticSplit packs paragraphs (blank-line separated) greedily up to
// maxChunkChars, then merges any chunk that ends up under minChunkChars into
// its neighbor so small trailing paragraphs don't become their own chunk.
func semanticSplit(text string) []string {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() == 0 {
			return
		}
		chunks = append(chunks, strings.TrimSpace(cur.String()))
		cur.Reset()
	}

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(p)+2 > maxChunkChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
		if cur.Len() >= maxChunkChars {
			flush()
		}
	}
	flush()

	return mergeSmallChunks(chunks)
}

func mergeSmallChunks(chunks []string) []string {
	if len(chunks) < 2 {
		return chunks
	}
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if len(c) < minChunkChars && len(out) > 0 && len(out[len(out)-1])+len(c)+2 <= maxChunkChars {
			out[len(out)-1] = out[len(out)-1] + "\n\n" + c
			continue
		}
		out = append(out, c)
	}
	return out
}

// fixedWindowSplit is the structure-agnostic fallback used when parsing
// yields no hierarchy at all, and as a last resort for oversized paragraphs.
func fixedWindowSplit(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	step := size - overlap
	if step <= 0 {
		step = size
	}

	var out []string
	for i := 0; i < len(text); i += step {
		end := i + size
		if end > len(text) {
			end = len(text)
		}
		out = append(out, text[i:end])
		if end == len(text) {
			break
		}
	}
	return out
}
