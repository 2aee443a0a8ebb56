package metadata

import (
	"strings"
	"unicode"

	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

const (
	// goodOCRThreshold is the recognizable-character ratio above which a
	// document is considered cleanly extracted.
	goodOCRThreshold = 0.85
	// reextractThreshold below this score the document is flagged for a
	// re-extraction pass regardless of the incomplete heuristic.
	reextractThreshold = 0.6
	// symbolRatioThreshold: documents with more than this fraction of
	// digit/symbol runes are treated as likely OCR noise.
	symbolRatioThreshold = 0.3
)

// Quality is the result of scoring a document's extracted text.
type Quality struct {
	TextFingerprint string
	OCRQualityScore float64
	IsIncomplete    bool
	NeedsReextract  bool
}

// Score computes a fingerprint and quality signals for extracted text.
func Score(text string) Quality {
	q := Quality{TextFingerprint: utils.ContentFingerprint(text)}
	if strings.TrimSpace(text) == "" {
		q.IsIncomplete = true
		q.NeedsReextract = true
		return q
	}

	q.OCRQualityScore = ocrRatio(text)
	q.IsIncomplete = looksIncomplete(text) || symbolRatio(text) > symbolRatioThreshold
	q.NeedsReextract = q.OCRQualityScore < reextractThreshold || q.IsIncomplete
	return q
}

// ocrRatio is the fraction of runes that are letters, digits, or common
// punctuation/whitespace, as a proxy for extraction cleanliness.
func ocrRatio(text string) float64 {
	total := 0
	recognizable := 0
	for _, r := range text {
		total++
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			recognizable++
		case strings.ContainsRune(".,;:!?()\"'-/", r):
			recognizable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(recognizable) / float64(total)
}

func symbolRatio(text string) float64 {
	total := 0
	symbols := 0
	for _, r := range text {
		total++
		if unicode.IsDigit(r) {
			symbols++
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			symbols++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(symbols) / float64(total)
}

// looksIncomplete flags text that appears to end mid-sentence: the last
// non-whitespace rune is alphanumeric rather than sentence-terminal
// punctuation, which is common in truncated OCR output.
func looksIncomplete(text string) bool {
	trimmed := strings.TrimRightFunc(text, unicode.IsSpace)
	if trimmed == "" {
		return true
	}
	last := []rune(trimmed)[len([]rune(trimmed))-1]
	if unicode.IsLetter(last) || unicode.IsDigit(last) {
		return true
	}
	return false
}
