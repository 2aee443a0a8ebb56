package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

func TestScoreEmptyTextIsIncompleteAndNeedsReextract(t *testing.T) {
	q := Score("")
	assert.True(t, q.IsIncomplete)
	assert.True(t, q.NeedsReextract)
	assert.NotEmpty(t, q.TextFingerprint)
}

func TestScoreCleanTextHasHighQuality(t *testing.T) {
	text := strings.Repeat("Pasal ini mengatur ketentuan umum mengenai keimigrasian. ", 20)
	q := Score(text)
	assert.GreaterOrEqual(t, q.OCRQualityScore, goodOCRThreshold)
	assert.False(t, q.NeedsReextract)
}

func TestScoreNoisyTextNeedsReextract(t *testing.T) {
	noisy := strings.Repeat("#$%^&*1029384756", 30)
	q := Score(noisy)
	assert.True(t, q.NeedsReextract)
}

func TestScoreIncompleteWhenEndsMidWord(t *testing.T) {
	q := Score("Dalam Undang-Undang ini yang dimaksud dengan keimigras")
	assert.True(t, q.IsIncomplete)
}

func TestScoreCompleteWhenEndsWithPunctuation(t *testing.T) {
	text := strings.Repeat("Kalimat lengkap yang diakhiri titik. ", 10)
	text = strings.TrimRight(text, " ")
	q := Score(text)
	assert.False(t, q.IsIncomplete)
}

func TestScoreFingerprintDeterministic(t *testing.T) {
	a := Score("some legal text")
	b := Score("some legal text")
	assert.Equal(t, a.TextFingerprint, b.TextFingerprint)
	assert.Equal(t, utils.ContentFingerprint("some legal text"), a.TextFingerprint)
}

func TestScoreFingerprintDiffersOnChange(t *testing.T) {
	a := Score("some legal text")
	b := Score("some other legal text")
	assert.NotEqual(t, a.TextFingerprint, b.TextFingerprint)
}
