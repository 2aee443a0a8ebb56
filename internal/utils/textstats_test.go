package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRunesRecognizableRatio(t *testing.T) {
	r := ClassifyRunes("Pasal 1 (satu)")
	assert.Greater(t, r.RecognizableRatio(), 0.85)
}

func TestClassifyRunesGarbledText(t *testing.T) {
	r := ClassifyRunes("%%%@@@###$$$^^^***")
	assert.Less(t, r.RecognizableRatio(), 0.6)
}

func TestEstimateTokenCount(t *testing.T) {
	assert.Equal(t, 3, EstimateTokenCount("  Pasal  1   Ayat "))
	assert.Equal(t, 0, EstimateTokenCount("   "))
}
