package vectorstore

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

func TestToQdrantPointsRejectsNonUUIDIDs(t *testing.T) {
	_, err := toQdrantPoints([]interfaces.VectorPoint{
		{ID: "not-a-uuid", Vector: []float32{0.1, 0.2}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInputInvalid)
}

func TestToQdrantPointsRejectsOversizedPayload(t *testing.T) {
	big := make([]byte, maxPayloadBytes+1)
	for i := range big {
		big[i] = 'a'
	}
	_, err := toQdrantPoints([]interfaces.VectorPoint{
		{ID: uuid.NewString(), Vector: []float32{0.1}, Payload: map[string]interface{}{"text": string(big)}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInputInvalid)
}

func TestToQdrantPointsAcceptsValidPoint(t *testing.T) {
	points, err := toQdrantPoints([]interfaces.VectorPoint{
		{ID: uuid.NewString(), Vector: []float32{0.1, 0.2, 0.3}, Payload: map[string]interface{}{"title": "Pasal 1"}},
	})
	require.NoError(t, err)
	assert.Len(t, points, 1)
}

func TestApproxPayloadSize(t *testing.T) {
	size := approxPayloadSize(map[string]interface{}{"title": "abcd", "tier": "B"})
	assert.Greater(t, size, 0)
}

func TestBuildFilterNilOnEmptyFilter(t *testing.T) {
	assert.Nil(t, buildFilter(nil))
	assert.Nil(t, buildFilter(&interfaces.VectorFilter{}))
}

func TestBuildFilterCombinesClauses(t *testing.T) {
	min := 2020.0
	f := buildFilter(&interfaces.VectorFilter{
		Equals:   map[string]interface{}{"tier": "B"},
		In:       map[string][]interface{}{"status": {"active"}},
		RangeGTE: map[string]float64{"year": min},
	})
	require.NotNil(t, f)
	assert.Len(t, f.Must, 3)
}

func TestCollectionName(t *testing.T) {
	s := &qdrantStore{collectionBaseName: "ayo"}
	assert.Equal(t, "ayo_tax", s.collectionName("tax"))
}
