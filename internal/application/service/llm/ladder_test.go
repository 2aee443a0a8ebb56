package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

type fakeChat struct {
	name  string
	calls int
	fn    func(calls int) (*types.ChatResponse, error)
}

func (f *fakeChat) Chat(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (*types.ChatResponse, error) {
	f.calls++
	return f.fn(f.calls)
}

func (f *fakeChat) ChatStream(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (<-chan types.StreamResponse, error) {
	return nil, nil
}
func (f *fakeChat) ModelName() string { return f.name }
func (f *fakeChat) ModelID() string   { return f.name }

func TestLadderFallsBackOnQuotaExhaustion(t *testing.T) {
	primary := &fakeChat{name: "flash", fn: func(int) (*types.ChatResponse, error) {
		return nil, errors.New("quota exceeded")
	}}
	secondary := &fakeChat{name: "flash-lite", fn: func(int) (*types.ChatResponse, error) {
		return &types.ChatResponse{Content: "Reply."}, nil
	}}

	ladder := NewLadder([]Tier{{Name: primary.name, Chat: primary}, {Name: secondary.name, Chat: secondary}})

	resp, model, err := ladder.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "flash-lite", model)
	assert.Equal(t, "Reply.", resp.Content)
}

func TestLadderStaysOnFallbackTierForSubsequentCalls(t *testing.T) {
	primary := &fakeChat{name: "flash", fn: func(int) (*types.ChatResponse, error) {
		return nil, errors.New("quota exceeded")
	}}
	secondary := &fakeChat{name: "flash-lite", fn: func(int) (*types.ChatResponse, error) {
		return &types.ChatResponse{Content: "ok"}, nil
	}}
	ladder := NewLadder([]Tier{{Name: primary.name, Chat: primary}, {Name: secondary.name, Chat: secondary}})

	_, _, err := ladder.Chat(context.Background(), nil, nil)
	require.NoError(t, err)

	_, model, err := ladder.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "flash-lite", model)
	// Primary must not be retried once the ladder has advanced.
	assert.Equal(t, 1, primary.calls)
}

func TestLadderRetriesTransientErrorsOnSameTier(t *testing.T) {
	attempts := 0
	primary := &fakeChat{name: "flash", fn: func(n int) (*types.ChatResponse, error) {
		attempts = n
		if n < 2 {
			return nil, errors.New("connection reset")
		}
		return &types.ChatResponse{Content: "recovered"}, nil
	}}
	ladder := NewLadder([]Tier{{Name: primary.name, Chat: primary}})

	resp, model, err := ladder.Chat(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "flash", model)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, 2, attempts)
}

func TestLadderExhaustedReturnsLLMUnavailable(t *testing.T) {
	primary := &fakeChat{name: "flash", fn: func(int) (*types.ChatResponse, error) {
		return nil, errors.New("quota exceeded")
	}}
	ladder := NewLadder([]Tier{{Name: primary.name, Chat: primary}})

	_, _, err := ladder.Chat(context.Background(), nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrLLMUnavailable)
}
