// Package llm implements C12's fallback ladder: a small state machine that
// walks an ordered list of chat providers, promoting past exhausted tiers
// for the lifetime of the process (§4.12).
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

const maxTransientRetries = 3

// Tier is one rung of the ladder: a named, chat-capable provider.
type Tier struct {
	Name string
	Chat chat.Chat
}

// Ladder walks tiers in order, advancing past a tier permanently once it
// reports quota exhaustion, and retrying transient errors in place.
type Ladder struct {
	mu          sync.Mutex
	tiers       []Tier
	currentTier int
}

// NewLadder builds a ladder over tiers ordered from most- to
// least-preferred (e.g. Flash -> Flash-Lite -> external chat API).
func NewLadder(tiers []Tier) *Ladder {
	return &Ladder{tiers: tiers}
}

// CurrentTierName reports which rung is currently active.
func (l *Ladder) CurrentTierName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currentTier >= len(l.tiers) {
		return ""
	}
	return l.tiers[l.currentTier].Name
}

// Chat calls the current tier, retrying transient errors with backoff and
// advancing to the next tier on quota exhaustion, until a tier produces a
// response or the ladder is exhausted.
func (l *Ladder) Chat(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (*types.ChatResponse, string, error) {
	for {
		tier, idx, ok := l.activeTier()
		if !ok {
			return nil, "", fmt.Errorf("llm ladder: all tiers exhausted: %w", types.ErrLLMUnavailable)
		}

		resp, err := l.callWithRetry(ctx, tier, messages, opts)
		if err == nil {
			return resp, tier.Name, nil
		}
		if ctx.Err() != nil {
			return nil, tier.Name, fmt.Errorf("%w", types.ErrCancelled)
		}
		if !isQuotaExhausted(err) {
			return nil, tier.Name, err
		}

		logger.Warnf(ctx, "llm ladder: tier %s exhausted, advancing", tier.Name)
		l.advancePast(idx)
	}
}

// ChatStream streams from the current tier, falling back to the next tier
// on quota exhaustion only while opening the stream, before any content has
// been emitted; once a stream is returned its errors reach the caller and no
// other tier is tried (a partial stream is never silently restarted, per
// §4.12 cancellation guarantees).
func (l *Ladder) ChatStream(ctx context.Context, messages []chat.Message, opts *chat.ChatOptions) (<-chan types.StreamResponse, string, error) {
	for {
		tier, idx, ok := l.activeTier()
		if !ok {
			return nil, "", fmt.Errorf("llm ladder: all tiers exhausted: %w", types.ErrLLMUnavailable)
		}
		stream, err := tier.Chat.ChatStream(ctx, messages, opts)
		if err == nil {
			return stream, tier.Name, nil
		}
		if !isQuotaExhausted(err) {
			return nil, tier.Name, err
		}
		logger.Warnf(ctx, "llm ladder: tier %s exhausted, advancing", tier.Name)
		l.advancePast(idx)
	}
}

func (l *Ladder) activeTier() (Tier, int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currentTier >= len(l.tiers) {
		return Tier{}, 0, false
	}
	return l.tiers[l.currentTier], l.currentTier, true
}

// advancePast moves the ladder forward from idx, but only if no concurrent
// caller already advanced past it — the promotion is permanent for the
// process but must not regress if two requests race on the same failure.
func (l *Ladder) advancePast(idx int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currentTier <= idx {
		l.currentTier = idx + 1
	}
}

func (l *Ladder) callWithRetry(ctx context.Context, tier Tier, messages []chat.Message, opts *chat.ChatOptions) (*types.ChatResponse, error) {
	var lastErr error
	backoff := 100 * time.Millisecond
	for attempt := 0; attempt < maxTransientRetries; attempt++ {
		resp, err := tier.Chat.Chat(ctx, messages, opts)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isQuotaExhausted(err) || !isTransient(err) {
			return nil, err
		}
		if attempt+1 < maxTransientRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

func isQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "connection", "5", "temporarily", "unavailable"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
