// Package memory implements C11: assembles the per-user, per-query context
// section of the system prompt from the profile/memory row, the knowledge
// graph, and recent conversation history (§4.11).
package memory

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

const (
	userRelatedLimit    = 10
	queryRelatedLimit   = 5
	defaultHistoryRounds = 6
)

// Assembler is C11. All reads are best-effort: a failing sub-fetch is
// logged and the corresponding section is left empty rather than failing
// the whole assembly, since a degraded memory context is still useful.
type Assembler struct {
	store   interfaces.RelationalStore
	history interfaces.SessionStore
}

// New builds an Assembler. history may be nil, in which case recent
// conversation history is always omitted.
func New(store interfaces.RelationalStore, history interfaces.SessionStore) *Assembler {
	return &Assembler{store: store, history: history}
}

// Assemble builds the MemoryContext for one turn. query may be empty for a
// cold-start call (e.g. greeting), in which case KG-by-query enrichment is
// skipped entirely rather than issuing a pointless similarity search.
func (a *Assembler) Assemble(ctx context.Context, userID, sessionID, query string) *types.MemoryContext {
	mc := &types.MemoryContext{UserID: userID}

	if userID != "" {
		a.loadProfile(ctx, userID, mc)
		mc.RelatedToUser = a.relatedToUser(ctx, userID)
	}
	if query != "" {
		mc.RelatedToQuery = a.relatedToQuery(ctx, query)
	}
	if sessionID != "" && a.history != nil {
		mc.RecentHistory = a.recentHistory(ctx, sessionID)
	}
	return mc
}

func (a *Assembler) loadProfile(ctx context.Context, userID string, mc *types.MemoryContext) {
	mem, err := a.store.GetUserMemory(ctx, userID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			logrus.WithError(err).WithField("user_id", userID).Warn("memory: load user memory failed")
		}
		return
	}
	mc.ProfileFacts = []string(mem.ProfileFacts)
	mc.Summary = mem.Summary
	if len(mem.Counters) > 0 {
		var counters types.MemoryCounters
		if err := json.Unmarshal(mem.Counters, &counters); err == nil {
			mc.Counters = counters
		}
	}
}

func (a *Assembler) relatedToUser(ctx context.Context, userID string) []types.KGEntity {
	entities, err := a.store.EntitiesRelatedToUser(ctx, userID, userRelatedLimit)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("memory: related-to-user KG lookup failed")
		return nil
	}
	return entities
}

func (a *Assembler) relatedToQuery(ctx context.Context, query string) []types.KGEntity {
	entities, err := a.store.EntitiesByNameSimilarity(ctx, query, queryRelatedLimit)
	if err != nil {
		logrus.WithError(err).Warn("memory: related-to-query KG lookup failed")
		return nil
	}
	return entities
}

func (a *Assembler) recentHistory(ctx context.Context, sessionID string) []types.SessionMessage {
	messages, err := a.history.RecentMessages(ctx, sessionID, defaultHistoryRounds)
	if err != nil {
		logrus.WithError(err).WithField("session_id", sessionID).Warn("memory: recent history lookup failed")
		return nil
	}
	return messages
}
