// Package redisstore implements the conversation session store on top of
// Redis, the same client the teacher uses for its temporary-KB state
// (internal/application/service/web_search_state.go): one list key per
// session, its TTL refreshed on every append. The list itself is never
// trimmed; reads return only the most recent rounds.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Balizero1987/ayo-sub004/internal/logger"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// SessionStore is the Redis-backed interfaces.SessionStore.
type SessionStore struct {
	client *redis.Client
}

// New builds a Redis-backed SessionStore.
func New(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

var _ interfaces.SessionStore = (*SessionStore)(nil)

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

// AppendMessage pushes one message onto the session's history list and
// refreshes its TTL, so an idle session expires instead of growing forever.
func (s *SessionStore) AppendMessage(ctx context.Context, sessionID string, msg types.SessionMessage, ttl int) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("redisstore: marshal message: %w", err)
	}
	key := sessionKey(sessionID)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, b)
	if ttl > 0 {
		pipe.Expire(ctx, key, time.Duration(ttl)*time.Second)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redisstore: append message: %w", err)
	}
	return nil
}

// RecentMessages returns the last maxRounds*2 messages (one user + one
// assistant turn per round) for a session, oldest first.
func (s *SessionStore) RecentMessages(ctx context.Context, sessionID string, maxRounds int) ([]types.SessionMessage, error) {
	if maxRounds <= 0 {
		return nil, nil
	}
	key := sessionKey(sessionID)
	raw, err := s.client.LRange(ctx, key, int64(-maxRounds*2), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redisstore: recent messages: %w", err)
	}
	out := make([]types.SessionMessage, 0, len(raw))
	for _, r := range raw {
		var msg types.SessionMessage
		if err := json.Unmarshal([]byte(r), &msg); err != nil {
			logger.Warnf(ctx, "redisstore: skipping malformed session message: %v", err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}
