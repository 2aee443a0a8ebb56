package golden

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskTypeRefresh is the asynq task type for an off-request-path check of
// whether the golden-route embedding matrix has drifted from the live
// route count (§4.9's "cache mismatch triggers regeneration" rule, run as
// a background worker instead of inline on a request).
const TaskTypeRefresh = "golden:refresh"

type refreshPayload struct {
	LiveRouteCount int `json:"live_route_count"`
}

// NewRefreshTask builds the asynq task enqueued after an event that could
// have changed the golden-route count (new route added, ingest completed).
func NewRefreshTask(liveRouteCount int) (*asynq.Task, error) {
	payload, err := json.Marshal(refreshPayload{LiveRouteCount: liveRouteCount})
	if err != nil {
		return nil, fmt.Errorf("golden: marshal refresh task: %w", err)
	}
	return asynq.NewTask(TaskTypeRefresh, payload), nil
}

// HandleRefreshTask returns the asynq handler bound to cache, registered
// against TaskTypeRefresh on the worker's ServeMux.
func HandleRefreshTask(cache *Cache) func(ctx context.Context, t *asynq.Task) error {
	return func(ctx context.Context, t *asynq.Task) error {
		var p refreshPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("golden: unmarshal refresh task: %w", err)
		}
		return cache.RefreshIfStale(ctx, p.LiveRouteCount)
	}
}
