// Package tools implements C13's agent-executable tools (§4.13): a
// reflective scratchpad, a structured KBLI code lookup, and a read-only
// legal-citation search, all behind the interfaces.Tool contract.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

const nameThinking = "sequential_thinking"

// SequentialThinkingTool gives the model a place to record and revise its
// own reasoning steps between tool calls, without that reasoning leaking
// into the final answer. One instance is shared across concurrent requests
// (the registry itself is process-wide), so history bookkeeping is
// mutex-guarded rather than assumed single-request.
type SequentialThinkingTool struct {
	mu             sync.Mutex
	thoughtHistory []thoughtInput
	branches       map[string][]thoughtInput
}

type thoughtInput struct {
	Thought           string `json:"thought"`
	ThoughtNumber     int    `json:"thought_number"`
	TotalThoughts     int    `json:"total_thoughts"`
	NextThoughtNeeded bool   `json:"next_thought_needed"`
	IsRevision        bool   `json:"is_revision"`
	RevisesThought    int    `json:"revises_thought"`
	BranchFromThought int    `json:"branch_from_thought"`
	BranchID          string `json:"branch_id"`
	NeedsMoreThoughts bool   `json:"needs_more_thoughts"`
}

// NewSequentialThinkingTool builds a thinking tool; the registry creates one
// instance that every request shares.
func NewSequentialThinkingTool() *SequentialThinkingTool {
	return &SequentialThinkingTool{branches: make(map[string][]thoughtInput)}
}

func (t *SequentialThinkingTool) Name() string { return nameThinking }

func (t *SequentialThinkingTool) Description() string {
	return "Record one step of reasoning before continuing. Use for multi-step legal/tax/visa questions " +
		"where the answer depends on more than one fact or article. Write the thought in plain language, " +
		"never naming other tools by name."
}

func (t *SequentialThinkingTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"thought":             map[string]interface{}{"type": "string"},
			"thought_number":      map[string]interface{}{"type": "integer", "minimum": 1},
			"total_thoughts":      map[string]interface{}{"type": "integer", "minimum": 1},
			"next_thought_needed": map[string]interface{}{"type": "boolean"},
			"is_revision":         map[string]interface{}{"type": "boolean"},
			"revises_thought":     map[string]interface{}{"type": "integer"},
			"branch_from_thought": map[string]interface{}{"type": "integer"},
			"branch_id":           map[string]interface{}{"type": "string"},
			"needs_more_thoughts": map[string]interface{}{"type": "boolean"},
		},
		"required": []string{"thought", "thought_number", "total_thoughts", "next_thought_needed"},
	}
}

func (t *SequentialThinkingTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	in := thoughtInput{
		Thought:           stringArg(input, "thought"),
		ThoughtNumber:     intArg(input, "thought_number"),
		TotalThoughts:     intArg(input, "total_thoughts"),
		NextThoughtNeeded: boolArg(input, "next_thought_needed"),
		IsRevision:        boolArg(input, "is_revision"),
		RevisesThought:    intArg(input, "revises_thought"),
		BranchFromThought: intArg(input, "branch_from_thought"),
		BranchID:          stringArg(input, "branch_id"),
		NeedsMoreThoughts: boolArg(input, "needs_more_thoughts"),
	}
	if in.Thought == "" {
		return "", fmt.Errorf("sequential_thinking: thought must not be empty")
	}
	if in.ThoughtNumber < 1 {
		return "", fmt.Errorf("sequential_thinking: thought_number must be >= 1")
	}
	if in.ThoughtNumber > in.TotalThoughts {
		in.TotalThoughts = in.ThoughtNumber
	}

	t.mu.Lock()
	t.thoughtHistory = append(t.thoughtHistory, in)
	if in.BranchFromThought > 0 && in.BranchID != "" {
		t.branches[in.BranchID] = append(t.branches[in.BranchID], in)
	}
	t.mu.Unlock()

	logrus.WithField("thought_number", in.ThoughtNumber).Debug("tools: recorded thought")

	if in.NextThoughtNeeded || in.NeedsMoreThoughts || in.ThoughtNumber < in.TotalThoughts {
		return fmt.Sprintf("Thought %d/%d recorded. Continue reasoning before answering.", in.ThoughtNumber, in.TotalThoughts), nil
	}
	return fmt.Sprintf("Thought %d/%d recorded. Reasoning complete.", in.ThoughtNumber, in.TotalThoughts), nil
}

func stringArg(input map[string]interface{}, key string) string {
	v, _ := input[key].(string)
	return v
}

func boolArg(input map[string]interface{}, key string) bool {
	v, _ := input[key].(bool)
	return v
}

func intArg(input map[string]interface{}, key string) int {
	switch v := input[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
