package tools

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/retrieval"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

// Registry is C13's ToolExecutor: one instance shared across requests,
// since every tool reads the caller's access level from ctx rather than
// from construction-time state.
type Registry struct {
	tools map[string]interfaces.Tool
	list  []interfaces.Tool
}

// NewRegistry builds the process-wide tool registry over the shared
// retrieval engine.
func NewRegistry(engine *retrieval.Engine) *Registry {
	list := []interfaces.Tool{
		NewSequentialThinkingTool(),
		NewKBLILookupTool(engine),
		NewLegalCitationLookupTool(engine),
	}
	tools := make(map[string]interfaces.Tool, len(list))
	for _, t := range list {
		tools[t.Name()] = t
	}
	return &Registry{tools: tools, list: list}
}

func (r *Registry) Tools() []interfaces.Tool { return r.list }

func (r *Registry) Execute(ctx context.Context, call interfaces.ToolCall) interfaces.ToolResult {
	tool, ok := r.tools[call.Name]
	if !ok {
		return interfaces.ToolResult{ToolUseID: call.ID, Content: "unknown tool: " + call.Name, IsError: true}
	}
	out, err := tool.Execute(ctx, call.Input)
	if err != nil {
		logrus.WithError(err).WithField("tool", call.Name).Warn("tools: execution failed")
		return interfaces.ToolResult{ToolUseID: call.ID, Content: err.Error(), IsError: true}
	}
	return interfaces.ToolResult{ToolUseID: call.ID, Content: out}
}
