package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/retrieval"
	"github.com/Balizero1987/ayo-sub004/internal/ingestion"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

const nameKBLILookup = "kbli_lookup"

// KBLILookupTool is a structured search scoped to the KBLI collection: the
// model asks for a business line by name or code and gets back the closest
// matching code entries, instead of a generic free-text legal search.
type KBLILookupTool struct {
	retrieval *retrieval.Engine
}

// NewKBLILookupTool builds the tool over the shared retrieval engine.
func NewKBLILookupTool(engine *retrieval.Engine) *KBLILookupTool {
	return &KBLILookupTool{retrieval: engine}
}

func (t *KBLILookupTool) Name() string { return nameKBLILookup }

func (t *KBLILookupTool) Description() string {
	return "Look up an Indonesian KBLI business classification code by activity name or code number " +
		"(e.g. 'software development' or '62010'). Returns matching code entries with their descriptions."
}

func (t *KBLILookupTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"activity_or_code": map[string]interface{}{
				"type":        "string",
				"description": "The business activity name or KBLI code number to search for.",
			},
		},
		"required": []string{"activity_or_code"},
	}
}

func (t *KBLILookupTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	query := stringArg(input, "activity_or_code")
	if query == "" {
		return "", fmt.Errorf("kbli_lookup: activity_or_code must not be empty")
	}

	collection := string(ingestion.CollectionKBLI)
	resp, err := t.retrieval.Retrieve(ctx, query, retrieval.Options{
		UserLevel:          interfaces.UserLevelFromContext(ctx),
		CollectionOverride: collection,
		ApplyFilters:       true,
		Limit:              5,
	})
	if err != nil {
		return "", fmt.Errorf("kbli_lookup: %w", err)
	}
	if len(resp.Results) == 0 {
		return "No matching KBLI codes found.", nil
	}

	var b strings.Builder
	for i, r := range resp.Results {
		title := fmt.Sprintf("%v", r.Metadata["title"])
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, title, r.Text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
