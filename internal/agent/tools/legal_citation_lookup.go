package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/retrieval"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
)

const nameLegalCitation = "legal_citation_lookup"

// LegalCitationLookupTool is a read-only search over the ingested legal
// corpus for a specific article/clause citation, for when the model needs
// to confirm or quote a provision it only half-remembers mid-answer.
type LegalCitationLookupTool struct {
	retrieval *retrieval.Engine
}

// NewLegalCitationLookupTool builds the tool over the shared retrieval
// engine. The caller's access level is read from ctx on each call (see
// WithUserLevel), so a tool call can never surface a passage above the
// caller's tier even though it runs mid-conversation rather than at the
// top of Process.
func NewLegalCitationLookupTool(engine *retrieval.Engine) *LegalCitationLookupTool {
	return &LegalCitationLookupTool{retrieval: engine}
}

func (t *LegalCitationLookupTool) Name() string { return nameLegalCitation }

func (t *LegalCitationLookupTool) Description() string {
	return "Look up a specific law, article, or clause by citation or topic (e.g. 'UU No. 11 Tahun 2020 Pasal 5' " +
		"or 'KITAS sponsor requirements'). Returns the closest matching passages with their source titles."
}

func (t *LegalCitationLookupTool) Schema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"citation_or_topic": map[string]interface{}{
				"type":        "string",
				"description": "The citation (law number, article, clause) or topic to search for.",
			},
			"collection": map[string]interface{}{
				"type":        "string",
				"description": "Optional collection override: tax, visa, legal-unified, KBLI, property, litigation, generic.",
			},
		},
		"required": []string{"citation_or_topic"},
	}
}

func (t *LegalCitationLookupTool) Execute(ctx context.Context, input map[string]interface{}) (string, error) {
	query := stringArg(input, "citation_or_topic")
	if query == "" {
		return "", fmt.Errorf("legal_citation_lookup: citation_or_topic must not be empty")
	}
	collection := stringArg(input, "collection")

	resp, err := t.retrieval.Retrieve(ctx, query, retrieval.Options{
		UserLevel:          interfaces.UserLevelFromContext(ctx),
		CollectionOverride: collection,
		ApplyFilters:       true,
		Limit:              5,
	})
	if err != nil {
		return "", fmt.Errorf("legal_citation_lookup: %w", err)
	}
	if len(resp.Results) == 0 {
		return "No matching passages found.", nil
	}

	var b strings.Builder
	for i, r := range resp.Results {
		title := fmt.Sprintf("%v", r.Metadata["chapter_title"])
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, title, r.Text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
