package types

import (
	"fmt"
	"strings"
)

// QueryContext carries per-request state through C8-C13, the same role
// the teacher's ChatManage plays in chat_pipline: a single mutable record
// threaded through pipeline stages instead of a growing parameter list.
type QueryContext struct {
	RequestID string
	SessionID string
	UserID    string
	UserLevel int

	Query         string
	Language      Language
	DomainHint    string
	ContextDocs   []string

	// Routing/classification (C8)
	Intent             IntentCategory
	IntentConfidence   float64
	SuggestedTier      ModelTier
	Mode               Mode
	RequireMemory      bool
	RequiresTeamCtx    bool
	RequiresRAG        bool
	CollectionOverride string

	// Retrieval targets after routing (C8/C10)
	Collections []string
	IsPricing   bool

	// Golden lookup (C9)
	GoldenHit    bool
	GoldenAnswer *GoldenAnswer

	// Memory (C11)
	Memory *MemoryContext

	// Retrieval (C10)
	RetrievalResult *RetrievalResult

	// LLM (C12/C13)
	SystemPrompt string
	ModelUsed    string
	ToolHops     int

	// Degraded subsystems accumulated on graceful-degradation paths (§7).
	Degraded []string
}

// MarkDegraded records a subsystem failure without aborting the request.
func (q *QueryContext) MarkDegraded(subsystem string) {
	for _, s := range q.Degraded {
		if s == subsystem {
			return
		}
	}
	q.Degraded = append(q.Degraded, subsystem)
}

// RetrievalResult is C10's output (§4.10).
type RetrievalResult struct {
	Query           string
	CollectionUsed  string
	Results         []RetrievedPassage
	AllowedTiers    []Tier
	ConflictsFound  []ConflictNote
	Reranked        bool
}

// RetrievedPassage is one chunk returned by retrieval, with score+metadata.
type RetrievedPassage struct {
	Text       string
	Score      float64
	DocID      string
	ChunkIndex int
	Title      string
	Tier       Tier
	Metadata   map[string]interface{}
}

// MemoryContext is C11's output (§4.11).
type MemoryContext struct {
	UserID         string
	Role           string
	PreferredLang  Language
	ProfileFacts   []string
	Summary        string
	Counters       MemoryCounters
	RelatedToUser  []KGEntity
	RelatedToQuery []KGEntity
	RecentHistory  []SessionMessage
}

// IsEmpty reports whether there is nothing worth rendering into a prompt.
func (m *MemoryContext) IsEmpty() bool {
	if m == nil {
		return true
	}
	return len(m.ProfileFacts) == 0 && m.Summary == "" &&
		len(m.RelatedToUser) == 0 && len(m.RelatedToQuery) == 0 && len(m.RecentHistory) == 0
}

// maxRelatedConcepts caps how many KG entities the system prompt surfaces,
// combined across user- and query-related sets (§4.11: "up to 5").
const maxRelatedConcepts = 5

// ToSystemPrompt renders the assembled context into the system-prompt
// sections C13 concatenates after the persona/mode instructions: user
// profile, profile facts, summary, and a "Related Concepts" section listing
// up to 5 KG entities as "Type: Name" (§4.11).
func (m *MemoryContext) ToSystemPrompt() string {
	if m.IsEmpty() {
		return ""
	}

	var b strings.Builder
	if m.Role != "" || m.PreferredLang != "" {
		b.WriteString("## User Profile\n")
		if m.Role != "" {
			fmt.Fprintf(&b, "Role: %s\n", m.Role)
		}
		if m.PreferredLang != "" {
			fmt.Fprintf(&b, "Preferred language: %s\n", m.PreferredLang)
		}
		b.WriteString("\n")
	}

	if len(m.ProfileFacts) > 0 {
		b.WriteString("## Known Facts\n")
		for _, fact := range m.ProfileFacts {
			fmt.Fprintf(&b, "- %s\n", fact)
		}
		b.WriteString("\n")
	}

	if m.Summary != "" {
		fmt.Fprintf(&b, "## Conversation Summary\n%s\n\n", m.Summary)
	}

	entities := combineRelatedEntities(m.RelatedToUser, m.RelatedToQuery, maxRelatedConcepts)
	if len(entities) > 0 {
		b.WriteString("## Related Concepts\n")
		for _, e := range entities {
			fmt.Fprintf(&b, "- %s: %s\n", titleCase(e.Type), e.Name)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// combineRelatedEntities merges query-related entities ahead of user-related
// ones (a live query is a stronger relevance signal than historical mention
// count), deduplicates by ID, and caps the result at limit.
func combineRelatedEntities(byUser, byQuery []KGEntity, limit int) []KGEntity {
	seen := make(map[string]bool, limit)
	out := make([]KGEntity, 0, limit)
	for _, group := range [][]KGEntity{byQuery, byUser} {
		for _, e := range group {
			if len(out) >= limit {
				return out
			}
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			out = append(out, e)
		}
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}
