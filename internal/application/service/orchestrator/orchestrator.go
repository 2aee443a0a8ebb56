// Package orchestrator implements C13: the answer orchestrator that ties
// classification, golden cache, memory, retrieval, and the LLM ladder into
// one request/response cycle (§4.13). It plays the role the teacher's
// chat_pipline event chain plays, but as a single ordered method instead of
// a plugin pipeline, since there is no streaming-event bus in this design.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Balizero1987/ayo-sub004/internal/application/service/golden"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/llm"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/memory"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/retrieval"
	"github.com/Balizero1987/ayo-sub004/internal/application/service/router"
	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/types/interfaces"
	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

// defaultToolHopLimit bounds the tool-call loop so a misbehaving provider
// can't turn one request into an unbounded chain of tool calls.
const defaultToolHopLimit = 5

const defaultSessionTTLSec = 3600

// maxProfileFacts bounds UserMemory.ProfileFacts (§4.13 step 8 testable
// property: length <= 10).
const maxProfileFacts = 10

// memorySummaryMaxChars bounds UserMemory.Summary (§4.13 step 8 testable
// property: length <= 500, ending with "…" when truncated).
const memorySummaryMaxChars = 500

// maxTrackedUserLocks bounds the per-user lock table's size; past this
// point the oldest-inserted entry is evicted, a coarse LRU adequate for a
// lock table whose entries are only ever held for a few milliseconds.
const maxTrackedUserLocks = 10000

// userLocks serializes session-history and memory writes per user id
// (§5: writes to session history and memory are serialized per user id via
// a per-key mutex, at most one writer at a time), so two concurrent
// requests for the same user can never interleave AppendMessage/
// UpsertUserMemory calls against each other.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	order []string
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

// lock blocks until it holds the per-userID mutex and returns the unlock
// func; callers should defer it immediately.
func (u *userLocks) lock(userID string) func() {
	u.mu.Lock()
	l, ok := u.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		u.locks[userID] = l
		u.order = append(u.order, userID)
		if len(u.order) > maxTrackedUserLocks {
			evict := u.order[0]
			u.order = u.order[1:]
			delete(u.locks, evict)
		}
	}
	u.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// memoryQueryIntents names the intents for which the live query is worth
// spending a KG-by-name-similarity lookup on (§4.13 step 3): the ones
// where "what does this user care about, right now" actually helps.
var memoryQueryIntents = map[types.IntentCategory]bool{
	types.IntentIdentity:          true,
	types.IntentTeamQuery:         true,
	types.IntentBusinessSimple:    true,
	types.IntentBusinessComplex:   true,
	types.IntentBusinessStrategic: true,
}

// ragIntents names the intents that warrant a retrieval pass at all; a
// greeting or casual remark never needs a vector search.
var ragIntents = map[types.IntentCategory]bool{
	types.IntentBusinessSimple:    true,
	types.IntentBusinessComplex:   true,
	types.IntentBusinessStrategic: true,
	types.IntentDevCode:           true,
}

var fallbackMessages = map[types.Language]string{
	types.LanguageEN: "I'm having trouble reaching the language model right now. Please try again in a moment.",
	types.LanguageIT: "Al momento non riesco a contattare il modello linguistico. Riprova tra poco.",
	types.LanguageID: "Saat ini saya tidak bisa menghubungi model bahasa. Silakan coba lagi sebentar lagi.",
}

var modeInstructions = map[types.Mode]string{
	types.ModeGreeting:         "Respond warmly and briefly. No need to cite sources or go into detail.",
	types.ModeSmallTalk:        "Respond conversationally and briefly.",
	types.ModeIdentityResponse: "Answer using the profile facts and conversation summary below, if any.",
	types.ModeTechnical:        "Answer precisely, citing the numbered passages by [n] where they support a claim.",
	types.ModeProcedureGuide:   "Lay the answer out as a numbered sequence of steps, citing sources inline.",
	types.ModeRiskExplainer:    "Be explicit about risks, penalties, and compliance consequences, citing sources inline.",
	types.ModeLegalDeep:        "Give a thorough, structured legal answer with article-level citations.",
	types.ModeLegalBrief:       "Give a short, direct legal answer with citations, deferring detail unless asked.",
}

const basePersona = "You are the Ayo assistant, a knowledgeable guide for Indonesian legal, tax, visa, and business questions. Answer only from the information given to you; say so plainly when you don't know."

// Config configures the orchestrator's non-wired knobs.
type Config struct {
	ToolHopLimit  int
	SessionTTLSec int
}

// Orchestrator is C13.
type Orchestrator struct {
	golden    *golden.Cache
	memory    *memory.Assembler
	retrieval *retrieval.Engine
	ladders   map[types.ModelTier]*llm.Ladder
	defaultLadder *llm.Ladder
	sessions  interfaces.SessionStore
	store     interfaces.RelationalStore
	tools     interfaces.ToolExecutor

	toolHopLimit  int
	sessionTTLSec int
	userLocks     *userLocks
}

// New builds an Orchestrator. ladders maps a suggested model tier to the
// fallback ladder that serves it; defaultLadder is used when a tier has no
// dedicated ladder entry. tools may be nil to disable the tool loop
// entirely.
func New(
	goldenCache *golden.Cache,
	memoryAssembler *memory.Assembler,
	retrievalEngine *retrieval.Engine,
	ladders map[types.ModelTier]*llm.Ladder,
	defaultLadder *llm.Ladder,
	sessions interfaces.SessionStore,
	store interfaces.RelationalStore,
	tools interfaces.ToolExecutor,
	cfg Config,
) *Orchestrator {
	hopLimit := cfg.ToolHopLimit
	if hopLimit <= 0 {
		hopLimit = defaultToolHopLimit
	}
	ttl := cfg.SessionTTLSec
	if ttl <= 0 {
		ttl = defaultSessionTTLSec
	}
	return &Orchestrator{
		golden:        goldenCache,
		memory:        memoryAssembler,
		retrieval:     retrievalEngine,
		ladders:       ladders,
		defaultLadder: defaultLadder,
		sessions:      sessions,
		store:         store,
		tools:         tools,
		toolHopLimit:  hopLimit,
		sessionTTLSec: ttl,
		userLocks:     newUserLocks(),
	}
}

// Process runs the full C13 algorithm for one query and returns the
// populated response DTO (§4.13, §6).
func (o *Orchestrator) Process(ctx context.Context, req *types.QueryRequest) (*types.QueryResponse, error) {
	start := time.Now()

	qctx := o.newQueryContext(req)

	intent := router.Classify(req.Query)
	qctx.Intent = intent.Category
	qctx.IntentConfidence = intent.Confidence
	qctx.SuggestedTier = intent.SuggestedModelTier
	qctx.Mode = intent.Mode
	qctx.RequireMemory = intent.RequireMemory
	qctx.RequiresTeamCtx = intent.RequiresTeamContext

	if o.golden != nil {
		if hit, ok := o.golden.Lookup(ctx, req.Query); ok && hit.Kind == golden.MatchExact {
			return o.respondFromGolden(qctx, hit, start), nil
		} else if ok && hit.Kind == golden.MatchSemantic && qctx.CollectionOverride == "" {
			qctx.Collections = hit.Collections
		}
	}

	o.assembleMemory(ctx, qctx)
	o.runRetrieval(ctx, qctx)

	qctx.SystemPrompt = o.buildSystemPrompt(qctx)

	messages := o.buildMessages(qctx, req)
	ctx = interfaces.WithUserLevel(ctx, req.UserLevel)
	resp, modelUsed, err := o.callLLM(ctx, qctx, messages)
	if err != nil {
		return o.respondDegraded(qctx, start, err), nil
	}
	qctx.ModelUsed = modelUsed

	answer := strings.TrimSpace(resp.Content)
	answer = collapseBlankLines(answer)

	o.persist(ctx, qctx, req, answer)

	return &types.QueryResponse{
		Answer:    answer,
		ModelUsed: modelUsed,
		Sources:   sourceRefs(qctx),
		Conflicts: conflictNotes(qctx),
		Mode:      qctx.Mode,
		LatencyMs: time.Since(start).Milliseconds(),
		SessionID: qctx.SessionID,
		Degraded:  qctx.Degraded,
	}, nil
}

func (o *Orchestrator) newQueryContext(req *types.QueryRequest) *types.QueryContext {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &types.QueryContext{
		RequestID:          uuid.NewString(),
		SessionID:          sessionID,
		UserID:             req.UserID,
		UserLevel:          req.UserLevel,
		Query:              req.Query,
		Language:           req.LanguageOverride,
		DomainHint:         req.DomainHint,
		ContextDocs:        req.ContextDocs,
		CollectionOverride: req.CollectionOverride,
	}
}

func (o *Orchestrator) respondFromGolden(qctx *types.QueryContext, hit *golden.Result, start time.Time) *types.QueryResponse {
	sources := make([]types.SourceRef, 0, len(hit.Sources))
	for _, s := range hit.Sources {
		sources = append(sources, types.SourceRef{Title: s})
	}
	return &types.QueryResponse{
		Answer:    hit.Answer,
		ModelUsed: "golden-cache",
		Sources:   sources,
		Mode:      qctx.Mode,
		LatencyMs: time.Since(start).Milliseconds(),
		SessionID: qctx.SessionID,
	}
}

func (o *Orchestrator) respondDegraded(qctx *types.QueryContext, start time.Time, err error) *types.QueryResponse {
	logrus.WithError(err).WithField("request_id", qctx.RequestID).Warn("orchestrator: llm ladder exhausted")
	qctx.MarkDegraded("llm")
	return &types.QueryResponse{
		Answer:    fallbackMessage(qctx.Language),
		ModelUsed: "",
		Mode:      qctx.Mode,
		LatencyMs: time.Since(start).Milliseconds(),
		SessionID: qctx.SessionID,
		Degraded:  qctx.Degraded,
	}
}

func fallbackMessage(lang types.Language) string {
	if msg, ok := fallbackMessages[lang]; ok {
		return msg
	}
	return fallbackMessages[types.LanguageEN]
}

// assembleMemory fetches the per-user context. The live query is only
// passed through for intents where the answer plausibly hinges on what the
// user has previously discussed (§4.13 step 3); other intents still get
// profile facts, summary, and history, just without a KG-by-query lookup.
func (o *Orchestrator) assembleMemory(ctx context.Context, qctx *types.QueryContext) {
	if o.memory == nil {
		return
	}
	memQuery := ""
	if memoryQueryIntents[qctx.Intent] {
		memQuery = qctx.Query
	}
	qctx.Memory = o.memory.Assemble(ctx, qctx.UserID, qctx.SessionID, memQuery)
}

func (o *Orchestrator) runRetrieval(ctx context.Context, qctx *types.QueryContext) {
	if o.retrieval == nil || !ragIntents[qctx.Intent] {
		return
	}

	override := qctx.CollectionOverride
	if override == "" && len(qctx.Collections) == 1 {
		override = qctx.Collections[0]
	}

	resp, err := o.retrieval.Retrieve(ctx, qctx.Query, retrieval.Options{
		UserLevel:          qctx.UserLevel,
		CollectionOverride: override,
		ApplyFilters:        true,
		Limit:               6,
	})
	if err != nil {
		logrus.WithError(err).WithField("request_id", qctx.RequestID).Warn("orchestrator: retrieval failed")
		qctx.MarkDegraded("retrieval")
		return
	}

	passages := make([]types.RetrievedPassage, 0, len(resp.Results))
	for _, r := range resp.Results {
		chunkIndex, _ := r.Metadata["chunk_index"].(int)
		passages = append(passages, types.RetrievedPassage{
			Text:       r.Text,
			Score:      r.Score,
			DocID:      fmt.Sprintf("%v", r.Metadata["parent_id"]),
			ChunkIndex: chunkIndex,
			Title:      fmt.Sprintf("%v", r.Metadata["chapter_title"]),
			Metadata:   r.Metadata,
		})
	}
	conflicts := make([]types.ConflictNote, 0, len(resp.ConflictsDetected))
	for i, c := range resp.ConflictsDetected {
		note := ""
		if i < len(resp.ResolutionNotes) {
			note = resp.ResolutionNotes[i]
		}
		conflicts = append(conflicts, types.ConflictNote{Description: c.Note, ResolutionNotes: note})
	}

	qctx.RetrievalResult = &types.RetrievalResult{
		Query:          qctx.Query,
		CollectionUsed: resp.CollectionUsed,
		Results:        passages,
		ConflictsFound: conflicts,
		Reranked:       resp.Reranked,
	}
}

// buildSystemPrompt concatenates persona, mode instructions, memory
// context, and numbered retrieved passages, the same "sections stacked in
// order" shape the teacher's renderSystemPromptPlaceholders produces, minus
// the plugin-event machinery this design doesn't have.
func (o *Orchestrator) buildSystemPrompt(qctx *types.QueryContext) string {
	var b strings.Builder
	b.WriteString(basePersona)
	if instr, ok := modeInstructions[qctx.Mode]; ok {
		b.WriteString("\n\n")
		b.WriteString(instr)
	}

	if mc := qctx.Memory; mc != nil {
		if section := mc.ToSystemPrompt(); section != "" {
			b.WriteString("\n\n")
			b.WriteString(section)
		}
	}

	if qctx.RetrievalResult != nil && len(qctx.RetrievalResult.Results) > 0 {
		b.WriteString("\n\n## Reference Passages\n")
		for i, p := range qctx.RetrievalResult.Results {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, p.Text)
		}
	}

	if qctx.RetrievalResult != nil && len(qctx.RetrievalResult.ConflictsFound) > 0 {
		b.WriteString("\n## Contradictions Detected\n")
		for _, c := range qctx.RetrievalResult.ConflictsFound {
			fmt.Fprintf(&b, "- %s\n", c.Description)
		}
	}

	for _, doc := range qctx.ContextDocs {
		b.WriteString("\n\n## Attached Document\n")
		b.WriteString(doc)
	}

	return b.String()
}

func (o *Orchestrator) buildMessages(qctx *types.QueryContext, req *types.QueryRequest) []chat.Message {
	var history []types.SessionMessage
	if qctx.Memory != nil {
		history = qctx.Memory.RecentHistory
	}
	messages := make([]chat.Message, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, chat.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, chat.Message{Role: "user", Content: req.Query})
	return messages
}

func (o *Orchestrator) ladderFor(tier types.ModelTier) *llm.Ladder {
	if l, ok := o.ladders[tier]; ok && l != nil {
		return l
	}
	return o.defaultLadder
}

// callLLM runs the bounded tool-call loop: call the ladder, and if the
// response carries tool calls, execute each via the tool executor and feed
// the results back as tool-role messages until the model stops calling
// tools or the hop limit is reached (§4.13 step 6).
func (o *Orchestrator) callLLM(ctx context.Context, qctx *types.QueryContext, messages []chat.Message) (*types.ChatResponse, string, error) {
	ladder := o.ladderFor(qctx.SuggestedTier)
	if ladder == nil {
		return nil, "", fmt.Errorf("orchestrator: no ladder configured for tier %q: %w", qctx.SuggestedTier, types.ErrLLMUnavailable)
	}

	opts := &chat.ChatOptions{System: qctx.SystemPrompt}
	if o.tools != nil {
		opts.Tools = toolDeclarations(o.tools.Tools())
	}

	for hop := 0; ; hop++ {
		resp, modelUsed, err := ladder.Chat(ctx, messages, opts)
		if err != nil {
			return nil, "", err
		}
		if len(resp.ToolCalls) == 0 || o.tools == nil || hop >= o.toolHopLimit {
			return resp, modelUsed, nil
		}

		qctx.ToolHops++
		messages = append(messages, assistantToolCallMessage(resp))
		for _, tc := range resp.ToolCalls {
			result := o.tools.Execute(ctx, toExecutorCall(tc))
			messages = append(messages, chat.Message{
				Role:    "tool",
				Name:    result.ToolUseID,
				Content: result.Content,
			})
		}
	}
}

func assistantToolCallMessage(resp *types.ChatResponse) chat.Message {
	msg := chat.Message{Role: "assistant", Content: resp.Content}
	for _, tc := range resp.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, chat.ToolCall{
			ID: tc.ID,
			Function: chat.FunctionDef{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return msg
}

func toExecutorCall(tc types.LLMToolCall) interfaces.ToolCall {
	var input map[string]interface{}
	_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
	return interfaces.ToolCall{ID: tc.ID, Name: tc.Function.Name, Input: input}
}

func toolDeclarations(tools []interfaces.Tool) []chat.Tool {
	decls := make([]chat.Tool, 0, len(tools))
	for _, t := range tools {
		schema, _ := json.Marshal(t.Schema())
		decls = append(decls, chat.Tool{
			Type: "function",
			Function: chat.FunctionDef{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  schema,
			},
		})
	}
	return decls
}

// persist appends the turn to session history, extracts any new profile
// facts, and refreshes the user's usage counters. Writes for a given user
// are serialized via userLocks (§5) so two requests from the same user
// can't interleave their history/memory writes; all of it is best-effort —
// a persistence failure degrades the next turn's context, not this one's
// answer.
func (o *Orchestrator) persist(ctx context.Context, qctx *types.QueryContext, req *types.QueryRequest, answer string) {
	if qctx.UserID != "" {
		unlock := o.userLocks.lock(qctx.UserID)
		defer unlock()
	}

	if o.sessions != nil && qctx.SessionID != "" {
		userMsg := types.SessionMessage{Role: "user", Content: req.Query}
		assistantMsg := types.SessionMessage{Role: "assistant", Content: answer}
		if err := o.sessions.AppendMessage(ctx, qctx.SessionID, userMsg, o.sessionTTLSec); err != nil {
			logrus.WithError(err).Warn("orchestrator: append user message failed")
		}
		if err := o.sessions.AppendMessage(ctx, qctx.SessionID, assistantMsg, o.sessionTTLSec); err != nil {
			logrus.WithError(err).Warn("orchestrator: append assistant message failed")
		}
	}

	if o.store == nil || qctx.UserID == "" {
		return
	}
	mem, err := o.store.GetUserMemory(ctx, qctx.UserID)
	if err != nil {
		mem = &types.UserMemory{UserID: qctx.UserID}
	}
	var counters types.MemoryCounters
	if len(mem.Counters) > 0 {
		_ = json.Unmarshal(mem.Counters, &counters)
	}
	counters.Conversations++
	encoded, err := json.Marshal(counters)
	if err != nil {
		return
	}
	mem.Counters = encoded

	o.extractMemory(ctx, qctx, req.Query, answer, mem)

	if err := o.store.UpsertUserMemory(ctx, mem); err != nil {
		logrus.WithError(err).Warn("orchestrator: upsert user memory failed")
	}
}

// extractedMemory is the JSON shape the fact-extraction call is asked to
// return.
type extractedMemory struct {
	Facts   []string `json:"facts"`
	Summary string   `json:"summary"`
}

// extractMemory runs a cheap LLM call over this turn to pull out any new
// durable facts about the user and refresh the rolling summary (§4.13 step
// 8: "extract new facts via a cheap LLM call; upsert to memory (dedup)").
// mem is mutated in place; a failure here (no ladder configured, call
// error, unparsable response) just means memory doesn't improve this turn.
func (o *Orchestrator) extractMemory(ctx context.Context, qctx *types.QueryContext, query, answer string, mem *types.UserMemory) {
	ladder := o.ladderFor(types.ModelTierFast)
	if ladder == nil {
		return
	}

	system := "Extract any new durable facts about the user from this exchange (business type, nationality, visa or tax " +
		"status, goals, preferences). Reply with JSON only, no prose: " +
		`{"facts": ["..."], "summary": "..."}` +
		". facts is a short list of NEW standalone facts not already covered below; return an empty list if nothing new " +
		"was learned. summary is a one-paragraph rolling summary of the conversation so far, rewritten from the previous " +
		"summary to include this turn."
	prompt := fmt.Sprintf(
		"Known facts: %s\nPrevious summary: %s\n\nUser: %s\nAssistant: %s",
		strings.Join([]string(mem.ProfileFacts), "; "), mem.Summary, query, answer,
	)

	resp, _, err := ladder.Chat(ctx, []chat.Message{{Role: "user", Content: prompt}}, &chat.ChatOptions{System: system})
	if err != nil {
		logrus.WithError(err).WithField("user_id", qctx.UserID).Warn("orchestrator: memory fact extraction failed")
		return
	}

	var extracted extractedMemory
	if err := json.Unmarshal([]byte(stripJSONFence(resp.Content)), &extracted); err != nil {
		logrus.WithError(err).WithField("user_id", qctx.UserID).Warn("orchestrator: memory fact extraction returned unparsable JSON")
		return
	}

	mem.ProfileFacts = types.StringArray(dedupFacts(append([]string(mem.ProfileFacts), extracted.Facts...)))
	if summary := strings.TrimSpace(extracted.Summary); summary != "" {
		mem.Summary = utils.TruncateEllipsis(summary, memorySummaryMaxChars)
	}
}

// dedupFacts drops blank entries and case-insensitive duplicates (keeping
// the first occurrence), then caps the result to the most recently added
// maxProfileFacts entries.
func dedupFacts(facts []string) []string {
	seen := make(map[string]bool, len(facts))
	out := make([]string, 0, len(facts))
	for _, f := range facts {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		key := strings.ToLower(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	if len(out) > maxProfileFacts {
		out = out[len(out)-maxProfileFacts:]
	}
	return out
}

// stripJSONFence removes a ```json ... ``` or ``` ... ``` wrapper some
// providers add around JSON output despite being asked for JSON only.
func stripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func sourceRefs(qctx *types.QueryContext) []types.SourceRef {
	if qctx.RetrievalResult == nil {
		return nil
	}
	refs := make([]types.SourceRef, 0, len(qctx.RetrievalResult.Results))
	for _, p := range qctx.RetrievalResult.Results {
		refs = append(refs, types.SourceRef{
			DocID:      p.DocID,
			Title:      p.Title,
			ChunkIndex: p.ChunkIndex,
			Score:      p.Score,
		})
	}
	return refs
}

func conflictNotes(qctx *types.QueryContext) []types.ConflictNote {
	if qctx.RetrievalResult == nil {
		return nil
	}
	return qctx.RetrievalResult.ConflictsFound
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
