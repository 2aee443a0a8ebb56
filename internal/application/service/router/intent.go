// Package router implements C8: a pure, pattern-based classifier that maps
// a user message to an intent category, suggested model tier, and
// communication mode, without calling any LLM (§4.8).
package router

import (
	"strings"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

var simpleGreetings = map[string]bool{
	"ciao": true, "hello": true, "hi": true, "hey": true,
	"salve": true, "buongiorno": true, "buonasera": true,
	"halo": true, "hallo": true,
}

var identityKeywords = []string{
	"chi sono", "chi sono io", "chi sei", "mi conosci", "sai chi sono",
	"cosa sai di me", "il mio nome", "il mio ruolo", "mi riconosci",
	"who am i", "who am i?", "do you know me", "my name", "my role",
	"recognize me", "who is this",
	"siapa saya", "siapa aku", "apakah kamu kenal saya", "nama saya", "kenal saya",
}

var teamQueryKeywords = []string{
	"team", "membri", "colleghi", "chi lavora", "quanti siamo", "dipartimento",
	"bali zero team", "conosci i membri", "parlami del team",
	"team members", "colleagues", "who works", "department",
	"know the members", "tell me about the team",
	"tim", "anggota tim", "rekan kerja",
}

var sessionPatterns = []string{
	"login", "log in", "sign in", "signin", "masuk", "accedi",
	"logout", "log out", "sign out", "signout", "keluar", "esci",
}

var casualPatterns = []string{
	"come stai", "how are you", "come va", "tutto bene", "apa kabar",
	"what's up", "whats up", "sai chi sono", "do you know me",
	"know who i am", "recognize me", "remember me", "mi riconosci",
}

var emotionalPatterns = []string{
	"aku malu", "saya malu", "i'm embarrassed", "i feel embarrassed", "sono imbarazzato",
	"aku sedih", "saya sedih", "i'm sad", "i feel sad", "sono triste", "mi sento giù",
	"aku khawatir", "saya khawatir", "i'm worried", "i worry", "sono preoccupato", "mi preoccupa",
	"aku kesepian", "saya kesepian", "i'm lonely", "i feel lonely", "mi sento solo",
	"aku stress", "saya stress", "i'm stressed", "sono stressato", "mi sento sopraffatto",
	"aku takut", "saya takut", "i'm scared", "i'm afraid", "ho paura",
	"aku senang", "saya senang", "i'm happy", "sono felice", "che bello",
}

var businessKeywords = []string{
	"visa", "company", "business", "investimento", "investment", "tax", "pajak",
	"immigration", "imigrasi", "permit", "license", "regulation", "real estate",
	"property", "kbli", "nib", "oss", "work permit", "kitas", "kitap", "pma",
	"pt", "cv", "investor", "investitori", "voa", "b211", "211a", "e33g", "e28a",
	"legale", "leggi", "contratto", "memoria", "ricordo", "cliente", "crm",
	"funzioni", "servizi", "errore", "sistema", "conoscenza", "documento",
	"informazione", "azienda", "consulenza", "cerca", "controlla", "puoi",
	"dimmi", "trova", "pratiche", "visti", "licenze", "tasse", "immigrazione",
}

var complexIndicators = []string{
	"how to", "how do i", "come si", "bagaimana cara", "cara untuk",
	"step", "process", "procedure", "prosedur", "langkah",
	"explain", "spiegare", "jelaskan", "detail", "dettaglio", "rincian",
	"requirement", "requisiti", "syarat", "what do i need", "cosa serve",
	" and ", " or ", " also ", " e ", " o ", " dan ", " atau ",
}

var deepThinkKeywords = []string{
	"strategy", "strategia", "strategi", "analysis", "analisi", "analisa",
	"compare", "confronta", "bandingkan", "pros and cons", "pro e contro",
	"kelebihan dan kekurangan", "recommendation", "raccomandazione",
	"rekomendasi", "plan", "piano", "rencana", "scenario", "risk assessment",
	"valutazione rischi", "rischi", "rischio", "conviene", "meglio",
	"migliore", "best option", "differenza", "difference", "vs",
}

var proKeywords = []string{
	"requisiti", "requirements", "costi", "costs", "prezzo", "price",
	"documenti", "documents", "procedura", "procedure", "come ottenere",
	"how to get", "durata", "duration", "validità", "validity", "tasse", "taxes",
}

var simplePatterns = []string{
	"what is", "what's", "cos'è", "apa itu", "cosa è", "who is", "chi è",
	"siapa", "when is", "quando", "kapan", "where is", "dove", "dimana",
}

var devCodeKeywords = []string{
	"code", "coding", "programming", "debug", "error", "bug", "function",
	"api", "devai", "typescript", "javascript", "python", "java", "react",
	"algorithm", "refactor", "optimize", "test", "unit test",
}

var procedureModeKeywords = []string{"how to", "come si", "step", "procedura", "process", "guide"}
var riskModeKeywords = []string{"risk", "rischio", "penalty", "sanzione", "illegal", "compliance"}

const shortMessageThreshold = 50
const longMessageThreshold = 100

// Intent is the classification result emitted by Classify (§4.8).
type Intent struct {
	Category            types.IntentCategory
	Confidence           float64
	SuggestedModelTier   types.ModelTier
	RequireMemory        bool
	RequiresTeamContext  bool
	RequiresRAGCollection string
	Mode                 types.Mode
}

// Classify maps a raw user message to an Intent, following a fixed decision
// order: exact greeting -> identity -> team query -> session state ->
// casual/emotional -> business (with sub-classification) -> dev-code ->
// fallback.
func Classify(message string) Intent {
	lower := strings.ToLower(strings.TrimSpace(message))

	if simpleGreetings[lower] {
		return withMode(Intent{
			Category:           types.IntentGreeting,
			Confidence:         1.0,
			SuggestedModelTier: types.ModelTierFast,
			RequireMemory:      true,
		}, lower)
	}

	if containsAny(lower, identityKeywords) {
		return withMode(Intent{
			Category:            types.IntentIdentity,
			Confidence:          0.95,
			SuggestedModelTier:  types.ModelTierFast,
			RequiresTeamContext: true,
		}, lower)
	}

	if containsAny(lower, teamQueryKeywords) {
		return withMode(Intent{
			Category:              types.IntentTeamQuery,
			Confidence:             0.9,
			SuggestedModelTier:     types.ModelTierFast,
			RequiresRAGCollection: "bali_zero_team",
		}, lower)
	}

	if containsAny(lower, sessionPatterns) {
		return withMode(Intent{
			Category:           types.IntentSessionState,
			Confidence:         1.0,
			SuggestedModelTier: types.ModelTierFast,
			RequireMemory:      true,
		}, lower)
	}

	if containsAny(lower, casualPatterns) || containsAny(lower, emotionalPatterns) {
		return withMode(Intent{
			Category:           types.IntentCasual,
			Confidence:         1.0,
			SuggestedModelTier: types.ModelTierFast,
		}, lower)
	}

	if containsAny(lower, businessKeywords) {
		return withMode(classifyBusiness(message, lower), lower)
	}

	if containsAny(lower, devCodeKeywords) {
		return withMode(Intent{
			Category:           types.IntentDevCode,
			Confidence:         0.9,
			SuggestedModelTier: types.ModelTierDev,
		}, lower)
	}

	if len(message) < shortMessageThreshold && !containsAny(lower, businessKeywords) {
		return withMode(Intent{
			Category:           types.IntentCasual,
			Confidence:         0.7,
			SuggestedModelTier: types.ModelTierFast,
		}, lower)
	}
	return withMode(Intent{
		Category:           types.IntentBusinessSimple,
		Confidence:         0.7,
		SuggestedModelTier: types.ModelTierFast,
	}, lower)
}

func classifyBusiness(original, lower string) Intent {
	hasDeepThink := containsAny(lower, deepThinkKeywords)
	hasPro := containsAny(lower, proKeywords)
	hasComplex := containsAny(lower, complexIndicators)
	isSimple := containsAny(lower, simplePatterns)

	switch {
	case hasDeepThink:
		return Intent{
			Category:           types.IntentBusinessStrategic,
			Confidence:         0.95,
			SuggestedModelTier: types.ModelTierDeepThink,
		}
	case hasPro || hasComplex || len(original) > longMessageThreshold:
		return Intent{
			Category:           types.IntentBusinessComplex,
			Confidence:         0.9,
			SuggestedModelTier: types.ModelTierPro,
		}
	case isSimple && len(original) < shortMessageThreshold:
		return Intent{
			Category:           types.IntentBusinessSimple,
			Confidence:         0.9,
			SuggestedModelTier: types.ModelTierFast,
		}
	default:
		return Intent{
			Category:           types.IntentBusinessSimple,
			Confidence:         0.8,
			SuggestedModelTier: types.ModelTierPro,
		}
	}
}

// withMode fills in the Mode field, mirroring the category+content mapping
// used across the business sub-categories.
func withMode(intent Intent, lower string) Intent {
	switch intent.Category {
	case types.IntentGreeting:
		intent.Mode = types.ModeGreeting
		return intent
	case types.IntentCasual, types.IntentSessionState:
		intent.Mode = types.ModeSmallTalk
		return intent
	case types.IntentIdentity:
		intent.Mode = types.ModeIdentityResponse
		return intent
	case types.IntentDevCode:
		intent.Mode = types.ModeTechnical
		return intent
	}

	if strings.HasPrefix(string(intent.Category), "business") {
		switch {
		case containsAny(lower, procedureModeKeywords):
			intent.Mode = types.ModeProcedureGuide
		case containsAny(lower, riskModeKeywords):
			intent.Mode = types.ModeRiskExplainer
		case intent.Category == types.IntentBusinessComplex || len(lower) > longMessageThreshold:
			intent.Mode = types.ModeLegalDeep
		default:
			intent.Mode = types.ModeLegalBrief
		}
		return intent
	}

	intent.Mode = types.ModeSmallTalk
	return intent
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
