package common

import "github.com/Balizero1987/ayo-sub004/internal/types"

// fallbackMessages is the localized-message table for §7: "LLM exhaustion
// after all fallback tiers returns a localized fallback message keyed by
// error kind and language (en/it/id minimum)".
var fallbackMessages = map[types.Language]string{
	types.LanguageEN: "I'm having trouble reaching our answer engine right now. Please try again in a moment.",
	types.LanguageIT: "Al momento non riesco a raggiungere il motore di risposta. Riprova tra poco.",
	types.LanguageID: "Saat ini saya kesulitan menjangkau mesin jawaban kami. Silakan coba lagi sebentar lagi.",
}

// FallbackMessage returns the localized LLM-exhaustion fallback text,
// defaulting to English when the language is unrecognized.
func FallbackMessage(lang types.Language) string {
	if msg, ok := fallbackMessages[lang]; ok {
		return msg
	}
	return fallbackMessages[types.LanguageEN]
}
