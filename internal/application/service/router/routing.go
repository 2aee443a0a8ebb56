package router

import (
	"regexp"

	"github.com/Balizero1987/ayo-sub004/internal/ingestion"
)

// pricingQueryPattern recognizes a price-focused question regardless of
// language, so pricing queries route to the pricing collection even when
// the intent classifier would otherwise call them business-simple.
var pricingQueryPattern = regexp.MustCompile(`(?i)\b(price|pricing|cost|fee|harga|biaya|tarif|prezzo|costo)\b`)

// RouteDecision is the collection-routing output combining intent category,
// any caller-supplied override, and pricing-pattern detection (§4.8).
type RouteDecision struct {
	CollectionName string
	Collections    []string
	Confidence     float64
	IsPricing      bool
}

// Route resolves the target collection(s) for a query. An explicit override
// wins unless the message matches the pricing pattern, which always takes
// precedence (§4.8: "Pricing takes precedence").
func Route(message string, intent Intent, override string) RouteDecision {
	if pricingQueryPattern.MatchString(message) {
		name := string(ingestion.CollectionPricing)
		return RouteDecision{
			CollectionName: name,
			Collections:    []string{name},
			Confidence:     0.95,
			IsPricing:      true,
		}
	}

	if override != "" {
		return RouteDecision{
			CollectionName: override,
			Collections:    []string{override},
			Confidence:     1.0,
		}
	}

	if intent.RequiresRAGCollection != "" {
		return RouteDecision{
			CollectionName: intent.RequiresRAGCollection,
			Collections:    []string{intent.RequiresRAGCollection},
			Confidence:     intent.Confidence,
		}
	}

	// Reuse the ingestion-time keyword routing (tax/visa/KBLI/property/
	// litigation/legal-unified/generic) for the query's own content, since
	// the same closed collection set and keyword rules apply on both sides.
	name := string(ingestion.RouteCollection("", message))
	return RouteDecision{
		CollectionName: name,
		Collections:    []string{name},
		Confidence:     intent.Confidence,
	}
}
