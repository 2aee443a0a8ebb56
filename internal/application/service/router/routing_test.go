package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoutePricingTakesPrecedenceOverOverride(t *testing.T) {
	intent := Classify("What is the price for a KITAS?")
	decision := Route("What is the price for a KITAS?", intent, "legal-unified")
	assert.True(t, decision.IsPricing)
	assert.Equal(t, "pricing", decision.CollectionName)
}

func TestRouteExplicitOverrideWins(t *testing.T) {
	intent := Classify("Tell me about taxes")
	decision := Route("Tell me about taxes", intent, "legal-unified")
	assert.False(t, decision.IsPricing)
	assert.Equal(t, "legal-unified", decision.CollectionName)
}

func TestRouteTeamQueryUsesRequiredCollection(t *testing.T) {
	intent := Classify("Tell me about the team members")
	decision := Route("Tell me about the team members", intent, "")
	assert.Equal(t, "bali_zero_team", decision.CollectionName)
}

func TestRouteFallsBackToContentBasedCollection(t *testing.T) {
	intent := Classify("What are the requirements for paying PPh taxes?")
	decision := Route("What are the requirements for paying PPh taxes?", intent, "")
	assert.Equal(t, "tax", decision.CollectionName)
}

func TestRouteGenericWhenNothingMatches(t *testing.T) {
	intent := Classify("random notes about office supplies")
	decision := Route("random notes about office supplies", intent, "")
	assert.Equal(t, "generic", decision.CollectionName)
}
