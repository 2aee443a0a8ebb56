package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Balizero1987/ayo-sub004/internal/types"
)

func TestClassifyExactGreeting(t *testing.T) {
	intent := Classify("Ciao")
	assert.Equal(t, types.IntentGreeting, intent.Category)
	assert.Equal(t, 1.0, intent.Confidence)
	assert.Equal(t, types.ModelTierFast, intent.SuggestedModelTier)
	assert.True(t, intent.RequireMemory)
	assert.Equal(t, types.ModeGreeting, intent.Mode)
}

func TestClassifyIdentityTakesPriorityOverSession(t *testing.T) {
	intent := Classify("Who am I, do you know me?")
	assert.Equal(t, types.IntentIdentity, intent.Category)
	assert.True(t, intent.RequiresTeamContext)
	assert.Equal(t, types.ModeIdentityResponse, intent.Mode)
}

func TestClassifyTeamQuery(t *testing.T) {
	intent := Classify("Tell me about the team members")
	assert.Equal(t, types.IntentTeamQuery, intent.Category)
	assert.Equal(t, "bali_zero_team", intent.RequiresRAGCollection)
}

func TestClassifySessionState(t *testing.T) {
	intent := Classify("I want to login now")
	assert.Equal(t, types.IntentSessionState, intent.Category)
	assert.True(t, intent.RequireMemory)
	assert.Equal(t, types.ModeSmallTalk, intent.Mode)
}

func TestClassifyCasual(t *testing.T) {
	intent := Classify("How are you today?")
	assert.Equal(t, types.IntentCasual, intent.Category)
	assert.Equal(t, types.ModeSmallTalk, intent.Mode)
}

func TestClassifyEmotional(t *testing.T) {
	intent := Classify("saya sedih hari ini")
	assert.Equal(t, types.IntentCasual, intent.Category)
}

func TestClassifyBusinessStrategicOnDeepThinkKeyword(t *testing.T) {
	intent := Classify("What is the best strategy and risk assessment for opening a PT PMA?")
	assert.Equal(t, types.IntentBusinessStrategic, intent.Category)
	assert.Equal(t, types.ModelTierDeepThink, intent.SuggestedModelTier)
}

func TestClassifyBusinessComplexOnLongMessage(t *testing.T) {
	long := "I need detailed information about my KITAS application " + strings.Repeat("please help me understand every step ", 3)
	intent := Classify(long)
	assert.Equal(t, types.IntentBusinessComplex, intent.Category)
	assert.Equal(t, types.ModelTierPro, intent.SuggestedModelTier)
}

func TestClassifyBusinessSimpleShortQuestion(t *testing.T) {
	intent := Classify("What is KBLI?")
	assert.Equal(t, types.IntentBusinessSimple, intent.Category)
	assert.Equal(t, types.ModelTierFast, intent.SuggestedModelTier)
}

func TestClassifyBusinessMediumDefaultsToPro(t *testing.T) {
	intent := Classify("I am interested in visa options for my family")
	assert.Equal(t, types.IntentBusinessSimple, intent.Category)
	assert.Equal(t, types.ModelTierPro, intent.SuggestedModelTier)
}

func TestClassifyDevCode(t *testing.T) {
	intent := Classify("I have a bug in my python function, can you debug it?")
	assert.Equal(t, types.IntentDevCode, intent.Category)
	assert.Equal(t, types.ModelTierDev, intent.SuggestedModelTier)
	assert.Equal(t, types.ModeTechnical, intent.Mode)
}

func TestClassifyFallbackShortNonBusinessIsCasual(t *testing.T) {
	intent := Classify("ok thanks")
	assert.Equal(t, types.IntentCasual, intent.Category)
}

func TestClassifyFallbackLongNonBusinessIsBusinessSimple(t *testing.T) {
	long := strings.Repeat("random words with no recognized pattern at all ", 3)
	intent := Classify(long)
	assert.Equal(t, types.IntentBusinessSimple, intent.Category)
}

func TestClassifyProcedureGuideMode(t *testing.T) {
	intent := Classify("How to apply for a business visa, what is the procedure?")
	assert.Equal(t, types.ModeProcedureGuide, intent.Mode)
}

func TestClassifyRiskExplainerMode(t *testing.T) {
	intent := Classify("What is the risk and penalty for an illegal business license?")
	assert.Equal(t, types.ModeRiskExplainer, intent.Mode)
}
