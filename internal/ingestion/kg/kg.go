// Package kg implements C6: LLM-based entity/relationship extraction over a
// document's leading chunks, canonicalized into idempotent graph upserts.
package kg

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/types"
	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

// entityNamespace fixes deterministic entity ids across ingestion runs,
// independent of the document-hierarchy namespace used for chunk/point ids.
var entityNamespace = uuid.MustParse("7a9f3b5e-2c1d-4e8a-9b6f-1d4c8a2e5f7b")

const (
	// maxChunksPerDocument bounds how many leading chunks are sent to the
	// LLM per document, per §4.6 ("in practice: first 1-2 per document").
	maxChunksPerDocument = 2
	minChunkChars        = 50
)

// extractedEntity/extractedRelationship mirror the LLM's raw output before
// canonicalization; json tags drive both the schema generation and the
// response decode.
type extractedEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type extractedRelationship struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type extractionResult struct {
	Entities      []extractedEntity       `json:"entities"`
	Relationships []extractedRelationship `json:"relationships"`
}

// Graph is the canonicalized output of Build, ready for an idempotent
// upsert through the relational store.
type Graph struct {
	Entities      []types.KGEntity
	Relationships []types.KGRelationship
}

const systemPrompt = `You extract entities and relationships from Indonesian legal and business text.
Respond only with JSON matching the given schema. Entities have a name and a
type (e.g. organization, person, law, regulation, location, concept).
Relationships reference entities by name and carry a type and a short
description. If nothing can be extracted, return empty arrays.`

// Build calls the chat model over the first chunks of a document (capped at
// maxChunksPerDocument) and canonicalizes the result into a Graph. LLM
// failures are logged and yield an empty graph rather than propagating —
// knowledge-graph enrichment is never allowed to fail ingestion.
func Build(ctx context.Context, model chat.Chat, documentID string, chunks []types.Chunk) Graph {
	var merged extractionResult
	for i, c := range chunks {
		if i >= maxChunksPerDocument {
			break
		}
		if len(strings.TrimSpace(c.Text)) < minChunkChars {
			continue
		}
		result, err := extractOne(ctx, model, c.Text)
		if err != nil {
			logrus.WithError(err).WithField("document_id", documentID).Warn("kg: extraction failed, skipping chunk")
			continue
		}
		merged.Entities = append(merged.Entities, result.Entities...)
		merged.Relationships = append(merged.Relationships, result.Relationships...)
	}
	return canonicalize(merged)
}

func extractOne(ctx context.Context, model chat.Chat, text string) (extractionResult, error) {
	schema := utils.GenerateSchema[extractionResult]()
	messages := []chat.Message{
		{Role: "user", Content: text},
	}
	resp, err := model.Chat(ctx, messages, &chat.ChatOptions{
		System:      systemPrompt,
		Format:      schema,
		Temperature: 0,
	})
	if err != nil {
		return extractionResult{}, fmt.Errorf("kg: chat call: %w", err)
	}

	var result extractionResult
	if err := json.Unmarshal([]byte(resp.Content), &result); err != nil {
		return extractionResult{}, fmt.Errorf("kg: decode extraction: %w", err)
	}
	return result, nil
}

// canonicalize lowercases and underscores entity names, truncates to 64
// chars, deterministically ids them, and synthesizes entities that are only
// referenced from a relationship's source/target.
func canonicalize(raw extractionResult) Graph {
	entityByName := make(map[string]types.KGEntity)

	addEntity := func(name, entityType string) types.KGEntity {
		canonical := canonicalName(name)
		if canonical == "" {
			return types.KGEntity{}
		}
		if existing, ok := entityByName[canonical]; ok {
			return existing
		}
		e := types.KGEntity{
			ID:   entityID(canonical),
			Name: canonical,
			Type: entityType,
		}
		if e.Type == "" {
			e.Type = "unknown"
		}
		entityByName[canonical] = e
		return e
	}

	for _, e := range raw.Entities {
		addEntity(e.Name, e.Type)
	}

	var relationships []types.KGRelationship
	for _, r := range raw.Relationships {
		source := addEntity(r.Source, "")
		target := addEntity(r.Target, "")
		if source.ID == "" || target.ID == "" {
			continue
		}
		relType := canonicalName(r.Type)
		if relType == "" {
			relType = "related_to"
		}
		properties, _ := json.Marshal(map[string]string{"description": r.Description})
		relationships = append(relationships, types.KGRelationship{
			SourceEntityID:   source.ID,
			TargetEntityID:   target.ID,
			RelationshipType: relType,
			Properties:       types.JSON(properties),
		})
	}

	entities := make([]types.KGEntity, 0, len(entityByName))
	for _, e := range entityByName {
		entities = append(entities, e)
	}

	return Graph{Entities: entities, Relationships: relationships}
}

const maxEntityNameChars = 64

func canonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.Join(strings.Fields(name), " ")
	name = strings.ReplaceAll(name, " ", "_")
	if len(name) > maxEntityNameChars {
		name = name[:maxEntityNameChars]
	}
	return name
}

func entityID(canonicalName string) string {
	return uuid.NewSHA1(entityNamespace, []byte(canonicalName)).String()
}
