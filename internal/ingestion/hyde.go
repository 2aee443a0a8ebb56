package ingestion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Balizero1987/ayo-sub004/internal/models/chat"
	"github.com/Balizero1987/ayo-sub004/internal/utils"
)

type hydeQuestions struct {
	Questions []string `json:"questions"`
}

const hydeSystemPrompt = `Given a passage of Indonesian legal or business text, write short
hypothetical questions a user might ask that this passage would answer.
Respond only with JSON matching the schema.`

// generateHyde asks the chat model for `count` hypothetical questions over a
// chunk's text (HyDE, §4.7 step 7b). A failure degrades to no questions
// rather than aborting the chunk — HyDE improves recall, it doesn't gate it.
func generateHyde(ctx context.Context, model chat.Chat, text string, count int) []string {
	if model == nil || count <= 0 {
		return nil
	}
	schema := utils.GenerateSchema[hydeQuestions]()
	messages := []chat.Message{
		{Role: "user", Content: fmt.Sprintf("Generate %d questions for this passage:\n\n%s", count, text)},
	}
	resp, err := model.Chat(ctx, messages, &chat.ChatOptions{
		System:      hydeSystemPrompt,
		Format:      schema,
		Temperature: 0.2,
	})
	if err != nil {
		return nil
	}
	var result hydeQuestions
	if err := json.Unmarshal([]byte(resp.Content), &result); err != nil {
		return nil
	}
	if len(result.Questions) > count {
		result.Questions = result.Questions[:count]
	}
	return result.Questions
}
