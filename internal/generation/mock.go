package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MockClient returns a canned, fenced envelope derived from the prompt. It is
// used when no generative service is configured.
type MockClient struct {
	Now func() time.Time
}

func NewMockClient() *MockClient {
	return &MockClient{Now: time.Now}
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	title := "Plan"
	if desc := extractGoalDescription(prompt); desc != "" {
		title = desc
	}

	payload := map[string]any{
		"id":          "1",
		"title":       title,
		"description": fmt.Sprintf("Work steadily towards: %s", title),
		"deadline":    m.Now().AddDate(0, 0, 60).Format("02/01/2006"),
		"subgoals": []map[string]string{
			{"title": "Research", "description": "Find out what " + title + " requires"},
			{"title": "Plan", "description": "Break the work into weekly milestones"},
			{"title": "Practice", "description": "Work on it for thirty minutes a day"},
		},
	}
	text, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}

	envelope := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": "```json\n" + string(text) + "\n```"}},
				},
			},
		},
	}
	out, err := json.Marshal(envelope)
	return string(out), err
}

// extractGoalDescription pulls the quoted description back out of a prompt
// built by BuildGoalPrompt, or returns the prompt itself.
func extractGoalDescription(prompt string) string {
	const marker = `Goal description: "`
	i := strings.LastIndex(prompt, marker)
	if i < 0 {
		return prompt
	}
	rest := prompt[i+len(marker):]
	if j := strings.LastIndex(rest, `"`); j >= 0 {
		return rest[:j]
	}
	return rest
}
