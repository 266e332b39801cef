package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildGoalPrompt(t *testing.T) {
	p := BuildGoalPrompt("learn to bake bread")

	assert.Contains(t, p, `Goal description: "learn to bake bread"`)
	for _, field := range []string{`"id"`, `"title"`, `"description"`, `"deadline"`, `"subgoals"`} {
		assert.Contains(t, p, field)
	}
	assert.Contains(t, p, "3 to 7 subgoals")
	assert.Contains(t, p, "YYYY-MM-DD")
	assert.Contains(t, p, "markdown")
}

func TestBuildGoalPromptDeterministic(t *testing.T) {
	assert.Equal(t, BuildGoalPrompt("run a 10k"), BuildGoalPrompt("run a 10k"))
	assert.NotEqual(t, BuildGoalPrompt("run a 10k"), BuildGoalPrompt("run a 5k"))
}
