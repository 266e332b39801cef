package generation

import "fmt"

const (
	MinSubgoals = 3
	MaxSubgoals = 7
)

const goalPromptTemplate = `You are an expert goal-setting assistant that turns a goal description into a structured, actionable plan.

Instructions:
1. Rewrite the goal as a SMART goal (Specific, Measurable, Achievable, Relevant, Time-bound).
2. Choose a realistic deadline for the main goal and write it as YYYY-MM-DD.
3. Break the goal into %d to %d subgoals, in the order they should be completed.
4. Every subgoal needs a short "title" and a short, actionable "description".
5. Respond with the JSON object only. Do not add explanations, prose, or markdown code fences.

The response must be exactly one JSON object with this shape:

{
  "id": "1",
  "title": "<main goal title>",
  "description": "<SMART goal description>",
  "deadline": "<YYYY-MM-DD>",
  "subgoals": [
    {
      "title": "<subgoal title>",
      "description": "<short actionable description>"
    }
  ]
}

Goal description: "%s"
`

// BuildGoalPrompt embeds an already sanitized goal description into the
// generation instructions. The output depends only on its input.
func BuildGoalPrompt(sanitizedPrompt string) string {
	return fmt.Sprintf(goalPromptTemplate, MinSubgoals, MaxSubgoals, sanitizedPrompt)
}
