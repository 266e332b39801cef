package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalProgress(t *testing.T) {
	g := &Goal{Subgoals: []Subgoal{
		{Title: "Buy ingredients", Completed: true},
		{Title: "Make starter"},
		{Title: "Bake"},
	}}

	assert.Equal(t, "Make starter", g.CurrentSubgoal().Title)
	assert.Equal(t, 1, g.CompletedCount())
	assert.InDelta(t, 1.0/3, g.Progress(), 1e-9)
	assert.False(t, g.IsComplete())

	g.FindSubgoal("Make starter").Completed = true
	g.FindSubgoal("Bake").Completed = true
	assert.Nil(t, g.CurrentSubgoal())
	assert.True(t, g.IsComplete())
	assert.Nil(t, g.FindSubgoal("bake"))

	empty := &Goal{}
	assert.Zero(t, empty.Progress())
	assert.False(t, empty.IsComplete())
}

func TestAssignIDAndClone(t *testing.T) {
	g := &Goal{Subgoals: []Subgoal{{Title: "a"}, {Title: "b"}}}
	c := g.Clone()
	c.AssignID(7)

	assert.True(t, c.HasID())
	assert.Equal(t, int64(7), c.Subgoals[1].GoalID)
	assert.False(t, g.HasID())
	assert.Zero(t, g.Subgoals[1].GoalID)
}

func TestDateJSON(t *testing.T) {
	d := Date{Year: 2025, Month: time.February, Day: 28}

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2025-02-28"`, string(b))
	assert.Equal(t, Date{Year: 2025, Month: time.March, Day: 30}, d.AddDays(30))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)

	b, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	assert.Error(t, json.Unmarshal([]byte(`"28/02/2025"`), &back))
}

func TestGoalJSONOmitsDraftID(t *testing.T) {
	b, err := json.Marshal(&Goal{Title: "Read", DraftID: "1"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "DraftID")
	assert.Contains(t, string(b), `"title":"Read"`)
}
