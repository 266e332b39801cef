package model

import (
	"time"
)

const (
	DefaultDescription = "No description provided"
	UntitledGoal       = "Untitled Goal"
	UntitledSubgoal    = "Untitled Subgoal"
)

// Goal is the aggregate root. ID is zero until the goal has been persisted once.
type Goal struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    Date      `json:"deadline"`
	Subgoals    []Subgoal `json:"subgoals"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// DraftID is the placeholder id carried over from a generated response.
	// It is never stored and never becomes the durable ID.
	DraftID string `json:"-"`
}

// Subgoal is one step of a Goal. GoalID is a lookup back-reference only.
type Subgoal struct {
	GoalID      int64  `json:"goalId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// HasID reports whether the goal has a durable identifier.
func (g *Goal) HasID() bool {
	return g.ID != 0
}

// CurrentSubgoal returns the first incomplete subgoal, or nil when every
// subgoal is done.
func (g *Goal) CurrentSubgoal() *Subgoal {
	for i := range g.Subgoals {
		if !g.Subgoals[i].Completed {
			return &g.Subgoals[i]
		}
	}
	return nil
}

// FindSubgoal returns the first subgoal whose title matches exactly.
func (g *Goal) FindSubgoal(title string) *Subgoal {
	for i := range g.Subgoals {
		if g.Subgoals[i].Title == title {
			return &g.Subgoals[i]
		}
	}
	return nil
}

func (g *Goal) CompletedCount() int {
	n := 0
	for _, s := range g.Subgoals {
		if s.Completed {
			n++
		}
	}
	return n
}

// Progress is completed subgoals over total subgoals, 0 for a goal without any.
func (g *Goal) Progress() float64 {
	if len(g.Subgoals) == 0 {
		return 0
	}
	return float64(g.CompletedCount()) / float64(len(g.Subgoals))
}

func (g *Goal) IsComplete() bool {
	return len(g.Subgoals) > 0 && g.CompletedCount() == len(g.Subgoals)
}

// AssignID sets the durable id and back-fills it on every owned subgoal.
func (g *Goal) AssignID(id int64) {
	g.ID = id
	for i := range g.Subgoals {
		g.Subgoals[i].GoalID = id
	}
}

// Clone returns a deep copy so callers never share the subgoal slice.
func (g *Goal) Clone() *Goal {
	c := *g
	if g.Subgoals != nil {
		c.Subgoals = make([]Subgoal, len(g.Subgoals))
		copy(c.Subgoals, g.Subgoals)
	}
	return &c
}
