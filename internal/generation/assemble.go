package generation

import (
	"github.com/templui/goalplanner/internal/apperr"
	"github.com/templui/goalplanner/internal/model"
)

// Assemble converts a validated record into a Goal. The goal has no durable
// ID and its subgoals have no GoalID; the store assigns both together.
func Assemble(v ValidatedGoal) (*model.Goal, error) {
	deadline, err := model.ParseDate(v.Deadline)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInvalidGeneratedGoal, err, "deadline is not canonical")
	}

	goal := &model.Goal{
		Title:       v.Title,
		Description: v.Description,
		Deadline:    deadline,
		Subgoals:    make([]model.Subgoal, 0, len(v.Subgoals)),
		DraftID:     v.ID,
	}
	for _, s := range v.Subgoals {
		goal.Subgoals = append(goal.Subgoals, model.Subgoal{
			Title:       s.Title,
			Description: s.Description,
			Completed:   false,
		})
	}

	return goal, nil
}
