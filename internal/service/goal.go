package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/goalplanner/internal/apperr"
	"github.com/templui/goalplanner/internal/generation"
	"github.com/templui/goalplanner/internal/model"
	"github.com/templui/goalplanner/internal/repository"
	"github.com/templui/goalplanner/internal/validation"
)

var (
	ErrGoalRequired     = apperr.New(apperr.ErrInvalidInput, "goal is required")
	ErrSubgoalsRequired = apperr.New(apperr.ErrInvalidInput, "goal needs at least one subgoal")
)

// GenerateResult is the outcome of a successful generation. When the goal
// could not be stored Persisted is false, Warning says why and Goal has no ID.
type GenerateResult struct {
	Goal      *model.Goal
	Persisted bool
	Warning   string
}

// GenerateOutcome is delivered by GenerateAsync.
type GenerateOutcome struct {
	Result *GenerateResult
	Err    error
}

// GoalPatch holds the fields of an update; nil fields are left unchanged.
type GoalPatch struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Deadline    *model.Date `json:"deadline"`
}

type GoalService struct {
	repo      repository.GoalRepository
	client    generation.Client
	validator *generation.Validator
}

func NewGoalService(
	repo repository.GoalRepository,
	client generation.Client,
	validator *generation.Validator,
) *GoalService {
	if validator == nil {
		validator = generation.NewValidator(time.Now)
	}
	return &GoalService{
		repo:      repo,
		client:    client,
		validator: validator,
	}
}

// Generate turns a free-text prompt into a stored goal. Each stage consumes
// only the previous stage's output and failures surface once, unretried.
func (s *GoalService) Generate(ctx context.Context, prompt string) (*GenerateResult, error) {
	sanitized, err := validation.SanitizePrompt(prompt)
	if err != nil {
		return nil, err
	}

	envelope, err := s.client.Generate(ctx, generation.BuildGoalPrompt(sanitized))
	if err != nil {
		if apperr.KindOf(err) == nil {
			err = apperr.Wrap(apperr.ErrUpstreamUnavailable, err, "generation failed")
		}
		return nil, err
	}

	candidate, err := generation.ExtractCandidateJSON(envelope)
	if err != nil {
		slog.Error("malformed generation envelope", "error", err)
		return nil, err
	}

	provisional, err := generation.ParseProvisional(candidate)
	if err != nil {
		slog.Warn("generated goal is not JSON", "error", err)
		return nil, err
	}

	validated, err := s.validator.ValidateAndFix(provisional)
	if err != nil {
		slog.Warn("generated goal rejected", "error", err)
		return nil, err
	}

	goal, err := generation.Assemble(validated)
	if err != nil {
		return nil, err
	}

	saved, err := s.repo.Save(ctx, goal)
	if err != nil {
		slog.Error("generated goal not saved", "error", err, "title", goal.Title)
		return &GenerateResult{
			Goal:      goal,
			Persisted: false,
			Warning:   "goal was generated but could not be saved: " + apperr.Message(err),
		}, nil
	}

	slog.Info("goal generated", "goal_id", saved.ID, "subgoals", len(saved.Subgoals))
	return &GenerateResult{Goal: saved, Persisted: true}, nil
}

// GenerateAsync runs Generate on its own goroutine. The channel receives
// exactly one outcome and is then closed.
func (s *GoalService) GenerateAsync(ctx context.Context, prompt string) <-chan GenerateOutcome {
	out := make(chan GenerateOutcome, 1)
	go func() {
		defer close(out)
		result, err := s.Generate(ctx, prompt)
		out <- GenerateOutcome{Result: result, Err: err}
	}()
	return out
}

// Save creates or fully replaces a goal without generation.
func (s *GoalService) Save(ctx context.Context, goal *model.Goal) (*model.Goal, error) {
	if goal == nil {
		return nil, ErrGoalRequired
	}

	g := goal.Clone()
	g.Title = strings.TrimSpace(g.Title)
	if err := validation.ValidateTitle(g.Title); err != nil {
		return nil, err
	}
	g.Description = strings.TrimSpace(g.Description)
	if g.Description == "" {
		g.Description = model.DefaultDescription
	}
	if g.Deadline.IsZero() {
		g.Deadline = s.validator.DefaultDeadline()
	}

	if len(g.Subgoals) == 0 {
		return nil, ErrSubgoalsRequired
	}
	for i := range g.Subgoals {
		sub := &g.Subgoals[i]
		sub.Title = strings.TrimSpace(sub.Title)
		if err := validation.ValidateTitle(sub.Title); err != nil {
			return nil, err
		}
		sub.Description = strings.TrimSpace(sub.Description)
		if sub.Description == "" {
			sub.Description = model.DefaultDescription
		}
	}

	return s.repo.Save(ctx, g)
}

// Update applies patch to an existing goal. ok is false when id is unknown.
func (s *GoalService) Update(ctx context.Context, id int64, patch GoalPatch) (*model.Goal, bool, error) {
	goal, ok, err := s.repo.ByID(ctx, id)
	if err != nil || !ok {
		return nil, ok, err
	}

	if patch.Title != nil {
		goal.Title = *patch.Title
	}
	if patch.Description != nil {
		goal.Description = *patch.Description
	}
	if patch.Deadline != nil {
		goal.Deadline = *patch.Deadline
	}

	saved, err := s.Save(ctx, goal)
	if err != nil {
		return nil, false, err
	}
	return saved, true, nil
}

func (s *GoalService) ByID(ctx context.Context, id int64) (*model.Goal, bool, error) {
	return s.repo.ByID(ctx, id)
}

func (s *GoalService) ByTitle(ctx context.Context, title string) (*model.Goal, bool, error) {
	return s.repo.ByTitle(ctx, title)
}

func (s *GoalService) All(ctx context.Context) ([]*model.Goal, error) {
	return s.repo.All(ctx)
}

func (s *GoalService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// DeleteByTitle deletes the first goal titled title. ok is false when none exists.
func (s *GoalService) DeleteByTitle(ctx context.Context, title string) (bool, error) {
	goal, ok, err := s.repo.ByTitle(ctx, title)
	if err != nil || !ok {
		return false, err
	}

	err = s.repo.Delete(ctx, goal.ID)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *GoalService) SetSubgoalCompleted(ctx context.Context, id int64, subgoalTitle string, completed bool) (*model.Goal, bool, error) {
	if err := validation.ValidateTitle(subgoalTitle); err != nil {
		return nil, false, err
	}
	return s.repo.SetSubgoalCompleted(ctx, id, subgoalTitle, completed)
}

// SetSubgoalCompletedByTitle resolves the goal by title first.
func (s *GoalService) SetSubgoalCompletedByTitle(ctx context.Context, goalTitle, subgoalTitle string, completed bool) (*model.Goal, bool, error) {
	goal, ok, err := s.repo.ByTitle(ctx, goalTitle)
	if err != nil || !ok {
		return nil, false, err
	}
	return s.SetSubgoalCompleted(ctx, goal.ID, subgoalTitle, completed)
}
