package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/goalplanner/internal/apperr"
	"github.com/templui/goalplanner/internal/docstore"
	"github.com/templui/goalplanner/internal/generation"
	"github.com/templui/goalplanner/internal/model"
	"github.com/templui/goalplanner/internal/repository"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

const breadEnvelope = `{"candidates":[{"content":{"parts":[{"text":"` +
	"```json\\n" +
	`{\"id\":\"1\",\"title\":\"Learn to Bake Bread\",\"description\":\"Bake a loaf at home\",\"deadline\":\"2025-06-01\",\"subgoals\":[{\"title\":\"Buy ingredients\",\"description\":\"Flour, yeast, salt\"}]}` +
	"\\n```" +
	`"}]}}]}`

type fakeClient struct {
	envelope string
	err      error
	prompts  []string
}

func (f *fakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.envelope, f.err
}

type failingDocStore struct {
	*docstore.MemoryStore
}

func (f failingDocStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	return errors.New("deadline exceeded")
}

func newGoalService(t *testing.T, client generation.Client, store docstore.Store) *GoalService {
	t.Helper()
	if store == nil {
		store = docstore.NewMemoryStore()
	}
	repo := repository.NewGoalStore(store, "goals",
		repository.WithIDGenerator(func() int64 { return 42 }),
		repository.WithClock(func() time.Time { return fixedNow }),
	)
	return NewGoalService(repo, client, generation.NewValidator(func() time.Time { return fixedNow }))
}

func TestGenerateEndToEnd(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{envelope: breadEnvelope}
	svc := newGoalService(t, client, nil)

	result, err := svc.Generate(ctx, "learn to bake bread")
	require.NoError(t, err)
	require.True(t, result.Persisted)
	assert.Empty(t, result.Warning)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], `"learn to bake bread"`)

	goal := result.Goal
	assert.Equal(t, int64(42), goal.ID)
	assert.Equal(t, "Learn to Bake Bread", goal.Title)
	assert.Equal(t, "Bake a loaf at home", goal.Description)
	assert.Equal(t, "2025-06-01", goal.Deadline.String())
	require.Len(t, goal.Subgoals, 1)
	assert.False(t, goal.Subgoals[0].Completed)

	got, ok, err := svc.ByID(ctx, 42)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, goal.Title, got.Title)
	assert.Equal(t, goal.Description, got.Description)
	assert.Equal(t, goal.Deadline, got.Deadline)
	require.Len(t, got.Subgoals, 1)
	assert.Equal(t, "Buy ingredients", got.Subgoals[0].Title)
	assert.Equal(t, int64(42), got.Subgoals[0].GoalID)
	assert.False(t, got.Subgoals[0].Completed)
}

func TestGenerateWithMockClient(t *testing.T) {
	mock := generation.NewMockClient()
	mock.Now = func() time.Time { return fixedNow }
	svc := newGoalService(t, mock, nil)

	result, err := svc.Generate(context.Background(), "run a marathon")
	require.NoError(t, err)
	assert.True(t, result.Persisted)
	assert.NotEmpty(t, result.Goal.Subgoals)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		client *fakeClient
		kind   error
	}{
		{"blank prompt", "   ", &fakeClient{}, apperr.ErrInvalidInput},
		{"short prompt", "ab", &fakeClient{}, apperr.ErrInvalidInput},
		{"upstream rejected", "learn go", &fakeClient{err: apperr.Upstream(429, "quota")}, apperr.ErrUpstreamError},
		{"unclassified client error", "learn go", &fakeClient{err: errors.New("dial tcp")}, apperr.ErrUpstreamUnavailable},
		{"envelope without candidates", "learn go", &fakeClient{envelope: `{"candidates":[]}`}, apperr.ErrMalformedUpstreamEnvelope},
		{"prose instead of json", "learn go", &fakeClient{envelope: `{"candidates":[{"content":{"parts":[{"text":"I cannot help"}]}}]}`}, apperr.ErrInvalidGeneratedGoal},
		{"no subgoals", "learn go", &fakeClient{envelope: `{"candidates":[{"content":{"parts":[{"text":"{\"title\":\"Go\",\"subgoals\":[]}"}]}}]}`}, apperr.ErrInvalidGeneratedGoal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newGoalService(t, tt.client, nil)
			result, err := svc.Generate(context.Background(), tt.prompt)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestGenerateKeepsGoalWhenStoreFails(t *testing.T) {
	store := failingDocStore{MemoryStore: docstore.NewMemoryStore()}
	svc := newGoalService(t, &fakeClient{envelope: breadEnvelope}, store)

	result, err := svc.Generate(context.Background(), "learn to bake bread")
	require.NoError(t, err)
	assert.False(t, result.Persisted)
	assert.Contains(t, result.Warning, "could not be saved")
	assert.Equal(t, "Learn to Bake Bread", result.Goal.Title)
	assert.False(t, result.Goal.HasID())
}

func TestGenerateAsync(t *testing.T) {
	svc := newGoalService(t, &fakeClient{envelope: breadEnvelope}, nil)

	select {
	case outcome := <-svc.GenerateAsync(context.Background(), "learn to bake bread"):
		require.NoError(t, outcome.Err)
		assert.Equal(t, int64(42), outcome.Result.Goal.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("GenerateAsync did not deliver")
	}
}

func TestSaveValidatesDirectWrites(t *testing.T) {
	ctx := context.Background()
	svc := newGoalService(t, &fakeClient{}, nil)

	_, err := svc.Save(ctx, &model.Goal{Title: "  "})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Save(ctx, &model.Goal{Title: "Read", Subgoals: []model.Subgoal{{Title: ""}}})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.Save(ctx, &model.Goal{Title: "Read"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.ErrorIs(t, err, ErrSubgoalsRequired)
	all, err := svc.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rejected goal must not be stored")

	saved, err := svc.Save(ctx, &model.Goal{Title: " Read ", Subgoals: []model.Subgoal{{Title: "Pick a book"}}})
	require.NoError(t, err)
	assert.Equal(t, "Read", saved.Title)
	assert.Equal(t, model.DefaultDescription, saved.Description)
	assert.Equal(t, model.DefaultDescription, saved.Subgoals[0].Description)
	assert.Equal(t, model.DateOf(fixedNow).AddDays(generation.DefaultDeadlineDays), saved.Deadline)

	got, ok, err := svc.ByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved.Deadline, got.Deadline)

	deadline := model.Date{Year: 2025, Month: time.May, Day: 1}
	saved, err = svc.Save(ctx, &model.Goal{Title: "Run", Deadline: deadline, Subgoals: []model.Subgoal{{Title: "Jog"}}})
	require.NoError(t, err)
	assert.Equal(t, deadline, saved.Deadline)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newGoalService(t, &fakeClient{}, nil)

	saved, err := svc.Save(ctx, &model.Goal{Title: "Read", Subgoals: []model.Subgoal{{Title: "Pick a book"}}})
	require.NoError(t, err)

	title := "Read more"
	deadline := model.Date{Year: 2025, Month: time.December, Day: 31}
	updated, ok, err := svc.Update(ctx, saved.ID, GoalPatch{Title: &title, Deadline: &deadline})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Read more", updated.Title)
	assert.Equal(t, deadline, updated.Deadline)
	assert.Len(t, updated.Subgoals, 1)

	_, ok, err = svc.Update(ctx, 999, GoalPatch{Title: &title})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubgoalCompletionAndDeleteByTitle(t *testing.T) {
	ctx := context.Background()
	svc := newGoalService(t, &fakeClient{envelope: breadEnvelope}, nil)

	_, err := svc.Generate(ctx, "learn to bake bread")
	require.NoError(t, err)

	goal, ok, err := svc.SetSubgoalCompletedByTitle(ctx, "Learn to Bake Bread", "Buy ingredients", true)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, goal.IsComplete())

	_, ok, err = svc.SetSubgoalCompletedByTitle(ctx, "Unknown", "Buy ingredients", true)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = svc.SetSubgoalCompleted(ctx, 42, " ", true)
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	ok, err = svc.DeleteByTitle(ctx, "Learn to Bake Bread")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.DeleteByTitle(ctx, "Learn to Bake Bread")
	require.NoError(t, err)
	assert.False(t, ok)
}
