package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/goalplanner/internal/apperr"
	"github.com/templui/goalplanner/internal/docstore"
	"github.com/templui/goalplanner/internal/generation"
	"github.com/templui/goalplanner/internal/model"
	"github.com/templui/goalplanner/internal/repository"
	"github.com/templui/goalplanner/internal/service"
)

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type stubClient struct {
	envelope string
	err      error
}

func (s stubClient) Generate(ctx context.Context, prompt string) (string, error) {
	return s.envelope, s.err
}

type brokenStore struct {
	*docstore.MemoryStore
}

func (brokenStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	return errors.New("disk full")
}

func envelopeFor(goalJSON string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": "```json\n" + goalJSON + "\n```"}}}},
		},
	})
	return string(b)
}

const runGoal = `{"title":"Run a 10k","description":"Build endurance","deadline":"2025-06-01","subgoals":[{"title":"Buy shoes","description":"Get fitted"},{"title":"Run 5k","description":"Three times a week"}]}`

func newMux(t *testing.T, client generation.Client, store docstore.Store) *http.ServeMux {
	t.Helper()
	if store == nil {
		store = docstore.NewMemoryStore()
	}
	repo := repository.NewGoalStore(store, "goals",
		repository.WithIDGenerator(func() int64 { return 42 }),
		repository.WithClock(func() time.Time { return fixedNow }),
	)
	goals := service.NewGoalService(repo, client, generation.NewValidator(func() time.Time { return fixedNow }))
	h := NewGoalHandler(goals, service.NewArchiveService(goals, nil))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/goals/generate", h.Generate)
	mux.HandleFunc("GET /api/goals", h.List)
	mux.HandleFunc("POST /api/goals", h.Create)
	mux.HandleFunc("DELETE /api/goals", h.DeleteByTitle)
	mux.HandleFunc("GET /api/goals/search", h.Search)
	mux.HandleFunc("GET /api/goals/export", h.Export)
	mux.HandleFunc("POST /api/goals/archive", h.Archive)
	mux.HandleFunc("GET /api/goals/{id}", h.Get)
	mux.HandleFunc("PUT /api/goals/{id}", h.Replace)
	mux.HandleFunc("PATCH /api/goals/{id}", h.Update)
	mux.HandleFunc("DELETE /api/goals/{id}", h.Delete)
	mux.HandleFunc("PATCH /api/goals/{id}/subgoals/complete", h.CompleteSubgoal)
	mux.HandleFunc("PATCH /api/goals/subgoals/complete", h.CompleteSubgoalByTitle)
	return mux
}

func do(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeGoal(t *testing.T, rec *httptest.ResponseRecorder) model.Goal {
	t.Helper()
	var goal model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &goal))
	return goal
}

func TestGenerateCreatesGoal(t *testing.T) {
	mux := newMux(t, stubClient{envelope: envelopeFor(runGoal)}, nil)

	rec := do(t, mux, http.MethodPost, "/api/goals/generate", `{"prompt":"run a 10k"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Empty(t, rec.Header().Get(PersistenceWarningHeader))

	goal := decodeGoal(t, rec)
	assert.Equal(t, int64(42), goal.ID)
	assert.Equal(t, "Run a 10k", goal.Title)
	assert.Equal(t, "2025-06-01", goal.Deadline.String())
	require.Len(t, goal.Subgoals, 2)
	assert.Equal(t, int64(42), goal.Subgoals[1].GoalID)

	rec = do(t, mux, http.MethodGet, "/api/goals/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Run a 10k", decodeGoal(t, rec).Title)
}

func TestGenerateWarnsWhenNotPersisted(t *testing.T) {
	mux := newMux(t, stubClient{envelope: envelopeFor(runGoal)}, brokenStore{docstore.NewMemoryStore()})

	rec := do(t, mux, http.MethodPost, "/api/goals/generate", `{"prompt":"run a 10k"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(PersistenceWarningHeader), "could not be saved")
	assert.Equal(t, int64(0), decodeGoal(t, rec).ID)
}

func TestGenerateErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		client stubClient
		body   string
		status int
		kind   string
	}{
		{"malformed body", stubClient{}, `{"prompt":`, http.StatusBadRequest, "InvalidInput"},
		{"empty prompt", stubClient{}, `{"prompt":""}`, http.StatusBadRequest, "InvalidInput"},
		{"unavailable", stubClient{err: apperr.New(apperr.ErrUpstreamUnavailable, "timeout")}, `{"prompt":"run"}`, http.StatusServiceUnavailable, "UpstreamUnavailable"},
		{"rejected", stubClient{err: apperr.Upstream(403, "forbidden")}, `{"prompt":"run"}`, http.StatusBadGateway, "UpstreamError"},
		{"empty", stubClient{err: apperr.New(apperr.ErrUpstreamEmptyResponse, "empty")}, `{"prompt":"run"}`, http.StatusBadGateway, "UpstreamEmptyResponse"},
		{"bad envelope", stubClient{envelope: `[]`}, `{"prompt":"run"}`, http.StatusBadGateway, "MalformedUpstreamEnvelope"},
		{"invalid goal", stubClient{envelope: envelopeFor(`{"title":"","subgoals":[]}`)}, `{"prompt":"run"}`, http.StatusUnprocessableEntity, "InvalidGeneratedGoal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newMux(t, tt.client, nil)
			rec := do(t, mux, http.MethodPost, "/api/goals/generate", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestUpstreamErrorCarriesDetails(t *testing.T) {
	mux := newMux(t, stubClient{err: apperr.Upstream(429, `{"error":"quota"}`)}, nil)

	rec := do(t, mux, http.MethodPost, "/api/goals/generate", `{"prompt":"run a 10k"}`)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 429, resp.Status)
	assert.Equal(t, `{"error":"quota"}`, resp.Details)
}

func TestGoalCRUD(t *testing.T) {
	mux := newMux(t, stubClient{}, nil)

	rec := do(t, mux, http.MethodPost, "/api/goals", `{"title":"Read","deadline":"2025-12-31","subgoals":[{"title":"Pick a book"},{"title":"Finish it"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeGoal(t, rec)
	assert.Equal(t, int64(42), created.ID)

	rec = do(t, mux, http.MethodGet, "/api/goals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.Goal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = do(t, mux, http.MethodGet, "/api/goals/search?title=Read", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), decodeGoal(t, rec).ID)

	rec = do(t, mux, http.MethodPatch, "/api/goals/42", `{"description":"Fifty pages a day"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fifty pages a day", decodeGoal(t, rec).Description)

	rec = do(t, mux, http.MethodPut, "/api/goals/42", `{"title":"Read more","subgoals":[{"title":"Join a club"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	replaced := decodeGoal(t, rec)
	assert.Equal(t, "Read more", replaced.Title)
	assert.Len(t, replaced.Subgoals, 1)

	rec = do(t, mux, http.MethodPatch, "/api/goals/42/subgoals/complete", `{"title":"Join a club","completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeGoal(t, rec).Subgoals[0].Completed)

	rec = do(t, mux, http.MethodPatch, "/api/goals/subgoals/complete", `{"goalTitle":"Read more","title":"Join a club","completed":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeGoal(t, rec).Subgoals[0].Completed)

	rec = do(t, mux, http.MethodPatch, "/api/goals/42/subgoals/complete", `{"title":"Missing"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/api/goals/42", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodDelete, "/api/goals/42", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, mux, http.MethodGet, "/api/goals/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteByTitleAndBadRequests(t *testing.T) {
	mux := newMux(t, stubClient{}, nil)

	rec := do(t, mux, http.MethodPost, "/api/goals", `{"title":"Swim","subgoals":[{"title":"Lessons"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/api/goals?title=Swim", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodDelete, "/api/goals?title=Swim", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, mux, http.MethodDelete, "/api/goals", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, mux, http.MethodGet, "/api/goals/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, mux, http.MethodGet, "/api/goals/search", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, mux, http.MethodPost, "/api/goals", `{"title":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, mux, http.MethodPost, "/api/goals", `{"title":"x","deadline":"tomorrow"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportAndArchiveDisabled(t *testing.T) {
	mux := newMux(t, stubClient{}, nil)
	do(t, mux, http.MethodPost, "/api/goals", `{"title":"Swim","subgoals":[{"title":"Lessons"}]}`)

	rec := do(t, mux, http.MethodGet, "/api/goals/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "goals-export.json")

	var export service.Export
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.Equal(t, 1, export.Count)

	rec = do(t, mux, http.MethodPost, "/api/goals/archive", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "ArchiveDisabled")
}
