package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/goalplanner/internal/apperr"
	"github.com/templui/goalplanner/internal/ctxkeys"
	"github.com/templui/goalplanner/internal/model"
	"github.com/templui/goalplanner/internal/service"
)

const PersistenceWarningHeader = "X-Persistence-Warning"

type GoalHandler struct {
	goalService    *service.GoalService
	archiveService *service.ArchiveService
}

func NewGoalHandler(goalService *service.GoalService, archiveService *service.ArchiveService) *GoalHandler {
	return &GoalHandler{
		goalService:    goalService,
		archiveService: archiveService,
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type completeRequest struct {
	GoalTitle string `json:"goalTitle,omitempty"`
	Title     string `json:"title"`
	Completed *bool  `json:"completed"`
}

// Generate runs the full pipeline. A goal that was generated but not stored
// is still returned, with 200 instead of 201 and a warning header.
func (h *GoalHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.goalService.Generate(r.Context(), req.Prompt)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if !result.Persisted {
		w.Header().Set(PersistenceWarningHeader, result.Warning)
		writeJSON(w, http.StatusOK, result.Goal)
		return
	}

	slog.Info("goal generated via api", "goal_id", result.Goal.ID, "uid", uid(r))
	writeJSON(w, http.StatusCreated, result.Goal)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var goal model.Goal
	err := decodeJSON(w, r, &goal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	saved, err := h.goalService.Save(r.Context(), &goal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

func (h *GoalHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var goal model.Goal
	err = decodeJSON(w, r, &goal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	goal.ID = id

	saved, err := h.goalService.Save(r.Context(), &goal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch service.GoalPatch
	err = decodeJSON(w, r, &patch)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal, ok, err := h.goalService.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, "goal not found")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalService.All(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal, ok, err := h.goalService.ByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, "goal not found")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Search(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, r, apperr.New(apperr.ErrInvalidInput, "title query parameter is required"))
		return
	}

	goal, ok, err := h.goalService.ByTitle(r.Context(), title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, "goal not found")
		return
	}

	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.goalService.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) DeleteByTitle(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if strings.TrimSpace(title) == "" {
		writeError(w, r, apperr.New(apperr.ErrInvalidInput, "title query parameter is required"))
		return
	}

	ok, err := h.goalService.DeleteByTitle(r.Context(), title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, "goal not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *GoalHandler) CompleteSubgoal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req completeRequest
	err = decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	goal, ok, err := h.goalService.SetSubgoalCompleted(r.Context(), id, req.Title, completedOrTrue(req.Completed))
	h.writeCompletion(w, r, goal, ok, err)
}

func (h *GoalHandler) CompleteSubgoalByTitle(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.GoalTitle) == "" {
		writeError(w, r, apperr.New(apperr.ErrInvalidInput, "goalTitle is required"))
		return
	}

	goal, ok, err := h.goalService.SetSubgoalCompletedByTitle(r.Context(), req.GoalTitle, req.Title, completedOrTrue(req.Completed))
	h.writeCompletion(w, r, goal, ok, err)
}

func (h *GoalHandler) writeCompletion(w http.ResponseWriter, r *http.Request, goal *model.Goal, ok bool, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, "goal or subgoal not found")
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	export, err := h.archiveService.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=goals-export.json")
	writeJSON(w, http.StatusOK, export)
}

func (h *GoalHandler) Archive(w http.ResponseWriter, r *http.Request) {
	result, err := h.archiveService.Archive(r.Context())
	if errors.Is(err, service.ErrArchiveDisabled) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "ArchiveDisabled",
			Message: err.Error(),
		})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func completedOrTrue(v *bool) bool {
	if v == nil {
		return true
	}
	return *v
}

func uid(r *http.Request) string {
	if identity := ctxkeys.Identity(r.Context()); identity != nil {
		return identity.UID
	}
	return ""
}
