package routes

import (
	"net/http"

	"github.com/templui/goalplanner/internal/app"
	"github.com/templui/goalplanner/internal/handler"
	"github.com/templui/goalplanner/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	goal := handler.NewGoalHandler(app.GoalService, app.ArchiveService)
	auth := handler.NewAuthHandler()

	mux := http.NewServeMux()

	// Probes
	mux.HandleFunc("GET /healthz", handler.Health)

	// Identity
	mux.HandleFunc("POST /api/auth/register", middleware.RequireIdentity(auth.Register))

	// Generation (rate limited, calls the external service)
	generateLimit := middleware.RateLimit(app.Cfg.GenerateRateLimit, app.Cfg.GenerateRateWindow, app.Cfg.TrustProxy)
	mux.HandleFunc("POST /api/goals/generate", generateLimit(goal.Generate))

	// Goals
	mux.HandleFunc("GET /api/goals", goal.List)
	mux.HandleFunc("POST /api/goals", goal.Create)
	mux.HandleFunc("DELETE /api/goals", goal.DeleteByTitle)
	mux.HandleFunc("GET /api/goals/search", goal.Search)
	mux.HandleFunc("GET /api/goals/export", goal.Export)
	mux.HandleFunc("POST /api/goals/archive", goal.Archive)
	mux.HandleFunc("GET /api/goals/{id}", goal.Get)
	mux.HandleFunc("PUT /api/goals/{id}", goal.Replace)
	mux.HandleFunc("PATCH /api/goals/{id}", goal.Update)
	mux.HandleFunc("DELETE /api/goals/{id}", goal.Delete)

	// Subgoals
	mux.HandleFunc("PATCH /api/goals/{id}/subgoals/complete", goal.CompleteSubgoal)
	mux.HandleFunc("PATCH /api/goals/subgoals/complete", goal.CompleteSubgoalByTitle)

	return middleware.Chain(mux,
		middleware.WithRequestID,
		middleware.RequestLogging,
		middleware.Recover,
		middleware.Authenticate(app.AuthService, false),
		requireIdentityForAPI(app.Cfg.AuthRequired),
	)
}

// requireIdentityForAPI rejects anonymous /api/ calls when auth is required.
func requireIdentityForAPI(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !required {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			middleware.RequireIdentity(next.ServeHTTP)(w, r)
		})
	}
}
