package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/goalplanner/internal/ctxkeys"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// Register echoes the identity resolved from the caller's bearer token.
// Accounts live with the identity provider; nothing is stored here.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	identity := ctxkeys.Identity(r.Context())
	if identity == nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error:   "Unauthorized",
			Message: "identity token is required",
		})
		return
	}

	slog.Info("identity registered", "uid", identity.UID)
	writeJSON(w, http.StatusOK, identity)
}
