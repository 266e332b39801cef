package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/templui/goalplanner/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
}

var errMalformedBody = apperr.New(apperr.ErrInvalidInput, "request body is not valid JSON")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps a classified failure onto its HTTP status and error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	resp := errorResponse{
		Error:   "InternalError",
		Message: "internal server error",
	}
	if kind != nil {
		resp.Error = kind.Error()
		resp.Message = apperr.Message(err)
	}

	var ae *apperr.Error
	if errors.As(err, &ae) && errors.Is(kind, apperr.ErrUpstreamError) {
		resp.Status = ae.StatusCode
		resp.Details = ae.Body
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path, "status", status)
	}
	writeJSON(w, status, resp)
}

func statusFor(kind error) int {
	switch kind {
	case apperr.ErrInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrInvalidGeneratedGoal:
		return http.StatusUnprocessableEntity
	case apperr.ErrUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case apperr.ErrUpstreamError, apperr.ErrUpstreamEmptyResponse, apperr.ErrMalformedUpstreamEnvelope:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "NotFound", Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil {
		return apperr.Wrap(apperr.ErrInvalidInput, err, errMalformedBody.Message)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New(apperr.ErrInvalidInput, "goal id must be a positive integer")
	}
	return id, nil
}
