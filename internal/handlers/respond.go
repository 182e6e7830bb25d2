package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/tubehub/backend/internal/logging"
	"github.com/tubehub/backend/internal/repositories"
)

// envelope is the uniform success response body.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

// errorEnvelope is the uniform error response body. It never carries internal
// error detail.
type errorEnvelope struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := envelope{StatusCode: status, Data: data, Message: message}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	body := errorEnvelope{StatusCode: status, Message: message, Success: false}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(ctx).Error("encode error body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", message)
	}
}

// pathID reads a path parameter that must be a well-formed identifier.
// Malformed ids are a client error, never a query that silently matches
// nothing.
func pathID(ctx context.Context, w http.ResponseWriter, r *http.Request, name, message string) (string, bool) {
	value := r.PathValue(name)
	if _, err := uuid.Parse(value); err != nil {
		respondError(ctx, w, http.StatusBadRequest, message)
		return "", false
	}
	return value, true
}

// parsePageRequest reads page/limit query parameters. Absent or non-numeric
// values fall back to the defaults instead of erroring.
func parsePageRequest(r *http.Request) repositories.PageRequest {
	var page repositories.PageRequest
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		page.Limit = v
	}
	return page.Normalize()
}
