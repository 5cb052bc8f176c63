// Package api exposes the mining service over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/reqmine/internal/mining"
	"github.com/kalambet/reqmine/internal/workflow"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Miner is the slice of the workflow service the API layer needs.
type Miner interface {
	MineRequirements(ctx context.Context, userInput string, mctx mining.Context) (*mining.MiningResult, error)
	ResumeWorkflow(ctx context.Context, sessionID string, fb mining.FeedbackPayload) (*mining.MiningResult, error)
	Inspect(ctx context.Context, sessionID string) (*mining.MiningResult, error)
	Sessions(ctx context.Context) ([]string, error)
}

// MineRequest is the body of POST /v1/mine.
type MineRequest struct {
	Text   string `json:"text"`
	Domain string `json:"domain,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// AppDeps holds dependencies for the HTTP handler.
type AppDeps struct {
	Service Miner
	Token   string
}

// NewAppHandler returns the service's REST surface. /health is public;
// everything under /v1 requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/v1/mine", handleMine(deps))
		r.Post("/v1/sessions/{id}/resume", handleResume(deps))
		r.Get("/v1/sessions", handleListSessions(deps))
		r.Get("/v1/sessions/{id}", handleGetSession(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleMine(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req MineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		result, err := deps.Service.MineRequirements(r.Context(), req.Text, mining.Context{
			Domain: req.Domain,
			UserID: req.UserID,
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func handleResume(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		id := chi.URLParam(r, "id")

		var fb mining.FeedbackPayload
		if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		result, err := deps.Service.ResumeWorkflow(r.Context(), id, fb)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func handleListSessions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := deps.Service.Sessions(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"sessions": ids})
	}
}

func handleGetSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		result, err := deps.Service.Inspect(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

// writeServiceError maps service errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var nodeErr *workflow.NodeError
	switch {
	case errors.Is(err, mining.ErrEmptyInput):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, mining.ErrSessionNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.As(err, &nodeErr):
		httpError(w, http.StatusInternalServerError, "workflow_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
