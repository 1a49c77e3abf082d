package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondJSON wraps data in the success envelope used by operator routes
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	})
}

// writeJSON writes v as-is, for routes whose wire shape is fixed by the web client
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

type databaseHealth struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type storeHealth struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Database    databaseHealth    `json:"database"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks"`
}

const databaseCheck = "database"

func (s *Server) handleStoreHealth(w http.ResponseWriter, r *http.Request) {
	results := s.health.HealthCheckAll(r.Context())

	resp := storeHealth{
		Status:      "ok",
		Timestamp:   s.now().UTC(),
		Environment: s.config.Server.Environment,
		Database: databaseHealth{
			Status:    "connected",
			Name:      s.config.Database.Name,
			Connected: true,
		},
		Checks: make(map[string]string, len(results)),
	}

	for _, name := range s.health.List() {
		err, checked := results[name]
		if !checked {
			continue
		}
		if err == nil {
			resp.Checks[name] = "ok"
			continue
		}
		slog.Warn("health check failed", "check", name, "error", err)
		resp.Checks[name] = "unavailable"
		if resp.Status == "ok" {
			resp.Status = "degraded"
		}
	}

	if err, registered := results[databaseCheck]; !registered || err != nil {
		resp.Status = "error"
		resp.Database.Status = "disconnected"
		resp.Database.Connected = false
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
