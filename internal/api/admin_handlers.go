package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

const recentRegistrations = 5

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := s.repo.CountParticipants(r.Context())
	if err != nil {
		slog.Error("failed to count participants", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}

	recent, err := s.repo.RecentParticipants(r.Context(), recentRegistrations)
	if err != nil {
		slog.Error("failed to load recent participants", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to load stats")
		return
	}

	summaries := make([]models.ParticipantSummary, 0, len(recent))
	for _, p := range recent {
		summaries = append(summaries, p.Summary())
	}

	respondJSON(w, http.StatusOK, models.Stats{
		TotalUsers:          total,
		RecentRegistrations: summaries,
	})
}

func (s *Server) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	filters := models.ParticipantFilters{
		Status: models.ParticipantStatus(r.URL.Query().Get("status")),
		Domain: models.Domain(r.URL.Query().Get("domain")),
		Limit:  50, // default
		Offset: 0,
	}

	if filters.Status != "" && !filters.Status.Valid() {
		respondError(w, http.StatusBadRequest, "validation_error", "unknown status: "+string(filters.Status))
		return
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filters.Limit = limit
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filters.Offset = offset
		}
	}

	participants, err := s.repo.ListParticipants(r.Context(), filters)
	if err != nil {
		slog.Error("failed to list participants", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list participants")
		return
	}

	if participants == nil {
		participants = []*models.Participant{}
	}

	slog.Info("participants listed",
		"operator", OperatorFromContext(r.Context()),
		"count", len(participants),
		"status", filters.Status,
		"domain", filters.Domain,
	)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"participants": participants,
		"count":        len(participants),
		"limit":        filters.Limit,
		"offset":       filters.Offset,
	})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.repo.ListTasks(r.Context())
	if err != nil {
		slog.Error("failed to list tasks", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list tasks")
		return
	}

	if tasks == nil {
		tasks = []*models.Task{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}
