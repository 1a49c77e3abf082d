package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gcsrm/recruitment-portal/internal/recruitment"
	"github.com/gcsrm/recruitment-portal/internal/sheet"
)

type submissionError struct {
	Error    string     `json:"error"`
	OpensAt  *time.Time `json:"opensAt,omitempty"`
	ClosedAt *time.Time `json:"closedAt,omitempty"`
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	var submission recruitment.Submission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		writeJSON(w, http.StatusBadRequest, submissionError{Error: "Invalid JSON body"})
		return
	}

	resp, err := s.forwarder.Submit(r.Context(), submission)

	var ue *recruitment.UpstreamError
	if err == nil || (errors.As(err, &ue) && resp != nil) {
		relay(w, resp)
		return
	}

	var we *recruitment.WindowError
	switch {
	case errors.As(err, &we) && we.NotOpen():
		opensAt := we.Boundary.UTC()
		writeJSON(w, http.StatusForbidden, submissionError{Error: "Submission not open yet", OpensAt: &opensAt})
	case errors.As(err, &we):
		closedAt := we.Boundary.UTC()
		writeJSON(w, http.StatusForbidden, submissionError{Error: "Submission window has closed", ClosedAt: &closedAt})
	case errors.Is(err, recruitment.ErrMissingIdentifier):
		writeJSON(w, http.StatusBadRequest, submissionError{Error: "registrationNumber or email required"})
	case errors.Is(err, recruitment.ErrNotFound):
		writeJSON(w, http.StatusNotFound, submissionError{Error: "Participant not found"})
	case errors.Is(err, recruitment.ErrAlreadySubmitted):
		writeJSON(w, http.StatusConflict, submissionError{Error: "Task already submitted"})
	case errors.Is(err, recruitment.ErrSubmissionInProgress):
		writeJSON(w, http.StatusConflict, submissionError{Error: "Submission already in progress"})
	case errors.Is(err, recruitment.ErrUpstreamUnavailable):
		writeJSON(w, http.StatusInternalServerError, submissionError{Error: "Sheet endpoint not configured on server"})
	case errors.Is(err, recruitment.ErrUpstreamError):
		writeJSON(w, http.StatusBadGateway, submissionError{Error: "Sheet endpoint could not be reached"})
	default:
		slog.Error("submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, submissionError{Error: "Internal server error"})
	}
}

// relay writes the upstream answer back unchanged
func relay(w http.ResponseWriter, resp *sheet.Response) {
	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		slog.Error("failed to relay sheet response", "error", err)
	}
}

func (s *Server) handleSheetOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusNoContent)
}
