package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gcsrm/recruitment-portal/internal/models"
	"github.com/gcsrm/recruitment-portal/internal/recruitment"
)

const registrationDateLayout = "January 2, 2006"

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.RegistrationResponse{
			Success: false,
			Error:   "Invalid request body",
			Code:    "invalid_request",
		})
		return
	}

	p, err := s.registrar.Register(r.Context(), &req)
	if err != nil {
		s.writeRegistrationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.RegistrationResponse{
		Success: true,
		User:    p,
	})
}

func (s *Server) writeRegistrationError(w http.ResponseWriter, err error) {
	var (
		we *recruitment.WindowError
		ve *recruitment.ValidationError
		de *recruitment.DuplicateError
	)

	switch {
	case errors.As(err, &we) && we.NotOpen():
		opensAt := we.Boundary
		writeJSON(w, http.StatusForbidden, models.RegistrationResponse{
			Success: false,
			Error:   "Registration has not started yet. Please wait until " + opensAt.Format(registrationDateLayout) + ".",
			Code:    "window_not_open",
			OpensAt: &opensAt,
		})

	case errors.As(err, &we):
		closesAt := we.Boundary
		writeJSON(w, http.StatusForbidden, models.RegistrationResponse{
			Success:  false,
			Error:    "Registration period has ended. No new registrations are being accepted.",
			Code:     "window_closed",
			ClosesAt: &closesAt,
		})

	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, models.RegistrationResponse{
			Success: false,
			Error:   "Please correct the highlighted fields",
			Code:    "validation_error",
			Fields:  ve.Fields,
		})

	case errors.As(err, &de):
		writeJSON(w, http.StatusConflict, models.RegistrationResponse{
			Success: false,
			Error:   de.Error(),
			Code:    "duplicate_key",
			Fields:  map[string]string{de.Field: de.Error()},
		})

	default:
		slog.Error("registration failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.RegistrationResponse{
			Success: false,
			Error:   "Registration could not be completed. Please try again later.",
			Code:    "internal_error",
		})
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.resolver.Resolve(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		switch {
		case errors.Is(err, recruitment.ErrMissingParameter):
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Email is required"})
		case errors.Is(err, recruitment.ErrNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse{Message: "Participant not found"})
		default:
			slog.Error("failed to fetch participant data", "error", err)
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}
