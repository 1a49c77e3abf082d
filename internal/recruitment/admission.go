package recruitment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gcsrm/recruitment-portal/internal/models"
	"github.com/gcsrm/recruitment-portal/internal/storage"
)

// Registrar admits new participants while the registration window is open
type Registrar struct {
	repo   storage.Repository
	window Window
	now    func() time.Time
}

// NewRegistrar creates a Registrar gated by window
func NewRegistrar(repo storage.Repository, window Window, opts ...Option) *Registrar {
	o := applyOptions(opts)
	return &Registrar{repo: repo, window: window, now: o.now}
}

// Window returns the registration window
func (r *Registrar) Window() Window {
	return r.window
}

// Register validates req and creates a participant in the registered state.
// Nothing is written unless every check passes.
func (r *Registrar) Register(ctx context.Context, req *models.RegistrationRequest) (*models.Participant, error) {
	now := r.now()
	if err := r.window.Check(now); err != nil {
		return nil, err
	}

	// a client clock past the deadline is rejected even while the server window is open
	if req.SubmissionTime != nil && !req.SubmissionTime.IsZero() {
		if err := r.window.CheckDeadline(req.SubmissionTime.Time); err != nil {
			return nil, err
		}
	}

	if fields := req.Validate(); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	domain, _ := models.ParseDomain(req.Domain)

	p := &models.Participant{
		ID:                 uuid.New().String(),
		Name:               strings.TrimSpace(req.Name),
		Email:              strings.TrimSpace(req.Email),
		RegistrationNumber: strings.TrimSpace(req.RegistrationNumber),
		Phone:              strings.TrimSpace(req.Phone),
		Year:               strings.TrimSpace(req.Year),
		Domain:             domain,
		DegreeWithBranch:   strings.TrimSpace(req.DegreeWithBranch),
		Status:             models.StatusRegistered,
		CreatedAt:          now.UTC(),
	}

	if err := r.repo.CreateParticipant(ctx, p); err != nil {
		var dke *storage.DuplicateKeyError
		if errors.As(err, &dke) {
			if dke.Field == "" {
				slog.Error("registration collided on unexpected unique index", "index", dke.Index)
				return nil, fmt.Errorf("%w: %s", ErrIndexMisconfigured, dke.Index)
			}
			slog.Info("registration rejected as duplicate", "field", dke.Field)
			return nil, &DuplicateError{Field: dke.Field}
		}
		return nil, fmt.Errorf("%w: failed to create participant: %w", ErrInternal, err)
	}

	slog.Info("participant registered",
		"id", p.ID,
		"domain", p.Domain,
		"year", p.Year,
	)

	return p, nil
}
