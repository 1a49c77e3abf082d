package recruitment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gcsrm/recruitment-portal/internal/locks"
	"github.com/gcsrm/recruitment-portal/internal/models"
	"github.com/gcsrm/recruitment-portal/internal/sheet"
	"github.com/gcsrm/recruitment-portal/internal/storage"
)

// Webhook is the external endpoint submissions are relayed to
type Webhook interface {
	Configured() bool
	Post(ctx context.Context, payload map[string]interface{}) (*sheet.Response, error)
}

// Submission is a raw task-submission payload. Fields other than the
// identifiers and selectedTaskTitle are relayed untouched.
type Submission map[string]interface{}

// String returns the trimmed string value of key, or ""
func (s Submission) String(key string) string {
	v, ok := s[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Outbound returns the payload sent upstream: a copy of s in which a
// non-empty selectedTaskTitle replaces selectedTask.
func (s Submission) Outbound() map[string]interface{} {
	out := make(map[string]interface{}, len(s)+1)
	for k, v := range s {
		out[k] = v
	}
	if title := s.String("selectedTaskTitle"); title != "" {
		out["selectedTask"] = title
	}
	return out
}

// Forwarder relays task submissions and marks participants as submitted
type Forwarder struct {
	repo    storage.Repository
	webhook Webhook
	locker  locks.Locker
	lockTTL time.Duration
	window  Window
	now     func() time.Time
}

// NewForwarder creates a Forwarder gated by window
func NewForwarder(repo storage.Repository, webhook Webhook, locker locks.Locker, lockTTL time.Duration, window Window, opts ...Option) *Forwarder {
	o := applyOptions(opts)
	if locker == nil {
		locker = locks.NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = time.Minute
	}
	return &Forwarder{
		repo:    repo,
		webhook: webhook,
		locker:  locker,
		lockTTL: lockTTL,
		window:  window,
		now:     o.now,
	}
}

// Window returns the submission window
func (f *Forwarder) Window() Window {
	return f.window
}

// Submit relays s to the webhook and returns the upstream response.
// A non-2xx upstream answer is returned together with an *UpstreamError;
// the participant's status only changes after a 2xx.
func (f *Forwarder) Submit(ctx context.Context, s Submission) (*sheet.Response, error) {
	if err := f.window.Check(f.now()); err != nil {
		return nil, err
	}

	regNo, email := s.String("registrationNumber"), s.String("email")
	if regNo == "" && email == "" {
		return nil, ErrMissingIdentifier
	}

	p, err := f.find(ctx, regNo, email)
	if err != nil {
		return nil, err
	}
	if pastSubmission(p) {
		return nil, ErrAlreadySubmitted
	}

	release, ok, err := f.locker.Acquire(ctx, "submission:"+p.ID, f.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInternal, err)
	}
	if !ok {
		return nil, ErrSubmissionInProgress
	}
	defer release()

	// re-read under the lock so a submission that just finished is seen
	p, err = f.find(ctx, regNo, email)
	if err != nil {
		return nil, err
	}
	if pastSubmission(p) {
		return nil, ErrAlreadySubmitted
	}

	if f.webhook == nil || !f.webhook.Configured() {
		slog.Error("submission rejected: sheet webhook is not configured")
		return nil, ErrUpstreamUnavailable
	}

	resp, err := f.webhook.Post(ctx, s.Outbound())
	if err != nil {
		slog.Error("sheet webhook call failed", "error", err, "participant", p.ID)
		return nil, fmt.Errorf("%w: %w", ErrUpstreamError, err)
	}

	if !resp.OK() {
		slog.Warn("sheet webhook rejected submission",
			"participant", p.ID,
			"status", resp.StatusCode,
		)
		return resp, &UpstreamError{StatusCode: resp.StatusCode}
	}

	if err := f.repo.UpdateParticipantStatus(ctx, p.ID, models.StatusTaskSubmitted); err != nil {
		// the sheet already holds the submission; the caller still gets the upstream answer
		slog.Error("submission relayed but status update failed",
			"error", err,
			"participant", p.ID,
		)
		return resp, nil
	}

	slog.Info("submission relayed",
		"participant", p.ID,
		"upstream_status", resp.StatusCode,
	)

	return resp, nil
}

// pastSubmission reports whether p can no longer move to taskSubmitted.
// Records without a status predate the status field and count as registered.
func pastSubmission(p *models.Participant) bool {
	if p.Status == "" {
		return false
	}
	return !p.Status.CanAdvanceTo(models.StatusTaskSubmitted)
}

func (f *Forwarder) find(ctx context.Context, regNo, email string) (*models.Participant, error) {
	p, err := f.repo.FindParticipant(ctx, regNo, email)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find participant: %w", ErrInternal, err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

// IsClientError reports whether err is a caller-correctable condition
// rather than an internal failure.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrWindowNotOpen, ErrWindowClosed, ErrValidation, ErrDuplicateKey,
		ErrNotFound, ErrAlreadySubmitted, ErrSubmissionInProgress,
		ErrMissingParameter, ErrMissingIdentifier,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
