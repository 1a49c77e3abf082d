package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// Repository defines the interface for participant and task persistence.
// Single-record reads return nil, nil when nothing matches.
type Repository interface {
	// Participants
	CreateParticipant(ctx context.Context, p *models.Participant) error
	GetParticipantByEmail(ctx context.Context, email string) (*models.Participant, error)
	FindParticipant(ctx context.Context, registrationNumber, email string) (*models.Participant, error)
	UpdateParticipantStatus(ctx context.Context, id string, status models.ParticipantStatus) error
	ListParticipants(ctx context.Context, filters models.ParticipantFilters) ([]*models.Participant, error)
	CountParticipants(ctx context.Context) (int64, error)
	RecentParticipants(ctx context.Context, limit int) ([]*models.Participant, error)

	// Tasks
	UpsertTask(ctx context.Context, t *models.Task) error
	FindTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	ListTasks(ctx context.Context) ([]*models.Task, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// Migrator is implemented by backends that need schema or index setup
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Unique fields of a participant
const (
	FieldEmail              = "email"
	FieldRegistrationNumber = "registrationNumber"
)

var (
	// ErrDuplicateKey is the kind of every unique-constraint violation
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned by writes that target a missing record
	ErrNotFound = errors.New("record not found")
)

// DuplicateKeyError reports which unique constraint a write collided with.
// Field is empty when the violated index is not one of the known fields.
type DuplicateKeyError struct {
	Field string
	Index string
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("duplicate key on index %s", e.Index)
	}
	return fmt.Sprintf("duplicate key on %s", e.Field)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// fieldForIndex maps a constraint/index/column name onto a participant field
func fieldForIndex(name string) string {
	switch {
	case containsFold(name, "registration_number"), containsFold(name, "registrationnumber"):
		return FieldRegistrationNumber
	case containsFold(name, "email"):
		return FieldEmail
	}
	return ""
}
