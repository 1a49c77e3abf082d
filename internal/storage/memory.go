package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// MemoryRepository is an in-process Repository used by tests and demo runs.
// Records are copied on the way in and out.
type MemoryRepository struct {
	mu           sync.RWMutex
	participants []*models.Participant
	byEmail      map[string]*models.Participant
	byRegNo      map[string]*models.Participant
	byID         map[string]*models.Participant
	tasks        map[string]*models.Task
	taskOrder    []string
	closed       bool
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byEmail: make(map[string]*models.Participant),
		byRegNo: make(map[string]*models.Participant),
		byID:    make(map[string]*models.Participant),
		tasks:   make(map[string]*models.Task),
	}
}

// Ping fails once the repository has been closed
func (r *MemoryRepository) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return fmt.Errorf("memory repository is closed")
	}
	return ctx.Err()
}

// Close marks the repository unavailable
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// CreateParticipant stores p, enforcing unique email and registration number
func (r *MemoryRepository) CreateParticipant(_ context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[p.Email]; ok {
		return &DuplicateKeyError{Field: FieldEmail, Index: "email_1"}
	}
	if _, ok := r.byRegNo[p.RegistrationNumber]; ok {
		return &DuplicateKeyError{Field: FieldRegistrationNumber, Index: "registrationNumber_1"}
	}
	if _, ok := r.byID[p.ID]; ok {
		return &DuplicateKeyError{Index: "_id_"}
	}

	stored := cloneParticipant(p)
	r.participants = append(r.participants, stored)
	r.byEmail[stored.Email] = stored
	r.byRegNo[stored.RegistrationNumber] = stored
	r.byID[stored.ID] = stored
	return nil
}

// GetParticipantByEmail retrieves a participant by email
func (r *MemoryRepository) GetParticipantByEmail(_ context.Context, email string) (*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byEmail[email]; ok {
		return cloneParticipant(p), nil
	}
	return nil, nil
}

// FindParticipant retrieves the earliest participant matching the registration number or the email
func (r *MemoryRepository) FindParticipant(_ context.Context, registrationNumber, email string) (*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if (registrationNumber != "" && p.RegistrationNumber == registrationNumber) || (email != "" && p.Email == email) {
			return cloneParticipant(p), nil
		}
	}
	return nil, nil
}

// UpdateParticipantStatus sets the status of an existing participant
func (r *MemoryRepository) UpdateParticipantStatus(_ context.Context, id string, status models.ParticipantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}
	p.Status = status
	return nil
}

// ListParticipants returns participants matching filters, newest first
func (r *MemoryRepository) ListParticipants(_ context.Context, filters models.ParticipantFilters) ([]*models.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var domains map[string]bool
	if filters.Domain != "" {
		domains = make(map[string]bool)
		for _, s := range models.DomainSpellings(string(filters.Domain)) {
			domains[s] = true
		}
	}

	var out []*models.Participant
	for i := len(r.participants) - 1; i >= 0; i-- {
		p := r.participants[i]
		if filters.Status != "" && p.Status != filters.Status {
			continue
		}
		if domains != nil && !domains[string(p.Domain)] {
			continue
		}
		out = append(out, cloneParticipant(p))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(out) {
			return nil, nil
		}
		out = out[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(out) {
		out = out[:filters.Limit]
	}
	return out, nil
}

// CountParticipants returns the number of registered participants
func (r *MemoryRepository) CountParticipants(context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.participants)), nil
}

// RecentParticipants returns the most recent registrations
func (r *MemoryRepository) RecentParticipants(ctx context.Context, limit int) ([]*models.Participant, error) {
	return r.ListParticipants(ctx, models.ParticipantFilters{Limit: limit})
}

// UpsertTask inserts a task or replaces the stored copy with the same ID
func (r *MemoryRepository) UpsertTask(_ context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		r.taskOrder = append(r.taskOrder, t.ID)
	}
	r.tasks[t.ID] = cloneTask(t)
	return nil
}

// FindTasks returns tasks whose domain and year are in the filter sets, in insertion order
func (r *MemoryRepository) FindTasks(_ context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	domains := toSet(filter.Domains)
	years := toSet(filter.Years)

	var out []*models.Task
	for _, id := range r.taskOrder {
		t := r.tasks[id]
		if domains[string(t.Domain)] && years[string(t.Year)] {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

// ListTasks returns the whole task catalog
func (r *MemoryRepository) ListTasks(context.Context) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Task, 0, len(r.taskOrder))
	for _, id := range r.taskOrder {
		out = append(out, cloneTask(r.tasks[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Domain != out[j].Domain {
			return out[i].Domain < out[j].Domain
		}
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func cloneParticipant(p *models.Participant) *models.Participant {
	c := *p
	c.Links = models.Links{
		GitHub:     cloneStringPtr(p.Links.GitHub),
		Demo:       cloneStringPtr(p.Links.Demo),
		Deployment: cloneStringPtr(p.Links.Deployment),
	}
	return &c
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTask(t *models.Task) *models.Task {
	c := *t
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	c.Steps = append([]string{}, t.Steps...)
	c.Requirements = append([]string{}, t.Requirements...)
	c.Datasets = append([]string{}, t.Datasets...)
	c.Outputs = append([]string{}, t.Outputs...)
	c.TechStack = append([]string{}, t.TechStack...)
	c.Tags = append([]string{}, t.Tags...)
	return &c
}
