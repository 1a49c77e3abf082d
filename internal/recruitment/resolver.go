package recruitment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gcsrm/recruitment-portal/internal/models"
	"github.com/gcsrm/recruitment-portal/internal/storage"
)

// Resolver looks up a participant and the tasks assigned to their domain and year
type Resolver struct {
	repo storage.Repository
}

// NewResolver creates a Resolver
func NewResolver(repo storage.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the dashboard for email
func (r *Resolver) Resolve(ctx context.Context, email string) (*models.Dashboard, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrMissingParameter
	}

	p, err := r.repo.GetParticipantByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get participant: %w", ErrInternal, err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	tasks, err := r.repo.FindTasks(ctx, TaskFilterFor(p))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to find tasks: %w", ErrInternal, err)
	}

	for _, t := range tasks {
		t.Link = models.CleanLink(t.Link)
		t.Normalize()
	}

	return models.NewDashboard(p, tasks), nil
}

// TaskFilterFor builds the task predicate for p
func TaskFilterFor(p *models.Participant) models.TaskFilter {
	return models.TaskFilter{
		Domains: models.DomainSpellings(string(p.Domain)),
		Years:   YearSet(p.Year),
	}
}

var ordinalPrefix = regexp.MustCompile(`(?i)^\s*(\d+(st|nd|rd|th))\b`)

// YearToken reduces a free-form year such as "2nd Year" to its ordinal ("2nd").
// Values without a leading ordinal are returned unchanged.
func YearToken(year string) string {
	m := ordinalPrefix.FindStringSubmatch(year)
	if m == nil {
		return year
	}
	return strings.ToLower(m[1])
}

// YearSet returns the task years matching a participant year: the raw value,
// its ordinal token and "both", without duplicates.
func YearSet(year string) []string {
	set := make([]string, 0, 3)
	seen := make(map[string]bool, 3)
	for _, y := range []string{year, YearToken(year), string(models.TaskYearBoth)} {
		if seen[y] {
			continue
		}
		seen[y] = true
		set = append(set, y)
	}
	return set
}
