package models

import (
	"fmt"
	"time"
)

// ParticipantStatus represents where a participant is in the recruitment pipeline
type ParticipantStatus string

const (
	StatusRegistered           ParticipantStatus = "registered"
	StatusTaskSubmitted        ParticipantStatus = "taskSubmitted"
	StatusInterviewShortlisted ParticipantStatus = "interviewShortlisted"
	StatusOnboarding           ParticipantStatus = "onboarding"
)

var statusRank = map[ParticipantStatus]int{
	StatusRegistered:           0,
	StatusTaskSubmitted:        1,
	StatusInterviewShortlisted: 2,
	StatusOnboarding:           3,
}

// Valid reports whether s is one of the known statuses
func (s ParticipantStatus) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Rank returns the position of s in the pipeline, or -1 for unknown statuses
func (s ParticipantStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next goes strictly forward
func (s ParticipantStatus) CanAdvanceTo(next ParticipantStatus) bool {
	return s.Valid() && next.Valid() && next.Rank() > s.Rank()
}

// Links holds the optional project links a participant may attach
type Links struct {
	GitHub     *string `json:"github" bson:"github"`
	Demo       *string `json:"demo" bson:"demo"`
	Deployment *string `json:"deployment" bson:"deployment"`
}

// Participant represents one registrant
type Participant struct {
	ID                 string            `json:"id" bson:"_id"`
	Name               string            `json:"name" bson:"name"`
	Email              string            `json:"email" bson:"email"`
	RegistrationNumber string            `json:"registrationNumber" bson:"registrationNumber"`
	Phone              string            `json:"phone" bson:"phone"`
	Year               string            `json:"year" bson:"year"`
	Domain             Domain            `json:"domain" bson:"domain"`
	DegreeWithBranch   string            `json:"degreeWithBranch" bson:"degreeWithBranch"`
	Links              Links             `json:"links" bson:"links"`
	Status             ParticipantStatus `json:"status" bson:"status"`
	CreatedAt          time.Time         `json:"createdAt" bson:"createdAt"`
}

// Advance moves the participant to next, refusing backward or same-state moves
func (p *Participant) Advance(next ParticipantStatus) error {
	if !p.Status.CanAdvanceTo(next) {
		return fmt.Errorf("cannot move participant from %q to %q", p.Status, next)
	}
	p.Status = next
	return nil
}

// ParticipantFilters holds filters for listing participants
type ParticipantFilters struct {
	Status ParticipantStatus
	Domain Domain
	Limit  int
	Offset int
}

// ParticipantSummary is the subset of a participant shown in admin listings
type ParticipantSummary struct {
	Name               string            `json:"name"`
	Email              string            `json:"email"`
	RegistrationNumber string            `json:"registrationNumber"`
	Domain             Domain            `json:"domain"`
	Status             ParticipantStatus `json:"status"`
	CreatedAt          time.Time         `json:"createdAt"`
}

// Summary returns the admin listing view of p
func (p *Participant) Summary() ParticipantSummary {
	return ParticipantSummary{
		Name:               p.Name,
		Email:              p.Email,
		RegistrationNumber: p.RegistrationNumber,
		Domain:             p.Domain,
		Status:             p.Status,
		CreatedAt:          p.CreatedAt,
	}
}
