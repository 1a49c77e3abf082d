package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RegistrationRequest is the payload of a registration attempt
type RegistrationRequest struct {
	Name               string     `json:"name"`
	Email              string     `json:"email"`
	Phone              string     `json:"phone"`
	Year               string     `json:"year"`
	Domain             string     `json:"domain"`
	DegreeWithBranch   string     `json:"degreeWithBranch"`
	RegistrationNumber string     `json:"registrationNumber"`
	SubmissionTime     *EpochTime `json:"submissionTime,omitempty"`
}

var (
	emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Validate returns a field -> message map of every failed constraint, or nil
func (r *RegistrationRequest) Validate() map[string]string {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "Name is required"
	}

	switch email := strings.TrimSpace(r.Email); {
	case email == "":
		errs["email"] = "Email address is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Please enter a valid email address"
	}

	switch phone := strings.TrimSpace(r.Phone); {
	case phone == "":
		errs["phone"] = "Phone number is required"
	case len(nonDigits.ReplaceAllString(phone, "")) != 10:
		errs["phone"] = "Please enter a valid 10-digit phone number"
	}

	if strings.TrimSpace(r.RegistrationNumber) == "" {
		errs["registrationNumber"] = "Registration number is required"
	}
	if strings.TrimSpace(r.Year) == "" {
		errs["year"] = "Year is required"
	}
	if strings.TrimSpace(r.DegreeWithBranch) == "" {
		errs["degreeWithBranch"] = "Degree with branch is required"
	}

	switch domain := strings.TrimSpace(r.Domain); {
	case domain == "":
		errs["domain"] = "Domain is required"
	default:
		if _, ok := ParseDomain(domain); !ok {
			errs["domain"] = fmt.Sprintf("Unknown domain %q", domain)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// EpochTime is an instant that decodes from epoch milliseconds (number or
// numeric string) or from an RFC3339 string.
type EpochTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (t *EpochTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	if data[0] != '"' {
		var ms float64
		if err := json.Unmarshal(data, &ms); err != nil {
			return fmt.Errorf("invalid timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(int64(ms))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t.Time = time.UnixMilli(ms)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON encodes the instant as epoch milliseconds
func (t EpochTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.UnixMilli(), 10)), nil
}

// RegistrationResponse is the wire shape of a registration result
type RegistrationResponse struct {
	Success  bool              `json:"success"`
	User     *Participant      `json:"user,omitempty"`
	Error    string            `json:"error,omitempty"`
	Code     string            `json:"code,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	OpensAt  *time.Time        `json:"opensAt,omitempty"`
	ClosesAt *time.Time        `json:"closesAt,omitempty"`
}

// Dashboard is the task lookup response for one participant
type Dashboard struct {
	Name   string            `json:"name"`
	RegNo  string            `json:"regNo"`
	Email  string            `json:"email"`
	Year   string            `json:"year"`
	Dept   string            `json:"dept"`
	Phone  string            `json:"phone"`
	Domain Domain            `json:"domain"`
	Status ParticipantStatus `json:"status"`
	Tasks  []*Task           `json:"tasks"`
}

// NewDashboard builds the dashboard view of p with the given tasks
func NewDashboard(p *Participant, tasks []*Task) *Dashboard {
	if tasks == nil {
		tasks = []*Task{}
	}
	return &Dashboard{
		Name:   p.Name,
		RegNo:  p.RegistrationNumber,
		Email:  p.Email,
		Year:   p.Year,
		Dept:   p.DegreeWithBranch,
		Phone:  p.Phone,
		Domain: p.Domain,
		Status: p.Status,
		Tasks:  tasks,
	}
}

// Stats summarises registrations for operators
type Stats struct {
	TotalUsers          int64                `json:"totalUsers"`
	RecentRegistrations []ParticipantSummary `json:"recentRegistrations"`
}
