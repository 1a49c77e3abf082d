package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TaskYear is the cohort a task is aimed at
type TaskYear string

const (
	TaskYearFirst  TaskYear = "1st"
	TaskYearSecond TaskYear = "2nd"
	TaskYearBoth   TaskYear = "both"
)

// Valid reports whether y is one of the known task years
func (y TaskYear) Valid() bool {
	return y == TaskYearFirst || y == TaskYearSecond || y == TaskYearBoth
}

// Difficulty grades a task
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Valid reports whether d is empty or a known difficulty
func (d Difficulty) Valid() bool {
	switch d {
	case "", DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Task is a piece of reference work assigned to participants by domain and year
type Task struct {
	ID          string    `json:"id" bson:"_id" yaml:"id"`
	Title       string    `json:"title" bson:"title" yaml:"title"`
	Description string    `json:"description" bson:"description" yaml:"description"`
	Guidelines  string    `json:"guidelines" bson:"guidelines" yaml:"guidelines"`
	Link        string    `json:"link,omitempty" bson:"link,omitempty" yaml:"link"`
	Domain      Domain    `json:"domain" bson:"domain" yaml:"domain"`
	Subdomain   Subdomain `json:"subdomain,omitempty" bson:"subdomain,omitempty" yaml:"subdomain"`
	TaskType    string    `json:"taskType" bson:"taskType" yaml:"taskType"`
	Year        TaskYear  `json:"year" bson:"year" yaml:"year"`

	Deadline *time.Time `json:"deadline,omitempty" bson:"deadline,omitempty" yaml:"deadline"`

	Steps        []string `json:"steps" bson:"steps" yaml:"steps"`
	Requirements []string `json:"requirements" bson:"requirements" yaml:"requirements"`
	Datasets     []string `json:"datasets" bson:"datasets" yaml:"datasets"`
	Evaluation   string   `json:"evaluation,omitempty" bson:"evaluation,omitempty" yaml:"evaluation"`
	Outputs      []string `json:"outputs" bson:"outputs" yaml:"outputs"`
	TechStack    []string `json:"techStack" bson:"techStack" yaml:"techStack"`

	Difficulty    Difficulty `json:"difficulty,omitempty" bson:"difficulty,omitempty" yaml:"difficulty"`
	EstimatedTime string     `json:"estimatedTime,omitempty" bson:"estimatedTime,omitempty" yaml:"estimatedTime"`
	Tags          []string   `json:"tags" bson:"tags" yaml:"tags"`

	SubmissionForm         string `json:"submissionForm,omitempty" bson:"submissionForm,omitempty" yaml:"submissionForm"`
	SubmissionInstructions string `json:"submissionInstructions,omitempty" bson:"submissionInstructions,omitempty" yaml:"submissionInstructions"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt" yaml:"-"`
}

// Validate checks required fields and closed sets
func (t *Task) Validate() error {
	switch {
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("task title is required")
	case strings.TrimSpace(t.Description) == "":
		return fmt.Errorf("task %q: description is required", t.Title)
	case strings.TrimSpace(t.Guidelines) == "":
		return fmt.Errorf("task %q: guidelines are required", t.Title)
	case strings.TrimSpace(t.TaskType) == "":
		return fmt.Errorf("task %q: taskType is required", t.Title)
	case !t.Domain.Valid():
		return fmt.Errorf("task %q: unknown domain %q", t.Title, t.Domain)
	case t.Subdomain != "" && !t.Subdomain.Valid():
		return fmt.Errorf("task %q: unknown subdomain %q", t.Title, t.Subdomain)
	case !t.Year.Valid():
		return fmt.Errorf("task %q: year must be 1st, 2nd or both, got %q", t.Title, t.Year)
	case !t.Difficulty.Valid():
		return fmt.Errorf("task %q: unknown difficulty %q", t.Title, t.Difficulty)
	}
	return nil
}

// Normalize fills nil list fields so they serialize as empty arrays
func (t *Task) Normalize() {
	for _, list := range []*[]string{&t.Steps, &t.Requirements, &t.Datasets, &t.Outputs, &t.TechStack, &t.Tags} {
		if *list == nil {
			*list = []string{}
		}
	}
}

var strayQuotes = regexp.MustCompile(`^\s*"+|"+\s*$`)

// CleanLink strips stray double quotes wrapped around a link by upstream data entry
func CleanLink(link string) string {
	return strayQuotes.ReplaceAllString(link, "")
}

// TaskFilter selects tasks whose domain and year are each in the given sets
type TaskFilter struct {
	Domains []string
	Years   []string
}
