package storage

import (
	"encoding/json"
	"fmt"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// taskLists holds the JSON-encoded list columns of a task row
type taskLists struct {
	steps        []byte
	requirements []byte
	datasets     []byte
	outputs      []byte
	techStack    []byte
	tags         []byte
}

func encodeTaskLists(t *models.Task) (taskLists, error) {
	var l taskLists
	fields := []struct {
		dst *[]byte
		src []string
	}{
		{&l.steps, t.Steps},
		{&l.requirements, t.Requirements},
		{&l.datasets, t.Datasets},
		{&l.outputs, t.Outputs},
		{&l.techStack, t.TechStack},
		{&l.tags, t.Tags},
	}
	for _, f := range fields {
		src := f.src
		if src == nil {
			src = []string{}
		}
		data, err := json.Marshal(src)
		if err != nil {
			return l, fmt.Errorf("failed to marshal task list: %w", err)
		}
		*f.dst = data
	}
	return l, nil
}

func (l taskLists) decodeInto(t *models.Task) error {
	fields := []struct {
		src []byte
		dst *[]string
	}{
		{l.steps, &t.Steps},
		{l.requirements, &t.Requirements},
		{l.datasets, &t.Datasets},
		{l.outputs, &t.Outputs},
		{l.techStack, &t.TechStack},
		{l.tags, &t.Tags},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			*f.dst = []string{}
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return fmt.Errorf("failed to unmarshal task list: %w", err)
		}
	}
	t.Normalize()
	return nil
}

func encodeLinks(links models.Links) ([]byte, error) {
	data, err := json.Marshal(links)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal links: %w", err)
	}
	return data, nil
}

func decodeLinks(data []byte) (models.Links, error) {
	var links models.Links
	if len(data) == 0 {
		return links, nil
	}
	if err := json.Unmarshal(data, &links); err != nil {
		return links, fmt.Errorf("failed to unmarshal links: %w", err)
	}
	return links, nil
}
