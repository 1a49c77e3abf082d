package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// taskNamespace seeds the stable ids of tasks that do not declare one
var taskNamespace = uuid.MustParse("6f1d1c4e-5a53-4b39-9e7e-3c1a3f0f2b10")

// Loader reads the task catalog from YAML files and caches it by id
type Loader struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
	now   func() time.Time
}

// NewLoader creates an empty catalog loader
func NewLoader() *Loader {
	return &Loader{
		tasks: make(map[string]*models.Task),
		now:   time.Now,
	}
}

// LoadFromDir loads every *.yaml / *.yml file in dir and its direct subdirectories.
// A subdirectory named after a domain (e.g. "technical") supplies the default
// domain for the files inside it.
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading task catalog from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		files = append(files, matches...)

		subMatches, err := filepath.Glob(filepath.Join(dir, "*", pattern))
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", dir, err)
		}
		files = append(files, subMatches...)
	}
	sort.Strings(files)

	if len(files) == 0 {
		return fmt.Errorf("no catalog files found in %s", dir)
	}

	loaded := 0
	for _, file := range files {
		defaultDomain := ""
		if parent := filepath.Dir(file); parent != filepath.Clean(dir) {
			defaultDomain = filepath.Base(parent)
		}

		n, err := l.loadFile(file, defaultDomain)
		if err != nil {
			return err
		}
		loaded += n
	}

	slog.Info("task catalog loaded", "tasks", loaded, "files", len(files))
	return nil
}

// LoadFromFile loads a single catalog file
func (l *Loader) LoadFromFile(path string) error {
	_, err := l.loadFile(path, "")
	return err
}

func (l *Loader) loadFile(path, defaultDomain string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read file: %w", err)
	}

	tasks, err := l.Parse(data, defaultDomain)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}

	l.mu.Lock()
	for _, t := range tasks {
		l.tasks[t.ID] = t
	}
	l.mu.Unlock()

	slog.Debug("catalog file loaded", "file", path, "tasks", len(tasks))
	return len(tasks), nil
}

// Parse decodes a catalog document into validated tasks. File-level domain and
// year act as defaults for tasks that omit them.
func (l *Loader) Parse(data []byte, defaultDomain string) ([]*models.Task, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cf.Domain != "" {
		defaultDomain = cf.Domain
	}

	now := l.now().UTC()
	tasks := make([]*models.Task, 0, len(cf.Tasks))
	seen := make(map[string]bool, len(cf.Tasks))

	for i := range cf.Tasks {
		t := cf.Tasks[i]

		domainValue := string(t.Domain)
		if domainValue == "" {
			domainValue = defaultDomain
		}
		if d, ok := models.ParseDomain(domainValue); ok {
			t.Domain = d
		} else {
			t.Domain = models.Domain(domainValue)
		}
		if t.Year == "" {
			t.Year = models.TaskYear(cf.Year)
		}

		t.Link = models.CleanLink(strings.TrimSpace(t.Link))
		t.Normalize()

		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("task %d: %w", i+1, err)
		}

		if t.ID == "" {
			t.ID = StableID(&t)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("task %d: duplicate id %q", i+1, t.ID)
		}
		seen[t.ID] = true

		t.CreatedAt = now
		t.UpdatedAt = now
		tasks = append(tasks, &t)
	}

	return tasks, nil
}

// StableID derives a deterministic id from a task's domain, year and title so
// re-importing the same file updates rather than duplicates.
func StableID(t *models.Task) string {
	key := strings.ToLower(fmt.Sprintf("%s/%s/%s", t.Domain, t.Year, strings.TrimSpace(t.Title)))
	return uuid.NewSHA1(taskNamespace, []byte(key)).String()
}

// Get retrieves a task by id
func (l *Loader) Get(id string) *models.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tasks[id]
}

// List returns all loaded tasks ordered by domain, year and title
func (l *Loader) List() []*models.Task {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Task, 0, len(l.tasks))
	for _, t := range l.tasks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Domain != b.Domain {
			return a.Domain < b.Domain
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Title < b.Title
	})
	return result
}

// TaskWriter is the store side of an import
type TaskWriter interface {
	UpsertTask(ctx context.Context, t *models.Task) error
}

// Import upserts every loaded task into repo and returns how many were written
func (l *Loader) Import(ctx context.Context, repo TaskWriter) (int, error) {
	tasks := l.List()
	for i, t := range tasks {
		if err := repo.UpsertTask(ctx, t); err != nil {
			return i, fmt.Errorf("failed to import task %q: %w", t.Title, err)
		}
	}

	slog.Info("task catalog imported", "tasks", len(tasks))
	return len(tasks), nil
}

// catalogFile represents the YAML structure of a catalog file
type catalogFile struct {
	Domain string        `yaml:"domain"`
	Year   string        `yaml:"year"`
	Tasks  []models.Task `yaml:"tasks"`
}
