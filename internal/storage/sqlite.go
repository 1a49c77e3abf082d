package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// SQLiteRepository implements Repository on an embedded SQLite database.
// It serves local development and single-node deployments.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dsn
func NewSQLiteRepository(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dsn)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one writer at a time keeps unique checks and status flips serialised
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Ping checks database connectivity
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database handle
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Migrate applies the embedded sqlite migrations
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	return runMigrations(ctx, sqliteMigrationTarget{db: r.db}, "sqlite")
}

// --- Participants ---

// CreateParticipant inserts a new participant record
func (r *SQLiteRepository) CreateParticipant(ctx context.Context, p *models.Participant) error {
	linksJSON, err := encodeLinks(p.Links)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO participants (`+participantColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.Email,
		p.RegistrationNumber,
		p.Phone,
		p.Year,
		string(p.Domain),
		p.DegreeWithBranch,
		string(linksJSON),
		string(p.Status),
		formatTime(p.CreatedAt),
	)
	if err != nil {
		if column, ok := sqliteUniqueColumn(err); ok {
			return &DuplicateKeyError{Field: fieldForIndex(column), Index: column}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	return nil
}

// GetParticipantByEmail retrieves a participant by email
func (r *SQLiteRepository) GetParticipantByEmail(ctx context.Context, email string) (*models.Participant, error) {
	return r.getParticipant(ctx, `SELECT `+participantColumns+` FROM participants WHERE email = ?`, email)
}

// FindParticipant retrieves the first participant matching the registration number or the email
func (r *SQLiteRepository) FindParticipant(ctx context.Context, registrationNumber, email string) (*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE (?1 <> '' AND registration_number = ?1) OR (?2 <> '' AND email = ?2)
		ORDER BY created_at ASC
		LIMIT 1`
	return r.getParticipant(ctx, query, registrationNumber, email)
}

func (r *SQLiteRepository) getParticipant(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p, err := scanSQLiteParticipant(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// UpdateParticipantStatus sets the status of an existing participant
func (r *SQLiteRepository) UpdateParticipantStatus(ctx context.Context, id string, status models.ParticipantStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE participants SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListParticipants returns participants matching filters, newest first
func (r *SQLiteRepository) ListParticipants(ctx context.Context, filters models.ParticipantFilters) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE 1=1`
	args := make([]interface{}, 0)

	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, string(filters.Status))
	}

	if filters.Domain != "" {
		spellings := models.DomainSpellings(string(filters.Domain))
		query += " AND domain IN (" + placeholders(len(spellings)) + ")"
		for _, s := range spellings {
			args = append(args, s)
		}
	}

	query += " ORDER BY created_at DESC, rowid DESC"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
		if filters.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filters.Offset)
		}
	} else if filters.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filters.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanSQLiteParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}

// CountParticipants returns the number of registered participants
func (r *SQLiteRepository) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// RecentParticipants returns the most recent registrations
func (r *SQLiteRepository) RecentParticipants(ctx context.Context, limit int) ([]*models.Participant, error) {
	return r.ListParticipants(ctx, models.ParticipantFilters{Limit: limit})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteParticipant(row rowScanner) (*models.Participant, error) {
	var p models.Participant
	var domain, status, linksJSON, createdAt string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.RegistrationNumber,
		&p.Phone,
		&p.Year,
		&domain,
		&p.DegreeWithBranch,
		&linksJSON,
		&status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	p.Domain = models.Domain(domain)
	p.Status = models.ParticipantStatus(status)
	if p.Links, err = decodeLinks([]byte(linksJSON)); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	return &p, nil
}

// --- Tasks ---

// UpsertTask inserts a task or replaces the stored copy with the same ID
func (r *SQLiteRepository) UpsertTask(ctx context.Context, t *models.Task) error {
	lists, err := encodeTaskLists(t)
	if err != nil {
		return err
	}

	var deadline sql.NullString
	if t.Deadline != nil {
		deadline = sql.NullString{String: formatTime(*t.Deadline), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			guidelines = excluded.guidelines,
			link = excluded.link,
			domain = excluded.domain,
			subdomain = excluded.subdomain,
			task_type = excluded.task_type,
			year = excluded.year,
			deadline = excluded.deadline,
			steps = excluded.steps,
			requirements = excluded.requirements,
			datasets = excluded.datasets,
			evaluation = excluded.evaluation,
			outputs = excluded.outputs,
			tech_stack = excluded.tech_stack,
			difficulty = excluded.difficulty,
			estimated_time = excluded.estimated_time,
			tags = excluded.tags,
			submission_form = excluded.submission_form,
			submission_instructions = excluded.submission_instructions,
			updated_at = excluded.updated_at`,
		t.ID,
		t.Title,
		t.Description,
		t.Guidelines,
		nullString(t.Link),
		string(t.Domain),
		nullString(string(t.Subdomain)),
		t.TaskType,
		string(t.Year),
		deadline,
		string(lists.steps),
		string(lists.requirements),
		string(lists.datasets),
		nullString(t.Evaluation),
		string(lists.outputs),
		string(lists.techStack),
		nullString(string(t.Difficulty)),
		nullString(t.EstimatedTime),
		string(lists.tags),
		nullString(t.SubmissionForm),
		nullString(t.SubmissionInstructions),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	return nil
}

// FindTasks returns tasks whose domain and year are in the filter sets
func (r *SQLiteRepository) FindTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	if len(filter.Domains) == 0 || len(filter.Years) == 0 {
		return nil, nil
	}

	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE domain IN (` + placeholders(len(filter.Domains)) + `)
		  AND year IN (` + placeholders(len(filter.Years)) + `)
		ORDER BY created_at ASC, title ASC`

	args := make([]interface{}, 0, len(filter.Domains)+len(filter.Years))
	for _, d := range filter.Domains {
		args = append(args, d)
	}
	for _, y := range filter.Years {
		args = append(args, y)
	}

	return r.queryTasks(ctx, query, args...)
}

// ListTasks returns the whole task catalog
func (r *SQLiteRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY domain ASC, year ASC, title ASC`)
}

func (r *SQLiteRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*models.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		var domain, year, createdAt, updatedAt string
		var link, subdomain, deadline, evaluation, difficulty, estimatedTime, submissionForm, submissionInstructions sql.NullString
		var steps, requirements, datasets, outputs, techStack, tags string

		err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Description,
			&t.Guidelines,
			&link,
			&domain,
			&subdomain,
			&t.TaskType,
			&year,
			&deadline,
			&steps,
			&requirements,
			&datasets,
			&evaluation,
			&outputs,
			&techStack,
			&difficulty,
			&estimatedTime,
			&tags,
			&submissionForm,
			&submissionInstructions,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}

		t.Link = link.String
		t.Domain = models.Domain(domain)
		t.Subdomain = models.Subdomain(subdomain.String)
		t.Year = models.TaskYear(year)
		t.Evaluation = evaluation.String
		t.Difficulty = models.Difficulty(difficulty.String)
		t.EstimatedTime = estimatedTime.String
		t.SubmissionForm = submissionForm.String
		t.SubmissionInstructions = submissionInstructions.String

		if deadline.Valid {
			d, err := parseTime(deadline.String)
			if err != nil {
				return nil, err
			}
			t.Deadline = &d
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}

		lists := taskLists{
			steps:        []byte(steps),
			requirements: []byte(requirements),
			datasets:     []byte(datasets),
			outputs:      []byte(outputs),
			techStack:    []byte(techStack),
			tags:         []byte(tags),
		}
		if err := lists.decodeInto(&t); err != nil {
			return nil, err
		}

		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// --- Migrations ---

type sqliteMigrationTarget struct {
	db *sql.DB
}

func (m sqliteMigrationTarget) createMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m sqliteMigrationTarget) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}

	return applied, rows.Err()
}

func (m sqliteMigrationTarget) begin(ctx context.Context) (migrationTx, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqliteMigrationTx{tx: tx}, nil
}

type sqliteMigrationTx struct {
	tx *sql.Tx
}

func (t sqliteMigrationTx) exec(ctx context.Context, sql string) error {
	_, err := t.tx.ExecContext(ctx, sql)
	return err
}

func (t sqliteMigrationTx) record(ctx context.Context, name string) error {
	_, err := t.tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES (?)`, name)
	return err
}

func (t sqliteMigrationTx) commit(context.Context) error { return t.tx.Commit() }
func (t sqliteMigrationTx) rollback(context.Context)     { _ = t.tx.Rollback() }

// sqliteUniqueColumn extracts "table.column" from a UNIQUE constraint failure
func sqliteUniqueColumn(err error) (string, bool) {
	const marker = "UNIQUE constraint failed: "
	msg := err.Error()
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return "", false
	}
	column := msg[idx+len(marker):]
	if end := strings.IndexAny(column, " ,)"); end >= 0 {
		column = column[:end]
	}
	return column, true
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}
