package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gcsrm/recruitment-portal/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

const uniqueViolation = "23505"

const participantColumns = `id, name, email, registration_number, phone, year, domain, degree_with_branch, links, status, created_at`

const taskColumns = `id, title, description, guidelines, link, domain, subdomain, task_type, year, deadline,
	steps, requirements, datasets, evaluation, outputs, tech_stack, difficulty, estimated_time, tags,
	submission_form, submission_instructions, created_at, updated_at`

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// Migrate applies the embedded postgres migrations
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	return runMigrations(ctx, pgMigrationTarget{pool: r.pool}, "postgres")
}

// --- Participants ---

// CreateParticipant inserts a new participant record
func (r *PostgresRepository) CreateParticipant(ctx context.Context, p *models.Participant) error {
	linksJSON, err := encodeLinks(p.Links)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO participants (` + participantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.RegistrationNumber,
		p.Phone,
		p.Year,
		string(p.Domain),
		p.DegreeWithBranch,
		linksJSON,
		string(p.Status),
		p.CreatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &DuplicateKeyError{Field: fieldForIndex(pgErr.ConstraintName), Index: pgErr.ConstraintName}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	return nil
}

// GetParticipantByEmail retrieves a participant by email
func (r *PostgresRepository) GetParticipantByEmail(ctx context.Context, email string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE email = $1`
	return r.getParticipant(ctx, query, email)
}

// FindParticipant retrieves the first participant matching the registration number or the email
func (r *PostgresRepository) FindParticipant(ctx context.Context, registrationNumber, email string) (*models.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE ($1 <> '' AND registration_number = $1) OR ($2 <> '' AND email = $2)
		ORDER BY created_at ASC
		LIMIT 1
	`
	return r.getParticipant(ctx, query, registrationNumber, email)
}

func (r *PostgresRepository) getParticipant(ctx context.Context, query string, args ...interface{}) (*models.Participant, error) {
	p, err := scanPgParticipant(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// UpdateParticipantStatus sets the status of an existing participant
func (r *PostgresRepository) UpdateParticipantStatus(ctx context.Context, id string, status models.ParticipantStatus) error {
	result, err := r.pool.Exec(ctx, `UPDATE participants SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update participant status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("participant %s: %w", id, ErrNotFound)
	}

	return nil
}

// ListParticipants returns participants matching filters, newest first
func (r *PostgresRepository) ListParticipants(ctx context.Context, filters models.ParticipantFilters) ([]*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE 1=1`
	args := make([]interface{}, 0)
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(filters.Status))
		argNum++
	}

	if filters.Domain != "" {
		query += fmt.Sprintf(" AND domain = ANY($%d)", argNum)
		args = append(args, models.DomainSpellings(string(filters.Domain)))
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filters.Limit)
		argNum++
	}

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}

	return r.queryParticipants(ctx, query, args...)
}

// CountParticipants returns the number of registered participants
func (r *PostgresRepository) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// RecentParticipants returns the most recent registrations
func (r *PostgresRepository) RecentParticipants(ctx context.Context, limit int) ([]*models.Participant, error) {
	return r.ListParticipants(ctx, models.ParticipantFilters{Limit: limit})
}

func (r *PostgresRepository) queryParticipants(ctx context.Context, query string, args ...interface{}) ([]*models.Participant, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p, err := scanPgParticipant(rows)
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

func scanPgParticipant(row pgx.Row) (*models.Participant, error) {
	var p models.Participant
	var domain, status string
	var linksJSON []byte

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
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Domain = models.Domain(domain)
	p.Status = models.ParticipantStatus(status)
	if p.Links, err = decodeLinks(linksJSON); err != nil {
		return nil, err
	}

	return &p, nil
}

// --- Tasks ---

// UpsertTask inserts a task or replaces the stored copy with the same ID
func (r *PostgresRepository) UpsertTask(ctx context.Context, t *models.Task) error {
	lists, err := encodeTaskLists(t)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			guidelines = EXCLUDED.guidelines,
			link = EXCLUDED.link,
			domain = EXCLUDED.domain,
			subdomain = EXCLUDED.subdomain,
			task_type = EXCLUDED.task_type,
			year = EXCLUDED.year,
			deadline = EXCLUDED.deadline,
			steps = EXCLUDED.steps,
			requirements = EXCLUDED.requirements,
			datasets = EXCLUDED.datasets,
			evaluation = EXCLUDED.evaluation,
			outputs = EXCLUDED.outputs,
			tech_stack = EXCLUDED.tech_stack,
			difficulty = EXCLUDED.difficulty,
			estimated_time = EXCLUDED.estimated_time,
			tags = EXCLUDED.tags,
			submission_form = EXCLUDED.submission_form,
			submission_instructions = EXCLUDED.submission_instructions,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.pool.Exec(ctx, query,
		t.ID,
		t.Title,
		t.Description,
		t.Guidelines,
		nullString(t.Link),
		string(t.Domain),
		nullString(string(t.Subdomain)),
		t.TaskType,
		string(t.Year),
		nullTime(t.Deadline),
		lists.steps,
		lists.requirements,
		lists.datasets,
		nullString(t.Evaluation),
		lists.outputs,
		lists.techStack,
		nullString(string(t.Difficulty)),
		nullString(t.EstimatedTime),
		lists.tags,
		nullString(t.SubmissionForm),
		nullString(t.SubmissionInstructions),
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	return nil
}

// FindTasks returns tasks whose domain and year are in the filter sets
func (r *PostgresRepository) FindTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE domain = ANY($1) AND year = ANY($2)
		ORDER BY created_at ASC, title ASC
	`
	return r.queryTasks(ctx, query, filter.Domains, filter.Years)
}

// ListTasks returns the whole task catalog
func (r *PostgresRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY domain ASC, year ASC, title ASC`
	return r.queryTasks(ctx, query)
}

func (r *PostgresRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*models.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var t models.Task
		var domain, year string
		var link, subdomain, evaluation, difficulty, estimatedTime, submissionForm, submissionInstructions sql.NullString
		var deadline sql.NullTime
		var lists taskLists

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
			&lists.steps,
			&lists.requirements,
			&lists.datasets,
			&evaluation,
			&lists.outputs,
			&lists.techStack,
			&difficulty,
			&estimatedTime,
			&lists.tags,
			&submissionForm,
			&submissionInstructions,
			&t.CreatedAt,
			&t.UpdatedAt,
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
			t.Deadline = &deadline.Time
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

type pgMigrationTarget struct {
	pool *pgxpool.Pool
}

func (m pgMigrationTarget) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`
	_, err := m.pool.Exec(ctx, query)
	return err
}

func (m pgMigrationTarget) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx, `SELECT name FROM schema_migrations`)
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

func (m pgMigrationTarget) begin(ctx context.Context) (migrationTx, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgMigrationTx{tx: tx}, nil
}

type pgMigrationTx struct {
	tx pgx.Tx
}

func (t pgMigrationTx) exec(ctx context.Context, sql string) error {
	_, err := t.tx.Exec(ctx, sql)
	return err
}

func (t pgMigrationTx) record(ctx context.Context, name string) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
	return err
}

func (t pgMigrationTx) commit(ctx context.Context) error { return t.tx.Commit(ctx) }
func (t pgMigrationTx) rollback(ctx context.Context)     { _ = t.tx.Rollback(ctx) }

// Helper functions for nullable values

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
