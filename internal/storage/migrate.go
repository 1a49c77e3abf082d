package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

//go:embed migrations
var migrationFiles embed.FS

// migrationTx is one migration's transaction on a SQL backend
type migrationTx interface {
	exec(ctx context.Context, sql string) error
	record(ctx context.Context, name string) error
	commit(ctx context.Context) error
	rollback(ctx context.Context)
}

// migrationTarget abstracts the dialect-specific bookkeeping of a SQL backend
type migrationTarget interface {
	createMigrationsTable(ctx context.Context) error
	appliedMigrations(ctx context.Context) (map[string]bool, error)
	begin(ctx context.Context) (migrationTx, error)
}

// runMigrations executes all pending .sql migrations from dir in name order
func runMigrations(ctx context.Context, target migrationTarget, dir string) error {
	if err := target.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := target.appliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrations, err := listMigrations(migrationFiles, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, migration := range migrations {
		if applied[migration] {
			slog.Debug("migration already applied", "migration", migration)
			continue
		}

		slog.Info("applying migration", "migration", migration, "dialect", dir)

		content, err := fs.ReadFile(migrationFiles, path.Join("migrations", dir, migration))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", migration, err)
		}

		tx, err := target.begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for %s: %w", migration, err)
		}

		if err := tx.exec(ctx, string(content)); err != nil {
			tx.rollback(ctx)
			return fmt.Errorf("failed to execute migration %s: %w", migration, err)
		}

		if err := tx.record(ctx, migration); err != nil {
			tx.rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", migration, err)
		}

		if err := tx.commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", migration, err)
		}

		slog.Info("migration applied successfully", "migration", migration)
	}

	return nil
}

// listMigrations returns the sorted .sql file names under dir
func listMigrations(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, path.Join("migrations", dir))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
