package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gcsrm/recruitment-portal/internal/config"
)

// Open connects to the backend selected by cfg.Driver
func Open(ctx context.Context, cfg config.DatabaseConfig) (Repository, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresRepository(ctx, PostgresConfig{
			DSN:          cfg.DSN,
			MaxOpenConns: int32(cfg.MaxConns),
			MaxIdleConns: int32(cfg.MinConns),
			MaxLifetime:  30 * time.Minute,
		})
	case config.DriverMongo:
		return NewMongoRepository(ctx, MongoConfig{
			URI:                    cfg.DSN,
			Database:               cfg.Name,
			ParticipantsCollection: cfg.ParticipantsCollection,
			TasksCollection:        cfg.TasksCollection,
		})
	case config.DriverSQLite:
		return NewSQLiteRepository(ctx, cfg.DSN)
	case config.DriverMemory:
		return NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

// Migrate runs schema or index setup when repo supports it
func Migrate(ctx context.Context, repo Repository) error {
	m, ok := repo.(Migrator)
	if !ok {
		return nil
	}
	return m.Migrate(ctx)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
