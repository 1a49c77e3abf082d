package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/gcsrm/recruitment-portal/internal/config"
	"github.com/gcsrm/recruitment-portal/internal/models"
	"github.com/gcsrm/recruitment-portal/internal/recruitment"
	"github.com/gcsrm/recruitment-portal/internal/storage"
	"github.com/gcsrm/recruitment-portal/pkg/client"
)

// source answers read commands either from the store or from a running portal
type source interface {
	ListTasks(ctx context.Context) ([]*models.Task, error)
	Participants(ctx context.Context, filters models.ParticipantFilters) ([]*models.Participant, error)
	Stats(ctx context.Context) (*models.Stats, error)
	Lookup(ctx context.Context, email string) (*models.Dashboard, error)
	Health(ctx context.Context) (string, error)
}

type repoSource struct {
	repo     storage.Repository
	resolver *recruitment.Resolver
}

func (s repoSource) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return s.repo.ListTasks(ctx)
}

func (s repoSource) Participants(ctx context.Context, filters models.ParticipantFilters) ([]*models.Participant, error) {
	return s.repo.ListParticipants(ctx, filters)
}

func (s repoSource) Stats(ctx context.Context) (*models.Stats, error) {
	total, err := s.repo.CountParticipants(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentParticipants(ctx, 5)
	if err != nil {
		return nil, err
	}

	stats := &models.Stats{TotalUsers: total, RecentRegistrations: []models.ParticipantSummary{}}
	for _, p := range recent {
		stats.RecentRegistrations = append(stats.RecentRegistrations, p.Summary())
	}
	return stats, nil
}

func (s repoSource) Lookup(ctx context.Context, email string) (*models.Dashboard, error) {
	return s.resolver.Resolve(ctx, email)
}

func (s repoSource) Health(ctx context.Context) (string, error) {
	if err := s.repo.Ping(ctx); err != nil {
		return "error", err
	}
	return "ok", nil
}

type clientSource struct {
	c *client.Client
}

func (s clientSource) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return s.c.ListTasks(ctx)
}

func (s clientSource) Participants(ctx context.Context, filters models.ParticipantFilters) ([]*models.Participant, error) {
	return s.c.Participants(ctx, client.ListOptions{
		Status: string(filters.Status),
		Domain: string(filters.Domain),
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

func (s clientSource) Stats(ctx context.Context) (*models.Stats, error) {
	return s.c.Stats(ctx)
}

func (s clientSource) Lookup(ctx context.Context, email string) (*models.Dashboard, error) {
	return s.c.Tasks(ctx, email)
}

func (s clientSource) Health(ctx context.Context) (string, error) {
	h, err := s.c.Health(ctx)
	if h != nil {
		return h.Status, err
	}
	return "unreachable", err
}

// withSource runs fn against --server when given, otherwise against the configured store
func withSource(ctx context.Context, fn func(context.Context, source) error) error {
	if server := viper.GetString("server"); server != "" {
		return fn(ctx, clientSource{c: client.NewClient(server, viper.GetString("admin-key"))})
	}
	return withRepo(ctx, func(ctx context.Context, repo storage.Repository) error {
		return fn(ctx, repoSource{repo: repo, resolver: recruitment.NewResolver(repo)})
	})
}

func withRepo(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if driver := viper.GetString("driver"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := viper.GetString("dsn"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	repo, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer repo.Close()

	return fn(ctx, repo)
}
