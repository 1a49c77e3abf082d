package health

import (
	"context"
	"errors"
	"testing"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("database", CheckerFunc(func(context.Context) error { return nil }))
	r.Register("redis", CheckerFunc(func(context.Context) error { return errors.New("connection refused") }))

	if names := r.List(); len(names) != 2 || names[0] != "database" || names[1] != "redis" {
		t.Fatalf("unexpected names: %v", names)
	}

	results := r.HealthCheckAll(context.Background())
	if results["database"] != nil {
		t.Errorf("database should be healthy, got %v", results["database"])
	}
	if results["redis"] == nil {
		t.Error("redis should be unhealthy")
	}

	// re-registering replaces the checker
	r.Register("redis", CheckerFunc(func(context.Context) error { return nil }))
	if err := r.HealthCheckAll(context.Background())["redis"]; err != nil {
		t.Errorf("replaced redis checker should be healthy, got %v", err)
	}
	if len(r.List()) != 2 {
		t.Errorf("re-registering duplicated the name: %v", r.List())
	}
}
