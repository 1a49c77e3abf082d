package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("driver = %q, want %q", cfg.Database.Driver, DriverPostgres)
	}
	if cfg.Database.ParticipantsCollection != "recruitment25" {
		t.Errorf("participants collection = %q", cfg.Database.ParticipantsCollection)
	}
	if !cfg.Windows.Registration.OpensAt.Equal(DefaultRegistrationOpensAt) {
		t.Errorf("registration opens at %v, want %v", cfg.Windows.Registration.OpensAt, DefaultRegistrationOpensAt)
	}
	if !cfg.Windows.Submission.ClosesAt.Equal(DefaultSubmissionClosesAt) {
		t.Errorf("submission closes at %v, want %v", cfg.Windows.Submission.ClosesAt, DefaultSubmissionClosesAt)
	}
	if cfg.Sheet.Timeout != 30*time.Second {
		t.Errorf("sheet timeout = %v", cfg.Sheet.Timeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "MEMORY")
	t.Setenv("SHEET_WEBHOOK_URL", "https://script.example.com/exec")
	t.Setenv("REGISTRATION_OPENS_AT", "2026-01-01T00:00:00Z")
	t.Setenv("REGISTRATION_CLOSES_AT", "2026-01-10T23:59:59Z")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != DriverMemory {
		t.Errorf("driver = %q, want memory", cfg.Database.Driver)
	}
	if cfg.Sheet.WebhookURL != "https://script.example.com/exec" {
		t.Errorf("webhook = %q", cfg.Sheet.WebhookURL)
	}
	want := time.Date(2026, time.January, 10, 23, 59, 59, 0, time.UTC)
	if !cfg.Windows.Registration.ClosesAt.Equal(want) {
		t.Errorf("registration closes at %v, want %v", cfg.Windows.Registration.ClosesAt, want)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	content := "DATABASE_DRIVER: sqlite\nDATABASE_DSN: " + filepath.Join(dir, "portal.db") + "\nADMIN_API_KEY: sk_admin_123\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORTAL_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Admin.APIKey != "sk_admin_123" {
		t.Errorf("admin key = %q", cfg.Admin.APIKey)
	}
}

func TestValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{
			name:    "bad port",
			values:  map[string]any{"SERVER_PORT": 70000},
			wantErr: "invalid server port",
		},
		{
			name:    "unknown driver",
			values:  map[string]any{"DATABASE_DRIVER": "cassandra"},
			wantErr: "unknown database driver",
		},
		{
			name:    "missing dsn",
			values:  map[string]any{"DATABASE_DRIVER": "mongo", "DATABASE_DSN": ""},
			wantErr: "DSN is required",
		},
		{
			name: "inverted window",
			values: map[string]any{
				"SUBMISSION_OPENS_AT":  "2025-09-10T00:00:00Z",
				"SUBMISSION_CLOSES_AT": "2025-09-01T00:00:00Z",
			},
			wantErr: "submission window opens after it closes",
		},
		{
			name:    "lock ttl equal to webhook timeout",
			values:  map[string]any{"SHEET_WEBHOOK_TIMEOUT": "30s", "SUBMISSION_LOCK_TTL": "30s"},
			wantErr: "must exceed the sheet webhook timeout",
		},
		{
			name:    "lock ttl shorter than webhook timeout",
			values:  map[string]any{"SHEET_WEBHOOK_TIMEOUT": "45s"},
			wantErr: "must exceed the sheet webhook timeout",
		},
		{
			name:    "malformed instant",
			values:  map[string]any{"REGISTRATION_OPENS_AT": "next monday"},
			wantErr: "REGISTRATION_OPENS_AT must be an RFC3339 instant",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			for k, val := range tt.values {
				v.Set(k, val)
			}
			_, err := FromViper(v)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for level, want := range tests {
		if got := (LogConfig{Level: level}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestDefaultLockOutlivesWebhook(t *testing.T) {
	cfg, err := FromViper(viper.New())
	if err != nil {
		t.Fatalf("FromViper: %v", err)
	}
	if cfg.Submission.LockTTL <= cfg.Sheet.Timeout {
		t.Errorf("lock ttl %s does not exceed webhook timeout %s", cfg.Submission.LockTTL, cfg.Sheet.Timeout)
	}
}
