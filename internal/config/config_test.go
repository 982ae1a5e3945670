package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neomorfeo/bookflow/internal/config"
)

func missingEnvFile(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DatabasePath != "bookflow.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.CancellationLeadHours != 24 {
		t.Errorf("CancellationLeadHours = %d, want 24", cfg.CancellationLeadHours)
	}
	if cfg.CalendarEnabled {
		t.Error("CalendarEnabled should default to false")
	}
	if cfg.CalendarTimeout != 10*time.Second {
		t.Errorf("CalendarTimeout = %s", cfg.CalendarTimeout)
	}
	if cfg.GoogleCalendarID != "primary" {
		t.Errorf("GoogleCalendarID = %q", cfg.GoogleCalendarID)
	}
	if !cfg.OTelInsecure() {
		t.Error("development environment should use insecure OTLP")
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CANCELLATION_LEAD_HOURS", "0")
	t.Setenv("CALENDAR_ENABLED", "true")
	t.Setenv("CALENDAR_TIMEOUT", "3s")
	t.Setenv("MAIL_ASYNC", "true")
	t.Setenv("OTEL_ENVIRONMENT", "production")

	cfg, err := config.Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.CancellationLeadHours != 0 {
		t.Errorf("CancellationLeadHours = %d, want 0", cfg.CancellationLeadHours)
	}
	if !cfg.CalendarEnabled || !cfg.MailAsync {
		t.Error("expected boolean flags to be parsed")
	}
	if cfg.CalendarTimeout != 3*time.Second {
		t.Errorf("CalendarTimeout = %s", cfg.CalendarTimeout)
	}
	if cfg.OTelInsecure() {
		t.Error("production should not use insecure OTLP")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SMTP_HOST=mail.example.com\nMAIL_FROM=desk@example.com\nPORT=7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing env file: %v", err)
	}
	// The process environment wins over .env values.
	t.Setenv("PORT", "7100")
	t.Cleanup(func() {
		os.Unsetenv("SMTP_HOST")
		os.Unsetenv("MAIL_FROM")
	})

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SMTPHost != "mail.example.com" {
		t.Errorf("SMTPHost = %q", cfg.SMTPHost)
	}
	if cfg.MailFrom != "desk@example.com" {
		t.Errorf("MailFrom = %q", cfg.MailFrom)
	}
	if cfg.Port != "7100" {
		t.Errorf("Port = %q, want environment value 7100", cfg.Port)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"negative lead hours", "CANCELLATION_LEAD_HOURS", "-1"},
		{"non-numeric lead hours", "CANCELLATION_LEAD_HOURS", "soon"},
		{"unknown log format", "LOG_FORMAT", "xml"},
		{"negative rate", "CALENDAR_RATE_PER_SEC", "-2"},
		{"bad duration", "CALENDAR_TIMEOUT", "ten"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			if _, err := config.Load(missingEnvFile(t)); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.val)
			}
		})
	}
}
