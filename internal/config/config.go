// Package config loads process configuration from the environment, with an
// optional .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the flat process configuration. Field tags name the
// environment variables.
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"bookflow.db"`

	CancellationLeadHours int `envconfig:"CANCELLATION_LEAD_HOURS" default:"24"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	OTelServiceName    string `envconfig:"OTEL_SERVICE_NAME" default:"bookflow"`
	OTelServiceVersion string `envconfig:"OTEL_SERVICE_VERSION" default:"0.1.0"`
	OTelEnvironment    string `envconfig:"OTEL_ENVIRONMENT" default:"development"`
	OTelExporter       string `envconfig:"OTEL_EXPORTER" default:"stdout"`

	CalendarEnabled    bool          `envconfig:"CALENDAR_ENABLED" default:"false"`
	GoogleClientID     string        `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleCalendarID   string        `envconfig:"GOOGLE_CALENDAR_ID" default:"primary"`
	CalendarRatePerSec float64       `envconfig:"CALENDAR_RATE_PER_SEC" default:"5"`
	CalendarTimeout    time.Duration `envconfig:"CALENDAR_TIMEOUT" default:"10s"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"bookings@localhost"`
	MailAsync    bool   `envconfig:"MAIL_ASYNC" default:"false"`
}

// Load reads the given .env files (default ".env") when present, then
// processes the environment. Variables already set in the environment win
// over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values envconfig cannot express as tags.
func (c Config) Validate() error {
	if c.CancellationLeadHours < 0 {
		return fmt.Errorf("CANCELLATION_LEAD_HOURS must be >= 0, got %d", c.CancellationLeadHours)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be \"json\" or \"text\", got %q", c.LogFormat)
	}
	if c.CalendarRatePerSec < 0 {
		return fmt.Errorf("CALENDAR_RATE_PER_SEC must be >= 0, got %v", c.CalendarRatePerSec)
	}
	return nil
}

// OTelInsecure reports whether OTLP should use plain HTTP.
func (c Config) OTelInsecure() bool {
	return c.OTelEnvironment == "development"
}
