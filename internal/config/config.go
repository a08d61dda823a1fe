// Package config centralises configuration parsing for the activities service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures runtime configuration values for the activities service.
type Config struct {
	HTTPAddress       string        `env:"HTTP_ADDRESS" envDefault:":8000"`
	CatalogPath       string        `env:"CATALOG_PATH"`                        // Empty selects the embedded seed catalog.
	EnforceCapacity   bool          `env:"ENFORCE_CAPACITY" envDefault:"false"` // Reject signups once max_participants is reached.
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat         string        `env:"LOG_FORMAT" envDefault:"json"`
	CORSAllowedOrigin string        `env:"CORS_ALLOWED_ORIGIN" envDefault:"http://localhost:5173"`
	KafkaBrokers      []string      `env:"KAFKA_BROKERS" envSeparator:","` // Empty disables roster event publishing.
	RosterTopic       string        `env:"ROSTER_TOPIC" envDefault:"activity_roster_events"`
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"10s"`
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Roster events are queued and delivered in the background; a full queue drops the event.
	EventBufferSize     int           `env:"ROSTER_EVENT_BUFFER" envDefault:"256"`
	EventPublishTimeout time.Duration `env:"ROSTER_PUBLISH_TIMEOUT" envDefault:"5s"`
}

// Load reads environment variables into Config, applying defaults for local dev.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses configuration from the given variables instead of the process environment.
func LoadFrom(environment map[string]string) (Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.KafkaBrokers = splitAndTrim(cfg.KafkaBrokers)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	return cfg, nil
}

func splitAndTrim(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
