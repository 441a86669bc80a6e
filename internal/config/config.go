// Package config loads the server configuration. Values are layered:
// defaults, then an optional YAML file, then .env files, then PROFILEFORM_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-profileform/pkg/render"
	"github.com/goliatone/go-profileform/pkg/store"
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Config is the complete server configuration.
type Config struct {
	Addr          string        `yaml:"addr" env:"PROFILEFORM_ADDR"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace" env:"PROFILEFORM_SHUTDOWN_GRACE"`
	// CORSOrigins is a comma separated list of origins allowed to call the
	// action endpoint.
	CORSOrigins string `yaml:"cors_origins" env:"PROFILEFORM_CORS_ORIGINS"`

	Store  StoreConfig  `yaml:"store"`
	Action ActionConfig `yaml:"action"`
	Page   PageConfig   `yaml:"page"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects the profile store.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"PROFILEFORM_STORE_DRIVER"`
	DSN    string `yaml:"dsn" env:"PROFILEFORM_DATABASE_URL"`
}

// ActionConfig configures the guards of the server action.
type ActionConfig struct {
	ReadOnly        bool   `yaml:"read_only" env:"PROFILEFORM_READ_ONLY"`
	ReadOnlyMessage string `yaml:"read_only_message" env:"PROFILEFORM_READ_ONLY_MESSAGE"`
	JWTSecret       string `yaml:"jwt_secret" env:"PROFILEFORM_JWT_SECRET"`
}

// PageConfig configures the rendered page.
type PageConfig struct {
	Title            string `yaml:"title" env:"PROFILEFORM_TITLE"`
	ClientValidation bool   `yaml:"client_validation" env:"PROFILEFORM_CLIENT_VALIDATION"`
	ThemeVariant     string `yaml:"theme_variant" env:"PROFILEFORM_THEME_VARIANT"`
	TemplatesDir     string `yaml:"templates_dir" env:"PROFILEFORM_TEMPLATES_DIR"`
	WatchTemplates   bool   `yaml:"watch_templates" env:"PROFILEFORM_WATCH_TEMPLATES"`
	Timezone         string `yaml:"timezone" env:"PROFILEFORM_TIMEZONE"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"PROFILEFORM_LOG_LEVEL"`
	Format string `yaml:"format" env:"PROFILEFORM_LOG_FORMAT"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Addr:          ":8080",
		ShutdownGrace: 10 * time.Second,
		Store: StoreConfig{
			Driver: store.DriverMemory,
		},
		Page: PageConfig{
			ClientValidation: true,
			ThemeVariant:     render.VariantLight,
			Timezone:         "UTC",
		},
		Log: LogConfig{
			Level:  "info",
			Format: LogFormatText,
		},
	}
}

// Load builds the configuration from path (optional), the given .env files
// (missing files are skipped) and the environment, then validates it.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return Config{}, err
	}

	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func loadEnvFiles(files []string) error {
	var existing []string
	for _, file := range files {
		if file == "" {
			continue
		}
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("config: load env files: %w", err)
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Addr) == "" {
		problems = append(problems, "addr is required")
	}
	if c.ShutdownGrace < 0 {
		problems = append(problems, "shutdown_grace must not be negative")
	}

	switch strings.ToLower(c.Store.Driver) {
	case "", store.DriverMemory:
	case store.DriverSQLite, "sqlite3", store.DriverPostgres, "pgx":
		if strings.TrimSpace(c.Store.DSN) == "" {
			problems = append(problems, fmt.Sprintf("store driver %q requires a database url", c.Store.Driver))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Page.ThemeVariant {
	case "", render.VariantLight, render.VariantDark:
	default:
		problems = append(problems, fmt.Sprintf("unknown theme variant %q", c.Page.ThemeVariant))
	}

	if c.Page.Timezone != "" {
		if _, err := time.LoadLocation(c.Page.Timezone); err != nil {
			problems = append(problems, fmt.Sprintf("unknown timezone %q", c.Page.Timezone))
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", LogFormatText, LogFormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.Log.Level))
	}

	if c.Page.WatchTemplates && c.Page.TemplatesDir == "" {
		problems = append(problems, "watch_templates requires templates_dir")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Origins splits CORSOrigins into trimmed origins without trailing slashes.
func (c Config) Origins() []string {
	var origins []string
	for _, part := range strings.Split(c.CORSOrigins, ",") {
		if origin := strings.TrimRight(strings.TrimSpace(part), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Location resolves Page.Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	if c.Page.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Page.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
