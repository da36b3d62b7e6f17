package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server" jsonschema:"description=Feed server configuration"`
	Bluesky  BlueskyConfig  `yaml:"bluesky" json:"bluesky" jsonschema:"description=Bluesky account and API settings"`
	Feed     FeedConfig     `yaml:"feed" json:"feed" jsonschema:"description=Feed document settings"`
	Schedule ScheduleConfig `yaml:"schedule" json:"schedule" jsonschema:"description=Scheduler configuration"`
	Database DatabaseConfig `yaml:"database" json:"database" jsonschema:"description=Database configuration"`
	Widget   WidgetConfig   `yaml:"widget" json:"widget" jsonschema:"description=Feed widget (client consumer) configuration"`
}

// ServerConfig holds http server settings
type ServerConfig struct {
	Listen          string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	BaseURL         string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080,description=Public base URL used in RSS links"`
	CacheMaxAge     time.Duration `yaml:"cache_max_age" json:"cache_max_age" jsonschema:"default=5m,description=Cache-Control max-age of the feed document"`
	LiveMinInterval time.Duration `yaml:"live_min_interval" json:"live_min_interval" jsonschema:"default=30s,description=Minimal interval between on-demand pipeline runs"`
}

// BlueskyConfig holds the account credential and API settings. The app password
// is expected to come from the environment, e.g. app_password: ${BSKY_APP_PASSWORD}
type BlueskyConfig struct {
	Service     string        `yaml:"service" json:"service" jsonschema:"default=https://bsky.social,description=Bluesky PDS/entryway URL"`
	Handle      string        `yaml:"handle" json:"handle" jsonschema:"description=Account handle"`
	AppPassword string        `yaml:"app_password" json:"-" jsonschema:"-"`
	FetchLimit  int           `yaml:"fetch_limit" json:"fetch_limit" jsonschema:"default=20,minimum=1,maximum=100,description=Raw items requested per run"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Upstream request timeout"`
}

// FeedConfig holds feed document settings
type FeedConfig struct {
	MaxPosts    int    `yaml:"max_posts" json:"max_posts" jsonschema:"default=3,minimum=1,description=Posts in the feed document"`
	DisplayName string `yaml:"display_name" json:"display_name" jsonschema:"description=Author display name override"`
	OutputFile  string `yaml:"output_file" json:"output_file" jsonschema:"description=Optional path the latest document is written to"`
}

// ScheduleConfig holds scheduler settings
type ScheduleConfig struct {
	UpdateInterval time.Duration `yaml:"update_interval" json:"update_interval" jsonschema:"default=15m,description=Pipeline run interval"`
	KeepSnapshots  int           `yaml:"keep_snapshots" json:"keep_snapshots" jsonschema:"default=10,minimum=1,description=Snapshots kept in history"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:skyfeed.db?cache=shared&mode=rwc,description=Database connection string"`
	MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
	MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
}

// WidgetConfig holds the client consumer settings
type WidgetConfig struct {
	SourceURL       string        `yaml:"source_url" json:"source_url" jsonschema:"default=http://localhost:8080/api/v1/feed,description=Feed document URL"`
	Listen          string        `yaml:"listen" json:"listen" jsonschema:"default=:8081,description=Widget server listen address"`
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval" jsonschema:"default=5m,description=Background refresh interval"`
	Attempts        int           `yaml:"attempts" json:"attempts" jsonschema:"default=3,minimum=1,description=Fetch attempts per refresh"`
	InitialDelay    time.Duration `yaml:"initial_delay" json:"initial_delay" jsonschema:"default=1s,description=First retry delay"`
	MaxDelay        time.Duration `yaml:"max_delay" json:"max_delay" jsonschema:"default=5s,description=Retry delay cap"`
	AttemptTimeout  time.Duration `yaml:"attempt_timeout" json:"attempt_timeout" jsonschema:"default=15s,description=Timeout of a single fetch attempt"`
	CacheFile       string        `yaml:"cache_file" json:"cache_file" jsonschema:"description=Cache file, the database is used if empty"`
	ProfileURL      string        `yaml:"profile_url" json:"profile_url" jsonschema:"description=Profile link shown on the error panel"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables, the app password is supposed to come from there
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	setDefault(&c.Server.Listen, ":8080")
	setDefault(&c.Server.Timeout, 30*time.Second)
	setDefault(&c.Server.BaseURL, "http://localhost:8080")
	setDefault(&c.Server.CacheMaxAge, 5*time.Minute)
	setDefault(&c.Server.LiveMinInterval, 30*time.Second)

	setDefault(&c.Bluesky.Service, "https://bsky.social")
	setDefault(&c.Bluesky.FetchLimit, 20)
	setDefault(&c.Bluesky.Timeout, 30*time.Second)

	setDefault(&c.Feed.MaxPosts, 3)

	setDefault(&c.Schedule.UpdateInterval, 15*time.Minute)
	setDefault(&c.Schedule.KeepSnapshots, 10)

	setDefault(&c.Database.DSN, "file:skyfeed.db?cache=shared&mode=rwc&_txlock=immediate")
	setDefault(&c.Database.MaxOpenConns, 10)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 3600)

	setDefault(&c.Widget.SourceURL, "http://localhost:8080/api/v1/feed")
	setDefault(&c.Widget.Listen, ":8081")
	setDefault(&c.Widget.RefreshInterval, 5*time.Minute)
	setDefault(&c.Widget.Attempts, 3)
	setDefault(&c.Widget.InitialDelay, time.Second)
	setDefault(&c.Widget.MaxDelay, 5*time.Second)
	setDefault(&c.Widget.AttemptTimeout, 15*time.Second)
}

func setDefault[T comparable](v *T, def T) {
	var zero T
	if *v == zero {
		*v = def
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return errors.New("server timeout must be at least 1 second")
	}
	if cfg.Server.CacheMaxAge < 0 {
		return errors.New("server.cache_max_age must be non-negative")
	}

	if cfg.Feed.MaxPosts < 1 {
		return errors.New("feed.max_posts must be at least 1")
	}
	// filtering drops replies and reposts, ask for enough raw items to fill the cap
	minFetch := min(4*cfg.Feed.MaxPosts, 100)
	if cfg.Bluesky.FetchLimit < minFetch || cfg.Bluesky.FetchLimit > 100 {
		return fmt.Errorf("bluesky.fetch_limit must be between %d (4 x feed.max_posts) and 100", minFetch)
	}
	if cfg.Bluesky.Timeout < time.Second {
		return errors.New("bluesky.timeout must be at least 1 second")
	}

	if cfg.Schedule.UpdateInterval < time.Minute {
		return errors.New("schedule.update_interval must be at least 1 minute")
	}
	if cfg.Schedule.KeepSnapshots < 1 {
		return errors.New("schedule.keep_snapshots must be at least 1")
	}

	if cfg.Widget.Attempts < 1 {
		return errors.New("widget.attempts must be at least 1")
	}
	if cfg.Widget.MaxDelay < cfg.Widget.InitialDelay {
		return errors.New("widget.max_delay must not be less than widget.initial_delay")
	}
	return nil
}

// ValidateCredentials checks the account settings needed to run the pipeline.
// The widget doesn't need them, so it is not part of Load.
func (c *Config) ValidateCredentials() error {
	if c.Bluesky.Handle == "" {
		return errors.New("bluesky.handle is required")
	}
	if c.Bluesky.AppPassword == "" {
		return errors.New("bluesky.app_password is required, set it via environment, e.g. ${BSKY_APP_PASSWORD}")
	}
	return nil
}
