// Package config loads the siteops configuration.
//
// Layers, later wins: built-in defaults, .siteops/config.yaml in the working
// directory, a .env file next to it, then SITEOPS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".siteops"
	fileName = "config.yaml"
)

// Backend drivers.
const (
	BackendSQLite = "sqlite"
	BackendREST   = "rest"
)

// Feed drivers.
const (
	FeedMemory   = "memory"
	FeedPostgres = "postgres"
	FeedNATS     = "nats"
	FeedRedis    = "redis"
)

// Storage drivers.
const (
	StorageFilesystem = "filesystem"
	StorageGCS        = "gcs"
)

// Config represents the complete siteops configuration.
type Config struct {
	Version        string `yaml:"version"`
	CurrentProject string `yaml:"current_project,omitempty"`
	Actor          string `yaml:"actor,omitempty"`

	Backend       BackendConfig       `yaml:"backend"`
	Feed          FeedConfig          `yaml:"feed"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Storage       StorageConfig       `yaml:"storage"`
	Log           LogConfig           `yaml:"log"`
	Sync          SyncConfig          `yaml:"sync"`
}

// BackendConfig selects where rows are written.
type BackendConfig struct {
	// Driver is "sqlite" (local file) or "rest" (hosted PostgREST API).
	Driver     string        `yaml:"driver"`
	SQLitePath string        `yaml:"sqlite_path,omitempty"`
	RESTURL    string        `yaml:"rest_url,omitempty"`
	APIKey     string        `yaml:"api_key,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

// FeedConfig selects the change-stream transport.
type FeedConfig struct {
	// Driver is "memory", "postgres", "nats" or "redis".
	Driver        string `yaml:"driver"`
	PostgresDSN   string `yaml:"postgres_dsn,omitempty"`
	NATSURL       string `yaml:"nats_url,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       int    `yaml:"redis_db,omitempty"`
}

// NotificationsConfig configures the MQTT receipt listener. Empty broker disables it.
type NotificationsConfig struct {
	MQTTBroker string `yaml:"mqtt_broker,omitempty"`
	ClientID   string `yaml:"client_id,omitempty"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
}

// StorageConfig selects where photo attachments go.
type StorageConfig struct {
	Driver          string `yaml:"driver"`
	Dir             string `yaml:"dir,omitempty"`
	Bucket          string `yaml:"bucket,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SyncConfig tunes the cache.
type SyncConfig struct {
	VersionGuard bool `yaml:"version_guard"`
	EventBuffer  int  `yaml:"event_buffer"`
}

// DefaultConfig returns a Config for a local sqlite backend with an
// in-process change feed.
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			Driver:     BackendSQLite,
			SQLitePath: filepath.Join(dirName, "siteops.db"),
			Timeout:    10 * time.Second,
		},
		Feed: FeedConfig{
			Driver: FeedMemory,
		},
		Notifications: NotificationsConfig{
			ClientID: "siteops",
		},
		Storage: StorageConfig{
			Driver: StorageFilesystem,
			Dir:    filepath.Join(dirName, "attachments"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Sync: SyncConfig{
			VersionGuard: true,
			EventBuffer:  64,
		},
	}
}

// Path returns the config file path for a directory.
func Path(dir string) string {
	return filepath.Join(dir, dirName, fileName)
}

// LoadFile reads only the config file layer on top of the defaults.
// A missing file yields the defaults.
func LoadFile(dir string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfig resolves the full configuration for dir.
func LoadConfig(dir string) (*Config, error) {
	cfg, err := LoadFile(dir)
	if err != nil {
		return nil, err
	}

	// .env never overrides variables already set in the environment.
	envFile := filepath.Join(dir, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg to dir/.siteops/config.yaml.
func SaveConfig(dir string, cfg *Config) error {
	configDir := filepath.Join(dir, dirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s dir: %w", dirName, err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(Path(dir), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks that the configured drivers are known and have what they need.
func (c *Config) Validate() error {
	switch c.Backend.Driver {
	case BackendSQLite:
		if c.Backend.SQLitePath == "" {
			return fmt.Errorf("backend.sqlite_path is required")
		}
	case BackendREST:
		if c.Backend.RESTURL == "" {
			return fmt.Errorf("backend.rest_url is required")
		}
	default:
		return fmt.Errorf("unknown backend.driver %q", c.Backend.Driver)
	}

	switch c.Feed.Driver {
	case FeedMemory:
		if c.Backend.Driver != BackendSQLite {
			return fmt.Errorf("feed.driver memory only works with the sqlite backend")
		}
	case FeedPostgres:
		if c.Feed.PostgresDSN == "" {
			return fmt.Errorf("feed.postgres_dsn is required")
		}
	case FeedNATS:
		if c.Feed.NATSURL == "" {
			return fmt.Errorf("feed.nats_url is required")
		}
	case FeedRedis:
		if c.Feed.RedisAddr == "" {
			return fmt.Errorf("feed.redis_addr is required")
		}
	default:
		return fmt.Errorf("unknown feed.driver %q", c.Feed.Driver)
	}

	switch c.Storage.Driver {
	case StorageFilesystem:
	case StorageGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Sync.EventBuffer < 0 {
		return fmt.Errorf("sync.event_buffer must not be negative")
	}
	return nil
}

// applyEnv overlays SITEOPS_* variables.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"SITEOPS_PROJECT":         &c.CurrentProject,
		"SITEOPS_ACTOR":           &c.Actor,
		"SITEOPS_BACKEND_DRIVER":  &c.Backend.Driver,
		"SITEOPS_SQLITE_PATH":     &c.Backend.SQLitePath,
		"SITEOPS_REST_URL":        &c.Backend.RESTURL,
		"SITEOPS_API_KEY":         &c.Backend.APIKey,
		"SITEOPS_FEED_DRIVER":     &c.Feed.Driver,
		"SITEOPS_POSTGRES_DSN":    &c.Feed.PostgresDSN,
		"SITEOPS_NATS_URL":        &c.Feed.NATSURL,
		"SITEOPS_REDIS_ADDR":      &c.Feed.RedisAddr,
		"SITEOPS_REDIS_PASSWORD":  &c.Feed.RedisPassword,
		"SITEOPS_MQTT_BROKER":     &c.Notifications.MQTTBroker,
		"SITEOPS_MQTT_USERNAME":   &c.Notifications.Username,
		"SITEOPS_MQTT_PASSWORD":   &c.Notifications.Password,
		"SITEOPS_STORAGE_DRIVER":  &c.Storage.Driver,
		"SITEOPS_STORAGE_DIR":     &c.Storage.Dir,
		"SITEOPS_GCS_BUCKET":      &c.Storage.Bucket,
		"SITEOPS_GCS_CREDENTIALS": &c.Storage.CredentialsFile,
		"SITEOPS_LOG_LEVEL":       &c.Log.Level,
		"SITEOPS_LOG_FORMAT":      &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("SITEOPS_VERSION_GUARD"); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SITEOPS_VERSION_GUARD %q: %w", v, err)
		}
		c.Sync.VersionGuard = on
	}
	if v, ok := lookup("SITEOPS_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SITEOPS_REDIS_DB %q: %w", v, err)
		}
		c.Feed.RedisDB = n
	}
	if v, ok := lookup("SITEOPS_BACKEND_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SITEOPS_BACKEND_TIMEOUT %q: %w", v, err)
		}
		c.Backend.Timeout = d
	}
	return nil
}
