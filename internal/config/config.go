// Package config handles the XDG configuration directory, credential paths,
// and backend settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "tasksync"

	// EnvPrefix is the prefix of environment variables that override settings.
	EnvPrefix = "TASKSYNC"

	// SettingsFile is the settings filename (without extension) inside the config dir.
	SettingsFile = "config"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"
)

// Backend kinds.
const (
	BackendGoogleTasks = "googletasks"
	BackendPostgREST   = "postgrest"
	BackendPostgres    = "postgres"
	BackendMySQL       = "mysql"
	BackendRedis       = "redis"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger

	// Settings are the backend and reporting settings.
	Settings Settings
}

// Settings are read from config.yaml in Dir and TASKSYNC_* environment variables.
type Settings struct {
	Backend   string          `mapstructure:"backend"`
	ListID    string          `mapstructure:"list_id"`
	PostgREST PostgRESTConfig `mapstructure:"postgrest"`
	SQL       SQLConfig       `mapstructure:"sql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

// PostgRESTConfig locates a PostgREST (Supabase) table.
type PostgRESTConfig struct {
	URL   string `mapstructure:"url"`
	Key   string `mapstructure:"key"`
	Table string `mapstructure:"table"`
}

// SQLConfig holds the DSN for the postgres and mysql backends.
type SQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig locates the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig enables failure events on a Kafka topic when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// HTTPConfig is the listen address of the serve command.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasksync or $HOME/.config/tasksync.
// Settings are read from the directory and the environment but not
// validated; call Settings.Validate before opening a backend.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	settings, err := ReadSettings(dir)
	if err != nil {
		return nil, err
	}
	return &Config{Dir: dir, Settings: settings}, nil
}

// ReadSettings reads settings from config.{yaml,json,toml} in dir, if present,
// with TASKSYNC_* environment variables taking precedence
// (for example TASKSYNC_SQL_DSN for sql.dsn).
func ReadSettings(dir string) (Settings, error) {
	v := viper.New()
	v.SetConfigName(SettingsFile)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("backend", BackendGoogleTasks)
	v.SetDefault("list_id", "@default")
	v.SetDefault("postgrest.url", "")
	v.SetDefault("postgrest.key", "")
	v.SetDefault("postgrest.table", "todos")
	v.SetDefault("sql.dsn", "")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "tasksync.failures")
	v.SetDefault("http.addr", "127.0.0.1:8080")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("invalid settings file: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	return s, nil
}

// Validate checks that the selected backend has what it needs.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendGoogleTasks:
		return nil
	case BackendPostgREST:
		if s.PostgREST.URL == "" {
			return errors.New("postgrest.url is required for the postgrest backend")
		}
		return nil
	case BackendPostgres, BackendMySQL:
		if s.SQL.DSN == "" {
			return fmt.Errorf("sql.dsn is required for the %s backend", s.Backend)
		}
		return nil
	case BackendRedis:
		if s.Redis.Addr == "" {
			return errors.New("redis.addr is required for the redis backend")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend: %s", s.Backend)
	}
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}

// Log returns the configured logger, or one that discards everything.
func (c *Config) Log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// NewLogger returns a text logger on w at Info level, or Debug when debug is set.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// UsesOAuth reports whether the selected backend authenticates with the stored Google token.
func (c *Config) UsesOAuth() bool {
	return c.Settings.Backend == BackendGoogleTasks
}
