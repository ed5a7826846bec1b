package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"

	"github.com/akawula/fourkeys/fourkeys"
	"github.com/akawula/fourkeys/github/client"
)

const defaultConfigPath = "config/config.yaml"

// Config holds every setting of the server, the CLI and the cronjob.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	GitHub   GitHubConfig   `yaml:"github"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Slack    SlackConfig    `yaml:"slack"`
}

type HTTPConfig struct {
	Port            string        `yaml:"port" env:"HTTP_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig takes either a URL or the discrete POSTGRES_* variables.
type DatabaseConfig struct {
	URL            string `yaml:"url" env:"DATABASE_URL"`
	Host           string `yaml:"host" env:"POSTGRES_HOST"`
	Port           string `yaml:"port" env:"POSTGRES_PORT"`
	User           string `yaml:"user" env:"POSTGRES_USER"`
	Password       string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Name           string `yaml:"name" env:"POSTGRES_DB"`
	SSLMode        string `yaml:"ssl_mode" env:"POSTGRES_SSLMODE"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH"`
	MaxConnections int32  `yaml:"max_connections" env:"DB_MAX_CONNECTIONS"`
}

// DSN returns URL, or builds one from the discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type GitHubConfig struct {
	Token          string        `yaml:"token" env:"GITHUB_TOKEN"`
	AppID          int64         `yaml:"app_id" env:"GITHUB_APP_ID"`
	InstallationID int64         `yaml:"installation_id" env:"GITHUB_INSTALLATION_ID"`
	PrivateKeyPath string        `yaml:"private_key_path" env:"GITHUB_PRIVATE_KEY_PATH"`
	PrivateKey     string        `yaml:"private_key" env:"GITHUB_PRIVATE_KEY"`
	BaseURL        string        `yaml:"base_url" env:"GITHUB_BASE_URL"`
	RequestDelay   time.Duration `yaml:"request_delay"`
	RequestDelayMS int           `yaml:"-" env:"GITHUB_REST_DELAY_MS"`
	// Organization seeds the tracked repositories of the cronjob.
	Organization string `yaml:"organization" env:"GITHUB_ORG"`
}

// Client converts the section into client settings, reading the private
// key file when a path is set.
func (g GitHubConfig) Client() (client.Config, error) {
	cfg := client.Config{
		Token:          g.Token,
		AppID:          g.AppID,
		InstallationID: g.InstallationID,
		BaseURL:        g.BaseURL,
		RequestDelay:   g.RequestDelay,
	}
	switch {
	case g.PrivateKeyPath != "":
		key, err := os.ReadFile(g.PrivateKeyPath)
		if err != nil {
			return client.Config{}, fmt.Errorf("read GitHub App private key: %w", err)
		}
		cfg.PrivateKey = key
	case g.PrivateKey != "":
		cfg.PrivateKey = []byte(strings.ReplaceAll(g.PrivateKey, `\n`, "\n"))
	}
	return cfg, cfg.Validate()
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"JWT_TOKEN_TTL"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// DefaultsConfig is used whenever a request does not say otherwise.
type DefaultsConfig struct {
	Period         fourkeys.Period           `yaml:"period" env:"DEFAULT_PERIOD"`
	Deployment     fourkeys.DeploymentConfig `yaml:"deployment"`
	TagPrefix      string                    `yaml:"-" env:"DEFAULT_TAG_PREFIX"`
	Failure        fourkeys.FailureConfig    `yaml:"failure"`
	TagConcurrency int                       `yaml:"tag_concurrency" env:"TAG_CONCURRENCY"`
	Timezone       string                    `yaml:"timezone" env:"FOURKEYS_TIMEZONE"`
}

type SlackConfig struct {
	Token   string `yaml:"token" env:"SLACK_TOKEN"`
	Channel string `yaml:"channel" env:"SLACK_CHANNEL"`
}

// Path returns CONFIG_PATH or the default location.
func Path() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Load reads the YAML file at Path, when it exists, then applies the
// environment and the defaults.
func Load() (Config, error) {
	return LoadFile(Path())
}

func LoadFile(path string) (Config, error) {
	cfg := Config{}
	if err := readYAML(path, &cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env vars: %w", err)
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found: %w", path, err)
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decode config yaml: %w", err)
	}
	return nil
}

// normalize fills in defaults for everything left unset.
func (c *Config) normalize() {
	if c.HTTP.Port == "" {
		c.HTTP.Port = "8080"
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = 5 * time.Second
	}
	if c.HTTP.WriteTimeout <= 0 {
		// A summary of a busy repository takes a while.
		c.HTTP.WriteTimeout = 2 * time.Minute
	}
	if c.HTTP.IdleTimeout <= 0 {
		c.HTTP.IdleTimeout = 5 * time.Minute
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.MigrationsPath == "" {
		c.Database.MigrationsPath = "migrations"
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.GitHub.RequestDelayMS > 0 {
		c.GitHub.RequestDelay = time.Duration(c.GitHub.RequestDelayMS) * time.Millisecond
	}
	if c.GitHub.RequestDelay <= 0 {
		c.GitHub.RequestDelay = 100 * time.Millisecond
	}

	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Defaults.Period == "" {
		c.Defaults.Period = fourkeys.PeriodMonth
	}
	if c.Defaults.Deployment.Method == "" {
		c.Defaults.Deployment.Method = fourkeys.DeploymentMethodRelease
	}
	if c.Defaults.TagPrefix != "" {
		c.Defaults.Deployment.TagPrefix = c.Defaults.TagPrefix
	}
	if c.Defaults.TagConcurrency <= 0 {
		c.Defaults.TagConcurrency = 8
	}
}

func (c *Config) validate() error {
	if _, err := fourkeys.ParsePeriod(string(c.Defaults.Period)); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := c.Defaults.Deployment.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if err := c.Defaults.Failure.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	if c.Defaults.Timezone != "" {
		if _, err := time.LoadLocation(c.Defaults.Timezone); err != nil {
			return fmt.Errorf("defaults: timezone %q: %w", c.Defaults.Timezone, err)
		}
	}
	return nil
}

// Location returns the zone that bounds a period's days.
func (c Config) Location() *time.Location {
	if c.Defaults.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Defaults.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
