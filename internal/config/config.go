package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Auth    AuthConfig    `yaml:"auth"`
	Store   StoreConfig   `yaml:"store"`
	Retry   RetryConfig   `yaml:"retry"`
	Redis   RedisConfig   `yaml:"redis"`
	Archive ArchiveConfig `yaml:"archive"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Rosters RostersConfig `yaml:"rosters"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// AuthConfig holds token settings and the staff accounts allowed to sign in.
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	JWTIssuer     string `yaml:"jwt_issuer"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	Users         []User `yaml:"users"`
}

func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// User is a staff account; PasswordHash is a bcrypt hash.
type User struct {
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	PasswordHash string `yaml:"password_hash"`
}

// StoreConfig selects the remote tabular store backend.
type StoreConfig struct {
	Driver          string `yaml:"driver"` // "memory", "postgres" or "gsheets"
	DatabaseURL     string `yaml:"database_url"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

func (c StoreConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// RetryConfig is the resilience policy for remote store calls.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries"`
	BaseDelayMS int `yaml:"base_delay_ms"`
	MaxDelayMS  int `yaml:"max_delay_ms"`
}

func (c RetryConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

func (c RetryConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}

// RedisConfig backs the token revocation list. Disabled means in-process only.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ArchiveConfig controls archiving of accepted upload files to S3.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Region   string `yaml:"s3_region"`
	AWSProfile string `yaml:"aws_profile"`
	Prefix     string `yaml:"prefix"`
}

type IngestConfig struct {
	MaxUploadMB int `yaml:"max_upload_mb"`
	// RequiredColumns overrides the required canonical columns per report.
	RequiredColumns map[string][]string `yaml:"required_columns"`
}

// RostersConfig holds the name tables used to canonicalize uploads.
type RostersConfig struct {
	Staff          RosterConfig `yaml:"staff"`
	Attorneys      RosterConfig `yaml:"attorneys"`
	ExcludedStages []string     `yaml:"excluded_stages"`
}

type RosterConfig struct {
	Allowed    []string          `yaml:"allowed"`
	Aliases    map[string]string `yaml:"aliases"`
	Initials   map[string]string `yaml:"initials"`
	Categories map[string]string `yaml:"categories"`
}

// Load reads configuration from a YAML file on top of the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads the YAML file (if present) and applies environment overrides.
// A .env file in the working directory is read first when it exists.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Store.DatabaseURL = v
	}
	if v := os.Getenv("SPREADSHEET_ID"); v != "" {
		cfg.Store.SpreadsheetID = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.Store.CredentialsFile = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("ARCHIVE_S3_BUCKET"); v != "" {
		cfg.Archive.S3Bucket = v
		cfg.Archive.Enabled = true
	}
	if v := os.Getenv("ARCHIVE_S3_REGION"); v != "" {
		cfg.Archive.S3Region = v
	}
	return cfg, nil
}

// Validate checks the settings the selected backends depend on.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url is required for the postgres driver")
		}
	case "gsheets":
		if c.Store.SpreadsheetID == "" || c.Store.CredentialsFile == "" {
			return fmt.Errorf("store.spreadsheet_id and store.credentials_file are required for the gsheets driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Archive.Enabled && c.Archive.S3Bucket == "" {
		return fmt.Errorf("archive.s3_bucket is required when archiving is enabled")
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = d.Server.AllowedOrigins
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Auth.JWTIssuer == "" {
		c.Auth.JWTIssuer = d.Auth.JWTIssuer
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = d.Auth.TokenTTLHours
	}
	if c.Store.Driver == "" {
		c.Store.Driver = d.Store.Driver
	}
	if c.Store.CacheTTLSeconds <= 0 {
		c.Store.CacheTTLSeconds = d.Store.CacheTTLSeconds
	}
	if c.Retry.MaxRetries <= 0 {
		c.Retry.MaxRetries = d.Retry.MaxRetries
	}
	if c.Retry.BaseDelayMS <= 0 {
		c.Retry.BaseDelayMS = d.Retry.BaseDelayMS
	}
	if c.Retry.MaxDelayMS <= 0 {
		c.Retry.MaxDelayMS = d.Retry.MaxDelayMS
	}
	if c.Ingest.MaxUploadMB <= 0 {
		c.Ingest.MaxUploadMB = d.Ingest.MaxUploadMB
	}
	if c.Archive.Prefix == "" {
		c.Archive.Prefix = d.Archive.Prefix
	}
	if len(c.Rosters.Staff.Allowed) == 0 {
		c.Rosters.Staff = d.Rosters.Staff
	}
	if len(c.Rosters.Attorneys.Allowed) == 0 {
		c.Rosters.Attorneys = d.Rosters.Attorneys
	}
	if len(c.Rosters.ExcludedStages) == 0 {
		c.Rosters.ExcludedStages = d.Rosters.ExcludedStages
	}
}
