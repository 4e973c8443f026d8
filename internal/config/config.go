package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AWS       AWSConfig       `yaml:"aws"`
	APNs      APNsConfig      `yaml:"apns"`
	JWT       JWTConfig       `yaml:"jwt"`
	Identity  IdentityConfig  `yaml:"identity"`
	Messaging MessagingConfig `yaml:"messaging"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite only
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	LogSQL   bool   `yaml:"log_sql"`
}

// RedisConfig holds the concert cache configuration. Empty Addr disables caching.
type RedisConfig struct {
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// AWSConfig holds AWS configuration for avatar uploads
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"` // S3-compatible storage, path-style addressing
}

// APNsConfig holds Apple push configuration. Empty KeyPath disables push.
type APNsConfig struct {
	KeyPath    string `yaml:"key_path"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret  string `yaml:"secret"`
	ExpDays int    `yaml:"exp_days"`
}

// IdentityConfig holds the shared secret the identity provider uses for its webhook
type IdentityConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

// MessagingConfig points at the external chat service
type MessagingConfig struct {
	BaseURL string `yaml:"base_url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file, then applies .env and
// SHOWUP_* environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the configuration used for keys missing from the file
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		Database:  DatabaseConfig{Driver: "postgres", Port: 5432, SSLMode: "disable"},
		Redis:     RedisConfig{TTLSeconds: 300},
		JWT:       JWTConfig{ExpDays: 365},
		Messaging: MessagingConfig{BaseURL: "https://chat.showup.nyc/room"},
		Log:       LogConfig{Level: "info"},
	}
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"SHOWUP_DATABASE_DRIVER":   &c.Database.Driver,
		"SHOWUP_DATABASE_PATH":     &c.Database.Path,
		"SHOWUP_DATABASE_HOST":     &c.Database.Host,
		"SHOWUP_DATABASE_USER":     &c.Database.User,
		"SHOWUP_DATABASE_PASSWORD": &c.Database.Password,
		"SHOWUP_DATABASE_NAME":     &c.Database.DBName,
		"SHOWUP_REDIS_ADDR":        &c.Redis.Addr,
		"SHOWUP_REDIS_PASSWORD":    &c.Redis.Password,
		"SHOWUP_AWS_ACCESS_KEY":    &c.AWS.AccessKey,
		"SHOWUP_AWS_SECRET_KEY":    &c.AWS.SecretKey,
		"SHOWUP_JWT_SECRET":        &c.JWT.Secret,
		"SHOWUP_IDENTITY_SECRET":   &c.Identity.WebhookSecret,
		"SHOWUP_LOG_LEVEL":         &c.Log.Level,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SHOWUP_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SHOWUP_SERVER_PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
