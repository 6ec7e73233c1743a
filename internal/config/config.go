package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AWS      AWSConfig      `yaml:"aws"`
	JWT      JWTConfig      `yaml:"jwt"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	APNs     APNsConfig     `yaml:"apns"`
	Friends  FriendsConfig  `yaml:"friends"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	Migrate  bool   `yaml:"migrate"`
}

// AWSConfig holds AWS configuration for the s3 storage driver
type AWSConfig struct {
	Region    string `yaml:"region"`
	S3Bucket  string `yaml:"s3_bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Endpoint  string `yaml:"endpoint"`   // S3-compatible endpoint, empty for AWS
	PublicURL string `yaml:"public_url"` // base URL objects are served from
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	TTL    time.Duration `yaml:"ttl"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// StorageConfig selects where uploaded images live
type StorageConfig struct {
	Driver      string `yaml:"driver"` // local or s3
	LocalDir    string `yaml:"local_dir"`
	BaseURL     string `yaml:"base_url"` // prefix for local media URLs
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// APNsConfig holds Apple push settings. Push is disabled when KeyFile is empty.
type APNsConfig struct {
	KeyFile    string `yaml:"key_file"`
	KeyID      string `yaml:"key_id"`
	TeamID     string `yaml:"team_id"`
	Topic      string `yaml:"topic"`
	Production bool   `yaml:"production"`
}

// Enabled reports whether push notifications are configured
func (c APNsConfig) Enabled() bool {
	return c.KeyFile != ""
}

// FriendsConfig guards friend request creation
type FriendsConfig struct {
	RejectSelfRequests      *bool `yaml:"reject_self_requests"`
	RejectDuplicateRequests *bool `yaml:"reject_duplicate_requests"`
}

// RejectSelf reports whether self-directed requests are refused (default true)
func (c FriendsConfig) RejectSelf() bool {
	return c.RejectSelfRequests == nil || *c.RejectSelfRequests
}

// RejectDuplicates reports whether repeated requests are refused (default true)
func (c FriendsConfig) RejectDuplicates() bool {
	return c.RejectDuplicateRequests == nil || *c.RejectDuplicateRequests
}

// Load reads configuration from a YAML file, fills defaults and applies
// environment overrides (a .env file is loaded first when present)
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.JWT.TTL == 0 {
		c.JWT.TTL = 24 * time.Hour
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "./media"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "/media"
	}
	if c.Storage.MaxUploadMB == 0 {
		c.Storage.MaxUploadMB = 10
	}
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DB_PASSWORD":           &c.Database.Password,
		"JWT_SECRET":            &c.JWT.Secret,
		"AWS_ACCESS_KEY_ID":     &c.AWS.AccessKey,
		"AWS_SECRET_ACCESS_KEY": &c.AWS.SecretKey,
		"LOG_LEVEL":             &c.Log.Level,
	}
	for key, target := range overrides {
		if v := os.Getenv(key); v != "" {
			*target = v
		}
	}
}

// Validate checks the values the server cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret is required")
	}
	switch c.Storage.Driver {
	case "local":
	case "s3":
		if c.AWS.S3Bucket == "" {
			return errors.New("aws.s3_bucket is required for the s3 storage driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.MaxUploadMB < 0 {
		return errors.New("storage.max_upload_mb must not be negative")
	}
	return nil
}

// MaxUploadBytes is the upload size limit in bytes
func (c StorageConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
