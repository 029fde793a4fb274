package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"eco-proof/community-portal/community-portal-backend/internal/award"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig           `json:"server"`
	Storage StorageConfig          `json:"storage"`
	Uploads UploadsConfig          `json:"uploads"`
	Awards  map[string]award.Award `json:"awards"`
	Audit   AuditConfig            `json:"audit"`
	Logging LoggingConfig          `json:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// StorageConfig locates the record store
type StorageConfig struct {
	DataDir string `json:"data_dir"`
}

// UploadsConfig configures the proof image intake
type UploadsConfig struct {
	Backend  string   `json:"backend"` // local or s3
	Dir      string   `json:"dir"`
	MaxBytes int64    `json:"max_bytes"`
	S3       S3Config `json:"s3"`
}

// S3Config configures the S3 upload backend. Endpoint and static keys are
// for S3-compatible object stores; leave them empty on AWS.
type S3Config struct {
	Bucket          string        `json:"bucket"`
	Region          string        `json:"region"`
	Endpoint        string        `json:"endpoint"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	PresignExpiry   time.Duration `json:"presign_expiry"`
}

// AuditConfig configures the integrity auditor
type AuditConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Uploads: UploadsConfig{
			Backend:  "local",
			Dir:      "uploads",
			MaxBytes: 5 * 1024 * 1024,
			S3: S3Config{
				Region:        "us-east-1",
				PresignExpiry: 15 * time.Minute,
			},
		},
		Awards: award.Defaults(),
		Audit: AuditConfig{
			Enabled:  true,
			Schedule: "@every 5m",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists; file entries merge over the defaults
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		config.Storage.DataDir = dir
	}
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		config.Uploads.Dir = dir
	}
	if backend := os.Getenv("UPLOAD_BACKEND"); backend != "" {
		config.Uploads.Backend = backend
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		config.Uploads.S3.Bucket = bucket
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		config.Uploads.S3.Region = region
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		config.Uploads.S3.Endpoint = endpoint
	}
	if key := os.Getenv("S3_ACCESS_KEY_ID"); key != "" {
		config.Uploads.S3.AccessKeyID = key
	}
	if secret := os.Getenv("S3_SECRET_ACCESS_KEY"); secret != "" {
		config.Uploads.S3.SecretAccessKey = secret
	}
	if schedule := os.Getenv("AUDIT_SCHEDULE"); schedule != "" {
		config.Audit.Schedule = schedule
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// AwardMapping builds the immutable award table from the configured
// overrides, falling back to the built-in defaults.
func (c *Config) AwardMapping() *award.Mapping {
	return award.New(c.Awards)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
