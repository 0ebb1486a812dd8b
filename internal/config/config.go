package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the UtilityHub server and worker.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Blob     BlobConfig
	Upload   UploadConfig
	AI       AIConfig
	Worker   WorkerConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// BlobConfig holds S3-compatible object store settings.
type BlobConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type UploadConfig struct {
	MaxBytes int64
}

type AIConfig struct {
	Enabled          bool
	Provider         string
	APIKey           string
	Model            string
	RatePerMinute    int
	DailyCap         int
	InferenceTimeout time.Duration
}

type WorkerConfig struct {
	BatchLimit int
	Interval   time.Duration
}

var validProviders = map[string]bool{
	"openai": true,
	"mock":   true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("UTILITYHUB_PORT", 8080),
			Env:  envString("UTILITYHUB_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Blob: BlobConfig{
			Endpoint:  os.Getenv("BLOB_ENDPOINT"),
			AccessKey: os.Getenv("BLOB_ACCESS_KEY"),
			SecretKey: os.Getenv("BLOB_SECRET_KEY"),
			Bucket:    envString("BLOB_BUCKET", "utilityhub-files"),
			UseSSL:    envBool("BLOB_USE_SSL", false),
		},
		Upload: UploadConfig{
			MaxBytes: envInt64("MAX_UPLOAD_BYTES", 20*1024*1024),
		},
		AI: AIConfig{
			Enabled:          envBool("AI_ENABLED", false),
			Provider:         envString("AI_PROVIDER", "openai"),
			APIKey:           os.Getenv("OPENAI_API_KEY"),
			Model:            envString("OPENAI_MODEL", "gpt-4o-mini"),
			RatePerMinute:    envInt("AI_RATE_LIMIT_PER_MINUTE", 5),
			DailyCap:         envInt("AI_DAILY_CAP", 50),
			InferenceTimeout: envDurationSecs("AI_INFERENCE_TIMEOUT_SECS", 60*time.Second),
		},
		Worker: WorkerConfig{
			BatchLimit: envInt("WORKER_BATCH_LIMIT", 5),
			Interval:   envDuration("WORKER_INTERVAL", 15*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Blob.Endpoint == "" {
		return fmt.Errorf("BLOB_ENDPOINT is required")
	}
	if c.Blob.AccessKey == "" || c.Blob.SecretKey == "" {
		return fmt.Errorf("BLOB_ACCESS_KEY and BLOB_SECRET_KEY are required")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}

	if c.AI.Enabled {
		if !validProviders[c.AI.Provider] {
			return fmt.Errorf("AI_PROVIDER must be one of openai, mock; got %q", c.AI.Provider)
		}
		if c.AI.Provider == "openai" && c.AI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when AI_ENABLED is true")
		}
	}

	if c.Worker.BatchLimit <= 0 {
		return fmt.Errorf("WORKER_BATCH_LIMIT must be positive, got %d", c.Worker.BatchLimit)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
