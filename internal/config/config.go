package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// EngineBinary is the executable implementing the delineation engine.
	// Resolved through PATH when not absolute.
	EngineBinary string

	// Local checkpoint overrides. When set they replace the named engine
	// models so the engine does not have to download weights.
	LocalModelLarge string
	LocalModelSmall string

	// WorkspaceRoot is the parent directory for per-request job workspaces.
	WorkspaceRoot string

	// Optional Azure Blob archival of result datasets. Disabled unless all
	// three are set.
	ArchiveAccount   string
	ArchiveKey       string
	ArchiveContainer string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// ArchiveEnabled reports whether result archival is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.ArchiveAccount != "" && c.ArchiveKey != "" && c.ArchiveContainer != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8000"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 120*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 50*1024*1024), // 50MB, payloads carry base64 imagery
		EngineBinary:       getEnvOrDefault("ENGINE_BINARY", "delineate"),
		LocalModelLarge:    os.Getenv("DA_LOCAL_MODEL_LARGE"),
		LocalModelSmall:    os.Getenv("DA_LOCAL_MODEL_SMALL"),
		WorkspaceRoot:      getEnvOrDefault("WORKSPACE_ROOT", os.TempDir()),
		ArchiveAccount:     os.Getenv("ARCHIVE_ACCOUNT"),
		ArchiveKey:         os.Getenv("ARCHIVE_KEY"),
		ArchiveContainer:   os.Getenv("ARCHIVE_CONTAINER"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", cfg.RequestTimeout)
	}
	if strings.TrimSpace(cfg.EngineBinary) == "" {
		return nil, fmt.Errorf("ENGINE_BINARY must not be empty")
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
