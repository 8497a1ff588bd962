// Package config collects the server's environment configuration in one
// place. Every value has a development-friendly default except DATABASE_URL.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"smart-inventory/internal/blob"
)

// DefaultTenantID is used for requests that carry no authenticated tenant.
// The migration seeds a matching "System" tenant.
const DefaultTenantID = "00000000-0000-0000-0000-000000000001"

// Config is the full server configuration.
type Config struct {
	Addr            string
	DatabaseURL     string
	DefaultTenantID uuid.UUID
	JWTSecret       string
	SessionTTL      time.Duration
	AllowedOrigins  string
	QRSize          int
	Blob            blob.Options
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:           ":" + envOr("SERVER_PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		SessionTTL:     12 * time.Hour,
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		Blob: blob.Options{
			Driver:      blob.Driver(envOr("BLOB_DRIVER", string(blob.DriverFilesystem))),
			FSRoot:      envOr("BLOB_FS_ROOT", "./blobdata"),
			S3Bucket:    os.Getenv("BLOB_S3_BUCKET"),
			S3Region:    os.Getenv("BLOB_S3_REGION"),
			S3Endpoint:  os.Getenv("BLOB_S3_ENDPOINT"),
			S3PathStyle: os.Getenv("BLOB_S3_PATH_STYLE") == "true",
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	tenant := envOr("DEFAULT_TENANT_ID", DefaultTenantID)
	id, err := uuid.Parse(tenant)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TENANT_ID %q: %w", tenant, err)
	}
	cfg.DefaultTenantID = id

	size := envOr("QR_IMAGE_SIZE", "256")
	cfg.QRSize, err = strconv.Atoi(size)
	if err != nil || cfg.QRSize <= 0 {
		return nil, fmt.Errorf("invalid QR_IMAGE_SIZE %q", size)
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TTL %q: %w", ttl, err)
		}
		cfg.SessionTTL = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
