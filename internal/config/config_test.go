package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want :8080", cfg.Addr)
	}
	if cfg.DefaultTenantID.String() != DefaultTenantID {
		t.Errorf("tenant = %s, want %s", cfg.DefaultTenantID, DefaultTenantID)
	}
	if cfg.QRSize != 256 {
		t.Errorf("qr size = %d, want 256", cfg.QRSize)
	}
	if cfg.SessionTTL != 12*time.Hour {
		t.Errorf("session ttl = %s, want 12h", cfg.SessionTTL)
	}
	if string(cfg.Blob.Driver) != "fs" {
		t.Errorf("blob driver = %q, want fs", cfg.Blob.Driver)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("load succeeded without DATABASE_URL")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("QR_IMAGE_SIZE", "512")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.SessionTTL != 30*time.Minute || cfg.QRSize != 512 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")

	t.Setenv("DEFAULT_TENANT_ID", "not-a-uuid")
	if _, err := Load(); err == nil {
		t.Error("bad tenant id accepted")
	}
	t.Setenv("DEFAULT_TENANT_ID", "")

	t.Setenv("QR_IMAGE_SIZE", "-3")
	if _, err := Load(); err == nil {
		t.Error("negative qr size accepted")
	}
}
