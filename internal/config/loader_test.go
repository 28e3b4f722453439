package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LABOR_HTTP_PORT",
		"LABOR_SQLITE_DSN",
		"LABOR_AUDIT_BACKEND",
		"LABOR_AUDIT_LOG_PATH",
		"LABOR_PROFILE_CACHE_TTL",
		"LABOR_EVENT_BUFFER",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.HTTPPort != 8080 {
		t.Fatalf("expected default port 8080, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN == "" || cfg.AuditLogPath == "" {
		t.Fatalf("expected default storage paths, got %+v", cfg)
	}
	if cfg.AuditBackend != AuditBackendBolt {
		t.Fatalf("expected bolt audit backend by default, got %q", cfg.AuditBackend)
	}
	if cfg.ProfileCacheTTL != time.Minute {
		t.Fatalf("expected default cache TTL of one minute, got %v", cfg.ProfileCacheTTL)
	}
	if cfg.EventBuffer != 16 {
		t.Fatalf("expected default event buffer 16, got %d", cfg.EventBuffer)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LABOR_HTTP_PORT", "9090")
	t.Setenv("LABOR_SQLITE_DSN", "file:/tmp/tracker.db")
	t.Setenv("LABOR_AUDIT_BACKEND", "sqlite")
	t.Setenv("LABOR_AUDIT_LOG_PATH", "/tmp/audit.db")
	t.Setenv("LABOR_PROFILE_CACHE_TTL", "30s")
	t.Setenv("LABOR_EVENT_BUFFER", "64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.HTTPPort)
	}
	if cfg.SQLiteDSN != "file:/tmp/tracker.db" {
		t.Fatalf("expected overridden DSN, got %q", cfg.SQLiteDSN)
	}
	if cfg.AuditBackend != AuditBackendSQLite {
		t.Fatalf("expected sqlite audit backend, got %q", cfg.AuditBackend)
	}
	if cfg.AuditLogPath != "/tmp/audit.db" {
		t.Fatalf("expected overridden audit path, got %q", cfg.AuditLogPath)
	}
	if cfg.ProfileCacheTTL != 30*time.Second {
		t.Fatalf("expected 30s TTL, got %v", cfg.ProfileCacheTTL)
	}
	if cfg.EventBuffer != 64 {
		t.Fatalf("expected buffer 64, got %d", cfg.EventBuffer)
	}
}

func TestLoadReportsAllInvalidVariables(t *testing.T) {
	clearEnv(t)
	t.Setenv("LABOR_HTTP_PORT", "not-a-port")
	t.Setenv("LABOR_AUDIT_BACKEND", "postgres")
	t.Setenv("LABOR_PROFILE_CACHE_TTL", "never")
	t.Setenv("LABOR_EVENT_BUFFER", "-1")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid environment")
	}
	for _, key := range []string{"LABOR_HTTP_PORT", "LABOR_AUDIT_BACKEND", "LABOR_PROFILE_CACHE_TTL", "LABOR_EVENT_BUFFER"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s reported, got %v", key, err)
		}
	}
}
