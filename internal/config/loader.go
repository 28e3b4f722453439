package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Supported audit trail backends.
const (
	AuditBackendBolt   = "bolt"
	AuditBackendSQLite = "sqlite"
)

// Config captures environment driven configuration values for the labor
// tracker service.
type Config struct {
	HTTPPort        int
	SQLiteDSN       string
	AuditBackend    string
	AuditLogPath    string
	ProfileCacheTTL time.Duration
	EventBuffer     int
}

// Load parses configuration values from the current process environment.
//
// Every value has a sensible default; invalid values are collected and
// reported together rather than one at a time.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		SQLiteDSN:       "file:labortracker.db?_foreign_keys=on",
		AuditBackend:    AuditBackendBolt,
		AuditLogPath:    "labortracker-audit.db",
		ProfileCacheTTL: time.Minute,
		EventBuffer:     16,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("LABOR_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "LABOR_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("LABOR_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if backend := strings.TrimSpace(os.Getenv("LABOR_AUDIT_BACKEND")); backend != "" {
		switch backend {
		case AuditBackendBolt, AuditBackendSQLite:
			cfg.AuditBackend = backend
		default:
			invalid = append(invalid, "LABOR_AUDIT_BACKEND")
		}
	}

	if path := strings.TrimSpace(os.Getenv("LABOR_AUDIT_LOG_PATH")); path != "" {
		cfg.AuditLogPath = path
	}

	if ttlValue := strings.TrimSpace(os.Getenv("LABOR_PROFILE_CACHE_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "LABOR_PROFILE_CACHE_TTL")
		} else {
			cfg.ProfileCacheTTL = ttl
		}
	}

	if bufferValue := strings.TrimSpace(os.Getenv("LABOR_EVENT_BUFFER")); bufferValue != "" {
		buffer, err := strconv.Atoi(bufferValue)
		if err != nil || buffer <= 0 {
			invalid = append(invalid, "LABOR_EVENT_BUFFER")
		} else {
			cfg.EventBuffer = buffer
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
