// Package config loads qdb's process-wide settings from the environment,
// grounded on the teacher's internal/config/config.go LoadConfig shape
// (os.Getenv + strconv, defaults applied, a QDB_ prefix replacing the
// teacher's MORFX_ one). cmd/qdb loads a .env file via joho/godotenv
// before calling Load, the same ordering the teacher never quite needed
// since it had no cmd entrypoint of its own reading env at startup.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds qdb's tunables (SPEC_FULL §4.9): the reference KV backend's
// DSN, the idiom/recursion depth caps spec.md §4.3 and §5 name, the
// default namespace/database a session opens into, and the per-query
// timeout.
type Config struct {
	KVDriver string // "memory", "sqlite", or "libsql"
	KVDSN    string

	RecursionLimit int // spec.md §4.3 "Recursion semantics", default 256
	IdiomDepth     int // spec.md §4.3 "Depth cap", default 120

	DefaultNamespace string
	DefaultDatabase  string

	QueryTimeout time.Duration
}

// Load reads Config from the environment, applying the same defaults the
// teacher's LoadConfig falls back to when a variable is unset or invalid.
func Load() *Config {
	cfg := &Config{
		KVDriver:         envOr("QDB_KV_DRIVER", "memory"),
		KVDSN:            os.Getenv("QDB_KV_DSN"),
		RecursionLimit:   256,
		IdiomDepth:       120,
		DefaultNamespace: envOr("QDB_NAMESPACE", "default"),
		DefaultDatabase:  envOr("QDB_DATABASE", "default"),
		QueryTimeout:     30 * time.Second,
	}

	if v := os.Getenv("QDB_RECURSION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RecursionLimit = n
		}
	}
	if v := os.Getenv("QDB_IDIOM_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.IdiomDepth = n
		}
	}
	if v := os.Getenv("QDB_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.QueryTimeout = d
		}
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
