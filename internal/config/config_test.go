package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"QDB_KV_DRIVER", "QDB_KV_DSN", "QDB_NAMESPACE", "QDB_DATABASE",
		"QDB_RECURSION_LIMIT", "QDB_IDIOM_DEPTH", "QDB_QUERY_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, "memory", cfg.KVDriver)
	require.Equal(t, "default", cfg.DefaultNamespace)
	require.Equal(t, "default", cfg.DefaultDatabase)
	require.Equal(t, 256, cfg.RecursionLimit)
	require.Equal(t, 120, cfg.IdiomDepth)
	require.Equal(t, 30*time.Second, cfg.QueryTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("QDB_KV_DRIVER", "sqlite")
	t.Setenv("QDB_KV_DSN", "file:qdb.db")
	t.Setenv("QDB_NAMESPACE", "acme")
	t.Setenv("QDB_DATABASE", "prod")
	t.Setenv("QDB_RECURSION_LIMIT", "64")
	t.Setenv("QDB_IDIOM_DEPTH", "30")
	t.Setenv("QDB_QUERY_TIMEOUT", "5s")

	cfg := Load()
	require.Equal(t, "sqlite", cfg.KVDriver)
	require.Equal(t, "file:qdb.db", cfg.KVDSN)
	require.Equal(t, "acme", cfg.DefaultNamespace)
	require.Equal(t, "prod", cfg.DefaultDatabase)
	require.Equal(t, 64, cfg.RecursionLimit)
	require.Equal(t, 30, cfg.IdiomDepth)
	require.Equal(t, 5*time.Second, cfg.QueryTimeout)
}

func TestLoadIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("QDB_RECURSION_LIMIT", "not-a-number")
	t.Setenv("QDB_IDIOM_DEPTH", "-5")

	cfg := Load()
	require.Equal(t, 256, cfg.RecursionLimit)
	require.Equal(t, 120, cfg.IdiomDepth)
}
