package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/oxhq/qdb/internal/config"
	"github.com/oxhq/qdb/internal/kv"
	"github.com/oxhq/qdb/internal/qlog"
	"github.com/oxhq/qdb/internal/session"
)

// openSession loads config.Load()'s settings, opens the KV backend they
// name, and returns a session scoped to the configured default namespace
// and database. Every subcommand that touches data goes through this one
// path so QDB_KV_DRIVER/QDB_KV_DSN behave the same everywhere.
func openSession(verbose bool) (*session.Session, func() error, error) {
	cfg := config.Load()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	qlog.Set(qlog.New(level))

	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	sess := session.New(store, cfg.DefaultNamespace, cfg.DefaultDatabase)
	return sess, store.Close, nil
}

func openStore(cfg *config.Config) (kv.Store, error) {
	switch cfg.KVDriver {
	case "", "memory":
		return kv.NewMemStore(), nil
	case "sqlite":
		return kv.OpenSQLStore(cfg.KVDSN, false)
	case "libsql":
		return kv.OpenLibSQLStore(cfg.KVDSN, os.Getenv("QDB_KV_AUTH_TOKEN"), false)
	default:
		return nil, fmt.Errorf("unknown QDB_KV_DRIVER %q (want memory, sqlite, or libsql)", cfg.KVDriver)
	}
}
