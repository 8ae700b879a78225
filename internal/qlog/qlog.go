// Package qlog is a thin wrapper around log/slog. The teacher never reaches
// for a third-party structured logger — internal/db.go logs ad-hoc via
// fmt.Fprintf(os.Stderr, ...) and db/sqlite.go configures gorm's own
// logger.Default.LogMode — so qdb keeps this one ambient concern on the
// standard library rather than importing something the pack never uses for
// plain application logging. The gorm-backed stores still use gorm's own
// logger for SQL tracing (internal/kv/sqlstore.go), matching db/sqlite.go.
package qlog

import (
	"log/slog"
	"os"
	"sync"
)

var (
	mu      sync.Mutex
	current *slog.Logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// Set installs l as the package-level logger, e.g. to switch to JSON
// output or raise the level from cmd/qdb's flags.
func Set(l *slog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// Get returns the current package-level logger.
func Get() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// New builds a text-handler logger at the given level, the shape cmd/qdb's
// --verbose flag selects between.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }
