package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// kvRow is the one gorm model the SQL-backed stores need: a flat byte-keyed
// table, the same "one struct per gorm.Open" shape as the teacher's
// models.Stage/Apply/Session, just generalized from named columns to
// Key/Value so it can hold any of the engine's prefix-encoded keys.
type kvRow struct {
	Key   string `gorm:"primaryKey;type:varbinary(1024)"`
	Value []byte `gorm:"type:blob;not null"`
}

func (kvRow) TableName() string { return "kv_entries" }

// SQLStore is the file-backed reference Store, grounded on db.Connect's
// plain-DSN branch: gorm.io/driver/sqlite through gorm.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQLStore opens (creating if needed) a SQLite-backed Store at dsn, a
// file path. debug mirrors db.Connect's verbose gorm logger toggle.
func OpenSQLStore(dsn string, debug bool) (*SQLStore, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create kv store directory: %w", err)
		}
	}

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Exec("PRAGMA foreign_keys = ON")
	}
	if err := db.AutoMigrate(&kvRow{}); err != nil {
		return nil, fmt.Errorf("migrate kv store: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Begin(ctx context.Context) (Transaction, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("begin kv transaction: %w", tx.Error)
	}
	return &sqlTx{db: tx}, nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqlTx wraps a *gorm.DB transaction; SAVEPOINT support comes straight from
// gorm's named-save-point API (gorm.io/gorm.SavePoint/RollbackTo), which
// sqlite supports natively.
type sqlTx struct {
	db      *gorm.DB
	spCount int
}

func (t *sqlTx) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	var row kvRow
	err := t.db.WithContext(ctx).Where("key = ?", string(key)).Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	return row.Value, true, nil
}

func (t *sqlTx) Set(ctx context.Context, key, val []byte) error {
	row := kvRow{Key: string(key), Value: append([]byte(nil), val...)}
	return t.db.WithContext(ctx).Save(&row).Error
}

func (t *sqlTx) Delete(ctx context.Context, key []byte) error {
	return t.db.WithContext(ctx).Where("key = ?", string(key)).Delete(&kvRow{}).Error
}

func (t *sqlTx) ScanRange(ctx context.Context, from, to []byte, fromIncl, toIncl, reverse bool) (Iterator, error) {
	q := t.db.WithContext(ctx).Model(&kvRow{})
	if from != nil {
		if fromIncl {
			q = q.Where("key >= ?", string(from))
		} else {
			q = q.Where("key > ?", string(from))
		}
	}
	if to != nil {
		if toIncl {
			q = q.Where("key <= ?", string(to))
		} else {
			q = q.Where("key < ?", string(to))
		}
	}
	if reverse {
		q = q.Order("key DESC")
	} else {
		q = q.Order("key ASC")
	}
	var rows []kvRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	pairs := make([]kvPair, len(rows))
	for i, r := range rows {
		pairs[i] = kvPair{key: []byte(r.Key), val: r.Value}
	}
	return &memIterator{rows: pairs, pos: -1}, nil
}

func (t *sqlTx) Savepoint(_ context.Context) (Savepoint, error) {
	t.spCount++
	name := fmt.Sprintf("qdb_sp_%d", t.spCount)
	if err := t.db.SavePoint(name).Error; err != nil {
		return nil, err
	}
	return &sqlSavepoint{tx: t, name: name}, nil
}

func (t *sqlTx) Commit(_ context.Context) error   { return t.db.Commit().Error }
func (t *sqlTx) Rollback(_ context.Context) error { return t.db.Rollback().Error }

type sqlSavepoint struct {
	tx   *sqlTx
	name string
}

func (sp *sqlSavepoint) RollbackTo(_ context.Context) error {
	return sp.tx.db.RollbackTo(sp.name).Error
}

func (sp *sqlSavepoint) Release(_ context.Context) error {
	// SQLite has no RELEASE SAVEPOINT exposed through gorm's API; the
	// savepoint is simply left in place until the enclosing transaction
	// commits or rolls back, which drops it.
	return nil
}
