package kv

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenLibSQLStore opens a Store against a remote libsql/Turso database, the
// URL-DSN branch db.Connect used to switch on via isURL(dsn). authToken may
// be empty for unauthenticated endpoints.
func OpenLibSQLStore(dsn, authToken string, debug bool) (*SQLStore, error) {
	var (
		connector driver.Connector
		err       error
	)
	if authToken != "" {
		connector, err = libsql.NewConnector(dsn, libsql.WithAuthToken(authToken))
	} else {
		connector, err = libsql.NewConnector(dsn)
	}
	if err != nil {
		return nil, fmt.Errorf("create libsql connector: %w", err)
	}

	conn := sql.OpenDB(connector)
	dialector := sqlite.New(sqlite.Config{
		DriverName: "libsql",
		Conn:       conn,
		DSN:        dsn,
	})

	cfg := &gorm.Config{}
	if debug {
		cfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open libsql store: %w", err)
	}
	if err := db.AutoMigrate(&kvRow{}); err != nil {
		return nil, fmt.Errorf("migrate libsql store: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// IsLibSQLDSN reports whether dsn names a remote libsql/Turso endpoint
// rather than a local file path, mirroring db.isURL's prefix check.
func IsLibSQLDSN(dsn string) bool {
	return len(dsn) > 7 && (dsn[:7] == "http://" || (len(dsn) > 8 && dsn[:8] == "https://") || (len(dsn) > 6 && dsn[:6] == "libsql"))
}
