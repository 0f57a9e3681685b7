package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/noah-isme/eeeflix-contacts/pkg/config"
)

// Open connects to the SQL backend selected by cfg.Store.Driver.
// It returns an error for the file driver, which needs no database.
func Open(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err = sqlx.Open("postgres", postgresDSN(cfg.Database))
		if err == nil {
			applyPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		}
	case config.StoreDriverSQLite:
		db, err = openSQLite(cfg.Store.SQLitePath)
	default:
		return nil, fmt.Errorf("store driver %q does not use a database", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Store.Driver, err)
	}
	return db, nil
}

func postgresDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
}

func openSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		path = "contacts.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("prepare sqlite directory: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	applyPool(db, 1, 1)
	return db, nil
}

func applyPool(db *sqlx.DB, maxOpen, maxIdle int) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)
}
