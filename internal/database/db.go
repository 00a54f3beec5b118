package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DB wraps the connection with dialect-aware, context-aware query helpers.
// Every repository call goes through these wrappers so that placeholder
// rewriting and request cancellation work the same on every backend.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the configured database and applies dialect settings.
// Supported types: sqlite (default), postgres, mysql.
func Open(databaseType, databaseURL, databasePath string) (*DB, error) {
	var dialect Dialect
	var cfg DialectConfig

	switch strings.ToLower(databaseType) {
	case "postgres", "postgresql":
		dialect = NewPostgresDialect()
		cfg = DialectConfig{URL: databaseURL}
	case "mysql":
		dialect = NewMySQLDialect()
		cfg = DialectConfig{URL: databaseURL}
	case "sqlite", "sqlite3", "":
		dialect = NewSQLiteDialect()
		cfg = DialectConfig{Path: databasePath}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", databaseType)
	}

	db, err := sql.Open(dialect.DriverName(), dialect.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := dialect.Configure(db); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// QueryContext executes a query with automatic placeholder rewriting
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, db.Dialect.Rewrite(query), args...)
}

// QueryRowContext executes a single-row query with automatic placeholder rewriting
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRowContext(ctx, db.Dialect.Rewrite(query), args...)
}

// ExecContext executes a statement with automatic placeholder rewriting
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.DB.ExecContext(ctx, db.Dialect.Rewrite(query), args...)
}

// InsertReturningID executes an INSERT and returns the new row's id,
// papering over the LastInsertId / RETURNING split between drivers.
func (db *DB) InsertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	rewritten := db.Dialect.Rewrite(query)

	if db.Dialect.SupportsLastInsertId() {
		result, err := db.DB.ExecContext(ctx, rewritten, args...)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	}

	rewritten = strings.TrimSuffix(strings.TrimSpace(rewritten), ";") + " RETURNING id"

	var id int64
	if err := db.DB.QueryRowContext(ctx, rewritten, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
