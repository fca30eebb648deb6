package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ExpenseFlow-io/expenseflow/internal/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrExpenseNotFound = errors.New("expense not found")
)

// DB wraps the sql connection together with the dialect it speaks.
type DB struct {
	conn   *sql.DB
	dbType string
}

// Init opens the database described by cfg, retrying on transient
// failures, and runs pending migrations.
func Init(cfg *config.Config) (*DB, error) {
	var conn *sql.DB
	var err error

	switch cfg.Database.Type {
	case "postgres":
		conn, err = openPostgres(cfg)
	case "sqlite", "":
		conn, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Database.Type)
	}
	if err != nil {
		return nil, err
	}

	var lastErr error
	for i := 0; i < cfg.Database.MaxRetries; i++ {
		if lastErr = conn.Ping(); lastErr == nil {
			break
		}
		log.Printf("Database ping attempt %d/%d failed: %v", i+1, cfg.Database.MaxRetries, lastErr)
		time.Sleep(time.Duration(cfg.Database.RetryDelay) * time.Second)
	}
	if lastErr != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %v", cfg.Database.MaxRetries, lastErr)
	}

	db := &DB{conn: conn, dbType: cfg.Database.Type}
	if db.dbType == "" {
		db.dbType = "sqlite"
	}

	if err := RunMigrations(conn, db.dbType); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	log.Printf("Database initialized (type: %s)", db.dbType)
	return db, nil
}

func openSQLite(cfg *config.Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Database.Path); dir != "." && !strings.HasPrefix(cfg.Database.Path, ":memory:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %v", err)
		}
	}

	dsn := cfg.Database.Path
	if cfg.Database.WALMode && !strings.HasPrefix(dsn, ":memory:") {
		dsn += "?_journal=WAL&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	// SQLite only supports one writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)
	return conn, nil
}

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	conn, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)
	return conn, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// rebind converts ? placeholders to $n for postgres. Queries are written
// once in sqlite style and rewritten here for the other dialect.
func (db *DB) rebind(query string) string {
	if db.dbType != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}
