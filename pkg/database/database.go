// Package database owns the process-wide *sql.DB for the relational store.
// PostgreSQL connections go through a pgx pool exposed via database/sql;
// SQLite uses the pure-Go modernc driver.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ghuser/itemregistry/pkg/logger"
)

// Supported driver names for DATABASE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database wraps a *sql.DB and remembers which driver opened it so
// infrastructure can pick the matching repository and migration dialect.
type Database struct {
	db     *sql.DB
	pool   *pgxpool.Pool // nil for SQLite
	driver string
}

// Open connects using the named driver. dsn is a postgres:// URL for
// DriverPostgres or a file path (or ":memory:") for DriverSQLite.
func Open(ctx context.Context, driver, dsn string, log logger.Logger) (*Database, error) {
	switch driver {
	case DriverPostgres:
		return NewPool(ctx, dsn, log)
	case DriverSQLite:
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("database: unsupported driver %q", driver)
	}
}

// NewPool creates a pgx connection pool and exposes it as *sql.DB.
// Connectivity is verified before returning.
func NewPool(ctx context.Context, url string, log logger.Logger) (*Database, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("database: parse config: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("database: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	log.Debug("database pool configured",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
	)

	return &Database{
		db:     stdlib.OpenDBFromPool(pool),
		pool:   pool,
		driver: DriverPostgres,
	}, nil
}

// sqlitePragmas are applied by the modernc driver to every new connection.
var sqlitePragmas = []string{"busy_timeout(5000)"}

// OpenSQLite opens a SQLite database at path. Every pooled connection waits
// up to 5s on a locked database, and file databases use WAL. An in-memory
// database is pinned to a single connection so every query sees the same data.
func OpenSQLite(ctx context.Context, path string) (*Database, error) {
	memory := path == ":memory:"
	db, err := sql.Open("sqlite", sqliteDSN(path, memory))
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: open sqlite: %w", err)
	}

	return &Database{db: db, driver: DriverSQLite}, nil
}

// sqliteDSN appends the connection pragmas as _pragma query parameters.
func sqliteDSN(path string, memory bool) string {
	pragmas := sqlitePragmas
	if !memory {
		pragmas = append(slices.Clone(pragmas), "journal_mode(WAL)")
	}
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// DB returns the underlying *sql.DB.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Driver reports DriverPostgres or DriverSQLite.
func (d *Database) Driver() string {
	return d.driver
}

// WithTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("database: rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close releases the *sql.DB and, for PostgreSQL, the pgx pool behind it.
func (d *Database) Close() {
	_ = d.db.Close()
	if d.pool != nil {
		d.pool.Close()
	}
}
