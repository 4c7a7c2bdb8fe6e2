package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/labreport-signatures/internal/common"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is a database/sql handle over either backend. For postgres the pgx pool is kept so it
// can be closed with the handle.
type DB struct {
	conn    *sql.DB
	pool    *pgxpool.Pool
	dialect string
	logger  *slog.Logger
}

// Open connects to the store named by cfg.DSN and creates the schema.
//
//	postgres://... or postgresql://...  -> pgx pool
//	sqlite://path, sqlite:path, file:path or *.db -> modernc sqlite
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialect, target, err := parseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	logger.Info("connecting to database", "dialect", dialect)

	db := &DB{dialect: dialect, logger: logger}
	switch dialect {
	case DialectPostgres:
		db.conn, db.pool, err = openPostgres(ctx, cfg, target)
	default:
		db.conn, err = openSQLite(ctx, cfg, target)
	}
	if err != nil {
		logger.Error("failed to connect to database", "dialect", dialect, "error", err)
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStore, dialect, err)
	}

	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %w", common.ErrStore, err)
	}
	logger.Info("successfully connected to database", "dialect", dialect)
	return db, nil
}

func parseDSN(dsn string) (dialect, target string, err error) {
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("%w: empty store DSN", common.ErrConfiguration)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "sqlite:"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite:"), nil
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), strings.HasSuffix(dsn, ".sqlite"):
		return DialectSQLite, dsn, nil
	default:
		return "", "", fmt.Errorf("%w: unsupported store DSN %q", common.ErrConfiguration, dsn)
	}
}

func openPostgres(ctx context.Context, cfg Config, dsn string) (*sql.DB, *pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, err
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "labcheck"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprint(cfg.StatementTimeout.Milliseconds())
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return stdlib.OpenDBFromPool(pool), pool, nil
}

func openSQLite(ctx context.Context, cfg Config, path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer keeps concurrent CLI runs from tripping SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

func (db *DB) migrate(ctx context.Context) error {
	idType, tsType := "TEXT", "TEXT"
	if db.dialect == DialectPostgres {
		idType, tsType = "UUID", "TIMESTAMPTZ"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS document_result (
			id ` + idType + ` PRIMARY KEY,
			document_path TEXT NOT NULL,
			processed_at ` + tsType + ` NOT NULL,
			actual_signatures INTEGER NOT NULL,
			expected_signatures INTEGER NOT NULL,
			results_comply TEXT NOT NULL,
			entities_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS document_result_path_idx ON document_result (document_path, processed_at)`,
	}
	for _, s := range stmts {
		if _, err := db.conn.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) Dialect() string { return db.dialect }

// Close closes the database connections gracefully
func (db *DB) Close() {
	db.logger.Info("closing database connections")
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			db.logger.Error("failed to close database", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Info("database connections closed")
}

// HealthCheck pings the store, bounded by timeout when positive.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	db.logger.Debug("pinging database")
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", common.ErrStore, err)
	}
	db.logger.Debug("database ping successful")
	return nil
}
