package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/invoice-qc/internal/common"
)

// DB is the report store handle: an ent SQL driver over either SQLite or a pgx pool.
type DB struct {
	drv     *entsql.Driver
	pool    *pgxpool.Pool // nil for sqlite
	dialect string
	logger  *slog.Logger
}

// Open connects to the configured store. For postgres it creates a pgx pool
// and wraps it for ent; for sqlite it uses the pure-Go modernc driver.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case "postgres", "postgresql", "pgx":
		return openPostgres(ctx, cfg, logger)
	case "sqlite", "sqlite3", "":
		return openSQLite(ctx, cfg, logger)
	default:
		return nil, common.NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown database driver %q", cfg.Driver), common.ErrInvalidInput)
	}
}

func openPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	logger.Info("repository.connect", "driver", "postgres")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("repository.connect.failed", "err", err)
		return nil, common.NewAppError("DB_CONFIG", "parse postgres dsn", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	pc.MaxConns = cfg.MaxConns
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "invoice-qc"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("repository.connect.failed", "err", err)
		return nil, common.NewAppError("DB_CONNECT", "connect postgres", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}

	// Wrap pool as *sql.DB for ent
	db := stdlib.OpenDBFromPool(pool)
	logger.Info("repository.connect.ok", "driver", "postgres")
	return &DB{drv: entsql.OpenDB(dialect.Postgres, db), pool: pool, dialect: dialect.Postgres, logger: logger}, nil
}

func openSQLite(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	dsn := sqliteDSN(cfg.DSN)
	logger.Info("repository.connect", "driver", "sqlite", "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.NewAppError("DB_CONNECT", "open sqlite", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		logger.Error("repository.connect.failed", "err", err)
		return nil, common.NewAppError("DB_CONNECT", "ping sqlite", fmt.Errorf("%w: %v", common.ErrDatabase, err))
	}
	logger.Info("repository.connect.ok", "driver", "sqlite")
	return &DB{drv: entsql.OpenDB(dialect.SQLite, db), dialect: dialect.SQLite, logger: logger}, nil
}

// sqliteDSN turns on foreign keys, which ent's sqlite migrator requires.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "file:invoice-qc.db"
	}
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Dialect is the ent dialect name in use.
func (d *DB) Dialect() string { return d.dialect }

func (d *DB) sqlDB() *sql.DB { return d.drv.DB() }

// Close closes the database connections gracefully
func (d *DB) Close() {
	d.logger.Info("repository.close")
	if err := d.drv.Close(); err != nil {
		d.logger.Error("repository.close.failed", "err", err)
	}
	if d.pool != nil {
		d.pool.Close()
	}
}

// HealthCheck pings the store, bounded by timeout when positive.
func (d *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if d.pool != nil {
		return d.pool.Ping(ctx)
	}
	return d.sqlDB().PingContext(ctx)
}
