package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/astadocs/internal/common"
)

const applicationName = "astadocs"

// Open connects to Postgres when cfg.DSN is set, otherwise to the SQLite
// file at cfg.SQLitePath, and migrates the schema.
func Open(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (Store, error) {
	if cfg.DSN != "" {
		return OpenPostgres(ctx, cfg, logger)
	}
	return OpenSQLite(ctx, cfg.SQLitePath, logger)
}

// OpenPostgres creates a pgx pool and exposes it through database/sql.
func OpenPostgres(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*SQLStore, error) {
	logger.Info("db.connect.start", "driver", "pgx")
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("db.connect.failed", "error", err)
		return nil, common.NewAppError("DB_CONFIG", "invalid DB_URL", common.ErrDatabase)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}

	dialCtx, cancel := common.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("db.connect.failed", "error", err)
		return nil, dbError(err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		logger.Error("db.connect.failed", "error", err)
		return nil, dbError(err)
	}

	s := &SQLStore{
		db:      stdlib.OpenDBFromPool(pool),
		pool:    pool,
		dialect: dialectPostgres,
		log:     logger,
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("db.connect.ok", "driver", "pgx")
	return s, nil
}

// OpenSQLite opens (or creates) the SQLite database at path. ":memory:" gives
// a private in-process database.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLStore, error) {
	if path == "" {
		path = ":memory:"
	}
	logger.Info("db.connect.start", "driver", "sqlite", "path", path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("db.connect.failed", "error", err)
		return nil, dbError(err)
	}
	// SQLite allows a single writer; an in-memory database also lives per connection.
	db.SetMaxOpenConns(1)

	s := &SQLStore{db: db, dialect: dialectSQLite, log: logger}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	logger.Info("db.connect.ok", "driver", "sqlite")
	return s, nil
}

// HealthCheck pings the database under an optional timeout.
func (s *SQLStore) HealthCheck(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := common.WithTimeout(ctx, timeout)
	defer cancel()
	s.log.Debug("db.ping")
	var err error
	if s.pool != nil {
		err = s.pool.Ping(ctx)
	} else {
		err = s.db.PingContext(ctx)
	}
	if err != nil {
		return dbError(err)
	}
	return nil
}

// Close closes the database connections gracefully.
func (s *SQLStore) Close() {
	s.log.Info("db.close")
	if err := s.db.Close(); err != nil {
		s.log.Error("db.close.failed", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
